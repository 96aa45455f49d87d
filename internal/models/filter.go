package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConstraintKind selects how a Constraint is evaluated.
type ConstraintKind int

const (
	// ConstraintSet accepts rows whose value is a member of Values.
	ConstraintSet ConstraintKind = iota
	// ConstraintRange accepts rows whose numeric value lies in [Min, Max].
	ConstraintRange
)

// Constraint restricts a single field. An empty Values set accepts nothing.
type Constraint struct {
	Kind   ConstraintKind
	Values []string
	Min    float64
	Max    float64
}

// OneOf builds a membership constraint.
func OneOf(values ...string) Constraint {
	return Constraint{Kind: ConstraintSet, Values: append([]string{}, values...)}
}

// Between builds an inclusive numeric range constraint.
func Between(min, max float64) Constraint {
	return Constraint{Kind: ConstraintRange, Min: min, Max: max}
}

type constraintJSON struct {
	Values *[]string `json:"values,omitempty"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
}

// MarshalJSON encodes a set as {"values": [...]} and a range as {"min": a, "max": b}.
func (c Constraint) MarshalJSON() ([]byte, error) {
	if c.Kind == ConstraintRange {
		min, max := c.Min, c.Max
		return json.Marshal(constraintJSON{Min: &min, Max: &max})
	}
	values := append([]string{}, c.Values...)
	return json.Marshal(constraintJSON{Values: &values})
}

// UnmarshalJSON distinguishes an explicit empty set from an absent one.
func (c *Constraint) UnmarshalJSON(data []byte) error {
	var raw constraintJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Values != nil && (raw.Min != nil || raw.Max != nil):
		return fmt.Errorf("constraint cannot combine values with min/max")
	case raw.Values != nil:
		*c = OneOf(*raw.Values...)
	case raw.Min != nil && raw.Max != nil:
		*c = Between(*raw.Min, *raw.Max)
	default:
		return fmt.Errorf("constraint needs either values or both min and max")
	}
	return nil
}

// FilterSpec maps a field name to the constraint applied to it. Fields not
// present are unconstrained.
type FilterSpec map[string]Constraint

// Fields returns the constrained field names in sorted order.
func (f FilterSpec) Fields() []string {
	fields := make([]string, 0, len(f))
	for name := range f {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// CanonicalKey renders the spec in a stable form suitable for cache keys.
// Value order and duplicates inside a set do not change the key.
func (f FilterSpec) CanonicalKey() string {
	if len(f) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(f))
	for _, name := range f.Fields() {
		c := f[name]
		if c.Kind == ConstraintRange {
			parts = append(parts, fmt.Sprintf("%s=range[%s,%s]", strconv.Quote(name),
				strconv.FormatFloat(c.Min, 'g', -1, 64), strconv.FormatFloat(c.Max, 'g', -1, 64)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=in[%s]", strconv.Quote(name), strings.Join(quoteSorted(c.Values), ",")))
	}
	return strings.Join(parts, ";")
}

func quoteSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, strconv.Quote(v))
	}
	sort.Strings(out)
	return out
}
