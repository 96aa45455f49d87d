package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// ErrInvalidFilter marks filter specs that reference unknown fields or apply
// a range to a non-numeric field.
var ErrInvalidFilter = errors.New("invalid filter")

type predicate func(e *models.Employee) bool

// Select returns the rows of st satisfying every constraint in spec, in store
// order. An empty spec selects every row. A constraint that cannot match
// anything (an empty value set, min > max, an unknown field) yields an empty
// selection rather than an error. Select never mutates st.
func Select(st *store.Store, spec models.FilterSpec) *store.Selection {
	if st == nil {
		return nil
	}
	if len(spec) == 0 {
		return st.All()
	}

	preds := make([]predicate, 0, len(spec))
	for _, name := range spec.Fields() {
		p, ok := compile(st.Schema(), name, spec[name])
		if !ok {
			return st.Empty()
		}
		preds = append(preds, p)
	}

	return st.Filter(func(e *models.Employee) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	})
}

// compile turns one constraint into a predicate; ok is false when no row can
// satisfy it.
func compile(schema *store.Schema, name string, c models.Constraint) (predicate, bool) {
	field, ok := schema.Field(name)
	if !ok {
		return nil, false
	}

	switch c.Kind {
	case models.ConstraintSet:
		if len(c.Values) == 0 {
			return nil, false
		}
		accepted := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			accepted[canonicalValue(field, v)] = struct{}{}
		}
		return func(e *models.Employee) bool {
			_, ok := accepted[field.Text(e)]
			return ok
		}, true

	case models.ConstraintRange:
		if !field.Kind.IsNumeric() || math.IsNaN(c.Min) || math.IsNaN(c.Max) || c.Min > c.Max {
			return nil, false
		}
		min, max := c.Min, c.Max
		return func(e *models.Employee) bool {
			v, _ := field.Number(e)
			return v >= min && v <= max
		}, true
	}
	return nil, false
}

// canonicalValue normalizes numeric set members so "3" and "3.0" both match
// a stored 3.
func canonicalValue(field store.Field, v string) string {
	if !field.Kind.IsNumeric() {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ValidateFilter reports constraints that reference unknown fields or apply a
// range to a non-numeric field. Empty sets and inverted ranges are valid and
// simply select nothing.
func ValidateFilter(schema *store.Schema, spec models.FilterSpec) error {
	for _, name := range spec.Fields() {
		field, ok := schema.Field(name)
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, name)
		}
		c := spec[name]
		if c.Kind == models.ConstraintRange && !field.Kind.IsNumeric() {
			return fmt.Errorf("%w: field %q is %s and does not support ranges", ErrInvalidFilter, name, field.Kind)
		}
	}
	return nil
}
