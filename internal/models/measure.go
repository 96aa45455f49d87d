package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UndefinedText is how an undefined Measure is rendered in text exports.
const UndefinedText = "undefined"

// Measure is a scalar that may be mathematically undefined, such as the mean
// of an empty selection or the correlation of a constant column.
type Measure struct {
	value   float64
	defined bool
}

// Defined wraps a computed value.
func Defined(v float64) Measure {
	return Measure{value: v, defined: true}
}

// Undefined returns the sentinel for a metric with no meaningful value.
func Undefined() Measure {
	return Measure{}
}

// Value returns the wrapped value and whether it is defined.
func (m Measure) Value() (float64, bool) {
	return m.value, m.defined
}

// IsDefined reports whether the measure carries a value.
func (m Measure) IsDefined() bool {
	return m.defined
}

// Or returns the value, or fallback when undefined.
func (m Measure) Or(fallback float64) float64 {
	if !m.defined {
		return fallback
	}
	return m.value
}

func (m Measure) String() string {
	if !m.defined {
		return UndefinedText
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

// MarshalJSON encodes undefined measures as null.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts a number or null.
func (m *Measure) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}
