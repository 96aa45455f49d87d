package store

import "fmt"

// SchemaError reports the first missing or malformed field encountered while
// loading a dataset. Row is 1-based over data rows; 0 means the header.
type SchemaError struct {
	Field  string
	Row    int
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		if e.Field == "" {
			return fmt.Sprintf("schema: %s", e.Reason)
		}
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("schema: row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("schema: row %d field %q value %q: %s", e.Row, e.Field, e.Value, e.Reason)
}
