// Package store holds the immutable, validated employee dataset.
package store

import (
	"fmt"
	"time"

	"github.com/attritionlab/attrition-engine/internal/models"
)

// Store is a loaded dataset. It is never mutated after Load returns and may be
// shared across goroutines without locking.
type Store struct {
	schema   *Schema
	records  []models.Employee
	version  string
	source   string
	loadedAt time.Time
}

// Len returns the number of rows.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Schema returns the schema the store was validated against.
func (s *Store) Schema() *Schema {
	return s.schema
}

// Fields returns the column names in declaration order.
func (s *Store) Fields() []string {
	return s.schema.Names()
}

// Version is a content hash of the canonical rows. Two stores with the same
// rows in the same order share a version.
func (s *Store) Version() string {
	return s.version
}

// Source names where the dataset was loaded from.
func (s *Store) Source() string {
	return s.source
}

// LoadedAt reports when the store was built.
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// At returns a copy of row i.
func (s *Store) At(i int) models.Employee {
	return s.records[i]
}

// Records returns a copy of every row in load order.
func (s *Store) Records() []models.Employee {
	return append([]models.Employee(nil), s.records...)
}

// All returns a selection of every row.
func (s *Store) All() *Selection {
	indices := make([]int, len(s.records))
	for i := range indices {
		indices[i] = i
	}
	return &Selection{store: s, indices: indices}
}

// Filter returns the rows for which keep reports true, in store order.
// keep must not modify the row.
func (s *Store) Filter(keep func(e *models.Employee) bool) *Selection {
	indices := make([]int, 0, len(s.records))
	for i := range s.records {
		if keep(&s.records[i]) {
			indices = append(indices, i)
		}
	}
	return &Selection{store: s, indices: indices}
}

// Empty returns a selection with no rows.
func (s *Store) Empty() *Selection {
	return &Selection{store: s}
}

// SelectIndices rebuilds a selection from strictly increasing row indices.
func (s *Store) SelectIndices(indices []int) (*Selection, error) {
	prev := -1
	for _, idx := range indices {
		if idx <= prev || idx >= len(s.records) {
			return nil, fmt.Errorf("invalid row index %d", idx)
		}
		prev = idx
	}
	return &Selection{store: s, indices: append([]int(nil), indices...)}, nil
}
