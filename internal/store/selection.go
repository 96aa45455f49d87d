package store

import "github.com/attritionlab/attrition-engine/internal/models"

// Selection is a view of store rows addressed by index. Rows are never copied.
type Selection struct {
	store   *Store
	indices []int
}

// Len returns the number of selected rows.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.indices)
}

// Store returns the backing store.
func (s *Selection) Store() *Store {
	return s.store
}

// Indices returns a copy of the selected row indices in store order.
func (s *Selection) Indices() []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s.indices...)
}

// At returns a copy of the i-th selected row.
func (s *Selection) At(i int) models.Employee {
	return s.store.records[s.indices[i]]
}

// Each calls fn for every selected row in order. fn must not modify the row.
func (s *Selection) Each(fn func(e *models.Employee)) {
	if s == nil {
		return
	}
	for _, idx := range s.indices {
		fn(&s.store.records[idx])
	}
}

// Covers reports whether the selection contains every row of its store.
func (s *Selection) Covers() bool {
	return s != nil && s.store != nil && len(s.indices) == len(s.store.records)
}
