// Package repo opens employee datasets from files, HTTP endpoints and SQLite
// databases for store.Load.
package repo

import (
	"context"
	"fmt"
	"os"

	"github.com/attritionlab/attrition-engine/internal/store"
)

// FileSource reads a delimited file from local disk.
type FileSource struct {
	Path      string
	Delimiter rune
}

// Name implements store.Source.
func (s FileSource) Name() string {
	return "file:" + s.Path
}

// Open implements store.Source.
func (s FileSource) Open(ctx context.Context) (store.RowReader, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("dataset path not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	return store.NewCSVRowReader(f, s.Delimiter, f)
}
