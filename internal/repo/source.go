package repo

import (
	"errors"

	"github.com/attritionlab/attrition-engine/internal/config"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// ErrNoSource is returned when the configuration names no dataset.
var ErrNoSource = errors.New("no dataset source configured")

// FromConfig picks the dataset source named by cfg: a file path first, then
// a URL, then a SQLite table.
func FromConfig(cfg config.DatasetConfig) (store.Source, error) {
	delimiter, err := cfg.DelimiterRune()
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.Path != "":
		return FileSource{Path: cfg.Path, Delimiter: delimiter}, nil
	case cfg.URL != "":
		return NewHTTPSource(cfg.URL, delimiter, cfg.Timeout), nil
	case cfg.SQLitePath != "":
		return SQLiteSource{Path: cfg.SQLitePath, Table: cfg.SQLiteTable}, nil
	default:
		return nil, ErrNoSource
	}
}
