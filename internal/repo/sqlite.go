package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/attritionlab/attrition-engine/internal/store"

	// sqlite driver for dataset tables.
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads every row of one table from a SQLite database. Column
// names play the role of the CSV header.
type SQLiteSource struct {
	Path  string
	Table string
}

// Name implements store.Source.
func (s SQLiteSource) Name() string {
	return fmt.Sprintf("sqlite:%s#%s", s.Path, s.Table)
}

// Open implements store.Source. The database is opened read-only.
func (s SQLiteSource) Open(ctx context.Context) (store.RowReader, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("sqlite path not configured")
	}
	if !tableName.MatchString(s.Table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", s.Table)
	}

	db, err := sql.Open("sqlite", s.Path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+s.Table+`"`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	header, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		_ = db.Close()
		return nil, err
	}
	return &sqlRowReader{db: db, rows: rows, header: header}, nil
}

type sqlRowReader struct {
	db     *sql.DB
	rows   *sql.Rows
	header []string
}

func (r *sqlRowReader) Header() []string { return r.header }

func (r *sqlRowReader) Next() ([]string, error) {
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	raw := make([]any, len(r.header))
	ptrs := make([]any, len(raw))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = sqlText(v)
	}
	return values, nil
}

func (r *sqlRowReader) Close() error {
	return errors.Join(r.rows.Close(), r.db.Close())
}

// sqlText renders a scanned SQLite value the way it would appear in a CSV.
func sqlText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
