package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/attritionlab/attrition-engine/internal/models"
)

// RowReader yields raw string rows under a fixed header.
type RowReader interface {
	Header() []string
	// Next returns io.EOF once the rows are exhausted.
	Next() ([]string, error)
	Close() error
}

// Source opens a dataset for loading.
type Source interface {
	Name() string
	Open(ctx context.Context) (RowReader, error)
}

// Load reads every row from src and validates it against the default schema.
// The first missing column or malformed value aborts the load with a
// *SchemaError; rows are never skipped or coerced.
func Load(ctx context.Context, src Source) (*Store, error) {
	rr, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rr.Close()

	schema := DefaultSchema()
	header := rr.Header()
	columns, err := resolveColumns(schema, header)
	if err != nil {
		return nil, err
	}

	records := make([]models.Employee, 0, 1024)
	seen := make(map[string]int)
	digest := xxhash.New()
	fields := schema.fields

	for row := 1; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		values, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", src.Name(), row, err)
		}
		if len(values) != len(header) {
			return nil, &SchemaError{Row: row, Reason: fmt.Sprintf("row has %d values, header has %d", len(values), len(header))}
		}

		var e models.Employee
		for i, f := range fields {
			raw := values[columns[i]]
			if raw != strings.TrimSpace(raw) {
				return nil, &SchemaError{Field: f.Name, Row: row, Value: raw, Reason: "surrounding whitespace"}
			}
			if reason := f.decode(&e, raw); reason != "" {
				return nil, &SchemaError{Field: f.Name, Row: row, Value: raw, Reason: reason}
			}
		}
		if first, dup := seen[e.EmployeeNumber]; dup {
			return nil, &SchemaError{
				Field:  FieldEmployeeNumber,
				Row:    row,
				Value:  e.EmployeeNumber,
				Reason: fmt.Sprintf("duplicate identifier, first seen at row %d", first),
			}
		}
		seen[e.EmployeeNumber] = row

		for i, f := range fields {
			if i > 0 {
				_, _ = digest.WriteString("\x1f")
			}
			_, _ = digest.WriteString(f.text(&e))
		}
		_, _ = digest.WriteString("\x1e")
		records = append(records, e)
	}

	return &Store{
		schema:   schema,
		records:  records,
		version:  fmt.Sprintf("%016x", digest.Sum64()),
		source:   src.Name(),
		loadedAt: time.Now().UTC(),
	}, nil
}

// resolveColumns maps each schema field to its header position. Extra
// columns are ignored.
func resolveColumns(schema *Schema, header []string) ([]int, error) {
	if len(header) == 0 {
		return nil, &SchemaError{Reason: "missing header row"}
	}
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; dup {
			if _, required := schema.index[name]; required {
				return nil, &SchemaError{Field: name, Reason: "column appears more than once"}
			}
			continue
		}
		positions[name] = i
	}
	columns := make([]int, len(schema.fields))
	for i, f := range schema.fields {
		pos, ok := positions[f.Name]
		if !ok {
			return nil, &SchemaError{Field: f.Name, Reason: "missing column"}
		}
		columns[i] = pos
	}
	return columns, nil
}

// LoadCSV loads a comma-delimited dataset from r.
func LoadCSV(r io.Reader) (*Store, error) {
	return Load(context.Background(), ReaderSource{Label: "csv", Reader: r})
}

// ReaderSource adapts an io.Reader of delimited text to Source.
type ReaderSource struct {
	Label     string
	Reader    io.Reader
	Delimiter rune
}

// Name implements Source.
func (s ReaderSource) Name() string {
	if s.Label == "" {
		return "reader"
	}
	return s.Label
}

// Open implements Source.
func (s ReaderSource) Open(context.Context) (RowReader, error) {
	return NewCSVRowReader(s.Reader, s.Delimiter, nil)
}

// NewCSVRowReader reads the header row from r immediately. closer, if
// non-nil, is closed with the reader.
func NewCSVRowReader(r io.Reader, delimiter rune, closer io.Closer) (RowReader, error) {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		header, err = nil, nil
	}
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return &csvRowReader{reader: cr, header: header, closer: closer}, nil
}

type csvRowReader struct {
	reader *csv.Reader
	header []string
	closer io.Closer
}

func (c *csvRowReader) Header() []string { return c.header }

func (c *csvRowReader) Next() ([]string, error) {
	return c.reader.Read()
}

func (c *csvRowReader) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
