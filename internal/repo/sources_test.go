package repo

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/attritionlab/attrition-engine/internal/config"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
	"github.com/attritionlab/attrition-engine/internal/store/storetest"
)

func fixtureRecords() []models.Employee {
	return storetest.Cohort(1, 25, 6, func(i int, e *models.Employee) {
		e.Department = []string{"Sales", "R&D", "IT"}[i%3]
		e.MonthlyIncome = 3100.5 + float64(i*211)
		e.JobLevel = 1 + i%5
		e.YearsAtCompany = float64(i%9) + 0.5
		e.OverTime = i%4 == 0
		e.BusinessTravel = store.TravelFrequencies[i%3]
	})
}

func TestFileSourceLoads(t *testing.T) {
	records := fixtureRecords()
	path := filepath.Join(t.TempDir(), "hr.csv")
	if err := os.WriteFile(path, storetest.CSV(records), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	st, err := store.Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := storetest.Build(t, records)
	if st.Len() != len(records) || st.Version() != want.Version() {
		t.Fatalf("file source diverges from in-memory load")
	}
	if !strings.HasPrefix(st.Source(), "file:") {
		t.Fatalf("unexpected source name %q", st.Source())
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := store.Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "absent.csv")})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestHTTPSourceLoads(t *testing.T) {
	records := fixtureRecords()
	body := bytes.ReplaceAll(storetest.CSV(records), []byte(","), []byte(";"))

	src := NewHTTPSource("https://example.com/hr.csv", ';', time.Second)
	src.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet || req.URL.Path != "/hr.csv" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(bytes.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	}))

	st, err := store.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Version() != storetest.Build(t, records).Version() {
		t.Fatalf("http source diverges from in-memory load")
	}
}

func TestHTTPSourceRejectsErrorStatus(t *testing.T) {
	src := NewHTTPSource("https://example.com/hr.csv", ',', time.Second)
	src.httpClient = newTestClient(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(strings.NewReader("missing")),
			Header:     make(http.Header),
		}, nil
	}))

	if _, err := store.Load(context.Background(), src); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func writeSQLiteFixture(t *testing.T, path string, records []models.Employee) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	fields := store.DefaultSchema().Fields()
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	for i, f := range fields {
		kind := "TEXT"
		switch f.Kind {
		case store.KindNumeric:
			kind = "REAL"
		case store.KindOrdinal, store.KindCount:
			kind = "INTEGER"
		}
		cols[i] = f.Name + " " + kind
		marks[i] = "?"
	}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE employees ("+strings.Join(cols, ", ")+")"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	insert := "INSERT INTO employees VALUES (" + strings.Join(marks, ", ") + ")"
	for i := range records {
		args := make([]any, len(fields))
		for j, f := range fields {
			switch f.Kind {
			case store.KindNumeric:
				args[j], _ = f.Number(&records[i])
			case store.KindOrdinal, store.KindCount:
				v, _ := f.Number(&records[i])
				args[j] = int64(v)
			default:
				args[j] = f.Text(&records[i])
			}
		}
		if _, err := db.ExecContext(ctx, insert, args...); err != nil {
			t.Fatalf("insert row %d: %v", i, err)
		}
	}
}

func TestSQLiteSourceLoads(t *testing.T) {
	records := fixtureRecords()
	path := filepath.Join(t.TempDir(), "hr.db")
	writeSQLiteFixture(t, path, records)

	st, err := store.Load(context.Background(), SQLiteSource{Path: path, Table: "employees"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Len() != len(records) || st.Version() != storetest.Build(t, records).Version() {
		t.Fatalf("sqlite source diverges from in-memory load")
	}
}

func TestSQLiteSourceRejectsBadTable(t *testing.T) {
	src := SQLiteSource{Path: filepath.Join(t.TempDir(), "hr.db"), Table: "employees; DROP TABLE x"}
	if _, err := src.Open(context.Background()); err == nil {
		t.Fatalf("expected invalid table name error")
	}
}

func TestSQLText(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{int64(4), "4"},
		{6000.0, "6000"},
		{4200.25, "4200.25"},
		{[]byte("Sales"), "Sales"},
		{"R&D", "R&D"},
	}
	for _, c := range cases {
		if got := sqlText(c.in); got != c.want {
			t.Fatalf("sqlText(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.DatasetConfig{Path: "hr.csv", URL: "https://example.com/hr.csv", Delimiter: ";"})
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	file, ok := src.(FileSource)
	if !ok || file.Delimiter != ';' {
		t.Fatalf("expected file source with ';', got %#v", src)
	}

	src, _ = FromConfig(config.DatasetConfig{URL: "https://example.com/hr.csv"})
	if _, ok := src.(*HTTPSource); !ok {
		t.Fatalf("expected http source, got %T", src)
	}

	src, _ = FromConfig(config.DatasetConfig{SQLitePath: "hr.db", SQLiteTable: "staff"})
	if sq, ok := src.(SQLiteSource); !ok || sq.Table != "staff" {
		t.Fatalf("expected sqlite source, got %#v", src)
	}

	if _, err := FromConfig(config.DatasetConfig{}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}
