// Package export renders selections and analysis results as delimited text.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Kind names an export layout.
type Kind string

const (
	KindRows        Kind = "rows"
	KindSummary     Kind = "summary"
	KindCorrelation Kind = "correlation"
	KindInsights    Kind = "insights"
	KindBreakdown   Kind = "breakdown"
)

// Kinds lists every supported export kind.
var Kinds = []Kind{KindRows, KindSummary, KindCorrelation, KindInsights, KindBreakdown}

var (
	summaryHeader     = []string{"kpi", "value"}
	correlationHeader = []string{"rank", "factor", "coefficient"}
	insightsHeader    = []string{"rank", "severity", "category", "rule", "message"}
	breakdownHeader   = []string{"dimension", "group", "total", "attrited", "attrition_rate"}
)

// FormatError reports an export that cannot be produced.
type FormatError struct {
	Kind   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("export %q: %s", e.Kind, e.Reason)
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(name, string(k)) {
			return k, nil
		}
	}
	return "", &FormatError{Kind: name, Reason: "unsupported export kind"}
}

// Payload carries the results an export may draw from. Only the part the
// requested kind needs has to be set.
type Payload struct {
	Selection   *store.Selection
	Summary     models.Summary
	Correlation models.CorrelationResult
	Insights    []models.Insight
	Breakdowns  []models.Breakdown
}

// Formatter writes exports with a fixed delimiter.
type Formatter struct {
	delimiter rune
	crlf      bool
}

// Option customises a Formatter.
type Option func(*Formatter)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(f *Formatter) {
		f.delimiter = d
	}
}

// WithCRLF terminates lines with \r\n.
func WithCRLF() Option {
	return func(f *Formatter) {
		f.crlf = true
	}
}

// NewFormatter returns a comma-delimited formatter unless overridden.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{delimiter: ','}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Delimiter returns the configured field delimiter.
func (f *Formatter) Delimiter() rune {
	return f.delimiter
}

// Format renders kind into memory.
func (f *Formatter) Format(kind Kind, p Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf, kind, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders kind to w. Header rows are always written, even for empty
// results.
func (f *Formatter) Write(w io.Writer, kind Kind, p Payload) error {
	var records [][]string
	switch kind {
	case KindRows:
		records = rowRecords(p.Selection)
	case KindSummary:
		records = summaryRecords(p.Summary)
	case KindCorrelation:
		records = correlationRecords(p.Correlation)
	case KindInsights:
		records = insightRecords(p.Insights)
	case KindBreakdown:
		records = breakdownRecords(p.Breakdowns)
	default:
		return &FormatError{Kind: string(kind), Reason: "unsupported export kind"}
	}

	cw := csv.NewWriter(w)
	cw.Comma = f.delimiter
	cw.UseCRLF = f.crlf
	if err := cw.WriteAll(records); err != nil {
		return &FormatError{Kind: string(kind), Reason: err.Error()}
	}
	return nil
}

func rowRecords(sel *store.Selection) [][]string {
	schema := store.DefaultSchema()
	fields := schema.Fields()
	records := make([][]string, 0, sel.Len()+1)
	records = append(records, schema.Names())
	sel.Each(func(e *models.Employee) {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = f.Text(e)
		}
		records = append(records, row)
	})
	return records
}

func summaryRecords(s models.Summary) [][]string {
	kpis := s.KPIs()
	records := make([][]string, 0, len(kpis)+1)
	records = append(records, summaryHeader)
	for _, kpi := range kpis {
		records = append(records, []string{kpi.Name, kpi.Value.String()})
	}
	return records
}

func correlationRecords(c models.CorrelationResult) [][]string {
	records := make([][]string, 0, len(c)+1)
	records = append(records, correlationHeader)
	for i, fc := range c {
		records = append(records, []string{strconv.Itoa(i + 1), fc.Factor, fc.Coefficient.String()})
	}
	return records
}

func insightRecords(insights []models.Insight) [][]string {
	records := make([][]string, 0, len(insights)+1)
	records = append(records, insightsHeader)
	for i, in := range insights {
		records = append(records, []string{
			strconv.Itoa(i + 1),
			string(in.Severity),
			string(in.Category),
			in.Rule,
			in.Message,
		})
	}
	return records
}

func breakdownRecords(breakdowns []models.Breakdown) [][]string {
	records := [][]string{breakdownHeader}
	for _, b := range breakdowns {
		for _, g := range b.Groups {
			records = append(records, []string{
				b.Dimension,
				g.Key,
				strconv.Itoa(g.Total),
				strconv.Itoa(g.Attrited),
				strconv.FormatFloat(g.Rate, 'f', -1, 64),
			})
		}
	}
	return records
}

// Filename suggests a download name for kind, stamped with the export date.
func Filename(kind Kind, at time.Time) string {
	return fmt.Sprintf("attrition_%s_%s.csv", kind, at.Format("20060102"))
}
