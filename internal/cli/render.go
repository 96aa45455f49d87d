package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/services"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
)

func validFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, formatTable, formatJSON)
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func renderSummary(w io.Writer, s models.Summary) {
	t := newTable(w, "Summary")
	t.AppendHeader(table.Row{"KPI", "Value"})
	for _, kpi := range s.KPIs() {
		t.AppendRow(table.Row{kpi.Name, kpi.Value.String()})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func renderCorrelation(w io.Writer, c models.CorrelationResult) {
	t := newTable(w, "Correlation with attrition")
	t.AppendHeader(table.Row{"#", "Factor", "Coefficient", "Samples"})
	for i, fc := range c {
		coefficient := models.UndefinedText
		if v, ok := fc.Coefficient.Value(); ok {
			coefficient = fmt.Sprintf("%+.3f", v)
		}
		t.AppendRow(table.Row{i + 1, fc.Factor, coefficient, fc.Samples})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	t.Render()
}

func renderInsights(w io.Writer, insights []models.Insight) {
	if len(insights) == 0 {
		_, _ = fmt.Fprintln(w, "(no insights)")
		return
	}
	t := newTable(w, "Insights")
	t.AppendHeader(table.Row{"#", "Severity", "Category", "Message"})
	for i, in := range insights {
		t.AppendRow(table.Row{i + 1, strings.ToUpper(string(in.Severity)), in.Category, in.Message})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 100}})
	t.Render()
}

func renderBreakdown(w io.Writer, b models.Breakdown) {
	t := newTable(w, "Attrition by "+b.Dimension)
	t.AppendHeader(table.Row{"Group", "Total", "Attrited", "Rate"})
	for _, g := range b.Groups {
		t.AppendRow(table.Row{g.Key, g.Total, g.Attrited, fmt.Sprintf("%.1f%%", g.Rate*100)})
	}
	t.Render()
}

func renderAnalysis(w io.Writer, a engine.Analysis, dimensions []string) {
	_, _ = fmt.Fprintf(w, "Analysis %s (dataset %s, filter %s)\n", a.ID, a.DatasetVersion, a.Filter.CanonicalKey())
	renderSummary(w, a.Summary)
	renderCorrelation(w, a.Correlation)
	for _, dim := range dimensions {
		for _, b := range a.Breakdowns {
			if b.Dimension == dim {
				renderBreakdown(w, b)
			}
		}
	}
	renderInsights(w, a.Insights)
}

func renderDataset(w io.Writer, info services.DatasetInfo) {
	_, _ = fmt.Fprintf(w, "Source:  %s\nVersion: %s\nRows:    %d\nLoaded:  %s\n",
		info.Source, info.Version, info.Rows, info.LoadedAt.Format("2006-01-02 15:04:05 MST"))

	t := newTable(w, "Fields")
	t.AppendHeader(table.Row{"Field", "Kind", "Domain"})
	for _, f := range info.Fields {
		t.AppendRow(table.Row{f.Name, f.Kind, strings.Join(f.Domain, ", ")})
	}
	t.Render()

	th := info.Thresholds
	t = newTable(w, "Insight thresholds")
	t.AppendHeader(table.Row{"Threshold", "Value"})
	t.AppendRows([]table.Row{
		{"min_selection_size", th.MinSelectionSize},
		{"min_group_size", th.MinGroupSize},
		{"category_margin", th.CategoryMargin},
		{"income_gap_ratio", th.IncomeGapRatio},
		{"overtime_disparity", th.OvertimeDisparity},
		{"training_gap", th.TrainingGap},
		{"population_margin", th.PopulationMargin},
		{"factor_strength", th.FactorStrength},
	})
	t.Render()
}
