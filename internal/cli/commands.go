package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/services"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var (
		filters    filterFlags
		format     string
		dimensions []string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze attrition for a filtered selection",
		Long: `Load the dataset, apply the filter and print the summary KPIs, factor
correlations with attrition, optional segment breakdowns and ranked insights.`,
		Example: `  # Whole workforce
  attrition-engine analyze -d employees.csv

  # Sales staff working overtime, with a breakdown by age band
  attrition-engine analyze -d employees.csv --department Sales --overtime yes --breakdown CF_age_band

  # JSON for scripts
  attrition-engine analyze -d employees.csv --income-max 4000 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
			for _, dim := range dimensions {
				if !knownDimension(dim) {
					return fmt.Errorf("unknown breakdown dimension %q", dim)
				}
			}
			spec, err := filters.spec(cmd.Flags())
			if err != nil {
				return err
			}

			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			analysis, err := a.analytics.Analyze(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return renderJSON(cmd.OutOrStdout(), analysis)
			}
			renderAnalysis(cmd.OutOrStdout(), analysis, dimensions)
			return nil
		},
	}
	filters.register(cmd.Flags())
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format (table|json)")
	cmd.Flags().StringSliceVar(&dimensions, "breakdown", nil, "print attrition by these dimensions")
	_ = cmd.RegisterFlagCompletionFunc("breakdown", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return engine.BreakdownDimensions, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func knownDimension(dim string) bool {
	for _, d := range engine.BreakdownDimensions {
		if d == dim {
			return true
		}
	}
	return false
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		filters   filterFlags
		outPath   string
		delimiter string
		crlf      bool
	)
	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Export a selection or its results as delimited text",
		Long: `Export one of: rows, summary, correlation, insights, breakdown.

Output goes to stdout unless --out is given. A directory for --out receives
the default attrition_<kind>_<date>.csv file name.`,
		Example: `  attrition-engine export rows -d employees.csv --department "Human Resources" --out hr.csv
  attrition-engine export insights -d employees.csv --delimiter ';'`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.ParseKind(args[0])
			if err != nil {
				return err
			}
			spec, err := filters.spec(cmd.Flags())
			if err != nil {
				return err
			}
			var formatOpts []export.Option
			if cmd.Flags().Changed("delimiter") {
				d, err := delimiterRune(delimiter)
				if err != nil {
					return err
				}
				formatOpts = append(formatOpts, export.WithDelimiter(d))
			}
			if crlf {
				formatOpts = append(formatOpts, export.WithCRLF())
			}

			a, err := newApp(opts.cfg, opts.logger, formatOpts...)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			result, err := a.analytics.Export(cmd.Context(), kind, spec)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err := cmd.OutOrStdout().Write(result.Data)
				return err
			}
			path := outPath
			if info, statErr := os.Stat(outPath); statErr == nil && info.IsDir() {
				path = filepath.Join(outPath, result.Filename)
			}
			if err := os.WriteFile(path, result.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s export (%d rows) to %s\n", kind, result.Rows, path)
			return err
		},
	}
	filters.register(cmd.Flags())
	cmd.Flags().StringVar(&outPath, "out", "", "output file or directory (default stdout)")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", `field delimiter, \t for tab`)
	cmd.Flags().BoolVar(&crlf, "crlf", false, "terminate lines with CRLF")
	return cmd
}

func kindNames() []string {
	names := make([]string, len(export.Kinds))
	for i, k := range export.Kinds {
		names[i] = string(k)
	}
	return names
}

func delimiterRune(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == '"' || r == '\n' || r == '\r' {
		return 0, errors.New("delimiter must be a single character")
	}
	return r, nil
}

func newDescribeCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Describe the dataset schema and active thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			info, err := a.analytics.Describe()
			if err != nil {
				return err
			}
			return writeDataset(cmd.OutOrStdout(), format, info)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format (table|json)")
	return cmd
}

func writeDataset(w io.Writer, format string, info services.DatasetInfo) error {
	if format == formatJSON {
		return renderJSON(w, info)
	}
	renderDataset(w, info)
	return nil
}
