// Package cli provides the attrition-engine command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/attritionlab/attrition-engine/internal/config"
	"github.com/attritionlab/attrition-engine/internal/utils"
)

// Version is set at build time.
var Version = "0.1.0"

// rootOptions carries the global flags and the state resolved from them
// before a subcommand runs.
type rootOptions struct {
	configPath  string
	datasetPath string
	logLevel    string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "attrition-engine",
		Short: "Employee attrition analytics",
		Long: `attrition-engine loads an employee dataset and answers filtered questions
about it: headline KPIs, factor correlations with attrition, segment
breakdowns, ranked insights and CSV exports.

Run it as a gRPC/HTTP service with "serve", or query a dataset directly
with "analyze", "export" and "describe".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return opts.resolve(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: $ATTRITION_CONFIG)")
	flags.StringVarP(&opts.datasetPath, "dataset", "d", "", "CSV dataset path, overrides dataset.path")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.datasetPath != "" {
		cfg.Dataset.Path = o.datasetPath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	o.cfg = cfg
	o.logger = utils.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.JSON)
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "attrition-engine v%s\n", Version)
			return err
		},
	}
}
