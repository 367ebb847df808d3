// Package cli provides the datenorm command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"datenorm/internal/config"
	"datenorm/internal/logging"

	// register every storage backend; config picks one by kind.
	_ "datenorm/internal/storage/duckdb"
	_ "datenorm/internal/storage/mssql"
	_ "datenorm/internal/storage/postgres"
	_ "datenorm/internal/storage/sqlite"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	cfg     config.Config
	log     *slog.Logger

	closeMetrics func()
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "datenorm",
		Short: "Infer date formats and normalize date columns",
		Long: `datenorm reads a table (CSV, JSON, HTML or a database query), infers the
layout of every date column from its distinct values, converts those columns
to real dates and writes the result back out.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "YAML config file")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")
	pf.String("metrics", "", "metrics backend (none|datadog)")
	pf.String("metrics-job", "", "job tag for metrics")
	pf.String("metrics-tags", "", "extra metric tags, comma separated (k:v,...)")
	pf.Duration("metrics-flush", 0, "metrics flush interval")
	pf.String("marker", "", "substring that marks date columns (case-insensitive)")
	pf.Int("workers", 0, "columns converted concurrently")
	pf.Int("pivot", 0, "two-digit year window of the fallback parser")

	root.AddCommand(
		newConvertCommand(a),
		newInferCommand(a),
		newSummaryCommand(a),
		newValidateCommand(a),
		newBusdayCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command and flushes metrics before returning.
func Execute(ctx context.Context) error {
	a := &app{}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	a.shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	a.closeMetrics = setupMetrics(cmd.Context(), cfg.Metrics, a.log)
	return nil
}

func (a *app) shutdown() {
	if a.closeMetrics != nil {
		a.closeMetrics()
		a.closeMetrics = nil
	}
}

func (a *app) logger() *slog.Logger {
	if a.log == nil {
		return logging.Discard()
	}
	return a.log
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.StringP("in", "i", "", `input path, URL (html) or "-" for stdin`)
	fs.String("in-kind", "", "input kind (csv|json|html|sqlite|postgres|mssql|duckdb)")
	fs.String("in-dsn", "", "input database DSN")
	fs.String("query", "", "input database query")
	fs.String("selector", "", "CSS selector of the html <table>")
	fs.String("mappings", "", "html record-mode mapping file")
	fs.String("comma", "", "CSV delimiter")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", "", `output path or "-" for stdout`)
	fs.String("out-kind", "", "output kind (csv|json|sqlite|postgres|mssql|duckdb)")
	fs.String("out-dsn", "", "output database DSN")
	fs.String("out-table", "", "output database table")
	fs.String("out-layout", "", "json output layout (records|keyed|columnar)")
	fs.String("out-key", "", "key column of the keyed json layout")
	fs.String("series", "", "convert only this column, as a standalone series")
}
