package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"datenorm/internal/busday"
	"datenorm/internal/config"
	"datenorm/internal/dateinfer"
	"datenorm/internal/pipeline"
)

func (a *app) runner(cmd *cobra.Command) *pipeline.Runner {
	r := pipeline.NewDefaultRunner(a.logger())
	r.Stdin = cmd.InOrStdin()
	r.Stdout = cmd.OutOrStdout()
	return r
}

func newConvertCommand(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert date columns from a source into a sink",
		Long: `Read a table, convert every column whose name carries the date marker and
write the result. Integer-only date columns (e.g. 20200131) are kept as
integers. Values that cannot be parsed become nulls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.runner(cmd).Run(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			if !quiet {
				return renderReports(cmd.ErrOrStderr(), converted(res.Reports), "table")
			}
			return nil
		},
	}
	addInputFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the column report")
	return cmd
}

// converted drops the columns that were not considered.
func converted(reps []dateinfer.ColumnReport) []dateinfer.ColumnReport {
	out := make([]dateinfer.ColumnReport, 0, len(reps))
	for _, rep := range reps {
		if rep.Outcome != dateinfer.OutcomeSkipped {
			out = append(out, rep)
		}
	}
	return out
}

func newInferCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Report the inferred layout of every date column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkInput(a.cfg); err != nil {
				return err
			}
			t, err := a.runner(cmd).Read(cmd.Context(), a.cfg.Input)
			if err != nil {
				return err
			}
			conv := pipeline.NewConverter(a.cfg.Convert, a.logger())
			return renderReports(cmd.OutOrStdout(), conv.Inspect(t), format)
		},
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "table", "output format (table|markdown|csv)")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	var convert bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print rows, columns, nulls and column kinds of a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkInput(a.cfg); err != nil {
				return err
			}
			t, err := a.runner(cmd).Read(cmd.Context(), a.cfg.Input)
			if err != nil {
				return err
			}
			if convert {
				conv := pipeline.NewConverter(a.cfg.Convert, a.logger())
				if t, _, err = conv.ConvertTable(cmd.Context(), t); err != nil {
					return err
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), t.Summary().String())
			return err
		},
	}
	addInputFlags(cmd.Flags())
	cmd.Flags().BoolVar(&convert, "convert", false, "convert date columns before summarizing")
	return cmd
}

func newValidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := config.Validate(a.cfg)
			renderIssues(cmd.OutOrStdout(), issues)
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			return nil
		},
	}
	addInputFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	return cmd
}

// checkInput validates only the input and convert sections.
func checkInput(cfg config.Config) error {
	var errs []error
	for _, iss := range config.Validate(cfg) {
		if iss.Severity != config.SeverityError || strings.HasPrefix(iss.Path, "output.") {
			continue
		}
		errs = append(errs, errors.New(iss.String()))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func newBusdayCommand(a *app) *cobra.Command {
	var (
		holidaysPath string
		dateStr      string
		lookBack     int
	)
	cmd := &cobra.Command{
		Use:   "busday",
		Short: "Print previous business dates, skipping weekends and holidays",
		Long: `Print the last business date before --date (default today) or, with
--look-back N, the N successive last business dates. Holidays are read from
a file with one date per line in any single consistent layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(holidaysPath)
			if err != nil {
				return fmt.Errorf("open holidays: %w", err)
			}
			defer f.Close()

			conv := pipeline.NewConverter(a.cfg.Convert, a.logger())
			holidays, err := readHolidays(f, conv)
			if err != nil {
				return err
			}

			start := time.Now().UTC()
			if dateStr != "" {
				out, _ := conv.ConvertSeries([]any{dateStr})
				d, ok := out[0].(time.Time)
				if !ok {
					return fmt.Errorf("cannot parse --date %q", dateStr)
				}
				start = d
			}

			dates, err := busday.LookBack(lookBack, holidays, start)
			if err != nil {
				return err
			}
			for _, d := range dates {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), d.Format(time.DateOnly)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&holidaysPath, "holidays", "", "file with one holiday date per line")
	cmd.Flags().StringVar(&dateStr, "date", "", "reference date (default today)")
	cmd.Flags().IntVarP(&lookBack, "look-back", "n", 1, "number of business dates to print")
	_ = cmd.MarkFlagRequired("holidays")
	return cmd
}

// readHolidays reads one date per non-blank line and converts the whole list
// as one series. Any line that does not parse is an error.
func readHolidays(r io.Reader, conv *dateinfer.Converter) ([]time.Time, error) {
	var raw []any
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			raw = append(raw, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read holidays: %w", err)
	}

	out, _ := conv.ConvertSeries(raw)
	holidays := make([]time.Time, 0, len(out))
	for i, v := range out {
		d, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("holidays: cannot parse %q", raw[i])
		}
		holidays = append(holidays, d)
	}
	return holidays, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "datenorm v%s\n", Version)
		},
	}
}
