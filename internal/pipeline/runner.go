// Package pipeline wires a configured source, the date converter and a
// configured sink into one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"datenorm/internal/config"
	"datenorm/internal/dateinfer"
	"datenorm/internal/extracthtml"
	"datenorm/internal/logging"
	"datenorm/internal/metrics"
	csvparser "datenorm/internal/parser/csv"
	jsonparser "datenorm/internal/parser/json"
	"datenorm/internal/storage"
	"datenorm/internal/table"
)

// Runner executes read -> convert -> write. The function and stream fields
// are seams; NewDefaultRunner fills them for production use.
type Runner struct {
	// OpenRepository opens database endpoints.
	OpenRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// Stdin and Stdout back the "-" path.
	Stdin  io.Reader
	Stdout io.Writer

	// Loader fetches html sources given as URLs.
	Loader *extracthtml.Loader

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// NewDefaultRunner returns a Runner bound to the registered storage backends,
// the process's standard streams and a 30s HTTP loader.
func NewDefaultRunner(log *slog.Logger) *Runner {
	return &Runner{
		OpenRepository: storage.Open,
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Loader:         extracthtml.NewLoader(http.DefaultClient, 30*time.Second),
		Logger:         log,
	}
}

// Result summarizes a finished run.
type Result struct {
	RunID   string
	Rows    int
	Written int64
	Reports []dateinfer.ColumnReport
}

// NewConverter builds the date converter described by cfg.
func NewConverter(cfg config.ConvertConfig, log *slog.Logger) *dateinfer.Converter {
	return dateinfer.New(dateinfer.Options{
		Marker:   cfg.Marker,
		Workers:  cfg.Workers,
		Fallback: dateinfer.Fallback{Pivot: cfg.TwoDigitPivot},
		Logger:   log,
	})
}

// Run validates cfg, then reads, converts and writes one table. Each step is
// timed with metrics.TimeStep.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (Result, error) {
	if issues := config.Validate(cfg); config.HasErrors(issues) {
		return Result{}, issuesError(issues)
	}

	res := Result{RunID: logging.NewRunID()}
	log := logging.WithRun(r.logger(), res.RunID)
	log.Info("run started", "input", describe(cfg.Input), "output", describe(cfg.Output))

	done := metrics.TimeStep("read")
	t, err := r.Read(ctx, cfg.Input)
	done(err)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", cfg.Input.Kind, err)
	}
	res.Rows = t.Len()
	log.Info("table read", "rows", t.Len(), "columns", len(t.Columns))

	conv := NewConverter(cfg.Convert, log)
	done = metrics.TimeStep("convert")
	t, res.Reports, err = Convert(ctx, conv, t, cfg.Convert.Series)
	done(err)
	if err != nil {
		return res, fmt.Errorf("convert: %w", err)
	}
	for _, rep := range res.Reports {
		if rep.Outcome == dateinfer.OutcomeSkipped {
			continue
		}
		log.Info("column converted",
			"column", rep.Column,
			"outcome", string(rep.Outcome),
			"pattern", rep.Pattern,
			"distinct", rep.Stats.Distinct,
			"failed", rep.Stats.Failed,
		)
	}

	done = metrics.TimeStep("write")
	res.Written, err = r.Write(ctx, cfg.Output, t)
	done(err)
	if err != nil {
		return res, fmt.Errorf("write %s: %w", cfg.Output.Kind, err)
	}
	log.Info("run finished", "rows", res.Rows, "written", res.Written)
	return res, nil
}

// Convert converts t with conv. When series names a column, only that
// column is converted, as a standalone series.
func Convert(ctx context.Context, conv *dateinfer.Converter, t *table.Table, series string) (*table.Table, []dateinfer.ColumnReport, error) {
	if series == "" {
		return conv.ConvertTable(ctx, t)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	for i, col := range t.Columns {
		if col.Name != series {
			continue
		}
		out, rep := conv.ConvertSeries(col.Values)
		rep.Column = col.Name
		return t.WithColumn(i, out), []dateinfer.ColumnReport{rep}, nil
	}
	return nil, nil, fmt.Errorf("series column %q not found (have %s)", series, strings.Join(t.Names(), ", "))
}

// Read loads the table described by e.
func (r *Runner) Read(ctx context.Context, e config.Endpoint) (*table.Table, error) {
	if config.IsDatabase(e.Kind) {
		repo, err := r.OpenRepository(ctx, storage.Config{Kind: e.Kind, DSN: os.ExpandEnv(e.DSN)})
		if err != nil {
			return nil, err
		}
		defer repo.Close()
		return repo.ReadTable(ctx, e.Query)
	}

	if e.Kind == config.KindHTML {
		return r.readHTML(ctx, e)
	}

	in, closeIn, err := r.openInput(e.Path)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	switch e.Kind {
	case config.KindCSV:
		return csvparser.ReadTable(ctx, in, csvparser.Options{Comma: commaRune(e.Comma), TrimSpace: true})
	case config.KindJSON:
		return jsonparser.ReadTable(ctx, in, jsonparser.Options{})
	default:
		return nil, fmt.Errorf("unsupported source kind %q", e.Kind)
	}
}

func (r *Runner) readHTML(ctx context.Context, e config.Endpoint) (*table.Table, error) {
	loader := r.Loader
	if loader == nil {
		loader = extracthtml.NewLoader(nil, 0)
	}

	input := extracthtml.Input{URL: e.Path}
	if !extracthtml.IsURL(e.Path) {
		in, closeIn, err := r.openInput(e.Path)
		if err != nil {
			return nil, err
		}
		defer closeIn()
		input = extracthtml.Input{Reader: in}
	}

	html, err := loader.Load(ctx, input)
	if err != nil {
		return nil, err
	}
	if e.Mappings != "" {
		mf, err := extracthtml.LoadMappingFile(e.Mappings)
		if err != nil {
			return nil, err
		}
		return extracthtml.ExtractTable(html, mf)
	}
	return extracthtml.ReadTable(html, e.Selector)
}

// Write stores t at the sink described by e and returns the rows written.
func (r *Runner) Write(ctx context.Context, e config.Endpoint, t *table.Table) (int64, error) {
	if config.IsDatabase(e.Kind) {
		repo, err := r.OpenRepository(ctx, storage.Config{Kind: e.Kind, DSN: os.ExpandEnv(e.DSN)})
		if err != nil {
			return 0, err
		}
		defer repo.Close()
		return repo.WriteTable(ctx, e.Table, t)
	}

	out, closeOut, err := r.openOutput(e.Path)
	if err != nil {
		return 0, err
	}

	switch e.Kind {
	case config.KindCSV:
		err = csvparser.WriteTable(out, t, commaRune(e.Comma))
	case config.KindJSON:
		switch e.Layout {
		case config.LayoutKeyed:
			err = jsonparser.WriteKeyed(out, t, e.Key)
		case config.LayoutColumnar:
			err = jsonparser.WriteColumnar(out, t)
		default:
			err = jsonparser.WriteRecords(out, t)
		}
	default:
		err = fmt.Errorf("unsupported sink kind %q", e.Kind)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	return int64(t.Len()), nil
}

func (r *Runner) openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		if r.Stdin == nil {
			return strings.NewReader(""), func() {}, nil
		}
		return r.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (r *Runner) openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		if r.Stdout == nil {
			return io.Discard, func() error { return nil }, nil
		}
		return r.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func commaRune(s string) rune {
	for _, c := range s {
		return c
	}
	return 0
}

func describe(e config.Endpoint) string {
	switch {
	case config.IsDatabase(e.Kind) && e.Table != "":
		return e.Kind + ":" + e.Table
	case config.IsDatabase(e.Kind):
		return e.Kind + ":query"
	default:
		return e.Kind + ":" + e.Path
	}
}

func issuesError(issues []config.Issue) error {
	errs := make([]error, 0, len(issues))
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			errs = append(errs, errors.New(iss.String()))
		}
	}
	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}
