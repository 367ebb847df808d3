// Package dateinfer infers the layout of format-unlabeled date strings and
// converts date columns, parsing each distinct string only once.
//
// The pipeline for one column is:
//
//	distinct values → DetectSeparator → Classify → Synthesize → ConvertUnique
//
// Any structural failure along the way (no year, year in the middle,
// inconsistent token counts, ...) switches that column to the Fallback parser.
// Individual values that do not parse become nil. Row counts, row order, and
// null positions are always preserved.
package dateinfer

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"datenorm/internal/metrics"
	"datenorm/internal/table"
)

// DefaultMarker selects date columns by name.
const DefaultMarker = "date"

// Outcome records what happened to one column.
type Outcome string

const (
	OutcomeSkipped  Outcome = "skipped"  // name does not carry the marker
	OutcomeNative   Outcome = "native"   // already time.Time
	OutcomeAllNull  Outcome = "all_null" // nothing to convert
	OutcomeInteger  Outcome = "integer"  // integer short-circuit
	OutcomeInferred Outcome = "inferred" // parsed with a synthesized pattern
	OutcomeFallback Outcome = "fallback" // parsed with the generic parser
)

// ColumnReport describes the handling of one column.
type ColumnReport struct {
	Column    string
	Outcome   Outcome
	Separator Separator
	// Pattern is the strftime-style pattern used, empty unless inferred.
	Pattern string
	// Reason is the structural failure that forced the fallback parser.
	Reason error
	Stats  CacheStats
}

// Options configures a Converter.
type Options struct {
	// Marker is matched case-insensitively against column names.
	// Defaults to DefaultMarker.
	Marker string
	// Workers bounds how many columns convert concurrently. <= 1 converts
	// columns one after another.
	Workers int
	// Fallback is used when inference fails. Defaults to Fallback{}.
	Fallback Parser
	// Logger receives per-column diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Converter converts date columns of tables and standalone series.
// It holds no per-call state and is safe for concurrent use.
type Converter struct {
	marker   string
	workers  int
	fallback Parser
	log      *slog.Logger
}

// New returns a Converter for opts.
func New(opts Options) *Converter {
	c := &Converter{
		marker:   strings.ToLower(opts.Marker),
		workers:  opts.Workers,
		fallback: opts.Fallback,
		log:      opts.Logger,
	}
	if c.marker == "" {
		c.marker = DefaultMarker
	}
	if c.workers < 1 {
		c.workers = 1
	}
	if c.fallback == nil {
		c.fallback = Fallback{}
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Matches reports whether a column name carries the date marker.
func (c *Converter) Matches(name string) bool {
	return strings.Contains(strings.ToLower(name), c.marker)
}

// Infer derives the pattern for a batch of raw values.
func (c *Converter) Infer(values []any) (Pattern, error) {
	samples := uniqueStrings(values)
	if len(samples) == 0 {
		return Pattern{}, ErrNoSamples
	}
	sep := DetectSeparator(samples)
	cls, err := Classify(samples)
	if err != nil {
		return Pattern{}, err
	}
	return Synthesize(cls, sep)
}

// ConvertSeries converts values without name filtering and without the
// integer short-circuit. Native date series are returned unchanged.
func (c *Converter) ConvertSeries(values []any) ([]any, ColumnReport) {
	out, rep := c.convert("", values)
	c.record(rep)
	return out, rep
}

// ConvertTable returns a new table in which every column whose name carries
// the marker has been converted. t is not modified.
//
// Per column:
//   - native date and all-null columns pass through
//   - columns whose non-null values are all integers are cast to int64
//   - anything else is inferred and converted
//
// The only error returned is ctx's.
func (c *Converter) ConvertTable(ctx context.Context, t *table.Table) (*table.Table, []ColumnReport, error) {
	cols := make([]table.Column, len(t.Columns))
	reports := make([]ColumnReport, len(t.Columns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, col := range t.Columns {
		if !c.Matches(col.Name) {
			cols[i] = col
			reports[i] = ColumnReport{Column: col.Name, Outcome: OutcomeSkipped}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vals, rep := c.convertTableColumn(col)
			cols[i] = table.Column{Name: col.Name, Values: vals}
			reports[i] = rep
			c.record(rep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return &table.Table{Columns: cols}, reports, nil
}

// Inspect reports how ConvertTable would treat each column without parsing
// any value.
func (c *Converter) Inspect(t *table.Table) []ColumnReport {
	out := make([]ColumnReport, len(t.Columns))
	for i, col := range t.Columns {
		rep := ColumnReport{Column: col.Name}
		switch {
		case !c.Matches(col.Name):
			rep.Outcome = OutcomeSkipped
		case table.IsNativeDate(col.Values):
			rep.Outcome = OutcomeNative
		case table.AllNull(col.Values):
			rep.Outcome = OutcomeAllNull
		default:
			if _, ok := castIntegers(col.Values); ok {
				rep.Outcome = OutcomeInteger
				break
			}
			p, err := c.Infer(col.Values)
			rep.Separator = p.Sep
			if err != nil {
				rep.Outcome, rep.Reason = OutcomeFallback, err
			} else {
				rep.Outcome, rep.Pattern = OutcomeInferred, p.String()
			}
		}
		out[i] = rep
	}
	return out
}

func (c *Converter) convertTableColumn(col table.Column) ([]any, ColumnReport) {
	if table.IsNativeDate(col.Values) {
		return col.Values, ColumnReport{Column: col.Name, Outcome: OutcomeNative}
	}
	if table.AllNull(col.Values) {
		return col.Values, ColumnReport{Column: col.Name, Outcome: OutcomeAllNull}
	}
	if ints, ok := castIntegers(col.Values); ok {
		return ints, ColumnReport{Column: col.Name, Outcome: OutcomeInteger, Stats: CacheStats{Rows: len(ints)}}
	}
	return c.convert(col.Name, col.Values)
}

func (c *Converter) convert(name string, values []any) ([]any, ColumnReport) {
	rep := ColumnReport{Column: name}
	if table.IsNativeDate(values) {
		rep.Outcome = OutcomeNative
		return values, rep
	}
	if table.AllNull(values) {
		rep.Outcome = OutcomeAllNull
		return values, rep
	}

	var parser Parser
	p, err := c.Infer(values)
	rep.Separator = p.Sep
	if err != nil {
		rep.Outcome, rep.Reason = OutcomeFallback, err
		parser = c.fallback
		c.log.Warn("date format not inferred; using fallback parser", "column", name, "reason", err)
	} else {
		rep.Outcome, rep.Pattern = OutcomeInferred, p.String()
		parser = p
	}

	out, stats := ConvertUnique(values, parser)
	rep.Stats = stats
	c.log.Debug("column converted",
		"column", name,
		"outcome", string(rep.Outcome),
		"pattern", rep.Pattern,
		"rows", stats.Rows,
		"distinct", stats.Distinct,
		"failed", stats.Failed,
	)
	return out, rep
}

func (c *Converter) record(rep ColumnReport) {
	metrics.IncCounter("datenorm_columns_total", 1, metrics.Labels{"outcome": string(rep.Outcome)})
	metrics.IncCounter("datenorm_values_total", float64(rep.Stats.Rows), metrics.Labels{"kind": "rows"})
	metrics.IncCounter("datenorm_values_total", float64(rep.Stats.Distinct), metrics.Labels{"kind": "distinct"})
	metrics.IncCounter("datenorm_values_total", float64(rep.Stats.Distinct-rep.Stats.Failed), metrics.Labels{"kind": "parsed"})
	metrics.IncCounter("datenorm_values_total", float64(rep.Stats.Failed), metrics.Labels{"kind": "failed"})
}
