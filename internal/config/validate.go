package config

import (
	"fmt"
	"strings"
)

// Severity grades a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is the dotted config key.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var knownKinds = []string{KindCSV, KindJSON, KindHTML, KindSQLite, KindPostgres, KindMSSQL, KindDuckDB}

func isKnownKind(kind string) bool {
	for _, k := range knownKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Validate checks c and returns every problem found. A nil result means the
// config is usable.
func Validate(c Config) []Issue {
	var out []Issue
	add := func(sev Severity, path, format string, args ...any) {
		out = append(out, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	validateEndpoint := func(side string, e Endpoint, source bool) {
		switch {
		case e.Kind == "":
			add(SeverityError, side+".kind", "cannot infer kind from path %q; set it explicitly (one of %s)", e.Path, strings.Join(knownKinds, ", "))
			return
		case !isKnownKind(e.Kind):
			add(SeverityError, side+".kind", "unknown kind %q (one of %s)", e.Kind, strings.Join(knownKinds, ", "))
			return
		}

		if IsDatabase(e.Kind) {
			if strings.TrimSpace(e.DSN) == "" {
				add(SeverityError, side+".dsn", "required for kind %q", e.Kind)
			}
			if source && strings.TrimSpace(e.Query) == "" {
				add(SeverityError, side+".query", "required for kind %q", e.Kind)
			}
			if !source && strings.TrimSpace(e.Table) == "" {
				add(SeverityError, side+".table", "required for kind %q", e.Kind)
			}
			return
		}

		if strings.TrimSpace(e.Path) == "" {
			add(SeverityError, side+".path", "required for kind %q", e.Kind)
		}
		if e.Kind == KindHTML && !source {
			add(SeverityError, side+".kind", "html is a source-only kind")
		}
		if e.Selector != "" && e.Kind != KindHTML {
			add(SeverityWarning, side+".selector", "ignored for kind %q", e.Kind)
		}
		if e.Mappings != "" && e.Kind != KindHTML {
			add(SeverityWarning, side+".mappings", "ignored for kind %q", e.Kind)
		}
		if len([]rune(e.Comma)) > 1 {
			add(SeverityError, side+".comma", "must be a single character, got %q", e.Comma)
		}
		if !source && e.Kind == KindJSON {
			switch e.Layout {
			case "", LayoutRecords, LayoutColumnar:
			case LayoutKeyed:
				if strings.TrimSpace(e.Key) == "" {
					add(SeverityError, side+".key", "required for layout %q", e.Layout)
				}
			default:
				add(SeverityError, side+".layout", "unknown layout %q (records, keyed, columnar)", e.Layout)
			}
		}
	}
	validateEndpoint("input", c.Input, true)
	validateEndpoint("output", c.Output, false)

	if strings.TrimSpace(c.Convert.Marker) == "" && c.Convert.Series == "" {
		add(SeverityError, "convert.marker", "must not be empty")
	}
	if c.Convert.Workers < 1 {
		add(SeverityWarning, "convert.workers", "%d is below 1; columns will convert one at a time", c.Convert.Workers)
	}
	if c.Convert.TwoDigitPivot < 0 || c.Convert.TwoDigitPivot > 99 {
		add(SeverityError, "convert.two_digit_pivot", "must be within 0..99, got %d", c.Convert.TwoDigitPivot)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add(SeverityWarning, "log.level", "unknown level %q; using info", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add(SeverityWarning, "log.format", "unknown format %q; using text", c.Log.Format)
	}

	switch c.Metrics.Backend {
	case "", "none":
	case "datadog":
		if c.Metrics.FlushEvery <= 0 {
			add(SeverityWarning, "metrics.flush_every", "non-positive interval; the backend default applies")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown backend %q (none, datadog)", c.Metrics.Backend)
	}

	return out
}
