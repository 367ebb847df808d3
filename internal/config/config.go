// Package config defines the datenorm run configuration and loads it with
// koanf from defaults, an optional YAML file, DATENORM_* environment variables
// and command-line flags.
package config

import (
	"path/filepath"
	"strings"
	"time"
)

// Endpoint kinds understood by the pipeline.
const (
	KindCSV      = "csv"
	KindJSON     = "json"
	KindHTML     = "html"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMSSQL    = "mssql"
	KindDuckDB   = "duckdb"
)

// Config is the full run configuration.
type Config struct {
	Input   Endpoint      `koanf:"input"`
	Output  Endpoint      `koanf:"output"`
	Convert ConvertConfig `koanf:"convert"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// Endpoint describes a table source or sink.
//
// File kinds use Path ("-" means stdin/stdout; html also accepts an http(s)
// URL). Database kinds use DSN plus Query (source) or Table (sink).
type Endpoint struct {
	Kind  string `koanf:"kind"`
	Path  string `koanf:"path"`
	DSN   string `koanf:"dsn"`
	Query string `koanf:"query"`
	Table string `koanf:"table"`

	// Comma is the CSV field delimiter; empty means ",".
	Comma string `koanf:"comma"`

	// Selector picks the <table> element of an html source. Mappings, when
	// set, names a record-mode mapping file and takes precedence.
	Selector string `koanf:"selector"`
	Mappings string `koanf:"mappings"`

	// Layout shapes a json sink: records, keyed or columnar. Key names the
	// keyed layout's key column.
	Layout string `koanf:"layout"`
	Key    string `koanf:"key"`
}

// JSON sink layouts.
const (
	LayoutRecords  = "records"
	LayoutKeyed    = "keyed"
	LayoutColumnar = "columnar"
)

// ConvertConfig controls the date converter.
type ConvertConfig struct {
	// Marker selects date columns by case-insensitive substring.
	Marker string `koanf:"marker"`
	// Workers bounds concurrent column conversions.
	Workers int `koanf:"workers"`
	// Series, when set, converts only the named column as a standalone series.
	Series string `koanf:"series"`
	// TwoDigitPivot is the fallback parser's 2-digit year window.
	TwoDigitPivot int `koanf:"two_digit_pivot"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	Backend    string        `koanf:"backend"`
	Job        string        `koanf:"job"`
	Tags       string        `koanf:"tags"`
	FlushEvery time.Duration `koanf:"flush_every"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Input:  Endpoint{Path: "-"},
		Output: Endpoint{Path: "-", Layout: LayoutRecords, Key: "Date"},
		Convert: ConvertConfig{
			Marker:        "date",
			Workers:       4,
			TwoDigitPivot: 20,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Backend: "none", Job: "datenorm", FlushEvery: time.Minute},
	}
}

// KindFromPath guesses an endpoint kind from a file extension. It returns ""
// when the extension is not recognized.
func KindFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return KindCSV
	case ".json":
		return KindJSON
	case ".html", ".htm":
		return KindHTML
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	case ".duckdb":
		return KindDuckDB
	default:
		return ""
	}
}

// IsDatabase reports whether kind is backed by a SQL repository.
func IsDatabase(kind string) bool {
	switch kind {
	case KindSQLite, KindPostgres, KindMSSQL, KindDuckDB:
		return true
	default:
		return false
	}
}
