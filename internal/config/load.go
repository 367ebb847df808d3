package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables; DATENORM_INPUT__PATH maps
// to input.path.
const EnvPrefix = "DATENORM_"

// FlagKeys maps command-line flag names to config keys. Flags not listed here
// are not configuration.
var FlagKeys = map[string]string{
	"in":            "input.path",
	"in-kind":       "input.kind",
	"in-dsn":        "input.dsn",
	"query":         "input.query",
	"selector":      "input.selector",
	"mappings":      "input.mappings",
	"comma":         "input.comma",
	"out":           "output.path",
	"out-kind":      "output.kind",
	"out-dsn":       "output.dsn",
	"out-table":     "output.table",
	"out-layout":    "output.layout",
	"out-key":       "output.key",
	"marker":        "convert.marker",
	"workers":       "convert.workers",
	"series":        "convert.series",
	"pivot":         "convert.two_digit_pivot",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"metrics":       "metrics.backend",
	"metrics-job":   "metrics.job",
	"metrics-tags":  "metrics.tags",
	"metrics-flush": "metrics.flush_every",
}

// Load builds a Config. Precedence, lowest to highest: Defaults, the YAML file
// at path (skipped when empty), DATENORM_* environment variables, and flags
// that were explicitly set.
//
// An endpoint without a kind takes it from its path's extension.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Input.Kind = resolveKind(cfg.Input)
	cfg.Output.Kind = resolveKind(cfg.Output)
	return cfg, nil
}

// resolveKind fills in a missing kind from the path's extension. Standard
// streams default to CSV.
func resolveKind(e Endpoint) string {
	if e.Kind != "" {
		return strings.ToLower(e.Kind)
	}
	if k := KindFromPath(e.Path); k != "" {
		return k
	}
	if e.Path == "-" {
		return KindCSV
	}
	return ""
}

// envKey turns DATENORM_CONVERT__TWO_DIGIT_PIVOT into convert.two_digit_pivot.
// A double underscore separates levels so that keys may contain underscores.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func defaultMap() map[string]interface{} {
	d := Defaults()
	return map[string]interface{}{
		"input.path":              d.Input.Path,
		"output.path":             d.Output.Path,
		"output.layout":           d.Output.Layout,
		"output.key":              d.Output.Key,
		"convert.marker":          d.Convert.Marker,
		"convert.workers":         d.Convert.Workers,
		"convert.two_digit_pivot": d.Convert.TwoDigitPivot,
		"log.level":               d.Log.Level,
		"log.format":              d.Log.Format,
		"metrics.backend":         d.Metrics.Backend,
		"metrics.job":             d.Metrics.Job,
		"metrics.flush_every":     d.Metrics.FlushEvery.String(),
	}
}
