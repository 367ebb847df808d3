package cli

import (
	"context"
	"log/slog"

	"datenorm/internal/config"
	"datenorm/internal/metrics"
	"datenorm/internal/metrics/datadog"
)

// setupMetrics installs the configured metrics backend and returns the func
// that flushes and detaches it. Backend failures fall back to the nop backend.
func setupMetrics(ctx context.Context, m config.MetricsConfig, log *slog.Logger) func() {
	switch m.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}

	case "datadog":
		tags := datadog.ParseTagsCSV(m.Tags)
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    m.Job,
			Tags:       tags,
			FlushEvery: m.FlushEvery,
		})
		if err != nil {
			log.Warn("metrics: datadog backend init failed; using nop", "err", err)
			return func() {}
		}
		log.Debug("metrics enabled", "backend", m.Backend, "job", m.Job, "tags", tags)
		metrics.SetBackend(b)

		// Close stops the periodic flush loop and performs a final Flush.
		return func() {
			if err := b.Close(); err != nil {
				log.Warn("metrics: datadog close/flush error", "err", err)
			}
			metrics.SetBackend(nil)
		}

	default:
		log.Warn("metrics: unknown backend; metrics disabled", "backend", m.Backend)
		return func() {}
	}
}
