// Package metrics is the backend-agnostic metrics facade used by the converter
// and the pipeline runner.
//
// Core code calls the package-level IncCounter/ObserveHistogram functions.
// A process installs one Backend at startup with SetBackend; until then all
// calls go to a no-op backend.
package metrics

import (
	"sync"
	"time"
)

// Labels are metric dimensions, e.g. {"step": "convert", "status": "ok"}.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process backend. A nil b restores the no-op
// backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush asks the backend to submit buffered metrics.
func Flush() error { return current().Flush() }

// TimeStep starts timing a named step. The returned func records
// datenorm_step_total and datenorm_step_duration_seconds with status "ok"
// when err is nil and "error" otherwise.
//
//	done := metrics.TimeStep("convert")
//	err := run()
//	done(err)
func TimeStep(step string) func(err error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		l := Labels{"step": step, "status": status}
		IncCounter("datenorm_step_total", 1, l)
		ObserveHistogram("datenorm_step_duration_seconds", time.Since(start).Seconds(), l)
	}
}
