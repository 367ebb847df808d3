package metrics

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingBackend struct {
	mu       sync.Mutex
	counters map[string]float64
	samples  map[string]int
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{counters: map[string]float64{}, samples: map[string]int{}}
}

func (r *recordingBackend) IncCounter(name string, delta float64, l Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name+"|"+l["step"]+"|"+l["status"]] += delta
}

func (r *recordingBackend) ObserveHistogram(name string, _ float64, l Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name+"|"+l["step"]+"|"+l["status"]]++
}

func (r *recordingBackend) Flush() error { return nil }

func TestTimeStep(t *testing.T) {
	rb := newRecordingBackend()
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	TimeStep("read")(nil)
	TimeStep("read")(errors.New("boom"))

	assert.Equal(t, 1.0, rb.counters["datenorm_step_total|read|ok"])
	assert.Equal(t, 1.0, rb.counters["datenorm_step_total|read|error"])
	assert.Equal(t, 1, rb.samples["datenorm_step_duration_seconds|read|ok"])
	assert.Equal(t, 1, rb.samples["datenorm_step_duration_seconds|read|error"])
}

func TestNilBackendRestoresNop(t *testing.T) {
	SetBackend(nil)
	assert.NotPanics(t, func() {
		IncCounter("x", 1, nil)
		ObserveHistogram("x", 1, nil)
	})
	assert.NoError(t, Flush())
}
