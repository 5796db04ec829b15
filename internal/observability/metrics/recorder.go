package metrics

import (
	"sync"
	"time"
)

// Sample is one metric captured by Recorder.
type Sample struct {
	Name  string
	Value int64
	Tags  map[string]string
}

// Recorder is an in-memory statsd.Sink used by tests and the admin probe.
type Recorder struct {
	mu      sync.Mutex
	counts  []Sample
	timings []Sample
}

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, Sample{Name: name, Value: value, Tags: CloneTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings = append(r.timings, Sample{Name: name, Value: value.Milliseconds(), Tags: CloneTags(tags)})
}

// Counts returns the counters recorded under name.
func (r *Recorder) Counts(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.counts {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Timings returns the timings recorded under name.
func (r *Recorder) Timings(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.timings {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
