// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/storage"
)

// Aggregator collects call statistics per backend/model and persists them
// as a JSON array.
type Aggregator struct {
	mutex   sync.Mutex
	metrics map[string]*ModelMetrics
	store   storage.Store
	path    string
	now     func() time.Time
}

// NewAggregator creates an Aggregator backed by path in store. Existing
// statistics at path are loaded so runs accumulate.
func NewAggregator(store storage.Store, path string) *Aggregator {
	agg := &Aggregator{
		metrics: make(map[string]*ModelMetrics),
		store:   store,
		path:    path,
		now:     time.Now,
	}
	agg.load()
	return agg
}

func metricsKey(backend, model string) string {
	return backend + "/" + model
}

// load reads metrics from the JSON file into memory. A missing or corrupt
// file starts an empty set.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	exists, err := a.store.FileExists(a.path)
	if err != nil || !exists {
		return
	}
	data, err := a.store.Read(a.path)
	if err != nil {
		return
	}

	var metricsSlice []*ModelMetrics
	if err := json.Unmarshal([]byte(data), &metricsSlice); err != nil {
		logging.LogEvent("[METRICS] Ignoring unreadable metrics file %s: %v", a.path, err)
		return
	}
	for _, m := range metricsSlice {
		a.metrics[metricsKey(m.Backend, m.Model)] = m
	}
}

// Record folds one call into the statistics of its backend/model.
func (a *Aggregator) Record(s Sample) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	key := metricsKey(s.Backend, s.Model)
	m, exists := a.metrics[key]
	if !exists {
		m = &ModelMetrics{Model: s.Model, Backend: s.Backend}
		a.metrics[key] = m
	}

	m.LastUpdatedUTC = a.now().UTC()
	m.Calls++
	if s.Err != nil {
		m.Failures++
		return
	}

	durationMillis := float64(s.Duration.Milliseconds())
	m.PromptChars.Add(float64(s.PromptChars))
	m.ResponseChars.Add(float64(s.ResponseChars))
	m.TotalDurationMillis.Add(durationMillis)

	bucket := getBucket(s.PromptChars)
	for i := range m.PromptSizeBuckets {
		if m.PromptSizeBuckets[i].Bucket == bucket {
			m.PromptSizeBuckets[i].Calls++
			m.PromptSizeBuckets[i].DurationMillis.Add(durationMillis)
			return
		}
	}
	newBucket := SizeBucket{Bucket: bucket, Calls: 1}
	newBucket.DurationMillis.Add(durationMillis)
	m.PromptSizeBuckets = append(m.PromptSizeBuckets, newBucket)
}

// getBucket determines the prompt size bucket for a character count.
func getBucket(promptChars int) string {
	switch {
	case promptChars <= 1024:
		return "0-1k"
	case promptChars <= 4096:
		return "1k-4k"
	case promptChars <= 16384:
		return "4k-16k"
	case promptChars <= 65536:
		return "16k-64k"
	default:
		return "64k+"
	}
}

// Snapshot returns a copy of the collected metrics ordered by backend then model.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		cp := *m
		cp.PromptSizeBuckets = append([]SizeBucket(nil), m.PromptSizeBuckets...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Backend != out[j].Backend {
			return out[i].Backend < out[j].Backend
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// Save writes the current metrics to the JSON file.
func (a *Aggregator) Save() error {
	logging.LogEvent("[METRICS] Saving metrics to %s", a.path)
	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := a.store.Write(a.path, string(data)+"\n"); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// Close saves the metrics.
func (a *Aggregator) Close() error {
	return a.Save()
}
