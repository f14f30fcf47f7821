// internal/metrics/types.go
package metrics

import (
	"math"
	"time"
)

// ModelMetrics is the persisted document for a single backend/model pair.
type ModelMetrics struct {
	Model               string       `json:"model"`
	Backend             string       `json:"backend"`
	LastUpdatedUTC      time.Time    `json:"lastUpdatedUtc"`
	Calls               int64        `json:"calls"`
	Failures            int64        `json:"failures"`
	PromptChars         RunningStat  `json:"promptChars"`
	ResponseChars       RunningStat  `json:"responseChars"`
	TotalDurationMillis RunningStat  `json:"totalDurationMs"`
	PromptSizeBuckets   []SizeBucket `json:"promptSizeBuckets"`
}

// SizeBucket holds call durations for prompts within a character range.
type SizeBucket struct {
	Bucket         string      `json:"bucket"`
	Calls          int64       `json:"calls"`
	DurationMillis RunningStat `json:"durationMs"`
}

// RunningStat holds the values needed for an online mean/variance.
// It uses Welford's algorithm.
type RunningStat struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"m2"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Add folds value into the statistic.
func (rs *RunningStat) Add(value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// StdDev returns the sample standard deviation, or 0 with fewer than two values.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// Sample is one completed Generate call.
type Sample struct {
	Backend       string
	Model         string
	PromptChars   int
	ResponseChars int
	Duration      time.Duration
	Err           error
}
