package engine

import (
	"sync"
	"time"

	"github.com/go-drift/stickyview/pkg/layout"
)

const (
	passTraceSamplesDefault  = 240
	defaultSlowPassThreshold = 16667 * time.Microsecond
)

// PassPhaseTimings captures time spent in each frame phase (ms).
type PassPhaseTimings struct {
	DispatchMs float64 `json:"dispatchMs"`
	LayoutMs   float64 `json:"layoutMs"`
}

// PassCounts captures per-frame workload indicators.
type PassCounts struct {
	Callbacks int `json:"callbacks"`
	Views     int `json:"views"`
	Laid      int `json:"laid"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// PassFlags captures contextual flags for a frame.
type PassFlags struct {
	LaidOut bool `json:"laidOut"`
}

// PassSample is a single frame trace sample.
type PassSample struct {
	Timestamp int64            `json:"ts"`
	FrameMs   float64          `json:"frameMs"`
	Viewport  layout.Viewport  `json:"viewport"`
	Phases    PassPhaseTimings `json:"phases"`
	Counts    PassCounts       `json:"counts"`
	Flags     PassFlags        `json:"flags"`
}

// PassTimeline is the debug server response shape.
type PassTimeline struct {
	Samples     []PassSample `json:"samples"`
	SlowFrames  int          `json:"slowFrames"`
	ThresholdMs float64      `json:"thresholdMs"`
}

// PassTraceBuffer stores recent frame samples in a ring buffer.
type PassTraceBuffer struct {
	mu        sync.RWMutex
	samples   []PassSample
	index     int
	count     int
	slow      int
	threshold time.Duration
}

// NewPassTraceBuffer creates a trace buffer. Non-positive arguments select
// the defaults.
func NewPassTraceBuffer(capacity int, threshold time.Duration) *PassTraceBuffer {
	if capacity <= 0 {
		capacity = passTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultSlowPassThreshold
	}
	return &PassTraceBuffer{
		samples:   make([]PassSample, capacity),
		threshold: threshold,
	}
}

// Capacity returns the buffer capacity.
func (b *PassTraceBuffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Add records a sample and updates the slow frame count.
func (b *PassTraceBuffer) Add(sample PassSample, frameDuration time.Duration) {
	b.mu.Lock()
	b.samples[b.index] = sample
	b.index = (b.index + 1) % len(b.samples)
	if b.count < len(b.samples) {
		b.count++
	}
	if frameDuration > b.threshold {
		b.slow++
	}
	b.mu.Unlock()
}

// Snapshot returns a chronological copy of samples and stats.
func (b *PassTraceBuffer) Snapshot() PassTimeline {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return PassTimeline{ThresholdMs: durationToMillis(b.threshold)}
	}

	result := make([]PassSample, b.count)
	if b.count < len(b.samples) {
		copy(result, b.samples[:b.count])
	} else {
		copy(result, b.samples[b.index:])
		copy(result[len(b.samples)-b.index:], b.samples[:b.index])
	}

	return PassTimeline{
		Samples:     result,
		SlowFrames:  b.slow,
		ThresholdMs: durationToMillis(b.threshold),
	}
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
