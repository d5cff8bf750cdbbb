// Package stats accumulates per-processor counters and a rolling window
// of recent frame processing times into Snapshots a caller can poll or
// export.
package stats

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/metric"

	"github.com/koscakluka/cascade/internal/telemetry"
)

const scopeName = "github.com/koscakluka/cascade/core/stats"

var scope = telemetry.New(scopeName)

// windowSize bounds the rolling processing-time window. The original
// processor this package generalizes kept the same size window but
// never read it back for anything; here it actually drives the
// reported average and throughput.
const windowSize = 100

// Snapshot is a point-in-time copy of a Recorder's counters, safe to
// hold onto after the Recorder that produced it keeps mutating.
type Snapshot struct {
	FramesProcessed       int64
	SegmentsDetected      int64
	InterruptionsAccepted int64
	InterruptionsRejected int64
	InvalidInputDropped   int64
	InferenceFailures     int64

	AverageProcessingTimeMs float64
	ThroughputFramesPerSec  float64
	MemoryBytes             uint64
}

// counters holds the fields Snapshot mirrors via copier.Copy, kept
// separate from the rolling window and instruments so a snapshot copy
// never has to reach past plain int64s.
type counters struct {
	FramesProcessed       int64
	SegmentsDetected      int64
	InterruptionsAccepted int64
	InterruptionsRejected int64
	InvalidInputDropped   int64
	InferenceFailures     int64
}

// Recorder accumulates counters for one stream.Processor. It is safe
// for concurrent use; the counters are atomic and the rolling window is
// mutex-guarded.
type Recorder struct {
	counters counters

	mu         sync.Mutex
	window     [windowSize]time.Duration
	windowLen  int
	windowNext int

	framesCounter   metric.Int64Counter
	segmentsCounter metric.Int64Counter
}

// NewRecorder returns an empty Recorder with its otel instruments
// registered against the package meter.
func NewRecorder() *Recorder {
	r := &Recorder{}

	r.framesCounter, _ = scope.Meter.Int64Counter(
		"cascade.frames_processed",
		metric.WithDescription("frames processed by a cascade.Machine"),
	)
	r.segmentsCounter, _ = scope.Meter.Int64Counter(
		"cascade.segments_detected",
		metric.WithDescription("speech segments closed by a cascade.Machine"),
	)

	return r
}

// RecordFrame records one frame's processing latency.
func (r *Recorder) RecordFrame(d time.Duration) {
	atomic.AddInt64(&r.counters.FramesProcessed, 1)
	if r.framesCounter != nil {
		r.framesCounter.Add(context.Background(), 1)
	}

	r.mu.Lock()
	r.window[r.windowNext] = d
	r.windowNext = (r.windowNext + 1) % windowSize
	if r.windowLen < windowSize {
		r.windowLen++
	}
	r.mu.Unlock()
}

// RecordSegment records one closed speech segment.
func (r *Recorder) RecordSegment() {
	atomic.AddInt64(&r.counters.SegmentsDetected, 1)
	if r.segmentsCounter != nil {
		r.segmentsCounter.Add(context.Background(), 1)
	}
}

// RecordInterruption records a guard decision outcome.
func (r *Recorder) RecordInterruption(accepted bool) {
	if accepted {
		atomic.AddInt64(&r.counters.InterruptionsAccepted, 1)
		return
	}
	atomic.AddInt64(&r.counters.InterruptionsRejected, 1)
}

// RecordInvalidInputDropped records one chunk dropped for a malformed
// sample count or unsupported format, per the InvalidInput recoverable
// classification.
func (r *Recorder) RecordInvalidInputDropped() {
	atomic.AddInt64(&r.counters.InvalidInputDropped, 1)
}

// RecordInferenceFailure records one frame whose Inferencer call failed
// and was substituted with probability 0, per the InferenceFailure
// recoverable classification.
func (r *Recorder) RecordInferenceFailure() {
	atomic.AddInt64(&r.counters.InferenceFailures, 1)
}

// Snapshot returns a copy of the current counters plus derived
// averages computed from the rolling processing-time window.
func (r *Recorder) Snapshot() Snapshot {
	var snap Snapshot
	c := counters{
		FramesProcessed:       atomic.LoadInt64(&r.counters.FramesProcessed),
		SegmentsDetected:      atomic.LoadInt64(&r.counters.SegmentsDetected),
		InterruptionsAccepted: atomic.LoadInt64(&r.counters.InterruptionsAccepted),
		InterruptionsRejected: atomic.LoadInt64(&r.counters.InterruptionsRejected),
		InvalidInputDropped:   atomic.LoadInt64(&r.counters.InvalidInputDropped),
		InferenceFailures:     atomic.LoadInt64(&r.counters.InferenceFailures),
	}
	copier.Copy(&snap, &c)

	avg, throughput := r.windowStats()
	snap.AverageProcessingTimeMs = avg
	snap.ThroughputFramesPerSec = throughput

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap.MemoryBytes = mem.HeapAlloc

	return snap
}

func (r *Recorder) windowStats() (avgMs, throughputPerSec float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.windowLen == 0 {
		return 0, 0
	}

	var total time.Duration
	for i := 0; i < r.windowLen; i++ {
		total += r.window[i]
	}
	avg := total / time.Duration(r.windowLen)
	avgMs = float64(avg) / float64(time.Millisecond)
	if avgMs > 0 {
		throughputPerSec = 1000 / avgMs
	}
	return avgMs, throughputPerSec
}
