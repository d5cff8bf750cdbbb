package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/cascade/core/cascade"
	"github.com/koscakluka/cascade/core/frame"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/stats"
	"github.com/koscakluka/cascade/internal/telemetry"
)

const scopeName = "github.com/koscakluka/cascade/core/stream"

var scope = telemetry.New(scopeName)

// readChunkBytes is how much raw input Processor reads per io.Reader
// call before draining it into frames. It has no relationship to
// frame.FrameSamples; the frame.Buffer absorbs whatever size the
// underlying reader hands back.
const readChunkBytes = 4096

// inferOutcome is what the worker goroutine reports back for one frame
// it ran through the Inferencer.
type inferOutcome struct {
	f    frame.Frame
	prob float64
	err  error
}

// Processor is the per-connection pipeline: one Processor owns exactly
// one frame.Buffer, one cascade.Machine, and one Inferencer, and is
// driven by a single caller goroutine at a time (ProcessStream and
// ProcessFile both enforce that with p.active).
type Processor struct {
	id  string
	cfg Config

	inferencer Inferencer
	buf        *frame.Buffer
	stats      *stats.Recorder

	mu      sync.Mutex
	machine *cascade.Machine

	inputFrames  chan frame.Frame
	inferResults chan inferOutcome
	workerDone   chan struct{}

	active atomic.Bool
	closed atomic.Bool
	closeOnce sync.Once
}

// Open constructs a Processor bound to inferencer and starts its
// inference worker goroutine. Callers must Close it when done.
func Open(inferencer Inferencer, cfg Config) (*Processor, error) {
	_, span := scope.Tracer.Start(context.Background(), "stream.Processor.Open")
	defer span.End()

	if inferencer == nil {
		err := fmt.Errorf("%w: inferencer must not be nil", ErrLifecycleMisuse)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p := &Processor{
		id:           uuid.NewString(),
		cfg:          cfg,
		inferencer:   inferencer,
		buf:          frame.New(),
		stats:        stats.NewRecorder(),
		machine:      cascade.NewMachine(cfg.VAD, cfg.Interruptions),
		inputFrames:  make(chan frame.Frame, inferenceQueueDepth),
		inferResults: make(chan inferOutcome, inferenceQueueDepth),
		workerDone:   make(chan struct{}),
	}

	go p.runWorker()
	return p, nil
}

// ID returns the processor's connection-scoped identifier.
func (p *Processor) ID() string { return p.id }

func (p *Processor) runWorker() {
	defer close(p.workerDone)
	for f := range p.inputFrames {
		prob, err := p.inferOne(f)
		p.inferResults <- inferOutcome{f: f, prob: prob, err: err}
	}
}

func (p *Processor) inferOne(f frame.Frame) (float64, error) {
	_, span := scope.Tracer.Start(context.Background(), "stream.Processor.infer")
	defer span.End()

	prob, err := p.inferencer.Infer(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return prob, err
}

// ProcessStream drains r to EOF, running every frame it yields through
// the Inferencer and cascade.Machine, and returns an iterator over the
// Results produced. It does not finalize the machine, so a Processor
// may see ProcessStream called more than once across a connection's
// lifetime as more audio arrives. The returned iterator must be fully
// consumed (or the underlying read abandoned) before calling
// ProcessStream or ProcessFile again.
func (p *Processor) ProcessStream(r io.Reader) iter.Seq2[cascade.Result, error] {
	return p.traced("stream.Processor.ProcessStream", p.run(r, false))
}

// ProcessFile drains r to EOF the same way ProcessStream does, then
// finalizes the machine so any in-progress segment is flushed as a
// final ResultSegment. It is meant for a reader that holds one
// complete recording rather than a live, open-ended stream.
func (p *Processor) ProcessFile(r io.Reader) iter.Seq2[cascade.Result, error] {
	return p.traced("stream.Processor.ProcessFile", p.run(r, true))
}

// traced wraps seq so consuming it runs inside a span named name, the
// same way Close already wraps its own body in a span.
func (p *Processor) traced(name string, seq iter.Seq2[cascade.Result, error]) iter.Seq2[cascade.Result, error] {
	return func(yield func(cascade.Result, error) bool) {
		_, span := scope.Tracer.Start(context.Background(), name)
		defer span.End()
		seq(yield)
	}
}

func (p *Processor) run(r io.Reader, finalize bool) iter.Seq2[cascade.Result, error] {
	return func(yield func(cascade.Result, error) bool) {
		if p.closed.Load() {
			yield(cascade.Result{}, fmt.Errorf("%w: processor is closed", ErrLifecycleMisuse))
			return
		}
		if !p.active.CompareAndSwap(false, true) {
			yield(cascade.Result{}, fmt.Errorf("%w: ProcessStream/ProcessFile already in progress", ErrLifecycleMisuse))
			return
		}
		defer p.active.Store(false)

		inFlight := 0
		sendTimes := make([]time.Time, 0, inferenceQueueDepth)

		drainOne := func() bool {
			outcome := <-p.inferResults
			inFlight--
			sentAt := sendTimes[0]
			sendTimes = sendTimes[1:]
			p.stats.RecordFrame(time.Since(sentAt))

			if outcome.err != nil {
				// InferenceFailure is recoverable: substitute probability 0,
				// count it, and surface a warning instead of terminating
				// the stream.
				p.stats.RecordInferenceFailure()
				scope.Logger.Warn("inference failure, substituting probability 0",
					"error", outcome.err, "processor_id", p.id)
				return p.yieldResults(outcome.f, 0, yield)
			}
			return p.yieldResults(outcome.f, outcome.prob, yield)
		}

		send := func(f frame.Frame) bool {
			if inFlight >= inferenceQueueDepth {
				if !drainOne() {
					return false
				}
			}
			p.inputFrames <- f
			sendTimes = append(sendTimes, time.Now())
			inFlight++
			return true
		}

		buf := make([]byte, readChunkBytes)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if appendErr := p.buf.Append(buf[:n], p.cfg.Format); appendErr != nil {
					// InvalidInput is recoverable: drop the offending chunk
					// and keep reading rather than terminating the stream.
					p.stats.RecordInvalidInputDropped()
					scope.Logger.Warn("dropping malformed input chunk",
						"error", appendErr, "processor_id", p.id)
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						yield(cascade.Result{}, err)
						return
					}
					continue
				}
				for {
					f, ok := p.buf.PopFrame()
					if !ok {
						break
					}
					if !send(f) {
						return
					}
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(cascade.Result{}, err)
				return
			}
		}

		for inFlight > 0 {
			if !drainOne() {
				return
			}
		}

		if !finalize {
			return
		}

		if f, ok := p.buf.Flush(); ok {
			// The trailing partial frame goes through the worker like every
			// other frame, so the Inferencer is only ever called there.
			if !send(f) || !drainOne() {
				return
			}
		}

		p.mu.Lock()
		results, err := p.machine.Finalize()
		p.mu.Unlock()
		if err != nil {
			yield(cascade.Result{}, err)
			return
		}
		for _, res := range results {
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (p *Processor) yieldResults(f frame.Frame, prob float64, yield func(cascade.Result, error) bool) bool {
	p.mu.Lock()
	results, err := p.machine.ProcessFrame(f, prob)
	p.mu.Unlock()

	if err != nil {
		return yield(cascade.Result{}, err)
	}

	for _, res := range results {
		switch res.Kind() {
		case cascade.ResultSegment:
			p.stats.RecordSegment()
		case cascade.ResultInterruption:
			p.stats.RecordInterruption(true)
		}
		if !yield(res, nil) {
			return false
		}
	}
	return true
}

// SetSystemState lets the dialogue layer driving ASR/LLM/TTS move the
// conversation between StateIdle, StateProcessing, and StateResponding
// through the interruption guard's switch guard; speech onsets and
// offsets move the state through the entry guard instead. It returns
// false if the transition is refused, including
// any attempt while the machine is StateCollecting. It may be called
// concurrently with ProcessStream/ProcessFile.
func (p *Processor) SetSystemState(state interruptions.State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.SetSystemState(state)
}

// SystemState returns the dialogue state the interruption guard
// currently holds.
func (p *Processor) SystemState() interruptions.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.SystemState()
}

// Stats returns a snapshot of this processor's counters.
func (p *Processor) Stats() stats.Snapshot {
	return p.stats.Snapshot()
}

// Close cancels any further input, drains the inference worker
// (discarding whatever it was still computing), finalizes the
// cascade.Machine to flush a trailing in-progress segment if one
// exists, and releases the Inferencer if it implements io.Closer. It is
// idempotent and safe to call more than once. A segment flushed this
// way is counted in Stats, but its Result value has nowhere to go;
// callers that need to observe it should drain a final ProcessStream
// call (or call ProcessFile, which finalizes itself) before Close.
func (p *Processor) Close(ctx context.Context) error {
	_, span := scope.Tracer.Start(ctx, "stream.Processor.Close")
	defer span.End()

	var err error
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.inputFrames)
		<-p.workerDone
		// The worker is done sending; closing here discards whatever
		// outcomes are still buffered in the channel, per the
		// cancellation semantics of discarding in-flight inference.
		close(p.inferResults)

		p.mu.Lock()
		if !p.machine.Finalized() {
			results, ferr := p.machine.Finalize()
			if ferr != nil {
				span.RecordError(ferr)
				span.SetStatus(codes.Error, ferr.Error())
			}
			for _, res := range results {
				switch res.Kind() {
				case cascade.ResultSegment:
					p.stats.RecordSegment()
				case cascade.ResultInterruption:
					p.stats.RecordInterruption(true)
				}
			}
		}
		p.mu.Unlock()

		if closer, ok := p.inferencer.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				err = fmt.Errorf("stream: failed to close inferencer: %w", cerr)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
	})
	return err
}
