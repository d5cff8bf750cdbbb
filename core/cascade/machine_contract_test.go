package cascade

import (
	"testing"

	"github.com/koscakluka/cascade/core/frame"
	"github.com/koscakluka/cascade/core/interruptions"
	"github.com/koscakluka/cascade/core/vad"
)

func frameAtTs(v float32, ts int64) frame.Frame {
	f := frameAt(v)
	f.StartTimestampMs = ts
	return f
}

func machineWithInterval(minIntervalMs int64) *Machine {
	vadCfg := vad.DefaultConfig()
	vadCfg.SpeechPadMs = 0
	vadCfg.MinSilenceDurationMs = 64 // 1024 samples, matches testMachine()
	cfg := interruptions.DefaultConfig()
	cfg.MinIntervalMs = minIntervalMs
	return NewMachine(vadCfg, cfg)
}

// TestUniversalProperty1TimeMonotonicity drives a silence/onset/offset
// sequence and checks every emitted Result's TimestampMs is
// non-decreasing, per spec.md §8 property 1.
func TestUniversalProperty1TimeMonotonicity(t *testing.T) {
	m := testMachine()

	frames := []struct {
		ts   int64
		prob float64
	}{
		{0, 0.1},
		{32, 0.1},
		{64, 0.9},  // onset, accepted
		{96, 0.1},  // tempEnd set
		{128, 0.1}, // diff 512
		{160, 0.1}, // diff 1024 >= minSilenceSamples: closes
		{192, 0.1},
	}

	var timestamps []int64
	for _, fr := range frames {
		results, err := m.ProcessFrame(frameAtTs(0, fr.ts), fr.prob)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range results {
			timestamps = append(timestamps, r.TimestampMs())
		}
	}

	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			t.Fatalf("expected non-decreasing timestamps, got %v", timestamps)
		}
	}
}

// TestUniversalProperty3And4SegmentPairingAndWellFormedness drives two
// full speech spans through one Machine and checks every Segment has
// end > start, that segments do not overlap, and that the count of
// accepted starts equals the count of ends (spec.md §8 properties 3, 4).
func TestUniversalProperty3And4SegmentPairingAndWellFormedness(t *testing.T) {
	m := machineWithInterval(0) // no throttling between the two onsets

	var segments []Result
	drive := func(startTs int64) {
		m.ProcessFrame(frameAtTs(0, startTs), 0.9) // onset, accepted
		for i := int64(1); i <= 3; i++ {
			results, _ := m.ProcessFrame(frameAtTs(0, startTs+32*i), 0.1)
			segments = append(segments, results...)
		}
	}

	drive(0)
	drive(1000)

	if len(segments) != 2 {
		t.Fatalf("expected exactly 2 segments (one accepted start each), got %d", len(segments))
	}

	var prevEnd int64 = -1
	for _, s := range segments {
		if s.Kind() != ResultSegment {
			t.Fatalf("expected a segment result, got %v", s.Kind())
		}
		seg := s.Segment()
		if seg.EndTimestampMs <= seg.StartTimestampMs {
			t.Fatalf("expected end > start, got %+v", seg)
		}
		if seg.StartTimestampMs < prevEnd {
			t.Fatalf("expected segments not to overlap, got start %d before previous end %d", seg.StartTimestampMs, prevEnd)
		}
		prevEnd = seg.EndTimestampMs
	}
}

// TestUniversalProperty5GuardExclusivity asserts both halves of
// spec.md §8 property 5: RequestState is refused outright while
// StateCollecting, and an onset while StateProcessing/StateResponding
// always produces an Interruption rather than a silent state change.
func TestUniversalProperty5GuardExclusivity(t *testing.T) {
	m := testMachine()
	m.ProcessFrame(frameAt(0), 0.9) // accepted onset, now collecting

	if m.SetSystemState(interruptions.StateProcessing) {
		t.Fatalf("expected RequestState to be refused while collecting")
	}
	if m.SystemState() != interruptions.StateCollecting {
		t.Fatalf("expected state to remain collecting, got %v", m.SystemState())
	}

	m2 := testMachine()
	m2.SetSystemState(interruptions.StateProcessing)
	m2.SetSystemState(interruptions.StateResponding)
	results, _ := m2.ProcessFrame(frameAt(0), 0.9)
	if len(results) != 1 || results[0].Kind() != ResultInterruption {
		t.Fatalf("expected an onset during responding to surface as an interruption, got %v", results)
	}
	if m2.SystemState() != interruptions.StateCollecting {
		t.Fatalf("expected the interruption to move state to collecting, got %v", m2.SystemState())
	}
}

// TestUniversalProperty6IntervalThrottling asserts spec.md §8 property
// 6: a second onset inside MinIntervalMs of the first produces neither
// an Interruption nor a state transition.
func TestUniversalProperty6IntervalThrottling(t *testing.T) {
	m := testMachine() // default MinIntervalMs is 500ms

	results, _ := m.ProcessFrame(frameAtTs(0, 0), 0.9) // onset at t=0, accepted
	if len(results) != 0 {
		t.Fatalf("expected the first onset to emit nothing yet, got %v", results)
	}
	for i := 0; i < 3; i++ {
		results, _ = m.ProcessFrame(frameAtTs(0, 32*int64(i+1)), 0.1)
	}
	if len(results) != 1 || results[0].Kind() != ResultSegment {
		t.Fatalf("expected the first segment to close, got %v", results)
	}

	// Second onset 128ms later, well inside the 500ms throttle window.
	results, _ = m.ProcessFrame(frameAtTs(0, 160), 0.9)
	if len(results) != 1 || results[0].Kind() != ResultFrame {
		t.Fatalf("expected the throttled onset to surface as an ordinary frame, got %v", results)
	}
	if m.SystemState() != interruptions.StateIdle {
		t.Fatalf("expected the throttled onset not to transition state, got %v", m.SystemState())
	}
}

// TestUniversalProperty2FrameExhaustion checks that every sample fed to
// the Machine is accounted for either in a Frame result or inside a
// Segment's samples, per spec.md §8 property 2 (the onset frame itself
// is the one exception: with zero pad it precedes the Collector's
// lookback window and is neither reported as a Frame nor retained in
// the Segment, since it is the frame that triggered collection).
func TestUniversalProperty2FrameExhaustion(t *testing.T) {
	m := testMachine()

	var frameSamples, segmentSamples int
	total := 0
	drive := func(prob float64) {
		results, _ := m.ProcessFrame(frameAtTs(0, int64(total/16)), prob)
		total += frame.FrameSamples
		for _, r := range results {
			switch r.Kind() {
			case ResultFrame:
				frameSamples += frame.FrameSamples
			case ResultSegment:
				segmentSamples += len(r.Segment().Samples)
			}
		}
	}

	drive(0.1) // silence, frame
	drive(0.1) // silence, frame
	drive(0.9) // onset, accepted, frame dropped (zero pad)
	drive(0.1) // tempEnd set
	drive(0.1) // diff 512
	drive(0.1) // diff 1024, closes
	drive(0.1) // silence again, frame

	const onsetFrameSamples = frame.FrameSamples
	accounted := frameSamples + segmentSamples + onsetFrameSamples
	if accounted != total {
		t.Fatalf("expected every sample accounted for modulo the dropped onset frame, got %d accounted of %d total", accounted, total)
	}
}
