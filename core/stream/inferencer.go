package stream

import "github.com/koscakluka/cascade/core/frame"

// Inferencer produces a speech probability in [0, 1] for a single
// frame. Implementations are expected to hold per-connection model
// state (e.g. an ONNX Runtime session with its own LSTM hidden state),
// matching the 1:1:1:1 connection-to-model isolation the rest of the
// engine assumes; a Processor calls Infer from a single goroutine for
// its lifetime, so an Inferencer need not be safe for concurrent use
// across Processors that don't share it.
type Inferencer interface {
	Infer(f frame.Frame) (float64, error)
}
