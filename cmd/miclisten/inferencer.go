package main

import (
	"math"

	"github.com/koscakluka/cascade/core/frame"
)

// energyInferencer is a stand-in for a real speech probability model
// (e.g. an ONNX Runtime session running Silero VAD). It has no model
// weights: it maps RMS energy through a logistic curve, which is
// enough to drive the demo off a live microphone without bundling an
// actual model.
type energyInferencer struct {
	// midpoint is the RMS level mapped to probability 0.5.
	midpoint float64
	// slope controls how sharply probability rises around midpoint.
	slope float64
}

func newEnergyInferencer() *energyInferencer {
	return &energyInferencer{midpoint: 0.02, slope: 40}
}

func (e *energyInferencer) Infer(f frame.Frame) (float64, error) {
	var sumSquares float64
	for _, s := range f.Samples {
		sumSquares += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSquares / float64(len(f.Samples)))
	return 1 / (1 + math.Exp(-e.slope*(rms-e.midpoint))), nil
}
