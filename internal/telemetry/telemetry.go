// Package telemetry builds the tracer/meter/logger trio each cascade
// package wires up for a given instrumentation scope, following the same
// shape as the teacher's per-package instrumentation.go files
// (e.g. core/interruptions/llm/instrumentation.go).
package telemetry

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Scope bundles the OpenTelemetry tracer and meter plus an otelslog
// logger for one instrumentation scope (normally a Go import path).
type Scope struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger
}

// New returns the instrumentation trio for name. Call it once per
// package and store the result in package-level vars, as the teacher
// does with its own tracer/meter/logger globals.
func New(name string) Scope {
	return Scope{
		Tracer: otel.Tracer(name),
		Meter:  otel.Meter(name),
		Logger: otelslog.NewLogger(name),
	}
}
