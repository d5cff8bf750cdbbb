package stream

import "errors"

// ErrLifecycleMisuse is returned when a Processor method is called out
// of order, such as ProcessStream after Close, or two ProcessStream/
// ProcessFile calls overlapping on the same Processor. Per the
// LifecycleMisuse classification, this is recoverable: it is a
// deterministic refusal, not a stream-terminating fault, and the
// Processor remains usable afterward except where Close has already
// been called.
var ErrLifecycleMisuse = errors.New("stream: lifecycle misuse")
