package worker

import (
	"errors"
	"fmt"
)

// Sentinel errors for worker operations, distinguishable with errors.Is.
var (
	// ErrCodecUnsupported is returned by OpenStream when the configured
	// codec factory can't produce a codec for the given stream hints: no
	// worker is started, and the caller is told.
	ErrCodecUnsupported = errors.New("worker: codec unsupported")

	// ErrNotRunning is returned by operations that require a started
	// worker (SetSpeed, Flush, WaitForBuffers) when one was never opened.
	ErrNotRunning = errors.New("worker: not running")

	// ErrQueueClosed is returned by Send, SetSpeed, Flush, and
	// WaitForBuffers once CloseStream has completed, distinguishing
	// "never opened" from "opened, then torn down".
	ErrQueueClosed = errors.New("worker: queue closed")
)

// DecodeError wraps a codec failure encountered mid-decode with the
// stage that produced it, modeled on moq's ParseError. It never escapes
// up the call stack — decode failures are logged and folded into
// FlagError rather than returned to the caller — but gives the log line
// a typed, Unwrap-able value instead of a bare string.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("worker: decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
