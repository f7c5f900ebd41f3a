package flow

import (
	"errors"
	"fmt"
)

// ErrNotReady indicates an export attempt before Builder mode produced any
// blueprint content.
var ErrNotReady = errors.New("blueprint not ready: continue the conversation until Builder mode produces content")

// UpstreamError wraps a failed model call (network, auth, rate limit, timeout).
// The session does not advance; the user may retry the same turn.
type UpstreamError struct {
	StatusCode int // upstream HTTP status, 0 when the call never completed
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("model call failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// SchemaViolationError indicates the model reply did not satisfy the
// structured-reply contract. The raw payload is kept for diagnostics only and
// is never accepted as a turn's structured content.
type SchemaViolationError struct {
	Raw string
	Err error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("model reply violates structured-reply contract: %v", e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }
