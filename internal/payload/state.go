package payload

import (
	"time"

	"github.com/sevigo/build-herald/internal/core"
)

// Remote build states understood by the review platform.
const (
	StateInProgress = "INPROGRESS"
	StateSuccessful = "SUCCESSFUL"
	StateFailed     = "FAILED"
)

// State maps a lifecycle position onto a remote state. The platform has no
// finer-grained states, so every non-success result is reported as failed.
func State(kind core.EventKind, result core.Result) string {
	if kind == core.EventNew {
		return StateInProgress
	}
	if result == core.Success {
		return StateSuccessful
	}
	return StateFailed
}

// Duration returns the elapsed milliseconds between start and completion, or nil
// when either timestamp is missing.
func Duration(started, complete *time.Time) *int64 {
	if started == nil || complete == nil {
		return nil
	}
	ms := complete.Sub(*started).Milliseconds()
	return &ms
}
