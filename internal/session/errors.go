package session

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySubmission = errors.New("submission is empty")
	ErrChannelNotOpen  = errors.New("peer channel not open")
	ErrNotReady        = errors.New("session not in a valid state")
	ErrSendFailed      = errors.New("failed to send to partner")
)

// SessionError carries the failing operation alongside the underlying
// cause, so the CLI can show an actionable message.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func wrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
