package interaction

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound means no live session matches the event. Callers
	// treat it as a no-op.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForeignUser means the event came from someone other than the session owner.
	ErrForeignUser = errors.New("interaction from another user")
	// ErrBusy means the session is still handling a long-running event.
	ErrBusy = errors.New("session busy")
	// ErrSessionExpired means the session ended while the event was queued.
	ErrSessionExpired = errors.New("session expired")
)

// HandlingError wraps a failure raised while handling an event. The session
// survives it.
type HandlingError struct {
	SessionID string
	Event     EventKind
	Err       error
}

func (e *HandlingError) Error() string {
	return fmt.Sprintf("handle %s for session %s: %v", e.Event, e.SessionID, e.Err)
}

func (e *HandlingError) Unwrap() error {
	return e.Err
}
