package royale

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped when the API answers 404.
	ErrNotFound = errors.New("not found")
	// ErrMalformed is wrapped when a response fails validation.
	ErrMalformed = errors.New("malformed response")
)

// UpstreamError reports a failed call to the game API.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
