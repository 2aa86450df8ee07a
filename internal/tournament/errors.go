package tournament

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when no participant is left to render.
var ErrEmptyResult = errors.New("no players remaining")

// InsufficientParticipantsError reports that fewer participants than required remain.
type InsufficientParticipantsError struct {
	Have int
	Need int
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("not enough players: %d available, %d required", e.Have, e.Need)
}

// RequireParticipants returns ErrEmptyResult for an empty list and an
// InsufficientParticipantsError when fewer than need members are present.
func RequireParticipants(members []Participant, need int) error {
	if len(members) == 0 {
		return ErrEmptyResult
	}
	if len(members) < need {
		return &InsufficientParticipantsError{Have: len(members), Need: need}
	}
	return nil
}
