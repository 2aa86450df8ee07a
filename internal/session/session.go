// Package session holds the per-interaction state of an exclusion workflow
// and the stores that keep it between events.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// State is the lifecycle phase of a session.
type State string

const (
	StateSelecting  State = "selecting"
	StateDrawing    State = "drawing"
	StateGenerating State = "generating"
	StateTracking   State = "tracking"
	StateResolved   State = "resolved"
	StateExpired    State = "expired"
)

// Session is everything needed to resume a workflow after a restartless
// round trip through the store. It must stay JSON serialisable.
type Session struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	GuildID   string          `json:"guildId,omitempty"`
	ChannelID string          `json:"channelId,omitempty"`
	Kind      tournament.Kind `json:"kind"`
	State     State           `json:"state"`

	Snapshot    *tournament.Snapshot `json:"snapshot"`
	Excluded    tournament.TagSet    `json:"excluded"`
	Page        int                  `json:"page"`
	TextVersion bool                 `json:"textVersion"`
	ClanFilter  string               `json:"clanFilter,omitempty"`

	Winner  *tournament.Participant `json:"winner,omitempty"`
	Bracket *bracket.Bracket        `json:"bracket,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Remaining returns the snapshot members that are not excluded.
func (s *Session) Remaining() []tournament.Participant {
	if s.Snapshot == nil {
		return nil
	}
	return tournament.Exclude(s.Snapshot.Members, s.Excluded)
}

// Expired reports whether the session deadline has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions. Get returns ErrNotFound for absent sessions.
type Store interface {
	Create(ctx context.Context, s *Session) (string, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
