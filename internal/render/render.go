// Package render turns a filtered tournament into a message: an image when a
// renderer can produce one, and a text version on request or as fallback.
package render

import (
	"context"
	"errors"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

// ErrUnsupported is returned by an ImageRenderer that cannot draw a kind.
var ErrUnsupported = errors.New("unsupported by renderer")

const (
	ColorDefault = 0x3498db
	ColorWinner  = 0xf1c40f
	ColorError   = 0xff0000
)

// Request describes one result to produce.
type Request struct {
	Kind     tournament.Kind
	Snapshot *tournament.Snapshot
	Bracket  *bracket.Bracket
	Text     bool
}

// File is a rendered attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Output is a renderer-agnostic message.
type Output struct {
	Title       string
	Description string
	Image       *File
	Color       int
}

// Generator produces the output for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Output, error)
}

// ImageRenderer draws a request as an image file.
type ImageRenderer interface {
	Name() string
	Render(ctx context.Context, req Request) (*File, error)
}

// Narrator writes a short recap of a result.
type Narrator interface {
	Recap(ctx context.Context, prompt string) (string, error)
}

// members returns the participants a kind shows.
func members(kind tournament.Kind, snap *tournament.Snapshot) []tournament.Participant {
	switch kind {
	case tournament.KindWinner, tournament.KindPassWinner:
		return tournament.Top(snap.Members, 1)
	case tournament.KindPodium:
		return tournament.Top(snap.Members, 3)
	default:
		return snap.Members
	}
}
