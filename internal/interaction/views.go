package interaction

import (
	"context"
	"fmt"

	"github.com/hunterjsb/fftournament/internal/render"
	"github.com/hunterjsb/fftournament/internal/session"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

// Text shown to users.
const (
	EmptyTournamentNotice = "No players have played yet !"
	NoPlayersRemaining    = "No players remaining after exclusions."
	NoMorePlayersNotice   = "No more players to draw."
	TimeoutNotice         = "⏱️ This interaction has timed out."
	GenericFailureNotice  = "Something went wrong while handling this interaction."
	BusyNotice            = "A request is already in progress for this session."
	CommandFailureNotice  = "There was an error while executing this command!"
	BracketCompleteNotice = "🏆 The bracket is complete."
)

const (
	maxOptionLabelRunes  = 50
	maxOptionDetailRunes = 50
)

// GeneratingNotice replaces the selection while a result is produced.
func GeneratingNotice(kind tournament.Kind) string {
	return fmt.Sprintf("⏳ Generating the %s...", kind.Label())
}

// InsufficientNotice reports a bracket that cannot be seeded.
func InsufficientNotice(err *tournament.InsufficientParticipantsError) string {
	return fmt.Sprintf("Not enough players for a bracket: %d remaining, %d required.", err.Have, err.Need)
}

// Option is one entry of the exclusion selector.
type Option struct {
	Value       string
	Label       string
	Description string
	Selected    bool
}

// Page is the exclusion selector for one page of members.
type Page struct {
	SessionID string
	Kind      tournament.Kind
	Title     string
	Index     int
	Total     int
	Excluded  int
	Options   []Option
	HasPrev   bool
	HasNext   bool
}

// Draw shows the current pass-winner candidate.
type Draw struct {
	SessionID string
	Candidate tournament.Participant
	Rank      int
	Remaining int
}

// Controls are the buttons left under a generated result.
type Controls struct {
	SessionID     string
	UpdateResults bool
}

// Surface is the message a session lives in.
type Surface interface {
	ShowPage(ctx context.Context, p Page) error
	ShowDraw(ctx context.Context, d Draw) error
	ShowNotice(ctx context.Context, text string) error
	ShowOutput(ctx context.Context, out *render.Output, c Controls) error
	// Retire ends the message's interactive life. keepContent leaves the
	// current content in place and only removes the controls.
	Retire(ctx context.Context, notice string, keepContent bool) error
}

// Responder answers one component interaction. Ack acknowledges without a
// visible change; Fail replies privately to the user.
type Responder interface {
	Surface
	Ack(ctx context.Context) error
	Fail(ctx context.Context, text string) error
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// PageView builds the selector for the session's current page.
func PageView(s *session.Session) Page {
	members := s.Snapshot.Members
	total := tournament.TotalPages(len(members))
	start, end := tournament.PageBounds(len(members), s.Page)

	p := Page{
		SessionID: s.ID,
		Kind:      s.Kind,
		Index:     s.Page,
		Total:     total,
		Excluded:  len(s.Excluded),
		HasPrev:   s.Page > 0,
		HasNext:   s.Page < total-1,
		Options:   make([]Option, 0, end-start),
	}
	p.Title = fmt.Sprintf("Select players to exclude from the %s (page %d/%d)", s.Kind.Label(), s.Page+1, total)

	for i := start; i < end; i++ {
		m := members[i]
		detail := "No clan"
		if m.Clan != nil {
			detail = truncate(m.Clan.Name, maxOptionDetailRunes)
		}
		p.Options = append(p.Options, Option{
			Value:       m.Tag,
			Label:       fmt.Sprintf("%d. %s", i+1, truncate(m.Name, maxOptionLabelRunes)),
			Description: detail + " - " + render.Points(m.Score),
			Selected:    s.Excluded.Has(m.Tag),
		})
	}
	return p
}

// DrawView builds the pass-winner view for the session's current candidate.
func DrawView(s *session.Session) Draw {
	d := Draw{SessionID: s.ID, Remaining: len(s.Remaining())}
	if s.Winner != nil {
		d.Candidate = *s.Winner
		d.Rank = tournament.IndexOf(s.Snapshot.Members, s.Winner.Tag) + 1
	}
	return d
}
