package bracket

import (
	"strings"

	"github.com/hunterjsb/fftournament/internal/tournament"
)

// Outcome marks how a side finished its match.
type Outcome int

const (
	Pending Outcome = iota
	Won
	Lost
)

// Side is the presentation of one slot of a match.
type Side struct {
	Name    string
	Tag     string
	Clan    string
	Empty   bool
	Outcome Outcome
	Crowns  string
}

// Round groups the matches of one stage for display.
type Round struct {
	Name    string
	Matches []Match
}

// Sides derives both slots' presentation. Crowns are split from Score and
// shown only on the side whose identity matches the winner or loser.
func (m Match) Sides() [2]Side {
	var winnerCrowns, loserCrowns string
	if m.Score != "" {
		winnerCrowns, loserCrowns, _ = strings.Cut(m.Score, "-")
	}

	side := func(p *tournament.Participant) Side {
		if p == nil {
			return Side{Empty: true}
		}
		s := Side{Name: p.Name, Tag: p.Tag, Clan: p.ClanName()}
		switch {
		case m.Winner != nil && m.Winner.Tag == p.Tag:
			s.Outcome = Won
			s.Crowns = winnerCrowns
		case m.Loser != nil && m.Loser.Tag == p.Tag:
			s.Outcome = Lost
			s.Crowns = loserCrowns
		}
		return s
	}

	return [2]Side{side(m.Player1), side(m.Player2)}
}

// Rounds returns the bracket stages in play order.
func (b *Bracket) Rounds() []Round {
	return []Round{
		{Name: "Quarter-finals", Matches: b.QuarterFinals[:]},
		{Name: "Semi-finals", Matches: b.SemiFinals[:]},
		{Name: "Final", Matches: []Match{b.Final}},
	}
}
