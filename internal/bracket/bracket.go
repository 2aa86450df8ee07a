// Package bracket implements the fixed 8-seed single-elimination bracket and
// infers match results from players' battle logs.
package bracket

import (
	"fmt"

	"github.com/hunterjsb/fftournament/internal/tournament"
)

// Seeds is the number of entrants a bracket holds.
const Seeds = 8

// seedPairs are 0-indexed quarter-final pairings: 1v8, 4v5, 3v6, 2v7.
var seedPairs = [4][2]int{{0, 7}, {3, 4}, {2, 5}, {1, 6}}

// Match is one node of the bracket.
type Match struct {
	ID      string                  `json:"id"`
	Player1 *tournament.Participant `json:"player1,omitempty"`
	Player2 *tournament.Participant `json:"player2,omitempty"`
	Winner  *tournament.Participant `json:"winner,omitempty"`
	Loser   *tournament.Participant `json:"loser,omitempty"`
	Score   string                  `json:"score,omitempty"`
}

// Ready reports whether both slots are filled.
func (m *Match) Ready() bool {
	return m.Player1 != nil && m.Player2 != nil
}

// Resolved reports whether a winner has been determined.
func (m *Match) Resolved() bool {
	return m.Winner != nil && m.Loser != nil
}

// Bracket is the full tree: quarter-finals feed semi-finals feed the final.
type Bracket struct {
	QuarterFinals [4]Match `json:"quarterFinals"`
	SemiFinals    [2]Match `json:"semiFinals"`
	Final         Match    `json:"final"`
	ClanFilter    string   `json:"clanFilterTag,omitempty"`
}

// New seeds a bracket from exactly eight participants in descending order.
func New(top8 []tournament.Participant, clanFilter string) (*Bracket, error) {
	if len(top8) < Seeds {
		return nil, &tournament.InsufficientParticipantsError{Have: len(top8), Need: Seeds}
	}
	if len(top8) > Seeds {
		return nil, fmt.Errorf("bracket takes exactly %d seeds, got %d", Seeds, len(top8))
	}

	b := &Bracket{ClanFilter: clanFilter}
	for i, pair := range seedPairs {
		p1, p2 := top8[pair[0]], top8[pair[1]]
		b.QuarterFinals[i] = Match{
			ID:      fmt.Sprintf("QF%d", i+1),
			Player1: &p1,
			Player2: &p2,
		}
	}
	b.SemiFinals[0] = Match{ID: "SF1"}
	b.SemiFinals[1] = Match{ID: "SF2"}
	b.Final = Match{ID: "F"}
	return b, nil
}

// Tags returns the distinct participant tags of the quarter-finals, in bracket order.
func (b *Bracket) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for i := range b.QuarterFinals {
		m := &b.QuarterFinals[i]
		for _, p := range []*tournament.Participant{m.Player1, m.Player2} {
			if p == nil || seen[p.Tag] {
				continue
			}
			seen[p.Tag] = true
			tags = append(tags, p.Tag)
		}
	}
	return tags
}

// Champion returns the final's winner, if any.
func (b *Bracket) Champion() *tournament.Participant {
	return b.Final.Winner
}

// Resolved counts resolved matches across the tree.
func (b *Bracket) Resolved() int {
	n := 0
	for _, m := range b.matches() {
		if m.Resolved() {
			n++
		}
	}
	return n
}

func (b *Bracket) matches() []*Match {
	return []*Match{
		&b.QuarterFinals[0], &b.QuarterFinals[1], &b.QuarterFinals[2], &b.QuarterFinals[3],
		&b.SemiFinals[0], &b.SemiFinals[1],
		&b.Final,
	}
}
