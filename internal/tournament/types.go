// Package tournament holds the domain model shared by the bot: participants,
// tournament snapshots, battle records and the operations over them.
package tournament

import (
	"fmt"
	"strings"
	"time"
)

// Clan is a participant's clan affiliation.
type Clan struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// Participant is a tournament entrant. Tag is the identity.
type Participant struct {
	Tag   string `json:"tag"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank,omitempty"`
	Clan  *Clan  `json:"clan,omitempty"`
}

// ClanName returns the clan name or an empty string for clanless players.
func (p Participant) ClanName() string {
	if p.Clan == nil {
		return ""
	}
	return p.Clan.Name
}

// Snapshot is a read-only view of a tournament at fetch time.
// Members are ordered by descending score, then by upstream rank.
type Snapshot struct {
	Name                string        `json:"name"`
	Tag                 string        `json:"tag"`
	Status              string        `json:"status"`
	Description         string        `json:"description"`
	Type                string        `json:"type"`
	LevelCap            int           `json:"levelCap"`
	Capacity            int           `json:"capacity"`
	MaxCapacity         int           `json:"maxCapacity"`
	StartedTime         time.Time     `json:"startedTime"`
	EndedTime           *time.Time    `json:"endedTime,omitempty"`
	PreparationDuration time.Duration `json:"preparationDuration"`
	Members             []Participant `json:"membersList"`
}

// Kind identifies which result a session generates.
type Kind string

const (
	KindPlayersRanking Kind = "players_ranking"
	KindClansRanking   Kind = "clans_ranking"
	KindWinner         Kind = "winner"
	KindPassWinner     Kind = "pass_winner"
	KindPodium         Kind = "podium"
	KindBracket        Kind = "bracket"
)

// Kinds lists every command kind in registration order.
var Kinds = []Kind{KindPlayersRanking, KindClansRanking, KindWinner, KindPassWinner, KindPodium, KindBracket}

// ParseKind maps a subcommand name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown command kind %q", s)
}

// Label is the human readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindPlayersRanking:
		return "players ranking"
	case KindClansRanking:
		return "clans ranking"
	case KindWinner, KindPassWinner:
		return "winner"
	case KindPodium:
		return "podium"
	case KindBracket:
		return "bracket"
	default:
		return string(k)
	}
}

// BattleClanMate marks a friendly battle between two members of the same clan.
const BattleClanMate = "clanMate"

// BattleRecord is one entry of a player's battle log.
type BattleRecord struct {
	Type     string          `json:"type"`
	Time     time.Time       `json:"battleTime"`
	Team     []TeamEntry     `json:"team"`
	Opponent []OpponentEntry `json:"opponent"`
}

// TeamEntry is the log owner's side of a battle.
type TeamEntry struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Crowns int    `json:"crowns"`
	Clan   *Clan  `json:"clan,omitempty"`
}

// OpponentEntry is the other side of a battle.
type OpponentEntry struct {
	Tag    string `json:"tag"`
	Name   string `json:"name"`
	Crowns int    `json:"crowns"`
}

// IsFriendly reports whether the record is a clanMate battle.
func (r BattleRecord) IsFriendly() bool {
	return r.Type == BattleClanMate
}

// NormalizeTag upper-cases a player or tournament tag and ensures the leading '#'.
func NormalizeTag(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}
