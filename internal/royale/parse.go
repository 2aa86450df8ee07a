package royale

import (
	"fmt"
	"time"

	"github.com/hunterjsb/fftournament/internal/tournament"
)

// TimeLayout is the API's compact UTC timestamp, e.g. 20240101T120000.000Z.
const TimeLayout = "20060102T150405.000Z"

// ParseTime parses an API timestamp. An empty string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformed, s)
	}
	return t, nil
}

func parseClan(c *clanDto) *tournament.Clan {
	if c == nil || c.Tag == "" {
		return nil
	}
	return &tournament.Clan{Tag: c.Tag, Name: c.Name}
}

// parseTournament validates the wire tournament. Members without a tag are
// rejected, duplicate tags keep their first occurrence, and members are
// ordered by score then upstream rank.
func parseTournament(dto *tournamentDto) (*tournament.Snapshot, error) {
	if dto.Tag == "" {
		return nil, fmt.Errorf("%w: tournament without tag", ErrMalformed)
	}

	started, err := ParseTime(dto.StartedTime)
	if err != nil {
		return nil, err
	}
	snap := &tournament.Snapshot{
		Name:                dto.Name,
		Tag:                 dto.Tag,
		Status:              dto.Status,
		Description:         dto.Description,
		Type:                dto.Type,
		LevelCap:            dto.LevelCap,
		Capacity:            dto.Capacity,
		MaxCapacity:         dto.MaxCapacity,
		StartedTime:         started,
		PreparationDuration: time.Duration(dto.PreparationDuration) * time.Second,
	}
	if dto.EndedTime != "" {
		ended, err := ParseTime(dto.EndedTime)
		if err != nil {
			return nil, err
		}
		snap.EndedTime = &ended
	}

	seen := make(map[string]bool, len(dto.MembersList))
	snap.Members = make([]tournament.Participant, 0, len(dto.MembersList))
	for i, m := range dto.MembersList {
		if m.Tag == "" {
			return nil, fmt.Errorf("%w: member %d without tag", ErrMalformed, i)
		}
		if seen[m.Tag] {
			continue
		}
		seen[m.Tag] = true
		snap.Members = append(snap.Members, tournament.Participant{
			Tag:   m.Tag,
			Name:  m.Name,
			Score: m.Score,
			Rank:  m.Rank,
			Clan:  parseClan(m.Clan),
		})
	}
	tournament.SortMembers(snap.Members)
	return snap, nil
}

// parseBattleLog keeps one-versus-one records. Records with an empty side
// are dropped rather than failing the whole log.
func parseBattleLog(dtos []battleDto) ([]tournament.BattleRecord, error) {
	out := make([]tournament.BattleRecord, 0, len(dtos))
	for _, b := range dtos {
		if len(b.Team) != 1 || len(b.Opponent) != 1 {
			continue
		}
		at, err := ParseTime(b.BattleTime)
		if err != nil {
			return nil, err
		}
		team, opp := b.Team[0], b.Opponent[0]
		out = append(out, tournament.BattleRecord{
			Type: b.Type,
			Time: at,
			Team: []tournament.TeamEntry{{
				Tag:    team.Tag,
				Name:   team.Name,
				Crowns: team.Crowns,
				Clan:   parseClan(team.Clan),
			}},
			Opponent: []tournament.OpponentEntry{{
				Tag:    opp.Tag,
				Name:   opp.Name,
				Crowns: opp.Crowns,
			}},
		})
	}
	return out, nil
}
