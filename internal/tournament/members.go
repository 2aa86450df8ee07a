package tournament

import (
	"sort"
)

// PageSize is the maximum number of options a selection widget can hold.
const PageSize = 25

// TagSet is a set of participant tags.
type TagSet map[string]struct{}

// NewTagSet builds a set from the given tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set. A nil set is empty.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Add inserts tag into the set.
func (s TagSet) Add(tag string) {
	s[tag] = struct{}{}
}

// Tags returns the set's members in sorted order.
func (s TagSet) Tags() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// PageBounds returns the half-open range [start, end) of page p over n members.
// Out-of-range pages yield an empty range.
func PageBounds(n, p int) (start, end int) {
	if p < 0 || n <= 0 {
		return 0, 0
	}
	start = p * PageSize
	if start >= n {
		return n, n
	}
	end = start + PageSize
	if end > n {
		end = n
	}
	return start, end
}

// Page returns the members of page p, in snapshot order.
func Page(members []Participant, p int) []Participant {
	start, end := PageBounds(len(members), p)
	return members[start:end]
}

// Exclude returns a copy of members without the excluded tags, preserving order.
func Exclude(members []Participant, excluded TagSet) []Participant {
	out := make([]Participant, 0, len(members))
	for _, m := range members {
		if excluded.Has(m.Tag) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Without returns a copy of the snapshot whose members exclude the given tags.
func (s *Snapshot) Without(excluded TagSet) *Snapshot {
	cp := *s
	cp.Members = Exclude(s.Members, excluded)
	return &cp
}

// WithMembers returns a copy of the snapshot carrying only the given members.
func (s *Snapshot) WithMembers(members ...Participant) *Snapshot {
	cp := *s
	cp.Members = append([]Participant(nil), members...)
	return &cp
}

// Top returns at most n leading members.
func Top(members []Participant, n int) []Participant {
	if n > len(members) {
		n = len(members)
	}
	return members[:n]
}

// IndexOf returns the position of tag in members or -1.
func IndexOf(members []Participant, tag string) int {
	for i, m := range members {
		if m.Tag == tag {
			return i
		}
	}
	return -1
}

// SortMembers orders members by descending score, then ascending upstream rank.
func SortMembers(members []Participant) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Rank < members[j].Rank
	})
}

// ClanStanding is a clan's aggregate result.
type ClanStanding struct {
	Clan    Clan
	Score   int
	Members int
}

// RankClans groups members by clan and ranks clans by total score.
// Clanless members are skipped.
func RankClans(members []Participant) []ClanStanding {
	index := make(map[string]int)
	var standings []ClanStanding
	for _, m := range members {
		if m.Clan == nil || m.Clan.Tag == "" {
			continue
		}
		i, ok := index[m.Clan.Tag]
		if !ok {
			i = len(standings)
			index[m.Clan.Tag] = i
			standings = append(standings, ClanStanding{Clan: *m.Clan})
		}
		standings[i].Score += m.Score
		standings[i].Members++
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Members != b.Members {
			return a.Members > b.Members
		}
		return a.Clan.Name < b.Clan.Name
	})
	return standings
}
