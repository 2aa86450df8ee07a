package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

var medals = []string{"🥇", "🥈", "🥉"}

// Points formats a score with the singular form below two.
func Points(score int) string {
	if score >= 2 {
		return fmt.Sprintf("%d pts", score)
	}
	return fmt.Sprintf("%d pt", score)
}

// HumanDuration renders a preparation duration as "1 hour 5 minutes".
func HumanDuration(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n >= 2 {
			return fmt.Sprintf("%d %ss", n, unit)
		}
		return fmt.Sprintf("%d %s", n, unit)
	}

	secs := int(d / time.Second)
	if secs >= 3600 {
		hours, minutes := secs/3600, (secs%3600)/60
		out := plural(hours, "hour")
		if minutes > 0 {
			out += " " + plural(minutes, "minute")
		}
		return out
	}
	return plural(secs/60, "minute")
}

// DiscordTimestamp renders t as an absolute and a relative Discord timestamp.
func DiscordTimestamp(t time.Time) string {
	unix := t.Unix()
	return fmt.Sprintf("<t:%d:F> (<t:%d:R>)", unix, unix)
}

// EscapeMarkdown escapes underscores so names do not turn italic.
func EscapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "_", "\\_")
}

func clanSuffix(p tournament.Participant) string {
	if p.Clan == nil {
		return " (No clan)"
	}
	return " (" + p.Clan.Name + ")"
}

// InfoText lists the tournament's metadata, one bullet per line.
func InfoText(s *tournament.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Name: **%s**\n", s.Name)
	fmt.Fprintf(&b, "- Tag: **%s**\n", s.Tag)
	fmt.Fprintf(&b, "- Status: **%s**\n", s.Status)
	fmt.Fprintf(&b, "- Description: **%s**\n", s.Description)
	fmt.Fprintf(&b, "- Type: **%s**\n", s.Type)
	fmt.Fprintf(&b, "- Level cap: **%d**\n", s.LevelCap)
	fmt.Fprintf(&b, "- Tournament Players: **%d / %d**\n", s.Capacity, s.MaxCapacity)
	if !s.StartedTime.IsZero() {
		fmt.Fprintf(&b, "- Tournament start date: %s\n", DiscordTimestamp(s.StartedTime))
	}
	if s.EndedTime != nil {
		fmt.Fprintf(&b, "- Tournament end date: %s\n", DiscordTimestamp(*s.EndedTime))
	}
	fmt.Fprintf(&b, "- Preparation duration: **%s**\n", HumanDuration(s.PreparationDuration))
	return b.String()
}

// ResultLines numbers members from one.
func ResultLines(members []tournament.Participant) string {
	var b strings.Builder
	for i, m := range members {
		fmt.Fprintf(&b, "%d. **%s**%s - **%s**\n", i+1, m.Name, clanSuffix(m), Points(m.Score))
	}
	return b.String()
}

// ClanLines numbers clan standings from one.
func ClanLines(standings []tournament.ClanStanding) string {
	var b strings.Builder
	for i, c := range standings {
		players := "players"
		if c.Members == 1 {
			players = "player"
		}
		fmt.Fprintf(&b, "%d. **%s** - **%s** (%d %s)\n", i+1, c.Clan.Name, Points(c.Score), c.Members, players)
	}
	return b.String()
}

// PodiumLines prefixes the top three with medals.
func PodiumLines(members []tournament.Participant) string {
	var b strings.Builder
	for i, m := range tournament.Top(members, len(medals)) {
		fmt.Fprintf(&b, "%s **%s**%s - **%s**\n", medals[i], m.Name, clanSuffix(m), Points(m.Score))
	}
	return b.String()
}

// WinnerLine announces a single winner.
func WinnerLine(p tournament.Participant) string {
	return fmt.Sprintf("🏆 **%s**%s - **%s**\n", p.Name, clanSuffix(p), Points(p.Score))
}

func sideText(s bracket.Side) string {
	if s.Empty {
		return "TBD"
	}
	out := "**" + EscapeMarkdown(s.Name) + "**"
	if s.Crowns != "" {
		out += " (" + s.Crowns + ")"
	}
	switch s.Outcome {
	case bracket.Won:
		out += " ✅"
	case bracket.Lost:
		out += " ❌"
	}
	return out
}

// BracketText renders every round, then the champion once known. Names are
// escaped here since round headings use underline markup.
func BracketText(b *bracket.Bracket) string {
	var sb strings.Builder
	if b.ClanFilter != "" {
		fmt.Fprintf(&sb, "Clan: **%s**\n", b.ClanFilter)
	}
	for _, round := range b.Rounds() {
		fmt.Fprintf(&sb, "\n__%s__\n", round.Name)
		for _, m := range round.Matches {
			sides := m.Sides()
			fmt.Fprintf(&sb, "%s: %s vs %s\n", m.ID, sideText(sides[0]), sideText(sides[1]))
		}
	}
	if champ := b.Champion(); champ != nil {
		fmt.Fprintf(&sb, "\n🏆 Champion: **%s**\n", EscapeMarkdown(champ.Name))
	}
	return sb.String()
}

// Text builds the full text version of a request.
func Text(req Request) string {
	if req.Kind == tournament.KindBracket {
		if req.Bracket == nil {
			return ""
		}
		return BracketText(req.Bracket)
	}

	s := req.Snapshot
	var body string
	switch req.Kind {
	case tournament.KindClansRanking:
		body = ClanLines(tournament.RankClans(s.Members))
	case tournament.KindWinner, tournament.KindPassWinner:
		if len(s.Members) > 0 {
			body = WinnerLine(s.Members[0])
		}
	case tournament.KindPodium:
		body = PodiumLines(s.Members)
	default:
		body = ResultLines(s.Members)
	}
	return EscapeMarkdown(InfoText(s) + "Results:\n" + body)
}

// Title is the embed title for a request.
func Title(req Request) string {
	tag := ""
	if req.Snapshot != nil {
		tag = req.Snapshot.Tag
	}
	if req.Kind == tournament.KindBracket {
		return "__Bracket " + tag + "__ :"
	}
	return "__Tournament " + tag + "__ :"
}
