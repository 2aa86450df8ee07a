package bracket

import (
	"context"
	"fmt"

	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

// BattleLogSource fetches a player's battle log.
type BattleLogSource interface {
	GetPlayerBattleLog(ctx context.Context, tag string) ([]tournament.BattleRecord, error)
}

// BattleLogs maps a player tag to its battle log.
type BattleLogs map[string][]tournament.BattleRecord

// UpdateReport summarises one cascading update.
type UpdateReport struct {
	Fetched     int
	Failed      []string
	NewlyClosed int
}

// ResolveMatch infers a match result from player 1's battle log. The first
// clanMate record against player 2 decides; when clanFilter is set the
// record's team clan must match it. Equal crowns or a missing log leave the
// match untouched. Already resolved matches are never changed.
func ResolveMatch(m *Match, logs BattleLogs, clanFilter string) bool {
	if m.Resolved() || !m.Ready() {
		return false
	}

	log1, ok1 := logs[m.Player1.Tag]
	_, ok2 := logs[m.Player2.Tag]
	if !ok1 || !ok2 {
		return false
	}

	for _, rec := range log1 {
		if !rec.IsFriendly() || len(rec.Opponent) == 0 || len(rec.Team) == 0 {
			continue
		}
		if rec.Opponent[0].Tag != m.Player2.Tag {
			continue
		}
		if clanFilter != "" && (rec.Team[0].Clan == nil || rec.Team[0].Clan.Tag != clanFilter) {
			continue
		}

		own, their := rec.Team[0].Crowns, rec.Opponent[0].Crowns
		switch {
		case own > their:
			m.Winner, m.Loser = m.Player1, m.Player2
			m.Score = fmt.Sprintf("%d-%d", own, their)
			return true
		case their > own:
			m.Winner, m.Loser = m.Player2, m.Player1
			m.Score = fmt.Sprintf("%d-%d", their, own)
			return true
		default:
			return false
		}
	}
	return false
}

// Advance resolves every reachable match from the given logs and moves
// winners down the tree. A semi-final is seeded only once both feeding
// quarter-finals are resolved, and the final only once both semi-finals are.
func (b *Bracket) Advance(logs BattleLogs) int {
	closed := 0
	for i := range b.QuarterFinals {
		if ResolveMatch(&b.QuarterFinals[i], logs, b.ClanFilter) {
			closed++
		}
	}

	for i := range b.SemiFinals {
		a, c := &b.QuarterFinals[2*i], &b.QuarterFinals[2*i+1]
		sf := &b.SemiFinals[i]
		if a.Resolved() && c.Resolved() && !sf.Ready() {
			sf.Player1, sf.Player2 = a.Winner, c.Winner
		}
		if ResolveMatch(sf, logs, b.ClanFilter) {
			closed++
		}
	}

	sf1, sf2 := &b.SemiFinals[0], &b.SemiFinals[1]
	if sf1.Resolved() && sf2.Resolved() && !b.Final.Ready() {
		b.Final.Player1, b.Final.Player2 = sf1.Winner, sf2.Winner
	}
	if ResolveMatch(&b.Final, logs, b.ClanFilter) {
		closed++
	}
	return closed
}

// Update fetches one battle log per distinct quarter-final participant,
// sequentially, and advances the bracket. A failed fetch is logged and leaves
// that player's matches unresolved.
func (b *Bracket) Update(ctx context.Context, src BattleLogSource, log logger.Logger) UpdateReport {
	var report UpdateReport
	logs := make(BattleLogs)

	for _, tag := range b.Tags() {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, tag)
			continue
		}
		records, err := src.GetPlayerBattleLog(ctx, tag)
		if err != nil {
			log.Warn(ctx, "battle log unavailable", logger.String("tag", tag), logger.Error(err))
			report.Failed = append(report.Failed, tag)
			continue
		}
		logs[tag] = records
		report.Fetched++
	}

	report.NewlyClosed = b.Advance(logs)
	log.Debug(ctx, "bracket updated",
		logger.Int("fetched", report.Fetched),
		logger.Int("failed", len(report.Failed)),
		logger.Int("newly_closed", report.NewlyClosed),
		logger.Int("resolved", b.Resolved()))
	return report
}
