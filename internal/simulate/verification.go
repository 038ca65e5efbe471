package simulate

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/ratings/pkg/logger"
)

// participants returns every player in matches, in first-seen order.
func participants(matches []Match) []string {
	return lo.Uniq(lo.FlatMap(matches, func(m Match, _ int) []string {
		return slices.Concat(m.Winners, m.Losers)
	}))
}

// verifyAccounts checks the stored accounts against the matches that were
// accepted: game counts must match and rainbow players must carry a deviation.
func verifyAccounts(matches []Match, accounts []Account) error {
	games := map[string]int{}
	rainbow := map[string]bool{}
	for _, m := range matches {
		for _, p := range slices.Concat(m.Winners, m.Losers) {
			games[p]++
			rainbow[p] = rainbow[p] || m.Rainbow
		}
	}

	for _, a := range accounts {
		if a.Games != games[a.Username] {
			return fmt.Errorf("%w: %s played %d games, account shows %d",
				ErrInconsistent, a.Username, games[a.Username], a.Games)
		}
		if rainbow[a.Username] && a.GlickoOverall.Deviation <= 0 {
			return fmt.Errorf("%w: %s played rainbow games but has no deviation", ErrInconsistent, a.Username)
		}
	}
	return nil
}

// topByElo returns the n highest Elo accounts, best first.
func topByElo(accounts []Account, n int) []Account {
	sorted := slices.Clone(accounts)
	slices.SortFunc(sorted, func(a, b Account) int {
		return cmp.Or(cmp.Compare(b.EloOverall, a.EloOverall), cmp.Compare(a.Username, b.Username))
	})
	return sorted[:min(n, len(sorted))]
}

func reportTop(ctx context.Context, accounts []Account, n int) {
	log := logger.Named("simulate")
	for i, a := range topByElo(accounts, n) {
		log.Info(ctx, "top account",
			logger.Int("rank", i+1),
			logger.String("username", a.Username),
			logger.Float64("elo", a.EloOverall),
			logger.Float64("glicko", a.GlickoOverall.Rating),
			logger.Int("games", a.Games))
	}
}

// skillCorrelation pairs each fetched account with its hidden skill.
func skillCorrelation(players []player, accounts []Account) float64 {
	if len(accounts) < 2 {
		return 0
	}
	skill := lo.Associate(players, func(p player) (string, float64) { return p.name, p.skill })
	hidden := lo.Map(accounts, func(a Account, _ int) float64 { return skill[a.Username] })
	elo := lo.Map(accounts, func(a Account, _ int) float64 { return a.EloOverall })
	return stat.Correlation(hidden, elo, nil)
}
