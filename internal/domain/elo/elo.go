// Package elo implements the table-size and faction adjusted Elo update.
//
// The engine only computes deltas; applying them to stored accounts is the
// caller's job.
package elo

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Default constants.
const (
	DefaultRating    = 1600.0
	DefaultRainbowK  = 9.0
	DefaultStandardK = 4.0
	deviation        = 400.0
)

// DefaultTableAdjust compensates for faction imbalance at each table size.
// The value is added to the average of the side that matches the faction flag.
func DefaultTableAdjust() map[int]float64 {
	return map[int]float64{
		5:  -19.253,
		6:  20.637,
		7:  -17.282,
		8:  45.418,
		9:  -70.679,
		10: -31.539,
	}
}

// Config holds the Elo constants.
type Config struct {
	DefaultRating float64         `koanf:"default_rating"`
	RainbowK      float64         `koanf:"rainbow_k"`
	StandardK     float64         `koanf:"standard_k"`
	TableAdjust   map[int]float64 `koanf:"table_adjust"`
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		DefaultRating: DefaultRating,
		RainbowK:      DefaultRainbowK,
		StandardK:     DefaultStandardK,
		TableAdjust:   DefaultTableAdjust(),
	}
}

// Account is the Elo state of one player. A zero rating means "unrated" and
// is read as the default rating.
type Account struct {
	Username string  `json:"username"`
	Overall  float64 `json:"elo_overall"`
	Seasonal float64 `json:"elo_seasonal"`
}

// Change is the delta applied to one account.
type Change struct {
	Change       float64 `json:"change"`
	ChangeSeason float64 `json:"changeSeason"`
}

// Rate computes the overall and seasonal deltas for every account of a
// finished match. factionWin selects which side receives the table-size
// adjustment: the winners when set, the losers otherwise.
func Rate(cfg Config, winners, losers []Account, tableSize int, factionWin, rainbow bool) (map[string]Change, error) {
	if len(winners) == 0 {
		return nil, ErrNoWinners
	}
	if len(losers) == 0 {
		return nil, ErrNoLosers
	}
	adjust, ok := cfg.TableAdjust[tableSize]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedTableSize, tableSize)
	}
	all := append(append(make([]Account, 0, len(winners)+len(losers)), winners...), losers...)
	if dup := lo.FindDuplicatesBy(all, func(a Account) string { return a.Username }); len(dup) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, dup[0].Username)
	}
	for _, a := range all {
		if !finite(a.Overall) || !finite(a.Seasonal) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRating, a.Username)
		}
	}

	b := 0.0
	if factionWin {
		b = 1
	}
	overall := func(a Account) float64 { return cfg.orDefault(a.Overall) }
	seasonal := func(a Account) float64 { return cfg.orDefault(a.Seasonal) }

	avgWinners := mean(winners, overall) + b*adjust
	avgWinnersSeason := mean(winners, seasonal) + b*adjust
	avgLosers := mean(losers, overall) + (1-b)*adjust
	avgLosersSeason := mean(losers, seasonal) + (1-b)*adjust

	k := float64(tableSize) * cfg.StandardK
	if rainbow {
		k = float64(tableSize) * cfg.RainbowK
	}
	winFactor := k / float64(len(winners))
	loseFactor := -k / float64(len(losers))

	p := expectation(avgWinners, avgLosers)
	pSeason := expectation(avgWinnersSeason, avgLosersSeason)

	changes := make(map[string]Change, len(all))
	for _, a := range winners {
		changes[a.Username] = Change{Change: p * winFactor, ChangeSeason: pSeason * winFactor}
	}
	for _, a := range losers {
		changes[a.Username] = Change{Change: p * loseFactor, ChangeSeason: pSeason * loseFactor}
	}
	return changes, nil
}

// Apply returns a with the change added to both pools.
func (cfg Config) Apply(a Account, c Change) Account {
	a.Overall = cfg.orDefault(a.Overall) + c.Change
	a.Seasonal = cfg.orDefault(a.Seasonal) + c.ChangeSeason
	return a
}

func (cfg Config) orDefault(v float64) float64 {
	if v == 0 {
		return cfg.DefaultRating
	}
	return v
}

// expectation is the winners' upset probability: 1 - E(winners).
func expectation(avgWinners, avgLosers float64) float64 {
	return 1 / (1 + math.Pow(10, (avgWinners-avgLosers)/deviation))
}

func mean(accounts []Account, rating func(Account) float64) float64 {
	return stat.Mean(lo.Map(accounts, func(a Account, _ int) float64 { return rating(a) }), nil)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
