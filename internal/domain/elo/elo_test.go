package elo_test

import (
	"math"
	"testing"

	"github.com/okian/ratings/internal/domain/elo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accounts(prefix string, ratings ...float64) []elo.Account {
	out := make([]elo.Account, len(ratings))
	for i, r := range ratings {
		out[i] = elo.Account{Username: prefix + string(rune('a'+i)), Overall: r, Seasonal: r}
	}
	return out
}

func TestRate(t *testing.T) {
	tests := []struct {
		name       string
		winners    []elo.Account
		losers     []elo.Account
		tableSize  int
		factionWin bool
		rainbow    bool
		winDelta   float64
		loseDelta  float64
	}{{
		"unrated five-player table, adjustment on losers",
		accounts("w", 0, 0, 0),
		accounts("l", 0, 0),
		5,
		false,
		false,
		3.148807,
		-4.723210,
	}, {
		"rainbow seven-player table, adjustment on winners",
		[]elo.Account{{Username: "wa", Overall: 1700, Seasonal: 1700}, {Username: "wb", Overall: 1500, Seasonal: 1500}, {Username: "wc", Overall: 1650, Seasonal: 1650}},
		[]elo.Account{{Username: "la", Overall: 1600, Seasonal: 1600}, {Username: "lb", Overall: 1550, Seasonal: 1550}, {Username: "lc", Overall: 1580, Seasonal: 1580}, {Username: "ld", Overall: 1620, Seasonal: 1620}},
		7,
		true,
		true,
		10.140968,
		-7.605726,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			changes, err := elo.Rate(elo.DefaultConfig(), test.winners, test.losers, test.tableSize, test.factionWin, test.rainbow)
			require.NoError(t, err)
			require.Len(t, changes, len(test.winners)+len(test.losers))

			for _, a := range test.winners {
				assert.InDelta(t, test.winDelta, changes[a.Username].Change, 1e-6)
				assert.InDelta(t, test.winDelta, changes[a.Username].ChangeSeason, 1e-6)
			}
			for _, a := range test.losers {
				assert.InDelta(t, test.loseDelta, changes[a.Username].Change, 1e-6)
			}
		})
	}
}

func TestRateZeroSum(t *testing.T) {
	cfg := elo.DefaultConfig()
	for size := 5; size <= 10; size++ {
		for _, rainbow := range []bool{false, true} {
			nWinners := size / 2
			winners := accounts("w", make([]float64, nWinners)...)
			losers := accounts("l", make([]float64, size-nWinners)...)
			for i := range winners {
				winners[i].Overall = 1500 + float64(i)*40
				winners[i].Seasonal = 1650 - float64(i)*25
			}

			changes, err := elo.Rate(cfg, winners, losers, size, false, rainbow)
			require.NoError(t, err)

			var gained, lost, gainedSeason, lostSeason float64
			for _, a := range winners {
				gained += changes[a.Username].Change
				gainedSeason += changes[a.Username].ChangeSeason
			}
			for _, a := range losers {
				lost += changes[a.Username].Change
				lostSeason += changes[a.Username].ChangeSeason
			}
			assert.Greater(t, gained, 0.0)
			assert.InDelta(t, 0, gained+lost, 1e-9)
			assert.InDelta(t, 0, gainedSeason+lostSeason, 1e-9)
		}
	}
}

func TestRateKFactor(t *testing.T) {
	cfg := elo.DefaultConfig()
	winners, losers := accounts("w", 1600, 1600, 1600), accounts("l", 1600, 1600, 1600)
	cfg.TableAdjust = map[int]float64{6: 0}

	standard, err := elo.Rate(cfg, winners, losers, 6, false, false)
	require.NoError(t, err)
	rainbow, err := elo.Rate(cfg, winners, losers, 6, false, true)
	require.NoError(t, err)

	// Even teams with no adjustment: p = 0.5, k = 6*4 or 6*9, split across three.
	assert.InDelta(t, 4.0, standard["wa"].Change, 1e-12)
	assert.InDelta(t, 9.0, rainbow["wa"].Change, 1e-12)
	assert.InDelta(t, -9.0, rainbow["la"].Change, 1e-12)
}

func TestRatePreconditions(t *testing.T) {
	cfg := elo.DefaultConfig()
	winners, losers := accounts("w", 1600, 1600), accounts("l", 1600, 1600, 1600)

	_, err := elo.Rate(cfg, nil, losers, 5, false, false)
	assert.ErrorIs(t, err, elo.ErrNoWinners)

	_, err = elo.Rate(cfg, winners, nil, 5, false, false)
	assert.ErrorIs(t, err, elo.ErrNoLosers)

	_, err = elo.Rate(cfg, winners, losers, 4, false, false)
	assert.ErrorIs(t, err, elo.ErrUnsupportedTableSize)

	_, err = elo.Rate(cfg, winners, append(losers, winners[0]), 6, false, false)
	assert.ErrorIs(t, err, elo.ErrDuplicateAccount)

	bad := []elo.Account{{Username: "nan", Overall: math.NaN()}}
	_, err = elo.Rate(cfg, bad, losers, 5, false, false)
	assert.ErrorIs(t, err, elo.ErrInvalidRating)
}

func TestEngineApply(t *testing.T) {
	e := elo.NewEngine(elo.WithTableAdjust(map[int]float64{5: 0}))
	changes, err := e.RateMatch(elo.Match{
		Winners:   accounts("w", 0, 0),
		Losers:    accounts("l", 0, 0, 0),
		TableSize: 5,
	})
	require.NoError(t, err)

	updated := e.Config().Apply(elo.Account{Username: "wa"}, changes["wa"])
	assert.InDelta(t, 1605, updated.Overall, 1e-9)
	assert.InDelta(t, 1605, updated.Seasonal, 1e-9)
}
