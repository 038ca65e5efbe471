// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"time"
)

// Pool selects which of an account's rating sets a computation reads and writes.
type Pool int

const (
	Overall Pool = iota
	Seasonal
)

func (p Pool) String() string {
	if p == Seasonal {
		return "seasonal"
	}
	return "overall"
}

// GlickoState is the stored Glicko-2 triple. A zero Deviation means the
// pool has never been rated with a deviation.
type GlickoState struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"rd"`
	Volatility float64 `json:"vol"`
}

// Rated reports whether the state carries a deviation.
func (g GlickoState) Rated() bool { return g.Deviation > 0 }

// Account is the rating record of one player.
type Account struct {
	Username            string      `json:"username"`
	EloOverall          float64     `json:"elo_overall"`
	EloSeasonal         float64     `json:"elo_seasonal"`
	GlickoOverall       GlickoState `json:"glicko_overall"`
	GlickoSeasonal      GlickoState `json:"glicko_seasonal"`
	GlickoRatingHistory []float64   `json:"glicko_rating_history,omitempty"`
	LastCompletedGame   time.Time   `json:"last_completed_game"`
	Games               int         `json:"games"`
}

// Glicko returns the state of pool p.
func (a Account) Glicko(p Pool) GlickoState {
	if p == Seasonal {
		return a.GlickoSeasonal
	}
	return a.GlickoOverall
}

// WithGlicko returns a copy of a with pool p replaced.
func (a Account) WithGlicko(p Pool, s GlickoState) Account {
	out := a.Clone()
	if p == Seasonal {
		out.GlickoSeasonal = s
	} else {
		out.GlickoOverall = s
	}
	return out
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	a.GlickoRatingHistory = slices.Clone(a.GlickoRatingHistory)
	return a
}
