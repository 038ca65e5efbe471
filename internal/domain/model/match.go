package model

import "time"

// Match is a finished game handed over for rating.
type Match struct {
	MatchID string   `json:"match_id"`
	Winners []string `json:"winners"`
	Losers  []string `json:"losers"`
	// LiberalWin is the faction flag: the liberal side won.
	LiberalWin bool `json:"liberal_win"`
	// Rainbow marks a fully rated game; others only move the rating value.
	Rainbow     bool      `json:"rainbow"`
	CompletedAt time.Time `json:"completed_at"`
}

// Players returns winners followed by losers.
func (m Match) Players() []string {
	out := make([]string, 0, len(m.Winners)+len(m.Losers))
	out = append(out, m.Winners...)
	return append(out, m.Losers...)
}

// TableSize is the number of seated players.
func (m Match) TableSize() int { return len(m.Winners) + len(m.Losers) }

// EloChange is the Elo delta applied to one account.
type EloChange struct {
	Change       float64 `json:"change"`
	ChangeSeason float64 `json:"changeSeason"`
}

// GlickoChange records the new Glicko states of one account and how far
// the rating value moved in each pool.
type GlickoChange struct {
	Overall       GlickoState `json:"overall"`
	Seasonal      GlickoState `json:"seasonal"`
	OverallDelta  float64     `json:"overall_delta"`
	SeasonalDelta float64     `json:"seasonal_delta"`
}

// Result is the outcome of rating one match.
type Result struct {
	MatchID  string                  `json:"match_id"`
	RatedAt  time.Time               `json:"rated_at"`
	Rainbow  bool                    `json:"rainbow"`
	Elo      map[string]EloChange    `json:"elo"`
	Glicko   map[string]GlickoChange `json:"glicko"`
	Accounts []Account               `json:"accounts"`
}
