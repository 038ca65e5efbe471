// Package simulate drives a running ratings service with randomly generated
// matches and checks the accounts it ends up with.
package simulate

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrNotProcessed  = errors.New("matches not processed in time")
	ErrInconsistent  = errors.New("accounts inconsistent with submitted matches")
	ErrInvalidConfig = errors.New("invalid simulation config")
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Matches      int           // Number of matches to generate
	Players      int           // Size of the player pool
	RainbowRatio float64       // Share of matches played as rainbow games
	Workers      int           // Number of concurrent HTTP workers
	Timeout      time.Duration // HTTP request timeout
	Settle       time.Duration // How long to wait for the queue to drain
	TopN         int           // Accounts to report at the end
	OutputFile   string        // Output file for generated matches
	Verbose      bool
}

func (c *Config) validate() error {
	switch {
	case c.Matches <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("matches must be positive"))
	case c.Players < maxTableSize:
		return errors.Join(ErrInvalidConfig, errors.New("players must cover a full table"))
	case c.Workers <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.RainbowRatio < 0 || c.RainbowRatio > 1:
		return errors.Join(ErrInvalidConfig, errors.New("rainbow ratio must be in [0,1]"))
	}
	return nil
}

// Match is the body posted to /matches.
type Match struct {
	MatchID    string   `json:"match_id"`
	Winners    []string `json:"winners"`
	Losers     []string `json:"losers"`
	LiberalWin bool     `json:"liberal_win"`
	Rainbow    bool     `json:"rainbow"`
}

// Account is the subset of an account the simulation inspects.
type Account struct {
	Username      string  `json:"username"`
	EloOverall    float64 `json:"elo_overall"`
	GlickoOverall struct {
		Rating    float64 `json:"rating"`
		Deviation float64 `json:"rd"`
	} `json:"glicko_overall"`
	Games int `json:"games"`
}

// AckResponse is the reply to a match submission.
type AckResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

type serviceStats struct {
	MatchesProcessed int64 `json:"matchesProcessed"`
	MatchesFailed    int64 `json:"matchesFailed"`
}

// Stats holds run statistics.
type Stats struct {
	MatchesGenerated  int
	MatchesSubmitted  int
	MatchesAccepted   int
	MatchesDuplicate  int
	MatchesFailed     int
	AccountsRetrieved int
	// SkillCorrelation is the Pearson correlation between hidden skill and
	// the Elo rating the service assigned.
	SkillCorrelation float64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
