package glicko

import "errors"

// Sentinel error kinds for rating computations.
var (
	ErrInvalidConfig   = errors.New("invalid rating config")
	ErrInvalidRating   = errors.New("invalid rating")
	ErrInvalidOutcome  = errors.New("invalid match outcome")
	ErrNotEnoughTeams  = errors.New("at least two teams are required")
	ErrEmptyTeam       = errors.New("team has no members")
	ErrDegenerateMatch = errors.New("rating period carries no information")
	ErrNonConvergence  = errors.New("volatility solver did not converge")
	ErrUnknownTeamMode = errors.New("unknown team mode")
	ErrNegativePeriods = errors.New("decay periods must not be negative")
)
