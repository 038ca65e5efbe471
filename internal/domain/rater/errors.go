package rater

import "errors"

var (
	// ErrMissingAccount is returned when a player named in the match has no account.
	ErrMissingAccount = errors.New("rater: missing account")
	// ErrInvalidMatch is returned for a match without winners, losers or with a repeated player.
	ErrInvalidMatch = errors.New("rater: invalid match")
)
