package elo

import "errors"

// Sentinel error kinds for Elo rating.
var (
	ErrNoWinners            = errors.New("no winning accounts")
	ErrNoLosers             = errors.New("no losing accounts")
	ErrUnsupportedTableSize = errors.New("unsupported table size")
	ErrDuplicateAccount     = errors.New("account appears more than once")
	ErrInvalidRating        = errors.New("invalid elo rating")
)
