package model

import "errors"

// Sentinel kinds shared by the layers handling matches.
var (
	// ErrInvalidMatch marks a submitted match that can never be rated.
	ErrInvalidMatch = errors.New("invalid match")
	// ErrBackpressure marks a match refused because the pipeline is full.
	ErrBackpressure = errors.New("backpressure")
)
