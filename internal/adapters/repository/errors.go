package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyUsername = errors.New("empty username")
	ErrEmptyMatchID  = errors.New("empty match id")
)
