package service

import (
	"errors"

	"github.com/okian/ratings/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidMatch = model.ErrInvalidMatch
	ErrBackpressure = model.ErrBackpressure
)
