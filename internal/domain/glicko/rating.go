// Package glicko implements the Glicko-2 rating update used for team matches.
//
// Ratings are accepted and returned on the display scale (default 1600/350).
// All computation happens on the internal scale obtained with
// Config.ToInternal, and every operation returns a new value.
package glicko

import (
	"fmt"
	"math"
)

// Default system constants.
const (
	DefaultBaseRating     = 1600.0
	DefaultBaseDeviation  = 350.0
	DefaultBaseVolatility = 0.06
	DefaultTau            = 0.5
	DefaultEpsilon        = 0.000001
	DefaultScaleRatio     = 173.7178
	DefaultMaxIterations  = 100
)

// Outcome is the score of a single encounter, from the subject's point of view.
type Outcome float64

// Canonical outcomes.
const (
	Loss Outcome = 0
	Draw Outcome = 0.5
	Win  Outcome = 1
)

// Rating is a skill estimate: rating, deviation and volatility.
type Rating struct {
	Rating     float64 `json:"rating"`
	Deviation  float64 `json:"deviation"`
	Volatility float64 `json:"volatility"`
}

// Validate reports whether r can take part in a rating computation.
func (r Rating) Validate() error {
	switch {
	case math.IsNaN(r.Rating) || math.IsInf(r.Rating, 0):
		return fmt.Errorf("%w: rating %v is not finite", ErrInvalidRating, r.Rating)
	case math.IsNaN(r.Deviation) || math.IsInf(r.Deviation, 0) || r.Deviation <= 0:
		return fmt.Errorf("%w: deviation %v must be finite and positive", ErrInvalidRating, r.Deviation)
	case math.IsNaN(r.Volatility) || math.IsInf(r.Volatility, 0) || r.Volatility <= 0:
		return fmt.Errorf("%w: volatility %v must be finite and positive", ErrInvalidRating, r.Volatility)
	}
	return nil
}

// Match is one scored encounter against one opponent.
type Match struct {
	Outcome  Outcome `json:"outcome"`
	Opponent Rating  `json:"opponent"`
}

func (m Match) validate() error {
	s := float64(m.Outcome)
	if math.IsNaN(s) || s < 0 || s > 1 {
		return fmt.Errorf("%w: %v is outside [0,1]", ErrInvalidOutcome, s)
	}
	if err := m.Opponent.Validate(); err != nil {
		return fmt.Errorf("opponent: %w", err)
	}
	return nil
}

// Config holds the system constants. It is read-only once an Engine is built.
type Config struct {
	BaseRating     float64 `koanf:"base_rating"`
	BaseDeviation  float64 `koanf:"base_deviation"`
	BaseVolatility float64 `koanf:"base_volatility"`
	// Tau constrains how much volatility may move in one period.
	Tau float64 `koanf:"tau"`
	// Epsilon is the convergence tolerance of the volatility solver.
	Epsilon    float64 `koanf:"epsilon"`
	ScaleRatio float64 `koanf:"scale_ratio"`
	// MaxIterations caps the regula falsi narrowing loop.
	MaxIterations int `koanf:"max_iterations"`
}

// DefaultConfig returns the standard constants on a 1600 base.
func DefaultConfig() Config {
	return Config{
		BaseRating:     DefaultBaseRating,
		BaseDeviation:  DefaultBaseDeviation,
		BaseVolatility: DefaultBaseVolatility,
		Tau:            DefaultTau,
		Epsilon:        DefaultEpsilon,
		ScaleRatio:     DefaultScaleRatio,
		MaxIterations:  DefaultMaxIterations,
	}
}

// Validate checks that the constants describe a usable system.
func (c Config) Validate() error {
	positive := map[string]float64{
		"base_deviation":  c.BaseDeviation,
		"base_volatility": c.BaseVolatility,
		"tau":             c.Tau,
		"epsilon":         c.Epsilon,
		"scale_ratio":     c.ScaleRatio,
	}
	for name, v := range positive {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %s must be finite and positive, got %v", ErrInvalidConfig, name, v)
		}
	}
	if math.IsNaN(c.BaseRating) || math.IsInf(c.BaseRating, 0) {
		return fmt.Errorf("%w: base_rating must be finite", ErrInvalidConfig)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1", ErrInvalidConfig)
	}
	return nil
}
