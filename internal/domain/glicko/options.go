package glicko

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConfig replaces the system constants.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithTau overrides only the volatility constraint.
func WithTau(tau float64) Option {
	return func(e *Engine) {
		e.cfg.Tau = tau
	}
}

// WithTeamMode selects how multi-team matches are expanded.
func WithTeamMode(mode TeamMode) Option {
	return func(e *Engine) {
		e.teamMode = mode
	}
}

// WithSolverObserver registers fn to receive the iteration count of every
// volatility solve, including failed ones. fn must be safe for concurrent use.
func WithSolverObserver(fn func(iterations int)) Option {
	return func(e *Engine) {
		e.observe = fn
	}
}

// RatingOption overrides one field of a freshly created Rating.
type RatingOption func(*Rating)

// WithRating sets the rating value.
func WithRating(v float64) RatingOption {
	return func(r *Rating) { r.Rating = v }
}

// WithDeviation sets the deviation.
func WithDeviation(v float64) RatingOption {
	return func(r *Rating) { r.Deviation = v }
}

// WithVolatility sets the volatility.
func WithVolatility(v float64) RatingOption {
	return func(r *Rating) { r.Volatility = v }
}
