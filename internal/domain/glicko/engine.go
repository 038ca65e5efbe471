package glicko

import (
	"fmt"
	"math"
)

// Engine rates players with a fixed set of system constants. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg      Config
	teamMode TeamMode
	solver   volatilitySolver
	observe  func(iterations int)
}

// NewEngine builds an Engine from DefaultConfig and the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      DefaultConfig(),
		teamMode: FanOut,
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if !e.teamMode.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTeamMode, e.teamMode)
	}

	e.solver = volatilitySolver{
		tau:           e.cfg.Tau,
		epsilon:       e.cfg.Epsilon,
		maxIterations: e.cfg.MaxIterations,
	}
	return e, nil
}

// Config returns the constants the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// TeamMode returns the configured multi-team expansion.
func (e *Engine) TeamMode() TeamMode { return e.teamMode }

// CreateRating returns a display-scale rating with the configured defaults
// for every field not overridden.
func (e *Engine) CreateRating(opts ...RatingOption) Rating {
	r := Rating{
		Rating:     e.cfg.BaseRating,
		Deviation:  e.cfg.BaseDeviation,
		Volatility: e.cfg.BaseVolatility,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// UpdateRating rates subject over one rating period. With no matches only the
// deviation grows; otherwise rating, deviation and volatility are all updated.
func (e *Engine) UpdateRating(subject Rating, matches []Match) (Rating, error) {
	if err := subject.Validate(); err != nil {
		return Rating{}, err
	}
	for i, m := range matches {
		if err := m.validate(); err != nil {
			return Rating{}, fmt.Errorf("match %d: %w", i, err)
		}
	}

	s := e.cfg.ToInternal(subject)
	if len(matches) == 0 {
		return e.cfg.ToDisplay(e.inflate(s)), nil
	}

	var varianceInv, difference float64
	for _, m := range matches {
		opp := e.cfg.ToInternal(m.Opponent)
		impact := ReduceImpact(opp.Deviation)
		expectation := ExpectScore(s.Rating, opp.Rating, impact)

		varianceInv += impact * impact * expectation * (1 - expectation)
		difference += impact * (float64(m.Outcome) - expectation)
	}
	if varianceInv == 0 || math.IsNaN(varianceInv) {
		return Rating{}, fmt.Errorf("%w: expected scores saturated", ErrDegenerateMatch)
	}

	variance := 1 / varianceInv
	difference /= varianceInv

	volatility, iterations, err := e.solver.solve(s.Deviation, s.Volatility, difference, variance)
	if e.observe != nil {
		e.observe(iterations)
	}
	if err != nil {
		return Rating{}, err
	}

	phiStar := math.Sqrt(s.Deviation*s.Deviation + volatility*volatility)
	deviation := 1 / math.Sqrt(1/(phiStar*phiStar)+1/variance)
	rating := s.Rating + deviation*deviation*difference/variance

	return e.cfg.ToDisplay(Rating{
		Rating:     rating,
		Deviation:  deviation,
		Volatility: volatility,
	}), nil
}

// inflate is the no-game step on the internal scale.
func (e *Engine) inflate(s Rating) Rating {
	return Rating{
		Rating:     s.Rating,
		Deviation:  math.Sqrt(s.Deviation*s.Deviation + s.Volatility*s.Volatility),
		Volatility: s.Volatility,
	}
}

// RateOneVsOne rates a against b and b against a as single-match periods.
// Unless drawn, a is the winner.
func (e *Engine) RateOneVsOne(a, b Rating, drawn bool) (Rating, Rating, error) {
	scoreA, scoreB := Win, Loss
	if drawn {
		scoreA, scoreB = Draw, Draw
	}

	newA, err := e.UpdateRating(a, []Match{{Outcome: scoreA, Opponent: b}})
	if err != nil {
		return Rating{}, Rating{}, fmt.Errorf("first player: %w", err)
	}
	newB, err := e.UpdateRating(b, []Match{{Outcome: scoreB, Opponent: a}})
	if err != nil {
		return Rating{}, Rating{}, fmt.Errorf("second player: %w", err)
	}
	return newA, newB, nil
}
