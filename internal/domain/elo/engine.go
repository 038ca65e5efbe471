package elo

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithConfig replaces the Elo constants.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithTableAdjust replaces the per-table-size faction adjustment.
func WithTableAdjust(adjust map[int]float64) Option {
	return func(e *Engine) {
		if len(adjust) > 0 {
			e.cfg.TableAdjust = adjust
		}
	}
}

// Match is a finished game as seen by the Elo engine.
type Match struct {
	Winners    []Account
	Losers     []Account
	TableSize  int
	FactionWin bool
	Rainbow    bool
}

// Engine is a Config bound to the Rate function.
type Engine struct {
	cfg Config
}

// NewEngine builds an Engine from DefaultConfig and the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's constants.
func (e *Engine) Config() Config { return e.cfg }

// RateMatch computes the deltas for every account in m.
func (e *Engine) RateMatch(m Match) (map[string]Change, error) {
	return Rate(e.cfg, m.Winners, m.Losers, m.TableSize, m.FactionWin, m.Rainbow)
}
