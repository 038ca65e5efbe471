package glicko

import (
	"fmt"
	"time"
)

// DefaultDecayPeriod is the inactivity span that counts as one empty rating period.
const DefaultDecayPeriod = 14 * 24 * time.Hour

// Decay applies the no-game step periods times, growing the deviation
// while rating and volatility stay put.
func (e *Engine) Decay(r Rating, periods int) (Rating, error) {
	if periods < 0 {
		return Rating{}, fmt.Errorf("%w: %d", ErrNegativePeriods, periods)
	}
	if err := r.Validate(); err != nil {
		return Rating{}, err
	}
	if periods == 0 {
		return r, nil
	}

	s := e.cfg.ToInternal(r)
	for range periods {
		s = e.inflate(s)
	}
	return e.cfg.ToDisplay(s), nil
}

// PeriodsSince counts whole periods between last and now. A zero last, a last
// in the future or a non-positive period yields 0.
func PeriodsSince(last, now time.Time, period time.Duration) int {
	if last.IsZero() || period <= 0 || !now.After(last) {
		return 0
	}
	return int(now.Sub(last) / period)
}
