// Package rater applies the Elo and Glicko-2 engines to a finished match and
// produces updated account copies.
package rater

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
	"github.com/okian/ratings/internal/domain/model"
)

// DefaultGrayDeviation is the fixed deviation used for non-rainbow matches.
const DefaultGrayDeviation = 35.0

// Option configures a Rater.
type Option func(*Rater)

// WithGrayDeviation sets the deviation used for non-rainbow matches.
func WithGrayDeviation(d float64) Option {
	return func(r *Rater) {
		if d > 0 {
			r.grayDeviation = d
		}
	}
}

// WithDecayPeriod sets how long one idle rating period lasts.
func WithDecayPeriod(p time.Duration) Option {
	return func(r *Rater) {
		if p > 0 {
			r.decayPeriod = p
		}
	}
}

// Rater binds the two engines together.
type Rater struct {
	glicko        *glicko.Engine
	elo           *elo.Engine
	grayDeviation float64
	decayPeriod   time.Duration
}

// New creates a Rater.
func New(g *glicko.Engine, e *elo.Engine, opts ...Option) *Rater {
	r := &Rater{
		glicko:        g,
		elo:           e,
		grayDeviation: DefaultGrayDeviation,
		decayPeriod:   glicko.DefaultDecayPeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rate rates m against the given accounts at time now. accounts may contain
// more entries than the match names; extra ones are ignored. Input accounts
// are never modified.
func (r *Rater) Rate(m model.Match, accounts []model.Account, now time.Time) (model.Result, error) {
	if len(m.Winners) == 0 || len(m.Losers) == 0 {
		return model.Result{}, fmt.Errorf("%w: both sides need players", ErrInvalidMatch)
	}
	if dup := lo.FindDuplicates(m.Players()); len(dup) > 0 {
		return model.Result{}, fmt.Errorf("%w: %s listed twice", ErrInvalidMatch, dup[0])
	}

	byName := lo.KeyBy(accounts, func(a model.Account) string { return a.Username })
	pick := func(names []string) ([]model.Account, error) {
		out := make([]model.Account, 0, len(names))
		for _, n := range names {
			a, ok := byName[n]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingAccount, n)
			}
			out = append(out, a.Clone())
		}
		return out, nil
	}
	winners, err := pick(m.Winners)
	if err != nil {
		return model.Result{}, err
	}
	losers, err := pick(m.Losers)
	if err != nil {
		return model.Result{}, err
	}

	eloChanges, err := r.rateElo(m, winners, losers)
	if err != nil {
		return model.Result{}, err
	}

	players := slices.Concat(winners, losers)
	overall, err := r.rateGlicko(m, winners, losers, model.Overall, now)
	if err != nil {
		return model.Result{}, err
	}
	seasonal, err := r.rateGlicko(m, winners, losers, model.Seasonal, now)
	if err != nil {
		return model.Result{}, err
	}

	res := model.Result{
		MatchID:  m.MatchID,
		RatedAt:  now,
		Rainbow:  m.Rainbow,
		Elo:      make(map[string]model.EloChange, len(players)),
		Glicko:   make(map[string]model.GlickoChange, len(players)),
		Accounts: make([]model.Account, 0, len(players)),
	}
	eloCfg := r.elo.Config()
	for i, a := range players {
		c := eloChanges[a.Username]
		applied := eloCfg.Apply(elo.Account{Username: a.Username, Overall: a.EloOverall, Seasonal: a.EloSeasonal}, c)
		res.Elo[a.Username] = model.EloChange{Change: c.Change, ChangeSeason: c.ChangeSeason}

		prev := r.orBase(a.GlickoOverall.Rating)
		a.GlickoRatingHistory = append(a.GlickoRatingHistory, prev)
		prevSeason := r.orBase(a.GlickoSeasonal.Rating)

		a.EloOverall = applied.Overall
		a.EloSeasonal = applied.Seasonal
		a.GlickoOverall = r.store(a.GlickoOverall, overall[i], m.Rainbow)
		a.GlickoSeasonal = r.store(a.GlickoSeasonal, seasonal[i], m.Rainbow)
		a.LastCompletedGame = now
		a.Games++

		res.Glicko[a.Username] = model.GlickoChange{
			Overall:       a.GlickoOverall,
			Seasonal:      a.GlickoSeasonal,
			OverallDelta:  a.GlickoOverall.Rating - prev,
			SeasonalDelta: a.GlickoSeasonal.Rating - prevSeason,
		}
		res.Accounts = append(res.Accounts, a)
	}
	return res, nil
}

func (r *Rater) rateElo(m model.Match, winners, losers []model.Account) (map[string]elo.Change, error) {
	toElo := func(a model.Account) elo.Account {
		return elo.Account{Username: a.Username, Overall: a.EloOverall, Seasonal: a.EloSeasonal}
	}
	return r.elo.RateMatch(elo.Match{
		Winners:    lo.Map(winners, func(a model.Account, _ int) elo.Account { return toElo(a) }),
		Losers:     lo.Map(losers, func(a model.Account, _ int) elo.Account { return toElo(a) }),
		TableSize:  m.TableSize(),
		FactionWin: m.LiberalWin,
		Rainbow:    m.Rainbow,
	})
}

// rateGlicko returns the new ratings of winners followed by losers in pool p.
func (r *Rater) rateGlicko(m model.Match, winners, losers []model.Account, p model.Pool, now time.Time) ([]glicko.Rating, error) {
	team := func(accounts []model.Account) (glicko.Team, error) {
		t := make(glicko.Team, 0, len(accounts))
		for _, a := range accounts {
			g, err := r.prepare(a, p, m.Rainbow, now)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", a.Username, p, err)
			}
			t = append(t, g)
		}
		return t, nil
	}
	w, err := team(winners)
	if err != nil {
		return nil, err
	}
	l, err := team(losers)
	if err != nil {
		return nil, err
	}
	out, err := r.glicko.RateTeams([]glicko.Team{w, l})
	if err != nil {
		return nil, fmt.Errorf("rate %s pool: %w", p, err)
	}
	// Merged and fan-out both yield one rating per member for two teams.
	return out, nil
}

func (r *Rater) prepare(a model.Account, p model.Pool, rainbow bool, now time.Time) (glicko.Rating, error) {
	s := a.Glicko(p)
	cfg := r.glicko.Config()
	if !rainbow {
		return glicko.Rating{Rating: r.orBase(s.Rating), Deviation: r.grayDeviation, Volatility: cfg.BaseVolatility}, nil
	}
	g := r.glicko.CreateRating()
	if s.Rated() {
		g = glicko.Rating{Rating: s.Rating, Deviation: s.Deviation, Volatility: s.Volatility}
		if g.Volatility == 0 {
			g.Volatility = cfg.BaseVolatility
		}
	}
	return r.glicko.Decay(g, glicko.PeriodsSince(a.LastCompletedGame, now, r.decayPeriod))
}

func (r *Rater) store(prev model.GlickoState, next glicko.Rating, rainbow bool) model.GlickoState {
	prev.Rating = next.Rating
	if rainbow {
		prev.Deviation = next.Deviation
		prev.Volatility = next.Volatility
	}
	return prev
}

func (r *Rater) orBase(v float64) float64 {
	if v == 0 {
		return r.glicko.Config().BaseRating
	}
	return v
}
