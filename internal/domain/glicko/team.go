package glicko

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Team is an ordered group of players rated together.
type Team []Rating

// TeamMode selects how RateTeams expands a match between several teams.
type TeamMode int

const (
	// FanOut produces one updated rating per member for every opposing team,
	// each from a single-match period against that team's composite.
	FanOut TeamMode = iota
	// Merged produces one updated rating per member from a single period
	// holding one match against every opposing composite.
	Merged
)

func (m TeamMode) valid() bool { return m == FanOut || m == Merged }

func (m TeamMode) String() string {
	switch m {
	case FanOut:
		return "fanout"
	case Merged:
		return "merged"
	default:
		return fmt.Sprintf("TeamMode(%d)", int(m))
	}
}

// ParseTeamMode accepts "fanout" and "merged" (case-insensitive).
func ParseTeamMode(s string) (TeamMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fanout", "fan-out":
		return FanOut, nil
	case "merged":
		return Merged, nil
	default:
		return FanOut, fmt.Errorf("%w: %q", ErrUnknownTeamMode, s)
	}
}

// Composite averages the members' rating and deviation. Volatility is left
// at the configured default; a composite is only ever used as an opponent.
func (e *Engine) Composite(t Team) (Rating, error) {
	if len(t) == 0 {
		return Rating{}, ErrEmptyTeam
	}
	for i, r := range t {
		if err := r.Validate(); err != nil {
			return Rating{}, fmt.Errorf("member %d: %w", i, err)
		}
	}
	return e.CreateRating(
		WithRating(stat.Mean(lo.Map(t, func(r Rating, _ int) float64 { return r.Rating }), nil)),
		WithDeviation(stat.Mean(lo.Map(t, func(r Rating, _ int) float64 { return r.Deviation }), nil)),
	), nil
}

// RateTeams rates every member of every team using the engine's TeamMode.
// Team order encodes the result: a lower index beat every higher index.
func (e *Engine) RateTeams(teams []Team) ([]Rating, error) {
	return e.RateTeamsWithMode(teams, e.teamMode)
}

// RateTeamsWithMode is RateTeams with an explicit mode.
//
// FanOut output is grouped by subject team, then by opposing team, then by
// member. Merged output follows the flattened input order. With two teams
// both modes return exactly one rating per member in input order.
func (e *Engine) RateTeamsWithMode(teams []Team, mode TeamMode) ([]Rating, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTeamMode, mode)
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughTeams, len(teams))
	}

	composites := make([]Rating, len(teams))
	for i, t := range teams {
		c, err := e.Composite(t)
		if err != nil {
			return nil, fmt.Errorf("team %d: %w", i, err)
		}
		composites[i] = c
	}

	if mode == Merged {
		return e.rateMerged(teams, composites)
	}
	return e.rateFanOut(teams, composites)
}

func (e *Engine) rateFanOut(teams []Team, composites []Rating) ([]Rating, error) {
	size := lo.SumBy(teams, func(t Team) int { return len(t) })
	out := make([]Rating, 0, size*(len(teams)-1))

	for i, team := range teams {
		for j := range teams {
			if i == j {
				continue
			}
			match := Match{Outcome: outcomeByIndex(i, j), Opponent: composites[j]}
			for k, member := range team {
				r, err := e.UpdateRating(member, []Match{match})
				if err != nil {
					return nil, fmt.Errorf("team %d member %d vs team %d: %w", i, k, j, err)
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (e *Engine) rateMerged(teams []Team, composites []Rating) ([]Rating, error) {
	out := make([]Rating, 0, lo.SumBy(teams, func(t Team) int { return len(t) }))

	for i, team := range teams {
		period := make([]Match, 0, len(teams)-1)
		for j := range teams {
			if i != j {
				period = append(period, Match{Outcome: outcomeByIndex(i, j), Opponent: composites[j]})
			}
		}
		for k, member := range team {
			r, err := e.UpdateRating(member, period)
			if err != nil {
				return nil, fmt.Errorf("team %d member %d: %w", i, k, err)
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func outcomeByIndex(i, j int) Outcome {
	if i < j {
		return Win
	}
	return Loss
}
