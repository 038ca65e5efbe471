package glicko_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/ratings/internal/domain/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

func newEngine(t *testing.T, opts ...glicko.Option) *glicko.Engine {
	t.Helper()
	e, err := glicko.NewEngine(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestScaleTransform(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := glicko.DefaultConfig()

		Convey("When a rating is moved to the internal scale and back", func() {
			inputs := []glicko.Rating{
				{Rating: 1600, Deviation: 350, Volatility: 0.06},
				{Rating: 2315.25, Deviation: 41.7, Volatility: 0.09},
				{Rating: -120, Deviation: 0.5, Volatility: 1e-4},
				{Rating: 1e6, Deviation: 1e4, Volatility: 3},
			}

			Convey("Then it should round trip within 1e-9", func() {
				for _, in := range inputs {
					out := cfg.ToDisplay(cfg.ToInternal(in))
					So(out.Rating, ShouldAlmostEqual, in.Rating, 1e-9)
					So(out.Deviation, ShouldAlmostEqual, in.Deviation, 1e-9)
					So(out.Volatility, ShouldEqual, in.Volatility)
				}
			})
		})

		Convey("When the base rating is scaled down", func() {
			s := cfg.ToInternal(glicko.Rating{Rating: 1600, Deviation: 173.7178, Volatility: 0.06})

			Convey("Then it should be centered at zero with unit deviation", func() {
				So(s.Rating, ShouldEqual, 0)
				So(s.Deviation, ShouldAlmostEqual, 1, 1e-12)
				So(s.Volatility, ShouldEqual, 0.06)
			})
		})
	})
}

func TestImpactAndExpectation(t *testing.T) {
	Convey("Given the impact function", t, func() {
		Convey("Then zero deviation should have full impact", func() {
			So(glicko.ReduceImpact(0), ShouldEqual, 1)
		})

		Convey("Then impact should shrink as deviation grows", func() {
			prev := 1.0
			for _, d := range []float64{0.1, 0.5, 1, 2, 5, 50} {
				g := glicko.ReduceImpact(d)
				So(g, ShouldBeLessThan, prev)
				So(g, ShouldBeGreaterThan, 0)
				prev = g
			}
		})

		Convey("Then expectation between equals should be one half", func() {
			So(glicko.ExpectScore(0.3, 0.3, 0.7), ShouldEqual, 0.5)
		})

		Convey("Then expectation should be symmetric", func() {
			e1 := glicko.ExpectScore(0.8, -0.2, 0.9)
			e2 := glicko.ExpectScore(-0.2, 0.8, 0.9)
			So(e1, ShouldBeGreaterThan, 0.5)
			So(e1+e2, ShouldAlmostEqual, 1, 1e-12)
		})
	})
}

func TestEngine_UpdateRating(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := newEngine(t)
		fresh := e.CreateRating()

		Convey("When creating a rating without overrides", func() {
			Convey("Then it should carry the configured defaults", func() {
				So(fresh, ShouldResemble, glicko.Rating{Rating: 1600, Deviation: 350, Volatility: 0.06})
			})
		})

		Convey("When creating a rating with overrides", func() {
			r := e.CreateRating(glicko.WithRating(1720), glicko.WithVolatility(0.07))

			Convey("Then only the overridden fields should change", func() {
				So(r, ShouldResemble, glicko.Rating{Rating: 1720, Deviation: 350, Volatility: 0.07})
			})
		})

		Convey("When no games are played", func() {
			out, err := e.UpdateRating(fresh, nil)

			Convey("Then only the deviation should grow", func() {
				So(err, ShouldBeNil)
				So(out.Rating, ShouldAlmostEqual, fresh.Rating, 1e-9)
				So(out.Volatility, ShouldEqual, fresh.Volatility)
				So(out.Deviation, ShouldBeGreaterThan, fresh.Deviation)
				So(out.Deviation, ShouldAlmostEqual, 350.155166, 1e-5)
			})
		})

		Convey("When two fresh players play one decisive game", func() {
			winner, loser, err := e.RateOneVsOne(fresh, fresh, false)

			Convey("Then the ratings should move by about 162 points", func() {
				So(err, ShouldBeNil)
				So(winner.Rating, ShouldAlmostEqual, 1762.31, 0.05)
				So(loser.Rating, ShouldAlmostEqual, 1437.69, 0.05)
			})

			Convey("Then both deviations should drop to about 290", func() {
				So(winner.Deviation, ShouldAlmostEqual, 290.32, 0.05)
				So(loser.Deviation, ShouldAlmostEqual, 290.32, 0.05)
			})

			Convey("Then the volatility should barely move", func() {
				So(winner.Volatility, ShouldAlmostEqual, 0.06, 1e-5)
			})
		})

		Convey("When two equal players draw", func() {
			a, b, err := e.RateOneVsOne(fresh, fresh, true)

			Convey("Then neither rating should drift", func() {
				So(err, ShouldBeNil)
				So(a.Rating-fresh.Rating, ShouldAlmostEqual, -(b.Rating - fresh.Rating), 1e-9)
				So(a.Rating, ShouldAlmostEqual, fresh.Rating, 1e-9)
				So(a.Deviation, ShouldBeLessThan, fresh.Deviation)
			})
		})

		Convey("When the caller's rating is rated", func() {
			subject := glicko.Rating{Rating: 1650, Deviation: 120, Volatility: 0.06}
			before := subject
			_, err := e.UpdateRating(subject, []glicko.Match{{Outcome: glicko.Win, Opponent: fresh}})

			Convey("Then the input value should be untouched", func() {
				So(err, ShouldBeNil)
				So(subject, ShouldResemble, before)
			})
		})

		Convey("When the rating is malformed", func() {
			bad := []glicko.Rating{
				{Rating: math.NaN(), Deviation: 350, Volatility: 0.06},
				{Rating: 1600, Deviation: 0, Volatility: 0.06},
				{Rating: 1600, Deviation: -1, Volatility: 0.06},
				{Rating: 1600, Deviation: math.Inf(1), Volatility: 0.06},
				{Rating: 1600, Deviation: 350, Volatility: 0},
			}

			Convey("Then it should be rejected", func() {
				for _, r := range bad {
					_, err := e.UpdateRating(r, nil)
					So(errors.Is(err, glicko.ErrInvalidRating), ShouldBeTrue)
				}
			})
		})

		Convey("When an outcome is outside [0,1]", func() {
			_, err := e.UpdateRating(fresh, []glicko.Match{{Outcome: 2, Opponent: fresh}})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, glicko.ErrInvalidOutcome), ShouldBeTrue)
			})
		})

		Convey("When the opponent is malformed", func() {
			_, err := e.UpdateRating(fresh, []glicko.Match{{Outcome: glicko.Win, Opponent: glicko.Rating{Rating: 1600}}})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, glicko.ErrInvalidRating), ShouldBeTrue)
			})
		})
	})

	Convey("Given an engine on a 1500 base", t, func() {
		cfg := glicko.DefaultConfig()
		cfg.BaseRating = 1500
		e := newEngine(t, glicko.WithConfig(cfg))

		Convey("When rating the worked example from Glickman's paper", func() {
			player := glicko.Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
			out, err := e.UpdateRating(player, []glicko.Match{
				{Outcome: glicko.Win, Opponent: glicko.Rating{Rating: 1400, Deviation: 30, Volatility: 0.06}},
				{Outcome: glicko.Loss, Opponent: glicko.Rating{Rating: 1550, Deviation: 100, Volatility: 0.06}},
				{Outcome: glicko.Loss, Opponent: glicko.Rating{Rating: 1700, Deviation: 300, Volatility: 0.06}},
			})

			Convey("Then it should reproduce the published result", func() {
				So(err, ShouldBeNil)
				So(out.Rating, ShouldAlmostEqual, 1464.05, 0.01)
				So(out.Deviation, ShouldAlmostEqual, 151.52, 0.01)
				So(out.Volatility, ShouldAlmostEqual, 0.05999, 1e-5)
			})
		})
	})
}

func TestEngine_Options(t *testing.T) {
	Convey("Given engine options", t, func() {
		Convey("When tau is not positive", func() {
			_, err := glicko.NewEngine(glicko.WithTau(0))

			Convey("Then construction should fail", func() {
				So(errors.Is(err, glicko.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the team mode is unknown", func() {
			_, err := glicko.NewEngine(glicko.WithTeamMode(glicko.TeamMode(9)))

			Convey("Then construction should fail", func() {
				So(errors.Is(err, glicko.ErrUnknownTeamMode), ShouldBeTrue)
			})
		})

		Convey("When a smaller tau is used", func() {
			e := newEngine(t, glicko.WithTau(0.3))

			Convey("Then the engine should report it", func() {
				So(e.Config().Tau, ShouldEqual, 0.3)
				So(e.TeamMode(), ShouldEqual, glicko.FanOut)
			})
		})

		Convey("When a solver observer is registered", func() {
			var calls []int
			e := newEngine(t, glicko.WithSolverObserver(func(n int) { calls = append(calls, n) }))
			_, _, err := e.RateOneVsOne(e.CreateRating(), e.CreateRating(), false)

			Convey("Then it sees one solve per rated player", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldHaveLength, 2)
				So(calls[0], ShouldBeGreaterThan, 0)
			})
		})
	})
}
