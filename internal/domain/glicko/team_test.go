package glicko_test

import (
	"errors"
	"testing"

	"github.com/okian/ratings/internal/domain/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_Composite(t *testing.T) {
	Convey("Given a team of three", t, func() {
		e := newEngine(t)
		team := glicko.Team{
			{Rating: 1500, Deviation: 100, Volatility: 0.05},
			{Rating: 1600, Deviation: 200, Volatility: 0.06},
			{Rating: 1900, Deviation: 300, Volatility: 0.09},
		}

		Convey("When building its composite", func() {
			c, err := e.Composite(team)

			Convey("Then rating and deviation should be the member means", func() {
				So(err, ShouldBeNil)
				So(c.Rating, ShouldAlmostEqual, 1666.6667, 1e-4)
				So(c.Deviation, ShouldAlmostEqual, 200, 1e-9)
			})

			Convey("Then volatility should stay at the configured default", func() {
				So(c.Volatility, ShouldEqual, glicko.DefaultBaseVolatility)
			})
		})

		Convey("When the team is empty", func() {
			_, err := e.Composite(glicko.Team{})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, glicko.ErrEmptyTeam), ShouldBeTrue)
			})
		})
	})
}

func TestEngine_RateTeams(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := newEngine(t)
		p := glicko.Rating{Rating: 1700, Deviation: 300, Volatility: 0.06}
		q := glicko.Rating{Rating: 1550, Deviation: 325, Volatility: 0.06}

		Convey("When two single-member teams are rated", func() {
			out, err := e.RateTeams([]glicko.Team{{p}, {q}})
			a, b, errPair := e.RateOneVsOne(p, q, false)

			Convey("Then it should reduce to a one-versus-one game", func() {
				So(err, ShouldBeNil)
				So(errPair, ShouldBeNil)
				So(out, ShouldHaveLength, 2)
				So(out[0].Rating, ShouldAlmostEqual, a.Rating, 1e-9)
				So(out[0].Deviation, ShouldAlmostEqual, a.Deviation, 1e-9)
				So(out[1].Rating, ShouldAlmostEqual, b.Rating, 1e-9)
				So(out[1].Volatility, ShouldAlmostEqual, b.Volatility, 1e-12)
			})
		})

		Convey("When a two-versus-two match is rated", func() {
			winners := glicko.Team{p, q}
			losers := glicko.Team{e.CreateRating(), e.CreateRating(glicko.WithRating(1650))}
			out, err := e.RateTeams([]glicko.Team{winners, losers})

			Convey("Then every winner should gain and every loser should drop", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 4)
				So(out[0].Rating, ShouldBeGreaterThan, p.Rating)
				So(out[1].Rating, ShouldBeGreaterThan, q.Rating)
				So(out[2].Rating, ShouldBeLessThan, losers[0].Rating)
				So(out[3].Rating, ShouldBeLessThan, losers[1].Rating)
			})

			Convey("Then the merged mode should agree for two teams", func() {
				merged, err := e.RateTeamsWithMode([]glicko.Team{winners, losers}, glicko.Merged)
				So(err, ShouldBeNil)
				So(merged, ShouldHaveLength, len(out))
				for i := range out {
					So(merged[i].Rating, ShouldAlmostEqual, out[i].Rating, 1e-9)
				}
			})
		})

		Convey("When three teams are rated", func() {
			teams := []glicko.Team{{p, q}, {e.CreateRating()}, {q}}

			Convey("Then fan-out should emit one rating per member per opposing team", func() {
				out, err := e.RateTeamsWithMode(teams, glicko.FanOut)
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 2*2+1*2+1*2)
				// team 0 beat team 1 and team 2
				So(out[0].Rating, ShouldBeGreaterThan, p.Rating)
				So(out[2].Rating, ShouldBeGreaterThan, p.Rating)
				// team 2 lost to team 0 and team 1
				So(out[6].Rating, ShouldBeLessThan, q.Rating)
				So(out[7].Rating, ShouldBeLessThan, q.Rating)
			})

			Convey("Then merged should emit one rating per member", func() {
				out, err := e.RateTeamsWithMode(teams, glicko.Merged)
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 4)
				So(out[0].Rating, ShouldBeGreaterThan, p.Rating)
				So(out[3].Rating, ShouldBeLessThan, q.Rating)
			})
		})

		Convey("When fewer than two teams are given", func() {
			_, errNone := e.RateTeams(nil)
			_, errOne := e.RateTeams([]glicko.Team{{p}})

			Convey("Then it should be rejected", func() {
				So(errors.Is(errNone, glicko.ErrNotEnoughTeams), ShouldBeTrue)
				So(errors.Is(errOne, glicko.ErrNotEnoughTeams), ShouldBeTrue)
			})
		})

		Convey("When a team is empty", func() {
			_, err := e.RateTeams([]glicko.Team{{p}, {}})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, glicko.ErrEmptyTeam), ShouldBeTrue)
			})
		})
	})
}

func TestParseTeamMode(t *testing.T) {
	Convey("Given team mode names", t, func() {
		So(must(glicko.ParseTeamMode("fanout")), ShouldEqual, glicko.FanOut)
		So(must(glicko.ParseTeamMode(" Merged ")), ShouldEqual, glicko.Merged)
		So(must(glicko.ParseTeamMode("")), ShouldEqual, glicko.FanOut)
		So(glicko.Merged.String(), ShouldEqual, "merged")

		_, err := glicko.ParseTeamMode("average")
		So(errors.Is(err, glicko.ErrUnknownTeamMode), ShouldBeTrue)
	})
}

func must(m glicko.TeamMode, err error) glicko.TeamMode {
	if err != nil {
		panic(err)
	}
	return m
}
