package glicko_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/ratings/internal/domain/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_Decay(t *testing.T) {
	Convey("Given a settled rating", t, func() {
		e := newEngine(t)
		r := glicko.Rating{Rating: 1840, Deviation: 60, Volatility: 0.06}

		Convey("When no periods have elapsed", func() {
			out, err := e.Decay(r, 0)

			Convey("Then it should be returned as is", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, r)
			})
		})

		Convey("When several periods have elapsed", func() {
			one, err1 := e.Decay(r, 1)
			three, err3 := e.Decay(r, 3)
			step, errStep := e.UpdateRating(r, nil)

			Convey("Then one period should equal the empty rating period", func() {
				So(err1, ShouldBeNil)
				So(errStep, ShouldBeNil)
				So(one.Deviation, ShouldAlmostEqual, step.Deviation, 1e-9)
			})

			Convey("Then uncertainty should keep growing", func() {
				So(err3, ShouldBeNil)
				So(three.Deviation, ShouldBeGreaterThan, one.Deviation)
				So(three.Rating, ShouldAlmostEqual, r.Rating, 1e-9)
				So(three.Volatility, ShouldEqual, r.Volatility)
			})
		})

		Convey("When the period count is negative", func() {
			_, err := e.Decay(r, -1)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, glicko.ErrNegativePeriods), ShouldBeTrue)
			})
		})
	})
}

func TestPeriodsSince(t *testing.T) {
	Convey("Given a two week period", t, func() {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		period := glicko.DefaultDecayPeriod

		So(glicko.PeriodsSince(time.Time{}, now, period), ShouldEqual, 0)
		So(glicko.PeriodsSince(now.Add(time.Hour), now, period), ShouldEqual, 0)
		So(glicko.PeriodsSince(now.Add(-13*24*time.Hour), now, period), ShouldEqual, 0)
		So(glicko.PeriodsSince(now.Add(-14*24*time.Hour), now, period), ShouldEqual, 1)
		So(glicko.PeriodsSince(now.Add(-45*24*time.Hour), now, period), ShouldEqual, 3)
		So(glicko.PeriodsSince(now.Add(-45*24*time.Hour), now, 0), ShouldEqual, 0)
	})
}
