package model_test

import (
	"testing"
	"time"

	model "github.com/okian/ratings/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAccount(t *testing.T) {
	convey.Convey("Given an account with history", t, func() {
		a := model.Account{
			Username:            "alice",
			GlickoOverall:       model.GlickoState{Rating: 1700, Deviation: 80, Volatility: 0.06},
			GlickoSeasonal:      model.GlickoState{Rating: 1650},
			GlickoRatingHistory: []float64{1600, 1650},
		}

		convey.Convey("When reading each pool", func() {
			convey.Convey("Then it should return the matching state", func() {
				convey.So(a.Glicko(model.Overall).Rating, convey.ShouldEqual, 1700)
				convey.So(a.Glicko(model.Seasonal).Rating, convey.ShouldEqual, 1650)
				convey.So(a.Glicko(model.Overall).Rated(), convey.ShouldBeTrue)
				convey.So(a.Glicko(model.Seasonal).Rated(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When replacing a pool", func() {
			b := a.WithGlicko(model.Seasonal, model.GlickoState{Rating: 1500, Deviation: 200, Volatility: 0.05})
			b.GlickoRatingHistory[0] = 0

			convey.Convey("Then the original should be untouched", func() {
				convey.So(a.GlickoSeasonal.Rating, convey.ShouldEqual, 1650)
				convey.So(a.GlickoRatingHistory[0], convey.ShouldEqual, 1600)
				convey.So(b.GlickoSeasonal.Deviation, convey.ShouldEqual, 200)
				convey.So(b.GlickoOverall, convey.ShouldResemble, a.GlickoOverall)
			})
		})

		convey.Convey("Then pools should print their names", func() {
			convey.So(model.Overall.String(), convey.ShouldEqual, "overall")
			convey.So(model.Seasonal.String(), convey.ShouldEqual, "seasonal")
		})
	})
}

func TestMatch(t *testing.T) {
	convey.Convey("Given a finished match", t, func() {
		m := model.Match{
			MatchID:     "m-1",
			Winners:     []string{"a", "b", "c"},
			Losers:      []string{"d", "e"},
			CompletedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}

		convey.Convey("Then players should list winners before losers", func() {
			convey.So(m.Players(), convey.ShouldResemble, []string{"a", "b", "c", "d", "e"})
			convey.So(m.TableSize(), convey.ShouldEqual, 5)
		})

		convey.Convey("When the match has no players", func() {
			empty := model.Match{}

			convey.Convey("Then it should report an empty table", func() {
				convey.So(empty.Players(), convey.ShouldBeEmpty)
				convey.So(empty.TableSize(), convey.ShouldEqual, 0)
			})
		})
	})
}
