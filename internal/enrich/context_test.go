package enrich_test

import (
	"testing"

	"github.com/pitchside/pitchside/internal/enrich"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewContext(t *testing.T) {
	Convey("Given values for some categories only", t, func() {
		ec, err := enrich.NewContext(map[enrich.Category]any{
			enrich.CategoryGame: "Arsenal vs Chelsea, Saturday 17:30 at the Emirates",
			enrich.CategoryOdds: map[string]any{"home": 2.10, "draw": 3.50, "away": 3.20},
		}, []string{"Arsenal", "Chelsea", " arsenal ", ""})
		So(err, ShouldBeNil)

		Convey("Populated categories carry real data", func() {
			So(ec.Available(enrich.CategoryGame), ShouldBeTrue)
			So(ec.Available(enrich.CategoryOdds), ShouldBeTrue)

			v, ok := ec.Value(enrich.CategoryGame)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "Arsenal vs Chelsea, Saturday 17:30 at the Emirates")
		})

		Convey("Absent categories hold the unavailable sentinel", func() {
			So(ec.Available(enrich.CategoryStandings), ShouldBeFalse)
			So(ec.Available(enrich.CategoryNextMatch), ShouldBeFalse)

			v, ok := ec.Value(enrich.CategoryStandings)
			So(ok, ShouldBeFalse)
			So(v, ShouldBeNil)
		})

		Convey("An explicit nil value also becomes the sentinel", func() {
			ec2, err := enrich.NewContext(map[enrich.Category]any{
				enrich.CategoryNews: nil,
			}, nil)
			So(err, ShouldBeNil)
			So(ec2.Available(enrich.CategoryNews), ShouldBeFalse)
		})

		Convey("AvailableCategories lists only populated ones in order", func() {
			So(ec.AvailableCategories(), ShouldResemble,
				[]enrich.Category{enrich.CategoryGame, enrich.CategoryOdds})
		})

		Convey("Structured values flatten into a searchable corpus", func() {
			So(ec.Corpus(enrich.CategoryOdds), ShouldContainSubstring, "3.5")
			So(ec.Corpus(enrich.CategoryGame), ShouldContainSubstring, "Emirates")
			So(ec.Corpus(enrich.CategoryStandings), ShouldBeEmpty)
		})

		Convey("Names are deduplicated case-insensitively and sorted", func() {
			So(ec.Names(), ShouldResemble, []string{"Arsenal", "Chelsea"})
			So(ec.KnowsName("chelsea"), ShouldBeTrue)
			So(ec.KnowsName("Tottenham"), ShouldBeFalse)
		})
	})

	Convey("Given no values at all", t, func() {
		ec, err := enrich.NewContext(nil, nil)
		So(err, ShouldBeNil)

		Convey("The context is empty", func() {
			So(ec.Empty(), ShouldBeTrue)
			So(ec.AvailableCategories(), ShouldBeEmpty)
		})
	})

	Convey("Given the sentinel passed in explicitly", t, func() {
		ec, err := enrich.NewContext(map[enrich.Category]any{
			enrich.CategoryOdds: enrich.Unavailable,
		}, nil)
		So(err, ShouldBeNil)

		Convey("It stays unavailable and gains no corpus", func() {
			So(ec.Available(enrich.CategoryOdds), ShouldBeFalse)
			So(ec.Corpus(enrich.CategoryOdds), ShouldBeEmpty)
		})
	})
}
