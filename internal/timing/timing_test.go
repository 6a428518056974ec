package timing_test

import (
	"testing"

	"github.com/pitchside/pitchside/internal/timing"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSecondsToWords(t *testing.T) {
	Convey("Given the 150 words-per-minute pace", t, func() {
		Convey("Whole-second durations convert directly", func() {
			So(timing.SecondsToWords(60), ShouldEqual, 150)
			So(timing.SecondsToWords(30), ShouldEqual, 75)
			So(timing.SecondsToWords(300), ShouldEqual, 750)
		})

		Convey("Fractional products round to the nearest word", func() {
			// 7 * 2.5 = 17.5 rounds up
			So(timing.SecondsToWords(7), ShouldEqual, 18)
			// 9 * 2.5 = 22.5 rounds up
			So(timing.SecondsToWords(9), ShouldEqual, 23)
			So(timing.SecondsToWords(10), ShouldEqual, 25)
		})
	})
}

func TestWordCount(t *testing.T) {
	Convey("Given text with mixed whitespace", t, func() {
		So(timing.WordCount("one two three"), ShouldEqual, 3)
		So(timing.WordCount("  padded   out\ttabs\nand lines "), ShouldEqual, 5)
		So(timing.WordCount(""), ShouldEqual, 0)
	})
}

func TestAllocate(t *testing.T) {
	rec := timing.NewReconciler(timing.DefaultPolicy())

	Convey("Given a 300s episode with four content segments", t, func() {
		Convey("When weights are proportional", func() {
			// 300 - 60 reserved = 240s of content
			secs, err := rec.Allocate(300, []int{50, 50, 50, 50})
			So(err, ShouldBeNil)
			So(secs, ShouldResemble, []int{60, 60, 60, 60})
		})

		Convey("When weights are uneven the split follows them", func() {
			secs, err := rec.Allocate(300, []int{80, 40, 40, 80})
			So(err, ShouldBeNil)
			So(secs, ShouldResemble, []int{80, 40, 40, 80})
		})

		Convey("Rounding drift lands on the longest segment", func() {
			secs, err := rec.Allocate(300, []int{1, 1, 1})
			So(err, ShouldBeNil)
			total := 0
			for _, s := range secs {
				total += s
			}
			So(total, ShouldEqual, 240)
		})

		Convey("A zero weight vector falls back to an equal split", func() {
			secs, err := rec.Allocate(300, []int{0, 0, 0, 0})
			So(err, ShouldBeNil)
			So(secs, ShouldResemble, []int{60, 60, 60, 60})
		})
	})

	Convey("Given a 120s episode", t, func() {
		Convey("The reserved slots leave 60s for content", func() {
			secs, err := rec.Allocate(120, []int{50, 50, 50})
			So(err, ShouldBeNil)
			So(secs, ShouldResemble, []int{20, 20, 20})

			total := 0
			for _, s := range secs {
				total += s
			}
			So(total, ShouldEqual, 60)
		})
	})

	Convey("Given a runtime too short for its segments", t, func() {
		Convey("Allocation refuses rather than collapsing segments", func() {
			_, err := rec.Allocate(62, []int{50, 50, 50})
			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, timing.ErrBudgetExhausted)
		})
	})

	Convey("Given no content segments", t, func() {
		_, err := rec.Allocate(300, nil)
		So(err, ShouldNotBeNil)
	})

	Convey("Allocation always sums exactly to the content budget", t, func() {
		for _, weights := range [][]int{
			{33, 33, 34},
			{1, 99},
			{7, 7, 7, 7, 7, 7, 7},
			{100, 1, 1, 1},
		} {
			secs, err := rec.Allocate(300, weights)
			So(err, ShouldBeNil)
			total := 0
			for _, s := range secs {
				total += s
			}
			So(total, ShouldEqual, 240)
		}
	})
}

func TestCheckTotal(t *testing.T) {
	rec := timing.NewReconciler(timing.DefaultPolicy())

	Convey("Given a 300s episode (750 word target)", t, func() {
		Convey("Within 5% passes", func() {
			So(rec.CheckTotal(300, 750), ShouldBeNil)
			So(rec.CheckTotal(300, 713), ShouldBeNil)
			So(rec.CheckTotal(300, 787), ShouldBeNil)
		})

		Convey("Past 5% reports a violation", func() {
			v := rec.CheckTotal(300, 700)
			So(v, ShouldNotBeNil)
			So(v.Scope, ShouldEqual, "total")
			So(v.TargetWords, ShouldEqual, 750)
			So(v.ActualWords, ShouldEqual, 700)
			So(v.Error(), ShouldContainSubstring, "700 words")
		})
	})
}

func TestCheckSegment(t *testing.T) {
	rec := timing.NewReconciler(timing.DefaultPolicy())

	Convey("Given a 60s segment (150 word target)", t, func() {
		Convey("Within 10% passes", func() {
			So(rec.CheckSegment(2, 60, 150), ShouldBeNil)
			So(rec.CheckSegment(2, 60, 135), ShouldBeNil)
			So(rec.CheckSegment(2, 60, 165), ShouldBeNil)
		})

		Convey("Past 10% reports the segment index", func() {
			v := rec.CheckSegment(2, 60, 130)
			So(v, ShouldNotBeNil)
			So(v.Scope, ShouldEqual, "segment")
			So(v.SegmentIndex, ShouldEqual, 2)
			So(v.Error(), ShouldContainSubstring, "segment 2")
		})
	})
}
