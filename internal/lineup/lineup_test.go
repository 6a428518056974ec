package lineup_test

import (
	"testing"

	"github.com/pitchside/pitchside/internal/lineup"
	. "github.com/smartystreets/goconvey/convey"
)

func validLineup() *lineup.Lineup {
	return &lineup.Lineup{
		EpisodeTitle: "Arsenal vs Chelsea: The Preview",
		TotalSeconds: 300,
		Segments: []lineup.Segment{
			{Topic: "Intro", Kind: lineup.KindIntro, ToneLevel: 3, AllocatedSeconds: 15},
			{Topic: "The Hook", Kind: lineup.KindContent, ToneLevel: 4, AllocatedSeconds: 120,
				KeyDataPoints: []string{"Arsenal unbeaten in 8"}},
			{Topic: "Smart Money", Kind: lineup.KindContent, ToneLevel: 3, AllocatedSeconds: 120,
				KeyDataPoints: []string{"Arsenal 2.10 to win"}},
			{Topic: lineup.FinalTicketTopic, Kind: lineup.KindFinalTicket, ToneLevel: 3, AllocatedSeconds: 30,
				KeyDataPoints: []string{"365Scores"}},
			{Topic: "Outro", Kind: lineup.KindOutro, ToneLevel: 2, AllocatedSeconds: 15},
		},
	}
}

func TestValidate(t *testing.T) {
	Convey("Given a structurally sound lineup", t, func() {
		So(validLineup().Validate(), ShouldBeNil)

		Convey("ContentSegments skips the fixed slots", func() {
			So(validLineup().ContentSegments(), ShouldResemble, []int{1, 2})
		})

		Convey("FinalTicketIndex finds the closing pitch", func() {
			So(validLineup().FinalTicketIndex(), ShouldEqual, 3)
		})
	})

	Convey("Given structural breaches", t, func() {
		Convey("A lineup without an opening intro is rejected", func() {
			l := validLineup()
			l.Segments[0].Kind = lineup.KindContent
			l.Segments[0].KeyDataPoints = []string{"x 1"}
			err := l.Validate()
			So(err, ShouldHaveSameTypeAs, &lineup.ConstructionError{})
			So(err.Error(), ShouldContainSubstring, "intro")
		})

		Convey("The closing pitch anywhere but second to last is rejected", func() {
			l := validLineup()
			l.Segments[1], l.Segments[3] = l.Segments[3], l.Segments[1]
			err := l.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "second to last")
		})

		Convey("A second closing pitch is rejected", func() {
			l := validLineup()
			l.Segments[2].Kind = lineup.KindFinalTicket
			So(l.Validate(), ShouldNotBeNil)
		})

		Convey("A lineup with only fixed slots is rejected", func() {
			l := &lineup.Lineup{
				TotalSeconds: 60,
				Segments: []lineup.Segment{
					{Kind: lineup.KindIntro, ToneLevel: 3, AllocatedSeconds: 15},
					{Kind: lineup.KindIntro, ToneLevel: 3, AllocatedSeconds: 0},
					{Kind: lineup.KindFinalTicket, ToneLevel: 3, AllocatedSeconds: 30, KeyDataPoints: []string{"x"}},
					{Kind: lineup.KindOutro, ToneLevel: 2, AllocatedSeconds: 15},
				},
			}
			err := l.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no content segments")
		})

		Convey("A content segment without data points is rejected", func() {
			l := validLineup()
			l.Segments[1].KeyDataPoints = nil
			err := l.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no backing data points")
		})

		Convey("A tone jump past the limit is rejected", func() {
			l := validLineup()
			l.Segments[1].ToneLevel = 1
			l.Segments[2].ToneLevel = 4
			err := l.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "tone jump")
		})

		Convey("A tone outside 1..5 is rejected", func() {
			l := validLineup()
			l.Segments[2].ToneLevel = 6
			So(l.Validate(), ShouldNotBeNil)
		})

		Convey("Durations that do not sum to the runtime are rejected", func() {
			l := validLineup()
			l.Segments[1].AllocatedSeconds = 100
			err := l.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "runtime")
		})
	})
}

func TestSegmentRules(t *testing.T) {
	Convey("Fixed slots are intro, closing pitch and outro", t, func() {
		So((&lineup.Segment{Kind: lineup.KindIntro}).Fixed(), ShouldBeTrue)
		So((&lineup.Segment{Kind: lineup.KindFinalTicket}).Fixed(), ShouldBeTrue)
		So((&lineup.Segment{Kind: lineup.KindOutro}).Fixed(), ShouldBeTrue)
		So((&lineup.Segment{Kind: lineup.KindContent}).Fixed(), ShouldBeFalse)
		So((&lineup.Segment{Kind: lineup.KindBridge}).Fixed(), ShouldBeFalse)
	})

	Convey("Only content segments must ship data", t, func() {
		So((&lineup.Segment{Kind: lineup.KindContent}).RequiresData(), ShouldBeTrue)
		So((&lineup.Segment{Kind: lineup.KindBridge}).RequiresData(), ShouldBeFalse)
		So((&lineup.Segment{Kind: lineup.KindIntro}).RequiresData(), ShouldBeFalse)
	})
}

func TestToneLabel(t *testing.T) {
	Convey("Known levels have studio names", t, func() {
		So(lineup.ToneLabel(1), ShouldEqual, "Cold Analysis")
		So(lineup.ToneLabel(5), ShouldEqual, "High Octane")
	})

	Convey("Out-of-range levels fall back to the number", t, func() {
		So(lineup.ToneLabel(7), ShouldEqual, "Tone 7")
	})
}
