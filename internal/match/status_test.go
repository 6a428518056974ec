package match_test

import (
	"testing"
	"time"

	"github.com/pitchside/pitchside/internal/match"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(n int) *int { return &n }

func TestDetectStatus(t *testing.T) {
	now := time.Date(2026, 8, 29, 20, 0, 0, 0, time.UTC)

	Convey("Given a game with a recorded score", t, func() {
		g := &match.Game{
			HomeScore: intPtr(2),
			AwayScore: intPtr(1),
			Winner:    match.WinnerUnknown,
			StartTime: now.Add(2 * time.Hour),
		}

		Convey("It is post-match regardless of state or kickoff", func() {
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPostMatch)
		})
	})

	Convey("Given a winner without a score", t, func() {
		for _, w := range []match.Winner{match.WinnerHome, match.WinnerAway, match.WinnerDraw} {
			g := &match.Game{Winner: w}
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPostMatch)
		}
	})

	Convey("Given only a backend state code", t, func() {
		Convey("A finished code is post-match", func() {
			for _, s := range []match.GameState{match.StateFinished, match.StateJustEnded, 140} {
				g := &match.Game{Winner: match.WinnerUnknown, Statuses: s}
				So(match.DetectStatus(g, now), ShouldEqual, match.StatusPostMatch)
			}
		})

		Convey("A scheduled code is pre-match even long after kickoff", func() {
			g := &match.Game{
				Winner:    match.WinnerUnknown,
				Statuses:  match.StateScheduled,
				StartTime: now.Add(-48 * time.Hour),
			}
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPreMatch)
		})
	})

	Convey("Given an unrecognized state code", t, func() {
		Convey("More than three hours after kickoff is post-match", func() {
			g := &match.Game{
				Winner:    match.WinnerUnknown,
				Statuses:  match.StateActive,
				StartTime: now.Add(-4 * time.Hour),
			}
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPostMatch)
		})

		Convey("Within three hours of kickoff defaults to pre-match", func() {
			g := &match.Game{
				Winner:    match.WinnerUnknown,
				Statuses:  match.StateActive,
				StartTime: now.Add(-1 * time.Hour),
			}
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPreMatch)
		})

		Convey("A zero kickoff time defaults to pre-match", func() {
			g := &match.Game{Winner: match.WinnerUnknown, Statuses: match.StateActive}
			So(match.DetectStatus(g, now), ShouldEqual, match.StatusPreMatch)
		})
	})
}

func TestGameHelpers(t *testing.T) {
	Convey("Given a finished game", t, func() {
		g := &match.Game{
			HomeTeam:  match.Team{Name: "Arsenal"},
			AwayTeam:  match.Team{Name: "Chelsea"},
			HomeScore: intPtr(3),
			AwayScore: intPtr(1),
			Winner:    match.WinnerHome,
		}

		So(g.Title(), ShouldEqual, "Arsenal vs Chelsea")
		So(g.HasScore(), ShouldBeTrue)
		So(g.WinnerTeam().Name, ShouldEqual, "Arsenal")
	})

	Convey("Given a draw", t, func() {
		g := &match.Game{Winner: match.WinnerDraw}
		So(g.WinnerTeam(), ShouldBeNil)
	})

	Convey("Given an upcoming game", t, func() {
		g := &match.Game{Winner: match.WinnerUnknown}
		So(g.HasScore(), ShouldBeFalse)
		So(g.WinnerTeam(), ShouldBeNil)
	})

	Convey("State codes in the post-game band report finished", t, func() {
		So(match.StateFinished.Finished(), ShouldBeTrue)
		So(match.StateJustEnded.Finished(), ShouldBeTrue)
		So(match.GameState(90).Finished(), ShouldBeTrue)
		So(match.GameState(200).Finished(), ShouldBeTrue)
		So(match.StateScheduled.Finished(), ShouldBeFalse)
		So(match.StateActive.Finished(), ShouldBeFalse)
		So(match.GameState(89).Finished(), ShouldBeFalse)
	})
}
