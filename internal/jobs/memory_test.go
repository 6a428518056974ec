package jobs_test

import (
	"context"
	"testing"

	"github.com/pitchside/pitchside/internal/jobs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh in-memory store", t, func() {
		store := jobs.NewMemory()
		id := jobs.NewEpisodeID()

		Convey("A created record can be read back", func() {
			So(store.Create(ctx, &jobs.Record{EpisodeID: id, GameID: 12345, Status: jobs.StatusSubmitted}), ShouldBeNil)

			rec, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			So(rec.GameID, ShouldEqual, 12345)
			So(rec.Status, ShouldEqual, jobs.StatusSubmitted)
			So(rec.CreatedAt.IsZero(), ShouldBeFalse)
		})

		Convey("The job walks its lifecycle", func() {
			So(store.Create(ctx, &jobs.Record{EpisodeID: id, Status: jobs.StatusSubmitted}), ShouldBeNil)
			So(store.UpdateStatus(ctx, id, jobs.StatusPlanning), ShouldBeNil)
			So(store.Complete(ctx, id, "Arsenal vs Chelsea: The Preview", "episodes/out.mp3"), ShouldBeNil)

			rec, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			So(rec.Status, ShouldEqual, jobs.StatusComplete)
			So(rec.Title, ShouldEqual, "Arsenal vs Chelsea: The Preview")
			So(rec.AudioURL, ShouldEqual, "episodes/out.mp3")
		})

		Convey("A failure records its reason", func() {
			So(store.Create(ctx, &jobs.Record{EpisodeID: id}), ShouldBeNil)
			So(store.Fail(ctx, id, "grounding failed after 2 attempts on segment 3"), ShouldBeNil)

			rec, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			So(rec.Status, ShouldEqual, jobs.StatusFailed)
			So(rec.Error, ShouldContainSubstring, "grounding failed")
		})

		Convey("Unknown episodes report not found", func() {
			_, err := store.Get(ctx, "01UNKNOWN")
			So(err, ShouldEqual, jobs.ErrNotFound)
			So(store.UpdateStatus(ctx, "01UNKNOWN", jobs.StatusPlanning), ShouldEqual, jobs.ErrNotFound)
		})

		Convey("Recent runs list newest first", func() {
			for _, ep := range []string{"first", "second", "third"} {
				So(store.Create(ctx, &jobs.Record{EpisodeID: ep, Title: ep}), ShouldBeNil)
			}

			recs, err := store.ListRecent(ctx, 0)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 3)
			So(recs[0].EpisodeID, ShouldEqual, "third")
			So(recs[1].EpisodeID, ShouldEqual, "second")
			So(recs[2].EpisodeID, ShouldEqual, "first")

			Convey("The limit caps the walk", func() {
				capped, err := store.ListRecent(ctx, 2)
				So(err, ShouldBeNil)
				So(len(capped), ShouldEqual, 2)
				So(capped[0].EpisodeID, ShouldEqual, "third")
				So(capped[1].EpisodeID, ShouldEqual, "second")
			})

			Convey("Re-creating an episode keeps its original slot", func() {
				So(store.Create(ctx, &jobs.Record{EpisodeID: "second", Title: "replayed"}), ShouldBeNil)
				recs, err := store.ListRecent(ctx, 0)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 3)
				So(recs[0].EpisodeID, ShouldEqual, "third")
			})
		})

		Convey("Returned records are copies, not aliases", func() {
			So(store.Create(ctx, &jobs.Record{EpisodeID: id, Title: "original"}), ShouldBeNil)
			rec, _ := store.Get(ctx, id)
			rec.Title = "mutated"

			again, _ := store.Get(ctx, id)
			So(again.Title, ShouldEqual, "original")
		})
	})

	Convey("Episode IDs are unique and sortable", t, func() {
		a, b := jobs.NewEpisodeID(), jobs.NewEpisodeID()
		So(a, ShouldNotEqual, b)
		So(len(a), ShouldEqual, 26)
	})
}
