package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/pitchside/pitchside/internal/metrics"
)

func TestExposition(t *testing.T) {
	Convey("Given instrumentation the pipeline has touched", t, func() {
		before := testutil.ToFloat64(metrics.SegmentsDropped)
		metrics.SegmentsDropped.Inc()
		metrics.Regenerations.WithLabelValues("grounding").Inc()
		metrics.EpisodesTotal.WithLabelValues("PRE_MATCH", "complete").Inc()
		metrics.StageDuration.WithLabelValues("plan").Observe(1.2)

		Convey("The counters move", func() {
			So(testutil.ToFloat64(metrics.SegmentsDropped), ShouldEqual, before+1)
			So(testutil.ToFloat64(metrics.Regenerations.WithLabelValues("grounding")), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("The HTTP handler publishes them for scraping", func() {
			rr := httptest.NewRecorder()
			metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rr.Code, ShouldEqual, http.StatusOK)
			body := rr.Body.String()
			So(body, ShouldContainSubstring, "pitchside_segments_dropped_total")
			So(body, ShouldContainSubstring, "pitchside_segment_regenerations_total")
			So(body, ShouldContainSubstring, "pitchside_episodes_total")
			So(body, ShouldContainSubstring, "pitchside_stage_duration_seconds")
		})
	})
}
