package dialogue_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pitchside/pitchside/internal/dialogue"
	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/grounding"
	"github.com/pitchside/pitchside/internal/lineup"
	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/oracle"
	"github.com/pitchside/pitchside/internal/timing"
	. "github.com/smartystreets/goconvey/convey"
)

// panelOracle replays scripted transcripts keyed by segment topic. The
// last queued response for a topic repeats on further calls.
type panelOracle struct {
	mu      sync.Mutex
	byTopic map[string][]string
	calls   int
}

func (o *panelOracle) Name() string { return "scripted" }

func (o *panelOracle) Generate(ctx context.Context, prompt string, c oracle.Constraints) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	for topic, queue := range o.byTopic {
		if !strings.Contains(prompt, fmt.Sprintf("%q", topic)) {
			continue
		}
		if len(queue) == 0 {
			return "", fmt.Errorf("no scripted transcript for %s", topic)
		}
		resp := queue[0]
		if len(queue) > 1 {
			o.byTopic[topic] = queue[1:]
		}
		return resp, nil
	}
	return "", fmt.Errorf("no topic matched prompt")
}

const (
	introLines = "[HOST]: Welcome in, it is Arsenal against Chelsea this Saturday, and the panel is ready."
	hookLines  = "[ANALYST]: Arsenal have won 4 of their last 5, that form line is real.\n" +
		"[FAN]: And the ground will be absolutely rocking for it."
	hookFabricated = "[ANALYST]: Arsenal are 3.57 to win this, mark it down."
	ticketClash    = "[HOST]: Time for the closing pitch.\n" +
		"[ANALYST]: Arsenal @ 2.10 on the result market, the numbers don't lie.\n" +
		"[FAN]: Come off it Marcus, the price is irrelevant, Arsenal win this on heart.\n" +
		"[HOST]: Settled, then."
	ticketAgreeable = "[HOST]: The pick tonight.\n" +
		"[ANALYST]: Arsenal @ 2.10 is the listed price.\n" +
		"[FAN]: I quite like it as well.\n" +
		"[HOST]: Lovely consensus."
	outroLines = "[HOST]: That is the show, thanks for listening, see you after the final whistle."
)

func agreeableOracle() *panelOracle {
	return &panelOracle{byTopic: map[string][]string{
		"Intro":            {introLines},
		"The Hook":         {hookLines},
		"The Final Ticket": {ticketAgreeable},
		"Outro":            {outroLines},
	}}
}

func clashingOracle() *panelOracle {
	o := agreeableOracle()
	o.byTopic["The Final Ticket"] = []string{ticketClash}
	return o
}

func dialogueLineup() *lineup.Lineup {
	return &lineup.Lineup{
		EpisodeTitle: "Arsenal vs Chelsea: The Preview",
		Status:       match.StatusPreMatch,
		TotalSeconds: 90,
		Segments: []lineup.Segment{
			{Topic: "Intro", Kind: lineup.KindIntro, ToneLevel: 3, AllocatedSeconds: 15,
				KeyDataPoints:  []string{"Arsenal vs Chelsea"},
				SourceDataRefs: []string{"game"}},
			{Topic: "The Hook", Kind: lineup.KindContent, ToneLevel: 4, AllocatedSeconds: 30, Weight: 80,
				KeyDataPoints:  []string{"Arsenal have won 4 of their last 5"},
				SourceDataRefs: []string{"form"}},
			{Topic: lineup.FinalTicketTopic, Kind: lineup.KindFinalTicket, ToneLevel: 3, AllocatedSeconds: 30,
				KeyDataPoints:  []string{"365Scores", "Full-time Result", "Arsenal @ 2.10"},
				SourceDataRefs: []string{"odds"}},
			{Topic: "Outro", Kind: lineup.KindOutro, ToneLevel: 2, AllocatedSeconds: 15,
				KeyDataPoints:  []string{"Arsenal vs Chelsea"},
				SourceDataRefs: []string{"game"}},
		},
	}
}

func dialogueContext() *enrich.Context {
	ec, err := enrich.NewContext(map[enrich.Category]any{
		enrich.CategoryGame: "Arsenal vs Chelsea, Premier League, Saturday at the Emirates",
		enrich.CategoryForm: "Arsenal have won 4 of their last 5. Chelsea lost 3 of their last 5.",
		enrich.CategoryOdds: "Full-time Result: Arsenal 2.10, Draw 3.50, Chelsea 3.20",
	}, []string{"Arsenal", "Chelsea"})
	if err != nil {
		panic(err)
	}
	return ec
}

// relaxed ignores word counts so transcripts stay short.
func relaxed() *timing.Reconciler {
	p := timing.DefaultPolicy()
	p.TotalTolerance = 1.0
	p.SegmentTolerance = 1.0
	return timing.NewReconciler(p)
}

func newSynth(gen oracle.Generator, rec *timing.Reconciler) *dialogue.Synthesizer {
	return dialogue.NewSynthesizer(gen, dialogue.DefaultPanel("Arsenal"), rec, 2, nil)
}

func TestSynthesizePreconditions(t *testing.T) {
	Convey("Given a synthesizer with proper casting", t, func() {
		Convey("An empty context fails before any generation", func() {
			gen := clashingOracle()
			s := newSynth(gen, relaxed())
			ec, _ := enrich.NewContext(nil, nil)
			_, err := s.Synthesize(context.Background(), dialogueLineup(), ec)

			var pe *dialogue.PreconditionError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(pe.Missing, ShouldContain, "enriched context with game identity")
			So(gen.calls, ShouldEqual, 0)
		})

		Convey("A lineup without content segments fails the same way", func() {
			gen := clashingOracle()
			s := newSynth(gen, relaxed())
			l := dialogueLineup()
			l.Segments = []lineup.Segment{l.Segments[0], l.Segments[2], l.Segments[3]}
			_, err := s.Synthesize(context.Background(), l, dialogueContext())

			var pe *dialogue.PreconditionError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(gen.calls, ShouldEqual, 0)
		})
	})

	Convey("Given a fan seat with no allegiance", t, func() {
		gen := clashingOracle()
		s := dialogue.NewSynthesizer(gen, dialogue.DefaultPanel(""), relaxed(), 2, nil)
		_, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())

		var pe *dialogue.PreconditionError
		So(errors.As(err, &pe), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "panel")
		So(gen.calls, ShouldEqual, 0)
	})

	Convey("Given a posture the game facts contradict", t, func() {
		Convey("A post-match lineup over a context with no result fails before generation", func() {
			gen := clashingOracle()
			s := newSynth(gen, relaxed())
			l := dialogueLineup()
			l.Status = match.StatusPostMatch
			_, err := s.Synthesize(context.Background(), l, dialogueContext())

			var pe *dialogue.PreconditionError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "posture")
			So(gen.calls, ShouldEqual, 0)
		})

		Convey("A pre-match lineup over a finished game fails the same way", func() {
			gen := clashingOracle()
			s := newSynth(gen, relaxed())
			ec, err := enrich.NewContext(map[enrich.Category]any{
				enrich.CategoryGame: "Arsenal 3-1 Chelsea, full time at the Emirates",
				enrich.CategoryOdds: "Full-time Result: Arsenal 2.10, Draw 3.50, Chelsea 3.20",
			}, []string{"Arsenal", "Chelsea"})
			So(err, ShouldBeNil)
			_, serr := s.Synthesize(context.Background(), dialogueLineup(), ec)

			var pe *dialogue.PreconditionError
			So(errors.As(serr, &pe), ShouldBeTrue)
			So(serr.Error(), ShouldContainSubstring, "posture")
			So(gen.calls, ShouldEqual, 0)
		})
	})
}

func TestSynthesizeHappyPath(t *testing.T) {
	Convey("Given scripted transcripts that pass every check", t, func() {
		gen := clashingOracle()
		s := newSynth(gen, relaxed())
		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())
		So(err, ShouldBeNil)
		So(script, ShouldNotBeNil)

		Convey("Every segment is voiced once, in lineup order", func() {
			So(len(script.Segments), ShouldEqual, 4)
			for i, seg := range script.Segments {
				So(seg.SegmentIndex, ShouldEqual, i)
				So(seg.Attempts, ShouldEqual, 1)
				So(len(seg.Lines), ShouldBeGreaterThan, 0)
			}
			So(gen.calls, ShouldEqual, 4)
		})

		Convey("The episode header is carried over", func() {
			So(script.Title, ShouldEqual, "Arsenal vs Chelsea: The Preview")
			So(script.Status, ShouldEqual, match.StatusPreMatch)
			So(script.TotalSeconds, ShouldEqual, 90)
		})

		Convey("The closing pitch keeps its on-air dispute", func() {
			ticket := script.Segments[2]
			So(ticket.Topic, ShouldEqual, lineup.FinalTicketTopic)
			So(ticket.Lines[2].Text, ShouldContainSubstring, "Come off it")
		})
	})
}

func TestSynthesizeRegeneration(t *testing.T) {
	Convey("Given a first attempt with a fabricated price", t, func() {
		gen := clashingOracle()
		gen.byTopic["The Hook"] = []string{hookFabricated, hookLines}
		s := newSynth(gen, relaxed())

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())
		So(err, ShouldBeNil)

		Convey("The segment is rewritten once and accepted", func() {
			So(script.Segments[1].Attempts, ShouldEqual, 2)
			So(script.Segments[1].Lines[0].Text, ShouldNotContainSubstring, "3.57")
		})
	})

	Convey("Given a transcript with no speaker tags at first", t, func() {
		gen := clashingOracle()
		gen.byTopic["Intro"] = []string{"sorry, here is some prose instead", introLines}
		s := newSynth(gen, relaxed())

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())
		So(err, ShouldBeNil)
		So(script.Segments[0].Attempts, ShouldEqual, 2)
	})
}

func TestSynthesizeGroundingFailure(t *testing.T) {
	Convey("Given a segment that fabricates on every attempt", t, func() {
		gen := clashingOracle()
		gen.byTopic["The Hook"] = []string{hookFabricated}
		s := newSynth(gen, relaxed())

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())

		Convey("The whole run fails, no partial script survives", func() {
			So(script, ShouldBeNil)
			var gf *grounding.Failure
			So(errors.As(err, &gf), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "grounding failed after 2 attempts on segment 1")
			So(gf.Violations, ShouldNotBeEmpty)
			So(gf.Violations[0].Token.Text, ShouldEqual, "3.57")
		})
	})
}

func TestSynthesizeConflictRule(t *testing.T) {
	Convey("Given an episode where nobody pushes back", t, func() {
		gen := agreeableOracle()
		gen.byTopic["The Final Ticket"] = []string{ticketAgreeable, ticketClash}
		s := newSynth(gen, relaxed())

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())
		So(err, ShouldBeNil)

		Convey("The closing pitch is rewritten to carry the dispute", func() {
			ticket := script.Segments[2]
			So(ticket.Attempts, ShouldEqual, 2)
			So(ticket.Lines[1].Text, ShouldContainSubstring, "numbers don't lie")
			So(ticket.Lines[2].Text, ShouldContainSubstring, "Come off it")
		})
	})

	Convey("Given a rewrite that still will not argue", t, func() {
		gen := agreeableOracle()
		s := newSynth(gen, relaxed())

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())

		Convey("The original pitch stands rather than failing the run", func() {
			So(err, ShouldBeNil)
			So(script.Segments[2].Lines[3].Text, ShouldContainSubstring, "consensus")
		})
	})
}

func TestSynthesizeTimingDiagnostics(t *testing.T) {
	Convey("Given strict word targets and short transcripts", t, func() {
		gen := clashingOracle()
		s := newSynth(gen, timing.NewReconciler(timing.DefaultPolicy()))

		script, err := s.Synthesize(context.Background(), dialogueLineup(), dialogueContext())

		Convey("Residual drift past the rewrite budget is recorded, not fatal", func() {
			So(err, ShouldBeNil)
			So(script, ShouldNotBeNil)
			So(script.TimingNotes, ShouldNotBeEmpty)
			for _, seg := range script.Segments {
				So(seg.Attempts, ShouldEqual, 3)
			}
		})
	})
}
