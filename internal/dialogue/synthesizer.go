package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/grounding"
	"github.com/pitchside/pitchside/internal/lineup"
	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/oracle"
	"github.com/pitchside/pitchside/internal/timing"
)

// maxRegenerations bounds how often a rejected segment may be
// rewritten before the run fails.
const maxRegenerations = 2

const defaultConcurrency = 3

// PreconditionError reports which of the three pillars a synthesis
// run is missing. It is raised before any oracle call is made.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return "dialogue preconditions not met: " + strings.Join(e.Missing, ", ")
}

// attemptState tracks one segment through the generation loop.
type attemptState int

const (
	stateGenerated attemptState = iota
	stateRejected
	stateAccepted
	stateFailed
)

// Synthesizer writes the spoken script for a planned lineup. Segments
// are generated independently and may run concurrently; the episode
// is assembled only after every segment has been accepted.
type Synthesizer struct {
	gen         oracle.Generator
	panel       Panel
	rec         *timing.Reconciler
	concurrency int
	log         *slog.Logger
}

func NewSynthesizer(gen oracle.Generator, panel Panel, rec *timing.Reconciler, concurrency int, log *slog.Logger) *Synthesizer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{gen: gen, panel: panel, rec: rec, concurrency: concurrency, log: log}
}

// Synthesize produces the complete episode script or an error, never
// a partial script.
func (s *Synthesizer) Synthesize(ctx context.Context, l *lineup.Lineup, ec *enrich.Context) (*Script, error) {
	if err := s.checkPillars(l, ec); err != nil {
		return nil, err
	}

	filter := grounding.NewFilter(ec, s.log)
	sysPrompt := buildPanelPrompt(s.panel)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]SegmentScript, len(l.Segments))
	errs := make([]error, len(l.Segments))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range l.Segments {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			seg, err := s.generateSegment(ctx, l, idx, ec, filter, sysPrompt, "")
			if err != nil {
				errs[idx] = err
				cancel()
				return
			}
			results[idx] = *seg
		}(i)
	}
	wg.Wait()

	// Prefer the real failure over the cancellations it caused.
	for _, err := range errs {
		if err != nil && err != context.Canceled {
			return nil, err
		}
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	s.ensureConflict(ctx, l, ec, filter, sysPrompt, results)

	script := &Script{
		Title:        l.EpisodeTitle,
		Status:       l.Status,
		TotalSeconds: l.TotalSeconds,
		Segments:     results,
	}
	for i := range results {
		if v := s.rec.CheckSegment(i, l.Segments[i].AllocatedSeconds, results[i].Words()); v != nil {
			script.TimingNotes = append(script.TimingNotes, v.Error())
		}
	}
	if v := s.rec.CheckTotal(l.TotalSeconds, script.Words()); v != nil {
		script.TimingNotes = append(script.TimingNotes, v.Error())
	}
	for _, note := range script.TimingNotes {
		s.log.Warn("timing drift in accepted script", "violation", note)
	}

	s.log.Info("script synthesized",
		"title", script.Title,
		"segments", len(script.Segments),
		"words", script.Words())
	return script, nil
}

// checkPillars verifies the three preconditions: real context data
// with a game identity, a lineup with at least one content segment,
// and a properly cast panel. The lineup's posture is also re-checked
// against the context here: the planner's verdict is trusted nowhere
// it can be contradicted by the data itself.
func (s *Synthesizer) checkPillars(l *lineup.Lineup, ec *enrich.Context) error {
	var missing []string
	if ec == nil || ec.Empty() || !ec.Available(enrich.CategoryGame) {
		missing = append(missing, "enriched context with game identity")
	}
	if l == nil || len(l.ContentSegments()) == 0 {
		missing = append(missing, "lineup with content segments")
	}
	if err := s.panel.Validate(); err != nil {
		missing = append(missing, "three-voice panel ("+err.Error()+")")
	}
	if l != nil && ec != nil && ec.Available(enrich.CategoryGame) {
		if m := postureMismatch(l.Status, ec.Corpus(enrich.CategoryGame)); m != "" {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return &PreconditionError{Missing: missing}
	}
	return nil
}

// resultSignals are the phrases a game summary carries once a fixture
// has finished. The enricher stamps at least one on every post-match
// summary.
var resultSignals = []string{"final_score", "final score", "full time", "full-time", "winner"}

// postureMismatch reports an inconsistency between a lineup's posture
// and the game facts backing it, or "" when they agree.
func postureMismatch(status match.Status, gameCorpus string) string {
	lower := strings.ToLower(gameCorpus)
	hasResult := false
	for _, sig := range resultSignals {
		if strings.Contains(lower, sig) {
			hasResult = true
			break
		}
	}
	switch {
	case status == match.StatusPostMatch && !hasResult:
		return "consistent posture (post-match lineup over a context with no final result)"
	case status == match.StatusPreMatch && hasResult:
		return "consistent posture (pre-match lineup over a context that already carries a result)"
	}
	return ""
}

// generateSegment runs one segment through the bounded loop:
// generated, then validated into accepted, or rejected and
// regenerated with feedback until the budget is spent.
func (s *Synthesizer) generateSegment(ctx context.Context, l *lineup.Lineup, idx int, ec *enrich.Context, filter *grounding.Filter, sysPrompt, extraNote string) (*SegmentScript, error) {
	seg := &l.Segments[idx]
	supported := supportedFacts(l, idx, ec)

	feedback := extraNote
	attempts := 0
	var result *SegmentScript
	var terminal error

	for state := stateGenerated; ; {
		switch state {
		case stateGenerated:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			raw, err := s.gen.Generate(ctx, buildSegmentPrompt(l, idx, feedback), oracle.Constraints{
				System:    sysPrompt,
				MaxTokens: 4096,
			})
			if err != nil {
				return nil, fmt.Errorf("segment %d (%s): %w", idx, seg.Topic, err)
			}
			attempts++

			lines, parseErr := parseDialogue(oracle.StripMarkdownFences(oracle.StripScratchpad(raw)))
			if parseErr != nil {
				if attempts > maxRegenerations {
					state, terminal = stateFailed, fmt.Errorf("segment %d (%s): %w", idx, seg.Topic, parseErr)
					continue
				}
				feedback = "the transcript format was unreadable, tag every line like [HOST]: ..."
				state = stateRejected
				continue
			}
			result = &SegmentScript{SegmentIndex: idx, Topic: seg.Topic, Lines: lines, Attempts: attempts}

			if violations := filter.CheckText(idx, transcript(lines), supported); len(violations) > 0 {
				if attempts > maxRegenerations {
					state, terminal = stateFailed, &grounding.Failure{
						SegmentIndex: idx,
						Attempts:     maxRegenerations,
						Violations:   violations,
					}
					continue
				}
				feedback = groundingFeedback(violations)
				metrics.Regenerations.WithLabelValues("grounding").Inc()
				s.log.Warn("segment rejected on grounding",
					"segment", idx, "topic", seg.Topic, "attempt", attempts, "violations", len(violations))
				state = stateRejected
				continue
			}

			if v := s.rec.CheckSegment(idx, seg.AllocatedSeconds, result.Words()); v != nil && attempts <= maxRegenerations {
				feedback = fmt.Sprintf("the segment ran %d words against a %d word target, adjust the length", v.ActualWords, v.TargetWords)
				metrics.Regenerations.WithLabelValues("timing").Inc()
				s.log.Warn("segment rejected on timing",
					"segment", idx, "topic", seg.Topic, "attempt", attempts, "words", v.ActualWords, "target", v.TargetWords)
				state = stateRejected
				continue
			}
			// Residual timing drift past the budget is diagnostic,
			// not fatal.
			state = stateAccepted

		case stateRejected:
			state = stateGenerated

		case stateAccepted:
			return result, nil

		case stateFailed:
			return nil, terminal
		}
	}
}

// supportedFacts is the set of texts a segment's dialogue may draw
// concrete claims from: its approved data points, its topic, the
// episode title, and the raw data of the categories it cites.
func supportedFacts(l *lineup.Lineup, idx int, ec *enrich.Context) []string {
	seg := &l.Segments[idx]
	out := make([]string, 0, len(seg.KeyDataPoints)+2+len(seg.SourceDataRefs))
	out = append(out, seg.KeyDataPoints...)
	out = append(out, seg.Topic, l.EpisodeTitle)
	for _, ref := range seg.SourceDataRefs {
		out = append(out, ec.Corpus(enrich.Category(ref)))
	}
	return out
}

func transcript(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func groundingFeedback(violations []*grounding.Violation) string {
	tokens := make([]string, 0, len(violations))
	for _, v := range violations {
		tokens = append(tokens, fmt.Sprintf("%q", v.Token.Text))
	}
	return "these claims have no backing in the segment data, remove or replace them: " + strings.Join(tokens, ", ")
}

// conflictCues are the phrases that mark a genuine on-air dispute.
var conflictCues = []string{
	"disagree", "wrong", "no chance", "come off it", "nonsense",
	"narrative", "can't measure", "numbers don't lie", "not how this works",
	"you're dreaming", "rubbish", "stats are for",
}

// hasConflict scans for an analyst and a fan turn in close proximity
// where at least one side is actually pushing back.
func hasConflict(lines []Line) bool {
	for i := range lines {
		if lines[i].Speaker != RoleAnalyst && lines[i].Speaker != RoleFan {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+3; j++ {
			if lines[j].Speaker == lines[i].Speaker {
				continue
			}
			if lines[j].Speaker != RoleAnalyst && lines[j].Speaker != RoleFan {
				continue
			}
			if containsCue(lines[i].Text) || containsCue(lines[j].Text) {
				return true
			}
		}
	}
	return false
}

func containsCue(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range conflictCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// ensureConflict enforces the on-air dispute requirement. When the
// whole episode lacks one, the closing pitch gets a single targeted
// rewrite asking for it; if that rewrite fails validation the
// original segment stands and the gap is logged.
func (s *Synthesizer) ensureConflict(ctx context.Context, l *lineup.Lineup, ec *enrich.Context, filter *grounding.Filter, sysPrompt string, results []SegmentScript) {
	var all []Line
	for i := range results {
		all = append(all, results[i].Lines...)
	}
	if hasConflict(all) {
		return
	}

	idx := l.FinalTicketIndex()
	if idx < 0 {
		return
	}
	s.log.Warn("no analyst-fan dispute found, rewriting closing pitch")
	metrics.Regenerations.WithLabelValues("conflict").Inc()
	note := "the analyst and the fan must openly disagree about the pick in this segment, with the host settling it"
	redo, err := s.generateSegment(ctx, l, idx, ec, filter, sysPrompt, note)
	if err != nil {
		s.log.Warn("conflict rewrite failed, keeping original closing pitch", "error", err)
		return
	}
	if !hasConflict(redo.Lines) {
		s.log.Warn("conflict rewrite still has no dispute, keeping original closing pitch")
		return
	}
	redo.Attempts += results[idx].Attempts
	results[idx] = *redo
}
