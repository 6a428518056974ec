package lineup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/grounding"
	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/oracle"
	"github.com/pitchside/pitchside/internal/timing"
)

// maxRegenerations bounds how often a rejected plan may be re-asked
// of the oracle before the run fails.
const maxRegenerations = 2

// Planner builds a validated lineup for one game. The oracle proposes
// stories and facts for the template slots; everything structural
// (order, durations, the closing pitch, tone pacing) is decided here.
type Planner struct {
	gen       oracle.Generator
	rec       *timing.Reconciler
	bookmaker string
	log       *slog.Logger
}

func NewPlanner(gen oracle.Generator, rec *timing.Reconciler, bookmaker string, log *slog.Logger) *Planner {
	if bookmaker == "" {
		bookmaker = DefaultBookmaker
	}
	if log == nil {
		log = slog.Default()
	}
	return &Planner{gen: gen, rec: rec, bookmaker: bookmaker, log: log}
}

// planResponse is the wire shape the oracle must return.
type planResponse struct {
	EpisodeTitle       string          `json:"episode_title"`
	StoryScores        []float64       `json:"story_scores"`
	HasExplosiveQuotes bool            `json:"has_explosive_quotes"`
	Segments           []planCandidate `json:"segments"`
}

type planCandidate struct {
	Topic          string   `json:"topic"`
	ToneLevel      int      `json:"tone_level"`
	Priority       int      `json:"priority"`
	KeyDataPoints  []string `json:"key_data_points"`
	SourceDataRefs []string `json:"source_data_refs"`
}

// Plan produces the full episode lineup. It fails with a
// PlanningError when the oracle cannot be reached or understood, and
// a ConstructionError when no structurally valid lineup exists for
// the available data. There is no fallback plan.
func (p *Planner) Plan(ctx context.Context, game *match.Game, ec *enrich.Context, status match.Status, totalSeconds int) (*Lineup, error) {
	if ec.Empty() {
		return nil, &ConstructionError{Reason: "no data category is available for this game"}
	}

	filter := grounding.NewFilter(ec, p.log)

	var resp planResponse
	feedback := ""
	attempts := 0
	for {
		raw, err := p.gen.Generate(ctx, buildPlanPrompt(game, ec, status, feedback), oracle.Constraints{
			System:    planSystemPrompt,
			MaxTokens: 8192,
		})
		if err != nil {
			return nil, &PlanningError{Op: "oracle call", Err: err}
		}
		attempts++

		resp = planResponse{}
		cleaned := oracle.CleanJSON(raw)
		if cleaned == "" {
			return nil, &PlanningError{Op: "response parse", Err: fmt.Errorf("no JSON content in response")}
		}
		if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
			return nil, &PlanningError{Op: "response parse",
				Err: fmt.Errorf("invalid JSON: %w (first 500 chars: %s)", err, oracle.Truncate(cleaned, 500))}
		}

		// A fabricated fact rejects the plan outright: the oracle is
		// re-asked with the offending claims named, never corrected
		// silently here.
		violations := checkCandidates(resp.Segments, ec, filter)
		if len(violations) == 0 {
			break
		}
		if attempts > maxRegenerations {
			return nil, &grounding.Failure{
				SegmentIndex: violations[0].SegmentIndex,
				Attempts:     maxRegenerations,
				Violations:   violations,
			}
		}
		feedback = planFeedback(violations)
		metrics.Regenerations.WithLabelValues("grounding").Inc()
		p.log.Warn("plan rejected on grounding",
			"attempt", attempts, "violations", len(violations), "first", violations[0].Token.Text)
	}

	hook, content := splitHook(p.buildContent(resp.Segments, ec))
	if len(content) == 0 {
		return nil, &ConstructionError{Reason: "no content segments survive the data rule"}
	}
	content = smoothTones(content)

	betting := buildBetting(game, ec, status, p.bookmaker)

	segments := assemble(game, hook, content, betting, p.rec.Policy())
	weights := make([]int, 0, len(content))
	for i := range segments {
		if !segments[i].Fixed() {
			weights = append(weights, segments[i].Weight)
		}
	}
	alloc, err := p.rec.Allocate(totalSeconds, weights)
	if err != nil {
		return nil, &ConstructionError{Reason: err.Error()}
	}
	j := 0
	for i := range segments {
		if segments[i].Fixed() {
			continue
		}
		segments[i].AllocatedSeconds = alloc[j]
		j++
	}
	for i := range segments {
		segments[i].EstimatedWords = timing.SecondsToWords(segments[i].AllocatedSeconds)
		segments[i].ProducerNote = producerNote(&segments[i])
	}

	l := &Lineup{
		EpisodeTitle:  episodeTitle(resp.EpisodeTitle, game, status),
		Status:        status,
		TotalSeconds:  totalSeconds,
		PriorityScore: priorityScore(resp.StoryScores, resp.HasExplosiveQuotes),
		Segments:      segments,
		Betting:       betting,
		Policy:        p.rec.Policy(),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	p.log.Info("lineup planned",
		"title", l.EpisodeTitle,
		"status", string(status),
		"segments", len(l.Segments),
		"priority", l.PriorityScore)
	return l, nil
}

// checkCandidates runs the fact check over every proposed segment's
// data points against the categories it cites. The verdict is
// pass-through: violations reject the whole plan, nothing is edited.
func checkCandidates(candidates []planCandidate, ec *enrich.Context, filter *grounding.Filter) []*grounding.Violation {
	var out []*grounding.Violation
	for i, c := range candidates {
		points := trimmedPoints(c.KeyDataPoints)
		if len(points) == 0 {
			continue
		}
		out = append(out, filter.CheckText(i, strings.Join(points, "\n"), candidateCorpus(c, ec))...)
	}
	return out
}

// candidateCorpus is the data a candidate's claims may draw on: the
// categories it cites, or everything available when it cites none.
func candidateCorpus(c planCandidate, ec *enrich.Context) []string {
	var corpus []string
	for _, ref := range normalizeRefs(c.SourceDataRefs, ec) {
		corpus = append(corpus, ec.Corpus(enrich.Category(ref)))
	}
	if len(corpus) == 0 {
		for _, cat := range ec.AvailableCategories() {
			corpus = append(corpus, ec.Corpus(cat))
		}
	}
	return corpus
}

func planFeedback(violations []*grounding.Violation) string {
	tokens := make([]string, 0, len(violations))
	for _, v := range violations {
		tokens = append(tokens, fmt.Sprintf("%q", v.Token.Text))
	}
	return "these claims have no backing in the retrieved data, remove or replace them: " + strings.Join(tokens, ", ")
}

// buildContent converts fact-checked oracle candidates into content
// segments, enforcing the rule that a segment ships real data or not
// at all: a candidate the oracle returned empty is dropped, never
// padded with placeholders.
func (p *Planner) buildContent(candidates []planCandidate, ec *enrich.Context) []Segment {
	var out []Segment
	for _, c := range candidates {
		refs := normalizeRefs(c.SourceDataRefs, ec)
		points := trimmedPoints(c.KeyDataPoints)
		if len(points) == 0 {
			p.log.Warn("dropping segment with no backed data points", "topic", c.Topic)
			metrics.SegmentsDropped.Inc()
			continue
		}
		weight := c.Priority
		if weight < 1 || weight > 100 {
			weight = DefaultWeight
		}
		out = append(out, Segment{
			Topic:          c.Topic,
			Kind:           KindContent,
			ToneLevel:      clampTone(c.ToneLevel),
			Weight:         weight,
			KeyDataPoints:  points,
			SourceDataRefs: refs,
		})
	}
	return out
}

func trimmedPoints(points []string) []string {
	var out []string
	for _, pt := range points {
		if pt = strings.TrimSpace(pt); pt != "" {
			out = append(out, pt)
		}
	}
	return out
}

// splitHook pulls the opening hook candidate out of the content run:
// it fills the fixed intro slot rather than running as content.
func splitHook(content []Segment) (*Segment, []Segment) {
	for i := range content {
		if !strings.EqualFold(content[i].Topic, HookTopic) {
			continue
		}
		hook := content[i]
		rest := make([]Segment, 0, len(content)-1)
		rest = append(rest, content[:i]...)
		rest = append(rest, content[i+1:]...)
		return &hook, rest
	}
	return nil, content
}

func normalizeRefs(refs []string, ec *enrich.Context) []string {
	var out []string
	for _, r := range refs {
		cat := enrich.Category(strings.ToLower(strings.TrimSpace(r)))
		if ec.Available(cat) {
			out = append(out, string(cat))
		}
	}
	return out
}

func clampTone(t int) int {
	if t < ToneMin {
		return ToneMin
	}
	if t > ToneMax {
		return ToneMax
	}
	return t
}

// smoothTones inserts a short bridge between adjacent content
// segments whose tone gap exceeds the limit. The bridge tone is the
// midpoint, rounded toward the earlier segment, and the bridge weight
// is small so it borrows little runtime.
func smoothTones(content []Segment) []Segment {
	out := make([]Segment, 0, len(content))
	for i := range content {
		if i > 0 {
			prev := out[len(out)-1]
			gap := content[i].ToneLevel - prev.ToneLevel
			if gap < 0 {
				gap = -gap
			}
			if gap > MaxToneGap {
				out = append(out, bridge(prev.ToneLevel, content[i].ToneLevel))
			}
		}
		out = append(out, content[i])
	}
	return out
}

func bridge(from, to int) Segment {
	mid := (from + to) / 2
	if from > to {
		mid = (from + to + 1) / 2
	}
	return Segment{
		Topic:        BridgeTopic,
		Kind:         KindBridge,
		ToneLevel:    clampTone(mid),
		Weight:       10,
		ProducerNote: fmt.Sprintf("ease the room from %s to %s", ToneLabel(from), ToneLabel(to)),
	}
}

// buildBetting derives the closing pitch from retrieved data only.
// Pre-match it sells the current market; post-match it points at the
// winner's next fixture. Missing data is framed honestly, never
// papered over with an invented selection.
func buildBetting(game *match.Game, ec *enrich.Context, status match.Status, bookmaker string) BettingConfig {
	cfg := BettingConfig{Bookmaker: bookmaker, TargetMarket: "Full-time Result"}

	if status == match.StatusPostMatch {
		winner := game.WinnerTeam()
		next, ok := ec.Value(enrich.CategoryNextMatch)
		if winner == nil || !ok {
			cfg.Unavailable = true
			return cfg
		}
		nm, ok := next.(*match.NextMatch)
		if !ok || nm.Opponent == "" {
			cfg.Unavailable = true
			return cfg
		}
		cfg.NextOpponent = nm.Opponent
		cfg.PredictionContext = fmt.Sprintf("%s carry this result into their meeting with %s", winner.Name, nm.Opponent)
		if nm.Odds != nil && len(nm.Odds.Options) > 0 {
			cfg.TargetMarket = nm.Odds.Market
			applyOdds(&cfg, nm.Odds)
		}
		return cfg
	}

	if !ec.Available(enrich.CategoryOdds) || game.MainOdds == nil || len(game.MainOdds.Options) == 0 {
		cfg.Unavailable = true
		return cfg
	}
	cfg.TargetMarket = game.MainOdds.Market
	applyOdds(&cfg, game.MainOdds)
	return cfg
}

// applyOdds records the shortest-priced selection and its movement.
func applyOdds(cfg *BettingConfig, line *match.BetLine) {
	best := line.Options[0]
	for _, o := range line.Options[1:] {
		if o.Rate > 0 && (best.Rate <= 0 || o.Rate < best.Rate) {
			best = o
		}
	}
	cfg.CurrentOdds = fmt.Sprintf("%s @ %.2f", best.Name, best.Rate)
	if best.OriginalRate > 0 && best.OriginalRate != best.Rate {
		cfg.OriginalOdds = fmt.Sprintf("%.2f", best.OriginalRate)
	}
	switch {
	case best.Trend > 0:
		cfg.Trend = "↑"
	case best.Trend < 0:
		cfg.Trend = "↓"
	default:
		cfg.Trend = "→"
	}
}

// assemble wraps the content run with the fixed slots and wires the
// closing pitch to its data so later fact checks can vouch for it.
// The opening hook doubles as the intro: the slot exists regardless of
// data richness, carrying the fixture identity when the oracle had
// nothing for it.
func assemble(game *match.Game, hook *Segment, content []Segment, betting BettingConfig, policy timing.Policy) []Segment {
	intro := Segment{
		Topic:            HookTopic,
		Kind:             KindIntro,
		ToneLevel:        introTone,
		AllocatedSeconds: policy.IntroSeconds,
		KeyDataPoints:    []string{game.Title(), game.Competition},
		SourceDataRefs:   []string{string(enrich.CategoryGame)},
	}
	if hook != nil {
		intro.Topic = hook.Topic
		intro.KeyDataPoints = hook.KeyDataPoints
		intro.SourceDataRefs = hook.SourceDataRefs
	}
	outro := Segment{
		Topic:            "Outro",
		Kind:             KindOutro,
		ToneLevel:        outroTone,
		AllocatedSeconds: policy.OutroSeconds,
		KeyDataPoints:    []string{game.Title()},
		SourceDataRefs:   []string{string(enrich.CategoryGame)},
	}
	ticket := Segment{
		Topic:            FinalTicketTopic,
		Kind:             KindFinalTicket,
		ToneLevel:        ticketTone,
		AllocatedSeconds: policy.FinalTicketSeconds,
		KeyDataPoints:    ticketDataPoints(betting),
		SourceDataRefs:   []string{string(enrich.CategoryOdds), string(enrich.CategoryNextMatch)},
	}

	out := make([]Segment, 0, len(content)+3)
	out = append(out, intro)
	out = append(out, content...)
	out = append(out, ticket, outro)
	return out
}

func ticketDataPoints(b BettingConfig) []string {
	pts := []string{b.Bookmaker, b.TargetMarket}
	if b.Unavailable {
		pts = append(pts, "betting data unavailable for this fixture")
		return pts
	}
	if b.CurrentOdds != "" {
		pts = append(pts, b.CurrentOdds)
	}
	if b.OriginalOdds != "" {
		pts = append(pts, "opened at "+b.OriginalOdds)
	}
	if b.NextOpponent != "" {
		pts = append(pts, "next up against "+b.NextOpponent)
	}
	if b.PredictionContext != "" {
		pts = append(pts, b.PredictionContext)
	}
	return pts
}

func episodeTitle(fromOracle string, game *match.Game, status match.Status) string {
	if t := strings.TrimSpace(fromOracle); t != "" {
		return t
	}
	if status == match.StatusPostMatch {
		return game.Title() + ": Full-Time Report"
	}
	return game.Title() + ": The Preview"
}

// priorityScore grades how hot the episode is: the mean of the top
// three story scores, with a bonus for quotable material.
func priorityScore(scores []float64, explosiveQuotes bool) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}
	sum := 0.0
	for _, s := range sorted {
		sum += s
	}
	score := sum / float64(len(sorted))
	if explosiveQuotes {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return math.Round(score*10) / 10
}
