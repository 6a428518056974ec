// Package lineup plans the editorial rundown for one episode: which
// segments run, in what order, at what tone, for how long, backed by
// which data. Every number here is settled before a single line of
// dialogue is written.
package lineup

import (
	"fmt"
	"strings"

	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/timing"
)

// Kind classifies a segment's structural role.
type Kind string

const (
	KindIntro       Kind = "intro"
	KindContent     Kind = "content"
	KindBridge      Kind = "bridge"
	KindFinalTicket Kind = "final_ticket"
	KindOutro       Kind = "outro"
)

// Tone levels run 1 (cold analysis) to 5 (high octane). Adjacent
// segments may never differ by more than MaxToneGap.
const (
	ToneMin    = 1
	ToneMax    = 5
	MaxToneGap = 2
)

var toneLabels = map[int]string{
	1: "Cold Analysis",
	2: "Measured",
	3: "Conversational",
	4: "Charged",
	5: "High Octane",
}

// ToneLabel names a tone level for rundowns and prompts.
func ToneLabel(level int) string {
	if l, ok := toneLabels[level]; ok {
		return l
	}
	return fmt.Sprintf("Tone %d", level)
}

// DefaultWeight is the importance assigned to a segment the oracle
// did not score.
const DefaultWeight = 50

// Segment is one planned block of the episode.
type Segment struct {
	Topic            string   `json:"topic"`
	Kind             Kind     `json:"kind"`
	ToneLevel        int      `json:"tone_level"`
	Weight           int      `json:"weight"`
	AllocatedSeconds int      `json:"allocated_seconds"`
	EstimatedWords   int      `json:"estimated_words"`
	KeyDataPoints    []string `json:"key_data_points"`
	SourceDataRefs   []string `json:"source_data_refs"`
	ProducerNote     string   `json:"producer_note,omitempty"`
}

// Fixed reports whether the segment occupies a reserved slot with a
// fixed duration.
func (s *Segment) Fixed() bool {
	switch s.Kind {
	case KindIntro, KindOutro, KindFinalTicket:
		return true
	}
	return false
}

// RequiresData reports whether the segment falls under the rule that
// a segment without backing data points must be dropped. Bridges are
// pacing devices and exempt.
func (s *Segment) RequiresData() bool {
	return s.Kind == KindContent
}

// DefaultBookmaker is the platform label used when no bookmaker is
// configured.
const DefaultBookmaker = "365Scores"

// BettingConfig feeds the closing betting pitch. It is built
// deterministically from retrieved odds, never by the oracle.
type BettingConfig struct {
	Bookmaker    string `json:"bookmaker"`
	TargetMarket string `json:"target_market"`
	CurrentOdds  string `json:"current_odds,omitempty"`
	OriginalOdds string `json:"original_odds,omitempty"`
	// Trend is "↑" shortening, "↓" drifting, "→" steady.
	Trend             string `json:"trend,omitempty"`
	PredictionContext string `json:"prediction_context,omitempty"`
	// NextOpponent is set post-match when the winner's upcoming
	// fixture is known.
	NextOpponent string `json:"next_opponent,omitempty"`
	// Unavailable marks a pitch with no usable betting data; the
	// segment still runs, framed around the gap, and no selection
	// or opponent may be invented.
	Unavailable bool `json:"unavailable"`
}

// Lineup is the complete plan for one episode.
type Lineup struct {
	EpisodeTitle  string         `json:"episode_title"`
	Status        match.Status   `json:"status"`
	TotalSeconds  int            `json:"total_seconds"`
	PriorityScore float64        `json:"priority_score"`
	Segments      []Segment      `json:"segments"`
	Betting       BettingConfig  `json:"betting"`
	Policy        timing.Policy  `json:"-"`
}

// ContentSegments returns the indices of non-fixed segments in order.
func (l *Lineup) ContentSegments() []int {
	var out []int
	for i := range l.Segments {
		if !l.Segments[i].Fixed() {
			out = append(out, i)
		}
	}
	return out
}

// FinalTicketIndex returns the index of the closing betting pitch,
// or -1 when absent.
func (l *Lineup) FinalTicketIndex() int {
	for i := range l.Segments {
		if l.Segments[i].Kind == KindFinalTicket {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants. Any breach is a
// ConstructionError: lineups are rebuilt, never patched downstream.
func (l *Lineup) Validate() error {
	n := len(l.Segments)
	if n < 4 {
		return &ConstructionError{Reason: fmt.Sprintf("lineup has %d segments, need intro, content, closing pitch and outro", n)}
	}
	if l.Segments[0].Kind != KindIntro {
		return &ConstructionError{Reason: "first segment is not the intro"}
	}
	if l.Segments[n-1].Kind != KindOutro {
		return &ConstructionError{Reason: "last segment is not the outro"}
	}
	tickets := 0
	for i := range l.Segments {
		if l.Segments[i].Kind == KindFinalTicket {
			tickets++
			if i != n-2 {
				return &ConstructionError{Reason: fmt.Sprintf("closing betting pitch at position %d, must be second to last", i)}
			}
		}
	}
	if tickets != 1 {
		return &ConstructionError{Reason: fmt.Sprintf("lineup has %d closing betting pitches, need exactly one", tickets)}
	}
	if len(l.ContentSegments()) == 0 {
		return &ConstructionError{Reason: "lineup has no content segments"}
	}

	sum := 0
	for i := range l.Segments {
		seg := &l.Segments[i]
		sum += seg.AllocatedSeconds
		if seg.ToneLevel < ToneMin || seg.ToneLevel > ToneMax {
			return &ConstructionError{Reason: fmt.Sprintf("segment %d tone %d out of range", i, seg.ToneLevel)}
		}
		if seg.RequiresData() && len(seg.KeyDataPoints) == 0 {
			return &ConstructionError{Reason: fmt.Sprintf("segment %d (%s) has no backing data points", i, seg.Topic)}
		}
		if i > 0 {
			gap := seg.ToneLevel - l.Segments[i-1].ToneLevel
			if gap < 0 {
				gap = -gap
			}
			if gap > MaxToneGap {
				return &ConstructionError{Reason: fmt.Sprintf("tone jump of %d between segments %d and %d", gap, i-1, i)}
			}
		}
	}
	if sum != l.TotalSeconds {
		return &ConstructionError{Reason: fmt.Sprintf("segments sum to %ds, episode runtime is %ds", sum, l.TotalSeconds)}
	}
	return nil
}

// PlanningError wraps a failure to obtain or understand the oracle's
// plan. There is no fallback lineup: the run stops here.
type PlanningError struct {
	Op  string
	Err error
}

func (e *PlanningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("planning failed during %s", e.Op)
	}
	return fmt.Sprintf("planning failed during %s: %v", e.Op, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// ConstructionError reports a structurally invalid lineup.
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string {
	return "lineup construction: " + e.Reason
}

// Summary is a one-line description for logs.
func (l *Lineup) Summary() string {
	topics := make([]string, 0, len(l.Segments))
	for i := range l.Segments {
		topics = append(topics, l.Segments[i].Topic)
	}
	return fmt.Sprintf("%s [%s] %ds: %s", l.EpisodeTitle, l.Status, l.TotalSeconds, strings.Join(topics, " | "))
}
