// Package timing owns the time-to-words arithmetic for an episode:
// splitting a runtime across segments and checking that generated
// dialogue lands close enough to its target.
package timing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// WordsPerSecond is the assumed spoken pace, 150 words per minute.
const WordsPerSecond = 2.5

// SecondsToWords converts a duration to a spoken word budget.
func SecondsToWords(seconds int) int {
	return int(math.Round(float64(seconds) * WordsPerSecond))
}

// WordCount counts whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Policy fixes the reserved slots and the accepted drift.
type Policy struct {
	IntroSeconds       int
	OutroSeconds       int
	FinalTicketSeconds int
	// TotalTolerance is the accepted relative drift of the whole
	// script; SegmentTolerance applies per segment.
	TotalTolerance   float64
	SegmentTolerance float64
}

// DefaultPolicy reserves 15s intro, 15s outro and a 30s closing
// betting pitch, with 5% total and 10% per-segment drift.
func DefaultPolicy() Policy {
	return Policy{
		IntroSeconds:       15,
		OutroSeconds:       15,
		FinalTicketSeconds: 30,
		TotalTolerance:     0.05,
		SegmentTolerance:   0.10,
	}
}

// FixedSeconds is the runtime consumed by the reserved slots.
func (p Policy) FixedSeconds() int {
	return p.IntroSeconds + p.OutroSeconds + p.FinalTicketSeconds
}

// ErrBudgetExhausted is returned when the requested runtime leaves no
// room for content once the reserved slots are taken out.
var ErrBudgetExhausted = errors.New("timing: runtime too short for reserved slots")

// Reconciler allocates runtime and validates word counts against it.
type Reconciler struct {
	policy Policy
}

func NewReconciler(p Policy) *Reconciler {
	return &Reconciler{policy: p}
}

func (r *Reconciler) Policy() Policy { return r.policy }

// Allocate splits the content budget (total minus reserved slots)
// across len(weights) content segments, proportional to weight. A
// zero weight vector falls back to an equal split. Rounding drift is
// absorbed by the longest segment so the returned values always sum
// to exactly the content budget.
func (r *Reconciler) Allocate(totalSeconds int, weights []int) ([]int, error) {
	if len(weights) == 0 {
		return nil, errors.New("timing: no content segments to allocate")
	}
	budget := totalSeconds - r.policy.FixedSeconds()
	if budget < len(weights) {
		return nil, fmt.Errorf("%w: %ds total leaves %ds for %d segments",
			ErrBudgetExhausted, totalSeconds, budget, len(weights))
	}

	sum := 0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	out := make([]int, len(weights))
	if sum == 0 {
		for i := range out {
			out[i] = budget / len(weights)
		}
	} else {
		for i, w := range weights {
			if w < 0 {
				w = 0
			}
			out[i] = int(math.Round(float64(budget) * float64(w) / float64(sum)))
		}
	}

	allocated := 0
	longest := 0
	for i, s := range out {
		allocated += s
		if s > out[longest] {
			longest = i
		}
	}
	out[longest] += budget - allocated
	if out[longest] < 1 {
		return nil, fmt.Errorf("%w: segment %d collapsed to %ds",
			ErrBudgetExhausted, longest, out[longest])
	}
	return out, nil
}

// Violation reports a word count outside tolerance. It is diagnostic:
// the reconciler never triggers regeneration on its own.
type Violation struct {
	// Scope is "total" or "segment".
	Scope        string
	SegmentIndex int
	TargetWords  int
	ActualWords  int
	Tolerance    float64
}

func (v *Violation) Error() string {
	if v.Scope == "total" {
		return fmt.Sprintf("timing: script is %d words, target %d (±%.0f%%)",
			v.ActualWords, v.TargetWords, v.Tolerance*100)
	}
	return fmt.Sprintf("timing: segment %d is %d words, target %d (±%.0f%%)",
		v.SegmentIndex, v.ActualWords, v.TargetWords, v.Tolerance*100)
}

func within(target, actual int, tol float64) bool {
	if target == 0 {
		return actual == 0
	}
	drift := math.Abs(float64(actual-target)) / float64(target)
	return drift <= tol
}

// CheckTotal validates the whole script's word count against the
// episode runtime. nil means within tolerance.
func (r *Reconciler) CheckTotal(totalSeconds, actualWords int) *Violation {
	target := SecondsToWords(totalSeconds)
	if within(target, actualWords, r.policy.TotalTolerance) {
		return nil
	}
	return &Violation{
		Scope:       "total",
		TargetWords: target,
		ActualWords: actualWords,
		Tolerance:   r.policy.TotalTolerance,
	}
}

// CheckSegment validates one segment's word count against its
// allocated seconds. nil means within tolerance.
func (r *Reconciler) CheckSegment(index, allocatedSeconds, actualWords int) *Violation {
	target := SecondsToWords(allocatedSeconds)
	if within(target, actualWords, r.policy.SegmentTolerance) {
		return nil
	}
	return &Violation{
		Scope:        "segment",
		SegmentIndex: index,
		TargetWords:  target,
		ActualWords:  actualWords,
		Tolerance:    r.policy.SegmentTolerance,
	}
}
