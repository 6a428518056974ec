package match

import "time"

// Status is the editorial posture for an episode. It is derived once
// per run and threaded through planning and dialogue unchanged.
type Status string

const (
	StatusPreMatch  Status = "PRE_MATCH"
	StatusPostMatch Status = "POST_MATCH"
)

// DetectStatus classifies a game as pre or post match. Precedence:
// a recorded score or winner always wins, then the backend state
// code, then a kickoff-time heuristic. Anything ambiguous defaults
// to pre-match, which only ever costs us a preview episode instead
// of a recap.
func DetectStatus(g *Game, now time.Time) Status {
	if g.HasScore() {
		return StatusPostMatch
	}
	if g.Winner == WinnerHome || g.Winner == WinnerAway || g.Winner == WinnerDraw {
		return StatusPostMatch
	}
	if g.Statuses.Finished() {
		return StatusPostMatch
	}
	if g.Statuses == StateScheduled {
		return StatusPreMatch
	}
	// No usable state code: assume a standard game is over three
	// hours after kickoff.
	if !g.StartTime.IsZero() && now.After(g.StartTime.Add(3*time.Hour)) {
		return StatusPostMatch
	}
	return StatusPreMatch
}
