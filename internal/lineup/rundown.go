package lineup

import (
	"fmt"
	"strings"
)

// producerNote writes the one-line steer a segment hands the studio.
// Content notes key off what the leading data point is about.
func producerNote(s *Segment) string {
	switch s.Kind {
	case KindIntro:
		return "welcome the room, name the fixture, set the table"
	case KindOutro:
		return "thank the panel, tease the next episode, out clean"
	case KindFinalTicket:
		return "hand to the closing pitch, stick to the quoted numbers"
	case KindBridge:
		if s.ProducerNote != "" {
			return s.ProducerNote
		}
		return "reset the energy before the next block"
	}

	lead := ""
	if len(s.KeyDataPoints) > 0 {
		lead = strings.ToLower(s.KeyDataPoints[0])
	}
	switch {
	case strings.Contains(lead, "lineup") || strings.Contains(lead, "starting"):
		return "walk through the team news before opinions"
	case strings.Contains(lead, "injur") || strings.Contains(lead, "suspend"):
		return "lead with the absentees and what they cost"
	case strings.Contains(lead, "odds") || strings.Contains(lead, "@"):
		return "quote the market exactly as retrieved"
	case strings.Contains(lead, "form") || strings.Contains(lead, "streak") || strings.Contains(lead, "unbeaten"):
		return "let the form line carry the argument"
	case strings.Contains(lead, "score") || strings.Contains(lead, "goal"):
		return "anchor every claim to the scoreline"
	}
	return "build the block around the listed data points"
}

// HumanRundown renders the lineup the way it would be pinned up in a
// production studio, for operator review before synthesis.
func (l *Lineup) HumanRundown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "EPISODE RUNDOWN: %s\n", l.EpisodeTitle)
	fmt.Fprintf(&b, "Posture %s | Runtime %ds | Priority %.1f\n", l.Status, l.TotalSeconds, l.PriorityScore)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i := range l.Segments {
		s := &l.Segments[i]
		fmt.Fprintf(&b, "%2d. %s  [%ds / ~%d words]  tone: %s\n",
			i+1, s.Topic, s.AllocatedSeconds, s.EstimatedWords, ToneLabel(s.ToneLevel))
		for _, pt := range s.KeyDataPoints {
			fmt.Fprintf(&b, "      - %s\n", pt)
		}
		if s.ProducerNote != "" {
			fmt.Fprintf(&b, "      note: %s\n", s.ProducerNote)
		}
		b.WriteString("\n")
	}

	b.WriteString("CLOSING PITCH\n")
	fmt.Fprintf(&b, "  bookmaker: %s | market: %s\n", l.Betting.Bookmaker, l.Betting.TargetMarket)
	if l.Betting.Unavailable {
		b.WriteString("  no betting data retrieved, frame the segment around the gap\n")
	} else {
		if l.Betting.CurrentOdds != "" {
			fmt.Fprintf(&b, "  current: %s", l.Betting.CurrentOdds)
			if l.Betting.Trend != "" {
				fmt.Fprintf(&b, " %s", l.Betting.Trend)
			}
			if l.Betting.OriginalOdds != "" {
				fmt.Fprintf(&b, " (opened %s)", l.Betting.OriginalOdds)
			}
			b.WriteString("\n")
		}
		if l.Betting.NextOpponent != "" {
			fmt.Fprintf(&b, "  next fixture: vs %s\n", l.Betting.NextOpponent)
		}
	}
	return b.String()
}
