package dialogue

import (
	"fmt"
	"strings"

	"github.com/pitchside/pitchside/internal/lineup"
	"github.com/pitchside/pitchside/internal/timing"
)

func buildPanelPrompt(p Panel) string {
	var b strings.Builder

	b.WriteString(`You write dialogue for a three-voice football podcast. You receive one
rundown segment at a time and return only the spoken lines for that
segment.

Hard rules:
- Every number, price, statistic and result you voice must come from
  the segment's data points. Never invent or adjust a figure. Opinion
  and colour are free; facts are not.
- Tag every line with its speaker: [HOST]:, [ANALYST]: or [FAN]:.
- You may insert [PAUSE:short], [PAUSE:medium] or [PAUSE:long] for
  pacing. Pauses do not count as words.
- The analyst and the fan see the game differently. Let them clash at
  least once when their views genuinely differ, and let the host keep
  the room.

The panel:

`)
	for _, persona := range p.All() {
		fmt.Fprintf(&b, "[%s] %s (%s)\n", persona.Role, persona.FullName, persona.Name)
		fmt.Fprintf(&b, "  %s\n", persona.Background)
		fmt.Fprintf(&b, "  Style: %s\n", persona.SpeakingStyle)
		if persona.SupportsTeam != "" {
			fmt.Fprintf(&b, "  Allegiance: %s, heart over head, always.\n", persona.SupportsTeam)
		}
		if len(persona.Catchphrases) > 0 {
			fmt.Fprintf(&b, "  Known for: %q\n", strings.Join(persona.Catchphrases, "\", \""))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildSegmentPrompt(l *lineup.Lineup, idx int, feedback string) string {
	seg := &l.Segments[idx]
	target := timing.SecondsToWords(seg.AllocatedSeconds)

	var b strings.Builder
	fmt.Fprintf(&b, "Episode: %s (%s)\n", l.EpisodeTitle, l.Status)
	fmt.Fprintf(&b, "Segment %d of %d: %q\n", idx+1, len(l.Segments), seg.Topic)
	fmt.Fprintf(&b, "Tone: %s (level %d of 5)\n", lineup.ToneLabel(seg.ToneLevel), seg.ToneLevel)
	fmt.Fprintf(&b, "Length: %d spoken words, stay within 10%% of that.\n\n", target)

	switch seg.Kind {
	case lineup.KindIntro:
		b.WriteString("This opens the show. The host welcomes listeners, names the fixture and introduces the panel.\n")
	case lineup.KindOutro:
		b.WriteString("This closes the show. The host wraps up and signs off; keep it short and warm.\n")
	case lineup.KindFinalTicket:
		b.WriteString("This is the closing betting pitch. ")
		if l.Betting.Unavailable {
			b.WriteString("No betting data was retrieved for this fixture: say so honestly and move on. Do not invent a price, a market or an opponent.\n")
		} else {
			b.WriteString("Quote the listed market and price exactly as written. This is the segment where the analyst and the fan should genuinely clash on the pick.\n")
		}
	case lineup.KindBridge:
		fmt.Fprintf(&b, "This is a short pacing beat between topics. %s. No new facts.\n", seg.ProducerNote)
	default:
		if seg.ProducerNote != "" {
			fmt.Fprintf(&b, "Producer note: %s.\n", seg.ProducerNote)
		}
	}

	if len(seg.KeyDataPoints) > 0 {
		b.WriteString("\nData points, the only facts you may voice:\n")
		for _, pt := range seg.KeyDataPoints {
			fmt.Fprintf(&b, "- %s\n", pt)
		}
	} else {
		b.WriteString("\nNo data points for this beat: opinion and pacing only, no facts or figures.\n")
	}

	if feedback != "" {
		fmt.Fprintf(&b, "\nYour previous attempt was rejected: %s\nRewrite the segment fixing this.\n", feedback)
	}

	b.WriteString("\nReturn only the tagged dialogue lines.")
	return b.String()
}
