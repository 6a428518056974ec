package lineup

import (
	"fmt"
	"strings"

	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/grounding"
	"github.com/pitchside/pitchside/internal/match"
)

const planSystemPrompt = `You are the planning producer for a football podcast. You are handed
retrieved match data and an editorial template, and you decide which
stories fill each template slot.

Hard rules:
- Every key_data_point must quote the retrieved data. Never invent a
  number, a name, or a result. If the data does not support a slot,
  return that slot with an empty key_data_points array.
- source_data_refs lists the data sections each segment draws from.
- priority is 1-100: how much of the episode the segment deserves.
- Respond with a single JSON object and nothing else.`

func buildPlanPrompt(game *match.Game, ec *enrich.Context, status match.Status, feedback string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fixture: %s (%s)\n", game.Title(), game.Competition)
	fmt.Fprintf(&b, "Episode posture: %s\n\n", status)

	b.WriteString("# Retrieved data\n\n")
	b.WriteString(grounding.PromptContext(ec))
	b.WriteString("\n\n# Template slots\n\n")
	for i, a := range Template(status) {
		fmt.Fprintf(&b, "%d. %q (suggested tone %d, %s): %s\n", i+1, a.Topic, a.Tone, ToneLabel(a.Tone), a.Brief)
	}

	b.WriteString(`
# Response format

{
  "episode_title": "string",
  "story_scores": [0-100 per major storyline, strongest first],
  "has_explosive_quotes": bool,
  "segments": [
    {
      "topic": "template slot name",
      "tone_level": 1-5,
      "priority": 1-100,
      "key_data_points": ["verbatim facts from the retrieved data"],
      "source_data_refs": ["data section names"]
    }
  ]
}`)

	if feedback != "" {
		b.WriteString("\n\n# Correction\n\nYour previous plan was rejected. ")
		b.WriteString(feedback)
	}
	return b.String()
}
