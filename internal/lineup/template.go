package lineup

import "github.com/pitchside/pitchside/internal/match"

// Archetype is one slot in the editorial template. The oracle fills
// archetypes with facts; it does not choose them.
type Archetype struct {
	Topic string
	Tone  int
	// Brief tells the oracle what the slot is for.
	Brief string
}

// HookTopic names the opening slot. The hook doubles as the episode
// intro: the planner folds the oracle's hook candidate into the fixed
// first segment rather than running a separate cold open.
const HookTopic = "The Hook"

var preMatchTemplate = []Archetype{
	{Topic: HookTopic, Tone: 4, Brief: "why this game matters right now, the single most compelling storyline"},
	{Topic: "The Contextual Landscape", Tone: 2, Brief: "table positions, stakes, what each side is playing for"},
	{Topic: "Personnel Report", Tone: 3, Brief: "lineups, injuries, suspensions, who is actually on the pitch"},
	{Topic: "The X-Factor", Tone: 4, Brief: "the player or tactical wrinkle most likely to decide it"},
	{Topic: "Smart Money", Tone: 3, Brief: "form lines, trends and market movement worth knowing"},
}

var postMatchTemplate = []Archetype{
	{Topic: HookTopic, Tone: 4, Brief: "the final score and the one-sentence story of the game"},
	{Topic: "Key Moments", Tone: 4, Brief: "the goals, decisions and swings that settled it"},
	{Topic: "Statistical Breakdown", Tone: 2, Brief: "what the numbers say about how it was actually won"},
	{Topic: "Man of the Match", Tone: 3, Brief: "the standout individual performance"},
	{Topic: "League Impact", Tone: 3, Brief: "what the result changes in the table and the race"},
}

// Template returns the content archetypes for an episode posture.
// The first archetype fills the fixed intro slot; the closing betting
// pitch and outro are not listed, the planner adds them.
func Template(status match.Status) []Archetype {
	if status == match.StatusPostMatch {
		return postMatchTemplate
	}
	return preMatchTemplate
}

// Fixed slot properties. The intro and closing pitch sit at tone 3
// and the outro at tone 2, so boundaries to content segments can
// never breach the tone gap rule on their own.
const (
	introTone  = 3
	ticketTone = 3
	outroTone  = 2
)

// FinalTicketTopic is the on-air name of the closing betting pitch.
const FinalTicketTopic = "The Final Ticket"

// BridgeTopic names an inserted pacing segment.
const BridgeTopic = "Change of Pace"
