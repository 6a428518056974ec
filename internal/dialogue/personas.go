// Package dialogue turns a planned lineup into a spoken three-voice
// script.
package dialogue

import "fmt"

// Role is a panel seat. Every script uses exactly these three.
type Role string

const (
	RoleHost    Role = "HOST"
	RoleAnalyst Role = "ANALYST"
	RoleFan     Role = "FAN"
)

// Persona describes one panelist for prompting and voice casting.
type Persona struct {
	Name          string
	FullName      string
	Role          Role
	Background    string
	SpeakingStyle string
	Catchphrases  []string
	// SupportsTeam is set for the fan seat only.
	SupportsTeam string
	// VoiceID selects the synthesis voice for this panelist.
	VoiceID string
}

// DefaultHost anchors the show. Keeps the pace, mediates, lands the
// handoffs.
var DefaultHost = Persona{
	Name:     "Maya",
	FullName: "Maya Okafor",
	Role:     RoleHost,
	Background: "Fifteen years fronting live football radio. Has seen every " +
		"derby meltdown and every title-race collapse, and stays warm " +
		"through all of it.",
	SpeakingStyle: "Calibrated enthusiasm. Frames each topic crisply, pulls " +
		"quieter voices in, cuts arguments off one beat before they sour.",
	Catchphrases: []string{
		"Let's get into it.",
		"Hold that thought.",
		"That's the show, people.",
	},
	VoiceID: "TxGEqnHWrfWFTfGW9XjX",
}

// DefaultAnalyst trusts the data over the story. Openly skeptical of
// narrative and of anything that smells like luck.
var DefaultAnalyst = Persona{
	Name:     "Marcus",
	FullName: "Marcus Vale",
	Role:     RoleAnalyst,
	Background: "Ex-performance analyst for two top-flight clubs. Carries a " +
		"laptop of models into every studio and distrusts any claim " +
		"without a number behind it.",
	SpeakingStyle: "Dry, precise, mildly needling. Quotes figures verbatim " +
		"and calls out emotional reasoning when he hears it.",
	Catchphrases: []string{
		"The numbers don't lie.",
		"That's narrative, not evidence.",
		"Show me the sample size.",
	},
	VoiceID: "pNInz6obpgDQGcFmaJgB",
}

// DefaultFan bleeds for his club and argues from the gut. The
// counterweight to Marcus.
var DefaultFan = Persona{
	Name:     "Tommy",
	FullName: "Tommy Brennan",
	Role:     RoleFan,
	Background: "Season-ticket holder since he could walk. Measures games " +
		"in goosebumps, remembers atmospheres better than scorelines.",
	SpeakingStyle: "Loud, warm, fiercely partisan. Interrupts when the " +
		"spreadsheet crowd gets going.",
	Catchphrases: []string{
		"You can't measure heart.",
		"I was there, mate.",
		"Stats are for people who weren't watching.",
	},
	VoiceID: "VR6AewLTigWG4xSOukaG",
}

// Panel is the full three-seat cast of an episode.
type Panel struct {
	Host    Persona
	Analyst Persona
	Fan     Persona
}

// DefaultPanel casts the standard trio, with the fan seat pledged to
// the given team.
func DefaultPanel(fanTeam string) Panel {
	fan := DefaultFan
	fan.SupportsTeam = fanTeam
	return Panel{Host: DefaultHost, Analyst: DefaultAnalyst, Fan: fan}
}

// Validate checks that all three seats are filled with their proper
// roles and the fan has a team to bleed for.
func (p Panel) Validate() error {
	if p.Host.Name == "" || p.Host.Role != RoleHost {
		return fmt.Errorf("host seat is miscast")
	}
	if p.Analyst.Name == "" || p.Analyst.Role != RoleAnalyst {
		return fmt.Errorf("analyst seat is miscast")
	}
	if p.Fan.Name == "" || p.Fan.Role != RoleFan {
		return fmt.Errorf("fan seat is miscast")
	}
	if p.Fan.SupportsTeam == "" {
		return fmt.Errorf("fan seat has no team allegiance")
	}
	return nil
}

// ByRole returns the persona seated in a role.
func (p Panel) ByRole(r Role) (Persona, bool) {
	switch r {
	case RoleHost:
		return p.Host, true
	case RoleAnalyst:
		return p.Analyst, true
	case RoleFan:
		return p.Fan, true
	}
	return Persona{}, false
}

// All returns the panel in speaking-introduction order.
func (p Panel) All() []Persona {
	return []Persona{p.Host, p.Analyst, p.Fan}
}
