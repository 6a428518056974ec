// Package match holds the core game model shared by the retrieval,
// planning and dialogue layers.
package match

import (
	"fmt"
	"time"
)

// Winner encodes the outcome of a finished game.
type Winner int

const (
	WinnerUnknown Winner = iota - 1
	WinnerDraw
	WinnerHome
	WinnerAway
)

// Team is one side of a game.
type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	// RecentForm is the last results newest-first, e.g. "WWDLW".
	RecentForm string `json:"recent_form,omitempty"`
}

// Venue is where the game is played.
type Venue struct {
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// Event is a single in-game incident (goal, card, substitution).
type Event struct {
	Minute int    `json:"minute"`
	Type   string `json:"type"`
	Team   string `json:"team"`
	Player string `json:"player,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// BetOption is one selection within a market, with its price history.
type BetOption struct {
	Name         string  `json:"name"`
	Rate         float64 `json:"rate"`
	OriginalRate float64 `json:"original_rate,omitempty"`
	// Trend is -1 drifting, 0 steady, 1 shortening.
	Trend int  `json:"trend"`
	Won   bool `json:"won,omitempty"`
}

// BetLine is a betting market attached to a game.
type BetLine struct {
	Market  string      `json:"market"`
	Options []BetOption `json:"options"`
}

// Game is the full record for a single fixture as returned by the
// scores backend, before enrichment.
type Game struct {
	ID          int64     `json:"id"`
	Competition string    `json:"competition"`
	Round       string    `json:"round,omitempty"`
	StartTime   time.Time `json:"start_time"`
	HomeTeam    Team      `json:"home_team"`
	AwayTeam    Team      `json:"away_team"`
	Venue       *Venue    `json:"venue,omitempty"`

	// HomeScore and AwayScore are nil until the game has a result.
	HomeScore *int   `json:"home_score,omitempty"`
	AwayScore *int   `json:"away_score,omitempty"`
	Winner    Winner `json:"winner"`

	Events   []Event   `json:"events,omitempty"`
	MainOdds *BetLine  `json:"main_odds,omitempty"`
	Lineups  []string  `json:"lineups,omitempty"`
	Statuses GameState `json:"state"`
}

// GameState mirrors the backend's numeric status codes.
type GameState int

const (
	StateScheduled GameState = 0
	StateFinished  GameState = 1
	StateActive    GameState = 2
	StateJustEnded GameState = 163
)

// Finished reports whether the state code denotes a completed game.
// The backend reserves the 90..200 band for post-game states.
func (s GameState) Finished() bool {
	if s == StateFinished {
		return true
	}
	return s >= 90 && s <= 200
}

// Title is the canonical "Home vs Away" label for the fixture.
func (g *Game) Title() string {
	return fmt.Sprintf("%s vs %s", g.HomeTeam.Name, g.AwayTeam.Name)
}

// HasScore reports whether both sides carry a final score.
func (g *Game) HasScore() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// WinnerTeam resolves the winning side, or nil for a draw or an
// unfinished game.
func (g *Game) WinnerTeam() *Team {
	switch g.Winner {
	case WinnerHome:
		return &g.HomeTeam
	case WinnerAway:
		return &g.AwayTeam
	}
	return nil
}

// NextMatch is the winning team's upcoming fixture, used for the
// closing betting pitch after a finished game.
type NextMatch struct {
	Opponent  string    `json:"opponent"`
	StartTime time.Time `json:"start_time"`
	Odds      *BetLine  `json:"odds,omitempty"`
}
