package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/lineup"
	"github.com/pitchside/pitchside/internal/match"
)

// Enricher assembles the enriched context for one game. Categories
// that cannot be retrieved are recorded as unavailable; the enricher
// never fails a run over a missing side dish.
type Enricher struct {
	fetcher *Fetcher
	news    *NewsReader
	log     *slog.Logger
}

func NewEnricher(fetcher *Fetcher, news *NewsReader, log *slog.Logger) *Enricher {
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{fetcher: fetcher, news: news, log: log}
}

// Enrich builds the context for a game in the given posture. newsURLs
// lists coverage to fold in; it may be empty.
func (e *Enricher) Enrich(ctx context.Context, game *match.Game, status match.Status, newsURLs []string) (*enrich.Context, error) {
	values := map[enrich.Category]any{
		enrich.CategoryGame: gameSummary(game, status),
	}

	if form := formSummary(game); form != "" {
		values[enrich.CategoryForm] = form
	}
	if status == match.StatusPreMatch && len(game.Lineups) > 0 {
		values[enrich.CategoryLineups] = game.Lineups
	}
	if game.MainOdds != nil && len(game.MainOdds.Options) > 0 {
		values[enrich.CategoryOdds] = game.MainOdds
	}

	if standings, err := e.fetcher.Standings(ctx, game.ID); err != nil {
		e.log.Warn("standings unavailable", "game", game.ID, "error", err)
	} else if len(standings) > 0 {
		values[enrich.CategoryStandings] = standings
	}

	if trends, err := e.fetcher.Trends(ctx, game.ID); err != nil {
		e.log.Warn("trends unavailable", "game", game.ID, "error", err)
	} else if len(trends) > 0 {
		values[enrich.CategoryTrends] = trends
	}

	if len(newsURLs) > 0 {
		if articles := e.news.ReadAll(ctx, newsURLs); len(articles) > 0 {
			values[enrich.CategoryNews] = articles
		} else {
			e.log.Warn("no readable coverage extracted", "game", game.ID, "urls", len(newsURLs))
		}
	}

	if status == match.StatusPostMatch {
		if winner := game.WinnerTeam(); winner != nil {
			nm, err := e.fetcher.NextMatch(ctx, winner.ID)
			switch {
			case err != nil:
				e.log.Warn("next match unavailable", "team", winner.Name, "error", err)
			case nm != nil:
				values[enrich.CategoryNextMatch] = nm
			}
		}
	}

	names := knownNames(game, values)
	return enrich.NewContext(values, names)
}

// gameSummary renders the fixture facts appropriate to the posture.
// A preview never carries the result; a recap never carries the
// projected lineups.
func gameSummary(g *match.Game, status match.Status) map[string]any {
	out := map[string]any{
		"fixture":     g.Title(),
		"competition": g.Competition,
		"home_team":   g.HomeTeam.Name,
		"away_team":   g.AwayTeam.Name,
		"kickoff":     g.StartTime,
	}
	if g.Round != "" {
		out["round"] = g.Round
	}
	if g.Venue != nil {
		out["venue"] = g.Venue.Name
	}
	if status == match.StatusPostMatch {
		out["progress"] = "full time"
		if g.HasScore() {
			out["final_score"] = fmt.Sprintf("%s %d-%d %s",
				g.HomeTeam.Name, *g.HomeScore, *g.AwayScore, g.AwayTeam.Name)
		}
		if w := g.WinnerTeam(); w != nil {
			out["winner"] = w.Name
		} else if g.Winner == match.WinnerDraw {
			out["winner"] = "draw"
		}
		if len(g.Events) > 0 {
			out["events"] = g.Events
		}
	}
	return out
}

func formSummary(g *match.Game) string {
	home, away := g.HomeTeam.RecentForm, g.AwayTeam.RecentForm
	switch {
	case home != "" && away != "":
		return fmt.Sprintf("%s recent form: %s. %s recent form: %s.",
			g.HomeTeam.Name, home, g.AwayTeam.Name, away)
	case home != "":
		return fmt.Sprintf("%s recent form: %s.", g.HomeTeam.Name, home)
	case away != "":
		return fmt.Sprintf("%s recent form: %s.", g.AwayTeam.Name, away)
	}
	return ""
}

// knownNames collects the proper nouns the context can vouch for,
// used downstream to separate fact tokens from colour.
func knownNames(g *match.Game, values map[enrich.Category]any) []string {
	names := []string{
		g.HomeTeam.Name, g.HomeTeam.ShortName,
		g.AwayTeam.Name, g.AwayTeam.ShortName,
		g.Competition, lineup.DefaultBookmaker,
	}
	if g.Venue != nil {
		names = append(names, g.Venue.Name)
	}
	for _, ev := range g.Events {
		if ev.Player != "" {
			names = append(names, ev.Player)
		}
	}
	names = append(names, g.Lineups...)
	if nm, ok := values[enrich.CategoryNextMatch].(*match.NextMatch); ok {
		names = append(names, nm.Opponent)
	}
	return names
}
