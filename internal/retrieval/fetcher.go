// Package retrieval pulls everything the show needs for one game:
// the fixture record from the scores backend, surrounding coverage,
// and the assembled enriched context.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pitchside/pitchside/internal/match"
)

const (
	fetchTimeout    = 30 * time.Second
	maxResponseSize = 4 << 20
)

// Fetcher reads fixtures from the scores backend.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: fetchTimeout},
	}
}

// Game fetches one fixture by id.
func (f *Fetcher) Game(ctx context.Context, gameID int64) (*match.Game, error) {
	var g match.Game
	url := fmt.Sprintf("%s/games/%d", f.baseURL, gameID)
	if err := f.getJSON(ctx, url, &g); err != nil {
		return nil, fmt.Errorf("fetch game %d: %w", gameID, err)
	}
	if g.HomeTeam.Name == "" || g.AwayTeam.Name == "" {
		return nil, fmt.Errorf("fetch game %d: response is missing team names", gameID)
	}
	return &g, nil
}

// NextMatch fetches a team's upcoming fixture. A 404 means the
// backend has nothing scheduled; that is reported as (nil, nil) so
// callers can frame the gap rather than fail.
func (f *Fetcher) NextMatch(ctx context.Context, teamID int64) (*match.NextMatch, error) {
	var nm match.NextMatch
	url := fmt.Sprintf("%s/teams/%d/next", f.baseURL, teamID)
	err := f.getJSON(ctx, url, &nm)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next match for team %d: %w", teamID, err)
	}
	if nm.Opponent == "" {
		return nil, nil
	}
	return &nm, nil
}

// Standings fetches the competition table rows relevant to a game.
func (f *Fetcher) Standings(ctx context.Context, gameID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	url := fmt.Sprintf("%s/games/%d/standings", f.baseURL, gameID)
	if err := f.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch standings for game %d: %w", gameID, err)
	}
	return raw, nil
}

// Trends fetches betting and form trends for a game.
func (f *Fetcher) Trends(ctx context.Context, gameID int64) (json.RawMessage, error) {
	var raw json.RawMessage
	url := fmt.Sprintf("%s/games/%d/trends", f.baseURL, gameID)
	if err := f.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch trends for game %d: %w", gameID, err)
	}
	return raw, nil
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.url)
}

func (f *Fetcher) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, url: url}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
