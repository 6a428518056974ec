// Package jobs tracks episode generation runs.
package jobs

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle of one run.
type Status string

const (
	StatusSubmitted    Status = "submitted"
	StatusRetrieving   Status = "retrieving"
	StatusPlanning     Status = "planning"
	StatusScripting    Status = "scripting"
	StatusSynthesizing Status = "synthesizing"
	StatusAssembling   Status = "assembling"
	StatusPublishing   Status = "publishing"
	StatusComplete     Status = "complete"
	StatusFailed       Status = "failed"
)

// Record is one episode job.
type Record struct {
	EpisodeID string    `json:"episode_id"`
	GameID    int64     `json:"game_id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	AudioURL  string    `json:"audio_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound is returned when an episode id is unknown.
var ErrNotFound = errors.New("jobs: episode not found")

// Store persists job records through a run's lifecycle.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	UpdateStatus(ctx context.Context, episodeID string, status Status) error
	Complete(ctx context.Context, episodeID, title, audioURL string) error
	Fail(ctx context.Context, episodeID, reason string) error
	Get(ctx context.Context, episodeID string) (*Record, error)
}

// Lister reports recent runs, newest first.
type Lister interface {
	ListRecent(ctx context.Context, limit int32) ([]*Record, error)
}

// NewEpisodeID mints a sortable unique episode id.
func NewEpisodeID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
