package jobs

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process Store used for single-shot CLI runs.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

func (m *Memory) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	now := time.Now().UTC()
	cp.CreatedAt, cp.UpdatedAt = now, now
	if _, ok := m.records[rec.EpisodeID]; !ok {
		m.order = append(m.order, rec.EpisodeID)
	}
	m.records[rec.EpisodeID] = &cp
	return nil
}

func (m *Memory) UpdateStatus(_ context.Context, episodeID string, status Status) error {
	return m.update(episodeID, func(r *Record) {
		r.Status = status
	})
}

func (m *Memory) Complete(_ context.Context, episodeID, title, audioURL string) error {
	return m.update(episodeID, func(r *Record) {
		r.Status = StatusComplete
		r.Title = title
		r.AudioURL = audioURL
	})
}

func (m *Memory) Fail(_ context.Context, episodeID, reason string) error {
	return m.update(episodeID, func(r *Record) {
		r.Status = StatusFailed
		r.Error = reason
	})
}

func (m *Memory) Get(_ context.Context, episodeID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[episodeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// ListRecent returns up to limit episodes, newest first by creation order.
func (m *Memory) ListRecent(_ context.Context, limit int32) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
		cp := *m.records[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) update(episodeID string, fn func(*Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[episodeID]
	if !ok {
		return ErrNotFound
	}
	fn(rec)
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
