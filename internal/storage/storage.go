// Package storage publishes finished episodes.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store places a finished episode somewhere durable and returns a
// URL or path a listener-facing system can use.
type Store interface {
	Put(ctx context.Context, episodeID, mp3Path string) (string, error)
}

// InPlace leaves the episode where the pipeline wrote it, used when
// the caller named the output path themselves.
type InPlace struct{}

func (InPlace) Put(_ context.Context, _, mp3Path string) (string, error) {
	return mp3Path, nil
}

// Local copies episodes into a directory on disk.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

func (l *Local) Put(_ context.Context, episodeID, mp3Path string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create episodes dir: %w", err)
	}
	dst := filepath.Join(l.dir, episodeID+".mp3")

	src, err := os.Open(mp3Path)
	if err != nil {
		return "", fmt.Errorf("open episode: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("copy episode: %w", err)
	}
	return dst, nil
}
