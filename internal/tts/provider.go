// Package tts synthesizes the spoken episode from a validated script.
package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/pitchside/pitchside/internal/dialogue"
)

// AudioFormat represents the audio encoding returned by a provider.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatPCM AudioFormat = "pcm" // raw PCM (needs FFmpeg conversion)
	FormatWAV AudioFormat = "wav"
)

// Voice holds a provider-specific voice identifier.
type Voice struct {
	ID   string // Provider-specific voice identifier
	Name string // Human-readable label
}

// VoiceMap casts the three panel seats. Every seat must get its own
// voice; two panelists sharing one would be indistinguishable on air.
type VoiceMap struct {
	Host    Voice
	Analyst Voice
	Fan     Voice
}

// Validate rejects empty or shared voice assignments.
func (m VoiceMap) Validate() error {
	ids := map[string]string{}
	for _, seat := range []struct {
		role  dialogue.Role
		voice Voice
	}{
		{dialogue.RoleHost, m.Host},
		{dialogue.RoleAnalyst, m.Analyst},
		{dialogue.RoleFan, m.Fan},
	} {
		if seat.voice.ID == "" {
			return fmt.Errorf("no voice assigned to %s", seat.role)
		}
		if other, dup := ids[seat.voice.ID]; dup {
			return fmt.Errorf("voice %s assigned to both %s and %s", seat.voice.ID, other, seat.role)
		}
		ids[seat.voice.ID] = string(seat.role)
	}
	return nil
}

// ForRole resolves the voice for a speaker role.
func (m VoiceMap) ForRole(r dialogue.Role) Voice {
	switch r {
	case dialogue.RoleAnalyst:
		return m.Analyst
	case dialogue.RoleFan:
		return m.Fan
	default:
		return m.Host
	}
}

// AudioResult is the output of a synthesis call.
type AudioResult struct {
	Data   []byte
	Format AudioFormat
}

// Provider synthesizes speech for single lines of dialogue.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice Voice) (AudioResult, error)
	DefaultVoices() VoiceMap
	Close() error
}

// VoiceInfo describes an available voice for display in the registry.
type VoiceInfo struct {
	ID          string
	Name        string
	Gender      string // "male" or "female"
	Description string
	DefaultFor  string // "HOST", "ANALYST", "FAN", or ""
}

// AvailableVoices returns the voice catalog for the named provider.
func AvailableVoices(providerName string) ([]VoiceInfo, error) {
	switch providerName {
	case "elevenlabs":
		return elevenLabsAvailableVoices(), nil
	case "google":
		return googleAvailableVoices(), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", providerName)
	}
}

// Retry constants shared by all providers.
const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 1 * time.Second
	defaultBackoffMulti   = 2
	defaultMaxBackoff     = 10 * time.Second
)

// RetryableError signals that the operation can be retried.
type RetryableError struct {
	StatusCode int
	Body       string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// WithRetry executes fn with exponential backoff on RetryableError.
func WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else if _, ok := err.(*RetryableError); !ok {
			return err
		} else {
			lastErr = err
		}

		if attempt < defaultMaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= time.Duration(defaultBackoffMulti)
			if backoff > defaultMaxBackoff {
				backoff = defaultMaxBackoff
			}
		}
	}

	return lastErr
}

// NewProvider creates a TTS provider by name. overrides replaces the
// provider's default seat voices where non-empty.
func NewProvider(name string, overrides VoiceMap) (Provider, error) {
	switch name {
	case "elevenlabs":
		return NewElevenLabsProvider(overrides), nil
	case "google":
		return NewGoogleProvider(overrides)
	default:
		return nil, fmt.Errorf("unknown TTS provider %q: choose elevenlabs or google", name)
	}
}

func mergeVoices(defaults, overrides VoiceMap) VoiceMap {
	out := defaults
	if overrides.Host.ID != "" {
		out.Host = overrides.Host
	}
	if overrides.Analyst.ID != "" {
		out.Analyst = overrides.Analyst
	}
	if overrides.Fan.ID != "" {
		out.Fan = overrides.Fan
	}
	return out
}
