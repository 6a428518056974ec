// Package config defines process configuration and its loading order:
// built-in defaults, then an optional YAML file, then PITCHSIDE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains everything the pipeline needs from the outside.
type Config struct {
	// ScoresBaseURL is the scores backend serving fixtures,
	// standings and trends.
	ScoresBaseURL string `koanf:"scores_base_url"`

	// Model selects the generation backend alias.
	Model string `koanf:"model"`

	// Bookmaker labels the closing betting pitch.
	Bookmaker string `koanf:"bookmaker"`

	// EpisodeSeconds is the default runtime when the caller does
	// not pass one.
	EpisodeSeconds int `koanf:"episode_seconds"`

	// DialogueConcurrency bounds parallel segment generation.
	DialogueConcurrency int `koanf:"dialogue_concurrency"`

	// TTSProvider selects the voice backend: elevenlabs or google.
	TTSProvider string `koanf:"tts_provider"`

	// IntroAsset and OutroAsset are optional audio beds mixed
	// around the spoken episode.
	IntroAsset string `koanf:"intro_asset"`
	OutroAsset string `koanf:"outro_asset"`

	// Storage selects where finished episodes land: local or s3.
	Storage  string `koanf:"storage"`
	S3Bucket string `koanf:"s3_bucket"`
	CDNBase  string `koanf:"cdn_base"`

	// JobsTable is the DynamoDB table for job records; empty keeps
	// jobs in memory.
	JobsTable string `koanf:"jobs_table"`

	// MetricsAddr serves Prometheus metrics on this address when set,
	// for example "127.0.0.1:9464". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

func defaults() *Config {
	return &Config{
		ScoresBaseURL:       "https://mobileapi.365scores.com",
		Model:               "haiku",
		Bookmaker:           "365Scores",
		EpisodeSeconds:      300,
		DialogueConcurrency: 3,
		TTSProvider:         "elevenlabs",
		Storage:             "local",
	}
}

// Load builds the configuration. path may be empty or point at a
// YAML file; environment variables such as PITCHSIDE_MODEL override
// both file and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := defaults()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("PITCHSIDE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PITCHSIDE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.EpisodeSeconds < 90 {
		return fmt.Errorf("episode_seconds %d is below the 90s minimum", c.EpisodeSeconds)
	}
	switch c.Storage {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("storage s3 requires s3_bucket")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	switch c.TTSProvider {
	case "elevenlabs", "google":
	default:
		return fmt.Errorf("unknown tts_provider %q", c.TTSProvider)
	}
	return nil
}
