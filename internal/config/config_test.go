package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pitchside/pitchside/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load("")
		So(err, ShouldBeNil)

		Convey("The defaults stand", func() {
			So(cfg.Model, ShouldEqual, "haiku")
			So(cfg.Bookmaker, ShouldEqual, "365Scores")
			So(cfg.EpisodeSeconds, ShouldEqual, 300)
			So(cfg.TTSProvider, ShouldEqual, "elevenlabs")
			So(cfg.Storage, ShouldEqual, "local")
			So(cfg.MetricsAddr, ShouldBeEmpty)
		})
	})

	Convey("Given a YAML file", t, func() {
		path := filepath.Join(os.TempDir(), "pitchside-config-test.yaml")
		So(os.WriteFile(path, []byte("model: sonnet\nepisode_seconds: 240\ntts_provider: google\n"), 0o644), ShouldBeNil)
		defer os.Remove(path)

		cfg, err := config.Load(path)
		So(err, ShouldBeNil)

		Convey("File values override defaults, the rest survive", func() {
			So(cfg.Model, ShouldEqual, "sonnet")
			So(cfg.EpisodeSeconds, ShouldEqual, 240)
			So(cfg.TTSProvider, ShouldEqual, "google")
			So(cfg.Bookmaker, ShouldEqual, "365Scores")
		})
	})

	Convey("Given environment overrides", t, func() {
		So(os.Setenv("PITCHSIDE_MODEL", "gpt-4o-mini"), ShouldBeNil)
		So(os.Setenv("PITCHSIDE_METRICS_ADDR", "127.0.0.1:9464"), ShouldBeNil)
		defer os.Unsetenv("PITCHSIDE_MODEL")
		defer os.Unsetenv("PITCHSIDE_METRICS_ADDR")

		cfg, err := config.Load("")
		So(err, ShouldBeNil)
		So(cfg.Model, ShouldEqual, "gpt-4o-mini")
		So(cfg.MetricsAddr, ShouldEqual, "127.0.0.1:9464")
	})

	Convey("Given a missing file path", t, func() {
		_, err := config.Load("/nonexistent/pitchside.yaml")
		So(err, ShouldNotBeNil)
	})

	Convey("Given invalid settings", t, func() {
		Convey("A runtime below the floor is rejected", func() {
			path := filepath.Join(os.TempDir(), "pitchside-config-short.yaml")
			So(os.WriteFile(path, []byte("episode_seconds: 30\n"), 0o644), ShouldBeNil)
			defer os.Remove(path)

			_, err := config.Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "90s minimum")
		})

		Convey("S3 storage without a bucket is rejected", func() {
			path := filepath.Join(os.TempDir(), "pitchside-config-s3.yaml")
			So(os.WriteFile(path, []byte("storage: s3\n"), 0o644), ShouldBeNil)
			defer os.Remove(path)

			_, err := config.Load(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "s3_bucket")
		})

		Convey("An unknown voice backend is rejected", func() {
			path := filepath.Join(os.TempDir(), "pitchside-config-tts.yaml")
			So(os.WriteFile(path, []byte("tts_provider: shoutcast\n"), 0o644), ShouldBeNil)
			defer os.Remove(path)

			_, err := config.Load(path)
			So(err, ShouldNotBeNil)
		})
	})
}
