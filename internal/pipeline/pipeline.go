// Package pipeline runs the end-to-end episode build: retrieve,
// plan, script, synthesize, assemble, publish.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitchside/pitchside/internal/assembly"
	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/dialogue"
	"github.com/pitchside/pitchside/internal/enrich"
	"github.com/pitchside/pitchside/internal/jobs"
	"github.com/pitchside/pitchside/internal/lineup"
	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/oracle"
	"github.com/pitchside/pitchside/internal/progress"
	"github.com/pitchside/pitchside/internal/retrieval"
	"github.com/pitchside/pitchside/internal/storage"
	"github.com/pitchside/pitchside/internal/timing"
	"github.com/pitchside/pitchside/internal/tts"
)

// Options collects one run's inputs. Zero values fall back to the
// loaded configuration.
type Options struct {
	GameID          int64
	Output          string
	DurationSeconds int
	NewsURLs        []string
	Model           string
	TTSProvider     string
	VoiceHost       string
	VoiceAnalyst    string
	VoiceFan        string
	// FanTeam pledges the fan seat; defaults to the home side.
	FanTeam string
	// ScriptOut saves the validated script as JSON before synthesis.
	ScriptOut string
	// FromScript skips planning and dialogue, reusing a saved script.
	FromScript string
	// RundownOnly stops after planning and prints the rundown.
	RundownOnly bool
	// ScriptOnly stops after the script is validated and saved.
	ScriptOnly bool
	OnProgress progress.Callback
}

type PipelineError struct {
	Stage   string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline owns the long-lived collaborators a run needs.
type Pipeline struct {
	cfg   *config.Config
	store jobs.Store
	pub   storage.Store
	log   *slog.Logger
}

func New(cfg *config.Config, store jobs.Store, pub storage.Store, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, store: store, pub: pub, log: log}
}

// Run builds one episode. It returns the published location (or the
// output path) on success.
func (p *Pipeline) Run(ctx context.Context, opts Options) (string, error) {
	start := time.Now()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracer := otel.Tracer("pitchside/pipeline")
	ctx, span := tracer.Start(ctx, "episode.run")
	defer span.End()

	onProgress := opts.OnProgress
	if onProgress == nil {
		onProgress = progress.NopCallback
	}

	episodeID := jobs.NewEpisodeID()
	if err := p.store.Create(ctx, &jobs.Record{
		EpisodeID: episodeID,
		GameID:    opts.GameID,
		Status:    jobs.StatusSubmitted,
	}); err != nil {
		return "", &PipelineError{Stage: "jobs", Message: "failed to create job record", Err: err}
	}

	outcome := "failed"
	statusLabel := "unknown"
	defer func() {
		metrics.EpisodesTotal.WithLabelValues(statusLabel, outcome).Inc()
	}()

	fail := func(stage, msg string, err error) (string, error) {
		perr := &PipelineError{Stage: stage, Message: msg, Err: err}
		if ferr := p.store.Fail(ctx, episodeID, perr.Error()); ferr != nil {
			p.log.Warn("could not record job failure", "episode", episodeID, "error", ferr)
		}
		onProgress(progress.Event{Stage: progress.Stage(stage), Error: perr})
		return "", perr
	}

	seconds := opts.DurationSeconds
	if seconds == 0 {
		seconds = p.cfg.EpisodeSeconds
	}
	model := opts.Model
	if model == "" {
		model = p.cfg.Model
	}

	gen, err := oracle.New(model)
	if err != nil {
		return fail("plan", "no generation backend", err)
	}
	rec := timing.NewReconciler(timing.DefaultPolicy())

	var (
		script *dialogue.Script
		plan   *lineup.Lineup
		game   *match.Game
		ec     *enrich.Context
		status match.Status
	)

	if opts.FromScript != "" {
		onProgress(progress.NewEvent(progress.StageScript, "Loading saved script...", 0.3, start))
		script, err = dialogue.Load(opts.FromScript)
		if err != nil {
			return fail("script", "failed to load script", err)
		}
		statusLabel = string(script.Status)
	} else {
		// Retrieve.
		_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusRetrieving)
		onProgress(progress.NewEvent(progress.StageRetrieve, fmt.Sprintf("Fetching game %d...", opts.GameID), 0.05, start))
		game, ec, status, err = p.retrieve(ctx, tracer, opts)
		if err != nil {
			return fail("retrieve", "failed to build enriched context", err)
		}
		statusLabel = string(status)

		// Plan.
		_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusPlanning)
		onProgress(progress.NewEvent(progress.StagePlan, "Planning the rundown...", 0.15, start))
		plan, err = p.plan(ctx, tracer, gen, rec, game, ec, status, seconds)
		if err != nil {
			return fail("plan", "failed to plan lineup", err)
		}

		if opts.RundownOnly {
			fmt.Println(plan.HumanRundown())
			_ = p.store.Complete(ctx, episodeID, plan.EpisodeTitle, "")
			outcome = "complete"
			onProgress(progress.Event{Stage: progress.StageComplete, Message: "Rundown ready"})
			return "", nil
		}

		// Script.
		_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusScripting)
		onProgress(progress.NewEvent(progress.StageScript, "Writing the dialogue...", 0.3, start))
		script, err = p.script(ctx, tracer, gen, rec, plan, ec, game, opts)
		if err != nil {
			return fail("script", "failed to synthesize dialogue", err)
		}
	}

	if opts.ScriptOut != "" {
		if err := dialogue.Save(script, opts.ScriptOut); err != nil {
			return fail("script", "failed to save script", err)
		}
	}
	if opts.ScriptOnly {
		_ = p.store.Complete(ctx, episodeID, script.Title, "")
		outcome = "complete"
		onProgress(progress.Event{Stage: progress.StageComplete, Message: "Script saved to " + opts.ScriptOut})
		return opts.ScriptOut, nil
	}

	// Synthesize.
	_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusSynthesizing)
	tmpDir, err := os.MkdirTemp("", "pitchside-*")
	if err != nil {
		return fail("tts", "failed to create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	cues, err := p.synthesize(ctx, tracer, script, opts, tmpDir, func(done, total int) {
		pct := 0.4 + 0.35*float64(done)/float64(total)
		onProgress(progress.Event{
			Stage:        progress.StageTTS,
			Message:      fmt.Sprintf("Synthesizing line %d/%d...", done, total),
			Percent:      pct,
			SegmentNum:   done,
			SegmentTotal: total,
			Elapsed:      time.Since(start),
		})
	})
	if err != nil {
		return fail("tts", "failed to synthesize audio", err)
	}

	// Assemble.
	_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusAssembling)
	onProgress(progress.NewEvent(progress.StageAssembly, "Assembling the episode...", 0.85, start))
	if err := p.assemble(ctx, tracer, cues, opts.Output, tmpDir); err != nil {
		return fail("assembly", "failed to assemble episode", err)
	}

	// Publish.
	_ = p.store.UpdateStatus(ctx, episodeID, jobs.StatusPublishing)
	onProgress(progress.NewEvent(progress.StagePublish, "Publishing...", 0.95, start))
	location, err := p.pub.Put(ctx, episodeID, opts.Output)
	if err != nil {
		return fail("publish", "failed to publish episode", err)
	}

	if err := p.store.Complete(ctx, episodeID, script.Title, location); err != nil {
		p.log.Warn("could not record job completion", "episode", episodeID, "error", err)
	}
	outcome = "complete"

	onProgress(progress.Event{
		Stage:      progress.StageComplete,
		Message:    "Episode complete",
		OutputFile: opts.Output,
		Duration:   probeDuration(opts.Output),
		SizeMB:     fileSizeMB(opts.Output),
		Elapsed:    time.Since(start),
	})
	p.log.Info("episode complete",
		"episode", episodeID,
		"title", script.Title,
		"location", location,
		"elapsed", time.Since(start).Round(time.Second).String())
	return location, nil
}

func (p *Pipeline) retrieve(ctx context.Context, tracer trace.Tracer, opts Options) (*match.Game, *enrich.Context, match.Status, error) {
	ctx, span := tracer.Start(ctx, "episode.retrieve")
	defer span.End()
	done := stageTimer("retrieve")
	defer done()

	fetcher := retrieval.NewFetcher(p.cfg.ScoresBaseURL)
	game, err := fetcher.Game(ctx, opts.GameID)
	if err != nil {
		return nil, nil, "", err
	}
	status := match.DetectStatus(game, time.Now())

	enricher := retrieval.NewEnricher(fetcher, retrieval.NewNewsReader(), p.log)
	ec, err := enricher.Enrich(ctx, game, status, opts.NewsURLs)
	if err != nil {
		return nil, nil, "", err
	}
	return game, ec, status, nil
}

func (p *Pipeline) plan(ctx context.Context, tracer trace.Tracer, gen oracle.Generator, rec *timing.Reconciler, game *match.Game, ec *enrich.Context, status match.Status, seconds int) (*lineup.Lineup, error) {
	ctx, span := tracer.Start(ctx, "episode.plan")
	defer span.End()
	done := stageTimer("plan")
	defer done()

	planner := lineup.NewPlanner(gen, rec, p.cfg.Bookmaker, p.log)
	return planner.Plan(ctx, game, ec, status, seconds)
}

func (p *Pipeline) script(ctx context.Context, tracer trace.Tracer, gen oracle.Generator, rec *timing.Reconciler, plan *lineup.Lineup, ec *enrich.Context, game *match.Game, opts Options) (*dialogue.Script, error) {
	ctx, span := tracer.Start(ctx, "episode.script")
	defer span.End()
	done := stageTimer("script")
	defer done()

	fanTeam := opts.FanTeam
	if fanTeam == "" {
		fanTeam = game.HomeTeam.Name
	}
	panel := dialogue.DefaultPanel(fanTeam)
	synth := dialogue.NewSynthesizer(gen, panel, rec, p.cfg.DialogueConcurrency, p.log)
	return synth.Synthesize(ctx, plan, ec)
}

func (p *Pipeline) synthesize(ctx context.Context, tracer trace.Tracer, script *dialogue.Script, opts Options, tmpDir string, onLine func(done, total int)) ([]tts.Cue, error) {
	ctx, span := tracer.Start(ctx, "episode.tts")
	defer span.End()
	done := stageTimer("tts")
	defer done()

	providerName := opts.TTSProvider
	if providerName == "" {
		providerName = p.cfg.TTSProvider
	}
	provider, err := tts.NewProvider(providerName, tts.VoiceMap{
		Host:    tts.Voice{ID: opts.VoiceHost},
		Analyst: tts.Voice{ID: opts.VoiceAnalyst},
		Fan:     tts.Voice{ID: opts.VoiceFan},
	})
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	voices := tts.VoiceMap{
		Host:    pickVoice(opts.VoiceHost, provider.DefaultVoices().Host),
		Analyst: pickVoice(opts.VoiceAnalyst, provider.DefaultVoices().Analyst),
		Fan:     pickVoice(opts.VoiceFan, provider.DefaultVoices().Fan),
	}
	return tts.SynthesizeScript(ctx, provider, script, voices, tmpDir, onLine)
}

func (p *Pipeline) assemble(ctx context.Context, tracer trace.Tracer, cues []tts.Cue, output, tmpDir string) error {
	ctx, span := tracer.Start(ctx, "episode.assemble")
	defer span.End()
	done := stageTimer("assembly")
	defer done()

	assembler := assembly.NewFFmpegAssembler()
	return assembler.Assemble(ctx, cues, assembly.Options{
		IntroAsset: p.cfg.IntroAsset,
		OutroAsset: p.cfg.OutroAsset,
	}, tmpDir, output)
}

func pickVoice(override string, fallback tts.Voice) tts.Voice {
	if override != "" {
		return tts.Voice{ID: override}
	}
	return fallback
}

func stageTimer(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// probeDuration asks ffprobe for the episode length, formatted M:SS.
// Best effort: an empty string means ffprobe was unavailable.
func probeDuration(path string) string {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return ""
	}
	var seconds float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &seconds); err != nil {
		return ""
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}
