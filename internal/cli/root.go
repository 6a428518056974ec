// Package cli implements the pitchside command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/jobs"
	"github.com/pitchside/pitchside/internal/metrics"
	"github.com/pitchside/pitchside/internal/observability"
	"github.com/pitchside/pitchside/internal/pipeline"
	"github.com/pitchside/pitchside/internal/progress"
	"github.com/pitchside/pitchside/internal/storage"
	"github.com/pitchside/pitchside/internal/tts"
)

// Version is stamped at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pitchside",
	Short: "Turn a football fixture into a three-voice podcast episode",
	Long: `pitchside builds match-day podcast episodes: it retrieves the
fixture data, plans an editorial rundown, writes grounded three-voice
dialogue, and renders the finished audio.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("pitchside %s\n", Version)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an episode for a fixture",
	RunE:  runGenerate,
}

var listVoicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List available synthesis voices",
	RunE:  runListVoices,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent episode runs",
	RunE:  runList,
}

var (
	flagGameID       int64
	flagOutput       string
	flagConfig       string
	flagDuration     int
	flagNews         []string
	flagModel        string
	flagTTS          string
	flagVoiceHost    string
	flagVoiceAnalyst string
	flagVoiceFan     string
	flagFanTeam      string
	flagScriptOut    string
	flagFromScript   string
	flagScriptOnly   bool
	flagRundownOnly  bool
	flagVerbose      bool
	flagListLimit    int32
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listVoicesCmd)
	rootCmd.AddCommand(listCmd)

	generateCmd.Flags().Int64VarP(&flagGameID, "game", "g", 0, "Fixture id on the scores backend (required)")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (MP3)")
	generateCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Config file (YAML)")
	generateCmd.Flags().IntVarP(&flagDuration, "duration", "d", 0, "Episode runtime in seconds (default from config, 300)")
	generateCmd.Flags().StringSliceVarP(&flagNews, "news", "n", nil, "Coverage URLs to fold into the context (repeatable)")
	generateCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Generation model: haiku, sonnet, gpt-*, nova-lite")
	generateCmd.Flags().StringVarP(&flagTTS, "tts", "T", "", "TTS provider: elevenlabs or google")
	generateCmd.Flags().StringVar(&flagVoiceHost, "voice-host", "", "Voice ID override for the host seat")
	generateCmd.Flags().StringVar(&flagVoiceAnalyst, "voice-analyst", "", "Voice ID override for the analyst seat")
	generateCmd.Flags().StringVar(&flagVoiceFan, "voice-fan", "", "Voice ID override for the fan seat")
	generateCmd.Flags().StringVar(&flagFanTeam, "fan-team", "", "Team the fan seat supports (default: home side)")
	generateCmd.Flags().StringVar(&flagScriptOut, "script-out", "", "Save the validated script JSON to this path")
	generateCmd.Flags().StringVarP(&flagFromScript, "from-script", "f", "", "Render audio from an existing script JSON file")
	generateCmd.Flags().BoolVarP(&flagScriptOnly, "script-only", "S", false, "Stop after the script is validated and saved")
	generateCmd.Flags().BoolVarP(&flagRundownOnly, "rundown-only", "R", false, "Stop after planning and print the rundown")
	generateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable detailed logging")

	listVoicesCmd.Flags().StringVarP(&flagTTS, "tts", "T", "elevenlabs", "TTS provider: elevenlabs or google")

	listCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Config file (YAML)")
	listCmd.Flags().Int32VarP(&flagListLimit, "limit", "l", 20, "Maximum number of runs to show")
}

func Execute() error {
	return rootCmd.Execute()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := observability.InitLogger(flagVerbose)

	if flagGameID == 0 && flagFromScript == "" {
		return fmt.Errorf("--game is required (or use --from-script)")
	}
	if flagScriptOnly && flagScriptOut == "" {
		return fmt.Errorf("--script-only requires --script-out")
	}
	if flagScriptOnly && flagRundownOnly {
		return fmt.Errorf("--script-only and --rundown-only are mutually exclusive")
	}
	if flagFromScript != "" && flagRundownOnly {
		return fmt.Errorf("--from-script skips planning, --rundown-only has nothing to print")
	}

	needsAudio := !flagScriptOnly && !flagRundownOnly
	if needsAudio && flagOutput == "" {
		return fmt.Errorf("--output is required when producing audio")
	}
	if needsAudio && !strings.HasSuffix(strings.ToLower(flagOutput), ".mp3") {
		return fmt.Errorf("--output must end in .mp3, got %q", flagOutput)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagTTS != "" {
		cfg.TTSProvider = flagTTS
	}

	if err := checkAPIKeys(cfg, needsAudio, pickModel(cfg)); err != nil {
		return err
	}
	if needsAudio {
		if err := checkFFmpeg(); err != nil {
			return err
		}
	}

	ctx := context.Background()
	tp, err := observability.InitTracer(ctx, "pitchside", Version)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(ctx) }()
	}
	if cfg.MetricsAddr != "" {
		go metrics.Serve(cfg.MetricsAddr, log)
	}

	store, err := newJobStore(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := newPublisher(ctx, cfg, flagOutput)
	if err != nil {
		return err
	}

	renderer := progress.NewBarRenderer(os.Stdout)
	p := pipeline.New(cfg, store, pub, log)
	_, err = p.Run(ctx, pipeline.Options{
		GameID:          flagGameID,
		Output:          flagOutput,
		DurationSeconds: flagDuration,
		NewsURLs:        flagNews,
		Model:           flagModel,
		TTSProvider:     cfg.TTSProvider,
		VoiceHost:       flagVoiceHost,
		VoiceAnalyst:    flagVoiceAnalyst,
		VoiceFan:        flagVoiceFan,
		FanTeam:         flagFanTeam,
		ScriptOut:       flagScriptOut,
		FromScript:      flagFromScript,
		RundownOnly:     flagRundownOnly,
		ScriptOnly:      flagScriptOnly,
		OnProgress:      renderer.Handle,
	})
	renderer.Finish()
	return err
}

func pickModel(cfg *config.Config) string {
	if flagModel != "" {
		return flagModel
	}
	return cfg.Model
}

func newJobStore(ctx context.Context, cfg *config.Config) (jobs.Store, error) {
	if cfg.JobsTable == "" {
		return jobs.NewMemory(), nil
	}
	return jobs.NewDynamo(ctx, cfg.JobsTable)
}

func newPublisher(ctx context.Context, cfg *config.Config, output string) (storage.Store, error) {
	if cfg.Storage == "s3" {
		return storage.NewS3(ctx, cfg.S3Bucket, cfg.CDNBase)
	}
	if output != "" {
		return storage.InPlace{}, nil
	}
	return storage.NewLocal("episodes"), nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := newJobStore(ctx, cfg)
	if err != nil {
		return err
	}
	lister, ok := store.(jobs.Lister)
	if !ok {
		return fmt.Errorf("job store %T does not support listing", store)
	}

	records, err := lister.ListRecent(ctx, flagListLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No episode runs recorded. Configure jobs_table to keep history across runs.")
		return nil
	}

	fmt.Printf("%-28s %-12s %-19s %s\n", "EPISODE", "STATUS", "CREATED", "TITLE")
	for _, r := range records {
		title := r.Title
		if r.Status == jobs.StatusFailed && r.Error != "" {
			title = r.Error
		}
		fmt.Printf("%-28s %-12s %-19s %s\n", r.EpisodeID, r.Status, r.CreatedAt.Format("2006-01-02 15:04:05"), title)
	}
	return nil
}

func runListVoices(cmd *cobra.Command, args []string) error {
	voices, err := tts.AvailableVoices(flagTTS)
	if err != nil {
		return err
	}
	fmt.Printf("Voices for %s:\n\n", flagTTS)
	for _, v := range voices {
		marker := "  "
		if v.DefaultFor != "" {
			marker = "* "
		}
		fmt.Printf("%s%-28s %-10s %-7s %s", marker, v.ID, v.Name, v.Gender, v.Description)
		if v.DefaultFor != "" {
			fmt.Printf("  (default %s)", v.DefaultFor)
		}
		fmt.Println()
	}
	fmt.Println("\n* = default seat assignment")
	return nil
}

func checkAPIKeys(cfg *config.Config, needsAudio bool, model string) error {
	switch {
	case strings.HasPrefix(model, "gpt-"):
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set (required for model %s)", model)
		}
	case strings.HasPrefix(model, "nova"):
		// Bedrock resolves credentials through the AWS SDK chain.
	default:
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is not set (required for model %s)", model)
		}
	}
	if needsAudio && cfg.TTSProvider == "elevenlabs" && os.Getenv("ELEVENLABS_API_KEY") == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is not set (required for --tts elevenlabs)")
	}
	return nil
}

func checkFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: install it to assemble episodes")
	}
	return nil
}
