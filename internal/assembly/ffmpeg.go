// Package assembly stitches synthesized lines into the final episode
// file with FFmpeg.
package assembly

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pitchside/pitchside/internal/tts"
)

// Audio quality constants for consistent output across all FFmpeg operations.
const (
	AudioBitrate    = "192k"
	AudioSampleRate = "44100"
	AudioChannels   = "2"
	AudioCodec      = "libmp3lame"
	AudioQuality    = "0" // LAME quality (0 = best)
	AudioResampler  = "aresample=resampler=soxr"
)

// turnGap is the default breath between speaker turns when no pause
// marker asked for more.
const turnGap = 200 * time.Millisecond

type Assembler interface {
	Assemble(ctx context.Context, cues []tts.Cue, opts Options, tmpDir, output string) error
}

// Options carries the optional show dressing.
type Options struct {
	// IntroAsset and OutroAsset are audio beds played before and
	// after the spoken episode. Empty paths are skipped.
	IntroAsset string
	OutroAsset string
}

type FFmpegAssembler struct{}

func NewFFmpegAssembler() *FFmpegAssembler {
	return &FFmpegAssembler{}
}

// Assemble concatenates the cues in order, inserting each cue's
// requested pause (or the default turn gap) between lines, wrapped by
// the intro and outro beds when configured.
func (a *FFmpegAssembler) Assemble(ctx context.Context, cues []tts.Cue, opts Options, tmpDir, output string) error {
	if len(cues) == 0 {
		return fmt.Errorf("no audio cues to assemble")
	}

	silences := map[time.Duration]string{}
	silenceFor := func(d time.Duration) (string, error) {
		if d <= 0 {
			d = turnGap
		}
		if path, ok := silences[d]; ok {
			return path, nil
		}
		path := filepath.Join(tmpDir, fmt.Sprintf("silence_%dms.mp3", d.Milliseconds()))
		if err := generateSilence(ctx, d, path); err != nil {
			return "", err
		}
		silences[d] = path
		return path, nil
	}

	var entries []string
	if opts.IntroAsset != "" {
		entries = append(entries, opts.IntroAsset)
	}
	for i, cue := range cues {
		entries = append(entries, cue.Path)
		if i == len(cues)-1 {
			break
		}
		gap, err := silenceFor(cue.PauseAfter)
		if err != nil {
			return fmt.Errorf("generate silence: %w", err)
		}
		entries = append(entries, gap)
	}
	if opts.OutroAsset != "" {
		entries = append(entries, opts.OutroAsset)
	}

	listPath := filepath.Join(tmpDir, "concat.txt")
	if err := writeConcatList(entries, listPath); err != nil {
		return fmt.Errorf("build concat list: %w", err)
	}

	if err := runFFmpegConcat(ctx, listPath, output); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

func generateSilence(ctx context.Context, d time.Duration, output string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%s:cl=stereo", AudioSampleRate),
		"-t", fmt.Sprintf("%.3f", d.Seconds()),
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-y",
		output,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg silence generation failed: %w\n%s", err, stderr.String())
	}
	return nil
}

func writeConcatList(entries []string, listPath string) error {
	var lines []string
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("file '%s'", e))
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(listPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// ConvertToMP3 converts raw audio (PCM/LPCM/WAV) to MP3 via FFmpeg.
// The format parameter determines the input interpretation:
//   - "pcm":  raw 24kHz 16-bit signed little-endian mono
//   - "wav":  standard WAV header (auto-detected by FFmpeg)
func ConvertToMP3(ctx context.Context, input string, format string, output string) error {
	var args []string
	switch format {
	case "pcm":
		args = []string{
			"-f", "s16le",
			"-ar", "24000",
			"-ac", "1",
			"-i", input,
			"-af", AudioResampler,
			"-c:a", AudioCodec,
			"-b:a", AudioBitrate,
			"-q:a", AudioQuality,
			"-ar", AudioSampleRate,
			"-ac", AudioChannels,
			"-y",
			output,
		}
	case "wav":
		args = []string{
			"-i", input,
			"-af", AudioResampler,
			"-c:a", AudioCodec,
			"-b:a", AudioBitrate,
			"-q:a", AudioQuality,
			"-ar", AudioSampleRate,
			"-ac", AudioChannels,
			"-y",
			output,
		}
	default:
		return fmt.Errorf("unsupported audio format for conversion: %s", format)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion (%s to mp3) failed: %w\n%s", format, err, stderr.String())
	}
	return nil
}

func runFFmpegConcat(ctx context.Context, listPath string, output string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-af", AudioResampler,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-q:a", AudioQuality,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		"-y",
		output,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = nil

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w\n%s", err, stderr.String())
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file is empty")
	}
	return nil
}
