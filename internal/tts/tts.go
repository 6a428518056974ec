package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pitchside/pitchside/internal/dialogue"
)

// Pause durations for the markers dialogue writers may leave in a
// line. Anything after the last spoken word becomes silence in the
// assembled episode.
var pauseDurations = map[string]time.Duration{
	"short":  300 * time.Millisecond,
	"medium": 600 * time.Millisecond,
	"long":   1 * time.Second,
}

var pauseMarkerRe = regexp.MustCompile(`\[PAUSE:(short|medium|long)\]`)

// Cue is one synthesized line on disk, with the silence that should
// follow it.
type Cue struct {
	Path       string
	Speaker    dialogue.Role
	PauseAfter time.Duration
}

// SynthesizeScript renders every line of the script to its own audio
// file under tmpDir, in playback order. onLine, if set, is called
// after each line for progress reporting.
func SynthesizeScript(ctx context.Context, p Provider, s *dialogue.Script, voices VoiceMap, tmpDir string, onLine func(done, total int)) ([]Cue, error) {
	if err := voices.Validate(); err != nil {
		return nil, fmt.Errorf("voice casting: %w", err)
	}

	lines := s.Lines()
	cues := make([]Cue, 0, len(lines))
	for i, line := range lines {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		text, pause := splitPauses(line.Text)
		if text == "" {
			continue
		}

		voice := voices.ForRole(line.Speaker)
		var result AudioResult
		err := WithRetry(ctx, func() error {
			var synthErr error
			result, synthErr = p.Synthesize(ctx, text, voice)
			return synthErr
		})
		if err != nil {
			return nil, fmt.Errorf("synthesize line %d (%s): %w", i, line.Speaker, err)
		}

		path := filepath.Join(tmpDir, fmt.Sprintf("line_%03d.%s", i, result.Format))
		if err := os.WriteFile(path, result.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write line %d audio: %w", i, err)
		}
		cues = append(cues, Cue{Path: path, Speaker: line.Speaker, PauseAfter: pause})

		if onLine != nil {
			onLine(i+1, len(lines))
		}
	}
	if len(cues) == 0 {
		return nil, fmt.Errorf("script produced no audible lines")
	}
	return cues, nil
}

// splitPauses strips pause markers from a line and returns the spoken
// text plus the longest requested trailing pause.
func splitPauses(text string) (string, time.Duration) {
	var pause time.Duration
	for _, m := range pauseMarkerRe.FindAllStringSubmatch(text, -1) {
		if d := pauseDurations[m[1]]; d > pause {
			pause = d
		}
	}
	clean := strings.Join(strings.Fields(pauseMarkerRe.ReplaceAllString(text, " ")), " ")
	return clean, pause
}
