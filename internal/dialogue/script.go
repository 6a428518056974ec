package dialogue

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pitchside/pitchside/internal/match"
	"github.com/pitchside/pitchside/internal/timing"
)

// Line is one spoken turn. Text may carry [PAUSE:short|medium|long]
// markers for the synthesis stage; pauses do not count as words.
type Line struct {
	Speaker Role   `json:"speaker"`
	Text    string `json:"text"`
}

var pauseRe = regexp.MustCompile(`\[PAUSE:(short|medium|long)\]`)

// Words counts the spoken words of a line, pause markers excluded.
func (l Line) Words() int {
	return timing.WordCount(pauseRe.ReplaceAllString(l.Text, ""))
}

// SegmentScript is the dialogue for one lineup segment.
type SegmentScript struct {
	SegmentIndex int    `json:"segment_index"`
	Topic        string `json:"topic"`
	Lines        []Line `json:"lines"`
	// Attempts is how many generations this segment needed.
	Attempts int `json:"attempts"`
}

// Words is the spoken word count of the segment.
func (s *SegmentScript) Words() int {
	total := 0
	for _, l := range s.Lines {
		total += l.Words()
	}
	return total
}

// Script is the full validated episode. It is only ever produced
// whole: a run either yields a script that passed every check or an
// error, never a partial.
type Script struct {
	Title        string          `json:"title"`
	Status       match.Status    `json:"status"`
	TotalSeconds int             `json:"total_seconds"`
	Segments     []SegmentScript `json:"segments"`
	// TimingNotes records residual word-count drift that survived
	// regeneration. Diagnostic only.
	TimingNotes []string `json:"timing_notes,omitempty"`
}

// Words is the spoken word count of the whole episode.
func (s *Script) Words() int {
	total := 0
	for i := range s.Segments {
		total += s.Segments[i].Words()
	}
	return total
}

// Lines flattens the script into playback order.
func (s *Script) Lines() []Line {
	var out []Line
	for i := range s.Segments {
		out = append(out, s.Segments[i].Lines...)
	}
	return out
}

var lineRe = regexp.MustCompile(`^\[(HOST|ANALYST|FAN)\]:\s*(.+)$`)

// parseDialogue reads the bracket-tagged transcript format the
// oracle is instructed to produce:
//
//	[HOST]: Welcome back.
//	[ANALYST]: The numbers first.
func parseDialogue(text string) ([]Line, error) {
	var lines []Line
	var current *Line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if m := lineRe.FindStringSubmatch(raw); m != nil {
			lines = append(lines, Line{Speaker: Role(m[1]), Text: m[2]})
			current = &lines[len(lines)-1]
			continue
		}
		// Continuation of the previous speaker's turn.
		if current != nil {
			current.Text += " " + raw
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no speaker-tagged lines found in transcript")
	}
	return lines, nil
}

// Save writes the script as indented JSON.
func Save(s *Script, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// Load reads a script saved by Save.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Segments) == 0 {
		return nil, fmt.Errorf("script has no segments")
	}
	for i := range s.Segments {
		for j, l := range s.Segments[i].Lines {
			switch l.Speaker {
			case RoleHost, RoleAnalyst, RoleFan:
			default:
				return nil, fmt.Errorf("segment %d line %d has unknown speaker %q", i, j, l.Speaker)
			}
		}
	}
	return &s, nil
}
