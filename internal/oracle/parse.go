package oracle

import (
	"regexp"
	"strings"
)

var scratchpadRe = regexp.MustCompile(`(?s)<scratchpad>.*?</scratchpad>`)

// StripScratchpad removes chain-of-thought planning blocks the models
// are told to emit before their answer.
func StripScratchpad(text string) string {
	return scratchpadRe.ReplaceAllString(text, "")
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// StripMarkdownFences unwraps ```json ... ``` or ``` ... ``` blocks.
func StripMarkdownFences(text string) string {
	if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// ExtractJSON cuts the text down to the first { through the last },
// dropping any prose the model wrapped around the object.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// CleanJSON applies the full strip pipeline and trims the result.
func CleanJSON(text string) string {
	text = StripScratchpad(text)
	text = StripMarkdownFences(text)
	text = ExtractJSON(text)
	return strings.TrimSpace(text)
}

// Truncate shortens s for error messages.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
