// Package grounding keeps generated dialogue anchored to retrieved
// data. The pre-pass controls what an oracle prompt may contain; the
// post-pass extracts concrete fact tokens from generated text and
// verifies each one against the segment's approved data points. The
// filter only ever reports; it never rewrites text.
package grounding

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/pitchside/pitchside/internal/enrich"
)

// TokenKind classifies an extracted fact token.
type TokenKind string

const (
	TokenNumber TokenKind = "number"
	TokenOdds   TokenKind = "odds"
	TokenName   TokenKind = "name"
)

// Token is one concrete claim found in generated text.
type Token struct {
	Text string
	Kind TokenKind
}

// Violation is a fact token with no backing data point. It is
// recoverable: the caller may regenerate the offending segment.
type Violation struct {
	SegmentIndex int
	Token        Token
}

func (v *Violation) Error() string {
	return fmt.Sprintf("grounding: segment %d: %s %q has no backing data point",
		v.SegmentIndex, v.Token.Kind, v.Token.Text)
}

// Failure is terminal: the regeneration budget for a segment ran out
// without producing grounded text.
type Failure struct {
	SegmentIndex int
	Attempts     int
	Violations   []*Violation
}

func (f *Failure) Error() string {
	return fmt.Sprintf("grounding failed after %d attempts on segment %d",
		f.Attempts, f.SegmentIndex)
}

var (
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	oddsRe   = regexp.MustCompile(`^\d{1,2}\.\d{2}$`)
	wordRe   = regexp.MustCompile(`[\p{L}][\p{L}'\-]*`)
)

// Filter verifies text against one enriched context.
type Filter struct {
	ec  *enrich.Context
	log *slog.Logger
}

func NewFilter(ec *enrich.Context, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{ec: ec, log: log}
}

// Normalize is the first half of the pre-pass: every category is
// rendered to text, with unavailable categories carrying the explicit
// marker so the gap is visible rather than silently absent.
func Normalize(ec *enrich.Context) map[enrich.Category]string {
	out := make(map[enrich.Category]string, len(enrich.Categories))
	for _, cat := range enrich.Categories {
		if !ec.Available(cat) {
			out[cat] = enrich.UnavailableMarker
			continue
		}
		// Real data must never look like the sentinel.
		out[cat] = strings.ReplaceAll(ec.Corpus(cat), enrich.UnavailableMarker, "")
	}
	return out
}

// PromptContext is the full pre-pass: normalize, then strip the
// marked categories so the oracle only ever sees real data and can
// never parrot a sentinel back as a fact.
func PromptContext(ec *enrich.Context) string {
	normalized := Normalize(ec)
	var b strings.Builder
	for _, cat := range enrich.Categories {
		v := normalized[cat]
		if v == enrich.UnavailableMarker || strings.TrimSpace(v) == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", cat, v)
	}
	return strings.TrimSpace(b.String())
}

// ExtractTokens pulls the concrete fact tokens out of text: numbers
// (odds-shaped decimals flagged separately) and proper nouns the
// context knows about. Everything else is opinion and passes freely.
func (f *Filter) ExtractTokens(text string) []Token {
	var tokens []Token
	seen := make(map[string]bool)

	for _, m := range numberRe.FindAllString(text, -1) {
		if seen["#"+m] {
			continue
		}
		seen["#"+m] = true
		kind := TokenNumber
		if oddsRe.MatchString(m) {
			kind = TokenOdds
		}
		tokens = append(tokens, Token{Text: m, Kind: kind})
	}

	words := wordRe.FindAllString(text, -1)
	for i := 0; i < len(words); i++ {
		// Greedily try multi-word names first so "Aston Villa"
		// is one token, not two misses.
		for span := 3; span >= 1; span-- {
			if i+span > len(words) {
				continue
			}
			candidate := strings.Join(words[i:i+span], " ")
			if !f.ec.KnowsName(candidate) {
				continue
			}
			key := "@" + strings.ToLower(candidate)
			if !seen[key] {
				seen[key] = true
				tokens = append(tokens, Token{Text: candidate, Kind: TokenName})
			}
			i += span - 1
			break
		}
	}
	return tokens
}

// CheckText verifies every fact token in text against the approved
// data points for the owning segment. supported is the union of the
// segment's key data points and its topic. The check is pure: running
// it twice on the same text yields the same verdict.
func (f *Filter) CheckText(segmentIndex int, text string, supported []string) []*Violation {
	haystack := strings.ToLower(strings.Join(supported, "\n"))
	// Numbers must match as whole tokens: "3.5" in the data does not
	// license "3.57" in the text.
	backedNumbers := make(map[string]bool)
	for _, n := range numberRe.FindAllString(haystack, -1) {
		backedNumbers[n] = true
	}

	var out []*Violation
	for _, tok := range f.ExtractTokens(text) {
		if tokenSupported(tok, haystack, backedNumbers) {
			continue
		}
		out = append(out, &Violation{SegmentIndex: segmentIndex, Token: tok})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Token.Text < out[j].Token.Text
	})
	return out
}

func tokenSupported(tok Token, haystack string, backedNumbers map[string]bool) bool {
	if tok.Kind == TokenName {
		return strings.Contains(haystack, strings.ToLower(tok.Text))
	}
	return backedNumbers[tok.Text]
}
