// Package enrich defines the enriched game context: the single bundle
// of factual material every downstream stage reads from. A category
// that could not be retrieved is recorded as unavailable rather than
// left out, so consumers can always tell "we don't have this" apart
// from "nobody asked".
package enrich

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Category names one semantic slice of the context.
type Category string

const (
	CategoryGame      Category = "game"
	CategoryStandings Category = "standings"
	CategoryNews      Category = "news"
	CategoryForm      Category = "form"
	CategoryLineups   Category = "lineups"
	CategoryOdds      Category = "odds"
	CategoryTrends    Category = "trends"
	CategoryNextMatch Category = "next_match"
)

// Categories is the full set, in presentation order.
var Categories = []Category{
	CategoryGame,
	CategoryStandings,
	CategoryNews,
	CategoryForm,
	CategoryLineups,
	CategoryOdds,
	CategoryTrends,
	CategoryNextMatch,
}

// UnavailableMarker is the wire form of the unavailable sentinel. It
// is what an oracle prompt sees for a missing category, and what the
// grounding pre-pass scrubs out of real values so data can never be
// mistaken for the sentinel.
const UnavailableMarker = "NOT_AVAILABLE"

type unavailable struct{}

// Unavailable is the sentinel stored for a category that retrieval
// could not populate.
var Unavailable any = unavailable{}

func (unavailable) String() string { return UnavailableMarker }

func (unavailable) MarshalJSON() ([]byte, error) {
	return json.Marshal(UnavailableMarker)
}

// Context is an immutable category-to-value map built once by the
// enricher. Every category in Categories is present: either with a
// concrete value or with the Unavailable sentinel.
type Context struct {
	values map[Category]any
	// corpus is the flattened text of each available category,
	// used for fact verification.
	corpus map[Category]string
	// names are the proper nouns (teams, players, venues, bookmaker)
	// known to this context.
	names []string
}

// NewContext builds a sealed context from the given values. Categories
// absent from values are filled with the Unavailable sentinel. names
// lists the proper nouns the context vouches for.
func NewContext(values map[Category]any, names []string) (*Context, error) {
	c := &Context{
		values: make(map[Category]any, len(Categories)),
		corpus: make(map[Category]string, len(Categories)),
	}
	for _, cat := range Categories {
		v, ok := values[cat]
		if !ok || v == nil {
			c.values[cat] = Unavailable
			continue
		}
		if _, isSentinel := v.(unavailable); isSentinel {
			c.values[cat] = Unavailable
			continue
		}
		flat, err := flatten(v)
		if err != nil {
			return nil, fmt.Errorf("enrich: category %s: %w", cat, err)
		}
		c.values[cat] = v
		c.corpus[cat] = flat
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		c.names = append(c.names, n)
	}
	sort.Strings(c.names)
	return c, nil
}

// Value returns the raw value for a category. ok is false when the
// category holds the Unavailable sentinel.
func (c *Context) Value(cat Category) (v any, ok bool) {
	v = c.values[cat]
	if _, missing := v.(unavailable); missing {
		return nil, false
	}
	return v, true
}

// Available reports whether the category carries real data.
func (c *Context) Available(cat Category) bool {
	_, ok := c.Value(cat)
	return ok
}

// Empty reports whether no category at all carries real data.
func (c *Context) Empty() bool {
	for _, cat := range Categories {
		if c.Available(cat) {
			return false
		}
	}
	return true
}

// AvailableCategories returns every category with real data, in
// presentation order.
func (c *Context) AvailableCategories() []Category {
	var out []Category
	for _, cat := range Categories {
		if c.Available(cat) {
			out = append(out, cat)
		}
	}
	return out
}

// Corpus returns the flattened text of a category, empty when the
// category is unavailable. Fact verification matches tokens against
// this text.
func (c *Context) Corpus(cat Category) string {
	return c.corpus[cat]
}

// Names returns the proper nouns the context knows about, sorted.
func (c *Context) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// KnowsName reports whether the context vouches for the given proper
// noun, case-insensitively.
func (c *Context) KnowsName(name string) bool {
	for _, n := range c.names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// flatten renders a value to searchable text. Structured values go
// through JSON so nested fields stay discoverable.
func flatten(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
