package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const maxArticleSize = 2 << 20

// Article is one piece of extracted match coverage.
type Article struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// NewsReader extracts readable article text from coverage URLs.
type NewsReader struct {
	client *http.Client
}

func NewNewsReader() *NewsReader {
	return &NewsReader{client: &http.Client{Timeout: 30 * time.Second}}
}

// Read fetches and extracts a single article.
func (r *NewsReader) Read(ctx context.Context, source string) (*Article, error) {
	parsed, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch URL %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not fetch URL %s: HTTP %d", source, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxArticleSize)
	article, err := readability.FromReader(limited, parsed)
	if err != nil {
		return nil, fmt.Errorf("could not extract article from %s: %w", source, err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, fmt.Errorf("no readable content extracted from %s", source)
	}

	return &Article{
		Title:  article.Title,
		Text:   article.TextContent,
		Source: source,
	}, nil
}

// ReadAll extracts every reachable article, skipping failures. The
// caller decides whether an empty result is a problem.
func (r *NewsReader) ReadAll(ctx context.Context, sources []string) []*Article {
	var out []*Article
	for _, src := range sources {
		if ctx.Err() != nil {
			return out
		}
		a, err := r.Read(ctx, src)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
