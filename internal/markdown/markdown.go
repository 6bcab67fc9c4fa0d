// Package markdown renders user-supplied markdown to sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultCacheSize is the number of rendered documents kept in memory.
const DefaultCacheSize = 1024

// Renderer converts markdown to HTML that is safe to embed. Results are
// memoized by source text.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, string]
}

// NewRenderer builds a renderer with an LRU memo of cacheSize entries.
func NewRenderer(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create render cache: %w", err)
	}

	policy := bluemonday.UGCPolicy()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
		cache:  cache,
	}, nil
}

// Render returns the sanitized HTML for src.
func (r *Renderer) Render(src string) (string, error) {
	if out, ok := r.cache.Get(src); ok {
		return out, nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out := string(r.policy.SanitizeBytes(buf.Bytes()))
	r.cache.Add(src, out)
	return out, nil
}

// Len reports how many rendered documents are memoized.
func (r *Renderer) Len() int {
	return r.cache.Len()
}
