// Package search defines the narrow interface the orchestrator consumes for
// web search, plus the SearXNG implementation and an optional Redis response
// cache. The orchestrator works against any Provider; nothing above this
// package knows which engine answered a query.
package search

import "context"

// Options carries per-query provider hints.
type Options struct {
	Engines    []string `json:"engines,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Language   string   `json:"language,omitempty"`
	SafeSearch int      `json:"safesearch,omitempty"`
	TimeRange  string   `json:"time_range,omitempty"` // day, week, month, year
	MaxResults int      `json:"max_results,omitempty"`
}

// Result is one raw search hit as returned by a provider.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Engine  string  `json:"engine"`
	Score   float64 `json:"score"`
}

// Provider is the external search capability. Implementations fail with
// ErrTimeout or ErrUnavailable; callers treat both as an empty batch for that
// query and never escalate them into a session failure.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
