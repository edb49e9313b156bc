// Package findings holds a session's deduplicated search results. The store
// is owned by the single task driving the research loop and is never shared
// across goroutines, so it carries no locking.
package findings

import (
	"strings"

	"github.com/fathomlabs/fathom/internal/search"
)

// Finding is a deduplicated search result retained for the session. Once
// inserted it is immutable: later sightings of the same URL never overwrite
// first-seen metadata.
type Finding struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Snippet        string  `json:"snippet"`
	SourceEngine   string  `json:"source_engine"`
	Score          float64 `json:"score"`
	FirstSeenRound int     `json:"first_seen_round"`
}

// Store accumulates findings keyed by exact URL (case-sensitive, surrounding
// whitespace trimmed) and preserves insertion order.
type Store struct {
	byURL map[string]Finding
	order []string
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{byURL: make(map[string]Finding)}
}

// Merge folds a round's result batches into the store, in batch order. It
// returns how many results were new versus duplicates of an existing URL.
// Results without a URL carry nothing citeable and are dropped uncounted.
func (s *Store) Merge(batches [][]search.Result, round int) (added, duplicates int) {
	for _, batch := range batches {
		for _, r := range batch {
			key := strings.TrimSpace(r.URL)
			if key == "" {
				continue
			}
			if _, seen := s.byURL[key]; seen {
				duplicates++
				continue
			}
			s.byURL[key] = Finding{
				Title:          r.Title,
				URL:            key,
				Snippet:        r.Snippet,
				SourceEngine:   r.Engine,
				Score:          r.Score,
				FirstSeenRound: round,
			}
			s.order = append(s.order, key)
			added++
		}
	}
	return added, duplicates
}

// Len reports the number of unique findings.
func (s *Store) Len() int { return len(s.order) }

// Get looks up a finding by its dedup key.
func (s *Store) Get(url string) (Finding, bool) {
	f, ok := s.byURL[strings.TrimSpace(url)]
	return f, ok
}

// All returns the findings in insertion order (first seen first).
func (s *Store) All() []Finding {
	out := make([]Finding, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byURL[key])
	}
	return out
}
