// Package planner turns a topic, mode and round index into the round's search
// queries. Planning is pure: identical inputs always produce identical
// queries, and prior results are never consulted. Refinement across rounds
// comes only from the mode's strategy cycle.
package planner

import (
	"fmt"
	"strings"

	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/search"
)

// Query is one planned search with its provider hints.
type Query struct {
	Text    string         `json:"text"`
	Options search.Options `json:"options"`
}

// qualifiers appended to the topic for each strategy angle.
var qualifiers = map[modes.Strategy][]string{
	modes.StrategyOverview:    {"overview", "introduction"},
	modes.StrategyFeatures:    {"features", "how it works"},
	modes.StrategyComparison:  {"vs", "comparison"},
	modes.StrategyRecent:      {"latest news", "recent"},
	modes.StrategyReviews:     {"review", "analysis"},
	modes.StrategyUseCases:    {"examples", "use cases"},
	modes.StrategyLimitations: {"problems", "limitations"},
	modes.StrategyTechnical:   {"technical", "explained"},
}

// notes describe each strategy for the round's human-readable plan.
var notes = map[modes.Strategy]string{
	modes.StrategyOverview:    "broad queries to map the topic",
	modes.StrategyFeatures:    "capabilities and mechanics",
	modes.StrategyComparison:  "alternatives and trade-offs",
	modes.StrategyRecent:      "recent coverage and news",
	modes.StrategyReviews:     "reviews and third-party analysis",
	modes.StrategyUseCases:    "practical examples and use cases",
	modes.StrategyLimitations: "known problems and limitations",
	modes.StrategyTechnical:   "technical deep dive",
}

// Plan returns the ordered queries for one round. The number of queries is
// capped by the mode's fan-out budget; round 0 always leads with the bare
// topic under the overview strategy.
func Plan(topic string, cfg modes.Config, round int) ([]Query, error) {
	base := strings.ToLower(strings.TrimSpace(topic))
	if base == "" {
		return nil, fmt.Errorf("plan: empty topic")
	}

	strategy := modes.StrategyFor(round)
	opts := optionsFor(strategy)

	var queries []Query
	if round == 0 {
		queries = append(queries, Query{Text: base, Options: opts})
	}
	for _, q := range qualifiers[strategy] {
		queries = append(queries, Query{Text: base + " " + q, Options: opts})
	}

	limit := cfg.MaxQueriesPerRound
	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, nil
}

// Note returns the round's human-readable strategy description.
func Note(round int, queries []Query) string {
	strategy := modes.StrategyFor(round)
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}
	return fmt.Sprintf("%s: %s (%s)", strategy, notes[strategy], strings.Join(texts, ", "))
}

// optionsFor maps a strategy to provider hints. Recent coverage goes through
// the news category with a time window; everything else searches general with
// the provider's default engine set.
func optionsFor(s modes.Strategy) search.Options {
	switch s {
	case modes.StrategyRecent:
		return search.Options{Categories: []string{"news"}, TimeRange: "month"}
	case modes.StrategyOverview:
		// Let the provider fan out across all of its engines for diversity.
		return search.Options{}
	default:
		return search.Options{Categories: []string{"general"}}
	}
}
