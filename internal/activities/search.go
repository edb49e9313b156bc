package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/fathomlabs/fathom/internal/metrics"
	"github.com/fathomlabs/fathom/internal/search"
)

// SearchQueryInput is one planned query handed to the provider.
type SearchQueryInput struct {
	Query   string         `json:"query"`
	Options search.Options `json:"options"`
}

// SearchQueryResult carries the raw provider results for one query.
type SearchQueryResult struct {
	Results []search.Result `json:"results"`
}

// SearchQuery executes a single search against the configured provider.
// Errors propagate to the workflow, which folds the failed query into the
// round as an empty batch.
func (a *Activities) SearchQuery(ctx context.Context, input SearchQueryInput) (*SearchQueryResult, error) {
	logger := activity.GetLogger(ctx)

	results, err := a.provider.Search(ctx, input.Query, input.Options)
	if err != nil {
		metrics.QueriesIssued.WithLabelValues("failed").Inc()
		logger.Warn("SearchQuery: provider error",
			"query", input.Query,
			"error", err,
		)
		return nil, err
	}

	metrics.QueriesIssued.WithLabelValues("ok").Inc()
	logger.Info("SearchQuery: completed",
		"query", input.Query,
		"results", len(results),
	)
	return &SearchQueryResult{Results: results}, nil
}
