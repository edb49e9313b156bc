// Package activities holds the Temporal activities backing the research
// workflow. Activities own all I/O; the workflow itself stays deterministic.
package activities

import (
	"go.uber.org/zap"

	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/search"
)

// Activities carries the shared dependencies for all research activities.
type Activities struct {
	provider search.Provider
	modes    *modes.Table
	logger   *zap.Logger
}

// NewActivities builds the activity set around a search provider and the
// hot-reloadable mode table.
func NewActivities(provider search.Provider, table *modes.Table, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == nil {
		table = modes.NewTable()
	}
	return &Activities{
		provider: provider,
		modes:    table,
		logger:   logger,
	}
}
