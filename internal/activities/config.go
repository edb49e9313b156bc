package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/fathomlabs/fathom/internal/metrics"
	"github.com/fathomlabs/fathom/internal/modes"
)

// GetModeConfigInput selects which mode's config to load.
type GetModeConfigInput struct {
	Mode string `json:"mode"`
}

// ModeConfigResult is the round budget snapshot the workflow runs with. The
// workflow fetches it once at the start so a config reload mid-session never
// changes a running session's budget.
type ModeConfigResult struct {
	MaxRounds          int  `json:"max_rounds"`
	MaxQueriesPerRound int  `json:"max_queries_per_round"`
	StopOnFirstYield   bool `json:"stop_on_first_yield"`
	ZeroStreakLimit    int  `json:"zero_streak_limit"`
}

// GetModeConfig resolves the current config for a research mode, including
// any operator overrides applied since startup.
func (a *Activities) GetModeConfig(ctx context.Context, input GetModeConfigInput) (*ModeConfigResult, error) {
	logger := activity.GetLogger(ctx)

	mode, err := modes.Parse(input.Mode)
	if err != nil {
		return nil, err
	}
	cfg, err := a.modes.Get(mode)
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues(string(mode)).Inc()
	logger.Info("GetModeConfig: resolved",
		"mode", mode,
		"max_rounds", cfg.MaxRounds,
		"max_queries_per_round", cfg.MaxQueriesPerRound,
	)
	return &ModeConfigResult{
		MaxRounds:          cfg.MaxRounds,
		MaxQueriesPerRound: cfg.MaxQueriesPerRound,
		StopOnFirstYield:   cfg.StopOnFirstYield,
		ZeroStreakLimit:    cfg.ZeroStreakLimit,
	}, nil
}
