package activities

import (
	"context"

	"github.com/fathomlabs/fathom/internal/metrics"
)

// SessionOutcomeInput carries the terminal counters for one session.
type SessionOutcomeInput struct {
	Mode            string  `json:"mode"`
	Status          string  `json:"status"`
	Rounds          int     `json:"rounds"`
	Findings        int     `json:"findings"`
	Duplicates      int     `json:"duplicates"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RecordSessionOutcome publishes the per-session metrics. Called once at the
// end of the workflow, best effort.
func (a *Activities) RecordSessionOutcome(ctx context.Context, input SessionOutcomeInput) error {
	metrics.SessionsCompleted.WithLabelValues(input.Mode, input.Status).Inc()
	metrics.SessionFindings.WithLabelValues(input.Mode).Observe(float64(input.Findings))
	metrics.SessionRounds.WithLabelValues(input.Mode).Observe(float64(input.Rounds))
	metrics.RoundsExecuted.WithLabelValues(input.Mode).Add(float64(input.Rounds))
	metrics.FindingsMerged.WithLabelValues("new").Add(float64(input.Findings))
	metrics.FindingsMerged.WithLabelValues("duplicate").Add(float64(input.Duplicates))
	if input.DurationSeconds > 0 {
		metrics.SessionDuration.WithLabelValues(input.Mode).Observe(input.DurationSeconds)
	}
	return nil
}
