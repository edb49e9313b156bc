// Package workflows contains the deterministic Temporal workflow driving a
// research session: plan queries, fan them out as activities, merge findings,
// and decide after every round whether to keep going.
package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fathomlabs/fathom/internal/activities"
	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/planner"
	"github.com/fathomlabs/fathom/internal/search"
	"github.com/fathomlabs/fathom/internal/session"
	"github.com/fathomlabs/fathom/internal/stopping"
	"github.com/fathomlabs/fathom/internal/synthesis"
)

const (
	configFetchTimeout  = 10 * time.Second
	searchQueryTimeout  = 45 * time.Second
	outcomeWriteTimeout = 5 * time.Second
)

// Error types surfaced as non-retryable application errors. Bad input cannot
// be fixed by retrying the workflow.
const (
	ErrTypeEmptyTopic = "EmptyTopic"
	ErrTypeBadMode    = "BadMode"
)

// ResearchWorkflow runs one research session end to end and returns the
// structured report. Validation failures abort before the first round; a
// cancellation mid-session returns the partial report with status failed.
func ResearchWorkflow(ctx workflow.Context, input ResearchInput) (*synthesis.Report, error) {
	logger := workflow.GetLogger(ctx)

	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			"research topic is empty", ErrTypeEmptyTopic, nil)
	}
	modeStr := strings.TrimSpace(input.Mode)
	if modeStr == "" {
		modeStr = string(modes.Balanced)
	}
	mode, err := modes.Parse(modeStr)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"unknown research mode: "+modeStr, ErrTypeBadMode, err)
	}

	cfg, err := fetchModeConfig(ctx, mode)
	if err != nil {
		return nil, err
	}
	logger.Info("Research session starting",
		"topic", topic,
		"mode", mode,
		"max_rounds", cfg.MaxRounds,
	)

	startedAt := workflow.Now(ctx)
	sess := session.New(topic, mode)
	policy := stopping.NewPolicy(cfg)

	queryCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: searchQueryTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	for round := 0; round < cfg.MaxRounds; round++ {
		queries, err := planner.Plan(topic, cfg, round)
		if err != nil {
			// Topic was validated above; a plan failure here is a bug.
			sess.Finish(session.StatusFailed)
			return nil, err
		}

		// Fan out one activity per query; futures are joined in plan order so
		// the merge is deterministic.
		futures := make([]workflow.Future, len(queries))
		texts := make([]string, len(queries))
		for i, q := range queries {
			texts[i] = q.Text
			futures[i] = workflow.ExecuteActivity(queryCtx, SearchQueryActivity, activities.SearchQueryInput{
				Query:   q.Text,
				Options: q.Options,
			})
		}

		batches := make([][]search.Result, len(queries))
		failed := 0
		for i, fut := range futures {
			var res activities.SearchQueryResult
			if err := fut.Get(ctx, &res); err != nil {
				if temporal.IsCanceledError(err) || ctx.Err() != nil {
					return finishCanceled(ctx, sess, startedAt, logger)
				}
				logger.Warn("Search query failed",
					"round", round,
					"query", texts[i],
					"error", err,
				)
				failed++
				continue
			}
			batches[i] = res.Results
		}

		rec := sess.RecordRound(round, texts, planner.Note(round, queries), batches, failed)
		logger.Info("Round complete",
			"round", round,
			"new_findings", rec.NewFindingCount,
			"duplicates", rec.DuplicateCount,
			"failed_queries", rec.FailedQueryCount,
		)

		decision := policy.Observe(round, rec.NewFindingCount)
		if decision == stopping.StopEarly {
			sess.Finish(session.StatusStoppedEarly)
			break
		}
		if decision == stopping.Exhausted {
			sess.Finish(session.StatusExhausted)
			break
		}
		if ctx.Err() != nil {
			return finishCanceled(ctx, sess, startedAt, logger)
		}
	}

	report := synthesis.Summarize(sess, synthesis.Options{})
	recordOutcome(ctx, sess, workflow.Now(ctx).Sub(startedAt))
	logger.Info("Research session complete",
		"status", sess.Status,
		"rounds", report.IterationsCompleted,
		"findings", report.TotalSources,
	)
	return &report, nil
}

// fetchModeConfig loads the mode's round budget through an activity so
// operator overrides apply, falling back to the built-in presets when the
// activity cannot run.
func fetchModeConfig(ctx workflow.Context, mode modes.Mode) (modes.Config, error) {
	cfgCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: configFetchTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var res activities.ModeConfigResult
	err := workflow.ExecuteActivity(cfgCtx, GetModeConfigActivity, activities.GetModeConfigInput{
		Mode: string(mode),
	}).Get(cfgCtx, &res)
	if err != nil {
		if temporal.IsCanceledError(err) || ctx.Err() != nil {
			return modes.Config{}, err
		}
		workflow.GetLogger(ctx).Warn("Mode config activity failed, using presets",
			"mode", mode,
			"error", err,
		)
		return modes.NewTable().Get(mode)
	}
	return modes.Config{
		MaxRounds:          res.MaxRounds,
		MaxQueriesPerRound: res.MaxQueriesPerRound,
		StopOnFirstYield:   res.StopOnFirstYield,
		ZeroStreakLimit:    res.ZeroStreakLimit,
	}, nil
}

// finishCanceled marks the session failed and returns whatever was gathered
// so far. The outcome activity runs on a disconnected context so it still
// executes after cancellation.
func finishCanceled(ctx workflow.Context, sess *session.Session, startedAt time.Time, logger log.Logger) (*synthesis.Report, error) {
	sess.Finish(session.StatusFailed)
	report := synthesis.Summarize(sess, synthesis.Options{})
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	recordOutcome(dctx, sess, workflow.Now(dctx).Sub(startedAt))
	logger.Warn("Research session canceled, returning partial report",
		"rounds", report.IterationsCompleted,
		"findings", report.TotalSources,
	)
	return &report, nil
}

// recordOutcome publishes the session's terminal metrics, best effort.
func recordOutcome(ctx workflow.Context, sess *session.Session, elapsed time.Duration) {
	duplicates := 0
	for _, r := range sess.Rounds {
		duplicates += r.DuplicateCount
	}
	outCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: outcomeWriteTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	_ = workflow.ExecuteActivity(outCtx, RecordSessionOutcomeActivity, activities.SessionOutcomeInput{
		Mode:            string(sess.Mode),
		Status:          string(sess.Status),
		Rounds:          len(sess.Rounds),
		Findings:        sess.Findings.Len(),
		Duplicates:      duplicates,
		DurationSeconds: elapsed.Seconds(),
	}).Get(outCtx, nil)
}
