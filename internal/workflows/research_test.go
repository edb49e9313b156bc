package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/fathomlabs/fathom/internal/activities"
	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/search"
	"github.com/fathomlabs/fathom/internal/synthesis"
)

// searchStub maps a predicate over the query text to canned results. Queries
// matching no rule return an empty batch.
type searchStub struct {
	rules []func(query string) ([]search.Result, error)
}

func (s *searchStub) run(ctx context.Context, in activities.SearchQueryInput) (*activities.SearchQueryResult, error) {
	for _, rule := range s.rules {
		results, err := rule(in.Query)
		if err != nil {
			return nil, err
		}
		if results != nil {
			return &activities.SearchQueryResult{Results: results}, nil
		}
	}
	return &activities.SearchQueryResult{}, nil
}

func presetConfigStub(ctx context.Context, in activities.GetModeConfigInput) (*activities.ModeConfigResult, error) {
	mode, err := modes.Parse(in.Mode)
	if err != nil {
		return nil, err
	}
	cfg, err := modes.NewTable().Get(mode)
	if err != nil {
		return nil, err
	}
	return &activities.ModeConfigResult{
		MaxRounds:          cfg.MaxRounds,
		MaxQueriesPerRound: cfg.MaxQueriesPerRound,
		StopOnFirstYield:   cfg.StopOnFirstYield,
		ZeroStreakLimit:    cfg.ZeroStreakLimit,
	}, nil
}

func outcomeStub(ctx context.Context, in activities.SessionOutcomeInput) error { return nil }

func newEnv(t *testing.T, stub *searchStub) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResearchWorkflow)
	env.RegisterActivityWithOptions(stub.run, activity.RegisterOptions{Name: SearchQueryActivity})
	env.RegisterActivityWithOptions(presetConfigStub, activity.RegisterOptions{Name: GetModeConfigActivity})
	env.RegisterActivityWithOptions(outcomeStub, activity.RegisterOptions{Name: RecordSessionOutcomeActivity})
	return env
}

// yieldWhen returns one unique result per matching query.
func yieldWhen(match func(q string) bool) func(string) ([]search.Result, error) {
	return func(q string) ([]search.Result, error) {
		if !match(q) {
			return nil, nil
		}
		return []search.Result{{
			Title:   "result for " + q,
			URL:     "https://example.org/" + strings.ReplaceAll(q, " ", "-"),
			Snippet: "snippet",
		}}, nil
	}
}

func runResearch(t *testing.T, env *testsuite.TestWorkflowEnvironment, in ResearchInput) synthesis.Report {
	t.Helper()
	env.ExecuteWorkflow(ResearchWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var report synthesis.Report
	require.NoError(t, env.GetWorkflowResult(&report))
	return report
}

func TestSpeedModeStopsOnFirstYield(t *testing.T) {
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		yieldWhen(func(q string) bool { return true }),
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "Rust ownership", Mode: "speed"})

	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 1, report.IterationsCompleted)
	assert.Equal(t, 2, report.TotalSources) // two queries in the round, one unique URL each
	require.Len(t, report.SearchHistory, 1)
	assert.Equal(t, 2, report.SearchHistory[0].NewSources)
}

func TestSpeedModeExhaustsWithoutYield(t *testing.T) {
	stub := &searchStub{} // nothing ever matches
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "an obscure topic", Mode: "speed"})

	assert.Equal(t, "exhausted", report.Status)
	assert.Equal(t, 2, report.IterationsCompleted)
	assert.Equal(t, 0, report.TotalSources)
	assert.Empty(t, report.Findings)
	assert.Contains(t, report.Summary, "No sources were found")
}

func TestBalancedModeStopsAfterZeroStreak(t *testing.T) {
	// Rounds 0 (overview) and 1 (features) yield; later angles come up empty,
	// so rounds 2 and 3 form the two-round zero streak.
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		yieldWhen(func(q string) bool {
			return q == "go generics" || strings.Contains(q, "overview") ||
				strings.Contains(q, "introduction") || strings.Contains(q, "features") ||
				strings.Contains(q, "how it works")
		}),
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "Go generics", Mode: "balanced"})

	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 4, report.IterationsCompleted)
	require.Len(t, report.SearchHistory, 4)
	assert.Zero(t, report.SearchHistory[2].NewSources)
	assert.Zero(t, report.SearchHistory[3].NewSources)
}

func TestDuplicateURLAcrossRoundsCountsOnce(t *testing.T) {
	// Every query returns the same URL: only round 0 yields anything new.
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		func(q string) ([]search.Result, error) {
			return []search.Result{{Title: "same", URL: "https://example.org/only", Snippet: "s"}}, nil
		},
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "narrow topic", Mode: "balanced"})

	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 1, report.TotalSources)
	assert.Equal(t, 3, report.IterationsCompleted) // rounds 1 and 2 are the zero streak
	assert.Equal(t, 1, report.SearchHistory[0].NewSources)
	assert.Zero(t, report.SearchHistory[1].NewSources)
}

func TestFailedQueriesBecomeEmptyBatches(t *testing.T) {
	// All round 0 queries error; round 1 onward succeeds. The session must
	// survive the total-failure round and keep its findings.
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		func(q string) ([]search.Result, error) {
			if q == "flaky provider" || strings.Contains(q, "overview") || strings.Contains(q, "introduction") {
				return nil, errors.New("upstream search engine unavailable")
			}
			return nil, nil
		},
		yieldWhen(func(q string) bool {
			return strings.Contains(q, "features") || strings.Contains(q, "how it works")
		}),
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "flaky provider", Mode: "balanced"})

	require.NotEmpty(t, report.SearchHistory)
	assert.Equal(t, 3, report.SearchHistory[0].Failed)
	assert.Zero(t, report.SearchHistory[0].NewSources)
	assert.Equal(t, 2, report.SearchHistory[1].NewSources)
	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 2, report.TotalSources)
}

func TestQualityModeStreakResets(t *testing.T) {
	// Yields on rounds 0 and 3 (recent angle). Two zero rounds in between do
	// not stop a quality session; the streak restarts after round 3 and the
	// session ends three zero rounds later.
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		yieldWhen(func(q string) bool {
			return q == "quantum error correction" || strings.Contains(q, "overview") ||
				strings.Contains(q, "introduction") || strings.Contains(q, "latest news") ||
				strings.Contains(q, "recent")
		}),
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "Quantum error correction", Mode: "quality"})

	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 7, report.IterationsCompleted) // stops after rounds 4, 5, 6 all come up empty
	assert.NotZero(t, report.SearchHistory[3].NewSources)
}

func TestCancellationReturnsPartialReport(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResearchWorkflow)

	// Round 0 (overview) yields; round 1's queries hang until canceled, so
	// the cancel lands mid-round with one completed round behind it.
	blockingSearch := func(ctx context.Context, in activities.SearchQueryInput) (*activities.SearchQueryResult, error) {
		if strings.Contains(in.Query, "features") || strings.Contains(in.Query, "how it works") {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &activities.SearchQueryResult{Results: []search.Result{{
			Title:   "result for " + in.Query,
			URL:     "https://example.org/" + strings.ReplaceAll(in.Query, " ", "-"),
			Snippet: "snippet",
		}}}, nil
	}
	env.RegisterActivityWithOptions(blockingSearch, activity.RegisterOptions{Name: SearchQueryActivity})
	env.RegisterActivityWithOptions(presetConfigStub, activity.RegisterOptions{Name: GetModeConfigActivity})
	env.RegisterActivityWithOptions(outcomeStub, activity.RegisterOptions{Name: RecordSessionOutcomeActivity})

	env.RegisterDelayedCallback(func() { env.CancelWorkflow() }, time.Second)

	// The workflow absorbs the cancellation and still returns a report.
	report := runResearch(t, env, ResearchInput{Topic: "long running topic", Mode: "balanced"})

	assert.Equal(t, "failed", report.Status)
	assert.Equal(t, 1, report.IterationsCompleted)
	assert.Equal(t, 3, report.TotalSources) // round 0's findings survive
	require.Len(t, report.SearchHistory, 1) // the in-flight round is discarded
}

func TestEmptyTopicFailsBeforeAnyRound(t *testing.T) {
	stub := &searchStub{}
	env := newEnv(t, stub)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{Topic: "   ", Mode: "speed"})
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeEmptyTopic, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestUnknownModeFailsBeforeAnyRound(t *testing.T) {
	stub := &searchStub{}
	env := newEnv(t, stub)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{Topic: "anything", Mode: "turbo"})
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeBadMode, appErr.Type())
}

func TestEmptyModeDefaultsToBalanced(t *testing.T) {
	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		yieldWhen(func(q string) bool { return strings.Contains(q, "overview") }),
	}}
	env := newEnv(t, stub)

	report := runResearch(t, env, ResearchInput{Topic: "default mode topic"})
	assert.Equal(t, "balanced", report.Mode)
}

func TestPresetFallbackWhenConfigActivityFails(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResearchWorkflow)

	stub := &searchStub{rules: []func(string) ([]search.Result, error){
		yieldWhen(func(q string) bool { return true }),
	}}
	env.RegisterActivityWithOptions(stub.run, activity.RegisterOptions{Name: SearchQueryActivity})
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in activities.GetModeConfigInput) (*activities.ModeConfigResult, error) {
			return nil, fmt.Errorf("config store unreachable")
		},
		activity.RegisterOptions{Name: GetModeConfigActivity},
	)
	env.RegisterActivityWithOptions(outcomeStub, activity.RegisterOptions{Name: RecordSessionOutcomeActivity})

	report := runResearch(t, env, ResearchInput{Topic: "resilient config", Mode: "speed"})
	assert.Equal(t, "stopped_early", report.Status)
	assert.Equal(t, 1, report.IterationsCompleted)
}
