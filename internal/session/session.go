// Package session defines the research session owned by a single orchestrator
// invocation. A session exists only for the lifetime of one execute call;
// nothing here persists across process restarts.
package session

import (
	"github.com/fathomlabs/fathom/internal/findings"
	"github.com/fathomlabs/fathom/internal/modes"
	"github.com/fathomlabs/fathom/internal/search"
)

// Status is the session's terminal (or running) state.
type Status string

const (
	StatusRunning      Status = "running"
	StatusStoppedEarly Status = "stopped_early"
	StatusExhausted    Status = "exhausted"
	StatusFailed       Status = "failed"
)

// SearchRound records one completed loop iteration. Immutable once appended.
type SearchRound struct {
	Index            int      `json:"index"`
	QueriesIssued    []string `json:"queries_issued"`
	NewFindingCount  int      `json:"new_finding_count"`
	DuplicateCount   int      `json:"duplicate_count"`
	FailedQueryCount int      `json:"failed_query_count"`
	PlanNote         string   `json:"plan_note"`
}

// Session accumulates rounds and findings for one research invocation. It is
// mutated only by the single task driving the loop; concurrent query fan-out
// produces result batches but never touches the session directly.
type Session struct {
	Topic    string
	Mode     modes.Mode
	Rounds   []SearchRound
	Findings *findings.Store
	Status   Status
}

// New starts a running session for the given topic and mode.
func New(topic string, mode modes.Mode) *Session {
	return &Session{
		Topic:    topic,
		Mode:     mode,
		Findings: findings.NewStore(),
		Status:   StatusRunning,
	}
}

// RecordRound merges a round's batches into the finding set and appends the
// round to history. Batches are processed in executor order; queries and note
// describe what the round asked and why.
func (s *Session) RecordRound(index int, queries []string, note string, batches [][]search.Result, failedQueries int) SearchRound {
	added, duplicates := s.Findings.Merge(batches, index)
	round := SearchRound{
		Index:            index,
		QueriesIssued:    queries,
		NewFindingCount:  added,
		DuplicateCount:   duplicates,
		FailedQueryCount: failedQueries,
		PlanNote:         note,
	}
	s.Rounds = append(s.Rounds, round)
	return round
}

// Finish sets the terminal status. Once the session leaves running no further
// rounds execute.
func (s *Session) Finish(status Status) {
	if s.Status == StatusRunning {
		s.Status = status
	}
}
