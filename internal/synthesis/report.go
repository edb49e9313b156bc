// Package synthesis turns a finished research session into the structured,
// citeable report handed back to the caller. Summarize is a pure transform:
// no I/O, no further queries, deterministic for a given session.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/fathomlabs/fathom/internal/session"
	"github.com/fathomlabs/fathom/internal/util"
)

// DefaultTopFindings caps how many findings the report carries, matching the
// narrative's citation range.
const DefaultTopFindings = 20

// narrativeCitations is how many findings the markdown summary cites inline.
const narrativeCitations = 10

// maxExcerptLen caps each cited snippet in the narrative.
const maxExcerptLen = 300

// RoundSummary is one entry of the report's research timeline.
type RoundSummary struct {
	Iteration  int      `json:"iteration"` // 1-based for callers
	Queries    []string `json:"queries"`
	NewSources int      `json:"new_sources"`
	Failed     int      `json:"failed_queries,omitempty"`
	Plan       string   `json:"plan"`
}

// ReportFinding is the caller-facing projection of a finding.
type ReportFinding struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Report is the session result contract. It serializes to a static schema and
// is always well-formed, even for zero-finding sessions.
type Report struct {
	Query               string          `json:"query"`
	Mode                string          `json:"mode"`
	Status              string          `json:"status"`
	IterationsCompleted int             `json:"iterations_completed"`
	TotalSources        int             `json:"total_sources"`
	SearchHistory       []RoundSummary  `json:"search_history"`
	Findings            []ReportFinding `json:"findings"`
	Summary             string          `json:"summary"`
}

// Options tunes synthesis. The zero value uses defaults.
type Options struct {
	// TopFindings caps the findings carried by the report (insertion order,
	// first seen first — there is no ranking stage in this pipeline).
	TopFindings int
}

// Summarize builds the report for a finished session.
func Summarize(s *session.Session, opts Options) Report {
	topK := opts.TopFindings
	if topK <= 0 {
		topK = DefaultTopFindings
	}

	all := s.Findings.All()
	kept := all
	if len(kept) > topK {
		kept = kept[:topK]
	}

	report := Report{
		Query:               s.Topic,
		Mode:                string(s.Mode),
		Status:              string(s.Status),
		IterationsCompleted: len(s.Rounds),
		TotalSources:        len(all),
		SearchHistory:       make([]RoundSummary, 0, len(s.Rounds)),
		Findings:            make([]ReportFinding, 0, len(kept)),
	}

	for _, r := range s.Rounds {
		report.SearchHistory = append(report.SearchHistory, RoundSummary{
			Iteration:  r.Index + 1,
			Queries:    r.QueriesIssued,
			NewSources: r.NewFindingCount,
			Failed:     r.FailedQueryCount,
			Plan:       r.PlanNote,
		})
	}
	for _, f := range kept {
		report.Findings = append(report.Findings, ReportFinding{Title: f.Title, URL: f.URL, Snippet: f.Snippet})
	}

	report.Summary = narrative(s, report)
	return report
}

// narrative renders the markdown summary, citing findings by 1-based index.
func narrative(s *session.Session, r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Results: %s\n\n", s.Topic)
	fmt.Fprintf(&b, "**Mode:** %s\n", r.Mode)
	fmt.Fprintf(&b, "**Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "**Iterations:** %d\n", r.IterationsCompleted)
	fmt.Fprintf(&b, "**Sources Found:** %d\n\n", r.TotalSources)

	b.WriteString("## Research Process\n")
	for _, entry := range r.SearchHistory {
		fmt.Fprintf(&b, "- Iteration %d: %s (%d new sources", entry.Iteration, entry.Plan, entry.NewSources)
		if entry.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed queries", entry.Failed)
		}
		b.WriteString(")\n")
	}

	if len(r.Findings) == 0 {
		b.WriteString("\nNo sources were found for this topic. The search engines may be\n")
		b.WriteString("unreachable, or the topic may be too narrow; rephrasing the topic or\n")
		b.WriteString("using speed mode for a quick probe can help.\n")
		return b.String()
	}

	b.WriteString("\n## Key Findings\n\n")
	cited := len(r.Findings)
	if cited > narrativeCitations {
		cited = narrativeCitations
	}
	for i := 0; i < cited; i++ {
		f := r.Findings[i]
		title := f.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "### [%d] %s\n", i+1, title)
		fmt.Fprintf(&b, "**Source:** %s\n", f.URL)
		if f.Snippet != "" {
			fmt.Fprintf(&b, "**Excerpt:** %s\n", util.Truncate(f.Snippet, maxExcerptLen))
		}
		b.WriteString("\n")
	}
	if r.TotalSources > cited {
		fmt.Fprintf(&b, "*... and %d more sources*\n", r.TotalSources-cited)
	}
	return b.String()
}
