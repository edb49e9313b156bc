// Package stopping decides, after each completed round, whether a research
// session keeps going. The policy is a small state machine over a rolling
// zero-streak counter; it is consulted strictly after the round's statistics
// are recorded, never mid-round.
package stopping

import "github.com/fathomlabs/fathom/internal/modes"

// Decision is the policy's verdict for one completed round.
type Decision int

const (
	// Continue requests another round.
	Continue Decision = iota
	// StopEarly ends the session because the mode's stopping rule fired.
	StopEarly
	// Exhausted ends the session because the round budget ran out.
	Exhausted
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case StopEarly:
		return "stop_early"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Policy tracks consecutive zero-new-finding rounds for one session.
type Policy struct {
	cfg        modes.Config
	zeroStreak int
}

// NewPolicy builds a fresh policy for a session of the given mode config.
func NewPolicy(cfg modes.Config) *Policy {
	return &Policy{cfg: cfg}
}

// ZeroStreak exposes the current streak for round logging.
func (p *Policy) ZeroStreak() int { return p.zeroStreak }

// Observe records a completed round and returns the verdict. Mode rules take
// precedence over exhaustion so a final round that also satisfies its rule is
// reported as an early stop.
func (p *Policy) Observe(roundIndex, newFindings int) Decision {
	if newFindings > 0 {
		p.zeroStreak = 0
	} else {
		p.zeroStreak++
	}

	if p.cfg.StopOnFirstYield && newFindings >= 1 {
		return StopEarly
	}
	if p.cfg.ZeroStreakLimit > 0 && p.zeroStreak >= p.cfg.ZeroStreakLimit {
		return StopEarly
	}
	if roundIndex >= p.cfg.MaxRounds-1 {
		return Exhausted
	}
	return Continue
}
