package modes

import (
	"fmt"
	"strings"
	"sync"
)

// Mode selects a research depth preset.
type Mode string

const (
	Speed    Mode = "speed"
	Balanced Mode = "balanced"
	Quality  Mode = "quality"
)

// ErrUnknownMode is returned when a caller supplies a mode outside the preset table.
var ErrUnknownMode = fmt.Errorf("unknown research mode")

// Strategy is a query angle the planner rotates through across rounds.
type Strategy string

const (
	StrategyOverview    Strategy = "overview"
	StrategyFeatures    Strategy = "features"
	StrategyComparison  Strategy = "comparison"
	StrategyRecent      Strategy = "recent"
	StrategyReviews     Strategy = "reviews"
	StrategyUseCases    Strategy = "use_cases"
	StrategyLimitations Strategy = "limitations"
	StrategyTechnical   Strategy = "technical"
)

// Cycle is the ordered strategy rotation shared by all modes. Round i uses
// Cycle[i mod len(Cycle)]; round 0 is always forced to overview.
var Cycle = []Strategy{
	StrategyOverview,
	StrategyFeatures,
	StrategyComparison,
	StrategyRecent,
	StrategyReviews,
	StrategyUseCases,
	StrategyLimitations,
	StrategyTechnical,
}

// StrategyFor returns the strategy a given round rotates to.
func StrategyFor(round int) Strategy {
	if round <= 0 {
		return StrategyOverview
	}
	return Cycle[round%len(Cycle)]
}

// Config describes one depth preset.
type Config struct {
	// MaxRounds bounds the number of search rounds in a session.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`
	// MaxQueriesPerRound caps concurrent fan-out cost per round.
	MaxQueriesPerRound int `json:"max_queries_per_round" yaml:"max_queries_per_round"`
	// StopOnFirstYield stops after the first round that produced a new finding.
	StopOnFirstYield bool `json:"stop_on_first_yield" yaml:"stop_on_first_yield"`
	// ZeroStreakLimit stops after this many consecutive rounds with zero new
	// findings. Zero disables streak-based stopping.
	ZeroStreakLimit int `json:"zero_streak_limit" yaml:"zero_streak_limit"`
}

func defaults() map[Mode]Config {
	return map[Mode]Config{
		Speed:    {MaxRounds: 2, MaxQueriesPerRound: 2, StopOnFirstYield: true},
		Balanced: {MaxRounds: 6, MaxQueriesPerRound: 3, ZeroStreakLimit: 2},
		Quality:  {MaxRounds: 25, MaxQueriesPerRound: 3, ZeroStreakLimit: 3},
	}
}

// Table maps depth presets to their configuration. Presets are static; only
// numeric thresholds may be tuned through Apply (config hot reload).
type Table struct {
	mu   sync.RWMutex
	cfgs map[Mode]Config
}

// NewTable returns a table populated with the built-in presets.
func NewTable() *Table {
	return &Table{cfgs: defaults()}
}

// Parse validates a caller-supplied mode string.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Speed, Balanced, Quality:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Get returns the configuration for a mode, rejecting unknown values at the
// boundary rather than defaulting silently.
func (t *Table) Get(m Mode) (Config, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cfg, ok := t.cfgs[m]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	return cfg, nil
}

// Override tunes a preset's numeric thresholds. Zero fields keep the preset value.
type Override struct {
	MaxRounds          int `yaml:"max_rounds"`
	MaxQueriesPerRound int `yaml:"max_queries_per_round"`
	ZeroStreakLimit    int `yaml:"zero_streak_limit"`
}

// Apply merges overrides into the table. Unknown mode names are ignored so a
// stale config file cannot widen the preset set.
func (t *Table) Apply(overrides map[string]Override) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, ov := range overrides {
		m := Mode(strings.ToLower(strings.TrimSpace(name)))
		cfg, ok := t.cfgs[m]
		if !ok {
			continue
		}
		if ov.MaxRounds > 0 {
			cfg.MaxRounds = ov.MaxRounds
		}
		if ov.MaxQueriesPerRound > 0 {
			cfg.MaxQueriesPerRound = ov.MaxQueriesPerRound
		}
		if ov.ZeroStreakLimit > 0 && m != Speed {
			cfg.ZeroStreakLimit = ov.ZeroStreakLimit
		}
		t.cfgs[m] = cfg
	}
}
