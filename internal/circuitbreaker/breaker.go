// Package circuitbreaker guards the outbound search provider with a
// closed/open/half-open breaker so a struggling metasearch instance sheds
// load instead of absorbing every round's fan-out.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the wrapped function while the breaker
// is open or half-open capacity is exhausted.
var ErrOpen = errors.New("circuit breaker open")

// Settings tunes breaker behavior.
type Settings struct {
	FailureThreshold int           // consecutive failures that open the breaker
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // how long to stay open before probing
	HalfOpenProbes   int           // concurrent probes allowed while half-open
}

// DefaultSettings fits a single metasearch backend answering a few queries
// per round.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		HalfOpenProbes:   1,
	}
}

// Breaker implements the circuit breaker state machine.
type Breaker struct {
	name     string
	settings Settings
	log      *zap.Logger

	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	probesInUse  int
	openedAt     time.Time
	stateChanged func(name string, from, to State)
}

// New creates a breaker with the given settings.
func New(name string, settings Settings, logger *zap.Logger) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings = DefaultSettings()
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &Breaker{name: name, settings: settings, log: logger, state: StateClosed}
}

// OnStateChange registers a hook invoked on every transition (used for metrics).
func (b *Breaker) OnStateChange(fn func(name string, from, to State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateChanged = fn
}

// State reports the current state, advancing open → half-open when the open
// timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(time.Now())
	return b.state
}

// Execute runs fn when the breaker admits the call, recording the outcome.
// Context errors count as failures like any other.
func (b *Breaker) Execute(ctx context.Context, fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		b.record(false)
		return err
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(time.Now())

	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		if b.probesInUse >= b.settings.HalfOpenProbes {
			return ErrOpen
		}
		b.probesInUse++
	}
	return nil
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.probesInUse--
		if !success {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.settings.SuccessThreshold {
			b.transition(StateClosed)
		}
	case StateOpen:
		// Late result from a call admitted before the breaker opened; ignore.
	}
}

// tick advances open → half-open once the open timeout has elapsed.
// Caller holds b.mu.
func (b *Breaker) tick(now time.Time) {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.OpenTimeout {
		b.transition(StateHalfOpen)
	}
}

// transition moves to a new state. Caller holds b.mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.probesInUse = 0
	if to == StateOpen {
		b.openedAt = time.Now()
	}
	if b.stateChanged != nil {
		b.stateChanged(b.name, from, to)
	}
	b.log.Info("circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
