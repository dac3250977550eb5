// Package resilience guards calls to external services with circuit breakers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"coverletter-backend/internal/shared/telemetry"
)

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open")

// Config controls breaker tripping. Zero values take defaults.
type Config struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// DefaultConfig returns the settings used for the generation backend.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MinRequests:      5,
		FailureRatio:     0.6,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = def.FailureRatio
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return c
}

// Classifier reports whether err should count against the breaker.
type Classifier func(err error) bool

// Executor runs operations through one breaker per operation name. Calls are
// never retried.
type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewExecutor constructs an Executor.
func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn. A nil classifier counts every error as a failure.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier Classifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	if e == nil || !e.cfg.Enabled {
		return fn(ctx)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = func(error) bool { return true }
	}

	_, err := e.breaker(op, classifier).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", ErrCircuitOpen, op, err)
	}
	return err
}

// State reports the breaker state for operation.
func (e *Executor) State(operation string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.breakers[operation]; ok {
		return b.State().String()
	}
	return gobreaker.StateClosed.String()
}

func (e *Executor) breaker(operation string, classifier Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[operation]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.HalfOpenMaxCalls,
		Timeout:     e.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Warn("circuit_breaker.state_change", map[string]any{
				"operation": name,
				"from":      from.String(),
				"to":        to.String(),
			})
		},
	}
	b := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = b
	return b
}
