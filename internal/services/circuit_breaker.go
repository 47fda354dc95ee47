package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expense-ledger/internal/models"
)

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// CircuitBreakerState is the position of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

type CircuitBreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:     5,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 3,
	}
}

type CircuitBreaker struct {
	mu                sync.Mutex
	config            CircuitBreakerConfig
	state             CircuitBreakerState
	failures          int
	halfOpenSuccesses int
	lastFailureTime   time.Time
	now               func() time.Time
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// IsOpen reports whether calls should be refused. An open breaker moves to
// half-open once the reset timeout has passed since the last failure.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailureTime) > cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenSuccesses = 0
		return false
	}

	return cb.state == StateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.HalfOpenMaxSucc {
			cb.transitionToClosed()
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateHalfOpen:
		cb.transitionToOpen()
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.transitionToOpen()
		}
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transitionToClosed() {
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenSuccesses = 0
}

func (cb *CircuitBreaker) transitionToOpen() {
	cb.state = StateOpen
	cb.halfOpenSuccesses = 0
}

// breakerPublisher stops calling a failing broker until it has had time to recover
type breakerPublisher struct {
	next    EventPublisherInterface
	breaker *CircuitBreaker
	audit   *AuditLogger
}

// NewCircuitBreakerPublisher guards next with a circuit breaker
func NewCircuitBreakerPublisher(next EventPublisherInterface, config CircuitBreakerConfig, logger *slog.Logger) EventPublisherInterface {
	return &breakerPublisher{
		next:    next,
		breaker: NewCircuitBreaker(config),
		audit:   NewAuditLogger(logger),
	}
}

func (p *breakerPublisher) PublishExpenseCreated(ctx context.Context, expense *models.Expense) error {
	before := p.breaker.GetState()
	defer func() {
		if after := p.breaker.GetState(); after != before {
			p.audit.LogCircuitBreakerStateChange(ctx, "expense_events", before, after)
		}
	}()

	if p.breaker.IsOpen() {
		return fmt.Errorf("expense %d not published: %w", expense.ID, ErrCircuitBreakerOpen)
	}

	if err := p.next.PublishExpenseCreated(ctx, expense); err != nil {
		p.breaker.RecordFailure()
		return err
	}

	p.breaker.RecordSuccess()
	return nil
}
