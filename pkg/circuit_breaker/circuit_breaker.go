package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	State() Status
	Reset()
}

type Config struct {
	// Window is how many recent calls are tracked.
	Window int `envconfig:"CB_WINDOW" default:"10"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `envconfig:"CB_TIMEOUT" default:"30s"`
	// FailureRatio of the window that opens the breaker.
	FailureRatio float64 `envconfig:"CB_FAILURE_RATIO" default:"0.5"`
	// RecoveryCalls is the number of consecutive half-open successes needed to close.
	RecoveryCalls int `envconfig:"CB_RECOVERY_CALLS" default:"3"`
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state    Status
	openedAt time.Time
	// ring of recent outcomes, true = failed
	outcomes  []bool
	pos       int
	successes int
}

func New(cfg Config) CircuitBreaker {
	return newBreaker(cfg, time.Now)
}

func NewWithClock(cfg Config, now func() time.Time) CircuitBreaker {
	return newBreaker(cfg, now)
}

func newBreaker(cfg Config, now func() time.Time) *circuitBreaker {
	if cfg.Window <= 0 {
		cfg.Window = 10
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	return &circuitBreaker{
		cfg:      cfg,
		now:      now,
		state:    Closed,
		outcomes: make([]bool, cfg.Window),
	}
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successes = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.outcomes[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.outcomes)

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
			return err
		}
		cb.successes++
		if cb.successes >= cb.cfg.RecoveryCalls {
			cb.reset()
		}
		return nil
	}

	fails := 0
	for _, failed := range cb.outcomes {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(cb.outcomes)) >= cb.cfg.FailureRatio {
		cb.trip()
	}
	return err
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successes = 0
	cb.openedAt = cb.now()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.outcomes {
		cb.outcomes[i] = false
	}
	cb.successes = 0
	cb.pos = 0
	cb.state = Closed
}
