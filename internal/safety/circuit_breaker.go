package safety

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
)

// ErrCircuitOpen is returned while a breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // probe successes needed to close again
	Timeout          time.Duration // how long the breaker stays open

	// IsFailure decides which errors count against the breaker. Nil counts every error.
	IsFailure func(error) bool

	// OnStateChange runs after each transition, outside the lock
	OnStateChange func(name string, from, to CircuitBreakerState)
}

// CircuitBreaker stops calling an exchange after repeated transport or
// availability failures. Once Timeout has passed it lets one probe through
// at a time until SuccessThreshold probes succeed.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    uint32
	successes   uint32
	probing     bool
	opens       int
	lastFailure time.Time
	openedAt    time.Time
}

// NewCircuitBreaker creates a breaker; zero config fields get defaults of
// 5 failures, 1 success and 30 seconds
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
	}
}

// Call runs fn unless the breaker is open. Errors rejected by IsFailure are
// returned unchanged and count as a success for the breaker.
func (cb *CircuitBreaker) Call(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()
	failed := err != nil && (cb.config.IsFailure == nil || cb.config.IsFailure(err))
	cb.settle(probe, failed)
	return err
}

func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			return false, ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.probing {
			return false, ErrCircuitOpen
		}
		cb.probing = true
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) settle(probe, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.probing = false
	}
	if failed {
		cb.failures++
		cb.lastFailure = cb.now()
		// a call admitted before another one tripped the breaker must not
		// restart the cool-down
		if cb.state != StateOpen && (cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold) {
			cb.open()
		}
		return
	}

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transition(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.opens++
	cb.transition(StateOpen)
}

// transition is called with mu held
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
	}

	log := logger.WithComponent("circuit_breaker").WithField("exchange", cb.name)
	if to == StateOpen {
		log.Warnf("circuit %s -> %s after %d failures", from, to, cb.failures)
	} else {
		log.Infof("circuit %s -> %s", from, to)
	}
	if cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(cb.name, from, to)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CircuitBreakerStats holds statistics about a circuit breaker
type CircuitBreakerStats struct {
	Name        string
	State       CircuitBreakerState
	Failures    uint32
	Opens       int
	LastFailure time.Time
	RetryAt     time.Time
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	stats := CircuitBreakerStats{
		Name:        cb.name,
		State:       cb.state,
		Failures:    cb.failures,
		Opens:       cb.opens,
		LastFailure: cb.lastFailure,
	}
	if cb.state == StateOpen {
		stats.RetryAt = cb.openedAt.Add(cb.config.Timeout)
	}
	return stats
}

// Reset closes the breaker and forgets recent failures
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transition(StateClosed)
	cb.failures = 0
	cb.probing = false
}

// ForceOpen opens the breaker for one Timeout
func (cb *CircuitBreaker) ForceOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.open()
}

// CircuitBreakerManager shares one breaker per exchange
type CircuitBreakerManager struct {
	breakers map[string]*CircuitBreaker
	mutex    sync.RWMutex
}

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager() *CircuitBreakerManager {
	return &CircuitBreakerManager{
		breakers: make(map[string]*CircuitBreaker),
	}
}

// GetOrCreate returns the breaker registered under name, creating it with
// config on first use
func (cbm *CircuitBreakerManager) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	cbm.mutex.Lock()
	defer cbm.mutex.Unlock()

	if cb, exists := cbm.breakers[name]; exists {
		return cb
	}
	cb := NewCircuitBreaker(name, config)
	cbm.breakers[name] = cb
	return cb
}

// Get gets an existing circuit breaker
func (cbm *CircuitBreakerManager) Get(name string) (*CircuitBreaker, bool) {
	cbm.mutex.RLock()
	defer cbm.mutex.RUnlock()

	cb, exists := cbm.breakers[name]
	return cb, exists
}

// GetStats returns statistics for all breakers, sorted by name
func (cbm *CircuitBreakerManager) GetStats() []CircuitBreakerStats {
	cbm.mutex.RLock()
	defer cbm.mutex.RUnlock()

	stats := make([]CircuitBreakerStats, 0, len(cbm.breakers))
	for _, cb := range cbm.breakers {
		stats = append(stats, cb.GetStats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Reset resets all circuit breakers
func (cbm *CircuitBreakerManager) Reset() {
	cbm.mutex.RLock()
	defer cbm.mutex.RUnlock()

	for _, cb := range cbm.breakers {
		cb.Reset()
	}
}

// HasOpenCircuits returns true if any circuit breakers are open
func (cbm *CircuitBreakerManager) HasOpenCircuits() bool {
	return len(cbm.GetOpenCircuits()) > 0
}

// GetOpenCircuits returns the sorted names of open breakers
func (cbm *CircuitBreakerManager) GetOpenCircuits() []string {
	cbm.mutex.RLock()
	defer cbm.mutex.RUnlock()

	var open []string
	for name, cb := range cbm.breakers {
		if cb.GetState() == StateOpen {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}
