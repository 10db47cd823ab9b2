package monitoring

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks the last outcome of requests per exchange
type HealthChecker struct {
	mu        sync.RWMutex
	exchanges map[string]*exchangeHealth
	maxErrors int
}

type exchangeHealth struct {
	lastSuccess time.Time
	lastFailure time.Time
	errors      []string
}

// ExchangeHealth is the reported state of one exchange
type ExchangeHealth struct {
	Exchange    string    `json:"exchange"`
	Status      string    `json:"status"`
	LastSuccess time.Time `json:"last_success"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
}

// HealthStatus is the body served by the health endpoint
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Exchanges []ExchangeHealth `json:"exchanges"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		exchanges: make(map[string]*exchangeHealth),
		maxErrors: 5,
	}
}

func (h *HealthChecker) entry(exchange string) *exchangeHealth {
	e, ok := h.exchanges[exchange]
	if !ok {
		e = &exchangeHealth{}
		h.exchanges[exchange] = e
	}
	return e
}

// RecordSuccess marks a completed request and clears recent errors
func (h *HealthChecker) RecordSuccess(exchange string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(exchange)
	e.lastSuccess = time.Now()
	e.errors = e.errors[:0]
}

// RecordFailure remembers a transport or availability failure
func (h *HealthChecker) RecordFailure(exchange, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(exchange)
	e.lastFailure = time.Now()
	e.errors = append(e.errors, message)
	if len(e.errors) > h.maxErrors {
		e.errors = e.errors[len(e.errors)-h.maxErrors:]
	}
}

// Snapshot returns the state of every tracked exchange, sorted by name
func (h *HealthChecker) Snapshot() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
	}
	for name, e := range h.exchanges {
		eh := ExchangeHealth{
			Exchange:    name,
			Status:      "healthy",
			LastSuccess: e.lastSuccess,
			LastFailure: e.lastFailure,
			Errors:      append([]string(nil), e.errors...),
		}
		if len(e.errors) > 0 {
			eh.Status = "degraded"
			status.Status = "degraded"
		}
		status.Exchanges = append(status.Exchanges, eh)
	}
	sort.Slice(status.Exchanges, func(i, j int) bool {
		return status.Exchanges[i].Exchange < status.Exchanges[j].Exchange
	})
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
