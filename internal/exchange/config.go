package exchange

import (
	"net/http"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
	"github.com/sirupsen/logrus"
)

// Config holds per-client settings. Zero values fall back to the adapter's
// Describe table.
type Config struct {
	APIKey    string
	Secret    string
	UID       string
	Token     string
	PartnerID string

	Sandbox  bool
	Hostname string

	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
	Retry     RetryConfig
	Options   Options

	// URLs overrides base URLs per access tier
	URLs map[string]string

	HTTPClient     *http.Client
	Limiter        *safety.RateLimiter
	CircuitBreaker *safety.CircuitBreaker
	Health         *monitoring.HealthChecker
	Logger         *logrus.Entry
	Clock          func() time.Time
}

// ExchangeConfig names an exchange and carries its client settings
type ExchangeConfig struct {
	Name   string
	Client Config
}

const defaultTimeout = 10 * time.Second
