package adapters

import (
	"sort"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/alpaca"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/bit2me"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/bitbns"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/coinmetro"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
)

// Factory creates exchange clients by name. Clients of one exchange share a
// rate limiter and a circuit breaker, so several of them stay within the
// venue's budget.
type Factory struct {
	limiters *safety.RateLimiterManager
	breakers *safety.CircuitBreakerManager
	health   *monitoring.HealthChecker
}

// NewFactory creates a new exchange factory instance. health may be nil.
func NewFactory(health *monitoring.HealthChecker) *Factory {
	return &Factory{
		limiters: safety.NewRateLimiterManager(),
		breakers: safety.NewCircuitBreakerManager(),
		health:   health,
	}
}

// CreateExchange validates config and builds the adapter it names
func (f *Factory) CreateExchange(config exchange.ExchangeConfig) (exchange.Exchange, error) {
	if err := f.ValidateConfig(config); err != nil {
		return nil, err
	}
	name := normalize(config.Name)
	desc, _ := describeOf(name)

	cfg := config.Client
	if cfg.Limiter == nil {
		perSecond := cfg.RateLimit
		if perSecond <= 0 && desc.RateLimit > 0 {
			perSecond = 1000 / desc.RateLimit
		}
		cfg.Limiter = f.limiters.GetOrCreate(name, perSecond, cfg.Burst)
	}
	if cfg.CircuitBreaker == nil {
		cfg.CircuitBreaker = f.breakers.GetOrCreate(name, safety.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 1,
			Timeout:          30 * time.Second,
			IsFailure:        exchange.IsRetryableError,
		})
	}
	if cfg.Health == nil {
		cfg.Health = f.health
	}

	switch name {
	case alpaca.ID:
		return alpaca.New(cfg), nil
	case bit2me.ID:
		return bit2me.New(cfg), nil
	case bitbns.ID:
		return bitbns.New(cfg), nil
	case coinmetro.ID:
		return coinmetro.New(cfg), nil
	}
	return nil, unsupported(config.Name)
}

// GetSupportedExchanges returns a list of supported exchange names
func (f *Factory) GetSupportedExchanges() []string {
	return []string{alpaca.ID, bit2me.ID, bitbns.ID, coinmetro.ID}
}

// ValidateConfig checks the name, the sandbox choice and, when any
// credential is set, that the exchange's required ones are all there.
// Public market data needs no credentials at all.
func (f *Factory) ValidateConfig(config exchange.ExchangeConfig) error {
	if strings.TrimSpace(config.Name) == "" {
		return &exchange.Error{Kind: exchange.ArgumentsRequired, Message: "exchange name is required"}
	}
	name := normalize(config.Name)
	desc, ok := describeOf(name)
	if !ok {
		return unsupported(config.Name)
	}

	cfg := config.Client
	if cfg.Sandbox && len(desc.URLs.Test) == 0 {
		return exchange.NewError(exchange.NotSupported, name, "does not have a sandbox, unset sandbox mode")
	}
	if cfg.RateLimit < 0 || cfg.Burst < 0 {
		return exchange.NewError(exchange.BadRequest, name, "rate limit and burst must not be negative")
	}
	if cfg.Retry.MaxRetries < 0 {
		return exchange.NewError(exchange.BadRequest, name, "max retries must not be negative")
	}

	if cfg.APIKey == "" && cfg.Secret == "" && cfg.UID == "" && cfg.Token == "" {
		return nil
	}
	return checkCredentials(name, cfg)
}

// checkCredentials applies the adapter's own fallbacks before checking, so
// a coinmetro config with only an api key and secret is complete
func checkCredentials(name string, cfg exchange.Config) error {
	type credentialChecker interface {
		CheckRequiredCredentials() error
	}
	var client credentialChecker
	switch name {
	case alpaca.ID:
		client = alpaca.New(cfg)
	case bit2me.ID:
		client = bit2me.New(cfg)
	case bitbns.ID:
		client = bitbns.New(cfg)
	case coinmetro.ID:
		client = coinmetro.New(cfg)
	default:
		return unsupported(name)
	}
	return client.CheckRequiredCredentials()
}

// ExchangeCapabilities represents what features each exchange supports
type ExchangeCapabilities struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Countries           []string `json:"countries"`
	Version             string   `json:"version"`
	RateLimitMs         float64  `json:"rate_limit_ms"`
	SandboxMode         bool     `json:"sandbox_mode"`
	Operations          []string `json:"operations"`
	Timeframes          []string `json:"timeframes"`
	RequiredCredentials []string `json:"required_credentials"`
}

// GetExchangeCapabilities returns the capabilities of a specific exchange
func (f *Factory) GetExchangeCapabilities(exchangeName string) (*ExchangeCapabilities, error) {
	desc, ok := describeOf(normalize(exchangeName))
	if !ok {
		return nil, unsupported(exchangeName)
	}

	timeframes := make([]string, 0, len(desc.Timeframes))
	for tf := range desc.Timeframes {
		timeframes = append(timeframes, tf)
	}
	sort.Slice(timeframes, func(i, j int) bool {
		return timeframeLess(timeframes[i], timeframes[j])
	})

	var credentials []string
	rc := desc.RequiredCredentials
	for _, c := range []struct {
		name     string
		required bool
	}{{"apiKey", rc.APIKey}, {"secret", rc.Secret}, {"uid", rc.UID}, {"token", rc.Token}} {
		if c.required {
			credentials = append(credentials, c.name)
		}
	}

	return &ExchangeCapabilities{
		ID:                  desc.ID,
		Name:                desc.Name,
		Countries:           desc.Countries,
		Version:             desc.Version,
		RateLimitMs:         desc.RateLimit,
		SandboxMode:         len(desc.URLs.Test) > 0,
		Operations:          desc.Capabilities(),
		Timeframes:          timeframes,
		RequiredCredentials: credentials,
	}, nil
}

// RateLimiterStats returns the shared limiter of every exchange created so far
func (f *Factory) RateLimiterStats() []safety.RateLimiterStats {
	return f.limiters.GetStats()
}

// OpenCircuits lists the exchanges whose breaker is currently open
func (f *Factory) OpenCircuits() []string {
	return f.breakers.GetOpenCircuits()
}

func describeOf(name string) (exchange.Describe, bool) {
	switch name {
	case alpaca.ID:
		return alpaca.Describe(), true
	case bit2me.ID:
		return bit2me.Describe(), true
	case bitbns.ID:
		return bitbns.Describe(), true
	case coinmetro.ID:
		return coinmetro.Describe(), true
	}
	return exchange.Describe{}, false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func unsupported(name string) error {
	return exchange.Errorf(exchange.NotSupported, normalize(name), "is not supported, supported exchanges: %s",
		strings.Join([]string{alpaca.ID, bit2me.ID, bitbns.ID, coinmetro.ID}, ", "))
}

// timeframeLess orders timeframes by duration, unparsable ones last by name
func timeframeLess(a, b string) bool {
	da, errA := exchange.ParseTimeframe(a)
	db, errB := exchange.ParseTimeframe(b)
	switch {
	case errA == nil && errB == nil && da != db:
		return da < db
	case errA == nil && errB != nil:
		return true
	case errA != nil && errB == nil:
		return false
	}
	return a < b
}
