package adapters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/coinmetro"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
)

func TestCreateExchange(t *testing.T) {
	f := NewFactory(monitoring.NewHealthChecker())

	for _, name := range f.GetSupportedExchanges() {
		t.Run(name, func(t *testing.T) {
			ex, err := f.CreateExchange(exchange.ExchangeConfig{Name: " " + name + " "})
			require.NoError(t, err)
			assert.Equal(t, name, ex.ID())
			assert.True(t, ex.Has(exchange.CapFetchMarkets))
		})
	}
}

func TestCreateExchange_ReturnsAdapterType(t *testing.T) {
	f := NewFactory(nil)

	ex, err := f.CreateExchange(exchange.ExchangeConfig{Name: "Coinmetro"})
	require.NoError(t, err)
	_, ok := ex.(*coinmetro.Client)
	assert.True(t, ok)
}

func TestCreateExchange_SharesRateLimiter(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.CreateExchange(exchange.ExchangeConfig{Name: "bitbns"})
	require.NoError(t, err)
	_, err = f.CreateExchange(exchange.ExchangeConfig{Name: "bitbns"})
	require.NoError(t, err)
	_, err = f.CreateExchange(exchange.ExchangeConfig{Name: "alpaca", Client: exchange.Config{RateLimit: 5}})
	require.NoError(t, err)

	stats := f.RateLimiterStats()
	require.Len(t, stats, 2)
	byName := map[string]float64{}
	for _, s := range stats {
		byName[s.Name] = s.Nominal
	}
	assert.InDelta(t, 1000.0/bitbnsRateLimit(t), byName["bitbns"], 1e-9)
	assert.InDelta(t, 5.0, byName["alpaca"], 1e-9)
	assert.Empty(t, f.OpenCircuits())
}

func bitbnsRateLimit(t *testing.T) float64 {
	t.Helper()
	caps, err := NewFactory(nil).GetExchangeCapabilities("bitbns")
	require.NoError(t, err)
	return caps.RateLimitMs
}

func TestValidateConfig(t *testing.T) {
	f := NewFactory(nil)

	tests := []struct {
		name     string
		config   exchange.ExchangeConfig
		wantKind exchange.ErrorKind
		wantOK   bool
	}{
		{"public access needs no credentials", exchange.ExchangeConfig{Name: "bit2me"}, 0, true},
		{"complete credentials", exchange.ExchangeConfig{Name: "bitbns", Client: exchange.Config{APIKey: "k", Secret: "s"}}, 0, true},
		{"coinmetro falls back to key and secret", exchange.ExchangeConfig{Name: "coinmetro", Client: exchange.Config{APIKey: "k", Secret: "s"}}, 0, true},
		{"coinmetro sandbox", exchange.ExchangeConfig{Name: "coinmetro", Client: exchange.Config{Sandbox: true}}, 0, true},
		{"missing name", exchange.ExchangeConfig{}, exchange.ArgumentsRequired, false},
		{"unknown exchange", exchange.ExchangeConfig{Name: "bybit"}, exchange.NotSupported, false},
		{"no sandbox", exchange.ExchangeConfig{Name: "bitbns", Client: exchange.Config{Sandbox: true}}, exchange.NotSupported, false},
		{"half the credentials", exchange.ExchangeConfig{Name: "bit2me", Client: exchange.Config{APIKey: "k"}}, exchange.AuthenticationError, false},
		{"negative rate limit", exchange.ExchangeConfig{Name: "alpaca", Client: exchange.Config{RateLimit: -1}}, exchange.BadRequest, false},
		{"negative retries", exchange.ExchangeConfig{Name: "alpaca", Client: exchange.Config{Retry: exchange.RetryConfig{MaxRetries: -1}}}, exchange.BadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ValidateConfig(tt.config)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestCreateExchange_RejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)

	ex, err := f.CreateExchange(exchange.ExchangeConfig{Name: "kraken"})
	require.Error(t, err)
	assert.Nil(t, ex)
	assert.Contains(t, err.Error(), "alpaca, bit2me, bitbns, coinmetro")
}

func TestGetExchangeCapabilities(t *testing.T) {
	f := NewFactory(nil)

	caps, err := f.GetExchangeCapabilities("coinmetro")
	require.NoError(t, err)
	assert.Equal(t, "coinmetro", caps.ID)
	assert.Equal(t, "Coinmetro", caps.Name)
	assert.True(t, caps.SandboxMode)
	assert.Equal(t, []string{"1m", "5m", "30m", "4h", "1d"}, caps.Timeframes)
	assert.Equal(t, []string{"uid", "token"}, caps.RequiredCredentials)
	assert.Contains(t, caps.Operations, string(exchange.CapFetchLedger))
	assert.NotContains(t, caps.Operations, string(exchange.CapFetchDeposits))

	bitbns, err := f.GetExchangeCapabilities("BITBNS")
	require.NoError(t, err)
	assert.False(t, bitbns.SandboxMode)
	assert.Equal(t, []string{"apiKey", "secret"}, bitbns.RequiredCredentials)

	_, err = f.GetExchangeCapabilities("nope")
	assert.True(t, errors.Is(err, exchange.NotSupported))
}
