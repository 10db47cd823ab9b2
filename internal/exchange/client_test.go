package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// stubHooks is a minimal adapter: query-string signing and an "error" field check
type stubHooks struct {
	c       *Client
	markets []types.Market
}

func (s *stubHooks) Sign(req Request) (SignedRequest, error) {
	base, err := s.c.BaseURL(req.API)
	if err != nil {
		return SignedRequest{}, err
	}
	url := base + "/" + ImplodeParams(req.Path, req.Params)
	if query := URLEncode(Omit(req.Params, ExtractParams(req.Path)...)); query != "" {
		url += "?" + query
	}
	return SignedRequest{URL: url, Method: req.Method, Headers: req.Headers}, nil
}

func (s *stubHooks) HandleErrors(resp *Response) error {
	if msg := SafeString(resp.JSON, "error"); msg != "" {
		return &Error{Kind: InvalidOrder, Message: Feedback(s.c.ID(), resp.Body)}
	}
	return nil
}

func (s *stubHooks) FetchMarkets(ctx context.Context, params Params) ([]types.Market, error) {
	if _, err := s.c.Fetch(ctx, Request{API: "public", Path: "markets"}); err != nil {
		return nil, err
	}
	return s.markets, nil
}

// currencyStub parses markets against the currency list
type currencyStub struct {
	*stubHooks
	seen []types.Currency
}

func (s *currencyStub) FetchCurrencies(ctx context.Context, params Params) ([]types.Currency, error) {
	return []types.Currency{
		{ID: "XBT", Code: "BTC", Precision: DecStr("0.00000001")},
		{ID: "EUR", Code: "EUR", Precision: DecStr("0.01")},
	}, nil
}

func (s *currencyStub) FetchMarketsWithCurrencies(ctx context.Context, currencies []types.Currency, params Params) ([]types.Market, error) {
	s.seen = currencies
	return s.markets, nil
}

func stubDescribe(baseURL string) Describe {
	return MergeDescribe(BaseDescribe(), Describe{
		ID:            "stub",
		RateLimit:     1,
		PrecisionMode: TickSize,
		Hostname:      "stub.test",
		URLs: URLs{
			API:  map[string]string{"public": baseURL, "www": "https://{hostname}/api"},
			Test: map[string]string{"public": "https://sandbox.stub.test"},
		},
		API: API{
			"public": {
				"get":  {"markets", "ticker/{id}", "status"},
				"post": {"order"},
			},
		},
		RequiredCredentials: RequiredCredentials{APIKey: true, Secret: true, UID: true},
	})
}

func stubMarkets() []types.Market {
	return []types.Market{{
		ID: "XBTEUR", Symbol: "BTC/EUR", Base: "BTC", Quote: "EUR", BaseID: "XBT", QuoteID: "EUR",
		Precision: types.Precision{Amount: DecStr("0.001"), Price: DecStr("0.5")},
	}}
}

func newStub(t *testing.T, handler http.HandlerFunc, cfg Config) (*Client, *stubHooks) {
	t.Helper()
	url := "http://unused.test"
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		url = srv.URL
	}
	hooks := &stubHooks{markets: stubMarkets()}
	hooks.c = NewClient(stubDescribe(url), cfg, hooks)
	return hooks.c, hooks
}

func TestClient_Nonce(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	c, _ := newStub(t, nil, Config{Clock: func() time.Time { return fixed }})

	const workers, perWorker = 8, 50
	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n := c.Nonce()
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "nonces are unique under concurrency")
	assert.Greater(t, c.Nonce(), int64(1700000000000+workers*perWorker-1))
}

func TestClient_BaseURL(t *testing.T) {
	c, _ := newStub(t, nil, Config{})
	u, err := c.BaseURL("www")
	require.NoError(t, err)
	assert.Equal(t, "https://stub.test/api", u)

	_, err = c.BaseURL("nope")
	assert.True(t, errors.Is(err, ExchangeError))

	c, _ = newStub(t, nil, Config{Hostname: "alt.test"})
	u, _ = c.BaseURL("www")
	assert.Equal(t, "https://alt.test/api", u)

	c, _ = newStub(t, nil, Config{Sandbox: true})
	u, _ = c.BaseURL("public")
	assert.Equal(t, "https://sandbox.stub.test", u)

	c, _ = newStub(t, nil, Config{Sandbox: true, URLs: map[string]string{"public": "http://override.test"}})
	u, _ = c.BaseURL("public")
	assert.Equal(t, "http://override.test", u, "explicit URLs win over sandbox")

	hooks := &stubHooks{}
	desc := stubDescribe("x")
	desc.URLs.Test = nil
	hooks.c = NewClient(desc, Config{Sandbox: true}, hooks)
	_, err = hooks.c.BaseURL("public")
	assert.True(t, errors.Is(err, NotSupported))
}

func TestClient_CheckRequiredCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"nothing", Config{}, `stub requires "apiKey" credential`},
		{"no secret", Config{APIKey: "k"}, `stub requires "secret" credential`},
		{"no uid", Config{APIKey: "k", Secret: "s"}, `stub requires "uid" credential`},
		{"complete", Config{APIKey: "k", Secret: "s", UID: "u"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newStub(t, nil, tt.cfg)
			err := c.CheckRequiredCredentials()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, AuthenticationError))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestClient_Request(t *testing.T) {
	var lastURL atomic.Value
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		lastURL.Store(r.URL.String())
		switch {
		case strings.HasPrefix(r.URL.Path, "/ticker/"):
			w.Write([]byte(`{"last":"101.5"}`))
		case r.URL.Path == "/order":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"price too low"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}, Config{})

	res, err := c.Fetch(context.Background(), Request{API: "public", Method: "get", Path: "ticker/{id}", Params: Params{"id": "XBTEUR", "depth": 5}})
	require.NoError(t, err)
	assert.Equal(t, "101.5", SafeString(res, "last"))
	assert.Equal(t, "/ticker/XBTEUR?depth=5", lastURL.Load())

	_, err = c.Fetch(context.Background(), Request{API: "public", Method: "POST", Path: "order"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, InvalidOrder), "the adapter handler runs before status mapping")
	assert.Equal(t, 400, HTTPStatusOf(err))
	assert.Equal(t, `stub {"error":"price too low"}`, err.Error())
}

func TestClient_UndeclaredEndpoint(t *testing.T) {
	var calls atomic.Int32
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, Config{})

	_, err := c.Fetch(context.Background(), Request{API: "public", Method: "DELETE", Path: "order"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, NotSupported))
	assert.Zero(t, calls.Load(), "nothing is sent")
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   ErrorKind
	}{
		{400, `{}`, BadRequest},
		{401, `{}`, AuthenticationError},
		{403, `{}`, PermissionDenied},
		{404, `{}`, ExchangeNotAvailable},
		{429, `{}`, RateLimitExceeded},
		{502, `bad gateway`, ExchangeNotAvailable},
		{504, ``, RequestTimeout},
		{200, `<html>maintenance</html>`, ExchangeError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, Config{})

			_, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, kind)
			assert.Equal(t, tt.status, HTTPStatusOf(err))
		})
	}
}

func TestClient_EmptyBodyIsNotAnError(t *testing.T) {
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, Config{})

	res, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
	require.NoError(t, err)
	assert.False(t, res.Exists())
}

func TestClient_Retry(t *testing.T) {
	var calls atomic.Int32
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}, Config{Retry: RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 1}})

	res, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
	require.NoError(t, err)
	assert.Equal(t, "ok", SafeString(res, "status"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Config{})

	_, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
	assert.True(t, errors.Is(err, ExchangeNotAvailable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NoRetryOnBusinessErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"error":"rejected"}`))
	}, Config{Retry: RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond}})

	_, err := c.Fetch(context.Background(), Request{API: "public", Method: "POST", Path: "order"})
	assert.True(t, errors.Is(err, InvalidOrder))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	breaker := safety.NewCircuitBreaker("stub", safety.CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
		IsFailure:        IsRetryableError,
	})
	health := monitoring.NewHealthChecker()
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, Config{CircuitBreaker: breaker, Health: health})

	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
		assert.True(t, errors.Is(err, ExchangeNotAvailable))
	}
	_, err := c.Fetch(context.Background(), Request{API: "public", Path: "status"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, safety.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "degraded", health.Snapshot().Status)
}

func TestClient_OpenBreakerIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	breaker := safety.NewCircuitBreaker("stub", safety.CircuitBreakerConfig{Timeout: time.Hour})
	breaker.ForceOpen()
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, Config{
		CircuitBreaker: breaker,
		Retry:          RetryConfig{MaxRetries: 3, InitialDelay: time.Hour},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	_, err := c.Fetch(ctx, Request{API: "public", Path: "status"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, safety.ErrCircuitOpen), "got %v", err)
	assert.True(t, errors.Is(err, ExchangeNotAvailable))
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 1, breaker.GetStats().Opens)
}

func TestClient_CanceledContext(t *testing.T) {
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {}, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, Request{API: "public", Path: "status"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, NetworkError))
}

func TestClient_MarketsNotLoaded(t *testing.T) {
	c, _ := newStub(t, nil, Config{})

	_, err := c.Market("BTC/EUR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ExchangeError))
	assert.Equal(t, "stub markets not loaded", err.Error())
}

func TestClient_LoadMarkets(t *testing.T) {
	var calls atomic.Int32
	c, _ := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}, Config{})

	m, err := c.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	again, err := c.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.LoadMarkets(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	mk, err := c.Market("XBTEUR")
	require.NoError(t, err)
	assert.Equal(t, "BTC/EUR", mk.Symbol, "ids resolve too")

	_, err = c.Market("ETH/EUR")
	require.Error(t, err)
	assert.True(t, errors.Is(err, BadSymbol))
	assert.Equal(t, "stub does not have market symbol ETH/EUR", err.Error())

	id, _ := c.MarketID("BTC/EUR")
	assert.Equal(t, "XBTEUR", id)
	assert.Equal(t, "BTC", c.SafeCurrencyCode("XBT"))
	assert.Equal(t, "BTC/EUR", c.SafeSymbol("XBTEUR", ""))
	assert.Equal(t, "ETH/USD", c.SafeSymbol("ETH-USD", "-"))
	assert.Equal(t, "FOO", c.SafeSymbol("FOO", ""))
}

func TestClient_LoadMarketsWithCurrencies(t *testing.T) {
	base := &stubHooks{markets: stubMarkets()}
	hooks := &currencyStub{stubHooks: base}
	desc := stubDescribe("http://unused.test")
	desc.Has[CapFetchCurrencies] = true
	base.c = NewClient(desc, Config{}, hooks)
	c := base.c

	m, err := c.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, hooks.seen, 2, "currencies are fetched first and passed to the market parser")
	assert.Equal(t, []string{"EUR", "XBT"}, m.CurrencyIDs())

	cur, err := c.Currency("BTC")
	require.NoError(t, err)
	assert.Equal(t, "XBT", cur.ID)
	_, err = c.Currency("DOGE")
	assert.True(t, errors.Is(err, ExchangeError))

	assert.Equal(t, "0.12", c.CurrencyToPrecision("EUR", decimal.RequireFromString("0.123")))
	assert.Equal(t, "0.123", c.CurrencyToPrecision("DOGE", decimal.RequireFromString("0.123")))
}

func TestClient_Precision(t *testing.T) {
	c, _ := newStub(t, nil, Config{})
	c.SetMarkets(NewMarkets(stubMarkets(), nil))

	amount, err := c.AmountToPrecision("BTC/EUR", decimal.RequireFromString("1.23456"))
	require.NoError(t, err)
	assert.Equal(t, "1.234", amount)

	_, err = c.AmountToPrecision("BTC/EUR", decimal.RequireFromString("0.0001"))
	assert.True(t, errors.Is(err, InvalidOrder))

	price, err := c.PriceToPrecision("BTC/EUR", decimal.RequireFromString("100.3"))
	require.NoError(t, err)
	assert.Equal(t, "100.5", price)

	cost, err := c.CostToPrecision("BTC/EUR", decimal.RequireFromString("100.9"))
	require.NoError(t, err)
	assert.Equal(t, "100.5", cost, "falls back to the price tick")

	_, err = c.PriceToPrecision("ETH/EUR", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, BadSymbol))
}

func TestClient_Options(t *testing.T) {
	c, _ := newStub(t, nil, Config{Options: Options{Extra: map[string]string{"twofa": "123456"}}})

	assert.Equal(t, "123456", c.Option("twofa", ""))
	assert.Equal(t, "x", c.Option("missing", "x"))
	assert.Equal(t, "spot", c.Options().DefaultType)
	assert.Equal(t, "1h", c.TimeframeID("1h"), "unknown timeframes pass through")
	assert.True(t, c.Has(CapFetchMarkets))
	assert.False(t, c.Has(CapCreateOrder))
}
