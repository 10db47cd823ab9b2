package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/monitoring"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// Request is one call to an exchange endpoint before signing
type Request struct {
	API     string // access tier, a key of Describe.API and URLs.API
	Method  string
	Path    string
	Params  Params
	Headers map[string]string
}

// SignedRequest is what goes on the wire
type SignedRequest struct {
	URL     string
	Method  string
	Body    string
	Headers map[string]string
}

// Response is the raw reply handed to the adapter's error handler
type Response struct {
	StatusCode     int
	Reason         string
	URL            string
	Method         string
	Headers        http.Header
	Body           string
	JSON           gjson.Result
	RequestHeaders map[string]string
	RequestBody    string
}

// Hooks are implemented by every adapter
type Hooks interface {
	// Sign builds the final URL, body and headers of req
	Sign(req Request) (SignedRequest, error)
	// HandleErrors inspects a response and returns nil when it carries no error
	HandleErrors(resp *Response) error
}

// MarketFetcher is implemented by adapters that list their markets
type MarketFetcher interface {
	FetchMarkets(ctx context.Context, params Params) ([]types.Market, error)
}

// CurrencyFetcher is implemented by adapters that list their currencies
type CurrencyFetcher interface {
	FetchCurrencies(ctx context.Context, params Params) ([]types.Currency, error)
}

// CurrencyMarketFetcher is implemented by adapters whose market ids can only
// be parsed against the currency list. LoadMarkets prefers it over
// MarketFetcher.
type CurrencyMarketFetcher interface {
	FetchMarketsWithCurrencies(ctx context.Context, currencies []types.Currency, params Params) ([]types.Market, error)
}

// Client is the shared base of every adapter. It owns transport, rate
// limiting, credentials, the nonce source and the market snapshot.
type Client struct {
	desc    Describe
	cfg     Config
	hooks   Hooks
	http    *resty.Client
	limiter *safety.RateLimiter
	breaker *safety.CircuitBreaker
	health  *monitoring.HealthChecker
	log     *logrus.Entry
	clock   func() time.Time

	lastNonce atomic.Int64
	markets   atomic.Pointer[Markets]
	loadMu    sync.Mutex
}

// NewClient builds the base client for desc. Options set in cfg override
// the adapter's defaults.
func NewClient(desc Describe, cfg Config, hooks Hooks) *Client {
	desc.Options = MergeOptions(desc.Options, cfg.Options)
	if cfg.Hostname != "" {
		desc.Hostname = cfg.Hostname
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var httpClient *resty.Client
	if cfg.HTTPClient != nil {
		httpClient = resty.NewWithClient(cfg.HTTPClient)
	} else {
		httpClient = resty.New()
	}
	httpClient.SetTimeout(timeout)

	limiter := cfg.Limiter
	if limiter == nil {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		if cfg.RateLimit > 0 {
			limiter = safety.NewRateLimiter(desc.ID, cfg.RateLimit, burst)
		} else {
			limiter = safety.FromInterval(desc.ID, desc.RateLimit, burst)
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.WithComponent(desc.ID)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Client{
		desc:    desc,
		cfg:     cfg,
		hooks:   hooks,
		http:    httpClient,
		limiter: limiter,
		breaker: cfg.CircuitBreaker,
		health:  cfg.Health,
		log:     log,
		clock:   clock,
	}
}

// ID returns the exchange id
func (c *Client) ID() string {
	return c.desc.ID
}

// Describe returns the adapter's static table with config options applied
func (c *Client) Describe() Describe {
	return c.desc
}

// Has reports whether the adapter supports a unified operation
func (c *Client) Has(capability Capability) bool {
	return c.desc.Has[capability]
}

// Timeframes returns the unified to native timeframe map
func (c *Client) Timeframes() map[string]string {
	return c.desc.Timeframes
}

// TimeframeID maps a unified timeframe, passing unknown values through
func (c *Client) TimeframeID(timeframe string) string {
	if id, ok := c.desc.Timeframes[timeframe]; ok {
		return id
	}
	return timeframe
}

// Options returns the merged adapter options
func (c *Client) Options() Options {
	return c.desc.Options
}

// Option returns an exchange-specific option from Options.Extra
func (c *Client) Option(key, def string) string {
	if v, ok := c.desc.Options.Extra[key]; ok && v != "" {
		return v
	}
	return def
}

// Config returns the client settings
func (c *Client) Config() Config {
	return c.cfg
}

// Log returns the client's logger
func (c *Client) Log() *logrus.Entry {
	return c.log
}

// Hostname returns the host substituted into {hostname} URL templates
func (c *Client) Hostname() string {
	return c.desc.Hostname
}

// Milliseconds returns the client clock in Unix milliseconds
func (c *Client) Milliseconds() int64 {
	return c.clock().UnixMilli()
}

// Nonce returns the current time in milliseconds, bumped past the last
// issued value so concurrent callers never share one
func (c *Client) Nonce() int64 {
	for {
		now := c.Milliseconds()
		last := c.lastNonce.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if c.lastNonce.CompareAndSwap(last, next) {
			return next
		}
	}
}

// BaseURL resolves the base URL of an access tier
func (c *Client) BaseURL(tier string) (string, error) {
	if u, ok := c.cfg.URLs[tier]; ok && u != "" {
		return u, nil
	}
	urls := c.desc.URLs.API
	if c.cfg.Sandbox {
		if len(c.desc.URLs.Test) == 0 {
			return "", NewError(NotSupported, c.desc.ID, "does not have a sandbox URL")
		}
		urls = c.desc.URLs.Test
	}
	u, ok := urls[tier]
	if !ok {
		return "", Errorf(ExchangeError, c.desc.ID, "has no URL for API tier %q", tier)
	}
	return strings.ReplaceAll(u, "{hostname}", c.desc.Hostname), nil
}

// CheckRequiredCredentials fails with AuthenticationError naming the first missing credential
func (c *Client) CheckRequiredCredentials() error {
	rc := c.desc.RequiredCredentials
	switch {
	case rc.APIKey && c.cfg.APIKey == "":
		return NewError(AuthenticationError, c.desc.ID, `requires "apiKey" credential`)
	case rc.Secret && c.cfg.Secret == "":
		return NewError(AuthenticationError, c.desc.ID, `requires "secret" credential`)
	case rc.UID && c.cfg.UID == "":
		return NewError(AuthenticationError, c.desc.ID, `requires "uid" credential`)
	case rc.Token && c.cfg.Token == "":
		return NewError(AuthenticationError, c.desc.ID, `requires "token" credential`)
	}
	return nil
}

// Fetch dispatches req and returns the parsed JSON body
func (c *Client) Fetch(ctx context.Context, req Request) (gjson.Result, error) {
	resp, err := c.Request(ctx, req)
	if err != nil {
		return gjson.Result{}, err
	}
	return resp.JSON, nil
}

// Request dispatches req and returns the full response. Errors are always
// *Error values stamped with the exchange id.
func (c *Client) Request(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	req.Method = strings.ToUpper(req.Method)
	if len(c.desc.API) > 0 && !c.desc.API.Contains(req.API, strings.ToLower(req.Method), req.Path) {
		return nil, Errorf(NotSupported, c.desc.ID, "does not declare endpoint %s %s %s", req.API, req.Method, req.Path)
	}

	var resp *Response
	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.contextError(err)
		}
		r, err := c.do(ctx, req)
		resp = r
		return err
	}

	call := attempt
	if c.breaker != nil {
		call = func() error {
			err := c.breaker.Call(attempt)
			if errors.Is(err, safety.ErrCircuitOpen) {
				return &Error{Kind: ExchangeNotAvailable, Exchange: c.desc.ID, Message: c.desc.ID + " circuit breaker is open", Err: err}
			}
			return err
		}
	}

	var err error
	if c.cfg.Retry.MaxRetries > 0 {
		err = c.retryWithConfig(ctx, call, c.cfg.Retry)
	} else {
		err = call()
	}
	if err != nil {
		var exErr *Error
		if !errors.As(err, &exErr) {
			err = c.contextError(err)
		}
		return resp, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	signed, err := c.hooks.Sign(req)
	if err != nil {
		return nil, c.stamp(err, 0)
	}
	if signed.Method == "" {
		signed.Method = req.Method
	}

	r := c.http.R().SetContext(ctx)
	if len(signed.Headers) > 0 {
		r.SetHeaders(signed.Headers)
	}
	if signed.Body != "" {
		r.SetBody(signed.Body)
	}

	start := time.Now()
	raw, err := r.Execute(signed.Method, signed.URL)
	elapsed := time.Since(start)
	if err != nil {
		kind := NetworkError
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = RequestTimeout
		}
		exErr := &Error{
			Kind:     kind,
			Exchange: c.desc.ID,
			Message:  fmt.Sprintf("%s %s %s", c.desc.ID, signed.Method, signed.URL),
			Err:      err,
		}
		c.observe(req, signed, 0, elapsed, exErr)
		return nil, exErr
	}

	resp := &Response{
		StatusCode:     raw.StatusCode(),
		Reason:         http.StatusText(raw.StatusCode()),
		URL:            signed.URL,
		Method:         signed.Method,
		Headers:        raw.Header(),
		Body:           string(raw.Body()),
		RequestHeaders: signed.Headers,
		RequestBody:    signed.Body,
	}
	if body := strings.TrimSpace(resp.Body); body != "" && gjson.Valid(body) {
		resp.JSON = gjson.Parse(body)
	}

	err = c.handleResponse(resp)
	c.observe(req, signed, resp.StatusCode, elapsed, err)
	return resp, err
}

func (c *Client) handleResponse(resp *Response) error {
	if err := c.hooks.HandleErrors(resp); err != nil {
		return c.stamp(err, resp.StatusCode)
	}
	if kind, ok := httpStatusKind(resp.StatusCode); ok {
		return &Error{
			Kind:       kind,
			Exchange:   c.desc.ID,
			Message:    fmt.Sprintf("%s %s %s %d %s %s", c.desc.ID, resp.Method, resp.URL, resp.StatusCode, resp.Reason, resp.Body),
			HTTPStatus: resp.StatusCode,
		}
	}
	if strings.TrimSpace(resp.Body) != "" && !resp.JSON.Exists() {
		return &Error{
			Kind:       ExchangeError,
			Exchange:   c.desc.ID,
			Message:    Feedback(c.desc.ID, resp.Body),
			HTTPStatus: resp.StatusCode,
		}
	}
	return nil
}

// httpStatusKind is the fallback mapping applied when the adapter finds no error
func httpStatusKind(code int) (ErrorKind, bool) {
	switch {
	case code == 400:
		return BadRequest, true
	case code == 401:
		return AuthenticationError, true
	case code == 403:
		return PermissionDenied, true
	case code == 404, code == 409:
		return ExchangeNotAvailable, true
	case code == 418, code == 429:
		return RateLimitExceeded, true
	case code == 504:
		return RequestTimeout, true
	case code == 500, code == 502, code == 503, code >= 520 && code <= 530:
		return ExchangeNotAvailable, true
	}
	return 0, false
}

// stamp fills the exchange id and HTTP status into adapter errors
func (c *Client) stamp(err error, status int) error {
	var exErr *Error
	if !errors.As(err, &exErr) {
		return &Error{Kind: ExchangeError, Exchange: c.desc.ID, Message: c.desc.ID + " " + err.Error(), HTTPStatus: status, Err: err}
	}
	if exErr.Exchange == "" {
		exErr.Exchange = c.desc.ID
	}
	if exErr.HTTPStatus == 0 {
		exErr.HTTPStatus = status
	}
	return exErr
}

func (c *Client) contextError(err error) error {
	kind := NetworkError
	if errors.Is(err, context.DeadlineExceeded) {
		kind = RequestTimeout
	}
	return &Error{Kind: kind, Exchange: c.desc.ID, Message: c.desc.ID + " request aborted", Err: err}
}

func (c *Client) observe(req Request, signed SignedRequest, status int, elapsed time.Duration, err error) {
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	monitoring.RecordRequest(c.desc.ID, req.API, signed.Method, statusLabel, elapsed)

	entry := c.log.WithFields(logrus.Fields{
		"method":      signed.Method,
		"url":         signed.URL,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	})

	if err == nil {
		c.limiter.Recover()
		if c.health != nil {
			c.health.RecordSuccess(c.desc.ID)
		}
		entry.Debug("request completed")
		return
	}

	kind, _ := KindOf(err)
	monitoring.RecordError(c.desc.ID, kind.String())
	if kind == RateLimitExceeded {
		c.limiter.Backoff()
	}
	if c.health != nil {
		if kind.Category() == CategoryTransient {
			c.health.RecordFailure(c.desc.ID, err.Error())
		} else {
			c.health.RecordSuccess(c.desc.ID)
		}
	}
	entry.WithField("error_kind", kind.String()).Debug("request failed")
}

func (c *Client) recordRetry() {
	monitoring.RecordRetry(c.desc.ID)
}

// LoadMarkets fetches currencies (when supported) and markets once and
// publishes them as an immutable snapshot. A loaded snapshot is reused
// unless reload is set.
func (c *Client) LoadMarkets(ctx context.Context, reload bool) (*Markets, error) {
	if m := c.markets.Load(); m != nil && !reload {
		return m, nil
	}
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if m := c.markets.Load(); m != nil && !reload {
		return m, nil
	}

	var currencies []types.Currency
	if cf, ok := c.hooks.(CurrencyFetcher); ok && c.desc.Has[CapFetchCurrencies] {
		list, err := cf.FetchCurrencies(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch currencies: %w", err)
		}
		currencies = list
	}

	var markets []types.Market
	var err error
	switch f := c.hooks.(type) {
	case CurrencyMarketFetcher:
		markets, err = f.FetchMarketsWithCurrencies(ctx, currencies, nil)
	case MarketFetcher:
		markets, err = f.FetchMarkets(ctx, nil)
	default:
		return nil, NewError(NotSupported, c.desc.ID, "fetchMarkets() is not supported yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markets: %w", err)
	}

	snapshot := NewMarkets(markets, currencies)
	c.SetMarkets(snapshot)
	return snapshot, nil
}

// SetMarkets publishes a snapshot built elsewhere
func (c *Client) SetMarkets(m *Markets) {
	c.markets.Store(m)
	if m != nil {
		monitoring.SetMarketsLoaded(c.desc.ID, m.Len())
		c.log.WithField("markets", m.Len()).Debug("markets loaded")
	}
}

// Markets returns the loaded snapshot
func (c *Client) Markets() (*Markets, error) {
	m := c.markets.Load()
	if m == nil {
		return nil, NewError(ExchangeError, c.desc.ID, "markets not loaded")
	}
	return m, nil
}

// Market returns the market of a unified symbol. Exchange ids are accepted too.
func (c *Client) Market(symbol string) (types.Market, error) {
	m, err := c.Markets()
	if err != nil {
		return types.Market{}, err
	}
	if mk, ok := m.Market(symbol); ok {
		return mk, nil
	}
	if mk, ok := m.MarketByID(symbol); ok {
		return mk, nil
	}
	return types.Market{}, Errorf(BadSymbol, c.desc.ID, "does not have market symbol %s", symbol)
}

// MarketID returns the exchange id of a unified symbol
func (c *Client) MarketID(symbol string) (string, error) {
	mk, err := c.Market(symbol)
	if err != nil {
		return "", err
	}
	return mk.ID, nil
}

// SafeMarket resolves an exchange market id. Unknown ids are split on
// delimiter when one is given, otherwise returned as their own symbol.
func (c *Client) SafeMarket(marketID, delimiter string) types.Market {
	if marketID == "" {
		return types.Market{}
	}
	if m := c.markets.Load(); m != nil {
		if mk, ok := m.MarketByID(marketID); ok {
			return mk
		}
	}
	if delimiter != "" {
		if parts := strings.Split(marketID, delimiter); len(parts) == 2 {
			base := c.SafeCurrencyCode(parts[0])
			quote := c.SafeCurrencyCode(parts[1])
			return types.Market{
				ID:      marketID,
				Symbol:  Symbol(base, quote, ""),
				Base:    base,
				Quote:   quote,
				BaseID:  parts[0],
				QuoteID: parts[1],
			}
		}
	}
	return types.Market{ID: marketID, Symbol: marketID}
}

// SafeSymbol is SafeMarket reduced to the unified symbol
func (c *Client) SafeSymbol(marketID, delimiter string) string {
	return c.SafeMarket(marketID, delimiter).Symbol
}

// SafeCurrencyCode maps an exchange currency id to a unified code
func (c *Client) SafeCurrencyCode(currencyID string) string {
	if currencyID == "" {
		return ""
	}
	if m := c.markets.Load(); m != nil {
		if cur, ok := m.CurrencyByID(currencyID); ok {
			return cur.Code
		}
	}
	return CommonCurrencyCode(currencyID, c.desc.CommonCurrencies)
}

// Currency returns a loaded currency by unified code
func (c *Client) Currency(code string) (types.Currency, error) {
	m, err := c.Markets()
	if err != nil {
		return types.Currency{}, err
	}
	if cur, ok := m.Currency(code); ok {
		return cur, nil
	}
	return types.Currency{}, Errorf(ExchangeError, c.desc.ID, "does not have currency code %s", code)
}

// AmountToPrecision truncates amount to the market's amount precision
func (c *Client) AmountToPrecision(symbol string, amount decimal.Decimal) (string, error) {
	mk, err := c.Market(symbol)
	if err != nil {
		return "", err
	}
	out := ToPrecision(amount, Truncate, mk.Precision.Amount, c.desc.PrecisionMode)
	if mk.Precision.Amount.Valid && !amount.IsZero() && ParseDecimal(out).Decimal.IsZero() {
		return "", Errorf(InvalidOrder, c.desc.ID, "amount of %s must be greater than minimum amount precision of %s",
			symbol, mk.Precision.Amount.Decimal.String())
	}
	return out, nil
}

// PriceToPrecision rounds price to the market's price precision
func (c *Client) PriceToPrecision(symbol string, price decimal.Decimal) (string, error) {
	mk, err := c.Market(symbol)
	if err != nil {
		return "", err
	}
	return ToPrecision(price, Round, mk.Precision.Price, c.desc.PrecisionMode), nil
}

// CostToPrecision truncates cost to the market's cost precision, falling back to price precision
func (c *Client) CostToPrecision(symbol string, cost decimal.Decimal) (string, error) {
	mk, err := c.Market(symbol)
	if err != nil {
		return "", err
	}
	precision := mk.Precision.Cost
	if !precision.Valid {
		precision = mk.Precision.Price
	}
	return ToPrecision(cost, Truncate, precision, c.desc.PrecisionMode), nil
}

// CurrencyToPrecision rounds a currency amount to its precision
func (c *Client) CurrencyToPrecision(code string, amount decimal.Decimal) string {
	if m := c.markets.Load(); m != nil {
		if cur, ok := m.Currency(code); ok {
			return ToPrecision(amount, Round, cur.Precision, c.desc.PrecisionMode)
		}
	}
	return amount.String()
}
