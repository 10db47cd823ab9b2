package bit2me

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const marketConfig = `[
	{
		"id": "767a9906-3757-4d9c-8d90-504eb0a35a18",
		"symbol": "BTC/EUR",
		"minAmount": 0.0001,
		"maxAmount": 20,
		"minPrice": 1000,
		"maxPrice": 1000000,
		"minOrderSize": 1,
		"tickSize": 0.000001,
		"pricePrecision": 2,
		"amountPrecision": 6,
		"initialPrice": 0,
		"marketEnabled": "enabled",
		"marketEnabledAt": null
	},
	{
		"id": "3c3c5a3a-3b4f-4f0e-9d7e-2b6d3e0f9a10",
		"symbol": "B2M/EUR",
		"minAmount": 1,
		"pricePrecision": 4,
		"amountPrecision": 2,
		"marketEnabled": "enabled_at",
		"marketEnabledAt": "2023-01-01T00:00:00.000Z"
	},
	{
		"id": "0b0f9c1e-5a63-4a4f-8f43-0d8a5e1c2b3d",
		"symbol": "NEW/EUR",
		"pricePrecision": 4,
		"amountPrecision": 2,
		"marketEnabled": "enabled_at",
		"marketEnabledAt": "2099-01-01T00:00:00.000Z"
	}
]`

// fixedNow is 2023-11-14T22:13:20Z
var fixedNow = time.UnixMilli(1700000000000)

type recorded struct {
	method  string
	path    string
	query   string
	body    string
	headers http.Header
}

func newTestClient(t *testing.T, routes map[string]string) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method:  r.Method,
			path:    r.URL.Path,
			query:   r.URL.RawQuery,
			body:    string(body),
			headers: r.Header.Clone(),
		})
		resp, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"Not Found","message":"Not Found"}`))
			return
		}
		// "<status>|<body>" answers with a non-200 status
		if status, payload, found := strings.Cut(resp, "|"); found {
			code, err := strconv.Atoi(status)
			assert.NoError(t, err)
			w.WriteHeader(code)
			_, _ = w.Write([]byte(payload))
			return
		}
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	c := New(exchange.Config{
		APIKey:  "key",
		Secret:  "secret",
		URLs:    map[string]string{tierPublic: srv.URL, tierPrivate: srv.URL},
		Limiter: safety.NewRateLimiter("test", 0, 1),
		Clock:   func() time.Time { return fixedNow },
	})
	return c, &calls
}

func withMarkets(t *testing.T, routes map[string]string) (*Client, *[]recorded) {
	t.Helper()
	if routes == nil {
		routes = map[string]string{}
	}
	routes["GET /v1/trading/market-config"] = marketConfig
	c, calls := newTestClient(t, routes)
	_, err := c.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
	return c, calls
}

func lastCall(calls *[]recorded) recorded {
	return (*calls)[len(*calls)-1]
}

func TestFetchMarkets(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{"GET /v1/trading/market-config": marketConfig})

	markets, err := c.FetchMarkets(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, markets, 3)

	btc := markets[0]
	assert.Equal(t, "BTC/EUR", btc.ID)
	assert.Equal(t, "BTC/EUR", btc.Symbol)
	assert.Equal(t, "BTC", btc.BaseID)
	assert.Equal(t, "EUR", btc.QuoteID)
	assert.True(t, *btc.Active)
	assert.Equal(t, "2", btc.Precision.Price.Decimal.String())
	assert.Equal(t, "6", btc.Precision.Amount.Decimal.String())
	assert.Equal(t, "0.0001", btc.Limits.Amount.Min.Decimal.String())
	assert.Equal(t, "1000000", btc.Limits.Price.Max.Decimal.String())

	assert.True(t, *markets[1].Active, "enabled_at in the past is active")
	assert.Equal(t, int64(1672531200000), markets[1].Created)
	assert.False(t, *markets[2].Active, "enabled_at in the future is not active yet")
}

func TestMarketBeforeLoad(t *testing.T) {
	c, calls := newTestClient(t, nil)

	_, err := c.FetchTicker(context.Background(), "BTC/EUR", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.ExchangeError))
	assert.Contains(t, err.Error(), "markets not loaded")
	assert.Empty(t, *calls)
}

func TestFetchOrderBook(t *testing.T) {
	c, _ := withMarkets(t, map[string]string{
		"GET /v2/trading/order-book": `{"bids":[[63614.1,0.05]],"asks":[[63614.2,0.0049614]],"timestamp":1715871588147,"symbol":"BTC/EUR"}`,
	})

	book, err := c.FetchOrderBook(context.Background(), "BTC/EUR", 0, nil)
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, "63614.1", book.Bids[0].Price().String())
	assert.Equal(t, "0.05", book.Bids[0].Amount().String())
	assert.Equal(t, "63614.2", book.Asks[0].Price().String())
	assert.Equal(t, "0.0049614", book.Asks[0].Amount().String())
	assert.Equal(t, int64(1715871588147), book.Timestamp)
	assert.Equal(t, "BTC/EUR", book.Symbol)
}

func TestFetchOrderBook_UnknownSymbol(t *testing.T) {
	c, _ := withMarkets(t, nil)

	_, err := c.FetchOrderBook(context.Background(), "DOGE/EUR", 0, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.BadSymbol))
}

func TestFetchTicker(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"GET /v2/trading/tickers": `[{"timestamp":1715081606087,"symbol":"BTC/EUR","open":59692.2,"close":59459.3,"bid":59459.3,"ask":59459.4,"high":59807.8,"low":58259,"baseVolume":506.2471485105999,"percentage":-0.39,"quoteVolume":30160053.557880376}]`,
	})

	ticker, err := c.FetchTicker(context.Background(), "BTC/EUR", nil)
	require.NoError(t, err)
	assert.Equal(t, "symbol=BTC%2FEUR", lastCall(calls).query)
	assert.Equal(t, "BTC/EUR", ticker.Symbol)
	assert.Equal(t, int64(1715081606087), ticker.Timestamp)
	assert.Equal(t, "59459.3", ticker.Last.Decimal.String())
	assert.Equal(t, "-0.39", ticker.Percentage.Decimal.String())
	assert.Equal(t, "506.2471", ticker.BaseVolume.Decimal.String())
	assert.Equal(t, "30160053.5579", ticker.QuoteVolume.Decimal.String())
	assert.Equal(t, "-232.9", ticker.Change.Decimal.String())
}

func TestFetchTickers(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"GET /v2/trading/tickers": `[
			{"timestamp":1715081606087,"symbol":"BTC/EUR","close":59459.3},
			{"timestamp":1715081606087,"symbol":"B2M/EUR","close":0.0071}
		]`,
	})

	all, err := c.FetchTickers(context.Background(), nil, exchange.Params{"symbol": "ignored"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Empty(t, lastCall(calls).query)

	some, err := c.FetchTickers(context.Background(), []string{"B2M/EUR"}, nil)
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "0.0071", some["B2M/EUR"].Last.Decimal.String())
}

func TestFetchOHLCV(t *testing.T) {
	candles := `[
		[1700000100000, 69344.3, 69637.2, 69225.8, 69583.7, 8.52748622],
		[1699999000000, 69321.2, 69492, 69294.3, 69346.9, 1.58942378]
	]`
	tests := []struct {
		name      string
		since     int64
		limit     int
		params    exchange.Params
		wantQuery []string
	}{
		{
			name:  "defaults to the last 24 hours",
			wantQuery: []string{
				"startTime=1699913600000",
				"endTime=1700000000000",
				"limit=1000",
				"interval=60",
			},
		},
		{
			name:      "caps the limit",
			since:     1699990000000,
			limit:     5000,
			params:    exchange.Params{"endTime": 1700000200000},
			wantQuery: []string{"startTime=1699990000000", "endTime=1700000200000", "limit=1000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := withMarkets(t, map[string]string{"GET /v1/trading/candle": candles})

			rows, err := c.FetchOHLCV(context.Background(), "BTC/EUR", "1h", tt.since, tt.limit, tt.params)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, int64(1699999000000), rows[0].Timestamp)
			assert.Equal(t, "69346.9", rows[0].Close.Decimal.String())
			assert.Equal(t, "8.52748622", rows[1].Volume.Decimal.String())

			query := lastCall(calls).query
			for _, want := range tt.wantQuery {
				assert.Contains(t, query, want)
			}
		})
	}
}

func TestCreateOrder(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"POST /v1/trading/order": `{"id":"12de6246-10dd-48ae-a17f-e9bdea46b8c9","side":"buy","symbol":"BTC/EUR","price":"25000.13","orderAmount":"0.123456","filledAmount":"0","status":"open","orderType":"stop-limit","cost":"0","createdAt":"2024-05-23T10:14:04.483Z","updatedAt":"2024-05-23T10:14:04.483Z","stopPrice":"24000","clientOrderId":null,"timeInForce":"GTC"}`,
	})

	order, err := c.CreateOrder(context.Background(), "BTC/EUR", "Stop-Limit", "BUY",
		decimal.RequireFromString("0.1234567"), exchange.DecStr("25000.129"),
		exchange.Params{"stopPrice": "24000.004"})
	require.NoError(t, err)

	call := lastCall(calls)
	body := gjson.Parse(call.body)
	assert.Equal(t, "BTC/EUR", body.Get("symbol").String())
	assert.Equal(t, "buy", body.Get("side").String())
	assert.Equal(t, "stop-limit", body.Get("orderType").String())
	assert.Equal(t, "0.123456", body.Get("amount").String())
	assert.Equal(t, "25000.13", body.Get("price").String())
	assert.Equal(t, "24000", body.Get("stopPrice").String())

	assert.Equal(t, "12de6246-10dd-48ae-a17f-e9bdea46b8c9", order.ID)
	assert.Equal(t, types.OrderTypeLimit, order.Type)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
	assert.Equal(t, "0.123456", order.Remaining.Decimal.String())
	assert.Equal(t, "24000", order.TriggerPrice.Decimal.String())
	assert.Equal(t, int64(1716459244483), order.Timestamp)
}

func TestCreateOrder_StopLimitRequiresStopPrice(t *testing.T) {
	c, calls := withMarkets(t, nil)

	_, err := c.CreateOrder(context.Background(), "BTC/EUR", "stop-limit", "sell", decimal.NewFromInt(1), exchange.DecStr("30000"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.ArgumentsRequired))
	assert.Len(t, *calls, 1)
}

func TestCreateOrder_MarketSkipsPrice(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"POST /v1/trading/order": `{"id":"x","status":"filled","orderType":"market","orderAmount":"1","filledAmount":"1","cost":"50"}`,
	})

	order, err := c.CreateOrder(context.Background(), "BTC/EUR", "market", "sell", decimal.NewFromInt(1), exchange.DecStr("1"), nil)
	require.NoError(t, err)
	assert.False(t, gjson.Get(lastCall(calls).body, "price").Exists())
	assert.Equal(t, types.OrderStatusClosed, order.Status)
	assert.Equal(t, "50", order.Average.Decimal.String())
}

func TestOrderLookupNotFound(t *testing.T) {
	c, _ := withMarkets(t, nil)
	ctx := context.Background()

	_, err := c.FetchOrder(ctx, "missing", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.OrderNotFound))
	assert.Contains(t, err.Error(), "fetchOrder()")

	_, err = c.CancelOrder(ctx, "missing", "", nil)
	assert.True(t, errors.Is(err, exchange.OrderNotFound))

	_, err = c.FetchOrderTrades(ctx, "missing", "", 0, 0, nil)
	assert.True(t, errors.Is(err, exchange.OrderNotFound))
}

func TestFetchOrders(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"GET /v1/trading/order": `[
			{"id":"b","symbol":"BTC/EUR","status":"cancelled","orderType":"limit","side":"sell","orderAmount":"1","filledAmount":"0","updatedAt":"2023-11-14T22:00:00.000Z"},
			{"id":"a","symbol":"BTC/EUR","status":"inactive","orderType":"limit","side":"buy","orderAmount":"2","filledAmount":"0.5","updatedAt":"2023-11-14T21:00:00.000Z"}
		]`,
	})

	orders, err := c.FetchOpenOrders(context.Background(), "BTC/EUR", 1699995600000, 10, nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "a", orders[0].ID)
	assert.Equal(t, types.OrderStatusOpen, orders[0].Status)
	assert.Equal(t, "1.5", orders[0].Remaining.Decimal.String())
	assert.Equal(t, types.OrderStatusCanceled, orders[1].Status)

	query := lastCall(calls).query
	assert.Contains(t, query, "status=open")
	assert.Contains(t, query, "symbol=BTC%2FEUR")
	assert.Contains(t, query, "startTime=2023-11-14T21%3A00%3A00.000Z")
	assert.Contains(t, query, "endTime=2023-11-14T22%3A13%3A20.000Z")
	assert.Contains(t, query, "limit=10")

	_, err = c.FetchClosedOrders(context.Background(), "", 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "status=filled", lastCall(calls).query)
}

func TestFetchMyTrades(t *testing.T) {
	c, calls := withMarkets(t, map[string]string{
		"GET /v1/trading/trade": `{"count":1,"data":[{"id":"4278a86a","orderId":"536ee1dc","symbol":"BTC/EUR","side":"buy","orderType":"limit","price":65000.5,"amount":0.35,"createdAt":"2024-05-02T08:58:47.727Z","cost":22750.175,"feeAmount":0.0750087,"feeCurrency":"EUR"}]}`,
	})

	trades, err := c.FetchMyTrades(context.Background(), "BTC/EUR", 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	trade := trades[0]
	assert.Equal(t, "536ee1dc", trade.Order)
	assert.Equal(t, "BTC/EUR", trade.Symbol)
	assert.Equal(t, "22750.175", trade.Cost.Decimal.String())
	require.NotNil(t, trade.Fee)
	assert.Equal(t, "EUR", trade.Fee.Currency)
	assert.Equal(t, "0.0750087", trade.Fee.Cost.Decimal.String())
	assert.Equal(t, int64(1714640327727), trade.Timestamp)

	query := lastCall(calls).query
	assert.Contains(t, query, "sort=createdAt")
	assert.Contains(t, query, "direction=desc")
}

func TestFetchBalance(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"GET /v1/trading/wallet/balance": `[{"currency":"BTC","balance":0.35,"blockedBalance":0.05},{"currency":"EUR","balance":100,"blockedBalance":0}]`,
	})

	balances, err := c.FetchBalance(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, balances.Currencies, "BTC")
	assert.Equal(t, "0.4", balances.Currencies["BTC"].Total.Decimal.String())
	assert.Equal(t, "100", balances.Currencies["EUR"].Total.Decimal.String())
}

func TestSignature(t *testing.T) {
	c := New(exchange.Config{APIKey: "key", Secret: "secret", Clock: func() time.Time { return fixedNow }})

	signed, err := c.Sign(exchange.Request{
		API:    tierPrivate,
		Method: "POST",
		Path:   "v1/trading/order",
		Params: exchange.Params{"symbol": "BTC/EUR", "side": "buy", "orderType": "market", "amount": "1"},
	})
	require.NoError(t, err)

	body := `{"amount":"1","orderType":"market","side":"buy","symbol":"BTC/EUR"}`
	assert.Equal(t, body, signed.Body)
	assert.Equal(t, "https://gateway.bit2me.com/v1/trading/order", signed.URL)
	assert.Equal(t, "1700000000000", signed.Headers["x-nonce"])
	assert.Equal(t, "key", signed.Headers["x-api-key"])

	digest := sha256.Sum256([]byte("1700000000000:/v1/trading/order:" + body))
	mac := hmac.New(sha512.New, []byte("secret"))
	mac.Write(digest[:])
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), signed.Headers["api-signature"])

	// a second request gets a fresh nonce even with a frozen clock
	again, err := c.Sign(exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/wallet/balance"})
	require.NoError(t, err)
	assert.Equal(t, "1700000000001", again.Headers["x-nonce"])
	assert.Empty(t, again.Body)
}

func TestSign_GetQueryAndCredentials(t *testing.T) {
	c := New(exchange.Config{})

	signed, err := c.Sign(exchange.Request{
		API:    tierPublic,
		Method: "GET",
		Path:   "v2/trading/order-book",
		Params: exchange.Params{"symbol": "BTC/EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.bit2me.com/v2/trading/order-book?symbol=BTC%2FEUR", signed.URL)
	assert.Empty(t, signed.Headers)

	_, err = c.Sign(exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/wallet/balance"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.AuthenticationError))
	assert.Contains(t, err.Error(), "apiKey")
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		kind     exchange.ErrorKind
	}{
		{"rate limited", `429|{"message":"Too Many Requests"}`, exchange.RateLimitExceeded},
		{"bad request", `400|{"message":"bad"}`, exchange.BadRequest},
		{"invalid nonce", `401|{"message":"Invalid nonce"}`, exchange.InvalidNonce},
		{"invalid signature", `401|{"message":"Invalid signature"}`, exchange.AuthenticationError},
		{"forbidden", `403|{"message":"Request forbidden by administrative rules"}`, exchange.PermissionDenied},
		{
			"payload code",
			`412|{"statusCode":"412","error":"Precondition Failed","message":"The price can not be lower than 0.001","data":{"statusCode":"412","errorPayload":{"code":"PRICE_LOWER_MARKET_MIN","minPrice":"0.001"}}}`,
			exchange.InvalidOrder,
		},
		{
			"insufficient funds",
			`412|{"statusCode":"412","data":{"errorPayload":{"code":"NOT_ENOUGH_BALANCE"}}}`,
			exchange.InsufficientFunds,
		},
		{"unknown", `412|{"statusCode":"412","message":"nope"}`, exchange.ExchangeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, map[string]string{"GET /v1/trading/wallet/balance": tt.response})
			_, err := c.FetchBalance(context.Background(), nil)
			require.Error(t, err)

			var exErr *exchange.Error
			require.True(t, errors.As(err, &exErr))
			assert.Equal(t, tt.kind, exErr.Kind)
			assert.Equal(t, ID, exErr.Exchange)
			assert.True(t, strings.HasPrefix(exErr.Message, "bit2me "))
			assert.False(t, strings.HasPrefix(exErr.Message, "bit2me bit2me"))
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	assert.Equal(t, "open", ParseOrderStatus("inactive"))
	assert.Equal(t, "closed", ParseOrderStatus("filled"))
	assert.Equal(t, "canceled", ParseOrderStatus("cancelled"))
	assert.Equal(t, "partially_filled", ParseOrderStatus("partially_filled"))
}
