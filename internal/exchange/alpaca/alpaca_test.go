package alpaca

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const assetsResponse = `[
	{
		"id": "c150e086-1e75-44e6-9c2c-093bb1e93139",
		"class": "crypto",
		"exchange": "CRYPTO",
		"symbol": "BTC/USD",
		"name": "Bitcoin / US Dollar",
		"status": "active",
		"tradable": true,
		"min_order_size": "0.000026873",
		"min_trade_increment": "0.000000001",
		"price_increment": "1"
	},
	{
		"id": "77c6f47f-0939-4b23-b41e-47b4469c4bc8",
		"class": "crypto",
		"symbol": "LTC/USDT",
		"status": "inactive",
		"min_order_size": "0.01",
		"min_trade_increment": "0.001",
		"price_increment": "0.01"
	}
]`

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
		key := r.Method + " " + r.URL.Path
		resp, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
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
		APIKey:    "key",
		Secret:    "secret",
		PartnerID: "partner",
		URLs:      map[string]string{"trader": srv.URL, "market": srv.URL},
		Limiter:   safety.NewRateLimiter("test", 0, 1),
	})
	return c, &calls
}

func loadMarkets(t *testing.T, c *Client) {
	t.Helper()
	_, err := c.LoadMarkets(context.Background(), false)
	require.NoError(t, err)
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"partially_filled", "open"},
		{"pending_new", "open"},
		{"accepted", "open"},
		{"filled", "closed"},
		{"canceled", "canceled"},
		{"some_future_status", "some_future_status"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOrderStatus(tt.in))
		})
	}
}

func TestFetchMarkets(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{"GET /v2/assets": assetsResponse})

	markets, err := c.FetchMarkets(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, markets, 2)

	btc := markets[0]
	assert.Equal(t, "BTC/USD", btc.ID)
	assert.Equal(t, "BTC/USD", btc.Symbol)
	assert.Equal(t, "BTC", btc.Base)
	assert.Equal(t, "USD", btc.Quote)
	assert.True(t, *btc.Active)
	assert.Equal(t, "0.000000001", btc.Precision.Amount.Decimal.String())
	assert.Equal(t, "1", btc.Precision.Price.Decimal.String())
	assert.Equal(t, "0.000026873", btc.Limits.Amount.Min.Decimal.String())
	assert.False(t, *markets[1].Active)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "asset_class=crypto&status=active", call.query)
	assert.Equal(t, "key", call.headers.Get("APCA-API-KEY-ID"))
	assert.Equal(t, "secret", call.headers.Get("APCA-API-SECRET-KEY"))
	assert.Equal(t, "partner", call.headers.Get("APCA-PARTNER-ID"))
}

func TestFetchTime(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"GET /v2/clock": `{"timestamp":"2023-11-22T08:07:57.654738097-05:00","is_open":false}`,
	})
	ts, err := c.FetchTime(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1700658477654), ts)
}

func TestFetchTrades_EndpointVariants(t *testing.T) {
	historical := `{"next_page_token":null,"trades":{"BTC/USD":[
		{"i":36440705,"p":22626,"s":0.0002,"t":"2022-07-21T11:47:32.073391Z","tks":"S"},
		{"i":36440704,"p":22625,"s":0.0001,"t":"2022-07-21T11:47:31.073391Z","tks":"B"}
	]}}`
	latest := `{"trades":{"BTC/USD":{"i":36440704,"p":22625,"s":0.0001,"t":"2022-07-21T11:47:31.073391Z","tks":"B"}}}`

	tests := []struct {
		name     string
		params   exchange.Params
		wantPath string
		wantLen  int
	}{
		{"default historical", nil, "/v1beta3/crypto/us/trades", 2},
		{"explicit latest", exchange.Params{"method": "latest"}, "/v1beta3/crypto/us/latest/trades", 1},
		{"custom location", exchange.Params{"loc": "eu"}, "/v1beta3/crypto/eu/trades", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, map[string]string{
				"GET /v2/assets":                      assetsResponse,
				"GET /v1beta3/crypto/us/trades":        historical,
				"GET /v1beta3/crypto/eu/trades":        historical,
				"GET /v1beta3/crypto/us/latest/trades": latest,
			})
			loadMarkets(t, c)

			trades, err := c.FetchTrades(context.Background(), "BTC/USD", 0, 0, tt.params)
			require.NoError(t, err)
			require.Len(t, trades, tt.wantLen)

			last := (*calls)[len(*calls)-1]
			assert.Equal(t, tt.wantPath, last.path)
			assert.Contains(t, last.query, "symbols=BTC%2FUSD")
			assert.NotContains(t, last.query, "method=")
			assert.NotContains(t, last.query, "loc=")

			first := trades[0]
			assert.Equal(t, "36440704", first.ID)
			assert.Equal(t, types.SideBuy, first.Side)
			assert.Equal(t, "taker", first.TakerOrMaker)
			assert.Equal(t, "BTC/USD", first.Symbol)
			assert.Equal(t, "2.2625", first.Cost.Decimal.String())
		})
	}
}

func TestFetchTrades_UnknownEndpoint(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{"GET /v2/assets": assetsResponse})
	loadMarkets(t, c)

	_, err := c.FetchTrades(context.Background(), "BTC/USD", 0, 0, exchange.Params{"method": "snapshots"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.BadRequest))
	assert.Len(t, *calls, 1)
}

func TestFetchOrderBook(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"GET /v2/assets": assetsResponse,
		"GET /v1beta3/crypto/us/latest/orderbooks": `{"orderbooks":{"BTC/USD":{
			"a":[{"p":22209,"s":0.1123},{"p":22208,"s":0.0051}],
			"b":[{"p":22202,"s":0.2465},{"p":22203,"s":0.395}],
			"t":"2022-07-19T13:41:55.13210112Z"}}}`,
	})
	loadMarkets(t, c)

	book, err := c.FetchOrderBook(context.Background(), "BTC/USD", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", book.Symbol)
	assert.Equal(t, int64(1658238115132), book.Timestamp)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 2)
	assert.Equal(t, "22203", book.Bids[0].Price().String())
	assert.Equal(t, "22208", book.Asks[0].Price().String())
}

func TestFetchOHLCV(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{
		"GET /v2/assets": assetsResponse,
		"GET /v1beta3/crypto/us/bars": `{"bars":{"BTC/USD":[
			{"c":22887,"h":22888,"l":22873,"n":11,"o":22883,"t":"2022-07-21T05:00:00Z","v":1.1138,"vw":22883.01},
			{"c":22895,"h":22895,"l":22884,"n":6,"o":22884,"t":"2022-07-21T05:01:00Z","v":0.001,"vw":22889.5}
		]}}`,
		"GET /v1beta3/crypto/us/latest/bars": `{"bars":{"BTC/USD":{"c":22887,"h":22888,"l":22873,"o":22883,"t":"2022-07-21T05:00:00Z","v":1.1138}}}`,
	})
	loadMarkets(t, c)

	candles, err := c.FetchOHLCV(context.Background(), "BTC/USD", "1h", 1658379600000, 10, nil)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1658379600000), candles[0].Timestamp)
	assert.Equal(t, "22883", candles[0].Open.Decimal.String())
	assert.Equal(t, "1.1138", candles[0].Volume.Decimal.String())
	assert.LessOrEqual(t, candles[0].Timestamp, candles[1].Timestamp)

	last := (*calls)[len(*calls)-1]
	assert.Contains(t, last.query, "timeframe=1H")
	assert.Contains(t, last.query, "start=2022-07-21")
	assert.Contains(t, last.query, "limit=10")

	latest, err := c.FetchOHLCV(context.Background(), "BTC/USD", "1m", 0, 0, exchange.Params{"method": "latest"})
	require.NoError(t, err)
	assert.Len(t, latest, 1)
}

func TestCreateOrder(t *testing.T) {
	orderResponse := `{
		"id":"61e69015-8549-4bfd-b9c3-01e75843f47d",
		"client_order_id":"my-id",
		"submitted_at":"2021-03-16T18:38:01.937734Z",
		"symbol":"BTC/USD",
		"asset_class":"crypto",
		"qty":"0.5",
		"filled_qty":"0.2",
		"filled_avg_price":"21000",
		"order_type":"stop_limit",
		"side":"buy",
		"time_in_force":"day",
		"limit_price":"21000",
		"stop_price":"20500",
		"status":"partially_filled",
		"commission":"0.42"
	}`
	c, calls := newTestClient(t, map[string]string{
		"GET /v2/assets":  assetsResponse,
		"POST /v2/orders": orderResponse,
	})
	loadMarkets(t, c)

	order, err := c.CreateOrder(context.Background(), "BTC/USD", "limit", "buy",
		decimal.RequireFromString("0.5000000009"), exchange.DecStr("21000.4"),
		exchange.Params{"triggerPrice": "20500.2", "clientOrderId": "my-id"})
	require.NoError(t, err)

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, "application/json", last.headers.Get("Content-Type"))
	body := gjson.Parse(last.body)
	assert.Equal(t, "BTC/USD", body.Get("symbol").String())
	assert.Equal(t, "0.5", body.Get("qty").String())
	assert.Equal(t, "stop_limit", body.Get("type").String())
	assert.Equal(t, "20500", body.Get("stop_price").String())
	assert.Equal(t, "21000", body.Get("limit_price").String())
	assert.Equal(t, "gtc", body.Get("time_in_force").String())
	assert.Equal(t, "my-id", body.Get("client_order_id").String())
	assert.False(t, body.Get("triggerPrice").Exists())

	assert.Equal(t, "61e69015-8549-4bfd-b9c3-01e75843f47d", order.ID)
	assert.Equal(t, types.OrderTypeLimit, order.Type)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
	assert.Equal(t, "Day", order.TimeInForce)
	assert.Equal(t, "0.3", order.Remaining.Decimal.String())
	assert.Equal(t, "4200", order.Cost.Decimal.String())
	require.NotNil(t, order.Fee)
	assert.Equal(t, "USD", order.Fee.Currency)
}

func TestCreateOrder_DefaultClientOrderID(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{
		"GET /v2/assets":  assetsResponse,
		"POST /v2/orders": `{"id":"1","symbol":"BTC/USD","status":"new","order_type":"market","side":"sell","qty":"1"}`,
	})
	loadMarkets(t, c)

	_, err := c.CreateOrder(context.Background(), "BTC/USD", "market", "sell", decimal.NewFromInt(1), decimal.NullDecimal{}, nil)
	require.NoError(t, err)

	body := gjson.Parse((*calls)[len(*calls)-1].body)
	id := body.Get("client_order_id").String()
	assert.True(t, strings.HasPrefix(id, "cea_"))
	assert.Len(t, id, len("cea_")+32)
	assert.False(t, body.Get("limit_price").Exists())
}

func TestCreateOrder_ClientSideValidation(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{"GET /v2/assets": assetsResponse})
	loadMarkets(t, c)
	ctx := context.Background()

	tests := []struct {
		name      string
		orderType string
		side      string
		price     decimal.NullDecimal
		params    exchange.Params
		kind      exchange.ErrorKind
	}{
		{"limit without price", "limit", "buy", decimal.NullDecimal{}, nil, exchange.ArgumentsRequired},
		{"bad side", "market", "hold", decimal.NullDecimal{}, nil, exchange.InvalidOrder},
		{"stop market", "market", "buy", decimal.NullDecimal{}, exchange.Params{"triggerPrice": "1"}, exchange.NotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateOrder(ctx, "BTC/USD", tt.orderType, tt.side, decimal.NewFromInt(1), tt.price, tt.params)
			require.Error(t, err)
			kind, ok := exchange.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
	assert.Len(t, *calls, 1, "validation must fail before any order request")
}

func TestFetchOpenOrders(t *testing.T) {
	c, calls := newTestClient(t, map[string]string{
		"GET /v2/assets": assetsResponse,
		"GET /v2/orders": `[{"id":"a","symbol":"LTC/USDT","status":"new","order_type":"limit","side":"sell","qty":"0.001","filled_qty":"0","limit_price":"1000","submitted_at":"2023-11-17T04:21:42.233357Z"}]`,
	})
	loadMarkets(t, c)

	orders, err := c.FetchOpenOrders(context.Background(), "LTC/USDT", 0, 0, exchange.Params{"until": 1700000000000})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "LTC/USDT", orders[0].Symbol)
	assert.Equal(t, "0.001", orders[0].Remaining.Decimal.String())

	query := (*calls)[len(*calls)-1].query
	assert.Contains(t, query, "status=open")
	assert.Contains(t, query, "endTime=1700000000000")
	assert.NotContains(t, query, "until=")
}

func TestCancelAllOrders(t *testing.T) {
	c, _ := newTestClient(t, map[string]string{
		"DELETE /v2/orders": `[{"id":"a","status":200,"body":{"id":"a","symbol":"BTC/USD","status":"pending_cancel","side":"buy"}}]`,
	})
	orders, err := c.CancelAllOrders(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "a", orders[0].ID)
	assert.Equal(t, "pending_cancel", orders[0].Status)
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		kind     exchange.ErrorKind
	}{
		{"exact code", `403|{"available":"0","code":40310000,"message":"insufficient balance for USDT"}`, exchange.InsufficientFunds},
		{"exact message", `403|{"message":"forbidden."}`, exchange.PermissionDenied},
		{"broad message", `422|{"message":"Invalid symbol(s): BTC/USDdsda does not match ^[A-Z]+/[A-Z]+$"}`, exchange.BadSymbol},
		{"unknown message", `422|{"code":1,"message":"something odd"}`, exchange.ExchangeError},
		{"rate limited", `429|{"code":42910000,"message":"rate limit exceeded"}`, exchange.RateLimitExceeded},
		{"no message falls back to status", `500|{}`, exchange.ExchangeNotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, map[string]string{"GET /v2/orders/abc": tt.response})
			_, err := c.FetchOrder(context.Background(), "abc", "", nil)
			require.Error(t, err)

			var exErr *exchange.Error
			require.True(t, errors.As(err, &exErr))
			assert.Equal(t, tt.kind, exErr.Kind)
			assert.Equal(t, ID, exErr.Exchange)
			assert.True(t, strings.HasPrefix(exErr.Message, "alpaca "))
		})
	}
}

func TestSign(t *testing.T) {
	c := New(exchange.Config{APIKey: "k", Secret: "s"})

	signed, err := c.Sign(exchange.Request{
		API:    tierMarketPublic,
		Method: "GET",
		Path:   pathTrades,
		Params: exchange.Params{"loc": "us", "symbols": "BTC/USD", "limit": 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://data.alpaca.markets/v1beta3/crypto/us/trades?limit=5&symbols=BTC%2FUSD", signed.URL)
	assert.Empty(t, signed.Headers["APCA-API-KEY-ID"])

	signed, err = c.Sign(exchange.Request{
		API:    tierTrader,
		Method: "DELETE",
		Path:   "v2/orders/{order_id}",
		Params: exchange.Params{"order_id": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://api.alpaca.markets/v2/orders/abc", signed.URL)
	assert.Equal(t, "k", signed.Headers["APCA-API-KEY-ID"])
	assert.Empty(t, signed.Body)

	sandbox := New(exchange.Config{Sandbox: true})
	signed, err = sandbox.Sign(exchange.Request{API: tierTrader, Method: "GET", Path: "v2/clock"})
	require.NoError(t, err)
	assert.Equal(t, "https://paper-api.alpaca.markets/v2/clock", signed.URL)
}

func TestUndeclaredEndpoint(t *testing.T) {
	c, calls := newTestClient(t, nil)
	_, err := c.Fetch(context.Background(), exchange.Request{API: tierTrader, Method: "GET", Path: "v2/unknown"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.NotSupported))
	assert.Empty(t, *calls)
}
