package bit2me

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const (
	maxCandles   = 1000
	defaultSince = 24 * 60 * 60 * 1000
)

// FetchMarkets reads the trading market configuration
func (c *Client) FetchMarkets(ctx context.Context, params exchange.Params) ([]types.Market, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "v1/trading/market-config", Params: params})
	if err != nil {
		return nil, err
	}
	markets := make([]types.Market, 0, len(resp.Array()))
	for _, raw := range resp.Array() {
		markets = append(markets, c.parseMarket(raw))
	}
	return markets, nil
}

//	{
//	    "id": "767a9906-3757-4d9c-8d90-504eb0a35a18",
//	    "symbol": "BTC/EUR",
//	    "minAmount": 0.0001,
//	    "maxAmount": 20,
//	    "minPrice": 1000,
//	    "maxPrice": 1000000,
//	    "pricePrecision": 4,
//	    "amountPrecision": 6,
//	    "marketEnabled": "enabled",
//	    "marketEnabledAt": null
//	}
func (c *Client) parseMarket(raw gjson.Result) types.Market {
	marketID := exchange.SafeString(raw, "symbol")
	baseID, quoteID, _ := strings.Cut(marketID, "/")
	base := c.SafeCurrencyCode(baseID)
	quote := c.SafeCurrencyCode(quoteID)

	status := exchange.SafeString(raw, "marketEnabled")
	active := status == "enabled"
	var created int64
	// markets scheduled to open count as active once their opening time has passed
	if enabledAt := exchange.SafeString(raw, "marketEnabledAt"); status == "enabled_at" && enabledAt != "" {
		created = exchange.Parse8601(enabledAt)
		if created < c.Milliseconds() {
			active = true
		}
	}

	return types.Market{
		ID:      marketID,
		Symbol:  exchange.Symbol(base, quote, ""),
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Type:    types.MarketTypeSpot,
		Spot:    true,
		Active:  exchange.Bool(active),
		Created: created,
		Precision: types.Precision{
			Price:  exchange.SafeDecimal(raw, "pricePrecision"),
			Amount: exchange.SafeDecimal(raw, "amountPrecision"),
		},
		Limits: types.Limits{
			Amount: types.MinMax{
				Min: exchange.SafeDecimal(raw, "minAmount"),
				Max: exchange.SafeDecimal(raw, "maxAmount"),
			},
			Price: types.MinMax{
				Min: exchange.SafeDecimal(raw, "minPrice"),
				Max: exchange.SafeDecimal(raw, "maxPrice"),
			},
		},
		Info: exchange.Raw(raw),
	}
}

// FetchTicker returns the 24h ticker of one market
func (c *Client) FetchTicker(ctx context.Context, symbol string, params exchange.Params) (*types.Ticker, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Extend(exchange.Params{"symbol": market.ID}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "v2/trading/tickers", Params: request})
	if err != nil {
		return nil, err
	}
	ticker := c.parseTicker(resp.Get("0"), &market)
	return &ticker, nil
}

// FetchTickers returns tickers keyed by symbol, all of them when symbols is empty
func (c *Client) FetchTickers(ctx context.Context, symbols []string, params exchange.Params) (map[string]types.Ticker, error) {
	if _, err := c.Markets(); err != nil {
		return nil, err
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "v2/trading/tickers", Params: exchange.Omit(params, "symbol")})
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	tickers := make(map[string]types.Ticker, len(resp.Array()))
	for _, raw := range resp.Array() {
		market := c.SafeMarket(exchange.SafeString(raw, "symbol"), "/")
		ticker := c.parseTicker(raw, &market)
		if len(wanted) > 0 && !wanted[ticker.Symbol] {
			continue
		}
		tickers[ticker.Symbol] = ticker
	}
	return tickers, nil
}

//	{
//	    "timestamp": 1715081606087,
//	    "symbol": "BTC/EUR",
//	    "open": 59692.2,
//	    "close": 59459.3,
//	    "bid": 59459.3,
//	    "ask": 59459.4,
//	    "high": 59807.8,
//	    "low": 58259,
//	    "baseVolume": 506.2471485105999,
//	    "percentage": -0.39,
//	    "quoteVolume": 30160053.557880376
//	}
func (c *Client) parseTicker(raw gjson.Result, market *types.Market) types.Ticker {
	symbol := c.SafeSymbol(exchange.SafeString(raw, "symbol"), "/")
	if symbol == "" && market != nil {
		symbol = market.Symbol
	}
	last := exchange.SafeDecimal(raw, "close")
	t := types.Ticker{
		Symbol:      symbol,
		Timestamp:   exchange.SafeIntegerDefault(raw, "timestamp", 0),
		High:        exchange.SafeDecimal(raw, "high"),
		Low:         exchange.SafeDecimal(raw, "low"),
		Bid:         exchange.SafeDecimal(raw, "bid"),
		Ask:         exchange.SafeDecimal(raw, "ask"),
		Open:        exchange.SafeDecimal(raw, "open"),
		Close:       last,
		Last:        last,
		Percentage:  roundTo(exchange.SafeDecimal(raw, "percentage"), 2),
		BaseVolume:  roundTo(exchange.SafeDecimal(raw, "baseVolume"), 4),
		QuoteVolume: roundTo(exchange.SafeDecimal(raw, "quoteVolume"), 4),
		Info:        exchange.Raw(raw),
	}
	return *exchange.SafeTicker(&t)
}

func roundTo(v decimal.NullDecimal, places int64) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return exchange.Dec(exchange.DecimalToPrecision(v.Decimal, exchange.Round, decimal.NewFromInt(places), exchange.DecimalPlaces))
}

// FetchOrderBook returns the order book. limit is applied locally.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int, params exchange.Params) (*types.OrderBook, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Extend(exchange.Params{"symbol": market.ID}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "v2/trading/order-book", Params: request})
	if err != nil {
		return nil, err
	}
	// {"bids":[[63614.1,0.05]],"asks":[[63614.2,0.0049614]],"timestamp":1715871588147,"symbol":"BTC/EUR"}
	book := &types.OrderBook{
		Symbol:    market.Symbol,
		Bids:      exchange.ParseLevels(exchange.SafeList(resp, "bids"), "0", "1"),
		Asks:      exchange.ParseLevels(exchange.SafeList(resp, "asks"), "0", "1"),
		Timestamp: exchange.SafeIntegerDefault(resp, "timestamp", 0),
	}
	exchange.SortLevels(book)
	if limit > 0 {
		if len(book.Bids) > limit {
			book.Bids = book.Bids[:limit]
		}
		if len(book.Asks) > limit {
			book.Asks = book.Asks[:limit]
		}
	}
	return book, nil
}

// FetchOHLCV returns candles. Without since it covers the last 24 hours;
// params["endTime"] bounds the window, limit is capped at 1000.
func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]types.OHLCV, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	if timeframe == "" {
		timeframe = "1m"
	}
	now := c.Milliseconds()
	if since <= 0 {
		since = now - defaultSince
	}
	until, ok := params.Int("endTime")
	if !ok {
		until = now
	}
	if limit <= 0 || limit > maxCandles {
		limit = maxCandles
	}
	request := exchange.Params{
		"symbol":    market.ID,
		"interval":  c.TimeframeID(timeframe),
		"startTime": since,
		"endTime":   until,
		"limit":     limit,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "v1/trading/candle", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	if !resp.IsArray() {
		return []types.OHLCV{}, nil
	}
	candles := make([]types.OHLCV, 0, len(resp.Array()))
	for _, row := range resp.Array() {
		candles = append(candles, parseOHLCV(row))
	}
	exchange.SortByTimestamp(candles, func(o types.OHLCV) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(candles, func(o types.OHLCV) int64 { return o.Timestamp }, since, limit), nil
}

// [1712494800000, 69321.2, 69492, 69294.3, 69346.9, 1.58942378]
func parseOHLCV(row gjson.Result) types.OHLCV {
	ts, _ := exchange.SafeInteger(row, "0")
	return types.OHLCV{
		Timestamp: ts,
		Open:      exchange.SafeDecimal(row, "1"),
		High:      exchange.SafeDecimal(row, "2"),
		Low:       exchange.SafeDecimal(row, "3"),
		Close:     exchange.SafeDecimal(row, "4"),
		Volume:    exchange.SafeDecimal(row, "5"),
	}
}
