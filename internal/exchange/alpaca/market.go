package alpaca

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const (
	pathTrades           = "v1beta3/crypto/{loc}/trades"
	pathLatestTrades     = "v1beta3/crypto/{loc}/latest/trades"
	pathBars             = "v1beta3/crypto/{loc}/bars"
	pathLatestBars       = "v1beta3/crypto/{loc}/latest/bars"
	pathLatestOrderBooks = "v1beta3/crypto/{loc}/latest/orderbooks"
)

// TradesEndpoint selects which data endpoint FetchTrades calls
type TradesEndpoint string

const (
	TradesHistorical TradesEndpoint = "historical"
	TradesLatest     TradesEndpoint = "latest"
)

// OHLCVEndpoint selects which data endpoint FetchOHLCV calls
type OHLCVEndpoint string

const (
	BarsHistorical OHLCVEndpoint = "historical"
	BarsLatest     OHLCVEndpoint = "latest"
)

// FetchTime reads the trader API clock
func (c *Client) FetchTime(ctx context.Context, params exchange.Params) (int64, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "GET", Path: "v2/clock", Params: params})
	if err != nil {
		return 0, err
	}
	// {"timestamp":"2023-11-22T08:07:57.654738097-05:00","is_open":false,...}
	ts := exchange.Parse8601(exchange.SafeString(resp, "timestamp"))
	if ts == 0 {
		return 0, exchange.NewError(exchange.ExchangeError, ID, "fetchTime() returned an unparsable timestamp")
	}
	return ts, nil
}

// FetchMarkets lists the active crypto assets
func (c *Client) FetchMarkets(ctx context.Context, params exchange.Params) ([]types.Market, error) {
	request := exchange.Extend(exchange.Params{
		"asset_class": "crypto",
		"status":      "active",
	}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "GET", Path: "v2/assets", Params: request})
	if err != nil {
		return nil, err
	}
	markets := make([]types.Market, 0, len(resp.Array()))
	for _, asset := range resp.Array() {
		markets = append(markets, c.parseMarket(asset))
	}
	return markets, nil
}

func (c *Client) parseMarket(asset gjson.Result) types.Market {
	marketID := exchange.SafeString(asset, "symbol")
	baseID, quoteID, _ := strings.Cut(marketID, "/")
	base := c.SafeCurrencyCode(baseID)
	quote := c.SafeCurrencyCode(quoteID)
	// us_equity assets carry no quote in their symbol
	if quote == "" && exchange.SafeString(asset, "class") == "us_equity" {
		quote = "USD"
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
		Active:  exchange.Bool(exchange.SafeString(asset, "status") == "active"),
		Precision: types.Precision{
			Amount: exchange.SafeDecimal(asset, "min_trade_increment"),
			Price:  exchange.SafeDecimal(asset, "price_increment"),
		},
		Limits: types.Limits{
			Amount: types.MinMax{Min: exchange.SafeDecimal(asset, "min_order_size")},
		},
		Info: exchange.Raw(asset),
	}
}

func (c *Client) location(params exchange.Params) string {
	if loc, ok := params.String("loc"); ok {
		return loc
	}
	return c.Options().DefaultLocation
}

func (c *Client) tradesEndpoint(params exchange.Params) (TradesEndpoint, error) {
	name, ok := params.String("method")
	if !ok {
		name = c.Options().FetchTradesMethod
	}
	switch TradesEndpoint(name) {
	case TradesHistorical, TradesLatest:
		return TradesEndpoint(name), nil
	}
	return "", exchange.Errorf(exchange.BadRequest, ID,
		"fetchTrades() does not support method %q, %q and %q are supported", name, TradesHistorical, TradesLatest)
}

func (c *Client) ohlcvEndpoint(params exchange.Params) (OHLCVEndpoint, error) {
	name, ok := params.String("method")
	if !ok {
		name = c.Options().FetchOHLCVMethod
	}
	switch OHLCVEndpoint(name) {
	case BarsHistorical, BarsLatest:
		return OHLCVEndpoint(name), nil
	}
	return "", exchange.Errorf(exchange.BadRequest, ID,
		"fetchOHLCV() does not support method %q, %q and %q are supported", name, BarsHistorical, BarsLatest)
}

// FetchTrades returns recent public trades. params["method"] picks the
// historical or latest endpoint.
func (c *Client) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	endpoint, err := c.tradesEndpoint(params)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"symbols": market.ID,
		"loc":     c.location(params),
	}
	rest := exchange.Omit(params, "loc", "method")

	var resp gjson.Result
	switch endpoint {
	case TradesHistorical:
		resp, err = c.fetchHistoricalTrades(ctx, request, since, limit, rest)
	case TradesLatest:
		resp, err = c.fetchLatestTrades(ctx, request, rest)
	}
	if err != nil {
		return nil, err
	}

	rows := listOrOne(exchange.Key(exchange.Key(resp, "trades"), market.ID))
	trades := make([]types.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, c.parseTrade(row, &market))
	}
	exchange.SortByTimestamp(trades, func(t types.Trade) int64 { return t.Timestamp })
	return exchange.FilterBySinceLimit(trades, func(t types.Trade) int64 { return t.Timestamp }, since, limit), nil
}

func (c *Client) fetchHistoricalTrades(ctx context.Context, request exchange.Params, since int64, limit int, params exchange.Params) (gjson.Result, error) {
	if since > 0 {
		request["start"] = exchange.ISO8601(since)
	}
	if limit > 0 {
		request["limit"] = limit
	}
	return c.Fetch(ctx, exchange.Request{API: tierMarketPublic, Method: "GET", Path: pathTrades, Params: exchange.Extend(request, params)})
}

func (c *Client) fetchLatestTrades(ctx context.Context, request exchange.Params, params exchange.Params) (gjson.Result, error) {
	return c.Fetch(ctx, exchange.Request{API: tierMarketPublic, Method: "GET", Path: pathLatestTrades, Params: exchange.Extend(request, params)})
}

// listOrOne normalizes the latest endpoints, which return a single object
// where the historical ones return a list
func listOrOne(v gjson.Result) []gjson.Result {
	if v.IsArray() {
		return v.Array()
	}
	if v.IsObject() {
		return []gjson.Result{v}
	}
	return nil
}

func (c *Client) parseTrade(trade gjson.Result, market *types.Market) types.Trade {
	symbol := c.SafeSymbol(exchange.SafeString(trade, "S"), "")
	if symbol == "" && market != nil {
		symbol = market.Symbol
	}
	var side string
	switch exchange.SafeString(trade, "tks") {
	case "B":
		side = types.SideBuy
	case "S":
		side = types.SideSell
	}
	t := types.Trade{
		ID:           exchange.SafeString(trade, "i"),
		Timestamp:    exchange.Parse8601(exchange.SafeString(trade, "t")),
		Symbol:       symbol,
		Side:         side,
		TakerOrMaker: "taker",
		Price:        exchange.SafeDecimal(trade, "p"),
		Amount:       exchange.SafeDecimal(trade, "s"),
		Info:         exchange.Raw(trade),
	}
	return *exchange.SafeTrade(&t)
}

// FetchOrderBook returns the latest order book snapshot
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int, params exchange.Params) (*types.OrderBook, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Extend(exchange.Params{
		"symbols": market.ID,
		"loc":     c.location(params),
	}, exchange.Omit(params, "loc"))
	resp, err := c.Fetch(ctx, exchange.Request{API: tierMarketPublic, Method: "GET", Path: pathLatestOrderBooks, Params: request})
	if err != nil {
		return nil, err
	}
	raw := exchange.Key(exchange.Key(resp, "orderbooks"), market.ID)
	book := &types.OrderBook{
		Symbol:    market.Symbol,
		Bids:      exchange.ParseLevels(exchange.SafeList(raw, "b"), "p", "s"),
		Asks:      exchange.ParseLevels(exchange.SafeList(raw, "a"), "p", "s"),
		Timestamp: exchange.Parse8601(exchange.SafeString(raw, "t")),
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

// FetchOHLCV returns candles. params["method"] picks the historical or latest bars endpoint.
func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]types.OHLCV, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	endpoint, err := c.ohlcvEndpoint(params)
	if err != nil {
		return nil, err
	}
	if timeframe == "" {
		timeframe = "1m"
	}
	request := exchange.Params{
		"symbols": market.ID,
		"loc":     c.location(params),
	}
	rest := exchange.Omit(params, "loc", "method")

	var resp gjson.Result
	switch endpoint {
	case BarsHistorical:
		resp, err = c.fetchHistoricalBars(ctx, request, timeframe, since, limit, rest)
	case BarsLatest:
		resp, err = c.Fetch(ctx, exchange.Request{API: tierMarketPublic, Method: "GET", Path: pathLatestBars, Params: exchange.Extend(request, rest)})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s bars: %w", market.Symbol, err)
	}

	rows := listOrOne(exchange.Key(exchange.Key(resp, "bars"), market.ID))
	candles := make([]types.OHLCV, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, parseOHLCV(row))
	}
	exchange.SortByTimestamp(candles, func(o types.OHLCV) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(candles, func(o types.OHLCV) int64 { return o.Timestamp }, since, limit), nil
}

func (c *Client) fetchHistoricalBars(ctx context.Context, request exchange.Params, timeframe string, since int64, limit int, params exchange.Params) (gjson.Result, error) {
	if limit > 0 {
		request["limit"] = limit
	}
	if since > 0 {
		request["start"] = exchange.YYYYMMDD(since, "-")
	}
	request["timeframe"] = c.TimeframeID(timeframe)
	return c.Fetch(ctx, exchange.Request{API: tierMarketPublic, Method: "GET", Path: pathBars, Params: exchange.Extend(request, params)})
}

// {"c":22895,"h":22895,"l":22884,"n":6,"o":22884,"t":"2022-07-21T05:01:00Z","v":0.001,"vw":22889.5}
func parseOHLCV(row gjson.Result) types.OHLCV {
	return types.OHLCV{
		Timestamp: exchange.Parse8601(exchange.SafeString(row, "t")),
		Open:      exchange.SafeDecimal(row, "o"),
		High:      exchange.SafeDecimal(row, "h"),
		Low:       exchange.SafeDecimal(row, "l"),
		Close:     exchange.SafeDecimal(row, "c"),
		Volume:    exchange.SafeDecimal(row, "v"),
	}
}
