package bitbns

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// FetchStatus reports "ok" when the platform status flag is 1
func (c *Client) FetchStatus(ctx context.Context, params exchange.Params) (*types.ExchangeStatus, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "GET", Path: "platform/status", Params: params})
	if err != nil {
		return nil, err
	}
	// {"data":{"BTC":{"status":1},...},"status":1,"error":null,"code":200}
	status := exchange.SafeString(resp, "status")
	if status == "1" {
		status = "ok"
	}
	return &types.ExchangeStatus{Status: status}, nil
}

// FetchMarkets lists the INR and USDT spot markets
func (c *Client) FetchMarkets(ctx context.Context, params exchange.Params) ([]types.Market, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierWWW, Method: "GET", Path: "order/fetchMarkets", Params: params})
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
//	    "id": "BTC",
//	    "symbol": "BTC/INR",
//	    "base": "BTC",
//	    "quote": "INR",
//	    "baseId": "BTC",
//	    "quoteId": "",
//	    "active": true,
//	    "limits": {
//	        "amount": {"min": "0.00017376", "max": 20},
//	        "price": {"min": 2762353.2359999996, "max": 6445490.883999999},
//	        "cost": {"min": 800, "max": 128909817.67999998}
//	    },
//	    "precision": {"amount": 8, "price": 2},
//	    "info": {}
//	}
func (c *Client) parseMarket(raw gjson.Result) types.Market {
	baseID := exchange.SafeString(raw, "base")
	quoteID := exchange.SafeString(raw, "quote")
	base := c.SafeCurrencyCode(baseID)
	quote := c.SafeCurrencyCode(quoteID)
	precision := exchange.Key(raw, "precision")
	limits := exchange.Key(raw, "limits")
	return types.Market{
		ID:      exchange.SafeString(raw, "id"),
		Symbol:  exchange.Symbol(base, quote, ""),
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Type:    types.MarketTypeSpot,
		Spot:    true,
		Precision: types.Precision{
			Amount: exchange.ParseDecimal(exchange.ParsePrecision(exchange.SafeString(precision, "amount"))),
			Price:  exchange.ParseDecimal(exchange.ParsePrecision(exchange.SafeString(precision, "price"))),
		},
		Limits: types.Limits{
			Amount: minMax(exchange.Key(limits, "amount")),
			Price:  minMax(exchange.Key(limits, "price")),
			Cost:   minMax(exchange.Key(limits, "cost")),
		},
		Info: exchange.Raw(raw),
	}
}

func minMax(r gjson.Result) types.MinMax {
	return types.MinMax{
		Min: exchange.SafeDecimal(r, "min"),
		Max: exchange.SafeDecimal(r, "max"),
	}
}

// uppercaseID is the symbol the trade API expects: the base id for INR
// markets and BASE_USDT for USDT markets
func uppercaseID(m types.Market) string {
	if m.QuoteID == "USDT" {
		return m.BaseID + "_" + m.QuoteID
	}
	return m.BaseID
}

// FetchTicker has no dedicated endpoint and picks one entry of FetchTickers
func (c *Client) FetchTicker(ctx context.Context, symbol string, params exchange.Params) (*types.Ticker, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	tickers, err := c.FetchTickers(ctx, []string{market.Symbol}, params)
	if err != nil {
		return nil, err
	}
	ticker, ok := tickers[market.Symbol]
	if !ok {
		return nil, exchange.Errorf(exchange.BadSymbol, ID, "fetchTicker() could not find a ticker for %s", market.Symbol)
	}
	return &ticker, nil
}

// FetchTickers returns tickers keyed by symbol, all of them when symbols is empty
func (c *Client) FetchTickers(ctx context.Context, symbols []string, params exchange.Params) (map[string]types.Ticker, error) {
	if _, err := c.Markets(); err != nil {
		return nil, err
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierWWW, Method: "GET", Path: "order/fetchTickers", Params: params})
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	tickers := make(map[string]types.Ticker)
	resp.ForEach(func(_, raw gjson.Result) bool {
		ticker := c.parseTicker(raw)
		if len(wanted) == 0 || wanted[ticker.Symbol] {
			tickers[ticker.Symbol] = ticker
		}
		return true
	})
	return tickers, nil
}

//	{
//	    "symbol": "BTC/INR",
//	    "info": {"highest_buy_bid": 4368494.31, "lowest_sell_bid": 4374835.09, ...},
//	    "timestamp": 1619100020845,
//	    "high": "4569119.23",
//	    "low": "4254552.13",
//	    "bid": 4368494.31,
//	    "bidVolume": "",
//	    "ask": 4374835.09,
//	    "open": 4531016.27,
//	    "last": 4374835.09,
//	    "baseVolume": 62.17722344,
//	    "change": -156181.1799999997,
//	    "percentage": -3.446934874943623,
//	    "average": 4452925.68
//	}
func (c *Client) parseTicker(raw gjson.Result) types.Ticker {
	last := exchange.SafeDecimal(raw, "last")
	t := types.Ticker{
		Symbol:        c.SafeSymbol(exchange.SafeString(raw, "symbol"), "/"),
		Timestamp:     exchange.SafeIntegerDefault(raw, "timestamp", 0),
		High:          exchange.SafeDecimal(raw, "high"),
		Low:           exchange.SafeDecimal(raw, "low"),
		Bid:           exchange.SafeDecimal(raw, "bid"),
		BidVolume:     exchange.SafeDecimal(raw, "bidVolume"),
		Ask:           exchange.SafeDecimal(raw, "ask"),
		AskVolume:     exchange.SafeDecimal(raw, "askVolume"),
		VWAP:          exchange.SafeDecimal(raw, "vwap"),
		Open:          exchange.SafeDecimal(raw, "open"),
		Close:         last,
		Last:          last,
		PreviousClose: exchange.SafeDecimal(raw, "previousClose"),
		Change:        exchange.SafeDecimal(raw, "change"),
		Percentage:    exchange.SafeDecimal(raw, "percentage"),
		Average:       exchange.SafeDecimal(raw, "average"),
		BaseVolume:    exchange.SafeDecimal(raw, "baseVolume"),
		QuoteVolume:   exchange.SafeDecimal(raw, "quoteVolume"),
		Info:          exchange.Raw(raw),
	}
	return *exchange.SafeTicker(&t)
}

// FetchOrderBook returns the order book; limit is passed to the exchange
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int, params exchange.Params) (*types.OrderBook, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{"symbol": market.ID}
	if limit > 0 {
		request["limit"] = limit
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierWWW, Method: "GET", Path: "order/fetchOrderbook", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	// {"bids":[[4352700,0.00056751]],"asks":[[4358000,0.0039]],"timestamp":1619100020845}
	book := &types.OrderBook{
		Symbol:    market.Symbol,
		Bids:      exchange.ParseLevels(exchange.SafeList(resp, "bids"), "0", "1"),
		Asks:      exchange.ParseLevels(exchange.SafeList(resp, "asks"), "0", "1"),
		Timestamp: exchange.SafeIntegerDefault(resp, "timestamp", 0),
	}
	return exchange.SortLevels(book), nil
}

// FetchTrades returns recent public trades of a market
func (c *Client) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"coin":   market.BaseID,
		"market": market.QuoteID,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierWWW, Method: "GET", Path: "exchangeData/tradedetails", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	return c.parseTrades(resp.Array(), market, since, limit), nil
}

func (c *Client) parseTrades(rows []gjson.Result, market types.Market, since int64, limit int) []types.Trade {
	trades := make([]types.Trade, 0, len(rows))
	for _, raw := range rows {
		trades = append(trades, parseTrade(raw, market))
	}
	exchange.SortByTimestamp(trades, func(t types.Trade) int64 { return t.Timestamp })
	return exchange.FilterBySinceLimit(trades, func(t types.Trade) int64 { return t.Timestamp }, since, limit)
}

// parseTrade reads both shapes:
//
//	fetchTrades   {"tradeId":"1909151","price":"61904.6300","quote_volume":1618.05,"base_volume":0.02607254,"timestamp":1634548602000,"type":"buy"}
//	fetchMyTrades {"type":"BTC Sell order executed","crypto":5000,"amount":35.4,"rate":709800,"date":"2020-05-22T15:05:34.000Z","unit":"INR","factor":100000000,"fee":0.09,"id":"2938823"}
//
// Executed orders report the base quantity in units of 1/factor and the
// quote amount as "amount".
func parseTrade(raw gjson.Result, market types.Market) types.Trade {
	id := exchange.SafeString(raw, "id", "tradeId")
	timestamp := exchange.SafeIntegerDefault(raw, "timestamp", exchange.Parse8601(exchange.SafeString(raw, "date")))

	side := exchange.SafeStringLower(raw, "type")
	switch {
	case strings.Contains(side, "buy"):
		side = types.SideBuy
	case strings.Contains(side, "sell"):
		side = types.SideSell
	}

	var amount, cost decimal.NullDecimal
	if factor := exchange.SafeString(raw, "factor"); factor != "" {
		amount = exchange.ParseDecimal(exchange.StringDiv(exchange.SafeString(raw, "crypto"), factor))
		cost = exchange.SafeDecimal(raw, "amount")
	} else {
		amount = exchange.SafeDecimal(raw, "base_volume")
		cost = exchange.SafeDecimal(raw, "quote_volume")
	}

	var fee *types.Fee
	if feeCost := exchange.SafeDecimal(raw, "fee"); feeCost.Valid {
		fee = &types.Fee{Cost: feeCost, Currency: market.Quote}
	}
	t := types.Trade{
		ID:        id,
		Order:     id,
		Timestamp: timestamp,
		Symbol:    market.Symbol,
		Side:      side,
		Price:     exchange.SafeDecimal(raw, "rate", "price"),
		Amount:    amount,
		Cost:      cost,
		Fee:       fee,
		Info:      exchange.Raw(raw),
	}
	return *exchange.SafeTrade(&t)
}
