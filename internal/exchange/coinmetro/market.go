package coinmetro

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// FetchCurrencies lists the tradable assets
func (c *Client) FetchCurrencies(ctx context.Context, params exchange.Params) ([]types.Currency, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "assets", Params: params})
	if err != nil {
		return nil, err
	}
	currencies := make([]types.Currency, 0, len(resp.Array()))
	for _, raw := range resp.Array() {
		currencies = append(currencies, c.parseCurrency(raw))
	}
	return currencies, nil
}

//	{
//	    "symbol": "BTC",
//	    "name": "Bitcoin",
//	    "color": "#FFA500",
//	    "type": "coin",
//	    "canDeposit": true,
//	    "canWithdraw": true,
//	    "canTrade": true,
//	    "notabeneDecimals": 8,
//	    "canMarket": true,
//	    "maxSwap": 10000,
//	    "digits": 6,
//	    "multiplier": 1000000,
//	    "bookDigits": 8,
//	    "bookMultiplier": 100000000,
//	    "sentimentData": {...},
//	    "minQty": 0.0001
//	}
func (c *Client) parseCurrency(raw gjson.Result) types.Currency {
	id := exchange.SafeString(raw, "symbol")
	code := c.SafeCurrencyCode(id)
	withdraw := exchange.SafeBool(raw, "canWithdraw")
	// assets that cannot be traded are reported active
	active := exchange.Bool(true)
	if canTrade := exchange.SafeBool(raw, "canTrade"); canTrade != nil && *canTrade {
		active = withdraw
	}
	return types.Currency{
		ID:        id,
		Code:      code,
		Name:      code,
		Type:      exchange.SafeString(raw, "type"),
		Active:    active,
		Deposit:   exchange.SafeBool(raw, "canDeposit"),
		Withdraw:  withdraw,
		Precision: exchange.ParseDecimal(exchange.ParsePrecision(exchange.SafeString(raw, "digits"))),
		Limits: types.Limits{
			Amount: types.MinMax{Min: exchange.SafeDecimal(raw, "minQty")},
		},
		Info: exchange.Raw(raw),
	}
}

// FetchMarkets lists the pairs. Pair ids have no delimiter, so the assets
// of the loaded snapshot are used to split them, or fetched when nothing
// is loaded yet.
func (c *Client) FetchMarkets(ctx context.Context, params exchange.Params) ([]types.Market, error) {
	if m, err := c.Markets(); err == nil {
		return c.FetchMarketsWithCurrencies(ctx, m.Currencies(), params)
	}
	currencies, err := c.FetchCurrencies(ctx, nil)
	if err != nil {
		return nil, err
	}
	return c.FetchMarketsWithCurrencies(ctx, currencies, params)
}

// FetchMarketsWithCurrencies lists the pairs, splitting their ids against
// currencies. LoadMarkets calls it with the assets it just fetched.
func (c *Client) FetchMarketsWithCurrencies(ctx context.Context, currencies []types.Currency, params exchange.Params) ([]types.Market, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "markets", Params: params})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]types.Currency, len(currencies))
	ids := append([]string(nil), c.Options().CurrencyIDsForMarketParse...)
	for _, cur := range currencies {
		byID[cur.ID] = cur
		ids = append(ids, cur.ID)
	}

	markets := make([]types.Market, 0, len(resp.Array()))
	for _, raw := range resp.Array() {
		market, ok := c.parseMarket(raw, ids, byID)
		if !ok {
			c.Log().WithField("pair", exchange.SafeString(raw, "pair")).Debug("skipping pair with unknown currencies")
			continue
		}
		markets = append(markets, market)
	}
	return markets, nil
}

//	{"pair":"YFIEUR","precision":5,"margin":false}
func (c *Client) parseMarket(raw gjson.Result, currencyIDs []string, currencies map[string]types.Currency) (types.Market, bool) {
	id := exchange.SafeString(raw, "pair")
	baseID, quoteID, ok := ParseMarketID(id, currencyIDs)
	if !ok {
		return types.Market{}, false
	}
	base := c.SafeCurrencyCode(baseID)
	quote := c.SafeCurrencyCode(quoteID)
	margin := exchange.SafeBool(raw, "margin")
	fees := c.Describe().Fees.Trading
	return types.Market{
		ID:      id,
		Symbol:  exchange.Symbol(base, quote, ""),
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Type:    types.MarketTypeSpot,
		Spot:    true,
		Margin:  margin != nil && *margin,
		Active:  exchange.Bool(true),
		Taker:   fees.Taker,
		Maker:   fees.Maker,
		Precision: types.Precision{
			Amount: currencies[baseID].Precision,
			Price:  exchange.ParseDecimal(exchange.ParsePrecision(exchange.SafeString(raw, "precision"))),
		},
		Limits: types.Limits{
			Amount: types.MinMax{Min: currencies[baseID].Limits.Amount.Min},
			Cost:   types.MinMax{Min: currencies[quoteID].Limits.Amount.Min},
		},
		Info: exchange.Raw(raw),
	}, true
}

// ParseMarketID splits a delimiter-less pair id into base and quote ids.
// Candidates are tried longest first and the first one that prefixes the
// pair with a known remainder wins, so "ETHWEUR" splits as ETHW/EUR when
// both ETH and ETHW are listed. Ids that are prefixes of one another can
// still split wrongly when only the shorter remainder is listed.
func ParseMarketID(marketID string, currencyIDs []string) (baseID, quoteID string, ok bool) {
	ids := append([]string(nil), currencyIDs...)
	sort.SliceStable(ids, func(i, j int) bool { return len(ids[i]) > len(ids[j]) })
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	for _, id := range ids {
		if id == "" || !strings.HasPrefix(marketID, id) {
			continue
		}
		if rest := marketID[len(id):]; known[rest] {
			return id, rest, true
		}
	}
	return "", "", false
}

// FetchOHLCV returns candles. Without since and limit the exchange decides
// the window; params["until"] bounds it explicitly.
func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]types.OHLCV, error) {
	if timeframe == "" {
		timeframe = "1m"
	}
	if err := c.ValidateTimeframe(timeframe); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"pair":      market.ID,
		"timeframe": c.TimeframeID(timeframe),
		// the endpoint rejects empty bounds, these are its documented placeholders
		"from": ":from",
		"to":   ":to",
	}
	var until int64
	if since > 0 {
		request["from"] = since
		if limit > 0 {
			duration, err := exchange.ParseTimeframe(timeframe)
			if err != nil {
				return nil, exchange.NewError(exchange.BadRequest, ID, err.Error())
			}
			until = since + duration.Milliseconds()*int64(limit)
		}
	}
	if u, ok := params.Int("until"); ok {
		until = u
		params = exchange.Omit(params, "until")
	}
	if until > 0 {
		request["to"] = until
	}
	resp, err := c.Fetch(ctx, exchange.Request{
		API:    tierPublic,
		Method: "GET",
		Path:   "exchange/candles/{pair}/{timeframe}/{from}/{to}",
		Params: exchange.Extend(request, params),
	})
	if err != nil {
		return nil, err
	}

	// {"candleHistory":[{"pair":"ETHUSDT","timeframe":86400000,"timestamp":1697673600000,"c":1567.4409353098604,"h":1566.7514068472303,"l":1549.4563666936847,"o":1552.43,"v":0}]}
	rows := exchange.SafeList(resp, "candleHistory")
	candles := make([]types.OHLCV, 0, len(rows))
	for _, row := range rows {
		candles = append(candles, types.OHLCV{
			Timestamp: exchange.SafeIntegerDefault(row, "timestamp", 0),
			Open:      exchange.SafeDecimal(row, "o"),
			High:      exchange.SafeDecimal(row, "h"),
			Low:       exchange.SafeDecimal(row, "l"),
			Close:     exchange.SafeDecimal(row, "c"),
			Volume:    exchange.SafeDecimal(row, "v"),
		})
	}
	exchange.SortByTimestamp(candles, func(o types.OHLCV) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(candles, func(o types.OHLCV) int64 { return o.Timestamp }, since, limit), nil
}

// FetchTrades returns public ticks of a market from since on
func (c *Client) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"pair": market.ID,
		"from": "",
	}
	if since > 0 {
		request["from"] = since
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "exchange/ticks/{pair}/{from}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	// {"tickHistory":[{"pair":"ETHUSDT","price":2077.5623,"qty":0.002888,"timestamp":1700684689420,"seqNum":10644554718}]}
	return c.parseTrades(exchange.SafeList(resp, "tickHistory"), market, since, limit), nil
}

func (c *Client) parseTrades(rows []gjson.Result, market types.Market, since int64, limit int) []types.Trade {
	trades := make([]types.Trade, 0, len(rows))
	for _, raw := range rows {
		t := c.parseTrade(raw, market)
		if market.Symbol != "" && t.Symbol != market.Symbol {
			continue
		}
		trades = append(trades, t)
	}
	exchange.SortByTimestamp(trades, func(t types.Trade) int64 { return t.Timestamp })
	return exchange.FilterBySinceLimit(trades, func(t types.Trade) int64 { return t.Timestamp }, since, limit)
}

// parseTrade reads public ticks, private fills and order fills:
//
//	fetchTrades   {"pair":"ETHUSDT","price":2077.5623,"qty":0.002888,"timestamp":1700684689420,"seqNum":10644554718}
//	fetchMyTrades {"pair":"ETHUSDC","seqNumber":10873722343,"timestamp":1702570610747,"qty":0.002,"price":2282,"side":"buy","orderID":"65671262d93d9525ac009e36170257061073952c6423a8c5b4d6c"}
//	order fill    {"_id":"657b31d360a9542449381bdc","seqNumber":10873722343,"timestamp":1702570610747,"qty":0.002,"price":2282,"side":"buy"}
func (c *Client) parseTrade(raw gjson.Result, market types.Market) types.Trade {
	if marketID := exchange.SafeString(raw, "symbol", "pair"); marketID != "" {
		market = c.SafeMarket(marketID, "")
	}
	t := types.Trade{
		ID:        exchange.SafeString(raw, "_id", "seqNum", "seqNumber"),
		Order:     exchange.SafeString(raw, "orderID"),
		Timestamp: exchange.SafeIntegerDefault(raw, "timestamp", 0),
		Symbol:    market.Symbol,
		Side:      exchange.SafeString(raw, "side"),
		Price:     exchange.SafeDecimal(raw, "price"),
		Amount:    exchange.SafeDecimal(raw, "qty"),
		Info:      exchange.Raw(raw),
	}
	return *exchange.SafeTrade(&t)
}

// FetchOrderBook returns the full book; limit trims each side after sorting
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int, params exchange.Params) (*types.OrderBook, error) {
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{"pair": market.ID}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "exchange/book/{pair}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	// {"book":{"pair":"ETHUSDT","seqNumber":10800409239,"ask":{"2354.2861":3.75,"2354.3138":19},"bid":{"2352.6339":1.75,"2352.5981":2.4},"checksum":2108177337}}
	raw := exchange.Key(resp, "book")
	book := exchange.SortLevels(&types.OrderBook{
		Symbol: market.Symbol,
		Bids:   parseBookSide(exchange.Key(raw, "bid")),
		Asks:   parseBookSide(exchange.Key(raw, "ask")),
		Nonce:  exchange.SafeIntegerDefault(raw, "seqNumber", 0),
	})
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

// parseBookSide reads an object keyed by price with the quantity as value
func parseBookSide(side gjson.Result) []types.PriceLevel {
	var levels []types.PriceLevel
	side.ForEach(func(price, qty gjson.Result) bool {
		p := exchange.ParseDecimal(price.String())
		q := exchange.ToDecimal(qty)
		if p.Valid && q.Valid {
			levels = append(levels, types.PriceLevel{p.Decimal, q.Decimal})
		}
		return true
	})
	return levels
}

// FetchTickers joins the latest prices with the 24h statistics of each pair
func (c *Client) FetchTickers(ctx context.Context, symbols []string, params exchange.Params) (map[string]types.Ticker, error) {
	if _, err := c.Markets(); err != nil {
		return nil, err
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "exchange/prices", Params: params})
	if err != nil {
		return nil, err
	}

	//	{
	//	    "latestPrices": [{"pair":"PERPEUR","timestamp":1702549840393,"price":0.7899997816001223,"qty":1.0,"ask":0.8,"bid":0.7799995632002446}],
	//	    "24hInfo": [{"delta":0.0065,"h":0.8,"l":0.74,"v":139.15,"pair":"PERPEUR"}]
	//	}
	byPair := make(map[string]map[string]interface{})
	var order []string
	merge := func(rows []gjson.Result) {
		for _, row := range rows {
			pair := exchange.SafeString(row, "pair")
			fields, ok := row.Value().(map[string]interface{})
			if pair == "" || !ok {
				continue
			}
			entry, seen := byPair[pair]
			if !seen {
				entry = make(map[string]interface{}, len(fields))
				byPair[pair] = entry
				order = append(order, pair)
			}
			for k, v := range fields {
				entry[k] = v
			}
		}
	}
	// latest prices win over the 24h fields they share
	merge(exchange.SafeList(resp, "24hInfo"))
	merge(exchange.SafeList(resp, "latestPrices"))

	rows := make([]gjson.Result, 0, len(order))
	for _, pair := range order {
		encoded, err := exchange.JSONEncode(byPair[pair])
		if err != nil {
			return nil, err
		}
		rows = append(rows, gjson.Parse(encoded))
	}
	return c.parseTickers(rows, symbols), nil
}

// FetchBidsAsks returns best bid and ask from the latest prices only
func (c *Client) FetchBidsAsks(ctx context.Context, symbols []string, params exchange.Params) (map[string]types.Ticker, error) {
	if _, err := c.Markets(); err != nil {
		return nil, err
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPublic, Method: "GET", Path: "exchange/prices", Params: params})
	if err != nil {
		return nil, err
	}
	return c.parseTickers(exchange.SafeList(resp, "latestPrices"), symbols), nil
}

func (c *Client) parseTickers(rows []gjson.Result, symbols []string) map[string]types.Ticker {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	tickers := make(map[string]types.Ticker, len(rows))
	for _, raw := range rows {
		t := c.parseTicker(raw)
		if len(wanted) == 0 || wanted[t.Symbol] {
			tickers[t.Symbol] = t
		}
	}
	return tickers
}

func (c *Client) parseTicker(raw gjson.Result) types.Ticker {
	t := types.Ticker{
		Symbol:     c.SafeSymbol(exchange.SafeString(raw, "pair"), ""),
		Timestamp:  exchange.SafeIntegerDefault(raw, "timestamp", 0),
		High:       exchange.SafeDecimal(raw, "h"),
		Low:        exchange.SafeDecimal(raw, "l"),
		Bid:        exchange.SafeDecimal(raw, "bid"),
		Ask:        exchange.SafeDecimal(raw, "ask"),
		Last:       exchange.SafeDecimal(raw, "price"),
		Percentage: exchange.ParseDecimal(exchange.StringMul(exchange.SafeString(raw, "delta"), "100")),
		BaseVolume: exchange.SafeDecimal(raw, "v"),
		Info:       exchange.Raw(raw),
	}
	return *exchange.SafeTicker(&t)
}
