package bitbns

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

var orderStatuses = map[string]string{
	"0": types.OrderStatusOpen,
}

// ParseOrderStatus maps a native status, passing unknown ones through
func ParseOrderStatus(status string) string {
	if s, ok := orderStatuses[status]; ok {
		return s
	}
	return status
}

// CreateOrder places a limit order through the v2 API or a market order by
// quantity through v1
func (c *Client) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params exchange.Params) (*types.Order, error) {
	orderType = strings.ToLower(orderType)
	if orderType != types.OrderTypeLimit && orderType != types.OrderTypeMarket {
		return nil, exchange.NewError(exchange.InvalidOrder, ID, "allows limit and market orders only")
	}
	if err := c.ValidateOrder(exchange.OrderArgs{
		Symbol:        symbol,
		Type:          orderType,
		Side:          side,
		Amount:        amount,
		Price:         price,
		PriceRequired: orderType == types.OrderTypeLimit,
	}); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	quantity, err := c.AmountToPrecision(market.Symbol, amount)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"side":     strings.ToUpper(side),
		"symbol":   uppercaseID(market),
		"quantity": quantity,
	}

	// limit orders take "rate"; stop-loss adds "t_rate", bracket orders
	// "target_rate" and "trail_rate", all passed through params
	req := exchange.Request{API: tierV2, Method: "POST", Path: "orders"}
	switch orderType {
	case types.OrderTypeLimit:
		rate, err := c.PriceToPrecision(market.Symbol, price.Decimal)
		if err != nil {
			return nil, err
		}
		request["rate"] = rate
	case types.OrderTypeMarket:
		req = exchange.Request{API: tierV1, Method: "POST", Path: "placeMarketOrderQnty/{symbol}"}
		request["market"] = market.QuoteID
	}
	req.Params = exchange.Extend(request, params)

	resp, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	// {"data":"Successfully placed bid to purchase currency","status":1,"error":null,"id":5424475,"code":200}
	order := c.parseOrder(resp, market)
	return &order, nil
}

// CancelOrder cancels an order; USDT markets use their own cancel side
func (c *Client) CancelOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	if err := c.RequireArgument(symbol, "symbol"); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	side := "cancelOrder"
	if market.QuoteID == "USDT" {
		side = "usdtcancelOrder"
	}
	request := exchange.Params{
		"entry_id": id,
		"symbol":   uppercaseID(market),
		"side":     side,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV2, Method: "POST", Path: "cancel", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, market)
	return &order, nil
}

// FetchOrder returns one order by entry id
func (c *Client) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	if err := c.RequireArgument(symbol, "symbol"); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"symbol":   market.ID,
		"entry_id": id,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "POST", Path: "orderStatus/{symbol}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(exchange.Key(exchange.Key(resp, "data"), "0"), market)
	return &order, nil
}

// FetchOpenOrders lists open orders of one market starting at page 0
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	if err := c.RequireArgument(symbol, "symbol"); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	side := "listOpenOrders"
	if market.QuoteID == "USDT" {
		side = "usdtListOpenOrders"
	}
	request := exchange.Params{
		"symbol": uppercaseID(market),
		"side":   side,
		"page":   0,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV2, Method: "POST", Path: "getordersnew", Params: exchange.Extend(request, params)})
	if nothingToShow(err) {
		return []types.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows := exchange.SafeList(resp, "data")
	orders := make([]types.Order, 0, len(rows))
	for _, raw := range rows {
		orders = append(orders, c.parseOrder(raw, market))
	}
	exchange.SortByTimestamp(orders, func(o types.Order) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(orders, func(o types.Order) int64 { return o.Timestamp }, since, limit), nil
}

// parseOrder reads the create/cancel envelope as well as order rows:
//
//	{"entry_id":5424475,"btc":0.01,"rate":2000,"time":"2021-04-25T17:05:42.000Z","type":0,"status":0,
//	 "total":0.01,"avg_cost":null,"side":"BUY","amount":0.01,"remaining":0.01,"filled":0,"cost":null,"fee":0.05}
func (c *Client) parseOrder(raw gjson.Result, market types.Market) types.Order {
	symbol := market.Symbol
	if marketID := exchange.SafeString(raw, "symbol"); marketID != "" {
		symbol = c.SafeSymbol(marketID, "")
	}
	orderType := exchange.SafeStringLower(raw, "type")
	if orderType == "0" {
		orderType = types.OrderTypeLimit
	}
	var fee *types.Fee
	if cost := exchange.SafeDecimal(raw, "fee"); cost.Valid {
		fee = &types.Fee{Cost: cost}
	}
	o := types.Order{
		ID:        exchange.SafeString(raw, "id", "entry_id"),
		Timestamp: exchange.Parse8601(exchange.SafeString(raw, "time")),
		Symbol:    symbol,
		Type:      orderType,
		Side:      exchange.SafeStringLower(raw, "side"),
		Price:     exchange.SafeDecimal(raw, "rate"),
		Amount:    exchange.SafeDecimal(raw, "amount", "btc"),
		Filled:    exchange.SafeDecimal(raw, "filled"),
		Remaining: exchange.SafeDecimal(raw, "remaining"),
		Average:   exchange.SafeDecimal(raw, "avg_cost"),
		Cost:      exchange.SafeDecimal(raw, "cost"),
		Status:    ParseOrderStatus(exchange.SafeString(raw, "status")),
		Fee:       fee,
		Info:      exchange.Raw(raw),
	}
	return *exchange.SafeOrder(&o)
}

// FetchMyTrades lists executed orders of one market starting at page 0
func (c *Client) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	if err := c.RequireArgument(symbol, "symbol"); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"symbol": market.ID,
		"page":   0,
	}
	if since > 0 {
		request["since"] = exchange.ISO8601(since)
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "POST", Path: "listExecutedOrders/{symbol}", Params: exchange.Extend(request, params)})
	if nothingToShow(err) {
		return []types.Trade{}, nil
	}
	if err != nil {
		return nil, err
	}
	return c.parseTrades(exchange.SafeList(resp, "data"), market, since, limit), nil
}
