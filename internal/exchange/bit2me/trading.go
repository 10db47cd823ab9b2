package bit2me

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const orderTypeStopLimit = "stop-limit"

var orderStatuses = map[string]string{
	"open":      types.OrderStatusOpen,
	"inactive":  types.OrderStatusOpen, // pending book entry
	"filled":    types.OrderStatusClosed,
	"cancelled": types.OrderStatusCanceled,
}

// ParseOrderStatus maps a native status, passing unknown ones through
func ParseOrderStatus(status string) string {
	if s, ok := orderStatuses[status]; ok {
		return s
	}
	return status
}

var orderTypes = map[string]string{
	"market":           types.OrderTypeMarket,
	"limit":            types.OrderTypeLimit,
	orderTypeStopLimit: types.OrderTypeLimit,
}

func parseOrderType(orderType string) string {
	if t, ok := orderTypes[orderType]; ok {
		return t
	}
	return orderType
}

// CreateOrder places a market, limit or stop-limit order. Stop-limit orders
// take their trigger from params["stopPrice"].
func (c *Client) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params exchange.Params) (*types.Order, error) {
	orderType = strings.ToLower(orderType)
	side = strings.ToLower(side)
	isLimit := strings.HasSuffix(orderType, "limit")
	if err := c.ValidateOrder(exchange.OrderArgs{
		Symbol:        symbol,
		Type:          orderType,
		Side:          side,
		Amount:        amount,
		Price:         price,
		PriceRequired: isLimit,
		AllowedTypes:  []string{types.OrderTypeMarket, types.OrderTypeLimit, orderTypeStopLimit},
	}); err != nil {
		return nil, err
	}
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	qty, err := c.AmountToPrecision(symbol, amount)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"symbol":    market.ID,
		"side":      side,
		"orderType": orderType,
		"amount":    qty,
	}
	if isLimit {
		if request["price"], err = c.PriceToPrecision(symbol, price.Decimal); err != nil {
			return nil, err
		}
		if orderType == orderTypeStopLimit {
			raw, _ := params.String("stopPrice")
			if err := c.RequireArgument(raw, "stopPrice"); err != nil {
				return nil, err
			}
			stopPrice := exchange.ParseDecimal(raw)
			if !stopPrice.Valid {
				return nil, exchange.Errorf(exchange.BadRequest, ID, "createOrder() invalid stopPrice %q", raw)
			}
			if request["stopPrice"], err = c.PriceToPrecision(symbol, stopPrice.Decimal); err != nil {
				return nil, err
			}
		}
	}
	rest := exchange.Omit(params, "stopPrice")
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "POST", Path: "v1/trading/order", Params: exchange.Extend(request, rest)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, &market)
	return &order, nil
}

// CancelOrder cancels an order by id
func (c *Client) CancelOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	request := exchange.Extend(exchange.Params{"uuid": id}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "DELETE", Path: "v1/trading/order/{uuid}", Params: request})
	if err != nil {
		return nil, orderNotFound(err, "cancelOrder")
	}
	order := c.parseOrder(resp, nil)
	return &order, nil
}

// FetchOrder returns one order; symbol is not used
func (c *Client) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	request := exchange.Extend(exchange.Params{"uuid": id}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/order/{uuid}", Params: request})
	if err != nil {
		return nil, orderNotFound(err, "fetchOrder")
	}
	order := c.parseOrder(resp, nil)
	return &order, nil
}

// FetchOrders lists orders. A since or params["startTime"] opens a window
// closed by params["endTime"] or now.
func (c *Client) FetchOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	request := exchange.Params{}
	var market *types.Market
	if symbol != "" {
		m, err := c.Market(symbol)
		if err != nil {
			return nil, err
		}
		market = &m
		request["symbol"] = m.ID
	}
	endTime, ok := params.Int("endTime")
	if !ok {
		endTime = c.Milliseconds()
	}
	if startTime, ok := params.Int("startTime"); ok {
		request["startTime"] = exchange.ISO8601(startTime)
		request["endTime"] = exchange.ISO8601(endTime)
	}
	if since > 0 {
		request["startTime"] = exchange.ISO8601(since)
		request["endTime"] = exchange.ISO8601(endTime)
	}
	if limit > 0 {
		request["limit"] = limit
	}
	rest := exchange.Omit(params, "startTime", "endTime")
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/order", Params: exchange.Extend(request, rest)})
	if err != nil {
		return nil, err
	}
	orders := make([]types.Order, 0, len(resp.Array()))
	for _, raw := range resp.Array() {
		orders = append(orders, c.parseOrder(raw, market))
	}
	exchange.SortByTimestamp(orders, func(o types.Order) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(orders, func(o types.Order) int64 { return o.Timestamp }, since, limit), nil
}

// FetchOpenOrders lists open orders
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	return c.FetchOrders(ctx, symbol, since, limit, exchange.Extend(exchange.Params{"status": "open"}, params))
}

// FetchClosedOrders lists filled orders
func (c *Client) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	return c.FetchOrders(ctx, symbol, since, limit, exchange.Extend(exchange.Params{"status": "filled"}, params))
}

//	{
//	    "id": "12de6246-10dd-48ae-a17f-e9bdea46b8c9",
//	    "side": "buy",
//	    "symbol": "B2M/EUR",
//	    "price": "0.25",
//	    "orderAmount": "1000",
//	    "filledAmount": "0",
//	    "status": "open",
//	    "orderType": "limit",
//	    "cost": "0",
//	    "createdAt": "2024-05-23T10:14:04.483Z",
//	    "updatedAt": "2024-05-23T10:14:04.483Z",
//	    "stopPrice": "0",
//	    "clientOrderId": null,
//	    "timeInForce": "GTC"
//	}
func (c *Client) parseOrder(raw gjson.Result, market *types.Market) types.Order {
	symbol := c.SafeSymbol(exchange.SafeString(raw, "symbol"), "/")
	if symbol == "" && market != nil {
		symbol = market.Symbol
	}
	datetime := exchange.SafeString(raw, "updatedAt")
	o := types.Order{
		ID:            exchange.SafeString(raw, "id"),
		ClientOrderID: exchange.SafeString(raw, "clientOrderId"),
		Timestamp:     exchange.Parse8601(datetime),
		Symbol:        symbol,
		Type:          parseOrderType(exchange.SafeString(raw, "orderType")),
		TimeInForce:   exchange.SafeString(raw, "timeInForce"),
		PostOnly:      exchange.SafeBool(raw, "postOnly"),
		Side:          exchange.SafeString(raw, "side"),
		Price:         exchange.SafeDecimal(raw, "price"),
		TriggerPrice:  exchange.SafeDecimal(raw, "stopPrice"),
		Amount:        exchange.SafeDecimal(raw, "orderAmount"),
		Filled:        exchange.SafeDecimal(raw, "filledAmount"),
		Cost:          exchange.SafeDecimal(raw, "cost"),
		Status:        ParseOrderStatus(exchange.SafeString(raw, "status")),
		Info:          exchange.Raw(raw),
	}
	return *exchange.SafeOrder(&o)
}

// FetchOrderTrades returns the fills of one order
func (c *Client) FetchOrderTrades(ctx context.Context, id, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	request := exchange.Extend(exchange.Params{"uuid": id}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/order/{uuid}/trades", Params: request})
	if err != nil {
		return nil, orderNotFound(err, "fetchOrderTrades")
	}
	return c.parseTrades(resp.Array(), since, limit), nil
}

// FetchMyTrades returns the account's trades, newest first on the wire
func (c *Client) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	request := exchange.Params{
		"sort":      "createdAt",
		"direction": "desc",
	}
	if symbol != "" {
		request["symbol"] = c.SafeMarket(symbol, "/").Symbol
	}
	if limit > 0 {
		// default 50, max 50
		request["limit"] = limit
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/trade", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	return c.parseTrades(exchange.SafeList(resp, "data"), since, limit), nil
}

func (c *Client) parseTrades(rows []gjson.Result, since int64, limit int) []types.Trade {
	trades := make([]types.Trade, 0, len(rows))
	for _, row := range rows {
		trades = append(trades, c.parseTrade(row))
	}
	exchange.SortByTimestamp(trades, func(t types.Trade) int64 { return t.Timestamp })
	return exchange.FilterBySinceLimit(trades, func(t types.Trade) int64 { return t.Timestamp }, since, limit)
}

//	{
//	    "id": "4278a86a-53e7-4997-9102-01646ae8954a",
//	    "orderId": "536ee1dc-528a-419e-9c00-5e04c010658d",
//	    "symbol": "BTC/EUR",
//	    "side": "buy",
//	    "orderType": "limit",
//	    "price": 65000.5,
//	    "amount": 0.35,
//	    "createdAt": "2024-05-02T08:58:47.727Z",
//	    "cost": 22750.175,
//	    "feeAmount": 0.0750087,
//	    "feeCurrency": "EUR"
//	}
func (c *Client) parseTrade(raw gjson.Result) types.Trade {
	var fee *types.Fee
	feeCost := exchange.SafeDecimal(raw, "feeAmount")
	if feeCurrency := exchange.SafeString(raw, "feeCurrency"); feeCost.Valid && feeCurrency != "" {
		fee = &types.Fee{Cost: feeCost, Currency: c.SafeCurrencyCode(feeCurrency)}
	}
	t := types.Trade{
		ID:        exchange.SafeString(raw, "id"),
		Order:     exchange.SafeString(raw, "orderId"),
		Timestamp: exchange.Parse8601(exchange.SafeString(raw, "updatedAt", "createdAt")),
		Symbol:    c.SafeSymbol(exchange.SafeString(raw, "symbol"), "/"),
		Type:      parseOrderType(exchange.SafeString(raw, "orderType")),
		Side:      exchange.SafeString(raw, "side"),
		Price:     exchange.SafeDecimal(raw, "price"),
		Amount:    exchange.SafeDecimal(raw, "amount"),
		Cost:      exchange.SafeDecimal(raw, "cost"),
		Fee:       fee,
		Info:      exchange.Raw(raw),
	}
	return *exchange.SafeTrade(&t)
}

// FetchBalance returns the trading wallet balances
func (c *Client) FetchBalance(ctx context.Context, params exchange.Params) (*types.Balances, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "v1/trading/wallet/balance", Params: params})
	if err != nil {
		return nil, err
	}
	// [{"currency":"BTC","balance":0.35,"blockedBalance":0,"createdAt":"2023-09-13T14:05:42.149Z"}]
	result := &types.Balances{
		Currencies: make(map[string]types.Balance, len(resp.Array())),
		Info:       exchange.Raw(resp),
	}
	for _, raw := range resp.Array() {
		code := c.SafeCurrencyCode(exchange.SafeString(raw, "currency"))
		result.Currencies[code] = types.Balance{
			Free: exchange.SafeDecimal(raw, "balance"),
			Used: exchange.SafeDecimal(raw, "blockedBalance"),
		}
	}
	return exchange.SafeBalance(result), nil
}
