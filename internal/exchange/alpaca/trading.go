package alpaca

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

var orderStatuses = map[string]string{
	"pending_new":      types.OrderStatusOpen,
	"accepted":         types.OrderStatusOpen,
	"new":              types.OrderStatusOpen,
	"partially_filled": types.OrderStatusOpen,
	"activated":        types.OrderStatusOpen,
	"filled":           types.OrderStatusClosed,
}

// ParseOrderStatus maps a native status, passing unknown ones through
func ParseOrderStatus(status string) string {
	if s, ok := orderStatuses[status]; ok {
		return s
	}
	return status
}

var timeInForces = map[string]string{
	"day": "Day",
}

func parseTimeInForce(tif string) string {
	if s, ok := timeInForces[tif]; ok {
		return s
	}
	return tif
}

// CreateOrder places a market, limit or stop-limit order. A triggerPrice
// (or stop_price) param turns a limit order into a stop_limit order.
func (c *Client) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params exchange.Params) (*types.Order, error) {
	isLimit := strings.Contains(orderType, "limit")
	if err := c.ValidateOrder(exchange.OrderArgs{
		Symbol:        symbol,
		Type:          orderType,
		Side:          side,
		Amount:        amount,
		Price:         price,
		PriceRequired: isLimit,
		AllowedTypes:  []string{types.OrderTypeMarket, types.OrderTypeLimit, "stop_limit"},
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
		"symbol": market.ID,
		"qty":    qty,
		"side":   side,
		"type":   orderType,
	}

	if trigger, ok := params.String("triggerPrice", "stop_price"); ok {
		if !isLimit {
			return nil, exchange.Errorf(exchange.NotSupported, ID,
				"createOrder() does not support stop orders for %s orders, only stop_limit orders are supported", orderType)
		}
		triggerPrice := exchange.ParseDecimal(trigger)
		if !triggerPrice.Valid {
			return nil, exchange.Errorf(exchange.BadRequest, ID, "createOrder() invalid triggerPrice %q", trigger)
		}
		stopPrice, err := c.PriceToPrecision(symbol, triggerPrice.Decimal)
		if err != nil {
			return nil, err
		}
		request["stop_price"] = stopPrice
		request["type"] = "stop_limit"
	}
	if isLimit {
		limitPrice, err := c.PriceToPrecision(symbol, price.Decimal)
		if err != nil {
			return nil, err
		}
		request["limit_price"] = limitPrice
	}

	tif, ok := params.String("timeInForce")
	if !ok {
		tif = c.Options().DefaultTimeInForce
	}
	request["time_in_force"] = tif

	clientOrderID, ok := params.String("clientOrderId")
	if !ok {
		clientOrderID = exchange.ImplodeParams(c.Options().ClientOrderIDPrefix, exchange.Params{"id": exchange.UUIDCompact()})
	}
	request["client_order_id"] = clientOrderID

	rest := exchange.Omit(params, "timeInForce", "triggerPrice", "stop_price", "clientOrderId")
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "POST", Path: "v2/orders", Params: exchange.Extend(request, rest)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, &market)
	return &order, nil
}

// CancelOrder cancels one order. Alpaca answers with an empty body on success.
func (c *Client) CancelOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	request := exchange.Extend(exchange.Params{"order_id": id}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "DELETE", Path: "v2/orders/{order_id}", Params: request})
	if err != nil {
		return nil, err
	}
	return &types.Order{ID: id, Symbol: symbol, Info: exchange.Raw(resp)}, nil
}

// CancelAllOrders cancels every open order; Alpaca cannot scope it to a symbol
func (c *Client) CancelAllOrders(ctx context.Context, symbol string, params exchange.Params) ([]types.Order, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "DELETE", Path: "v2/orders", Params: params})
	if err != nil {
		return nil, err
	}
	// [{"id":"...","status":200,"body":{<order>}}]
	orders := make([]types.Order, 0, len(resp.Array()))
	for _, entry := range resp.Array() {
		raw := entry
		if body := exchange.Key(entry, "body"); body.IsObject() {
			raw = body
		}
		orders = append(orders, c.parseOrder(raw, nil))
	}
	return orders, nil
}

// FetchOrder returns one order by id
func (c *Client) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	request := exchange.Extend(exchange.Params{"order_id": id}, params)
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "GET", Path: "v2/orders/{order_id}", Params: request})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, nil)
	return &order, nil
}

// FetchOrders returns orders of every status unless params override "status"
func (c *Client) FetchOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	request := exchange.Params{"status": "all"}
	var market *types.Market
	if symbol != "" {
		m, err := c.Market(symbol)
		if err != nil {
			return nil, err
		}
		market = &m
		request["symbols"] = m.ID
	}
	if until, ok := params.Int("until"); ok {
		params = exchange.Omit(params, "until")
		request["endTime"] = until
	}
	if since > 0 {
		request["after"] = since
	}
	if limit > 0 {
		request["limit"] = limit
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierTrader, Method: "GET", Path: "v2/orders", Params: exchange.Extend(request, params)})
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

// FetchOpenOrders returns open orders
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	return c.FetchOrders(ctx, symbol, since, limit, exchange.Extend(exchange.Params{"status": "open"}, params))
}

// FetchClosedOrders returns closed orders
func (c *Client) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	return c.FetchOrders(ctx, symbol, since, limit, exchange.Extend(exchange.Params{"status": "closed"}, params))
}

func (c *Client) parseOrder(order gjson.Result, market *types.Market) types.Order {
	symbol := c.SafeSymbol(exchange.SafeString(order, "symbol"), "/")
	if symbol == "" && market != nil {
		symbol = market.Symbol
	}

	var fee *types.Fee
	if cost := exchange.SafeDecimal(order, "commission"); cost.Valid {
		fee = &types.Fee{Cost: cost, Currency: "USD"}
	}

	orderType := exchange.SafeString(order, "order_type")
	if strings.Contains(orderType, "limit") {
		// limit or stop_limit
		orderType = types.OrderTypeLimit
	}

	datetime := exchange.SafeString(order, "submitted_at")
	o := types.Order{
		ID:            exchange.SafeString(order, "id"),
		ClientOrderID: exchange.SafeString(order, "client_order_id"),
		Timestamp:     exchange.Parse8601(datetime),
		Datetime:      datetime,
		Status:        ParseOrderStatus(exchange.SafeString(order, "status")),
		Symbol:        symbol,
		Type:          orderType,
		TimeInForce:   parseTimeInForce(exchange.SafeString(order, "time_in_force")),
		Side:          exchange.SafeString(order, "side"),
		Price:         exchange.SafeDecimal(order, "limit_price"),
		TriggerPrice:  exchange.SafeDecimal(order, "stop_price"),
		Average:       exchange.SafeDecimal(order, "filled_avg_price"),
		Amount:        exchange.SafeDecimal(order, "qty"),
		Filled:        exchange.SafeDecimal(order, "filled_qty"),
		Fee:           fee,
		Info:          exchange.Raw(order),
	}
	return *exchange.SafeOrder(&o)
}
