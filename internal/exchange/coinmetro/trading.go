package coinmetro

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// time in force codes, indexed by their wire value
var timeInForces = []string{"", "GTC", "IOC", "GTD", "FOK"}

// EncodeTimeInForce returns the numeric code of GTC, IOC, GTD or FOK and
// passes anything else through
func EncodeTimeInForce(tif string) interface{} {
	for code, name := range timeInForces {
		if code > 0 && name == strings.ToUpper(tif) {
			return code
		}
	}
	return tif
}

// ParseTimeInForce maps a numeric code back to its name
func ParseTimeInForce(raw gjson.Result) string {
	if raw.Type == gjson.Number {
		if code := raw.Int(); code > 0 && code < int64(len(timeInForces)) {
			return timeInForces[code]
		}
	}
	return raw.String()
}

// CreateOrder swaps one currency of the pair for the other. A sell gives
// amount of base for quote, a buy gives cost of quote for amount of base.
// Limit orders derive the cost from the price or take it from
// params["cost"]. Optional params: timeInForce, triggerPrice or stopPrice,
// clientOrderId or comment, stopLossPrice and takeProfitPrice.
func (c *Client) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params exchange.Params) (*types.Order, error) {
	if err := c.ValidateOrder(exchange.OrderArgs{
		Symbol:       symbol,
		Type:         orderType,
		Side:         side,
		Amount:       amount,
		Price:        price,
		AllowedTypes: []string{types.OrderTypeLimit, types.OrderTypeMarket},
	}); err != nil {
		return nil, err
	}
	orderType, side = strings.ToLower(orderType), strings.ToLower(side)
	market, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	formattedAmount, err := c.AmountToPrecision(market.Symbol, amount)
	if err != nil {
		return nil, err
	}

	cost, _ := params.String("cost")
	params = exchange.Omit(params, "cost")
	if orderType == types.OrderTypeLimit {
		if !price.Valid && cost == "" {
			return nil, exchange.Errorf(exchange.ArgumentsRequired, ID, "createOrder() requires a price or params.cost argument for a %s order", orderType)
		}
		if price.Valid {
			cost = exchange.StringMul(price.Decimal.String(), formattedAmount)
		}
	}
	var precisedCost string
	if cost != "" {
		parsed := exchange.ParseDecimal(cost)
		if !parsed.Valid {
			return nil, exchange.Errorf(exchange.BadRequest, ID, "createOrder() cost %q is not a number", cost)
		}
		if precisedCost, err = c.CostToPrecision(market.Symbol, parsed.Decimal); err != nil {
			return nil, err
		}
	}

	request := exchange.Params{"orderType": orderType}
	if side == types.SideSell {
		setOrderSide(request, market.BaseID, market.QuoteID, formattedAmount, precisedCost)
	} else {
		setOrderSide(request, market.QuoteID, market.BaseID, precisedCost, formattedAmount)
	}

	if tif, ok := params.String("timeInForce"); ok {
		request["timeInForce"] = EncodeTimeInForce(tif)
		params = exchange.Omit(params, "timeInForce")
	}
	if trigger, ok := params.String("triggerPrice", "stopPrice"); ok {
		if request["stopPrice"], err = c.priceParam(market.Symbol, trigger); err != nil {
			return nil, err
		}
		params = exchange.Omit(params, "triggerPrice", "stopPrice")
	}

	// userData is sent as userData[key] form fields
	if comment, ok := params.String("clientOrderId", "comment"); ok {
		request["userData[comment]"] = comment
		params = exchange.Omit(params, "clientOrderId", "comment")
	}
	if stopLoss, ok := params.String("stopLossPrice"); ok {
		if request["userData[stopLoss]"], err = c.priceParam(market.Symbol, stopLoss); err != nil {
			return nil, err
		}
		params = exchange.Omit(params, "stopLossPrice")
	}
	if takeProfit, ok := params.String("takeProfitPrice"); ok {
		if request["userData[takeProfit]"], err = c.priceParam(market.Symbol, takeProfit); err != nil {
			return nil, err
		}
		params = exchange.Omit(params, "takeProfitPrice")
	}

	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "POST", Path: "exchange/orders/create", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, market)
	return &order, nil
}

func setOrderSide(request exchange.Params, sellingCurrency, buyingCurrency, sellingQty, buyingQty string) {
	request["sellingCurrency"] = sellingCurrency
	request["buyingCurrency"] = buyingCurrency
	if sellingQty != "" {
		request["sellingQty"] = sellingQty
	}
	if buyingQty != "" {
		request["buyingQty"] = buyingQty
	}
}

func (c *Client) priceParam(symbol, value string) (string, error) {
	parsed := exchange.ParseDecimal(value)
	if !parsed.Valid {
		return "", exchange.Errorf(exchange.BadRequest, ID, "price %q is not a number", value)
	}
	return c.PriceToPrecision(symbol, parsed.Decimal)
}

// CancelOrder cancels an open order. Margin orders are closed instead when
// params["margin"] is true or params["marginMode"] is set.
func (c *Client) CancelOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	if err := c.RequireArgument(id, "id"); err != nil {
		return nil, err
	}
	margin, _ := params.Bool("margin")
	if mode, ok := params.String("marginMode"); ok && mode != "" {
		margin = true
	}
	params = exchange.Omit(params, "margin", "marginMode")

	req := exchange.Request{API: tierPrivate, Method: "PUT", Path: "exchange/orders/cancel/{orderID}"}
	if margin {
		req = exchange.Request{API: tierPrivate, Method: "POST", Path: "exchange/orders/close/{orderID}"}
	}
	req.Params = exchange.Extend(exchange.Params{"orderID": id}, params)
	resp, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, types.Market{})
	if !margin && (order.Status == "" || order.Status == types.OrderStatusClosed) {
		order.Status = types.OrderStatusCanceled
	}
	return &order, nil
}

// ClosePosition closes the margin position opened by params["orderId"]
func (c *Client) ClosePosition(ctx context.Context, symbol, side string, params exchange.Params) (*types.Order, error) {
	orderID, ok := params.String("orderId")
	if !ok || orderID == "" {
		return nil, exchange.NewError(exchange.ArgumentsRequired, ID, "closePosition() requires a orderId parameter")
	}
	request := exchange.Params{"orderID": orderID}
	resp, err := c.Fetch(ctx, exchange.Request{
		API:    tierPrivate,
		Method: "POST",
		Path:   "exchange/orders/close/{orderID}",
		Params: exchange.Extend(request, exchange.Omit(params, "orderId")),
	})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, types.Market{})
	return &order, nil
}

// FetchOrder returns one order by id
func (c *Client) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*types.Order, error) {
	if err := c.RequireArgument(id, "id"); err != nil {
		return nil, err
	}
	request := exchange.Params{"orderID": id}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "exchange/orders/status/{orderID}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	order := c.parseOrder(resp, types.Market{})
	return &order, nil
}

// FetchOpenOrders lists active orders, optionally of one market
func (c *Client) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	market, err := c.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "exchange/orders/active", Params: params})
	if err != nil {
		return nil, err
	}
	orders := c.parseOrders(resp.Array(), market, since, limit)
	for i := range orders {
		orders[i].Status = types.OrderStatusOpen
	}
	return orders, nil
}

// FetchCanceledAndClosedOrders lists the order history from since on
func (c *Client) FetchCanceledAndClosedOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Order, error) {
	market, err := c.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{"since": int64(0)}
	if since > 0 {
		request["since"] = since
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "exchange/orders/history/{since}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	return c.parseOrders(resp.Array(), market, since, limit), nil
}

// FetchMyTrades lists own fills from since on, optionally of one market
func (c *Client) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]types.Trade, error) {
	market, err := c.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{"since": int64(0)}
	if since > 0 {
		request["since"] = since
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "exchange/fills/{since}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	return c.parseTrades(resp.Array(), market, since, limit), nil
}

func (c *Client) optionalMarket(symbol string) (types.Market, error) {
	if symbol == "" {
		if _, err := c.Markets(); err != nil {
			return types.Market{}, err
		}
		return types.Market{}, nil
	}
	return c.Market(symbol)
}

func (c *Client) parseOrders(rows []gjson.Result, market types.Market, since int64, limit int) []types.Order {
	orders := make([]types.Order, 0, len(rows))
	for _, raw := range rows {
		o := c.parseOrder(raw, market)
		if market.Symbol != "" && o.Symbol != market.Symbol {
			continue
		}
		orders = append(orders, o)
	}
	exchange.SortByTimestamp(orders, func(o types.Order) int64 { return o.Timestamp })
	return exchange.FilterBySinceLimit(orders, func(o types.Order) int64 { return o.Timestamp }, since, limit)
}

// parseOrder reads the swap model: the pair and side follow from which
// currency is bought and which is sold. Coinmetro sends no status field, so
// an uncanceled order with a completionTime is reported as closed; without
// one the status stays empty.
//
//	{
//	    "orderID": "65671262d93d9525ac009e36170257448481749b7ee2893bafec2",
//	    "orderType": "market",
//	    "buyingCurrency": "ETH",
//	    "sellingCurrency": "USDC",
//	    "buyingQty": 0.002,
//	    "timeInForce": 4,
//	    "boughtQty": 0.002,
//	    "soldQty": 4.587,
//	    "creationTime": 1702574484829,
//	    "lastFillTime": 1702574484831,
//	    "fills": [{"seqNumber":10874285329,"timestamp":1702574484831,"qty":0.002,"price":2293.5,"side":"buy"}],
//	    "completionTime": 1702574484831,
//	    "fees": 0.000002,
//	    "canceled": false
//	}
func (c *Client) parseOrder(raw gjson.Result, market types.Market) types.Order {
	timestamp, hasTimestamp := exchange.SafeInteger(raw, "creationTime")
	status := exchange.SafeString(raw, "status")
	if canceled := exchange.SafeBool(raw, "canceled"); canceled != nil && *canceled {
		status = types.OrderStatusCanceled
		// market orders dropped for a bad price carry no creation time
		if !hasTimestamp {
			timestamp = exchange.SafeIntegerDefault(raw, "completionTime", 0)
			status = types.OrderStatusRejected
		}
	} else if status == "" && exchange.SafeValue(raw, "completionTime").Exists() {
		status = types.OrderStatusClosed
	}

	orderType := exchange.SafeString(raw, "orderType")
	buyingQty := exchange.SafeString(raw, "buyingQty")
	sellingQty := exchange.SafeString(raw, "sellingQty")
	boughtQty := exchange.SafeString(raw, "boughtQty")
	soldQty := exchange.SafeString(raw, "soldQty")
	if orderType == types.OrderTypeMarket {
		if buyingQty == "" && boughtQty != "" && boughtQty != "0" {
			buyingQty = boughtQty
		}
		if sellingQty == "" && soldQty != "" && soldQty != "0" {
			sellingQty = soldQty
		}
	}

	buyingID := exchange.SafeString(raw, "buyingCurrency")
	sellingID := exchange.SafeString(raw, "sellingCurrency")
	var side, baseAmount, quoteAmount, filled, cost, feeCurrency string
	if m, ok := c.marketByID(buyingID + sellingID); ok {
		market = m
		side = types.SideBuy
		baseAmount, quoteAmount = buyingQty, sellingQty
		filled, cost = boughtQty, soldQty
		feeCurrency = m.Base
	} else if m, ok := c.marketByID(sellingID + buyingID); ok {
		market = m
		side = types.SideSell
		baseAmount, quoteAmount = sellingQty, buyingQty
		filled, cost = soldQty, boughtQty
		feeCurrency = m.Quote
	}

	var fee *types.Fee
	if feeCost := exchange.SafeDecimal(raw, "fees"); feeCost.Valid && side != "" {
		fee = &types.Fee{Currency: feeCurrency, Cost: feeCost}
	}

	userData := exchange.Key(raw, "userData")
	fills := exchange.SafeList(raw, "fills")
	trades := make([]types.Trade, 0, len(fills))
	for _, f := range fills {
		trades = append(trades, c.parseTrade(f, market))
	}

	o := types.Order{
		ID:                 exchange.SafeString(raw, "orderID"),
		ClientOrderID:      exchange.SafeString(userData, "comment"),
		Timestamp:          timestamp,
		LastTradeTimestamp: exchange.SafeIntegerDefault(raw, "lastFillTime", 0),
		Status:             status,
		Symbol:             market.Symbol,
		Type:               orderType,
		TimeInForce:        ParseTimeInForce(exchange.Key(raw, "timeInForce")),
		Side:               side,
		Price:              exchange.ParseDecimal(exchange.StringDiv(quoteAmount, baseAmount)),
		TriggerPrice:       exchange.SafeDecimal(raw, "stopPrice"),
		TakeProfitPrice:    exchange.SafeDecimal(userData, "takeProfit"),
		StopLossPrice:      exchange.SafeDecimal(userData, "stopLoss"),
		Amount:             exchange.ParseDecimal(baseAmount),
		Filled:             exchange.ParseDecimal(filled),
		Cost:               exchange.ParseDecimal(cost),
		Fee:                fee,
		Trades:             trades,
		Info:               exchange.Raw(raw),
	}
	return *exchange.SafeOrder(&o)
}

func (c *Client) marketByID(id string) (types.Market, bool) {
	m, err := c.Markets()
	if err != nil || id == "" {
		return types.Market{}, false
	}
	return m.MarketByID(id)
}
