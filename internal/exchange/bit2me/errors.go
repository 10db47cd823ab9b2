package bit2me

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

var exceptions = exchange.ErrorRules{
	Exact: []exchange.ErrorRule{
		{Match: "AMOUNT_PRECISION_EXCEEDED", Kind: exchange.InvalidOrder},
		{Match: "BUY_PRICE_IS_ABOVE_INITIAL_PRICE", Kind: exchange.InvalidOrder},
		{Match: "BUY_STOP_PRICE_IS_BELOW_INITIAL_PRICE", Kind: exchange.InvalidOrder},
		{Match: "CREATE_ORDERS_DISABLED_TEMPORALLY", Kind: exchange.OnMaintenance},
		{Match: "CURRENCY_NOT_SUPPORTED", Kind: exchange.NotSupported},
		{Match: "DELETE_CLOSED_ORDER", Kind: exchange.CancelPending},
		{Match: "DELETE_ORDERS_DISABLED_TEMPORALLY", Kind: exchange.OnMaintenance},
		{Match: "DEPOSITS_DISABLED_TEMPORALLY", Kind: exchange.OnMaintenance},
		{Match: "ERROR_CREATING_INTERNAL_ORDER", Kind: exchange.InvalidOrder},
		{Match: "MARKET_CONFIG_NOT_FOUND", Kind: exchange.BadRequest},
		{Match: "MAX_CREATED_ORDERS_REACHED", Kind: exchange.InvalidOrder},
		{Match: "MAX_OPEN_ORDERS_REACHED", Kind: exchange.InvalidOrder},
		{Match: "NOT_ENOUGH_BALANCE", Kind: exchange.InsufficientFunds},
		{Match: "NOT_ENOUGH_LIQUIDITY", Kind: exchange.OperationFailed},
		{Match: "ORDER_AMOUNT_GREATER_MARKET_MAX", Kind: exchange.InvalidOrder},
		{Match: "ORDER_AMOUNT_LOWER_EQUAL_ZERO", Kind: exchange.InvalidOrder},
		{Match: "ORDER_PRICE_LOWER_EQUAL_ZERO", Kind: exchange.InvalidOrder},
		{Match: "ORDER_SIZE_LOWER_MARKET_MIN", Kind: exchange.InvalidOrder},
		{Match: "PRICE_GREATER_MARKET_MAX", Kind: exchange.InvalidOrder},
		{Match: "ORDER_STOP_PRICE_LOWER_EQUAL_ZERO", Kind: exchange.InvalidOrder},
		{Match: "PRICE_LOWER_MARKET_MIN", Kind: exchange.InvalidOrder},
		{Match: "PRICE_PRECISION_EXCEEDED", Kind: exchange.InvalidOrder},
		{Match: "ONLY_LIMIT_ORDERS_ALLOWED", Kind: exchange.OnMaintenance},
		{Match: "ORDER_AMOUNT_GREATER_TOTAL_AMOUNT_IN_PURCHASE", Kind: exchange.InvalidOrder},
		{Match: "ORDER_AMOUNT_GREATER_TOTAL_AMOUNT_IN_SALE", Kind: exchange.InvalidOrder},
		{Match: "ORDER_AMOUNT_LOWER_MARKET_MIN", Kind: exchange.InvalidOrder},
		{Match: "SELL_PRICE_IS_BELOW_INITIAL_PRICE", Kind: exchange.InvalidOrder},
		{Match: "SELL_STOP_PRICE_IS_ABOVE_INITIAL_PRICE", Kind: exchange.InvalidOrder},
		{Match: "TIME_IN_FORCE_INVALID", Kind: exchange.BadRequest},
		{Match: "TRADING_WALLET_NOT_BALANCE", Kind: exchange.InsufficientFunds},
		{Match: "TRADING_WALLET_NOT_FOUND", Kind: exchange.OperationFailed},
		{Match: "USER_IS_ALREADY_CREATING_ORDER", Kind: exchange.RateLimitExceeded},
		{Match: "WITHDRAWS_DISABLED_TEMPORALLY", Kind: exchange.OnMaintenance},
	},
}

// Fixed gateway messages checked before the payload code, in order
var gatewayMessages = []exchange.ErrorRule{
	{Match: "Invalid nonce", Kind: exchange.InvalidNonce},
	{Match: "Invalid signature", Kind: exchange.AuthenticationError},
	{Match: "Request forbidden by administrative rules", Kind: exchange.PermissionDenied},
	{Match: "Rate limit exceeded", Kind: exchange.RateLimitExceeded},
}

// HandleErrors maps any status >= 400. Business errors arrive as
//
//	{"statusCode":"412","message":"...","data":{"errorPayload":{"code":"PRICE_LOWER_MARKET_MIN"}}}
func (c *Client) HandleErrors(resp *exchange.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return exchange.Errorf(exchange.RateLimitExceeded, ID, "%d %s %s", resp.StatusCode, resp.Reason, resp.Body)
	}
	if resp.StatusCode < 400 {
		return nil
	}
	feedback := exchange.Feedback(ID, resp.Body)
	if resp.StatusCode == http.StatusBadRequest {
		return &exchange.Error{Kind: exchange.BadRequest, Message: feedback}
	}
	for _, rule := range gatewayMessages {
		if strings.Contains(resp.Body, rule.Match) {
			return &exchange.Error{Kind: rule.Kind, Message: feedback}
		}
	}

	rules := c.Describe().Exceptions
	code := exchange.SafeString(exchange.Key(exchange.Key(resp.JSON, "data"), "errorPayload"), "code")
	if err := rules.ThrowExactlyMatched(code, feedback); err != nil {
		return err
	}
	if err := rules.ThrowBroadlyMatched(exchange.SafeString(resp.JSON, "message"), feedback); err != nil {
		return err
	}
	return &exchange.Error{Kind: exchange.ExchangeError, Message: feedback}
}

// orderNotFound turns a 404 from an order lookup into OrderNotFound
func orderNotFound(err error, method string) error {
	if exchange.HTTPStatusOf(err) != http.StatusNotFound {
		return err
	}
	return &exchange.Error{
		Kind:       exchange.OrderNotFound,
		Exchange:   ID,
		Message:    fmt.Sprintf("%s %s() error", ID, method),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}
