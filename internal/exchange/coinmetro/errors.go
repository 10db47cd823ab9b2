package coinmetro

import (
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

var exceptions = exchange.ErrorRules{
	Exact: []exchange.ErrorRule{
		{Match: "Both buyingCurrency and sellingCurrency are required", Kind: exchange.InvalidOrder},
		{Match: "One and only one of buyingQty and sellingQty is required", Kind: exchange.InvalidOrder},
		{Match: "Invalid buyingCurrency", Kind: exchange.InvalidOrder},
		{Match: "Invalid 'from'", Kind: exchange.BadRequest},
		{Match: "Invalid sellingCurrency", Kind: exchange.InvalidOrder},
		{Match: "Invalid buyingQty", Kind: exchange.InvalidOrder},
		{Match: "Invalid sellingQty", Kind: exchange.InvalidOrder},
		{Match: "Insufficient balance", Kind: exchange.InsufficientFunds},
		{Match: "Expiration date is in the past or too near in the future", Kind: exchange.InvalidOrder},
		{Match: "Forbidden", Kind: exchange.PermissionDenied},
		{Match: "Order Not Found", Kind: exchange.OrderNotFound},
		{Match: "since must be a millisecond timestamp", Kind: exchange.BadRequest},
		{Match: "This pair is disabled on margin", Kind: exchange.BadSymbol},
	},
	Broad: []exchange.ErrorRule{
		{Match: "accessing from a new IP", Kind: exchange.PermissionDenied},
		{Match: "available to allocate as collateral", Kind: exchange.InsufficientFunds},
		{Match: "At least", Kind: exchange.BadRequest},
		{Match: "collateral is not allowed", Kind: exchange.BadRequest},
		{Match: "Insufficient liquidity", Kind: exchange.InvalidOrder},
		{Match: "Insufficient order size", Kind: exchange.InvalidOrder},
		{Match: "Invalid quantity", Kind: exchange.InvalidOrder},
		{Match: "Invalid Stop Loss", Kind: exchange.InvalidOrder},
		{Match: "Invalid stop price!", Kind: exchange.InvalidOrder},
		{Match: "Not enough balance", Kind: exchange.InsufficientFunds},
		{Match: "Not enough margin", Kind: exchange.InsufficientFunds},
		{Match: "orderType missing", Kind: exchange.BadRequest},
		{Match: "Server Timeout", Kind: exchange.ExchangeError},
		{Match: "Time in force has to be IOC or FOK for market orders", Kind: exchange.InvalidOrder},
		{Match: "Too many attempts", Kind: exchange.RateLimitExceeded},
	},
}

// HandleErrors maps the "message" of any reply outside 200-202. Broad rules
// run before exact ones here.
//
//	{"message":"Insufficient balance"}
func (c *Client) HandleErrors(resp *exchange.Response) error {
	if !resp.JSON.Exists() {
		return nil
	}
	switch resp.StatusCode {
	case 200, 201, 202:
		return nil
	}
	feedback := exchange.Feedback(ID, resp.Body)
	message := exchange.SafeString(resp.JSON, "message")
	rules := c.Describe().Exceptions
	if err := rules.ThrowBroadlyMatched(message, feedback); err != nil {
		return err
	}
	if err := rules.ThrowExactlyMatched(message, feedback); err != nil {
		return err
	}
	return &exchange.Error{Kind: exchange.ExchangeError, Message: feedback}
}
