package alpaca

import (
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

var exceptions = exchange.ErrorRules{
	Exact: []exchange.ErrorRule{
		{Match: "forbidden.", Kind: exchange.PermissionDenied}, // {"message": "forbidden."}
		{Match: "40410000", Kind: exchange.InvalidOrder},       // {"code": 40410000, "message": "order is not found."}
		{Match: "40010001", Kind: exchange.BadRequest},         // {"code":40010001,"message":"invalid order type for crypto order"}
		{Match: "40110000", Kind: exchange.PermissionDenied},   // {"code": 40110000, "message": "request is not authorized"}
		{Match: "40310000", Kind: exchange.InsufficientFunds},  // {"code":40310000,"message":"insufficient balance for USDT ..."}
		{Match: "42910000", Kind: exchange.RateLimitExceeded},  // {"code":42910000,"message":"rate limit exceeded"}
	},
	Broad: []exchange.ErrorRule{
		{Match: "Invalid format for parameter", Kind: exchange.BadRequest},
		{Match: "Invalid symbol", Kind: exchange.BadSymbol},
	},
}

// HandleErrors maps the code field exactly, then the message exactly and
// broadly. Any other message is a generic exchange error.
func (c *Client) HandleErrors(resp *exchange.Response) error {
	if !resp.JSON.IsObject() {
		return nil
	}
	rules := c.Describe().Exceptions
	feedback := exchange.Feedback(ID, resp.Body)

	if err := rules.ThrowExactlyMatched(exchange.SafeString(resp.JSON, "code"), feedback); err != nil {
		return err
	}
	message := exchange.SafeString(resp.JSON, "message")
	if message == "" {
		return nil
	}
	if err := rules.ThrowExactlyMatched(message, feedback); err != nil {
		return err
	}
	if err := rules.ThrowBroadlyMatched(message, feedback); err != nil {
		return err
	}
	return &exchange.Error{Kind: exchange.ExchangeError, Message: feedback}
}
