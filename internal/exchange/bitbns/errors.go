package bitbns

import (
	"errors"
	"strings"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

var exceptions = exchange.ErrorRules{
	Exact: []exchange.ErrorRule{
		{Match: "400", Kind: exchange.BadRequest},        // {"msg":"Invalid Request","status":-1,"code":400}
		{Match: "409", Kind: exchange.BadSymbol},         // {"data":"","status":0,"error":"coin name not supplied or not yet supported","code":409}
		{Match: "416", Kind: exchange.InsufficientFunds}, // {"data":"Oops ! Not sufficient currency to sell","status":0,"error":null,"code":416}
		{Match: "417", Kind: exchange.OrderNotFound},     // {"data":[],"status":0,"error":"Nothing to show","code":417}
	},
}

// HandleErrors inspects the envelope code; 200 and 204 are successes.
//
//	{"msg":"Invalid Request","status":-1,"code":400}
//	{"data":[],"status":0,"error":"Nothing to show","code":417}
func (c *Client) HandleErrors(resp *exchange.Response) error {
	if !resp.JSON.IsObject() {
		return nil
	}
	code := exchange.SafeString(resp.JSON, "code")
	message := exchange.SafeString(resp.JSON, "msg")
	failed := code != "" && code != "200" && code != "204"
	if !failed && message == "" {
		return nil
	}

	feedback := exchange.Feedback(ID, resp.Body)
	rules := c.Describe().Exceptions
	if err := rules.ThrowExactlyMatched(code, feedback); err != nil {
		return err
	}
	if err := rules.ThrowExactlyMatched(message, feedback); err != nil {
		return err
	}
	if err := rules.ThrowBroadlyMatched(message, feedback); err != nil {
		return err
	}
	return &exchange.Error{Kind: exchange.ExchangeError, Message: feedback}
}

// nothingToShow reports the 417 reply list endpoints give when they are empty
func nothingToShow(err error) bool {
	var exErr *exchange.Error
	if !errors.As(err, &exErr) || exErr.Kind != exchange.OrderNotFound {
		return false
	}
	return strings.Contains(exErr.Message, "Nothing to show")
}
