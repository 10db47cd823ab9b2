package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
)

var validator = safety.NewValidator()

// ValidationError turns a failed check into the matching exchange error, or nil
func ValidationError(exchangeID string, result safety.ValidationResult) error {
	if result.Valid {
		return nil
	}
	kind := InvalidOrder
	switch result.Code {
	case safety.CodeArgumentMissing:
		kind = ArgumentsRequired
	case safety.CodeInvalidSymbol:
		kind = BadSymbol
	case safety.CodeInvalidTimeframe:
		kind = BadRequest
	}
	return NewError(kind, exchangeID, result.Message)
}

// OrderArgs are the createOrder arguments checked before signing
type OrderArgs struct {
	Symbol        string
	Type          string
	Side          string
	Amount        decimal.Decimal
	Price         decimal.NullDecimal
	PriceRequired bool
	AllowedTypes  []string
}

// ValidateOrder checks side, type, amount and price without touching the network
func (c *Client) ValidateOrder(args OrderArgs) error {
	checks := []safety.ValidationResult{
		validator.ValidateSymbol(args.Symbol),
		validator.ValidateSide(args.Side),
	}
	if len(args.AllowedTypes) > 0 {
		checks = append(checks, validator.ValidateOrderType(args.Type, args.AllowedTypes...))
	}
	checks = append(checks,
		validator.ValidateAmount(args.Amount, args.Symbol),
		validator.ValidatePrice(args.Price, args.PriceRequired, args.Symbol),
	)
	for _, r := range checks {
		if err := ValidationError(c.desc.ID, r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTimeframe fails with BadRequest for timeframes the adapter cannot map
func (c *Client) ValidateTimeframe(timeframe string) error {
	return ValidationError(c.desc.ID, validator.ValidateTimeframe(timeframe, c.desc.Timeframes))
}

// RequireArgument fails with ArgumentsRequired when value is empty
func (c *Client) RequireArgument(value, name string) error {
	return ValidationError(c.desc.ID, validator.ValidateStringNotEmpty(value, name))
}
