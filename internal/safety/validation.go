package safety

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation codes
const (
	CodeArgumentMissing  = "ARGUMENT_MISSING"
	CodeInvalidSide      = "INVALID_SIDE"
	CodeInvalidOrderType = "INVALID_ORDER_TYPE"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeInvalidPrice     = "INVALID_PRICE"
	CodeInvalidSymbol    = "INVALID_SYMBOL"
	CodeInvalidTimeframe = "INVALID_TIMEFRAME"
)

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Valid   bool
	Message string
	Code    string
}

// Validator checks order arguments before any request leaves the process
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSide accepts buy or sell in any case
func (v *Validator) ValidateSide(side string) ValidationResult {
	switch strings.ToLower(side) {
	case "buy", "sell":
		return ValidationResult{Valid: true}
	case "":
		return ValidationResult{
			Message: "side is required",
			Code:    CodeArgumentMissing,
		}
	}
	return ValidationResult{
		Message: fmt.Sprintf("invalid side %q: expected buy or sell", side),
		Code:    CodeInvalidSide,
	}
}

// ValidateOrderType checks orderType against the types an exchange accepts
func (v *Validator) ValidateOrderType(orderType string, allowed ...string) ValidationResult {
	if orderType == "" {
		return ValidationResult{
			Message: "order type is required",
			Code:    CodeArgumentMissing,
		}
	}
	for _, a := range allowed {
		if strings.EqualFold(a, orderType) {
			return ValidationResult{Valid: true}
		}
	}
	return ValidationResult{
		Message: fmt.Sprintf("unsupported order type %q, supported: %s", orderType, strings.Join(allowed, ", ")),
		Code:    CodeInvalidOrderType,
	}
}

// ValidateAmount requires a positive amount
func (v *Validator) ValidateAmount(amount decimal.Decimal, symbol string) ValidationResult {
	if !amount.IsPositive() {
		return ValidationResult{
			Message: fmt.Sprintf("invalid amount %s for %s: amount must be positive", amount.String(), symbol),
			Code:    CodeInvalidAmount,
		}
	}
	return ValidationResult{Valid: true}
}

// ValidatePrice requires a positive price when required is set, and rejects
// non-positive prices whenever one is given
func (v *Validator) ValidatePrice(price decimal.NullDecimal, required bool, symbol string) ValidationResult {
	if !price.Valid {
		if required {
			return ValidationResult{
				Message: fmt.Sprintf("price is required for %s", symbol),
				Code:    CodeArgumentMissing,
			}
		}
		return ValidationResult{Valid: true}
	}
	if !price.Decimal.IsPositive() {
		return ValidationResult{
			Message: fmt.Sprintf("invalid price %s for %s: price must be positive", price.Decimal.String(), symbol),
			Code:    CodeInvalidPrice,
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateSymbol validates a unified BASE/QUOTE[:SETTLE] symbol
func (v *Validator) ValidateSymbol(symbol string) ValidationResult {
	if strings.TrimSpace(symbol) == "" {
		return ValidationResult{
			Message: "symbol is required",
			Code:    CodeArgumentMissing,
		}
	}
	pair := symbol
	if i := strings.Index(pair, ":"); i >= 0 {
		pair = pair[:i]
	}
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ValidationResult{
			Message: fmt.Sprintf("symbol %q is not in BASE/QUOTE form", symbol),
			Code:    CodeInvalidSymbol,
		}
	}
	return ValidationResult{Valid: true}
}

// ValidateTimeframe checks a unified timeframe against an exchange mapping
func (v *Validator) ValidateTimeframe(timeframe string, supported map[string]string) ValidationResult {
	if _, ok := supported[timeframe]; ok {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{
		Message: fmt.Sprintf("timeframe %q is not supported", timeframe),
		Code:    CodeInvalidTimeframe,
	}
}

// ValidateStringNotEmpty validates that a required string argument is set
func (v *Validator) ValidateStringNotEmpty(value, fieldName string) ValidationResult {
	if strings.TrimSpace(value) == "" {
		return ValidationResult{
			Message: fmt.Sprintf("%s is required", fieldName),
			Code:    CodeArgumentMissing,
		}
	}

	return ValidationResult{Valid: true}
}
