package exchange

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects truncation or half-up rounding
type RoundingMode int

const (
	Truncate RoundingMode = iota
	Round
)

// ParsePrecision turns a decimal place count into a tick size: "8" gives "0.00000001"
func ParsePrecision(digits string) string {
	n, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil {
		return ""
	}
	return decimal.New(1, int32(-n)).String()
}

// PrecisionFromString counts the significant decimals of a tick size string
func PrecisionFromString(s string) int {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	str := d.String()
	i := strings.IndexByte(str, '.')
	if i < 0 {
		return 0
	}
	return len(strings.TrimRight(str[i+1:], "0"))
}

// DecimalToPrecision rounds value to precision interpreted by mode
func DecimalToPrecision(value decimal.Decimal, rounding RoundingMode, precision decimal.Decimal, mode PrecisionMode) decimal.Decimal {
	switch mode {
	case TickSize:
		if !precision.IsPositive() {
			return value
		}
		var steps decimal.Decimal
		if rounding == Truncate {
			steps = value.Div(precision).Truncate(0)
		} else {
			steps = value.Div(precision).Round(0)
		}
		places := int32(PrecisionFromString(precision.String()))
		return steps.Mul(precision).Round(places)
	case SignificantDigits:
		digits := int32(precision.IntPart())
		if digits <= 0 || value.IsZero() {
			return value
		}
		intDigits := int32(len(value.Abs().Truncate(0).String()))
		if value.Abs().LessThan(decimal.NewFromInt(1)) {
			intDigits = 0
			for v := value.Abs(); v.LessThan(decimal.New(1, -1)); v = v.Shift(1) {
				intDigits--
			}
		}
		places := digits - intDigits
		if rounding == Truncate {
			return value.Truncate(places)
		}
		return value.Round(places)
	default:
		places := int32(precision.IntPart())
		if rounding == Truncate {
			return value.Truncate(places)
		}
		return value.Round(places)
	}
}

// ToPrecision applies rounding and renders the result without trailing zeros
func ToPrecision(value decimal.Decimal, rounding RoundingMode, precision decimal.NullDecimal, mode PrecisionMode) string {
	if !precision.Valid {
		return value.String()
	}
	return DecimalToPrecision(value, rounding, precision.Decimal, mode).String()
}

// StringMul multiplies two decimal strings; empty input yields ""
func StringMul(a, b string) string {
	x, y := ParseDecimal(a), ParseDecimal(b)
	if !x.Valid || !y.Valid {
		return ""
	}
	return x.Decimal.Mul(y.Decimal).String()
}

// StringDiv divides two decimal strings; empty input or a zero divisor yields ""
func StringDiv(a, b string) string {
	x, y := ParseDecimal(a), ParseDecimal(b)
	if !x.Valid || !y.Valid || y.Decimal.IsZero() {
		return ""
	}
	return x.Decimal.Div(y.Decimal).String()
}

// StringAdd adds two decimal strings; empty input yields ""
func StringAdd(a, b string) string {
	x, y := ParseDecimal(a), ParseDecimal(b)
	if !x.Valid || !y.Valid {
		return ""
	}
	return x.Decimal.Add(y.Decimal).String()
}

// StringSub subtracts two decimal strings; empty input yields ""
func StringSub(a, b string) string {
	x, y := ParseDecimal(a), ParseDecimal(b)
	if !x.Valid || !y.Valid {
		return ""
	}
	return x.Decimal.Sub(y.Decimal).String()
}
