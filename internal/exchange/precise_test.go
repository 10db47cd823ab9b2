package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrecision(t *testing.T) {
	assert.Equal(t, "0.00000001", ParsePrecision("8"))
	assert.Equal(t, "1", ParsePrecision("0"))
	assert.Equal(t, "100", ParsePrecision("-2"))
	assert.Equal(t, "", ParsePrecision("x"))

	assert.Equal(t, 8, PrecisionFromString("0.00000001"))
	assert.Equal(t, 2, PrecisionFromString("0.010"))
	assert.Equal(t, 0, PrecisionFromString("5"))
	assert.Equal(t, 0, PrecisionFromString("bad"))
}

func TestDecimalToPrecision(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		rounding  RoundingMode
		precision string
		mode      PrecisionMode
		want      string
	}{
		{"tick truncate", "1.23456", Truncate, "0.01", TickSize, "1.23"},
		{"tick round", "1.235", Round, "0.01", TickSize, "1.24"},
		{"odd tick", "1.23", Truncate, "0.05", TickSize, "1.2"},
		{"odd tick round", "1.23", Round, "0.05", TickSize, "1.25"},
		{"whole ticks", "1234", Truncate, "100", TickSize, "1200"},
		{"places truncate", "1.23456", Truncate, "3", DecimalPlaces, "1.234"},
		{"places round", "1.23456", Round, "3", DecimalPlaces, "1.235"},
		{"significant digits", "123.456", Truncate, "4", SignificantDigits, "123.4"},
		{"significant digits small", "0.00123456", Round, "3", SignificantDigits, "0.00123"},
		{"zero tick leaves value", "1.23", Truncate, "0", TickSize, "1.23"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecimalToPrecision(
				decimal.RequireFromString(tt.value), tt.rounding,
				decimal.RequireFromString(tt.precision), tt.mode)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToPrecision(t *testing.T) {
	v := decimal.RequireFromString("0.50000")
	assert.Equal(t, "0.5", ToPrecision(v, Truncate, DecStr("0.001"), TickSize), "no trailing zeros")
	assert.Equal(t, "0.5", ToPrecision(v, Truncate, decimal.NullDecimal{}, TickSize), "unknown precision passes through")
}

func TestStringMath(t *testing.T) {
	assert.Equal(t, "0.65", StringMul("0.0065", "100"))
	assert.Equal(t, "", StringMul("", "100"))
	assert.Equal(t, "2000", StringDiv("24.69", "0.012345"))
	assert.Equal(t, "", StringDiv("1", "0"))
	assert.Equal(t, "", StringDiv("1", ""))
	assert.Equal(t, "0.3", StringAdd("0.1", "0.2"))
	assert.Equal(t, "-0.1", StringSub("0.1", "0.2"))
	assert.Equal(t, "", StringSub("x", "0.2"))
}
