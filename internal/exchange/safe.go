package exchange

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Field accessors over raw responses. Missing or null fields yield zero
// values, never errors, so a malformed record degrades instead of failing.

// Key returns the member of r named key, treating every character literally
func Key(r gjson.Result, key string) gjson.Result {
	if !r.IsObject() && !r.IsArray() {
		return gjson.Result{}
	}
	return r.Get(escapeKey(key))
}

func escapeKey(key string) string {
	var b strings.Builder
	for _, ch := range key {
		switch ch {
		case '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// SafeValue returns the first present member among keys
func SafeValue(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := Key(r, k); present(v) {
			return v
		}
	}
	return gjson.Result{}
}

// SafeString returns the first present member rendered as a string. Numbers
// keep their literal form.
func SafeString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		v := Key(r, k)
		if !present(v) {
			continue
		}
		if s := resultString(v); s != "" {
			return s
		}
	}
	return ""
}

// SafeStringDefault is SafeString with a fallback
func SafeStringDefault(r gjson.Result, key, def string) string {
	if s := SafeString(r, key); s != "" {
		return s
	}
	return def
}

// SafeStringLower lowercases SafeString
func SafeStringLower(r gjson.Result, keys ...string) string {
	return strings.ToLower(SafeString(r, keys...))
}

// SafeStringUpper uppercases SafeString
func SafeStringUpper(r gjson.Result, keys ...string) string {
	return strings.ToUpper(SafeString(r, keys...))
}

func resultString(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return v.Raw
	case gjson.String:
		return v.Str
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.JSON:
		return v.Raw
	}
	return ""
}

// SafeDecimal returns the first member that parses as a decimal
func SafeDecimal(r gjson.Result, keys ...string) decimal.NullDecimal {
	for _, k := range keys {
		if d := ToDecimal(Key(r, k)); d.Valid {
			return d
		}
	}
	return decimal.NullDecimal{}
}

// ToDecimal parses a scalar result as a decimal
func ToDecimal(v gjson.Result) decimal.NullDecimal {
	if !present(v) {
		return decimal.NullDecimal{}
	}
	return ParseDecimal(resultString(v))
}

// ParseDecimal parses s, returning an invalid value for empty or malformed input
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// SafeInteger returns the first member that parses as an integer, truncating fractions
func SafeInteger(r gjson.Result, keys ...string) (int64, bool) {
	for _, k := range keys {
		v := Key(r, k)
		if !present(v) {
			continue
		}
		s := resultString(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d.IntPart(), true
		}
	}
	return 0, false
}

// SafeIntegerDefault is SafeInteger with a fallback
func SafeIntegerDefault(r gjson.Result, key string, def int64) int64 {
	if i, ok := SafeInteger(r, key); ok {
		return i
	}
	return def
}

// SafeTimestamp reads a seconds value and returns milliseconds
func SafeTimestamp(r gjson.Result, keys ...string) int64 {
	d := SafeDecimal(r, keys...)
	if !d.Valid {
		return 0
	}
	return d.Decimal.Mul(decimal.NewFromInt(1000)).IntPart()
}

// SafeBool returns a pointer to the member's boolean value, or nil
func SafeBool(r gjson.Result, keys ...string) *bool {
	for _, k := range keys {
		v := Key(r, k)
		switch v.Type {
		case gjson.True, gjson.False:
			b := v.Bool()
			return &b
		}
	}
	return nil
}

// SafeList returns the array members of the first present key
func SafeList(r gjson.Result, keys ...string) []gjson.Result {
	for _, k := range keys {
		if v := Key(r, k); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// Raw returns the raw JSON of r for Info fields
func Raw(r gjson.Result) json.RawMessage {
	if r.Raw == "" {
		return nil
	}
	return json.RawMessage(r.Raw)
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// Dec returns a valid NullDecimal
func Dec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// DecStr parses s, panicking on malformed literals. Used for static tables.
func DecStr(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
