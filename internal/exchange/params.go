package exchange

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Params is the free-form options bag every unified method accepts last
type Params map[string]interface{}

// Extend merges maps left to right into a new map
func Extend(maps ...Params) Params {
	out := Params{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Omit returns a copy of p without keys
func Omit(p Params, keys ...string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// String returns the first present key rendered as a string
func (p Params) String(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			s := Stringify(v)
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Int returns the first present key parsed as an integer
func (p Params) Int(keys ...string) (int64, bool) {
	s, ok := p.String(keys...)
	if !ok {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.IntPart(), true
	}
	return 0, false
}

// Bool returns the first present key as a boolean
func (p Params) Bool(keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := p[k].(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// Stringify renders a parameter value the way it goes on the wire
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case decimal.NullDecimal:
		if !t.Valid {
			return ""
		}
		return t.Decimal.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// URLEncode encodes p with keys in sorted order
func URLEncode(p Params) string {
	if len(p) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range p {
		values.Set(k, Stringify(v))
	}
	return values.Encode()
}

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractParams lists the {name} placeholders of path
func ExtractParams(path string) []string {
	matches := pathParam.FindAllStringSubmatch(path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ImplodeParams substitutes {name} placeholders in path from p
func ImplodeParams(path string, p Params) string {
	return pathParam.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := p[name]; ok {
			return Stringify(v)
		}
		return m
	})
}

// ISO8601 formats a millisecond timestamp, or returns "" for zero
func ISO8601(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse8601 parses an ISO 8601 datetime into milliseconds, returning 0 when invalid
func Parse8601(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// YYYYMMDD formats a millisecond timestamp as a date with the given separator
func YYYYMMDD(ms int64, sep string) string {
	return time.UnixMilli(ms).UTC().Format("2006" + sep + "01" + sep + "02")
}

// ParseTimeframe returns the duration of a unified timeframe like "15m" or "1d"
func ParseTimeframe(timeframe string) (time.Duration, error) {
	if len(timeframe) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	amount, err := strconv.Atoi(timeframe[:len(timeframe)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid timeframe %q: %w", timeframe, err)
	}
	var unit time.Duration
	switch timeframe[len(timeframe)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	case 'M':
		unit = 30 * 24 * time.Hour
	case 'y':
		unit = 365 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe unit in %q", timeframe)
	}
	return time.Duration(amount) * unit, nil
}

// FilterBySinceLimit keeps items at or after since, then the first limit of them
func FilterBySinceLimit[T any](items []T, timestamp func(T) int64, since int64, limit int) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if since > 0 && timestamp(it) < since {
			continue
		}
		out = append(out, it)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortByTimestamp sorts items ascending by timestamp, keeping equal items in order
func SortByTimestamp[T any](items []T, timestamp func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return timestamp(items[i]) < timestamp(items[j])
	})
}
