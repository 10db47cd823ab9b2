package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// DefaultDataFilter implements DataFilter for common filtering operations
type DefaultDataFilter struct{}

// NewDefaultDataFilter creates a new default data filter
func NewDefaultDataFilter() *DefaultDataFilter {
	return &DefaultDataFilter{}
}

// FilterByPeriod keeps the candles within period of the latest one
func (f *DefaultDataFilter) FilterByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(data) == 0 {
		return data
	}

	cutoff := data[len(data)-1].Timestamp - period.Milliseconds()
	idx := sort.Search(len(data), func(i int) bool { return data[i].Timestamp >= cutoff })
	return data[idx:]
}

// FilterByDateRange filters data to a specific date range
func (f *DefaultDataFilter) FilterByDateRange(data []types.OHLCV, start, end int64) []types.OHLCV {
	if len(data) == 0 {
		return data
	}

	var filtered []types.OHLCV
	for _, candle := range data {
		if start > 0 && candle.Timestamp < start {
			continue
		}
		if end > 0 && candle.Timestamp >= end {
			continue
		}
		filtered = append(filtered, candle)
	}
	return filtered
}

// ValidateTimeSequence ensures data is in chronological order
func (f *DefaultDataFilter) ValidateTimeSequence(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		prev, cur := data[i-1].Timestamp, data[i].Timestamp
		if cur < prev {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, formatMs(cur), formatMs(prev))
		}
		if cur == prev {
			return fmt.Errorf("duplicate timestamp at index %d: %s", i, formatMs(cur))
		}
	}
	return nil
}

// SortByTimestamp returns a sorted copy, ascending
func (f *DefaultDataFilter) SortByTimestamp(data []types.OHLCV) []types.OHLCV {
	sorted := make([]types.OHLCV, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// RemoveDuplicates removes duplicate timestamps, keeping the last occurrence
// so a refreshed candle replaces a stale one
func (f *DefaultDataFilter) RemoveDuplicates(data []types.OHLCV) []types.OHLCV {
	if len(data) <= 1 {
		return data
	}

	index := make(map[int64]int, len(data))
	var filtered []types.OHLCV
	for _, candle := range data {
		if i, ok := index[candle.Timestamp]; ok {
			filtered[i] = candle
			continue
		}
		index[candle.Timestamp] = len(filtered)
		filtered = append(filtered, candle)
	}
	return filtered
}

// FilterOutliers drops candles whose open moved more than maxPercentChange
// from the close of the last kept candle
func (f *DefaultDataFilter) FilterOutliers(data []types.OHLCV, maxPercentChange float64) []types.OHLCV {
	if len(data) <= 1 || maxPercentChange <= 0 {
		return data
	}

	limit := decimal.NewFromFloat(maxPercentChange)
	hundred := decimal.NewFromInt(100)
	filtered := []types.OHLCV{data[0]}
	for i := 1; i < len(data); i++ {
		prevClose := filtered[len(filtered)-1].Close
		open := data[i].Open
		if !prevClose.Valid || !open.Valid || prevClose.Decimal.IsZero() {
			filtered = append(filtered, data[i])
			continue
		}
		change := open.Decimal.Sub(prevClose.Decimal).Div(prevClose.Decimal).Mul(hundred)
		if change.Abs().LessThanOrEqual(limit) {
			filtered = append(filtered, data[i])
		}
	}
	return filtered
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
