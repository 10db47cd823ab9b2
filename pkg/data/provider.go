package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// DataManager combines all data operations in a convenient interface
type DataManager struct {
	provider *CachedProvider
	filter   *DefaultDataFilter
	locator  FileLocator
	dataRoot string
	onPage   PageFunc
}

// NewDataManager creates a data manager storing files under dataRoot
func NewDataManager(dataRoot string) *DataManager {
	if dataRoot == "" {
		dataRoot = "data"
	}
	return &DataManager{
		provider: NewCachedProvider(NewCSVProvider()),
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
		dataRoot: dataRoot,
	}
}

// WithProgress reports every downloaded page of later Update calls to fn
func (dm *DataManager) WithProgress(fn PageFunc) *DataManager {
	dm.onPage = fn
	return dm
}

// UpdateResult describes one Update call
type UpdateResult struct {
	Path       string
	Downloaded int
	Total      int
	First      int64
	Last       int64
}

// Update downloads candles of symbol into its stored file. It resumes after
// the last stored candle when one exists, otherwise from since. The merged
// set is deduplicated, sorted and written back.
func (dm *DataManager) Update(ctx context.Context, source CandleSource, symbol, timeframe string, since, until int64, pageLimit int) (*UpdateResult, error) {
	if _, err := exchange.ParseTimeframe(timeframe); err != nil {
		return nil, err
	}

	path := dm.locator.DataPath(dm.dataRoot, source.ID(), symbol, timeframe)
	var existing []types.OHLCV
	if dm.locator.FindDataFile(dm.dataRoot, source.ID(), symbol, timeframe) != "" {
		loaded, err := dm.provider.LoadData(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		existing = dm.filter.SortByTimestamp(loaded)
	}

	start := since
	if n := len(existing); n > 0 && existing[n-1].Timestamp >= start {
		start = existing[n-1].Timestamp + 1
	}
	if start <= 0 {
		return nil, fmt.Errorf("no stored candles for %s %s and no start time given", symbol, timeframe)
	}

	fresh, err := NewDownloader(source, pageLimit).WithProgress(dm.onPage).Download(ctx, symbol, timeframe, start, until)
	if err != nil && len(fresh) == 0 {
		return nil, err
	}

	merged := dm.filter.RemoveDuplicates(dm.filter.SortByTimestamp(append(existing, fresh...)))
	if len(merged) == 0 {
		return &UpdateResult{Path: path}, err
	}
	if serr := SaveCSV(merged, path); serr != nil {
		return nil, serr
	}
	dm.provider.Invalidate(path)

	logger.WithComponent("data").WithField("exchange", source.ID()).
		Infof("stored %d candles of %s %s (%d new) in %s", len(merged), symbol, timeframe, len(fresh), path)

	return &UpdateResult{
		Path:       path,
		Downloaded: len(fresh),
		Total:      len(merged),
		First:      merged[0].Timestamp,
		Last:       merged[len(merged)-1].Timestamp,
	}, err
}

// Load returns the stored candles of symbol
func (dm *DataManager) Load(exchangeID, symbol, timeframe string) ([]types.OHLCV, error) {
	path := dm.locator.FindDataFile(dm.dataRoot, exchangeID, symbol, timeframe)
	if path == "" {
		return nil, fmt.Errorf("no stored candles for %s %s on %s", symbol, timeframe, exchangeID)
	}
	return dm.provider.LoadData(path)
}

// FilterDataByPeriod filters data by time period
func (dm *DataManager) FilterDataByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	return dm.filter.FilterByPeriod(data, period)
}

// ValidateData validates loaded data
func (dm *DataManager) ValidateData(data []types.OHLCV) error {
	return dm.provider.ValidateData(data)
}

// GetLocator returns the file locator
func (dm *DataManager) GetLocator() FileLocator {
	return dm.locator
}

// ParseTrailingPeriod parses period strings like "7d", "30d", "180d"
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "days") {
		s = strings.TrimSuffix(s, "days") + "d"
	}
	if strings.HasSuffix(s, "d") {
		nStr := strings.TrimSuffix(s, "d")
		if nStr == "" {
			return 0, false
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	// allow raw durations too (e.g., 168h)
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
