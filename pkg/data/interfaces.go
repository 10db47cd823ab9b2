package data

import (
	"context"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// CandleSource is the part of an exchange adapter the downloader needs
type CandleSource interface {
	ID() string
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]types.OHLCV, error)
}

// DataProvider interface for loading stored candles
type DataProvider interface {
	// LoadData loads candles from the specified source
	LoadData(source string) ([]types.OHLCV, error)

	// ValidateData validates the integrity of the loaded data
	ValidateData(data []types.OHLCV) error

	// GetName returns the name of the data provider
	GetName() string
}

// DataCache interface for caching loaded data
type DataCache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, data []types.OHLCV)
	Delete(key string)
	Clear()
	Size() int
}

// DataFilter interface for filtering and transforming data
type DataFilter interface {
	// FilterByDateRange keeps candles with start <= timestamp < end; zero
	// bounds are open
	FilterByDateRange(data []types.OHLCV, start, end int64) []types.OHLCV

	// ValidateTimeSequence ensures data is strictly chronological
	ValidateTimeSequence(data []types.OHLCV) error

	SortByTimestamp(data []types.OHLCV) []types.OHLCV
	RemoveDuplicates(data []types.OHLCV) []types.OHLCV
}

// FileLocator interface for finding data files
type FileLocator interface {
	// DataPath is where candles of one market and timeframe are stored
	DataPath(dataRoot, exchange, symbol, timeframe string) string

	// FindDataFile returns DataPath when the file exists, empty otherwise
	FindDataFile(dataRoot, exchange, symbol, timeframe string) string

	// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers
	ConvertIntervalToMinutes(interval string) string
}

// CSVColumnMapping defines the column positions of a candle file
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat is the layout SaveCSV writes
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

var (
	_ DataProvider = (*CSVProvider)(nil)
	_ DataProvider = (*CachedProvider)(nil)
	_ DataCache    = (*MemoryCache)(nil)
	_ DataFilter   = (*DefaultDataFilter)(nil)
	_ FileLocator  = (*DefaultFileLocator)(nil)
)
