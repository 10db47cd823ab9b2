package data

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFileLocator implements FileLocator for standard file system operations
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers.
// Month and unknown units are returned unchanged.
func (f *DefaultFileLocator) ConvertIntervalToMinutes(interval string) string {
	if _, err := strconv.Atoi(interval); err == nil {
		return interval
	}

	interval = strings.TrimSpace(interval)
	if len(interval) < 2 {
		return interval
	}

	numStr := interval[:len(interval)-1]
	unit := interval[len(interval)-1:]

	num, err := strconv.Atoi(numStr)
	if err != nil {
		return interval
	}

	switch unit {
	case "m":
		return strconv.Itoa(num)
	case "h":
		return strconv.Itoa(num * 60)
	case "d":
		return strconv.Itoa(num * 24 * 60)
	case "w":
		return strconv.Itoa(num * 7 * 24 * 60)
	default:
		return interval
	}
}

// DataPath builds {dataRoot}/{exchange}/{BASE-QUOTE}/{minutes}/candles.csv
func (f *DefaultFileLocator) DataPath(dataRoot, exchange, symbol, timeframe string) string {
	if dataRoot == "" {
		dataRoot = "data"
	}
	dir := strings.NewReplacer("/", "-", ":", "-").Replace(strings.ToUpper(strings.TrimSpace(symbol)))
	return filepath.Join(dataRoot, strings.ToLower(exchange), dir, f.ConvertIntervalToMinutes(timeframe), "candles.csv")
}

// FindDataFile returns the stored file of a market, or "" when there is none
func (f *DefaultFileLocator) FindDataFile(dataRoot, exchange, symbol, timeframe string) string {
	path := f.DataPath(dataRoot, exchange, symbol, timeframe)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
