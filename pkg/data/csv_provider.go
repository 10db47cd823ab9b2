package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// CSVProvider implements DataProvider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{
		format: DefaultCSVFormat,
	}
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData reads candles from a CSV file. Timestamps are UTC; malformed
// rows are logged and skipped.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	log := logger.WithComponent("data").WithField("file", filepath.Base(source))
	format := p.format
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var data []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			log.Warnf("insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		ts, err := time.ParseInLocation(format.DateFormat, record[format.TimestampCol], time.UTC)
		if err != nil {
			log.Warnf("invalid timestamp %q at line %d, skipping", record[format.TimestampCol], lineNum)
			continue
		}

		candle := types.OHLCV{Timestamp: ts.UnixMilli()}
		fields := []struct {
			col int
			dst *decimal.NullDecimal
		}{
			{format.OpenCol, &candle.Open},
			{format.HighCol, &candle.High},
			{format.LowCol, &candle.Low},
			{format.CloseCol, &candle.Close},
			{format.VolumeCol, &candle.Volume},
		}
		valid := true
		for _, fld := range fields {
			if record[fld.col] == "" {
				continue
			}
			d, err := decimal.NewFromString(record[fld.col])
			if err != nil {
				log.Warnf("invalid number %q at line %d, skipping", record[fld.col], lineNum)
				valid = false
				break
			}
			*fld.dst = decimal.NewNullDecimal(d)
		}
		if valid {
			data = append(data, candle)
		}
	}

	return data, nil
}

// ValidateData checks price consistency and ordering of the candles
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	if len(data) == 0 {
		return fmt.Errorf("no data provided")
	}

	for i, c := range data {
		if c.High.Valid && c.Low.Valid && c.High.Decimal.LessThan(c.Low.Decimal) {
			return fmt.Errorf("invalid price data at index %d: high (%s) cannot be less than low (%s)",
				i, c.High.Decimal, c.Low.Decimal)
		}
		for _, v := range []decimal.NullDecimal{c.Open, c.Close} {
			if !v.Valid {
				continue
			}
			if c.High.Valid && v.Decimal.GreaterThan(c.High.Decimal) {
				return fmt.Errorf("invalid price data at index %d: %s is above high %s", i, v.Decimal, c.High.Decimal)
			}
			if c.Low.Valid && v.Decimal.LessThan(c.Low.Decimal) {
				return fmt.Errorf("invalid price data at index %d: %s is below low %s", i, v.Decimal, c.Low.Decimal)
			}
		}
		if i > 0 && c.Timestamp < data[i-1].Timestamp {
			return fmt.Errorf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i)
		}
	}

	return nil
}

// SaveCSV writes candles in the DefaultCSVFormat layout, replacing path
// atomically
func SaveCSV(candles []types.OHLCV, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".candles-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		tmp.Close()
		return err
	}
	for _, c := range candles {
		record := []string{
			time.UnixMilli(c.Timestamp).UTC().Format(DefaultCSVFormat.DateFormat),
			decString(c.Open),
			decString(c.High),
			decString(c.Low),
			decString(c.Close),
			decString(c.Volume),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func decString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
