package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// fakeExchange implements the few methods the tests reach; anything else
// panics through the nil embedded interface
type fakeExchange struct {
	exchange.Exchange
	has     map[exchange.Capability]bool
	ticker  types.Ticker
	candles []types.OHLCV
	calls   int
}

func (f *fakeExchange) ID() string { return "fake" }

func (f *fakeExchange) Has(c exchange.Capability) bool { return f.has[c] }

func (f *fakeExchange) FetchTicker(ctx context.Context, symbol string, params exchange.Params) (*types.Ticker, error) {
	f.calls++
	t := f.ticker
	t.Symbol = symbol
	return &t, nil
}

func (f *fakeExchange) FetchTime(ctx context.Context, params exchange.Params) (int64, error) {
	f.calls++
	return 1700000000000, nil
}

func (f *fakeExchange) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]types.OHLCV, error) {
	f.calls++
	var out []types.OHLCV
	for _, c := range f.candles {
		if c.Timestamp >= since && (limit == 0 || len(out) < limit) {
			out = append(out, c)
		}
	}
	return out, nil
}

func parse(t *testing.T, args ...string) *options {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts, err := parseOptions(fs, args)
	require.NoError(t, err)
	return opts
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "markets by default", args: []string{"-exchange", "bitbns"}},
		{name: "ohlcv with symbol", args: []string{"-exchange", "coinmetro", "-op", "ohlcv", "-symbol", "BTC/EUR", "-since", "2d"}},
		{name: "version skips checks", args: []string{"-version"}},
		{name: "missing exchange", args: []string{"-op", "status"}, wantErr: "exchange is required"},
		{name: "unknown op", args: []string{"-exchange", "alpaca", "-op", "withdraw"}, wantErr: "op must be one of"},
		{name: "symbol required", args: []string{"-exchange", "alpaca", "-op", "orderbook"}, wantErr: "symbol is required for orderbook"},
		{name: "bad format", args: []string{"-exchange", "alpaca", "-format", "yaml"}, wantErr: "format must be one of"},
		{name: "bad since", args: []string{"-exchange", "alpaca", "-since", "soon"}, wantErr: "invalid since"},
		{name: "history", args: []string{"-exchange", "coinmetro", "-op", "history", "-symbol", "BTC/EUR", "-since", "2024-01-01", "-until", "2024-01-02"}},
		{name: "bad until", args: []string{"-exchange", "alpaca", "-until", "later"}, wantErr: "invalid since"},
		{name: "negative limit", args: []string{"-exchange", "alpaca", "-limit", "-5"}, wantErr: "limit must be between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parse(t, tt.args...).validate()
			if tt.wantErr == "" {
				assert.False(t, v.HasErrors(), "%v", v.GetErrors())
				return
			}
			require.True(t, v.HasErrors())
			assert.Contains(t, strings.Join(v.GetErrors(), "\n"), tt.wantErr)
		})
	}
}

func TestOperationNames(t *testing.T) {
	names := operationNames()
	assert.Contains(t, names, "capabilities")
	assert.Contains(t, names, "ohlcv")
	assert.IsIncreasing(t, names)
}

func TestRequestSymbols(t *testing.T) {
	assert.Nil(t, request{}.symbols())
	assert.Equal(t, []string{"BTC/EUR", "ETH/EUR"}, request{symbol: "BTC/EUR, ,ETH/EUR"}.symbols())
}

func TestRunOperation(t *testing.T) {
	ex := &fakeExchange{
		has: map[exchange.Capability]bool{
			exchange.CapFetchTicker: true,
			exchange.CapFetchTime:   true,
		},
		ticker: types.Ticker{Last: decimal.NewNullDecimal(decimal.RequireFromString("42000.5"))},
	}
	ctx := context.Background()

	res, err := runOperation(ctx, ex, "ticker", request{symbol: "BTC/EUR"})
	require.NoError(t, err)
	require.Len(t, res.table.Rows, 1)
	assert.Equal(t, "BTC/EUR", res.table.Rows[0][0])
	assert.Equal(t, "42000.5", res.table.Rows[0][4])

	res, err = runOperation(ctx, ex, "time", request{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"time": 1700000000000}, res.raw)
	assert.Equal(t, []string{"Server time", "2023-11-14T22:13:20Z"}, res.table.Rows[1])

	_, err = runOperation(ctx, ex, "balance", request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.NotSupported))
	assert.Equal(t, 2, ex.calls, "unsupported operations make no call")

	_, err = runOperation(ctx, ex, "nope", request{})
	assert.EqualError(t, err, `unknown operation "nope"`)
}

func TestRunOperation_History(t *testing.T) {
	const start = int64(1704067200000)
	one := decimal.NewNullDecimal(decimal.NewFromInt(1))
	ex := &fakeExchange{has: map[exchange.Capability]bool{exchange.CapFetchOHLCV: true}}
	for i := int64(0); i < 5; i++ {
		ex.candles = append(ex.candles, types.OHLCV{Timestamp: start + i*60000, Open: one, High: one, Low: one, Close: one, Volume: one})
	}
	root := t.TempDir()

	res, err := runOperation(context.Background(), ex, "history", request{
		symbol:    "BTC/EUR",
		timeframe: "1m",
		since:     start,
		until:     start + 3*60000,
		limit:     2,
		dataRoot:  root,
	})
	require.NoError(t, err)
	assert.Equal(t, "HISTORY BTC/EUR 1m", res.table.Title)
	assert.Equal(t, []string{"File", filepath.Join(root, "fake", "BTC-EUR", "1", "candles.csv")}, res.table.Rows[0])
	assert.Equal(t, []string{"Stored", "3"}, res.table.Rows[2])
	assert.Equal(t, []string{"First", "2024-01-01T00:00:00Z"}, res.table.Rows[3])
	assert.Equal(t, "Elapsed", res.table.Rows[5][0])
}

func TestRun_Capabilities(t *testing.T) {
	dir := t.TempDir()
	opts := parse(t,
		"-exchange", "coinmetro",
		"-op", "capabilities",
		"-env", filepath.Join(dir, "none.env"),
		"-config", filepath.Join(dir, "none.yaml"),
	)

	var out bytes.Buffer
	err := run(context.Background(), opts, &out)
	require.Error(t, err, "a named config file must exist")

	opts = parse(t,
		"-exchange", "coinmetro",
		"-op", "capabilities",
		"-format", "json",
		"-env", filepath.Join(dir, "none.env"),
	)
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), `"id": "coinmetro"`)
	assert.Contains(t, out.String(), `"sandbox_mode": true`)
}

func TestRun_UnsupportedExchange(t *testing.T) {
	opts := parse(t, "-exchange", "kraken", "-op", "status", "-env", filepath.Join(t.TempDir(), "none.env"))
	err := run(context.Background(), opts, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, exchange.NotSupported))
}
