package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const minute = int64(60_000)

// 2024-01-01T00:00:00Z
const t0 = int64(1704067200000)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func candle(ts int64, price string) types.OHLCV {
	return types.OHLCV{Timestamp: ts, Open: nd(price), High: nd(price), Low: nd(price), Close: nd(price), Volume: nd("1")}
}

type fakeSource struct {
	candles []types.OHLCV
	calls   []int64
}

func (f *fakeSource) ID() string { return "fake" }

func (f *fakeSource) FetchOHLCV(_ context.Context, _, _ string, since int64, limit int, _ exchange.Params) ([]types.OHLCV, error) {
	f.calls = append(f.calls, since)
	var out []types.OHLCV
	for _, c := range f.candles {
		if c.Timestamp >= since && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func series(n int) []types.OHLCV {
	out := make([]types.OHLCV, n)
	for i := range out {
		out[i] = candle(t0+int64(i)*minute, "100")
	}
	return out
}

func TestDownloader_Pages(t *testing.T) {
	src := &fakeSource{candles: series(10)}

	got, err := NewDownloader(src, 4).Download(context.Background(), "BTC/EUR", "1m", t0, t0+8*minute)
	require.NoError(t, err)

	require.Len(t, got, 8)
	assert.Equal(t, t0, got[0].Timestamp)
	assert.Equal(t, t0+7*minute, got[7].Timestamp)
	assert.Equal(t, []int64{t0, t0 + 3*minute + 1, t0 + 7*minute + 1}, src.calls)
}

func TestDownloader_ReportsPages(t *testing.T) {
	src := &fakeSource{candles: series(5)}
	var pages [][3]int64

	_, err := NewDownloader(src, 2).
		WithProgress(func(page, count int, last int64) {
			pages = append(pages, [3]int64{int64(page), int64(count), last})
		}).
		Download(context.Background(), "BTC/EUR", "1m", t0, t0+100*minute)
	require.NoError(t, err)

	assert.Equal(t, [][3]int64{
		{1, 2, t0 + minute},
		{2, 2, t0 + 3*minute},
		{3, 1, t0 + 4*minute},
	}, pages)
}

func TestDownloader_StopsOnEmptyPage(t *testing.T) {
	src := &fakeSource{candles: series(3)}

	got, err := NewDownloader(src, 2).Download(context.Background(), "BTC/EUR", "1m", t0, t0+100*minute)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Len(t, src.calls, 3)
}

func TestDownloader_RejectsEmptyRange(t *testing.T) {
	_, err := NewDownloader(&fakeSource{}, 0).Download(context.Background(), "BTC/EUR", "1m", t0, t0)
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	f := NewDefaultDataFilter()
	data := []types.OHLCV{candle(t0+2*minute, "3"), candle(t0, "1"), candle(t0+minute, "2"), candle(t0, "1.5")}

	t.Run("sort is stable and copies", func(t *testing.T) {
		sorted := f.SortByTimestamp(data)
		assert.Equal(t, t0+2*minute, data[0].Timestamp)
		assert.Equal(t, "1", sorted[0].Close.Decimal.String())
		assert.Equal(t, "1.5", sorted[1].Close.Decimal.String())
	})

	t.Run("duplicates keep last", func(t *testing.T) {
		deduped := f.RemoveDuplicates(f.SortByTimestamp(data))
		require.Len(t, deduped, 3)
		assert.Equal(t, "1.5", deduped[0].Close.Decimal.String())
		assert.NoError(t, f.ValidateTimeSequence(deduped))
	})

	t.Run("sequence errors", func(t *testing.T) {
		assert.ErrorContains(t, f.ValidateTimeSequence(data), "chronological")
		assert.ErrorContains(t, f.ValidateTimeSequence(f.SortByTimestamp(data)), "duplicate")
	})

	t.Run("date range is half open", func(t *testing.T) {
		got := f.FilterByDateRange(series(5), t0+minute, t0+3*minute)
		require.Len(t, got, 2)
		assert.Equal(t, t0+minute, got[0].Timestamp)
		assert.Len(t, f.FilterByDateRange(series(5), 0, 0), 5)
	})

	t.Run("period", func(t *testing.T) {
		got := f.FilterByPeriod(series(10), 2*time.Minute)
		assert.Len(t, got, 3)
	})

	t.Run("outliers", func(t *testing.T) {
		in := []types.OHLCV{candle(t0, "100"), candle(t0+minute, "150"), candle(t0+2*minute, "101")}
		got := f.FilterOutliers(in, 10)
		require.Len(t, got, 2)
		assert.Equal(t, t0+2*minute, got[1].Timestamp)
	})
}

func TestFileLocator(t *testing.T) {
	l := NewDefaultFileLocator()

	tests := []struct {
		interval string
		want     string
	}{
		{"1m", "1"},
		{"15m", "15"},
		{"4h", "240"},
		{"1d", "1440"},
		{"1w", "10080"},
		{"60", "60"},
		{"1M", "1M"},
	}
	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			assert.Equal(t, tt.want, l.ConvertIntervalToMinutes(tt.interval))
		})
	}

	root := t.TempDir()
	path := l.DataPath(root, "Coinmetro", "btc/eur", "1h")
	assert.Equal(t, filepath.Join(root, "coinmetro", "BTC-EUR", "60", "candles.csv"), path)
	assert.Empty(t, l.FindDataFile(root, "coinmetro", "BTC/EUR", "1h"))

	require.NoError(t, SaveCSV(series(1), path))
	assert.Equal(t, path, l.FindDataFile(root, "coinmetro", "BTC/EUR", "1h"))
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "candles.csv")
	in := []types.OHLCV{
		candle(t0, "42000.5"),
		{Timestamp: t0 + minute, Open: nd("1"), High: nd("2"), Low: nd("0.5"), Close: nd("1.5")},
	}
	require.NoError(t, SaveCSV(in, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "timestamp,open,high,low,close,volume\n2024-01-01 00:00:00,42000.5,")

	out, err := NewCSVProvider().LoadData(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, t0, out[0].Timestamp)
	assert.True(t, out[0].Open.Decimal.Equal(decimal.RequireFromString("42000.5")))
	assert.False(t, out[1].Volume.Valid)
	assert.NoError(t, NewCSVProvider().ValidateData(out))
}

func TestCSVProvider_SkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	content := "timestamp,open,high,low,close,volume\n" +
		"2024-01-01 00:00:00,1,2,0.5,1.5,10\n" +
		"not a date,1,2,0.5,1.5,10\n" +
		"2024-01-01 00:02:00,1,2\n" +
		"2024-01-01 00:03:00,x,2,0.5,1.5,10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := NewCSVProviderWithFormat(CSVColumnMapping{
		TimestampCol: 0, OpenCol: 1, HighCol: 2, LowCol: 3, CloseCol: 4, VolumeCol: 5,
		MinColumns: 6, DateFormat: DefaultCSVFormat.DateFormat,
	}).LoadData(path)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestValidateData(t *testing.T) {
	p := NewCSVProvider()
	assert.Error(t, p.ValidateData(nil))

	bad := candle(t0, "10")
	bad.Low = nd("11")
	assert.ErrorContains(t, p.ValidateData([]types.OHLCV{bad}), "high")

	assert.ErrorContains(t, p.ValidateData([]types.OHLCV{candle(t0+minute, "1"), candle(t0, "1")}), "chronological")
}

func TestCachedProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, SaveCSV(series(3), path))

	p := NewCachedProvider(NewCSVProvider())
	assert.Equal(t, "Cached CSV Provider", p.GetName())

	first, err := p.LoadData(path)
	require.NoError(t, err)
	require.NoError(t, SaveCSV(series(5), path))

	cached, err := p.LoadData(path)
	require.NoError(t, err)
	assert.Len(t, cached, len(first))
	assert.Equal(t, 1, p.GetCacheSize())

	p.Invalidate(path)
	fresh, err := p.LoadData(path)
	require.NoError(t, err)
	assert.Len(t, fresh, 5)
}

func TestMemoryCache_CopiesData(t *testing.T) {
	c := NewMemoryCache(0)
	in := series(2)
	c.Set("k", in)
	in[0].Timestamp = 0

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, t0, got[0].Timestamp)

	got[1].Timestamp = 0
	again, _ := c.Get("k")
	assert.Equal(t, t0+minute, again[1].Timestamp)

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	c := NewMemoryCache(2)
	c.Set("a", series(1))
	c.Set("b", series(1))
	c.Set("a", series(2))
	c.Set("c", series(1))

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Delete("b")
	c.Set("d", series(1))
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestDataManager_Update(t *testing.T) {
	root := t.TempDir()
	dm := NewDataManager(root)
	src := &fakeSource{candles: series(6)}
	pages := 0
	dm.WithProgress(func(int, int, int64) { pages++ })

	res, err := dm.Update(context.Background(), src, "BTC/EUR", "1m", t0, t0+4*minute, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Downloaded)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, t0, res.First)
	assert.Equal(t, t0+3*minute, res.Last)
	assert.Equal(t, 2, pages)

	src.calls = nil
	res, err = dm.Update(context.Background(), src, "BTC/EUR", "1m", t0, t0+10*minute, 3)
	require.NoError(t, err)
	assert.Equal(t, t0+3*minute+1, src.calls[0])
	assert.Equal(t, 2, res.Downloaded)
	assert.Equal(t, 6, res.Total)

	stored, err := dm.Load("fake", "BTC/EUR", "1m")
	require.NoError(t, err)
	assert.Len(t, stored, 6)
	assert.NoError(t, NewDefaultDataFilter().ValidateTimeSequence(stored))
}

func TestDataManager_UpdateNeedsStart(t *testing.T) {
	dm := NewDataManager(t.TempDir())

	_, err := dm.Update(context.Background(), &fakeSource{}, "BTC/EUR", "1m", 0, 0, 10)
	assert.Error(t, err)

	_, err = dm.Update(context.Background(), &fakeSource{}, "BTC/EUR", "bogus", t0, 0, 10)
	assert.Error(t, err)

	_, err = dm.Load("fake", "ETH/EUR", "1m")
	assert.Error(t, err)
}

func TestParseTrailingPeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"30days", 30 * 24 * time.Hour, true},
		{"168h", 168 * time.Hour, true},
		{"d", 0, false},
		{"-3d", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTrailingPeriod(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
