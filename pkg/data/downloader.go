package data

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const defaultPageLimit = 500

// PageFunc is told about every page a Downloader receives
type PageFunc func(page, count int, last int64)

// Downloader pages candles out of an exchange adapter
type Downloader struct {
	source    CandleSource
	pageLimit int
	pause     time.Duration
	onPage    PageFunc
	log       *logrus.Entry
}

// NewDownloader creates a downloader fetching pageLimit candles per request.
// A non-positive limit selects 500.
func NewDownloader(source CandleSource, pageLimit int) *Downloader {
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	return &Downloader{
		source:    source,
		pageLimit: pageLimit,
		log:       logger.WithComponent("downloader").WithField("exchange", source.ID()),
	}
}

// WithPause sleeps between pages on top of the adapter's own throttling
func (d *Downloader) WithPause(pause time.Duration) *Downloader {
	d.pause = pause
	return d
}

// WithProgress registers fn to run after each non-empty page
func (d *Downloader) WithProgress(fn PageFunc) *Downloader {
	d.onPage = fn
	return d
}

// Download fetches candles with start <= timestamp < end. A zero end means
// now. Paging continues from the last candle until a page is empty, makes
// no progress, or passes end.
func (d *Downloader) Download(ctx context.Context, symbol, timeframe string, start, end int64) ([]types.OHLCV, error) {
	if end <= 0 {
		end = time.Now().UnixMilli()
	}
	if start >= end {
		return nil, fmt.Errorf("start %s is not before end %s", formatMs(start), formatMs(end))
	}

	var all []types.OHLCV
	cursor := start
	for page := 1; cursor < end; page++ {
		candles, err := d.source.FetchOHLCV(ctx, symbol, timeframe, cursor, d.pageLimit, nil)
		if err != nil {
			return all, fmt.Errorf("page %d from %s: %w", page, formatMs(cursor), err)
		}
		if len(candles) == 0 {
			break
		}

		last := cursor - 1
		for _, c := range candles {
			if c.Timestamp >= start && c.Timestamp < end {
				all = append(all, c)
			}
			if c.Timestamp > last {
				last = c.Timestamp
			}
		}
		d.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"page":   page,
			"count":  len(candles),
		}).Debugf("downloaded candles up to %s", formatMs(last))
		if d.onPage != nil {
			d.onPage(page, len(candles), last)
		}

		if last < cursor {
			break
		}
		cursor = last + 1

		if d.pause > 0 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(d.pause):
			}
		}
	}

	return all, nil
}
