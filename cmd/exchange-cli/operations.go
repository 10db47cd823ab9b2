package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/cmd/common"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/adapters"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/data"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/reporting"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

type request struct {
	symbol    string
	code      string
	timeframe string
	since     int64
	until     int64
	limit     int
	dataRoot  string
}

// symbols splits a comma separated -symbol value; empty means all
func (r request) symbols() []string {
	if strings.TrimSpace(r.symbol) == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(r.symbol, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type result struct {
	table reporting.Table
	raw   interface{}
}

type operation struct {
	capability  exchange.Capability
	needsSymbol bool
	run         func(ctx context.Context, ex exchange.Exchange, req request) (result, error)
}

var operations = map[string]operation{
	"history": {
		capability:  exchange.CapFetchOHLCV,
		needsSymbol: true,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			started := time.Now()
			dm := data.NewDataManager(req.dataRoot).WithProgress(func(page, count int, last int64) {
				common.Progress("page %d: %d candles up to %s", page, count, formatMs(last))
			})
			res, err := dm.Update(ctx, ex, req.symbol, req.timeframe, req.since, req.until, req.limit)
			if err != nil {
				return result{}, err
			}
			t := reporting.KeyValueTable("HISTORY "+req.symbol+" "+req.timeframe, [][2]string{
				{"File", res.Path},
				{"Downloaded", strconv.Itoa(res.Downloaded)},
				{"Stored", strconv.Itoa(res.Total)},
				{"First", formatMs(res.First)},
				{"Last", formatMs(res.Last)},
				{"Elapsed", common.FormatDuration(time.Since(started))},
			})
			return result{t, res}, nil
		},
	},
	"markets": {
		capability: exchange.CapFetchMarkets,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			markets, err := ex.LoadMarkets(ctx, false)
			if err != nil {
				return result{}, err
			}
			all := markets.All()
			return result{reporting.MarketsTable(all), all}, nil
		},
	},
	"currencies": {
		capability: exchange.CapFetchMarkets,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			markets, err := ex.LoadMarkets(ctx, false)
			if err != nil {
				return result{}, err
			}
			currencies := markets.Currencies()
			return result{reporting.CurrenciesTable(currencies), currencies}, nil
		},
	},
	"ticker": {
		capability:  exchange.CapFetchTicker,
		needsSymbol: true,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			ticker, err := ex.FetchTicker(ctx, req.symbol, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TickersTable(map[string]types.Ticker{ticker.Symbol: *ticker}), ticker}, nil
		},
	},
	"tickers": {
		capability: exchange.CapFetchTickers,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			tickers, err := ex.FetchTickers(ctx, req.symbols(), nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TickersTable(tickers), tickers}, nil
		},
	},
	"bids-asks": {
		capability: exchange.CapFetchBidsAsks,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			tickers, err := ex.FetchBidsAsks(ctx, req.symbols(), nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TickersTable(tickers), tickers}, nil
		},
	},
	"orderbook": {
		capability:  exchange.CapFetchOrderBook,
		needsSymbol: true,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			book, err := ex.FetchOrderBook(ctx, req.symbol, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.OrderBookTable(*book), book}, nil
		},
	},
	"ohlcv": {
		capability:  exchange.CapFetchOHLCV,
		needsSymbol: true,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			candles, err := ex.FetchOHLCV(ctx, req.symbol, req.timeframe, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.OHLCVTable(req.symbol, req.timeframe, candles), candles}, nil
		},
	},
	"trades": {
		capability:  exchange.CapFetchTrades,
		needsSymbol: true,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			trades, err := ex.FetchTrades(ctx, req.symbol, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TradesTable(trades), trades}, nil
		},
	},
	"my-trades": {
		capability: exchange.CapFetchMyTrades,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			trades, err := ex.FetchMyTrades(ctx, req.symbol, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TradesTable(trades), trades}, nil
		},
	},
	"balance": {
		capability: exchange.CapFetchBalance,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			balance, err := ex.FetchBalance(ctx, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.BalanceTable(*balance), balance}, nil
		},
	},
	"open-orders": {
		capability: exchange.CapFetchOpenOrders,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			orders, err := ex.FetchOpenOrders(ctx, req.symbol, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.OrdersTable(orders), orders}, nil
		},
	},
	"closed-orders": {
		capability: exchange.CapFetchClosedOrders,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			orders, err := ex.FetchClosedOrders(ctx, req.symbol, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.OrdersTable(orders), orders}, nil
		},
	},
	"deposits": {
		capability: exchange.CapFetchDeposits,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			txs, err := ex.FetchDeposits(ctx, req.code, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TransactionsTable(txs), txs}, nil
		},
	},
	"withdrawals": {
		capability: exchange.CapFetchWithdrawals,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			txs, err := ex.FetchWithdrawals(ctx, req.code, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.TransactionsTable(txs), txs}, nil
		},
	},
	"ledger": {
		capability: exchange.CapFetchLedger,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			entries, err := ex.FetchLedger(ctx, req.code, req.since, req.limit, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.LedgerTable(entries), entries}, nil
		},
	},
	"status": {
		capability: exchange.CapFetchStatus,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			status, err := ex.FetchStatus(ctx, nil)
			if err != nil {
				return result{}, err
			}
			return result{reporting.StatusTable(ex.ID(), *status), status}, nil
		},
	},
	"time": {
		capability: exchange.CapFetchTime,
		run: func(ctx context.Context, ex exchange.Exchange, req request) (result, error) {
			ms, err := ex.FetchTime(ctx, nil)
			if err != nil {
				return result{}, err
			}
			server := time.UnixMilli(ms).UTC()
			t := reporting.KeyValueTable("TIME", [][2]string{
				{"Exchange", ex.ID()},
				{"Server time", server.Format(time.RFC3339Nano)},
				{"Milliseconds", strconv.FormatInt(ms, 10)},
				{"Local offset", time.Since(server).Round(time.Millisecond).String()},
			})
			return result{t, map[string]int64{"time": ms}}, nil
		},
	},
}

// operationNames lists every -op value in sorted order
func operationNames() []string {
	names := make([]string, 0, len(operations)+1)
	for name := range operations {
		names = append(names, name)
	}
	names = append(names, "capabilities")
	sort.Strings(names)
	return names
}

// runOperation checks the adapter's capability map before calling it, so an
// unsupported operation fails without a request
func runOperation(ctx context.Context, ex exchange.Exchange, name string, req request) (result, error) {
	op, ok := operations[name]
	if !ok {
		return result{}, fmt.Errorf("unknown operation %q", name)
	}
	if !ex.Has(op.capability) {
		return result{}, exchange.Errorf(exchange.NotSupported, ex.ID(), "%s() is not supported yet", op.capability)
	}
	return op.run(ctx, ex, req)
}

func capabilities(factory *adapters.Factory, name string) (result, error) {
	caps, err := factory.GetExchangeCapabilities(name)
	if err != nil {
		return result{}, err
	}
	t := reporting.KeyValueTable("CAPABILITIES", [][2]string{
		{"ID", caps.ID},
		{"Name", caps.Name},
		{"Countries", strings.Join(caps.Countries, ", ")},
		{"Version", caps.Version},
		{"Rate limit", fmt.Sprintf("%gms", caps.RateLimitMs)},
		{"Sandbox", strconv.FormatBool(caps.SandboxMode)},
		{"Credentials", strings.Join(caps.RequiredCredentials, ", ")},
		{"Timeframes", strings.Join(caps.Timeframes, ", ")},
		{"Operations", strings.Join(caps.Operations, ", ")},
	})
	return result{t, caps}, nil
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
