package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// Exchange is the unified surface every adapter exposes. since and limit
// are optional: zero means "not set". Every method takes a params bag for
// exchange-specific overrides.
type Exchange interface {
	ID() string
	Describe() Describe
	Has(capability Capability) bool
	Timeframes() map[string]string
	LoadMarkets(ctx context.Context, reload bool) (*Markets, error)

	// Public data
	FetchTime(ctx context.Context, params Params) (int64, error)
	FetchStatus(ctx context.Context, params Params) (*types.ExchangeStatus, error)
	FetchMarkets(ctx context.Context, params Params) ([]types.Market, error)
	FetchCurrencies(ctx context.Context, params Params) ([]types.Currency, error)
	FetchTicker(ctx context.Context, symbol string, params Params) (*types.Ticker, error)
	FetchTickers(ctx context.Context, symbols []string, params Params) (map[string]types.Ticker, error)
	FetchBidsAsks(ctx context.Context, symbols []string, params Params) (map[string]types.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int, params Params) (*types.OrderBook, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params Params) ([]types.OHLCV, error)
	FetchTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Trade, error)

	// Trading
	CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params Params) (*types.Order, error)
	CancelOrder(ctx context.Context, id, symbol string, params Params) (*types.Order, error)
	CancelAllOrders(ctx context.Context, symbol string, params Params) ([]types.Order, error)
	ClosePosition(ctx context.Context, symbol, side string, params Params) (*types.Order, error)
	FetchOrder(ctx context.Context, id, symbol string, params Params) (*types.Order, error)
	FetchOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error)
	FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error)
	FetchCanceledAndClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error)
	FetchOrderTrades(ctx context.Context, id, symbol string, since int64, limit int, params Params) ([]types.Trade, error)
	FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Trade, error)

	// Account
	FetchBalance(ctx context.Context, params Params) (*types.Balances, error)
	FetchDeposits(ctx context.Context, code string, since int64, limit int, params Params) ([]types.Transaction, error)
	FetchWithdrawals(ctx context.Context, code string, since int64, limit int, params Params) ([]types.Transaction, error)
	FetchDepositAddress(ctx context.Context, code string, params Params) (*types.DepositAddress, error)
	FetchLedger(ctx context.Context, code string, since int64, limit int, params Params) ([]types.LedgerEntry, error)
}

var _ Exchange = (*Client)(nil)

// NotSupportedError reports an operation the adapter does not implement
func (c *Client) NotSupportedError(method string) error {
	return Errorf(NotSupported, c.desc.ID, "%s() is not supported yet", method)
}

// The methods below are the defaults adapters override.

func (c *Client) FetchTime(ctx context.Context, params Params) (int64, error) {
	return 0, c.NotSupportedError("fetchTime")
}

func (c *Client) FetchStatus(ctx context.Context, params Params) (*types.ExchangeStatus, error) {
	return nil, c.NotSupportedError("fetchStatus")
}

func (c *Client) FetchMarkets(ctx context.Context, params Params) ([]types.Market, error) {
	return nil, c.NotSupportedError("fetchMarkets")
}

func (c *Client) FetchCurrencies(ctx context.Context, params Params) ([]types.Currency, error) {
	return nil, c.NotSupportedError("fetchCurrencies")
}

func (c *Client) FetchTicker(ctx context.Context, symbol string, params Params) (*types.Ticker, error) {
	return nil, c.NotSupportedError("fetchTicker")
}

func (c *Client) FetchTickers(ctx context.Context, symbols []string, params Params) (map[string]types.Ticker, error) {
	return nil, c.NotSupportedError("fetchTickers")
}

func (c *Client) FetchBidsAsks(ctx context.Context, symbols []string, params Params) (map[string]types.Ticker, error) {
	return nil, c.NotSupportedError("fetchBidsAsks")
}

func (c *Client) FetchOrderBook(ctx context.Context, symbol string, limit int, params Params) (*types.OrderBook, error) {
	return nil, c.NotSupportedError("fetchOrderBook")
}

func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params Params) ([]types.OHLCV, error) {
	return nil, c.NotSupportedError("fetchOHLCV")
}

func (c *Client) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Trade, error) {
	return nil, c.NotSupportedError("fetchTrades")
}

func (c *Client) CreateOrder(ctx context.Context, symbol, orderType, side string, amount decimal.Decimal, price decimal.NullDecimal, params Params) (*types.Order, error) {
	return nil, c.NotSupportedError("createOrder")
}

func (c *Client) CancelOrder(ctx context.Context, id, symbol string, params Params) (*types.Order, error) {
	return nil, c.NotSupportedError("cancelOrder")
}

func (c *Client) CancelAllOrders(ctx context.Context, symbol string, params Params) ([]types.Order, error) {
	return nil, c.NotSupportedError("cancelAllOrders")
}

func (c *Client) ClosePosition(ctx context.Context, symbol, side string, params Params) (*types.Order, error) {
	return nil, c.NotSupportedError("closePosition")
}

func (c *Client) FetchOrder(ctx context.Context, id, symbol string, params Params) (*types.Order, error) {
	return nil, c.NotSupportedError("fetchOrder")
}

func (c *Client) FetchOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error) {
	return nil, c.NotSupportedError("fetchOrders")
}

func (c *Client) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error) {
	return nil, c.NotSupportedError("fetchOpenOrders")
}

func (c *Client) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error) {
	return nil, c.NotSupportedError("fetchClosedOrders")
}

func (c *Client) FetchCanceledAndClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Order, error) {
	return nil, c.NotSupportedError("fetchCanceledAndClosedOrders")
}

func (c *Client) FetchOrderTrades(ctx context.Context, id, symbol string, since int64, limit int, params Params) ([]types.Trade, error) {
	return nil, c.NotSupportedError("fetchOrderTrades")
}

func (c *Client) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]types.Trade, error) {
	return nil, c.NotSupportedError("fetchMyTrades")
}

func (c *Client) FetchBalance(ctx context.Context, params Params) (*types.Balances, error) {
	return nil, c.NotSupportedError("fetchBalance")
}

func (c *Client) FetchDeposits(ctx context.Context, code string, since int64, limit int, params Params) ([]types.Transaction, error) {
	return nil, c.NotSupportedError("fetchDeposits")
}

func (c *Client) FetchWithdrawals(ctx context.Context, code string, since int64, limit int, params Params) ([]types.Transaction, error) {
	return nil, c.NotSupportedError("fetchWithdrawals")
}

func (c *Client) FetchDepositAddress(ctx context.Context, code string, params Params) (*types.DepositAddress, error) {
	return nil, c.NotSupportedError("fetchDepositAddress")
}

func (c *Client) FetchLedger(ctx context.Context, code string, since int64, limit int, params Params) ([]types.LedgerEntry, error) {
	return nil, c.NotSupportedError("fetchLedger")
}
