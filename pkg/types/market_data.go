package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Market types
const (
	MarketTypeSpot   = "spot"
	MarketTypeSwap   = "swap"
	MarketTypeFuture = "future"
	MarketTypeOption = "option"
)

// Order sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Order types
const (
	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Unified order statuses. Adapters pass unknown native statuses through unchanged.
const (
	OrderStatusOpen     = "open"
	OrderStatusClosed   = "closed"
	OrderStatusCanceled = "canceled"
	OrderStatusExpired  = "expired"
	OrderStatusRejected = "rejected"
)

// Transaction statuses
const (
	TransactionStatusPending  = "pending"
	TransactionStatusOK       = "ok"
	TransactionStatusFailed   = "failed"
	TransactionStatusCanceled = "canceled"
)

// MinMax is an optional lower/upper bound pair.
type MinMax struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

// Limits groups the trading bounds of a market.
type Limits struct {
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
	Leverage MinMax `json:"leverage"`
}

// Precision holds tick sizes or decimal place counts depending on the
// exchange precision mode.
type Precision struct {
	Amount decimal.NullDecimal `json:"amount"`
	Price  decimal.NullDecimal `json:"price"`
	Cost   decimal.NullDecimal `json:"cost"`
	Base   decimal.NullDecimal `json:"base"`
	Quote  decimal.NullDecimal `json:"quote"`
}

// Market is the unified instrument record.
type Market struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Base     string `json:"base"`
	Quote    string `json:"quote"`
	Settle   string `json:"settle,omitempty"`
	BaseID   string `json:"baseId"`
	QuoteID  string `json:"quoteId"`
	SettleID string `json:"settleId,omitempty"`
	Type     string `json:"type"`
	Spot     bool   `json:"spot"`
	Margin   bool   `json:"margin"`
	Swap     bool   `json:"swap"`
	Future   bool   `json:"future"`
	Option   bool   `json:"option"`
	Contract bool   `json:"contract"`
	Active   *bool  `json:"active"`

	Taker decimal.NullDecimal `json:"taker"`
	Maker decimal.NullDecimal `json:"maker"`

	Precision Precision `json:"precision"`
	Limits    Limits    `json:"limits"`
	Created   int64     `json:"created,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// Network describes deposit and withdraw settings of one currency network.
type Network struct {
	ID       string              `json:"id"`
	Network  string              `json:"network"`
	Active   *bool               `json:"active"`
	Deposit  *bool               `json:"deposit"`
	Withdraw *bool               `json:"withdraw"`
	Fee      decimal.NullDecimal `json:"fee"`
	Limits   Limits              `json:"limits"`
}

// Currency is the unified asset record.
type Currency struct {
	ID        string              `json:"id"`
	Code      string              `json:"code"`
	Name      string              `json:"name,omitempty"`
	Type      string              `json:"type,omitempty"`
	Active    *bool               `json:"active"`
	Deposit   *bool               `json:"deposit"`
	Withdraw  *bool               `json:"withdraw"`
	Fee       decimal.NullDecimal `json:"fee"`
	Precision decimal.NullDecimal `json:"precision"`
	Limits    Limits              `json:"limits"`
	Networks  map[string]Network  `json:"networks,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// Fee is a paid commission.
type Fee struct {
	Currency string              `json:"currency"`
	Cost     decimal.NullDecimal `json:"cost"`
	Rate     decimal.NullDecimal `json:"rate"`
}

// Order is the unified order record.
type Order struct {
	ID                 string              `json:"id"`
	ClientOrderID      string              `json:"clientOrderId,omitempty"`
	Timestamp          int64               `json:"timestamp"`
	Datetime           string              `json:"datetime"`
	LastTradeTimestamp int64               `json:"lastTradeTimestamp,omitempty"`
	Symbol             string              `json:"symbol"`
	Type               string              `json:"type"`
	TimeInForce        string              `json:"timeInForce,omitempty"`
	PostOnly           *bool               `json:"postOnly,omitempty"`
	Side               string              `json:"side"`
	Price              decimal.NullDecimal `json:"price"`
	TriggerPrice       decimal.NullDecimal `json:"triggerPrice"`
	TakeProfitPrice    decimal.NullDecimal `json:"takeProfitPrice"`
	StopLossPrice      decimal.NullDecimal `json:"stopLossPrice"`
	Average            decimal.NullDecimal `json:"average"`
	Amount             decimal.NullDecimal `json:"amount"`
	Filled             decimal.NullDecimal `json:"filled"`
	Remaining          decimal.NullDecimal `json:"remaining"`
	Cost               decimal.NullDecimal `json:"cost"`
	Status             string              `json:"status"`
	Fee                *Fee                `json:"fee,omitempty"`
	Trades             []Trade             `json:"trades,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// Trade is the unified public or private trade record.
type Trade struct {
	ID           string              `json:"id"`
	Order        string              `json:"order,omitempty"`
	Timestamp    int64               `json:"timestamp"`
	Datetime     string              `json:"datetime"`
	Symbol       string              `json:"symbol"`
	Type         string              `json:"type,omitempty"`
	Side         string              `json:"side"`
	TakerOrMaker string              `json:"takerOrMaker,omitempty"`
	Price        decimal.NullDecimal `json:"price"`
	Amount       decimal.NullDecimal `json:"amount"`
	Cost         decimal.NullDecimal `json:"cost"`
	Fee          *Fee                `json:"fee,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// Ticker is a rolling 24h market summary.
type Ticker struct {
	Symbol        string              `json:"symbol"`
	Timestamp     int64               `json:"timestamp"`
	Datetime      string              `json:"datetime"`
	High          decimal.NullDecimal `json:"high"`
	Low           decimal.NullDecimal `json:"low"`
	Bid           decimal.NullDecimal `json:"bid"`
	BidVolume     decimal.NullDecimal `json:"bidVolume"`
	Ask           decimal.NullDecimal `json:"ask"`
	AskVolume     decimal.NullDecimal `json:"askVolume"`
	VWAP          decimal.NullDecimal `json:"vwap"`
	Open          decimal.NullDecimal `json:"open"`
	Close         decimal.NullDecimal `json:"close"`
	Last          decimal.NullDecimal `json:"last"`
	PreviousClose decimal.NullDecimal `json:"previousClose"`
	Change        decimal.NullDecimal `json:"change"`
	Percentage    decimal.NullDecimal `json:"percentage"`
	Average       decimal.NullDecimal `json:"average"`
	BaseVolume    decimal.NullDecimal `json:"baseVolume"`
	QuoteVolume   decimal.NullDecimal `json:"quoteVolume"`

	Info json.RawMessage `json:"info,omitempty"`
}

// PriceLevel is a [price, amount] pair.
type PriceLevel [2]decimal.Decimal

// Price returns the level price.
func (l PriceLevel) Price() decimal.Decimal { return l[0] }

// Amount returns the level size.
func (l PriceLevel) Amount() decimal.Decimal { return l[1] }

// OrderBook holds bids sorted descending and asks sorted ascending.
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
	Datetime  string       `json:"datetime"`
	Nonce     int64        `json:"nonce,omitempty"`
}

// OHLCV is one candle: timestamp, open, high, low, close, volume.
type OHLCV struct {
	Timestamp int64               `json:"timestamp"`
	Open      decimal.NullDecimal `json:"open"`
	High      decimal.NullDecimal `json:"high"`
	Low       decimal.NullDecimal `json:"low"`
	Close     decimal.NullDecimal `json:"close"`
	Volume    decimal.NullDecimal `json:"volume"`
}

// Balance is one currency account.
type Balance struct {
	Free  decimal.NullDecimal `json:"free"`
	Used  decimal.NullDecimal `json:"used"`
	Total decimal.NullDecimal `json:"total"`
}

// Balances maps unified currency codes to accounts.
type Balances struct {
	Timestamp  int64              `json:"timestamp,omitempty"`
	Datetime   string             `json:"datetime,omitempty"`
	Currencies map[string]Balance `json:"currencies"`

	Info json.RawMessage `json:"info,omitempty"`
}

// Transaction is a deposit or withdrawal.
type Transaction struct {
	ID        string              `json:"id"`
	TxID      string              `json:"txid,omitempty"`
	Timestamp int64               `json:"timestamp"`
	Datetime  string              `json:"datetime"`
	Network   string              `json:"network,omitempty"`
	Address   string              `json:"address,omitempty"`
	Tag       string              `json:"tag,omitempty"`
	Type      string              `json:"type"`
	Amount    decimal.NullDecimal `json:"amount"`
	Currency  string              `json:"currency"`
	Status    string              `json:"status"`
	Updated   int64               `json:"updated,omitempty"`
	Fee       *Fee                `json:"fee,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// DepositAddress is the address to send a currency to.
type DepositAddress struct {
	Currency string `json:"currency"`
	Network  string `json:"network,omitempty"`
	Address  string `json:"address"`
	Tag      string `json:"tag,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// LedgerEntry is one account movement.
type LedgerEntry struct {
	ID          string              `json:"id,omitempty"`
	Timestamp   int64               `json:"timestamp"`
	Datetime    string              `json:"datetime"`
	Direction   string              `json:"direction,omitempty"`
	ReferenceID string              `json:"referenceId,omitempty"`
	Type        string              `json:"type,omitempty"`
	Currency    string              `json:"currency"`
	Amount      decimal.NullDecimal `json:"amount"`
	Fee         *Fee                `json:"fee,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}

// ExchangeStatus reports whether the venue is operational.
type ExchangeStatus struct {
	Status  string `json:"status"`
	Updated int64  `json:"updated,omitempty"`
	ETA     int64  `json:"eta,omitempty"`
	URL     string `json:"url,omitempty"`

	Info json.RawMessage `json:"info,omitempty"`
}
