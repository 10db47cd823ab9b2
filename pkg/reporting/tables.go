package reporting

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

func dec(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func ts(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(timeLayout)
}

func flag(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func fee(f *types.Fee) string {
	if f == nil || !f.Cost.Valid {
		return ""
	}
	return strings.TrimSpace(f.Cost.Decimal.String() + " " + f.Currency)
}

// MarketsTable lists symbols with their precision and limits
func MarketsTable(markets []types.Market) Table {
	t := Table{
		Title:  "MARKETS",
		Header: []string{"Symbol", "ID", "Type", "Active", "Amount Precision", "Price Precision", "Min Amount", "Min Cost", "Taker", "Maker"},
	}
	for _, m := range markets {
		t.Rows = append(t.Rows, []string{
			m.Symbol, m.ID, m.Type, flag(m.Active),
			dec(m.Precision.Amount), dec(m.Precision.Price),
			dec(m.Limits.Amount.Min), dec(m.Limits.Cost.Min),
			dec(m.Taker), dec(m.Maker),
		})
	}
	return t
}

// CurrenciesTable lists currency codes with their transfer flags
func CurrenciesTable(currencies []types.Currency) Table {
	t := Table{
		Title:  "CURRENCIES",
		Header: []string{"Code", "ID", "Name", "Active", "Deposit", "Withdraw", "Precision", "Fee"},
	}
	for _, c := range currencies {
		t.Rows = append(t.Rows, []string{
			c.Code, c.ID, c.Name, flag(c.Active), flag(c.Deposit), flag(c.Withdraw), dec(c.Precision), dec(c.Fee),
		})
	}
	return t
}

// TickersTable renders tickers sorted by symbol
func TickersTable(tickers map[string]types.Ticker) Table {
	t := Table{
		Title:  "TICKERS",
		Header: []string{"Symbol", "Time", "Bid", "Ask", "Last", "High", "Low", "Change %", "Base Volume", "Quote Volume"},
		Signed: []int{7},
	}
	symbols := make([]string, 0, len(tickers))
	for s := range tickers {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		tk := tickers[s]
		t.Rows = append(t.Rows, []string{
			s, ts(tk.Timestamp), dec(tk.Bid), dec(tk.Ask), dec(tk.Last),
			dec(tk.High), dec(tk.Low), dec(tk.Percentage), dec(tk.BaseVolume), dec(tk.QuoteVolume),
		})
	}
	return t
}

// OrderBookTable puts bids and asks side by side, best levels first
func OrderBookTable(book types.OrderBook) Table {
	t := Table{
		Title:  "ORDER BOOK " + book.Symbol,
		Header: []string{"Bid Amount", "Bid", "Ask", "Ask Amount"},
	}
	depth := len(book.Bids)
	if len(book.Asks) > depth {
		depth = len(book.Asks)
	}
	for i := 0; i < depth; i++ {
		row := make([]string, 4)
		if i < len(book.Bids) {
			row[0] = book.Bids[i].Amount().String()
			row[1] = book.Bids[i].Price().String()
		}
		if i < len(book.Asks) {
			row[2] = book.Asks[i].Price().String()
			row[3] = book.Asks[i].Amount().String()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// OHLCVTable renders candles in time order
func OHLCVTable(symbol, timeframe string, candles []types.OHLCV) Table {
	t := Table{
		Title:  strings.TrimSpace("OHLCV " + symbol + " " + timeframe),
		Header: []string{"Time", "Open", "High", "Low", "Close", "Volume"},
	}
	for _, c := range candles {
		t.Rows = append(t.Rows, []string{ts(c.Timestamp), dec(c.Open), dec(c.High), dec(c.Low), dec(c.Close), dec(c.Volume)})
	}
	return t
}

// TradesTable renders public or private trades
func TradesTable(trades []types.Trade) Table {
	t := Table{
		Title:  "TRADES",
		Header: []string{"Time", "ID", "Symbol", "Side", "Price", "Amount", "Cost", "Fee", "Order"},
	}
	for _, tr := range trades {
		t.Rows = append(t.Rows, []string{
			ts(tr.Timestamp), tr.ID, tr.Symbol, tr.Side, dec(tr.Price), dec(tr.Amount), dec(tr.Cost), fee(tr.Fee), tr.Order,
		})
	}
	return t
}

// OrdersTable renders orders with their fill state
func OrdersTable(orders []types.Order) Table {
	t := Table{
		Title:  "ORDERS",
		Header: []string{"Time", "ID", "Symbol", "Type", "Side", "Status", "Price", "Average", "Amount", "Filled", "Remaining", "Cost", "Fee"},
	}
	for _, o := range orders {
		t.Rows = append(t.Rows, []string{
			ts(o.Timestamp), o.ID, o.Symbol, o.Type, o.Side, o.Status,
			dec(o.Price), dec(o.Average), dec(o.Amount), dec(o.Filled), dec(o.Remaining), dec(o.Cost), fee(o.Fee),
		})
	}
	return t
}

// BalanceTable renders non-empty accounts sorted by currency code
func BalanceTable(b types.Balances) Table {
	t := Table{
		Title:  "BALANCE",
		Header: []string{"Currency", "Free", "Used", "Total"},
	}
	codes := make([]string, 0, len(b.Currencies))
	for code := range b.Currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		acc := b.Currencies[code]
		if acc.Total.Valid && acc.Total.Decimal.IsZero() {
			continue
		}
		t.Rows = append(t.Rows, []string{code, dec(acc.Free), dec(acc.Used), dec(acc.Total)})
	}
	return t
}

// TransactionsTable renders deposits and withdrawals
func TransactionsTable(txs []types.Transaction) Table {
	t := Table{
		Title:  "TRANSACTIONS",
		Header: []string{"Time", "ID", "Type", "Currency", "Amount", "Status", "Address", "TxID", "Fee"},
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			ts(tx.Timestamp), tx.ID, tx.Type, tx.Currency, dec(tx.Amount), tx.Status, tx.Address, tx.TxID, fee(tx.Fee),
		})
	}
	return t
}

// LedgerTable renders account movements
func LedgerTable(entries []types.LedgerEntry) Table {
	t := Table{
		Title:  "LEDGER",
		Header: []string{"Time", "Type", "Direction", "Currency", "Amount", "Reference"},
		Signed: []int{4},
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{ts(e.Timestamp), e.Type, e.Direction, e.Currency, dec(e.Amount), e.ReferenceID})
	}
	return t
}

// KeyValueTable renders name/value pairs in the given order
func KeyValueTable(title string, pairs [][2]string) Table {
	t := Table{Title: title, Header: []string{"Name", "Value"}}
	for _, p := range pairs {
		t.Rows = append(t.Rows, []string{p[0], p[1]})
	}
	return t
}

// StatusTable renders the venue status
func StatusTable(exchangeID string, s types.ExchangeStatus) Table {
	return KeyValueTable("STATUS", [][2]string{
		{"Exchange", exchangeID},
		{"Status", s.Status},
		{"Updated", ts(s.Updated)},
		{"ETA", ts(s.ETA)},
		{"URL", s.URL},
	})
}
