package exchange

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// SafeOrder derives the fields an exchange left out from those it sent:
// amount, filled and remaining from each other, cost and average from
// fills, and the datetime from the timestamp.
func SafeOrder(o *types.Order) *types.Order {
	if o.Datetime == "" {
		o.Datetime = ISO8601(o.Timestamp)
	}

	if len(o.Trades) > 0 {
		filled, cost := decimal.Zero, decimal.Zero
		for i := range o.Trades {
			t := &o.Trades[i]
			if t.Order == "" {
				t.Order = o.ID
			}
			if t.Symbol == "" {
				t.Symbol = o.Symbol
			}
			if t.Side == "" {
				t.Side = o.Side
			}
			SafeTrade(t)
			if t.Amount.Valid {
				filled = filled.Add(t.Amount.Decimal)
			}
			if t.Cost.Valid {
				cost = cost.Add(t.Cost.Decimal)
			}
		}
		if !o.Filled.Valid {
			o.Filled = Dec(filled)
		}
		if !o.Cost.Valid {
			o.Cost = Dec(cost)
		}
		if o.Fee == nil {
			o.Fee = sumFees(o.Trades)
		}
	}

	switch {
	case !o.Amount.Valid && o.Filled.Valid && o.Remaining.Valid:
		o.Amount = Dec(o.Filled.Decimal.Add(o.Remaining.Decimal))
	case !o.Filled.Valid && o.Amount.Valid && o.Remaining.Valid:
		o.Filled = Dec(decimal.Max(decimal.Zero, o.Amount.Decimal.Sub(o.Remaining.Decimal)))
	}
	if !o.Remaining.Valid && o.Amount.Valid && o.Filled.Valid {
		o.Remaining = Dec(decimal.Max(decimal.Zero, o.Amount.Decimal.Sub(o.Filled.Decimal)))
	}

	if !o.Average.Valid && o.Filled.Valid && o.Cost.Valid && o.Filled.Decimal.IsPositive() {
		o.Average = Dec(o.Cost.Decimal.Div(o.Filled.Decimal))
	}
	if !o.Cost.Valid && o.Filled.Valid {
		switch {
		case o.Average.Valid:
			o.Cost = Dec(o.Filled.Decimal.Mul(o.Average.Decimal))
		case o.Price.Valid:
			o.Cost = Dec(o.Filled.Decimal.Mul(o.Price.Decimal))
		}
	}
	if !o.Price.Valid && o.Type == types.OrderTypeMarket && o.Average.Valid {
		o.Price = o.Average
	}
	return o
}

func sumFees(trades []types.Trade) *types.Fee {
	var fee *types.Fee
	for _, t := range trades {
		if t.Fee == nil || !t.Fee.Cost.Valid {
			continue
		}
		if fee == nil {
			fee = &types.Fee{Currency: t.Fee.Currency, Cost: Dec(decimal.Zero)}
		}
		if fee.Currency != t.Fee.Currency {
			return nil
		}
		fee.Cost = Dec(fee.Cost.Decimal.Add(t.Fee.Cost.Decimal))
	}
	return fee
}

// SafeTrade fills the datetime and the cost of a trade
func SafeTrade(t *types.Trade) *types.Trade {
	if t.Datetime == "" {
		t.Datetime = ISO8601(t.Timestamp)
	}
	if !t.Cost.Valid && t.Price.Valid && t.Amount.Valid {
		t.Cost = Dec(t.Price.Decimal.Mul(t.Amount.Decimal))
	}
	return t
}

// SafeTicker derives change, percentage, average and vwap where possible
func SafeTicker(t *types.Ticker) *types.Ticker {
	if t.Datetime == "" {
		t.Datetime = ISO8601(t.Timestamp)
	}
	if !t.Close.Valid && t.Last.Valid {
		t.Close = t.Last
	}
	if !t.Last.Valid && t.Close.Valid {
		t.Last = t.Close
	}
	if t.Open.Valid && t.Last.Valid {
		if !t.Change.Valid {
			t.Change = Dec(t.Last.Decimal.Sub(t.Open.Decimal))
		}
		if !t.Average.Valid {
			t.Average = Dec(t.Last.Decimal.Add(t.Open.Decimal).Div(decimal.NewFromInt(2)))
		}
		if !t.Percentage.Valid && t.Open.Decimal.IsPositive() {
			t.Percentage = Dec(t.Change.Decimal.Div(t.Open.Decimal).Mul(hundred))
		}
	}
	if !t.VWAP.Valid && t.BaseVolume.Valid && t.QuoteVolume.Valid && t.BaseVolume.Decimal.IsPositive() {
		t.VWAP = Dec(t.QuoteVolume.Decimal.Div(t.BaseVolume.Decimal))
	}
	return t
}

// SafeBalance completes each account from the two fields that were sent
func SafeBalance(b *types.Balances) *types.Balances {
	if b.Datetime == "" {
		b.Datetime = ISO8601(b.Timestamp)
	}
	for code, acc := range b.Currencies {
		switch {
		case !acc.Total.Valid && acc.Free.Valid && acc.Used.Valid:
			acc.Total = Dec(acc.Free.Decimal.Add(acc.Used.Decimal))
		case !acc.Free.Valid && acc.Total.Valid && acc.Used.Valid:
			acc.Free = Dec(acc.Total.Decimal.Sub(acc.Used.Decimal))
		case !acc.Used.Valid && acc.Total.Valid && acc.Free.Valid:
			acc.Used = Dec(acc.Total.Decimal.Sub(acc.Free.Decimal))
		}
		b.Currencies[code] = acc
	}
	return b
}

// SortLevels orders bids descending and asks ascending
func SortLevels(book *types.OrderBook) *types.OrderBook {
	sort.SliceStable(book.Bids, func(i, j int) bool {
		return book.Bids[i].Price().GreaterThan(book.Bids[j].Price())
	})
	sort.SliceStable(book.Asks, func(i, j int) bool {
		return book.Asks[i].Price().LessThan(book.Asks[j].Price())
	})
	if book.Datetime == "" {
		book.Datetime = ISO8601(book.Timestamp)
	}
	return book
}

// ParseLevels reads [price, amount] rows, either arrays or objects keyed by
// priceKey and amountKey
func ParseLevels(rows []gjson.Result, priceKey, amountKey string) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(rows))
	for _, row := range rows {
		price := SafeDecimal(row, priceKey)
		amount := SafeDecimal(row, amountKey)
		if !price.Valid || !amount.Valid {
			continue
		}
		out = append(out, types.PriceLevel{price.Decimal, amount.Decimal})
	}
	return out
}
