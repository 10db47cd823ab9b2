package coinmetro

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// FetchBalance reads the wallets; reserved funds are reported as used
func (c *Client) FetchBalance(ctx context.Context, params exchange.Params) (*types.Balances, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "users/wallets", Params: params})
	if err != nil {
		return nil, err
	}
	// {"list":[{"xcmLocks":[],"xcmLockAmounts":[],"refList":[],"balanceHistory":[],"_id":"5fecd3c998e75c2e4d63f7c3","currency":"BTC","label":"BTC","userId":"5fecd3c97fbfed1521db23bd","__v":0,"balance":0.5,"createdAt":"2020-12-30T19:23:53.646Z","disabled":false,"updatedAt":"2020-12-30T19:23:53.653Z","reserved":0.1,"id":"5fecd3c998e75c2e4d63f7c3"}]}
	list := exchange.Key(resp, "list")
	result := &types.Balances{
		Currencies: map[string]types.Balance{},
		Info:       exchange.Raw(list),
	}
	for _, entry := range list.Array() {
		code := c.SafeCurrencyCode(exchange.SafeString(entry, "currency"))
		if code == "" {
			continue
		}
		result.Currencies[code] = types.Balance{
			Total: exchange.SafeDecimal(entry, "balance"),
			Used:  exchange.SafeDecimal(entry, "reserved"),
		}
	}
	return exchange.SafeBalance(result), nil
}

var ledgerEntryTypes = map[string]string{
	"Deposit":  "transaction",
	"Withdraw": "transaction",
	"Order":    "trade",
}

// ParseLedgerDescription splits a balance history description such as
// "Order 65671262d93d9525ac009e36170257061073952c6423a8c5b4d6cED1" or
// "Deposit - 0x1234" into the entry type and the reference id. Single word
// descriptions yield nothing.
func ParseLedgerDescription(description string) (entryType, referenceID string) {
	parts := strings.Split(description, " ")
	if len(parts) < 2 {
		return "", ""
	}
	entryType = parts[0]
	if t, ok := ledgerEntryTypes[entryType]; ok {
		entryType = t
	}
	referenceID = parts[1]
	if referenceID == "-" {
		referenceID = ""
		if len(parts) > 2 {
			referenceID = parts[2]
		}
	}
	return entryType, referenceID
}

// FetchLedger flattens the per-currency balance history from since on.
// With code set only that currency's entries are returned.
func (c *Client) FetchLedger(ctx context.Context, code string, since int64, limit int, params exchange.Params) ([]types.LedgerEntry, error) {
	if _, err := c.Markets(); err != nil {
		return nil, err
	}
	var currency types.Currency
	if code != "" {
		var err error
		if currency, err = c.Currency(code); err != nil {
			return nil, err
		}
	}
	request := exchange.Params{"since": ""}
	if since > 0 {
		request["since"] = since
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierPrivate, Method: "GET", Path: "users/wallets/history/{since}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}

	var entries []types.LedgerEntry
	for _, wallet := range exchange.SafeList(resp, "list") {
		currencyCode := c.SafeCurrencyCode(exchange.SafeString(wallet, "currency"))
		if currency.Code != "" && currencyCode != currency.Code {
			continue
		}
		for _, item := range exchange.SafeList(wallet, "balanceHistory") {
			entries = append(entries, parseLedgerEntry(item, currencyCode))
		}
	}
	exchange.SortByTimestamp(entries, func(e types.LedgerEntry) int64 { return e.Timestamp })
	return exchange.FilterBySinceLimit(entries, func(e types.LedgerEntry) int64 { return e.Timestamp }, since, limit), nil
}

//	{
//	    "description": "Order 65671262d93d9525ac009e36170257061073952c6423a8c5b4d6cED1",
//	    "JSONdata": {"fees": 0.000002, "notes": "Order", "buyingCurrency": "ETH", "sellingCurrency": "USDC", "price": 2282, "qty": 0.002},
//	    "amount": 0.001998,
//	    "timestamp": "2023-12-14T16:16:50.760Z"
//	}
func parseLedgerEntry(item gjson.Result, code string) types.LedgerEntry {
	datetime := exchange.SafeString(item, "timestamp")
	entryType, referenceID := ParseLedgerDescription(exchange.SafeString(item, "description"))

	amount := exchange.SafeDecimal(item, "amount")
	var direction string
	if amount.Valid {
		switch amount.Decimal.Sign() {
		case -1:
			direction = "out"
			amount.Decimal = amount.Decimal.Abs()
		case 1:
			direction = "in"
		}
	}

	var fee *types.Fee
	if cost := exchange.SafeDecimal(exchange.Key(item, "JSONdata"), "fees"); cost.Valid {
		fee = &types.Fee{Cost: cost}
	}
	return types.LedgerEntry{
		Timestamp:   exchange.Parse8601(datetime),
		Datetime:    datetime,
		Direction:   direction,
		ReferenceID: referenceID,
		Type:        entryType,
		Currency:    code,
		Amount:      amount,
		Fee:         fee,
		Info:        exchange.Raw(item),
	}
}
