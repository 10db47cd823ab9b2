package bitbns

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// "Money" is the balance id of INR, the only fiat currency
const fiatID = "Money"

// FetchBalance reads every coin balance at once
func (c *Client) FetchBalance(ctx context.Context, params exchange.Params) (*types.Balances, error) {
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "POST", Path: "currentCoinBalance/EVERYTHING", Params: params})
	if err != nil {
		return nil, err
	}
	return c.parseBalance(resp), nil
}

//	{
//	    "data": {
//	        "availableorderMoney": 12.34,
//	        "availableorderBTC": 0,
//	        "inorderMoney": 0,
//	        "inorderBTC": 0
//	    },
//	    "status": 1,
//	    "error": null,
//	    "code": 200
//	}
func (c *Client) parseBalance(resp gjson.Result) *types.Balances {
	result := &types.Balances{
		Currencies: map[string]types.Balance{},
		Info:       exchange.Raw(resp),
	}
	data := exchange.Key(resp, "data")
	data.ForEach(func(key, value gjson.Result) bool {
		currencyID, ok := strings.CutPrefix(key.String(), "availableorder")
		if !ok || currencyID == "" {
			return true
		}
		code := "INR"
		if currencyID != fiatID {
			code = c.SafeCurrencyCode(currencyID)
		}
		result.Currencies[code] = types.Balance{
			Free: exchange.ToDecimal(value),
			Used: exchange.SafeDecimal(data, "inorder"+currencyID),
		}
		return true
	})
	return exchange.SafeBalance(result)
}

var transactionStatuses = map[string]map[string]string{
	"deposit": {
		"0": types.TransactionStatusPending,
		"1": types.TransactionStatusOK,
	},
	// 1 means cancelled for withdrawals, unlike deposits
	"withdrawal": {
		"0": types.TransactionStatusPending, // email sent
		"1": types.TransactionStatusCanceled,
		"2": types.TransactionStatusPending, // awaiting approval
		"3": types.TransactionStatusFailed, // rejected
		"4": types.TransactionStatusPending, // processing
		"5": types.TransactionStatusFailed,
		"6": types.TransactionStatusOK,
	},
}

// ParseTransactionStatus maps a status code under its transaction type,
// passing unknown codes through
func ParseTransactionStatus(status, transactionType string) string {
	if s, ok := transactionStatuses[transactionType][status]; ok {
		return s
	}
	return status
}

// FetchDeposits lists deposits of one currency starting at page 0
func (c *Client) FetchDeposits(ctx context.Context, code string, since int64, limit int, params exchange.Params) ([]types.Transaction, error) {
	return c.fetchTransactions(ctx, "fetchDeposits", "depositHistory/{symbol}", code, since, limit, params)
}

// FetchWithdrawals lists withdrawals of one currency starting at page 0
func (c *Client) FetchWithdrawals(ctx context.Context, code string, since int64, limit int, params exchange.Params) ([]types.Transaction, error) {
	return c.fetchTransactions(ctx, "fetchWithdrawals", "withdrawHistory/{symbol}", code, since, limit, params)
}

func (c *Client) fetchTransactions(ctx context.Context, method, path, code string, since int64, limit int, params exchange.Params) ([]types.Transaction, error) {
	if code == "" {
		return nil, exchange.Errorf(exchange.ArgumentsRequired, ID, "%s() requires a currency code argument", method)
	}
	currency, err := c.Currency(code)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{
		"symbol": currency.ID,
		"page":   0,
	}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "POST", Path: path, Params: exchange.Extend(request, params)})
	if nothingToShow(err) {
		return []types.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	rows := exchange.SafeList(resp, "data")
	txs := make([]types.Transaction, 0, len(rows))
	for _, raw := range rows {
		txs = append(txs, c.parseTransaction(raw, currency.Code))
	}
	exchange.SortByTimestamp(txs, func(t types.Transaction) int64 { return t.Timestamp })
	return exchange.FilterBySinceLimit(txs, func(t types.Transaction) int64 { return t.Timestamp }, since, limit), nil
}

// parseTransaction reads history rows. The type is derived from the
// description text:
//
//	{"type":"USDT deposited","typeI":1,"amount":100,"date":"2021-04-24T14:56:04.000Z","unit":"USDT","factor":100,"fee":0,...}
//	{"type":"INR withdrawl","amount":7980,"date":"2021-04-29T10:24:31.000Z","unit":"INR","fee":20,"expTime":"withdrawl","status":6,...}
func (c *Client) parseTransaction(raw gjson.Result, code string) types.Transaction {
	if unit := exchange.SafeString(raw, "unit"); unit != "" {
		code = c.SafeCurrencyCode(unit)
	}
	description := exchange.SafeString(raw, "type")
	expTime := exchange.SafeString(raw, "expTime")
	txType := description
	status := exchange.SafeString(raw, "status")
	switch {
	case strings.Contains(description, "deposit"):
		txType = "deposit"
		if status == "" {
			// deposit history only lists credited deposits
			status = "1"
		}
	case strings.Contains(description, "withdraw"), strings.Contains(expTime, "withdraw"):
		txType = "withdrawal"
	}

	var fee *types.Fee
	if cost := exchange.SafeDecimal(raw, "fee"); cost.Valid {
		fee = &types.Fee{Currency: code, Cost: cost}
	}
	timestamp := exchange.Parse8601(exchange.SafeString(raw, "date", "timestamp"))
	return types.Transaction{
		Timestamp: timestamp,
		Datetime:  exchange.ISO8601(timestamp),
		Type:      txType,
		Amount:    exchange.SafeDecimal(raw, "amount"),
		Currency:  code,
		Status:    ParseTransactionStatus(status, txType),
		Fee:       fee,
		Info:      exchange.Raw(raw),
	}
}

// FetchDepositAddress returns the current deposit address of a currency
func (c *Client) FetchDepositAddress(ctx context.Context, code string, params exchange.Params) (*types.DepositAddress, error) {
	currency, err := c.Currency(code)
	if err != nil {
		return nil, err
	}
	request := exchange.Params{"symbol": currency.ID}
	resp, err := c.Fetch(ctx, exchange.Request{API: tierV1, Method: "POST", Path: "getCoinAddress/{symbol}", Params: exchange.Extend(request, params)})
	if err != nil {
		return nil, err
	}
	// {"data":{"token":"0x680dee9edfff0c397736e10b017cf6a0aee4ba31","expiry":"2022-04-24 22:30:11"},"status":1,"error":null}
	data := exchange.Key(resp, "data")
	address := exchange.SafeString(data, "token")
	if address == "" || strings.ContainsAny(address, " \t\n") {
		return nil, exchange.Errorf(exchange.InvalidAddress, ID, "address is invalid or has less than 1 characters: %q", address)
	}
	return &types.DepositAddress{
		Currency: code,
		Address:  address,
		Tag:      exchange.SafeString(data, "tag"),
		Info:     exchange.Raw(resp),
	}, nil
}
