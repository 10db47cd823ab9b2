package bitbns

import (
	"net/http"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

// ID is the exchange id used in config, metrics and error feedback
const ID = "bitbns"

const (
	tierWWW = "www"
	tierV1  = "v1"
	tierV2  = "v2"
)

// Client is the Bitbns adapter. Public data is served from the website host,
// account and trading calls from the v1 and v2 trade APIs.
type Client struct {
	*exchange.Client
}

// New creates a Bitbns client
func New(cfg exchange.Config) *Client {
	c := &Client{}
	c.Client = exchange.NewClient(Describe(), cfg, c)
	return c
}

// Describe returns the static Bitbns table merged over the shared defaults
func Describe() exchange.Describe {
	return exchange.MergeDescribe(exchange.BaseDescribe(), exchange.Describe{
		ID:            ID,
		Name:          "Bitbns",
		Countries:     []string{"IN"},
		RateLimit:     1000,
		Version:       "v2",
		Hostname:      "bitbns.com",
		PrecisionMode: exchange.TickSize,
		Has: map[exchange.Capability]bool{
			exchange.CapFetchStatus:         true,
			exchange.CapFetchMarkets:        true,
			exchange.CapFetchTicker:         true,
			exchange.CapFetchTickers:        true,
			exchange.CapFetchOrderBook:      true,
			exchange.CapFetchTrades:         true,
			exchange.CapFetchBalance:        true,
			exchange.CapCreateOrder:         true,
			exchange.CapCancelOrder:         true,
			exchange.CapFetchOrder:          true,
			exchange.CapFetchOpenOrders:     true,
			exchange.CapFetchMyTrades:       true,
			exchange.CapFetchDeposits:       true,
			exchange.CapFetchWithdrawals:    true,
			exchange.CapFetchDepositAddress: true,
		},
		URLs: exchange.URLs{
			Logo: "https://user-images.githubusercontent.com/1294454/117201933-e7a6e780-adf5-11eb-9d80-98fc2a21c3d6.jpg",
			API: map[string]string{
				tierWWW: "https://{hostname}",
				tierV1:  "https://api.{hostname}/api/trade/v1",
				tierV2:  "https://api.{hostname}/api/trade/v2",
			},
			WWW:  "https://bitbns.com",
			Doc:  []string{"https://bitbns.com/trade/#/api-trading/"},
			Fees: "https://bitbns.com/fees",
		},
		API: exchange.API{
			tierWWW: {
				"get": {
					"order/fetchMarkets",
					"order/fetchTickers",
					"order/fetchOrderbook",
					"order/getTickerWithVolume",
					"exchangeData/ohlc",
					"exchangeData/orderBook",
					"exchangeData/tradedetails",
				},
			},
			tierV1: {
				"get": {
					"platform/status",
					"tickers",
					"orderbook/sell/{symbol}",
					"orderbook/buy/{symbol}",
				},
				"post": {
					"currentCoinBalance/EVERYTHING",
					"getApiUsageStatus/USAGE",
					"getOrderSocketToken/USAGE",
					"currentCoinBalance/{symbol}",
					"orderStatus/{symbol}",
					"depositHistory/{symbol}",
					"withdrawHistory/{symbol}",
					"withdrawHistoryAll/{symbol}",
					"depositHistoryAll/{symbol}",
					"listOpenOrders/{symbol}",
					"listOpenStopOrders/{symbol}",
					"getCoinAddress/{symbol}",
					"placeSellOrder/{symbol}",
					"placeBuyOrder/{symbol}",
					"buyStopLoss/{symbol}",
					"sellStopLoss/{symbol}",
					"cancelOrder/{symbol}",
					"cancelStopLossOrder/{symbol}",
					"listExecutedOrders/{symbol}",
					"placeMarketOrder/{symbol}",
					"placeMarketOrderQnty/{symbol}",
				},
			},
			tierV2: {
				"post": {
					"orders",
					"cancel",
					"getordersnew",
					"marginOrders",
				},
			},
		},
		Fees: exchange.Fees{
			Trading: exchange.TradingFees{
				FeeSide:    "quote",
				TierBased:  exchange.Bool(false),
				Percentage: exchange.Bool(true),
				Taker:      exchange.DecStr("0.0025"),
				Maker:      exchange.DecStr("0.0025"),
			},
		},
		Exceptions: exceptions,
	})
}

// signPayload keeps the field order the gateway hashes
type signPayload struct {
	TimeStampNonce string `json:"timeStamp_nonce"`
	Body           string `json:"body"`
}

// Sign builds the URL for every tier. Trade API calls carry the api key and,
// for POST, a base64 JSON payload of nonce and body signed with hex HMAC-SHA512.
func (c *Client) Sign(req exchange.Request) (exchange.SignedRequest, error) {
	base, err := c.BaseURL(req.API)
	if err != nil {
		return exchange.SignedRequest{}, err
	}
	url := base + "/" + exchange.ImplodeParams(req.Path, req.Params)
	query := exchange.Omit(req.Params, exchange.ExtractParams(req.Path)...)

	headers := map[string]string{}
	for k, v := range req.Headers {
		headers[k] = v
	}
	if req.API != tierWWW {
		if err := c.CheckRequiredCredentials(); err != nil {
			return exchange.SignedRequest{}, err
		}
		headers["X-BITBNS-APIKEY"] = c.Config().APIKey
	}

	var body string
	switch req.Method {
	case http.MethodGet:
		if len(query) > 0 {
			url += "?" + exchange.URLEncode(query)
		}
	case http.MethodPost:
		body = "{}"
		if len(query) > 0 {
			if body, err = exchange.JSONEncode(query); err != nil {
				return exchange.SignedRequest{}, err
			}
		}
		payload, err := Payload(c.Nonce(), body)
		if err != nil {
			return exchange.SignedRequest{}, err
		}
		headers["X-BITBNS-PAYLOAD"] = payload
		headers["X-BITBNS-SIGNATURE"] = exchange.HmacSHA512Hex(payload, c.Config().Secret)
		headers["Content-Type"] = "application/x-www-form-urlencoded"
	}

	return exchange.SignedRequest{
		URL:     url,
		Method:  req.Method,
		Body:    body,
		Headers: headers,
	}, nil
}

// Payload returns base64({"timeStamp_nonce":"<nonce>","body":"<body>"})
func Payload(nonce int64, body string) (string, error) {
	encoded, err := exchange.JSONEncode(signPayload{
		TimeStampNonce: exchange.Stringify(nonce),
		Body:           body,
	})
	if err != nil {
		return "", err
	}
	return exchange.Base64([]byte(encoded)), nil
}
