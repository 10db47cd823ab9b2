package coinmetro

import (
	"net/http"
	"strings"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

// ID is the exchange id used in config, metrics and error feedback
const ID = "coinmetro"

const (
	tierPublic  = "public"
	tierPrivate = "private"
)

// Client is the Coinmetro adapter. Private calls authenticate with a bearer
// token and a device id; the sandbox skips the device check.
type Client struct {
	*exchange.Client
}

// New creates a Coinmetro client. The device id falls back to the api key
// and the token to the secret.
func New(cfg exchange.Config) *Client {
	if cfg.UID == "" {
		cfg.UID = cfg.APIKey
	}
	if cfg.Token == "" {
		cfg.Token = cfg.Secret
	}
	c := &Client{}
	c.Client = exchange.NewClient(Describe(), cfg, c)
	return c
}

// Describe returns the static Coinmetro table merged over the shared defaults
func Describe() exchange.Describe {
	return exchange.MergeDescribe(exchange.BaseDescribe(), exchange.Describe{
		ID:            ID,
		Name:          "Coinmetro",
		Countries:     []string{"EE"},
		Version:       "v1",
		RateLimit:     200,
		PrecisionMode: exchange.TickSize,
		Has: map[exchange.Capability]bool{
			exchange.CapFetchCurrencies:              true,
			exchange.CapFetchMarkets:                 true,
			exchange.CapFetchTickers:                 true,
			exchange.CapFetchBidsAsks:                true,
			exchange.CapFetchOrderBook:               true,
			exchange.CapFetchOHLCV:                   true,
			exchange.CapFetchTrades:                  true,
			exchange.CapFetchBalance:                 true,
			exchange.CapFetchLedger:                  true,
			exchange.CapCreateOrder:                  true,
			exchange.CapCancelOrder:                  true,
			exchange.CapClosePosition:                true,
			exchange.CapFetchOrder:                   true,
			exchange.CapFetchOpenOrders:              true,
			exchange.CapFetchCanceledAndClosedOrders: true,
			exchange.CapFetchMyTrades:                true,
		},
		Timeframes: map[string]string{
			"1m":  "60000",
			"5m":  "300000",
			"30m": "1800000",
			"4h":  "14400000",
			"1d":  "86400000",
		},
		URLs: exchange.URLs{
			API: map[string]string{
				tierPublic:  "https://api.coinmetro.com",
				tierPrivate: "https://api.coinmetro.com",
			},
			Test: map[string]string{
				tierPublic:  "https://api.coinmetro.com/open",
				tierPrivate: "https://api.coinmetro.com/open",
			},
			WWW:  "https://coinmetro.com/",
			Doc:  []string{"https://documenter.getpostman.com/view/3653795/SVfWN6KS"},
			Fees: "https://help.coinmetro.com/hc/en-gb/articles/6844007317789-What-are-the-fees-on-Coinmetro-",
		},
		API: exchange.API{
			tierPublic: {
				"get": {
					"demo/temp",
					"exchange/candles/{pair}/{timeframe}/{from}/{to}",
					"exchange/prices",
					"exchange/ticks/{pair}/{from}",
					"assets",
					"markets",
					"exchange/book/{pair}",
					"exchange/bookUpdates/{pair}/{from}",
				},
			},
			tierPrivate: {
				"get": {
					"users/balances",
					"users/wallets",
					"users/wallets/history/{since}",
					"exchange/orders/status/{orderID}",
					"exchange/orders/active",
					"exchange/orders/history/{since}",
					"exchange/fills/{since}",
					"exchange/margin",
				},
				"post": {
					"jwt",
					"jwtDevice",
					"devices",
					"jwt-read-only",
					"exchange/orders/create",
					"exchange/orders/modify/{orderID}",
					"exchange/swap",
					"exchange/swap/confirm/{swapId}",
					"exchange/orders/close/{orderID}",
					"exchange/orders/hedge",
				},
				"put": {
					"jwt",
					"exchange/orders/cancel/{orderID}",
					"users/margin/collateral",
					"users/margin/primary/{currency}",
				},
			},
		},
		Fees: exchange.Fees{
			Trading: exchange.TradingFees{
				FeeSide:    "get",
				TierBased:  exchange.Bool(false),
				Percentage: exchange.Bool(true),
				Taker:      exchange.DecStr("0.001"),
				Maker:      exchange.DecStr("0"),
			},
		},
		Exceptions:          exceptions,
		RequiredCredentials: exchange.RequiredCredentials{UID: true, Token: true},
		Options: exchange.Options{
			// ids that never show up in the assets list but prefix pair ids
			CurrencyIDsForMarketParse: []string{"QRDO"},
		},
	})
}

// Sign resolves path params and encodes the rest: a query string for GET,
// a form body for private POST and PUT. Login endpoints get the device
// headers instead of the bearer token.
func (c *Client) Sign(req exchange.Request) (exchange.SignedRequest, error) {
	base, err := c.BaseURL(req.API)
	if err != nil {
		return exchange.SignedRequest{}, err
	}
	// empty trailing path params leave slashes the gateway rejects
	url := strings.TrimRight(base+"/"+exchange.ImplodeParams(req.Path, req.Params), "/")
	query := exchange.Omit(req.Params, exchange.ExtractParams(req.Path)...)

	headers := map[string]string{}
	for k, v := range req.Headers {
		headers[k] = v
	}

	cfg := c.Config()
	var body string
	if req.API == tierPrivate {
		switch req.Path {
		case "jwt":
			headers["X-Device-Id"] = "bypass"
			if otp := c.Option("twofa", ""); otp != "" {
				headers["X-OTP"] = otp
			}
		case "jwtDevice":
			headers["X-Device-Id"] = cfg.UID
			if otp := c.Option("twofa", ""); otp != "" {
				headers["X-OTP"] = otp
			}
		default:
			headers["Authorization"] = "Bearer " + cfg.Token
			if !cfg.Sandbox {
				if err := c.CheckRequiredCredentials(); err != nil {
					return exchange.SignedRequest{}, err
				}
				headers["X-Device-Id"] = cfg.UID
			}
		}
		if req.Method == http.MethodPost || req.Method == http.MethodPut {
			headers["Content-Type"] = "application/x-www-form-urlencoded"
			body = exchange.URLEncode(query)
		}
	}
	if req.Method == http.MethodGet && len(query) > 0 {
		url += "?" + exchange.URLEncode(query)
	}

	return exchange.SignedRequest{
		URL:     url,
		Method:  req.Method,
		Body:    body,
		Headers: headers,
	}, nil
}
