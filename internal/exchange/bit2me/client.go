package bit2me

import (
	"crypto/sha512"
	"net/http"
	"strconv"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

const ID = "bit2me"

const (
	tierPublic  = "public"
	tierPrivate = "private"
)

// Client is the Bit2Me spot trading adapter
type Client struct {
	*exchange.Client
}

// New creates a Bit2Me client
func New(cfg exchange.Config) *Client {
	c := &Client{}
	c.Client = exchange.NewClient(Describe(), cfg, c)
	return c
}

// Describe returns the static Bit2Me table merged over the shared defaults
func Describe() exchange.Describe {
	return exchange.MergeDescribe(exchange.BaseDescribe(), exchange.Describe{
		ID:            ID,
		Name:          "Bit2Me",
		Countries:     []string{"ES"},
		RateLimit:     300,
		PrecisionMode: exchange.DecimalPlaces,
		Has: map[exchange.Capability]bool{
			exchange.CapFetchMarkets:      true,
			exchange.CapFetchTicker:       true,
			exchange.CapFetchTickers:      true,
			exchange.CapFetchOrderBook:    true,
			exchange.CapFetchOHLCV:        true,
			exchange.CapFetchBalance:      true,
			exchange.CapCreateOrder:       true,
			exchange.CapCancelOrder:       true,
			exchange.CapFetchOrder:        true,
			exchange.CapFetchOrders:       true,
			exchange.CapFetchOpenOrders:   true,
			exchange.CapFetchClosedOrders: true,
			exchange.CapFetchOrderTrades:  true,
			exchange.CapFetchMyTrades:     true,
		},
		Timeframes: map[string]string{
			"1m":  "1",
			"5m":  "5",
			"15m": "15",
			"30m": "30",
			"1h":  "60",
			"4h":  "240",
			"1d":  "1440",
		},
		URLs: exchange.URLs{
			Logo: "https://bit2me.com/assets/img/logos/fullblue/bit2me-blue_bg-white.png",
			API: map[string]string{
				tierPublic:  "https://gateway.bit2me.com",
				tierPrivate: "https://gateway.bit2me.com",
			},
			WWW: "https://bit2me.com",
			Doc: []string{
				"https://api.bit2me.com",
				"https://github.com/bit2me-devs/trading-spot-samples",
			},
			Fees: "https://support.bit2me.com/en/support/solutions/articles/35000172197-what-are-the-fees-for-the-bit2me-pro-service-",
		},
		RequiredCredentials: exchange.RequiredCredentials{APIKey: true, Secret: true},
		API: exchange.API{
			tierPublic: {
				"get": {
					"v1/trading/market-config",
					"v1/trading/candle",
					"v2/trading/order-book",
					"v2/trading/tickers",
					"v1/trading/trade/last",
				},
			},
			tierPrivate: {
				"get": {
					"v1/trading/order",
					"v1/trading/order/{uuid}",
					"v1/trading/order/{uuid}/trades",
					"v1/trading/trade",
					"v1/trading/wallet/balance",
				},
				"post": {
					"v1/trading/order",
				},
				"delete": {
					"v1/trading/order/{uuid}",
				},
			},
		},
		Fees: exchange.Fees{
			Trading: exchange.TradingFees{
				TierBased:  exchange.Bool(true),
				Percentage: exchange.Bool(true),
				Taker:      exchange.DecStr("0.0026"),
				Maker:      exchange.DecStr("0.0016"),
				TakerTiers: exchange.Tiers(
					[2]string{"0", "0.006"},
					[2]string{"2001", "0.003"},
					[2]string{"50001", "0.0026"},
					[2]string{"250001", "0.0016"},
					[2]string{"500001", "0.0015"},
					[2]string{"1000001", "0.0014"},
					[2]string{"5000001", "0.0013"},
					[2]string{"25000001", "0.0012"},
					[2]string{"75000001", "0.0011"},
					[2]string{"250000000", "0.001"},
				),
				MakerTiers: exchange.Tiers(
					[2]string{"0", "0.005"},
					[2]string{"2001", "0.002"},
					[2]string{"50001", "0.0016"},
					[2]string{"250001", "0.0008"},
					[2]string{"500001", "0.0006"},
					[2]string{"1000001", "0.0004"},
					[2]string{"5000001", "0.0003"},
					[2]string{"25000001", "0.0002"},
					[2]string{"75000001", "0.0001"},
					[2]string{"250000000", "0.0"},
				),
			},
		},
		Exceptions: exceptions,
	})
}

// Sign adds the query string, and for private calls the nonce and a
// base64 HMAC-SHA512 over the SHA256 digest of "nonce:url[:body]".
func (c *Client) Sign(req exchange.Request) (exchange.SignedRequest, error) {
	endpoint := "/" + exchange.ImplodeParams(req.Path, req.Params)
	query := exchange.Omit(req.Params, exchange.ExtractParams(req.Path)...)
	if req.Method == http.MethodGet && len(query) > 0 {
		endpoint += "?" + exchange.URLEncode(query)
	}

	headers := map[string]string{}
	for k, v := range req.Headers {
		headers[k] = v
	}
	var body string
	if req.API == tierPrivate {
		if err := c.CheckRequiredCredentials(); err != nil {
			return exchange.SignedRequest{}, err
		}
		nonce := strconv.FormatInt(c.Nonce(), 10)
		auth := nonce + ":" + endpoint
		if req.Method == http.MethodPost {
			encoded, err := exchange.JSONEncode(query)
			if err != nil {
				return exchange.SignedRequest{}, err
			}
			body = encoded
			auth += ":" + body
		}
		cfg := c.Config()
		headers["Content-Type"] = "application/json"
		headers["x-api-key"] = cfg.APIKey
		headers["x-nonce"] = nonce
		headers["api-signature"] = Signature(auth, cfg.Secret)
	}

	base, err := c.BaseURL(req.API)
	if err != nil {
		return exchange.SignedRequest{}, err
	}
	return exchange.SignedRequest{
		URL:     base + endpoint,
		Method:  req.Method,
		Body:    body,
		Headers: headers,
	}, nil
}

// Signature computes base64(HMAC-SHA512(secret, SHA256(auth)))
func Signature(auth, secret string) string {
	digest := exchange.SHA256([]byte(auth))
	return exchange.Base64(exchange.HMAC(digest, []byte(secret), sha512.New))
}
