package alpaca

import (
	"net/http"
	"strings"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
)

// ID is the exchange id used in config, metrics and error feedback
const ID = "alpaca"

// Client is the Alpaca crypto adapter. Trading endpoints live on the trader
// API, market data on the data API.
type Client struct {
	*exchange.Client
}

// New creates an Alpaca client
func New(cfg exchange.Config) *Client {
	c := &Client{}
	c.Client = exchange.NewClient(Describe(), cfg, c)
	return c
}

// Describe returns the static Alpaca table merged over the shared defaults
func Describe() exchange.Describe {
	return exchange.MergeDescribe(exchange.BaseDescribe(), exchange.Describe{
		ID:            ID,
		Name:          "Alpaca",
		Countries:     []string{"US"},
		RateLimit:     333,
		Hostname:      "alpaca.markets",
		Pro:           true,
		PrecisionMode: exchange.TickSize,
		Has: map[exchange.Capability]bool{
			exchange.CapFetchTime:         true,
			exchange.CapFetchMarkets:      true,
			exchange.CapFetchOrderBook:    true,
			exchange.CapFetchOHLCV:        true,
			exchange.CapFetchTrades:       true,
			exchange.CapCreateOrder:       true,
			exchange.CapCancelOrder:       true,
			exchange.CapCancelAllOrders:   true,
			exchange.CapFetchOrder:        true,
			exchange.CapFetchOrders:       true,
			exchange.CapFetchOpenOrders:   true,
			exchange.CapFetchClosedOrders: true,
		},
		URLs: exchange.URLs{
			WWW: "https://alpaca.markets",
			API: map[string]string{
				"broker": "https://broker-api.{hostname}",
				"trader": "https://api.{hostname}",
				"market": "https://data.{hostname}",
			},
			Test: map[string]string{
				"broker": "https://broker-api.sandbox.{hostname}",
				"trader": "https://paper-api.{hostname}",
				"market": "https://data.sandbox.{hostname}",
			},
			Doc:  []string{"https://alpaca.markets/docs/"},
			Fees: "https://docs.alpaca.markets/docs/crypto-fees",
		},
		API: exchange.API{
			tierTrader: {
				"get": {
					"v2/account",
					"v2/orders",
					"v2/orders/{order_id}",
					"v2/positions",
					"v2/positions/{symbol_or_asset_id}",
					"v2/account/portfolio/history",
					"v2/watchlists",
					"v2/watchlists/{watchlist_id}",
					"v2/watchlists:by_name",
					"v2/account/configurations",
					"v2/account/activities",
					"v2/account/activities/{activity_type}",
					"v2/calendar",
					"v2/clock",
					"v2/assets",
					"v2/assets/{symbol_or_asset_id}",
					"v2/corporate_actions/announcements/{id}",
					"v2/corporate_actions/announcements",
				},
				"post": {
					"v2/orders",
					"v2/watchlists",
					"v2/watchlists/{watchlist_id}",
					"v2/watchlists:by_name",
				},
				"put": {
					"v2/watchlists/{watchlist_id}",
					"v2/watchlists:by_name",
				},
				"patch": {
					"v2/orders/{order_id}",
					"v2/account/configurations",
				},
				"delete": {
					"v2/orders",
					"v2/orders/{order_id}",
					"v2/positions",
					"v2/positions/{symbol_or_asset_id}",
					"v2/watchlists/{watchlist_id}",
					"v2/watchlists:by_name",
					"v2/watchlists/{watchlist_id}/{symbol}",
				},
			},
			tierMarketPublic: {
				"get": {
					pathBars,
					pathLatestBars,
					pathLatestOrderBooks,
					"v1beta3/crypto/{loc}/latest/quotes",
					pathLatestTrades,
					"v1beta3/crypto/{loc}/quotes",
					"v1beta3/crypto/{loc}/snapshots",
					pathTrades,
				},
			},
			tierMarketPrivate: {
				"get": {
					"v1beta1/corporate-actions",
					"v1beta1/forex/latest/rates",
					"v1beta1/forex/rates",
					"v1beta1/logos/{symbol}",
					"v1beta1/news",
					"v1beta1/screener/stocks/most-actives",
					"v1beta1/screener/{market_type}/movers",
					"v2/stocks/auctions",
					"v2/stocks/bars",
					"v2/stocks/bars/latest",
					"v2/stocks/meta/conditions/{ticktype}",
					"v2/stocks/meta/exchanges",
					"v2/stocks/quotes",
					"v2/stocks/quotes/latest",
					"v2/stocks/snapshots",
					"v2/stocks/trades",
					"v2/stocks/trades/latest",
					"v2/stocks/{symbol}/auctions",
					"v2/stocks/{symbol}/bars",
					"v2/stocks/{symbol}/bars/latest",
					"v2/stocks/{symbol}/quotes",
					"v2/stocks/{symbol}/quotes/latest",
					"v2/stocks/{symbol}/snapshot",
					"v2/stocks/{symbol}/trades",
					"v2/stocks/{symbol}/trades/latest",
				},
			},
		},
		Timeframes: map[string]string{
			"1m":  "1min",
			"3m":  "3min",
			"5m":  "5min",
			"15m": "15min",
			"30m": "30min",
			"1h":  "1H",
			"2h":  "2H",
			"4h":  "4H",
			"6h":  "6H",
			"8h":  "8H",
			"12h": "12H",
			"1d":  "1D",
			"3d":  "3D",
			"1w":  "1W",
			"1M":  "1M",
		},
		RequiredCredentials: exchange.RequiredCredentials{APIKey: true, Secret: true},
		Fees: exchange.Fees{
			Trading: exchange.TradingFees{
				TierBased:  exchange.Bool(true),
				Percentage: exchange.Bool(true),
				Maker:      exchange.DecStr("0.0015"),
				Taker:      exchange.DecStr("0.0025"),
				TakerTiers: exchange.Tiers(
					[2]string{"0", "0.0025"},
					[2]string{"100000", "0.0022"},
					[2]string{"500000", "0.0020"},
					[2]string{"1000000", "0.0018"},
					[2]string{"10000000", "0.0015"},
					[2]string{"25000000", "0.0013"},
					[2]string{"50000000", "0.0012"},
					[2]string{"100000000", "0.001"},
				),
				MakerTiers: exchange.Tiers(
					[2]string{"0", "0.0015"},
					[2]string{"100000", "0.0012"},
					[2]string{"500000", "0.001"},
					[2]string{"1000000", "0.0008"},
					[2]string{"10000000", "0.0005"},
					[2]string{"25000000", "0.0002"},
					[2]string{"50000000", "0.0002"},
					[2]string{"100000000", "0.00"},
				),
			},
		},
		Options: exchange.Options{
			DefaultTimeInForce:  "gtc",
			ClientOrderIDPrefix: "cea_{id}",
			FetchTradesMethod:   string(TradesHistorical),
			FetchOHLCVMethod:    string(BarsHistorical),
			DefaultLocation:     "us",
		},
		Exceptions: exceptions,
	})
}

// Access tiers are "<url key>/<visibility>"
const (
	tierTrader        = "trader/private"
	tierMarketPublic  = "market/public"
	tierMarketPrivate = "market/private"
)

// Sign builds the request URL and attaches API key headers to private tiers
func (c *Client) Sign(req exchange.Request) (exchange.SignedRequest, error) {
	urlKey, visibility, _ := strings.Cut(req.API, "/")
	base, err := c.BaseURL(urlKey)
	if err != nil {
		return exchange.SignedRequest{}, err
	}

	endpoint := "/" + exchange.ImplodeParams(req.Path, req.Params)
	headers := map[string]string{}
	for k, v := range req.Headers {
		headers[k] = v
	}
	cfg := c.Config()
	if cfg.PartnerID != "" {
		headers["APCA-PARTNER-ID"] = cfg.PartnerID
	}
	if visibility == "private" {
		headers["APCA-API-KEY-ID"] = cfg.APIKey
		headers["APCA-API-SECRET-KEY"] = cfg.Secret
	}

	var body string
	query := exchange.Omit(req.Params, exchange.ExtractParams(req.Path)...)
	if len(query) > 0 {
		if req.Method == http.MethodGet || req.Method == http.MethodDelete {
			endpoint += "?" + exchange.URLEncode(query)
		} else {
			body, err = exchange.JSONEncode(query)
			if err != nil {
				return exchange.SignedRequest{}, err
			}
			headers["Content-Type"] = "application/json"
		}
	}

	return exchange.SignedRequest{
		URL:     base + endpoint,
		Method:  req.Method,
		Body:    body,
		Headers: headers,
	}, nil
}
