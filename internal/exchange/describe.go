package exchange

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PrecisionMode tells how market precision values are expressed
type PrecisionMode int

const (
	DecimalPlaces PrecisionMode = iota
	SignificantDigits
	TickSize
)

// Capability names a unified operation
type Capability string

const (
	CapFetchTime                    Capability = "fetchTime"
	CapFetchStatus                  Capability = "fetchStatus"
	CapFetchMarkets                 Capability = "fetchMarkets"
	CapFetchCurrencies              Capability = "fetchCurrencies"
	CapFetchTicker                  Capability = "fetchTicker"
	CapFetchTickers                 Capability = "fetchTickers"
	CapFetchBidsAsks                Capability = "fetchBidsAsks"
	CapFetchOrderBook               Capability = "fetchOrderBook"
	CapFetchOHLCV                   Capability = "fetchOHLCV"
	CapFetchTrades                  Capability = "fetchTrades"
	CapFetchBalance                 Capability = "fetchBalance"
	CapCreateOrder                  Capability = "createOrder"
	CapCancelOrder                  Capability = "cancelOrder"
	CapCancelAllOrders              Capability = "cancelAllOrders"
	CapFetchOrder                   Capability = "fetchOrder"
	CapFetchOrders                  Capability = "fetchOrders"
	CapFetchOpenOrders              Capability = "fetchOpenOrders"
	CapFetchClosedOrders            Capability = "fetchClosedOrders"
	CapFetchCanceledAndClosedOrders Capability = "fetchCanceledAndClosedOrders"
	CapFetchOrderTrades             Capability = "fetchOrderTrades"
	CapFetchMyTrades                Capability = "fetchMyTrades"
	CapFetchDeposits                Capability = "fetchDeposits"
	CapFetchWithdrawals             Capability = "fetchWithdrawals"
	CapFetchDepositAddress          Capability = "fetchDepositAddress"
	CapFetchLedger                  Capability = "fetchLedger"
	CapClosePosition                Capability = "closePosition"
)

// Endpoints maps an HTTP verb to the paths served under it
type Endpoints map[string][]string

// API maps an access tier ("public", "private", "trader", "v1", ...) to its endpoints
type API map[string]Endpoints

// Contains reports whether tier serves method+path
func (a API) Contains(tier, method, path string) bool {
	for _, p := range a[tier][method] {
		if p == path {
			return true
		}
	}
	return false
}

// FeeTier is a [threshold, rate] pair of a volume-tiered schedule
type FeeTier struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// Tiers builds a fee schedule from ascending [threshold, rate] string pairs
func Tiers(pairs ...[2]string) []FeeTier {
	out := make([]FeeTier, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, FeeTier{
			Threshold: decimal.RequireFromString(p[0]),
			Rate:      decimal.RequireFromString(p[1]),
		})
	}
	return out
}

// TradingFees is the maker/taker schedule of an exchange
type TradingFees struct {
	TierBased  *bool
	Percentage *bool
	Taker      decimal.NullDecimal
	Maker      decimal.NullDecimal
	FeeSide    string
	TakerTiers []FeeTier
	MakerTiers []FeeTier
}

// RateFor returns the tier rate for a 30-day volume
func (f TradingFees) RateFor(volume decimal.Decimal, taker bool) decimal.NullDecimal {
	tiers := f.MakerTiers
	flat := f.Maker
	if taker {
		tiers = f.TakerTiers
		flat = f.Taker
	}
	if len(tiers) == 0 {
		return flat
	}
	rate := tiers[0].Rate
	for _, t := range tiers {
		if volume.GreaterThanOrEqual(t.Threshold) {
			rate = t.Rate
		}
	}
	return decimal.NewNullDecimal(rate)
}

// Fees groups all fee schedules
type Fees struct {
	Trading TradingFees
}

// URLs holds the base URLs per access tier for live and sandbox environments
type URLs struct {
	Logo string
	API  map[string]string
	Test map[string]string
	WWW  string
	Doc  []string
	Fees string
}

// RequiredCredentials lists which credentials private calls need
type RequiredCredentials struct {
	APIKey bool
	Secret bool
	UID    bool
	Token  bool
}

// Options are adapter tunables with typed optional fields
type Options struct {
	DefaultType               string
	DefaultTimeInForce        string
	ClientOrderIDPrefix       string
	FetchTradesMethod         string
	FetchOHLCVMethod          string
	DefaultLocation           string
	CurrencyIDsForMarketParse []string
	Extra                     map[string]string
}

// Describe is the static table every adapter declares
type Describe struct {
	ID                  string
	Name                string
	Countries           []string
	Version             string
	Hostname            string
	RateLimit           float64
	Pro                 bool
	Certified           bool
	PrecisionMode       PrecisionMode
	Has                 map[Capability]bool
	URLs                URLs
	API                 API
	Fees                Fees
	Timeframes          map[string]string
	Exceptions          ErrorRules
	RequiredCredentials RequiredCredentials
	CommonCurrencies    map[string]string
	Options             Options
}

// BaseDescribe returns the shared defaults adapters are merged over
func BaseDescribe() Describe {
	yes := true
	return Describe{
		RateLimit:     2000,
		PrecisionMode: DecimalPlaces,
		Has: map[Capability]bool{
			CapFetchMarkets: true,
		},
		Fees: Fees{
			Trading: TradingFees{
				TierBased:  &yes,
				Percentage: &yes,
			},
		},
		RequiredCredentials: RequiredCredentials{APIKey: true, Secret: true},
		CommonCurrencies: map[string]string{
			"XBT":   "BTC",
			"BCC":   "BCH",
			"BCHSV": "BSV",
			"DRK":   "DASH",
		},
		Options: Options{DefaultType: "spot"},
	}
}

// MergeDescribe overlays override on base. Scalars are taken from override
// when non-zero, maps are unioned with override keys winning, slices and
// rule lists are replaced when override sets them. The result never shares
// maps with either input.
func MergeDescribe(base, override Describe) Describe {
	out := base
	out.ID = pickString(base.ID, override.ID)
	out.Name = pickString(base.Name, override.Name)
	out.Version = pickString(base.Version, override.Version)
	out.Hostname = pickString(base.Hostname, override.Hostname)
	if override.RateLimit != 0 {
		out.RateLimit = override.RateLimit
	}
	out.Pro = base.Pro || override.Pro
	out.Certified = base.Certified || override.Certified
	if override.PrecisionMode != DecimalPlaces {
		out.PrecisionMode = override.PrecisionMode
	}
	out.Countries = pickSlice(base.Countries, override.Countries)

	out.Has = make(map[Capability]bool, len(base.Has)+len(override.Has))
	for k, v := range base.Has {
		out.Has[k] = v
	}
	for k, v := range override.Has {
		out.Has[k] = v
	}

	out.URLs = mergeURLs(base.URLs, override.URLs)
	out.API = mergeAPI(base.API, override.API)
	out.Fees = Fees{Trading: mergeTradingFees(base.Fees.Trading, override.Fees.Trading)}
	out.Timeframes = mergeStringMap(base.Timeframes, override.Timeframes)
	out.CommonCurrencies = mergeStringMap(base.CommonCurrencies, override.CommonCurrencies)

	out.Exceptions = base.Exceptions
	if len(override.Exceptions.Exact) > 0 {
		out.Exceptions.Exact = append([]ErrorRule(nil), override.Exceptions.Exact...)
	}
	if len(override.Exceptions.Broad) > 0 {
		out.Exceptions.Broad = append([]ErrorRule(nil), override.Exceptions.Broad...)
	}

	rc := override.RequiredCredentials
	if rc != (RequiredCredentials{}) {
		out.RequiredCredentials = rc
	}
	out.Options = MergeOptions(base.Options, override.Options)
	return out
}

// MergeOptions overlays override on base with the same rules as MergeDescribe
func MergeOptions(base, override Options) Options {
	return Options{
		DefaultType:               pickString(base.DefaultType, override.DefaultType),
		DefaultTimeInForce:        pickString(base.DefaultTimeInForce, override.DefaultTimeInForce),
		ClientOrderIDPrefix:       pickString(base.ClientOrderIDPrefix, override.ClientOrderIDPrefix),
		FetchTradesMethod:         pickString(base.FetchTradesMethod, override.FetchTradesMethod),
		FetchOHLCVMethod:          pickString(base.FetchOHLCVMethod, override.FetchOHLCVMethod),
		DefaultLocation:           pickString(base.DefaultLocation, override.DefaultLocation),
		CurrencyIDsForMarketParse: pickSlice(base.CurrencyIDsForMarketParse, override.CurrencyIDsForMarketParse),
		Extra:                     mergeStringMap(base.Extra, override.Extra),
	}
}

// Capabilities returns the supported operation names in sorted order
func (d Describe) Capabilities() []string {
	out := make([]string, 0, len(d.Has))
	for k, v := range d.Has {
		if v {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}

func pickString(base, override string) string {
	if override != "" {
		return override
	}
	return base
}

func pickSlice(base, override []string) []string {
	if len(override) > 0 {
		return append([]string(nil), override...)
	}
	if base == nil {
		return nil
	}
	return append([]string(nil), base...)
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeURLs(base, override URLs) URLs {
	return URLs{
		Logo: pickString(base.Logo, override.Logo),
		API:  mergeStringMap(base.API, override.API),
		Test: mergeStringMap(base.Test, override.Test),
		WWW:  pickString(base.WWW, override.WWW),
		Doc:  pickSlice(base.Doc, override.Doc),
		Fees: pickString(base.Fees, override.Fees),
	}
}

func mergeAPI(base, override API) API {
	out := API{}
	for _, src := range []API{base, override} {
		for tier, endpoints := range src {
			if out[tier] == nil {
				out[tier] = Endpoints{}
			}
			for method, paths := range endpoints {
				out[tier][method] = append([]string(nil), paths...)
			}
		}
	}
	return out
}

func mergeTradingFees(base, override TradingFees) TradingFees {
	out := base
	if override.TierBased != nil {
		out.TierBased = override.TierBased
	}
	if override.Percentage != nil {
		out.Percentage = override.Percentage
	}
	if override.Taker.Valid {
		out.Taker = override.Taker
	}
	if override.Maker.Valid {
		out.Maker = override.Maker
	}
	out.FeeSide = pickString(base.FeeSide, override.FeeSide)
	if len(override.TakerTiers) > 0 {
		out.TakerTiers = append([]FeeTier(nil), override.TakerTiers...)
	}
	if len(override.MakerTiers) > 0 {
		out.MakerTiers = append([]FeeTier(nil), override.MakerTiers...)
	}
	return out
}
