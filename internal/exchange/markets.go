package exchange

import (
	"sort"
	"strings"

	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

// Markets is an immutable snapshot of the instruments and currencies of one
// exchange. It is built once by LoadMarkets or injected with SetMarkets and
// only read afterwards, so it is safe for concurrent use.
type Markets struct {
	bySymbol       map[string]types.Market
	byID           map[string][]types.Market
	currencies     map[string]types.Currency
	currenciesByID map[string]types.Currency
	symbols        []string
	codes          []string
}

// NewMarkets indexes markets by symbol and id and currencies by code and id
func NewMarkets(markets []types.Market, currencies []types.Currency) *Markets {
	m := &Markets{
		bySymbol:       make(map[string]types.Market, len(markets)),
		byID:           make(map[string][]types.Market, len(markets)),
		currencies:     make(map[string]types.Currency, len(currencies)),
		currenciesByID: make(map[string]types.Currency, len(currencies)),
	}
	for _, mk := range markets {
		if _, dup := m.bySymbol[mk.Symbol]; !dup {
			m.symbols = append(m.symbols, mk.Symbol)
		}
		m.bySymbol[mk.Symbol] = mk
		m.byID[mk.ID] = append(m.byID[mk.ID], mk)
	}
	if len(currencies) == 0 {
		currencies = currenciesFromMarkets(markets)
	}
	for _, c := range currencies {
		if _, dup := m.currencies[c.Code]; !dup {
			m.codes = append(m.codes, c.Code)
		}
		m.currencies[c.Code] = c
		m.currenciesByID[c.ID] = c
	}
	sort.Strings(m.symbols)
	sort.Strings(m.codes)
	return m
}

// currenciesFromMarkets lists the base and quote assets of markets for
// exchanges without a currencies endpoint
func currenciesFromMarkets(markets []types.Market) []types.Currency {
	seen := make(map[string]bool)
	var out []types.Currency
	add := func(id, code string) {
		if id == "" || code == "" || seen[code] {
			return
		}
		seen[code] = true
		out = append(out, types.Currency{ID: id, Code: code})
	}
	for _, mk := range markets {
		add(mk.BaseID, mk.Base)
		add(mk.QuoteID, mk.Quote)
	}
	return out
}

// Market looks a market up by unified symbol
func (m *Markets) Market(symbol string) (types.Market, bool) {
	mk, ok := m.bySymbol[symbol]
	return mk, ok
}

// MarketByID looks a market up by exchange id, preferring the first declared
func (m *Markets) MarketByID(id string) (types.Market, bool) {
	list := m.byID[id]
	if len(list) == 0 {
		return types.Market{}, false
	}
	return list[0], true
}

// Symbols returns the sorted unified symbols
func (m *Markets) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// All returns every market sorted by symbol
func (m *Markets) All() []types.Market {
	out := make([]types.Market, 0, len(m.symbols))
	for _, s := range m.symbols {
		out = append(out, m.bySymbol[s])
	}
	return out
}

// Len returns the number of markets
func (m *Markets) Len() int {
	return len(m.symbols)
}

// Currency looks a currency up by unified code
func (m *Markets) Currency(code string) (types.Currency, bool) {
	c, ok := m.currencies[code]
	return c, ok
}

// CurrencyByID looks a currency up by exchange id
func (m *Markets) CurrencyByID(id string) (types.Currency, bool) {
	c, ok := m.currenciesByID[id]
	return c, ok
}

// Currencies returns every currency sorted by code
func (m *Markets) Currencies() []types.Currency {
	out := make([]types.Currency, 0, len(m.codes))
	for _, code := range m.codes {
		out = append(out, m.currencies[code])
	}
	return out
}

// CurrencyIDs returns the exchange ids of all currencies, sorted
func (m *Markets) CurrencyIDs() []string {
	out := make([]string, 0, len(m.currenciesByID))
	for id := range m.currenciesByID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CommonCurrencyCode maps an upper-cased exchange code through the alias table
func CommonCurrencyCode(code string, aliases map[string]string) string {
	code = strings.ToUpper(code)
	if alias, ok := aliases[code]; ok {
		return alias
	}
	return code
}

// Symbol builds BASE/QUOTE[:SETTLE]
func Symbol(base, quote, settle string) string {
	s := base + "/" + quote
	if settle != "" {
		s += ":" + settle
	}
	return s
}
