package data

import (
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/logger"
	"github.com/ducminhle1904/crypto-exchange-adapters/pkg/types"
)

const defaultCacheEntries = 32

// MemoryCache keeps candle sets in memory, evicting the oldest entry once
// maxEntries is reached. Stored and returned slices are copies.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string][]types.OHLCV
	order      []string
	maxEntries int
}

// NewMemoryCache creates a cache holding up to maxEntries candle sets; a
// non-positive value selects 32
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &MemoryCache{
		entries:    make(map[string][]types.OHLCV),
		maxEntries: maxEntries,
	}
}

func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candles, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return append([]types.OHLCV(nil), candles...), true
}

func (c *MemoryCache) Set(key string, candles []types.OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		for len(c.order) >= c.maxEntries {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = append([]types.OHLCV(nil), candles...)
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]types.OHLCV)
	c.order = nil
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedProvider wraps another DataProvider, keyed by file path
type CachedProvider struct {
	provider DataProvider
	cache    DataCache
}

// NewCachedProvider creates a new cached data provider
func NewCachedProvider(provider DataProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(0),
	}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadData loads data with caching
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	if candles, ok := p.cache.Get(source); ok {
		return candles, nil
	}

	candles, err := p.provider.LoadData(source)
	if err != nil {
		return nil, err
	}

	p.cache.Set(source, candles)
	logger.WithComponent("data").Debugf("loaded and cached %s (%d candles)", filepath.Base(source), len(candles))
	return candles, nil
}

// Invalidate forgets source after it has been rewritten
func (p *CachedProvider) Invalidate(source string) {
	p.cache.Delete(source)
}

// ValidateData validates data using the underlying provider
func (p *CachedProvider) ValidateData(data []types.OHLCV) error {
	return p.provider.ValidateData(data)
}

// GetCacheSize returns the number of cached entries
func (p *CachedProvider) GetCacheSize() int {
	return p.cache.Size()
}
