package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange"
	"github.com/ducminhle1904/crypto-exchange-adapters/internal/exchange/adapters"
)

// DefaultFile is looked up under configs/ when no path is given
const DefaultFile = "exchanges.yaml"

// Config is the content of configs/exchanges.yaml after environment overrides
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Log       LogConfig       `yaml:"log"`
	Exchanges []ExchangeEntry `yaml:"exchanges"`
}

// LogConfig enables rotated file logging
type LogConfig struct {
	File       bool   `yaml:"file"`
	Dir        string `yaml:"dir"`
	Name       string `yaml:"name"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ExchangeEntry is one exchange block of the file
type ExchangeEntry struct {
	Name      string               `yaml:"name"`
	APIKey    string               `yaml:"api_key"`
	Secret    string               `yaml:"secret"`
	UID       string               `yaml:"uid"`
	Token     string               `yaml:"token"`
	PartnerID string               `yaml:"partner_id"`
	Sandbox   bool                 `yaml:"sandbox"`
	Hostname  string               `yaml:"hostname"`
	Timeout   time.Duration        `yaml:"timeout"`
	RateLimit float64              `yaml:"rate_limit"`
	Burst     int                  `yaml:"burst"`
	Retry     exchange.RetryConfig `yaml:"retry"`
	URLs      map[string]string    `yaml:"urls"`
	Options   OptionsEntry         `yaml:"options"`
}

// OptionsEntry mirrors exchange.Options for the file format
type OptionsEntry struct {
	DefaultType         string            `yaml:"default_type"`
	DefaultTimeInForce  string            `yaml:"default_time_in_force"`
	ClientOrderIDPrefix string            `yaml:"client_order_id_prefix"`
	FetchTradesMethod   string            `yaml:"fetch_trades_method"`
	FetchOHLCVMethod    string            `yaml:"fetch_ohlcv_method"`
	DefaultLocation     string            `yaml:"default_location"`
	CurrencyIDs         []string          `yaml:"currency_ids_for_market_parse"`
	Extra               map[string]string `yaml:"extra"`
}

// LookupFunc reads one environment variable
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads a dotenv file into the process environment. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load environment file %s: %w", path, err)
	}
	return nil
}

// Load reads the config file and applies process environment overrides
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment. An empty path reads
// configs/exchanges.yaml when it exists and starts empty otherwise.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	file, explicit := ResolvePath(path)
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
	}

	factory := adapters.NewFactory(nil)
	cfg.setDefaults()
	cfg.applyEnv(lookup, factory.GetSupportedExchanges())
	if err := cfg.validate(factory); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ResolvePath places bare names under configs/ and adds the .yaml extension.
// The flag reports whether the caller named the file.
func ResolvePath(path string) (string, bool) {
	if path == "" {
		return filepath.Join("configs", DefaultFile), false
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".yaml" && ext != ".yml" {
		path += ".yaml"
	}
	if !strings.ContainsAny(path, "/\\") {
		path = filepath.Join("configs", path)
	}
	return path, true
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Log.File && c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	for i := range c.Exchanges {
		c.Exchanges[i].Name = strings.ToLower(strings.TrimSpace(c.Exchanges[i].Name))
	}
}

// applyEnv overrides credentials and sandbox per exchange from <ID>_API_KEY,
// <ID>_SECRET, <ID>_UID, <ID>_TOKEN, <ID>_PARTNER_ID and <ID>_SANDBOX. An
// exchange that only appears in the environment is added.
func (c *Config) applyEnv(lookup LookupFunc, names []string) {
	if lookup == nil {
		return
	}
	if level, ok := lookup("LOG_LEVEL"); ok && level != "" {
		c.LogLevel = level
	}

	for _, name := range names {
		prefix := strings.ToUpper(name) + "_"
		get := func(suffix string) (string, bool) {
			v, ok := lookup(prefix + suffix)
			return v, ok && v != ""
		}

		entry := c.entry(name)
		found := entry != nil
		if !found {
			entry = &ExchangeEntry{Name: name}
		}

		touched := false
		set := func(suffix string, dst *string) {
			if v, ok := get(suffix); ok {
				*dst = v
				touched = true
			}
		}
		set("API_KEY", &entry.APIKey)
		set("SECRET", &entry.Secret)
		set("UID", &entry.UID)
		set("TOKEN", &entry.Token)
		set("PARTNER_ID", &entry.PartnerID)
		if v, ok := get("SANDBOX"); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				entry.Sandbox = b
				touched = true
			}
		}

		if !found && touched {
			c.Exchanges = append(c.Exchanges, *entry)
		}
	}
}

func (c *Config) entry(name string) *ExchangeEntry {
	for i := range c.Exchanges {
		if c.Exchanges[i].Name == name {
			return &c.Exchanges[i]
		}
	}
	return nil
}

func (c *Config) validate(factory *adapters.Factory) error {
	seen := make(map[string]bool, len(c.Exchanges))
	for _, e := range c.Exchanges {
		if seen[e.Name] {
			return fmt.Errorf("exchange %q is configured twice", e.Name)
		}
		seen[e.Name] = true
		if e.Timeout < 0 {
			return fmt.Errorf("exchange %q: timeout must not be negative", e.Name)
		}
		if err := factory.ValidateConfig(e.ExchangeConfig()); err != nil {
			return fmt.Errorf("exchange %q: %w", e.Name, err)
		}
	}
	return nil
}

// Names returns the configured exchange names in sorted order
func (c *Config) Names() []string {
	out := make([]string, 0, len(c.Exchanges))
	for _, e := range c.Exchanges {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

// Exchange returns the client settings of name. Exchanges missing from the
// file get public-only settings.
func (c *Config) Exchange(name string) exchange.ExchangeConfig {
	name = strings.ToLower(strings.TrimSpace(name))
	if e := c.entry(name); e != nil {
		return e.ExchangeConfig()
	}
	return exchange.ExchangeConfig{Name: name}
}

// ExchangeConfig converts the entry into factory input
func (e ExchangeEntry) ExchangeConfig() exchange.ExchangeConfig {
	return exchange.ExchangeConfig{
		Name: e.Name,
		Client: exchange.Config{
			APIKey:    e.APIKey,
			Secret:    e.Secret,
			UID:       e.UID,
			Token:     e.Token,
			PartnerID: e.PartnerID,
			Sandbox:   e.Sandbox,
			Hostname:  e.Hostname,
			Timeout:   e.Timeout,
			RateLimit: e.RateLimit,
			Burst:     e.Burst,
			Retry:     e.Retry,
			URLs:      e.URLs,
			Options: exchange.Options{
				DefaultType:               e.Options.DefaultType,
				DefaultTimeInForce:        e.Options.DefaultTimeInForce,
				ClientOrderIDPrefix:       e.Options.ClientOrderIDPrefix,
				FetchTradesMethod:         e.Options.FetchTradesMethod,
				FetchOHLCVMethod:          e.Options.FetchOHLCVMethod,
				DefaultLocation:           e.Options.DefaultLocation,
				CurrencyIDsForMarketParse: e.Options.CurrencyIDs,
				Extra:                     e.Options.Extra,
			},
		},
	}
}
