// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/osa030/loungeclock/internal/domain/tier"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Admin   AdminConfig             `yaml:"admin"`
	Ticker  TickerConfig            `yaml:"ticker"`
	Storage StorageConfig           `yaml:"storage"`
	Lounge  LoungeConfig            `yaml:"lounge"`
	Tiers   []TierConfig            `yaml:"tiers" validate:"dive"`
	Filters map[string]FilterConfig `yaml:"filters"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr            string      `yaml:"addr" default:":8080"`
	RateLimit       float64     `yaml:"rate_limit" default:"20" validate:"gt=0"`
	RateBurst       int         `yaml:"rate_burst" default:"40" validate:"gte=1"`
	CacheTTLSeconds int         `yaml:"cache_ttl_seconds" default:"60" validate:"gte=0"`
	Hooks           HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// TickerConfig represents live refresh configuration.
type TickerConfig struct {
	IntervalMs int `yaml:"interval_ms" default:"1000" validate:"gte=100,lte=60000"`
}

// StorageConfig represents the persistence backend.
type StorageConfig struct {
	Type     string         `yaml:"type" default:"memory" validate:"oneof=memory sqlite postgres redis"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LoungeConfig represents venue settings.
type LoungeConfig struct {
	Name     string `yaml:"name" default:"Gaming Lounge"`
	Timezone string `yaml:"timezone" default:"Local"`
}

// FilterConfig represents admission filter configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// TierConfig represents one station tier of the price chart.
type TierConfig struct {
	ID                    string      `yaml:"id" validate:"required"`
	DisplayName           string      `yaml:"display_name" validate:"required"`
	Prices                PriceConfig `yaml:"prices"`
	ExtraControllerCharge float64     `yaml:"extra_controller_charge" validate:"gte=0"`
	MaxControllers        int         `yaml:"max_controllers" default:"4" validate:"gte=1"`
	Units                 int         `yaml:"units" default:"1" validate:"gte=1"`
}

// PriceConfig represents the banded prices of a tier.
type PriceConfig struct {
	Min30  float64 `yaml:"min30" validate:"gte=0"`
	Min60  float64 `yaml:"min60" validate:"gte=0"`
	Min90  float64 `yaml:"min90" validate:"gte=0"`
	Min120 float64 `yaml:"min120" validate:"gte=0"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("LOUNGE_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.setStorageSetting("dsn", v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.setStorageSetting("addr", v)
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.setStorageSetting("password", v)
	}
	if v := os.Getenv("LOUNGE_TIMEZONE"); v != "" {
		c.Lounge.Timezone = v
	}
}

func (c *Config) setStorageSetting(key, value string) {
	if c.Storage.Settings == nil {
		c.Storage.Settings = make(map[string]any)
	}
	c.Storage.Settings[key] = value
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	// Build the catalog to check tier consistency (ids, ascending prices)
	if len(c.Tiers) > 0 {
		if _, err := c.Catalog(); err != nil {
			return err
		}
	}

	return nil
}

// Location returns the lounge time zone used for "today".
func (c *Config) Location() (*time.Location, error) {
	if c.Lounge.Timezone == "" || c.Lounge.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Lounge.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timezone %s", c.Lounge.Timezone)
	}
	return loc, nil
}

// TickInterval returns the live refresh period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Ticker.IntervalMs) * time.Millisecond
}

// Catalog builds the tier catalog. An empty tier list yields the default
// price chart.
func (c *Config) Catalog() (*tier.Catalog, error) {
	if len(c.Tiers) == 0 {
		return tier.DefaultCatalog(), nil
	}

	tiers := make([]tier.Tier, 0, len(c.Tiers))
	for _, tc := range c.Tiers {
		tiers = append(tiers, tier.Tier{
			ID:          tc.ID,
			DisplayName: tc.DisplayName,
			Prices: tier.Prices{
				Min30:  decimal.NewFromFloat(tc.Prices.Min30),
				Min60:  decimal.NewFromFloat(tc.Prices.Min60),
				Min90:  decimal.NewFromFloat(tc.Prices.Min90),
				Min120: decimal.NewFromFloat(tc.Prices.Min120),
			},
			ExtraControllerCharge: decimal.NewFromFloat(tc.ExtraControllerCharge),
			MaxControllers:        tc.MaxControllers,
			Units:                 tc.Units,
		})
	}

	catalog, err := tier.NewCatalog(tiers...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tier catalog")
	}
	return catalog, nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(name string) bool {
	if fc, ok := c.Filters[name]; ok {
		return fc.Enabled
	}
	return false
}
