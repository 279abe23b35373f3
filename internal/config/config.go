// Package config loads the econcal configuration surface: provider priority
// order, identity windows and thresholds, staleness tuning, store selection,
// and audit sink settings. Sources, in order of precedence: environment
// variables, .env files, a config file (.econcal.yaml), defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/econcal/econcal/pkg/errors"
	"github.com/econcal/econcal/pkg/identity"
	"github.com/econcal/econcal/pkg/providers"
	"github.com/econcal/econcal/pkg/stale"
	"github.com/econcal/econcal/pkg/store"
)

// Config holds every externally tunable parameter. The numeric defaults are
// product-tuned constants; they are deliberately exposed as tunables rather
// than baked in.
type Config struct {
	// Provider priority order, highest first.
	ProviderOrder []string

	// Identity resolution windows and thresholds.
	NarrowWindow      time.Duration
	NarrowThreshold   float64
	WideWindow        time.Duration
	WideThreshold     float64
	FallbackWindow    time.Duration
	FallbackThreshold float64
	DriftTolerance    time.Duration
	WeeklyMaxMultiple int
	WeeklyTolerance   time.Duration

	// Staleness tuning.
	StaleDays         int
	StaleAuthority    string
	RepairMaxMultiple int

	// Store selection and batch sizing.
	StoreDriver string // "memory", "files", or "postgres"
	StoreDir    string // files driver
	PostgresDSN string // postgres driver
	ChunkSize   int

	// Audit sink. Empty brokers means log-only.
	KafkaBrokers []string
	KafkaTopic   string

	// Logging.
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, .env files, and an
// optional config file.
func Load() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("ECONCAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	v.SetConfigName(".econcal")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	// Missing config file is fine; env and defaults cover everything.
	_ = v.ReadInConfig()

	cfg := &Config{
		ProviderOrder:     v.GetStringSlice("provider_order"),
		NarrowWindow:      v.GetDuration("narrow_window"),
		NarrowThreshold:   v.GetFloat64("narrow_threshold"),
		WideWindow:        v.GetDuration("wide_window"),
		WideThreshold:     v.GetFloat64("wide_threshold"),
		FallbackWindow:    v.GetDuration("fallback_window"),
		FallbackThreshold: v.GetFloat64("fallback_threshold"),
		DriftTolerance:    v.GetDuration("drift_tolerance"),
		WeeklyMaxMultiple: v.GetInt("weekly_max_multiple"),
		WeeklyTolerance:   v.GetDuration("weekly_tolerance"),
		StaleDays:         v.GetInt("stale_days"),
		StaleAuthority:    v.GetString("stale_authority"),
		RepairMaxMultiple: v.GetInt("repair_max_multiple"),
		StoreDriver:       v.GetString("store_driver"),
		StoreDir:          v.GetString("store_dir"),
		PostgresDSN:       v.GetString("postgres_dsn"),
		ChunkSize:         v.GetInt("chunk_size"),
		KafkaBrokers:      v.GetStringSlice("kafka_brokers"),
		KafkaTopic:        v.GetString("kafka_topic"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	order := providers.DefaultOrder()
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = string(id)
	}
	v.SetDefault("provider_order", names)

	id := identity.DefaultConfig()
	v.SetDefault("narrow_window", id.NarrowWindow)
	v.SetDefault("narrow_threshold", id.NarrowThreshold)
	v.SetDefault("wide_window", id.WideWindow)
	v.SetDefault("wide_threshold", id.WideThreshold)
	v.SetDefault("fallback_window", id.FallbackWindow)
	v.SetDefault("fallback_threshold", id.FallbackThreshold)
	v.SetDefault("drift_tolerance", id.DriftTolerance)
	v.SetDefault("weekly_max_multiple", id.WeeklyMaxMultiple)
	v.SetDefault("weekly_tolerance", id.WeeklyTolerance)

	st := stale.DefaultConfig()
	v.SetDefault("stale_days", st.StaleDays)
	v.SetDefault("stale_authority", string(st.Authority))
	v.SetDefault("repair_max_multiple", st.WeeklyMaxMultiple)

	v.SetDefault("store_driver", "memory")
	v.SetDefault("store_dir", ".econcal-store")
	v.SetDefault("chunk_size", store.DefaultChunkSize)
	v.SetDefault("kafka_topic", "econcal.audit")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
}

// Validate checks the loaded configuration, including that the provider
// priority table is well-formed and the staleness authority resolvable.
func (c *Config) Validate() error {
	reg, err := c.Registry()
	if err != nil {
		return errors.NewConfigError("providers", "invalid priority order", err)
	}
	if err := reg.Validate(providers.ID(c.StaleAuthority)); err != nil {
		return errors.NewConfigError("stale", "staleness authority has no priority entry", err)
	}

	switch c.StoreDriver {
	case "memory", "files":
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.NewConfigError("store", "postgres driver requires ECONCAL_POSTGRES_DSN", nil)
		}
	default:
		return errors.NewConfigError("store", "unknown store driver "+c.StoreDriver, nil)
	}

	for key, th := range map[string]float64{
		"narrow_threshold":   c.NarrowThreshold,
		"wide_threshold":     c.WideThreshold,
		"fallback_threshold": c.FallbackThreshold,
	} {
		if th < 0 || th > 1 {
			return errors.NewConfigError("identity", key+" must be in [0,1]", nil)
		}
	}
	return nil
}

// Registry builds the provider priority registry from the configured order.
func (c *Config) Registry() (*providers.Registry, error) {
	order := make([]providers.ID, len(c.ProviderOrder))
	for i, name := range c.ProviderOrder {
		order[i] = providers.ID(name)
	}
	return providers.NewRegistry(order)
}

// IdentityConfig builds the resolver configuration.
func (c *Config) IdentityConfig() identity.Config {
	return identity.Config{
		NarrowWindow:      c.NarrowWindow,
		NarrowThreshold:   c.NarrowThreshold,
		WideWindow:        c.WideWindow,
		WideThreshold:     c.WideThreshold,
		FallbackWindow:    c.FallbackWindow,
		FallbackThreshold: c.FallbackThreshold,
		DriftTolerance:    c.DriftTolerance,
		WeeklyMaxMultiple: c.WeeklyMaxMultiple,
		WeeklyTolerance:   c.WeeklyTolerance,
	}
}

// StaleConfig builds the stale detector configuration.
func (c *Config) StaleConfig() stale.Config {
	cfg := stale.DefaultConfig()
	cfg.StaleDays = c.StaleDays
	cfg.Authority = providers.ID(c.StaleAuthority)
	cfg.WeeklyMaxMultiple = c.RepairMaxMultiple
	cfg.WeeklyTolerance = c.WeeklyTolerance
	cfg.ChunkSize = c.ChunkSize
	return cfg
}

// loadEnvFiles loads .env files before viper binds the environment.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}
