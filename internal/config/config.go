// Package config assembles the immutable run configuration from flags and
// SNAPCOST_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults for everything the flags leave unset
const (
	DefaultAPIURL      = "https://api.firefly.ai"
	DefaultPricingFile = "snapshot-prices.json"
	DefaultBatchSize   = 500
	DefaultPageSize    = 10000
	DefaultMaxAttempts = 5
	DefaultTimeout     = 30 * time.Second
)

// Config carries everything a run needs. It is built once in cmd and
// passed by value; nothing mutates it afterwards.
type Config struct {
	APIURL     string
	AccessKey  string
	SecretKey  string
	AccountIDs []string

	PricingFile string
	OutputPath  string
	Format      string

	OrphanedOnly bool
	ParentOnly   bool
	Verbose      bool

	BatchSize      int
	PageSize       int
	MaxAttempts    int
	Timeout        time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// FromViper reads the bound flag/env values into a validated Config.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIURL:         v.GetString("api-url"),
		AccessKey:      v.GetString("access-key"),
		SecretKey:      v.GetString("secret-key"),
		AccountIDs:     v.GetStringSlice("account-id"),
		PricingFile:    v.GetString("pricing-file"),
		OutputPath:     v.GetString("out"),
		Format:         v.GetString("format"),
		OrphanedOnly:   v.GetBool("orphaned-only"),
		ParentOnly:     v.GetBool("parent-only"),
		Verbose:        v.GetBool("verbose"),
		BatchSize:      v.GetInt("batch-size"),
		PageSize:       DefaultPageSize,
		MaxAttempts:    v.GetInt("max-attempts"),
		Timeout:        DefaultTimeout,
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.PricingFile == "" {
		cfg.PricingFile = DefaultPricingFile
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = fmt.Sprintf("reports/snapshot-report-%s.csv",
			time.Now().Format("20060102-150405"))
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("access key required: set SNAPCOST_ACCESS_KEY or use --access-key")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key required: set SNAPCOST_SECRET_KEY or use --secret-key")
	}
	if c.OrphanedOnly && c.ParentOnly {
		return fmt.Errorf("--orphaned-only and --parent-only are mutually exclusive")
	}
	switch c.Format {
	case "csv", "html", "both":
	default:
		return fmt.Errorf("unknown format %q: must be csv, html, or both", c.Format)
	}
	return nil
}
