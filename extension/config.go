package extension

import "time"

// Config holds the Bistro extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bistro" or "bistro" keys).
type Config struct {
	// DisableMigrate skips store migrations on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableMetrics skips registering the Prometheus metrics plugin.
	DisableMetrics bool `json:"disable_metrics" mapstructure:"disable_metrics" yaml:"disable_metrics"`

	// Currency is the ISO code carts and stock are priced in (default: "try").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// VATBasisPoints is the VAT rate in basis points (default: 1800, i.e. 18%).
	// Nil means unset; zero is a valid rate.
	VATBasisPoints *int64 `json:"vat_basis_points" mapstructure:"vat_basis_points" yaml:"vat_basis_points"`

	// PersistBuffer is the number of snapshots queued before saves run
	// on the caller's goroutine (default: 1024).
	PersistBuffer int `json:"persist_buffer" mapstructure:"persist_buffer" yaml:"persist_buffer"`

	// PersistFlushInterval is how often queued snapshots are written
	// (default: 500ms).
	PersistFlushInterval time.Duration `json:"persist_flush_interval" mapstructure:"persist_flush_interval" yaml:"persist_flush_interval"`

	// HookTimeout bounds a single plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	vat := int64(1800)
	return Config{
		Currency:             "try",
		VATBasisPoints:       &vat,
		PersistBuffer:        1024,
		PersistFlushInterval: 500 * time.Millisecond,
		HookTimeout:          5 * time.Second,
	}
}
