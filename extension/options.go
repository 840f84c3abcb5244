package extension

import (
	"time"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/plugin"
	"github.com/xraph/bistro/store"
)

// Option configures the Bistro Forge extension.
type Option func(*Extension)

// WithStore sets the store for the bistro engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithBistroOption passes a bistro.Option through to the underlying engine.
func WithBistroOption(opt bistro.Option) Option {
	return func(e *Extension) {
		e.bistroOpts = append(e.bistroOpts, opt)
	}
}

// WithPlugin registers a bistro plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.bistroOpts = append(e.bistroOpts, bistro.WithPlugin(p))
	}
}

// WithAuthorizer installs the engine's capability check.
func WithAuthorizer(a bistro.Authorizer) Option {
	return func(e *Extension) {
		e.bistroOpts = append(e.bistroOpts, bistro.WithAuthorizer(a))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate skips store migrations on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableMetrics skips the Prometheus metrics plugin.
func WithDisableMetrics() Option {
	return func(e *Extension) { e.config.DisableMetrics = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the currency carts and stock are priced in.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithVATBasisPoints sets the VAT rate.
func WithVATBasisPoints(bps int64) Option {
	return func(e *Extension) { e.config.VATBasisPoints = &bps }
}

// WithPersistBuffer sets the number of snapshots queued before saves
// run inline.
func WithPersistBuffer(size int) Option {
	return func(e *Extension) { e.config.PersistBuffer = size }
}

// WithPersistFlushInterval sets how often queued snapshots are written.
func WithPersistFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.PersistFlushInterval = d }
}

// WithHookTimeout bounds a single plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}
