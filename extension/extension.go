// Package extension provides the Forge extension adapter for Bistro.
//
// It implements the forge.Extension interface to integrate Bistro
// into a Forge application with DI registration, metrics and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bistro" or "bistro" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/observability"
	"github.com/xraph/bistro/receipt"
	"github.com/xraph/bistro/store"
	"github.com/xraph/bistro/store/memory"
	"github.com/xraph/bistro/tax"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bistro"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Restaurant order lifecycle and inventory ledger engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bistro as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bistro.Bistro
	store      store.Store
	metrics    *observability.PrometheusFactory
	bistroOpts []bistro.Option
}

// New creates a new Bistro Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Bistro instance.
// This is nil until Register is called.
func (e *Extension) Engine() *bistro.Bistro { return e.engine }

// Metrics returns the Prometheus factory backing the metrics plugin, or
// nil when metrics are disabled.
func (e *Extension) Metrics() *observability.PrometheusFactory { return e.metrics }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}
	s := e.store
	if e.config.DisableMigrate {
		s = noMigrate{s}
	}

	eng := bistro.New(s, e.buildBistroOpts()...)
	eng.Plugins().WithTimeout(e.config.HookTimeout)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*bistro.Bistro, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bistro: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("bistro: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildBistroOpts constructs bistro.Option values from the resolved config.
func (e *Extension) buildBistroOpts() []bistro.Option {
	opts := make([]bistro.Option, 0, len(e.bistroOpts)+6)

	rule := tax.Rule{BasisPoints: *e.config.VATBasisPoints}
	opts = append(opts,
		bistro.WithCurrency(e.config.Currency),
		bistro.WithTaxRule(rule),
		bistro.WithPersistConfig(e.config.PersistBuffer, e.config.PersistFlushInterval),
		bistro.WithPlugin(receipt.NewTextFormatter(rule)),
		bistro.WithPlugin(receipt.NewHTMLFormatter(rule)),
	)

	if !e.config.DisableMetrics {
		e.metrics = observability.NewPrometheusFactory(ExtensionName)
		opts = append(opts, bistro.WithPlugin(observability.NewMetricsExtension(e.metrics)))
	}

	// Append any pass-through bistro options.
	opts = append(opts, e.bistroOpts...)

	return opts
}

// noMigrate leaves schema management to the caller.
type noMigrate struct {
	store.Store
}

func (noMigrate) Migrate(context.Context) error { return nil }

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bistro: configuration is required but not found in config files; " +
				"ensure 'extensions.bistro' or 'bistro' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bistro: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_metrics", e.config.DisableMetrics),
		forge.F("currency", e.config.Currency),
		forge.F("vat_basis_points", *e.config.VATBasisPoints),
		forge.F("persist_buffer", e.config.PersistBuffer),
		forge.F("persist_flush_interval", e.config.PersistFlushInterval),
		forge.F("hook_timeout", e.config.HookTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.bistro" first (namespaced pattern).
	if cm.IsSet("extensions.bistro") {
		if err := cm.Bind("extensions.bistro", &cfg); err == nil {
			e.Logger().Debug("bistro: loaded config from file",
				forge.F("key", "extensions.bistro"),
			)
			return cfg, true
		}
		e.Logger().Warn("bistro: failed to bind extensions.bistro config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "bistro" key.
	if cm.IsSet("bistro") {
		if err := cm.Bind("bistro", &cfg); err == nil {
			e.Logger().Debug("bistro: loaded config from file",
				forge.F("key", "bistro"),
			)
			return cfg, true
		}
		e.Logger().Warn("bistro: failed to bind bistro config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.VATBasisPoints == nil {
		cfg.VATBasisPoints = defaults.VATBasisPoints
	}
	if cfg.PersistBuffer == 0 {
		cfg.PersistBuffer = defaults.PersistBuffer
	}
	if cfg.PersistFlushInterval == 0 {
		cfg.PersistFlushInterval = defaults.PersistFlushInterval
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableMetrics {
		yamlConfig.DisableMetrics = true
	}

	// String and rate fields: YAML takes precedence.
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}
	if yamlConfig.VATBasisPoints == nil && programmaticConfig.VATBasisPoints != nil {
		yamlConfig.VATBasisPoints = programmaticConfig.VATBasisPoints
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PersistBuffer == 0 && programmaticConfig.PersistBuffer != 0 {
		yamlConfig.PersistBuffer = programmaticConfig.PersistBuffer
	}
	if yamlConfig.PersistFlushInterval == 0 && programmaticConfig.PersistFlushInterval != 0 {
		yamlConfig.PersistFlushInterval = programmaticConfig.PersistFlushInterval
	}
	if yamlConfig.HookTimeout == 0 && programmaticConfig.HookTimeout != 0 {
		yamlConfig.HookTimeout = programmaticConfig.HookTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
