package bistro

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/plugin"
	"github.com/xraph/bistro/store"
	"github.com/xraph/bistro/tax"
)

// Defaults for the persistence worker.
const (
	DefaultPersistBuffer        = 1024
	DefaultPersistFlushInterval = 500 * time.Millisecond
	DefaultCurrency             = "try"
)

// Bistro is the order and inventory engine. It owns the store, the plugin
// registry and the background persistence worker, and hands out one
// Session per tenant.
type Bistro struct {
	store      store.Store
	plugins    *plugin.Registry
	logger     *slog.Logger
	authorizer Authorizer
	now        func() time.Time

	// Pricing defaults for new carts
	currency string
	taxRule  tax.Rule

	// Background persistence
	persistBuffer        chan snapshot
	stopChan             chan struct{}
	wg                   sync.WaitGroup
	persistBufferSize    int
	persistFlushInterval time.Duration

	saveMu    sync.Mutex
	lastSaved map[string]uint64

	mu       sync.Mutex
	started  bool
	stopped  bool
	sessions map[string]*Session
}

// New creates a new Bistro instance.
func New(s store.Store, opts ...Option) *Bistro {
	b := &Bistro{
		store:                s,
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		authorizer:           AllowAll,
		now:                  func() time.Time { return time.Now().UTC() },
		currency:             DefaultCurrency,
		taxRule:              tax.Default,
		stopChan:             make(chan struct{}),
		persistBufferSize:    DefaultPersistBuffer,
		persistFlushInterval: DefaultPersistFlushInterval,
		lastSaved:            make(map[string]uint64),
		sessions:             make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(b)
	}
	b.persistBuffer = make(chan snapshot, b.persistBufferSize)

	return b
}

// Option configures a Bistro instance.
type Option func(*Bistro)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bistro) {
		b.logger = logger
		b.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(b *Bistro) {
		_ = b.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCurrency sets the currency new carts and inventory ledgers use.
func WithCurrency(currency string) Option {
	return func(b *Bistro) {
		b.currency = strings.ToLower(currency)
	}
}

// WithTaxRule sets the VAT rule new carts are priced with.
func WithTaxRule(r tax.Rule) Option {
	return func(b *Bistro) {
		b.taxRule = r
	}
}

// WithPersistConfig configures the persistence worker. buffer is the
// number of queued snapshots before saves fall back to the caller's
// goroutine; flushInterval is how often queued snapshots are written.
func WithPersistConfig(buffer int, flushInterval time.Duration) Option {
	return func(b *Bistro) {
		if buffer > 0 {
			b.persistBufferSize = buffer
		}
		if flushInterval > 0 {
			b.persistFlushInterval = flushInterval
		}
	}
}

// WithAuthorizer installs the capability check run before every mutation.
func WithAuthorizer(a Authorizer) Option {
	return func(b *Bistro) {
		if a != nil {
			b.authorizer = a
		}
	}
}

// WithClock overrides the clock used to stamp orders and batches.
func WithClock(now func() time.Time) Option {
	return func(b *Bistro) {
		b.now = func() time.Time { return now().UTC() }
	}
}

// Plugins returns the plugin registry.
func (b *Bistro) Plugins() *plugin.Registry { return b.plugins }

// Store returns the underlying store.
func (b *Bistro) Store() store.Store { return b.store }

// Logger returns the engine logger.
func (b *Bistro) Logger() *slog.Logger { return b.logger }

// Currency returns the engine's default currency.
func (b *Bistro) Currency() string { return b.currency }

// TaxRule returns the engine's default VAT rule.
func (b *Bistro) TaxRule() tax.Rule { return b.taxRule }

// Start migrates the store, initializes plugins and begins the
// persistence worker.
func (b *Bistro) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	if b.stopped {
		b.mu.Unlock()
		return ErrStopped
	}
	b.mu.Unlock()

	if err := b.taxRule.Validate(); err != nil {
		return fmt.Errorf("bistro: %w", err)
	}

	// Migrate database
	if err := b.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	// Initialize plugins
	b.plugins.EmitInit(ctx, b)

	b.mu.Lock()
	b.started = true
	b.mu.Unlock()

	// Start persist flush worker
	b.wg.Add(1)
	go b.persistFlushWorker(context.WithoutCancel(ctx))

	b.logger.Info("bistro started",
		"currency", b.currency,
		"vat_bps", b.taxRule.BasisPoints,
		"persist_buffer", b.persistBufferSize,
		"flush_interval", b.persistFlushInterval,
	)

	return nil
}

// Stop rejects further mutations, drains the persistence worker and
// closes the store.
func (b *Bistro) Stop() error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	wasStarted := b.started
	b.stopped = true
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	// Wait out in-flight mutations; they enqueue before releasing the lock.
	for _, s := range sessions {
		s.mu.Lock()
		s.mu.Unlock() //nolint:staticcheck // barrier
	}

	close(b.stopChan)
	if wasStarted {
		b.wg.Wait()
	}

	ctx := context.Background()
	b.plugins.EmitShutdown(ctx)

	b.logger.Info("bistro stopped", "sessions", len(sessions))
	return b.store.Close()
}

// Open returns the session for tenantID, loading its orders and stock
// through the store on first use. Later calls return the same session.
//
// Persisted orders and batches must be in the engine's currency; a store
// written by an engine with another currency is rejected with
// ErrCurrencyMismatch.
func (b *Bistro) Open(ctx context.Context, tenantID string) (*Session, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	if s, err := b.session(tenantID); s != nil || err != nil {
		return s, err
	}

	// Load without b.mu; every session mutation takes it.
	orders, err := b.store.LoadOrders(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("bistro: load orders for %s: %w", tenantID, err)
	}
	batches, err := b.store.LoadInventory(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("bistro: load inventory for %s: %w", tenantID, err)
	}

	for _, o := range orders {
		if err := o.Total.CheckCurrency(b.currency); err != nil {
			return nil, fmt.Errorf("bistro: load order %s: %w", o.ID, err)
		}
	}
	ol, err := order.NewLedger(tenantID, orders)
	if err != nil {
		return nil, err
	}
	il, err := inventory.NewLedger(tenantID, b.currency, batches, inventory.WithClock(b.now))
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return nil, ErrStopped
	}
	// A concurrent Open may have won the race.
	if s, ok := b.sessions[tenantID]; ok {
		return s, nil
	}

	s := &Session{
		engine:   b,
		tenantID: tenantID,
		orders:   ol,
		stock:    il,
	}
	b.sessions[tenantID] = s

	b.logger.Debug("tenant session opened",
		"tenant_id", tenantID,
		"orders", ol.Len(),
		"batches", len(batches),
	)
	return s, nil
}

// session returns the cached session for tenantID, or an error when the
// engine cannot open sessions. Both are nil when a load is needed.
func (b *Bistro) session(tenantID string) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.stopped:
		return nil, ErrStopped
	case !b.started:
		return nil, ErrNotStarted
	}
	return b.sessions[tenantID], nil
}

// Sessions lists the tenants with an open session.
func (b *Bistro) Sessions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.sessions))
	for t := range b.sessions {
		out = append(out, t)
	}
	return out
}

func (b *Bistro) isStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}
