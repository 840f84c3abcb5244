package bistro_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	bistrostore "github.com/xraph/bistro/store"
	"github.com/xraph/bistro/store/memory"
	"github.com/xraph/bistro/types"
)

const tenant = "tenant-001"

var (
	lahmacun = menu.Item{ID: "lahmacun", TenantID: tenant, Name: "Lahmacun", UnitPrice: types.TRY(9000), UnitCost: types.TRY(3000)}
	ayran    = menu.Item{ID: "ayran", TenantID: tenant, Name: "Ayran", UnitPrice: types.TRY(2500), UnitCost: types.TRY(800)}
)

// recorder captures hook calls.
type recorder struct {
	mu     sync.Mutex
	events []string
	short  []inventory.Consumption
	failed []error
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) OnOrderSubmitted(context.Context, *order.Order) error {
	r.add("submitted")
	return nil
}

func (r *recorder) OnOrderTransitioned(_ context.Context, _ *order.Order, tr order.Transition) error {
	r.add("transitioned:" + string(tr.To))
	return nil
}

func (r *recorder) OnOrderCompleted(context.Context, *order.Order) error {
	r.add("completed")
	return nil
}

func (r *recorder) OnOrderCancelled(context.Context, *order.Order) error {
	r.add("cancelled")
	return nil
}

func (r *recorder) OnStockReceived(context.Context, *inventory.Batch) error {
	r.add("received")
	return nil
}

func (r *recorder) OnStockConsumed(context.Context, string, inventory.Consumption) error {
	r.add("consumed")
	return nil
}

func (r *recorder) OnStockShortfall(_ context.Context, _ string, c inventory.Consumption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.short = append(r.short, c)
	return nil
}

func (r *recorder) OnPersistFailed(_ context.Context, _ string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// failingStore rejects every save.
type failingStore struct {
	*memory.Store
}

var errDiskFull = errors.New("disk full")

func (failingStore) SaveOrders(context.Context, string, []*order.Order) error {
	return errDiskFull
}

func startEngine(t *testing.T, s bistrostore.Store, opts ...bistro.Option) (*bistro.Bistro, *bistro.Session) {
	t.Helper()
	ctx := context.Background()
	b := bistro.New(s, opts...)
	require.NoError(t, b.Start(ctx))
	t.Cleanup(func() { _ = b.Stop() })

	sess, err := b.Open(ctx, tenant)
	require.NoError(t, err)
	return b, sess
}

func submit(t *testing.T, sess *bistro.Session, item menu.Item, qty int64) *order.Order {
	t.Helper()
	cart := sess.NewCart()
	require.NoError(t, cart.Add(item, qty))
	o, err := sess.Submit(context.Background(), tenant, cart, bistro.Cash())
	require.NoError(t, err)
	return o
}

// prepare walks o through the kitchen so it can be completed.
func prepare(t *testing.T, sess *bistro.Session, o *order.Order) {
	t.Helper()
	_, err := sess.SendToKitchen(context.Background(), tenant, o.ID)
	require.NoError(t, err)
	_, err = sess.MarkReady(context.Background(), tenant, o.ID)
	require.NoError(t, err)
}

func TestOpenRequiresStart(t *testing.T) {
	b := bistro.New(memory.New())
	_, err := b.Open(context.Background(), tenant)
	assert.ErrorIs(t, err, bistro.ErrNotStarted)

	require.NoError(t, b.Start(context.Background()))
	_, err = b.Open(context.Background(), "")
	assert.ErrorIs(t, err, bistro.ErrMissingTenant)

	s1, err := b.Open(context.Background(), tenant)
	require.NoError(t, err)
	s2, err := b.Open(context.Background(), tenant)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	require.NoError(t, b.Stop())
	_, err = b.Open(context.Background(), tenant)
	assert.ErrorIs(t, err, bistro.ErrStopped)
}

func TestSubmitDoesNotTouchStock(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	_, err := sess.Receive(ctx, tenant, "lahmacun", 5, types.TRY(3000))
	require.NoError(t, err)

	o := submit(t, sess, lahmacun, 3)
	_, err = sess.SendToKitchen(ctx, tenant, o.ID)
	require.NoError(t, err)
	_, err = sess.MarkReady(ctx, tenant, o.ID)
	require.NoError(t, err)

	stock, err := sess.CurrentStock(tenant, "lahmacun")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock)

	_, err = sess.Cancel(ctx, tenant, o.ID)
	require.NoError(t, err)
	stock, err = sess.CurrentStock(tenant, "lahmacun")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock, "cancel leaves stock alone")
}

func TestCompleteTwiceDeductsOnce(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	_, err := sess.Receive(ctx, tenant, "ayran", 10, types.TRY(800))
	require.NoError(t, err)
	o := submit(t, sess, ayran, 4)

	prepare(t, sess, o)
	_, err = sess.Complete(ctx, tenant, o.ID)
	require.NoError(t, err)
	_, err = sess.Complete(ctx, tenant, o.ID)
	assert.ErrorIs(t, err, bistro.ErrInvalidTransition)

	stock, err := sess.CurrentStock(tenant, "ayran")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stock)

	value, err := sess.Valuation(tenant, "ayran")
	require.NoError(t, err)
	assert.Equal(t, types.TRY(6*800), value)
}

func TestShortfallIsReportedNotFailed(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	_, sess := startEngine(t, memory.New(), bistro.WithPlugin(rec))

	_, err := sess.Receive(ctx, tenant, "lahmacun", 2, types.TRY(3000))
	require.NoError(t, err)
	o := submit(t, sess, lahmacun, 5)
	prepare(t, sess, o)

	done, err := sess.Complete(ctx, tenant, o.ID)
	require.NoError(t, err)
	require.Len(t, done.Shortfalls, 1)
	assert.Equal(t, int64(3), done.Shortfalls[0].Missing)
	assert.Equal(t, types.TRY(6000), *done.RealizedCost)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.short, 1)
	assert.Equal(t, int64(2), rec.short[0].Consumed)
}

func TestHooksFireInOrder(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	_, sess := startEngine(t, memory.New(), bistro.WithPlugin(rec))

	_, err := sess.Receive(ctx, tenant, "ayran", 3, types.TRY(800))
	require.NoError(t, err)
	o := submit(t, sess, ayran, 1)
	prepare(t, sess, o)
	_, err = sess.Complete(ctx, tenant, o.ID)
	require.NoError(t, err)
	o2 := submit(t, sess, ayran, 1)
	_, err = sess.Cancel(ctx, tenant, o2.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"received",
		"submitted",
		"transitioned:in_preparation",
		"transitioned:ready_for_pickup",
		"transitioned:completed",
		"consumed",
		"completed",
		"submitted",
		"transitioned:cancelled",
		"cancelled",
	}, rec.Events())
}

func TestTenantMismatch(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	_, err := sess.Receive(ctx, "tenant-002", "ayran", 1, types.TRY(800))
	assert.ErrorIs(t, err, bistro.ErrTenantMismatch)

	foreign := order.NewCart("tenant-002", "try")
	_, err = sess.Submit(ctx, tenant, foreign, bistro.Cash())
	assert.ErrorIs(t, err, bistro.ErrTenantMismatch)

	_, err = sess.Open("tenant-002")
	assert.ErrorIs(t, err, bistro.ErrTenantMismatch)

	_, err = sess.Batches("tenant-002")
	assert.ErrorIs(t, err, bistro.ErrTenantMismatch)
}

func TestSubmitRejectsForeignCurrency(t *testing.T) {
	_, sess := startEngine(t, memory.New())

	cart := order.NewCart(tenant, "usd")
	require.NoError(t, cart.Add(menu.Item{ID: "soda", Name: "Soda", UnitPrice: types.USD(199), UnitCost: types.USD(50)}, 1))
	_, err := sess.Submit(context.Background(), tenant, cart, bistro.Cash())
	assert.ErrorIs(t, err, bistro.ErrCurrencyMismatch)
}

func TestAuthorizerDenies(t *testing.T) {
	ctx := context.Background()
	auth := bistro.RoleAuthorizer{
		bistro.ActionRemoveOrder: {"manager"},
		bistro.ActionDeleteBatch: {"manager"},
	}
	_, sess := startEngine(t, memory.New(), bistro.WithAuthorizer(auth))

	cashier := bistro.WithActor(ctx, bistro.Actor{ID: "u1", Role: "cashier"})
	manager := bistro.WithActor(ctx, bistro.Actor{ID: "u2", Role: "manager"})

	cart := sess.NewCart()
	require.NoError(t, cart.Add(ayran, 1))
	o, err := sess.Submit(cashier, tenant, cart, bistro.Cash())
	require.NoError(t, err)

	_, err = sess.Remove(cashier, tenant, o.ID)
	assert.ErrorIs(t, err, bistro.ErrUnauthorized)
	_, err = sess.Order(tenant, o.ID)
	require.NoError(t, err, "denied removal leaves the order in place")

	removed, err := sess.Remove(manager, tenant, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, removed.ID)

	_, err = sess.Order(tenant, o.ID)
	assert.True(t, bistro.IsNotFound(err))
}

func TestAuthorizerFuncErrorIsWrapped(t *testing.T) {
	errLocked := errors.New("register locked")
	auth := bistro.AuthorizerFunc(func(context.Context, string, bistro.Action) error { return errLocked })
	_, sess := startEngine(t, memory.New(), bistro.WithAuthorizer(auth))

	_, err := sess.Receive(context.Background(), tenant, "ayran", 1, types.TRY(800))
	assert.ErrorIs(t, err, bistro.ErrUnauthorized)
	assert.ErrorIs(t, err, errLocked)
}

func TestSettleDeferredOrder(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	cart := sess.NewCart()
	require.NoError(t, cart.Add(lahmacun, 1))
	o, err := sess.Submit(ctx, tenant, cart, bistro.Deferred())
	require.NoError(t, err)
	assert.False(t, o.Paid())

	paid, err := sess.Settle(ctx, tenant, o.ID, bistro.Card())
	require.NoError(t, err)
	assert.True(t, paid.Paid())

	_, err = sess.Settle(ctx, tenant, o.ID, bistro.Cash())
	assert.ErrorIs(t, err, bistro.ErrAlreadyPaid)
}

func TestQueuesAreOrdered(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	first := submit(t, sess, ayran, 1)
	time.Sleep(2 * time.Millisecond)
	second := submit(t, sess, ayran, 2)
	time.Sleep(2 * time.Millisecond)
	third := submit(t, sess, ayran, 3)

	_, err := sess.Cancel(ctx, tenant, first.ID)
	require.NoError(t, err)
	_, err = sess.Cancel(ctx, tenant, third.ID)
	require.NoError(t, err)

	open, err := sess.Open(tenant)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	history, err := sess.History(tenant)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, third.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	b, err := sess.Receive(ctx, tenant, "ayran", 4, types.TRY(800), inventory.WithReference("INV-42"))
	require.NoError(t, err)
	assert.Equal(t, "INV-42", b.Reference)

	items, err := sess.Items(tenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"ayran"}, items)

	deleted, err := sess.DeleteBatch(ctx, tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)

	_, err = sess.DeleteBatch(ctx, tenant, b.ID)
	assert.ErrorIs(t, err, bistro.ErrBatchNotFound)

	levels, err := sess.Levels(tenant)
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestConsumeOutsideOrders(t *testing.T) {
	ctx := context.Background()
	_, sess := startEngine(t, memory.New())

	_, err := sess.Receive(ctx, tenant, "ayran", 3, types.TRY(800))
	require.NoError(t, err)

	c, err := sess.ConsumeFIFO(ctx, tenant, "ayran", 5)
	require.NoError(t, err)
	assert.True(t, c.Short())
	assert.Equal(t, int64(3), c.Consumed)

	_, err = sess.ConsumeFIFO(ctx, tenant, "ayran", 0)
	assert.ErrorIs(t, err, bistro.ErrInvalidQuantity)
}

// ──────────────────────────────────────────────────
// Persistence
// ──────────────────────────────────────────────────

func TestStopFlushesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := bistro.New(store, bistro.WithPersistConfig(128, time.Hour))
	require.NoError(t, b.Start(ctx))

	sess, err := b.Open(ctx, tenant)
	require.NoError(t, err)
	_, err = sess.Receive(ctx, tenant, "ayran", 10, types.TRY(800))
	require.NoError(t, err)
	for range 4 {
		submit(t, sess, ayran, 1)
	}
	assert.Zero(t, store.Saves(), "nothing is written before the flush")

	require.NoError(t, b.Stop())
	assert.Equal(t, 2, store.Saves(), "five snapshots coalesce into one orders and one inventory write")

	orders, err := store.LoadOrders(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, orders, 4)
	batches, err := store.LoadInventory(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	_, err = sess.Receive(ctx, tenant, "ayran", 1, types.TRY(800))
	assert.ErrorIs(t, err, bistro.ErrStopped)
}

func TestReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	b := bistro.New(store)
	require.NoError(t, b.Start(ctx))
	sess, err := b.Open(ctx, tenant)
	require.NoError(t, err)
	_, err = sess.Receive(ctx, tenant, "ayran", 5, types.TRY(800))
	require.NoError(t, err)
	o := submit(t, sess, ayran, 2)
	prepare(t, sess, o)
	_, err = sess.Complete(ctx, tenant, o.ID)
	require.NoError(t, err)
	require.NoError(t, b.Stop())

	b2 := bistro.New(store)
	require.NoError(t, b2.Start(ctx))
	defer b2.Stop()
	sess2, err := b2.Open(ctx, tenant)
	require.NoError(t, err)

	got, err := sess2.Order(tenant, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
	stock, err := sess2.CurrentStock(tenant, "ayran")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock)
}

func TestSyncSurfacesSaveFailures(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	_, sess := startEngine(t, failingStore{memory.New()}, bistro.WithPlugin(rec))

	o := submit(t, sess, ayran, 1)

	err := sess.Sync(ctx)
	assert.ErrorIs(t, err, errDiskFull)

	got, err := sess.Order(tenant, o.ID)
	require.NoError(t, err, "a failed save keeps the in-memory order")
	assert.Equal(t, order.StatusNew, got.Status)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.NotEmpty(t, rec.failed)
}

func TestSyncWritesImmediately(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, sess := startEngine(t, store, bistro.WithPersistConfig(128, time.Hour))

	submit(t, sess, ayran, 1)
	require.NoError(t, sess.Sync(ctx))

	orders, err := store.LoadOrders(ctx, tenant)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestReopenInOtherCurrencyIsRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("batches", func(t *testing.T) {
		store := memory.New()
		b := bistro.New(store)
		require.NoError(t, b.Start(ctx))
		sess, err := b.Open(ctx, tenant)
		require.NoError(t, err)
		_, err = sess.Receive(ctx, tenant, "ayran", 10, types.TRY(800))
		require.NoError(t, err)
		require.NoError(t, b.Stop())

		b2 := bistro.New(store, bistro.WithCurrency("usd"))
		require.NoError(t, b2.Start(ctx))
		defer b2.Stop()
		_, err = b2.Open(ctx, tenant)
		require.ErrorIs(t, err, bistro.ErrCurrencyMismatch)
		assert.Empty(t, b2.Sessions())

		batches, err := store.LoadInventory(ctx, tenant)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, int64(10), batches[0].Quantity)
	})

	t.Run("orders", func(t *testing.T) {
		store := memory.New()
		b := bistro.New(store)
		require.NoError(t, b.Start(ctx))
		sess, err := b.Open(ctx, tenant)
		require.NoError(t, err)
		submit(t, sess, ayran, 1)
		require.NoError(t, b.Stop())

		b2 := bistro.New(store, bistro.WithCurrency("usd"))
		require.NoError(t, b2.Start(ctx))
		defer b2.Stop()
		_, err = b2.Open(ctx, tenant)
		assert.ErrorIs(t, err, bistro.ErrCurrencyMismatch)
	})
}

// slowStore blocks loads of one tenant until release is closed.
type slowStore struct {
	*memory.Store
	tenant  string
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) LoadOrders(ctx context.Context, tenantID string) ([]*order.Order, error) {
	if tenantID == s.tenant {
		close(s.entered)
		<-s.release
	}
	return s.Store.LoadOrders(ctx, tenantID)
}

func TestSlowOpenDoesNotBlockOtherTenants(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{
		Store:   memory.New(),
		tenant:  "tenant-slow",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	b, sess := startEngine(t, store)

	opened := make(chan error, 1)
	go func() {
		_, err := b.Open(ctx, "tenant-slow")
		opened <- err
	}()
	<-store.entered

	received := make(chan error, 1)
	go func() {
		_, err := sess.Receive(ctx, tenant, "ayran", 1, types.TRY(800))
		received <- err
	}()
	select {
	case err := <-received:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(store.release)
		t.Fatal("receive waited on another tenant's load")
	}

	close(store.release)
	require.NoError(t, <-opened)
	assert.ElementsMatch(t, []string{tenant, "tenant-slow"}, b.Sessions())
}

func TestConcurrentOpenSharesSession(t *testing.T) {
	ctx := context.Background()
	b := bistro.New(memory.New())
	require.NoError(t, b.Start(ctx))
	defer b.Stop()

	const n = 8
	sessions := make([]*bistro.Session, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := b.Open(ctx, tenant)
			assert.NoError(t, err)
			sessions[i] = s
		}()
	}
	wg.Wait()

	for _, s := range sessions[1:] {
		assert.Same(t, sessions[0], s)
	}
}
