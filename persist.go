package bistro

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
)

// snapshot is the full state of one tenant at a sequence number. Later
// snapshots of the same tenant supersede earlier ones.
type snapshot struct {
	tenantID string
	seq      uint64
	orders   []*order.Order
	batches  []*inventory.Batch
}

// enqueue hands a snapshot to the worker. When the buffer is full the
// snapshot is saved on the caller's goroutine so nothing is dropped.
func (b *Bistro) enqueue(ctx context.Context, snap snapshot) {
	select {
	case b.persistBuffer <- snap:
	default:
		b.logger.Warn("persist buffer full, saving inline",
			"tenant_id", snap.tenantID,
			"error", ErrPersistBacklog,
		)
		b.save(context.WithoutCancel(ctx), snap) //nolint:errcheck // failures are logged and emitted
	}
}

// persistFlushWorker writes queued snapshots to the store. Only the newest
// snapshot per tenant is written on each flush.
func (b *Bistro) persistFlushWorker(ctx context.Context) {
	defer b.wg.Done()

	pending := make(map[string]snapshot)
	ticker := time.NewTicker(b.persistFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			// Final flush
		drain:
			for {
				select {
				case snap := <-b.persistBuffer:
					coalesce(pending, snap)
				default:
					break drain
				}
			}
			b.flushPending(ctx, pending)
			return

		case snap := <-b.persistBuffer:
			coalesce(pending, snap)
			if len(pending) >= b.persistBufferSize {
				b.flushPending(ctx, pending)
			}

		case <-ticker.C:
			if len(pending) > 0 {
				b.flushPending(ctx, pending)
			}
		}
	}
}

func coalesce(pending map[string]snapshot, snap snapshot) {
	if cur, ok := pending[snap.tenantID]; ok && cur.seq >= snap.seq {
		return
	}
	pending[snap.tenantID] = snap
}

func (b *Bistro) flushPending(ctx context.Context, pending map[string]snapshot) {
	for tenantID, snap := range pending {
		b.save(ctx, snap) //nolint:errcheck // failures are logged and emitted
		delete(pending, tenantID)
	}
}

// save writes one snapshot unless a newer one for the tenant is already
// stored. Orders are written before inventory.
func (b *Bistro) save(ctx context.Context, snap snapshot) error {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	if snap.seq <= b.lastSaved[snap.tenantID] {
		return nil
	}

	start := time.Now()
	err := b.store.SaveOrders(ctx, snap.tenantID, snap.orders)
	if err == nil {
		err = b.store.SaveInventory(ctx, snap.tenantID, snap.batches)
	}
	if err != nil {
		err = fmt.Errorf("bistro: persist %s: %w", snap.tenantID, err)
		b.logger.Error("failed to persist tenant snapshot",
			"tenant_id", snap.tenantID,
			"seq", snap.seq,
			"error", err,
		)
		b.plugins.EmitPersistFailed(ctx, snap.tenantID, err)
		return err
	}

	b.lastSaved[snap.tenantID] = snap.seq
	elapsed := time.Since(start)
	b.plugins.EmitPersisted(ctx, snap.tenantID, elapsed)

	b.logger.Debug("persisted tenant snapshot",
		"tenant_id", snap.tenantID,
		"seq", snap.seq,
		"orders", len(snap.orders),
		"batches", len(snap.batches),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}
