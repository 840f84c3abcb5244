// Package bistro is the order lifecycle and inventory ledger engine for a
// multi-tenant restaurant point of sale.
//
// Bistro is designed as a library, not a service. It turns a cart of menu
// selections into a priced, taxed order, reconciles one or more payments
// against the total, moves the order through the kitchen states and, on
// completion, deducts stock from cost-bearing batches oldest first. It
// provides:
//
//   - Integer money arithmetic with VAT computed in basis points
//   - FIFO inventory batches with realized cost and valuation
//   - A strict order state machine with shortfall reporting
//   - Asynchronous, coalescing persistence behind a single store port
//   - Plugin hooks for metrics, audit trails and receipt rendering
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/bistro"
//	    "github.com/xraph/bistro/store/sqlite"
//	)
//
//	s := sqlite.New(db)
//	b := bistro.New(s, bistro.WithCurrency("try"))
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Stop()
//
//	sess, err := b.Open(ctx, tenantID)
//
// # Orders
//
// A cart is priced when submitted. Stock is not touched until the order
// completes:
//
//	cart := sess.NewCart()
//	cart.Add(kebab, 2)
//	o, err := sess.Submit(ctx, tenantID, cart, bistro.Cash())
//	sess.SendToKitchen(ctx, tenantID, o.ID)
//	sess.MarkReady(ctx, tenantID, o.ID)
//	o, err = sess.Complete(ctx, tenantID, o.ID)
//
// Running out of stock on completion is not an error. The order records a
// Shortfall per affected line and plugins receive OnStockShortfall.
//
// # Money
//
// Money is an int64 amount in the currency's smallest unit (kuruş for TRY,
// cents for USD). VAT rounds half away from zero on every conversion.
//
// # TypeID
//
// Orders and batches use TypeID identifiers:
//
//	ord_01h2xcejqtf2nbrexx3vqjhp41    // Order ID
//	batch_01h455vb4pex5vsknk084sn02q  // Batch ID
//
// TypeIDs are K-sortable, so listing by id is listing by submission time.
package bistro
