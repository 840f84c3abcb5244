package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/receipt"
	"github.com/xraph/bistro/store/memory"
	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

func newReplayCmd(cfg config, logger *slog.Logger) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Run a scenario and print receipts and stock",
		Long: `Replay runs each step of a YAML scenario against a fresh in-memory
engine, then prints a receipt for every order that is still on the books
followed by stock levels and valuation.

Steps: receive, submit, advance, cancel, settle, remove. Mark a step with
"fails: true" when it is expected to be rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sc, err := parseScenario(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return replay(cmd.Context(), cfg, logger, sc, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "receipt format (text or html)")
	return cmd
}

// replay runs sc on a new engine and writes the report to w.
func replay(ctx context.Context, cfg config, logger *slog.Logger, sc *Scenario, format string, w io.Writer) error {
	tenant := sc.Tenant
	if tenant == "" {
		tenant = cfg.Tenant
	}
	currency := strings.ToLower(sc.Currency)
	if currency == "" {
		currency = cfg.Currency
	}
	rule := tax.Rule{BasisPoints: cfg.VATBasisPoints}
	if sc.VATBasisPoints != nil {
		rule.BasisPoints = *sc.VATBasisPoints
	}

	eng := bistro.New(memory.New(),
		bistro.WithLogger(logger),
		bistro.WithCurrency(currency),
		bistro.WithTaxRule(rule),
		bistro.WithPlugin(receipt.NewTextFormatter(rule)),
		bistro.WithPlugin(receipt.NewHTMLFormatter(rule)),
	)
	formatter := eng.Plugins().ReceiptFormatter(format)
	if formatter == nil {
		return fmt.Errorf("unknown receipt format %q (have %s)", format, strings.Join(eng.Plugins().ReceiptFormats(), ", "))
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop() //nolint:errcheck // in-memory store

	sess, err := eng.Open(ctx, tenant)
	if err != nil {
		return err
	}

	r := &runner{
		sess:    sess,
		tenant:  tenant,
		menu:    sc.menuItems(tenant, currency),
		orders:  make(map[string]id.OrderID),
		w:       w,
		current: currency,
	}
	for i, step := range sc.Steps {
		err := r.run(ctx, step)
		switch {
		case err != nil && step.Fails:
			fmt.Fprintf(w, "%-8s rejected: %v\n", step.Op, err)
		case err != nil:
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		case step.Fails:
			return fmt.Errorf("step %d (%s): expected a rejection", i+1, step.Op)
		}
	}

	fmt.Fprintln(w)
	for _, alias := range r.aliases {
		o, err := sess.Order(tenant, r.orders[alias])
		if errors.Is(err, order.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := formatter.Render(ctx, o, w); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	return r.printStock()
}

type runner struct {
	sess    *bistro.Session
	tenant  string
	menu    map[string]menu.Item
	orders  map[string]id.OrderID
	aliases []string
	w       io.Writer
	current string
}

func (r *runner) run(ctx context.Context, s Step) error {
	switch s.Op {
	case "receive":
		return r.receive(ctx, s)
	case "submit":
		return r.submit(ctx, s)
	}

	orderID, ok := r.orders[s.Order]
	if !ok {
		return fmt.Errorf("unknown order alias %q", s.Order)
	}

	switch s.Op {
	case "advance":
		o, tr, err := r.sess.Advance(ctx, r.tenant, orderID, order.Event(s.Event))
		if err != nil {
			return err
		}
		fmt.Fprintf(r.w, "%-8s %s %s -> %s\n", s.Op, s.Order, tr.From, tr.To)
		for _, sf := range tr.Shortfalls {
			fmt.Fprintf(r.w, "         short %s: %d of %d missing\n", sf.ItemID, sf.Missing, sf.Requested)
		}
		if p, ok := o.Profit(); ok {
			fmt.Fprintf(r.w, "         cost %s profit %s\n", *o.RealizedCost, p)
		}
	case "cancel":
		if _, err := r.sess.Cancel(ctx, r.tenant, orderID); err != nil {
			return err
		}
		fmt.Fprintf(r.w, "%-8s %s\n", s.Op, s.Order)
	case "settle":
		o, err := r.sess.Settle(ctx, r.tenant, orderID, s.Payment.payment(r.current))
		if err != nil {
			return err
		}
		fmt.Fprintf(r.w, "%-8s %s %s\n", s.Op, s.Order, o.PaymentStatus)
	case "remove":
		if _, err := r.sess.Remove(ctx, r.tenant, orderID); err != nil {
			return err
		}
		fmt.Fprintf(r.w, "%-8s %s\n", s.Op, s.Order)
	}
	return nil
}

func (r *runner) receive(ctx context.Context, s Step) error {
	cost := types.New(s.UnitCost, r.current)
	b, err := r.sess.Receive(ctx, r.tenant, s.Item, s.Qty, cost, receiveOptions(s)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "%-8s %s %d @ %s\n", s.Op, b.ItemRef, b.Quantity, b.UnitCost)
	return nil
}

func (r *runner) submit(ctx context.Context, s Step) error {
	cart := r.sess.NewCart()
	cart.Table = s.Table
	cart.IncludeVAT = !s.ExcludeVAT
	for _, l := range s.Lines {
		item, ok := r.menu[l.Item]
		if !ok {
			return fmt.Errorf("item %q is not on the menu", l.Item)
		}
		if err := cart.Add(item, l.Qty); err != nil {
			return err
		}
	}

	o, err := r.sess.Submit(ctx, r.tenant, cart, s.Payment.payment(r.current))
	if err != nil {
		return err
	}
	r.orders[s.As] = o.ID
	r.aliases = append(r.aliases, s.As)
	fmt.Fprintf(r.w, "%-8s %s total %s %s\n", s.Op, s.As, o.Total, o.PaymentStatus)
	return nil
}

func (r *runner) printStock() error {
	levels, err := r.sess.Levels(r.tenant)
	if err != nil {
		return err
	}

	total := types.Zero(r.current)
	fmt.Fprintln(r.w, "STOCK")
	for _, l := range levels {
		fmt.Fprintf(r.w, "  %-16s %6d %12s\n", l.ItemRef, l.Quantity, l.Valuation)
		total = total.Add(l.Valuation)
	}
	fmt.Fprintf(r.w, "  %-16s %6s %12s\n", "valuation", "", total)
	return nil
}
