package main

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/types"
)

// Scenario is a scripted shift: a menu and the steps run against it.
//
//	tenant: cafe-1
//	menu:
//	  - {id: burger, name: Burger, price: 50000, cost: 18000}
//	steps:
//	  - {op: receive, item: burger, qty: 10, unit_cost: 18000}
//	  - {op: submit, as: o1, lines: [{item: burger, qty: 2}], payment: {method: cash}}
//	  - {op: advance, order: o1, event: send_to_kitchen}
//	  - {op: advance, order: o1, event: mark_ready}
//	  - {op: advance, order: o1, event: complete}
type Scenario struct {
	Tenant         string     `yaml:"tenant"`
	Currency       string     `yaml:"currency"`
	VATBasisPoints *int64     `yaml:"vat_basis_points"`
	Menu           []MenuItem `yaml:"menu"`
	Steps          []Step     `yaml:"steps"`
}

// MenuItem is a menu entry with amounts in minor units.
type MenuItem struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price int64  `yaml:"price"`
	Cost  int64  `yaml:"cost"`
}

// Step is one operation. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// receive
	Item     string `yaml:"item,omitempty"`
	Qty      int64  `yaml:"qty,omitempty"`
	UnitCost int64  `yaml:"unit_cost,omitempty"`
	Kind     string `yaml:"kind,omitempty"`
	Ref      string `yaml:"ref,omitempty"`

	// submit
	As         string       `yaml:"as,omitempty"`
	Table      string       `yaml:"table,omitempty"`
	ExcludeVAT bool         `yaml:"exclude_vat,omitempty"`
	Lines      []StepLine   `yaml:"lines,omitempty"`
	Payment    *PaymentSpec `yaml:"payment,omitempty"`

	// advance, cancel, settle, remove
	Order string `yaml:"order,omitempty"`
	Event string `yaml:"event,omitempty"`

	// Fails marks a step that is expected to be rejected.
	Fails bool `yaml:"fails,omitempty"`
}

// StepLine is a cart line in a submit step.
type StepLine struct {
	Item string `yaml:"item"`
	Qty  int64  `yaml:"qty"`
}

// PaymentSpec describes the tender of a submit or settle step.
type PaymentSpec struct {
	Method  string      `yaml:"method"`
	Entries []EntrySpec `yaml:"entries,omitempty"`
}

// EntrySpec is one part of a split payment.
type EntrySpec struct {
	Method string `yaml:"method"`
	Amount int64  `yaml:"amount"`
}

var stepOps = map[string]bool{
	"receive": true,
	"submit":  true,
	"advance": true,
	"cancel":  true,
	"settle":  true,
	"remove":  true,
}

// parseScenario decodes and checks a scenario. Unknown keys are errors so
// typos surface before anything runs.
func parseScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	seen := make(map[string]bool, len(sc.Menu))
	for _, m := range sc.Menu {
		if m.ID == "" {
			return fmt.Errorf("menu item %q has no id", m.Name)
		}
		if seen[m.ID] {
			return fmt.Errorf("menu item %q listed twice", m.ID)
		}
		seen[m.ID] = true
	}

	aliases := make(map[string]bool)
	for i, s := range sc.Steps {
		if !stepOps[s.Op] {
			return fmt.Errorf("step %d: unknown op %q", i+1, s.Op)
		}
		switch s.Op {
		case "submit":
			if s.As == "" {
				return fmt.Errorf("step %d: submit needs an alias in \"as\"", i+1)
			}
			if aliases[s.As] {
				return fmt.Errorf("step %d: alias %q reused", i+1, s.As)
			}
			aliases[s.As] = true
		case "advance", "cancel", "settle", "remove":
			if s.Order == "" {
				return fmt.Errorf("step %d: %s needs an order alias", i+1, s.Op)
			}
		}
	}
	return nil
}

// menuItems converts the scenario menu for tenantID.
func (sc *Scenario) menuItems(tenantID, currency string) map[string]menu.Item {
	out := make(map[string]menu.Item, len(sc.Menu))
	for _, m := range sc.Menu {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		out[m.ID] = menu.Item{
			ID:        m.ID,
			TenantID:  tenantID,
			Name:      name,
			UnitPrice: types.New(m.Price, currency),
			UnitCost:  types.New(m.Cost, currency),
		}
	}
	return out
}

func (p *PaymentSpec) payment(currency string) order.Payment {
	if p == nil {
		return order.Cash()
	}
	method := order.PaymentMethod(strings.ToLower(p.Method))
	if len(p.Entries) == 0 {
		return order.Payment{Method: method}
	}
	entries := make([]order.PaymentEntry, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = order.Entry(order.PaymentMethod(strings.ToLower(e.Method)), types.New(e.Amount, currency))
	}
	if method == "" {
		method = order.MethodMulti
	}
	return order.Payment{Method: method, Entries: entries}
}

func receiveOptions(s Step) []inventory.ReceiveOption {
	var opts []inventory.ReceiveOption
	if s.Kind != "" {
		opts = append(opts, inventory.WithKind(inventory.Kind(s.Kind)))
	}
	if s.Ref != "" {
		opts = append(opts, inventory.WithReference(s.Ref))
	}
	return opts
}
