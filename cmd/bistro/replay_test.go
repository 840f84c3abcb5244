package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fifoScenario = `
tenant: tenant-001
currency: try
menu:
  - {id: x, name: Lahmacun, price: 500, cost: 100}
  - {id: meze, name: Meze, price: 1000, cost: 400}
steps:
  - {op: receive, item: x, qty: 10, unit_cost: 100, ref: INV-1}
  - {op: receive, item: x, qty: 5, unit_cost: 120, ref: INV-2}
  - op: submit
    as: o1
    table: "4"
    lines: [{item: x, qty: 12}]
    payment: {method: card}
  - {op: advance, order: o1, event: send_to_kitchen}
  - {op: advance, order: o1, event: mark_ready}
  - {op: advance, order: o1, event: complete}
  - {op: advance, order: o1, event: complete, fails: true}
  - op: submit
    as: short
    lines: [{item: meze, qty: 1}]
    payment:
      method: multi
      entries: [{method: cash, amount: 700}, {method: card, amount: 400}]
    fails: true
  - op: submit
    as: o2
    lines: [{item: meze, qty: 1}]
    payment:
      method: multi
      entries: [{method: cash, amount: 700}, {method: card, amount: 480}]
  - {op: cancel, order: o2}
  - {op: remove, order: o2}
`

func testConfig() config {
	return config{Currency: "try", Tenant: "default", VATBasisPoints: 1800, LogLevel: slog.LevelError}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestParseScenario(t *testing.T) {
	sc, err := parseScenario(strings.NewReader(fifoScenario))
	require.NoError(t, err)

	assert.Equal(t, "tenant-001", sc.Tenant)
	assert.Len(t, sc.Menu, 2)
	require.Len(t, sc.Steps, 11)
	assert.Equal(t, "INV-2", sc.Steps[1].Ref)
	assert.True(t, sc.Steps[6].Fails)
	require.NotNil(t, sc.Steps[8].Payment)
	assert.Len(t, sc.Steps[8].Payment.Entries, 2)
}

func TestParseScenarioRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown op", "steps: [{op: refund}]", "unknown op"},
		{"submit without alias", "steps: [{op: submit}]", "alias"},
		{"reused alias", "steps: [{op: submit, as: a}, {op: submit, as: a}]", "reused"},
		{"advance without order", "steps: [{op: advance, event: complete}]", "order alias"},
		{"duplicate menu item", "menu: [{id: x}, {id: x}]", "listed twice"},
		{"unknown field", "steps: [{op: receive, quantity: 3}]", "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenario(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReplayFIFOScenario(t *testing.T) {
	sc, err := parseScenario(strings.NewReader(fifoScenario))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, replay(context.Background(), testConfig(), quietLogger(), sc, "text", &out))

	got := out.String()
	assert.Contains(t, got, "advance  o1 ready_for_pickup -> completed")
	assert.Contains(t, got, "cost ₺12.40")
	assert.Regexp(t, `rejected: .*invalid transition`, got)
	assert.Contains(t, got, "submit   o2 total ₺11.80 paid")
	assert.NotContains(t, got, "short ")

	// o2 was removed, so only o1 gets a receipt.
	assert.Equal(t, 1, strings.Count(got, "RECEIPT"))
	assert.Contains(t, got, "Table: 4")

	assert.Contains(t, got, "STOCK")
	assert.Regexp(t, `x\s+3\s+₺3\.60`, got)
	assert.Regexp(t, `valuation\s+₺3\.60`, got)
}

func TestReplayReportsShortfall(t *testing.T) {
	sc, err := parseScenario(strings.NewReader(`
menu: [{id: tea, price: 100, cost: 20}]
steps:
  - {op: receive, item: tea, qty: 1, unit_cost: 20}
  - {op: submit, as: o1, lines: [{item: tea, qty: 3}], payment: {method: deferred}}
  - {op: advance, order: o1, event: send_to_kitchen}
  - {op: advance, order: o1, event: mark_ready}
  - {op: advance, order: o1, event: complete}
  - {op: settle, order: o1, payment: {method: cash}}
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, replay(context.Background(), testConfig(), quietLogger(), sc, "text", &out))

	got := out.String()
	assert.Contains(t, got, "short tea: 2 of 3 missing")
	assert.Contains(t, got, "settle   o1 paid")
	assert.Regexp(t, `valuation\s+₺0\.00`, got)
}

func TestReplayHTMLFormat(t *testing.T) {
	sc, err := parseScenario(strings.NewReader(`
menu: [{id: tea, name: "Tea & Simit", price: 100, cost: 20}]
steps:
  - {op: submit, as: o1, lines: [{item: tea, qty: 1}]}
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, replay(context.Background(), testConfig(), quietLogger(), sc, "html", &out))
	assert.Contains(t, out.String(), "Tea &amp; Simit")
}

func TestReplayUnknownFormat(t *testing.T) {
	var out bytes.Buffer
	err := replay(context.Background(), testConfig(), quietLogger(), &Scenario{}, "pdf", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "html, text")
}

func TestReplayUnexpectedFailureStops(t *testing.T) {
	sc, err := parseScenario(strings.NewReader(`
steps:
  - {op: submit, as: o1, lines: [{item: ghost, qty: 1}]}
`))
	require.NoError(t, err)

	var out bytes.Buffer
	err = replay(context.Background(), testConfig(), quietLogger(), sc, "text", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (submit)")
	assert.Contains(t, err.Error(), "not on the menu")
}
