package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/types"
)

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:bistro_orders"`

	ID            string          `grove:"id,pk"`
	TenantID      string          `grove:"tenant_id"`
	TableLabel    string          `grove:"table_label"`
	CustomerName  string          `grove:"customer_name"`
	CustomerPhone string          `grove:"customer_phone"`
	Lines         json.RawMessage `grove:"lines,type:jsonb"`
	Currency      string          `grove:"currency"`
	VATIncluded   bool            `grove:"vat_included"`
	Subtotal      int64           `grove:"subtotal"`
	VATAmount     int64           `grove:"vat_amount"`
	Total         int64           `grove:"total"`
	PaymentMethod string          `grove:"payment_method"`
	PaymentStatus string          `grove:"payment_status"`
	Payments      json.RawMessage `grove:"payments,type:jsonb"`
	Status        string          `grove:"status"`
	CompletedAt   *time.Time      `grove:"completed_at"`
	CancelledAt   *time.Time      `grove:"cancelled_at"`
	RealizedCost  *int64          `grove:"realized_cost"`
	Shortfalls    json.RawMessage `grove:"shortfalls,type:jsonb"`
	CreatedAt     time.Time       `grove:"created_at"`
	UpdatedAt     time.Time       `grove:"updated_at"`
}

func toOrderModel(o *order.Order) (*orderModel, error) {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	payments, _ := json.Marshal(nonNil(o.Payments))     //nolint:errcheck // plain structs
	shortfalls, _ := json.Marshal(nonNil(o.Shortfalls)) //nolint:errcheck // plain structs

	m := &orderModel{
		ID:            o.ID.String(),
		TenantID:      o.TenantID,
		TableLabel:    o.Table,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Lines:         lines,
		Currency:      o.Currency(),
		VATIncluded:   o.VATIncluded,
		Subtotal:      o.Subtotal.Amount,
		VATAmount:     o.VATAmount.Amount,
		Total:         o.Total.Amount,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Payments:      payments,
		Status:        string(o.Status),
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
		Shortfalls:    shortfalls,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.RealizedCost != nil {
		rc := o.RealizedCost.Amount
		m.RealizedCost = &rc
	}
	return m, nil
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            orderID,
		TenantID:      m.TenantID,
		Table:         m.TableLabel,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		VATIncluded:   m.VATIncluded,
		Subtotal:      types.New(m.Subtotal, m.Currency),
		VATAmount:     types.New(m.VATAmount, m.Currency),
		Total:         types.New(m.Total, m.Currency),
		PaymentMethod: order.PaymentMethod(m.PaymentMethod),
		PaymentStatus: order.PaymentStatus(m.PaymentStatus),
		Status:        order.Status(m.Status),
		CompletedAt:   m.CompletedAt,
		CancelledAt:   m.CancelledAt,
	}
	if err := json.Unmarshal(m.Lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("order %s: decode lines: %w", m.ID, err)
	}
	if len(m.Payments) > 0 {
		if err := json.Unmarshal(m.Payments, &o.Payments); err != nil {
			return nil, fmt.Errorf("order %s: decode payments: %w", m.ID, err)
		}
	}
	if len(m.Shortfalls) > 0 {
		if err := json.Unmarshal(m.Shortfalls, &o.Shortfalls); err != nil {
			return nil, fmt.Errorf("order %s: decode shortfalls: %w", m.ID, err)
		}
	}
	if m.RealizedCost != nil {
		rc := types.New(*m.RealizedCost, m.Currency)
		o.RealizedCost = &rc
	}
	return o, nil
}

// nonNil keeps NOT NULL jsonb columns at '[]' instead of 'null'.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ==================== Batch models ====================

type batchModel struct {
	grove.BaseModel `grove:"table:bistro_batches"`

	ID         string    `grove:"id,pk"`
	TenantID   string    `grove:"tenant_id"`
	Position   int       `grove:"position"`
	Kind       string    `grove:"kind"`
	ItemRef    string    `grove:"item_ref"`
	Quantity   int64     `grove:"quantity"`
	UnitCost   int64     `grove:"unit_cost"`
	Currency   string    `grove:"currency"`
	ReceivedAt time.Time `grove:"received_at"`
	Reference  string    `grove:"reference"`
}

func toBatchModel(b *inventory.Batch, pos int) *batchModel {
	return &batchModel{
		ID:         b.ID.String(),
		TenantID:   b.TenantID,
		Position:   pos,
		Kind:       string(b.Kind),
		ItemRef:    b.ItemRef,
		Quantity:   b.Quantity,
		UnitCost:   b.UnitCost.Amount,
		Currency:   b.UnitCost.Currency,
		ReceivedAt: b.ReceivedAt,
		Reference:  b.Reference,
	}
}

func fromBatchModel(m *batchModel) (*inventory.Batch, error) {
	batchID, err := id.ParseBatchID(m.ID)
	if err != nil {
		return nil, err
	}
	return &inventory.Batch{
		ID:         batchID,
		TenantID:   m.TenantID,
		Kind:       inventory.Kind(m.Kind),
		ItemRef:    m.ItemRef,
		Quantity:   m.Quantity,
		UnitCost:   types.New(m.UnitCost, m.Currency),
		ReceivedAt: m.ReceivedAt,
		Reference:  m.Reference,
	}, nil
}
