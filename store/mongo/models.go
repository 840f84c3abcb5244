package mongo

import (
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

	ID            string           `grove:"id,pk"          bson:"_id"`
	TenantID      string           `grove:"tenant_id"      bson:"tenant_id"`
	Table         string           `grove:"table_label"    bson:"table_label"`
	CustomerName  string           `grove:"customer_name"  bson:"customer_name,omitempty"`
	CustomerPhone string           `grove:"customer_phone" bson:"customer_phone,omitempty"`
	Lines         []lineModel      `grove:"lines"          bson:"lines"`
	Currency      string           `grove:"currency"       bson:"currency"`
	VATIncluded   bool             `grove:"vat_included"   bson:"vat_included"`
	Subtotal      int64            `grove:"subtotal"       bson:"subtotal"`
	VATAmount     int64            `grove:"vat_amount"     bson:"vat_amount"`
	Total         int64            `grove:"total"          bson:"total"`
	PaymentMethod string           `grove:"payment_method" bson:"payment_method"`
	PaymentStatus string           `grove:"payment_status" bson:"payment_status"`
	Payments      []paymentModel   `grove:"payments"       bson:"payments,omitempty"`
	Status        string           `grove:"status"         bson:"status"`
	CompletedAt   *time.Time       `grove:"completed_at"   bson:"completed_at,omitempty"`
	CancelledAt   *time.Time       `grove:"cancelled_at"   bson:"cancelled_at,omitempty"`
	RealizedCost  *int64           `grove:"realized_cost"  bson:"realized_cost,omitempty"`
	Shortfalls    []shortfallModel `grove:"shortfalls"     bson:"shortfalls,omitempty"`
	CreatedAt     time.Time        `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time        `grove:"updated_at"     bson:"updated_at"`
}

type lineModel struct {
	ItemID       string `bson:"item_id"`
	Name         string `bson:"name"`
	UnitPrice    int64  `bson:"unit_price"`
	UnitCost     int64  `bson:"unit_cost"`
	Quantity     int64  `bson:"quantity"`
	RealizedCost *int64 `bson:"realized_cost,omitempty"`
}

type paymentModel struct {
	ID     string `bson:"id"`
	Method string `bson:"method"`
	Amount int64  `bson:"amount"`
}

type shortfallModel struct {
	ItemID    string `bson:"item_id"`
	Requested int64  `bson:"requested"`
	Consumed  int64  `bson:"consumed"`
	Missing   int64  `bson:"missing"`
}

func toOrderModel(o *order.Order) *orderModel {
	m := &orderModel{
		ID:            o.ID.String(),
		TenantID:      o.TenantID,
		Table:         o.Table,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Lines:         make([]lineModel, len(o.Lines)),
		Currency:      o.Currency(),
		VATIncluded:   o.VATIncluded,
		Subtotal:      o.Subtotal.Amount,
		VATAmount:     o.VATAmount.Amount,
		Total:         o.Total.Amount,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
		RealizedCost:  amountPtr(o.RealizedCost),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for i, l := range o.Lines {
		m.Lines[i] = lineModel{
			ItemID:       l.ItemID,
			Name:         l.Name,
			UnitPrice:    l.UnitPrice.Amount,
			UnitCost:     l.UnitCost.Amount,
			Quantity:     l.Quantity,
			RealizedCost: amountPtr(l.RealizedCost),
		}
	}
	for _, p := range o.Payments {
		m.Payments = append(m.Payments, paymentModel{
			ID:     p.ID.String(),
			Method: string(p.Method),
			Amount: p.Amount.Amount,
		})
	}
	for _, s := range o.Shortfalls {
		m.Shortfalls = append(m.Shortfalls, shortfallModel(s))
	}
	return m
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, err
	}
	money := func(amount int64) types.Money { return types.New(amount, m.Currency) }

	o := &order.Order{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            orderID,
		TenantID:      m.TenantID,
		Table:         m.Table,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		Lines:         make([]order.Line, len(m.Lines)),
		VATIncluded:   m.VATIncluded,
		Subtotal:      money(m.Subtotal),
		VATAmount:     money(m.VATAmount),
		Total:         money(m.Total),
		PaymentMethod: order.PaymentMethod(m.PaymentMethod),
		PaymentStatus: order.PaymentStatus(m.PaymentStatus),
		Status:        order.Status(m.Status),
		CompletedAt:   m.CompletedAt,
		CancelledAt:   m.CancelledAt,
		RealizedCost:  moneyPtr(m.RealizedCost, m.Currency),
	}
	for i, l := range m.Lines {
		o.Lines[i] = order.Line{
			ItemID:       l.ItemID,
			Name:         l.Name,
			UnitPrice:    money(l.UnitPrice),
			UnitCost:     money(l.UnitCost),
			Quantity:     l.Quantity,
			RealizedCost: moneyPtr(l.RealizedCost, m.Currency),
		}
	}
	for _, p := range m.Payments {
		payID, err := id.ParsePaymentID(p.ID)
		if err != nil {
			return nil, err
		}
		o.Payments = append(o.Payments, order.PaymentEntry{
			ID:     payID,
			Method: order.PaymentMethod(p.Method),
			Amount: money(p.Amount),
		})
	}
	for _, s := range m.Shortfalls {
		o.Shortfalls = append(o.Shortfalls, order.Shortfall(s))
	}
	return o, nil
}

func amountPtr(m *types.Money) *int64 {
	if m == nil {
		return nil
	}
	a := m.Amount
	return &a
}

func moneyPtr(amount *int64, currency string) *types.Money {
	if amount == nil {
		return nil
	}
	m := types.New(*amount, currency)
	return &m
}

// ==================== Batch models ====================

type batchModel struct {
	grove.BaseModel `grove:"table:bistro_batches"`

	ID         string    `grove:"id,pk"       bson:"_id"`
	TenantID   string    `grove:"tenant_id"   bson:"tenant_id"`
	Position   int       `grove:"position"    bson:"position"`
	Kind       string    `grove:"kind"        bson:"kind"`
	ItemRef    string    `grove:"item_ref"    bson:"item_ref"`
	Quantity   int64     `grove:"quantity"    bson:"quantity"`
	UnitCost   int64     `grove:"unit_cost"   bson:"unit_cost"`
	Currency   string    `grove:"currency"    bson:"currency"`
	ReceivedAt time.Time `grove:"received_at" bson:"received_at"`
	Reference  string    `grove:"reference"   bson:"reference,omitempty"`
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
