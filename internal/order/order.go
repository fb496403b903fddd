package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/promo"
)

// NoPromotion labels an order that received no discount.
const NoPromotion = "None"

// Order is a finalized, immutable snapshot of a checkout.
type Order struct {
	ID                uuid.UUID
	BaseTotal         decimal.Decimal
	AddonsTotal       decimal.Decimal
	Discount          decimal.Decimal
	Promotion         string
	PromotionKind     promo.Kind
	SubtotalBeforeTax decimal.Decimal
	Tax               decimal.Decimal
	FinalTotal        decimal.Decimal
	CreatedAt         time.Time

	lines []cart.Line
}

// New builds an order holding its own copy of lines.
func New(id uuid.UUID, lines []cart.Line, createdAt time.Time) Order {
	cp := make([]cart.Line, len(lines))
	copy(cp, lines)
	return Order{ID: id, Promotion: NoPromotion, CreatedAt: createdAt, lines: cp}
}

// Lines returns a copy of the order's line items.
func (o Order) Lines() []cart.Line {
	out := make([]cart.Line, len(o.lines))
	copy(out, o.lines)
	return out
}

// ItemCount is the number of drinks across all lines.
func (o Order) ItemCount() int {
	return cart.TotalQuantity(o.lines)
}

// Discounted reports whether a promotion reduced the order.
func (o Order) Discounted() bool {
	return o.Discount.IsPositive()
}

// MarshalJSON renders the order with itemized lines and totals rounded to cents.
func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                string          `json:"id"`
		Lines             []cart.Line     `json:"lines"`
		ItemCount         int             `json:"itemCount"`
		BaseTotal         decimal.Decimal `json:"baseTotal"`
		AddonsTotal       decimal.Decimal `json:"addonsTotal"`
		Discount          decimal.Decimal `json:"discount"`
		Promotion         string          `json:"promotion"`
		PromotionKind     promo.Kind      `json:"promotionKind,omitempty"`
		SubtotalBeforeTax decimal.Decimal `json:"subtotalBeforeTax"`
		Tax               decimal.Decimal `json:"tax"`
		FinalTotal        decimal.Decimal `json:"finalTotal"`
		CreatedAt         time.Time       `json:"createdAt"`
	}{
		ID:                o.ID.String(),
		Lines:             o.Lines(),
		ItemCount:         o.ItemCount(),
		BaseTotal:         o.BaseTotal.Round(2),
		AddonsTotal:       o.AddonsTotal.Round(2),
		Discount:          o.Discount.Round(2),
		Promotion:         o.Promotion,
		PromotionKind:     o.PromotionKind,
		SubtotalBeforeTax: o.SubtotalBeforeTax.Round(2),
		Tax:               o.Tax.Round(2),
		FinalTotal:        o.FinalTotal.Round(2),
		CreatedAt:         o.CreatedAt,
	})
}
