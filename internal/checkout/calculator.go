package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/order"
	"github.com/noah-isme/drinkpos/internal/pricing"
	"github.com/noah-isme/drinkpos/internal/promo"
)

// ErrEmptyCart is returned when checkout is attempted with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Source supplies the lines to be checked out. *cart.Cart satisfies it.
type Source interface {
	Lines() []cart.Line
}

// Quote is a priced preview of a cart that does not finalize it.
type Quote struct {
	Lines      []cart.Line       `json:"lines"`
	Totals     pricing.Summary   `json:"totals"`
	Promotion  string            `json:"promotion"`
	Kind       promo.Kind        `json:"promotionKind,omitempty"`
	Candidates []promo.Candidate `json:"candidates"`
}

// Calculator turns a cart into a priced order. It performs no I/O and never mutates the cart.
// TaxRate is applied as given, so a zero rate prices tax-exempt orders.
type Calculator struct {
	Selector *promo.Selector
	TaxRate  decimal.Decimal
	Now      func() time.Time
	NewID    func() uuid.UUID
}

// NewCalculator returns a calculator using the standard tax rate and wall clock.
func NewCalculator(selector *promo.Selector) *Calculator {
	return &Calculator{Selector: selector, TaxRate: pricing.TaxRate, Now: time.Now, NewID: uuid.New}
}

// Checkout prices the source's lines and returns an immutable order snapshot.
func (c *Calculator) Checkout(src Source) (order.Order, error) {
	lines := linesOf(src)
	if len(lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}
	summary, best := c.price(lines)

	o := order.New(c.newID(), lines, c.now())
	o.BaseTotal = summary.Base
	o.AddonsTotal = summary.Addons
	o.Discount = summary.Discount
	o.SubtotalBeforeTax = summary.Subtotal
	o.Tax = summary.Tax
	o.FinalTotal = summary.Total
	if best != nil {
		o.Promotion = best.Name()
		o.PromotionKind = best.Kind()
	}
	return o, nil
}

// Quote runs the checkout computation without producing an order, reporting every
// promotion's evaluation alongside the winner.
func (c *Calculator) Quote(src Source) (Quote, error) {
	lines := linesOf(src)
	if len(lines) == 0 {
		return Quote{}, ErrEmptyCart
	}
	summary, best := c.price(lines)
	q := Quote{
		Lines:      lines,
		Totals:     summary,
		Promotion:  order.NoPromotion,
		Candidates: c.Selector.Evaluate(lines, summary.Base, summary.Addons),
	}
	if best != nil {
		q.Promotion = best.Name()
		q.Kind = best.Kind()
	}
	return q, nil
}

func (c *Calculator) price(lines []cart.Line) (pricing.Summary, promo.Promotion) {
	base, addons := pricing.Totals(lines)
	best, discount, ok := c.Selector.Best(lines, base, addons)
	if !ok {
		discount = decimal.Zero
		best = nil
	}
	return pricing.Compute(base, addons, discount, c.TaxRate), best
}

func (c *Calculator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Calculator) newID() uuid.UUID {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.New()
}

func linesOf(src Source) []cart.Line {
	if src == nil {
		return nil
	}
	return src.Lines()
}
