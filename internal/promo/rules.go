package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
)

const (
	bulkMinItems     = 4
	buyNRequiredQty  = 3
	happyHourStartHr = 14
	happyHourEndHr   = 16
)

var (
	bulkRate      = decimal.RequireFromString("0.10")
	happyHourRate = decimal.RequireFromString("0.20")
)

// BulkQuantity takes 10% off the drinks when four or more are bought.
type BulkQuantity struct{}

func (BulkQuantity) Kind() Kind   { return KindBulkQuantity }
func (BulkQuantity) Name() string { return "Bulk Order 10% (drinks only)" }
func (BulkQuantity) sealed()      {}

func (BulkQuantity) Applicable(lines []cart.Line) bool {
	return cart.TotalQuantity(lines) >= bulkMinItems
}

func (p BulkQuantity) Discount(lines []cart.Line, baseTotal, _ decimal.Decimal) decimal.Decimal {
	if !p.Applicable(lines) {
		return decimal.Zero
	}
	return baseTotal.Mul(bulkRate)
}

// HappyHour takes 20% off Tea drinks between 14:00 and 16:00 local time. The clock is read
// on every call.
type HappyHour struct {
	Now      func() time.Time
	Location *time.Location
}

func (HappyHour) Kind() Kind   { return KindHappyHour }
func (HappyHour) Name() string { return "Happy Hour: Tea 20% (drinks only, 2-4 PM)" }
func (HappyHour) sealed()      {}

func (p HappyHour) now() time.Time {
	t := time.Now()
	if p.Now != nil {
		t = p.Now()
	}
	if p.Location != nil {
		t = t.In(p.Location)
	}
	return t
}

// InWindow reports whether t falls in [14:00, 16:00).
func (p HappyHour) InWindow(t time.Time) bool {
	h := t.Hour()
	return h >= happyHourStartHr && h < happyHourEndHr
}

func (p HappyHour) Applicable(lines []cart.Line) bool {
	if !p.InWindow(p.now()) {
		return false
	}
	for _, l := range lines {
		if l.Drink().Is(menu.Tea) {
			return true
		}
	}
	return false
}

func (p HappyHour) Discount(lines []cart.Line, _, _ decimal.Decimal) decimal.Decimal {
	if !p.Applicable(lines) {
		return decimal.Zero
	}
	tea := baseTotalWhere(lines, func(d menu.Drink) bool { return d.Is(menu.Tea) })
	return tea.Mul(happyHourRate)
}

// BuyNGetFree gives the cheapest size of a drink away once three of that drink, in any
// sizes, are in the cart. The catalog is read at call time so catalog changes are seen
// without rebuilding the promotion.
type BuyNGetFree struct {
	Catalog CatalogView
}

func (BuyNGetFree) Kind() Kind   { return KindBuyNGetFree }
func (BuyNGetFree) Name() string { return "Buy 3 Get 1 Free (cheapest size)" }
func (BuyNGetFree) sealed()      {}

// Qualifying returns the drink name the rule would reward. When several names qualify the
// first one in catalog order wins.
func (p BuyNGetFree) Qualifying(lines []cart.Line) (string, bool) {
	if p.Catalog == nil || len(lines) == 0 {
		return "", false
	}
	counts := quantitiesByName(lines)
	for _, name := range p.Catalog.Names() {
		if counts[normalizeName(name)] < buyNRequiredQty {
			continue
		}
		if _, ok := p.Catalog.CheapestPrice(name); ok {
			return name, true
		}
	}
	return "", false
}

func (p BuyNGetFree) Applicable(lines []cart.Line) bool {
	_, ok := p.Qualifying(lines)
	return ok
}

func (p BuyNGetFree) Discount(lines []cart.Line, _, _ decimal.Decimal) decimal.Decimal {
	name, ok := p.Qualifying(lines)
	if !ok {
		return decimal.Zero
	}
	price, _ := p.Catalog.CheapestPrice(name)
	return price
}
