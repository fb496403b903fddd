package promo

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
)

// Kind enumerates the supported promotion strategies.
type Kind string

const (
	KindBulkQuantity Kind = "bulk_quantity"
	KindHappyHour    Kind = "happy_hour"
	KindBuyNGetFree  Kind = "buy_n_get_free"
)

// Promotion is a discount rule evaluated against cart lines. Discounts only ever reduce the
// drinks' base total; add-on charges are never discounted. The set of implementations is
// closed to this package.
type Promotion interface {
	Kind() Kind
	Name() string
	// Applicable reports whether the rule applies. It has no side effects.
	Applicable(lines []cart.Line) bool
	// Discount returns zero when the rule does not apply.
	Discount(lines []cart.Line, baseTotal, addonsTotal decimal.Decimal) decimal.Decimal

	sealed()
}

// CatalogView is the read-only catalog access needed by BuyNGetFree.
type CatalogView interface {
	Names() []string
	CheapestPrice(name string) (decimal.Decimal, bool)
}

// Default returns the standard promotions in registration order.
func Default(catalog CatalogView, now func() time.Time, loc *time.Location) []Promotion {
	return []Promotion{
		BulkQuantity{},
		HappyHour{Now: now, Location: loc},
		BuyNGetFree{Catalog: catalog},
	}
}

func baseTotalWhere(lines []cart.Line, keep func(menu.Drink) bool) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if keep(l.Drink()) {
			total = total.Add(l.BasePrice())
		}
	}
	return total
}

// quantitiesByName sums quantities per drink name, ignoring size and case.
func quantitiesByName(lines []cart.Line) map[string]int {
	counts := make(map[string]int, len(lines))
	for _, l := range lines {
		counts[normalizeName(l.Drink().Name())] += l.Quantity()
	}
	return counts
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
