package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
)

// TaxRate is the sales tax applied to the discounted subtotal.
var TaxRate = decimal.RequireFromString("0.0825")

// Summary aggregates computed pricing components. Values are exact; round only for display.
type Summary struct {
	Base     decimal.Decimal `json:"baseTotal"`
	Addons   decimal.Decimal `json:"addonsTotal"`
	Discount decimal.Decimal `json:"discount"`
	Subtotal decimal.Decimal `json:"subtotalBeforeTax"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"finalTotal"`
}

// Totals sums drink base prices and add-on charges across lines.
func Totals(lines []cart.Line) (base, addons decimal.Decimal) {
	base, addons = decimal.Zero, decimal.Zero
	for _, l := range lines {
		base = base.Add(l.BasePrice())
		addons = addons.Add(l.AddonsCost())
	}
	return base, addons
}

// Compute calculates order totals given the provided inputs. The discount is clamped to
// [0, base] since promotions never reduce add-on charges.
func Compute(base, addons, discount, taxRate decimal.Decimal) Summary {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	subtotal := base.Add(addons).Sub(discount)
	tax := subtotal.Mul(taxRate)
	return Summary{
		Base:     base,
		Addons:   addons,
		Discount: discount,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount as dollars and cents, e.g. "$13.64".
func Format(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
