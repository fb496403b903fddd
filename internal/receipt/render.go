package receipt

import (
	"fmt"
	"strings"

	"github.com/noah-isme/drinkpos/internal/order"
	"github.com/noah-isme/drinkpos/internal/pricing"
)

const (
	header = "==== Drinkpos Receipt ===="
	footer = "==========================="
)

// Render formats an order as a plain-text receipt. Every figure comes from the order itself.
func Render(o order.Order) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	fmt.Fprintf(&b, "Order: %s\n", o.ID)
	fmt.Fprintf(&b, "Date: %s  Time: %s\n\n", o.CreatedAt.Format("2006-01-02"), o.CreatedAt.Format("15:04:05"))
	for _, l := range o.Lines() {
		d := l.Drink()
		fmt.Fprintf(&b, "%2dx %-28s (%-6s)  base %7s  add-ons [%s] %s\n",
			l.Quantity(), d.Name(), d.Size(), pricing.Format(l.BasePrice()), l.AddonsLabel(), pricing.Format(l.AddonsCost()))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Drinks total:     %s\n", pricing.Format(o.BaseTotal))
	fmt.Fprintf(&b, "Add-ons total:    %s\n", pricing.Format(o.AddonsTotal))
	fmt.Fprintf(&b, "Promotion:  %s  (-%s)\n", o.Promotion, pricing.Format(o.Discount))
	fmt.Fprintf(&b, "Subtotal:         %s\n", pricing.Format(o.SubtotalBeforeTax))
	fmt.Fprintf(&b, "Tax (%s%%):     %s\n", pricing.TaxRate.Shift(2).StringFixed(2), pricing.Format(o.Tax))
	fmt.Fprintf(&b, "TOTAL DUE:        %s\n", pricing.Format(o.FinalTotal))
	b.WriteString(footer + "\n\n")
	return b.String()
}
