package promo

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
)

// Candidate is one promotion's evaluation against a cart.
type Candidate struct {
	Kind       Kind            `json:"kind"`
	Name       string          `json:"name"`
	Applicable bool            `json:"applicable"`
	Discount   decimal.Decimal `json:"discount"`
}

// Selector picks the single best promotion from a registered set.
type Selector struct {
	promotions []Promotion
}

// NewSelector registers promotions in the order given; that order breaks ties.
func NewSelector(promotions ...Promotion) *Selector {
	s := &Selector{}
	for _, p := range promotions {
		if p != nil {
			s.promotions = append(s.promotions, p)
		}
	}
	return s
}

// Promotions returns the registered promotions in registration order.
func (s *Selector) Promotions() []Promotion {
	if s == nil {
		return nil
	}
	out := make([]Promotion, len(s.promotions))
	copy(out, s.promotions)
	return out
}

// Best returns the applicable promotion with the strictly greatest discount. The first
// registered promotion wins a tie and a zero discount never wins.
func (s *Selector) Best(lines []cart.Line, baseTotal, addonsTotal decimal.Decimal) (Promotion, decimal.Decimal, bool) {
	var best Promotion
	bestDiscount := decimal.Zero
	if s == nil {
		return nil, bestDiscount, false
	}
	for _, p := range s.promotions {
		if !p.Applicable(lines) {
			continue
		}
		discount := p.Discount(lines, baseTotal, addonsTotal)
		if discount.GreaterThan(bestDiscount) {
			best = p
			bestDiscount = discount
		}
	}
	return best, bestDiscount, best != nil
}

// Evaluate reports every registered promotion's applicability and discount.
func (s *Selector) Evaluate(lines []cart.Line, baseTotal, addonsTotal decimal.Decimal) []Candidate {
	if s == nil {
		return nil
	}
	out := make([]Candidate, 0, len(s.promotions))
	for _, p := range s.promotions {
		c := Candidate{Kind: p.Kind(), Name: p.Name(), Discount: decimal.Zero}
		if p.Applicable(lines) {
			c.Applicable = true
			c.Discount = p.Discount(lines, baseTotal, addonsTotal)
		}
		out = append(out, c)
	}
	return out
}
