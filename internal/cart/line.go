package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/menu"
)

// Addon is a paid customisation charged per shot per unit.
type Addon string

const (
	AddonVanilla  Addon = "vanilla syrup"
	AddonEspresso Addon = "extra shot"
)

var (
	vanillaShotPrice  = decimal.RequireFromString("0.60")
	espressoShotPrice = decimal.RequireFromString("0.50")
)

// Price returns the per-shot price of the add-on.
func (a Addon) Price() decimal.Decimal {
	switch a {
	case AddonVanilla:
		return vanillaShotPrice
	case AddonEspresso:
		return espressoShotPrice
	default:
		return decimal.Zero
	}
}

// Addons lists the add-on kinds in display order.
func Addons() []Addon {
	return []Addon{AddonVanilla, AddonEspresso}
}

// Line is one drink selection in a cart. Quantity is at least 1 and shot counts are never
// negative; the constructor and setters clamp out-of-range values.
type Line struct {
	drink         menu.Drink
	quantity      int
	vanillaShots  int
	espressoShots int
}

// NewLine builds a cart line, clamping quantity and shot counts.
func NewLine(drink menu.Drink, quantity, vanillaShots, espressoShots int) Line {
	l := Line{drink: drink}
	l.SetQuantity(quantity)
	l.SetVanillaShots(vanillaShots)
	l.SetEspressoShots(espressoShots)
	return l
}

func (l Line) Drink() menu.Drink  { return l.drink }
func (l Line) Quantity() int      { return l.quantity }
func (l Line) VanillaShots() int  { return l.vanillaShots }
func (l Line) EspressoShots() int { return l.espressoShots }

// SetQuantity sets the quantity, clamped to at least 1.
func (l *Line) SetQuantity(q int) {
	l.quantity = max(1, q)
}

// SetVanillaShots sets the vanilla syrup shots per unit, clamped to at least 0.
func (l *Line) SetVanillaShots(n int) {
	l.vanillaShots = max(0, n)
}

// SetEspressoShots sets the extra espresso shots per unit, clamped to at least 0.
func (l *Line) SetEspressoShots(n int) {
	l.espressoShots = max(0, n)
}

// Shots returns the per-unit shot count for the add-on.
func (l Line) Shots(a Addon) int {
	switch a {
	case AddonVanilla:
		return l.vanillaShots
	case AddonEspresso:
		return l.espressoShots
	default:
		return 0
	}
}

// BasePrice is quantity times the drink's unit price.
func (l Line) BasePrice() decimal.Decimal {
	return l.drink.Price().Mul(decimal.NewFromInt(int64(l.quantity)))
}

// AddonsCost is quantity times the per-unit add-on charge.
func (l Line) AddonsCost() decimal.Decimal {
	perUnit := decimal.Zero
	for _, a := range Addons() {
		perUnit = perUnit.Add(a.Price().Mul(decimal.NewFromInt(int64(l.Shots(a)))))
	}
	return perUnit.Mul(decimal.NewFromInt(int64(l.quantity)))
}

// Subtotal is the line total before any promotion.
func (l Line) Subtotal() decimal.Decimal {
	return l.BasePrice().Add(l.AddonsCost())
}

// AddonsLabel describes the add-ons, e.g. "1x vanilla, 2x extra shot".
func (l Line) AddonsLabel() string {
	var parts []string
	if l.vanillaShots > 0 {
		parts = append(parts, fmt.Sprintf("%dx vanilla", l.vanillaShots))
	}
	if l.espressoShots > 0 {
		parts = append(parts, fmt.Sprintf("%dx extra shot", l.espressoShots))
	}
	if len(parts) == 0 {
		return "no add-ons"
	}
	return strings.Join(parts, ", ")
}

// DisplayName renders "2x Latte (Tall)", dropping the count for single units.
func (l Line) DisplayName() string {
	if l.quantity > 1 {
		return fmt.Sprintf("%dx %s", l.quantity, l.drink.Key())
	}
	return l.drink.Key().String()
}

type lineJSON struct {
	Drink         menu.Drink      `json:"drink"`
	Quantity      int             `json:"quantity"`
	VanillaShots  int             `json:"vanillaShots"`
	EspressoShots int             `json:"espressoShots"`
	AddonsLabel   string          `json:"addonsLabel"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	AddonsCost    decimal.Decimal `json:"addonsCost"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// MarshalJSON renders the line with its derived prices.
func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineJSON{
		Drink:         l.drink,
		Quantity:      l.quantity,
		VanillaShots:  l.vanillaShots,
		EspressoShots: l.espressoShots,
		AddonsLabel:   l.AddonsLabel(),
		BasePrice:     l.BasePrice(),
		AddonsCost:    l.AddonsCost(),
		Subtotal:      l.Subtotal(),
	})
}
