package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCategory is returned when a category string does not match any known category.
var ErrUnknownCategory = errors.New("unknown drink category")

// Category groups drinks on the menu.
type Category string

const (
	Coffee      Category = "Coffee"
	Tea         Category = "Tea"
	Refresher   Category = "Refresher"
	Frappuccino Category = "Frappuccino"
	Seasonal    Category = "Seasonal"
)

var categories = []Category{Coffee, Tea, Refresher, Frappuccino, Seasonal}

// Categories returns every known category in menu order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches value against the known categories ignoring case and surrounding spaces.
func ParseCategory(value string) (Category, error) {
	trimmed := strings.TrimSpace(value)
	for _, c := range categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q: %w", trimmed, ErrUnknownCategory)
}

// Key identifies a drink by name and size.
type Key struct {
	Name string `json:"name"`
	Size string `json:"size"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s (%s)", k.Name, k.Size)
}

func (k Key) fold() Key {
	return Key{Name: foldName(k.Name), Size: strings.ToLower(strings.TrimSpace(k.Size))}
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Drink is an immutable menu entry.
type Drink struct {
	name     string
	size     string
	category Category
	price    decimal.Decimal
}

// NewDrink validates the inputs and builds a Drink.
func NewDrink(name, size string, category Category, price decimal.Decimal) (Drink, error) {
	name = strings.TrimSpace(name)
	size = strings.TrimSpace(size)
	if name == "" {
		return Drink{}, errors.New("drink name is required")
	}
	if size == "" {
		return Drink{}, errors.New("drink size is required")
	}
	category, err := ParseCategory(string(category))
	if err != nil {
		return Drink{}, err
	}
	if price.IsNegative() {
		return Drink{}, fmt.Errorf("price %s must not be negative", price.String())
	}
	return Drink{name: name, size: size, category: category, price: price}, nil
}

// MustDrink is NewDrink for fixtures; it panics on invalid input.
func MustDrink(name, size string, category Category, price string) Drink {
	d, err := NewDrink(name, size, category, decimal.RequireFromString(price))
	if err != nil {
		panic(err)
	}
	return d
}

func (d Drink) Name() string              { return d.name }
func (d Drink) Size() string              { return d.size }
func (d Drink) Category() Category        { return d.category }
func (d Drink) Price() decimal.Decimal    { return d.price }
func (d Drink) Key() Key                  { return Key{Name: d.name, Size: d.size} }
func (d Drink) IsZero() bool              { return d.name == "" }
func (d Drink) Is(category Category) bool { return d.category == category }

// Label renders the display line shared by every category.
func Label(d Drink) string {
	return fmt.Sprintf("%s (%s) - $%s", d.name, d.size, d.price.StringFixed(2))
}

type drinkJSON struct {
	Name     string          `json:"name"`
	Size     string          `json:"size"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Label    string          `json:"label"`
}

// MarshalJSON exposes the drink fields for API responses.
func (d Drink) MarshalJSON() ([]byte, error) {
	return json.Marshal(drinkJSON{
		Name:     d.name,
		Size:     d.size,
		Category: d.category,
		Price:    d.price,
		Label:    Label(d),
	})
}
