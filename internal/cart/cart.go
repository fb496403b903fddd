package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrLineNotFound indicates the requested cart line does not exist.
var ErrLineNotFound = errors.New("cart line not found")

// Cart is an ordered list of lines owned by a single ordering session.
type Cart struct {
	lines []Line
}

// New returns a cart holding the provided lines.
func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		c.Add(l)
	}
	return c
}

// Add appends a line and returns its index.
func (c *Cart) Add(l Line) int {
	l.SetQuantity(l.quantity)
	l.SetVanillaShots(l.vanillaShots)
	l.SetEspressoShots(l.espressoShots)
	c.lines = append(c.lines, l)
	return len(c.lines) - 1
}

// Remove drops the line at index.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.lines) {
		return fmt.Errorf("line %d: %w", index, ErrLineNotFound)
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	if c == nil {
		return nil
	}
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// TotalQuantity sums the quantities of every line.
func (c *Cart) TotalQuantity() int {
	if c == nil {
		return 0
	}
	return TotalQuantity(c.lines)
}

// Subtotal sums line subtotals before promotions.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// TotalQuantity sums the quantities of lines.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.quantity
	}
	return total
}
