package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrDrinkNotFound is returned when no entry matches the requested name and size.
var ErrDrinkNotFound = errors.New("drink not found")

// Row is a tabular menu row already split into columns by the reader.
type Row struct {
	Line     int
	Name     string
	Category string
	Size     string
	Price    string
}

// RowError reports a menu row that was skipped.
type RowError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("menu row %d: %s", e.Line, e.Reason)
	}
	return "menu row: " + e.Reason
}

func (e *RowError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LoadReport summarises what Load kept and what it skipped.
type LoadReport struct {
	Loaded     int
	Duplicates []Key
	Rejected   []*RowError
}

// Catalog is the deduplicated set of drinks available for ordering. It is never
// mutated after Load, so concurrent readers need no locking.
type Catalog struct {
	entries []Drink
	index   map[Key]int
}

// Load builds a catalog from rows. Rows with an unknown category, missing fields or a bad
// price are rejected; a row whose name and size repeat an earlier entry is discarded.
func Load(rows []Row) (*Catalog, LoadReport) {
	c := &Catalog{index: make(map[Key]int, len(rows))}
	var report LoadReport
	for _, row := range rows {
		d, rowErr := drinkFromRow(row)
		if rowErr != nil {
			report.Rejected = append(report.Rejected, rowErr)
			continue
		}
		if !c.add(d) {
			report.Duplicates = append(report.Duplicates, d.Key())
			continue
		}
		report.Loaded++
	}
	return c, report
}

// New builds a catalog directly from drinks, discarding duplicates.
func New(drinks ...Drink) *Catalog {
	c := &Catalog{index: make(map[Key]int, len(drinks))}
	for _, d := range drinks {
		c.add(d)
	}
	return c
}

func (c *Catalog) add(d Drink) bool {
	k := d.Key().fold()
	if _, exists := c.index[k]; exists {
		return false
	}
	c.index[k] = len(c.entries)
	c.entries = append(c.entries, d)
	return true
}

func drinkFromRow(row Row) (Drink, *RowError) {
	name := strings.TrimSpace(row.Name)
	size := strings.TrimSpace(row.Size)
	if name == "" || size == "" {
		return Drink{}, &RowError{Line: row.Line, Reason: "name and size are required"}
	}
	category, err := ParseCategory(row.Category)
	if err != nil {
		return Drink{}, &RowError{Line: row.Line, Reason: fmt.Sprintf("unknown category %q", strings.TrimSpace(row.Category)), Err: err}
	}
	price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
	if err != nil {
		return Drink{}, &RowError{Line: row.Line, Reason: fmt.Sprintf("bad price %q", strings.TrimSpace(row.Price)), Err: err}
	}
	d, err := NewDrink(name, size, category, price)
	if err != nil {
		return Drink{}, &RowError{Line: row.Line, Reason: err.Error(), Err: err}
	}
	return d, nil
}

// Len reports the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the drinks in load order.
func (c *Catalog) Entries() []Drink {
	if c == nil {
		return nil
	}
	out := make([]Drink, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns the entry keys in load order.
func (c *Catalog) Keys() []Key {
	if c == nil {
		return nil
	}
	keys := make([]Key, 0, len(c.entries))
	for _, d := range c.entries {
		keys = append(keys, d.Key())
	}
	return keys
}

// Find looks up a drink by name and size, ignoring case.
func (c *Catalog) Find(name, size string) (Drink, error) {
	if c != nil {
		if i, ok := c.index[Key{Name: name, Size: size}.fold()]; ok {
			return c.entries[i], nil
		}
	}
	return Drink{}, fmt.Errorf("%s: %w", Key{Name: strings.TrimSpace(name), Size: strings.TrimSpace(size)}, ErrDrinkNotFound)
}

// ByCategory lists the drinks of one category in load order.
func (c *Catalog) ByCategory(category Category) []Drink {
	if c == nil {
		return nil
	}
	var out []Drink
	for _, d := range c.entries {
		if d.category == category {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the distinct drink names in the order they first appear.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.entries))
	var names []string
	for _, d := range c.entries {
		k := foldName(d.name)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		names = append(names, d.name)
	}
	return names
}

// CheapestPrice returns the lowest unit price across all sizes of name.
func (c *Catalog) CheapestPrice(name string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	target := foldName(name)
	var (
		cheapest decimal.Decimal
		found    bool
	)
	for _, d := range c.entries {
		if foldName(d.name) != target {
			continue
		}
		if !found || d.price.LessThan(cheapest) {
			cheapest = d.price
			found = true
		}
	}
	return cheapest, found
}
