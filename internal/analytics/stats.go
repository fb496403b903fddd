package analytics

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/order"
)

// TopAddonsLimit is the number of add-ons reported by the sales summary.
const TopAddonsLimit = 3

// Stats accumulates sales figures across finalized orders. Fold is serialized by a single
// writer lock; queries take a read lock and never mutate.
//
// Category revenue is attributed from line base prices before discount and tax while total
// revenue is the sum of order final totals, so the two do not reconcile.
type Stats struct {
	mu sync.RWMutex

	drinkCounts map[menu.Key]int
	drinkOrder  []menu.Key

	categoryCounts  map[menu.Category]int
	categoryRevenue map[menu.Category]decimal.Decimal

	addonCounts  map[cart.Addon]int
	addonRevenue map[cart.Addon]decimal.Decimal
	addonOrder   []cart.Addon

	totalDrinks      int
	totalRevenue     decimal.Decimal
	totalDiscount    decimal.Decimal
	discountedOrders int
	orders           int
}

// NewStats returns an empty aggregator.
func NewStats() *Stats {
	s := &Stats{}
	s.init()
	return s
}

func (s *Stats) init() {
	if s.drinkCounts != nil {
		return
	}
	s.drinkCounts = make(map[menu.Key]int)
	s.categoryCounts = make(map[menu.Category]int)
	s.categoryRevenue = make(map[menu.Category]decimal.Decimal)
	s.addonCounts = make(map[cart.Addon]int)
	s.addonRevenue = make(map[cart.Addon]decimal.Decimal)
}

// Fold records a finalized order.
func (s *Stats) Fold(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	s.orders++
	s.totalRevenue = s.totalRevenue.Add(o.FinalTotal)
	s.totalDiscount = s.totalDiscount.Add(o.Discount)
	if o.Discounted() {
		s.discountedOrders++
	}

	for _, l := range o.Lines() {
		d := l.Drink()
		qty := l.Quantity()

		key := d.Key()
		if _, seen := s.drinkCounts[key]; !seen {
			s.drinkOrder = append(s.drinkOrder, key)
		}
		s.drinkCounts[key] += qty

		cat := d.Category()
		s.categoryCounts[cat] += qty
		s.categoryRevenue[cat] = s.categoryRevenue[cat].Add(l.BasePrice())

		for _, a := range cart.Addons() {
			shots := l.Shots(a)
			if shots <= 0 {
				continue
			}
			n := shots * qty
			if _, seen := s.addonCounts[a]; !seen {
				s.addonOrder = append(s.addonOrder, a)
			}
			s.addonCounts[a] += n
			s.addonRevenue[a] = s.addonRevenue[a].Add(a.Price().Mul(decimal.NewFromInt(int64(n))))
		}

		s.totalDrinks += qty
	}
}

// MostPopular returns the drink sold most often. Ties go to the drink recorded first.
func (s *Stats) MostPopular() (menu.Key, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mostPopular()
}

func (s *Stats) mostPopular() (menu.Key, int, bool) {
	var (
		best  menu.Key
		count int
	)
	for _, k := range s.drinkOrder {
		if c := s.drinkCounts[k]; c > count {
			best, count = k, c
		}
	}
	return best, count, count > 0
}

// AddonCount pairs an add-on with the number of shots sold.
type AddonCount struct {
	Addon cart.Addon `json:"addon"`
	Count int        `json:"count"`
}

// TopAddons returns up to n add-ons by count descending. Ties keep first-recorded order.
func (s *Stats) TopAddons(n int) []AddonCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topAddons(n)
}

func (s *Stats) topAddons(n int) []AddonCount {
	out := make([]AddonCount, 0, len(s.addonOrder))
	for _, a := range s.addonOrder {
		out = append(out, AddonCount{Addon: a, Count: s.addonCounts[a]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Unsold returns the catalog keys with no recorded sales, preserving catalog order.
func (s *Stats) Unsold(catalog []menu.Key) []menu.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsold(catalog)
}

func (s *Stats) unsold(catalog []menu.Key) []menu.Key {
	out := make([]menu.Key, 0, len(catalog))
	for _, k := range catalog {
		if s.drinkCounts[k] == 0 {
			out = append(out, k)
		}
	}
	return out
}

// TotalAddonRevenue sums revenue across add-ons.
func (s *Stats) TotalAddonRevenue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalAddonRevenue()
}

func (s *Stats) totalAddonRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.addonOrder {
		total = total.Add(s.addonRevenue[a])
	}
	return total
}

// TotalDrinksSold is the sum of line quantities across folded orders.
func (s *Stats) TotalDrinksSold() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDrinks
}

// TotalRevenue is the sum of order final totals, after discount and tax.
func (s *Stats) TotalRevenue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalRevenue
}

func (s *Stats) TotalDiscount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDiscount
}

// DiscountedOrders counts orders whose discount was greater than zero.
func (s *Stats) DiscountedOrders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.discountedOrders
}

func (s *Stats) Orders() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders
}

// CategoriesSold lists categories with at least one drink sold, in enumeration order.
func (s *Stats) CategoriesSold() []menu.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoriesSold()
}

func (s *Stats) categoriesSold() []menu.Category {
	var out []menu.Category
	for _, c := range menu.Categories() {
		if s.categoryCounts[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (s *Stats) CategoryCounts() map[menu.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.categoryCounts)
}

// CategoryRevenue returns pre-discount base revenue per category.
func (s *Stats) CategoryRevenue() map[menu.Category]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.categoryRevenue)
}

func (s *Stats) AddonCounts() map[cart.Addon]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.addonCounts)
}

func (s *Stats) AddonRevenue() map[cart.Addon]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.addonRevenue)
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
