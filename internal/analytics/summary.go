package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
)

// DrinkCount pairs a drink key with units sold.
type DrinkCount struct {
	Key   menu.Key `json:"key"`
	Label string   `json:"label"`
	Count int      `json:"count"`
}

// CategoryTotal reports units and pre-discount revenue for one category.
type CategoryTotal struct {
	Category menu.Category   `json:"category"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// AddonTotal reports shots and revenue for one add-on.
type AddonTotal struct {
	Addon   cart.Addon      `json:"addon"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Summary is a point-in-time view of the sales figures, rounded for display.
type Summary struct {
	Orders            int             `json:"orders"`
	TotalDrinksSold   int             `json:"totalDrinksSold"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TotalDiscount     decimal.Decimal `json:"totalDiscount"`
	DiscountedOrders  int             `json:"discountedOrders"`
	MostPopular       *DrinkCount     `json:"mostPopular,omitempty"`
	TopAddons         []AddonCount    `json:"topAddons"`
	TotalAddonRevenue decimal.Decimal `json:"totalAddonRevenue"`
	Addons            []AddonTotal    `json:"addons"`
	CategoriesSold    []menu.Category `json:"categoriesSold"`
	Categories        []CategoryTotal `json:"categories"`
	Unsold            []menu.Key      `json:"unsold"`
}

// Summarize collects every query into one snapshot taken under a single read lock, so a
// concurrent Fold lands either wholly before or wholly after it. catalog supplies the keys
// considered for the unsold list.
func (s *Stats) Summarize(catalog []menu.Key) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Orders:            s.orders,
		TotalDrinksSold:   s.totalDrinks,
		TotalRevenue:      s.totalRevenue.Round(2),
		AverageOrderValue: decimal.Zero,
		TotalDiscount:     s.totalDiscount.Round(2),
		DiscountedOrders:  s.discountedOrders,
		TopAddons:         s.topAddons(TopAddonsLimit),
		TotalAddonRevenue: s.totalAddonRevenue().Round(2),
		CategoriesSold:    s.categoriesSold(),
		Unsold:            s.unsold(catalog),
	}
	if sum.Orders > 0 {
		sum.AverageOrderValue = s.totalRevenue.Div(decimal.NewFromInt(int64(sum.Orders))).Round(2)
	}
	if key, count, ok := s.mostPopular(); ok {
		sum.MostPopular = &DrinkCount{Key: key, Label: key.String(), Count: count}
	}

	for _, a := range cart.Addons() {
		sum.Addons = append(sum.Addons, AddonTotal{Addon: a, Count: s.addonCounts[a], Revenue: s.addonRevenue[a].Round(2)})
	}
	for _, c := range sum.CategoriesSold {
		sum.Categories = append(sum.Categories, CategoryTotal{Category: c, Count: s.categoryCounts[c], Revenue: s.categoryRevenue[c].Round(2)})
	}
	if sum.CategoriesSold == nil {
		sum.CategoriesSold = []menu.Category{}
		sum.Categories = []CategoryTotal{}
	}
	return sum
}
