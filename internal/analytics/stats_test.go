package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/order"
)

var (
	latteTall  = menu.MustDrink("Latte", "Tall", menu.Coffee, "3.50")
	mochaTall  = menu.MustDrink("Mocha", "Tall", menu.Coffee, "4.00")
	greenTea   = menu.MustDrink("Green Tea", "Tall", menu.Tea, "3.00")
	frapGrande = menu.MustDrink("Caramel Frappuccino", "Grande", menu.Frappuccino, "5.45")
	pumpkin    = menu.MustDrink("Pumpkin Spice Latte", "Venti", menu.Seasonal, "6.25")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOrder(final, discount string, lines ...cart.Line) order.Order {
	o := order.New(uuid.New(), lines, time.Date(2024, 5, 10, 11, 0, 0, 0, time.UTC))
	o.FinalTotal = dec(final)
	o.Discount = dec(discount)
	return o
}

func TestFoldAccumulates(t *testing.T) {
	s := NewStats()
	s.Fold(newOrder("12.00", "1.40", cart.NewLine(latteTall, 2, 1, 0), cart.NewLine(greenTea, 2, 0, 2)))
	s.Fold(newOrder("5.00", "0", cart.NewLine(greenTea, 1, 2, 0)))

	if got := s.TotalDrinksSold(); got != 5 {
		t.Fatalf("expected 5 drinks, got %d", got)
	}
	if got := s.Orders(); got != 2 {
		t.Fatalf("expected 2 orders, got %d", got)
	}
	if !s.TotalRevenue().Equal(dec("17.00")) {
		t.Fatalf("unexpected revenue %s", s.TotalRevenue())
	}
	if !s.TotalDiscount().Equal(dec("1.40")) || s.DiscountedOrders() != 1 {
		t.Fatalf("unexpected discount figures %s/%d", s.TotalDiscount(), s.DiscountedOrders())
	}

	counts := s.AddonCounts()
	if counts[cart.AddonVanilla] != 4 || counts[cart.AddonEspresso] != 4 {
		t.Fatalf("unexpected add-on counts %v", counts)
	}
	// 4 vanilla at 0.60 plus 4 espresso at 0.50.
	if !s.TotalAddonRevenue().Equal(dec("4.40")) {
		t.Fatalf("unexpected add-on revenue %s", s.TotalAddonRevenue())
	}

	revenue := s.CategoryRevenue()
	if !revenue[menu.Coffee].Equal(dec("7.00")) || !revenue[menu.Tea].Equal(dec("9.00")) {
		t.Fatalf("category revenue must use pre-discount base prices, got %v", revenue)
	}
	if c := s.CategoryCounts(); c[menu.Coffee] != 2 || c[menu.Tea] != 3 {
		t.Fatalf("unexpected category counts %v", c)
	}
	sold := s.CategoriesSold()
	if len(sold) != 2 || sold[0] != menu.Coffee || sold[1] != menu.Tea {
		t.Fatalf("unexpected categories sold %v", sold)
	}
}

func TestTotalDrinksSoldMatchesLineQuantities(t *testing.T) {
	s := NewStats()
	orders := []order.Order{
		newOrder("1", "0", cart.NewLine(latteTall, 3, 0, 0)),
		newOrder("1", "0", cart.NewLine(mochaTall, 1, 0, 0), cart.NewLine(frapGrande, 4, 1, 1)),
		newOrder("1", "0", cart.NewLine(pumpkin, 2, 0, 0)),
	}
	want := 0
	for _, o := range orders {
		s.Fold(o)
		for _, l := range o.Lines() {
			want += l.Quantity()
		}
	}
	if got := s.TotalDrinksSold(); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMostPopularTieGoesToFirstRecorded(t *testing.T) {
	s := NewStats()
	if _, _, ok := s.MostPopular(); ok {
		t.Fatal("empty stats must report no popular drink")
	}
	s.Fold(newOrder("1", "0", cart.NewLine(mochaTall, 2, 0, 0), cart.NewLine(latteTall, 2, 0, 0)))
	key, count, ok := s.MostPopular()
	if !ok || key != mochaTall.Key() || count != 2 {
		t.Fatalf("expected Mocha (Tall) x2, got %v x%d", key, count)
	}
	s.Fold(newOrder("1", "0", cart.NewLine(latteTall, 1, 0, 0)))
	key, count, _ = s.MostPopular()
	if key != latteTall.Key() || count != 3 {
		t.Fatalf("expected Latte (Tall) x3, got %v x%d", key, count)
	}
}

func TestTopAddons(t *testing.T) {
	s := NewStats()
	if got := s.TopAddons(3); len(got) != 0 {
		t.Fatalf("expected no add-ons, got %v", got)
	}
	s.Fold(newOrder("1", "0", cart.NewLine(latteTall, 1, 0, 2)))
	s.Fold(newOrder("1", "0", cart.NewLine(latteTall, 1, 3, 0)))
	got := s.TopAddons(3)
	if len(got) != 2 || got[0].Addon != cart.AddonVanilla || got[0].Count != 3 {
		t.Fatalf("unexpected ranking %v", got)
	}

	tie := NewStats()
	tie.Fold(newOrder("1", "0", cart.NewLine(latteTall, 1, 0, 1)))
	tie.Fold(newOrder("1", "0", cart.NewLine(latteTall, 1, 1, 0)))
	got = tie.TopAddons(1)
	if len(got) != 1 || got[0].Addon != cart.AddonEspresso {
		t.Fatalf("tie must keep first-recorded add-on, got %v", got)
	}
}

func TestUnsoldPreservesCatalogOrder(t *testing.T) {
	catalog := menu.New(latteTall, mochaTall, greenTea, frapGrande, pumpkin)
	s := NewStats()
	s.Fold(newOrder("1", "0", cart.NewLine(mochaTall, 1, 0, 0), cart.NewLine(pumpkin, 2, 0, 0)))

	unsold := s.Unsold(catalog.Keys())
	if len(unsold) != catalog.Len()-2 {
		t.Fatalf("expected %d unsold, got %d", catalog.Len()-2, len(unsold))
	}
	want := []menu.Key{latteTall.Key(), greenTea.Key(), frapGrande.Key()}
	for i, k := range want {
		if unsold[i] != k {
			t.Fatalf("position %d: expected %v, got %v", i, k, unsold[i])
		}
	}
}

func TestQueriesDoNotMutate(t *testing.T) {
	s := NewStats()
	s.Fold(newOrder("4.00", "0", cart.NewLine(latteTall, 1, 1, 0)))
	before := s.Summarize(nil)
	_ = s.TopAddons(3)
	_, _, _ = s.MostPopular()
	_ = s.Unsold([]menu.Key{greenTea.Key()})
	after := s.Summarize(nil)
	if before.Orders != after.Orders || !before.TotalRevenue.Equal(after.TotalRevenue) || before.TotalDrinksSold != after.TotalDrinksSold {
		t.Fatal("queries must not change the aggregate")
	}
}

func TestZeroValueStatsFolds(t *testing.T) {
	var s Stats
	s.Fold(newOrder("3.79", "0", cart.NewLine(latteTall, 1, 0, 0)))
	if s.TotalDrinksSold() != 1 {
		t.Fatal("zero value must be usable")
	}
}

func TestConcurrentFold(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fold(newOrder("1.00", "0", cart.NewLine(latteTall, 2, 1, 1)))
			_ = s.Summarize(nil)
		}()
	}
	wg.Wait()
	if s.TotalDrinksSold() != 100 || s.Orders() != 50 {
		t.Fatalf("unexpected totals %d/%d", s.TotalDrinksSold(), s.Orders())
	}
	if !s.TotalRevenue().Equal(dec("50")) {
		t.Fatalf("unexpected revenue %s", s.TotalRevenue())
	}
}

func TestSummarize(t *testing.T) {
	catalog := menu.New(latteTall, greenTea)
	s := NewStats()
	empty := s.Summarize(catalog.Keys())
	if empty.MostPopular != nil || !empty.AverageOrderValue.IsZero() || len(empty.Unsold) != 2 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}

	s.Fold(newOrder("10.00", "1.00", cart.NewLine(greenTea, 3, 0, 0)))
	s.Fold(newOrder("5.01", "0", cart.NewLine(latteTall, 1, 0, 1)))
	sum := s.Summarize(catalog.Keys())
	if sum.MostPopular == nil || sum.MostPopular.Label != "Green Tea (Tall)" {
		t.Fatalf("unexpected most popular %+v", sum.MostPopular)
	}
	if !sum.AverageOrderValue.Equal(dec("7.51")) {
		t.Fatalf("unexpected average %s", sum.AverageOrderValue)
	}
	if len(sum.Unsold) != 0 || len(sum.Categories) != 2 || len(sum.Addons) != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestSummarizeIsConsistentUnderFolds(t *testing.T) {
	s := NewStats()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.Fold(newOrder("1.00", "0", cart.NewLine(latteTall, 2, 1, 0)))
		}
	}()
	for {
		sum := s.Summarize(nil)
		if sum.TotalDrinksSold != sum.Orders*2 {
			t.Fatalf("torn snapshot: %d orders but %d drinks", sum.Orders, sum.TotalDrinksSold)
		}
		if !sum.TotalRevenue.Equal(dec("1").Mul(decimal.NewFromInt(int64(sum.Orders)))) {
			t.Fatalf("torn snapshot: %d orders but revenue %s", sum.Orders, sum.TotalRevenue)
		}
		select {
		case <-done:
			return
		default:
		}
	}
}
