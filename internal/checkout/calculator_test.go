package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drinkpos/internal/cart"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/order"
	"github.com/noah-isme/drinkpos/internal/pricing"
	"github.com/noah-isme/drinkpos/internal/promo"
)

var (
	latteTall   = menu.MustDrink("Latte", "Tall", menu.Coffee, "3.50")
	latteGrande = menu.MustDrink("Latte", "Grande", menu.Coffee, "4.50")
	greenTea    = menu.MustDrink("Green Tea", "Tall", menu.Tea, "3.00")
	refresher   = menu.MustDrink("Mango Dragonfruit", "Venti", menu.Refresher, "5.25")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func clockAt(hour, minute int) func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 10, hour, minute, 0, 0, time.UTC) }
}

func newCalculator(now func() time.Time, promotions ...promo.Promotion) *Calculator {
	c := NewCalculator(promo.NewSelector(promotions...))
	c.Now = now
	return c
}

func TestCheckoutBulkOrder(t *testing.T) {
	calc := newCalculator(clockAt(9, 0), promo.BulkQuantity{}, promo.HappyHour{Now: clockAt(9, 0)})
	o, err := calc.Checkout(cart.New(cart.NewLine(latteTall, 4, 0, 0)))
	require.NoError(t, err)

	require.True(t, o.BaseTotal.Equal(dec("14.00")))
	require.True(t, o.AddonsTotal.IsZero())
	require.True(t, o.Discount.Equal(dec("1.40")))
	require.True(t, o.SubtotalBeforeTax.Equal(dec("12.60")))
	require.True(t, o.Tax.Equal(dec("1.0395")))
	require.Equal(t, "13.64", o.FinalTotal.StringFixed(2))
	require.Equal(t, promo.KindBulkQuantity, o.PromotionKind)
	require.Equal(t, "Bulk Order 10% (drinks only)", o.Promotion)
	require.Equal(t, clockAt(9, 0)(), o.CreatedAt)
	require.NotEqual(t, uuid.Nil, o.ID)
}

func TestCheckoutHappyHourBeatsBulk(t *testing.T) {
	now := clockAt(14, 45)
	calc := newCalculator(now, promo.BulkQuantity{}, promo.HappyHour{Now: now})
	o, err := calc.Checkout(cart.New(cart.NewLine(greenTea, 3, 0, 0)))
	require.NoError(t, err)
	require.Equal(t, promo.KindHappyHour, o.PromotionKind)
	require.True(t, o.Discount.Equal(dec("1.80")), "discount %s", o.Discount)

	// A fourth tea makes bulk applicable; happy hour still gives more.
	o, err = calc.Checkout(cart.New(cart.NewLine(greenTea, 4, 0, 0)))
	require.NoError(t, err)
	require.Equal(t, promo.KindHappyHour, o.PromotionKind)
	require.True(t, o.Discount.Equal(dec("2.40")))
}

func TestCheckoutBuyThreeCheapestSize(t *testing.T) {
	catalog := menu.New(latteTall, latteGrande, greenTea)
	calc := newCalculator(clockAt(10, 0), promo.Default(catalog, clockAt(10, 0), nil)...)
	o, err := calc.Checkout(cart.New(cart.NewLine(latteGrande, 3, 0, 0)))
	require.NoError(t, err)
	require.Equal(t, promo.KindBuyNGetFree, o.PromotionKind)
	require.True(t, o.Discount.Equal(dec("3.50")))
	require.True(t, o.SubtotalBeforeTax.Equal(dec("10.00")))
	require.True(t, o.FinalTotal.Equal(dec("10.825")))
}

func TestCheckoutEmptyCart(t *testing.T) {
	calc := newCalculator(clockAt(10, 0), promo.BulkQuantity{})
	_, err := calc.Checkout(cart.New())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	_, err = calc.Checkout(nil)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart for nil source, got %v", err)
	}
	var nilCart *cart.Cart
	_, err = calc.Quote(nilCart)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart from quote, got %v", err)
	}
}

func TestCheckoutWithoutPromotion(t *testing.T) {
	calc := newCalculator(clockAt(10, 0), promo.Default(menu.New(refresher), clockAt(10, 0), nil)...)
	o, err := calc.Checkout(cart.New(cart.NewLine(refresher, 1, 1, 1)))
	require.NoError(t, err)
	require.Equal(t, order.NoPromotion, o.Promotion)
	require.Empty(t, o.PromotionKind)
	require.True(t, o.Discount.IsZero())
	require.True(t, o.SubtotalBeforeTax.Equal(dec("6.35")))
}

func TestCheckoutDoesNotMutateCart(t *testing.T) {
	c := cart.New(cart.NewLine(latteTall, 2, 1, 0))
	calc := newCalculator(clockAt(10, 0), promo.BulkQuantity{})
	o, err := calc.Checkout(c)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Add(cart.NewLine(greenTea, 1, 0, 0))
	require.Len(t, o.Lines(), 1, "order lines must be a snapshot")
}

func TestCheckoutTotalsIdentity(t *testing.T) {
	catalog := menu.New(latteTall, latteGrande, greenTea, refresher)
	carts := []*cart.Cart{
		cart.New(cart.NewLine(latteTall, 1, 0, 0)),
		cart.New(cart.NewLine(greenTea, 2, 3, 1), cart.NewLine(refresher, 2, 0, 2)),
		cart.New(cart.NewLine(latteGrande, 5, 2, 2)),
		cart.New(cart.NewLine(greenTea, 6, 1, 0), cart.NewLine(latteTall, 1, 0, 4)),
	}
	for _, hour := range []int{9, 15} {
		now := clockAt(hour, 0)
		calc := newCalculator(now, promo.Default(catalog, now, nil)...)
		for i, c := range carts {
			o, err := calc.Checkout(c)
			require.NoError(t, err)
			want := o.BaseTotal.Add(o.AddonsTotal).Sub(o.Discount).Add(o.Tax)
			require.True(t, o.FinalTotal.Equal(want), "cart %d at %d:00", i, hour)
			require.True(t, o.Tax.Equal(o.SubtotalBeforeTax.Mul(pricing.TaxRate)), "cart %d", i)
			require.False(t, o.Discount.IsNegative())
			if o.PromotionKind != promo.KindBuyNGetFree {
				require.True(t, o.Discount.LessThanOrEqual(o.BaseTotal), "cart %d", i)
			}
		}
	}
}

func TestQuoteReportsCandidates(t *testing.T) {
	catalog := menu.New(latteTall, greenTea)
	now := clockAt(15, 0)
	calc := newCalculator(now, promo.Default(catalog, now, nil)...)
	c := cart.New(cart.NewLine(greenTea, 3, 0, 0), cart.NewLine(latteTall, 1, 0, 0))

	q, err := calc.Quote(c)
	require.NoError(t, err)
	require.Len(t, q.Candidates, 3)
	require.Equal(t, promo.KindBuyNGetFree, q.Kind)
	require.True(t, q.Totals.Discount.Equal(dec("3.00")))

	o, err := calc.Checkout(c)
	require.NoError(t, err)
	require.True(t, o.FinalTotal.Equal(q.Totals.Total), "quote and checkout must agree")
}

func TestZeroTaxRateIsHonoured(t *testing.T) {
	calc := newCalculator(clockAt(9, 0))
	calc.TaxRate = decimal.Zero
	c := cart.New()
	c.Add(cart.NewLine(latteTall, 1, 0, 0))

	o, err := calc.Checkout(c)
	require.NoError(t, err)
	require.True(t, o.Tax.IsZero(), "tax %s", o.Tax)
	require.True(t, o.FinalTotal.Equal(dec("3.50")), "total %s", o.FinalTotal)
}
