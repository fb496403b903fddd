package menu

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"Coffee":      Coffee,
		"  tea ":      Tea,
		"REFRESHER":   Refresher,
		"frappuccino": Frappuccino,
		"Seasonal":    Seasonal,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseCategory("Smoothie"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestLoadDeduplicatesAndRejects(t *testing.T) {
	rows := []Row{
		{Line: 2, Name: "Caffe Latte", Category: "Coffee", Size: "Tall", Price: "3.50"},
		{Line: 3, Name: "Caffe Latte", Category: "Coffee", Size: "Grande", Price: "4.50"},
		{Line: 4, Name: "caffe latte", Category: "Coffee", Size: "TALL", Price: "9.99"},
		{Line: 5, Name: "Green Tea", Category: "Herbal", Size: "Tall", Price: "3.00"},
		{Line: 6, Name: "Chai", Category: "Tea", Size: "Tall", Price: "abc"},
		{Line: 7, Name: "", Category: "Tea", Size: "Tall", Price: "3.00"},
		{Line: 8, Name: "Mocha", Category: "Coffee", Size: "Venti", Price: "-1"},
		{Line: 9, Name: "Green Tea", Category: "tea", Size: "Tall", Price: "3.00"},
	}
	catalog, report := Load(rows)

	if catalog.Len() != 3 || report.Loaded != 3 {
		t.Fatalf("expected 3 entries, got len=%d loaded=%d", catalog.Len(), report.Loaded)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0].Name != "caffe latte" {
		t.Fatalf("unexpected duplicates %#v", report.Duplicates)
	}
	if len(report.Rejected) != 4 {
		t.Fatalf("expected 4 rejected rows, got %d", len(report.Rejected))
	}
	if report.Rejected[0].Line != 5 || !errors.Is(report.Rejected[0], ErrUnknownCategory) {
		t.Fatalf("expected unknown category on line 5, got %v", report.Rejected[0])
	}

	first, err := catalog.Find("CAFFE LATTE", "tall")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !first.Price().Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("duplicate replaced the first entry: %s", first.Price())
	}
	if _, err := catalog.Find("Caffe Latte", "Venti"); !errors.Is(err, ErrDrinkNotFound) {
		t.Fatalf("expected ErrDrinkNotFound, got %v", err)
	}
}

func TestCatalogQueries(t *testing.T) {
	catalog := New(
		MustDrink("Latte", "Grande", Coffee, "4.50"),
		MustDrink("Green Tea", "Tall", Tea, "3.00"),
		MustDrink("Latte", "Tall", Coffee, "3.50"),
		MustDrink("Latte", "Venti", Coffee, "5.25"),
	)

	if got := catalog.Names(); strings.Join(got, ",") != "Latte,Green Tea" {
		t.Fatalf("unexpected names %v", got)
	}
	cheapest, ok := catalog.CheapestPrice("latte")
	if !ok || !cheapest.Equal(decimal.RequireFromString("3.50")) {
		t.Fatalf("expected cheapest latte 3.50, got %s ok=%v", cheapest, ok)
	}
	if _, ok := catalog.CheapestPrice("Mocha"); ok {
		t.Fatal("expected no price for unknown drink")
	}
	if teas := catalog.ByCategory(Tea); len(teas) != 1 || teas[0].Name() != "Green Tea" {
		t.Fatalf("unexpected tea list %v", teas)
	}
	keys := catalog.Keys()
	if len(keys) != 4 || keys[2].String() != "Latte (Tall)" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestLabelIsSharedAcrossCategories(t *testing.T) {
	coffee := MustDrink("Caffe Latte", "Grande", Coffee, "4.25")
	tea := MustDrink("Chai Latte", "Tall", Tea, "3.9")
	if got := Label(coffee); got != "Caffe Latte (Grande) - $4.25" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := Label(tea); got != "Chai Latte (Tall) - $3.90" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestNewDrinkValidation(t *testing.T) {
	if _, err := NewDrink(" ", "Tall", Coffee, decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewDrink("Latte", "Tall", Category("Juice"), decimal.NewFromInt(1)); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := NewDrink("Latte", "Tall", Coffee, decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected error for negative price")
	}
}
