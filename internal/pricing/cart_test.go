package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

func TestCartIncrementStopsAtStock(t *testing.T) {
	cart := NewCart()
	product := domain.Product{ID: "P-1", Name: "Rice 1kg", Price: dec("62"), Stock: 2}
	if err := cart.Add(domain.NewInventoryItem(product, 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Increment("P-1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := cart.Increment("P-1"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if cart.Items()[0].Quantity != 2 {
		t.Fatalf("quantity changed on failed increment: %d", cart.Items()[0].Quantity)
	}
}

func TestCartAdHocLinesIgnoreStock(t *testing.T) {
	cart := NewCart()
	if err := cart.Add(domain.NewAdHocItem("Gift wrap", dec("15"), 500)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Increment("adhoc:1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	service := domain.Product{ID: "SVC-1", Name: "Alteration", Price: dec("80"), NonInventory: true}
	if err := cart.Add(domain.NewInventoryItem(service, 40)); err != nil {
		t.Fatalf("non-inventory product should not be stock bound: %v", err)
	}
	if cart.Len() != 2 {
		t.Fatalf("expected 2 lines, got %d", cart.Len())
	}
}

func TestCartDecrementToZeroRemovesLine(t *testing.T) {
	cart := NewCart()
	product := domain.Product{ID: "P-1", Name: "Soap", Price: dec("30"), Stock: 10}
	_ = cart.Add(domain.NewInventoryItem(product, 1))
	if err := cart.Decrement("P-1"); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if cart.Len() != 0 {
		t.Fatalf("expected empty cart, got %d lines", cart.Len())
	}
	if _, err := cart.Totals(dec("18")); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCartAddMergesSameProduct(t *testing.T) {
	cart := NewCart()
	product := domain.Product{ID: "P-1", Name: "Soap", Price: dec("30"), Stock: 3}
	_ = cart.Add(domain.NewInventoryItem(product, 2))
	if err := cart.Add(domain.NewInventoryItem(product, 2)); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected merged quantity to exceed stock, got %v", err)
	}
	if err := cart.Add(domain.NewInventoryItem(product, 1)); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if cart.Len() != 1 || cart.Items()[0].Quantity != 3 {
		t.Fatalf("expected a single line of 3, got %+v", cart.Items())
	}
}

func TestCartDiscountEditsDoNotStack(t *testing.T) {
	cart := NewCart()
	_ = cart.Add(domain.NewAdHocItem("Shirt", dec("1000"), 2))
	for i := 0; i < 3; i++ {
		if err := cart.SetDiscount("adhoc:1", dec("10"), domain.DiscountPercentage); err != nil {
			t.Fatalf("set discount failed: %v", err)
		}
	}
	totals, err := cart.Totals(dec("18"))
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if !totals.GrandTotal.Equal(dec("2124")) {
		t.Fatalf("expected 2124, got %s", totals.GrandTotal)
	}
	if err := cart.SetDiscount("adhoc:1", dec("-5"), domain.DiscountAmount); !errors.Is(err, domain.ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount, got %v", err)
	}
}

func TestCartRemoveDropsOnlyThatLine(t *testing.T) {
	cart := NewCart()
	_ = cart.Add(domain.NewInventoryItem(domain.Product{ID: "P-1", Name: "Soap", Price: dec("30"), Stock: 5}, 1))
	_ = cart.Add(domain.NewInventoryItem(domain.Product{ID: "P-2", Name: "Oil", Price: dec("140"), Stock: 5}, 1))

	cart.Remove("P-1")
	cart.Remove("P-404")
	if cart.Len() != 1 || cart.Items()[0].ProductID != "P-2" {
		t.Fatalf("expected only P-2 left, got %+v", cart.Items())
	}
}

func TestCartKeepsSameNameAdHocLinesApart(t *testing.T) {
	cart := NewCart()
	if err := cart.Add(domain.NewAdHocItem("Misc", dec("50"), 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := cart.Add(domain.NewAdHocItem("Misc", dec("200"), 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	totals, err := cart.Totals(decimal.Zero)
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}
	if cart.Len() != 2 || !totals.GrandTotal.Equal(dec("250")) {
		t.Fatalf("expected 2 lines totalling 250, got %d lines, %s", cart.Len(), totals.GrandTotal)
	}
	items := cart.Items()
	if items[0].Key() == items[1].Key() {
		t.Fatalf("ad hoc lines share key %q", items[0].Key())
	}
}

func TestCartSplitsProductLinesWithDifferentDiscounts(t *testing.T) {
	cart := NewCart()
	product := domain.Product{ID: "P-1", Name: "Soap", Price: dec("100"), Stock: 3}
	_ = cart.Add(domain.NewInventoryItem(product, 1))

	discounted := domain.NewInventoryItem(product, 1)
	discounted.Discount = dec("10")
	if err := cart.Add(discounted); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.Len() != 2 {
		t.Fatalf("expected differently discounted lines to stay apart, got %+v", cart.Items())
	}
	totals, _ := cart.Totals(decimal.Zero)
	if !totals.GrandTotal.Equal(dec("190")) {
		t.Fatalf("expected 190, got %s", totals.GrandTotal)
	}

	// stock is shared across both lines
	if err := cart.Increment("P-1"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := cart.Increment("P-1"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock across lines, got %v", err)
	}
}
