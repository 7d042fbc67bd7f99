package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(price string, qty int, discount string, kind domain.DiscountKind) domain.CartItem {
	item := domain.NewAdHocItem("item", dec(price), qty)
	item.Discount = dec(discount)
	item.DiscountKind = kind
	return item
}

func TestComputeWithoutDiscount(t *testing.T) {
	totals, err := Compute([]domain.CartItem{line("1000", 2, "0", domain.DiscountAmount)}, dec("18"))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !totals.Subtotal.Equal(dec("2000")) {
		t.Fatalf("expected subtotal 2000, got %s", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("360")) || !totals.CGST.Equal(dec("180")) || !totals.SGST.Equal(dec("180")) {
		t.Fatalf("unexpected tax split: tax=%s cgst=%s sgst=%s", totals.Tax, totals.CGST, totals.SGST)
	}
	if !totals.GrandTotal.Equal(dec("2360")) {
		t.Fatalf("expected total 2360, got %s", totals.GrandTotal)
	}
}

func TestComputeWithPercentageDiscount(t *testing.T) {
	totals, err := Compute([]domain.CartItem{line("1000", 2, "10", domain.DiscountPercentage)}, dec("18"))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if !totals.LineTotals[0].Equal(dec("1800")) {
		t.Fatalf("expected line total 1800, got %s", totals.LineTotals[0])
	}
	if !totals.TotalDiscount.Equal(dec("200")) || !totals.AfterDiscount.Equal(dec("1800")) {
		t.Fatalf("unexpected discount: %s after=%s", totals.TotalDiscount, totals.AfterDiscount)
	}
	if !totals.Tax.Equal(dec("324")) || !totals.GrandTotal.Equal(dec("2124")) {
		t.Fatalf("unexpected tax/total: %s/%s", totals.Tax, totals.GrandTotal)
	}
}

func TestLineTotalClampsDiscounts(t *testing.T) {
	cases := []struct {
		name string
		item domain.CartItem
		want string
	}{
		{"amount larger than base", line("50", 2, "500", domain.DiscountAmount), "0"},
		{"percentage above hundred", line("50", 2, "150", domain.DiscountPercentage), "0"},
		{"percentage exactly hundred", line("50", 2, "100", domain.DiscountPercentage), "0"},
		{"amount partial", line("50", 2, "25.5", domain.DiscountAmount), "74.5"},
		{"negative treated as zero", line("50", 2, "-10", domain.DiscountAmount), "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LineTotal(tc.item)
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if got.IsNegative() {
				t.Fatalf("line total went negative: %s", got)
			}
		})
	}
}

func TestComputeIdentitiesHoldAcrossRates(t *testing.T) {
	carts := [][]domain.CartItem{
		{line("19.99", 3, "7", domain.DiscountPercentage), line("0.33", 7, "0.5", domain.DiscountAmount)},
		{line("100", 3, "33.333", domain.DiscountPercentage)},
		{line("0.01", 1, "0", domain.DiscountAmount), line("999.95", 11, "12.34", domain.DiscountAmount)},
	}
	rates := []string{"0", "5", "12", "18", "28", "7.5"}
	for _, cart := range carts {
		for _, rate := range rates {
			totals, err := Compute(cart, dec(rate))
			if err != nil {
				t.Fatalf("compute failed: %v", err)
			}
			if !totals.AfterDiscount.Add(totals.Tax).Equal(totals.GrandTotal) {
				t.Fatalf("afterDiscount + tax != total at rate %s: %s + %s != %s", rate, totals.AfterDiscount, totals.Tax, totals.GrandTotal)
			}
			if !totals.CGST.Add(totals.SGST).Equal(totals.Tax) {
				t.Fatalf("cgst + sgst != tax at rate %s", rate)
			}
			if totals.CGST.Sub(totals.SGST).Abs().GreaterThan(dec("0.01")) {
				t.Fatalf("tax halves differ by more than a cent: %s vs %s", totals.CGST, totals.SGST)
			}
		}
	}
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	if _, err := Compute([]domain.CartItem{line("10", 1, "0", domain.DiscountAmount)}, dec("-1")); !errors.Is(err, domain.ErrInvalidTaxRate) {
		t.Fatalf("expected ErrInvalidTaxRate, got %v", err)
	}
	bad := line("10", 1, "0", "bogus")
	if _, err := Compute([]domain.CartItem{bad}, dec("5")); !errors.Is(err, domain.ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount, got %v", err)
	}
	zero := line("10", 0, "0", domain.DiscountAmount)
	if _, err := Compute([]domain.CartItem{zero}, dec("5")); !errors.Is(err, domain.ErrInvalidLine) {
		t.Fatalf("expected ErrInvalidLine, got %v", err)
	}
}

func TestRepriceAfterPartialReturn(t *testing.T) {
	totals, err := Compute([]domain.CartItem{line("1000", 2, "10", domain.DiscountPercentage)}, dec("18"))
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	sold := domain.SaleLine{
		LineID:       "L1",
		Kind:         domain.LineAdHoc,
		UnitPrice:    dec("1000"),
		Quantity:     2,
		Discount:     dec("10"),
		DiscountKind: domain.DiscountPercentage,
		NetUnitPrice: NetUnitPrice(totals.LineTotals[0], 2),
		LineTotal:    totals.LineTotals[0],
	}
	lines, repriced := Reprice([]domain.SaleLine{ShrinkLine(sold, 1)}, dec("18"))
	if !lines[0].LineTotal.Equal(dec("900")) {
		t.Fatalf("expected remaining line total 900, got %s", lines[0].LineTotal)
	}
	if !repriced.Subtotal.Equal(dec("1000")) || !repriced.TotalDiscount.Equal(dec("100")) {
		t.Fatalf("unexpected subtotal/discount: %s/%s", repriced.Subtotal, repriced.TotalDiscount)
	}
	if !repriced.Tax.Equal(dec("162")) || !repriced.GrandTotal.Equal(dec("1062")) {
		t.Fatalf("unexpected tax/total: %s/%s", repriced.Tax, repriced.GrandTotal)
	}
}

func TestNetUnitPriceRestoresLineTotal(t *testing.T) {
	lineTotal := dec("290")
	unit := NetUnitPrice(lineTotal, 3)
	if got := Round(unit.Mul(decimal.NewFromInt(3))); !got.Equal(lineTotal) {
		t.Fatalf("expected %s, got %s", lineTotal, got)
	}
}

func TestShrinkLineInStepsGivesBackWholeLineTotal(t *testing.T) {
	line := domain.SaleLine{
		LineID:       "L1",
		UnitPrice:    dec("40"),
		Quantity:     3,
		NetUnitPrice: NetUnitPrice(dec("100"), 3),
		LineTotal:    dec("100"),
	}
	given := decimal.Zero
	for qty := 2; qty >= 0; qty-- {
		next := ShrinkLine(line, qty)
		given = given.Add(line.LineTotal.Sub(next.LineTotal))
		line = next
	}
	if !given.Equal(dec("100")) || !line.LineTotal.IsZero() {
		t.Fatalf("expected 100 given back and an empty line, got %s and %s", given, line.LineTotal)
	}
}
