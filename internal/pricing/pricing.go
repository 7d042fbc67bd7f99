// Package pricing turns cart lines and a tax rate into priced totals.
//
// Every amount leaving this package is rounded to two decimal places. Tax is
// split into two halves (CGST and SGST) with the second half taking the
// rounding remainder, so the halves always add back to the tax exactly.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Round rounds a money amount to cents.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

func base(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

// LineTotal applies the line discount to price x quantity. Percentage
// discounts are clamped to 100 and amount discounts to the line base, so a
// line never goes below zero.
func LineTotal(item domain.CartItem) decimal.Decimal {
	lineBase := base(item.UnitPrice, item.Quantity)
	discount := item.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	switch item.DiscountKind {
	case domain.DiscountPercentage:
		pct := decimal.Min(discount, hundred)
		return Round(lineBase.Mul(hundred.Sub(pct)).Div(hundred))
	default:
		return Round(decimal.Max(decimal.Zero, lineBase.Sub(decimal.Min(discount, lineBase))))
	}
}

func ValidateItem(item domain.CartItem) error {
	if item.Kind != domain.LineInventory && item.Kind != domain.LineAdHoc {
		return fmt.Errorf("%w: unknown line kind %q", domain.ErrInvalidLine, item.Kind)
	}
	if item.Kind == domain.LineInventory && item.ProductID == "" {
		return fmt.Errorf("%w: inventory line without product", domain.ErrInvalidLine)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price for %s", domain.ErrInvalidLine, item.Name)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1 for %s", domain.ErrInvalidLine, item.Name)
	}
	return ValidateDiscount(item.Discount, item.DiscountKind)
}

func ValidateDiscount(value decimal.Decimal, kind domain.DiscountKind) error {
	if kind != domain.DiscountAmount && kind != domain.DiscountPercentage {
		return fmt.Errorf("%w: unknown discount kind %q", domain.ErrInvalidDiscount, kind)
	}
	if value.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", domain.ErrInvalidDiscount)
	}
	return nil
}

// Compute prices the given lines. Lines are validated first; any invalid
// line fails the whole computation.
func Compute(items []domain.CartItem, taxRatePercent decimal.Decimal) (domain.Totals, error) {
	if taxRatePercent.IsNegative() {
		return domain.Totals{}, domain.ErrInvalidTaxRate
	}

	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	lineTotals := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		if err := ValidateItem(item); err != nil {
			return domain.Totals{}, err
		}
		lineBase := Round(base(item.UnitPrice, item.Quantity))
		lineTotal := LineTotal(item)
		subtotal = subtotal.Add(lineBase)
		totalDiscount = totalDiscount.Add(lineBase.Sub(lineTotal))
		lineTotals = append(lineTotals, lineTotal)
	}

	return assemble(subtotal, totalDiscount, taxRatePercent, lineTotals), nil
}

// ShrinkLine values a sale line at a smaller quantity using its captured
// post-discount unit price. The difference between the old and the new line
// total is what the removed units cost, so shrinking a line to zero in any
// number of steps gives back exactly its original line total.
func ShrinkLine(line domain.SaleLine, qty int) domain.SaleLine {
	line.Quantity = qty
	if qty <= 0 {
		line.Quantity = 0
		line.LineTotal = decimal.Zero
		return line
	}
	lineBase := Round(base(line.UnitPrice, qty))
	lineTotal := Round(line.NetUnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	if lineTotal.GreaterThan(lineBase) {
		lineTotal = lineBase
	}
	line.LineTotal = lineTotal
	return line
}

// Reprice recomputes sale totals from lines that were already priced. Line
// totals are taken as stored; only the subtotal, discount and tax are
// derived again.
func Reprice(lines []domain.SaleLine, taxRatePercent decimal.Decimal) ([]domain.SaleLine, domain.Totals) {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	repriced := make([]domain.SaleLine, 0, len(lines))
	lineTotals := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		lineBase := Round(base(line.UnitPrice, line.Quantity))
		subtotal = subtotal.Add(lineBase)
		totalDiscount = totalDiscount.Add(lineBase.Sub(line.LineTotal))
		repriced = append(repriced, line)
		lineTotals = append(lineTotals, line.LineTotal)
	}
	return repriced, assemble(subtotal, totalDiscount, taxRatePercent, lineTotals)
}

// NetUnitPrice is the post-discount price of one unit of a priced line,
// kept at four places so that multiplying back by the quantity restores the
// line total to the cent.
func NetUnitPrice(lineTotal decimal.Decimal, qty int) decimal.Decimal {
	if qty < 1 {
		return decimal.Zero
	}
	return lineTotal.DivRound(decimal.NewFromInt(int64(qty)), 4)
}

// SplitTax divides tax into CGST and SGST halves.
func SplitTax(tax decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	cgst := tax.Div(decimal.NewFromInt(2)).Round(2)
	return cgst, tax.Sub(cgst)
}

func assemble(subtotal, totalDiscount, taxRatePercent decimal.Decimal, lineTotals []decimal.Decimal) domain.Totals {
	afterDiscount := subtotal.Sub(totalDiscount)
	tax := Round(afterDiscount.Mul(taxRatePercent).Div(hundred))
	cgst, sgst := SplitTax(tax)
	return domain.Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		AfterDiscount: afterDiscount,
		TaxRate:       taxRatePercent,
		Tax:           tax,
		CGST:          cgst,
		SGST:          sgst,
		GrandTotal:    afterDiscount.Add(tax),
		LineTotals:    lineTotals,
	}
}
