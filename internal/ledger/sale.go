package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
	"galla/backend/internal/pricing"
)

// NewSale snapshots priced cart lines and a reconciled payment into a sale
// record. Each line keeps its post-discount unit price so later returns can
// be valued without re-running the discount rules.
func NewSale(id, day, cashier string, at time.Time, items []domain.CartItem, totals domain.Totals, decision domain.PaymentDecision) (domain.Sale, error) {
	if len(items) == 0 {
		return domain.Sale{}, domain.ErrEmptyCart
	}
	if len(totals.LineTotals) != len(items) {
		return domain.Sale{}, fmt.Errorf("%w: totals do not match cart", domain.ErrInvalidLine)
	}
	if totals.GrandTotal.IsNegative() {
		return domain.Sale{}, fmt.Errorf("%w: negative total", domain.ErrInvalidAmount)
	}
	if decision.Method == "" || decision.AmountApplied.GreaterThan(totals.GrandTotal) {
		return domain.Sale{}, fmt.Errorf("%w: payment was not reconciled", domain.ErrInsufficientPayment)
	}

	lines := make([]domain.SaleLine, 0, len(items))
	for i, item := range items {
		lines = append(lines, domain.SaleLine{
			LineID:       fmt.Sprintf("L%d", i+1),
			Kind:         item.Kind,
			ProductID:    item.ProductID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			Discount:     item.Discount,
			DiscountKind: item.DiscountKind,
			NetUnitPrice: pricing.NetUnitPrice(totals.LineTotals[i], item.Quantity),
			LineTotal:    totals.LineTotals[i],
		})
	}

	tenders := make([]domain.Tender, len(decision.Breakdown))
	copy(tenders, decision.Breakdown)

	return domain.Sale{
		ID:            id,
		Day:           day,
		Cashier:       cashier,
		Lines:         lines,
		Subtotal:      totals.Subtotal,
		TotalDiscount: totals.TotalDiscount,
		TaxRate:       totals.TaxRate,
		Tax:           totals.Tax,
		CGST:          totals.CGST,
		SGST:          totals.SGST,
		GrandTotal:    totals.GrandTotal,
		Method:        decision.Method,
		AmountPaid:    decision.AmountApplied,
		Change:        decision.Change,
		Tenders:       tenders,
		Customer:      decision.Customer,
		Returns:       []domain.ReturnRef{},
		Version:       1,
		CreatedAt:     at,
		UpdatedAt:     at,
	}, nil
}

// StockAfterSale is the absolute stock to write back for each inventory
// product sold. Products appearing on several lines are summed.
func StockAfterSale(sale domain.Sale, current map[string]domain.Product) (map[string]int, error) {
	sold := make(map[string]int)
	for _, line := range sale.Lines {
		if line.Kind != domain.LineInventory {
			continue
		}
		sold[line.ProductID] += line.Quantity
	}

	next := make(map[string]int, len(sold))
	for productID, qty := range sold {
		product, ok := current[productID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", domain.ErrInvalidLine, productID)
		}
		if product.Stock < qty {
			return nil, fmt.Errorf("%w: %s has %d in stock, sold %d", domain.ErrInsufficientStock, product.Name, product.Stock, qty)
		}
		next[productID] = product.Stock - qty
	}
	return next, nil
}

func SalesTotal(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.GrandTotal)
	}
	return total
}
