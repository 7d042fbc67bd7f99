package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
	"galla/backend/internal/pricing"
)

// PrepareReturn lists every current line of a sale with nothing selected.
// The cap is the quantity still on the sale after earlier returns.
func PrepareReturn(sale domain.Sale) []domain.ReturnItem {
	items := make([]domain.ReturnItem, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		items = append(items, domain.ReturnItem{
			LineID:      line.LineID,
			Kind:        line.Kind,
			ProductID:   line.ProductID,
			Name:        line.Name,
			MaxQuantity: line.Quantity,
			Quantity:    0,
			UnitPrice:   line.NetUnitPrice,
		})
	}
	return items
}

type ReturnOutcome struct {
	Sale    domain.Sale
	Return  domain.Return
	Restock map[string]int
}

// ApplyReturn validates a return against the current sale, shrinks the sale
// and produces the immutable return record. Restock holds the units to add
// back per inventory product.
func ApplyReturn(sale domain.Sale, items []domain.ReturnItem, reason string, policy domain.RefundPolicy, returnID, processor, day string, at time.Time) (ReturnOutcome, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ReturnOutcome{}, fmt.Errorf("%w: reason is required", domain.ErrInvalidReturnRequest)
	}

	requested := make(map[string]int, len(items))
	totalQty := 0
	for _, item := range items {
		if _, dup := requested[item.LineID]; dup {
			return ReturnOutcome{}, fmt.Errorf("%w: line %s listed twice", domain.ErrInvalidReturnRequest, item.LineID)
		}
		line, ok := sale.Line(item.LineID)
		if !ok {
			return ReturnOutcome{}, fmt.Errorf("%w: line %s is not on sale %s", domain.ErrInvalidReturnRequest, item.LineID, sale.ID)
		}
		if item.Quantity < 0 || item.Quantity > line.Quantity {
			return ReturnOutcome{}, fmt.Errorf("%w: %s quantity must be between 0 and %d", domain.ErrInvalidReturnRequest, line.Name, line.Quantity)
		}
		requested[item.LineID] = item.Quantity
		totalQty += item.Quantity
	}
	if totalQty == 0 {
		return ReturnOutcome{}, fmt.Errorf("%w: nothing selected", domain.ErrInvalidReturnRequest)
	}

	refund := decimal.Zero
	returned := make([]domain.ReturnItem, 0, len(requested))
	restock := make(map[string]int)
	remaining := make([]domain.SaleLine, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		qty := requested[line.LineID]
		if qty == 0 {
			remaining = append(remaining, line)
			continue
		}
		shrunk := pricing.ShrinkLine(line, line.Quantity-qty)
		refund = refund.Add(line.LineTotal.Sub(shrunk.LineTotal))
		returned = append(returned, domain.ReturnItem{
			LineID:      line.LineID,
			Kind:        line.Kind,
			ProductID:   line.ProductID,
			Name:        line.Name,
			MaxQuantity: line.Quantity,
			Quantity:    qty,
			UnitPrice:   line.NetUnitPrice,
		})
		if line.Kind == domain.LineInventory {
			restock[line.ProductID] += qty
		}
		if shrunk.Quantity > 0 {
			remaining = append(remaining, shrunk)
		}
	}

	updated := sale
	lines, totals := pricing.Reprice(remaining, sale.TaxRate)
	if policy.IncludeTax {
		// The drop in the grand total carries the tax on the returned units.
		refund = sale.GrandTotal.Sub(totals.GrandTotal)
	}
	refund = pricing.Round(refund)
	updated.Lines = lines
	updated.Subtotal = totals.Subtotal
	updated.TotalDiscount = totals.TotalDiscount
	updated.Tax = totals.Tax
	updated.CGST = totals.CGST
	updated.SGST = totals.SGST
	updated.GrandTotal = totals.GrandTotal
	updated.Returns = append(append([]domain.ReturnRef{}, sale.Returns...), domain.ReturnRef{
		ReturnID:  returnID,
		Amount:    refund,
		CreatedAt: at,
	})
	updated.UpdatedAt = at

	return ReturnOutcome{
		Sale: updated,
		Return: domain.Return{
			ID:          returnID,
			SaleID:      sale.ID,
			Day:         day,
			Reason:      reason,
			Items:       returned,
			Refund:      refund,
			Tender:      RefundTenderFor(sale, policy),
			ProcessedBy: processor,
			CreatedAt:   at,
		},
		Restock: restock,
	}, nil
}

// RefundTenderFor picks the tender a refund leaves through. Only sales paid
// entirely by UPI are refunded to UPI, and only under the original-tender
// policy.
func RefundTenderFor(sale domain.Sale, policy domain.RefundPolicy) domain.TenderMode {
	if policy.Tender == domain.RefundOriginal && sale.Method == domain.MethodUPI {
		return domain.TenderUPI
	}
	return domain.TenderCash
}
