// Package payment validates tendered amounts against priced totals and
// produces the payment decision a sale is committed with.
package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

// Reconcile checks req against totals.GrandTotal. It never partially
// succeeds: either a complete decision or an error from the domain taxonomy
// is returned.
func Reconcile(totals domain.Totals, req domain.PaymentRequest) (domain.PaymentDecision, error) {
	cash, upi, err := sumTenders(req.Tenders)
	if err != nil {
		return domain.PaymentDecision{}, err
	}

	grand := totals.GrandTotal
	if grand.IsNegative() {
		return domain.PaymentDecision{}, fmt.Errorf("%w: negative total %s", domain.ErrInsufficientPayment, grand)
	}
	sum := cash.Add(upi)
	customer := strings.TrimSpace(req.Customer)

	switch req.Type {
	case domain.PaymentPaid:
		if !cash.IsPositive() && !upi.IsPositive() {
			return domain.PaymentDecision{}, fmt.Errorf("%w: no tender given", domain.ErrInsufficientPayment)
		}
		if sum.LessThan(grand) {
			return domain.PaymentDecision{}, fmt.Errorf("%w: tendered %s of %s", domain.ErrInsufficientPayment, sum, grand)
		}
	case domain.PaymentDue:
		if customer == "" {
			return domain.PaymentDecision{}, domain.ErrMissingCustomer
		}
		if sum.GreaterThan(grand) {
			return domain.PaymentDecision{}, fmt.Errorf("%w: upfront %s of %s", domain.ErrUpfrontExceedsTotal, sum, grand)
		}
	default:
		return domain.PaymentDecision{}, fmt.Errorf("%w: unknown payment type %q", domain.ErrInvalidMode, req.Type)
	}

	change := decimal.Min(cash, decimal.Max(decimal.Zero, sum.Sub(grand)))
	breakdown := make([]domain.Tender, 0, 2)
	if cash.IsPositive() {
		breakdown = append(breakdown, domain.Tender{Mode: domain.TenderCash, Amount: cash})
	}
	if upi.IsPositive() {
		breakdown = append(breakdown, domain.Tender{Mode: domain.TenderUPI, Amount: upi})
	}

	method := domain.MethodDue
	if req.Type == domain.PaymentPaid {
		method = TenderLabel(breakdown)
	}

	return domain.PaymentDecision{
		Type:          req.Type,
		Method:        method,
		Tendered:      sum,
		AmountApplied: decimal.Min(sum, grand),
		Change:        change,
		Breakdown:     breakdown,
		Customer:      customer,
	}, nil
}

// TenderLabel names the mix of a tender breakdown: CASH, UPI or MIXED. An
// empty breakdown has no label.
func TenderLabel(breakdown []domain.Tender) domain.MethodLabel {
	var hasCash, hasUPI bool
	for _, t := range breakdown {
		if !t.Amount.IsPositive() {
			continue
		}
		switch t.Mode {
		case domain.TenderCash:
			hasCash = true
		case domain.TenderUPI:
			hasUPI = true
		}
	}
	switch {
	case hasCash && hasUPI:
		return domain.MethodMixed
	case hasCash:
		return domain.MethodCash
	case hasUPI:
		return domain.MethodUPI
	default:
		return ""
	}
}

func sumTenders(tenders []domain.Tender) (decimal.Decimal, decimal.Decimal, error) {
	cash, upi := decimal.Zero, decimal.Zero
	for _, t := range tenders {
		mode := domain.TenderMode(strings.ToLower(strings.TrimSpace(string(t.Mode))))
		if !mode.Valid() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidMode, t.Mode)
		}
		if t.Amount.IsNegative() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: negative %s tender", domain.ErrInvalidAmount, mode)
		}
		if mode == domain.TenderCash {
			cash = cash.Add(t.Amount)
		} else {
			upi = upi.Add(t.Amount)
		}
	}
	return cash.Round(2), upi.Round(2), nil
}
