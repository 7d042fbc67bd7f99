package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
	"galla/backend/internal/payment"
)

// NewDue opens a credit balance for the unpaid part of a DUE sale. It
// returns nil when nothing is left to collect.
func NewDue(id string, sale domain.Sale, decision domain.PaymentDecision, at time.Time) *domain.Due {
	if decision.Type != domain.PaymentDue {
		return nil
	}
	remainder := sale.GrandTotal.Sub(decision.AmountApplied).Round(2)
	if !remainder.IsPositive() {
		return nil
	}

	upfront := make([]domain.Tender, len(decision.Breakdown))
	copy(upfront, decision.Breakdown)
	return &domain.Due{
		ID:             id,
		SaleID:         sale.ID,
		Day:            sale.Day,
		Customer:       decision.Customer,
		Total:          sale.GrandTotal,
		UpfrontPaid:    decision.AmountApplied,
		UpfrontTender:  payment.TenderLabel(decision.Breakdown),
		UpfrontTenders: upfront,
		Balance:        remainder,
		Settled:        false,
		Payments:       []domain.DuePayment{},
		Version:        1,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// Collect records a payment against a due. Amounts above the balance are
// rejected rather than clamped.
func Collect(due domain.Due, paymentID string, amount decimal.Decimal, mode domain.TenderMode, cashier, day string, at time.Time) (domain.Due, domain.DuePayment, error) {
	if due.Settled {
		return domain.Due{}, domain.DuePayment{}, fmt.Errorf("%w: %s", domain.ErrDueSettled, due.ID)
	}
	if !mode.Valid() {
		return domain.Due{}, domain.DuePayment{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return domain.Due{}, domain.DuePayment{}, fmt.Errorf("%w: collection must be positive", domain.ErrInvalidAmount)
	}
	if amount.GreaterThan(due.Balance) {
		return domain.Due{}, domain.DuePayment{}, fmt.Errorf("%w: %s against balance %s", domain.ErrCollectionExceedsBalance, amount, due.Balance)
	}

	p := domain.DuePayment{
		ID:        paymentID,
		DueID:     due.ID,
		Day:       day,
		Amount:    amount,
		Mode:      mode,
		Cashier:   cashier,
		CreatedAt: at,
	}

	updated := due
	updated.Payments = append(append([]domain.DuePayment{}, due.Payments...), p)
	updated.Balance = due.Balance.Sub(amount).Round(2)
	updated.Settled = !updated.Balance.IsPositive()
	updated.UpdatedAt = at
	return updated, p, nil
}

// Expected is what the balance of a due must be given its history.
func Expected(due domain.Due) decimal.Decimal {
	collected := decimal.Zero
	for _, p := range due.Payments {
		collected = collected.Add(p.Amount)
	}
	return due.Total.Sub(due.UpfrontPaid).Sub(collected).Round(2)
}

// Consistent reports whether a due's balance and settled flag agree with its
// payment history.
func Consistent(due domain.Due) bool {
	return due.Balance.Equal(Expected(due)) && due.Settled == !due.Balance.IsPositive()
}

func Outstanding(dues []domain.Due) decimal.Decimal {
	total := decimal.Zero
	for _, due := range dues {
		if due.Settled {
			continue
		}
		total = total.Add(due.Balance)
	}
	return total
}
