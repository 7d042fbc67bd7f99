// Package ledger holds the pure state transitions behind the shop's books:
// the per-day drawer and tender records, sales, dues and returns. Nothing in
// here touches storage; callers load records, apply a transition and persist
// the result in one store transaction.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

const dayLayout = "2006-01-02"

// DayKey is the business day t falls on in the shop's time zone.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayLayout)
}

func ValidDay(day string) bool {
	_, err := time.Parse(dayLayout, day)
	return err == nil
}

// Uninitialized is the state every day starts in.
func Uninitialized(day string) domain.DrawerState {
	return domain.DrawerState{
		Day:         day,
		Status:      domain.DrawerUninitialized,
		OpeningCash: decimal.Zero,
		CurrentCash: decimal.Zero,
	}
}

// Open performs the only transition the drawer has. It is rejected when the
// day is already open.
func Open(current domain.DrawerState, opening decimal.Decimal, openedBy string, at time.Time) (domain.DrawerState, domain.TenderTotals, error) {
	if current.Status == domain.DrawerOpen {
		return domain.DrawerState{}, domain.TenderTotals{}, fmt.Errorf("%w: %s", domain.ErrDrawerAlreadyOpen, current.Day)
	}
	if opening.IsNegative() {
		return domain.DrawerState{}, domain.TenderTotals{}, domain.ErrInvalidOpeningCash
	}

	opening = opening.Round(2)
	drawer := domain.DrawerState{
		Day:         current.Day,
		Status:      domain.DrawerOpen,
		OpeningCash: opening,
		CurrentCash: opening,
		OpenedBy:    openedBy,
		OpenedAt:    at,
		UpdatedAt:   at,
	}
	totals := domain.TenderTotals{
		Day:       current.Day,
		Cash:      decimal.Zero,
		UPI:       decimal.Zero,
		UpdatedAt: at,
	}
	return drawer, totals, nil
}

func RequireOpen(drawer domain.DrawerState) error {
	if drawer.Status != domain.DrawerOpen {
		return fmt.Errorf("%w: %s", domain.ErrDrawerNotOpen, drawer.Day)
	}
	return nil
}

func ApplyCash(drawer *domain.DrawerState, delta decimal.Decimal) {
	drawer.CurrentCash = drawer.CurrentCash.Add(delta).Round(2)
}

func ApplyTender(totals *domain.TenderTotals, mode domain.TenderMode, delta decimal.Decimal) {
	switch mode {
	case domain.TenderCash:
		totals.Cash = totals.Cash.Add(delta).Round(2)
	case domain.TenderUPI:
		totals.UPI = totals.UPI.Add(delta).Round(2)
	}
}

// Effect is the signed movement one event causes. Cash moves the drawer and
// the cash revenue together; UPI only moves the UPI revenue.
type Effect struct {
	Cash decimal.Decimal
	UPI  decimal.Decimal
}

func (e Effect) IsZero() bool {
	return e.Cash.IsZero() && e.UPI.IsZero()
}

// Apply books an effect onto an open day.
func Apply(drawer *domain.DrawerState, totals *domain.TenderTotals, effect Effect, at time.Time) error {
	if err := RequireOpen(*drawer); err != nil {
		return err
	}
	if !effect.Cash.IsZero() {
		ApplyCash(drawer, effect.Cash)
		ApplyTender(totals, domain.TenderCash, effect.Cash)
	}
	if !effect.UPI.IsZero() {
		ApplyTender(totals, domain.TenderUPI, effect.UPI)
	}
	drawer.UpdatedAt = at
	totals.UpdatedAt = at
	return nil
}

func SaleEffect(decision domain.PaymentDecision) Effect {
	return Effect{
		Cash: decision.NetCash().Round(2),
		UPI:  decision.TenderedBy(domain.TenderUPI).Round(2),
	}
}

func CollectionEffect(mode domain.TenderMode, amount decimal.Decimal) Effect {
	if mode == domain.TenderUPI {
		return Effect{Cash: decimal.Zero, UPI: amount.Round(2)}
	}
	return Effect{Cash: amount.Round(2), UPI: decimal.Zero}
}

func RefundEffect(mode domain.TenderMode, refund decimal.Decimal) Effect {
	if mode == domain.TenderUPI {
		return Effect{Cash: decimal.Zero, UPI: refund.Round(2).Neg()}
	}
	return Effect{Cash: refund.Round(2).Neg(), UPI: decimal.Zero}
}

func ExpenseEffect(amount decimal.Decimal) Effect {
	return Effect{Cash: amount.Round(2).Neg(), UPI: decimal.Zero}
}
