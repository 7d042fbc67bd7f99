package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/domain"
	"galla/backend/internal/ledger"
	"galla/backend/internal/lock"
	"galla/backend/internal/logging"
	"galla/backend/internal/store"
	"galla/backend/internal/xid"
)

// OpenDay moves today's drawer from uninitialized to open with the counted
// opening cash. A day opens exactly once.
func (s *Service) OpenDay(ctx context.Context, req domain.OpenDayRequest) (domain.DrawerState, error) {
	now := s.now()
	day := ledger.DayKey(now, s.loc)

	release, err := s.locker.Acquire(ctx, lock.DayKey(day))
	if err != nil {
		return domain.DrawerState{}, err
	}
	defer release()

	var opened domain.DrawerState
	err = s.atomic(ctx, func(tx store.Tx) error {
		current := ledger.Uninitialized(day)
		existing, err := tx.GetDrawer(ctx, day)
		switch {
		case err == nil:
			current = *existing
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		drawer, totals, err := ledger.Open(current, req.OpeningCash, actorName(ctx), now)
		if err != nil {
			return err
		}
		if err := tx.OpenDay(ctx, drawer, totals); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("%w: %s", domain.ErrDrawerAlreadyOpen, day)
			}
			return err
		}
		opened = drawer
		return nil
	})
	if err != nil {
		return domain.DrawerState{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":       "service",
		"day":          day,
		"opening_cash": opened.OpeningCash.StringFixed(2),
		"opened_by":    opened.OpenedBy,
	}).Info("day opened")
	s.afterCommit(ctx, day, nil)
	return opened, nil
}

// RecordExpense pays an ad hoc expense out of the drawer.
func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Expense, error) {
	amount := req.Amount.Round(2)
	reason := strings.TrimSpace(req.Reason)
	if !amount.IsPositive() {
		return domain.Expense{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidExpense)
	}
	if reason == "" {
		return domain.Expense{}, fmt.Errorf("%w: reason is required", domain.ErrInvalidExpense)
	}

	now := s.now()
	day := ledger.DayKey(now, s.loc)

	release, err := s.locker.Acquire(ctx, lock.DayKey(day))
	if err != nil {
		return domain.Expense{}, err
	}
	defer release()

	var expense domain.Expense
	err = s.atomic(ctx, func(tx store.Tx) error {
		expense = domain.Expense{
			ID:        xid.New(xid.PrefixExpense),
			Day:       day,
			Amount:    amount,
			Reason:    reason,
			Cashier:   actorName(ctx),
			CreatedAt: now,
		}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		return book(ctx, tx, day, ledger.ExpenseEffect(amount), now)
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":     "service",
		"expense_id": expense.ID,
		"amount":     expense.Amount.StringFixed(2),
	}).Info("expense recorded")
	s.afterCommit(ctx, day, nil)
	return expense, nil
}

func (s *Service) ListExpenses(ctx context.Context, day string) ([]domain.Expense, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpensesByDay(ctx, day)
}

// DaySummary reports a day's books. Results are cached until the next
// mutation of that day.
func (s *Service) DaySummary(ctx context.Context, day string) (domain.DaySummary, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return domain.DaySummary{}, err
	}

	if cached, ok, err := s.cache.Get(ctx, day); err != nil {
		logging.LogError(s.logger, "service", "DaySummary", "read cached summary", day, err)
	} else if ok {
		return *cached, nil
	}

	drawer := ledger.Uninitialized(day)
	stored, err := s.repo.GetDrawer(ctx, day)
	switch {
	case err == nil:
		drawer = *stored
	case !errors.Is(err, store.ErrNotFound):
		return domain.DaySummary{}, err
	}
	totals := domain.TenderTotals{Day: day, Cash: decimal.Zero, UPI: decimal.Zero}
	storedTotals, err := s.repo.GetTenderTotals(ctx, day)
	switch {
	case err == nil:
		totals = *storedTotals
	case !errors.Is(err, store.ErrNotFound):
		return domain.DaySummary{}, err
	}

	history, err := s.loadHistory(ctx, day)
	if err != nil {
		return domain.DaySummary{}, err
	}
	openDues, err := s.repo.ListDues(ctx, false)
	if err != nil {
		return domain.DaySummary{}, err
	}

	summary := domain.DaySummary{
		Day:         day,
		Status:      drawer.Status,
		OpeningCash: drawer.OpeningCash,
		CurrentCash: drawer.CurrentCash,
		CashRevenue: totals.Cash,
		UPIRevenue:  totals.UPI,
		SalesCount:  len(history.sales),
		SalesTotal:  ledger.SalesTotal(history.sales),
		Refunds:     decimal.Zero,
		Expenses:    decimal.Zero,
		Collections: decimal.Zero,
		Outstanding: ledger.Outstanding(openDues),
		OpenDues:    len(openDues),
		GeneratedAt: s.now(),
	}
	for _, r := range history.returns {
		summary.Refunds = summary.Refunds.Add(r.Refund)
	}
	for _, e := range history.expenses {
		summary.Expenses = summary.Expenses.Add(e.Amount)
	}
	for _, p := range history.payments {
		summary.Collections = summary.Collections.Add(p.Amount)
	}

	if err := s.cache.Set(ctx, day, &summary, s.summaryTTL); err != nil {
		logging.LogError(s.logger, "service", "DaySummary", "cache summary", day, err)
	}
	return summary, nil
}

// ReconcileDay replays the day's recorded events from its opening cash and
// compares the result with the stored drawer and tender totals.
func (s *Service) ReconcileDay(ctx context.Context, day string) (domain.Reconciliation, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	drawer, err := s.repo.GetDrawer(ctx, day)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Reconciliation{}, fmt.Errorf("%w: %s", domain.ErrDrawerNotOpen, day)
	}
	if err != nil {
		return domain.Reconciliation{}, err
	}
	totals, err := s.repo.GetTenderTotals(ctx, day)
	if err != nil {
		return domain.Reconciliation{}, err
	}
	history, err := s.loadHistory(ctx, day)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	events := ledger.Events(history.sales, history.payments, history.returns, history.expenses)
	rec, err := ledger.Reconcile(*drawer, *totals, events)
	if err != nil {
		return domain.Reconciliation{}, err
	}
	if !rec.Balanced {
		logging.LogError(s.logger, "service", "ReconcileDay", "books drifted from event history", rec, errors.New("day does not reconcile"))
	}
	return rec, nil
}

type dayHistory struct {
	sales    []domain.Sale
	payments []domain.DuePayment
	returns  []domain.Return
	expenses []domain.Expense
}

func (s *Service) loadHistory(ctx context.Context, day string) (dayHistory, error) {
	var h dayHistory
	var err error
	if h.sales, err = s.repo.ListSalesByDay(ctx, day); err != nil {
		return dayHistory{}, err
	}
	if h.payments, err = s.repo.ListDuePaymentsByDay(ctx, day); err != nil {
		return dayHistory{}, err
	}
	if h.returns, err = s.repo.ListReturnsByDay(ctx, day); err != nil {
		return dayHistory{}, err
	}
	if h.expenses, err = s.repo.ListExpensesByDay(ctx, day); err != nil {
		return dayHistory{}, err
	}
	return h, nil
}
