package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/domain"
	"galla/backend/internal/ledger"
	"galla/backend/internal/lock"
	"galla/backend/internal/store"
	"galla/backend/internal/xid"
)

// CollectDue records a payment against a customer's balance.
func (s *Service) CollectDue(ctx context.Context, dueID string, req domain.CollectRequest) (domain.CollectionResult, error) {
	return s.collect(ctx, dueID, req.Mode, func(domain.Due) decimal.Decimal { return req.Amount })
}

// SettleDue collects whatever balance remains in one payment.
func (s *Service) SettleDue(ctx context.Context, dueID string, req domain.SettleRequest) (domain.CollectionResult, error) {
	return s.collect(ctx, dueID, req.Mode, func(due domain.Due) decimal.Decimal { return due.Balance })
}

func (s *Service) collect(ctx context.Context, dueID string, mode domain.TenderMode, amountFor func(domain.Due) decimal.Decimal) (domain.CollectionResult, error) {
	dueID = strings.TrimSpace(dueID)
	now := s.now()
	day := ledger.DayKey(now, s.loc)
	cashier := actorName(ctx)

	release, err := s.locker.Acquire(ctx, lock.DayKey(day), lock.DueKey(dueID))
	if err != nil {
		return domain.CollectionResult{}, err
	}
	defer release()

	var result domain.CollectionResult
	err = s.atomic(ctx, func(tx store.Tx) error {
		drawer, totals, err := loadOpenDay(ctx, tx, day)
		if err != nil {
			return err
		}
		due, err := tx.GetDue(ctx, dueID)
		if err != nil {
			return err
		}
		updated, p, err := ledger.Collect(*due, xid.New(xid.PrefixDuePayment), amountFor(*due), mode, cashier, day, now)
		if err != nil {
			return err
		}
		if err := tx.CreateDuePayment(ctx, p); err != nil {
			return err
		}
		if err := tx.UpdateDue(ctx, updated); err != nil {
			return err
		}
		updated.Version++
		if err := ledger.Apply(&drawer, &totals, ledger.CollectionEffect(p.Mode, p.Amount), now); err != nil {
			return err
		}
		if err := tx.SaveDay(ctx, drawer, totals); err != nil {
			return err
		}
		result = domain.CollectionResult{Due: updated, Payment: p}
		return nil
	})
	if err != nil {
		return domain.CollectionResult{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":  "service",
		"due_id":  result.Due.ID,
		"amount":  result.Payment.Amount.StringFixed(2),
		"mode":    result.Payment.Mode,
		"balance": result.Due.Balance.StringFixed(2),
		"settled": result.Due.Settled,
	}).Info("due collection recorded")

	slip := s.builder.Collection(result.Due, result.Payment)
	s.afterCommit(ctx, day, &slip)
	return result, nil
}

func (s *Service) GetDue(ctx context.Context, id string) (domain.Due, error) {
	due, err := s.repo.GetDue(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Due{}, err
	}
	return *due, nil
}

func (s *Service) ListDues(ctx context.Context, includeSettled bool) ([]domain.Due, error) {
	return s.repo.ListDues(ctx, includeSettled)
}

// Outstanding is the sum of every open balance across all days.
func (s *Service) Outstanding(ctx context.Context) (decimal.Decimal, error) {
	dues, err := s.repo.ListDues(ctx, false)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Outstanding(dues), nil
}
