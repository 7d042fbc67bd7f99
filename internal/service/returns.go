package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"galla/backend/internal/domain"
	"galla/backend/internal/ledger"
	"galla/backend/internal/lock"
	"galla/backend/internal/store"
	"galla/backend/internal/xid"
)

// PrepareReturn lists the sale's current lines with nothing selected yet.
func (s *Service) PrepareReturn(ctx context.Context, saleID string) ([]domain.ReturnItem, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return ledger.PrepareReturn(sale), nil
}

// ProcessReturn reverses part or all of a sale. The refund leaves through
// today's books even when the sale was made on an earlier day.
func (s *Service) ProcessReturn(ctx context.Context, req domain.ReturnRequest) (domain.ReturnResult, error) {
	saleID := strings.TrimSpace(req.SaleID)
	now := s.now()
	day := ledger.DayKey(now, s.loc)
	processor := actorName(ctx)

	release, err := s.locker.Acquire(ctx, lock.DayKey(day), lock.SaleKey(saleID))
	if err != nil {
		return domain.ReturnResult{}, err
	}
	defer release()

	var result domain.ReturnResult
	err = s.atomic(ctx, func(tx store.Tx) error {
		drawer, totals, err := loadOpenDay(ctx, tx, day)
		if err != nil {
			return err
		}
		sale, err := tx.GetSale(ctx, saleID)
		if err != nil {
			return err
		}
		outcome, err := ledger.ApplyReturn(*sale, req.Items, req.Reason, s.policy, xid.New(xid.PrefixReturn), processor, day, now)
		if err != nil {
			return err
		}

		restockIDs := sortedKeys(outcome.Restock)
		products, err := tx.GetProductsByIDs(ctx, restockIDs)
		if err != nil {
			return err
		}
		for _, productID := range restockIDs {
			product, ok := products[productID]
			if !ok {
				return fmt.Errorf("%w: product %s no longer exists", store.ErrNotFound, productID)
			}
			if err := tx.SetStock(ctx, productID, product.Stock+outcome.Restock[productID]); err != nil {
				return err
			}
		}

		if err := tx.UpdateSale(ctx, outcome.Sale); err != nil {
			return err
		}
		outcome.Sale.Version++
		if err := tx.CreateReturn(ctx, outcome.Return); err != nil {
			return err
		}
		effect := ledger.RefundEffect(outcome.Return.Tender, outcome.Return.Refund)
		if err := ledger.Apply(&drawer, &totals, effect, now); err != nil {
			return err
		}
		if err := tx.SaveDay(ctx, drawer, totals); err != nil {
			return err
		}
		result = domain.ReturnResult{Sale: outcome.Sale, Return: outcome.Return}
		return nil
	})
	if err != nil {
		return domain.ReturnResult{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":    "service",
		"sale_id":   result.Sale.ID,
		"return_id": result.Return.ID,
		"refund":    result.Return.Refund.StringFixed(2),
		"tender":    result.Return.Tender,
		"processor": processor,
	}).Info("return processed")

	slip := s.builder.Return(result.Return)
	s.afterCommit(ctx, day, &slip)
	if result.Sale.Day != day {
		s.afterCommit(ctx, result.Sale.Day, nil)
	}
	return result, nil
}

func (s *Service) ListReturns(ctx context.Context, saleID string) ([]domain.Return, error) {
	return s.repo.ListReturnsBySale(ctx, strings.TrimSpace(saleID))
}
