package service

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"galla/backend/internal/domain"
	"galla/backend/internal/ledger"
	"galla/backend/internal/lock"
	"galla/backend/internal/payment"
	"galla/backend/internal/pricing"
	"galla/backend/internal/receipt"
	"galla/backend/internal/store"
	"galla/backend/internal/xid"
)

// Quote prices a cart against current catalog stock without committing
// anything.
func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	rate, err := s.rate(req.TaxRatePercent)
	if err != nil {
		return domain.Quote{}, err
	}
	products, err := s.repo.GetProductsByIDs(ctx, productIDs(req.Lines))
	if err != nil {
		return domain.Quote{}, err
	}
	items, err := buildItems(req.Lines, products)
	if err != nil {
		return domain.Quote{}, err
	}
	totals, err := pricing.Compute(items, rate)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{Items: items, Totals: totals}, nil
}

// Checkout commits a sale: stock is decremented, the sale is recorded, a due
// is opened for any unpaid remainder of a DUE sale and the day's books take
// the tendered money. Either all of it happens or none of it does.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	rate, err := s.rate(req.TaxRatePercent)
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	req.Payment.Customer = strings.TrimSpace(req.Payment.Customer)

	now := s.now()
	day := ledger.DayKey(now, s.loc)
	cashier := actorName(ctx)
	ids := productIDs(req.Lines)

	release, err := s.locker.Acquire(ctx, lock.DayKey(day))
	if err != nil {
		return domain.CheckoutResult{}, err
	}
	defer release()

	var result domain.CheckoutResult
	err = s.atomic(ctx, func(tx store.Tx) error {
		result = domain.CheckoutResult{}

		drawer, totals, err := loadOpenDay(ctx, tx, day)
		if err != nil {
			return err
		}
		products, err := tx.GetProductsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		items, err := buildItems(req.Lines, products)
		if err != nil {
			return err
		}
		priced, err := pricing.Compute(items, rate)
		if err != nil {
			return err
		}
		decision, err := payment.Reconcile(priced, req.Payment)
		if err != nil {
			return err
		}
		sale, err := ledger.NewSale(xid.New(xid.PrefixSale), day, cashier, now, items, priced, decision)
		if err != nil {
			return err
		}
		stock, err := ledger.StockAfterSale(sale, products)
		if err != nil {
			return err
		}

		for _, productID := range sortedKeys(stock) {
			if err := tx.SetStock(ctx, productID, stock[productID]); err != nil {
				return err
			}
			if p := products[productID]; stock[productID] <= p.MinStock {
				result.LowStock = append(result.LowStock, domain.LowStockAlert{
					ProductID: productID,
					Name:      p.Name,
					Stock:     stock[productID],
					MinStock:  p.MinStock,
				})
			}
		}
		if err := tx.CreateSale(ctx, sale); err != nil {
			return err
		}
		if due := ledger.NewDue(xid.New(xid.PrefixDue), sale, decision, now); due != nil {
			if err := tx.CreateDue(ctx, *due); err != nil {
				return err
			}
			result.Due = due
		}
		if err := ledger.Apply(&drawer, &totals, ledger.SaleEffect(decision), now); err != nil {
			return err
		}
		if err := tx.SaveDay(ctx, drawer, totals); err != nil {
			return err
		}

		result.Sale = sale
		return nil
	})
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	fields := logrus.Fields{
		"module":  "service",
		"sale_id": result.Sale.ID,
		"method":  result.Sale.Method,
		"total":   result.Sale.GrandTotal.StringFixed(2),
		"cashier": cashier,
	}
	if result.Due != nil {
		fields["due_id"] = result.Due.ID
	}
	s.logger.WithFields(fields).Info("sale committed")
	for _, alert := range result.LowStock {
		s.logger.WithFields(logrus.Fields{
			"module":     "service",
			"product_id": alert.ProductID,
			"stock":      alert.Stock,
			"min_stock":  alert.MinStock,
		}).Warn("product at or below minimum stock")
	}

	slip := s.builder.Sale(result.Sale)
	s.afterCommit(ctx, day, &slip)
	return result, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, day string) ([]domain.Sale, error) {
	day, err := s.resolveDay(day)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSalesByDay(ctx, day)
}

// SaleReceipt renders a sale as it stands now, returns included.
func (s *Service) SaleReceipt(ctx context.Context, id string) (receipt.Receipt, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return receipt.Receipt{}, err
	}
	return s.builder.Sale(sale), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
