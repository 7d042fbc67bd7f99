package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("GALLA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set GALLA_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestAtomicRollsBackStockAndSale(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("P-IT-%d", stamp)
	saleID := fmt.Sprintf("sale-it-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if err := s.UpsertProduct(ctx, domain.Product{ID: productID, Name: "Integration Soap", Price: decimal.NewFromInt(30), Stock: 10}); err != nil {
		t.Fatalf("upsert product: %v", err)
	}

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.SetStock(ctx, productID, 4); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.CreateSale(ctx, domain.Sale{
			ID: saleID, Day: "2026-03-14", Cashier: "it", Lines: []domain.SaleLine{}, Tenders: []domain.Tender{},
			Returns: []domain.ReturnRef{}, Method: domain.MethodCash, Version: 1, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	products, err := s.GetProductsByIDs(ctx, []string{productID})
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	if products[productID].Stock != 10 {
		t.Fatalf("expected stock 10 after rollback, got %d", products[productID].Stock)
	}
	if _, err := s.GetSale(ctx, saleID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected sale to be rolled back, got %v", err)
	}
}

func TestUpdateSaleRejectsStaleVersion(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	saleID := fmt.Sprintf("sale-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	})

	now := time.Now().UTC()
	sale := domain.Sale{
		ID: saleID, Day: "2026-03-14", Cashier: "it", Lines: []domain.SaleLine{}, Tenders: []domain.Tender{},
		Returns: []domain.ReturnRef{}, Method: domain.MethodCash, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateSale(ctx, sale); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if err := s.UpdateSale(ctx, sale); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := s.UpdateSale(ctx, sale); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
}
