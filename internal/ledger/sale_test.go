package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

func TestNewSaleSnapshotsNetUnitPrice(t *testing.T) {
	sale := soldSale(t)
	if sale.Version != 1 || sale.Method != domain.MethodCash {
		t.Fatalf("unexpected sale header: %+v", sale)
	}
	if !sale.Lines[0].NetUnitPrice.Equal(dec("900")) || !sale.Lines[0].LineTotal.Equal(dec("1800")) {
		t.Fatalf("unexpected first line: %+v", sale.Lines[0])
	}
	if sale.Lines[1].Kind != domain.LineAdHoc {
		t.Fatalf("ad hoc line kind lost: %+v", sale.Lines[1])
	}
	if !sale.CGST.Add(sale.SGST).Equal(sale.Tax) {
		t.Fatalf("tax halves do not add up")
	}
}

func TestNewSaleRejectsEmptyCartAndUnreconciledPayment(t *testing.T) {
	if _, err := NewSale("s", "d", "c", testNow, nil, domain.Totals{}, domain.PaymentDecision{Method: domain.MethodCash}); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	items := []domain.CartItem{domain.NewAdHocItem("x", dec("10"), 1)}
	totals := domain.Totals{GrandTotal: dec("10"), LineTotals: []decimal.Decimal{dec("10")}}
	if _, err := NewSale("s", "d", "c", testNow, items, totals, domain.PaymentDecision{}); !errors.Is(err, domain.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	negative := domain.Totals{GrandTotal: dec("-1"), LineTotals: []decimal.Decimal{dec("-1")}}
	if _, err := NewSale("s", "d", "c", testNow, items, negative, domain.PaymentDecision{Method: domain.MethodCash}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestStockAfterSaleSumsLinesPerProduct(t *testing.T) {
	sale := domain.Sale{Lines: []domain.SaleLine{
		{Kind: domain.LineInventory, ProductID: "P-1", Quantity: 2},
		{Kind: domain.LineInventory, ProductID: "P-1", Quantity: 1},
		{Kind: domain.LineAdHoc, Name: "Gift wrap", Quantity: 9},
	}}
	current := map[string]domain.Product{"P-1": {ID: "P-1", Name: "Soap", Stock: 4}}
	next, err := StockAfterSale(sale, current)
	if err != nil {
		t.Fatalf("stock after sale failed: %v", err)
	}
	if len(next) != 1 || next["P-1"] != 1 {
		t.Fatalf("unexpected stock writes: %v", next)
	}

	current["P-1"] = domain.Product{ID: "P-1", Name: "Soap", Stock: 2}
	if _, err := StockAfterSale(sale, current); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}
