package receipt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
	"galla/backend/internal/logging"
)

func sampleSale() domain.Sale {
	return domain.Sale{
		ID:      "sale-1",
		Cashier: "cashier",
		Lines: []domain.SaleLine{{
			LineID: "L1", Name: "Cotton Shirt", UnitPrice: decimal.NewFromInt(1000), Quantity: 1,
			LineTotal: decimal.NewFromInt(900),
		}},
		Subtotal:      decimal.NewFromInt(1000),
		TotalDiscount: decimal.NewFromInt(100),
		Tax:           decimal.NewFromInt(45),
		CGST:          decimal.RequireFromString("22.5"),
		SGST:          decimal.RequireFromString("22.5"),
		GrandTotal:    decimal.NewFromInt(945),
		Method:        domain.MethodCash,
		AmountPaid:    decimal.NewFromInt(1000),
		Change:        decimal.NewFromInt(55),
		Tenders:       []domain.Tender{{Mode: domain.TenderCash, Amount: decimal.NewFromInt(1000)}},
		CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaleReceiptContainsTotalsAndEscpos(t *testing.T) {
	r := NewBuilder("").Sale(sampleSale())

	for _, want := range []string{"Galla POS", "Cotton Shirt x1", "945.00", "Change", "55.00"} {
		if !strings.Contains(r.PreviewText, want) {
			t.Fatalf("preview missing %q:\n%s", want, r.PreviewText)
		}
	}
	payload := r.Payload()
	if !bytes.HasPrefix(payload, escInit) || !bytes.HasSuffix(payload, escCut) {
		t.Fatalf("payload must start with init and end with cut")
	}
	if !bytes.Contains(payload, escDrawerKick) {
		t.Fatalf("cash sale should kick the drawer")
	}
	if r.FileName != "receipt-sale-1.bin" {
		t.Fatalf("unexpected file name %q", r.FileName)
	}
}

func TestUPICollectionDoesNotKickDrawer(t *testing.T) {
	due := domain.Due{ID: "due-1", SaleID: "sale-1", Customer: "Ravi", Balance: decimal.Zero, Settled: true}
	payment := domain.DuePayment{ID: "duepay-1", Amount: decimal.NewFromInt(200), Mode: domain.TenderUPI, Cashier: "cashier"}

	r := NewBuilder("Shop").Collection(due, payment)
	if bytes.Contains(r.Payload(), escDrawerKick) {
		t.Fatalf("upi collection must not open the drawer")
	}
	if !strings.Contains(r.PreviewText, "SETTLED") {
		t.Fatalf("expected settled marker:\n%s", r.PreviewText)
	}
}

func TestRowNeverExceedsWidth(t *testing.T) {
	line := row(strings.Repeat("x", 60), "12345.00")
	if len(line) != width {
		t.Fatalf("expected %d columns, got %d", width, len(line))
	}
}

type recordingPrinter struct {
	mu   sync.Mutex
	got  [][]byte
	fail bool
}

func (p *recordingPrinter) Print(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, payload)
	if p.fail {
		return errors.New("printer offline")
	}
	return nil
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	printer := &recordingPrinter{fail: true}
	d := NewDispatcher(printer, logging.Discard(), 4)

	b := NewBuilder("Shop")
	d.Enqueue(b.Sale(sampleSale()))
	d.Enqueue(b.Sale(sampleSale()))
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(printer.got) != 2 {
		t.Fatalf("expected 2 prints, got %d", len(printer.got))
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestEnqueueAfterCloseDropsReceipt(t *testing.T) {
	printer := &recordingPrinter{}
	d := NewDispatcher(printer, logging.Discard(), 4)
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	d.Enqueue(NewBuilder("Shop").Sale(sampleSale()))

	printer.mu.Lock()
	defer printer.mu.Unlock()
	if len(printer.got) != 0 {
		t.Fatalf("expected nothing printed after close, got %d", len(printer.got))
	}
}

func TestDueReceiptClampsCreditAfterReturn(t *testing.T) {
	sale := sampleSale()
	sale.Method = domain.MethodDue
	sale.Customer = "Meena"
	sale.Change = decimal.Zero
	sale.Tenders = []domain.Tender{{Mode: domain.TenderCash, Amount: decimal.NewFromInt(500)}}
	sale.AmountPaid = decimal.NewFromInt(500)
	// a return shrank the sale below what was paid upfront
	sale.GrandTotal = decimal.NewFromInt(300)

	r := NewBuilder("Shop").Sale(sale)
	if !strings.Contains(r.PreviewText, "On credit") || strings.Contains(r.PreviewText, "-200") {
		t.Fatalf("credit line should not go negative:\n%s", r.PreviewText)
	}
}
