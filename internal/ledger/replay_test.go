package ledger

import (
	"testing"
	"time"

	"galla/backend/internal/domain"
)

func TestReplayMatchesIncrementalApplication(t *testing.T) {
	drawer, totals := openDay(t, "750")

	sale := domain.Sale{
		ID:        "sale-1",
		CreatedAt: testNow,
		Change:    dec("76"),
		Tenders:   []domain.Tender{{Mode: domain.TenderCash, Amount: dec("2000")}, {Mode: domain.TenderUPI, Amount: dec("200")}},
	}
	dueSale := domain.Sale{
		ID:        "sale-2",
		CreatedAt: testNow.Add(time.Minute),
		Tenders:   []domain.Tender{{Mode: domain.TenderCash, Amount: dec("1000")}},
	}
	payment := domain.DuePayment{ID: "duepay-1", Amount: dec("1124"), Mode: domain.TenderUPI, CreatedAt: testNow.Add(2 * time.Minute)}
	ret := domain.Return{ID: "ret-1", Refund: dec("900"), Tender: domain.TenderCash, CreatedAt: testNow.Add(3 * time.Minute)}
	expense := domain.Expense{ID: "exp-1", Amount: dec("85.5"), CreatedAt: testNow.Add(4 * time.Minute)}

	incremental := []Effect{
		SaleEffect(domain.PaymentDecision{Change: sale.Change, Breakdown: sale.Tenders}),
		SaleEffect(domain.PaymentDecision{Breakdown: dueSale.Tenders}),
		CollectionEffect(payment.Mode, payment.Amount),
		RefundEffect(ret.Tender, ret.Refund),
		ExpenseEffect(expense.Amount),
	}
	for _, effect := range incremental {
		if err := Apply(&drawer, &totals, effect, testNow); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}

	events := Events(
		[]domain.Sale{dueSale, sale},
		[]domain.DuePayment{payment},
		[]domain.Return{ret},
		[]domain.Expense{expense},
	)
	if len(events) != 5 || events[0].Ref != "sale-1" || events[4].Kind != EventExpense {
		t.Fatalf("events not ordered by time: %+v", events)
	}

	report, err := Reconcile(drawer, totals, events)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !report.Balanced {
		t.Fatalf("replay drifted from incremental books: %+v", report)
	}

	drawer.CurrentCash = drawer.CurrentCash.Add(dec("1"))
	drifted, err := Reconcile(drawer, totals, events)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if drifted.Balanced {
		t.Fatalf("expected drift to be detected")
	}
}
