package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

func dueSale(total string) domain.Sale {
	return domain.Sale{ID: "sale-1", Day: "2026-03-14", GrandTotal: dec(total), Method: domain.MethodDue}
}

func TestDueLifecycle(t *testing.T) {
	decision := domain.PaymentDecision{
		Type:          domain.PaymentDue,
		Method:        domain.MethodDue,
		AmountApplied: dec("1000"),
		Breakdown:     []domain.Tender{{Mode: domain.TenderCash, Amount: dec("1000")}},
		Customer:      "Asha",
	}
	due := NewDue("due-1", dueSale("2124"), decision, testNow)
	if due == nil {
		t.Fatalf("expected due to be created")
	}
	if !due.Balance.Equal(dec("1124")) || due.Settled || due.UpfrontTender != domain.MethodCash {
		t.Fatalf("unexpected new due: %+v", due)
	}
	if !Consistent(*due) {
		t.Fatalf("new due is inconsistent")
	}

	settled, p, err := Collect(*due, "duepay-1", dec("1124"), domain.TenderUPI, "cashier", "2026-03-14", testNow)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if !settled.Balance.IsZero() || !settled.Settled {
		t.Fatalf("expected settled due, got %+v", settled)
	}
	if p.Mode != domain.TenderUPI || len(settled.Payments) != 1 {
		t.Fatalf("unexpected payment record: %+v", p)
	}
	if !Consistent(settled) {
		t.Fatalf("settled due is inconsistent")
	}
	if len(due.Payments) != 0 {
		t.Fatalf("collect must not mutate its input")
	}

	if _, _, err := Collect(settled, "duepay-2", dec("1"), domain.TenderCash, "cashier", "2026-03-14", testNow); !errors.Is(err, domain.ErrDueSettled) {
		t.Fatalf("expected ErrDueSettled, got %v", err)
	}
}

func TestCollectRejectsBadAmounts(t *testing.T) {
	due := domain.Due{ID: "due-1", Total: dec("500"), UpfrontPaid: decimal.Zero, Balance: dec("500")}
	cases := []struct {
		name   string
		amount string
		mode   domain.TenderMode
		want   error
	}{
		{"over balance", "500.01", domain.TenderCash, domain.ErrCollectionExceedsBalance},
		{"zero", "0", domain.TenderCash, domain.ErrInvalidAmount},
		{"negative", "-5", domain.TenderCash, domain.ErrInvalidAmount},
		{"card", "10", "card", domain.ErrInvalidMode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Collect(due, "p", dec(tc.amount), tc.mode, "c", "d", testNow); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDueInvariantAcrossPartialCollections(t *testing.T) {
	due := NewDue("due-1", dueSale("999.99"), domain.PaymentDecision{Type: domain.PaymentDue, AmountApplied: decimal.Zero, Customer: "Ravi"}, testNow)
	if due == nil || due.UpfrontTender != "" {
		t.Fatalf("unexpected due: %+v", due)
	}
	current := *due
	for i, amount := range []string{"100", "0.33", "450.5", "449.16"} {
		next, _, err := Collect(current, "p", dec(amount), domain.TenderCash, "c", "d", testNow)
		if err != nil {
			t.Fatalf("collection %d failed: %v", i, err)
		}
		if !Consistent(next) {
			t.Fatalf("invariant broken after collection %d: %+v", i, next)
		}
		current = next
	}
	if !current.Settled {
		t.Fatalf("expected due settled after collecting the whole balance, balance=%s", current.Balance)
	}
	if !Outstanding([]domain.Due{current, *due}).Equal(dec("999.99")) {
		t.Fatalf("outstanding should only count unsettled dues")
	}
}

func TestNoDueWhenFullyPaidUpfront(t *testing.T) {
	decision := domain.PaymentDecision{Type: domain.PaymentDue, AmountApplied: dec("300"), Customer: "Asha"}
	if due := NewDue("due-1", dueSale("300"), decision, testNow); due != nil {
		t.Fatalf("expected no due for zero remainder, got %+v", due)
	}
	paid := domain.PaymentDecision{Type: domain.PaymentPaid, AmountApplied: dec("100")}
	if due := NewDue("due-2", dueSale("300"), paid, testNow); due != nil {
		t.Fatalf("PAID sales never create dues")
	}
}
