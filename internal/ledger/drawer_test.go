package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func openDay(t *testing.T, opening string) (domain.DrawerState, domain.TenderTotals) {
	t.Helper()
	drawer, totals, err := Open(Uninitialized("2026-03-14"), dec(opening), "cashier", testNow)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return drawer, totals
}

func TestDayKeyUsesShopTimezone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	late := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	if got := DayKey(late, kolkata); got != "2026-03-15" {
		t.Fatalf("expected next day in Kolkata, got %s", got)
	}
	if got := DayKey(late, nil); got != "2026-03-14" {
		t.Fatalf("expected UTC day, got %s", got)
	}
}

func TestDrawerOpensOnce(t *testing.T) {
	drawer, totals := openDay(t, "500")
	if drawer.Status != domain.DrawerOpen || !drawer.CurrentCash.Equal(dec("500")) {
		t.Fatalf("unexpected drawer after open: %+v", drawer)
	}
	if !totals.Cash.IsZero() || !totals.UPI.IsZero() {
		t.Fatalf("expected zero tender totals, got %+v", totals)
	}
	if _, _, err := Open(drawer, dec("100"), "cashier", testNow); !errors.Is(err, domain.ErrDrawerAlreadyOpen) {
		t.Fatalf("expected ErrDrawerAlreadyOpen, got %v", err)
	}
	if _, _, err := Open(Uninitialized("2026-03-15"), dec("-1"), "cashier", testNow); !errors.Is(err, domain.ErrInvalidOpeningCash) {
		t.Fatalf("expected ErrInvalidOpeningCash, got %v", err)
	}
}

func TestApplyRejectsUninitializedDay(t *testing.T) {
	drawer := Uninitialized("2026-03-14")
	totals := domain.TenderTotals{Day: "2026-03-14"}
	err := Apply(&drawer, &totals, ExpenseEffect(dec("10")), testNow)
	if !errors.Is(err, domain.ErrDrawerNotOpen) {
		t.Fatalf("expected ErrDrawerNotOpen, got %v", err)
	}
	if !drawer.CurrentCash.IsZero() {
		t.Fatalf("rejected effect must not move the drawer")
	}
}

func TestEffectsMoveTheRightRecords(t *testing.T) {
	drawer, totals := openDay(t, "1000")

	mixed := domain.PaymentDecision{
		Method:    domain.MethodMixed,
		Change:    dec("76"),
		Breakdown: []domain.Tender{{Mode: domain.TenderCash, Amount: dec("2000")}, {Mode: domain.TenderUPI, Amount: dec("200")}},
	}
	steps := []Effect{
		SaleEffect(mixed),
		CollectionEffect(domain.TenderUPI, dec("1124")),
		CollectionEffect(domain.TenderCash, dec("50.005")),
		RefundEffect(domain.TenderCash, dec("900")),
		ExpenseEffect(dec("120")),
	}
	for _, step := range steps {
		if err := Apply(&drawer, &totals, step, testNow); err != nil {
			t.Fatalf("apply failed: %v", err)
		}
	}

	// 1000 + 1924 + 50.01 - 900 - 120
	if !drawer.CurrentCash.Equal(dec("1954.01")) {
		t.Fatalf("unexpected drawer cash %s", drawer.CurrentCash)
	}
	if !totals.Cash.Equal(dec("954.01")) {
		t.Fatalf("unexpected cash revenue %s", totals.Cash)
	}
	if !totals.UPI.Equal(dec("1324")) {
		t.Fatalf("unexpected upi revenue %s", totals.UPI)
	}
}
