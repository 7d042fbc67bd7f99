package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"galla/backend/internal/domain"
)

type EventKind string

const (
	EventSale          EventKind = "sale"
	EventDueCollection EventKind = "due_collection"
	EventReturn        EventKind = "return"
	EventExpense       EventKind = "expense"
)

type Event struct {
	Kind   EventKind
	Ref    string
	At     time.Time
	Effect Effect
}

// Events rebuilds the money-moving history of a day from its stored
// records, ordered by time.
func Events(sales []domain.Sale, payments []domain.DuePayment, returns []domain.Return, expenses []domain.Expense) []Event {
	events := make([]Event, 0, len(sales)+len(payments)+len(returns)+len(expenses))
	for _, sale := range sales {
		decision := domain.PaymentDecision{Breakdown: sale.Tenders, Change: sale.Change}
		events = append(events, Event{Kind: EventSale, Ref: sale.ID, At: sale.CreatedAt, Effect: SaleEffect(decision)})
	}
	for _, p := range payments {
		events = append(events, Event{Kind: EventDueCollection, Ref: p.ID, At: p.CreatedAt, Effect: CollectionEffect(p.Mode, p.Amount)})
	}
	for _, r := range returns {
		events = append(events, Event{Kind: EventReturn, Ref: r.ID, At: r.CreatedAt, Effect: RefundEffect(r.Tender, r.Refund)})
	}
	for _, e := range expenses {
		events = append(events, Event{Kind: EventExpense, Ref: e.ID, At: e.CreatedAt, Effect: ExpenseEffect(e.Amount)})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].At.Equal(events[j].At) {
			return events[i].Ref < events[j].Ref
		}
		return events[i].At.Before(events[j].At)
	})
	return events
}

// Replay applies events to a freshly opened day and returns the resulting
// drawer and tender records.
func Replay(day string, opening decimal.Decimal, events []Event) (domain.DrawerState, domain.TenderTotals, error) {
	drawer, totals, err := Open(Uninitialized(day), opening, "", time.Time{})
	if err != nil {
		return domain.DrawerState{}, domain.TenderTotals{}, err
	}
	for _, ev := range events {
		if err := Apply(&drawer, &totals, ev.Effect, ev.At); err != nil {
			return domain.DrawerState{}, domain.TenderTotals{}, err
		}
	}
	return drawer, totals, nil
}

// Reconcile compares stored day records with a replay of the day's events.
func Reconcile(stored domain.DrawerState, storedTotals domain.TenderTotals, events []Event) (domain.Reconciliation, error) {
	replayed, replayedTotals, err := Replay(stored.Day, stored.OpeningCash, events)
	if err != nil {
		return domain.Reconciliation{}, err
	}
	return domain.Reconciliation{
		Day:             stored.Day,
		StoredCash:      stored.CurrentCash,
		ReplayedCash:    replayed.CurrentCash,
		StoredCashRev:   storedTotals.Cash,
		ReplayedCashRev: replayedTotals.Cash,
		StoredUPIRev:    storedTotals.UPI,
		ReplayedUPIRev:  replayedTotals.UPI,
		Events:          len(events),
		Balanced: stored.CurrentCash.Equal(replayed.CurrentCash) &&
			storedTotals.Cash.Equal(replayedTotals.Cash) &&
			storedTotals.UPI.Equal(replayedTotals.UPI),
	}, nil
}
