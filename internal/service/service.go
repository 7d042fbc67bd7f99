package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/cache"
	"galla/backend/internal/domain"
	"galla/backend/internal/ledger"
	"galla/backend/internal/lock"
	"galla/backend/internal/logging"
	"galla/backend/internal/pricing"
	"galla/backend/internal/receipt"
	"galla/backend/internal/store"
)

const maxAttempts = 3

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

func actorName(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok || strings.TrimSpace(actor.Username) == "" {
		return "system"
	}
	return actor.Username
}

type Options struct {
	Locker         lock.Locker
	Cache          cache.SummaryCache
	SummaryTTL     time.Duration
	Receipts       *receipt.Dispatcher
	ShopName       string
	Logger         *logrus.Logger
	Location       *time.Location
	TaxRatePercent decimal.Decimal
	RefundPolicy   domain.RefundPolicy
	Now            func() time.Time
}

type Service struct {
	repo       store.Repository
	locker     lock.Locker
	cache      cache.SummaryCache
	summaryTTL time.Duration
	receipts   *receipt.Dispatcher
	builder    receipt.Builder
	logger     *logrus.Logger
	loc        *time.Location
	taxRate    decimal.Decimal
	policy     domain.RefundPolicy
	now        func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	s := &Service{
		repo:       repo,
		locker:     opts.Locker,
		cache:      opts.Cache,
		summaryTTL: opts.SummaryTTL,
		receipts:   opts.Receipts,
		builder:    receipt.NewBuilder(opts.ShopName),
		logger:     opts.Logger,
		loc:        opts.Location,
		taxRate:    opts.TaxRatePercent,
		policy:     opts.RefundPolicy,
		now:        opts.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewLocal()
	}
	if s.cache == nil {
		s.cache = cache.NoopSummaryCache{}
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.policy.Tender == "" {
		s.policy.Tender = domain.RefundCash
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today is the current business day in the shop's time zone.
func (s *Service) Today() string {
	return ledger.DayKey(s.now(), s.loc)
}

func (s *Service) resolveDay(day string) (string, error) {
	day = strings.TrimSpace(day)
	if day == "" {
		return s.Today(), nil
	}
	if !ledger.ValidDay(day) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDay, day)
	}
	return day, nil
}

func (s *Service) rate(override *decimal.Decimal) (decimal.Decimal, error) {
	rate := s.taxRate
	if override != nil {
		rate = *override
	}
	if rate.IsNegative() {
		return decimal.Zero, domain.ErrInvalidTaxRate
	}
	return rate, nil
}

// atomic runs fn in one store transaction, retrying when the store reports a
// lost race. fn must derive everything it writes from reads made through tx.
func (s *Service) atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.repo.Atomic(ctx, fn)
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"module":  "service",
			"attempt": attempt,
		}).Warn("transaction conflict, retrying: " + err.Error())
	}
	return err
}

// loadOpenDay returns the day's records, rejecting days that were never
// opened.
func loadOpenDay(ctx context.Context, tx store.Tx, day string) (domain.DrawerState, domain.TenderTotals, error) {
	drawer, err := tx.GetDrawer(ctx, day)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DrawerState{}, domain.TenderTotals{}, fmt.Errorf("%w: %s", domain.ErrDrawerNotOpen, day)
	}
	if err != nil {
		return domain.DrawerState{}, domain.TenderTotals{}, err
	}
	if err := ledger.RequireOpen(*drawer); err != nil {
		return domain.DrawerState{}, domain.TenderTotals{}, err
	}
	totals, err := tx.GetTenderTotals(ctx, day)
	if err != nil {
		return domain.DrawerState{}, domain.TenderTotals{}, err
	}
	return *drawer, *totals, nil
}

// book applies one event's effect to the open day and persists both records.
func book(ctx context.Context, tx store.Tx, day string, effect ledger.Effect, at time.Time) error {
	drawer, totals, err := loadOpenDay(ctx, tx, day)
	if err != nil {
		return err
	}
	if err := ledger.Apply(&drawer, &totals, effect, at); err != nil {
		return err
	}
	return tx.SaveDay(ctx, drawer, totals)
}

// afterCommit runs the side effects of a committed mutation. None of them can
// fail the operation.
func (s *Service) afterCommit(ctx context.Context, day string, r *receipt.Receipt) {
	if err := s.cache.Invalidate(ctx, day); err != nil {
		logging.LogError(s.logger, "service", "afterCommit", "invalidate day summary", day, err)
	}
	if r != nil && s.receipts != nil {
		s.receipts.Enqueue(*r)
	}
}

// buildItems turns requested lines into priced cart lines. Catalog lines
// take their price from the product; lines without a product id are ad hoc.
func buildItems(lines []domain.CheckoutLine, products map[string]domain.Product) ([]domain.CartItem, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	cart := pricing.NewCart()
	for _, line := range lines {
		var item domain.CartItem
		productID := strings.TrimSpace(line.ProductID)
		if productID != "" {
			product, ok := products[productID]
			if !ok {
				return nil, fmt.Errorf("%w: unknown product %s", domain.ErrInvalidLine, productID)
			}
			item = domain.NewInventoryItem(product, line.Quantity)
		} else {
			item = domain.NewAdHocItem(line.Name, line.UnitPrice, line.Quantity)
		}
		if !line.Discount.IsZero() || line.DiscountKind != "" {
			item.Discount = line.Discount
			if line.DiscountKind != "" {
				item.DiscountKind = line.DiscountKind
			}
		}
		if err := cart.Add(item); err != nil {
			return nil, err
		}
	}
	return cart.Items(), nil
}

func productIDs(lines []domain.CheckoutLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
