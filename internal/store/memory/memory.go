package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

type state struct {
	products *table[domain.Product]
	sales    *table[domain.Sale]
	dues     *table[domain.Due]
	payments *table[domain.DuePayment]
	returns  *table[domain.Return]
	expenses *table[domain.Expense]
	drawers  *table[domain.DrawerState]
	tenders  *table[domain.TenderTotals]
}

func newState() *state {
	return &state{
		products: newTable[domain.Product](),
		sales:    newTable[domain.Sale](),
		dues:     newTable[domain.Due](),
		payments: newTable[domain.DuePayment](),
		returns:  newTable[domain.Return](),
		expenses: newTable[domain.Expense](),
		drawers:  newTable[domain.DrawerState](),
		tenders:  newTable[domain.TenderTotals](),
	}
}

// Store keeps every collection in process memory. All transactions run
// behind one mutex, so writers are serialized and a failed transaction
// leaves no trace.
type Store struct {
	mu              sync.RWMutex
	committed       *state
	empty           *state
	usersByUsername map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		committed:       newState(),
		empty:           newState(),
		usersByUsername: make(map[string]domain.UserAccount),
	}
}

// seedUsers builds the dev/demo accounts. Credentials come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD, falling back to fixed dev
// values with a warning. The postgres store never uses these.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logrus.WithField("module", "memory-store").Warn("using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithField("module", "memory-store").Fatalf("failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded returns a store with a small demo catalog and dev users.
func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()

	now := time.Now().UTC()
	for _, p := range []domain.Product{
		{ID: "P-RICE-5KG", Name: "Basmati Rice 5kg", Price: decimal.RequireFromString("649"), Stock: 40, MinStock: 5},
		{ID: "P-ATTA-10KG", Name: "Whole Wheat Atta 10kg", Price: decimal.RequireFromString("455"), Stock: 25, MinStock: 5},
		{ID: "P-DAL-1KG", Name: "Toor Dal 1kg", Price: decimal.RequireFromString("168.5"), Stock: 60, MinStock: 10},
		{ID: "P-OIL-1L", Name: "Sunflower Oil 1L", Price: decimal.RequireFromString("142"), Stock: 48, MinStock: 12},
		{ID: "P-TEA-250G", Name: "Assam Tea 250g", Price: decimal.RequireFromString("135"), Stock: 30, MinStock: 6},
		{ID: "P-SOAP-4PK", Name: "Bath Soap 4 pack", Price: decimal.RequireFromString("176"), Stock: 35, MinStock: 8},
		{ID: "P-SHIRT-M", Name: "Cotton Shirt M", Price: decimal.RequireFromString("1000"), Stock: 12, MinStock: 2},
		{ID: "S-ALTER", Name: "Tailoring Alteration", Price: decimal.RequireFromString("80"), NonInventory: true},
	} {
		p.UpdatedAt = now
		s.committed.products.put(p.ID, p)
	}
	return s
}

func (s *Store) Close() error {
	return nil
}

// Atomic runs fn against a staged view. Staged rows are merged into the
// committed state only when fn succeeds.
func (s *Store) Atomic(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := newState()
	v := &view{base: s.committed, staged: staged}
	if err := fn(v); err != nil {
		return err
	}
	v.commit()
	return nil
}

func (s *Store) read(fn func(v *view) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&view{base: s.committed, staged: s.empty})
}

func (s *Store) write(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Atomic(ctx, fn)
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// AddUser registers an account; used by tests and seeding.
func (s *Store) AddUser(user domain.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByUsername[user.Username] = user
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListProducts(ctx)
		return err
	})
	return out, err
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	var out map[string]domain.Product
	err := s.read(func(v *view) error {
		var err error
		out, err = v.GetProductsByIDs(ctx, ids)
		return err
	})
	return out, err
}

func (s *Store) UpsertProduct(ctx context.Context, product domain.Product) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.UpsertProduct(ctx, product) })
}

func (s *Store) SetStock(ctx context.Context, productID string, qty int) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.SetStock(ctx, productID, qty) })
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateSale(ctx, sale) })
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var out *domain.Sale
	err := s.read(func(v *view) error {
		var err error
		out, err = v.GetSale(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.UpdateSale(ctx, sale) })
}

func (s *Store) ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error) {
	var out []domain.Sale
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListSalesByDay(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) CreateDue(ctx context.Context, due domain.Due) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateDue(ctx, due) })
}

func (s *Store) GetDue(ctx context.Context, id string) (*domain.Due, error) {
	var out *domain.Due
	err := s.read(func(v *view) error {
		var err error
		out, err = v.GetDue(ctx, id)
		return err
	})
	return out, err
}

func (s *Store) UpdateDue(ctx context.Context, due domain.Due) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.UpdateDue(ctx, due) })
}

func (s *Store) ListDues(ctx context.Context, includeSettled bool) ([]domain.Due, error) {
	var out []domain.Due
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListDues(ctx, includeSettled)
		return err
	})
	return out, err
}

func (s *Store) CreateDuePayment(ctx context.Context, payment domain.DuePayment) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateDuePayment(ctx, payment) })
}

func (s *Store) ListDuePaymentsByDay(ctx context.Context, day string) ([]domain.DuePayment, error) {
	var out []domain.DuePayment
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListDuePaymentsByDay(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) CreateReturn(ctx context.Context, ret domain.Return) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateReturn(ctx, ret) })
}

func (s *Store) ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error) {
	var out []domain.Return
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListReturnsBySale(ctx, saleID)
		return err
	})
	return out, err
}

func (s *Store) ListReturnsByDay(ctx context.Context, day string) ([]domain.Return, error) {
	var out []domain.Return
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListReturnsByDay(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.CreateExpense(ctx, expense) })
}

func (s *Store) ListExpensesByDay(ctx context.Context, day string) ([]domain.Expense, error) {
	var out []domain.Expense
	err := s.read(func(v *view) error {
		var err error
		out, err = v.ListExpensesByDay(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) GetDrawer(ctx context.Context, day string) (*domain.DrawerState, error) {
	var out *domain.DrawerState
	err := s.read(func(v *view) error {
		var err error
		out, err = v.GetDrawer(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) GetTenderTotals(ctx context.Context, day string) (*domain.TenderTotals, error) {
	var out *domain.TenderTotals
	err := s.read(func(v *view) error {
		var err error
		out, err = v.GetTenderTotals(ctx, day)
		return err
	})
	return out, err
}

func (s *Store) OpenDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.OpenDay(ctx, drawer, totals) })
}

func (s *Store) SaveDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	return s.write(ctx, func(tx store.Tx) error { return tx.SaveDay(ctx, drawer, totals) })
}

func errNotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", store.ErrNotFound, kind, id)
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Tx         = (*view)(nil)
)
