package store

import (
	"context"
	"errors"

	"galla/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a write that lost against a concurrent change of
	// the same record. The caller may reload and retry.
	ErrConflict = errors.New("conflicting concurrent update")
)

// Products is the inventory collaborator: products are read whole and stock
// is written back as an absolute value.
type Products interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
	SetStock(ctx context.Context, productID string, qty int) error
}

type Sales interface {
	CreateSale(ctx context.Context, sale domain.Sale) error
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	// UpdateSale replaces a sale whose stored version equals sale.Version and
	// bumps the version. A different stored version yields ErrConflict.
	UpdateSale(ctx context.Context, sale domain.Sale) error
	ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error)
}

type Dues interface {
	CreateDue(ctx context.Context, due domain.Due) error
	// GetDue returns the due with its payments loaded.
	GetDue(ctx context.Context, id string) (*domain.Due, error)
	UpdateDue(ctx context.Context, due domain.Due) error
	ListDues(ctx context.Context, includeSettled bool) ([]domain.Due, error)
	CreateDuePayment(ctx context.Context, payment domain.DuePayment) error
	ListDuePaymentsByDay(ctx context.Context, day string) ([]domain.DuePayment, error)
}

type Returns interface {
	CreateReturn(ctx context.Context, ret domain.Return) error
	ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error)
	ListReturnsByDay(ctx context.Context, day string) ([]domain.Return, error)
}

type Expenses interface {
	CreateExpense(ctx context.Context, expense domain.Expense) error
	ListExpensesByDay(ctx context.Context, day string) ([]domain.Expense, error)
}

// Ledger stores the per-day drawer and tender records. A day with no drawer
// record is uninitialized.
type Ledger interface {
	GetDrawer(ctx context.Context, day string) (*domain.DrawerState, error)
	GetTenderTotals(ctx context.Context, day string) (*domain.TenderTotals, error)
	// OpenDay inserts both day records. It fails with ErrConflict when the
	// day already exists.
	OpenDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error
	SaveDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error
}

type Users interface {
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

// Tx is the set of collections visible inside one atomic unit of work.
type Tx interface {
	Products
	Sales
	Dues
	Returns
	Expenses
	Ledger
}

// Repository is Tx with autocommit semantics plus Atomic, which runs fn in a
// single transaction: every write made through the Tx handed to fn becomes
// visible together when fn returns nil, and none of them do otherwise.
type Repository interface {
	Tx
	Users
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
