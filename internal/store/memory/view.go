package memory

import (
	"context"
	"fmt"
	"sort"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

// view implements store.Tx over committed rows plus the rows staged by the
// current transaction.
type view struct {
	base   *state
	staged *state
}

func (v *view) products() overlay[domain.Product] {
	return overlay[domain.Product]{base: v.base.products, staged: v.staged.products}
}

func (v *view) sales() overlay[domain.Sale] {
	return overlay[domain.Sale]{base: v.base.sales, staged: v.staged.sales}
}

func (v *view) dues() overlay[domain.Due] {
	return overlay[domain.Due]{base: v.base.dues, staged: v.staged.dues}
}

func (v *view) payments() overlay[domain.DuePayment] {
	return overlay[domain.DuePayment]{base: v.base.payments, staged: v.staged.payments}
}

func (v *view) returns() overlay[domain.Return] {
	return overlay[domain.Return]{base: v.base.returns, staged: v.staged.returns}
}

func (v *view) expenses() overlay[domain.Expense] {
	return overlay[domain.Expense]{base: v.base.expenses, staged: v.staged.expenses}
}

func (v *view) drawers() overlay[domain.DrawerState] {
	return overlay[domain.DrawerState]{base: v.base.drawers, staged: v.staged.drawers}
}

func (v *view) tenders() overlay[domain.TenderTotals] {
	return overlay[domain.TenderTotals]{base: v.base.tenders, staged: v.staged.tenders}
}

func (v *view) commit() {
	v.products().commit()
	v.sales().commit()
	v.dues().commit()
	v.payments().commit()
	v.returns().commit()
	v.expenses().commit()
	v.drawers().commit()
	v.tenders().commit()
}

func (v *view) ListProducts(_ context.Context) ([]domain.Product, error) {
	products := v.products().list(nil)
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (v *view) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := v.products().get(id); ok {
			out[id] = p
		}
	}
	return out, nil
}

func (v *view) UpsertProduct(_ context.Context, product domain.Product) error {
	if product.ID == "" || product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return fmt.Errorf("%w: product %q", domain.ErrInvalidLine, product.ID)
	}
	v.products().put(product.ID, product)
	return nil
}

func (v *view) SetStock(_ context.Context, productID string, qty int) error {
	product, ok := v.products().get(productID)
	if !ok {
		return errNotFound("product", productID)
	}
	if qty < 0 {
		return fmt.Errorf("%w: %s cannot go below zero", domain.ErrInsufficientStock, product.Name)
	}
	product.Stock = qty
	v.products().put(productID, product)
	return nil
}

func (v *view) CreateSale(_ context.Context, sale domain.Sale) error {
	if _, exists := v.sales().get(sale.ID); exists {
		return fmt.Errorf("%w: sale %s exists", store.ErrConflict, sale.ID)
	}
	v.sales().put(sale.ID, cloneSale(sale))
	return nil
}

func (v *view) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	sale, ok := v.sales().get(id)
	if !ok {
		return nil, errNotFound("sale", id)
	}
	dup := cloneSale(sale)
	return &dup, nil
}

func (v *view) UpdateSale(_ context.Context, sale domain.Sale) error {
	current, ok := v.sales().get(sale.ID)
	if !ok {
		return errNotFound("sale", sale.ID)
	}
	if current.Version != sale.Version {
		return fmt.Errorf("%w: sale %s is at version %d, not %d", store.ErrConflict, sale.ID, current.Version, sale.Version)
	}
	sale.Version++
	v.sales().put(sale.ID, cloneSale(sale))
	return nil
}

func (v *view) ListSalesByDay(_ context.Context, day string) ([]domain.Sale, error) {
	sales := v.sales().list(func(s domain.Sale) bool { return s.Day == day })
	for i := range sales {
		sales[i] = cloneSale(sales[i])
	}
	return sales, nil
}

func (v *view) CreateDue(_ context.Context, due domain.Due) error {
	if _, exists := v.dues().get(due.ID); exists {
		return fmt.Errorf("%w: due %s exists", store.ErrConflict, due.ID)
	}
	due.Payments = nil
	v.dues().put(due.ID, cloneDue(due))
	return nil
}

func (v *view) GetDue(_ context.Context, id string) (*domain.Due, error) {
	due, ok := v.dues().get(id)
	if !ok {
		return nil, errNotFound("due", id)
	}
	loaded := v.withPayments(due)
	return &loaded, nil
}

func (v *view) UpdateDue(_ context.Context, due domain.Due) error {
	current, ok := v.dues().get(due.ID)
	if !ok {
		return errNotFound("due", due.ID)
	}
	if current.Version != due.Version {
		return fmt.Errorf("%w: due %s is at version %d, not %d", store.ErrConflict, due.ID, current.Version, due.Version)
	}
	due.Version++
	due.Payments = nil
	v.dues().put(due.ID, cloneDue(due))
	return nil
}

func (v *view) ListDues(_ context.Context, includeSettled bool) ([]domain.Due, error) {
	dues := v.dues().list(func(d domain.Due) bool { return includeSettled || !d.Settled })
	for i := range dues {
		dues[i] = v.withPayments(dues[i])
	}
	return dues, nil
}

func (v *view) withPayments(due domain.Due) domain.Due {
	dup := cloneDue(due)
	dup.Payments = v.payments().list(func(p domain.DuePayment) bool { return p.DueID == due.ID })
	return dup
}

func (v *view) CreateDuePayment(_ context.Context, payment domain.DuePayment) error {
	if _, exists := v.payments().get(payment.ID); exists {
		return fmt.Errorf("%w: due payment %s exists", store.ErrConflict, payment.ID)
	}
	if _, ok := v.dues().get(payment.DueID); !ok {
		return errNotFound("due", payment.DueID)
	}
	v.payments().put(payment.ID, payment)
	return nil
}

func (v *view) ListDuePaymentsByDay(_ context.Context, day string) ([]domain.DuePayment, error) {
	return v.payments().list(func(p domain.DuePayment) bool { return p.Day == day }), nil
}

func (v *view) CreateReturn(_ context.Context, ret domain.Return) error {
	if _, exists := v.returns().get(ret.ID); exists {
		return fmt.Errorf("%w: return %s exists", store.ErrConflict, ret.ID)
	}
	v.returns().put(ret.ID, cloneReturn(ret))
	return nil
}

func (v *view) ListReturnsBySale(_ context.Context, saleID string) ([]domain.Return, error) {
	returns := v.returns().list(func(r domain.Return) bool { return r.SaleID == saleID })
	for i := range returns {
		returns[i] = cloneReturn(returns[i])
	}
	return returns, nil
}

func (v *view) ListReturnsByDay(_ context.Context, day string) ([]domain.Return, error) {
	returns := v.returns().list(func(r domain.Return) bool { return r.Day == day })
	for i := range returns {
		returns[i] = cloneReturn(returns[i])
	}
	return returns, nil
}

func (v *view) CreateExpense(_ context.Context, expense domain.Expense) error {
	if _, exists := v.expenses().get(expense.ID); exists {
		return fmt.Errorf("%w: expense %s exists", store.ErrConflict, expense.ID)
	}
	v.expenses().put(expense.ID, expense)
	return nil
}

func (v *view) ListExpensesByDay(_ context.Context, day string) ([]domain.Expense, error) {
	return v.expenses().list(func(e domain.Expense) bool { return e.Day == day }), nil
}

func (v *view) GetDrawer(_ context.Context, day string) (*domain.DrawerState, error) {
	drawer, ok := v.drawers().get(day)
	if !ok {
		return nil, errNotFound("drawer", day)
	}
	return &drawer, nil
}

func (v *view) GetTenderTotals(_ context.Context, day string) (*domain.TenderTotals, error) {
	totals, ok := v.tenders().get(day)
	if !ok {
		return nil, errNotFound("tender totals", day)
	}
	return &totals, nil
}

func (v *view) OpenDay(_ context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	if _, exists := v.drawers().get(drawer.Day); exists {
		return fmt.Errorf("%w: day %s already opened", store.ErrConflict, drawer.Day)
	}
	v.drawers().put(drawer.Day, drawer)
	v.tenders().put(totals.Day, totals)
	return nil
}

func (v *view) SaveDay(_ context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	if _, exists := v.drawers().get(drawer.Day); !exists {
		return errNotFound("drawer", drawer.Day)
	}
	v.drawers().put(drawer.Day, drawer)
	v.tenders().put(totals.Day, totals)
	return nil
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	dup.Lines = append([]domain.SaleLine{}, src.Lines...)
	dup.Tenders = append([]domain.Tender{}, src.Tenders...)
	dup.Returns = append([]domain.ReturnRef{}, src.Returns...)
	return dup
}

func cloneDue(src domain.Due) domain.Due {
	dup := src
	dup.UpfrontTenders = append([]domain.Tender{}, src.UpfrontTenders...)
	dup.Payments = append([]domain.DuePayment{}, src.Payments...)
	return dup
}

func cloneReturn(src domain.Return) domain.Return {
	dup := src
	dup.Items = append([]domain.ReturnItem{}, src.Items...)
	return dup
}
