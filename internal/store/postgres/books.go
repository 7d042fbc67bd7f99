package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

func (q queries) CreateReturn(ctx context.Context, ret domain.Return) error {
	items, err := toJSON(ret.Items)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO returns (id, sale_id, day, reason, items, refund, tender, processed_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, ret.ID, ret.SaleID, ret.Day, ret.Reason, items, ret.Refund, string(ret.Tender), ret.ProcessedBy, ret.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: return %s exists", store.ErrConflict, ret.ID)
		}
		return err
	}
	return nil
}

func (q queries) ListReturnsBySale(ctx context.Context, saleID string) ([]domain.Return, error) {
	return q.listReturns(ctx, `WHERE sale_id = $1`, saleID)
}

func (q queries) ListReturnsByDay(ctx context.Context, day string) ([]domain.Return, error) {
	return q.listReturns(ctx, `WHERE day = $1`, day)
}

func (q queries) listReturns(ctx context.Context, where string, arg any) ([]domain.Return, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, sale_id, to_char(day, 'YYYY-MM-DD'), reason, items, refund, tender, processed_by, created_at
		FROM returns
		`+where+`
		ORDER BY created_at, id
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, 16)
	for rows.Next() {
		var r domain.Return
		var items []byte
		if err := rows.Scan(&r.ID, &r.SaleID, &r.Day, &r.Reason, &items, &r.Refund, &r.Tender, &r.ProcessedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := fromJSON(items, &r.Items); err != nil {
			return nil, err
		}
		returns = append(returns, r)
	}
	return returns, rows.Err()
}

func (q queries) CreateExpense(ctx context.Context, expense domain.Expense) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO expenses (id, day, amount, reason, cashier, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, expense.ID, expense.Day, expense.Amount, expense.Reason, expense.Cashier, expense.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s exists", store.ErrConflict, expense.ID)
		}
		return err
	}
	return nil
}

func (q queries) ListExpensesByDay(ctx context.Context, day string) ([]domain.Expense, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, to_char(day, 'YYYY-MM-DD'), amount, reason, cashier, created_at
		FROM expenses
		WHERE day = $1
		ORDER BY created_at, id
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 16)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Day, &e.Amount, &e.Reason, &e.Cashier, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (q queries) GetDrawer(ctx context.Context, day string) (*domain.DrawerState, error) {
	var d domain.DrawerState
	var openedBy sql.NullString
	err := q.q.QueryRowContext(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), status, opening_cash, current_cash, opened_by, opened_at, updated_at
		FROM drawer_states
		WHERE day = $1`+q.lockClause(), day).Scan(&d.Day, &d.Status, &d.OpeningCash, &d.CurrentCash, &openedBy, &d.OpenedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: drawer %s", store.ErrNotFound, day)
		}
		return nil, err
	}
	d.OpenedBy = openedBy.String
	return &d, nil
}

func (q queries) GetTenderTotals(ctx context.Context, day string) (*domain.TenderTotals, error) {
	var t domain.TenderTotals
	err := q.q.QueryRowContext(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), cash, upi, updated_at
		FROM tender_totals
		WHERE day = $1`+q.lockClause(), day).Scan(&t.Day, &t.Cash, &t.UPI, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tender totals %s", store.ErrNotFound, day)
		}
		return nil, err
	}
	return &t, nil
}

func (q queries) OpenDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO drawer_states (day, status, opening_cash, current_cash, opened_by, opened_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, drawer.Day, string(drawer.Status), drawer.OpeningCash, drawer.CurrentCash, nullIfEmpty(drawer.OpenedBy), drawer.OpenedAt, drawer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: day %s already opened", store.ErrConflict, drawer.Day)
		}
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO tender_totals (day, cash, upi, updated_at)
		VALUES ($1,$2,$3,$4)
	`, totals.Day, totals.Cash, totals.UPI, totals.UpdatedAt)
	return err
}

func (q queries) SaveDay(ctx context.Context, drawer domain.DrawerState, totals domain.TenderTotals) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE drawer_states SET current_cash = $2, updated_at = $3
		WHERE day = $1
	`, drawer.Day, drawer.CurrentCash, drawer.UpdatedAt)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, "drawer", drawer.Day); err != nil {
		return err
	}
	res, err = q.q.ExecContext(ctx, `
		UPDATE tender_totals SET cash = $2, upi = $3, updated_at = $4
		WHERE day = $1
	`, totals.Day, totals.Cash, totals.UPI, totals.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tender totals", totals.Day)
}
