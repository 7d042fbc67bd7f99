package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

const dueColumns = `
	id, sale_id, to_char(day, 'YYYY-MM-DD'), customer, total, upfront_paid, upfront_tender, upfront_tenders,
	balance, settled, version, created_at, updated_at`

func scanDue(row rowScanner) (domain.Due, error) {
	var due domain.Due
	var tender sql.NullString
	var tenders []byte
	err := row.Scan(
		&due.ID, &due.SaleID, &due.Day, &due.Customer, &due.Total, &due.UpfrontPaid, &tender, &tenders,
		&due.Balance, &due.Settled, &due.Version, &due.CreatedAt, &due.UpdatedAt,
	)
	if err != nil {
		return domain.Due{}, err
	}
	due.UpfrontTender = domain.MethodLabel(tender.String)
	if err := fromJSON(tenders, &due.UpfrontTenders); err != nil {
		return domain.Due{}, err
	}
	return due, nil
}

func (q queries) CreateDue(ctx context.Context, due domain.Due) error {
	tenders, err := toJSON(due.UpfrontTenders)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO dues (
			id, sale_id, day, customer, total, upfront_paid, upfront_tender, upfront_tenders,
			balance, settled, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, due.ID, due.SaleID, due.Day, due.Customer, due.Total, due.UpfrontPaid, nullIfEmpty(string(due.UpfrontTender)),
		tenders, due.Balance, due.Settled, due.Version, due.CreatedAt, due.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: due %s exists", store.ErrConflict, due.ID)
		}
		return err
	}
	return nil
}

func (q queries) GetDue(ctx context.Context, id string) (*domain.Due, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+dueColumns+` FROM dues WHERE id = $1`+q.lockClause(), id)
	due, err := scanDue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: due %s", store.ErrNotFound, id)
		}
		return nil, err
	}
	payments, err := q.listDuePayments(ctx, `WHERE due_id = $1`, id)
	if err != nil {
		return nil, err
	}
	due.Payments = payments
	return &due, nil
}

func (q queries) UpdateDue(ctx context.Context, due domain.Due) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE dues
		SET balance = $3, settled = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`, due.ID, due.Version, due.Balance, due.Settled, due.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := q.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dues WHERE id = $1)`, due.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: due %s", store.ErrNotFound, due.ID)
		}
		return fmt.Errorf("%w: due %s changed since version %d", store.ErrConflict, due.ID, due.Version)
	}
	return nil
}

func (q queries) ListDues(ctx context.Context, includeSettled bool) ([]domain.Due, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+dueColumns+`
		FROM dues
		WHERE $1 OR settled = false
		ORDER BY created_at, id
	`, includeSettled)
	if err != nil {
		return nil, err
	}
	dues := make([]domain.Due, 0, 32)
	for rows.Next() {
		due, err := scanDue(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		dues = append(dues, due)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(dues) == 0 {
		return dues, nil
	}
	ids := make([]string, 0, len(dues))
	for _, due := range dues {
		ids = append(ids, due.ID)
	}
	payments, err := q.listDuePayments(ctx, `WHERE due_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	byDue := make(map[string][]domain.DuePayment, len(dues))
	for _, p := range payments {
		byDue[p.DueID] = append(byDue[p.DueID], p)
	}
	for i := range dues {
		dues[i].Payments = byDue[dues[i].ID]
		if dues[i].Payments == nil {
			dues[i].Payments = []domain.DuePayment{}
		}
	}
	return dues, nil
}

func (q queries) CreateDuePayment(ctx context.Context, payment domain.DuePayment) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO due_payments (id, due_id, day, amount, mode, cashier, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, payment.ID, payment.DueID, payment.Day, payment.Amount, string(payment.Mode), payment.Cashier, payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: due payment %s exists", store.ErrConflict, payment.ID)
		}
		return err
	}
	return nil
}

func (q queries) ListDuePaymentsByDay(ctx context.Context, day string) ([]domain.DuePayment, error) {
	return q.listDuePayments(ctx, `WHERE day = $1`, day)
}

func (q queries) listDuePayments(ctx context.Context, where string, arg any) ([]domain.DuePayment, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, due_id, to_char(day, 'YYYY-MM-DD'), amount, mode, cashier, created_at
		FROM due_payments
		`+where+`
		ORDER BY created_at, id
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.DuePayment, 0, 16)
	for rows.Next() {
		var p domain.DuePayment
		if err := rows.Scan(&p.ID, &p.DueID, &p.Day, &p.Amount, &p.Mode, &p.Cashier, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
