package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

const saleColumns = `
	id, to_char(day, 'YYYY-MM-DD'), cashier, lines, subtotal, total_discount, tax_rate, tax, cgst, sgst,
	grand_total, method, amount_paid, change_given, tenders, customer, return_refs, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var lines, tenders, refs []byte
	var customer sql.NullString
	err := row.Scan(
		&sale.ID, &sale.Day, &sale.Cashier, &lines, &sale.Subtotal, &sale.TotalDiscount, &sale.TaxRate,
		&sale.Tax, &sale.CGST, &sale.SGST, &sale.GrandTotal, &sale.Method, &sale.AmountPaid, &sale.Change,
		&tenders, &customer, &refs, &sale.Version, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return domain.Sale{}, err
	}
	sale.Customer = customer.String
	if err := fromJSON(lines, &sale.Lines); err != nil {
		return domain.Sale{}, err
	}
	if err := fromJSON(tenders, &sale.Tenders); err != nil {
		return domain.Sale{}, err
	}
	if err := fromJSON(refs, &sale.Returns); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func (q queries) CreateSale(ctx context.Context, sale domain.Sale) error {
	lines, err := toJSON(sale.Lines)
	if err != nil {
		return err
	}
	tenders, err := toJSON(sale.Tenders)
	if err != nil {
		return err
	}
	refs, err := toJSON(sale.Returns)
	if err != nil {
		return err
	}

	_, err = q.q.ExecContext(ctx, `
		INSERT INTO sales (
			id, day, cashier, lines, subtotal, total_discount, tax_rate, tax, cgst, sgst,
			grand_total, method, amount_paid, change_given, tenders, customer, return_refs,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, sale.ID, sale.Day, sale.Cashier, lines, sale.Subtotal, sale.TotalDiscount, sale.TaxRate,
		sale.Tax, sale.CGST, sale.SGST, sale.GrandTotal, string(sale.Method), sale.AmountPaid, sale.Change,
		tenders, nullIfEmpty(sale.Customer), refs, sale.Version, sale.CreatedAt, sale.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sale %s exists", store.ErrConflict, sale.ID)
		}
		return err
	}
	return nil
}

func (q queries) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`+q.lockClause(), id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
		}
		return nil, err
	}
	return &sale, nil
}

func (q queries) UpdateSale(ctx context.Context, sale domain.Sale) error {
	lines, err := toJSON(sale.Lines)
	if err != nil {
		return err
	}
	refs, err := toJSON(sale.Returns)
	if err != nil {
		return err
	}

	res, err := q.q.ExecContext(ctx, `
		UPDATE sales
		SET lines = $3, subtotal = $4, total_discount = $5, tax = $6, cgst = $7, sgst = $8,
			grand_total = $9, return_refs = $10, customer = $11, updated_at = $12, version = version + 1
		WHERE id = $1 AND version = $2
	`, sale.ID, sale.Version, lines, sale.Subtotal, sale.TotalDiscount, sale.Tax, sale.CGST, sale.SGST,
		sale.GrandTotal, refs, nullIfEmpty(sale.Customer), sale.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := q.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE id = $1)`, sale.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: sale %s", store.ErrNotFound, sale.ID)
		}
		return fmt.Errorf("%w: sale %s changed since version %d", store.ErrConflict, sale.ID, sale.Version)
	}
	return nil
}

func (q queries) ListSalesByDay(ctx context.Context, day string) ([]domain.Sale, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE day = $1 ORDER BY created_at, id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}
