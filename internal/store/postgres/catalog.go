package postgres

import (
	"context"
	"fmt"

	"galla/backend/internal/domain"
	"galla/backend/internal/store"
)

func (q queries) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, name, price, stock, min_stock, non_inventory, updated_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.MinStock, &p.NonInventory, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q queries) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT id, name, price, stock, min_stock, non_inventory, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id`+q.lockClause(), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.MinStock, &p.NonInventory, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (q queries) UpsertProduct(ctx context.Context, product domain.Product) error {
	if product.ID == "" || product.Name == "" || product.Price.IsNegative() || product.Stock < 0 {
		return fmt.Errorf("%w: product %q", domain.ErrInvalidLine, product.ID)
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock, min_stock, non_inventory, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock,
			min_stock = EXCLUDED.min_stock, non_inventory = EXCLUDED.non_inventory, updated_at = now()
	`, product.ID, product.Name, product.Price, product.Stock, product.MinStock, product.NonInventory)
	return err
}

func (q queries) SetStock(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("%w: %s cannot go below zero", domain.ErrInsufficientStock, productID)
	}
	res, err := q.q.ExecContext(ctx, `
		UPDATE products SET stock = $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	return expectOneRow(res, "product", productID)
}

var _ store.Products = queries{}
