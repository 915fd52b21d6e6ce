package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bmitiku/grocery-system/internal/model"
)

const productColumns = `id, name, description, category, price, stock, image_url, created_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category,
		&p.PriceCents, &p.Stock, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// CreateProduct добавляет новый товар в каталог.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, category, price, stock, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+productColumns,
		p.Name, p.Description, p.Category, p.PriceCents, p.Stock, p.ImageURL)
	return scanProduct(row)
}

// GetProductByID возвращает товар по идентификатору.
func (r *PostgresRepository) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ListProducts возвращает все товары каталога, новые первыми.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// UpdateProduct обновляет данные товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products SET name = $2, description = $3, category = $4, price = $5, stock = $6, image_url = $7
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Category, p.PriceCents, p.Stock, p.ImageURL)
	return scanProduct(row)
}

// DeleteProduct удаляет товар из каталога.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ProductStats содержит агрегированную статистику по каталогу.
type ProductStats struct {
	Total           int64
	TotalValueCents int64
}

// GetProductStats возвращает агрегированную статистику по каталогу.
func (r *PostgresRepository) GetProductStats(ctx context.Context) (*ProductStats, error) {
	var s ProductStats
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(price), 0) FROM products`,
	).Scan(&s.Total, &s.TotalValueCents)
	if err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	return &s, nil
}
