package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bmitiku/grocery-system/internal/model"
)

const orderColumns = `id, user_id, number, customer_name, customer_email, customer_phone,
	delivery_address, delivery_city, delivery_subcity, order_notes, payment_method,
	subtotal, delivery_fee, tax, total, status, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Number, &o.CustomerName, &o.CustomerEmail,
		&o.CustomerPhone, &o.DeliveryAddress, &o.DeliveryCity, &o.DeliverySubcity,
		&o.OrderNotes, &o.PaymentMethod, &o.SubtotalCents, &o.DeliveryFeeCents,
		&o.TaxCents, &o.TotalCents, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

// CreateOrder атомарно сохраняет заказ с позициями и списывает товар со склада.
// Заголовок и позиции либо записываются целиком, либо не записываются вовсе.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error) {
	var created *model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, number, customer_name, customer_email, customer_phone,
				delivery_address, delivery_city, delivery_subcity, order_notes, payment_method,
				subtotal, delivery_fee, tax, total, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 RETURNING `+orderColumns,
			o.UserID, o.Number, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
			o.DeliveryAddress, o.DeliveryCity, o.DeliverySubcity, o.OrderNotes, o.PaymentMethod,
			o.SubtotalCents, o.DeliveryFeeCents, o.TaxCents, o.TotalCents, string(o.Status))

		created, err = scanOrder(row)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range o.Items {
			var itemID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, price, quantity, subtotal)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				created.ID, item.ProductID, item.ProductName, item.PriceCents, item.Quantity, item.SubtotalCents,
			).Scan(&itemID)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}

			item.ID = itemID
			item.OrderID = created.ID
			created.Items = append(created.Items, item)

			// Списание со склада не уводит остаток в минус.
			tag, err := tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
				item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, item.ProductID)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PostgresRepository) loadOrderItems(ctx context.Context, orders []model.Order) error {
	for i := range orders {
		rows, err := r.pool.Query(ctx,
			`SELECT id, order_id, product_id, product_name, price, quantity, subtotal
			 FROM order_items WHERE order_id = $1 ORDER BY id`,
			orders[i].ID)
		if err != nil {
			return fmt.Errorf("select order items: %w", err)
		}

		for rows.Next() {
			var item model.OrderItem
			if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
				&item.ProductName, &item.PriceCents, &item.Quantity, &item.SubtotalCents); err != nil {
				rows.Close()
				return fmt.Errorf("scan order item: %w", err)
			}
			orders[i].Items = append(orders[i].Items, item)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
	}
	return nil
}

// GetOrdersByUser возвращает заказы пользователя с позициями, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderByID возвращает заказ с позициями по идентификатору.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListOrders возвращает все заказы с позициями, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus изменяет статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1 RETURNING `+orderColumns,
		id, string(status))
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	orders := []model.Order{*o}
	if err := r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// OrderStats содержит агрегированную статистику по заказам.
type OrderStats struct {
	Total        int64
	ByStatus     map[string]int64
	RevenueCents int64
}

// GetOrderStats возвращает агрегированную статистику по заказам.
// Выручка считается по доставленным заказам.
func (r *PostgresRepository) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	s := &OrderStats{ByStatus: make(map[string]int64)}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(total) FILTER (WHERE status = 'delivered'), 0)
		 FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status  string
			count   int64
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		s.Total += count
		s.ByStatus[status] = count
		s.RevenueCents += revenue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return s, nil
}
