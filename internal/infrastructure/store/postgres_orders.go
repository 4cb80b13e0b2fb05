package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/quickbasket/internal/model"
)

// CreateOrder persists the full cart-to-order transition in one transaction.
// The inventory decrement is conditional (inventory >= quantity), so two
// concurrent checkouts can never both take the last unit: the second one
// aborts and nothing it wrote survives.
func (s *PostgresStore) CreateOrder(ctx context.Context, order *model.Order, items []model.OrderItem, cartID string, n *model.Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	metadata, err := json.Marshal(order.Metadata)
	if err != nil {
		return fmt.Errorf("marshal order metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, payment_status, total_amount, delivery_fee,
			address_snapshot, delivery_instructions, metadata, estimated_delivery, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.ID, order.UserID, order.Status, order.PaymentStatus, order.TotalAmount, order.DeliveryFee,
		order.AddressSnapshot, order.DeliveryInstructions, metadata, order.EstimatedDelivery,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		it := &items[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price_snapshot, variant, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.PriceSnapshot, it.Variant, it.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE products SET inventory = inventory - $2, updated_at = now()
			 WHERE id = $1 AND inventory >= $2`,
			it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("decrement inventory: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return &InsufficientInventoryError{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Requested:   it.Quantity,
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if n != nil {
		nMeta, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications (id, user_id, type, title, message, read, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, false, $6, $7)`,
			n.ID, n.UserID, n.Type, n.Title, n.Message, nMeta, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order notification: %w", err)
		}
	}

	return tx.Commit()
}

const orderColumns = `id, user_id, status, payment_status, total_amount, delivery_fee,
	address_snapshot, delivery_instructions, metadata, estimated_delivery, delivered_at,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var metadata []byte
	var estimated, delivered sql.NullTime
	if err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.DeliveryFee,
		&o.AddressSnapshot, &o.DeliveryInstructions, &metadata, &estimated, &delivered,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal order metadata: %w", err)
	}
	o.EstimatedDelivery = estimated.Time
	if delivered.Valid {
		t := delivered.Time
		o.DeliveredAt = &t
	}
	return &o, nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, userID string, f OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) ListOrderItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_snapshot, oi.variant,
		        oi.created_at, p.name, p.image_url
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1 ORDER BY oi.created_at`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceSnapshot,
			&it.Variant, &it.CreatedAt, &it.ProductName, &it.ProductImageURL); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateOrderStatus guards the transition on the current status so two
// concurrent transitions cannot both apply.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus, deliveredAt *time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $3, delivered_at = $4, updated_at = now()
		 WHERE id = $1 AND status = $2`,
		orderID, from, to, nullTime(deliveredAt))
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
