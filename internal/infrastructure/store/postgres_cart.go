package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/quickbasket/internal/model"
)

func (s *PostgresStore) GetLiveCart(ctx context.Context, userID string, now time.Time) (*model.Cart, error) {
	var c model.Cart
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at, updated_at
		 FROM carts WHERE user_id = $1 AND expires_at > $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, now).Scan(&c.ID, &c.UserID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get live cart: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCart(ctx context.Context, c *model.Cart) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.ExpiresAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCartItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price_snapshot, ci.variant,
		        ci.created_at, p.name, p.image_url, p.inventory
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.cart_id = $1 ORDER BY ci.created_at`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.PriceSnapshot,
			&it.Variant, &it.CreatedAt, &it.ProductName, &it.ProductImageURL, &it.ProductInventory); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetCartItem(ctx context.Context, itemID string) (*model.CartItem, error) {
	var it model.CartItem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, cart_id, product_id, quantity, price_snapshot, variant, created_at
		 FROM cart_items WHERE id = $1`,
		itemID).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.PriceSnapshot, &it.Variant, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &it, nil
}

// UpsertCartItem relies on the (cart_id, product_id, variant) unique
// constraint so concurrent adds merge into one line instead of racing a
// read-then-write.
func (s *PostgresStore) UpsertCartItem(ctx context.Context, item *model.CartItem) (*model.CartItem, error) {
	var out model.CartItem
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, price_snapshot, variant, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (cart_id, product_id, variant) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, cart_id, product_id, quantity, price_snapshot, variant, created_at`,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.PriceSnapshot, item.Variant, item.CreatedAt,
	).Scan(&out.ID, &out.CartID, &out.ProductID, &out.Quantity, &out.PriceSnapshot, &out.Variant, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $2 WHERE id = $1`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCartItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCartItems(ctx context.Context, cartID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}
