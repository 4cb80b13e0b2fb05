package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/quickbasket/internal/model"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, phone, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `id, email, password_hash, name, phone, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id, name, phone string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = $2, phone = $3, updated_at = now() WHERE id = $1`, id, name, phone)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Addresses

const addressColumns = `id, user_id, label, address_line1, address_line2, city, state, zip_code, country, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...any) error }) (*model.Address, error) {
	var a model.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.State, &a.ZipCode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

func (s *PostgresStore) GetAddress(ctx context.Context, userID, addressID string) (*model.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) CreateAddress(ctx context.Context, a *model.Address) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, label, address_line1, address_line2, city, state, zip_code, country, is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.UserID, a.Label, a.AddressLine1, a.AddressLine2, a.City, a.State, a.ZipCode,
		a.Country, a.IsDefault, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAddress(ctx context.Context, a *model.Address) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET label = $3, address_line1 = $4, address_line2 = $5, city = $6,
			state = $7, zip_code = $8, country = $9, is_default = $10, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Label, a.AddressLine1, a.AddressLine2, a.City, a.State, a.ZipCode,
		a.Country, a.IsDefault)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAddress(ctx context.Context, userID, addressID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearDefaultAddress(ctx context.Context, userID, exceptID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET is_default = false, updated_at = now()
		 WHERE user_id = $1 AND id <> $2 AND is_default = true`,
		userID, exceptID)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	return nil
}

// Wishlist

func (s *PostgresStore) ListWishlist(ctx context.Context, userID string) ([]model.WishlistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.id, w.user_id, w.product_id, w.created_at,
		        p.id, p.name, p.description, p.price, p.inventory, p.category_id,
		        p.image_url, p.is_active, p.created_at, p.updated_at
		 FROM wishlists w JOIN products p ON p.id = w.product_id
		 WHERE w.user_id = $1 ORDER BY w.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var entries []model.WishlistEntry
	for rows.Next() {
		var e model.WishlistEntry
		var p model.Product
		var categoryID sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.CreatedAt,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Inventory, &categoryID,
			&p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.CategoryID = categoryID.String
		e.Product = &p
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) HasWishlistEntry(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AddWishlistEntry(ctx context.Context, e *model.WishlistEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wishlists (id, user_id, product_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		e.ID, e.UserID, e.ProductID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("add wishlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveWishlistEntry(ctx context.Context, userID, productID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove wishlist entry: %w", err)
	}
	return nil
}
