package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/quickbasket/internal/model"
)

// productColumns selects product fields plus the query-time rating aggregate.
const productColumns = `
	p.id, p.name, p.description, p.price, p.inventory, p.category_id,
	p.image_url, p.is_active, p.created_at, p.updated_at,
	COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
`

const productRatingJoin = `
	LEFT JOIN (
		SELECT product_id, ROUND(AVG(rating)::numeric, 1) AS avg_rating, COUNT(*) AS review_count
		FROM reviews GROUP BY product_id
	) r ON r.product_id = p.id
`

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var categoryID sql.NullString
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Inventory, &categoryID,
		&p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		&p.AverageRating, &p.ReviewCount,
	); err != nil {
		return nil, err
	}
	p.CategoryID = categoryID.String
	return &p, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p `+productRatingJoin+` WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p ` + productRatingJoin
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conditions = append(conditions, "p.is_active = true")
	}
	if f.CategoryID != "" {
		conditions = append(conditions, "p.category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice > 0 {
		conditions = append(conditions, "p.price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conditions = append(conditions, "p.price <= "+arg(f.MaxPrice))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conditions = append(conditions,
			"(p.name ILIKE "+arg(pattern)+" OR p.description ILIKE "+arg(pattern)+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY " + productSortClause(f.SortBy, f.SortOrder)

	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// productSortClause whitelists sort keys so filter input never reaches SQL
// verbatim.
func productSortClause(sortBy, sortOrder string) string {
	col := "p.created_at"
	switch sortBy {
	case "name":
		col = "p.name"
	case "price":
		col = "p.price"
	case "rating":
		col = "COALESCE(r.avg_rating, 0)"
	}
	dir := "DESC"
	if sortOrder == "asc" {
		dir = "ASC"
	}
	return col + " " + dir
}

func (s *PostgresStore) ListSimilarProducts(ctx context.Context, productID, categoryID string, limit int) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products p `+productRatingJoin+`
		 WHERE p.is_active = true AND p.id <> $1 AND p.category_id = $2
		 ORDER BY p.created_at DESC LIMIT $3`,
		productID, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("list similar products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) SearchProductNames(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM products WHERE is_active = true AND name ILIKE $1 ORDER BY name LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search product names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, icon_url, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IconURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, icon_url, created_at, updated_at FROM categories WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Description, &c.IconURL, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListBanners(ctx context.Context) ([]model.Banner, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, subtitle, image_url, link_url, is_active, sort_order, created_at
		 FROM banners WHERE is_active = true ORDER BY sort_order, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()

	var banners []model.Banner
	for rows.Next() {
		var b model.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageURL, &b.LinkURL, &b.IsActive, &b.SortOrder, &b.CreatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

func (s *PostgresStore) ListReviews(ctx context.Context, productID string) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rv.id, rv.user_id, rv.product_id, rv.rating, rv.review, rv.created_at, u.name
		 FROM reviews rv JOIN users u ON u.id = rv.user_id
		 WHERE rv.product_id = $1 ORDER BY rv.created_at DESC`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Rating, &r.Review, &r.CreatedAt, &r.ReviewerName); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *PostgresStore) CreateReview(ctx context.Context, r *model.Review) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, product_id, rating, review, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.UserID, r.ProductID, r.Rating, r.Review, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}
