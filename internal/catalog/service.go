package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

var (
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyQuery     = errors.New("search query is required")
	ErrProductUnknown = errors.New("product not found")
)

const (
	defaultSearchLimit     = 50
	defaultSuggestionLimit = 10
	defaultSimilarLimit    = 8
)

type Service struct {
	store store.CatalogStore
}

func NewService(s store.CatalogStore) *Service {
	return &Service{store: s}
}

func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductUnknown
		}
		return nil, err
	}
	return p, nil
}

// ListProducts serves the public product listing: only active products.
func (s *Service) ListProducts(ctx context.Context, f store.ProductFilter) ([]model.Product, error) {
	f.ActiveOnly = true
	return s.store.ListProducts(ctx, f)
}

// SearchQuery narrows Search. SortBy accepts relevance (default), price_asc,
// price_desc, rating and name.
type SearchQuery struct {
	Query      string
	CategoryID string
	MinPrice   int
	MaxPrice   int
	SortBy     string
	Limit      int
}

// SearchResult pairs a product with its relevance score.
type SearchResult struct {
	Product   model.Product `json:"product"`
	Relevance int           `json:"relevance"`
}

// Search matches the query against name and description and ranks hits:
// a name containing the query scores 10, a name starting with it 5 more,
// a description match 3.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultSearchLimit
	}

	products, err := s.store.ListProducts(ctx, store.ProductFilter{
		CategoryID: q.CategoryID,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		Search:     query,
		ActiveOnly: true,
	})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(products))
	for _, p := range products {
		results = append(results, SearchResult{Product: p, Relevance: relevance(p, query)})
	}
	sortResults(results, q.SortBy)

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func relevance(p model.Product, query string) int {
	q := strings.ToLower(query)
	name := strings.ToLower(p.Name)
	desc := strings.ToLower(p.Description)

	score := 0
	if strings.Contains(name, q) {
		score += 10
	}
	if strings.HasPrefix(name, q) {
		score += 5
	}
	if strings.Contains(desc, q) {
		score += 3
	}
	return score
}

func sortResults(results []SearchResult, sortBy string) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch sortBy {
		case "price_asc":
			return a.Product.Price < b.Product.Price
		case "price_desc":
			return a.Product.Price > b.Product.Price
		case "rating":
			return a.Product.AverageRating > b.Product.AverageRating
		case "name":
			return a.Product.Name < b.Product.Name
		default:
			return a.Relevance > b.Relevance
		}
	})
}

// Suggestions returns product names matching a partial query, for search
// autocompletion.
func (s *Service) Suggestions(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	return s.store.SearchProductNames(ctx, query, limit)
}

// SimilarProducts returns other active products from the same category.
func (s *Service) SimilarProducts(ctx context.Context, productID string, limit int) ([]model.Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.CategoryID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	return s.store.ListSimilarProducts(ctx, productID, p.CategoryID, limit)
}

// FeaturedProducts returns the highest rated active products for the
// storefront landing page.
func (s *Service) FeaturedProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	return s.store.ListProducts(ctx, store.ProductFilter{
		ActiveOnly: true,
		SortBy:     "rating",
		SortOrder:  "desc",
		Limit:      limit,
	})
}

func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) Banners(ctx context.Context) ([]model.Banner, error) {
	return s.store.ListBanners(ctx)
}

func (s *Service) Reviews(ctx context.Context, productID string) ([]model.Review, error) {
	return s.store.ListReviews(ctx, productID)
}

// AddReview stores a rating with an optional text review. Product ratings
// are derived from these rows at query time.
func (s *Service) AddReview(ctx context.Context, userID, productID string, rating int, text string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	r := &model.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Review:    text,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
