package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/infrastructure/store/mocks"
	"github.com/example/quickbasket/internal/model"
)

func newTestService() (*Service, *mocks.MemoryStore) {
	ms := mocks.NewMemoryStore()
	ms.SeedCategory(model.Category{ID: "cat-fruit", Name: "Fruits"})
	ms.SeedCategory(model.Category{ID: "cat-dairy", Name: "Dairy"})

	ms.SeedProduct(model.Product{
		ID: "prod-apple", Name: "Apple", Description: "Fresh red apples",
		Price: 120, Inventory: 50, CategoryID: "cat-fruit", IsActive: true,
		CreatedAt: time.Now().Add(-3 * time.Hour),
	})
	ms.SeedProduct(model.Product{
		ID: "prod-pineapple", Name: "Pineapple", Description: "Sweet and tangy",
		Price: 90, Inventory: 20, CategoryID: "cat-fruit", IsActive: true,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	ms.SeedProduct(model.Product{
		ID: "prod-juice", Name: "Orange Juice", Description: "Made from apple and orange blend",
		Price: 150, Inventory: 30, CategoryID: "cat-dairy", IsActive: true,
		CreatedAt: time.Now().Add(-1 * time.Hour),
	})
	ms.SeedProduct(model.Product{
		ID: "prod-hidden", Name: "Apple Cider", Description: "Seasonal",
		Price: 200, Inventory: 5, CategoryID: "cat-fruit", IsActive: false,
		CreatedAt: time.Now(),
	})
	return NewService(ms), ms
}

// ----- search -----

func TestSearch_RelevanceScoring(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "apple"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// "Apple": name contains (+10) and prefix (+5) = 15.
	assert.Equal(t, "prod-apple", results[0].Product.ID)
	assert.Equal(t, 15, results[0].Relevance)

	// "Pineapple": name contains only = 10.
	assert.Equal(t, "prod-pineapple", results[1].Product.ID)
	assert.Equal(t, 10, results[1].Relevance)

	// "Orange Juice": description match only = 3.
	assert.Equal(t, "prod-juice", results[2].Product.ID)
	assert.Equal(t, 3, results[2].Relevance)
}

func TestSearch_ExcludesInactive(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "cider"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "APPLE"})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Search(context.Background(), SearchQuery{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_PriceSort(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "apple", SortBy: "price_asc"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "prod-pineapple", results[0].Product.ID)
	assert.Equal(t, "prod-juice", results[2].Product.ID)
}

func TestSearch_CategoryFilter(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "apple", CategoryID: "cat-fruit"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_Limit(t *testing.T) {
	svc, _ := newTestService()

	results, err := svc.Search(context.Background(), SearchQuery{Query: "apple", Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "prod-apple", results[0].Product.ID)
}

// ----- suggestions and similar -----

func TestSuggestions(t *testing.T) {
	svc, _ := newTestService()

	names, err := svc.Suggestions(context.Background(), "apple", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Apple", "Pineapple"}, names)
}

func TestSuggestions_EmptyQuery(t *testing.T) {
	svc, _ := newTestService()

	names, err := svc.Suggestions(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSimilarProducts(t *testing.T) {
	svc, _ := newTestService()

	products, err := svc.SimilarProducts(context.Background(), "prod-apple", 8)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "prod-pineapple", products[0].ID)
}

func TestSimilarProducts_UnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SimilarProducts(context.Background(), "no-such-product", 8)
	assert.ErrorIs(t, err, ErrProductUnknown)
}

// ----- reviews and ratings -----

func TestAddReview_AggregatesIntoRating(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddReview(ctx, "user-1", "prod-apple", 5, "great")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, "user-2", "prod-apple", 4, "")
	require.NoError(t, err)

	p, err := svc.GetProduct(ctx, "prod-apple")
	require.NoError(t, err)
	assert.Equal(t, 4.5, p.AverageRating)
	assert.Equal(t, 2, p.ReviewCount)
}

func TestAddReview_RoundsToOneDecimal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i, rating := range []int{5, 4, 4} {
		_, err := svc.AddReview(ctx, "user-"+string(rune('a'+i)), "prod-apple", rating, "")
		require.NoError(t, err)
	}

	p, err := svc.GetProduct(ctx, "prod-apple")
	require.NoError(t, err)
	assert.Equal(t, 4.3, p.AverageRating)
}

func TestAddReview_InvalidRating(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddReview(ctx, "user-1", "prod-apple", 0, "")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.AddReview(ctx, "user-1", "prod-apple", 6, "")
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestAddReview_UnknownProduct(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddReview(context.Background(), "user-1", "nope", 4, "")
	assert.ErrorIs(t, err, ErrProductUnknown)
}

// ----- listings -----

func TestListProducts_OnlyActive(t *testing.T) {
	svc, _ := newTestService()

	products, err := svc.ListProducts(context.Background(), store.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 3)
	for _, p := range products {
		assert.True(t, p.IsActive)
	}
}

func TestFeaturedProducts_SortedByRating(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddReview(ctx, "user-1", "prod-juice", 5, "")
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, "user-1", "prod-apple", 3, "")
	require.NoError(t, err)

	products, err := svc.FeaturedProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-juice", products[0].ID)
}

func TestCategories(t *testing.T) {
	svc, _ := newTestService()

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}
