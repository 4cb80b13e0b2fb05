package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quickbasket/internal/infrastructure/store/mocks"
	"github.com/example/quickbasket/internal/model"
)

func newTestService() *Service {
	ms := mocks.NewMemoryStore()
	ms.SeedProduct(model.Product{ID: "prod-1", Name: "Oats", Price: 90, IsActive: true})
	return NewService(ms, ms)
}

func TestToggle_AddsThenRemoves(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	added, err := svc.Toggle(ctx, "user-1", "prod-1")
	require.NoError(t, err)
	assert.True(t, added)

	contains, err := svc.Contains(ctx, "user-1", "prod-1")
	require.NoError(t, err)
	assert.True(t, contains)

	added, err = svc.Toggle(ctx, "user-1", "prod-1")
	require.NoError(t, err)
	assert.False(t, added)

	// Two toggles return to the original state.
	contains, err = svc.Contains(ctx, "user-1", "prod-1")
	require.NoError(t, err)
	assert.False(t, contains)
}

func TestToggle_UnknownProduct(t *testing.T) {
	svc := newTestService()

	_, err := svc.Toggle(context.Background(), "user-1", "nope")
	assert.ErrorIs(t, err, ErrProductUnknown)
}

func TestList_IncludesProduct(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "user-1", "prod-1")
	require.NoError(t, err)

	entries, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Product)
	assert.Equal(t, "Oats", entries[0].Product.Name)
}

func TestList_ScopedToUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "user-1", "prod-1")
	require.NoError(t, err)

	entries, err := svc.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
