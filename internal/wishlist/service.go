package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

var ErrProductUnknown = errors.New("product not found")

// Service manages (user, product) wishlist membership.
type Service struct {
	accounts store.AccountStore
	catalog  store.CatalogStore
}

func NewService(accounts store.AccountStore, catalog store.CatalogStore) *Service {
	return &Service{accounts: accounts, catalog: catalog}
}

func (s *Service) List(ctx context.Context, userID string) ([]model.WishlistEntry, error) {
	return s.accounts.ListWishlist(ctx, userID)
}

func (s *Service) Contains(ctx context.Context, userID, productID string) (bool, error) {
	return s.accounts.HasWishlistEntry(ctx, userID, productID)
}

// Toggle flips membership and reports the new state: true when the product
// was added, false when it was removed. Toggling twice restores the original
// state.
func (s *Service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrProductUnknown
		}
		return false, err
	}

	exists, err := s.accounts.HasWishlistEntry(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.accounts.RemoveWishlistEntry(ctx, userID, productID)
	}

	err = s.accounts.AddWishlistEntry(ctx, &model.WishlistEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		// A concurrent toggle beat us to it; membership is already true.
		if errors.Is(err, store.ErrDuplicate) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
