package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

// Carts expire a week after creation; an expired cart is simply abandoned and
// a fresh one is created on the next access.
const cartTTL = 7 * 24 * time.Hour

var (
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductUnavailable = errors.New("product is not available")
	ErrItemNotFound       = errors.New("cart item not found")
)

// View is a cart with its lines and derived totals. Totals are always
// recomputed from the lines, never stored.
type View struct {
	Cart      model.Cart       `json:"cart"`
	Items     []model.CartItem `json:"items"`
	Subtotal  int              `json:"subtotal"`
	ItemCount int              `json:"item_count"`
}

type Service struct {
	carts   store.CartStore
	catalog store.CatalogStore
}

func NewService(carts store.CartStore, catalog store.CatalogStore) *Service {
	return &Service{carts: carts, catalog: catalog}
}

// ensureCart returns the user's live cart, creating one when none exists or
// the last one expired.
func (s *Service) ensureCart(ctx context.Context, userID string) (*model.Cart, error) {
	now := time.Now()
	c, err := s.carts.GetLiveCart(ctx, userID, now)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	c = &model.Cart{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(cartTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.CreateCart(ctx, c); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// GetCart returns the user's cart view, creating an empty cart lazily.
func (s *Service) GetCart(ctx context.Context, userID string) (*View, error) {
	c, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.ListCartItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return buildView(c, items), nil
}

func buildView(c *model.Cart, items []model.CartItem) *View {
	v := &View{Cart: *c, Items: items}
	for _, it := range items {
		v.Subtotal += it.PriceSnapshot * it.Quantity
		v.ItemCount += it.Quantity
	}
	return v
}

// AddItem puts a product into the cart, capturing the current price as the
// line's snapshot. Adding the same (product, variant) again merges into the
// existing line and keeps its original snapshot.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int, variant string) (*model.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrProductUnavailable
	}

	c, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.carts.UpsertCartItem(ctx, &model.CartItem{
		ID:            uuid.New().String(),
		CartID:        c.ID,
		ProductID:     productID,
		Quantity:      quantity,
		PriceSnapshot: p.Price,
		Variant:       variant,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return nil, err
	}

	item.ProductName = p.Name
	item.ProductImageURL = p.ImageURL
	item.ProductInventory = p.Inventory
	return item, nil
}

// UpdateItemQuantity sets a line's quantity. Zero or negative removes the
// line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	if quantity <= 0 {
		return s.carts.DeleteCartItem(ctx, itemID)
	}
	return s.carts.UpdateCartItemQuantity(ctx, itemID, quantity)
}

// RemoveItem deletes a line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.carts.DeleteCartItem(ctx, itemID)
}

// ClearCart removes every line from the user's live cart.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	c, err := s.carts.GetLiveCart(ctx, userID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.carts.DeleteCartItems(ctx, c.ID)
}

// ownedItem checks the line belongs to the user's live cart.
func (s *Service) ownedItem(ctx context.Context, userID, itemID string) (*model.CartItem, error) {
	item, err := s.carts.GetCartItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	c, err := s.carts.GetLiveCart(ctx, userID, time.Now())
	if err != nil || c.ID != item.CartID {
		return nil, ErrItemNotFound
	}
	return item, nil
}
