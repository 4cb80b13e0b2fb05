package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/quickbasket/internal/model"
)

// ErrNotFound is returned when a requested row does not exist (or does not
// belong to the scoping user).
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("already exists")

// InsufficientInventoryError names the product whose stock could not cover an
// ordered quantity.
type InsufficientInventoryError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientInventoryError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient inventory for %s", name)
}

// ProductFilter narrows ListProducts. Zero values mean "no constraint".
type ProductFilter struct {
	CategoryID string
	MinPrice   int
	MaxPrice   int
	Search     string // matched against name and description
	SortBy     string // name | price | created_at
	SortOrder  string // asc | desc
	Limit      int
	Offset     int
	ActiveOnly bool
}

// OrderFilter narrows ListOrders.
type OrderFilter struct {
	Status        model.OrderStatus
	PaymentStatus model.PaymentStatus
	Limit         int
	Offset        int
}

// NotificationFilter narrows ListNotifications.
type NotificationFilter struct {
	Type       model.NotificationType
	UnreadOnly bool
	Limit      int
	Offset     int
}

// CatalogStore is the read-mostly product/category/review/banner accessor.
// Product rating fields are aggregated from review rows at query time, never
// stored.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, error)
	ListSimilarProducts(ctx context.Context, productID, categoryID string, limit int) ([]model.Product, error)
	SearchProductNames(ctx context.Context, query string, limit int) ([]string, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListBanners(ctx context.Context) ([]model.Banner, error)
	ListReviews(ctx context.Context, productID string) ([]model.Review, error)
	CreateReview(ctx context.Context, r *model.Review) error
}

// CartStore owns carts and cart lines.
type CartStore interface {
	// GetLiveCart returns the user's unexpired cart or ErrNotFound.
	GetLiveCart(ctx context.Context, userID string, now time.Time) (*model.Cart, error)
	CreateCart(ctx context.Context, c *model.Cart) error
	ListCartItems(ctx context.Context, cartID string) ([]model.CartItem, error)
	GetCartItem(ctx context.Context, itemID string) (*model.CartItem, error)
	// UpsertCartItem inserts a line or, when a line with the same
	// (cart, product, variant) already exists, adds to its quantity. The
	// existing price snapshot wins on conflict.
	UpsertCartItem(ctx context.Context, item *model.CartItem) (*model.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteCartItem(ctx context.Context, itemID string) error
	DeleteCartItems(ctx context.Context, cartID string) error
}

// OrderStore persists orders. CreateOrder runs the whole order transition as
// one transaction: the order row, its item rows, the conditional inventory
// decrements, the cart-line delete and the order notification either all
// commit or none do. A decrement that would go negative aborts with
// *InsufficientInventoryError.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *model.Order, items []model.OrderItem, cartID string, n *model.Notification) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string, f OrderFilter) ([]model.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]model.OrderItem, error)
	// UpdateOrderStatus transitions an order only while its current status is
	// from, reporting whether a row was updated.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to model.OrderStatus, deliveredAt *time.Time) (bool, error)
}

// AccountStore covers users, addresses and wishlist membership.
type AccountStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	UpdateUserProfile(ctx context.Context, id, name, phone string) error

	ListAddresses(ctx context.Context, userID string) ([]model.Address, error)
	GetAddress(ctx context.Context, userID, addressID string) (*model.Address, error)
	CreateAddress(ctx context.Context, a *model.Address) error
	UpdateAddress(ctx context.Context, a *model.Address) error
	DeleteAddress(ctx context.Context, userID, addressID string) error
	// ClearDefaultAddress unsets is_default on all of the user's addresses
	// except the given one.
	ClearDefaultAddress(ctx context.Context, userID, exceptID string) error

	ListWishlist(ctx context.Context, userID string) ([]model.WishlistEntry, error)
	HasWishlistEntry(ctx context.Context, userID, productID string) (bool, error)
	AddWishlistEntry(ctx context.Context, e *model.WishlistEntry) error
	RemoveWishlistEntry(ctx context.Context, userID, productID string) error
}

// NotificationStore is the append-only notification log.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, f NotificationFilter) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (*model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

// Store is the full storage surface implemented by the Postgres store and by
// the in-memory mock.
type Store interface {
	CatalogStore
	CartStore
	OrderStore
	AccountStore
	NotificationStore
}
