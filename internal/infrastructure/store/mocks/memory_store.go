package mocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

// MemoryStore is an in-memory store.Store used by tests. It mirrors the
// Postgres semantics that services depend on: query-time rating aggregation,
// cart line merging on (cart, product, variant), the all-or-nothing order
// transaction and the from-status guard on transitions.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[string]*model.User
	categories    map[string]*model.Category
	products      map[string]*model.Product
	banners       []model.Banner
	reviews       []model.Review
	addresses     map[string]*model.Address
	carts         map[string]*model.Cart
	cartItems     map[string]*model.CartItem
	orders        map[string]*model.Order
	orderItems    map[string][]model.OrderItem
	wishlist      map[string]*model.WishlistEntry
	notifications map[string]*model.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*model.User),
		categories:    make(map[string]*model.Category),
		products:      make(map[string]*model.Product),
		addresses:     make(map[string]*model.Address),
		carts:         make(map[string]*model.Cart),
		cartItems:     make(map[string]*model.CartItem),
		orders:        make(map[string]*model.Order),
		orderItems:    make(map[string][]model.OrderItem),
		wishlist:      make(map[string]*model.WishlistEntry),
		notifications: make(map[string]*model.Notification),
	}
}

// Seed helpers for tests.

func (m *MemoryStore) SeedCategory(c model.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = &c
}

func (m *MemoryStore) SeedProduct(p model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = &p
}

func (m *MemoryStore) SeedBanner(b model.Banner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = append(m.banners, b)
}

func (m *MemoryStore) SeedUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

// ProductInventory reports current stock, for asserting decrement effects.
func (m *MemoryStore) ProductInventory(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.products[id]; ok {
		return p.Inventory
	}
	return 0
}

// Catalog

func (m *MemoryStore) ratingLocked(productID string) (float64, int) {
	var sum, count int
	for _, r := range m.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	avg := float64(sum) / float64(count)
	return math.Round(avg*10) / 10, count
}

func (m *MemoryStore) productViewLocked(p *model.Product) model.Product {
	out := *p
	out.AverageRating, out.ReviewCount = m.ratingLocked(p.ID)
	return out
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := m.productViewLocked(p)
	return &out, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *MemoryStore) ListProducts(_ context.Context, f store.ProductFilter) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []model.Product
	for _, p := range m.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
			continue
		}
		products = append(products, m.productViewLocked(p))
	}

	asc := f.SortOrder == "asc"
	sort.Slice(products, func(i, j int) bool {
		var less bool
		switch f.SortBy {
		case "name":
			less = products[i].Name < products[j].Name
		case "price":
			less = products[i].Price < products[j].Price
		case "rating":
			less = products[i].AverageRating < products[j].AverageRating
		default:
			less = products[i].CreatedAt.Before(products[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	if f.Offset > 0 {
		if f.Offset >= len(products) {
			return nil, nil
		}
		products = products[f.Offset:]
	}
	if f.Limit > 0 && len(products) > f.Limit {
		products = products[:f.Limit]
	}
	return products, nil
}

func (m *MemoryStore) ListSimilarProducts(_ context.Context, productID, categoryID string, limit int) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var products []model.Product
	for _, p := range m.products {
		if !p.IsActive || p.ID == productID || p.CategoryID != categoryID {
			continue
		}
		products = append(products, m.productViewLocked(p))
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *MemoryStore) SearchProductNames(_ context.Context, query string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, p := range m.products {
		if p.IsActive && containsFold(p.Name, query) {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var categories []model.Category
	for _, c := range m.categories {
		categories = append(categories, *c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id string) (*model.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *MemoryStore) ListBanners(_ context.Context) ([]model.Banner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var banners []model.Banner
	for _, b := range m.banners {
		if b.IsActive {
			banners = append(banners, b)
		}
	}
	sort.Slice(banners, func(i, j int) bool { return banners[i].SortOrder < banners[j].SortOrder })
	return banners, nil
}

func (m *MemoryStore) ListReviews(_ context.Context, productID string) ([]model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var reviews []model.Review
	for _, r := range m.reviews {
		if r.ProductID != productID {
			continue
		}
		if u, ok := m.users[r.UserID]; ok {
			r.ReviewerName = u.Name
		}
		reviews = append(reviews, r)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (m *MemoryStore) CreateReview(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, *r)
	return nil
}

// Cart

func (m *MemoryStore) GetLiveCart(_ context.Context, userID string, now time.Time) (*model.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.Cart
	for _, c := range m.carts {
		if c.UserID != userID || !c.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *MemoryStore) CreateCart(_ context.Context, c *model.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.carts[c.ID] = &cp
	return nil
}

func (m *MemoryStore) cartItemViewLocked(it *model.CartItem) model.CartItem {
	out := *it
	if p, ok := m.products[it.ProductID]; ok {
		out.ProductName = p.Name
		out.ProductImageURL = p.ImageURL
		out.ProductInventory = p.Inventory
	}
	return out
}

func (m *MemoryStore) ListCartItems(_ context.Context, cartID string) ([]model.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []model.CartItem
	for _, it := range m.cartItems {
		if it.CartID == cartID {
			items = append(items, m.cartItemViewLocked(it))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStore) GetCartItem(_ context.Context, itemID string) (*model.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.cartItems[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (m *MemoryStore) UpsertCartItem(_ context.Context, item *model.CartItem) (*model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range m.cartItems {
		if it.CartID == item.CartID && it.ProductID == item.ProductID && it.Variant == item.Variant {
			it.Quantity += item.Quantity
			out := *it
			return &out, nil
		}
	}
	cp := *item
	m.cartItems[item.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryStore) UpdateCartItemQuantity(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.cartItems[itemID]
	if !ok {
		return store.ErrNotFound
	}
	it.Quantity = quantity
	return nil
}

func (m *MemoryStore) DeleteCartItem(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cartItems[itemID]; !ok {
		return store.ErrNotFound
	}
	delete(m.cartItems, itemID)
	return nil
}

func (m *MemoryStore) DeleteCartItems(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.cartItems {
		if it.CartID == cartID {
			delete(m.cartItems, id)
		}
	}
	return nil
}

// Orders

func (m *MemoryStore) CreateOrder(_ context.Context, order *model.Order, items []model.OrderItem, cartID string, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check every decrement before applying any, so a failure leaves the
	// store untouched, same as a rolled-back transaction.
	for _, it := range items {
		p, ok := m.products[it.ProductID]
		if !ok || p.Inventory < it.Quantity {
			available := 0
			name := ""
			if ok {
				available = p.Inventory
				name = p.Name
			}
			return &store.InsufficientInventoryError{
				ProductID:   it.ProductID,
				ProductName: name,
				Requested:   it.Quantity,
				Available:   available,
			}
		}
	}

	for _, it := range items {
		m.products[it.ProductID].Inventory -= it.Quantity
	}

	cp := *order
	m.orders[order.ID] = &cp
	m.orderItems[order.ID] = append([]model.OrderItem(nil), items...)

	for id, it := range m.cartItems {
		if it.CartID == cartID {
			delete(m.cartItems, id)
		}
	}

	if n != nil {
		nc := *n
		m.notifications[n.ID] = &nc
	}
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *o
	return &out, nil
}

func (m *MemoryStore) ListOrders(_ context.Context, userID string, f store.OrderFilter) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		orders = append(orders, *o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(orders) {
			return nil, nil
		}
		orders = orders[f.Offset:]
	}
	if f.Limit > 0 && len(orders) > f.Limit {
		orders = orders[:f.Limit]
	}
	return orders, nil
}

func (m *MemoryStore) ListOrderItems(_ context.Context, orderID string) ([]model.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := append([]model.OrderItem(nil), m.orderItems[orderID]...)
	for i := range items {
		if p, ok := m.products[items[i].ProductID]; ok {
			items[i].ProductName = p.Name
			items[i].ProductImageURL = p.ImageURL
		}
	}
	return items, nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, from, to model.OrderStatus, deliveredAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.DeliveredAt = deliveredAt
	o.UpdatedAt = time.Now()
	return true, nil
}

// Accounts

func (m *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, id, name, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Name = name
	u.Phone = phone
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ListAddresses(_ context.Context, userID string) ([]model.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var addresses []model.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			addresses = append(addresses, *a)
		}
	}
	sort.Slice(addresses, func(i, j int) bool {
		if addresses[i].IsDefault != addresses[j].IsDefault {
			return addresses[i].IsDefault
		}
		return addresses[i].CreatedAt.After(addresses[j].CreatedAt)
	})
	return addresses, nil
}

func (m *MemoryStore) GetAddress(_ context.Context, userID, addressID string) (*model.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *MemoryStore) CreateAddress(_ context.Context, a *model.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.addresses[a.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateAddress(_ context.Context, a *model.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.addresses[a.ID]
	if !ok || existing.UserID != a.UserID {
		return store.ErrNotFound
	}
	cp := *a
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.addresses[a.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteAddress(_ context.Context, userID, addressID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[addressID]
	if !ok || a.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.addresses, addressID)
	return nil
}

func (m *MemoryStore) ClearDefaultAddress(_ context.Context, userID, exceptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addresses {
		if a.UserID == userID && a.ID != exceptID {
			a.IsDefault = false
		}
	}
	return nil
}

// Wishlist

func (m *MemoryStore) ListWishlist(_ context.Context, userID string) ([]model.WishlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []model.WishlistEntry
	for _, e := range m.wishlist {
		if e.UserID != userID {
			continue
		}
		out := *e
		if p, ok := m.products[e.ProductID]; ok {
			pv := m.productViewLocked(p)
			out.Product = &pv
		}
		entries = append(entries, out)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (m *MemoryStore) HasWishlistEntry(_ context.Context, userID, productID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) AddWishlistEntry(_ context.Context, e *model.WishlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.wishlist {
		if existing.UserID == e.UserID && existing.ProductID == e.ProductID {
			return nil
		}
	}
	cp := *e
	m.wishlist[e.ID] = &cp
	return nil
}

func (m *MemoryStore) RemoveWishlistEntry(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			delete(m.wishlist, id)
		}
	}
	return nil
}

// Notifications

func (m *MemoryStore) CreateNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, userID string, f store.NotificationFilter) ([]model.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var notifications []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		notifications = append(notifications, *n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(notifications) {
			return nil, nil
		}
		notifications = notifications[f.Offset:]
	}
	if f.Limit > 0 && len(notifications) > f.Limit {
		notifications = notifications[:f.Limit]
	}
	return notifications, nil
}

func (m *MemoryStore) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, userID, id string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	n.Read = true
	out := *n
	return &out, nil
}

func (m *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) DeleteNotification(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

var _ store.Store = (*MemoryStore)(nil)
