package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/infrastructure/store/mocks"
	"github.com/example/quickbasket/internal/model"
)

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(_ context.Context, _ string, e any) error {
	f.events = append(f.events, e)
	return nil
}

func newTestEnv() (*Service, *mocks.MemoryStore, *fakePublisher) {
	ms := mocks.NewMemoryStore()
	pub := &fakePublisher{}

	ms.SeedUser(model.User{ID: "user-1", Email: "user1@example.com", Name: "Asha"})
	ms.SeedProduct(model.Product{
		ID: "prod-a", Name: "Basmati Rice", Price: 100, Inventory: 10, IsActive: true,
	})
	ms.SeedProduct(model.Product{
		ID: "prod-b", Name: "Ghee", Price: 300, Inventory: 5, IsActive: true,
	})
	_ = ms.CreateAddress(context.Background(), &model.Address{
		ID: "addr-1", UserID: "user-1", AddressLine1: "12 MG Road", City: "Bengaluru",
		State: "KA", ZipCode: "560001", Country: "India",
	})

	return NewService(ms, pub), ms, pub
}

func fillCart(t *testing.T, ms *mocks.MemoryStore, userID, productID string, price, qty int) {
	t.Helper()
	ctx := context.Background()

	c, err := ms.GetLiveCart(ctx, userID, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		c = &model.Cart{
			ID:        uuid.New().String(),
			UserID:    userID,
			ExpiresAt: time.Now().Add(24 * time.Hour),
			CreatedAt: time.Now(),
		}
		require.NoError(t, ms.CreateCart(ctx, c))
	} else {
		require.NoError(t, err)
	}

	_, err = ms.UpsertCartItem(ctx, &model.CartItem{
		ID:            uuid.New().String(),
		CartID:        c.ID,
		ProductID:     productID,
		Quantity:      qty,
		PriceSnapshot: price,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
}

// ----- placing orders -----

func TestPlaceOrder_Success(t *testing.T) {
	svc, ms, pub := newTestEnv()
	ctx := context.Background()
	fillCart(t, ms, "user-1", "prod-a", 100, 2)
	fillCart(t, ms, "user-1", "prod-b", 300, 1)

	order, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderInput{AddressID: "addr-1"})

	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, 500, order.Metadata.Subtotal)
	assert.Equal(t, 0, order.DeliveryFee)
	assert.Equal(t, 500, order.TotalAmount)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.AddressSnapshot)
	assert.WithinDuration(t, time.Now().Add(EstimatedDeliveryWindow), order.EstimatedDelivery, 2*time.Second)

	// Inventory decremented.
	assert.Equal(t, 8, ms.ProductInventory("prod-a"))
	assert.Equal(t, 4, ms.ProductInventory("prod-b"))

	// Cart cleared.
	cart, err := ms.GetLiveCart(ctx, "user-1", time.Now())
	require.NoError(t, err)
	items, err := ms.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Exactly one notification row.
	notifications, err := ms.ListNotifications(ctx, "user-1", store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Order Placed Successfully", notifications[0].Title)
	assert.Contains(t, notifications[0].Message, "delivered in 30 minutes")

	// Event published.
	assert.Len(t, pub.events, 1)
}

func TestPlaceOrder_PromoCode(t *testing.T) {
	svc, ms, _ := newTestEnv()
	fillCart(t, ms, "user-1", "prod-a", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{
		AddressID: "addr-1",
		PromoCode: "FIRST10",
	})

	require.NoError(t, err)
	assert.Equal(t, 1000, order.Metadata.Subtotal)
	assert.Equal(t, 100, order.Metadata.Discount)
	assert.Equal(t, "FIRST10", order.Metadata.PromoCode)
	assert.Equal(t, 900, order.TotalAmount)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _, _ := newTestEnv()

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{AddressID: "addr-1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_AddressMustBelongToUser(t *testing.T) {
	svc, ms, _ := newTestEnv()
	fillCart(t, ms, "user-1", "prod-a", 100, 1)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{AddressID: "addr-unknown"})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestPlaceOrder_InsufficientInventory(t *testing.T) {
	svc, ms, pub := newTestEnv()
	ctx := context.Background()
	fillCart(t, ms, "user-1", "prod-b", 300, 6) // only 5 in stock

	_, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderInput{AddressID: "addr-1"})

	var invErr *store.InsufficientInventoryError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "prod-b", invErr.ProductID)
	assert.Equal(t, 6, invErr.Requested)

	// Nothing written: inventory untouched, cart intact, no orders or
	// notifications.
	assert.Equal(t, 5, ms.ProductInventory("prod-b"))
	cart, err := ms.GetLiveCart(ctx, "user-1", time.Now())
	require.NoError(t, err)
	items, err := ms.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	orders, err := ms.ListOrders(ctx, "user-1", store.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	notifications, err := ms.ListNotifications(ctx, "user-1", store.NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, notifications)
	assert.Empty(t, pub.events)
}

// ----- cancellation -----

func placeTestOrder(t *testing.T, svc *Service, ms *mocks.MemoryStore) *model.Order {
	t.Helper()
	fillCart(t, ms, "user-1", "prod-a", 100, 1)
	order, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderInput{AddressID: "addr-1"})
	require.NoError(t, err)
	return order
}

func TestCancelOrder_WhilePending(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)

	cancelled, err := svc.CancelOrder(context.Background(), "user-1", order.ID)

	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, cancelled.Status)
}

func TestCancelOrder_AfterShippingFails(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, order.ID, model.OrderProcessing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, model.OrderShipped)
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, "user-1", order.ID)
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestCancelOrder_OtherUsersOrder(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)

	_, err := svc.CancelOrder(context.Background(), "user-2", order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ----- status transitions -----

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)
	ctx := context.Background()

	for _, next := range []model.OrderStatus{
		model.OrderProcessing, model.OrderShipped, model.OrderDelivered,
	} {
		updated, err := svc.UpdateStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	final, err := svc.GetOrder(ctx, "user-1", order.ID)
	require.NoError(t, err)
	require.NotNil(t, final.DeliveredAt)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)

	_, err := svc.UpdateStatus(context.Background(), order.ID, model.OrderDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_EmitsStatusNotification(t *testing.T) {
	svc, ms, _ := newTestEnv()
	order := placeTestOrder(t, svc, ms)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, order.ID, model.OrderProcessing)
	require.NoError(t, err)

	notifications, err := ms.ListNotifications(ctx, "user-1", store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, notifications, 2) // placed + processing
	assert.Equal(t, "Your order is being prepared", notifications[0].Message)
}

// ----- listings and stats -----

func TestListOrders_NewestFirstWithItems(t *testing.T) {
	svc, ms, _ := newTestEnv()
	ctx := context.Background()
	placeTestOrder(t, svc, ms)
	placeTestOrder(t, svc, ms)

	orders, err := svc.ListOrders(ctx, "user-1", store.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.NotEmpty(t, o.Items)
	}
}

func TestOrderStats(t *testing.T) {
	svc, ms, _ := newTestEnv()
	ctx := context.Background()

	first := placeTestOrder(t, svc, ms)
	placeTestOrder(t, svc, ms)

	_, err := svc.CancelOrder(ctx, "user-1", first.ID)
	require.NoError(t, err)

	stats, err := svc.OrderStats(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 150, stats.TotalSpent) // one live order: 100 + 50 delivery
	assert.Equal(t, 1, stats.ByStatus[model.OrderCancelled])
	assert.Equal(t, 1, stats.ByStatus[model.OrderPending])
}
