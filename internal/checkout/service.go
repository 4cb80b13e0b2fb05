package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/event"
	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

// EstimatedDeliveryWindow is the delivery SLA promised at checkout.
const EstimatedDeliveryWindow = 30 * time.Minute

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrAddressNotFound   = errors.New("address not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrCannotCancel      = errors.New("order can only be cancelled while pending")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// validTransitions is the order lifecycle. Cancellation from pending is
// user-driven; the rest are admin-driven.
var validTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderPending:    {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing: {model.OrderShipped},
	model.OrderShipped:    {model.OrderDelivered},
}

// statusMessages are the per-status notification templates.
var statusMessages = map[model.OrderStatus]string{
	model.OrderPending:    "Your order is being processed",
	model.OrderProcessing: "Your order is being prepared",
	model.OrderShipped:    "Your order is on the way",
	model.OrderDelivered:  "Your order has been delivered",
	model.OrderCancelled:  "Your order has been cancelled",
}

// Publisher is the event sink; satisfied by the Kafka producer. A nil
// Publisher disables event fan-out.
type Publisher interface {
	Publish(ctx context.Context, key string, e any) error
}

// Service runs the cart-to-order transition and the order lifecycle.
type Service struct {
	carts         store.CartStore
	orders        store.OrderStore
	accounts      store.AccountStore
	notifications store.NotificationStore
	publisher     Publisher
}

func NewService(s store.Store, publisher Publisher) *Service {
	return &Service{
		carts:         s,
		orders:        s,
		accounts:      s,
		notifications: s,
		publisher:     publisher,
	}
}

// PlaceOrderInput is the checkout request.
type PlaceOrderInput struct {
	AddressID            string `json:"address_id"`
	DeliveryInstructions string `json:"delivery_instructions,omitempty"`
	PromoCode            string `json:"promo_code,omitempty"`
}

// PlaceOrder converts the user's cart into an order. The order row, its
// items, the inventory decrements, the cart clear and the order notification
// commit as one transaction; any failure leaves everything untouched.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*model.Order, error) {
	now := time.Now()

	cart, err := s.carts.GetLiveCart(ctx, userID, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	items, err := s.carts.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	address, err := s.accounts.GetAddress(ctx, userID, in.AddressID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	addressSnapshot, err := json.Marshal(address)
	if err != nil {
		return nil, fmt.Errorf("snapshot address: %w", err)
	}

	// The availability check happens inside the transaction via conditional
	// decrements; a shortfall surfaces as *store.InsufficientInventoryError
	// and nothing is written.
	pricing := ComputePricing(items, in.PromoCode)

	order := &model.Order{
		ID:                   uuid.New().String(),
		UserID:               userID,
		Status:               model.OrderPending,
		PaymentStatus:        model.PaymentPending,
		TotalAmount:          pricing.Total,
		DeliveryFee:          pricing.DeliveryFee,
		AddressSnapshot:      addressSnapshot,
		DeliveryInstructions: in.DeliveryInstructions,
		Metadata: model.OrderMetadata{
			Subtotal:  pricing.Subtotal,
			Discount:  pricing.Discount,
			PromoCode: pricing.PromoCode,
		},
		EstimatedDelivery: now.Add(EstimatedDeliveryWindow),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	orderItems := make([]model.OrderItem, len(items))
	for i, it := range items {
		orderItems[i] = model.OrderItem{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceSnapshot:   it.PriceSnapshot,
			Variant:         it.Variant,
			CreatedAt:       now,
			ProductName:     it.ProductName,
			ProductImageURL: it.ProductImageURL,
		}
	}

	notification := &model.Notification{
		ID:      uuid.New().String(),
		UserID:  userID,
		Type:    model.NotificationOrderUpdate,
		Title:   "Order Placed Successfully",
		Message: fmt.Sprintf("Your order #%s has been placed and will be delivered in 30 minutes.", shortOrderID(order.ID)),
		Metadata: map[string]any{
			"order_id": order.ID,
		},
		CreatedAt: now,
	}

	if err := s.orders.CreateOrder(ctx, order, orderItems, cart.ID, notification); err != nil {
		return nil, err
	}
	order.Items = orderItems

	s.publish(ctx, order.ID, event.NewOrderPlaced(order, orderItems))
	log.Printf("[Checkout] Order %s placed by user %s, total %d", order.ID, userID, order.TotalAmount)
	return order, nil
}

// GetOrder returns an order with its items, scoped to the owning user.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.orders.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrders returns the user's orders, newest first, with items attached.
func (s *Service) ListOrders(ctx context.Context, userID string, f store.OrderFilter) ([]model.Order, error) {
	orders, err := s.orders.ListOrders(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.orders.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// CancelOrder cancels the user's own order while it is still pending. The
// pending guard runs in the store so a concurrent transition cannot slip
// through.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	ok, err := s.orders.UpdateOrderStatus(ctx, orderID, model.OrderPending, model.OrderCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCannotCancel
	}

	s.emitStatusNotification(ctx, order, model.OrderCancelled)
	s.publish(ctx, order.ID, event.NewOrderStatusChanged(order, order.Status, model.OrderCancelled))

	return s.GetOrder(ctx, userID, orderID)
}

// UpdateStatus applies an admin-driven lifecycle transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to model.OrderStatus) (*model.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !transitionAllowed(order.Status, to) {
		return nil, ErrInvalidTransition
	}

	var deliveredAt *time.Time
	if to == model.OrderDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	ok, err := s.orders.UpdateOrderStatus(ctx, orderID, order.Status, to, deliveredAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The order moved under us; the retried read reports the conflict.
		return nil, ErrInvalidTransition
	}

	s.emitStatusNotification(ctx, order, to)
	s.publish(ctx, order.ID, event.NewOrderStatusChanged(order, order.Status, to))

	return s.orders.GetOrder(ctx, orderID)
}

func transitionAllowed(from, to model.OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Stats summarizes a user's order history.
type Stats struct {
	TotalOrders int                       `json:"total_orders"`
	TotalSpent  int                       `json:"total_spent"`
	ByStatus    map[model.OrderStatus]int `json:"by_status"`
}

// OrderStats aggregates across all of the user's orders. Cancelled orders
// count toward TotalOrders but not TotalSpent.
func (s *Service) OrderStats(ctx context.Context, userID string) (*Stats, error) {
	orders, err := s.orders.ListOrders(ctx, userID, store.OrderFilter{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByStatus: make(map[model.OrderStatus]int)}
	for _, o := range orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.Status != model.OrderCancelled {
			stats.TotalSpent += o.TotalAmount
		}
	}
	return stats, nil
}

func (s *Service) ownedOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// emitStatusNotification writes the per-status notification row. Advisory:
// a failure is logged, never propagated.
func (s *Service) emitStatusNotification(ctx context.Context, order *model.Order, to model.OrderStatus) {
	n := &model.Notification{
		ID:      uuid.New().String(),
		UserID:  order.UserID,
		Type:    model.NotificationOrderUpdate,
		Title:   fmt.Sprintf("Order %s", to),
		Message: statusMessages[to],
		Metadata: map[string]any{
			"order_id": order.ID,
			"status":   string(to),
		},
		CreatedAt: time.Now(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.Printf("[Checkout] Failed to write status notification for order %s: %v", order.ID, err)
	}
}

func (s *Service) publish(ctx context.Context, key string, e any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, e); err != nil {
		log.Printf("[Checkout] Failed to publish event for %s: %v", key, err)
	}
}

func shortOrderID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[len(orderID)-8:]
	}
	return orderID
}
