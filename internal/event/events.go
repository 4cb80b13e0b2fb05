package event

import (
	"time"

	"github.com/example/quickbasket/internal/model"
)

// Topic names. Orders and notifications flow through separate topics so the
// notifier can consume them with independent group offsets.
const (
	TopicOrders        = "quickbasket.orders"
	TopicNotifications = "quickbasket.notifications"
)

// Event kinds carried in the envelope.
const (
	KindOrderPlaced         = "order.placed"
	KindOrderStatusChanged  = "order.status_changed"
	KindNotificationCreated = "notification.created"
)

// Envelope wraps every published event. Payload is one of the structs below,
// selected by Kind.
type Envelope struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`

	OrderPlaced         *OrderPlaced         `json:"order_placed,omitempty"`
	OrderStatusChanged  *OrderStatusChanged  `json:"order_status_changed,omitempty"`
	NotificationCreated *NotificationCreated `json:"notification_created,omitempty"`
}

// OrderPlaced is published after the order transaction commits.
type OrderPlaced struct {
	OrderID           string            `json:"order_id"`
	UserID            string            `json:"user_id"`
	TotalAmount       int               `json:"total_amount"`
	DeliveryFee       int               `json:"delivery_fee"`
	EstimatedDelivery time.Time         `json:"estimated_delivery"`
	Items             []model.OrderItem `json:"items"`
}

type OrderStatusChanged struct {
	OrderID string            `json:"order_id"`
	UserID  string            `json:"user_id"`
	From    model.OrderStatus `json:"from"`
	To      model.OrderStatus `json:"to"`
}

type NotificationCreated struct {
	NotificationID string                 `json:"notification_id"`
	UserID         string                 `json:"user_id"`
	Type           model.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
}

func NewOrderPlaced(o *model.Order, items []model.OrderItem) Envelope {
	return Envelope{
		Kind:       KindOrderPlaced,
		OccurredAt: time.Now(),
		OrderPlaced: &OrderPlaced{
			OrderID:           o.ID,
			UserID:            o.UserID,
			TotalAmount:       o.TotalAmount,
			DeliveryFee:       o.DeliveryFee,
			EstimatedDelivery: o.EstimatedDelivery,
			Items:             items,
		},
	}
}

func NewOrderStatusChanged(o *model.Order, from, to model.OrderStatus) Envelope {
	return Envelope{
		Kind:       KindOrderStatusChanged,
		OccurredAt: time.Now(),
		OrderStatusChanged: &OrderStatusChanged{
			OrderID: o.ID,
			UserID:  o.UserID,
			From:    from,
			To:      to,
		},
	}
}

func NewNotificationCreated(n *model.Notification) Envelope {
	return Envelope{
		Kind:       KindNotificationCreated,
		OccurredAt: time.Now(),
		NotificationCreated: &NotificationCreated{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           n.Type,
			Title:          n.Title,
			Message:        n.Message,
		},
	}
}
