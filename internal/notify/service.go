package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/email"
	"github.com/example/quickbasket/internal/event"
	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
	"github.com/example/quickbasket/internal/sms"
)

var (
	ErrMissingFields = errors.New("user_id, title and message are required")
	ErrInvalidType   = errors.New("invalid notification type")
	ErrUserNotFound  = errors.New("user not found")
)

var validTypes = map[model.NotificationType]bool{
	model.NotificationOrderUpdate: true,
	model.NotificationPromotion:   true,
	model.NotificationSystem:      true,
	model.NotificationDelivery:    true,
}

// EmailSender is the slice of the email service this package uses.
type EmailSender interface {
	SendNotification(to, title, message string) error
}

// Publisher is the event sink; nil disables fan-out to Kafka.
type Publisher interface {
	Publish(ctx context.Context, key string, e any) error
}

// Service owns the notification log and its advisory email/SMS fan-out.
type Service struct {
	notifications store.NotificationStore
	accounts      store.AccountStore
	email         EmailSender
	sms           sms.Sender
	publisher     Publisher
}

func NewService(s store.Store, emailSender EmailSender, smsSender sms.Sender, publisher Publisher) *Service {
	return &Service{
		notifications: s,
		accounts:      s,
		email:         emailSender,
		sms:           smsSender,
		publisher:     publisher,
	}
}

// SendInput is the send-notification request.
type SendInput struct {
	UserID    string                 `json:"user_id"`
	Type      model.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
	SendEmail bool                   `json:"send_email,omitempty"`
	SendSMS   bool                   `json:"send_sms,omitempty"`
}

// SendResult reports the stored notification and which external channels
// actually delivered.
type SendResult struct {
	Notification *model.Notification `json:"notification"`
	EmailSent    bool                `json:"email_sent"`
	SMSSent      bool                `json:"sms_sent"`
}

// Send appends a notification row and optionally fans out to email and SMS.
// Fan-out is advisory: a delivery failure is reported in the result, never
// rolls back the row.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if in.UserID == "" || in.Title == "" || in.Message == "" {
		return nil, ErrMissingFields
	}
	if in.Type == "" {
		in.Type = model.NotificationSystem
	}
	if !validTypes[in.Type] {
		return nil, ErrInvalidType
	}

	user, err := s.accounts.GetUser(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		Metadata:  in.Metadata,
		CreatedAt: time.Now(),
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	result := &SendResult{Notification: n}

	if in.SendEmail && s.email != nil && user.Email != "" {
		if err := s.email.SendNotification(user.Email, in.Title, in.Message); err != nil {
			log.Printf("[Notify] Failed to email %s: %v", user.Email, err)
		} else {
			result.EmailSent = true
		}
	}
	if in.SendSMS && s.sms != nil && user.Phone != "" {
		if err := s.sms.Send(user.Phone, in.Message); err != nil {
			log.Printf("[Notify] Failed to SMS %s: %v", user.Phone, err)
		} else {
			result.SMSSent = true
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n.UserID, event.NewNotificationCreated(n)); err != nil {
			log.Printf("[Notify] Failed to publish notification event: %v", err)
		}
	}

	return result, nil
}

func (s *Service) List(ctx context.Context, userID string, f store.NotificationFilter) ([]model.Notification, error) {
	return s.notifications.ListNotifications(ctx, userID, f)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnreadNotifications(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (*model.Notification, error) {
	return s.notifications.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	return s.notifications.DeleteNotification(ctx, userID, notificationID)
}

// OrderEmailItems converts order items to their email representation.
func OrderEmailItems(items []model.OrderItem) []email.OrderItem {
	out := make([]email.OrderItem, len(items))
	for i, it := range items {
		out[i] = email.OrderItem{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			Price:     it.PriceSnapshot,
		}
	}
	return out
}
