package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/quickbasket/internal/email"
	"github.com/example/quickbasket/internal/event"
	"github.com/example/quickbasket/internal/infrastructure/store"
)

// ConfirmationSender is the slice of the email service the handler uses.
type ConfirmationSender interface {
	SendOrderConfirmation(to, orderID string, total int, items []email.OrderItem) error
}

// Handler consumes order events from Kafka and sends confirmation email.
// Runs in the notifier binary, off the request path.
type Handler struct {
	email    ConfirmationSender
	accounts store.AccountStore
}

func NewHandler(emailSender ConfirmationSender, accounts store.AccountStore) *Handler {
	return &Handler{email: emailSender, accounts: accounts}
}

// HandleEvent processes one Kafka message. Malformed payloads and missing
// users are logged and skipped; only delivery failures propagate.
func (h *Handler) HandleEvent(ctx context.Context, _, value []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if env.Kind == event.KindOrderPlaced && env.OrderPlaced != nil {
		return h.handleOrderPlaced(ctx, env.OrderPlaced)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(ctx context.Context, e *event.OrderPlaced) error {
	log.Printf("[Notifier] Processing order %s for user %s", e.OrderID, e.UserID)

	user, err := h.accounts.GetUser(ctx, e.UserID)
	if err != nil {
		log.Printf("[Notifier] Could not load user %s: %v", e.UserID, err)
		return nil
	}
	if user.Email == "" {
		return nil
	}

	if err := h.email.SendOrderConfirmation(user.Email, e.OrderID, e.TotalAmount, OrderEmailItems(e.Items)); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", user.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", user.Email, e.OrderID)
	return nil
}
