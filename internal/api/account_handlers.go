package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/quickbasket/internal/account"
	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
	"github.com/example/quickbasket/internal/notify"
)

// Address handlers

func (h *Handlers) GetAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.accounts.ListAddresses(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}

func (h *Handlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	var in account.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	address, err := h.accounts.CreateAddress(r.Context(), getUserID(r), in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, address)
}

func (h *Handlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID := extractPathParam(r.URL.Path, "/api/addresses/")

	var in account.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	address, err := h.accounts.UpdateAddress(r.Context(), getUserID(r), addressID, in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, address)
}

func (h *Handlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	addressID := extractPathParam(r.URL.Path, "/api/addresses/")

	if err := h.accounts.DeleteAddress(r.Context(), getUserID(r), addressID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Address deleted"})
}

// Wishlist handlers

func (h *Handlers) GetWishlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.wishlist.List(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handlers) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	added, err := h.wishlist.Toggle(r.Context(), getUserID(r), req.ProductID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"in_wishlist": added})
}

// Notification handlers

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	f := store.NotificationFilter{
		Type:       model.NotificationType(r.URL.Query().Get("type")),
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}
	notifications, err := h.notify.List(r.Context(), getUserID(r), f)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}

// SendNotification is the admin fan-out endpoint. It reports per-channel
// delivery without ever failing the stored notification.
func (h *Handlers) SendNotification(w http.ResponseWriter, r *http.Request) {
	var in notify.SendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.notify.Send(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"notification": result.Notification,
		"email_sent":   result.EmailSent,
		"sms_sent":     result.SMSSent,
	})
}

func (h *Handlers) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notify.UnreadCount(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/notifications/"), "/read")

	n, err := h.notify.MarkRead(r.Context(), getUserID(r), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *Handlers) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notify.MarkAllRead(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/notifications/")

	if err := h.notify.Delete(r.Context(), getUserID(r), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}
