package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/quickbasket/internal/account"
	"github.com/example/quickbasket/internal/api/middleware"
	"github.com/example/quickbasket/internal/cart"
	"github.com/example/quickbasket/internal/catalog"
	"github.com/example/quickbasket/internal/checkout"
	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
	"github.com/example/quickbasket/internal/notify"
	"github.com/example/quickbasket/internal/wishlist"
)

// Handlers holds every service the HTTP surface needs.
type Handlers struct {
	catalog  *catalog.Service
	carts    *cart.Service
	checkout *checkout.Service
	notify   *notify.Service
	wishlist *wishlist.Service
	accounts *account.Service
}

func NewHandlers(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	checkoutSvc *checkout.Service,
	notifySvc *notify.Service,
	wishlistSvc *wishlist.Service,
	accountSvc *account.Service,
) *Handlers {
	return &Handlers{
		catalog:  catalogSvc,
		carts:    cartSvc,
		checkout: checkoutSvc,
		notify:   notifySvc,
		wishlist: wishlistSvc,
		accounts: accountSvc,
	}
}

// Cart handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Variant   string `json:"variant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.carts.AddItem(r.Context(), getUserID(r), req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/api/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.carts.UpdateItemQuantity(r.Context(), getUserID(r), itemID, req.Quantity); err != nil {
		h.respondServiceError(w, err)
		return
	}
	view, err := h.carts.GetCart(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/api/cart/items/")

	if err := h.carts.RemoveItem(r.Context(), getUserID(r), itemID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item removed"})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), getUserID(r)); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

// Order handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in checkout.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.checkout.PlaceOrder(r.Context(), getUserID(r), in)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	f := store.OrderFilter{
		Status: model.OrderStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	orders, err := h.checkout.ListOrders(r.Context(), getUserID(r), f)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := extractPathParam(r.URL.Path, "/api/orders/")

	order, err := h.checkout.GetOrder(r.Context(), getUserID(r), orderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/cancel")

	order, err := h.checkout.CancelOrder(r.Context(), getUserID(r), orderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus applies an admin lifecycle transition.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/status")

	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.checkout.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.checkout.OrderStats(r.Context(), getUserID(r))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Reorder puts a past order's items back into the cart. Lines whose product
// is gone or inactive are skipped and reported.
func (h *Handlers) Reorder(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/orders/"), "/reorder")
	userID := getUserID(r)

	order, err := h.checkout.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	var skipped []string
	for _, it := range order.Items {
		if _, err := h.carts.AddItem(r.Context(), userID, it.ProductID, it.Quantity, it.Variant); err != nil {
			if errors.Is(err, cart.ErrProductUnavailable) {
				skipped = append(skipped, it.ProductName)
				continue
			}
			h.respondServiceError(w, err)
			return
		}
	}

	view, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":    view,
		"skipped": skipped,
	})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses: checkout and
// validation failures are 400, missing resources 404, the rest 500.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	var invErr *store.InsufficientInventoryError
	switch {
	case errors.As(err, &invErr),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrAddressNotFound),
		errors.Is(err, checkout.ErrCannotCancel),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, catalog.ErrEmptyQuery),
		errors.Is(err, account.ErrMissingAddress),
		errors.Is(err, notify.ErrMissingFields),
		errors.Is(err, notify.ErrInvalidType):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, checkout.ErrOrderNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, catalog.ErrProductUnknown),
		errors.Is(err, wishlist.ErrProductUnknown),
		errors.Is(err, account.ErrAddressNotFound),
		errors.Is(err, notify.ErrUserNotFound),
		errors.Is(err, store.ErrNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	default:
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
