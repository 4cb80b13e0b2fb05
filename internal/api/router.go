package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/quickbasket/internal/api/middleware"
	"github.com/example/quickbasket/internal/auth"
)

// NewRouter wires every endpoint. Catalog reads are public; cart, orders,
// addresses, wishlist and notifications require a valid access token; order
// status transitions and notification fan-out require the admin role.
func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, jwtService *auth.Service) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(jwtService)
	adminOnly := middleware.RequireRole("admin")

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return requireAuth(h).ServeHTTP
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return requireAuth(adminOnly(h)).ServeHTTP
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodHandler(http.MethodPost, authHandlers.Register))
	mux.HandleFunc("/api/auth/login", methodHandler(http.MethodPost, authHandlers.Login))
	mux.HandleFunc("/api/auth/logout", methodHandler(http.MethodPost, authHandlers.Logout))
	mux.HandleFunc("/api/auth/refresh", methodHandler(http.MethodPost, authHandlers.Refresh))
	mux.HandleFunc("/api/auth/me", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			authHandlers.Me(w, r)
		case http.MethodPut, http.MethodPatch:
			authHandlers.UpdateProfile(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/auth/change-password", methodHandler(http.MethodPost, protected(authHandlers.ChangePassword)))

	// Catalog (public)
	mux.HandleFunc("/api/products", methodHandler(http.MethodGet, handlers.GetProducts))
	mux.HandleFunc("/api/products/featured", methodHandler(http.MethodGet, handlers.GetFeaturedProducts))
	mux.HandleFunc("/api/products/search", methodHandler(http.MethodPost, handlers.SearchProducts))
	mux.HandleFunc("/api/products/suggestions", methodHandler(http.MethodGet, handlers.GetSuggestions))

	createReview := protected(handlers.CreateReview)
	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/similar") && r.Method == http.MethodGet:
			handlers.GetSimilarProducts(w, r)
		case strings.HasSuffix(path, "/reviews") && r.Method == http.MethodGet:
			handlers.GetReviews(w, r)
		case strings.HasSuffix(path, "/reviews") && r.Method == http.MethodPost:
			createReview(w, r)
		case r.Method == http.MethodGet:
			handlers.GetProduct(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/categories", methodHandler(http.MethodGet, handlers.GetCategories))
	mux.HandleFunc("/api/categories/", methodHandler(http.MethodGet, handlers.GetCategory))
	mux.HandleFunc("/api/banners", methodHandler(http.MethodGet, handlers.GetBanners))

	// Cart
	mux.HandleFunc("/api/cart", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCart(w, r)
		case http.MethodDelete:
			handlers.ClearCart(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/cart/items", methodHandler(http.MethodPost, protected(handlers.AddToCart)))
	mux.HandleFunc("/api/cart/items/", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch, http.MethodPut:
			handlers.UpdateCartItem(w, r)
		case http.MethodDelete:
			handlers.RemoveCartItem(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Orders
	mux.HandleFunc("/api/orders", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrders(w, r)
		case http.MethodPost:
			handlers.PlaceOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/orders/stats", methodHandler(http.MethodGet, protected(handlers.GetOrderStats)))

	updateStatus := admin(handlers.UpdateOrderStatus)
	mux.HandleFunc("/api/orders/", protected(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			handlers.CancelOrder(w, r)
		case strings.HasSuffix(path, "/reorder") && r.Method == http.MethodPost:
			handlers.Reorder(w, r)
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPatch:
			updateStatus(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Addresses
	mux.HandleFunc("/api/addresses", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetAddresses(w, r)
		case http.MethodPost:
			handlers.CreateAddress(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/addresses/", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut, http.MethodPatch:
			handlers.UpdateAddress(w, r)
		case http.MethodDelete:
			handlers.DeleteAddress(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Wishlist
	mux.HandleFunc("/api/wishlist", methodHandler(http.MethodGet, protected(handlers.GetWishlist)))
	mux.HandleFunc("/api/wishlist/toggle", methodHandler(http.MethodPost, protected(handlers.ToggleWishlist)))

	// Notifications
	sendNotification := admin(handlers.SendNotification)
	mux.HandleFunc("/api/notifications", protected(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetNotifications(w, r)
		case http.MethodPost:
			sendNotification(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/notifications/unread-count", methodHandler(http.MethodGet, protected(handlers.GetUnreadCount)))
	mux.HandleFunc("/api/notifications/read-all", methodHandler(http.MethodPost, protected(handlers.MarkAllNotificationsRead)))
	mux.HandleFunc("/api/notifications/", protected(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/read") && r.Method == http.MethodPost:
			handlers.MarkNotificationRead(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteNotification(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	return withLogging(withCORS(mux))
}

func methodHandler(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
