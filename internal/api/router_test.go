package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/quickbasket/internal/account"
	"github.com/example/quickbasket/internal/auth"
	"github.com/example/quickbasket/internal/cart"
	"github.com/example/quickbasket/internal/catalog"
	"github.com/example/quickbasket/internal/checkout"
	"github.com/example/quickbasket/internal/infrastructure/store/mocks"
	"github.com/example/quickbasket/internal/model"
	"github.com/example/quickbasket/internal/notify"
	"github.com/example/quickbasket/internal/wishlist"
)

type testServer struct {
	router  http.Handler
	store   *mocks.MemoryStore
	cookies []*http.Cookie
}

type noopEmail struct{}

func (noopEmail) SendNotification(to, title, message string) error { return nil }

type noopSMS struct{}

func (noopSMS) Send(phone, message string) error { return nil }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := mocks.NewMemoryStore()

	jwtService := auth.NewService("router-test-secret-key-at-least-32ch", 15*time.Minute, 7*24*time.Hour)

	accountSvc := account.NewService(s)
	catalogSvc := catalog.NewService(s)
	cartSvc := cart.NewService(s, s)
	checkoutSvc := checkout.NewService(s, nil)
	notifySvc := notify.NewService(s, noopEmail{}, noopSMS{}, nil)
	wishlistSvc := wishlist.NewService(s, s)

	handlers := NewHandlers(catalogSvc, cartSvc, checkoutSvc, notifySvc, wishlistSvc, accountSvc)
	authHandlers := NewAuthHandlers(accountSvc, jwtService)

	return &testServer{
		router: NewRouter(handlers, authHandlers, jwtService),
		store:  s,
	}
}

// do issues a request, carrying cookies set by earlier responses.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		ts.cookies = append(ts.cookies, c)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func seedStorefront(ts *testServer) {
	ts.store.SeedProduct(model.Product{
		ID: "prod-milk", Name: "Fresh Milk 1L", Price: 60, Inventory: 20, IsActive: true,
	})
	ts.store.SeedProduct(model.Product{
		ID: "prod-bread", Name: "Whole Wheat Bread", Price: 45, Inventory: 10, IsActive: true,
	})
}

func registerCustomer(t *testing.T, ts *testServer) {
	rec := ts.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "shopper@example.com",
		"password": "shopper-pass-1",
		"name":     "Shopper",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_PublicCatalogNoAuth(t *testing.T) {
	ts := newTestServer(t)
	seedStorefront(ts)

	rec := ts.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var products []model.Product
	decodeBody(t, rec, &products)
	assert.Len(t, products, 2)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/cart", "/api/orders", "/api/wishlist", "/api/notifications"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/api/products", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodOptions, "/api/products", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_CheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	seedStorefront(ts)
	registerCustomer(t, ts)

	rec := ts.do(t, http.MethodPost, "/api/addresses", account.AddressInput{
		Label:        "Home",
		AddressLine1: "12 Market Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		ZipCode:      "560001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var address model.Address
	decodeBody(t, rec, &address)
	assert.True(t, address.IsDefault)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{
		"product_id": "prod-milk", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view cart.View
	decodeBody(t, rec, &view)
	assert.Equal(t, 180, view.Subtotal)
	assert.Equal(t, 3, view.ItemCount)

	rec = ts.do(t, http.MethodPost, "/api/orders", checkout.PlaceOrderInput{AddressID: address.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var placed struct {
		Order model.Order `json:"order"`
	}
	decodeBody(t, rec, &placed)
	assert.Equal(t, model.OrderPending, placed.Order.Status)
	assert.Equal(t, 230, placed.Order.TotalAmount) // 180 + 50 delivery
	assert.Equal(t, 17, ts.store.ProductInventory("prod-milk"))

	rec = ts.do(t, http.MethodGet, "/api/orders/"+placed.Order.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched model.Order
	decodeBody(t, rec, &fetched)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "prod-milk", fetched.Items[0].ProductID)

	rec = ts.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	assert.Zero(t, view.ItemCount)
}

func TestRouter_EmptyCartCheckoutRejected(t *testing.T) {
	ts := newTestServer(t)
	seedStorefront(ts)
	registerCustomer(t, ts)

	rec := ts.do(t, http.MethodPost, "/api/addresses", account.AddressInput{
		Label: "Home", AddressLine1: "12 Market Road", City: "Bengaluru", State: "Karnataka", ZipCode: "560001",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var address model.Address
	decodeBody(t, rec, &address)

	rec = ts.do(t, http.MethodPost, "/api/orders", checkout.PlaceOrderInput{AddressID: address.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRouter_StatusUpdateRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	seedStorefront(ts)
	registerCustomer(t, ts)

	rec := ts.do(t, http.MethodPatch, "/api/orders/some-order/status", map[string]string{
		"status": "processing",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminStatusUpdate(t *testing.T) {
	ts := newTestServer(t)
	seedStorefront(ts)

	hash, err := auth.HashPassword("admin-pass-123")
	require.NoError(t, err)
	ts.store.SeedUser(model.User{
		ID: "admin-1", Email: "admin@example.com", PasswordHash: hash,
		Name: "Admin", Role: "admin", IsActive: true,
	})

	rec := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.com", "password": "admin-pass-123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/addresses", account.AddressInput{
		Label: "Office", AddressLine1: "1 Admin Way", City: "Bengaluru", State: "Karnataka", ZipCode: "560002",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var address model.Address
	decodeBody(t, rec, &address)

	rec = ts.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": "prod-bread"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/orders", checkout.PlaceOrderInput{AddressID: address.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var placed struct {
		Order model.Order `json:"order"`
	}
	decodeBody(t, rec, &placed)

	rec = ts.do(t, http.MethodPatch, "/api/orders/"+placed.Order.ID+"/status", map[string]string{
		"status": "processing",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Order
	decodeBody(t, rec, &updated)
	assert.Equal(t, model.OrderProcessing, updated.Status)
}

func TestRouter_LogoutClearsSession(t *testing.T) {
	ts := newTestServer(t)
	registerCustomer(t, ts)

	rec := ts.do(t, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ts.cookies = nil
	rec = ts.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
