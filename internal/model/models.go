package model

import (
	"encoding/json"
	"time"
)

// OrderStatus is the delivery lifecycle of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks payment separately from delivery.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// NotificationType classifies notification rows.
type NotificationType string

const (
	NotificationOrderUpdate NotificationType = "order_update"
	NotificationPromotion   NotificationType = "promotion"
	NotificationSystem      NotificationType = "system"
	NotificationDelivery    NotificationType = "delivery"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"icon_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product prices and inventory are integers: prices in the smallest currency
// unit, inventory as a non-negative stock count.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int       `json:"price"`
	Inventory   int       `json:"inventory"`
	CategoryID  string    `json:"category_id,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Derived at query time from review rows, never stored.
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Label        string    `json:"label"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zip_code"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Cart is created lazily and expires; at most one live cart per user.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem is one line in a cart. PriceSnapshot is the unit price captured
// when the line was created and is not re-read from the product afterwards.
type CartItem struct {
	ID            string    `json:"id"`
	CartID        string    `json:"cart_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	PriceSnapshot int       `json:"price_snapshot"`
	Variant       string    `json:"variant,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// Joined product fields for cart views.
	ProductName      string `json:"product_name,omitempty"`
	ProductImageURL  string `json:"product_image_url,omitempty"`
	ProductInventory int    `json:"product_inventory,omitempty"`
}

// OrderMetadata records how the total was computed.
type OrderMetadata struct {
	Subtotal  int    `json:"subtotal"`
	Discount  int    `json:"discount"`
	PromoCode string `json:"promo_code,omitempty"`
}

// Order is a durable receipt: once created it is only mutated through status
// and timestamp updates. AddressSnapshot is a copy, not a reference, so later
// address edits never change past orders.
type Order struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	Status               OrderStatus     `json:"status"`
	PaymentStatus        PaymentStatus   `json:"payment_status"`
	TotalAmount          int             `json:"total_amount"`
	DeliveryFee          int             `json:"delivery_fee"`
	AddressSnapshot      json.RawMessage `json:"address_snapshot"`
	DeliveryInstructions string          `json:"delivery_instructions,omitempty"`
	Metadata             OrderMetadata   `json:"metadata"`
	EstimatedDelivery    time.Time       `json:"estimated_delivery"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at order time.
type OrderItem struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	PriceSnapshot int       `json:"price_snapshot"`
	Variant       string    `json:"variant,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	ProductName     string `json:"product_name,omitempty"`
	ProductImageURL string `json:"product_image_url,omitempty"`
}

// WishlistEntry is pure (user, product) membership.
type WishlistEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `json:"product,omitempty"`
}

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	ReviewerName string `json:"reviewer_name,omitempty"`
}

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is append-only; only the read flag is mutated afterwards.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
