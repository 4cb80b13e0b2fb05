package checkout

import (
	"github.com/example/quickbasket/internal/model"
)

// Delivery pricing. Orders at or above the threshold ship free.
const (
	FreeDeliveryThreshold = 500
	StandardDeliveryFee   = 50
)

// promoRules maps promo codes to discount functions over the subtotal.
// Unknown codes apply no discount.
var promoRules = map[string]func(subtotal int) int{
	// Flat 10% off.
	"FIRST10": func(subtotal int) int {
		return subtotal / 10
	},
	// 5% off, capped at 50.
	"SAVE50": func(subtotal int) int {
		discount := subtotal * 5 / 100
		if discount > 50 {
			return 50
		}
		return discount
	},
}

// Pricing is the full price breakdown of an order.
type Pricing struct {
	Subtotal    int
	Discount    int
	DeliveryFee int
	Total       int
	PromoCode   string
}

// ComputePricing derives the order total from the cart lines. The discount is
// clamped to the subtotal so the total never drops below the delivery fee.
func ComputePricing(items []model.CartItem, promoCode string) Pricing {
	p := Pricing{}
	for _, it := range items {
		p.Subtotal += it.PriceSnapshot * it.Quantity
	}

	if rule, ok := promoRules[promoCode]; ok {
		p.Discount = rule(p.Subtotal)
		p.PromoCode = promoCode
	}
	if p.Discount > p.Subtotal {
		p.Discount = p.Subtotal
	}

	if p.Subtotal < FreeDeliveryThreshold {
		p.DeliveryFee = StandardDeliveryFee
	}

	p.Total = p.Subtotal - p.Discount + p.DeliveryFee
	return p
}
