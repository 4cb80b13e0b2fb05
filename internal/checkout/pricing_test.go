package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/quickbasket/internal/model"
)

func lines(pairs ...[2]int) []model.CartItem {
	items := make([]model.CartItem, len(pairs))
	for i, p := range pairs {
		items[i] = model.CartItem{PriceSnapshot: p[0], Quantity: p[1]}
	}
	return items
}

func TestComputePricing_Subtotal(t *testing.T) {
	p := ComputePricing(lines([2]int{100, 2}, [2]int{50, 3}), "")

	assert.Equal(t, 350, p.Subtotal)
	assert.Equal(t, 0, p.Discount)
	assert.Equal(t, StandardDeliveryFee, p.DeliveryFee)
	assert.Equal(t, 400, p.Total)
}

func TestComputePricing_FreeDeliveryAtThreshold(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int
		fee      int
	}{
		{"above threshold", 600, 0},
		{"at threshold", 500, 0},
		{"below threshold", 300, StandardDeliveryFee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputePricing(lines([2]int{tt.subtotal, 1}), "")
			assert.Equal(t, tt.fee, p.DeliveryFee)
			assert.Equal(t, tt.subtotal+tt.fee, p.Total)
		})
	}
}

func TestComputePricing_First10(t *testing.T) {
	p := ComputePricing(lines([2]int{1000, 1}), "FIRST10")

	assert.Equal(t, 1000, p.Subtotal)
	assert.Equal(t, 100, p.Discount)
	assert.Equal(t, 0, p.DeliveryFee)
	assert.Equal(t, 900, p.Total)
	assert.Equal(t, "FIRST10", p.PromoCode)
}

func TestComputePricing_Save50Cap(t *testing.T) {
	// 5% of 2000 is 100, capped at 50.
	p := ComputePricing(lines([2]int{2000, 1}), "SAVE50")
	assert.Equal(t, 50, p.Discount)
	assert.Equal(t, 1950, p.Total)

	// 5% of 400 is 20, under the cap.
	p = ComputePricing(lines([2]int{400, 1}), "SAVE50")
	assert.Equal(t, 20, p.Discount)
	assert.Equal(t, 400-20+StandardDeliveryFee, p.Total)
}

func TestComputePricing_UnknownPromoIgnored(t *testing.T) {
	p := ComputePricing(lines([2]int{1000, 1}), "BOGUS")

	assert.Equal(t, 0, p.Discount)
	assert.Empty(t, p.PromoCode)
	assert.Equal(t, 1000, p.Total)
}

func TestComputePricing_TotalNeverBelowDeliveryFee(t *testing.T) {
	p := ComputePricing(nil, "FIRST10")

	assert.Equal(t, 0, p.Subtotal)
	assert.Equal(t, 0, p.Discount)
	assert.Equal(t, StandardDeliveryFee, p.Total)
}
