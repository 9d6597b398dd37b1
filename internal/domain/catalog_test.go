package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestVariantFinalPrice(t *testing.T) {
	v := &Variant{
		BasePrice:       decimal.RequireFromString("100.00"),
		PriceAdjustment: decimal.RequireFromString("10.00"),
	}
	if got := v.FinalPrice(); !got.Equal(decimal.RequireFromString("110.00")) {
		t.Errorf("expected final price 110.00, got %s", got)
	}

	v.PriceAdjustment = decimal.RequireFromString("-25.00")
	if got := v.FinalPrice(); !got.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("expected discounted price 75.00, got %s", got)
	}
}

func TestVariantInStock(t *testing.T) {
	cases := []struct {
		name      string
		available bool
		stock     int
		want      bool
	}{
		{"available with stock", true, 3, true},
		{"available without stock", true, 0, false},
		{"unavailable with stock", false, 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &Variant{IsAvailable: tc.available, StockQuantity: tc.stock}
			if got := v.InStock(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCartTotals(t *testing.T) {
	tee := &Variant{BasePrice: decimal.RequireFromString("100.00"), PriceAdjustment: decimal.RequireFromString("10.00")}
	hat := &Variant{BasePrice: decimal.RequireFromString("25.00")}

	cart := &Cart{Items: []CartItem{
		{Quantity: 2, Variant: tee},
		{Quantity: 1, Variant: hat},
	}}

	if cart.IsEmpty() {
		t.Error("expected cart not to be empty")
	}
	if got := cart.TotalItems(); got != 3 {
		t.Errorf("expected 3 total items, got %d", got)
	}
	if got := cart.TotalAmount(); !got.Equal(decimal.RequireFromString("245.00")) {
		t.Errorf("expected total 245.00, got %s", got)
	}
}

func TestCartItemSubtotalWithoutVariant(t *testing.T) {
	item := CartItem{Quantity: 2}
	if got := item.Subtotal(); !got.IsZero() {
		t.Errorf("expected zero subtotal for detached item, got %s", got)
	}
}
