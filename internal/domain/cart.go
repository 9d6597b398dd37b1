package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the mutable pre-order basket, one per user. It is created lazily and
// cleared, not deleted, after a successful checkout.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem references a live variant. Unique per (cart, variant): adding the
// same variant again merges quantities instead of duplicating the line.
type CartItem struct {
	ID        string    `json:"id"`
	CartID    string    `json:"cart_id"`
	VariantID string    `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	Variant   *Variant  `json:"variant,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subtotal uses the variant's live price; cart pricing is advisory and is
// recomputed from the catalog at checkout.
func (i CartItem) Subtotal() decimal.Decimal {
	if i.Variant == nil {
		return decimal.Zero
	}
	return i.Variant.FinalPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
