package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	BasePrice decimal.Decimal `json:"base_price"`
}

// Variant is a purchasable configuration of a product. StockQuantity is
// mutated only through the stock ledger's deduct/add operations so the ledger
// stays authoritative.
type Variant struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	SKU             string          `json:"sku"`
	Color           string          `json:"color,omitempty"`
	Size            string          `json:"size,omitempty"`
	StockQuantity   int             `json:"stock_quantity"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	IsAvailable     bool            `json:"is_available"`
}

// FinalPrice is the live unit price: product base price plus the variant's
// adjustment. Order lines snapshot this value at creation time.
func (v *Variant) FinalPrice() decimal.Decimal {
	return v.BasePrice.Add(v.PriceAdjustment)
}

func (v *Variant) InStock() bool {
	return v.IsAvailable && v.StockQuantity > 0
}

func (v *Variant) Descriptor() string {
	return VariantDescriptor(v.Color, v.Size, v.SKU)
}
