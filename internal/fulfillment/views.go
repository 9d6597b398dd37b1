package fulfillment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

type CartItemView struct {
	ID          string          `json:"id"`
	VariantID   string          `json:"variant_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	VariantInfo string          `json:"variant_info"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	InStock     bool            `json:"in_stock"`
}

type CartView struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []CartItemView  `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderItemView struct {
	ID          string          `json:"id"`
	ProductName string          `json:"product_name"`
	VariantInfo string          `json:"variant_info"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderView struct {
	ID              string             `json:"id"`
	OrderCode       string             `json:"order_code"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	Total           decimal.Decimal    `json:"total"`
	Status          domain.OrderStatus `json:"status"`
	ShippingAddress string             `json:"shipping_address"`
	Phone           string             `json:"phone"`
	Note            string             `json:"note,omitempty"`
	Items           []OrderItemView    `json:"items"`
	TotalItems      int                `json:"total_items"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type PaymentView struct {
	ID              string               `json:"id"`
	OrderCode       string               `json:"order_code"`
	Method          domain.PaymentMethod `json:"method"`
	Amount          decimal.Decimal      `json:"amount"`
	Status          domain.PaymentStatus `json:"status"`
	TransactionCode string               `json:"transaction_code,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

func newCartView(cart *domain.Cart) CartView {
	view := CartView{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]CartItemView, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		iv := CartItemView{
			ID:        item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		}
		if item.Variant != nil {
			iv.SKU = item.Variant.SKU
			iv.ProductName = item.Variant.ProductName
			iv.VariantInfo = item.Variant.Descriptor()
			iv.UnitPrice = item.Variant.FinalPrice()
			iv.InStock = item.Variant.StockQuantity >= item.Quantity
		}
		view.Items = append(view.Items, iv)
	}
	view.TotalItems = cart.TotalItems()
	view.TotalAmount = cart.TotalAmount()
	return view
}

func newOrderView(order *domain.Order) OrderView {
	view := OrderView{
		ID:              order.ID,
		OrderCode:       order.OrderCode,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		Total:           order.Total,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		Phone:           order.Phone,
		Note:            order.Note,
		Items:           make([]OrderItemView, 0, len(order.Items)),
		TotalItems:      order.TotalItems(),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, OrderItemView{
			ID:          item.ID,
			ProductName: item.ProductName,
			VariantInfo: item.VariantInfo,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}
	return view
}

func newPaymentView(p *domain.Payment) PaymentView {
	return PaymentView{
		ID:              p.ID,
		OrderCode:       p.OrderCode,
		Method:          p.Method,
		Amount:          p.Amount,
		Status:          p.Status,
		TransactionCode: p.TransactionCode,
		PaidAt:          p.PaidAt,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
}
