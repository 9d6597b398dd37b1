package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions is the full transition table. Completed and cancelled are
// terminal; any pair not listed here is rejected.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusCompleted},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns an InvalidTransitionError naming both
// statuses when the requested change is not in the transition table.
func ValidateOrderTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// DecodeOrderStatus maps a stored status value to its enum. Unknown values are
// returned as-is with ok=false so callers can surface the anomaly instead of
// silently coercing to a default.
func DecodeOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToLower(raw))
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return s, true
	}
	return OrderStatus(raw), false
}

// Order is an immutable-after-creation snapshot of a purchase. Items and the
// total are frozen at creation time; only Status changes afterwards, and only
// through the transition table.
type Order struct {
	ID              string          `json:"id"`
	OrderCode       string          `json:"order_code"`
	UserID          string          `json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	Phone           string          `json:"phone"`
	Note            string          `json:"note,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a line snapshot. ProductName, VariantInfo and UnitPrice are
// captured at order time and never track later catalog changes. VariantID is a
// best-effort back-reference kept so cancellation can return stock; it may be
// nil once the variant is deleted.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	VariantID   *string         `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantInfo string          `json:"variant_info"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (o *Order) CanCancel() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

func (o *Order) TotalItems() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

const orderCodePrefix = "ORD"

// NewOrderCode builds a human-readable order code: fixed prefix, timestamp at
// second resolution, and a short random disambiguator. Uniqueness is still
// enforced by the orders.order_code constraint; callers regenerate on conflict.
func NewOrderCode(now time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return orderCodePrefix + now.Format("20060102150405") + suffix
}

// VariantDescriptor composes the human-readable snapshot text for an order
// line: color first, size appended, SKU only when neither is set.
func VariantDescriptor(color, size, sku string) string {
	var sb strings.Builder
	if color != "" {
		sb.WriteString("Color: ")
		sb.WriteString(color)
	}
	if size != "" {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("Size: ")
		sb.WriteString(size)
	}
	if sb.Len() == 0 {
		return "SKU: " + sku
	}
	return sb.String()
}
