package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	OrderID       string          `json:"order_id"`
	OrderCode     string          `json:"order_code"`
	CustomerEmail string          `json:"customer_email"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	Timestamp     time.Time       `json:"timestamp"`
}

type OrderCancelledEvent struct {
	OrderID       string    `json:"order_id"`
	OrderCode     string    `json:"order_code"`
	CustomerEmail string    `json:"customer_email"`
	Timestamp     time.Time `json:"timestamp"`
}

type PaymentConfirmedEvent struct {
	PaymentID       string          `json:"payment_id"`
	OrderCode       string          `json:"order_code"`
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionCode string          `json:"transaction_code"`
	Timestamp       time.Time       `json:"timestamp"`
}
