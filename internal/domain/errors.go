package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrVariantNotFound  = errors.New("product variant not found")
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("no payment found for this order")

	ErrEmptyCart = errors.New("cart is empty")

	ErrOrderNotCancellable = errors.New("order cannot be cancelled")

	ErrPaymentAlreadyPaid         = errors.New("payment has already been confirmed")
	ErrPaymentAlreadyRefunded     = errors.New("payment has been refunded")
	ErrCannotFailPaidPayment      = errors.New("cannot mark a paid payment as failed")
	ErrCannotFailRefundedPayment  = errors.New("cannot mark a refunded payment as failed")
	ErrCannotRefundPendingPayment = errors.New("cannot refund a payment that was never paid")

	ErrDuplicateSKU       = errors.New("sku already exists")
	ErrDuplicateOrderCode = errors.New("order code already exists")
	ErrDuplicateEmail     = errors.New("email already exists")

	ErrUnauthorized = errors.New("resource does not belong to caller")
)

// InsufficientStockError reports a stock check or deduction failure with
// enough context to render a precise message to the customer.
type InsufficientStockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.SKU, e.Available, e.Requested)
}

// InvalidTransitionError reports a rejected order status change.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
