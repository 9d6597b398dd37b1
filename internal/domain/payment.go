package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func DecodePaymentStatus(raw string) (PaymentStatus, bool) {
	s := PaymentStatus(strings.ToLower(raw))
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return s, true
	}
	return PaymentStatus(raw), false
}

type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func DecodePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(raw))
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer:
		return m, true
	}
	return PaymentMethod(raw), false
}

// Payment is one attempt to pay an order. An order may accumulate several
// rows over retries; confirm/fail always act on the most recent one.
type Payment struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	OrderCode       string          `json:"order_code"`
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	Status          PaymentStatus   `json:"status"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarkPaid transitions the payment to paid. Pending and failed payments can be
// confirmed (failed-to-paid is the retry path); paid and refunded cannot.
func (p *Payment) MarkPaid(transactionCode, notes string, now time.Time) error {
	switch p.Status {
	case PaymentStatusPaid:
		return ErrPaymentAlreadyPaid
	case PaymentStatusRefunded:
		return ErrPaymentAlreadyRefunded
	}
	p.Status = PaymentStatusPaid
	p.TransactionCode = transactionCode
	p.PaidAt = &now
	if notes != "" {
		p.Notes = notes
	}
	return nil
}

func (p *Payment) MarkFailed(reason string) error {
	switch p.Status {
	case PaymentStatusPaid:
		return ErrCannotFailPaidPayment
	case PaymentStatusRefunded:
		return ErrCannotFailRefundedPayment
	}
	p.Status = PaymentStatusFailed
	p.Notes = reason
	return nil
}

func (p *Payment) MarkRefunded(notes string) error {
	if p.Status != PaymentStatusPaid && p.Status != PaymentStatusFailed {
		return ErrCannotRefundPendingPayment
	}
	p.Status = PaymentStatusRefunded
	p.Notes = notes
	return nil
}

func (p *Payment) CanRetry() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusFailed
}

// NewTransactionCode synthesizes a transaction code when the gateway callback
// did not supply one: method prefix, timestamp, random suffix.
func NewTransactionCode(method PaymentMethod, now time.Time) string {
	prefix := "TRF"
	if method == PaymentMethodCOD {
		prefix = "COD"
	}
	suffix := strings.ToUpper(uuid.New().String()[:6])
	return prefix + now.Format("20060102150405") + suffix
}
