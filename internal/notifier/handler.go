package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// Handler turns fulfillment events into customer emails. Delivery is
// simulated: composed messages are logged with a realistic send latency.
type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	subject := "Order Confirmation: " + event.OrderCode
	body := fmt.Sprintf("We received your order %s (%d items, total %s). We'll let you know when it ships.",
		event.OrderCode, event.ItemCount, event.Total.StringFixed(2))
	return h.send(ctx, event.CustomerEmail, subject, body)
}

func (h *Handler) HandleOrderCancelled(ctx context.Context, payload []byte) error {
	var event domain.OrderCancelledEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order cancelled event: %w", err)
	}

	subject := "Order Cancelled: " + event.OrderCode
	body := fmt.Sprintf("Your order %s has been cancelled. Any completed payment will be refunded.", event.OrderCode)
	return h.send(ctx, event.CustomerEmail, subject, body)
}

func (h *Handler) HandlePaymentConfirmed(ctx context.Context, payload []byte) error {
	var event domain.PaymentConfirmedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal payment confirmed event: %w", err)
	}

	h.logger.Info("payment receipt recorded",
		"order_code", event.OrderCode,
		"transaction_code", event.TransactionCode,
		"amount", event.Amount.StringFixed(2))
	return nil
}

func (h *Handler) send(_ context.Context, to, subject, body string) error {
	delay := time.Duration(50+rand.Intn(151)) * time.Millisecond
	time.Sleep(delay)

	h.logger.Info("email sent", "to", to, "subject", subject, "body_len", len(body))
	return nil
}
