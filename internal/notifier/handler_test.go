package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

func TestHandleOrderCreated(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(slog.New(slog.NewJSONHandler(&buf, nil)))

	event := domain.OrderCreatedEvent{
		OrderID:       "order-1",
		OrderCode:     "ORD20260314150926AB12",
		CustomerEmail: "alice@example.com",
		Total:         decimal.RequireFromString("220.00"),
		ItemCount:     2,
		Timestamp:     time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := handler.HandleOrderCreated(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("alice@example.com")) {
		t.Errorf("expected recipient in log output, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("ORD20260314150926AB12")) {
		t.Errorf("expected order code in log output, got %s", buf.String())
	}
}

func TestHandleOrderCancelled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(slog.New(slog.NewJSONHandler(&buf, nil)))

	payload, err := json.Marshal(domain.OrderCancelledEvent{
		OrderID:       "order-1",
		OrderCode:     "ORD20260314150926AB12",
		CustomerEmail: "alice@example.com",
		Timestamp:     time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := handler.HandleOrderCancelled(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Order Cancelled")) {
		t.Errorf("expected cancellation subject in log output, got %s", buf.String())
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	handler := NewHandler(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	if err := handler.HandleOrderCreated(context.Background(), []byte("not json")); err == nil {
		t.Error("expected an error for malformed order created payload")
	}
	if err := handler.HandlePaymentConfirmed(context.Background(), []byte("not json")); err == nil {
		t.Error("expected an error for malformed payment confirmed payload")
	}
}
