package domain

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestPaymentMarkPaid(t *testing.T) {
	now := time.Now()

	t.Run("pending payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending}
		if err := p.MarkPaid("TRF123", "wire received", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != PaymentStatusPaid {
			t.Errorf("expected status paid, got %s", p.Status)
		}
		if p.TransactionCode != "TRF123" {
			t.Errorf("expected transaction code TRF123, got %s", p.TransactionCode)
		}
		if p.PaidAt == nil || !p.PaidAt.Equal(now) {
			t.Errorf("expected paid_at %v, got %v", now, p.PaidAt)
		}
		if p.Notes != "wire received" {
			t.Errorf("expected notes preserved, got %q", p.Notes)
		}
	})

	t.Run("failed payment can be retried into paid", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusFailed}
		if err := p.MarkPaid("TRF456", "", now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != PaymentStatusPaid {
			t.Errorf("expected status paid, got %s", p.Status)
		}
	})

	t.Run("already paid", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPaid}
		if err := p.MarkPaid("TRF789", "", now); !errors.Is(err, ErrPaymentAlreadyPaid) {
			t.Fatalf("expected ErrPaymentAlreadyPaid, got %v", err)
		}
	})

	t.Run("refunded", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusRefunded}
		if err := p.MarkPaid("TRF789", "", now); !errors.Is(err, ErrPaymentAlreadyRefunded) {
			t.Fatalf("expected ErrPaymentAlreadyRefunded, got %v", err)
		}
	})
}

func TestPaymentMarkFailed(t *testing.T) {
	t.Run("pending payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending}
		if err := p.MarkFailed("card declined"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != PaymentStatusFailed {
			t.Errorf("expected status failed, got %s", p.Status)
		}
		if p.Notes != "card declined" {
			t.Errorf("expected failure reason in notes, got %q", p.Notes)
		}
	})

	t.Run("paid payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPaid}
		if err := p.MarkFailed("x"); !errors.Is(err, ErrCannotFailPaidPayment) {
			t.Fatalf("expected ErrCannotFailPaidPayment, got %v", err)
		}
	})

	t.Run("refunded payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusRefunded}
		if err := p.MarkFailed("x"); !errors.Is(err, ErrCannotFailRefundedPayment) {
			t.Fatalf("expected ErrCannotFailRefundedPayment, got %v", err)
		}
	})
}

func TestPaymentMarkRefunded(t *testing.T) {
	t.Run("paid payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPaid}
		if err := p.MarkRefunded("customer return"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != PaymentStatusRefunded {
			t.Errorf("expected status refunded, got %s", p.Status)
		}
	})

	t.Run("pending payment", func(t *testing.T) {
		p := &Payment{Status: PaymentStatusPending}
		if err := p.MarkRefunded("x"); !errors.Is(err, ErrCannotRefundPendingPayment) {
			t.Fatalf("expected ErrCannotRefundPendingPayment, got %v", err)
		}
	})
}

func TestPaymentCanRetry(t *testing.T) {
	cases := map[PaymentStatus]bool{
		PaymentStatusPending:  true,
		PaymentStatusFailed:   true,
		PaymentStatusPaid:     false,
		PaymentStatusRefunded: false,
	}
	for status, want := range cases {
		p := &Payment{Status: status}
		if got := p.CanRetry(); got != want {
			t.Errorf("CanRetry with status %s: expected %v, got %v", status, want, got)
		}
	}
}

func TestNewTransactionCode(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	cod := NewTransactionCode(PaymentMethodCOD, now)
	if !regexp.MustCompile(`^COD20260314150926[0-9A-F]{6}$`).MatchString(cod) {
		t.Errorf("unexpected COD transaction code: %s", cod)
	}

	trf := NewTransactionCode(PaymentMethodBankTransfer, now)
	if !regexp.MustCompile(`^TRF20260314150926[0-9A-F]{6}$`).MatchString(trf) {
		t.Errorf("unexpected bank transfer transaction code: %s", trf)
	}
}

func TestDecodePaymentMethod(t *testing.T) {
	if method, ok := DecodePaymentMethod("COD"); !ok || method != PaymentMethodCOD {
		t.Errorf("expected COD to decode, got %s ok=%v", method, ok)
	}
	if method, ok := DecodePaymentMethod("Bank_Transfer"); !ok || method != PaymentMethodBankTransfer {
		t.Errorf("expected bank_transfer to decode, got %s ok=%v", method, ok)
	}
	if _, ok := DecodePaymentMethod("crypto"); ok {
		t.Error("expected unknown method to be rejected")
	}
}

func TestDecodePaymentStatus(t *testing.T) {
	for _, raw := range []string{"pending", "PAID", "failed", "refunded"} {
		if _, ok := DecodePaymentStatus(raw); !ok {
			t.Errorf("expected %q to decode", raw)
		}
	}
	status, ok := DecodePaymentStatus("chargeback")
	if ok {
		t.Fatal("expected ok=false for unknown status")
	}
	if status != PaymentStatus("chargeback") {
		t.Errorf("expected raw value passed through, got %s", status)
	}
}
