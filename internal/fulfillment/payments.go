package fulfillment

import (
	"context"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// ConfirmPayment marks the order's most recent payment as paid. When the
// caller supplies no transaction code one is synthesized from the method and
// timestamp. For non-cash-on-delivery methods a still-pending order is
// auto-advanced to confirmed inside the same transaction; this is the only
// place the two state machines touch.
func (s *Service) ConfirmPayment(ctx context.Context, orderCode, transactionCode, notes string) (PaymentView, error) {
	var payment *domain.Payment

	err := s.stores.InTx(ctx, func(tx Stores) error {
		order, err := tx.Orders().GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}

		payment, err = tx.Payments().LatestByOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		code := transactionCode
		if code == "" {
			code = domain.NewTransactionCode(payment.Method, s.now())
		}

		if err := payment.MarkPaid(code, notes, s.now()); err != nil {
			return err
		}
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return err
		}

		if payment.Method != domain.PaymentMethodCOD && order.Status == domain.OrderStatusPending {
			if err := tx.Orders().UpdateStatus(ctx, order.ID, domain.OrderStatusConfirmed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PaymentView{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsConfirmed.Add(ctx, 1)
	}
	s.publish(ctx, TopicPaymentConfirmed, payment.OrderCode, domain.PaymentConfirmedEvent{
		PaymentID:       payment.ID,
		OrderCode:       payment.OrderCode,
		Method:          payment.Method,
		Amount:          payment.Amount,
		TransactionCode: payment.TransactionCode,
		Timestamp:       s.now(),
	})
	s.logger.Info("payment confirmed", "order_code", payment.OrderCode, "transaction_code", payment.TransactionCode)

	return newPaymentView(payment), nil
}

// MarkPaymentFailed records a failed attempt on the most recent payment. The
// order status is untouched; a later retry confirms the same payment row.
func (s *Service) MarkPaymentFailed(ctx context.Context, orderCode, reason string) (PaymentView, error) {
	var payment *domain.Payment

	err := s.stores.InTx(ctx, func(tx Stores) error {
		order, err := tx.Orders().GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}

		payment, err = tx.Payments().LatestByOrder(ctx, order.ID)
		if err != nil {
			return err
		}

		if err := payment.MarkFailed(reason); err != nil {
			return err
		}
		return tx.Payments().Update(ctx, payment)
	})
	if err != nil {
		return PaymentView{}, err
	}

	s.logger.Info("payment marked failed", "order_code", payment.OrderCode, "reason", reason)
	return newPaymentView(payment), nil
}

// ListPaymentsForOrder returns a user's payment attempts for one of their own
// orders, newest first.
func (s *Service) ListPaymentsForOrder(ctx context.Context, userEmail, orderCode string) ([]PaymentView, error) {
	user, err := s.resolveUser(ctx, s.stores, userEmail)
	if err != nil {
		return nil, err
	}

	order, err := s.stores.Orders().GetByCodeForUser(ctx, orderCode, user.ID)
	if err != nil {
		return nil, err
	}
	return s.paymentsByOrder(ctx, order.ID)
}

func (s *Service) ListPaymentsForOrderAsAdmin(ctx context.Context, orderCode string) ([]PaymentView, error) {
	order, err := s.stores.Orders().GetByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	return s.paymentsByOrder(ctx, order.ID)
}

func (s *Service) paymentsByOrder(ctx context.Context, orderID string) ([]PaymentView, error) {
	payments, err := s.stores.Payments().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	views := make([]PaymentView, 0, len(payments))
	for i := range payments {
		views = append(views, newPaymentView(&payments[i]))
	}
	return views, nil
}

func (s *Service) ListAllPayments(ctx context.Context, status *domain.PaymentStatus, method *domain.PaymentMethod, page, size int) (Page[PaymentView], error) {
	page, size = normalizePage(page, size)
	payments, total, err := s.stores.Payments().List(ctx, status, method, page, size)
	if err != nil {
		return Page[PaymentView]{}, err
	}

	views := make([]PaymentView, 0, len(payments))
	for i := range payments {
		views = append(views, newPaymentView(&payments[i]))
	}
	return Page[PaymentView]{Items: views, Total: total, Page: page, Size: size}, nil
}

func (s *Service) GetLatestPayment(ctx context.Context, orderCode string) (PaymentView, error) {
	order, err := s.stores.Orders().GetByCode(ctx, orderCode)
	if err != nil {
		return PaymentView{}, err
	}

	payment, err := s.stores.Payments().LatestByOrder(ctx, order.ID)
	if err != nil {
		return PaymentView{}, err
	}
	return newPaymentView(payment), nil
}

func (s *Service) IsOrderPaid(ctx context.Context, orderCode string) (bool, error) {
	order, err := s.stores.Orders().GetByCode(ctx, orderCode)
	if err != nil {
		return false, err
	}
	return s.stores.Payments().IsOrderPaid(ctx, order.ID)
}
