package fulfillment

import (
	"context"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

func (s *Service) GetOrder(ctx context.Context, userEmail, orderCode string) (OrderView, error) {
	var view OrderView
	user, err := s.resolveUser(ctx, s.stores, userEmail)
	if err != nil {
		return view, err
	}

	order, err := s.stores.Orders().GetByCodeForUser(ctx, orderCode, user.ID)
	if err != nil {
		return view, err
	}
	return newOrderView(order), nil
}

func (s *Service) GetOrderForAdmin(ctx context.Context, orderCode string) (OrderView, error) {
	order, err := s.stores.Orders().GetByCode(ctx, orderCode)
	if err != nil {
		return OrderView{}, err
	}
	return newOrderView(order), nil
}

func (s *Service) ListMyOrders(ctx context.Context, userEmail string, page, size int) (Page[OrderView], error) {
	var result Page[OrderView]
	user, err := s.resolveUser(ctx, s.stores, userEmail)
	if err != nil {
		return result, err
	}

	page, size = normalizePage(page, size)
	orders, total, err := s.stores.Orders().ListByUser(ctx, user.ID, page, size)
	if err != nil {
		return result, err
	}
	return orderPage(orders, total, page, size), nil
}

func (s *Service) ListAllOrders(ctx context.Context, page, size int) (Page[OrderView], error) {
	page, size = normalizePage(page, size)
	orders, total, err := s.stores.Orders().ListAll(ctx, page, size)
	if err != nil {
		return Page[OrderView]{}, err
	}
	return orderPage(orders, total, page, size), nil
}

func (s *Service) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, page, size int) (Page[OrderView], error) {
	page, size = normalizePage(page, size)
	orders, total, err := s.stores.Orders().ListByStatus(ctx, status, page, size)
	if err != nil {
		return Page[OrderView]{}, err
	}
	return orderPage(orders, total, page, size), nil
}

// CancelOrder cancels the caller's own order, subject to CanCancel.
func (s *Service) CancelOrder(ctx context.Context, userEmail, orderCode string) (OrderView, error) {
	return s.cancel(ctx, orderCode, &userEmail)
}

// CancelOrderByAdmin cancels any order regardless of owner.
func (s *Service) CancelOrderByAdmin(ctx context.Context, orderCode string) (OrderView, error) {
	return s.cancel(ctx, orderCode, nil)
}

func (s *Service) cancel(ctx context.Context, orderCode string, userEmail *string) (OrderView, error) {
	var order *domain.Order

	err := s.stores.InTx(ctx, func(tx Stores) error {
		var err error
		if userEmail != nil {
			var user *domain.User
			user, err = s.resolveUser(ctx, tx, *userEmail)
			if err != nil {
				return err
			}
			order, err = tx.Orders().GetByCodeForUser(ctx, orderCode, user.ID)
		} else {
			order, err = tx.Orders().GetByCode(ctx, orderCode)
		}
		if err != nil {
			return err
		}

		if !order.CanCancel() {
			return domain.ErrOrderNotCancellable
		}

		s.returnStock(ctx, tx, order)

		if err := tx.Orders().UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCancelled.Add(ctx, 1)
	}
	s.publish(ctx, TopicOrderCancelled, order.OrderCode, domain.OrderCancelledEvent{
		OrderID:       order.ID,
		OrderCode:     order.OrderCode,
		CustomerEmail: order.CustomerEmail,
		Timestamp:     s.now(),
	})
	s.logger.Info("order cancelled", "order_code", order.OrderCode)

	return newOrderView(order), nil
}

// returnStock puts cancelled lines back into the ledger. Order items keep
// only a best-effort variant reference next to their text snapshot, so lines
// whose variant no longer resolves are skipped with a warning instead of
// failing the cancellation.
func (s *Service) returnStock(ctx context.Context, tx Stores, order *domain.Order) {
	for _, item := range order.Items {
		if item.VariantID == nil {
			s.logger.Warn("cannot return stock, order item has no variant reference",
				"order_code", order.OrderCode, "product_name", item.ProductName)
			continue
		}
		_, err := tx.Ledger().Add(ctx, *item.VariantID, item.Quantity, domain.StockReasonOrderCancelled, &order.ID)
		if err == domain.ErrVariantNotFound {
			s.logger.Warn("cannot return stock, variant deleted",
				"order_code", order.OrderCode, "variant_id", *item.VariantID)
			continue
		}
		if err != nil {
			s.logger.Error("failed to return stock", "error", err,
				"order_code", order.OrderCode, "variant_id", *item.VariantID)
			continue
		}
		if s.metrics != nil {
			s.metrics.StockReturned.Add(ctx, int64(item.Quantity))
		}
	}
}

// UpdateOrderStatus drives the order state machine from the admin surface. A
// transition into cancelled goes through the same stock-return path as a
// customer cancellation.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderCode string, newStatus domain.OrderStatus) (OrderView, error) {
	if newStatus == domain.OrderStatusCancelled {
		return s.CancelOrderByAdmin(ctx, orderCode)
	}

	var order *domain.Order
	err := s.stores.InTx(ctx, func(tx Stores) error {
		var err error
		order, err = tx.Orders().GetByCode(ctx, orderCode)
		if err != nil {
			return err
		}

		if err := domain.ValidateOrderTransition(order.Status, newStatus); err != nil {
			return err
		}

		if err := tx.Orders().UpdateStatus(ctx, order.ID, newStatus); err != nil {
			return err
		}
		order.Status = newStatus
		return nil
	})
	if err != nil {
		return OrderView{}, err
	}

	s.logger.Info("order status updated", "order_code", order.OrderCode, "status", order.Status)
	return newOrderView(order), nil
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return page, size
}

func orderPage(orders []domain.Order, total, page, size int) Page[OrderView] {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return Page[OrderView]{Items: views, Total: total, Page: page, Size: size}
}
