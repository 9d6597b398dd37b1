package fulfillment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// orderCodeRetries bounds regeneration when a generated code collides with an
// existing one; the unique constraint is the actual guarantee.
const orderCodeRetries = 3

// CreateOrderFromCart converts the caller's cart into a committed order. The
// whole pipeline runs as one transaction: stock re-validation against live
// quantities, order + item-snapshot creation, per-line ledger deduction,
// pending-payment creation and cart clearing. Any failure, including a stock
// race detected at deduction time, rolls everything back.
func (s *Service) CreateOrderFromCart(ctx context.Context, userEmail, shippingAddress, phone, note string, method domain.PaymentMethod) (OrderView, error) {
	var view OrderView
	if shippingAddress == "" {
		return view, fmt.Errorf("shipping address is required")
	}
	if _, ok := domain.DecodePaymentMethod(string(method)); !ok {
		return view, fmt.Errorf("unknown payment method %q", method)
	}

	var order *domain.Order
	var err error
	for attempt := 0; attempt < orderCodeRetries; attempt++ {
		order, err = s.checkout(ctx, userEmail, shippingAddress, phone, note, method)
		if err != domain.ErrDuplicateOrderCode {
			break
		}
		s.logger.Warn("order code collision, regenerating", "attempt", attempt+1)
	}
	if err != nil {
		return view, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Add(ctx, 1)
		s.metrics.StockDeducted.Add(ctx, int64(order.TotalItems()))
	}
	s.publish(ctx, TopicOrderCreated, order.OrderCode, domain.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderCode:     order.OrderCode,
		CustomerEmail: order.CustomerEmail,
		Total:         order.Total,
		ItemCount:     order.TotalItems(),
		Timestamp:     order.CreatedAt,
	})
	s.logger.Info("order created", "order_code", order.OrderCode, "user_email", userEmail, "total", order.Total)

	return newOrderView(order), nil
}

func (s *Service) checkout(ctx context.Context, userEmail, shippingAddress, phone, note string, method domain.PaymentMethod) (*domain.Order, error) {
	var order *domain.Order

	err := s.stores.InTx(ctx, func(tx Stores) error {
		user, err := s.resolveUser(ctx, tx, userEmail)
		if err != nil {
			return err
		}

		cart, err := tx.Carts().GetByUserWithItems(ctx, user.ID)
		if err == domain.ErrCartNotFound {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		// Authoritative stock check against live quantities, and pricing from
		// the live catalog rather than anything cached on the cart. Fail fast
		// on the first violation.
		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(cart.Items))
		for _, cartItem := range cart.Items {
			variant := cartItem.Variant
			if variant == nil {
				return domain.ErrVariantNotFound
			}
			if variant.StockQuantity < cartItem.Quantity {
				return &domain.InsufficientStockError{
					SKU:       variant.SKU,
					Available: variant.StockQuantity,
					Requested: cartItem.Quantity,
				}
			}

			unitPrice := variant.FinalPrice()
			total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(cartItem.Quantity))))

			variantID := variant.ID
			items = append(items, domain.OrderItem{
				VariantID:   &variantID,
				ProductName: variant.ProductName,
				VariantInfo: variant.Descriptor(),
				Quantity:    cartItem.Quantity,
				UnitPrice:   unitPrice,
			})
		}

		order = &domain.Order{
			OrderCode:       domain.NewOrderCode(s.now()),
			UserID:          user.ID,
			CustomerName:    user.FullName,
			CustomerEmail:   user.Email,
			Total:           total,
			Status:          domain.OrderStatusPending,
			ShippingAddress: shippingAddress,
			Phone:           phone,
			Note:            note,
			Items:           items,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		// Deduct after the order exists so ledger rows can reference it. A
		// failure here (stock changed since the check above) aborts the whole
		// transaction, order included.
		for _, item := range order.Items {
			if _, err := tx.Ledger().Deduct(ctx, *item.VariantID, item.Quantity, domain.StockReasonOrderCreated, &order.ID); err != nil {
				return err
			}
		}

		if err := tx.Payments().Create(ctx, &domain.Payment{
			OrderID:   order.ID,
			OrderCode: order.OrderCode,
			Method:    method,
			Amount:    order.Total,
			Status:    domain.PaymentStatusPending,
		}); err != nil {
			return err
		}

		return tx.Carts().ClearItems(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
