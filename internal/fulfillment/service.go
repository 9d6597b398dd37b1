package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fashon-shop/fulfillment/internal/domain"
	"github.com/fashon-shop/fulfillment/internal/telemetry"
)

// Kafka topics for fulfillment events.
const (
	TopicOrderCreated     = "order.created"
	TopicOrderCancelled   = "order.cancelled"
	TopicPaymentConfirmed = "payment.confirmed"
)

const DefaultPageSize = 20

// Service is the fulfillment orchestrator: it composes the cart, order,
// payment and stock-ledger stores into atomic use cases. Identity is always
// an explicit parameter; there is no ambient current-user context.
type Service struct {
	stores  Stores
	events  EventPublisher
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(stores Stores, events EventPublisher, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	return &Service{
		stores:  stores,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) resolveUser(ctx context.Context, stores Stores, email string) (*domain.User, error) {
	user, err := stores.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", email, err)
	}
	return user, nil
}

// publish sends an event after a committed use case. Failures are logged and
// swallowed: the business operation already succeeded.
func (s *Service) publish(ctx context.Context, topic, key string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, key, event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "topic", topic, "key", key)
	}
}

func (s *Service) GetCart(ctx context.Context, userEmail string) (CartView, error) {
	var view CartView
	user, err := s.resolveUser(ctx, s.stores, userEmail)
	if err != nil {
		return view, err
	}

	cart, err := s.stores.Carts().GetOrCreate(ctx, user.ID)
	if err != nil {
		return view, err
	}
	return newCartView(cart), nil
}

// AddToCart appends a variant to the user's cart, merging with an existing
// line for the same variant. The stock check runs against the post-merge
// quantity; it is optimistic and is repeated authoritatively at checkout.
func (s *Service) AddToCart(ctx context.Context, userEmail, variantID string, quantity int) (CartView, error) {
	var view CartView
	if quantity < 1 {
		return view, fmt.Errorf("quantity must be at least 1")
	}

	err := s.stores.InTx(ctx, func(tx Stores) error {
		user, err := s.resolveUser(ctx, tx, userEmail)
		if err != nil {
			return err
		}

		variant, err := tx.Catalog().FindVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if !variant.IsAvailable {
			return domain.ErrVariantNotFound
		}

		cart, err := tx.Carts().GetOrCreate(ctx, user.ID)
		if err != nil {
			return err
		}

		requested := quantity
		existing, err := tx.Carts().FindItemByVariant(ctx, cart.ID, variant.ID)
		switch err {
		case nil:
			requested += existing.Quantity
		case domain.ErrCartItemNotFound:
			existing = nil
		default:
			return err
		}

		if variant.StockQuantity < requested {
			return &domain.InsufficientStockError{SKU: variant.SKU, Available: variant.StockQuantity, Requested: requested}
		}

		if existing != nil {
			return tx.Carts().UpdateItemQuantity(ctx, existing.ID, requested)
		}
		return tx.Carts().AddItem(ctx, &domain.CartItem{
			CartID:    cart.ID,
			VariantID: variant.ID,
			Quantity:  quantity,
		})
	})
	if err != nil {
		return view, err
	}

	return s.GetCart(ctx, userEmail)
}

func (s *Service) UpdateCartItem(ctx context.Context, userEmail, cartItemID string, quantity int) (CartView, error) {
	var view CartView
	if quantity < 1 {
		return view, fmt.Errorf("quantity must be at least 1")
	}

	err := s.stores.InTx(ctx, func(tx Stores) error {
		item, err := s.ownedCartItem(ctx, tx, userEmail, cartItemID)
		if err != nil {
			return err
		}

		variant, err := tx.Catalog().FindVariant(ctx, item.VariantID)
		if err != nil {
			return err
		}
		if variant.StockQuantity < quantity {
			return &domain.InsufficientStockError{SKU: variant.SKU, Available: variant.StockQuantity, Requested: quantity}
		}

		return tx.Carts().UpdateItemQuantity(ctx, item.ID, quantity)
	})
	if err != nil {
		return view, err
	}

	return s.GetCart(ctx, userEmail)
}

func (s *Service) RemoveCartItem(ctx context.Context, userEmail, cartItemID string) (CartView, error) {
	var view CartView
	err := s.stores.InTx(ctx, func(tx Stores) error {
		item, err := s.ownedCartItem(ctx, tx, userEmail, cartItemID)
		if err != nil {
			return err
		}
		return tx.Carts().DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return view, err
	}

	return s.GetCart(ctx, userEmail)
}

func (s *Service) ClearCart(ctx context.Context, userEmail string) error {
	return s.stores.InTx(ctx, func(tx Stores) error {
		user, err := s.resolveUser(ctx, tx, userEmail)
		if err != nil {
			return err
		}

		cart, err := tx.Carts().GetByUserWithItems(ctx, user.ID)
		if err == domain.ErrCartNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Carts().ClearItems(ctx, cart.ID)
	})
}

// ownedCartItem loads a cart item and verifies it belongs to the caller's
// cart; a foreign item is an ownership violation, not a missing row.
func (s *Service) ownedCartItem(ctx context.Context, tx Stores, userEmail, cartItemID string) (*domain.CartItem, error) {
	user, err := s.resolveUser(ctx, tx, userEmail)
	if err != nil {
		return nil, err
	}

	cart, err := tx.Carts().GetByUserWithItems(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	item, err := tx.Carts().FindItem(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, domain.ErrUnauthorized
	}
	return item, nil
}
