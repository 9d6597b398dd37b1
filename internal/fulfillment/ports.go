package fulfillment

import (
	"context"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// The orchestrator consumes its collaborators through these narrow ports.
// internal/store implements them over Postgres; tests implement them in memory.

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type CatalogStore interface {
	FindVariant(ctx context.Context, id string) (*domain.Variant, error)
	FindVariantBySKU(ctx context.Context, sku string) (*domain.Variant, error)
}

type CartStore interface {
	GetByUserWithItems(ctx context.Context, userID string) (*domain.Cart, error)
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	FindItem(ctx context.Context, itemID string) (*domain.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID string) (*domain.CartItem, error)
	AddItem(ctx context.Context, item *domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	ClearItems(ctx context.Context, cartID string) error
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByCode(ctx context.Context, orderCode string) (*domain.Order, error)
	GetByCodeForUser(ctx context.Context, orderCode, userID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ListByUser(ctx context.Context, userID string, page, size int) ([]domain.Order, int, error)
	ListAll(ctx context.Context, page, size int) ([]domain.Order, int, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, page, size int) ([]domain.Order, int, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	LatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)
	List(ctx context.Context, status *domain.PaymentStatus, method *domain.PaymentMethod, page, size int) ([]domain.Payment, int, error)
	IsOrderPaid(ctx context.Context, orderID string) (bool, error)
}

// StockLedger is the only mutation path for variant stock. Every deduct/add
// pairs the counter change with exactly one append-only transaction row.
type StockLedger interface {
	Deduct(ctx context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error)
	Add(ctx context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error)
	HasEnoughStock(ctx context.Context, variantID string, quantity int) (bool, error)
	CurrentStock(ctx context.Context, variantID string) (int, error)
	TransactionsForVariant(ctx context.Context, variantID string) ([]domain.StockTransaction, error)
}

// Stores bundles the ports and provides the atomic unit of work. InTx hands
// the callback a Stores bound to one transaction; an error rolls back every
// mutation made through it.
type Stores interface {
	Users() UserStore
	Catalog() CatalogStore
	Carts() CartStore
	Orders() OrderStore
	Payments() PaymentStore
	Ledger() StockLedger
	InTx(ctx context.Context, fn func(Stores) error) error
}

// EventPublisher receives domain events after a use case commits. Publication
// is best-effort; a broker failure never fails the business operation.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
