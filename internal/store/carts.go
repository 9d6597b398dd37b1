package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

type CartRepository struct {
	db DBTX
}

func NewCartRepository(db DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUserWithItems loads the cart and all its lines with live variant and
// product data in a single round trip per shape: cart row, then items joined
// with their variants.
func (r *CartRepository) GetByUserWithItems(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.variant_id, ci.quantity, ci.created_at,
		       v.id, v.product_id, p.name, p.base_price, v.sku, COALESCE(v.color, ''),
		       COALESCE(v.size, ''), v.stock_quantity, v.price_adjustment, v.is_available
		FROM cart_items ci
		JOIN product_variants v ON v.id = ci.variant_id
		JOIN products p ON p.id = v.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.CartItem
		v := &domain.Variant{}
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt,
			&v.ID, &v.ProductID, &v.ProductName, &v.BasePrice, &v.SKU, &v.Color,
			&v.Size, &v.StockQuantity, &v.PriceAdjustment, &v.IsAvailable); err != nil {
			return nil, err
		}
		item.Variant = v
		cart.Items = append(cart.Items, item)
	}

	return cart, rows.Err()
}

// GetOrCreate returns the user's cart, creating an empty one on first access.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.GetByUserWithItems(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != domain.ErrCartNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	cart = &domain.Cart{ID: uuid.New().String(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
	`, cart.ID, cart.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (r *CartRepository) FindItem(ctx context.Context, itemID string) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, variant_id, quantity, created_at
		FROM cart_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return item, nil
}

func (r *CartRepository) FindItemByVariant(ctx context.Context, cartID, variantID string) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, variant_id, quantity, created_at
		FROM cart_items
		WHERE cart_id = $1 AND variant_id = $2
	`, cartID, variantID).Scan(&item.ID, &item.CartID, &item.VariantID, &item.Quantity, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find cart item by variant: %w", err)
	}
	return item, nil
}

func (r *CartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, variant_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.CartID, item.VariantID, item.Quantity, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $2 WHERE id = $1
	`, itemID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1
	`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// ClearItems empties the cart; the cart row itself persists for reuse.
func (r *CartRepository) ClearItems(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1
	`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
