package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// LedgerRepository owns variant stock counters and the append-only
// inventory_transactions log. Variant stock is never written anywhere else.
type LedgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Deduct atomically decrements a variant's stock and appends a ledger row with
// the post-decrement balance. The conditional UPDATE serializes concurrent
// deductions on the same variant: the row lock plus the stock_quantity guard
// means two checkouts can never jointly oversell.
func (r *LedgerRepository) Deduct(ctx context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error) {
	var sku string
	var remaining int
	err := r.db.QueryRowContext(ctx, `
		UPDATE product_variants
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING sku, stock_quantity
	`, variantID, quantity).Scan(&sku, &remaining)
	if err == sql.ErrNoRows {
		return nil, r.insufficientStock(ctx, variantID, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("deduct stock: %w", err)
	}

	return r.append(ctx, variantID, -quantity, reason, orderID, remaining)
}

// Add increments stock. No upper bound: manual restocking is trusted.
func (r *LedgerRepository) Add(ctx context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error) {
	var remaining int
	err := r.db.QueryRowContext(ctx, `
		UPDATE product_variants
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock_quantity
	`, variantID, quantity).Scan(&remaining)
	if err == sql.ErrNoRows {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add stock: %w", err)
	}

	return r.append(ctx, variantID, quantity, reason, orderID, remaining)
}

func (r *LedgerRepository) append(ctx context.Context, variantID string, delta int, reason string, orderID *string, resulting int) (*domain.StockTransaction, error) {
	txn := &domain.StockTransaction{
		ID:             uuid.New().String(),
		VariantID:      variantID,
		QuantityDelta:  delta,
		Reason:         reason,
		OrderID:        orderID,
		ResultingStock: resulting,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory_transactions (id, variant_id, quantity_delta, reason, order_id, resulting_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, txn.ID, txn.VariantID, txn.QuantityDelta, txn.Reason, txn.OrderID, txn.ResultingStock, txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append stock transaction: %w", err)
	}

	return txn, nil
}

func (r *LedgerRepository) insufficientStock(ctx context.Context, variantID string, requested int) error {
	var sku string
	var available int
	err := r.db.QueryRowContext(ctx, `
		SELECT sku, stock_quantity FROM product_variants WHERE id = $1
	`, variantID).Scan(&sku, &available)
	if err == sql.ErrNoRows {
		return domain.ErrVariantNotFound
	}
	if err != nil {
		return fmt.Errorf("load variant for stock error: %w", err)
	}
	return &domain.InsufficientStockError{SKU: sku, Available: available, Requested: requested}
}

func (r *LedgerRepository) HasEnoughStock(ctx context.Context, variantID string, quantity int) (bool, error) {
	stock, err := r.CurrentStock(ctx, variantID)
	if err != nil {
		return false, err
	}
	return stock >= quantity, nil
}

// CurrentStock returns 0 for a missing variant rather than an error; read
// paths stay permissive.
func (r *LedgerRepository) CurrentStock(ctx context.Context, variantID string) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx, `
		SELECT stock_quantity FROM product_variants WHERE id = $1
	`, variantID).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current stock: %w", err)
	}
	return stock, nil
}

// TransactionsForVariant returns the ledger in creation order, so replaying
// the deltas reproduces the variant's current stock.
func (r *LedgerRepository) TransactionsForVariant(ctx context.Context, variantID string) ([]domain.StockTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, variant_id, quantity_delta, reason, order_id, resulting_stock, created_at
		FROM inventory_transactions
		WHERE variant_id = $1
		ORDER BY created_at, id
	`, variantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txns []domain.StockTransaction
	for rows.Next() {
		var txn domain.StockTransaction
		if err := rows.Scan(&txn.ID, &txn.VariantID, &txn.QuantityDelta, &txn.Reason, &txn.OrderID, &txn.ResultingStock, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}
