package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// CatalogRepository reads variants joined with their product so callers get
// the live name and base price in one query.
type CatalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const variantColumns = `
	v.id, v.product_id, p.name, p.base_price, v.sku, COALESCE(v.color, ''),
	COALESCE(v.size, ''), v.stock_quantity, v.price_adjustment, v.is_available`

func (r *CatalogRepository) scanVariant(row *sql.Row) (*domain.Variant, error) {
	v := &domain.Variant{}
	err := row.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.BasePrice, &v.SKU,
		&v.Color, &v.Size, &v.StockQuantity, &v.PriceAdjustment, &v.IsAvailable)
	if err == sql.ErrNoRows {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan variant: %w", err)
	}
	return v, nil
}

func (r *CatalogRepository) FindVariant(ctx context.Context, id string) (*domain.Variant, error) {
	return r.scanVariant(r.db.QueryRowContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND v.deleted_at IS NULL
	`, id))
}

func (r *CatalogRepository) FindVariantBySKU(ctx context.Context, sku string) (*domain.Variant, error) {
	return r.scanVariant(r.db.QueryRowContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.sku = $1 AND v.deleted_at IS NULL
	`, sku))
}

// CreateVariant inserts a new variant; a duplicate SKU surfaces as
// domain.ErrDuplicateSKU.
func (r *CatalogRepository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, sku, color, size, stock_quantity, price_adjustment, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $9)
	`, v.ID, v.ProductID, v.SKU, v.Color, v.Size, v.StockQuantity, v.PriceAdjustment, v.IsAvailable, time.Now().UTC())
	if err != nil {
		return translateUnique(err)
	}
	return nil
}
