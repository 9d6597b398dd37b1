package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// Display values substituted when an order's owner was soft-deleted. The order
// itself always survives the user.
const (
	deletedUserName  = "Deleted User"
	deletedUserEmail = "deleted@unavailable"
)

type OrderRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewOrderRepository(db DBTX, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Create persists the order and its item snapshots. Runs in whatever
// transaction the caller bound the repository to; a duplicate order code
// surfaces as domain.ErrDuplicateOrderCode so the caller can regenerate.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, order_code, user_id, total, status, shipping_address, phone, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $9)
	`, order.ID, order.OrderCode, order.UserID, order.Total, order.Status,
		order.ShippingAddress, order.Phone, order.Note, now)
	if err != nil {
		return translateUnique(err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, variant_id, product_name, variant_info, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.VariantID, item.ProductName, item.VariantInfo, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

const orderColumns = `
	o.id, o.order_code, o.user_id, o.total, o.status, o.shipping_address,
	o.phone, COALESCE(o.note, ''), o.created_at, o.updated_at,
	COALESCE(u.full_name, ''), COALESCE(u.email, ''), (u.id IS NULL OR u.deleted_at IS NOT NULL)`

func (r *OrderRepository) scanOrder(scan func(dest ...any) error) (*domain.Order, error) {
	order := &domain.Order{}
	var rawStatus string
	var ownerGone bool
	err := scan(&order.ID, &order.OrderCode, &order.UserID, &order.Total, &rawStatus,
		&order.ShippingAddress, &order.Phone, &order.Note, &order.CreatedAt, &order.UpdatedAt,
		&order.CustomerName, &order.CustomerEmail, &ownerGone)
	if err != nil {
		return nil, err
	}

	status, ok := domain.DecodeOrderStatus(rawStatus)
	if !ok {
		r.logger.Warn("unknown order status stored", "order_code", order.OrderCode, "raw_status", rawStatus)
	}
	order.Status = status

	if ownerGone {
		order.CustomerName = deletedUserName
		order.CustomerEmail = deletedUserEmail
	}
	return order, nil
}

func (r *OrderRepository) GetByCode(ctx context.Context, orderCode string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.order_code = $1
	`, orderCode)

	order, err := r.scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByCodeForUser enforces ownership in the query itself; an order belonging
// to someone else reads as not found.
func (r *OrderRepository) GetByCodeForUser(ctx context.Context, orderCode, userID string) (*domain.Order, error) {
	order, err := r.GetByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, size int) ([]domain.Order, int, error) {
	return r.list(ctx, `WHERE o.user_id = $1`, []any{userID}, page, size)
}

func (r *OrderRepository) ListAll(ctx context.Context, page, size int) ([]domain.Order, int, error) {
	return r.list(ctx, ``, nil, page, size)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, page, size int) ([]domain.Order, int, error) {
	return r.list(ctx, `WHERE o.status = $1`, []any{status}, page, size)
}

// list pages the order rows first and only then batch-fetches their items, so
// the row-multiplying item join can never corrupt the page boundaries.
func (r *OrderRepository) list(ctx context.Context, where string, args []any, page, size int) ([]domain.Order, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM orders o ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	listArgs := append(append([]any{}, args...), size, page*size)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2), listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	result := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, *o)
	}
	return result, total, nil
}

// attachItems loads items for all given orders in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, product_name, variant_info, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.ProductName,
			&item.VariantInfo, &item.Quantity, &item.UnitPrice); err != nil {
			return err
		}
		order := byID[item.OrderID]
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}
