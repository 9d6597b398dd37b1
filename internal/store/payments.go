package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

type PaymentRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPaymentRepository(db DBTX, logger *slog.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, method, amount, status, transaction_code, paid_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $9)
	`, payment.ID, payment.OrderID, payment.Method, payment.Amount, payment.Status,
		payment.TransactionCode, payment.PaidAt, payment.Notes, now)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, transaction_code = NULLIF($3, ''), paid_at = $4, notes = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $1
	`, payment.ID, payment.Status, payment.TransactionCode, payment.PaidAt, payment.Notes)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

const paymentColumns = `
	p.id, p.order_id, o.order_code, p.method, p.amount, p.status,
	COALESCE(p.transaction_code, ''), p.paid_at, COALESCE(p.notes, ''),
	p.created_at, p.updated_at`

func (r *PaymentRepository) scanPayment(scan func(dest ...any) error) (*domain.Payment, error) {
	p := &domain.Payment{}
	var rawStatus, rawMethod string
	err := scan(&p.ID, &p.OrderID, &p.OrderCode, &rawMethod, &p.Amount, &rawStatus,
		&p.TransactionCode, &p.PaidAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	status, ok := domain.DecodePaymentStatus(rawStatus)
	if !ok {
		r.logger.Warn("unknown payment status stored", "payment_id", p.ID, "raw_status", rawStatus)
	}
	p.Status = status

	method, ok := domain.DecodePaymentMethod(rawMethod)
	if !ok {
		r.logger.Warn("unknown payment method stored", "payment_id", p.ID, "raw_method", rawMethod)
	}
	p.Method = method

	return p, nil
}

// LatestByOrder returns the most recent payment attempt; confirm and fail
// always act on this row.
func (r *PaymentRepository) LatestByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.order_id = $1
		ORDER BY p.created_at DESC
		LIMIT 1
	`, orderID)

	payment, err := r.scanPayment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest payment: %w", err)
	}
	return payment, nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.order_id = $1
		ORDER BY p.created_at DESC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []domain.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// List filters the admin payment listing by optional status and method, with
// the owning order joined in the same read.
func (r *PaymentRepository) List(ctx context.Context, status *domain.PaymentStatus, method *domain.PaymentMethod, page, size int) ([]domain.Payment, int, error) {
	where := `WHERE ($1::text IS NULL OR p.status = $1) AND ($2::text IS NULL OR p.method = $2)`

	var statusArg, methodArg any
	if status != nil {
		statusArg = string(*status)
	}
	if method != nil {
		methodArg = string(*method)
	}

	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payments p `+where, statusArg, methodArg).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		`+where+`
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`, statusArg, methodArg, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []domain.Payment
	for rows.Next() {
		p, err := r.scanPayment(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *p)
	}
	return payments, total, rows.Err()
}

func (r *PaymentRepository) IsOrderPaid(ctx context.Context, orderID string) (bool, error) {
	var paid bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)
	`, orderID, domain.PaymentStatusPaid).Scan(&paid)
	if err != nil {
		return false, fmt.Errorf("check order paid: %w", err)
	}
	return paid, nil
}
