package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/fashon-shop/fulfillment/internal/fulfillment"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Every
// repository runs over it, so one transaction can span a whole use case.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles all Postgres repositories over a single connection pool and
// implements fulfillment.Stores.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	users    *UserRepository
	catalog  *CatalogRepository
	carts    *CartRepository
	orders   *OrderRepository
	payments *PaymentRepository
	ledger   *LedgerRepository
}

func New(db *sql.DB, logger *slog.Logger) *Store {
	return newStore(db, db, logger)
}

func newStore(db *sql.DB, q DBTX, logger *slog.Logger) *Store {
	return &Store{
		db:       db,
		logger:   logger,
		users:    NewUserRepository(q),
		catalog:  NewCatalogRepository(q),
		carts:    NewCartRepository(q),
		orders:   NewOrderRepository(q, logger),
		payments: NewPaymentRepository(q, logger),
		ledger:   NewLedgerRepository(q),
	}
}

func (s *Store) Users() fulfillment.UserStore       { return s.users }
func (s *Store) Catalog() fulfillment.CatalogStore  { return s.catalog }
func (s *Store) Carts() fulfillment.CartStore       { return s.carts }
func (s *Store) Orders() fulfillment.OrderStore     { return s.orders }
func (s *Store) Payments() fulfillment.PaymentStore { return s.payments }
func (s *Store) Ledger() fulfillment.StockLedger    { return s.ledger }

// InTx runs fn inside a single database transaction. The Stores handed to fn
// is bound to the transaction; any error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(fulfillment.Stores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newStore(s.db, tx, s.logger)); err != nil {
		return err
	}

	return tx.Commit()
}
