package store

import (
	"errors"

	"github.com/lib/pq"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

const uniqueViolation = "23505"

// translateUnique maps Postgres unique-constraint violations onto the domain
// error taxonomy so raw driver errors never reach callers.
func translateUnique(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}

	switch pqErr.Constraint {
	case "product_variants_sku_key":
		return domain.ErrDuplicateSKU
	case "orders_order_code_key":
		return domain.ErrDuplicateOrderCode
	case "users_email_key":
		return domain.ErrDuplicateEmail
	}
	return err
}
