package domain

import "time"

// Ledger reasons recorded with every automatic stock movement.
const (
	StockReasonOrderCreated   = "order created - stock deducted"
	StockReasonOrderCancelled = "order cancelled - stock returned"
)

// StockTransaction is one append-only ledger row. QuantityDelta is signed
// (negative for deductions) and ResultingStock is the variant's balance right
// after the change; replaying all rows for a variant in creation order must
// reproduce its current stock exactly.
type StockTransaction struct {
	ID             string    `json:"id"`
	VariantID      string    `json:"variant_id"`
	QuantityDelta  int       `json:"quantity_delta"`
	Reason         string    `json:"reason"`
	OrderID        *string   `json:"order_id,omitempty"`
	ResultingStock int       `json:"resulting_stock"`
	CreatedAt      time.Time `json:"created_at"`
}
