package inventory

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// StockAdjustmentRepository defines the interface for adjustment
// persistence. The log is append-only: there is no update or delete.
type StockAdjustmentRepository interface {
	// SaveAll appends a batch of adjustments. Callers needing the batch
	// to be atomic must provide a transaction-scoped repository.
	SaveAll(ctx context.Context, adjustments []StockAdjustment) error

	// FindByCause returns the adjustments recorded under one
	// (document, transition) cause
	FindByCause(ctx context.Context, documentID uuid.UUID, transition string) ([]StockAdjustment, error)

	// ExistsByCause reports whether any adjustment exists for the cause
	ExistsByCause(ctx context.Context, documentID uuid.UUID, transition string) (bool, error)

	// SumDeltaByProduct returns the sum of all deltas for a product
	SumDeltaByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// FindByProduct returns a product's adjustment history
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockAdjustment, error)
}
