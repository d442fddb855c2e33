package inventory

import (
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Errors raised by the stock ledger
var (
	// ErrDuplicateAdjustment means an adjustment with the same cause key
	// already exists; re-processing the same transition must be a no-op,
	// not a double count
	ErrDuplicateAdjustment = shared.NewDomainError("DUPLICATE_ADJUSTMENT", "Stock adjustment for this cause already exists")
	// ErrNothingToReverse means no forward adjustment exists for the cause
	// being reversed
	ErrNothingToReverse = shared.NewDomainError("NOTHING_TO_REVERSE", "No forward adjustment exists for this cause")
)

// StockAdjustment is one immutable signed delta to a product's on-hand
// quantity. Current stock for a product is the sum of all its deltas.
// Adjustments are never deleted, only offset by a compensating adjustment,
// which keeps the log auditable and makes transitions idempotent: the
// (document, transition) cause key admits at most one application.
type StockAdjustment struct {
	shared.BaseEntity
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_adj_product"`
	QuantityDelta int64     `gorm:"not null"`
	DocumentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_adj_cause,priority:1"`
	Transition    string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_stock_adj_cause,priority:2"`
	// ProductID completes the cause uniqueness so one transition can touch
	// several products
	CauseProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_adj_cause,priority:3"`
}

// TableName returns the table name for GORM
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// NewStockAdjustment creates a stock adjustment tied to its causing
// document transition
func NewStockAdjustment(productID uuid.UUID, delta int64, documentID uuid.UUID, transition string) (*StockAdjustment, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if documentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document ID cannot be empty")
	}
	if transition == "" {
		return nil, shared.NewDomainError("INVALID_TRANSITION", "Transition cannot be empty")
	}
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity delta cannot be zero")
	}

	return &StockAdjustment{
		BaseEntity:     shared.NewBaseEntity(),
		ProductID:      productID,
		QuantityDelta:  delta,
		DocumentID:     documentID,
		Transition:     transition,
		CauseProductID: productID,
	}, nil
}

// IsIncrease returns true if the adjustment adds stock
func (a *StockAdjustment) IsIncrease() bool {
	return a.QuantityDelta > 0
}

// Negated returns a compensating adjustment under the given reversal
// transition tag
func (a *StockAdjustment) Negated(reversalTransition string) (*StockAdjustment, error) {
	return NewStockAdjustment(a.ProductID, -a.QuantityDelta, a.DocumentID, reversalTransition)
}
