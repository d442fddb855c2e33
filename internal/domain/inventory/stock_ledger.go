package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ReversalOf returns the transition tag under which compensating
// adjustments for the given forward transition are recorded
func ReversalOf(transition string) string {
	return transition + ".reversal"
}

// AdjustmentInput describes one product delta a transition wants applied
type AdjustmentInput struct {
	ProductID     uuid.UUID
	QuantityDelta int64
}

// StockLedger is the domain service over the adjustment log. It must be
// constructed around a repository scoped to the caller's transaction when
// adjustments for one transition have to commit as a single unit.
type StockLedger struct {
	adjustments StockAdjustmentRepository
}

// NewStockLedger creates a StockLedger over the given repository
func NewStockLedger(adjustments StockAdjustmentRepository) *StockLedger {
	return &StockLedger{adjustments: adjustments}
}

// CurrentStock returns the on-hand quantity for a product: the sum of all
// its adjustment deltas. Safe to call lock-free; the result is a snapshot.
func (l *StockLedger) CurrentStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	return l.adjustments.SumDeltaByProduct(ctx, productID)
}

// Apply records all adjustments for one document transition. Fails with
// ErrDuplicateAdjustment if any adjustment with the same cause already
// exists, before anything is written, so a retried transition cannot
// double-count. Returns the appended adjustments.
func (l *StockLedger) Apply(ctx context.Context, documentID uuid.UUID, transition string, inputs []AdjustmentInput) ([]StockAdjustment, error) {
	exists, err := l.adjustments.ExistsByCause(ctx, documentID, transition)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAdjustment
	}

	rows := make([]StockAdjustment, 0, len(inputs))
	for _, input := range inputs {
		adj, err := NewStockAdjustment(input.ProductID, input.QuantityDelta, documentID, transition)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *adj)
	}

	if err := l.adjustments.SaveAll(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Reverse appends the exact negation of every adjustment recorded under
// the given cause. Fails with ErrNothingToReverse when no forward
// adjustment exists, and with ErrDuplicateAdjustment when the cause was
// already reversed.
func (l *StockLedger) Reverse(ctx context.Context, documentID uuid.UUID, transition string) ([]StockAdjustment, error) {
	forward, err := l.adjustments.FindByCause(ctx, documentID, transition)
	if err != nil {
		return nil, err
	}
	if len(forward) == 0 {
		return nil, ErrNothingToReverse
	}

	reversal := ReversalOf(transition)
	exists, err := l.adjustments.ExistsByCause(ctx, documentID, reversal)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAdjustment
	}

	rows := make([]StockAdjustment, 0, len(forward))
	for idx := range forward {
		neg, err := forward[idx].Negated(reversal)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *neg)
	}

	if err := l.adjustments.SaveAll(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// HasApplied reports whether adjustments for the cause already exist.
// Used to distinguish a retried transition from a fresh conflicting one.
func (l *StockLedger) HasApplied(ctx context.Context, documentID uuid.UUID, transition string) (bool, error) {
	return l.adjustments.ExistsByCause(ctx, documentID, transition)
}
