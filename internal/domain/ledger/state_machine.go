package ledger

import (
	"github.com/google/uuid"
)

// TransitionReceive is the cause tag recorded with stock adjustments made
// when a purchase order is received. The (document, transition) pair keys
// the idempotency guard and the later reversal.
const TransitionReceive = "receive"

// StockEffect describes one stock adjustment a transition requires. The
// state machine only plans effects; committing them atomically with the
// status write is the caller's job.
type StockEffect struct {
	ProductID     uuid.UUID
	QuantityDelta int64
}

// TransitionPlan is the outcome of validating a status change. Either
// Effects is non-empty (forward adjustments to apply as one unit), or
// ReverseTransition names a prior cause whose adjustments must be negated,
// or both are empty for a side-effect-free state change.
type TransitionPlan struct {
	From              DocumentStatus
	To                DocumentStatus
	Effects           []StockEffect
	ReverseTransition string
}

// HasStockEffects returns true if committing the plan touches the stock ledger
func (p *TransitionPlan) HasStockEffects() bool {
	return len(p.Effects) > 0 || p.ReverseTransition != ""
}

// CanTransition reports whether a document of the given kind may move
// from one status to another. The tables are closed: anything not listed
// is illegal, including self-transitions.
func CanTransition(kind DocumentKind, from, to DocumentStatus) bool {
	switch kind {
	case KindSalesOrder:
		switch from {
		case StatusPending:
			return to == StatusProcessing || to == StatusCancelled
		case StatusProcessing:
			return to == StatusCompleted || to == StatusCancelled
		}
		return false // completed and cancelled are terminal
	case KindPurchaseOrder:
		switch from {
		case StatusPending:
			return to == StatusReceived || to == StatusCancelled
		case StatusReceived:
			// The single allowed reversal out of a terminal-looking state
			return to == StatusCancelled
		}
		return false // cancelled is terminal
	}
	return false
}

// PlanTransition validates a status change for the document and returns
// the stock effects it entails. Fails with ErrIllegalTransition for any
// move the tables do not permit.
//
// Sales order transitions never touch stock. Purchase order
// pending->received adds each line's quantity under the "receive" cause;
// received->cancelled reverses that cause; pending->cancelled has no
// stock effect because nothing was ever received.
func PlanTransition(doc *Document, target DocumentStatus) (*TransitionPlan, error) {
	if !target.IsValidFor(doc.Kind) {
		return nil, ErrIllegalTransition
	}
	if !CanTransition(doc.Kind, doc.Status, target) {
		return nil, ErrIllegalTransition
	}

	plan := &TransitionPlan{From: doc.Status, To: target}

	if doc.Kind != KindPurchaseOrder {
		return plan, nil
	}

	switch {
	case doc.Status == StatusPending && target == StatusReceived:
		plan.Effects = make([]StockEffect, 0, len(doc.Items))
		for idx := range doc.Items {
			plan.Effects = append(plan.Effects, StockEffect{
				ProductID:     doc.Items[idx].ProductID,
				QuantityDelta: doc.Items[idx].Quantity,
			})
		}
	case doc.Status == StatusReceived && target == StatusCancelled:
		plan.ReverseTransition = TransitionReceive
	}

	return plan, nil
}
