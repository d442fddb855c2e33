package ledger

import (
	"fmt"

	"github.com/backoffice/ledger/internal/domain/shared"
)

// Ledger error taxonomy. Every rejected command maps to exactly one of
// these so the API layer can translate codes to transport status codes.
var (
	ErrInvalidLineItem     = shared.NewDomainError("INVALID_LINE_ITEM", "Line item is invalid")
	ErrInvalidAmount       = shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	ErrOverpaymentRejected = shared.NewDomainError("OVERPAYMENT_REJECTED", "Payment would exceed the remaining balance")
	ErrIllegalTransition   = shared.NewDomainError("ILLEGAL_TRANSITION", "Status transition is not permitted")
	ErrDocumentNotFound    = shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	ErrPaymentNotFound     = shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
)

// DeletionBlockedReason identifies why a purchase order deletion was refused
type DeletionBlockedReason string

const (
	// DeletionBlockedReceived means the order has been received and its
	// stock effects are live
	DeletionBlockedReceived DeletionBlockedReason = "received"
	// DeletionBlockedHasBalance means payments are recorded against the
	// order but do not settle it
	DeletionBlockedHasBalance DeletionBlockedReason = "has_balance"
)

// DeletionBlockedError is returned when a purchase order cannot be
// deleted. It carries the reason so callers can render the matching
// guidance message.
type DeletionBlockedError struct {
	Reason DeletionBlockedReason
}

// Error implements the error interface
func (e *DeletionBlockedError) Error() string {
	switch e.Reason {
	case DeletionBlockedReceived:
		return "cannot delete a received purchase order"
	case DeletionBlockedHasBalance:
		return "settle or delete the remaining payments before deleting"
	default:
		return fmt.Sprintf("deletion blocked: %s", e.Reason)
	}
}

// Code returns the stable domain error code
func (e *DeletionBlockedError) Code() string {
	return "DELETION_BLOCKED"
}

// NewDeletionBlockedError creates a DeletionBlockedError with the given reason
func NewDeletionBlockedError(reason DeletionBlockedReason) *DeletionBlockedError {
	return &DeletionBlockedError{Reason: reason}
}
