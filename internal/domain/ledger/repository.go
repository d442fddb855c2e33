package ledger

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	// FindByID finds a document by ID with its line items loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)

	// FindAll finds documents with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Document, error)

	// Count counts documents matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a document and its line items
	Save(ctx context.Context, doc *Document) error

	// SaveWithLock updates a document with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict when the stored version does
	// not match the version the document was loaded at.
	SaveWithLock(ctx context.Context, doc *Document) error

	// Delete removes a document and its line items
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByDocument returns all payments against a document, ordered by
	// creation time
	FindByDocument(ctx context.Context, documentID uuid.UUID) ([]Payment, error)

	// Save persists a new payment
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment record entirely
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByDocument removes all payments for a document, returning the
	// number removed
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}
