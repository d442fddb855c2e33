package ledger

import (
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDocument = "Document"

// Event type constants
const (
	EventTypeDocumentCreated       = "DocumentCreated"
	EventTypeDocumentStatusChanged = "DocumentStatusChanged"
	EventTypeDocumentDeleted       = "DocumentDeleted"
	EventTypePaymentRecorded       = "PaymentRecorded"
	EventTypePaymentDeleted        = "PaymentDeleted"
)

// DocumentCreatedEvent is raised when a new document is created
type DocumentCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID     uuid.UUID    `json:"document_id"`
	Kind           DocumentKind `json:"kind"`
	CounterpartyID uuid.UUID    `json:"counterparty_id"`
	ItemCount      int          `json:"item_count"`
}

// NewDocumentCreatedEvent creates a new DocumentCreatedEvent
func NewDocumentCreatedEvent(doc *Document) *DocumentCreatedEvent {
	return &DocumentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentCreated, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		Kind:            doc.Kind,
		CounterpartyID:  doc.CounterpartyID,
		ItemCount:       len(doc.Items),
	}
}

// DocumentStatusChangedEvent is raised when a document status transition commits
type DocumentStatusChangedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID      `json:"document_id"`
	Kind       DocumentKind   `json:"kind"`
	FromStatus DocumentStatus `json:"from_status"`
	ToStatus   DocumentStatus `json:"to_status"`
}

// NewDocumentStatusChangedEvent creates a new DocumentStatusChangedEvent
func NewDocumentStatusChangedEvent(doc *Document, from, to DocumentStatus) *DocumentStatusChangedEvent {
	return &DocumentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentStatusChanged, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		Kind:            doc.Kind,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// DocumentDeletedEvent is raised when a document and its dependents are removed
type DocumentDeletedEvent struct {
	shared.BaseDomainEvent
	DocumentID      uuid.UUID    `json:"document_id"`
	Kind            DocumentKind `json:"kind"`
	PaymentsRemoved int          `json:"payments_removed"`
}

// NewDocumentDeletedEvent creates a new DocumentDeletedEvent
func NewDocumentDeletedEvent(doc *Document, paymentsRemoved int) *DocumentDeletedEvent {
	return &DocumentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentDeleted, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		Kind:            doc.Kind,
		PaymentsRemoved: paymentsRemoved,
	}
}

// PaymentRecordedEvent is raised when a payment is accepted against a document
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	DocumentID  uuid.UUID     `json:"document_id"`
	PaymentID   uuid.UUID     `json:"payment_id"`
	AmountMinor int64         `json:"amount_minor"`
	Method      PaymentMethod `json:"method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(doc *Document, payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		PaymentID:       payment.ID,
		AmountMinor:     payment.AmountMinor,
		Method:          payment.Method,
	}
}

// PaymentDeletedEvent is raised when a payment record is removed
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	DocumentID  uuid.UUID `json:"document_id"`
	PaymentID   uuid.UUID `json:"payment_id"`
	AmountMinor int64     `json:"amount_minor"`
}

// NewPaymentDeletedEvent creates a new PaymentDeletedEvent
func NewPaymentDeletedEvent(doc *Document, payment *Payment) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentDeleted, AggregateTypeDocument, doc.ID),
		DocumentID:      doc.ID,
		PaymentID:       payment.ID,
		AmountMinor:     payment.AmountMinor,
	}
}
