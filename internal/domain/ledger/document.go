package ledger

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentKind discriminates the two document variants the ledger tracks
type DocumentKind string

const (
	// KindSalesOrder is a customer-facing sales order
	KindSalesOrder DocumentKind = "SALES_ORDER"
	// KindPurchaseOrder is a supplier-facing purchase order
	KindPurchaseOrder DocumentKind = "PURCHASE_ORDER"
)

// IsValid checks if the kind is a known DocumentKind
func (k DocumentKind) IsValid() bool {
	return k == KindSalesOrder || k == KindPurchaseOrder
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// DocumentStatus is the closed set of document states. Which values are
// legal depends on the document kind; see the transition tables in
// state_machine.go.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusCompleted  DocumentStatus = "COMPLETED"
	StatusReceived   DocumentStatus = "RECEIVED"
	StatusCancelled  DocumentStatus = "CANCELLED"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValidFor checks whether the status belongs to the given kind's state set
func (s DocumentStatus) IsValidFor(kind DocumentKind) bool {
	switch kind {
	case KindSalesOrder:
		return s == StatusPending || s == StatusProcessing || s == StatusCompleted || s == StatusCancelled
	case KindPurchaseOrder:
		return s == StatusPending || s == StatusReceived || s == StatusCancelled
	}
	return false
}

// Document is the aggregate root the ledger tracks money and status for.
// It is a sum of two variants (sales order, purchase order) discriminated
// by Kind. The total is never stored; it is derived from the line items on
// every read that needs it.
type Document struct {
	shared.BaseAggregateRoot
	Kind             DocumentKind         `gorm:"type:varchar(20);not null;index"`
	CounterpartyID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	Currency         valueobject.Currency `gorm:"type:varchar(3);not null"`
	Items            []LineItem           `gorm:"foreignKey:DocumentID;references:ID"`
	DeliveryFeeMinor int64                `gorm:"not null;default:0"` // sales orders only
	Status           DocumentStatus       `gorm:"type:varchar(20);not null;default:'PENDING';index"`
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "documents"
}

// LineInput describes one line of a document at creation time
type LineInput struct {
	ProductID      uuid.UUID
	Quantity       int64
	UnitPriceMinor int64
	DiscountMinor  int64
}

// NewSalesOrder creates a sales order in the pending state with its line
// items attached and frozen. The delivery fee is an externally supplied
// amount in the document currency.
func NewSalesOrder(counterpartyID uuid.UUID, currency valueobject.Currency, lines []LineInput, deliveryFee valueobject.Money) (*Document, error) {
	if deliveryFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DELIVERY_FEE", "Delivery fee cannot be negative")
	}
	if deliveryFee.Currency() != currency {
		return nil, valueobject.ErrCurrencyMismatch
	}
	doc, err := newDocument(KindSalesOrder, counterpartyID, currency, lines)
	if err != nil {
		return nil, err
	}
	doc.DeliveryFeeMinor = deliveryFee.MinorUnits()
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

// NewPurchaseOrder creates a purchase order in the pending state with its
// line items attached and frozen. Purchase orders carry no delivery fee.
func NewPurchaseOrder(counterpartyID uuid.UUID, currency valueobject.Currency, lines []LineInput) (*Document, error) {
	doc, err := newDocument(KindPurchaseOrder, counterpartyID, currency, lines)
	if err != nil {
		return nil, err
	}
	doc.AddDomainEvent(NewDocumentCreatedEvent(doc))
	return doc, nil
}

func newDocument(kind DocumentKind, counterpartyID uuid.UUID, currency valueobject.Currency, lines []LineInput) (*Document, error) {
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty ID cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Document must have at least one line item")
	}

	doc := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		CounterpartyID:    counterpartyID,
		Currency:          currency,
		Items:             make([]LineItem, 0, len(lines)),
		Status:            StatusPending,
	}

	for _, line := range lines {
		item, err := NewLineItem(doc.ID, line.ProductID, line.Quantity, line.UnitPriceMinor, line.DiscountMinor)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, *item)
	}

	return doc, nil
}

// DeliveryFee returns the delivery fee as Money. Always zero for
// purchase orders.
func (d *Document) DeliveryFee() valueobject.Money {
	if d.Kind != KindSalesOrder {
		return valueobject.Zero(d.Currency)
	}
	return valueobject.MustNewMoney(d.DeliveryFeeMinor, d.Currency)
}

// IsTerminal returns true if no further transition is permitted from the
// current status (with the documented received->cancelled exception,
// received is not terminal for purchase orders).
func (d *Document) IsTerminal() bool {
	switch d.Kind {
	case KindSalesOrder:
		return d.Status == StatusCompleted || d.Status == StatusCancelled
	case KindPurchaseOrder:
		return d.Status == StatusCancelled
	}
	return false
}

// IsReceived returns true for a received purchase order
func (d *Document) IsReceived() bool {
	return d.Kind == KindPurchaseOrder && d.Status == StatusReceived
}

// MarkStatus sets the status after a validated transition and records the
// mutation. Callers must validate via the state machine first.
func (d *Document) MarkStatus(target DocumentStatus) {
	from := d.Status
	d.Status = target
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	d.AddDomainEvent(NewDocumentStatusChangedEvent(d, from, target))
}
