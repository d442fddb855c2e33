package ledger

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/ledger"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LineItemRequest describes one document line at creation time
type LineItemRequest struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int64     `json:"quantity"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	DiscountMinor  int64     `json:"discount_minor,omitempty"`
}

// CreateDocumentRequest creates a new sales order or purchase order with
// its line items frozen at creation
type CreateDocumentRequest struct {
	Kind             ledger.DocumentKind  `json:"kind"`
	CounterpartyID   uuid.UUID            `json:"counterparty_id"`
	Currency         valueobject.Currency `json:"currency"`
	Items            []LineItemRequest    `json:"items"`
	DeliveryFeeMinor int64                `json:"delivery_fee_minor,omitempty"` // sales orders only
}

// AddPaymentRequest records a payment against a document
type AddPaymentRequest struct {
	DocumentID  uuid.UUID            `json:"document_id"`
	AmountMinor int64                `json:"amount_minor"`
	Currency    valueobject.Currency `json:"currency"`
	Method      ledger.PaymentMethod `json:"method"`
	Notes       string               `json:"notes,omitempty"`
}

// DocumentSnapshot is the read model every ledger operation returns:
// derived totals alongside the status, never a stored total
type DocumentSnapshot struct {
	DocumentID     uuid.UUID             `json:"document_id"`
	Kind           ledger.DocumentKind   `json:"kind"`
	CounterpartyID uuid.UUID             `json:"counterparty_id"`
	Status         ledger.DocumentStatus `json:"status"`
	Currency       valueobject.Currency  `json:"currency"`
	TotalMinor     int64                 `json:"total_minor"`
	PaidMinor      int64                 `json:"paid_minor"`
	RemainingMinor int64                 `json:"remaining_minor"`
	Version        int                   `json:"version"`
	ItemCount      int                   `json:"item_count"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Total returns the derived total as Money
func (s *DocumentSnapshot) Total() valueobject.Money {
	return valueobject.MustNewMoney(s.TotalMinor, s.Currency)
}

// Paid returns the paid amount as Money
func (s *DocumentSnapshot) Paid() valueobject.Money {
	return valueobject.MustNewMoney(s.PaidMinor, s.Currency)
}

// Remaining returns the remaining balance as Money, clamped at zero
func (s *DocumentSnapshot) Remaining() valueobject.Money {
	return valueobject.MustNewMoney(s.RemainingMinor, s.Currency)
}

// ToDocumentSnapshot builds the snapshot read model from a document and
// its payments, recomputing total/paid/remaining from source data
func ToDocumentSnapshot(doc *ledger.Document, payments []ledger.Payment) (*DocumentSnapshot, error) {
	total, err := ledger.ComputeTotal(doc)
	if err != nil {
		return nil, err
	}
	paid, err := ledger.PaidAmount(doc, payments)
	if err != nil {
		return nil, err
	}
	remaining, err := ledger.Remaining(doc, payments)
	if err != nil {
		return nil, err
	}

	return &DocumentSnapshot{
		DocumentID:     doc.ID,
		Kind:           doc.Kind,
		CounterpartyID: doc.CounterpartyID,
		Status:         doc.Status,
		Currency:       doc.Currency,
		TotalMinor:     total.MinorUnits(),
		PaidMinor:      paid.MinorUnits(),
		RemainingMinor: remaining.MinorUnits(),
		Version:        doc.Version,
		ItemCount:      len(doc.Items),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// DocumentListFilter narrows ListDocuments results
type DocumentListFilter struct {
	Page           int
	PageSize       int
	OrderBy        string
	OrderDir       string
	Kind           *ledger.DocumentKind
	Status         *ledger.DocumentStatus
	CounterpartyID *uuid.UUID
}
