package ledger

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentMethod is the enumerated payment channel tag
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
	MethodCheque   PaymentMethod = "CHEQUE"
	MethodOther    PaymentMethod = "OTHER"
)

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer, MethodCheque, MethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is an immutable record of money received against one document.
// Deletion removes the record entirely; there is no soft-cancel.
type Payment struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key"`
	DocumentID  uuid.UUID            `gorm:"type:uuid;not null;index"`
	AmountMinor int64                `gorm:"not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	Method      PaymentMethod        `gorm:"type:varchar(20);not null"`
	Notes       string               `gorm:"type:varchar(500)"`
	CreatedAt   time.Time            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a validated payment against a document
func NewPayment(documentID uuid.UUID, amount valueobject.Money, method PaymentMethod, notes string) (*Payment, error) {
	if documentID == uuid.Nil {
		return nil, ErrDocumentNotFound
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}

	return &Payment{
		ID:          uuid.New(),
		DocumentID:  documentID,
		AmountMinor: amount.MinorUnits(),
		Currency:    amount.Currency(),
		Method:      method,
		Notes:       notes,
		CreatedAt:   time.Now(),
	}, nil
}

// Amount returns the payment amount as Money
func (p *Payment) Amount() valueobject.Money {
	return valueobject.MustNewMoney(p.AmountMinor, p.Currency)
}
