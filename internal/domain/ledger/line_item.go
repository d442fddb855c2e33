package ledger

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LineItem is a frozen line of a document. Items are attached at document
// creation and never mutated afterwards; changing a line means creating a
// new document. Monetary fields are integer minor units in the owning
// document's currency.
type LineItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	DocumentID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity       int64     `gorm:"not null"`
	UnitPriceMinor int64     `gorm:"not null"`
	DiscountMinor  int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "line_items"
}

// NewLineItem creates a validated line item for a document
func NewLineItem(documentID, productID uuid.UUID, quantity, unitPriceMinor, discountMinor int64) (*LineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, ErrInvalidLineItem
	}
	if unitPriceMinor < 0 {
		return nil, ErrInvalidLineItem
	}
	if discountMinor < 0 || discountMinor > quantity*unitPriceMinor {
		return nil, ErrInvalidLineItem
	}

	return &LineItem{
		ID:             uuid.New(),
		DocumentID:     documentID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceMinor: unitPriceMinor,
		DiscountMinor:  discountMinor,
		CreatedAt:      time.Now(),
	}, nil
}

// UnitPrice returns the unit price as Money in the given currency
func (i *LineItem) UnitPrice(currency valueobject.Currency) valueobject.Money {
	return valueobject.MustNewMoney(i.UnitPriceMinor, currency)
}

// Discount returns the per-line discount as Money in the given currency
func (i *LineItem) Discount(currency valueobject.Currency) valueobject.Money {
	return valueobject.MustNewMoney(i.DiscountMinor, currency)
}

// NetTotal returns quantity x unit price - discount as Money.
// Fails with ErrInvalidLineItem when the discount exceeds the gross amount
// or the quantity is not positive.
func (i *LineItem) NetTotal(currency valueobject.Currency) (valueobject.Money, error) {
	if i.Quantity <= 0 {
		return valueobject.Money{}, ErrInvalidLineItem
	}
	gross := i.UnitPrice(currency).MultiplyByInt(i.Quantity)
	discount := i.Discount(currency)
	if i.DiscountMinor < 0 {
		return valueobject.Money{}, ErrInvalidLineItem
	}
	if greater, err := discount.GreaterThan(gross); err != nil {
		return valueobject.Money{}, err
	} else if greater {
		return valueobject.Money{}, ErrInvalidLineItem
	}
	return gross.Subtract(discount)
}
