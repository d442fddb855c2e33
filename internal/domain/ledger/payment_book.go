package ledger

import (
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
)

// PaymentBook holds the pure payment arithmetic for one document. All
// functions are side-effect free; applying their verdict under the
// per-document lock is the service's job.

// PaidAmount returns the sum of all payments recorded against the document
func PaidAmount(doc *Document, payments []Payment) (valueobject.Money, error) {
	paid := valueobject.Zero(doc.Currency)
	for idx := range payments {
		var err error
		paid, err = paid.Add(payments[idx].Amount())
		if err != nil {
			return valueobject.Money{}, err
		}
	}
	return paid, nil
}

// RemainingSigned returns total - paid without clamping. Validation paths
// must use this signed value so an over-payment attempt is visible as a
// negative remainder instead of being masked by display clamping.
func RemainingSigned(doc *Document, payments []Payment) (valueobject.Money, error) {
	total, err := ComputeTotal(doc)
	if err != nil {
		return valueobject.Money{}, err
	}
	paid, err := PaidAmount(doc, payments)
	if err != nil {
		return valueobject.Money{}, err
	}
	return total.Subtract(paid)
}

// Remaining returns the remaining balance clamped at zero, for display
func Remaining(doc *Document, payments []Payment) (valueobject.Money, error) {
	remaining, err := RemainingSigned(doc, payments)
	if err != nil {
		return valueobject.Money{}, err
	}
	if remaining.IsNegative() {
		return valueobject.Zero(doc.Currency), nil
	}
	return remaining, nil
}

// ValidateNewPayment decides whether a candidate payment amount may be
// recorded against the document given its existing payments. Fails with
// ErrInvalidAmount when the amount is not positive, ErrCurrencyMismatch
// when the amount is in a different currency than the document, and
// ErrOverpaymentRejected when the amount exceeds the remaining balance.
func ValidateNewPayment(doc *Document, existing []Payment, candidate valueobject.Money) error {
	if candidate.Currency() != doc.Currency {
		return valueobject.ErrCurrencyMismatch
	}
	if !candidate.IsPositive() {
		return ErrInvalidAmount
	}
	remaining, err := RemainingSigned(doc, existing)
	if err != nil {
		return err
	}
	exceeds, err := candidate.GreaterThan(remaining)
	if err != nil {
		return err
	}
	if exceeds {
		return ErrOverpaymentRejected
	}
	return nil
}
