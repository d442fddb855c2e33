package ledger

import (
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
)

// ComputeTotal derives a document's total from its line items and the
// delivery fee: sum(qty x unit price - discount) + delivery fee. Pure
// function, no I/O. The total is recomputed on every read that needs it;
// it is never stored as an independently mutable field.
func ComputeTotal(doc *Document) (valueobject.Money, error) {
	total := valueobject.Zero(doc.Currency)
	for idx := range doc.Items {
		net, err := doc.Items[idx].NetTotal(doc.Currency)
		if err != nil {
			return valueobject.Money{}, err
		}
		total, err = total.Add(net)
		if err != nil {
			return valueobject.Money{}, err
		}
	}
	return total.Add(doc.DeliveryFee())
}
