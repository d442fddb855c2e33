package ledger

import (
	"context"

	"github.com/backoffice/ledger/internal/domain/inventory"
	"github.com/backoffice/ledger/internal/domain/ledger"
)

// TransactionalRepositories provides repositories scoped to one database
// transaction, so a status write and its stock adjustments commit or roll
// back as a single unit.
type TransactionalRepositories interface {
	Documents() ledger.DocumentRepository
	Payments() ledger.PaymentRepository
	StockAdjustments() inventory.StockAdjustmentRepository
}

// TransactionScope executes a function within one atomic transaction.
// If the function returns an error, nothing it wrote is persisted.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
