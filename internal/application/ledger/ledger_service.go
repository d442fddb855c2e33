package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/ledger/internal/domain/inventory"
	"github.com/backoffice/ledger/internal/domain/ledger"
	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLockTimeout bounds how long a command waits for the
// per-document lock before failing with ErrDocumentLocked
const DefaultLockTimeout = 5 * time.Second

// LedgerService is the orchestrating facade for the financial ledger.
// Every operation that reads-then-writes a document's derived state runs
// under that document's lock, so two concurrent payments cannot both pass
// the overpayment check against a stale remaining balance. Rejected
// commands return the unmodified current snapshot alongside the error.
type LedgerService struct {
	documents   ledger.DocumentRepository
	payments    ledger.PaymentRepository
	adjustments inventory.StockAdjustmentRepository
	scope       TransactionScope
	locks       *documentLocks
	lockTimeout time.Duration
	cache       SnapshotCache
	logger      *zap.Logger
}

// NewLedgerService creates a LedgerService over the given repositories
// and transaction scope
func NewLedgerService(
	documents ledger.DocumentRepository,
	payments ledger.PaymentRepository,
	adjustments inventory.StockAdjustmentRepository,
	scope TransactionScope,
) *LedgerService {
	return &LedgerService{
		documents:   documents,
		payments:    payments,
		adjustments: adjustments,
		scope:       scope,
		locks:       newDocumentLocks(),
		lockTimeout: DefaultLockTimeout,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the structured logger
func (s *LedgerService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetLockTimeout overrides the per-document lock acquisition timeout
func (s *LedgerService) SetLockTimeout(timeout time.Duration) {
	s.lockTimeout = timeout
}

// SetSnapshotCache enables the read-side snapshot cache
func (s *LedgerService) SetSnapshotCache(cache SnapshotCache) {
	s.cache = cache
}

// CreateDocument validates and persists a new document in the pending
// state with version 0. Line items are frozen from this point on.
func (s *LedgerService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*DocumentSnapshot, error) {
	lines := make([]ledger.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ledger.LineInput{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			DiscountMinor:  item.DiscountMinor,
		})
	}

	var doc *ledger.Document
	var err error
	switch req.Kind {
	case ledger.KindSalesOrder:
		fee, feeErr := valueobject.NewMoney(req.DeliveryFeeMinor, req.Currency)
		if feeErr != nil {
			return nil, feeErr
		}
		doc, err = ledger.NewSalesOrder(req.CounterpartyID, req.Currency, lines, fee)
	case ledger.KindPurchaseOrder:
		doc, err = ledger.NewPurchaseOrder(req.CounterpartyID, req.Currency, lines)
	default:
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown document kind")
	}
	if err != nil {
		return nil, err
	}

	// Totals must be derivable before anything is persisted
	if _, err := ledger.ComputeTotal(doc); err != nil {
		return nil, err
	}

	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.logEvents(doc)

	return ToDocumentSnapshot(doc, nil)
}

// AddPayment records a payment against a document after the overpayment
// check passes under the document lock. The validation uses the unclamped
// signed remaining balance, so an attempt exceeding it always fails with
// ErrOverpaymentRejected and leaves the paid amount unchanged.
func (s *LedgerService) AddPayment(ctx context.Context, req AddPaymentRequest) (*DocumentSnapshot, error) {
	release, err := s.locks.Acquire(ctx, req.DocumentID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	doc, payments, err := s.load(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	amount, err := valueobject.NewMoney(req.AmountMinor, req.Currency)
	if err != nil {
		return s.rejected(doc, payments, err)
	}
	if err := ledger.ValidateNewPayment(doc, payments, amount); err != nil {
		return s.rejected(doc, payments, err)
	}

	payment, err := ledger.NewPayment(doc.ID, amount, req.Method, req.Notes)
	if err != nil {
		return s.rejected(doc, payments, err)
	}

	doc.UpdatedAt = time.Now()
	doc.IncrementVersion()
	doc.AddDomainEvent(ledger.NewPaymentRecordedEvent(doc, payment))

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}
		return repos.Documents().SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}
	s.invalidate(ctx, doc.ID)
	s.logEvents(doc)

	return ToDocumentSnapshot(doc, append(payments, *payment))
}

// DeletePayment removes a payment record entirely and returns the owning
// document's updated snapshot. Deletion order is unrestricted.
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID uuid.UUID) (*DocumentSnapshot, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, payment.DocumentID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	doc, _, err := s.load(ctx, payment.DocumentID)
	if err != nil {
		return nil, err
	}

	doc.UpdatedAt = time.Now()
	doc.IncrementVersion()
	doc.AddDomainEvent(ledger.NewPaymentDeletedEvent(doc, payment))

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Payments().Delete(ctx, paymentID); err != nil {
			return err
		}
		return repos.Documents().SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, s.mapConflict(err)
	}
	s.invalidate(ctx, doc.ID)
	s.logEvents(doc)

	remaining, err := s.payments.FindByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	return ToDocumentSnapshot(doc, remaining)
}

// ChangeStatus applies a status transition under the document lock. The
// transition's stock adjustments and the status write commit as one
// atomic unit; a partial failure persists nothing.
//
// A repeat of a transition the document has already completed (retried
// request) is answered with the current snapshot and no error when the
// stock ledger confirms the cause was applied; the duplicate guard fires
// as an error only when the ledger and the document status disagree.
func (s *LedgerService) ChangeStatus(ctx context.Context, documentID uuid.UUID, target ledger.DocumentStatus) (*DocumentSnapshot, error) {
	release, err := s.locks.Acquire(ctx, documentID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	doc, payments, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.Status == target {
		return s.retriedTransition(ctx, doc, payments, target)
	}

	plan, err := ledger.PlanTransition(doc, target)
	if err != nil {
		return s.rejected(doc, payments, err)
	}

	doc.MarkStatus(target)

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		stock := inventory.NewStockLedger(repos.StockAdjustments())
		if len(plan.Effects) > 0 {
			inputs := make([]inventory.AdjustmentInput, 0, len(plan.Effects))
			for _, effect := range plan.Effects {
				inputs = append(inputs, inventory.AdjustmentInput{
					ProductID:     effect.ProductID,
					QuantityDelta: effect.QuantityDelta,
				})
			}
			if _, err := stock.Apply(ctx, doc.ID, ledger.TransitionReceive, inputs); err != nil {
				return err
			}
		}
		if plan.ReverseTransition != "" {
			if _, err := stock.Reverse(ctx, doc.ID, plan.ReverseTransition); err != nil {
				return err
			}
		}
		return repos.Documents().SaveWithLock(ctx, doc)
	})
	if err != nil {
		if errors.Is(err, inventory.ErrDuplicateAdjustment) || errors.Is(err, inventory.ErrNothingToReverse) {
			doc.Status = plan.From // report the unmodified state
			doc.Version--
			return s.rejected(doc, payments, err)
		}
		return nil, s.mapConflict(err)
	}
	s.invalidate(ctx, doc.ID)
	s.logEvents(doc)

	return ToDocumentSnapshot(doc, payments)
}

// retriedTransition answers a transition request whose target the
// document already holds. For a received purchase order this is the
// retried receive: success-by-idempotence once the stock ledger confirms
// the cause was applied. Anything else is an illegal self-transition.
func (s *LedgerService) retriedTransition(ctx context.Context, doc *ledger.Document, payments []ledger.Payment, target ledger.DocumentStatus) (*DocumentSnapshot, error) {
	if doc.IsReceived() && target == ledger.StatusReceived {
		stock := inventory.NewStockLedger(s.adjustments)
		applied, err := stock.HasApplied(ctx, doc.ID, ledger.TransitionReceive)
		if err != nil {
			return nil, err
		}
		if applied {
			s.logger.Info("ignoring retried transition",
				zap.String("document_id", doc.ID.String()),
				zap.String("status", target.String()))
			return ToDocumentSnapshot(doc, payments)
		}
		// Status says received but no stock was ever applied: the ledger
		// and the document disagree, surface it
		return s.rejected(doc, payments, inventory.ErrNothingToReverse)
	}
	return s.rejected(doc, payments, ledger.ErrIllegalTransition)
}

// DeleteDocument removes a document. Sales order deletion is
// unconditional and cascades over payments and line items. Purchase
// order deletion is blocked while the order is received, or while
// recorded payments leave an unsettled balance.
func (s *LedgerService) DeleteDocument(ctx context.Context, documentID uuid.UUID) (*DocumentSnapshot, error) {
	release, err := s.locks.Acquire(ctx, documentID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	doc, payments, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.Kind == ledger.KindPurchaseOrder {
		if blocked := s.purchaseOrderDeletionBlocked(doc, payments); blocked != nil {
			return s.rejected(doc, payments, blocked)
		}
	}

	snapshot, err := ToDocumentSnapshot(doc, payments)
	if err != nil {
		return nil, err
	}

	var removed int64
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		removed, err = repos.Payments().DeleteByDocument(ctx, documentID)
		if err != nil {
			return err
		}
		return repos.Documents().Delete(ctx, documentID)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, documentID)

	doc.AddDomainEvent(ledger.NewDocumentDeletedEvent(doc, int(removed)))
	s.logEvents(doc)
	s.logger.Info("document deleted",
		zap.String("document_id", documentID.String()),
		zap.String("kind", doc.Kind.String()),
		zap.Int64("payments_removed", removed))

	return snapshot, nil
}

// purchaseOrderDeletionBlocked applies the purchase order deletion guard.
// Received orders cannot be deleted; orders with recorded payments that
// do not settle the total must have those payments deleted (or the
// balance settled) first.
func (s *LedgerService) purchaseOrderDeletionBlocked(doc *ledger.Document, payments []ledger.Payment) error {
	if doc.IsReceived() {
		return ledger.NewDeletionBlockedError(ledger.DeletionBlockedReceived)
	}
	paid, err := ledger.PaidAmount(doc, payments)
	if err != nil {
		return err
	}
	remaining, err := ledger.RemainingSigned(doc, payments)
	if err != nil {
		return err
	}
	if paid.IsPositive() && remaining.IsPositive() {
		return ledger.NewDeletionBlockedError(ledger.DeletionBlockedHasBalance)
	}
	return nil
}

// GetSnapshot returns the current snapshot for display. Lock-free; may be
// served from the snapshot cache.
func (s *LedgerService) GetSnapshot(ctx context.Context, documentID uuid.UUID) (*DocumentSnapshot, error) {
	if s.cache != nil {
		if snapshot, ok := s.cache.Get(ctx, documentID); ok {
			return snapshot, nil
		}
	}

	doc, payments, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	snapshot, err := ToDocumentSnapshot(doc, payments)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, snapshot)
	}
	return snapshot, nil
}

// ListDocuments returns paginated snapshots matching the filter
func (s *LedgerService) ListDocuments(ctx context.Context, filter DocumentListFilter) (shared.Paginated[DocumentSnapshot], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Kind != nil {
		domainFilter.Filters["kind"] = string(*filter.Kind)
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.CounterpartyID != nil {
		domainFilter.Filters["counterparty_id"] = *filter.CounterpartyID
	}

	docs, err := s.documents.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[DocumentSnapshot]{}, err
	}
	total, err := s.documents.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[DocumentSnapshot]{}, err
	}

	snapshots := make([]DocumentSnapshot, 0, len(docs))
	for idx := range docs {
		payments, err := s.payments.FindByDocument(ctx, docs[idx].ID)
		if err != nil {
			return shared.Paginated[DocumentSnapshot]{}, err
		}
		snapshot, err := ToDocumentSnapshot(&docs[idx], payments)
		if err != nil {
			return shared.Paginated[DocumentSnapshot]{}, err
		}
		snapshots = append(snapshots, *snapshot)
	}

	return shared.NewPaginated(snapshots, total, domainFilter.Page, domainFilter.PageSize), nil
}

// CurrentStock returns a product's on-hand quantity. Lock-free snapshot.
func (s *LedgerService) CurrentStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	return inventory.NewStockLedger(s.adjustments).CurrentStock(ctx, productID)
}

// load fetches a document and its payments under whatever lock the
// caller already holds
func (s *LedgerService) load(ctx context.Context, documentID uuid.UUID) (*ledger.Document, []ledger.Payment, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.payments.FindByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	return doc, payments, nil
}

// rejected pairs the unmodified current snapshot with the rejection so
// callers can render accurate state alongside the error reason
func (s *LedgerService) rejected(doc *ledger.Document, payments []ledger.Payment, cause error) (*DocumentSnapshot, error) {
	doc.ClearDomainEvents()
	snapshot, err := ToDocumentSnapshot(doc, payments)
	if err != nil {
		return nil, cause
	}
	return snapshot, cause
}

// invalidate drops the cached snapshot after a successful write
func (s *LedgerService) invalidate(ctx context.Context, documentID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, documentID)
	}
}

// mapConflict translates an optimistic-lock conflict into the retryable
// lock error; everything else passes through
func (s *LedgerService) mapConflict(err error) error {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return ErrDocumentLocked
	}
	return err
}

// logEvents drains the aggregate's pending events into the structured log
func (s *LedgerService) logEvents(doc *ledger.Document) {
	for _, event := range doc.GetDomainEvents() {
		s.logger.Info("domain event",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
			zap.Time("occurred_at", event.OccurredAt()))
	}
	doc.ClearDomainEvents()
}
