package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/backoffice/ledger/internal/domain/inventory"
	"github.com/backoffice/ledger/internal/domain/ledger"
	"github.com/backoffice/ledger/internal/domain/shared"
)

// In-memory repositories backing the service tests. They enforce the
// same version and cause-key rules as the database-backed ones so the
// concurrency behavior under test is real.

type memDocumentRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]ledger.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: make(map[uuid.UUID]ledger.Document)}
}

func (r *memDocumentRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, ledger.ErrDocumentNotFound
	}
	copied := doc
	copied.Items = append([]ledger.LineItem(nil), doc.Items...)
	return &copied, nil
}

func (r *memDocumentRepo) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		if kind, ok := filter.Filters["kind"]; ok && string(doc.Kind) != kind {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && string(doc.Status) != status {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memDocumentRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	docs, err := r.FindAll(ctx, filter)
	return int64(len(docs)), err
}

func (r *memDocumentRepo) Save(ctx context.Context, doc *ledger.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocumentRepo) SaveWithLock(ctx context.Context, doc *ledger.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return ledger.ErrDocumentNotFound
	}
	if stored.Version != doc.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ledger.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]ledger.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]ledger.Payment)}
}

func (r *memPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ledger.ErrPaymentNotFound
	}
	return &payment, nil
}

func (r *memPaymentRepo) FindByDocument(ctx context.Context, documentID uuid.UUID) ([]ledger.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Payment
	for _, payment := range r.payments {
		if payment.DocumentID == documentID {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memPaymentRepo) Save(ctx context.Context, payment *ledger.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *memPaymentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[id]; !ok {
		return ledger.ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memPaymentRepo) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, payment := range r.payments {
		if payment.DocumentID == documentID {
			delete(r.payments, id)
			removed++
		}
	}
	return removed, nil
}

type memAdjustmentRepo struct {
	mu   sync.Mutex
	rows []inventory.StockAdjustment
}

func newMemAdjustmentRepo() *memAdjustmentRepo {
	return &memAdjustmentRepo{}
}

func (r *memAdjustmentRepo) SaveAll(ctx context.Context, adjustments []inventory.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, adj := range adjustments {
		for _, existing := range r.rows {
			if existing.DocumentID == adj.DocumentID &&
				existing.Transition == adj.Transition &&
				existing.CauseProductID == adj.CauseProductID {
				return inventory.ErrDuplicateAdjustment
			}
		}
	}
	r.rows = append(r.rows, adjustments...)
	return nil
}

func (r *memAdjustmentRepo) FindByCause(ctx context.Context, documentID uuid.UUID, transition string) ([]inventory.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockAdjustment
	for _, row := range r.rows {
		if row.DocumentID == documentID && row.Transition == transition {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memAdjustmentRepo) ExistsByCause(ctx context.Context, documentID uuid.UUID, transition string) (bool, error) {
	rows, err := r.FindByCause(ctx, documentID, transition)
	return len(rows) > 0, err
}

func (r *memAdjustmentRepo) SumDeltaByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, row := range r.rows {
		if row.ProductID == productID {
			sum += row.QuantityDelta
		}
	}
	return sum, nil
}

func (r *memAdjustmentRepo) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockAdjustment
	for _, row := range r.rows {
		if row.ProductID == productID {
			out = append(out, row)
		}
	}
	return out, nil
}

// memScope passes the shared in-memory repositories through without
// transactional semantics. Sufficient here: the tests exercising failure
// paths fail before any repository write happens.
type memScope struct {
	documents   *memDocumentRepo
	payments    *memPaymentRepo
	adjustments *memAdjustmentRepo
}

func (s *memScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *memScope) Documents() ledger.DocumentRepository { return s.documents }
func (s *memScope) Payments() ledger.PaymentRepository   { return s.payments }
func (s *memScope) StockAdjustments() inventory.StockAdjustmentRepository {
	return s.adjustments
}

var (
	_ ledger.DocumentRepository           = (*memDocumentRepo)(nil)
	_ ledger.PaymentRepository            = (*memPaymentRepo)(nil)
	_ inventory.StockAdjustmentRepository = (*memAdjustmentRepo)(nil)
	_ TransactionScope                    = (*memScope)(nil)
	_ TransactionalRepositories           = (*memScope)(nil)
)
