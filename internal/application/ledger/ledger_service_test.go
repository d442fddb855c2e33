package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backoffice/ledger/internal/domain/ledger"
	"github.com/backoffice/ledger/internal/domain/shared/valueobject"
)

func newTestService(t *testing.T) *LedgerService {
	documents := newMemDocumentRepo()
	payments := newMemPaymentRepo()
	adjustments := newMemAdjustmentRepo()
	scope := &memScope{documents: documents, payments: payments, adjustments: adjustments}
	return NewLedgerService(documents, payments, adjustments, scope)
}

// createSalesOrder creates a sales order totalling 27.00 USD
// (2 x 10.00 + (5.00 - 1.00) + 3.00 delivery)
func createSalesOrder(t *testing.T, svc *LedgerService) *DocumentSnapshot {
	snapshot, err := svc.CreateDocument(context.Background(), CreateDocumentRequest{
		Kind:           ledger.KindSalesOrder,
		CounterpartyID: uuid.New(),
		Currency:       valueobject.USD,
		Items: []LineItemRequest{
			{ProductID: uuid.New(), Quantity: 2, UnitPriceMinor: 1000},
			{ProductID: uuid.New(), Quantity: 1, UnitPriceMinor: 500, DiscountMinor: 100},
		},
		DeliveryFeeMinor: 300,
	})
	require.NoError(t, err)
	return snapshot
}

// createPurchaseOrder creates a purchase order of 5 units at 4.00 USD
func createPurchaseOrder(t *testing.T, svc *LedgerService, productID uuid.UUID) *DocumentSnapshot {
	snapshot, err := svc.CreateDocument(context.Background(), CreateDocumentRequest{
		Kind:           ledger.KindPurchaseOrder,
		CounterpartyID: uuid.New(),
		Currency:       valueobject.USD,
		Items: []LineItemRequest{
			{ProductID: productID, Quantity: 5, UnitPriceMinor: 400},
		},
	})
	require.NoError(t, err)
	return snapshot
}

func pay(t *testing.T, svc *LedgerService, documentID uuid.UUID, amountMinor int64) (*DocumentSnapshot, error) {
	return svc.AddPayment(context.Background(), AddPaymentRequest{
		DocumentID:  documentID,
		AmountMinor: amountMinor,
		Currency:    valueobject.USD,
		Method:      ledger.MethodCash,
	})
}

// ============================================
// CreateDocument
// ============================================

func TestCreateDocument(t *testing.T) {
	svc := newTestService(t)

	snapshot := createSalesOrder(t, svc)

	assert.Equal(t, ledger.StatusPending, snapshot.Status)
	assert.Equal(t, 0, snapshot.Version)
	assert.Equal(t, int64(2700), snapshot.TotalMinor)
	assert.Equal(t, int64(0), snapshot.PaidMinor)
	assert.Equal(t, int64(2700), snapshot.RemainingMinor)
	assert.Equal(t, 2, snapshot.ItemCount)
}

func TestCreateDocument_InvalidLineRejected(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDocument(context.Background(), CreateDocumentRequest{
		Kind:           ledger.KindSalesOrder,
		CounterpartyID: uuid.New(),
		Currency:       valueobject.USD,
		Items: []LineItemRequest{
			{ProductID: uuid.New(), Quantity: 0, UnitPriceMinor: 1000},
		},
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidLineItem)
}

func TestCreateDocument_UnknownKind(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDocument(context.Background(), CreateDocumentRequest{
		Kind:           ledger.DocumentKind("INVOICE"),
		CounterpartyID: uuid.New(),
		Currency:       valueobject.USD,
		Items:          []LineItemRequest{{ProductID: uuid.New(), Quantity: 1, UnitPriceMinor: 100}},
	})
	assert.Error(t, err)
}

// ============================================
// AddPayment / DeletePayment
// ============================================

func TestAddPayment(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)

	snapshot, err := pay(t, svc, doc.DocumentID, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), snapshot.PaidMinor)
	assert.Equal(t, int64(700), snapshot.RemainingMinor)
	assert.Equal(t, 1, snapshot.Version)

	// Settle exactly
	snapshot, err = pay(t, svc, doc.DocumentID, 700)
	require.NoError(t, err)
	assert.Equal(t, int64(2700), snapshot.PaidMinor)
	assert.Equal(t, int64(0), snapshot.RemainingMinor)
}

func TestAddPayment_OverpaymentRejectedWithSnapshot(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)

	_, err := pay(t, svc, doc.DocumentID, 2700)
	require.NoError(t, err)

	// One cent over the settled balance
	snapshot, err := pay(t, svc, doc.DocumentID, 1)
	assert.ErrorIs(t, err, ledger.ErrOverpaymentRejected)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(2700), snapshot.PaidMinor)
	assert.Equal(t, int64(0), snapshot.RemainingMinor)
}

func TestAddPayment_InvalidAmounts(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)

	_, err := pay(t, svc, doc.DocumentID, 0)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = pay(t, svc, doc.DocumentID, -100)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.AddPayment(context.Background(), AddPaymentRequest{
		DocumentID:  doc.DocumentID,
		AmountMinor: 100,
		Currency:    valueobject.Currency("EUR"),
		Method:      ledger.MethodCash,
	})
	assert.ErrorIs(t, err, valueobject.ErrCurrencyMismatch)
}

func TestAddPayment_DocumentNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := pay(t, svc, uuid.New(), 100)
	assert.ErrorIs(t, err, ledger.ErrDocumentNotFound)
}

func TestAddPayment_ConcurrentOverRemaining(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc) // total 27.00

	_, err := pay(t, svc, doc.DocumentID, 700) // remaining 20.00
	require.NoError(t, err)

	// Two concurrent 15.00 payments against 20.00 remaining: exactly one
	// must fail the overpayment check.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pay(t, svc, doc.DocumentID, 1500)
		}(i)
	}
	wg.Wait()

	var rejected int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ledger.ErrOverpaymentRejected)
			rejected++
		}
	}
	assert.Equal(t, 1, rejected)

	final, err := svc.GetSnapshot(context.Background(), doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2200), final.PaidMinor)
	assert.Equal(t, int64(500), final.RemainingMinor)
}

func TestDeletePayment_RestoresBalance(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)

	_, err := pay(t, svc, doc.DocumentID, 2700)
	require.NoError(t, err)

	payments, err := svc.payments.FindByDocument(context.Background(), doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	snapshot, err := svc.DeletePayment(context.Background(), payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snapshot.PaidMinor)
	assert.Equal(t, int64(2700), snapshot.RemainingMinor)

	// Balance is free again
	_, err = pay(t, svc, doc.DocumentID, 2700)
	assert.NoError(t, err)
}

func TestDeletePayment_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.DeletePayment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ledger.ErrPaymentNotFound)
}

// ============================================
// ChangeStatus
// ============================================

func TestChangeStatus_SalesOrderLifecycle(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)
	ctx := context.Background()

	snapshot, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusProcessing, snapshot.Status)
	assert.Equal(t, 1, snapshot.Version)

	snapshot, err = svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, snapshot.Status)

	// Terminal: any further transition is rejected with the current state
	snapshot, err = svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusCancelled)
	assert.ErrorIs(t, err, ledger.ErrIllegalTransition)
	require.NotNil(t, snapshot)
	assert.Equal(t, ledger.StatusCompleted, snapshot.Status)
}

func TestChangeStatus_ReceiveAppliesStock(t *testing.T) {
	svc := newTestService(t)
	productID := uuid.New()
	doc := createPurchaseOrder(t, svc, productID)
	ctx := context.Background()

	snapshot, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReceived, snapshot.Status)

	stock, err := svc.CurrentStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock)
}

func TestChangeStatus_RetriedReceiveIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	productID := uuid.New()
	doc := createPurchaseOrder(t, svc, productID)
	ctx := context.Background()

	first, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusReceived)
	require.NoError(t, err)

	// The retry succeeds without touching stock again
	second, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, first.Version, second.Version)

	stock, err := svc.CurrentStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock)
}

func TestChangeStatus_CancelAfterReceiveReversesStock(t *testing.T) {
	svc := newTestService(t)
	productID := uuid.New()
	doc := createPurchaseOrder(t, svc, productID)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusReceived)
	require.NoError(t, err)

	snapshot, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, snapshot.Status)

	stock, err := svc.CurrentStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock)
}

func TestChangeStatus_CancelPendingPurchaseLeavesStockAlone(t *testing.T) {
	svc := newTestService(t)
	productID := uuid.New()
	doc := createPurchaseOrder(t, svc, productID)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusCancelled)
	require.NoError(t, err)

	stock, err := svc.CurrentStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock)
}

func TestChangeStatus_IllegalSelfTransition(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)

	snapshot, err := svc.ChangeStatus(context.Background(), doc.DocumentID, ledger.StatusPending)
	assert.ErrorIs(t, err, ledger.ErrIllegalTransition)
	require.NotNil(t, snapshot)
	assert.Equal(t, ledger.StatusPending, snapshot.Status)
}

// ============================================
// DeleteDocument
// ============================================

func TestDeleteDocument_SalesOrderCascades(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)
	ctx := context.Background()

	_, err := pay(t, svc, doc.DocumentID, 1000)
	require.NoError(t, err)

	// Sales order deletion is unconditional even with a balance open
	_, err = svc.DeleteDocument(ctx, doc.DocumentID)
	require.NoError(t, err)

	_, err = svc.GetSnapshot(ctx, doc.DocumentID)
	assert.ErrorIs(t, err, ledger.ErrDocumentNotFound)

	payments, err := svc.payments.FindByDocument(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestDeleteDocument_ReceivedPurchaseOrderBlocked(t *testing.T) {
	svc := newTestService(t)
	doc := createPurchaseOrder(t, svc, uuid.New())
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, doc.DocumentID, ledger.StatusReceived)
	require.NoError(t, err)

	_, err = svc.DeleteDocument(ctx, doc.DocumentID)
	var blocked *ledger.DeletionBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, ledger.DeletionBlockedReceived, blocked.Reason)
}

func TestDeleteDocument_PurchaseOrderWithOpenBalanceBlocked(t *testing.T) {
	svc := newTestService(t)
	doc := createPurchaseOrder(t, svc, uuid.New()) // total 20.00
	ctx := context.Background()

	_, err := pay(t, svc, doc.DocumentID, 500)
	require.NoError(t, err)

	_, err = svc.DeleteDocument(ctx, doc.DocumentID)
	var blocked *ledger.DeletionBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, ledger.DeletionBlockedHasBalance, blocked.Reason)

	// Deleting the payment clears the guard
	payments, err := svc.payments.FindByDocument(ctx, doc.DocumentID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	_, err = svc.DeletePayment(ctx, payments[0].ID)
	require.NoError(t, err)

	_, err = svc.DeleteDocument(ctx, doc.DocumentID)
	assert.NoError(t, err)
}

func TestDeleteDocument_SettledPurchaseOrderAllowed(t *testing.T) {
	svc := newTestService(t)
	doc := createPurchaseOrder(t, svc, uuid.New()) // total 20.00
	ctx := context.Background()

	_, err := pay(t, svc, doc.DocumentID, 2000)
	require.NoError(t, err)

	_, err = svc.DeleteDocument(ctx, doc.DocumentID)
	assert.NoError(t, err)
}

func TestDeleteDocument_UnpaidPendingPurchaseOrderAllowed(t *testing.T) {
	svc := newTestService(t)
	doc := createPurchaseOrder(t, svc, uuid.New())

	_, err := svc.DeleteDocument(context.Background(), doc.DocumentID)
	assert.NoError(t, err)
}

// ============================================
// Reads
// ============================================

func TestGetSnapshot_UsesCache(t *testing.T) {
	svc := newTestService(t)
	doc := createSalesOrder(t, svc)
	ctx := context.Background()

	cache := &countingCache{entries: make(map[uuid.UUID]*DocumentSnapshot)}
	svc.SetSnapshotCache(cache)

	_, err := svc.GetSnapshot(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.misses)

	_, err = svc.GetSnapshot(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	// A write invalidates
	_, err = pay(t, svc, doc.DocumentID, 100)
	require.NoError(t, err)

	snapshot, err := svc.GetSnapshot(ctx, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snapshot.PaidMinor)
}

func TestListDocuments(t *testing.T) {
	svc := newTestService(t)
	createSalesOrder(t, svc)
	createSalesOrder(t, svc)
	createPurchaseOrder(t, svc, uuid.New())

	page, err := svc.ListDocuments(context.Background(), DocumentListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 3)

	kind := ledger.KindPurchaseOrder
	page, err = svc.ListDocuments(context.Background(), DocumentListFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

// countingCache is a SnapshotCache that tracks hit/miss counts
type countingCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*DocumentSnapshot
	hits    int
	misses  int
}

func (c *countingCache) Get(ctx context.Context, documentID uuid.UUID) (*DocumentSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot, ok := c.entries[documentID]; ok {
		c.hits++
		return snapshot, true
	}
	c.misses++
	return nil, false
}

func (c *countingCache) Set(ctx context.Context, snapshot *DocumentSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snapshot.DocumentID] = snapshot
}

func (c *countingCache) Invalidate(ctx context.Context, documentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, documentID)
}

var _ SnapshotCache = (*countingCache)(nil)
