package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backoffice/ledger/internal/domain/inventory"
	"github.com/backoffice/ledger/internal/domain/shared"
)

// GormStockAdjustmentRepository implements StockAdjustmentRepository using GORM
type GormStockAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormStockAdjustmentRepository creates a new GormStockAdjustmentRepository
func NewGormStockAdjustmentRepository(db *gorm.DB) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{db: db}
}

// SaveAll appends a batch of adjustments. The unique index over the cause
// key is the authoritative duplicate guard under concurrent writers.
func (r *GormStockAdjustmentRepository) SaveAll(ctx context.Context, adjustments []inventory.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&adjustments).Error; err != nil {
		if isUniqueViolation(err) {
			return inventory.ErrDuplicateAdjustment
		}
		return err
	}
	return nil
}

// FindByCause returns the adjustments recorded under one cause
func (r *GormStockAdjustmentRepository) FindByCause(ctx context.Context, documentID uuid.UUID, transition string) ([]inventory.StockAdjustment, error) {
	var adjustments []inventory.StockAdjustment
	if err := r.db.WithContext(ctx).
		Where("document_id = ? AND transition = ?", documentID, transition).
		Order("created_at ASC").
		Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// ExistsByCause reports whether any adjustment exists for the cause
func (r *GormStockAdjustmentRepository) ExistsByCause(ctx context.Context, documentID uuid.UUID, transition string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockAdjustment{}).
		Where("document_id = ? AND transition = ?", documentID, transition).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumDeltaByProduct returns the sum of all deltas for a product
func (r *GormStockAdjustmentRepository) SumDeltaByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockAdjustment{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_delta), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// FindByProduct returns a product's adjustment history
func (r *GormStockAdjustmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockAdjustment, error) {
	var adjustments []inventory.StockAdjustment
	query := r.db.WithContext(ctx).
		Model(&inventory.StockAdjustment{}).
		Where("product_id = ?", productID).
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// isUniqueViolation detects a unique constraint failure across the
// postgres and sqlite drivers
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// Ensure GormStockAdjustmentRepository implements StockAdjustmentRepository
var _ inventory.StockAdjustmentRepository = (*GormStockAdjustmentRepository)(nil)
