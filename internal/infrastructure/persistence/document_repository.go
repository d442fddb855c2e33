package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backoffice/ledger/internal/domain/ledger"
	"github.com/backoffice/ledger/internal/domain/shared"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID with line items loaded
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Document, error) {
	var doc ledger.Document
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindAll finds documents with filtering and pagination
func (r *GormDocumentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Document, error) {
	var docs []ledger.Document
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.Document{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Count counts documents matching the filter
func (r *GormDocumentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&ledger.Document{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a document together with its line items
func (r *GormDocumentRepository) Save(ctx context.Context, doc *ledger.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(doc).Error; err != nil {
			return err
		}
		for i := range doc.Items {
			doc.Items[i].DocumentID = doc.ID
			if err := tx.Save(&doc.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock updates a document's mutable columns with an optimistic
// version check. The document arrives with its version already bumped by
// the domain layer, so the expected stored version is doc.Version-1.
// Line items are frozen at creation and never written here.
func (r *GormDocumentRepository) SaveWithLock(ctx context.Context, doc *ledger.Document) error {
	expectedVersion := doc.Version - 1
	doc.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&ledger.Document{}).
		Where("id = ? AND version = ?", doc.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     doc.Status,
			"version":    doc.Version,
			"updated_at": doc.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&ledger.Document{}).
			Where("id = ?", doc.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ledger.ErrDocumentNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a document and its line items
func (r *GormDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&ledger.LineItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&ledger.Document{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ledger.ErrDocumentNotFound
		}
		return nil
	})
}

// applyFilter applies filter options to the query
func (r *GormDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "counterparty_id":
			query = query.Where("counterparty_id = ?", value)
		}
	}
	return query
}

// Ensure GormDocumentRepository implements DocumentRepository
var _ ledger.DocumentRepository = (*GormDocumentRepository)(nil)
