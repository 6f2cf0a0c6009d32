package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBatchPaymentRepository implements BatchPaymentRepository using GORM
type GormBatchPaymentRepository struct {
	db *gorm.DB
}

// NewGormBatchPaymentRepository creates a new GormBatchPaymentRepository
func NewGormBatchPaymentRepository(db *gorm.DB) *GormBatchPaymentRepository {
	return &GormBatchPaymentRepository{db: db}
}

// FindByID finds a batch by its ID, items included
func (r *GormBatchPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.BatchPayment, error) {
	var batch invoicing.BatchPayment
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("batch_payment_items.created_at ASC")
		}).
		First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindAll finds all batches matching the filter
func (r *GormBatchPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]invoicing.BatchPayment, error) {
	var batches []invoicing.BatchPayment
	query := r.applyFilter(r.db.WithContext(ctx).Model(&invoicing.BatchPayment{}).Preload("Items"), filter)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByStatus finds batches in the given status
func (r *GormBatchPaymentRepository) FindByStatus(ctx context.Context, status invoicing.BatchStatus) ([]invoicing.BatchPayment, error) {
	var batches []invoicing.BatchPayment
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// GenerateBatchReference issues the next BATCH-YYYYMMDD-NNN reference for
// the given date. The sequence resets daily; the unique index on
// batch_reference catches concurrent draws of the same number.
func (r *GormBatchPaymentRepository) GenerateBatchReference(ctx context.Context, date time.Time) (string, error) {
	prefix := "BATCH-" + date.Format("20060102") + "-"

	var last string
	err := r.db.WithContext(ctx).
		Model(&invoicing.BatchPayment{}).
		Select("batch_reference").
		Where("batch_reference LIKE ?", prefix+"%").
		Order("batch_reference DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed batch reference %q: %w", last, err)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// Save creates or updates a batch and its items
func (r *GormBatchPaymentRepository) Save(ctx context.Context, batch *invoicing.BatchPayment) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(batch).Error
}

// Delete deletes a batch and its items
func (r *GormBatchPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&invoicing.BatchPaymentItem{}, "batch_payment_id = ?", id).Error; err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&invoicing.BatchPayment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts batches matching the filter
func (r *GormBatchPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&invoicing.BatchPayment{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormBatchPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchPaymentSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormBatchPaymentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("batch_reference ILIKE ? OR notes ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		if key == "status" {
			query = query.Where("status = ?", value)
		}
	}

	return query
}

// Ensure GormBatchPaymentRepository implements BatchPaymentRepository
var _ invoicing.BatchPaymentRepository = (*GormBatchPaymentRepository)(nil)
