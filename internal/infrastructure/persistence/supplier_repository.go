package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
)

// GormSupplierRepository persists suppliers via gorm.
type GormSupplierRepository struct {
	db *gorm.DB
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)

func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByCode looks up by the normalized uppercase code.
func (r *GormSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	return r.findOne(ctx, "code = ?", strings.ToUpper(code))
}

func (r *GormSupplierRepository) findOne(ctx context.Context, cond string, arg any) (*partner.Supplier, error) {
	var supplier partner.Supplier
	err := r.db.WithContext(ctx).Where(cond, arg).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	suppliers := []partner.Supplier{}
	if len(ids) == 0 {
		return suppliers, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	return r.findList(r.db.WithContext(ctx).Model(&partner.Supplier{}), filter)
}

func (r *GormSupplierRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	scope := r.db.WithContext(ctx).Model(&partner.Supplier{}).
		Where("status = ?", partner.SupplierStatusActive)
	return r.findList(scope, filter)
}

func (r *GormSupplierRepository) findList(scope *gorm.DB, filter shared.Filter) ([]partner.Supplier, error) {
	var suppliers []partner.Supplier
	query := r.scopeFilter(scope, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, SupplierSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&partner.Supplier{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

func (r *GormSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Supplier{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.scopeFilter(r.db.WithContext(ctx).Model(&partner.Supplier{}), filter)
	err := query.Count(&count).Error
	return count, err
}

// scopeFilter applies search and field filters, never pagination, so
// Count and the list queries agree on the matched set.
func (r *GormSupplierRepository) scopeFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if gst, ok := filter.Filters["gst_registered"]; ok {
		query = query.Where("gst_registered = ?", gst)
	}
	return query
}
