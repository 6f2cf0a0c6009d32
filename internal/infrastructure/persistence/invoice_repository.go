package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID, items included
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	var invoice invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*invoicing.Invoice, error) {
	var invoice invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	query := r.applyFilter(r.db.WithContext(ctx).Model(&invoicing.Invoice{}).Preload("Items"), filter)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindOverdue finds invoices past due that are not fully paid
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, now time.Time) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("due_date < ? AND status <> ?", now, invoicing.InvoiceStatusPaid).
		Order("due_date ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindOverAllocated finds invoices whose paid amount exceeds the total
// beyond the rounding tolerance
func (r *GormInvoiceRepository) FindOverAllocated(ctx context.Context) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := r.db.WithContext(ctx).
		Where("paid_amount > total_amount + ?", invoicing.RoundingTolerance).
		Order("invoice_number ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindUnpaid finds invoices with an outstanding balance, optionally
// restricted to one supplier
func (r *GormInvoiceRepository) FindUnpaid(ctx context.Context, supplierID *uuid.UUID) ([]invoicing.Invoice, error) {
	query := r.db.WithContext(ctx).
		Where("total_amount > paid_amount")
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}

	var invoices []invoicing.Invoice
	if err := query.Order("due_date ASC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// supplierOutstandingRow is the raw aggregation row scanned from the
// grouped query; days overdue are derived in Go from the oldest due date
type supplierOutstandingRow struct {
	SupplierID        uuid.UUID
	SupplierName      string
	InvoiceCount      int
	OverdueCount      int
	TotalAmount       decimal.Decimal
	PaidAmount        decimal.Decimal
	OutstandingAmount decimal.Decimal
	OverdueAmount     decimal.Decimal
	OldestInvoiceDate time.Time
	OldestDueDate     time.Time
}

// OutstandingBySupplier aggregates open supplier invoices per supplier
func (r *GormInvoiceRepository) OutstandingBySupplier(ctx context.Context, now time.Time) ([]invoicing.SupplierOutstanding, error) {
	var rows []supplierOutstandingRow
	err := r.db.WithContext(ctx).
		Table("invoices").
		Select(`invoices.supplier_id AS supplier_id,
			suppliers.name AS supplier_name,
			COUNT(*) AS invoice_count,
			COUNT(*) FILTER (WHERE invoices.due_date < ?) AS overdue_count,
			SUM(invoices.total_amount) AS total_amount,
			SUM(invoices.paid_amount) AS paid_amount,
			SUM(invoices.total_amount - invoices.paid_amount) AS outstanding_amount,
			SUM(invoices.total_amount - invoices.paid_amount) FILTER (WHERE invoices.due_date < ?) AS overdue_amount,
			MIN(invoices.invoice_date) AS oldest_invoice_date,
			MIN(invoices.due_date) AS oldest_due_date`, now, now).
		Joins("JOIN suppliers ON suppliers.id = invoices.supplier_id").
		Where("invoices.type = ? AND invoices.supplier_id IS NOT NULL AND invoices.total_amount > invoices.paid_amount",
			invoicing.InvoiceTypeSupplier).
		Group("invoices.supplier_id, suppliers.name").
		Order("outstanding_amount DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]invoicing.SupplierOutstanding, 0, len(rows))
	for _, row := range rows {
		maxDaysOverdue := 0
		if row.OldestDueDate.Before(now) {
			maxDaysOverdue = int(now.Sub(row.OldestDueDate).Hours() / 24)
		}
		result = append(result, invoicing.SupplierOutstanding{
			SupplierID:        row.SupplierID,
			SupplierName:      row.SupplierName,
			InvoiceCount:      row.InvoiceCount,
			OverdueCount:      row.OverdueCount,
			TotalAmount:       row.TotalAmount,
			PaidAmount:        row.PaidAmount,
			OutstandingAmount: row.OutstandingAmount,
			OverdueAmount:     row.OverdueAmount,
			OldestInvoiceDate: row.OldestInvoiceDate,
			MaxDaysOverdue:    maxDaysOverdue,
		})
	}
	return result, nil
}

// Save creates or updates an invoice and its items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(invoice).Error
}

// Delete deletes an invoice and its items
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&invoicing.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Delete(&invoicing.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&invoicing.Invoice{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "invoice_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR notes ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "due_before":
			query = query.Where("due_date < ?", value)
		case "due_after":
			query = query.Where("due_date >= ?", value)
		}
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
