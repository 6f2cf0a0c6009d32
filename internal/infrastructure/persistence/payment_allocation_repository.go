package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentAllocationRepository implements PaymentAllocationRepository using GORM
type GormPaymentAllocationRepository struct {
	db *gorm.DB
}

// NewGormPaymentAllocationRepository creates a new GormPaymentAllocationRepository
func NewGormPaymentAllocationRepository(db *gorm.DB) *GormPaymentAllocationRepository {
	return &GormPaymentAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormPaymentAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.PaymentAllocation, error) {
	var allocation invoicing.PaymentAllocation
	if err := r.db.WithContext(ctx).First(&allocation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

// FindByPaymentID finds all allocations of a payment, oldest first
func (r *GormPaymentAllocationRepository) FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	var allocations []invoicing.PaymentAllocation
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("allocation_date ASC, created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// FindByInvoiceID finds all allocations against an invoice
func (r *GormPaymentAllocationRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	var allocations []invoicing.PaymentAllocation
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("allocation_date ASC, created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// SumByInvoiceID returns the total allocated against one invoice
func (r *GormPaymentAllocationRepository) SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&invoicing.PaymentAllocation{}).
		Select("SUM(allocated_amount)").
		Where("invoice_id = ?", invoiceID).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// allocationSumRow is one grouped row of the bulk sum query
type allocationSumRow struct {
	InvoiceID uuid.UUID
	Total     decimal.Decimal
}

// SumsByInvoice returns allocation totals grouped by invoice
func (r *GormPaymentAllocationRepository) SumsByInvoice(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []allocationSumRow
	if err := r.db.WithContext(ctx).
		Model(&invoicing.PaymentAllocation{}).
		Select("invoice_id, SUM(allocated_amount) AS total").
		Group("invoice_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.InvoiceID] = row.Total
	}
	return sums, nil
}

// Save creates or updates an allocation
func (r *GormPaymentAllocationRepository) Save(ctx context.Context, allocation *invoicing.PaymentAllocation) error {
	return r.db.WithContext(ctx).Save(allocation).Error
}

// Delete deletes an allocation
func (r *GormPaymentAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&invoicing.PaymentAllocation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByInvoiceID deletes all allocations against an invoice
func (r *GormPaymentAllocationRepository) DeleteByInvoiceID(ctx context.Context, invoiceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&invoicing.PaymentAllocation{}, "invoice_id = ?", invoiceID).Error
}

// Ensure GormPaymentAllocationRepository implements PaymentAllocationRepository
var _ invoicing.PaymentAllocationRepository = (*GormPaymentAllocationRepository)(nil)
