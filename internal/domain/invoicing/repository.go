package invoicing

import (
	"context"
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierOutstanding is the per-supplier aggregation of open supplier
// invoices. Pure read projection; never persisted.
type SupplierOutstanding struct {
	SupplierID        uuid.UUID       `json:"supplier_id"`
	SupplierName      string          `json:"supplier_name"`
	InvoiceCount      int             `json:"invoice_count"`
	OverdueCount      int             `json:"overdue_count"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	OverdueAmount     decimal.Decimal `json:"overdue_amount"`
	OldestInvoiceDate time.Time       `json:"oldest_invoice_date"`
	MaxDaysOverdue    int             `json:"max_days_overdue"`
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindAll finds all invoices matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// FindOverdue finds invoices past due that are not fully paid
	FindOverdue(ctx context.Context, now time.Time) ([]Invoice, error)

	// FindOverAllocated finds invoices whose paid amount exceeds the total
	// beyond the rounding tolerance. Non-empty results indicate ledger
	// corruption that RecalculateFromAllocations should repair.
	FindOverAllocated(ctx context.Context) ([]Invoice, error)

	// FindUnpaid finds invoices with an outstanding balance, optionally
	// restricted to one supplier
	FindUnpaid(ctx context.Context, supplierID *uuid.UUID) ([]Invoice, error)

	// OutstandingBySupplier aggregates open supplier invoices per supplier
	OutstandingBySupplier(ctx context.Context, now time.Time) ([]SupplierOutstanding, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// Delete deletes an invoice and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll finds all payments matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Payment, error)

	// FindByInvoiceID finds payments directly linked to an invoice via the
	// legacy InvoiceID field (allocation-based payments are not returned)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// FindUnallocated finds payments with no allocations
	FindUnallocated(ctx context.Context) ([]Payment, error)

	// FindPartiallyAllocated finds payments with unassigned funds remaining
	FindPartiallyAllocated(ctx context.Context) ([]Payment, error)

	// GeneratePaymentNumber issues the next PAY-YYYYMMDD-NNNN number for
	// the given date; the sequence resets daily
	GeneratePaymentNumber(ctx context.Context, date time.Time) (string, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// Delete deletes a payment; its allocations cascade
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts payments matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// PaymentAllocationRepository defines the interface for allocation persistence
type PaymentAllocationRepository interface {
	// FindByID finds an allocation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentAllocation, error)

	// FindByPaymentID finds all allocations of a payment, oldest first
	FindByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]PaymentAllocation, error)

	// FindByInvoiceID finds all allocations against an invoice
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]PaymentAllocation, error)

	// SumByInvoiceID returns the total allocated against one invoice
	SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)

	// SumsByInvoice returns allocation totals grouped by invoice, for the
	// bulk recalculation path
	SumsByInvoice(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)

	// Save creates or updates an allocation
	Save(ctx context.Context, allocation *PaymentAllocation) error

	// Delete deletes an allocation
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByInvoiceID deletes all allocations against an invoice; used
	// before invoice deletion because the foreign key is restrict
	DeleteByInvoiceID(ctx context.Context, invoiceID uuid.UUID) error
}

// BatchPaymentRepository defines the interface for batch payment persistence
type BatchPaymentRepository interface {
	// FindByID finds a batch by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*BatchPayment, error)

	// FindAll finds all batches matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]BatchPayment, error)

	// FindByStatus finds batches in the given status
	FindByStatus(ctx context.Context, status BatchStatus) ([]BatchPayment, error)

	// GenerateBatchReference issues the next BATCH-YYYYMMDD-NNN reference
	// for the given date; the sequence resets daily
	GenerateBatchReference(ctx context.Context, date time.Time) (string, error)

	// Save creates or updates a batch and its items
	Save(ctx context.Context, batch *BatchPayment) error

	// Delete deletes a batch and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
