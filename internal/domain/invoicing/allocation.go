package invoicing

import (
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocation assigns part of a payment's funds to one invoice.
// At most one allocation may exist per (payment, invoice) pair.
type PaymentAllocation struct {
	shared.BaseEntity
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_payment_invoice,priority:1"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_payment_invoice,priority:2"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocationDate  time.Time       `gorm:"not null"`
	Notes           string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentAllocation) TableName() string {
	return "payment_allocations"
}

// SumAllocated returns the total amount allocated across the given rows
func SumAllocated(allocations []PaymentAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.AllocatedAmount)
	}
	return total
}

// SumAllocatedExcluding sums allocations skipping the row with the given ID.
// Used when re-validating an allocation edit against the payment's funds.
func SumAllocatedExcluding(allocations []PaymentAllocation, exclude uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		if a.ID == exclude {
			continue
		}
		total = total.Add(a.AllocatedAmount)
	}
	return total
}
