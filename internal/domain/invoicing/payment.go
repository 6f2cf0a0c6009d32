package invoicing

import (
	"fmt"
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus reflects how much of a payment's funds have been assigned
type PaymentStatus string

const (
	PaymentStatusUnallocated        PaymentStatus = "UNALLOCATED"
	PaymentStatusPartiallyAllocated PaymentStatus = "PARTIALLY_ALLOCATED"
	PaymentStatusFullyAllocated     PaymentStatus = "FULLY_ALLOCATED"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodGiro         PaymentMethod = "GIRO"
	PaymentMethodPayNow       PaymentMethod = "PAYNOW"
)

// Payment is a sum of money received or disbursed, assignable to invoices
// through PaymentAllocation rows. InvoiceID is the legacy direct link:
// a payment tied to exactly one invoice without an allocation row.
// SupplierID and CustomerID carry the counterparty of the invoice the
// payment was raised against.
type Payment struct {
	shared.BaseAggregateRoot
	PaymentNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	PaymentDate   time.Time       `gorm:"not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method        PaymentMethod   `gorm:"type:varchar(30);not null"`
	Reference     string          `gorm:"type:varchar(100)"`
	Notes         string          `gorm:"type:text"`
	Status        PaymentStatus   `gorm:"type:varchar(30);not null;default:'UNALLOCATED';index"`
	InvoiceID     *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new payment
func NewPayment(paymentNumber string, paymentDate time.Time, amount decimal.Decimal, method PaymentMethod) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
	}
	if method == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is required")
	}

	payment := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PaymentNumber:     paymentNumber,
		PaymentDate:       paymentDate,
		Amount:            amount,
		Method:            method,
		Status:            PaymentStatusUnallocated,
	}

	payment.AddDomainEvent(NewPaymentCreatedEvent(payment))

	return payment, nil
}

// LinkInvoice sets the legacy direct invoice link. A directly linked
// payment counts fully against that one invoice.
func (p *Payment) LinkInvoice(invoiceID uuid.UUID) {
	p.InvoiceID = &invoiceID
	p.Status = PaymentStatusFullyAllocated
	p.UpdatedAt = time.Now()
}

// UnallocatedAmount returns the funds not yet assigned to any invoice
func (p *Payment) UnallocatedAmount(allocations []PaymentAllocation) decimal.Decimal {
	return p.Amount.Sub(SumAllocated(allocations))
}

// AllocationStatusFor derives a payment status from a payment amount and
// the sum already allocated. Allocation sums accumulate rounding error
// across many rows, so unlike invoice status this rule tolerates a cent.
func AllocationStatusFor(amount, allocated decimal.Decimal) PaymentStatus {
	if allocated.IsZero() {
		return PaymentStatusUnallocated
	}
	if amount.Sub(allocated).GreaterThan(RoundingTolerance) {
		return PaymentStatusPartiallyAllocated
	}
	return PaymentStatusFullyAllocated
}

// RecomputeStatus re-derives the payment status from its allocation rows
func (p *Payment) RecomputeStatus(allocations []PaymentAllocation) {
	p.Status = AllocationStatusFor(p.Amount, SumAllocated(allocations))
	p.UpdatedAt = time.Now()
}

// PlanAllocation validates assigning amount from this payment to the
// invoice and returns the allocation row to persist. Checks run in a
// fixed order so the caller always gets the most specific error first;
// nothing is mutated on failure.
func (p *Payment) PlanAllocation(existing []PaymentAllocation, invoice *Invoice, amount decimal.Decimal, now time.Time, notes string) (*PaymentAllocation, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be greater than zero")
	}

	unallocated := p.UnallocatedAmount(existing)
	if unallocated.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("FULLY_ALLOCATED",
			"This payment is fully allocated. Remove existing allocations first to free up funds")
	}
	if amount.GreaterThan(unallocated) {
		return nil, shared.NewDomainError("EXCEEDS_UNALLOCATED",
			fmt.Sprintf("Allocation amount (%s) exceeds available unallocated amount (%s)",
				amount.StringFixed(2), unallocated.StringFixed(2)))
	}

	// monetary values are never compared at full precision
	roundedAmount := amount.Round(2)
	roundedBalance := invoice.Balance().Round(2)

	if roundedBalance.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVOICE_FULLY_PAID",
			fmt.Sprintf("Invoice %s is already fully paid (balance: %s). Allocating more would over-pay it",
				invoice.InvoiceNumber, invoice.Balance().StringFixed(2)))
	}
	if roundedAmount.GreaterThan(roundedBalance.Add(RoundingTolerance)) {
		return nil, shared.NewDomainError("EXCEEDS_BALANCE",
			fmt.Sprintf("Allocation amount (%s) exceeds invoice balance (%s). The invoice only needs %s to be fully paid",
				amount.StringFixed(2), invoice.Balance().StringFixed(2), invoice.Balance().StringFixed(2)))
	}

	for _, a := range existing {
		if a.InvoiceID == invoice.ID {
			return nil, shared.NewDomainError("ALREADY_ALLOCATED",
				"Payment is already allocated to this invoice. Use update to change the amount")
		}
	}

	return &PaymentAllocation{
		BaseEntity:      shared.NewBaseEntity(),
		PaymentID:       p.ID,
		InvoiceID:       invoice.ID,
		AllocatedAmount: roundedAmount,
		AllocationDate:  now,
		Notes:           notes,
	}, nil
}

// PlanAllocationChange validates changing one of this payment's
// allocation rows to newAmount. The edited row is excluded when
// computing the funds still available on the payment. Returns the
// rounded amount to store.
func (p *Payment) PlanAllocationChange(allocations []PaymentAllocation, target *PaymentAllocation, newAmount decimal.Decimal) (decimal.Decimal, error) {
	if !newAmount.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be greater than zero")
	}

	available := p.Amount.Sub(SumAllocatedExcluding(allocations, target.ID))
	if newAmount.GreaterThan(available) {
		return decimal.Zero, shared.NewDomainError("EXCEEDS_UNALLOCATED",
			fmt.Sprintf("New allocation amount (%s) exceeds available payment amount (%s)",
				newAmount.StringFixed(2), available.StringFixed(2)))
	}

	return newAmount.Round(2), nil
}
