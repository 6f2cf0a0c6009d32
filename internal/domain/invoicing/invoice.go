package invoicing

import (
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "UNPAID"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// InvoiceType distinguishes invoices we issue from invoices we receive
type InvoiceType string

const (
	InvoiceTypeCustomer InvoiceType = "CUSTOMER"
	InvoiceTypeSupplier InvoiceType = "SUPPLIER"
)

// RoundingTolerance absorbs accumulated cent-level rounding noise when
// comparing allocation sums. Invoice status computation deliberately does
// NOT use it; see RecomputeStatus.
var RoundingTolerance = decimal.New(1, -2)

// InvoiceItem is a line on an invoice
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// NewInvoiceItem creates an invoice line with the amount derived from
// quantity and unit price, rounded to cents
func NewInvoiceItem(invoiceID uuid.UUID, description string, quantity, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Item unit price cannot be negative")
	}

	return &InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   invoiceID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice).Round(2),
	}, nil
}

// Invoice is the aggregate root of the invoice ledger. PaidAmount is the
// single stored mutable monetary field; Balance is always derived from it.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type          InvoiceType     `gorm:"type:varchar(20);not null"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	InvoiceDate   time.Time       `gorm:"not null"`
	DueDate       time.Time       `gorm:"not null;index"`
	SubTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GSTRate       decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	GSTAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	Notes         string          `gorm:"type:text"`
	Items         []InvoiceItem   `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice
func NewInvoice(invoiceNumber string, invoiceType InvoiceType, invoiceDate, dueDate time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if invoiceType != InvoiceTypeCustomer && invoiceType != InvoiceTypeSupplier {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", "Invoice type must be CUSTOMER or SUPPLIER")
	}
	if dueDate.Before(invoiceDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}

	invoice := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		Type:              invoiceType,
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
		SubTotal:          decimal.Zero,
		GSTRate:           decimal.Zero,
		GSTAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		Status:            InvoiceStatusUnpaid,
	}

	invoice.AddDomainEvent(NewInvoiceCreatedEvent(invoice))

	return invoice, nil
}

// SetSupplier links the invoice to a supplier
func (i *Invoice) SetSupplier(supplierID uuid.UUID) {
	i.SupplierID = &supplierID
	i.UpdatedAt = time.Now()
}

// SetCustomer links the invoice to a customer
func (i *Invoice) SetCustomer(customerID uuid.UUID) {
	i.CustomerID = &customerID
	i.UpdatedAt = time.Now()
}

// SetItems replaces the invoice lines and recomputes totals
func (i *Invoice) SetItems(items []InvoiceItem, gstRate decimal.Decimal) error {
	if gstRate.IsNegative() {
		return shared.NewDomainError("INVALID_GST_RATE", "GST rate cannot be negative")
	}

	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.Amount)
	}

	i.Items = items
	i.SubTotal = subTotal
	i.GSTRate = gstRate
	i.GSTAmount = subTotal.Mul(gstRate).Div(decimal.NewFromInt(100)).Round(2)
	i.TotalAmount = i.SubTotal.Add(i.GSTAmount)
	i.UpdatedAt = time.Now()

	return nil
}

// Balance returns the amount still owed. Always derived, never stored.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// SetPaidAmount records a new paid amount and recomputes the status.
// Every mutation of PaidAmount must come through here.
func (i *Invoice) SetPaidAmount(paid decimal.Decimal, now time.Time) {
	i.PaidAmount = paid
	i.UpdatedAt = now
	i.RecomputeStatus(now)
}

// RecomputeStatus re-derives the status from PaidAmount, TotalAmount and
// DueDate. Comparisons are exact: no tolerance is applied at the paid
// boundary, unlike the allocation-side rules that use RoundingTolerance.
func (i *Invoice) RecomputeStatus(now time.Time) {
	previous := i.Status

	switch {
	case i.PaidAmount.GreaterThanOrEqual(i.TotalAmount):
		i.Status = InvoiceStatusPaid
	case i.PaidAmount.GreaterThan(decimal.Zero):
		i.Status = InvoiceStatusPartial
	case i.DueDate.Before(now):
		i.Status = InvoiceStatusOverdue
	default:
		i.Status = InvoiceStatusUnpaid
	}

	if i.Status != previous {
		i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, previous))
	}
}

// IsOverdue reports whether the invoice is past due and not fully paid
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status != InvoiceStatusPaid && i.DueDate.Before(now)
}

// IsOverAllocated reports whether more money has been applied to the
// invoice than it is worth, beyond rounding noise. A true result means
// the ledger needs repair, not that an operation should fail.
func (i *Invoice) IsOverAllocated() bool {
	return i.PaidAmount.GreaterThan(i.TotalAmount.Add(RoundingTolerance))
}

// DaysOverdue returns how many whole days past due the invoice is, or 0
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.DueDate.Before(now) {
		return 0
	}
	return int(now.Sub(i.DueDate).Hours() / 24)
}
