package invoicing

import (
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the invoicing context
const (
	EventTypeInvoiceCreated       = "invoicing.invoice.created"
	EventTypeInvoiceStatusChanged = "invoicing.invoice.status_changed"
	EventTypePaymentCreated       = "invoicing.payment.created"
	EventTypePaymentAllocated     = "invoicing.payment.allocated"
	EventTypeBatchCreated         = "invoicing.batch.created"
	EventTypeBatchProcessed       = "invoicing.batch.processed"
)

// InvoiceCreatedEvent is raised when a new invoice enters the ledger
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string      `json:"invoice_number"`
	InvoiceType   InvoiceType `json:"invoice_type"`
}

// NewInvoiceCreatedEvent creates a new invoice created event
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", i.ID),
		InvoiceNumber:   i.InvoiceNumber,
		InvoiceType:     i.Type,
	}
}

// InvoiceStatusChangedEvent is raised whenever the derived status moves
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	OldStatus     InvoiceStatus   `json:"old_status"`
	NewStatus     InvoiceStatus   `json:"new_status"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// NewInvoiceStatusChangedEvent creates a new status changed event
func NewInvoiceStatusChangedEvent(i *Invoice, oldStatus InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, "Invoice", i.ID),
		InvoiceNumber:   i.InvoiceNumber,
		OldStatus:       oldStatus,
		NewStatus:       i.Status,
		PaidAmount:      i.PaidAmount,
	}
}

// PaymentCreatedEvent is raised when a payment is recorded
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentCreatedEvent creates a new payment created event
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, "Payment", p.ID),
		PaymentNumber:   p.PaymentNumber,
		Amount:          p.Amount,
	}
}

// PaymentAllocatedEvent is raised when payment funds are assigned to an invoice
type PaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
}

// NewPaymentAllocatedEvent creates a new payment allocated event
func NewPaymentAllocatedEvent(a *PaymentAllocation) *PaymentAllocatedEvent {
	return &PaymentAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentAllocated, "Payment", a.PaymentID),
		InvoiceID:       a.InvoiceID,
		AllocatedAmount: a.AllocatedAmount,
	}
}

// BatchCreatedEvent is raised when a batch payment is created
type BatchCreatedEvent struct {
	shared.BaseDomainEvent
	BatchReference string `json:"batch_reference"`
}

// NewBatchCreatedEvent creates a new batch created event
func NewBatchCreatedEvent(b *BatchPayment) *BatchCreatedEvent {
	return &BatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCreated, "BatchPayment", b.ID),
		BatchReference:  b.BatchReference,
	}
}

// BatchProcessedEvent is raised when a batch completes processing
type BatchProcessedEvent struct {
	shared.BaseDomainEvent
	BatchReference string          `json:"batch_reference"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ItemCount      int             `json:"item_count"`
}

// NewBatchProcessedEvent creates a new batch processed event
func NewBatchProcessedEvent(b *BatchPayment) *BatchProcessedEvent {
	return &BatchProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchProcessed, "BatchPayment", b.ID),
		BatchReference:  b.BatchReference,
		TotalAmount:     b.TotalAmount(),
		ItemCount:       len(b.Items),
	}
}
