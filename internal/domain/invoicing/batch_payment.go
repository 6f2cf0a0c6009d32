package invoicing

import (
	"fmt"
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a batch payment
type BatchStatus string

const (
	BatchStatusDraft      BatchStatus = "DRAFT"
	BatchStatusReady      BatchStatus = "READY"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
	BatchStatusCancelled  BatchStatus = "CANCELLED"
)

// BatchPaymentItem is one invoice queued for payment inside a batch.
// Once processed it is immutable and carries the generated payment's ID.
type BatchPaymentItem struct {
	shared.BaseEntity
	BatchPaymentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_item_invoice,priority:1"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_item_invoice,priority:2"`
	AmountToPay    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsProcessed    bool            `gorm:"not null;default:false"`
	PaymentID      *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BatchPaymentItem) TableName() string {
	return "batch_payment_items"
}

// BatchPayment is a user-curated set of invoices paid together in one
// processing action. Processing is resumable, not atomic: a mid-loop
// failure reverts the batch to READY with already-processed items kept.
type BatchPayment struct {
	shared.BaseAggregateRoot
	BatchReference string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status         BatchStatus        `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentMethod  PaymentMethod      `gorm:"type:varchar(30)"`
	BankAccount    string             `gorm:"type:varchar(100)"`
	Notes          string             `gorm:"type:text"`
	ProcessedDate  *time.Time         `gorm:""`
	Items          []BatchPaymentItem `gorm:"foreignKey:BatchPaymentID"`
}

// TableName returns the table name for GORM
func (BatchPayment) TableName() string {
	return "batch_payments"
}

// NewBatchPayment creates a new batch in DRAFT status
func NewBatchPayment(batchReference string) (*BatchPayment, error) {
	if batchReference == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_REFERENCE", "Batch reference cannot be empty")
	}

	batch := &BatchPayment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchReference:    batchReference,
		Status:            BatchStatusDraft,
	}

	batch.AddDomainEvent(NewBatchCreatedEvent(batch))

	return batch, nil
}

// IsMutable reports whether items may still be added, removed or edited
func (b *BatchPayment) IsMutable() bool {
	return b.Status == BatchStatusDraft
}

// EnsureMutable fails unless the batch is still in DRAFT status
func (b *BatchPayment) EnsureMutable() error {
	if !b.IsMutable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a batch that has been processed or cancelled")
	}
	return nil
}

// AddItem queues an invoice for payment. The amount defaults to the
// invoice's current balance and must not exceed it.
func (b *BatchPayment) AddItem(invoice *Invoice, amount decimal.Decimal) (*BatchPaymentItem, error) {
	if !b.IsMutable() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add invoices to a batch that is not in Draft status")
	}
	for _, item := range b.Items {
		if item.InvoiceID == invoice.ID {
			return nil, shared.NewDomainError("ALREADY_IN_BATCH", "Invoice is already in this batch")
		}
	}

	if amount.IsZero() {
		amount = invoice.Balance()
	}
	if amount.GreaterThan(invoice.Balance()) {
		return nil, shared.NewDomainError("EXCEEDS_BALANCE",
			fmt.Sprintf("Amount to pay (%s) exceeds invoice balance (%s)",
				amount.StringFixed(2), invoice.Balance().StringFixed(2)))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount to pay must be greater than zero")
	}

	item := BatchPaymentItem{
		BaseEntity:     shared.NewBaseEntity(),
		BatchPaymentID: b.ID,
		InvoiceID:      invoice.ID,
		AmountToPay:    amount.Round(2),
	}
	b.Items = append(b.Items, item)
	b.UpdatedAt = time.Now()

	return &b.Items[len(b.Items)-1], nil
}

// RemoveItem removes an invoice from the batch
func (b *BatchPayment) RemoveItem(itemID uuid.UUID) error {
	if !b.IsMutable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove invoices from a batch that is not in Draft status")
	}

	for idx, item := range b.Items {
		if item.ID == itemID {
			b.Items = append(b.Items[:idx], b.Items[idx+1:]...)
			b.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// UpdateItemAmount changes how much of an invoice the batch will pay.
// The invoice's balance may have moved since the item was added, so the
// amount is re-validated against the live balance passed in.
func (b *BatchPayment) UpdateItemAmount(itemID uuid.UUID, amount decimal.Decimal, invoiceBalance decimal.Decimal) error {
	if !b.IsMutable() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify items in a batch that is not in Draft status")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount to pay must be greater than zero")
	}
	if amount.GreaterThan(invoiceBalance) {
		return shared.NewDomainError("EXCEEDS_BALANCE",
			fmt.Sprintf("Amount to pay (%s) exceeds invoice balance (%s)",
				amount.StringFixed(2), invoiceBalance.StringFixed(2)))
	}

	for idx := range b.Items {
		if b.Items[idx].ID == itemID {
			b.Items[idx].AmountToPay = amount.Round(2)
			b.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// MarkReady transitions the batch from DRAFT to READY
func (b *BatchPayment) MarkReady() error {
	if b.Status != BatchStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only Draft batches can be marked as Ready")
	}
	if len(b.Items) == 0 {
		return shared.NewDomainError("EMPTY_BATCH", "Cannot mark an empty batch as Ready")
	}

	b.Status = BatchStatusReady
	b.UpdatedAt = time.Now()
	return nil
}

// BeginProcessing transitions the batch to PROCESSING. The new status is
// persisted before the item loop starts so other readers see the batch
// as in-flight.
func (b *BatchPayment) BeginProcessing(method PaymentMethod) error {
	if b.Status != BatchStatusReady && b.Status != BatchStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only Ready or Draft batches can be processed")
	}
	if len(b.Items) == 0 {
		return shared.NewDomainError("EMPTY_BATCH", "Cannot process an empty batch")
	}

	b.Status = BatchStatusProcessing
	if method != "" {
		b.PaymentMethod = method
	}
	b.UpdatedAt = time.Now()
	return nil
}

// UnprocessedItems returns the items that still need a payment
func (b *BatchPayment) UnprocessedItems() []*BatchPaymentItem {
	var pending []*BatchPaymentItem
	for idx := range b.Items {
		if !b.Items[idx].IsProcessed {
			pending = append(pending, &b.Items[idx])
		}
	}
	return pending
}

// MarkItemProcessed stamps an item with the payment that settled it
func (b *BatchPayment) MarkItemProcessed(itemID, paymentID uuid.UUID) error {
	for idx := range b.Items {
		if b.Items[idx].ID == itemID {
			b.Items[idx].IsProcessed = true
			b.Items[idx].PaymentID = &paymentID
			return nil
		}
	}
	return shared.ErrNotFound
}

// Complete marks the batch fully processed
func (b *BatchPayment) Complete(now time.Time) {
	b.Status = BatchStatusCompleted
	b.ProcessedDate = &now
	b.UpdatedAt = now
	b.AddDomainEvent(NewBatchProcessedEvent(b))
}

// RevertToReady returns a failed PROCESSING batch to READY. Items already
// processed keep their flags; the batch can be re-processed to finish
// the remainder.
func (b *BatchPayment) RevertToReady() {
	b.Status = BatchStatusReady
	b.UpdatedAt = time.Now()
}

// Cancel cancels the batch; completed batches cannot be cancelled
func (b *BatchPayment) Cancel() error {
	if b.Status == BatchStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a completed batch")
	}

	b.Status = BatchStatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// EnsureDeletable fails unless the batch is still in DRAFT status
func (b *BatchPayment) EnsureDeletable() error {
	if b.Status != BatchStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a batch that is not in Draft status")
	}
	return nil
}

// TotalAmount returns the sum of all item amounts
func (b *BatchPayment) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.AmountToPay)
	}
	return total
}
