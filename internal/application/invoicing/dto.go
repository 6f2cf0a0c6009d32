package invoicing

import (
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is the input for creating an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string                     `json:"invoice_number" binding:"required"`
	Type          string                     `json:"type" binding:"required,oneof=CUSTOMER SUPPLIER"`
	SupplierID    *uuid.UUID                 `json:"supplier_id"`
	CustomerID    *uuid.UUID                 `json:"customer_id"`
	InvoiceDate   time.Time                  `json:"invoice_date" binding:"required"`
	DueDate       time.Time                  `json:"due_date" binding:"required"`
	GSTRate       decimal.Decimal            `json:"gst_rate"`
	Notes         string                     `json:"notes"`
	Items         []CreateInvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateInvoiceItemRequest is one line of a new invoice
type CreateInvoiceItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// UpdateInvoiceRequest is the input for updating an invoice's mutable fields
type UpdateInvoiceRequest struct {
	DueDate *time.Time `json:"due_date"`
	Notes   *string    `json:"notes"`
}

// CreatePaymentRequest is the input for recording a payment
type CreatePaymentRequest struct {
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	InvoiceID   *uuid.UUID      `json:"invoice_id"`
}

// UpdatePaymentRequest is the input for updating a payment
type UpdatePaymentRequest struct {
	PaymentDate time.Time       `json:"payment_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Method      string          `json:"method" binding:"required"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	InvoiceID   *uuid.UUID      `json:"invoice_id"`
}

// AllocateRequest is the input for assigning payment funds to an invoice
type AllocateRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Notes     string          `json:"notes"`
}

// UpdateAllocationRequest is the input for changing an allocation's amount
type UpdateAllocationRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Notes  string          `json:"notes"`
}

// CreateBatchRequest is the input for creating a batch payment
type CreateBatchRequest struct {
	PaymentMethod string `json:"payment_method"`
	BankAccount   string `json:"bank_account"`
	Notes         string `json:"notes"`
}

// AddBatchItemRequest queues an invoice into a batch; a zero amount means
// "pay the full current balance"
type AddBatchItemRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// UpdateBatchItemRequest changes how much of an invoice a batch will pay
type UpdateBatchItemRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ProcessBatchRequest is the input for processing a batch
type ProcessBatchRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	Reference     string `json:"reference"`
}

// InvoiceItemResponse is one invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse is the API representation of an invoice
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	Type          string                `json:"type"`
	SupplierID    *uuid.UUID            `json:"supplier_id,omitempty"`
	CustomerID    *uuid.UUID            `json:"customer_id,omitempty"`
	InvoiceDate   time.Time             `json:"invoice_date"`
	DueDate       time.Time             `json:"due_date"`
	SubTotal      decimal.Decimal       `json:"sub_total"`
	GSTRate       decimal.Decimal       `json:"gst_rate"`
	GSTAmount     decimal.Decimal       `json:"gst_amount"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	Balance       decimal.Decimal       `json:"balance"`
	Status        string                `json:"status"`
	Notes         string                `json:"notes,omitempty"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func toInvoiceResponse(inv *invoicing.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Type:          string(inv.Type),
		SupplierID:    inv.SupplierID,
		CustomerID:    inv.CustomerID,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		SubTotal:      inv.SubTotal,
		GSTRate:       inv.GSTRate,
		GSTAmount:     inv.GSTAmount,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		Balance:       inv.Balance(),
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return resp
}

func toInvoiceResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, 0, len(invoices))
	for idx := range invoices {
		responses = append(responses, *toInvoiceResponse(&invoices[idx]))
	}
	return responses
}

// SupplierOutstandingResponse is one row of the per-supplier outstanding
// report. Amounts carry the currency so report consumers need no
// out-of-band convention; the books are kept in SGD.
type SupplierOutstandingResponse struct {
	SupplierID        uuid.UUID         `json:"supplier_id"`
	SupplierName      string            `json:"supplier_name"`
	InvoiceCount      int               `json:"invoice_count"`
	OverdueCount      int               `json:"overdue_count"`
	TotalAmount       valueobject.Money `json:"total_amount"`
	PaidAmount        valueobject.Money `json:"paid_amount"`
	OutstandingAmount valueobject.Money `json:"outstanding_amount"`
	OverdueAmount     valueobject.Money `json:"overdue_amount"`
	OldestInvoiceDate time.Time         `json:"oldest_invoice_date"`
	MaxDaysOverdue    int               `json:"max_days_overdue"`
}

func toSupplierOutstandingResponses(rows []invoicing.SupplierOutstanding) []SupplierOutstandingResponse {
	responses := make([]SupplierOutstandingResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, SupplierOutstandingResponse{
			SupplierID:        row.SupplierID,
			SupplierName:      row.SupplierName,
			InvoiceCount:      row.InvoiceCount,
			OverdueCount:      row.OverdueCount,
			TotalAmount:       valueobject.NewMoneySGD(row.TotalAmount),
			PaidAmount:        valueobject.NewMoneySGD(row.PaidAmount),
			OutstandingAmount: valueobject.NewMoneySGD(row.OutstandingAmount),
			OverdueAmount:     valueobject.NewMoneySGD(row.OverdueAmount),
			OldestInvoiceDate: row.OldestInvoiceDate,
			MaxDaysOverdue:    row.MaxDaysOverdue,
		})
	}
	return responses
}

// PaymentResponse is the API representation of a payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	PaymentDate   time.Time       `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toPaymentResponse(p *invoicing.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		PaymentDate:   p.PaymentDate,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Reference:     p.Reference,
		Notes:         p.Notes,
		Status:        string(p.Status),
		InvoiceID:     p.InvoiceID,
		SupplierID:    p.SupplierID,
		CustomerID:    p.CustomerID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPaymentResponses(payments []invoicing.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(payments))
	for idx := range payments {
		responses = append(responses, *toPaymentResponse(&payments[idx]))
	}
	return responses
}

// AllocationResponse is the API representation of a payment allocation
type AllocationResponse struct {
	ID              uuid.UUID       `json:"id"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
	AllocationDate  time.Time       `json:"allocation_date"`
	Notes           string          `json:"notes,omitempty"`
}

func toAllocationResponse(a *invoicing.PaymentAllocation) *AllocationResponse {
	return &AllocationResponse{
		ID:              a.ID,
		PaymentID:       a.PaymentID,
		InvoiceID:       a.InvoiceID,
		AllocatedAmount: a.AllocatedAmount,
		AllocationDate:  a.AllocationDate,
		Notes:           a.Notes,
	}
}

func toAllocationResponses(allocations []invoicing.PaymentAllocation) []AllocationResponse {
	responses := make([]AllocationResponse, 0, len(allocations))
	for idx := range allocations {
		responses = append(responses, *toAllocationResponse(&allocations[idx]))
	}
	return responses
}

// BatchItemResponse is one queued invoice in a batch response
type BatchItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	AmountToPay decimal.Decimal `json:"amount_to_pay"`
	IsProcessed bool            `json:"is_processed"`
	PaymentID   *uuid.UUID      `json:"payment_id,omitempty"`
}

// BatchResponse is the API representation of a batch payment
type BatchResponse struct {
	ID             uuid.UUID           `json:"id"`
	BatchReference string              `json:"batch_reference"`
	Status         string              `json:"status"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	BankAccount    string              `json:"bank_account,omitempty"`
	Notes          string              `json:"notes,omitempty"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	ProcessedDate  *time.Time          `json:"processed_date,omitempty"`
	Items          []BatchItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func toBatchResponse(b *invoicing.BatchPayment) *BatchResponse {
	resp := &BatchResponse{
		ID:             b.ID,
		BatchReference: b.BatchReference,
		Status:         string(b.Status),
		PaymentMethod:  string(b.PaymentMethod),
		BankAccount:    b.BankAccount,
		Notes:          b.Notes,
		TotalAmount:    b.TotalAmount(),
		ProcessedDate:  b.ProcessedDate,
		Items:          make([]BatchItemResponse, 0, len(b.Items)),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, BatchItemResponse{
			ID:          item.ID,
			InvoiceID:   item.InvoiceID,
			AmountToPay: item.AmountToPay,
			IsProcessed: item.IsProcessed,
			PaymentID:   item.PaymentID,
		})
	}
	return resp
}

func toBatchResponses(batches []invoicing.BatchPayment) []BatchResponse {
	responses := make([]BatchResponse, 0, len(batches))
	for idx := range batches {
		responses = append(responses, *toBatchResponse(&batches[idx]))
	}
	return responses
}
