package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/invoicehub/backend/internal/application/invoicing"
	"github.com/invoicehub/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice ledger API endpoints
type InvoiceHandler struct {
	BaseHandler
	ledgerService *invoicingapp.LedgerService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(ledgerService *invoicingapp.LedgerService) *InvoiceHandler {
	return &InvoiceHandler{
		ledgerService: ledgerService,
	}
}

// Create registers a new invoice with its lines
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoicingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.ledgerService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID retrieves an invoice with its lines
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.ledgerService.GetInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List retrieves a paginated list of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if invType := c.Query("type"); invType != "" {
		filter.Filters["type"] = invType
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		id, err := uuid.Parse(supplierID)
		if err != nil {
			h.BadRequest(c, "Invalid supplier_id format")
			return
		}
		filter.Filters["supplier_id"] = id
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		id, err := uuid.Parse(customerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id format")
			return
		}
		filter.Filters["customer_id"] = id
	}

	result, err := h.ledgerService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update changes an invoice's mutable fields (due date, notes)
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req invoicingapp.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.ledgerService.UpdateInvoice(c.Request.Context(), invoiceID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes an invoice after shedding its allocations
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.ledgerService.DeleteInvoice(c.Request.Context(), invoiceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Recalculate rebuilds one invoice's paid amount from its allocation rows
func (h *InvoiceHandler) Recalculate(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	if err := h.ledgerService.RecalculateInvoice(c.Request.Context(), invoiceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RecalculateAllResponse reports how many invoices a full rebuild touched
type RecalculateAllResponse struct {
	UpdatedCount int `json:"updated_count"`
}

// RecalculateAll rebuilds every invoice's paid amount from allocation rows
func (h *InvoiceHandler) RecalculateAll(c *gin.Context) {
	updated, err := h.ledgerService.RecalculateAll(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, RecalculateAllResponse{UpdatedCount: updated})
}

// GetOverdue lists unpaid invoices past their due date
func (h *InvoiceHandler) GetOverdue(c *gin.Context) {
	invoices, err := h.ledgerService.GetOverdue(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// GetOverAllocated lists invoices whose paid amount exceeds their total
func (h *InvoiceHandler) GetOverAllocated(c *gin.Context) {
	invoices, err := h.ledgerService.GetOverAllocated(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}

// SupplierOutstanding aggregates outstanding supplier invoices per supplier
func (h *InvoiceHandler) SupplierOutstanding(c *gin.Context) {
	rows, err := h.ledgerService.SupplierOutstanding(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rows)
}
