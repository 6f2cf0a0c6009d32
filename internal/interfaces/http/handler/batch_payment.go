package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/invoicehub/backend/internal/application/invoicing"
	"github.com/invoicehub/backend/internal/interfaces/http/dto"
)

// BatchPaymentHandler handles batch payment run API endpoints
type BatchPaymentHandler struct {
	BaseHandler
	batchService *invoicingapp.BatchPaymentService
}

// NewBatchPaymentHandler creates a new BatchPaymentHandler
func NewBatchPaymentHandler(batchService *invoicingapp.BatchPaymentService) *BatchPaymentHandler {
	return &BatchPaymentHandler{
		batchService: batchService,
	}
}

// Create opens a new draft batch
func (h *BatchPaymentHandler) Create(c *gin.Context) {
	var req invoicingapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.batchService.CreateBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, batch)
}

// GetByID retrieves a batch with its queued invoices
func (h *BatchPaymentHandler) GetByID(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.batchService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// List retrieves a paginated list of batches
func (h *BatchPaymentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	result, err := h.batchService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// AddItem queues an invoice into a draft batch
func (h *BatchPaymentHandler) AddItem(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req invoicingapp.AddBatchItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.batchService.AddInvoiceToBatch(c.Request.Context(), batchID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// RemoveItem drops a queued invoice from a draft batch
func (h *BatchPaymentHandler) RemoveItem(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	if err := h.batchService.RemoveInvoiceFromBatch(c.Request.Context(), batchID, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// UpdateItem changes how much of an invoice a batch will pay
func (h *BatchPaymentHandler) UpdateItem(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req invoicingapp.UpdateBatchItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.batchService.UpdateItemAmount(c.Request.Context(), batchID, itemID, req.Amount); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// MarkReady moves a non-empty draft batch to READY
func (h *BatchPaymentHandler) MarkReady(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	if err := h.batchService.MarkReady(c.Request.Context(), batchID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Process executes a READY batch, creating one payment per queued invoice
func (h *BatchPaymentHandler) Process(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req invoicingapp.ProcessBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.batchService.ProcessBatch(c.Request.Context(), batchID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	batch, err := h.batchService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, batch)
}

// Cancel cancels a batch that has not been processed
func (h *BatchPaymentHandler) Cancel(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	if err := h.batchService.CancelBatch(c.Request.Context(), batchID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes a batch that has not been processed
func (h *BatchPaymentHandler) Delete(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	if err := h.batchService.DeleteBatch(c.Request.Context(), batchID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetUnpaidInvoices lists invoices with an open balance, optionally for one supplier
func (h *BatchPaymentHandler) GetUnpaidInvoices(c *gin.Context) {
	var supplierID *uuid.UUID
	if raw := c.Query("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid supplier_id format")
			return
		}
		supplierID = &id
	}

	invoices, err := h.batchService.GetUnpaidInvoices(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoices)
}
