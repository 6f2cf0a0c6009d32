package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/invoicehub/backend/internal/application/invoicing"
	"github.com/invoicehub/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment and allocation API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *invoicingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *invoicingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Create records a new payment
func (h *PaymentHandler) Create(c *gin.Context) {
	var req invoicingapp.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payment)
}

// GetByID retrieves a payment by its ID
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// List retrieves a paginated list of payments
func (h *PaymentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if method := c.Query("method"); method != "" {
		filter.Filters["method"] = method
	}
	if from := c.Query("date_from"); from != "" {
		filter.Filters["date_from"] = from
	}
	if to := c.Query("date_to"); to != "" {
		filter.Filters["date_to"] = to
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update rewrites a payment's details, replaying its ledger effects
func (h *PaymentHandler) Update(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req invoicingapp.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.paymentService.UpdatePayment(c.Request.Context(), paymentID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes a payment, unwinding its allocations from the ledger
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), paymentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Allocate assigns part of a payment's funds to an invoice
func (h *PaymentHandler) Allocate(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req invoicingapp.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	allocation, err := h.paymentService.AllocatePaymentToInvoice(
		c.Request.Context(), paymentID, req.InvoiceID, req.Amount, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, allocation)
}

// GetAllocations lists a payment's allocations
func (h *PaymentHandler) GetAllocations(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	allocations, err := h.paymentService.GetAllocations(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, allocations)
}

// UnallocatedAmountResponse reports a payment's free funds
type UnallocatedAmountResponse struct {
	PaymentID         uuid.UUID       `json:"payment_id"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
}

// GetUnallocatedAmount reports how much of a payment is not yet allocated
func (h *PaymentHandler) GetUnallocatedAmount(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	amount, err := h.paymentService.GetUnallocatedAmount(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, UnallocatedAmountResponse{PaymentID: paymentID, UnallocatedAmount: amount})
}

// ListUnallocated lists payments with no allocations at all
func (h *PaymentHandler) ListUnallocated(c *gin.Context) {
	payments, err := h.paymentService.GetUnallocated(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// ListPartiallyAllocated lists payments with free funds remaining
func (h *PaymentHandler) ListPartiallyAllocated(c *gin.Context) {
	payments, err := h.paymentService.GetPartiallyAllocated(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}

// UpdateAllocation changes an existing allocation's amount
func (h *PaymentHandler) UpdateAllocation(c *gin.Context) {
	allocationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID format")
		return
	}

	var req invoicingapp.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.paymentService.UpdateAllocation(c.Request.Context(), allocationID, req); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteAllocation removes an allocation, returning its funds to the payment
func (h *PaymentHandler) DeleteAllocation(c *gin.Context) {
	allocationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid allocation ID format")
		return
	}

	if err := h.paymentService.DeleteAllocation(c.Request.Context(), allocationID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
