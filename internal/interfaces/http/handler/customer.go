package handler

import (
	"github.com/gin-gonic/gin"

	partnerapp "github.com/invoicehub/backend/internal/application/partner"
	"github.com/invoicehub/backend/internal/interfaces/http/dto"
)

// CustomerHandler exposes the customer CRUD and lifecycle endpoints.
type CustomerHandler struct {
	BaseHandler
	customers *partnerapp.CustomerService
}

func NewCustomerHandler(customers *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, customer)
}

func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid customer ID format")
	if !ok {
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customer)
}

func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	result, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListActive backs customer pickers on invoice entry.
func (h *CustomerHandler) ListActive(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customers, err := h.customers.ListActive(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customers)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid customer ID format")
	if !ok {
		return
	}

	var req partnerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid customer ID format")
	if !ok {
		return
	}

	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CustomerHandler) Activate(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid customer ID format")
	if !ok {
		return
	}

	if err := h.customers.Activate(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CustomerHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid customer ID format")
	if !ok {
		return
	}

	if err := h.customers.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
