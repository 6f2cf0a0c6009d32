package handler

import (
	"github.com/gin-gonic/gin"

	partnerapp "github.com/invoicehub/backend/internal/application/partner"
	"github.com/invoicehub/backend/internal/interfaces/http/dto"
)

// SupplierHandler exposes the supplier CRUD and lifecycle endpoints.
type SupplierHandler struct {
	BaseHandler
	suppliers *partnerapp.SupplierService
}

func NewSupplierHandler(suppliers *partnerapp.SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req partnerapp.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := h.suppliers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, supplier)
}

func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid supplier ID format")
	if !ok {
		return
	}

	supplier, err := h.suppliers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, supplier)
}

// GetByCode resolves a supplier by its business code, for imports that
// reference suppliers by code rather than ID.
func (h *SupplierHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Supplier code is required")
		return
	}

	supplier, err := h.suppliers.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, supplier)
}

func (h *SupplierHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if gst := c.Query("gst_registered"); gst != "" {
		filter.Filters["gst_registered"] = gst == "true"
	}

	result, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListActive backs supplier pickers and batch building.
func (h *SupplierHandler) ListActive(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	suppliers, err := h.suppliers.ListActive(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, suppliers)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid supplier ID format")
	if !ok {
		return
	}

	var req partnerapp.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := h.suppliers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, supplier)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid supplier ID format")
	if !ok {
		return
	}

	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SupplierHandler) Activate(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid supplier ID format")
	if !ok {
		return
	}

	if err := h.suppliers.Activate(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *SupplierHandler) Deactivate(c *gin.Context) {
	id, ok := h.parseUUID(c, "id", "Invalid supplier ID format")
	if !ok {
		return
	}

	if err := h.suppliers.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
