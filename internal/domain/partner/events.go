package partner

import (
	"github.com/invoicehub/backend/internal/domain/shared"
)

// Event types for the partner context
const (
	EventTypeSupplierCreated = "partner.supplier.created"
	EventTypeCustomerCreated = "partner.customer.created"
)

// SupplierCreatedEvent is raised when a new supplier is registered
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewSupplierCreatedEvent creates a new supplier created event
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, "Supplier", s.ID),
		Code:            s.Code,
		Name:            s.Name,
	}
}

// CustomerCreatedEvent is raised when a new customer is registered
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCustomerCreatedEvent creates a new customer created event
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, "Customer", c.ID),
		Name:            c.Name,
	}
}
