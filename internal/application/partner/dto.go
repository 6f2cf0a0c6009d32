package partner

import (
	"time"

	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// CreateSupplierRequest is the input for registering a supplier
type CreateSupplierRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	GSTRegistered bool   `json:"gst_registered"`
	PaymentDays   *int   `json:"payment_days"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	Notes         string `json:"notes"`
}

// UpdateSupplierRequest is the input for updating a supplier
type UpdateSupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	GSTRegistered bool   `json:"gst_registered"`
	PaymentDays   *int   `json:"payment_days"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	Notes         string `json:"notes"`
}

// CreateCustomerRequest is the input for registering a customer
type CreateCustomerRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentDays   *int   `json:"payment_days"`
	Notes         string `json:"notes"`
}

// UpdateCustomerRequest is the input for updating a customer
type UpdateCustomerRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentDays   *int   `json:"payment_days"`
	Notes         string `json:"notes"`
}

// SupplierResponse is the API representation of a supplier
type SupplierResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	Country       string    `json:"country"`
	GSTRegistered bool      `json:"gst_registered"`
	PaymentDays   int       `json:"payment_days"`
	BankName      string    `json:"bank_name,omitempty"`
	BankAccount   string    `json:"bank_account,omitempty"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSupplierResponse(s *partner.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		Country:       s.Country,
		GSTRegistered: s.GSTRegistered,
		PaymentDays:   s.PaymentDays,
		BankName:      s.BankName,
		BankAccount:   s.BankAccount,
		Status:        string(s.Status),
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func toSupplierResponses(suppliers []partner.Supplier) []SupplierResponse {
	responses := make([]SupplierResponse, 0, len(suppliers))
	for idx := range suppliers {
		responses = append(responses, *toSupplierResponse(&suppliers[idx]))
	}
	return responses
}

// CustomerResponse is the API representation of a customer
type CustomerResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	PaymentDays   int       `json:"payment_days"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toCustomerResponse(c *partner.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		Address:       c.Address,
		PaymentDays:   c.PaymentDays,
		Status:        string(c.Status),
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCustomerResponses(customers []partner.Customer) []CustomerResponse {
	responses := make([]CustomerResponse, 0, len(customers))
	for idx := range customers {
		responses = append(responses, *toCustomerResponse(&customers[idx]))
	}
	return responses
}
