package partner

import (
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

// Customer represents a party we issue invoices to.
type Customer struct {
	shared.BaseAggregateRoot
	Name          string         `gorm:"type:varchar(200);not null"`
	ContactPerson string         `gorm:"type:varchar(100)"`
	Phone         string         `gorm:"type:varchar(50)"`
	Email         string         `gorm:"type:varchar(200);index"`
	Address       string         `gorm:"type:text"`
	PaymentDays   int            `gorm:"not null;default:30"`
	Status        CustomerStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Notes         string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(name string) (*Customer, error) {
	if err := validatePartnerName(name); err != nil {
		return nil, err
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		PaymentDays:       30,
		Status:            CustomerStatusActive,
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name string) error {
	if err := validatePartnerName(name); err != nil {
		return err
	}

	c.Name = name
	c.UpdatedAt = time.Now()

	return nil
}

// SetContact sets the customer's contact information
func (c *Customer) SetContact(contactPerson, phone, email string) error {
	if contactPerson != "" && len(contactPerson) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	c.ContactPerson = contactPerson
	c.Phone = phone
	c.Email = email
	c.UpdatedAt = time.Now()

	return nil
}

// SetAddress sets the customer's address
func (c *Customer) SetAddress(address string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	c.Address = address
	c.UpdatedAt = time.Now()

	return nil
}

// SetPaymentDays sets the customer's payment terms in days
func (c *Customer) SetPaymentDays(days int) error {
	if days < 0 || days > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_DAYS", "Payment days must be between 0 and 365")
	}

	c.PaymentDays = days
	c.UpdatedAt = time.Now()

	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}

	c.Status = CustomerStatusInactive
	c.UpdatedAt = time.Now()

	return nil
}

// Activate activates the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Customer is already active")
	}

	c.Status = CustomerStatusActive
	c.UpdatedAt = time.Now()

	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}
