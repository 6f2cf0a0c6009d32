package partner

import (
	"strings"
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "ACTIVE"
	SupplierStatusInactive SupplierStatus = "INACTIVE"
)

// Supplier represents a vendor that issues invoices to us.
// It is the aggregate root for supplier-related operations.
type Supplier struct {
	shared.BaseAggregateRoot
	Code          string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string         `gorm:"type:varchar(200);not null"`
	ContactPerson string         `gorm:"type:varchar(100)"`
	Phone         string         `gorm:"type:varchar(50)"`
	Email         string         `gorm:"type:varchar(200);index"`
	Address       string         `gorm:"type:text"`
	Country       string         `gorm:"type:varchar(100);default:'Singapore'"`
	GSTRegistered bool           `gorm:"not null;default:false"`
	PaymentDays   int            `gorm:"not null;default:30"`
	BankName      string         `gorm:"type:varchar(200)"`
	BankAccount   string         `gorm:"type:varchar(100)"`
	Status        SupplierStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Notes         string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(code, name string) (*Supplier, error) {
	if err := validateSupplierCode(code); err != nil {
		return nil, err
	}
	if err := validatePartnerName(name); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Country:           "Singapore",
		PaymentDays:       30,
		Status:            SupplierStatusActive,
	}

	supplier.AddDomainEvent(NewSupplierCreatedEvent(supplier))

	return supplier, nil
}

// Update updates the supplier's basic information
func (s *Supplier) Update(name string) error {
	if err := validatePartnerName(name); err != nil {
		return err
	}

	s.Name = name
	s.UpdatedAt = time.Now()

	return nil
}

// SetContact sets the supplier's contact information
func (s *Supplier) SetContact(contactPerson, phone, email string) error {
	if contactPerson != "" && len(contactPerson) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	s.ContactPerson = contactPerson
	s.Phone = phone
	s.Email = email
	s.UpdatedAt = time.Now()

	return nil
}

// SetAddress sets the supplier's address
func (s *Supplier) SetAddress(address, country string) error {
	if address != "" && len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	s.Address = address
	if country != "" {
		s.Country = country
	}
	s.UpdatedAt = time.Now()

	return nil
}

// SetPaymentDays sets the supplier's payment terms in days
func (s *Supplier) SetPaymentDays(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_PAYMENT_DAYS", "Payment days cannot be negative")
	}
	if days > 365 {
		return shared.NewDomainError("INVALID_PAYMENT_DAYS", "Payment days cannot exceed 365")
	}

	s.PaymentDays = days
	s.UpdatedAt = time.Now()

	return nil
}

// SetBankInfo sets the supplier's bank information
func (s *Supplier) SetBankInfo(bankName, bankAccount string) error {
	if bankName != "" && len(bankName) > 200 {
		return shared.NewDomainError("INVALID_BANK_NAME", "Bank name cannot exceed 200 characters")
	}
	if bankAccount != "" && len(bankAccount) > 100 {
		return shared.NewDomainError("INVALID_BANK_ACCOUNT", "Bank account cannot exceed 100 characters")
	}

	s.BankName = bankName
	s.BankAccount = bankAccount
	s.UpdatedAt = time.Now()

	return nil
}

// Activate activates the supplier
func (s *Supplier) Activate() error {
	if s.Status == SupplierStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Supplier is already active")
	}

	s.Status = SupplierStatusActive
	s.UpdatedAt = time.Now()

	return nil
}

// Deactivate deactivates the supplier
func (s *Supplier) Deactivate() error {
	if s.Status == SupplierStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Supplier is already inactive")
	}

	s.Status = SupplierStatusInactive
	s.UpdatedAt = time.Now()

	return nil
}

// IsActive returns true if the supplier is active
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

func validateSupplierCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Supplier code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validatePartnerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
