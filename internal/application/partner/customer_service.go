package partner

import (
	"context"

	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	publisher    shared.EventPublisher
}

// CustomerServiceOption configures a CustomerService
type CustomerServiceOption func(*CustomerService)

// WithCustomerEventPublisher wires an event publisher into the service
func WithCustomerEventPublisher(publisher shared.EventPublisher) CustomerServiceOption {
	return func(s *CustomerService) {
		s.publisher = publisher
	}
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, opts ...CustomerServiceOption) *CustomerService {
	s := &CustomerService{customerRepo: customerRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.Name)
	if err != nil {
		return nil, err
	}

	if err := applyCustomerFields(customer, req.ContactPerson, req.Phone, req.Email, req.Address, req.PaymentDays); err != nil {
		return nil, err
	}
	customer.Notes = req.Notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.publish(ctx, customer.GetDomainEvents())
	customer.ClearDomainEvents()

	return toCustomerResponse(customer), nil
}

// GetByID returns one customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// List returns customers matching the filter with a total count
func (s *CustomerService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[CustomerResponse], error) {
	customers, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toCustomerResponses(customers), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListActive returns active customers
func (s *CustomerService) ListActive(ctx context.Context, filter shared.Filter) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toCustomerResponses(customers), nil
}

// Update updates a customer's details
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := customer.Update(req.Name); err != nil {
		return nil, err
	}
	if err := applyCustomerFields(customer, req.ContactPerson, req.Phone, req.Email, req.Address, req.PaymentDays); err != nil {
		return nil, err
	}
	customer.Notes = req.Notes

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// Activate activates a customer
func (s *CustomerService) Activate(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := customer.Activate(); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, customer)
}

// Deactivate deactivates a customer
func (s *CustomerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := customer.Deactivate(); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, customer)
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customerRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.customerRepo.Delete(ctx, id)
}

func applyCustomerFields(customer *partner.Customer, contactPerson, phone, email, address string, paymentDays *int) error {
	if err := customer.SetContact(contactPerson, phone, email); err != nil {
		return err
	}
	if err := customer.SetAddress(address); err != nil {
		return err
	}
	if paymentDays != nil {
		return customer.SetPaymentDays(*paymentDays)
	}
	return nil
}

func (s *CustomerService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}
