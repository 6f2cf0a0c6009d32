package partner

import (
	"context"

	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SupplierService handles supplier-related business operations
type SupplierService struct {
	supplierRepo partner.SupplierRepository
	publisher    shared.EventPublisher
}

// SupplierServiceOption configures a SupplierService
type SupplierServiceOption func(*SupplierService)

// WithSupplierEventPublisher wires an event publisher into the service
func WithSupplierEventPublisher(publisher shared.EventPublisher) SupplierServiceOption {
	return func(s *SupplierService) {
		s.publisher = publisher
	}
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository, opts ...SupplierServiceOption) *SupplierService {
	s := &SupplierService{supplierRepo: supplierRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new supplier
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	exists, err := s.supplierRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Supplier with this code already exists")
	}

	supplier, err := partner.NewSupplier(req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	if err := applySupplierFields(supplier, req.ContactPerson, req.Phone, req.Email,
		req.Address, req.Country, req.PaymentDays, req.BankName, req.BankAccount); err != nil {
		return nil, err
	}
	supplier.GSTRegistered = req.GSTRegistered
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.publish(ctx, supplier.GetDomainEvents())
	supplier.ClearDomainEvents()

	return toSupplierResponse(supplier), nil
}

// GetByID returns one supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(supplier), nil
}

// GetByCode returns one supplier looked up by code
func (s *SupplierService) GetByCode(ctx context.Context, code string) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(supplier), nil
}

// List returns suppliers matching the filter with a total count
func (s *SupplierService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SupplierResponse], error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.supplierRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(toSupplierResponses(suppliers), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListActive returns active suppliers
func (s *SupplierService) ListActive(ctx context.Context, filter shared.Filter) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toSupplierResponses(suppliers), nil
}

// Update updates a supplier's details
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := supplier.Update(req.Name); err != nil {
		return nil, err
	}
	if err := applySupplierFields(supplier, req.ContactPerson, req.Phone, req.Email,
		req.Address, req.Country, req.PaymentDays, req.BankName, req.BankAccount); err != nil {
		return nil, err
	}
	supplier.GSTRegistered = req.GSTRegistered
	supplier.Notes = req.Notes

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}
	return toSupplierResponse(supplier), nil
}

// Activate activates a supplier
func (s *SupplierService) Activate(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := supplier.Activate(); err != nil {
		return err
	}
	return s.supplierRepo.Save(ctx, supplier)
}

// Deactivate deactivates a supplier
func (s *SupplierService) Deactivate(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := supplier.Deactivate(); err != nil {
		return err
	}
	return s.supplierRepo.Save(ctx, supplier)
}

// Delete removes a supplier
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.supplierRepo.Delete(ctx, id)
}

func applySupplierFields(supplier *partner.Supplier, contactPerson, phone, email,
	address, country string, paymentDays *int, bankName, bankAccount string) error {
	if err := supplier.SetContact(contactPerson, phone, email); err != nil {
		return err
	}
	if err := supplier.SetAddress(address, country); err != nil {
		return err
	}
	if paymentDays != nil {
		if err := supplier.SetPaymentDays(*paymentDays); err != nil {
			return err
		}
	}
	return supplier.SetBankInfo(bankName, bankAccount)
}

func (s *SupplierService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}
