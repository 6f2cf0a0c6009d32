package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerService maintains invoice paid amounts and statuses and exposes
// the ledger's read queries. Every PaidAmount mutation anywhere in the
// system funnels through setPaidAmount below.
type LedgerService struct {
	scope     TransactionScope
	suppliers partner.SupplierRepository
	customers partner.CustomerRepository
	publisher shared.EventPublisher
}

// LedgerServiceOption configures a LedgerService
type LedgerServiceOption func(*LedgerService)

// WithLedgerEventPublisher wires an event publisher into the service
func WithLedgerEventPublisher(publisher shared.EventPublisher) LedgerServiceOption {
	return func(s *LedgerService) {
		s.publisher = publisher
	}
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	scope TransactionScope,
	suppliers partner.SupplierRepository,
	customers partner.CustomerRepository,
	opts ...LedgerServiceOption,
) *LedgerService {
	s := &LedgerService{
		scope:     scope,
		suppliers: suppliers,
		customers: customers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// setPaidAmount is the ledger choke point: it loads the invoice, records
// the new paid amount, recomputes the status and persists. A missing
// invoice is treated as already deleted and is a no-op, not an error.
func setPaidAmount(ctx context.Context, invoices invoicing.InvoiceRepository, invoiceID uuid.UUID, paid decimal.Decimal, now time.Time) error {
	invoice, err := invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	invoice.SetPaidAmount(paid, now)
	return invoices.Save(ctx, invoice)
}

// CreateInvoice creates a new invoice with its lines
func (s *LedgerService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := invoicing.NewInvoice(req.InvoiceNumber, invoicing.InvoiceType(req.Type), req.InvoiceDate, req.DueDate)
	if err != nil {
		return nil, err
	}

	if req.SupplierID != nil {
		if _, err := s.suppliers.FindByID(ctx, *req.SupplierID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("SUPPLIER_NOT_FOUND", "Supplier not found")
			}
			return nil, err
		}
		invoice.SetSupplier(*req.SupplierID)
	}
	if req.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, *req.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
			}
			return nil, err
		}
		invoice.SetCustomer(*req.CustomerID)
	}

	items := make([]invoicing.InvoiceItem, 0, len(req.Items))
	for _, line := range req.Items {
		item, err := invoicing.NewInvoiceItem(invoice.ID, line.Description, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := invoice.SetItems(items, req.GSTRate); err != nil {
		return nil, err
	}
	invoice.Notes = req.Notes
	invoice.RecomputeStatus(time.Now())

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if existing, err := repos.Invoices().FindByNumber(ctx, req.InvoiceNumber); err == nil && existing != nil {
			return shared.NewDomainError("DUPLICATE_INVOICE_NUMBER", "An invoice with this number already exists")
		} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Invoices().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, invoice.GetDomainEvents())
	invoice.ClearDomainEvents()

	return toInvoiceResponse(invoice), nil
}

// GetInvoice returns one invoice with its lines
func (s *LedgerService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var resp *InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = toInvoiceResponse(invoice)
		return nil
	})
	return resp, err
}

// ListInvoices returns invoices matching the filter with a total count
func (s *LedgerService) ListInvoices(ctx context.Context, filter shared.Filter) (*shared.Paginated[InvoiceResponse], error) {
	var page shared.Paginated[InvoiceResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.Invoices().Count(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(toInvoiceResponses(invoices), total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateInvoice updates an invoice's mutable fields. A missing invoice
// is a no-op.
func (s *LedgerService) UpdateInvoice(ctx context.Context, id uuid.UUID, req UpdateInvoiceRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}

		if req.DueDate != nil {
			if req.DueDate.Before(invoice.InvoiceDate) {
				return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
			}
			invoice.DueDate = *req.DueDate
		}
		if req.Notes != nil {
			invoice.Notes = *req.Notes
		}
		invoice.RecomputeStatus(time.Now())

		return repos.Invoices().Save(ctx, invoice)
	})
}

// DeleteInvoice removes an invoice. Allocations against the invoice are
// removed first because their foreign key restricts deletion, then any
// directly linked payments, then the invoice itself.
func (s *LedgerService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}

		allocations, err := repos.Allocations().FindByInvoiceID(ctx, id)
		if err != nil {
			return err
		}
		touchedPayments := make(map[uuid.UUID]struct{}, len(allocations))
		for _, a := range allocations {
			touchedPayments[a.PaymentID] = struct{}{}
		}
		if err := repos.Allocations().DeleteByInvoiceID(ctx, id); err != nil {
			return err
		}
		for paymentID := range touchedPayments {
			if err := recomputePaymentStatus(ctx, repos, paymentID); err != nil {
				return err
			}
		}

		direct, err := repos.Payments().FindByInvoiceID(ctx, id)
		if err != nil {
			return err
		}
		for idx := range direct {
			if err := removePayment(ctx, repos, direct[idx].ID); err != nil {
				return err
			}
		}

		return repos.Invoices().Delete(ctx, invoice.ID)
	})
}

// RecalculateInvoice repairs one invoice's paid amount from its
// allocation rows. Payments linked via the legacy direct InvoiceID field
// are deliberately ignored: allocations are the source of truth here.
// Idempotent by construction.
func (s *LedgerService) RecalculateInvoice(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocated, err := repos.Allocations().SumByInvoiceID(ctx, id)
		if err != nil {
			return err
		}
		return setPaidAmount(ctx, repos.Invoices(), id, allocated, time.Now())
	})
}

// RecalculateAll repairs every invoice whose stored paid amount has
// drifted from its allocation sum. Invoices already consistent are left
// untouched, which makes a second run a no-op.
func (s *LedgerService) RecalculateAll(ctx context.Context) (int, error) {
	repaired := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sums, err := repos.Allocations().SumsByInvoice(ctx)
		if err != nil {
			return err
		}
		invoices, err := repos.Invoices().FindAll(ctx, shared.Filter{Page: 1, PageSize: 0})
		if err != nil {
			return err
		}

		now := time.Now()
		for idx := range invoices {
			invoice := &invoices[idx]
			allocated, ok := sums[invoice.ID]
			if !ok {
				allocated = decimal.Zero
			}
			if invoice.PaidAmount.Equal(allocated) {
				continue
			}
			invoice.SetPaidAmount(allocated, now)
			if err := repos.Invoices().Save(ctx, invoice); err != nil {
				return err
			}
			repaired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return repaired, nil
}

// GetOverdue returns invoices past due that are not fully paid
func (s *LedgerService) GetOverdue(ctx context.Context) ([]InvoiceResponse, error) {
	var responses []InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindOverdue(ctx, time.Now())
		if err != nil {
			return err
		}
		responses = toInvoiceResponses(invoices)
		return nil
	})
	return responses, err
}

// GetOverAllocated returns invoices whose paid amount exceeds their
// total beyond the rounding tolerance. This is a health check: a
// non-empty result means the ledger needs RecalculateAll, not that any
// request should fail.
func (s *LedgerService) GetOverAllocated(ctx context.Context) ([]InvoiceResponse, error) {
	var responses []InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindOverAllocated(ctx)
		if err != nil {
			return err
		}
		responses = toInvoiceResponses(invoices)
		return nil
	})
	return responses, err
}

// SupplierOutstanding aggregates open supplier invoices per supplier
func (s *LedgerService) SupplierOutstanding(ctx context.Context) ([]SupplierOutstandingResponse, error) {
	var rows []invoicing.SupplierOutstanding
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		rows, err = repos.Invoices().OutstandingBySupplier(ctx, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSupplierOutstandingResponses(rows), nil
}

func (s *LedgerService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	// event delivery is best effort; the ledger write already committed
	_ = s.publisher.Publish(ctx, events...)
}
