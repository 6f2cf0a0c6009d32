package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService is the allocation engine: it enforces the
// payment-to-invoice funds invariant and keeps both aggregates
// consistent. All checks run before any write; a precondition failure
// leaves nothing mutated.
type PaymentService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
}

// PaymentServiceOption configures a PaymentService
type PaymentServiceOption func(*PaymentService)

// WithPaymentEventPublisher wires an event publisher into the service
func WithPaymentEventPublisher(publisher shared.EventPublisher) PaymentServiceOption {
	return func(s *PaymentService) {
		s.publisher = publisher
	}
}

// NewPaymentService creates a new payment service
func NewPaymentService(scope TransactionScope, opts ...PaymentServiceOption) *PaymentService {
	s := &PaymentService{scope: scope}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recomputePaymentStatus re-derives a payment's status from its
// allocation rows and persists it. Missing payment is a no-op.
func recomputePaymentStatus(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) error {
	payment, err := repos.Payments().FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	allocations, err := repos.Allocations().FindByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	payment.RecomputeStatus(allocations)
	return repos.Payments().Save(ctx, payment)
}

// removePayment reverses every effect a payment has had on the ledger
// and deletes it: each allocation's amount is subtracted from its
// invoice, the legacy direct link is unwound, then the payment row goes
// (its allocations cascade).
func removePayment(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) error {
	payment, err := repos.Payments().FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	allocations, err := repos.Allocations().FindByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, a := range allocations {
		invoice, err := repos.Invoices().FindByID(ctx, a.InvoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return err
		}
		if err := setPaidAmount(ctx, repos.Invoices(), a.InvoiceID, invoice.PaidAmount.Sub(a.AllocatedAmount), now); err != nil {
			return err
		}
	}

	if payment.InvoiceID != nil {
		invoice, err := repos.Invoices().FindByID(ctx, *payment.InvoiceID)
		if err == nil {
			if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Sub(payment.Amount), now); err != nil {
				return err
			}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}

	return repos.Payments().Delete(ctx, paymentID)
}

// CreatePayment records a new payment. A payment carrying the legacy
// direct invoice link immediately counts in full against that invoice.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	var resp *PaymentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.Payments().GeneratePaymentNumber(ctx, req.PaymentDate)
		if err != nil {
			return err
		}

		payment, err := invoicing.NewPayment(number, req.PaymentDate, req.Amount, invoicing.PaymentMethod(req.Method))
		if err != nil {
			return err
		}
		payment.Reference = req.Reference
		payment.Notes = req.Notes

		if req.InvoiceID != nil {
			invoice, err := repos.Invoices().FindByID(ctx, *req.InvoiceID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
				}
				return err
			}
			payment.LinkInvoice(invoice.ID)
			payment.SupplierID = invoice.SupplierID
			payment.CustomerID = invoice.CustomerID
			if err := repos.Payments().Save(ctx, payment); err != nil {
				return err
			}
			if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Add(payment.Amount), time.Now()); err != nil {
				return err
			}
		} else if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		s.publish(ctx, payment.GetDomainEvents())
		payment.ClearDomainEvents()
		resp = toPaymentResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPayment returns one payment
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	var resp *PaymentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = toPaymentResponse(payment)
		return nil
	})
	return resp, err
}

// ListPayments returns payments matching the filter with a total count
func (s *PaymentService) ListPayments(ctx context.Context, filter shared.Filter) (*shared.Paginated[PaymentResponse], error) {
	var page shared.Paginated[PaymentResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payments, err := repos.Payments().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.Payments().Count(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(toPaymentResponses(payments), total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePayment updates a payment's fields. Direct-link bookkeeping:
// a changed InvoiceID reverses the amount on the old invoice before
// applying it to the new one; an amount change on an unchanged link
// applies the delta. A missing payment is a no-op.
func (s *PaymentService) UpdatePayment(ctx context.Context, id uuid.UUID, req UpdatePaymentRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if !req.Amount.IsPositive() {
			return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
		}

		now := time.Now()
		oldInvoiceID := payment.InvoiceID
		oldAmount := payment.Amount
		linkChanged := !uuidPtrEqual(oldInvoiceID, req.InvoiceID)

		if linkChanged {
			payment.SupplierID = nil
			payment.CustomerID = nil
			if oldInvoiceID != nil {
				if invoice, err := repos.Invoices().FindByID(ctx, *oldInvoiceID); err == nil {
					if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Sub(oldAmount), now); err != nil {
						return err
					}
				} else if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}
			if req.InvoiceID != nil {
				if invoice, err := repos.Invoices().FindByID(ctx, *req.InvoiceID); err == nil {
					if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Add(req.Amount), now); err != nil {
						return err
					}
					payment.SupplierID = invoice.SupplierID
					payment.CustomerID = invoice.CustomerID
				} else if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}
		} else if req.InvoiceID != nil && !oldAmount.Equal(req.Amount) {
			if invoice, err := repos.Invoices().FindByID(ctx, *req.InvoiceID); err == nil {
				if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Sub(oldAmount).Add(req.Amount), now); err != nil {
					return err
				}
			} else if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		payment.PaymentDate = req.PaymentDate
		payment.Amount = req.Amount
		payment.Method = invoicing.PaymentMethod(req.Method)
		payment.Reference = req.Reference
		payment.Notes = req.Notes
		payment.InvoiceID = req.InvoiceID
		payment.UpdatedAt = now

		// A direct-linked payment counts in full against its invoice;
		// only unlinked payments derive their status from allocation rows.
		if payment.InvoiceID != nil {
			payment.Status = invoicing.PaymentStatusFullyAllocated
			return repos.Payments().Save(ctx, payment)
		}

		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}
		return recomputePaymentStatus(ctx, repos, payment.ID)
	})
}

// DeletePayment removes a payment, restoring every affected invoice's
// paid amount to its pre-payment value. Missing payment is a no-op.
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return removePayment(ctx, repos, id)
	})
}

// AllocatePaymentToInvoice assigns part of a payment's funds to an
// invoice. Preconditions are validated in a fixed order before any
// write; on success the allocation row, the invoice ledger and the
// payment status are all updated in one transaction.
func (s *PaymentService) AllocatePaymentToInvoice(ctx context.Context, paymentID, invoiceID uuid.UUID, amount decimal.Decimal, notes string) (*AllocationResponse, error) {
	var resp *AllocationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
			}
			return err
		}
		invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
			}
			return err
		}
		existing, err := repos.Allocations().FindByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}

		now := time.Now()
		allocation, err := payment.PlanAllocation(existing, invoice, amount, now, notes)
		if err != nil {
			return err
		}

		if err := repos.Allocations().Save(ctx, allocation); err != nil {
			return err
		}
		if err := setPaidAmount(ctx, repos.Invoices(), invoiceID, invoice.PaidAmount.Add(allocation.AllocatedAmount), now); err != nil {
			return err
		}
		if err := recomputePaymentStatus(ctx, repos, paymentID); err != nil {
			return err
		}

		s.publish(ctx, []shared.DomainEvent{invoicing.NewPaymentAllocatedEvent(allocation)})
		resp = toAllocationResponse(allocation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetAllocations returns a payment's allocations, oldest first
func (s *PaymentService) GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]AllocationResponse, error) {
	var responses []AllocationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocations, err := repos.Allocations().FindByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		responses = toAllocationResponses(allocations)
		return nil
	})
	return responses, err
}

// UpdateAllocation changes an allocation's amount. The payment's other
// allocations are excluded when computing room; the invoice receives
// the delta through the ledger choke point.
func (s *PaymentService) UpdateAllocation(ctx context.Context, allocationID uuid.UUID, req UpdateAllocationRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocation, err := repos.Allocations().FindByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("ALLOCATION_NOT_FOUND", "Allocation not found")
			}
			return err
		}
		payment, err := repos.Payments().FindByID(ctx, allocation.PaymentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
			}
			return err
		}
		allocations, err := repos.Allocations().FindByPaymentID(ctx, allocation.PaymentID)
		if err != nil {
			return err
		}

		newAmount, err := payment.PlanAllocationChange(allocations, allocation, req.Amount)
		if err != nil {
			return err
		}

		now := time.Now()
		oldAmount := allocation.AllocatedAmount
		allocation.AllocatedAmount = newAmount
		allocation.Notes = req.Notes
		allocation.UpdatedAt = now
		if err := repos.Allocations().Save(ctx, allocation); err != nil {
			return err
		}

		invoice, err := repos.Invoices().FindByID(ctx, allocation.InvoiceID)
		if err == nil {
			if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Sub(oldAmount).Add(newAmount), now); err != nil {
				return err
			}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		return recomputePaymentStatus(ctx, repos, allocation.PaymentID)
	})
}

// DeleteAllocation removes an allocation and reverses its effect on the
// invoice and the payment status. Missing allocation is a no-op.
func (s *PaymentService) DeleteAllocation(ctx context.Context, allocationID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocation, err := repos.Allocations().FindByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}

		if err := repos.Allocations().Delete(ctx, allocationID); err != nil {
			return err
		}

		invoice, err := repos.Invoices().FindByID(ctx, allocation.InvoiceID)
		if err == nil {
			if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Sub(allocation.AllocatedAmount), time.Now()); err != nil {
				return err
			}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		return recomputePaymentStatus(ctx, repos, allocation.PaymentID)
	})
}

// GetUnallocatedAmount returns the funds on a payment not yet assigned
func (s *PaymentService) GetUnallocatedAmount(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var unallocated decimal.Decimal
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		allocations, err := repos.Allocations().FindByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		unallocated = payment.UnallocatedAmount(allocations)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return unallocated, nil
}

// GetUnallocated returns payments with no allocations
func (s *PaymentService) GetUnallocated(ctx context.Context) ([]PaymentResponse, error) {
	var responses []PaymentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payments, err := repos.Payments().FindUnallocated(ctx)
		if err != nil {
			return err
		}
		responses = toPaymentResponses(payments)
		return nil
	})
	return responses, err
}

// GetPartiallyAllocated returns payments with unassigned funds remaining
func (s *PaymentService) GetPartiallyAllocated(ctx context.Context) ([]PaymentResponse, error) {
	var responses []PaymentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payments, err := repos.Payments().FindPartiallyAllocated(ctx)
		if err != nil {
			return err
		}
		responses = toPaymentResponses(payments)
		return nil
	})
	return responses, err
}

func (s *PaymentService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
