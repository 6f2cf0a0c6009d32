package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BatchPaymentService orchestrates paying a curated set of invoices in
// one action. Processing is resumable: each item settles in its own
// transaction, and a mid-loop failure reverts the batch to READY with
// the already-settled items kept.
type BatchPaymentService struct {
	scope     TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// BatchPaymentServiceOption configures a BatchPaymentService
type BatchPaymentServiceOption func(*BatchPaymentService)

// WithBatchEventPublisher wires an event publisher into the service
func WithBatchEventPublisher(publisher shared.EventPublisher) BatchPaymentServiceOption {
	return func(s *BatchPaymentService) {
		s.publisher = publisher
	}
}

// WithBatchLogger wires a logger into the service
func WithBatchLogger(logger *zap.Logger) BatchPaymentServiceOption {
	return func(s *BatchPaymentService) {
		s.logger = logger
	}
}

// NewBatchPaymentService creates a new batch payment service
func NewBatchPaymentService(scope TransactionScope, opts ...BatchPaymentServiceOption) *BatchPaymentService {
	s := &BatchPaymentService{
		scope:  scope,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBatch creates a new draft batch with a generated reference
func (s *BatchPaymentService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	var resp *BatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reference, err := repos.Batches().GenerateBatchReference(ctx, time.Now())
		if err != nil {
			return err
		}

		batch, err := invoicing.NewBatchPayment(reference)
		if err != nil {
			return err
		}
		batch.PaymentMethod = invoicing.PaymentMethod(req.PaymentMethod)
		batch.BankAccount = req.BankAccount
		batch.Notes = req.Notes

		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		s.publish(ctx, batch.GetDomainEvents())
		batch.ClearDomainEvents()
		resp = toBatchResponse(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBatch returns one batch with its items
func (s *BatchPaymentService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	var resp *BatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = toBatchResponse(batch)
		return nil
	})
	return resp, err
}

// ListBatches returns batches matching the filter with a total count
func (s *BatchPaymentService) ListBatches(ctx context.Context, filter shared.Filter) (*shared.Paginated[BatchResponse], error) {
	var page shared.Paginated[BatchResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.Batches().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.Batches().Count(ctx, filter)
		if err != nil {
			return err
		}
		page = shared.NewPaginated(toBatchResponses(batches), total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// AddInvoiceToBatch queues an invoice for payment in a draft batch. A
// zero amount defaults to the invoice's current balance.
func (s *BatchPaymentService) AddInvoiceToBatch(ctx context.Context, batchID uuid.UUID, req AddBatchItemRequest) (*BatchResponse, error) {
	var resp *BatchResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found")
			}
			return err
		}
		invoice, err := repos.Invoices().FindByID(ctx, req.InvoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
			}
			return err
		}

		if _, err := batch.AddItem(invoice, req.Amount); err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		resp = toBatchResponse(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RemoveInvoiceFromBatch removes a queued item from a draft batch
func (s *BatchPaymentService) RemoveInvoiceFromBatch(ctx context.Context, batchID, itemID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := batch.RemoveItem(itemID); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
}

// UpdateItemAmount changes how much of an invoice a draft batch will
// pay, re-validated against the invoice's live balance.
func (s *BatchPaymentService) UpdateItemAmount(ctx context.Context, batchID, itemID uuid.UUID, amount decimal.Decimal) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found")
			}
			return err
		}

		var invoiceID uuid.UUID
		for _, item := range batch.Items {
			if item.ID == itemID {
				invoiceID = item.InvoiceID
				break
			}
		}
		if invoiceID == uuid.Nil {
			return shared.NewDomainError("ITEM_NOT_FOUND", "Batch item not found")
		}

		invoice, err := repos.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := batch.UpdateItemAmount(itemID, amount, invoice.Balance()); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
}

// MarkReady transitions a draft batch with at least one item to READY
func (s *BatchPaymentService) MarkReady(ctx context.Context, batchID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found")
			}
			return err
		}
		if err := batch.MarkReady(); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
}

// ProcessBatch settles every unprocessed item: each becomes a fresh
// Payment plus an allocation through the engine. The PROCESSING status
// commits before the loop so other readers see the batch as in-flight.
// Each item commits in its own transaction; on failure the batch
// reverts to READY and the error propagates, leaving prior items
// settled. Re-processing the batch picks up where it stopped.
func (s *BatchPaymentService) ProcessBatch(ctx context.Context, batchID uuid.UUID, req ProcessBatchRequest) error {
	var batch *invoicing.BatchPayment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		batch, err = repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found")
			}
			return err
		}
		if err := batch.BeginProcessing(invoicing.PaymentMethod(req.PaymentMethod)); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
	if err != nil {
		return err
	}

	s.logger.Info("processing batch payment",
		zap.String("batch_reference", batch.BatchReference),
		zap.Int("pending_items", len(batch.UnprocessedItems())))

	for _, item := range batch.UnprocessedItems() {
		if err := s.processItem(ctx, batch, item, req); err != nil {
			s.logger.Warn("batch item failed, reverting batch to ready",
				zap.String("batch_reference", batch.BatchReference),
				zap.String("invoice_id", item.InvoiceID.String()),
				zap.Error(err))
			if revertErr := s.revertToReady(ctx, batchID); revertErr != nil {
				return revertErr
			}
			return err
		}
	}

	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch.Complete(time.Now())
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}
		s.publish(ctx, batch.GetDomainEvents())
		batch.ClearDomainEvents()
		return nil
	})
}

// processItem settles one batch item in its own transaction: generate a
// payment number, create the payment, allocate it to the invoice and
// stamp the item processed. Batch-created payments carry only an
// allocation row, never the legacy direct link, so the invoice is
// debited exactly once.
func (s *BatchPaymentService) processItem(ctx context.Context, batch *invoicing.BatchPayment, item *invoicing.BatchPaymentItem, req ProcessBatchRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := time.Now()

		invoice, err := repos.Invoices().FindByID(ctx, item.InvoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
			}
			return err
		}

		number, err := repos.Payments().GeneratePaymentNumber(ctx, now)
		if err != nil {
			return err
		}
		payment, err := invoicing.NewPayment(number, now, item.AmountToPay, invoicing.PaymentMethod(req.PaymentMethod))
		if err != nil {
			return err
		}
		payment.Reference = req.Reference
		payment.Notes = fmt.Sprintf("Batch Payment: %s", batch.BatchReference)
		payment.SupplierID = invoice.SupplierID
		payment.CustomerID = invoice.CustomerID
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		allocation, err := payment.PlanAllocation(nil, invoice, item.AmountToPay, now, fmt.Sprintf("Batch: %s", batch.BatchReference))
		if err != nil {
			return err
		}
		if err := repos.Allocations().Save(ctx, allocation); err != nil {
			return err
		}
		if err := setPaidAmount(ctx, repos.Invoices(), invoice.ID, invoice.PaidAmount.Add(allocation.AllocatedAmount), now); err != nil {
			return err
		}
		if err := recomputePaymentStatus(ctx, repos, payment.ID); err != nil {
			return err
		}

		if err := batch.MarkItemProcessed(item.ID, payment.ID); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
}

func (s *BatchPaymentService) revertToReady(ctx context.Context, batchID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		batch.RevertToReady()
		return repos.Batches().Save(ctx, batch)
	})
}

// CancelBatch cancels a batch; completed batches cannot be cancelled.
// Missing batch is a no-op.
func (s *BatchPaymentService) CancelBatch(ctx context.Context, batchID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := batch.Cancel(); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, batch)
	})
}

// DeleteBatch removes a batch; only drafts may be deleted. Missing
// batch is a no-op.
func (s *BatchPaymentService) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.Batches().FindByID(ctx, batchID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := batch.EnsureDeletable(); err != nil {
			return err
		}
		return repos.Batches().Delete(ctx, batchID)
	})
}

// GetUnpaidInvoices lists invoices with an outstanding balance for
// building batches, optionally restricted to one supplier
func (s *BatchPaymentService) GetUnpaidInvoices(ctx context.Context, supplierID *uuid.UUID) ([]InvoiceResponse, error) {
	var responses []InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindUnpaid(ctx, supplierID)
		if err != nil {
			return err
		}
		responses = toInvoiceResponses(invoices)
		return nil
	})
	return responses, err
}

func (s *BatchPaymentService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}
