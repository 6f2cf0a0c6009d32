package invoicing

import (
	"context"

	"github.com/invoicehub/backend/internal/domain/invoicing"
)

// TransactionScope provides transactional access to the invoicing
// repositories. Every ledger and allocation mutation runs inside one
// database transaction so the validate-then-commit sequence is atomic
// relative to other requests.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the invoicing repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// Invoices returns the invoice repository scoped to the current transaction
	Invoices() invoicing.InvoiceRepository
	// Payments returns the payment repository scoped to the current transaction
	Payments() invoicing.PaymentRepository
	// Allocations returns the allocation repository scoped to the current transaction
	Allocations() invoicing.PaymentAllocationRepository
	// Batches returns the batch payment repository scoped to the current transaction
	Batches() invoicing.BatchPaymentRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing with mock repositories.
type NoOpTransactionScope struct {
	invoices    invoicing.InvoiceRepository
	payments    invoicing.PaymentRepository
	allocations invoicing.PaymentAllocationRepository
	batches     invoicing.BatchPaymentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoices invoicing.InvoiceRepository,
	payments invoicing.PaymentRepository,
	allocations invoicing.PaymentAllocationRepository,
	batches invoicing.BatchPaymentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoices:    invoices,
		payments:    payments,
		allocations: allocations,
		batches:     batches,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Invoices returns the invoice repository.
func (s *NoOpTransactionScope) Invoices() invoicing.InvoiceRepository {
	return s.invoices
}

// Payments returns the payment repository.
func (s *NoOpTransactionScope) Payments() invoicing.PaymentRepository {
	return s.payments
}

// Allocations returns the allocation repository.
func (s *NoOpTransactionScope) Allocations() invoicing.PaymentAllocationRepository {
	return s.allocations
}

// Batches returns the batch payment repository.
func (s *NoOpTransactionScope) Batches() invoicing.BatchPaymentRepository {
	return s.batches
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
