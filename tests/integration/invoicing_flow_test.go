package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicingapp "github.com/invoicehub/backend/internal/application/invoicing"
	partnerapp "github.com/invoicehub/backend/internal/application/partner"
	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/invoicehub/backend/internal/infrastructure/persistence"
)

// invoicingServices bundles the application services wired against a test database
type invoicingServices struct {
	suppliers *partnerapp.SupplierService
	customers *partnerapp.CustomerService
	ledger    *invoicingapp.LedgerService
	payments  *invoicingapp.PaymentService
	batches   *invoicingapp.BatchPaymentService
}

func newInvoicingServices(testDB *TestDB) *invoicingServices {
	supplierRepo := persistence.NewGormSupplierRepository(testDB.DB)
	customerRepo := persistence.NewGormCustomerRepository(testDB.DB)
	scope := persistence.NewGormTransactionScope(testDB.DB)

	return &invoicingServices{
		suppliers: partnerapp.NewSupplierService(supplierRepo),
		customers: partnerapp.NewCustomerService(customerRepo),
		ledger:    invoicingapp.NewLedgerService(scope, supplierRepo, customerRepo),
		payments:  invoicingapp.NewPaymentService(scope),
		batches:   invoicingapp.NewBatchPaymentService(scope),
	}
}

func (s *invoicingServices) createSupplierInvoice(t *testing.T, ctx context.Context, number string, subTotal decimal.Decimal) *invoicingapp.InvoiceResponse {
	t.Helper()

	supplier, err := s.suppliers.Create(ctx, partnerapp.CreateSupplierRequest{
		Code: "SUP-" + number,
		Name: "Supplier for " + number,
	})
	require.NoError(t, err)

	invoice, err := s.ledger.CreateInvoice(ctx, invoicingapp.CreateInvoiceRequest{
		InvoiceNumber: number,
		Type:          "SUPPLIER",
		SupplierID:    &supplier.ID,
		InvoiceDate:   time.Now(),
		DueDate:       time.Now().AddDate(0, 1, 0),
		GSTRate:       decimal.NewFromFloat(0.09),
		Items: []invoicingapp.CreateInvoiceItemRequest{
			{Description: "Services rendered", Quantity: decimal.NewFromInt(1), UnitPrice: subTotal},
		},
	})
	require.NoError(t, err)
	return invoice
}

// TestInvoiceLifecycle_Integration covers invoice creation with GST
// computation and the paid-amount transitions driven by allocations.
func TestInvoiceLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	svc := newInvoicingServices(testDB)
	ctx := context.Background()

	invoice := svc.createSupplierInvoice(t, ctx, "INV-2026-001", decimal.NewFromInt(1000))

	assert.True(t, invoice.SubTotal.Equal(decimal.NewFromInt(1000)), "sub_total: %s", invoice.SubTotal)
	assert.True(t, invoice.GSTAmount.Equal(decimal.NewFromInt(90)), "gst_amount: %s", invoice.GSTAmount)
	assert.True(t, invoice.TotalAmount.Equal(decimal.NewFromInt(1090)), "total_amount: %s", invoice.TotalAmount)
	assert.Equal(t, string(invoicing.InvoiceStatusUnpaid), invoice.Status)

	t.Run("duplicate invoice number rejected", func(t *testing.T) {
		supplierInvoice := invoice
		_, err := svc.ledger.CreateInvoice(ctx, invoicingapp.CreateInvoiceRequest{
			InvoiceNumber: supplierInvoice.InvoiceNumber,
			Type:          "SUPPLIER",
			SupplierID:    supplierInvoice.SupplierID,
			InvoiceDate:   time.Now(),
			DueDate:       time.Now().AddDate(0, 1, 0),
			Items: []invoicingapp.CreateInvoiceItemRequest{
				{Description: "Duplicate", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
			},
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_INVOICE_NUMBER", domainErr.Code)
	})

	t.Run("partial allocation moves invoice to PARTIAL", func(t *testing.T) {
		payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      decimal.NewFromInt(500),
			Method:      string(invoicing.PaymentMethodBankTransfer),
		})
		require.NoError(t, err)
		assert.Equal(t, string(invoicing.PaymentStatusUnallocated), payment.Status)

		allocation, err := svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(500), "")
		require.NoError(t, err)
		assert.True(t, allocation.AllocatedAmount.Equal(decimal.NewFromInt(500)))

		updated, err := svc.ledger.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, string(invoicing.InvoiceStatusPartial), updated.Status)

		refreshed, err := svc.payments.GetPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, string(invoicing.PaymentStatusFullyAllocated), refreshed.Status)
	})

	t.Run("allocation beyond unallocated funds rejected", func(t *testing.T) {
		payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      decimal.NewFromInt(100),
			Method:      string(invoicing.PaymentMethodBankTransfer),
		})
		require.NoError(t, err)

		_, err = svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(200), "")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXCEEDS_UNALLOCATED", domainErr.Code)

		// The failed allocation must leave the ledger untouched
		unallocated, err := svc.payments.GetUnallocatedAmount(ctx, payment.ID)
		require.NoError(t, err)
		assert.True(t, unallocated.Equal(decimal.NewFromInt(100)))
	})

	t.Run("settling the balance moves invoice to PAID", func(t *testing.T) {
		payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      decimal.NewFromInt(590),
			Method:      string(invoicing.PaymentMethodGiro),
		})
		require.NoError(t, err)

		_, err = svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(590), "")
		require.NoError(t, err)

		updated, err := svc.ledger.GetInvoice(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, updated.PaidAmount.Equal(decimal.NewFromInt(1090)))
		assert.Equal(t, string(invoicing.InvoiceStatusPaid), updated.Status)
		assert.True(t, updated.Balance.IsZero())
	})

	t.Run("paid invoice rejects further allocations", func(t *testing.T) {
		payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      decimal.NewFromInt(50),
			Method:      string(invoicing.PaymentMethodCash),
		})
		require.NoError(t, err)

		_, err = svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(50), "")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVOICE_FULLY_PAID", domainErr.Code)
	})
}

// TestAllocationRemoval_Integration verifies that deleting an allocation
// returns the funds to the payment and re-opens the invoice.
func TestAllocationRemoval_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	svc := newInvoicingServices(testDB)
	ctx := context.Background()

	invoice := svc.createSupplierInvoice(t, ctx, "INV-2026-010", decimal.NewFromInt(200))

	payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
		PaymentDate: time.Now(),
		Amount:      decimal.NewFromInt(218),
		Method:      string(invoicing.PaymentMethodBankTransfer),
	})
	require.NoError(t, err)

	allocation, err := svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(218), "")
	require.NoError(t, err)

	paid, err := svc.ledger.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, string(invoicing.InvoiceStatusPaid), paid.Status)

	require.NoError(t, svc.payments.DeleteAllocation(ctx, allocation.ID))

	reopened, err := svc.ledger.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, reopened.PaidAmount.IsZero())
	assert.Equal(t, string(invoicing.InvoiceStatusUnpaid), reopened.Status)

	refreshed, err := svc.payments.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoicing.PaymentStatusUnallocated), refreshed.Status)
}

// TestBatchPaymentFlow_Integration drives a batch from DRAFT through
// COMPLETED and verifies each item produced a payment and allocation.
func TestBatchPaymentFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	svc := newInvoicingServices(testDB)
	ctx := context.Background()

	first := svc.createSupplierInvoice(t, ctx, "INV-2026-020", decimal.NewFromInt(300))
	second := svc.createSupplierInvoice(t, ctx, "INV-2026-021", decimal.NewFromInt(700))

	batch, err := svc.batches.CreateBatch(ctx, invoicingapp.CreateBatchRequest{
		PaymentMethod: string(invoicing.PaymentMethodGiro),
		BankAccount:   "123-456789-0",
	})
	require.NoError(t, err)
	assert.Equal(t, string(invoicing.BatchStatusDraft), batch.Status)
	assert.NotEmpty(t, batch.BatchReference)

	t.Run("empty batch cannot be marked ready", func(t *testing.T) {
		err := svc.batches.MarkReady(ctx, batch.ID)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMPTY_BATCH", domainErr.Code)
	})

	// Zero amount queues the full outstanding balance
	batchState, err := svc.batches.AddInvoiceToBatch(ctx, batch.ID, invoicingapp.AddBatchItemRequest{
		InvoiceID: first.ID,
	})
	require.NoError(t, err)
	require.Len(t, batchState.Items, 1)
	assert.True(t, batchState.Items[0].AmountToPay.Equal(decimal.NewFromInt(327)), "amount_to_pay: %s", batchState.Items[0].AmountToPay)

	batchState, err = svc.batches.AddInvoiceToBatch(ctx, batch.ID, invoicingapp.AddBatchItemRequest{
		InvoiceID: second.ID,
	})
	require.NoError(t, err)
	require.Len(t, batchState.Items, 2)
	assert.True(t, batchState.TotalAmount.Equal(decimal.NewFromInt(1090)), "total_amount: %s", batchState.TotalAmount)

	t.Run("same invoice cannot be queued twice", func(t *testing.T) {
		_, err := svc.batches.AddInvoiceToBatch(ctx, batch.ID, invoicingapp.AddBatchItemRequest{
			InvoiceID: first.ID,
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_IN_BATCH", domainErr.Code)
	})

	require.NoError(t, svc.batches.MarkReady(ctx, batch.ID))

	require.NoError(t, svc.batches.ProcessBatch(ctx, batch.ID, invoicingapp.ProcessBatchRequest{
		PaymentMethod: string(invoicing.PaymentMethodGiro),
		Reference:     "GIRO-RUN-42",
	}))

	completed, err := svc.batches.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoicing.BatchStatusCompleted), completed.Status)
	require.NotNil(t, completed.ProcessedDate)

	for _, item := range completed.Items {
		assert.True(t, item.IsProcessed)
		require.NotNil(t, item.PaymentID)

		payment, err := svc.payments.GetPayment(ctx, *item.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, string(invoicing.PaymentStatusFullyAllocated), payment.Status)
		assert.Regexp(t, `^PAY-\d{8}-\d{4}$`, payment.PaymentNumber)
	}

	firstPaid, err := svc.ledger.GetInvoice(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoicing.InvoiceStatusPaid), firstPaid.Status)

	secondPaid, err := svc.ledger.GetInvoice(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoicing.InvoiceStatusPaid), secondPaid.Status)

	// Settled invoices no longer show up as unpaid
	unpaid, err := svc.batches.GetUnpaidInvoices(ctx, nil)
	require.NoError(t, err)
	for _, inv := range unpaid {
		assert.NotEqual(t, first.ID, inv.ID)
		assert.NotEqual(t, second.ID, inv.ID)
	}
}

// TestRecalculateFromAllocations_Integration verifies the repair path
// that rebuilds paid amounts from allocation rows.
func TestRecalculateFromAllocations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	svc := newInvoicingServices(testDB)
	ctx := context.Background()

	invoice := svc.createSupplierInvoice(t, ctx, "INV-2026-030", decimal.NewFromInt(100))

	payment, err := svc.payments.CreatePayment(ctx, invoicingapp.CreatePaymentRequest{
		PaymentDate: time.Now(),
		Amount:      decimal.NewFromInt(109),
		Method:      string(invoicing.PaymentMethodBankTransfer),
	})
	require.NoError(t, err)
	_, err = svc.payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, decimal.NewFromInt(109), "")
	require.NoError(t, err)

	// Corrupt the ledger column directly, then repair it
	require.NoError(t, testDB.DB.Exec(
		"UPDATE invoices SET paid_amount = 999 WHERE id = ?", invoice.ID,
	).Error)

	overAllocated, err := svc.ledger.GetOverAllocated(ctx)
	require.NoError(t, err)
	require.Len(t, overAllocated, 1)
	assert.Equal(t, invoice.ID, overAllocated[0].ID)

	require.NoError(t, svc.ledger.RecalculateInvoice(ctx, invoice.ID))

	repaired, err := svc.ledger.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, repaired.PaidAmount.Equal(decimal.NewFromInt(109)), "paid_amount: %s", repaired.PaidAmount)
	assert.Equal(t, string(invoicing.InvoiceStatusPaid), repaired.Status)

	overAllocated, err = svc.ledger.GetOverAllocated(ctx)
	require.NoError(t, err)
	assert.Empty(t, overAllocated)
}
