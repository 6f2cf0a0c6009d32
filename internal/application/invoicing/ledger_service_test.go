package invoicing

import (
	"context"
	"testing"
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	store     *memStore
	suppliers *memSupplierRepo
	customers *memCustomerRepo
	service   *LedgerService
	publisher *RecordingEventPublisher
}

func newLedgerFixture() *ledgerFixture {
	store := newMemStore()
	suppliers := newMemSupplierRepo()
	customers := newMemCustomerRepo()
	publisher := &RecordingEventPublisher{}
	service := NewLedgerService(store.scope(), suppliers, customers,
		WithLedgerEventPublisher(publisher))
	return &ledgerFixture{
		store:     store,
		suppliers: suppliers,
		customers: customers,
		service:   service,
		publisher: publisher,
	}
}

func (f *ledgerFixture) seedSupplier(t *testing.T) *partner.Supplier {
	t.Helper()
	supplier, err := partner.NewSupplier("SUP001", "Ace Trading Pte Ltd")
	require.NoError(t, err)
	f.suppliers.suppliers[supplier.ID] = supplier
	return supplier
}

func invoiceRequest(number string, supplierID *uuid.UUID) CreateInvoiceRequest {
	return CreateInvoiceRequest{
		InvoiceNumber: number,
		Type:          "SUPPLIER",
		SupplierID:    supplierID,
		InvoiceDate:   time.Now().AddDate(0, 0, -5),
		DueDate:       time.Now().AddDate(0, 0, 25),
		GSTRate:       dec("9"),
		Items: []CreateInvoiceItemRequest{
			{Description: "Office chairs", Quantity: dec("10"), UnitPrice: dec("150.00")},
			{Description: "Standing desks", Quantity: dec("1"), UnitPrice: dec("500.00")},
		},
	}
}

func TestLedgerService_CreateInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("computes totals from lines and GST", func(t *testing.T) {
		f := newLedgerFixture()
		supplier := f.seedSupplier(t)

		resp, err := f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &supplier.ID))
		require.NoError(t, err)

		assert.True(t, resp.SubTotal.Equal(dec("2000.00")))
		assert.True(t, resp.GSTAmount.Equal(dec("180.00")))
		assert.True(t, resp.TotalAmount.Equal(dec("2180.00")))
		assert.True(t, resp.Balance.Equal(dec("2180.00")))
		assert.Equal(t, "UNPAID", resp.Status)
		assert.Len(t, resp.Items, 2)
		assert.Len(t, f.publisher.EventsByType(invoicing.EventTypeInvoiceCreated), 1)
	})

	t.Run("rejects unknown supplier", func(t *testing.T) {
		f := newLedgerFixture()
		missing := uuid.New()

		_, err := f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &missing))
		assertDomainErrorCode(t, err, "SUPPLIER_NOT_FOUND")
	})

	t.Run("rejects duplicate invoice number", func(t *testing.T) {
		f := newLedgerFixture()
		supplier := f.seedSupplier(t)

		_, err := f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &supplier.ID))
		require.NoError(t, err)

		_, err = f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &supplier.ID))
		assertDomainErrorCode(t, err, "DUPLICATE_INVOICE_NUMBER")
	})

	t.Run("rejects due date before invoice date", func(t *testing.T) {
		f := newLedgerFixture()
		supplier := f.seedSupplier(t)

		req := invoiceRequest("INV-2025-001", &supplier.ID)
		req.DueDate = req.InvoiceDate.AddDate(0, 0, -1)

		_, err := f.service.CreateInvoice(ctx, req)
		assertDomainErrorCode(t, err, "INVALID_DUE_DATE")
	})
}

func TestLedgerService_UpdateInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("updates due date and notes", func(t *testing.T) {
		f := newLedgerFixture()
		supplier := f.seedSupplier(t)
		resp, err := f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &supplier.ID))
		require.NoError(t, err)

		newDue := time.Now().AddDate(0, 2, 0)
		notes := "extended terms agreed"
		err = f.service.UpdateInvoice(ctx, resp.ID, UpdateInvoiceRequest{DueDate: &newDue, Notes: &notes})
		require.NoError(t, err)

		updated := f.store.invoices[resp.ID]
		assert.Equal(t, notes, updated.Notes)
		assert.True(t, updated.DueDate.Equal(newDue))
	})

	t.Run("rejects due date before invoice date", func(t *testing.T) {
		f := newLedgerFixture()
		supplier := f.seedSupplier(t)
		resp, err := f.service.CreateInvoice(ctx, invoiceRequest("INV-2025-001", &supplier.ID))
		require.NoError(t, err)

		bad := time.Now().AddDate(0, 0, -30)
		err = f.service.UpdateInvoice(ctx, resp.ID, UpdateInvoiceRequest{DueDate: &bad})
		assertDomainErrorCode(t, err, "INVALID_DUE_DATE")
	})

	t.Run("missing invoice is a no-op", func(t *testing.T) {
		f := newLedgerFixture()
		assert.NoError(t, f.service.UpdateInvoice(ctx, uuid.New(), UpdateInvoiceRequest{}))
	})
}

func TestLedgerService_DeleteInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("releases allocations and recomputes payment statuses", func(t *testing.T) {
		f := newLedgerFixture()
		payments := NewPaymentService(f.store.scope())
		first := seedInvoice(t, f.store, "INV-2025-001", "600.00")
		second := seedInvoice(t, f.store, "INV-2025-002", "500.00")
		payment := seedPayment(t, f.store, "PAY-20250110-0001", "1000.00")

		_, err := payments.AllocatePaymentToInvoice(ctx, payment.ID, first.ID, dec("600.00"), "")
		require.NoError(t, err)
		_, err = payments.AllocatePaymentToInvoice(ctx, payment.ID, second.ID, dec("400.00"), "")
		require.NoError(t, err)
		require.Equal(t, invoicing.PaymentStatusFullyAllocated, f.store.payments[payment.ID].Status)

		require.NoError(t, f.service.DeleteInvoice(ctx, first.ID))

		_, exists := f.store.invoices[first.ID]
		assert.False(t, exists)
		// the payment keeps its allocation to the surviving invoice
		assert.Equal(t, invoicing.PaymentStatusPartiallyAllocated, f.store.payments[payment.ID].Status)
		assert.True(t, f.store.invoices[second.ID].PaidAmount.Equal(dec("400.00")))
		assert.Len(t, f.store.allocations, 1)
	})

	t.Run("removes directly linked payments and reverses their effects", func(t *testing.T) {
		f := newLedgerFixture()
		payments := NewPaymentService(f.store.scope())
		linked := seedInvoice(t, f.store, "INV-2025-001", "300.00")
		other := seedInvoice(t, f.store, "INV-2025-002", "200.00")

		resp, err := payments.CreatePayment(ctx, CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      dec("300.00"),
			Method:      "GIRO",
			InvoiceID:   &linked.ID,
		})
		require.NoError(t, err)
		// the same payment also carries an allocation to another invoice
		_, err = payments.AllocatePaymentToInvoice(ctx, resp.ID, other.ID, dec("150.00"), "")
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteInvoice(ctx, linked.ID))

		_, exists := f.store.payments[resp.ID]
		assert.False(t, exists)
		assert.True(t, f.store.invoices[other.ID].PaidAmount.IsZero())
	})

	t.Run("missing invoice is a no-op", func(t *testing.T) {
		f := newLedgerFixture()
		assert.NoError(t, f.service.DeleteInvoice(ctx, uuid.New()))
	})
}

func TestLedgerService_Recalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("repairs a drifted invoice from its allocations", func(t *testing.T) {
		f := newLedgerFixture()
		payments := NewPaymentService(f.store.scope())
		invoice := seedInvoice(t, f.store, "INV-2025-001", "1000.00")
		payment := seedPayment(t, f.store, "PAY-20250110-0001", "400.00")

		_, err := payments.AllocatePaymentToInvoice(ctx, payment.ID, invoice.ID, dec("400.00"), "")
		require.NoError(t, err)

		// simulate drift
		corrupted := f.store.invoices[invoice.ID]
		corrupted.PaidAmount = dec("999.00")

		require.NoError(t, f.service.RecalculateInvoice(ctx, invoice.ID))
		assert.True(t, f.store.invoices[invoice.ID].PaidAmount.Equal(dec("400.00")))
		assert.Equal(t, invoicing.InvoiceStatusPartial, f.store.invoices[invoice.ID].Status)
	})

	t.Run("bulk recalculation is idempotent", func(t *testing.T) {
		f := newLedgerFixture()
		payments := NewPaymentService(f.store.scope())
		first := seedInvoice(t, f.store, "INV-2025-001", "1000.00")
		second := seedInvoice(t, f.store, "INV-2025-002", "500.00")
		payment := seedPayment(t, f.store, "PAY-20250110-0001", "700.00")

		_, err := payments.AllocatePaymentToInvoice(ctx, payment.ID, first.ID, dec("700.00"), "")
		require.NoError(t, err)

		f.store.invoices[first.ID].PaidAmount = dec("9999.00")
		f.store.invoices[second.ID].PaidAmount = dec("123.00")

		repaired, err := f.service.RecalculateAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, repaired)
		assert.True(t, f.store.invoices[first.ID].PaidAmount.Equal(dec("700.00")))
		assert.True(t, f.store.invoices[second.ID].PaidAmount.IsZero())

		repaired, err = f.service.RecalculateAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, repaired)
	})

	t.Run("ignores legacy direct-link payments", func(t *testing.T) {
		f := newLedgerFixture()
		payments := NewPaymentService(f.store.scope())
		invoice := seedInvoice(t, f.store, "INV-2025-001", "300.00")

		_, err := payments.CreatePayment(ctx, CreatePaymentRequest{
			PaymentDate: time.Now(),
			Amount:      dec("300.00"),
			Method:      "CASH",
			InvoiceID:   &invoice.ID,
		})
		require.NoError(t, err)
		require.True(t, f.store.invoices[invoice.ID].PaidAmount.Equal(dec("300.00")))

		// recalculation trusts allocation rows only, so the direct-link
		// contribution is wiped
		require.NoError(t, f.service.RecalculateInvoice(ctx, invoice.ID))
		assert.True(t, f.store.invoices[invoice.ID].PaidAmount.IsZero())
	})
}

func TestLedgerService_HealthQueries(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()

	healthy := seedInvoice(t, f.store, "INV-2025-001", "1000.00")
	sick := seedInvoice(t, f.store, "INV-2025-002", "1000.00")
	f.store.invoices[sick.ID].PaidAmount = dec("1000.02")
	f.store.invoices[healthy.ID].PaidAmount = dec("1000.01")

	overAllocated, err := f.service.GetOverAllocated(ctx)
	require.NoError(t, err)
	require.Len(t, overAllocated, 1)
	assert.Equal(t, "INV-2025-002", overAllocated[0].InvoiceNumber)
}

func TestLedgerService_GetOverdue(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()

	overdue, err := invoicing.NewInvoice("INV-2024-090", invoicing.InvoiceTypeSupplier,
		time.Now().AddDate(0, -2, 0), time.Now().AddDate(0, 0, -14))
	require.NoError(t, err)
	overdue.TotalAmount = dec("500.00")
	f.store.putInvoice(overdue)

	seedInvoice(t, f.store, "INV-2025-001", "500.00")

	result, err := f.service.GetOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "INV-2024-090", result[0].InvoiceNumber)
}

func TestLedgerService_ListInvoices(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture()
	seedInvoice(t, f.store, "INV-2025-001", "100.00")
	seedInvoice(t, f.store, "INV-2025-002", "200.00")

	page, err := f.service.ListInvoices(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)
}
