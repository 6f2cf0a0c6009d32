package invoicing

import (
	"testing"
	"time"

	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, amount string) *Payment {
	t.Helper()
	p, err := NewPayment("PAY-20250110-0001", time.Now(), dec(amount), PaymentMethodBankTransfer)
	require.NoError(t, err)
	return p
}

func allocationOf(payment *Payment, invoice *Invoice, amount string) PaymentAllocation {
	return PaymentAllocation{
		BaseEntity:      shared.NewBaseEntity(),
		PaymentID:       payment.ID,
		InvoiceID:       invoice.ID,
		AllocatedAmount: dec(amount),
		AllocationDate:  time.Now(),
	}
}

func TestNewPayment_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewPayment("", now, dec("100"), PaymentMethodCash)
	assertDomainErrorCode(t, err, "INVALID_PAYMENT_NUMBER")

	_, err = NewPayment("PAY-1", now, dec("0"), PaymentMethodCash)
	assertDomainErrorCode(t, err, "INVALID_AMOUNT")

	_, err = NewPayment("PAY-1", now, dec("-50"), PaymentMethodCash)
	assertDomainErrorCode(t, err, "INVALID_AMOUNT")

	_, err = NewPayment("PAY-1", now, dec("100"), "")
	assertDomainErrorCode(t, err, "INVALID_METHOD")

	p, err := NewPayment("PAY-1", now, dec("100"), PaymentMethodGiro)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusUnallocated, p.Status)
}

func TestAllocationStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		allocated string
		expect    PaymentStatus
	}{
		{"nothing allocated", "1000.00", "0", PaymentStatusUnallocated},
		{"partially allocated", "1000.00", "400.00", PaymentStatusPartiallyAllocated},
		{"fully allocated", "1000.00", "1000.00", PaymentStatusFullyAllocated},
		// a cent of residue counts as fully allocated
		{"one cent residue", "1000.00", "999.99", PaymentStatusFullyAllocated},
		{"two cents residue", "1000.00", "999.98", PaymentStatusPartiallyAllocated},
		{"over-allocated treated as full", "1000.00", "1000.05", PaymentStatusFullyAllocated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, AllocationStatusFor(dec(tt.amount), dec(tt.allocated)))
		})
	}
}

func TestPayment_PlanAllocation_Success(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))

	alloc, err := payment.PlanAllocation(nil, invoice, dec("1000.00"), time.Now(), "full settlement")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, alloc.PaymentID)
	assert.Equal(t, invoice.ID, alloc.InvoiceID)
	assert.True(t, alloc.AllocatedAmount.Equal(dec("1000.00")))
	assert.Equal(t, "full settlement", alloc.Notes)
}

func TestPayment_PlanAllocation_RoundsToCents(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))

	alloc, err := payment.PlanAllocation(nil, invoice, dec("100.005"), time.Now(), "")
	require.NoError(t, err)
	assert.True(t, alloc.AllocatedAmount.Equal(dec("100.01")), "got %s", alloc.AllocatedAmount)
}

func TestPayment_PlanAllocation_NonPositiveAmount(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))

	_, err := payment.PlanAllocation(nil, invoice, dec("0"), time.Now(), "")
	assertDomainErrorCode(t, err, "INVALID_AMOUNT")

	_, err = payment.PlanAllocation(nil, invoice, dec("-5"), time.Now(), "")
	assertDomainErrorCode(t, err, "INVALID_AMOUNT")
}

func TestPayment_PlanAllocation_FullyAllocatedPayment(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoiceA := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))
	invoiceB := newTestInvoice(t, "500.00", time.Now().AddDate(0, 1, 0))
	existing := []PaymentAllocation{allocationOf(payment, invoiceA, "1000.00")}

	_, err := payment.PlanAllocation(existing, invoiceB, dec("100.00"), time.Now(), "")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "FULLY_ALLOCATED")
}

func TestPayment_PlanAllocation_ExceedsUnallocated(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoiceA := newTestInvoice(t, "400.00", time.Now().AddDate(0, 1, 0))
	invoiceB := newTestInvoice(t, "700.00", time.Now().AddDate(0, 1, 0))
	existing := []PaymentAllocation{allocationOf(payment, invoiceA, "400.00")}

	_, err := payment.PlanAllocation(existing, invoiceB, dec("700.00"), time.Now(), "")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "EXCEEDS_UNALLOCATED")
	assert.Contains(t, err.Error(), "700.00")
	assert.Contains(t, err.Error(), "600.00")

	// exactly the remaining funds succeed
	alloc, err := payment.PlanAllocation(existing, invoiceB, dec("600.00"), time.Now(), "")
	require.NoError(t, err)
	assert.True(t, alloc.AllocatedAmount.Equal(dec("600.00")))
}

func TestPayment_PlanAllocation_InvoiceFullyPaid(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))
	invoice.SetPaidAmount(dec("1000.00"), time.Now())

	_, err := payment.PlanAllocation(nil, invoice, dec("100.00"), time.Now(), "")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "INVOICE_FULLY_PAID")
	assert.Contains(t, err.Error(), invoice.InvoiceNumber)
}

func TestPayment_PlanAllocation_ExceedsBalance(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "500.00", time.Now().AddDate(0, 1, 0))

	_, err := payment.PlanAllocation(nil, invoice, dec("500.02"), time.Now(), "")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "EXCEEDS_BALANCE")
	assert.Contains(t, err.Error(), "500.02")
	assert.Contains(t, err.Error(), "500.00")

	// a single cent over is absorbed by the rounding tolerance
	_, err = payment.PlanAllocation(nil, invoice, dec("500.01"), time.Now(), "")
	require.NoError(t, err)

	// exactly the balance succeeds
	alloc, err := payment.PlanAllocation(nil, invoice, dec("500.00"), time.Now(), "")
	require.NoError(t, err)
	assert.True(t, alloc.AllocatedAmount.Equal(dec("500.00")))
}

func TestPayment_PlanAllocation_DuplicateInvoice(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "1000.00", time.Now().AddDate(0, 1, 0))
	invoice.SetPaidAmount(dec("200.00"), time.Now())
	existing := []PaymentAllocation{allocationOf(payment, invoice, "200.00")}

	_, err := payment.PlanAllocation(existing, invoice, dec("100.00"), time.Now(), "")
	require.Error(t, err)
	assertDomainErrorCode(t, err, "ALREADY_ALLOCATED")
}

func TestPayment_PlanAllocationChange(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoiceA := newTestInvoice(t, "600.00", time.Now().AddDate(0, 1, 0))
	invoiceB := newTestInvoice(t, "600.00", time.Now().AddDate(0, 1, 0))

	allocA := allocationOf(payment, invoiceA, "400.00")
	allocB := allocationOf(payment, invoiceB, "300.00")
	allocations := []PaymentAllocation{allocA, allocB}

	// the edited row is excluded from the available computation:
	// 1000 - 300 (other) = 700 available for allocA
	amount, err := payment.PlanAllocationChange(allocations, &allocA, dec("700.00"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("700.00")))

	_, err = payment.PlanAllocationChange(allocations, &allocA, dec("700.01"))
	require.Error(t, err)
	assertDomainErrorCode(t, err, "EXCEEDS_UNALLOCATED")

	_, err = payment.PlanAllocationChange(allocations, &allocA, dec("0"))
	assertDomainErrorCode(t, err, "INVALID_AMOUNT")
}

func TestPayment_RecomputeStatus(t *testing.T) {
	payment := newTestPayment(t, "1000.00")
	invoice := newTestInvoice(t, "400.00", time.Now().AddDate(0, 1, 0))

	payment.RecomputeStatus(nil)
	assert.Equal(t, PaymentStatusUnallocated, payment.Status)

	payment.RecomputeStatus([]PaymentAllocation{allocationOf(payment, invoice, "400.00")})
	assert.Equal(t, PaymentStatusPartiallyAllocated, payment.Status)

	payment.RecomputeStatus([]PaymentAllocation{allocationOf(payment, invoice, "1000.00")})
	assert.Equal(t, PaymentStatusFullyAllocated, payment.Status)
}

func TestPayment_LinkInvoice(t *testing.T) {
	payment := newTestPayment(t, "500.00")
	invoice := newTestInvoice(t, "500.00", time.Now().AddDate(0, 1, 0))

	payment.LinkInvoice(invoice.ID)
	require.NotNil(t, payment.InvoiceID)
	assert.Equal(t, invoice.ID, *payment.InvoiceID)
	assert.Equal(t, PaymentStatusFullyAllocated, payment.Status)
}
