package invoicing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/invoicehub/backend/internal/domain/invoicing"
	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory backing store shared by the fake repositories.
// It mimics the persistence layer closely enough for service flows:
// Find returns copies so mutations are invisible until Save, deleting a
// payment cascades its allocations, and number sequences reset per day.
type memStore struct {
	invoices      map[uuid.UUID]*invoicing.Invoice
	payments      map[uuid.UUID]*invoicing.Payment
	allocations   map[uuid.UUID]*invoicing.PaymentAllocation
	allocationIDs []uuid.UUID
	batches       map[uuid.UUID]*invoicing.BatchPayment
	paymentSeq    map[string]int
	batchSeq      map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		invoices:    make(map[uuid.UUID]*invoicing.Invoice),
		payments:    make(map[uuid.UUID]*invoicing.Payment),
		allocations: make(map[uuid.UUID]*invoicing.PaymentAllocation),
		batches:     make(map[uuid.UUID]*invoicing.BatchPayment),
		paymentSeq:  make(map[string]int),
		batchSeq:    make(map[string]int),
	}
}

func (s *memStore) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(
		&memInvoiceRepo{store: s},
		&memPaymentRepo{store: s},
		&memAllocationRepo{store: s},
		&memBatchRepo{store: s},
	)
}

func (s *memStore) putInvoice(inv *invoicing.Invoice) {
	c := *inv
	c.Items = append([]invoicing.InvoiceItem(nil), inv.Items...)
	s.invoices[inv.ID] = &c
}

func (s *memStore) putPayment(p *invoicing.Payment) {
	c := *p
	s.payments[p.ID] = &c
}

func (s *memStore) putBatch(b *invoicing.BatchPayment) {
	c := *b
	c.Items = append([]invoicing.BatchPaymentItem(nil), b.Items...)
	s.batches[b.ID] = &c
}

type memInvoiceRepo struct {
	store *memStore
}

func (r *memInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Invoice, error) {
	inv, ok := r.store.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *inv
	c.Items = append([]invoicing.InvoiceItem(nil), inv.Items...)
	return &c, nil
}

func (r *memInvoiceRepo) FindByNumber(_ context.Context, invoiceNumber string) (*invoicing.Invoice, error) {
	for _, inv := range r.store.invoices {
		if inv.InvoiceNumber == invoiceNumber {
			c := *inv
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memInvoiceRepo) FindAll(_ context.Context, _ shared.Filter) ([]invoicing.Invoice, error) {
	result := make([]invoicing.Invoice, 0, len(r.store.invoices))
	for _, inv := range r.store.invoices {
		result = append(result, *inv)
	}
	return result, nil
}

func (r *memInvoiceRepo) FindOverdue(_ context.Context, now time.Time) ([]invoicing.Invoice, error) {
	var result []invoicing.Invoice
	for _, inv := range r.store.invoices {
		if inv.IsOverdue(now) {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *memInvoiceRepo) FindOverAllocated(_ context.Context) ([]invoicing.Invoice, error) {
	var result []invoicing.Invoice
	for _, inv := range r.store.invoices {
		if inv.IsOverAllocated() {
			result = append(result, *inv)
		}
	}
	return result, nil
}

func (r *memInvoiceRepo) FindUnpaid(_ context.Context, supplierID *uuid.UUID) ([]invoicing.Invoice, error) {
	var result []invoicing.Invoice
	for _, inv := range r.store.invoices {
		if !inv.Balance().IsPositive() {
			continue
		}
		if supplierID != nil && (inv.SupplierID == nil || *inv.SupplierID != *supplierID) {
			continue
		}
		result = append(result, *inv)
	}
	return result, nil
}

func (r *memInvoiceRepo) OutstandingBySupplier(_ context.Context, _ time.Time) ([]invoicing.SupplierOutstanding, error) {
	return nil, nil
}

func (r *memInvoiceRepo) Save(_ context.Context, invoice *invoicing.Invoice) error {
	r.store.putInvoice(invoice)
	return nil
}

func (r *memInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.invoices, id)
	return nil
}

func (r *memInvoiceRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.invoices)), nil
}

type memPaymentRepo struct {
	store *memStore
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.Payment, error) {
	p, ok := r.store.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *memPaymentRepo) FindAll(_ context.Context, _ shared.Filter) ([]invoicing.Payment, error) {
	result := make([]invoicing.Payment, 0, len(r.store.payments))
	for _, p := range r.store.payments {
		result = append(result, *p)
	}
	return result, nil
}

func (r *memPaymentRepo) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var result []invoicing.Payment
	for _, p := range r.store.payments {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *memPaymentRepo) FindUnallocated(_ context.Context) ([]invoicing.Payment, error) {
	var result []invoicing.Payment
	for _, p := range r.store.payments {
		if p.Status == invoicing.PaymentStatusUnallocated {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *memPaymentRepo) FindPartiallyAllocated(_ context.Context) ([]invoicing.Payment, error) {
	var result []invoicing.Payment
	for _, p := range r.store.payments {
		if p.Status == invoicing.PaymentStatusPartiallyAllocated {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *memPaymentRepo) GeneratePaymentNumber(_ context.Context, date time.Time) (string, error) {
	key := date.Format("20060102")
	r.store.paymentSeq[key]++
	return fmt.Sprintf("PAY-%s-%04d", key, r.store.paymentSeq[key]), nil
}

func (r *memPaymentRepo) Save(_ context.Context, payment *invoicing.Payment) error {
	r.store.putPayment(payment)
	return nil
}

func (r *memPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.payments, id)
	// allocations cascade with the payment row
	remaining := r.store.allocationIDs[:0]
	for _, allocID := range r.store.allocationIDs {
		if a, ok := r.store.allocations[allocID]; ok && a.PaymentID == id {
			delete(r.store.allocations, allocID)
			continue
		}
		remaining = append(remaining, allocID)
	}
	r.store.allocationIDs = remaining
	return nil
}

func (r *memPaymentRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.payments)), nil
}

type memAllocationRepo struct {
	store *memStore
}

func (r *memAllocationRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.PaymentAllocation, error) {
	a, ok := r.store.allocations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *memAllocationRepo) FindByPaymentID(_ context.Context, paymentID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	var result []invoicing.PaymentAllocation
	for _, allocID := range r.store.allocationIDs {
		if a, ok := r.store.allocations[allocID]; ok && a.PaymentID == paymentID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAllocationRepo) FindByInvoiceID(_ context.Context, invoiceID uuid.UUID) ([]invoicing.PaymentAllocation, error) {
	var result []invoicing.PaymentAllocation
	for _, allocID := range r.store.allocationIDs {
		if a, ok := r.store.allocations[allocID]; ok && a.InvoiceID == invoiceID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memAllocationRepo) SumByInvoiceID(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.store.allocations {
		if a.InvoiceID == invoiceID {
			sum = sum.Add(a.AllocatedAmount)
		}
	}
	return sum, nil
}

func (r *memAllocationRepo) SumsByInvoice(_ context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range r.store.allocations {
		sums[a.InvoiceID] = sums[a.InvoiceID].Add(a.AllocatedAmount)
	}
	return sums, nil
}

func (r *memAllocationRepo) Save(_ context.Context, allocation *invoicing.PaymentAllocation) error {
	if _, exists := r.store.allocations[allocation.ID]; !exists {
		r.store.allocationIDs = append(r.store.allocationIDs, allocation.ID)
	}
	c := *allocation
	r.store.allocations[allocation.ID] = &c
	return nil
}

func (r *memAllocationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.allocations, id)
	for idx, allocID := range r.store.allocationIDs {
		if allocID == id {
			r.store.allocationIDs = append(r.store.allocationIDs[:idx], r.store.allocationIDs[idx+1:]...)
			break
		}
	}
	return nil
}

func (r *memAllocationRepo) DeleteByInvoiceID(_ context.Context, invoiceID uuid.UUID) error {
	remaining := r.store.allocationIDs[:0]
	for _, allocID := range r.store.allocationIDs {
		if a, ok := r.store.allocations[allocID]; ok && a.InvoiceID == invoiceID {
			delete(r.store.allocations, allocID)
			continue
		}
		remaining = append(remaining, allocID)
	}
	r.store.allocationIDs = remaining
	return nil
}

type memBatchRepo struct {
	store *memStore
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*invoicing.BatchPayment, error) {
	b, ok := r.store.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := *b
	c.Items = append([]invoicing.BatchPaymentItem(nil), b.Items...)
	return &c, nil
}

func (r *memBatchRepo) FindAll(_ context.Context, _ shared.Filter) ([]invoicing.BatchPayment, error) {
	result := make([]invoicing.BatchPayment, 0, len(r.store.batches))
	for _, b := range r.store.batches {
		result = append(result, *b)
	}
	return result, nil
}

func (r *memBatchRepo) FindByStatus(_ context.Context, status invoicing.BatchStatus) ([]invoicing.BatchPayment, error) {
	var result []invoicing.BatchPayment
	for _, b := range r.store.batches {
		if b.Status == status {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *memBatchRepo) GenerateBatchReference(_ context.Context, date time.Time) (string, error) {
	key := date.Format("20060102")
	r.store.batchSeq[key]++
	return fmt.Sprintf("BATCH-%s-%03d", key, r.store.batchSeq[key]), nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *invoicing.BatchPayment) error {
	r.store.putBatch(batch)
	return nil
}

func (r *memBatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.batches, id)
	return nil
}

func (r *memBatchRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.batches)), nil
}

var _ invoicing.InvoiceRepository = (*memInvoiceRepo)(nil)
var _ invoicing.PaymentRepository = (*memPaymentRepo)(nil)
var _ invoicing.PaymentAllocationRepository = (*memAllocationRepo)(nil)
var _ invoicing.BatchPaymentRepository = (*memBatchRepo)(nil)

// memSupplierRepo is an in-memory partner.SupplierRepository
type memSupplierRepo struct {
	suppliers map[uuid.UUID]*partner.Supplier
}

func newMemSupplierRepo() *memSupplierRepo {
	return &memSupplierRepo{suppliers: make(map[uuid.UUID]*partner.Supplier)}
}

func (r *memSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *memSupplierRepo) FindByCode(_ context.Context, code string) (*partner.Supplier, error) {
	for _, s := range r.suppliers {
		if s.Code == code {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memSupplierRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	var result []partner.Supplier
	for _, id := range ids {
		if s, ok := r.suppliers[id]; ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *memSupplierRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Supplier, error) {
	result := make([]partner.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		result = append(result, *s)
	}
	return result, nil
}

func (r *memSupplierRepo) FindActive(_ context.Context, _ shared.Filter) ([]partner.Supplier, error) {
	var result []partner.Supplier
	for _, s := range r.suppliers {
		if s.IsActive() {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *memSupplierRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, s := range r.suppliers {
		if s.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSupplierRepo) Save(_ context.Context, supplier *partner.Supplier) error {
	r.suppliers[supplier.ID] = supplier
	return nil
}

func (r *memSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.suppliers, id)
	return nil
}

func (r *memSupplierRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.suppliers)), nil
}

// memCustomerRepo is an in-memory partner.CustomerRepository
type memCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	result := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		result = append(result, *c)
	}
	return result, nil
}

func (r *memCustomerRepo) FindActive(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	var result []partner.Customer
	for _, c := range r.customers {
		if c.IsActive() {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *memCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.customers, id)
	return nil
}

func (r *memCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.customers)), nil
}

var _ partner.SupplierRepository = (*memSupplierRepo)(nil)
var _ partner.CustomerRepository = (*memCustomerRepo)(nil)

// RecordingEventPublisher captures published events for assertions
type RecordingEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *RecordingEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *RecordingEventPublisher) EventsByType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}
