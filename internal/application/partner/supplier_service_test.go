package partner

import (
	"context"
	"testing"

	"github.com/invoicehub/backend/internal/domain/partner"
	"github.com/invoicehub/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSupplierRepository is a mock implementation of SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func createTestSupplier(t *testing.T) *partner.Supplier {
	t.Helper()
	supplier, err := partner.NewSupplier("SUP001", "Ace Trading Pte Ltd")
	require.NoError(t, err)
	supplier.ClearDomainEvents()
	return supplier
}

func TestSupplierService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)
		days := 45

		repo.On("ExistsByCode", ctx, "SUP001").Return(false, nil).Once()
		repo.On("Save", ctx, mock.AnythingOfType("*partner.Supplier")).Return(nil).Once()

		resp, err := service.Create(ctx, CreateSupplierRequest{
			Code:          "SUP001",
			Name:          "Ace Trading Pte Ltd",
			ContactPerson: "Tan Wei Ming",
			Phone:         "+65 6123 4567",
			Email:         "ap@acetrading.sg",
			GSTRegistered: true,
			PaymentDays:   &days,
			BankName:      "DBS Bank",
			BankAccount:   "001-123456-7",
		})

		require.NoError(t, err)
		assert.Equal(t, "SUP001", resp.Code)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Equal(t, 45, resp.PaymentDays)
		assert.Equal(t, "Singapore", resp.Country)
		assert.True(t, resp.GSTRegistered)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)

		repo.On("ExistsByCode", ctx, "SUP001").Return(true, nil).Once()

		_, err := service.Create(ctx, CreateSupplierRequest{Code: "SUP001", Name: "Ace"})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		repo.AssertNotCalled(t, "Save")
	})

	t.Run("invalid email", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)

		repo.On("ExistsByCode", ctx, "SUP001").Return(false, nil).Once()

		_, err := service.Create(ctx, CreateSupplierRequest{
			Code:  "SUP001",
			Name:  "Ace",
			Email: "not-an-email",
		})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestSupplierService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSupplierRepository)
	service := NewSupplierService(repo)

	supplier := createTestSupplier(t)
	repo.On("FindByID", ctx, supplier.ID).Return(supplier, nil).Once()
	repo.On("Save", ctx, supplier).Return(nil).Once()

	days := 60
	resp, err := service.Update(ctx, supplier.ID, UpdateSupplierRequest{
		Name:        "Ace Trading (S) Pte Ltd",
		PaymentDays: &days,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ace Trading (S) Pte Ltd", resp.Name)
	assert.Equal(t, 60, resp.PaymentDays)
	repo.AssertExpectations(t)
}

func TestSupplierService_ActivateDeactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivate then activate", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)
		supplier := createTestSupplier(t)

		repo.On("FindByID", ctx, supplier.ID).Return(supplier, nil).Twice()
		repo.On("Save", ctx, supplier).Return(nil).Twice()

		require.NoError(t, service.Deactivate(ctx, supplier.ID))
		assert.Equal(t, partner.SupplierStatusInactive, supplier.Status)

		require.NoError(t, service.Activate(ctx, supplier.ID))
		assert.Equal(t, partner.SupplierStatusActive, supplier.Status)
		repo.AssertExpectations(t)
	})

	t.Run("deactivating twice fails", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)
		supplier := createTestSupplier(t)
		require.NoError(t, supplier.Deactivate())

		repo.On("FindByID", ctx, supplier.ID).Return(supplier, nil).Once()

		err := service.Deactivate(ctx, supplier.ID)
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save")
	})
}

func TestSupplierService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSupplierRepository)
	service := NewSupplierService(repo)
	filter := shared.DefaultFilter()

	supplier := createTestSupplier(t)
	repo.On("FindAll", ctx, filter).Return([]partner.Supplier{*supplier}, nil).Once()
	repo.On("Count", ctx, filter).Return(int64(1), nil).Once()

	page, err := service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "SUP001", page.Items[0].Code)
}

func TestSupplierService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)
		supplier := createTestSupplier(t)

		repo.On("FindByID", ctx, supplier.ID).Return(supplier, nil).Once()
		repo.On("Delete", ctx, supplier.ID).Return(nil).Once()

		assert.NoError(t, service.Delete(ctx, supplier.ID))
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockSupplierRepository)
		service := NewSupplierService(repo)
		id := uuid.New()

		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound).Once()

		err := service.Delete(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		repo.AssertNotCalled(t, "Delete")
	})
}
