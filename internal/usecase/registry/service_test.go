package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/binrental/binrental-backend/internal/domain"
)

// MockBinRepository is a mock implementation of BinRepository for testing
type MockBinRepository struct {
	mock.Mock
}

func (m *MockBinRepository) Create(ctx context.Context, bin *domain.PhysicalBin) error {
	args := m.Called(ctx, bin)
	return args.Error(0)
}

func (m *MockBinRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhysicalBin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhysicalBin), args.Error(1)
}

func (m *MockBinRepository) GetByCode(ctx context.Context, code string) (*domain.PhysicalBin, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PhysicalBin), args.Error(1)
}

func (m *MockBinRepository) List(ctx context.Context, filter domain.BinFilter) ([]*domain.PhysicalBin, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PhysicalBin), args.Error(1)
}

func (m *MockBinRepository) Update(ctx context.Context, bin *domain.PhysicalBin) error {
	args := m.Called(ctx, bin)
	return args.Error(0)
}

func (m *MockBinRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBinRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBinRepository) CountAvailableBySupplier(ctx context.Context, binTypeID, binSizeID uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, binTypeID, binSizeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockBinRepository) Claim(ctx context.Context, binID, customerID, requestID uuid.UUID, status domain.BinStatus) (bool, error) {
	args := m.Called(ctx, binID, customerID, requestID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockBinRepository) SetStatusForRequest(ctx context.Context, requestID uuid.UUID, status domain.BinStatus) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

func (m *MockBinRepository) ReleaseForRequest(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func TestRegisterBin_SupplierOwnsOwnBins(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	supplier := domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}
	otherSupplier := uuid.New()

	mockRepo.On("CodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.PhysicalBin")).Return(nil)

	// The requested owner is ignored for suppliers.
	bin, err := service.RegisterBin(ctx, supplier, RegisterBinInput{
		BinTypeID:  uuid.New(),
		BinSizeID:  uuid.New(),
		SupplierID: &otherSupplier,
	})

	assert.NoError(t, err)
	assert.NotNil(t, bin.SupplierID)
	assert.Equal(t, supplier.ID, *bin.SupplierID)
	assert.Equal(t, domain.BinStatusAvailable, bin.Status)
	assert.True(t, strings.HasPrefix(bin.BinCode, "BIN-"))
}

func TestRegisterBin_AdminMayLeaveBinInPool(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	mockRepo.On("CodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.PhysicalBin")).Return(nil)

	bin, err := service.RegisterBin(ctx, admin, RegisterBinInput{
		BinTypeID: uuid.New(),
		BinSizeID: uuid.New(),
	})

	assert.NoError(t, err)
	assert.Nil(t, bin.SupplierID)
}

func TestRegisterBin_CustomerForbidden(t *testing.T) {
	service := NewRegistryService(new(MockBinRepository))

	_, err := service.RegisterBin(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}, RegisterBinInput{
		BinTypeID: uuid.New(),
		BinSizeID: uuid.New(),
	})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestRegisterBin_ExplicitCodeConflict(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	mockRepo.On("CodeExists", ctx, "BIN-TAKEN").Return(true, nil)

	_, err := service.RegisterBin(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}, RegisterBinInput{
		BinCode:   "BIN-TAKEN",
		BinTypeID: uuid.New(),
		BinSizeID: uuid.New(),
	})

	assert.True(t, domain.IsConflict(err))
}

func TestGenerateBinCode_RetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	// First generated code collides, the second is free.
	mockRepo.On("CodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	mockRepo.On("CodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()

	code, err := service.GenerateBinCode(ctx)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "BIN-"))
	mockRepo.AssertNumberOfCalls(t, "CodeExists", 2)
}

func TestListBins_SupplierScopedToOwnInventory(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	supplier := domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}
	other := uuid.New()

	mockRepo.On("List", ctx, mock.MatchedBy(func(f domain.BinFilter) bool {
		return f.SupplierID != nil && *f.SupplierID == supplier.ID
	})).Return([]*domain.PhysicalBin{}, nil)

	// Even when asking for another supplier's inventory.
	_, err := service.ListBins(ctx, supplier, domain.BinFilter{SupplierID: &other})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateBin_NonOwnerForbidden(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	ownerID := uuid.New()
	binID := uuid.New()
	mockRepo.On("GetByID", ctx, binID).Return(&domain.PhysicalBin{
		ID:         binID,
		BinCode:    "BIN-A1B2C",
		BinTypeID:  uuid.New(),
		BinSizeID:  uuid.New(),
		SupplierID: &ownerID,
		Status:     domain.BinStatusAvailable,
	}, nil)

	notes := "damaged lid"
	_, err := service.UpdateBin(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}, binID, UpdateBinInput{Notes: &notes})

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestDeleteBin_ForbiddenWhileClaimed(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	ownerID := uuid.New()
	binID := uuid.New()
	customerID := uuid.New()
	requestID := uuid.New()

	mockRepo.On("GetByID", ctx, binID).Return(&domain.PhysicalBin{
		ID:                binID,
		BinCode:           "BIN-A1B2C",
		BinTypeID:         uuid.New(),
		BinSizeID:         uuid.New(),
		SupplierID:        &ownerID,
		Status:            domain.BinStatusLoaded,
		CurrentCustomerID: &customerID,
		CurrentRequestID:  &requestID,
	}, nil)

	err := service.DeleteBin(ctx, domain.Actor{ID: ownerID, Role: domain.RoleSupplier}, binID)

	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteBin_AvailableBinDeleted(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBinRepository)
	service := NewRegistryService(mockRepo)

	ownerID := uuid.New()
	binID := uuid.New()

	mockRepo.On("GetByID", ctx, binID).Return(&domain.PhysicalBin{
		ID:         binID,
		BinCode:    "BIN-A1B2C",
		BinTypeID:  uuid.New(),
		BinSizeID:  uuid.New(),
		SupplierID: &ownerID,
		Status:     domain.BinStatusAvailable,
	}, nil)
	mockRepo.On("Delete", ctx, binID).Return(nil)

	err := service.DeleteBin(ctx, domain.Actor{ID: ownerID, Role: domain.RoleSupplier}, binID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
