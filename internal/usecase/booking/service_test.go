package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/binrental/binrental-backend/internal/domain"
)

// fakeAtomic runs the function directly; transactional bracketing is covered
// by the repository integration tests.
type fakeAtomic struct{}

func (fakeAtomic) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockRequestRepository is a mock implementation of RequestRepository for testing
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx, supplierID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListPendingOpen(ctx context.Context) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockOrderItemRepository is a mock implementation of OrderItemRepository for testing
type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) CreateBatch(ctx context.Context, items []*domain.OrderItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockOrderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.OrderItem, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OrderItem), args.Error(1)
}

func (m *MockOrderItemRepository) AssignBin(ctx context.Context, itemID, binID uuid.UUID) error {
	args := m.Called(ctx, itemID, binID)
	return args.Error(0)
}

func (m *MockOrderItemRepository) ActiveItemExistsForBin(ctx context.Context, binID uuid.UUID) (bool, error) {
	args := m.Called(ctx, binID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderItemRepository) SetStatusByRequest(ctx context.Context, requestID uuid.UUID, status domain.ItemStatus) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

func (m *MockOrderItemRepository) ResetByRequest(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

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

// MockQuoteRepository is a mock implementation of QuoteRepository for testing
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Quote, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Quote), args.Error(1)
}

func (m *MockQuoteRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockBillRepository is a mock implementation of BillRepository for testing
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Bill, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bill), args.Error(1)
}

func (m *MockBillRepository) Update(ctx context.Context, bill *domain.Bill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

// MockMatcher is a mock implementation of Matcher for testing
type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) FindQualifiedSuppliers(ctx context.Context, requirements []domain.BinRequirement) ([]uuid.UUID, error) {
	args := m.Called(ctx, requirements)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockSettler is a mock implementation of Settler for testing
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) SettleOnline(ctx context.Context, req *domain.ServiceRequest, total decimal.Decimal) (*domain.Transaction, error) {
	args := m.Called(ctx, req, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockSettler) SettleCashOnDelivery(ctx context.Context, req *domain.ServiceRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, event domain.Event, channel string, payload interface{}) error {
	args := m.Called(ctx, event, channel, payload)
	return args.Error(0)
}

type bookingMocks struct {
	requests *MockRequestRepository
	items    *MockOrderItemRepository
	bins     *MockBinRepository
	quotes   *MockQuoteRepository
	bills    *MockBillRepository
	matcher  *MockMatcher
	settler  *MockSettler
	notifier *MockNotifier
}

func newBookingService() (*BookingService, *bookingMocks) {
	m := &bookingMocks{
		requests: new(MockRequestRepository),
		items:    new(MockOrderItemRepository),
		bins:     new(MockBinRepository),
		quotes:   new(MockQuoteRepository),
		bills:    new(MockBillRepository),
		matcher:  new(MockMatcher),
		settler:  new(MockSettler),
		notifier: new(MockNotifier),
	}
	service := NewBookingService(fakeAtomic{}, m.requests, m.items, m.bins, m.quotes, m.bills, m.matcher, m.settler, m.notifier, nil)
	return service, m
}

func TestCreateRequest_ExplodesQuantityIntoItems(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	customer := domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
	typeID, sizeID := uuid.New(), uuid.New()

	m.matcher.On("FindQualifiedSuppliers", ctx, mock.Anything).Return([]uuid.UUID{uuid.New()}, nil)
	m.requests.On("Create", ctx, mock.AnythingOfType("*domain.ServiceRequest")).Return(nil)
	m.items.On("CreateBatch", ctx, mock.MatchedBy(func(items []*domain.OrderItem) bool {
		return len(items) == 3
	})).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventNewRequest, domain.SuppliersBroadcast, mock.Anything).Return(nil)

	req, err := service.CreateRequest(ctx, customer, CreateRequestInput{
		Location:      "12 Harbour Rd",
		StartDate:     time.Now(),
		PaymentMethod: domain.PaymentMethodOnline,
		Items: []ItemInput{
			{BinTypeID: typeID, BinSizeID: sizeID, Quantity: 3},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Len(t, req.Items, 3)
	m.items.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestCreateRequest_NoQualifiedSupplierRejected(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	customer := domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}

	m.matcher.On("FindQualifiedSuppliers", ctx, mock.Anything).Return([]uuid.UUID{}, nil)

	_, err := service.CreateRequest(ctx, customer, CreateRequestInput{
		Location:      "12 Harbour Rd",
		PaymentMethod: domain.PaymentMethodCash,
		Items:         []ItemInput{{BinTypeID: uuid.New(), BinSizeID: uuid.New(), Quantity: 1}},
	})

	assert.True(t, domain.IsValidation(err))
	m.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.items.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateRequest_NonCustomerForbidden(t *testing.T) {
	service, _ := newBookingService()

	_, err := service.CreateRequest(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}, CreateRequestInput{
		Location: "12 Harbour Rd",
		Items:    []ItemInput{{BinTypeID: uuid.New(), BinSizeID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestCreateRequest_EndBeforeStartRejected(t *testing.T) {
	service, _ := newBookingService()
	customer := domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
	start := time.Now()

	_, err := service.CreateRequest(context.Background(), customer, CreateRequestInput{
		Location:      "12 Harbour Rd",
		StartDate:     start,
		EndDate:       start.Add(-24 * time.Hour),
		PaymentMethod: domain.PaymentMethodOnline,
		Items:         []ItemInput{{BinTypeID: uuid.New(), BinSizeID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, domain.IsValidation(err))
}

func TestAcceptRequest_AssignsSupplierAndQuotes(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	supplier := domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}
	customerID := uuid.New()
	requestID := uuid.New()

	m.requests.On("GetByID", ctx, requestID).Return(&domain.ServiceRequest{
		ID:         requestID,
		RequestID:  "REQ-ABC-1234567",
		CustomerID: customerID,
		Status:     domain.RequestStatusPending,
	}, nil)
	m.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.ServiceRequest) bool {
		return r.Status == domain.RequestStatusQuoted && r.SupplierID != nil && *r.SupplierID == supplier.ID
	})).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventRequestAccepted, domain.CustomerChannel(customerID), mock.Anything).Return(nil)

	req, err := service.AcceptRequest(ctx, supplier, requestID)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestStatusQuoted, req.Status)
	m.requests.AssertExpectations(t)
}

func TestAcceptRequest_AlreadyAssignedToAnotherSupplier(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	otherSupplier := uuid.New()
	requestID := uuid.New()

	m.requests.On("GetByID", ctx, requestID).Return(&domain.ServiceRequest{
		ID:         requestID,
		RequestID:  "REQ-ABC-1234567",
		CustomerID: uuid.New(),
		SupplierID: &otherSupplier,
		Status:     domain.RequestStatusQuoted,
	}, nil)

	_, err := service.AcceptRequest(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}, requestID)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	m.requests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSubmitQuote_ClaimsUnassignedRequest(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	supplier := domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}
	customerID := uuid.New()
	requestID := uuid.New()

	m.requests.On("GetByID", ctx, requestID).Return(&domain.ServiceRequest{
		ID:         requestID,
		RequestID:  "REQ-ABC-1234567",
		CustomerID: customerID,
		Status:     domain.RequestStatusPending,
	}, nil)
	m.quotes.On("Create", ctx, mock.MatchedBy(func(q *domain.Quote) bool {
		return q.Status == domain.QuoteStatusPending && q.SupplierID == supplier.ID
	})).Return(nil)
	m.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.ServiceRequest) bool {
		return r.Status == domain.RequestStatusQuoted && r.SupplierID != nil && *r.SupplierID == supplier.ID
	})).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventStatusUpdate, domain.CustomerChannel(customerID), mock.Anything).Return(nil)

	quote, err := service.SubmitQuote(ctx, supplier, SubmitQuoteInput{
		ServiceRequestID: requestID,
		TotalPrice:       decimal.RequireFromString("120.00"),
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusPending, quote.Status)
	m.quotes.AssertExpectations(t)
	m.requests.AssertExpectations(t)
}

func TestAcceptQuote_OnlineSettlesImmediately(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	customer := domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
	supplierID := uuid.New()
	requestID := uuid.New()
	quoteID := uuid.New()
	otherQuoteID := uuid.New()
	total := decimal.RequireFromString("150.00")

	quote := &domain.Quote{
		ID:               quoteID,
		QuoteID:          "QUOTE-ABC-1234567",
		ServiceRequestID: requestID,
		SupplierID:       supplierID,
		TotalPrice:       total,
		Status:           domain.QuoteStatusPending,
	}
	req := &domain.ServiceRequest{
		ID:            requestID,
		RequestID:     "REQ-ABC-1234567",
		CustomerID:    customer.ID,
		SupplierID:    &supplierID,
		Status:        domain.RequestStatusQuoted,
		PaymentMethod: domain.PaymentMethodOnline,
		PaymentStatus: domain.PaymentStatusPending,
		Items:         []domain.OrderItem{{ID: uuid.New()}},
	}

	m.quotes.On("GetByID", ctx, quoteID).Return(quote, nil)
	m.requests.On("GetByID", ctx, requestID).Return(req, nil)
	m.quotes.On("SetStatus", ctx, quoteID, domain.QuoteStatusAccepted).Return(nil)
	m.quotes.On("ListByRequest", ctx, requestID).Return([]*domain.Quote{
		quote,
		{ID: otherQuoteID, ServiceRequestID: requestID, Status: domain.QuoteStatusPending},
	}, nil)
	m.quotes.On("SetStatus", ctx, otherQuoteID, domain.QuoteStatusRejected).Return(nil)
	m.settler.On("SettleOnline", ctx, mock.Anything, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(total)
	})).Return(&domain.Transaction{ID: uuid.New()}, nil)
	m.bills.On("Create", ctx, mock.MatchedBy(func(b *domain.Bill) bool {
		return b.PaymentStatus == domain.BillStatusPaid && b.TotalAmount.Equal(total)
	})).Return(nil)
	m.requests.On("Update", ctx, mock.MatchedBy(func(r *domain.ServiceRequest) bool {
		return r.Status == domain.RequestStatusConfirmed && r.PaymentStatus == domain.PaymentStatusPaid
	})).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventRequestAccepted, domain.SupplierChannel(supplierID), mock.Anything).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventPaymentReceived, domain.SupplierChannel(supplierID), mock.Anything).Return(nil)

	got, err := service.AcceptQuote(ctx, customer, quoteID)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestStatusConfirmed, got.Status)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	assert.NotNil(t, got.AgreedPrice)
	assert.True(t, got.AgreedPrice.Equal(total))
	m.quotes.AssertExpectations(t)
	m.settler.AssertExpectations(t)
	m.bills.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestAcceptQuote_CashDefersSettlement(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	customer := domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
	supplierID := uuid.New()
	requestID := uuid.New()
	quoteID := uuid.New()
	total := decimal.RequireFromString("80.00")

	quote := &domain.Quote{
		ID:               quoteID,
		QuoteID:          "QUOTE-ABC-1234567",
		ServiceRequestID: requestID,
		SupplierID:       supplierID,
		TotalPrice:       total,
		Status:           domain.QuoteStatusPending,
	}
	req := &domain.ServiceRequest{
		ID:            requestID,
		RequestID:     "REQ-ABC-1234567",
		CustomerID:    customer.ID,
		SupplierID:    &supplierID,
		Status:        domain.RequestStatusQuoted,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentStatus: domain.PaymentStatusPending,
		Items:         []domain.OrderItem{{ID: uuid.New()}},
	}

	m.quotes.On("GetByID", ctx, quoteID).Return(quote, nil)
	m.requests.On("GetByID", ctx, requestID).Return(req, nil)
	m.quotes.On("SetStatus", ctx, quoteID, domain.QuoteStatusAccepted).Return(nil)
	m.quotes.On("ListByRequest", ctx, requestID).Return([]*domain.Quote{quote}, nil)
	m.bills.On("Create", ctx, mock.MatchedBy(func(b *domain.Bill) bool {
		return b.PaymentStatus == domain.BillStatusUnpaid
	})).Return(nil)
	m.requests.On("Update", ctx, mock.Anything).Return(nil)
	m.notifier.On("Publish", ctx, domain.EventRequestAccepted, domain.SupplierChannel(supplierID), mock.Anything).Return(nil)

	got, err := service.AcceptQuote(ctx, customer, quoteID)

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, got.PaymentStatus)
	m.settler.AssertNotCalled(t, "SettleOnline", mock.Anything, mock.Anything, mock.Anything)
	m.notifier.AssertNotCalled(t, "Publish", mock.Anything, domain.EventPaymentReceived, mock.Anything, mock.Anything)
}

func TestAcceptQuote_AnotherCustomersRequestForbidden(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	requestID := uuid.New()
	quoteID := uuid.New()

	m.quotes.On("GetByID", ctx, quoteID).Return(&domain.Quote{
		ID:               quoteID,
		QuoteID:          "QUOTE-ABC-1234567",
		ServiceRequestID: requestID,
		SupplierID:       uuid.New(),
		TotalPrice:       decimal.NewFromInt(100),
		Status:           domain.QuoteStatusPending,
	}, nil)
	m.requests.On("GetByID", ctx, requestID).Return(&domain.ServiceRequest{
		ID:         requestID,
		RequestID:  "REQ-ABC-1234567",
		CustomerID: uuid.New(),
		Status:     domain.RequestStatusQuoted,
	}, nil)

	_, err := service.AcceptQuote(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}, quoteID)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	m.quotes.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptQuote_NonPendingQuoteRejected(t *testing.T) {
	ctx := context.Background()
	service, m := newBookingService()
	quoteID := uuid.New()

	m.quotes.On("GetByID", ctx, quoteID).Return(&domain.Quote{
		ID:      quoteID,
		QuoteID: "QUOTE-ABC-1234567",
		Status:  domain.QuoteStatusRejected,
	}, nil)

	_, err := service.AcceptQuote(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, quoteID)

	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	m.requests.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
