package booking

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/binrental/binrental-backend/internal/domain"
	"github.com/binrental/binrental-backend/internal/ids"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "booking").Logger()

// Matcher finds suppliers able to fulfill an order's bin requirements.
type Matcher interface {
	FindQualifiedSuppliers(ctx context.Context, requirements []domain.BinRequirement) ([]uuid.UUID, error)
}

// Settler runs the money side of a confirmation or delivery.
type Settler interface {
	SettleOnline(ctx context.Context, req *domain.ServiceRequest, total decimal.Decimal) (*domain.Transaction, error)
	SettleCashOnDelivery(ctx context.Context, req *domain.ServiceRequest) (*domain.Transaction, error)
}

// SnapshotCache caches request snapshots for the read path. Both methods are
// best-effort; a nil cache disables caching.
type SnapshotCache interface {
	GetRequest(ctx context.Context, requestID string) (*domain.ServiceRequest, error)
	StoreRequest(ctx context.Context, req *domain.ServiceRequest) error
}

// BookingService drives the service request lifecycle: creation, supplier
// acceptance, quoting, confirmation, and the delivery status transitions that
// keep order items and physical bins consistent with the aggregate.
type BookingService struct {
	Atomic      domain.Atomic
	RequestRepo domain.RequestRepository
	ItemRepo    domain.OrderItemRepository
	BinRepo     domain.BinRepository
	QuoteRepo   domain.QuoteRepository
	BillRepo    domain.BillRepository
	Matcher     Matcher
	Settler     Settler
	Notifier    domain.Notifier
	Cache       SnapshotCache
}

// NewBookingService creates a new BookingService instance.
func NewBookingService(
	atomic domain.Atomic,
	requestRepo domain.RequestRepository,
	itemRepo domain.OrderItemRepository,
	binRepo domain.BinRepository,
	quoteRepo domain.QuoteRepository,
	billRepo domain.BillRepository,
	matcher Matcher,
	settler Settler,
	notifier domain.Notifier,
	cache SnapshotCache,
) *BookingService {
	return &BookingService{
		Atomic:      atomic,
		RequestRepo: requestRepo,
		ItemRepo:    itemRepo,
		BinRepo:     binRepo,
		QuoteRepo:   quoteRepo,
		BillRepo:    billRepo,
		Matcher:     matcher,
		Settler:     settler,
		Notifier:    notifier,
		Cache:       cache,
	}
}

// ItemInput is one line of demand in a new request.
type ItemInput struct {
	BinTypeID uuid.UUID
	BinSizeID uuid.UUID
	Quantity  int
}

// CreateRequestInput represents the input for creating a service request.
type CreateRequestInput struct {
	Location      string
	StartDate     time.Time
	EndDate       time.Time
	PaymentMethod domain.PaymentMethod
	ContactNumber string
	ContactEmail  string
	Instructions  string
	Items         []ItemInput
}

// CreateRequest creates a new pending service request with one order item row
// per unit of requested quantity. Matching runs first: if no supplier's
// available inventory covers every requirement simultaneously, the request is
// rejected and nothing is persisted.
func (s *BookingService) CreateRequest(ctx context.Context, actor domain.Actor, input CreateRequestInput) (*domain.ServiceRequest, error) {
	if actor.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("only customers can create service requests: %w", domain.ErrForbidden)
	}
	if input.Location == "" {
		return nil, domain.NewValidationError("location is required")
	}
	if len(input.Items) == 0 {
		return nil, domain.NewValidationError("at least one order item is required")
	}
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return nil, domain.NewValidationError("end date cannot be before start date")
	}

	// 1. Fail fast when no supplier can cover the whole order.
	requirements := make([]domain.BinRequirement, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("item quantity must be positive")
		}
		requirements = append(requirements, domain.BinRequirement{
			BinTypeID: item.BinTypeID,
			BinSizeID: item.BinSizeID,
			Quantity:  item.Quantity,
		})
	}

	suppliers, err := s.Matcher.FindQualifiedSuppliers(ctx, requirements)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, domain.NewValidationError("no supplier has sufficient available inventory for this order")
	}

	// 2. Build the aggregate: one order item row per unit of quantity.
	now := time.Now()
	req := &domain.ServiceRequest{
		ID:            uuid.New(),
		RequestID:     ids.New(ids.PrefixRequest),
		CustomerID:    actor.ID,
		Location:      input.Location,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.RequestStatusPending,
		ContactNumber: input.ContactNumber,
		ContactEmail:  input.ContactEmail,
		Instructions:  input.Instructions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]*domain.OrderItem, 0)
	for _, line := range input.Items {
		for i := 0; i < line.Quantity; i++ {
			items = append(items, &domain.OrderItem{
				ID:               uuid.New(),
				ServiceRequestID: req.ID,
				BinTypeID:        line.BinTypeID,
				BinSizeID:        line.BinSizeID,
				Status:           domain.ItemStatusPending,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		}
	}
	for _, item := range items {
		req.Items = append(req.Items, *item)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 3. Persist request and items together.
	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.RequestRepo.Create(ctx, req); err != nil {
			return err
		}
		return s.ItemRepo.CreateBatch(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventNewRequest, domain.SuppliersBroadcast, req)

	return req, nil
}

// AcceptRequest assigns a pending or quoted request to the calling supplier.
func (s *BookingService) AcceptRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID) (*domain.ServiceRequest, error) {
	if actor.Role != domain.RoleSupplier {
		return nil, fmt.Errorf("only suppliers can accept requests: %w", domain.ErrForbidden)
	}

	req, err := s.RequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.SupplierID != nil && *req.SupplierID != actor.ID {
		return nil, fmt.Errorf("request %s is already assigned to another supplier: %w", req.RequestID, domain.ErrForbidden)
	}

	if req.Status != domain.RequestStatusPending && req.Status != domain.RequestStatusQuoted {
		return nil, fmt.Errorf("request %s cannot be accepted from status %s: %w", req.RequestID, req.Status, domain.ErrInvalidState)
	}

	supplierID := actor.ID
	req.SupplierID = &supplierID
	req.Status = domain.RequestStatusQuoted
	req.UpdatedAt = time.Now()

	if err := s.RequestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventRequestAccepted, domain.CustomerChannel(req.CustomerID), req)

	return req, nil
}

// SubmitQuoteInput represents the input for a supplier's quote submission.
type SubmitQuoteInput struct {
	ServiceRequestID  uuid.UUID
	TotalPrice        decimal.Decimal
	AdditionalCharges decimal.Decimal
	Notes             string
}

// SubmitQuote records a supplier's priced offer for a request, claiming the
// request for the supplier when it is still unassigned.
func (s *BookingService) SubmitQuote(ctx context.Context, actor domain.Actor, input SubmitQuoteInput) (*domain.Quote, error) {
	if actor.Role != domain.RoleSupplier {
		return nil, fmt.Errorf("only suppliers can submit quotes: %w", domain.ErrForbidden)
	}

	req, err := s.RequestRepo.GetByID(ctx, input.ServiceRequestID)
	if err != nil {
		return nil, err
	}

	if req.SupplierID != nil && *req.SupplierID != actor.ID {
		return nil, fmt.Errorf("request %s belongs to another supplier: %w", req.RequestID, domain.ErrForbidden)
	}

	if req.Status != domain.RequestStatusPending && req.Status != domain.RequestStatusQuoted {
		return nil, fmt.Errorf("request %s cannot be quoted in status %s: %w", req.RequestID, req.Status, domain.ErrInvalidState)
	}

	quote := &domain.Quote{
		ID:                uuid.New(),
		QuoteID:           ids.New(ids.PrefixQuote),
		ServiceRequestID:  req.ID,
		SupplierID:        actor.ID,
		TotalPrice:        input.TotalPrice,
		AdditionalCharges: input.AdditionalCharges,
		Notes:             input.Notes,
		Status:            domain.QuoteStatusPending,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if err := quote.Validate(); err != nil {
		return nil, err
	}

	supplierID := actor.ID
	req.SupplierID = &supplierID
	req.Status = domain.RequestStatusQuoted
	req.UpdatedAt = time.Now()

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.QuoteRepo.Create(ctx, quote); err != nil {
			return err
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventStatusUpdate, domain.CustomerChannel(req.CustomerID), req)

	return quote, nil
}

// AcceptQuote is the confirmation step: the customer accepts a supplier's
// quote, which fixes the agreed price, creates the bill, and for online
// payment settles immediately. Cash requests stay unsettled until delivery.
func (s *BookingService) AcceptQuote(ctx context.Context, actor domain.Actor, quoteID uuid.UUID) (*domain.ServiceRequest, error) {
	quote, err := s.QuoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.Status != domain.QuoteStatusPending {
		return nil, fmt.Errorf("quote %s is already %s: %w", quote.QuoteID, quote.Status, domain.ErrInvalidState)
	}

	req, err := s.RequestRepo.GetByID(ctx, quote.ServiceRequestID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && req.CustomerID != actor.ID {
		return nil, fmt.Errorf("request %s belongs to another customer: %w", req.RequestID, domain.ErrForbidden)
	}

	if !req.Status.CanTransitionTo(domain.RequestStatusConfirmed) {
		return nil, fmt.Errorf("request %s cannot be confirmed from status %s: %w", req.RequestID, req.Status, domain.ErrInvalidState)
	}

	total := quote.Total()
	now := time.Now()

	bill := &domain.Bill{
		ID:               uuid.New(),
		BillID:           ids.New(ids.PrefixBill),
		ServiceRequestID: req.ID,
		CustomerID:       req.CustomerID,
		SupplierID:       quote.SupplierID,
		TotalAmount:      total,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    domain.BillStatusUnpaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	supplierID := quote.SupplierID
	req.SupplierID = &supplierID
	req.AgreedPrice = &total
	req.Status = domain.RequestStatusConfirmed
	req.BillID = &bill.ID
	req.UpdatedAt = now

	if err := req.Validate(); err != nil {
		return nil, err
	}

	settled := false
	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.QuoteRepo.SetStatus(ctx, quote.ID, domain.QuoteStatusAccepted); err != nil {
			return err
		}

		// Reject the other pending quotes for this request.
		others, err := s.QuoteRepo.ListByRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID != quote.ID && other.Status == domain.QuoteStatusPending {
				if err := s.QuoteRepo.SetStatus(ctx, other.ID, domain.QuoteStatusRejected); err != nil {
					return err
				}
			}
		}

		// Online payment settles at confirmation; cash defers to delivery.
		if req.PaymentMethod == domain.PaymentMethodOnline {
			if _, err := s.Settler.SettleOnline(ctx, req, total); err != nil {
				return err
			}
			req.PaymentStatus = domain.PaymentStatusPaid
			bill.PaymentStatus = domain.BillStatusPaid
			bill.PaidAt = &now
		}

		if err := s.BillRepo.Create(ctx, bill); err != nil {
			return err
		}

		settled = req.PaymentStatus == domain.PaymentStatusPaid
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventRequestAccepted, domain.SupplierChannel(quote.SupplierID), req)
	if settled {
		s.notify(ctx, domain.EventPaymentReceived, domain.SupplierChannel(quote.SupplierID), req)
	}

	return req, nil
}

// notify publishes a lifecycle event carrying the request snapshot.
// Best-effort: failures are logged and never affect the completed mutation.
func (s *BookingService) notify(ctx context.Context, event domain.Event, channel string, req *domain.ServiceRequest) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Publish(ctx, event, channel, req); err != nil {
		logger.Error().Err(err).
			Str("event", string(event)).
			Str("channel", channel).
			Str("request_id", req.RequestID).
			Msg("notification publish failed")
	}
}

// cacheSnapshot stores the request snapshot for the read path. Best-effort.
func (s *BookingService) cacheSnapshot(ctx context.Context, req *domain.ServiceRequest) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.StoreRequest(ctx, req); err != nil {
		logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("snapshot cache store failed")
	}
}
