package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
)

// GetRequest fetches a request by its business identifier. The snapshot cache
// is consulted first; a miss or a cache error falls through to the database.
func (s *BookingService) GetRequest(ctx context.Context, actor domain.Actor, requestID string) (*domain.ServiceRequest, error) {
	var req *domain.ServiceRequest

	if s.Cache != nil {
		cached, err := s.Cache.GetRequest(ctx, requestID)
		if err != nil {
			logger.Warn().Err(err).Str("request_id", requestID).Msg("snapshot cache read failed")
		} else if cached != nil {
			req = cached
		}
	}

	if req == nil {
		var err error
		req, err = s.RequestRepo.GetByRequestID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		s.cacheSnapshot(ctx, req)
	}

	if err := authorizeRead(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListMyRequests lists the calling customer's requests.
func (s *BookingService) ListMyRequests(ctx context.Context, actor domain.Actor, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	return s.RequestRepo.ListByCustomer(ctx, actor.ID, filter)
}

// ListSupplierRequests lists the requests assigned to the calling supplier.
func (s *BookingService) ListSupplierRequests(ctx context.Context, actor domain.Actor, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	if actor.Role != domain.RoleSupplier {
		return nil, fmt.Errorf("supplier role required: %w", domain.ErrForbidden)
	}
	return s.RequestRepo.ListBySupplier(ctx, actor.ID, filter)
}

// ListOpenRequests lists unassigned pending requests suppliers can pick up.
func (s *BookingService) ListOpenRequests(ctx context.Context, actor domain.Actor) ([]*domain.ServiceRequest, error) {
	if actor.Role != domain.RoleSupplier && !actor.IsAdmin() {
		return nil, fmt.Errorf("supplier role required: %w", domain.ErrForbidden)
	}
	return s.RequestRepo.ListPendingOpen(ctx)
}

// ListAllRequests lists every request. Admin only.
func (s *BookingService) ListAllRequests(ctx context.Context, actor domain.Actor, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	return s.RequestRepo.List(ctx, filter)
}

// ListItems lists the order items of a request the actor may see.
func (s *BookingService) ListItems(ctx context.Context, actor domain.Actor, requestID uuid.UUID) ([]*domain.OrderItem, error) {
	req, err := s.RequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, req); err != nil {
		return nil, err
	}
	return s.ItemRepo.ListByRequest(ctx, req.ID)
}

// ListQuotes lists the quotes submitted for a request the actor may see.
func (s *BookingService) ListQuotes(ctx context.Context, actor domain.Actor, requestID uuid.UUID) ([]*domain.Quote, error) {
	req, err := s.RequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, req); err != nil {
		return nil, err
	}
	return s.QuoteRepo.ListByRequest(ctx, req.ID)
}

func authorizeRead(actor domain.Actor, req *domain.ServiceRequest) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == domain.RoleCustomer && req.CustomerID == actor.ID {
		return nil
	}
	if actor.Role == domain.RoleSupplier {
		// Suppliers see unassigned pending requests and their own.
		if req.SupplierID == nil && req.Status == domain.RequestStatusPending {
			return nil
		}
		if req.SupplierID != nil && *req.SupplierID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("request %s is not visible to this actor: %w", req.RequestID, domain.ErrForbidden)
}
