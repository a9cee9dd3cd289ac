package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
)

// binAssignment pairs one scanned bin with the order item it will fulfill.
type binAssignment struct {
	ItemID  uuid.UUID
	BinID   uuid.UUID
	BinCode string
}

// UpdateStatus advances a request to the next lifecycle status. The
// on_delivery transition carries the bin codes being loaded; all other
// transitions take an empty slice. Order items and physical bins are moved in
// the same transaction as the request so the three never disagree.
func (s *BookingService) UpdateStatus(ctx context.Context, actor domain.Actor, requestID uuid.UUID, next domain.RequestStatus, binCodes []string) (*domain.ServiceRequest, error) {
	req, err := s.RequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := authorizeTransition(actor, req, next); err != nil {
		return nil, err
	}

	// Re-submitting delivered is the cash retry path: settle if the first
	// attempt failed, otherwise a no-op.
	if req.Status == domain.RequestStatusDelivered && next == domain.RequestStatusDelivered {
		return s.retryCashSettlement(ctx, req)
	}

	if !req.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("request %s cannot move from %s to %s: %w", req.RequestID, req.Status, next, domain.ErrInvalidState)
	}

	switch next {
	case domain.RequestStatusConfirmed:
		return nil, fmt.Errorf("confirmation happens through quote acceptance: %w", domain.ErrInvalidState)
	case domain.RequestStatusOnDelivery:
		return s.beginDelivery(ctx, req, binCodes)
	case domain.RequestStatusDelivered:
		return s.markDelivered(ctx, req)
	case domain.RequestStatusCompleted, domain.RequestStatusCancelled:
		return s.closeRequest(ctx, req, next)
	default:
		return s.advance(ctx, actor, req, next)
	}
}

// authorizeTransition enforces who may drive which transition. Admins may do
// anything. Suppliers only operate on requests assigned to them. Customers
// only operate on their own requests, and only to flag pickup readiness or
// cancel.
func authorizeTransition(actor domain.Actor, req *domain.ServiceRequest, next domain.RequestStatus) error {
	if actor.IsAdmin() {
		return nil
	}

	switch actor.Role {
	case domain.RoleSupplier:
		if req.SupplierID == nil || *req.SupplierID != actor.ID {
			return fmt.Errorf("request %s is not assigned to this supplier: %w", req.RequestID, domain.ErrForbidden)
		}
		return nil
	case domain.RoleCustomer:
		if req.CustomerID != actor.ID {
			return fmt.Errorf("request %s belongs to another customer: %w", req.RequestID, domain.ErrForbidden)
		}
		if next != domain.RequestStatusReadyToPickup && next != domain.RequestStatusCancelled {
			return fmt.Errorf("customers cannot set status %s: %w", next, domain.ErrForbidden)
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}

// beginDelivery validates and applies a bin assignment batch, moving the
// request to on_delivery. The whole batch succeeds or nothing changes.
func (s *BookingService) beginDelivery(ctx context.Context, req *domain.ServiceRequest, binCodes []string) (*domain.ServiceRequest, error) {
	if req.SupplierID == nil {
		return nil, fmt.Errorf("request %s has no assigned supplier: %w", req.RequestID, domain.ErrInvalidState)
	}
	supplierID := *req.SupplierID

	items, err := s.ItemRepo.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	// 1. The batch must cover every order item exactly once.
	if len(binCodes) != len(items) {
		return nil, domain.NewValidationError("expected %d bin codes, got %d", len(items), len(binCodes))
	}

	seen := make(map[string]bool, len(binCodes))
	var dups []string
	for _, code := range binCodes {
		if seen[code] {
			dups = append(dups, code)
		}
		seen[code] = true
	}
	if len(dups) > 0 {
		return nil, &domain.ConflictError{Msg: "duplicate bin codes in assignment batch", BinCodes: dups}
	}

	// 2. Pair each bin with an unfulfilled item of the same type and size.
	type requirement struct {
		binTypeID uuid.UUID
		binSizeID uuid.UUID
	}
	unfulfilled := make(map[requirement][]uuid.UUID)
	for _, item := range items {
		key := requirement{item.BinTypeID, item.BinSizeID}
		unfulfilled[key] = append(unfulfilled[key], item.ID)
	}

	assignments := make([]binAssignment, 0, len(binCodes))
	for _, code := range binCodes {
		bin, err := s.BinRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("bin %s: %w", code, err)
		}
		if !bin.IsOwnedBy(supplierID) {
			return nil, fmt.Errorf("bin %s is not owned by the assigned supplier: %w", code, domain.ErrForbidden)
		}
		if bin.Status != domain.BinStatusAvailable {
			return nil, &domain.ConflictError{Msg: "bin is not available", BinCodes: []string{code}}
		}

		key := requirement{bin.BinTypeID, bin.BinSizeID}
		queue := unfulfilled[key]
		if len(queue) == 0 {
			return nil, domain.NewValidationError("bin %s does not match any unfulfilled item requirement", code)
		}
		itemID := queue[0]
		unfulfilled[key] = queue[1:]

		active, err := s.ItemRepo.ActiveItemExistsForBin(ctx, bin.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, &domain.ConflictError{Msg: "bin is already assigned to an active order item", BinCodes: []string{code}}
		}

		assignments = append(assignments, binAssignment{ItemID: itemID, BinID: bin.ID, BinCode: code})
	}

	// 3. Claim the bins conditionally; a lost race rolls back the batch.
	req.Status = domain.RequestStatusOnDelivery
	req.UpdatedAt = time.Now()

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		for _, a := range assignments {
			claimed, err := s.BinRepo.Claim(ctx, a.BinID, req.CustomerID, req.ID, domain.BinStatusLoaded)
			if err != nil {
				return err
			}
			if !claimed {
				return &domain.ConflictError{Msg: "bin was claimed by a concurrent assignment", BinCodes: []string{a.BinCode}}
			}
			if err := s.ItemRepo.AssignBin(ctx, a.ItemID, a.BinID); err != nil {
				return err
			}
		}
		if err := s.ItemRepo.SetStatusByRequest(ctx, req.ID, domain.ItemStatusLoaded); err != nil {
			return err
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventStatusUpdate, domain.CustomerChannel(req.CustomerID), req)

	return req, nil
}

// markDelivered moves the request to delivered, cascading status to items and
// bins. Cash requests settle here: the commission debit and the delivered
// transition commit together.
func (s *BookingService) markDelivered(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	req.Status = domain.RequestStatusDelivered
	req.UpdatedAt = time.Now()

	settled := false
	err := s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.cascadeStatus(ctx, req, domain.RequestStatusDelivered); err != nil {
			return err
		}
		if req.PaymentMethod == domain.PaymentMethodCash && req.PaymentStatus != domain.PaymentStatusPaid {
			if _, err := s.Settler.SettleCashOnDelivery(ctx, req); err != nil {
				return err
			}
			req.PaymentStatus = domain.PaymentStatusPaid
			if err := s.markBillPaid(ctx, req); err != nil {
				return err
			}
			settled = true
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventStatusUpdate, domain.CustomerChannel(req.CustomerID), req)
	if settled && req.SupplierID != nil {
		s.notify(ctx, domain.EventPaymentReceived, domain.SupplierChannel(*req.SupplierID), req)
	}

	return req, nil
}

// retryCashSettlement handles a repeated delivered transition: if the cash
// settlement failed on the first attempt, it runs again; an already-paid
// request is returned unchanged.
func (s *BookingService) retryCashSettlement(ctx context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	if req.PaymentMethod != domain.PaymentMethodCash || req.PaymentStatus == domain.PaymentStatusPaid {
		return req, nil
	}

	err := s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Settler.SettleCashOnDelivery(ctx, req); err != nil {
			return err
		}
		req.PaymentStatus = domain.PaymentStatusPaid
		req.UpdatedAt = time.Now()
		if err := s.markBillPaid(ctx, req); err != nil {
			return err
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	if req.SupplierID != nil {
		s.notify(ctx, domain.EventPaymentReceived, domain.SupplierChannel(*req.SupplierID), req)
	}

	return req, nil
}

// advance handles ready_to_pickup and pickup: a plain status step with the
// item and bin cascade.
func (s *BookingService) advance(ctx context.Context, actor domain.Actor, req *domain.ServiceRequest, next domain.RequestStatus) (*domain.ServiceRequest, error) {
	req.Status = next
	req.UpdatedAt = time.Now()

	err := s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.cascadeStatus(ctx, req, next); err != nil {
			return err
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventStatusUpdate, domain.CustomerChannel(req.CustomerID), req)
	if next == domain.RequestStatusReadyToPickup && actor.Role == domain.RoleCustomer && req.SupplierID != nil {
		s.notify(ctx, domain.EventRequestReadyToPickup, domain.SupplierChannel(*req.SupplierID), req)
	}

	return req, nil
}

// closeRequest handles the terminal transitions. Both release the bins back
// to the available pool; cancellation additionally detaches the bins from
// their order items so a re-created order starts clean.
func (s *BookingService) closeRequest(ctx context.Context, req *domain.ServiceRequest, next domain.RequestStatus) (*domain.ServiceRequest, error) {
	req.Status = next
	req.UpdatedAt = time.Now()

	err := s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if next == domain.RequestStatusCancelled {
			if err := s.ItemRepo.ResetByRequest(ctx, req.ID); err != nil {
				return err
			}
		} else {
			if err := s.ItemRepo.SetStatusByRequest(ctx, req.ID, domain.ItemStatusCompleted); err != nil {
				return err
			}
		}
		if err := s.BinRepo.ReleaseForRequest(ctx, req.ID); err != nil {
			return err
		}
		return s.RequestRepo.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.cacheSnapshot(ctx, req)
	s.notify(ctx, domain.EventStatusUpdate, domain.CustomerChannel(req.CustomerID), req)
	if req.SupplierID != nil {
		s.notify(ctx, domain.EventStatusUpdate, domain.SupplierChannel(*req.SupplierID), req)
	}

	return req, nil
}

// cascadeStatus moves order items and claimed bins to the states implied by
// the request status.
func (s *BookingService) cascadeStatus(ctx context.Context, req *domain.ServiceRequest, status domain.RequestStatus) error {
	if itemStatus, ok := domain.ItemStatusFor(status); ok {
		if err := s.ItemRepo.SetStatusByRequest(ctx, req.ID, itemStatus); err != nil {
			return err
		}
	}
	if binStatus, ok := domain.BinStatusFor(status); ok {
		return s.BinRepo.SetStatusForRequest(ctx, req.ID, binStatus)
	}
	return nil
}

// markBillPaid stamps the request's bill as paid, if one exists.
func (s *BookingService) markBillPaid(ctx context.Context, req *domain.ServiceRequest) error {
	if req.BillID == nil {
		return nil
	}
	bill, err := s.BillRepo.GetByID(ctx, *req.BillID)
	if err != nil {
		return err
	}
	now := time.Now()
	bill.PaymentStatus = domain.BillStatusPaid
	bill.PaidAt = &now
	bill.UpdatedAt = now
	return s.BillRepo.Update(ctx, bill)
}
