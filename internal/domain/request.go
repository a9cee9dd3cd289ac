package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the customer-facing lifecycle state of a service request.
type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "pending"
	RequestStatusQuoted        RequestStatus = "quoted"
	RequestStatusConfirmed     RequestStatus = "confirmed"
	RequestStatusOnDelivery    RequestStatus = "on_delivery"
	RequestStatusDelivered     RequestStatus = "delivered"
	RequestStatusReadyToPickup RequestStatus = "ready_to_pickup"
	RequestStatusPickup        RequestStatus = "pickup"
	RequestStatusCompleted     RequestStatus = "completed"
	RequestStatusCancelled     RequestStatus = "cancelled"
)

// PaymentMethod is how the customer pays for a request.
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCash   PaymentMethod = "cash"
)

// PaymentStatus tracks whether the request has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

// ServiceRequest is the aggregate order: it owns the customer-facing status and
// drives the order items and the physical bins backing them.
type ServiceRequest struct {
	ID            uuid.UUID
	RequestID     string // external-facing business reference
	CustomerID    uuid.UUID
	SupplierID    *uuid.UUID
	Location      string
	StartDate     time.Time
	EndDate       time.Time
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	Status        RequestStatus
	AgreedPrice   *decimal.Decimal // set at confirmation
	ContactNumber string
	ContactEmail  string
	Instructions  string
	BillID        *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []OrderItem
}

// Validate ensures the request adheres to domain rules.
// CRITICAL: a request cannot be confirmed without a supplier and an agreed price.
func (r *ServiceRequest) Validate() error {
	if r.CustomerID == uuid.Nil {
		return errors.New("service request must have a customer")
	}

	if r.Location == "" {
		return errors.New("service request must have a location")
	}

	if len(r.Items) == 0 {
		return errors.New("service request must have at least one order item")
	}

	if r.PaymentMethod != PaymentMethodOnline && r.PaymentMethod != PaymentMethodCash {
		return errors.New("payment method must be online or cash")
	}

	if statusRank(r.Status) >= statusRank(RequestStatusConfirmed) && r.Status != RequestStatusCancelled {
		if r.SupplierID == nil {
			return errors.New("confirmed request must have an assigned supplier")
		}
		if r.AgreedPrice == nil || r.AgreedPrice.LessThanOrEqual(decimal.Zero) {
			return errors.New("confirmed request must have a positive agreed price")
		}
	}

	return nil
}

// IsTerminal reports whether the status admits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// statusRank orders the forward path of the lifecycle. Cancelled is outside
// the path and handled separately.
func statusRank(s RequestStatus) int {
	switch s {
	case RequestStatusPending:
		return 0
	case RequestStatusQuoted:
		return 1
	case RequestStatusConfirmed:
		return 2
	case RequestStatusOnDelivery:
		return 3
	case RequestStatusDelivered:
		return 4
	case RequestStatusReadyToPickup:
		return 5
	case RequestStatusPickup:
		return 6
	case RequestStatusCompleted:
		return 7
	default:
		return -1
	}
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// Forward moves advance one step at a time; cancellation is reachable from any
// non-terminal state; delivered may be re-entered idempotently for cash
// settlement retries.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s.IsTerminal() {
		return false
	}

	if next == RequestStatusCancelled {
		return true
	}

	// Idempotent re-entry: a delivered request may receive delivered again
	// without effect (cash settlement retry path).
	if s == RequestStatusDelivered && next == RequestStatusDelivered {
		return true
	}

	from, to := statusRank(s), statusRank(next)
	if from < 0 || to < 0 {
		return false
	}
	return to == from+1
}

// ItemStatusFor maps a request status to the status its order items follow.
// The second return is false when items do not change for this status.
func ItemStatusFor(s RequestStatus) (ItemStatus, bool) {
	switch s {
	case RequestStatusOnDelivery:
		return ItemStatusLoaded, true
	case RequestStatusDelivered:
		return ItemStatusDelivered, true
	case RequestStatusReadyToPickup:
		return ItemStatusReadyToPickup, true
	case RequestStatusPickup:
		return ItemStatusPickedUp, true
	case RequestStatusCompleted:
		return ItemStatusCompleted, true
	case RequestStatusCancelled:
		return ItemStatusPending, true
	default:
		return "", false
	}
}

// BinStatusFor maps a request status to the status the claimed bins follow.
// Completed and cancelled free bins back to available; that release also clears
// occupancy, which this mapping alone does not express.
func BinStatusFor(s RequestStatus) (BinStatus, bool) {
	switch s {
	case RequestStatusConfirmed:
		return BinStatusConfirmed, true
	case RequestStatusOnDelivery:
		return BinStatusLoaded, true
	case RequestStatusDelivered:
		return BinStatusDelivered, true
	case RequestStatusReadyToPickup:
		return BinStatusReadyToPickup, true
	case RequestStatusPickup:
		return BinStatusPickedUp, true
	case RequestStatusCompleted, RequestStatusCancelled:
		return BinStatusAvailable, true
	default:
		return "", false
	}
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	Status     RequestStatus
	CustomerID *uuid.UUID
	SupplierID *uuid.UUID
	Limit      int
}

// BinRequirement is one line of demand used for supplier matching.
type BinRequirement struct {
	BinTypeID uuid.UUID
	BinSizeID uuid.UUID
	Quantity  int
}
