package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemStatus represents the fulfillment state of a single order item.
type ItemStatus string

const (
	ItemStatusPending       ItemStatus = "pending"
	ItemStatusLoaded        ItemStatus = "loaded"
	ItemStatusDelivered     ItemStatus = "delivered"
	ItemStatusReadyToPickup ItemStatus = "ready_to_pickup"
	ItemStatusPickedUp      ItemStatus = "picked_up"
	ItemStatusCompleted     ItemStatus = "completed"
)

// OrderItem is one unit of demand within a service request.
// Once a physical bin is assigned it must match the item's required type and
// size, and no other active item anywhere may reference the same bin.
type OrderItem struct {
	ID               uuid.UUID
	ServiceRequestID uuid.UUID
	BinTypeID        uuid.UUID
	BinSizeID        uuid.UUID
	PhysicalBinID    *uuid.UUID
	Status           ItemStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Denormalized display fields, populated on reads.
	BinTypeName string
	BinSize     string
	BinCode     string
}

// Validate ensures the order item adheres to domain rules.
func (i *OrderItem) Validate() error {
	if i.ServiceRequestID == uuid.Nil {
		return errors.New("order item must belong to a service request")
	}

	if i.BinTypeID == uuid.Nil || i.BinSizeID == uuid.Nil {
		return errors.New("order item must specify a bin type and size")
	}

	return nil
}

// IsActive reports whether the item still holds (or may hold) a bin claim.
// Completed items have released their bin; pending items without a bin are
// active in the sense that a cancelled request resets to this state.
func (i *OrderItem) IsActive() bool {
	return i.Status != ItemStatusCompleted
}
