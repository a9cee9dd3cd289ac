package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// BinStatus represents the physical state of a bin unit.
type BinStatus string

const (
	BinStatusAvailable     BinStatus = "available"
	BinStatusConfirmed     BinStatus = "confirmed"
	BinStatusLoaded        BinStatus = "loaded"
	BinStatusDelivered     BinStatus = "delivered"
	BinStatusReadyToPickup BinStatus = "ready_to_pickup"
	BinStatusPickedUp      BinStatus = "picked_up"
)

// PhysicalBin represents one physical bin unit in a supplier's inventory.
// A bin that is not available must carry exactly one active assignment
// (customer + service request); an available bin must carry none.
type PhysicalBin struct {
	ID                uuid.UUID
	BinCode           string
	BinTypeID         uuid.UUID
	BinSizeID         uuid.UUID
	SupplierID        *uuid.UUID // nil while in the unassigned pool
	Status            BinStatus
	CurrentCustomerID *uuid.UUID
	CurrentRequestID  *uuid.UUID
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Denormalized display fields, populated on reads.
	BinTypeName string
	BinSize     string
}

// Validate ensures the bin adheres to domain rules.
// CRITICAL: status `available` if and only if both occupant fields are null.
func (b *PhysicalBin) Validate() error {
	if b.BinCode == "" {
		return errors.New("bin code cannot be empty")
	}

	if b.BinTypeID == uuid.Nil || b.BinSizeID == uuid.Nil {
		return errors.New("bin type and size are required")
	}

	occupied := b.CurrentCustomerID != nil || b.CurrentRequestID != nil

	if b.Status == BinStatusAvailable && occupied {
		return errors.New("available bin must not have an occupant")
	}

	if b.Status != BinStatusAvailable {
		if b.CurrentCustomerID == nil || b.CurrentRequestID == nil {
			return errors.New("occupied bin must have both customer and service request set")
		}
	}

	return nil
}

// IsOwnedBy reports whether the bin belongs to the given supplier.
func (b *PhysicalBin) IsOwnedBy(supplierID uuid.UUID) bool {
	return b.SupplierID != nil && *b.SupplierID == supplierID
}

// BinFilter narrows bin listings.
type BinFilter struct {
	SupplierID *uuid.UUID
	Status     BinStatus
	BinCode    string // substring match
	BinTypeID  *uuid.UUID
	BinSizeID  *uuid.UUID
}
