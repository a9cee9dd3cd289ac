package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the review state of a supplier's quote.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Quote is a supplier's priced offer for a service request. Accepting a quote
// fixes the agreed price and confirms the request.
type Quote struct {
	ID                uuid.UUID
	QuoteID           string
	ServiceRequestID  uuid.UUID
	SupplierID        uuid.UUID
	TotalPrice        decimal.Decimal
	AdditionalCharges decimal.Decimal
	Notes             string
	Status            QuoteStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Total returns the full quoted amount including additional charges.
func (q *Quote) Total() decimal.Decimal {
	return q.TotalPrice.Add(q.AdditionalCharges)
}

// Validate ensures the quote adheres to domain rules.
func (q *Quote) Validate() error {
	if q.ServiceRequestID == uuid.Nil {
		return errors.New("quote must reference a service request")
	}

	if q.SupplierID == uuid.Nil {
		return errors.New("quote must have a supplier")
	}

	if q.TotalPrice.LessThanOrEqual(decimal.Zero) {
		return errors.New("quote total price must be positive")
	}

	if q.AdditionalCharges.LessThan(decimal.Zero) {
		return errors.New("quote additional charges cannot be negative")
	}

	return nil
}
