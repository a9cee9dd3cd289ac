package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillStatus tracks whether a customer bill has been paid.
type BillStatus string

const (
	BillStatusUnpaid BillStatus = "unpaid"
	BillStatusPaid   BillStatus = "paid"
)

// Bill is the customer-facing charge for a confirmed service request.
type Bill struct {
	ID               uuid.UUID
	BillID           string
	ServiceRequestID uuid.UUID
	CustomerID       uuid.UUID
	SupplierID       uuid.UUID
	TotalAmount      decimal.Decimal
	PaymentMethod    PaymentMethod
	PaymentStatus    BillStatus
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate ensures the bill adheres to domain rules.
func (b *Bill) Validate() error {
	if b.ServiceRequestID == uuid.Nil {
		return errors.New("bill must reference a service request")
	}

	if b.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("bill total must be positive")
	}

	return nil
}

// Invoice is a supplier-side settlement document. Payout invoices are created
// unpaid when the payout is requested and marked paid on approval.
type Invoice struct {
	ID               uuid.UUID
	InvoiceID        string
	PayoutID         *uuid.UUID
	ServiceRequestID *uuid.UUID
	SupplierID       uuid.UUID
	TotalAmount      decimal.Decimal
	PaymentMethod    string
	PaymentStatus    BillStatus
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate ensures the invoice adheres to domain rules.
func (i *Invoice) Validate() error {
	if i.SupplierID == uuid.Nil {
		return errors.New("invoice must have a supplier")
	}

	if i.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("invoice total must be positive")
	}

	return nil
}
