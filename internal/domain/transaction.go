package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus tracks the lifecycle of a money movement record.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionType distinguishes the business purpose of a transaction.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeRefund  TransactionType = "refund"
)

// Transaction is an immutable record of one money movement: the gross amount
// paid, the platform's commission cut, and the supplier's net share.
// Append-only: rows are never updated except for status corrections.
type Transaction struct {
	ID               uuid.UUID
	TransactionID    string // external-facing business reference
	CustomerID       uuid.UUID
	SupplierID       *uuid.UUID
	ServiceRequestID *uuid.UUID
	Amount           decimal.Decimal
	CommissionAmount decimal.Decimal
	NetAmount        decimal.Decimal
	PaymentMethod    PaymentMethod
	Status           TransactionStatus
	Type             TransactionType
	Description      string
	CreatedAt        time.Time
}

// Validate ensures the transaction adheres to domain rules.
// CRITICAL: commission + net must equal the gross amount exactly.
func (t *Transaction) Validate() error {
	if t.CustomerID == uuid.Nil {
		return errors.New("transaction must have a customer")
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("transaction amount must be positive")
	}

	if t.CommissionAmount.LessThan(decimal.Zero) || t.NetAmount.LessThan(decimal.Zero) {
		return errors.New("commission and net amounts cannot be negative")
	}

	if !t.CommissionAmount.Add(t.NetAmount).Equal(t.Amount) {
		return errors.New("commission plus net must equal the gross amount")
	}

	return nil
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Status     TransactionStatus
	CustomerID *uuid.UUID
	SupplierID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// TransactionStats is the aggregate view over the transaction ledger.
type TransactionStats struct {
	TotalTransactions     int
	CompletedTransactions int
	PendingTransactions   int
	FailedTransactions    int
	TotalRevenue          decimal.Decimal
	TotalCommission       decimal.Decimal
}
