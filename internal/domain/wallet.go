package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierWallet holds a supplier's earnings. Balance is freely withdrawable;
// pending balance is held during payout review; total earned is lifetime credit.
// balance + pending_balance changes only through credit, debit, and the payout
// hold/confirm/release operations.
type SupplierWallet struct {
	ID             uuid.UUID
	SupplierID     uuid.UUID
	Balance        decimal.Decimal
	PendingBalance decimal.Decimal
	TotalEarned    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntryDirection is the sign of a wallet entry.
type EntryDirection string

const (
	EntryCredit EntryDirection = "credit"
	EntryDebit  EntryDirection = "debit"
)

// EntryStatus tracks whether a wallet entry's effect is final.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
)

// WalletEntry is one line of the wallet's transaction log. Every balance
// mutation commits together with its entry or not at all.
type WalletEntry struct {
	ID               uuid.UUID
	WalletID         uuid.UUID
	TransactionID    *uuid.UUID
	ServiceRequestID *uuid.UUID
	Amount           decimal.Decimal
	Direction        EntryDirection
	Description      string
	Status           EntryStatus
	CreatedAt        time.Time
}

// Validate ensures the wallet entry adheres to domain rules.
func (e *WalletEntry) Validate() error {
	if e.WalletID == uuid.Nil {
		return errors.New("wallet entry must belong to a wallet")
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("wallet entry amount must be positive")
	}

	if e.Direction != EntryCredit && e.Direction != EntryDebit {
		return errors.New("wallet entry direction must be credit or debit")
	}

	return nil
}

// PayoutStatus represents the review state of a withdrawal request.
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// Payout is a supplier's withdrawal request. While pending, the amount sits in
// the wallet's pending balance. Approval removes it from the wallet entirely;
// rejection returns it to the available balance.
type Payout struct {
	ID            uuid.UUID
	PayoutID      string // external-facing business reference
	SupplierID    uuid.UUID
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	Status        PayoutStatus
	PaymentMethod string
	BankDetails   string
	AdminNotes    string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate ensures the payout adheres to domain rules.
func (p *Payout) Validate() error {
	if p.SupplierID == uuid.Nil || p.WalletID == uuid.Nil {
		return errors.New("payout must reference a supplier and a wallet")
	}

	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("payout amount must be positive")
	}

	return nil
}

// PayoutFilter narrows payout listings.
type PayoutFilter struct {
	Status PayoutStatus
	Limit  int
}
