package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Atomic runs fn inside one storage transaction: every repository call made
// with the supplied context commits or rolls back together.
type Atomic interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BinRepository defines persistence for physical bin units.
type BinRepository interface {
	Create(ctx context.Context, bin *PhysicalBin) error

	GetByID(ctx context.Context, id uuid.UUID) (*PhysicalBin, error)

	GetByCode(ctx context.Context, code string) (*PhysicalBin, error)

	List(ctx context.Context, filter BinFilter) ([]*PhysicalBin, error)

	// Update persists the bin's mutable fields (owner, status, occupant, notes).
	Update(ctx context.Context, bin *PhysicalBin) error

	Delete(ctx context.Context, id uuid.UUID) error

	CodeExists(ctx context.Context, code string) (bool, error)

	// CountAvailableBySupplier returns, per supplier, the number of available
	// bins of the given type and size. Used for matching.
	CountAvailableBySupplier(ctx context.Context, binTypeID, binSizeID uuid.UUID) (map[uuid.UUID]int, error)

	// Claim conditionally assigns an available bin to a customer and request,
	// moving it to the given status. Returns false without error when the bin
	// was not available anymore (lost race or already claimed).
	Claim(ctx context.Context, binID, customerID, requestID uuid.UUID, status BinStatus) (bool, error)

	// SetStatusForRequest moves every bin claimed by the request to status.
	SetStatusForRequest(ctx context.Context, requestID uuid.UUID, status BinStatus) error

	// ReleaseForRequest frees every bin claimed by the request: status back to
	// available, occupant fields cleared.
	ReleaseForRequest(ctx context.Context, requestID uuid.UUID) error
}

// OrderItemRepository defines persistence for order items.
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []*OrderItem) error

	GetByID(ctx context.Context, id uuid.UUID) (*OrderItem, error)

	// ListByRequest returns the request's items with denormalized bin type,
	// size, and bin code display fields.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*OrderItem, error)

	// AssignBin sets the item's physical bin reference.
	AssignBin(ctx context.Context, itemID, binID uuid.UUID) error

	// ActiveItemExistsForBin reports whether any non-completed item (in any
	// request) references the bin.
	ActiveItemExistsForBin(ctx context.Context, binID uuid.UUID) (bool, error)

	// SetStatusByRequest updates the status of all items of the request.
	SetStatusByRequest(ctx context.Context, requestID uuid.UUID, status ItemStatus) error

	// ResetByRequest returns all items of the request to pending and clears
	// their bin references. Used on cancellation.
	ResetByRequest(ctx context.Context, requestID uuid.UUID) error
}

// RequestRepository defines persistence for service requests.
type RequestRepository interface {
	Create(ctx context.Context, req *ServiceRequest) error

	GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)

	GetByRequestID(ctx context.Context, requestID string) (*ServiceRequest, error)

	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter RequestFilter) ([]*ServiceRequest, error)

	ListBySupplier(ctx context.Context, supplierID uuid.UUID, filter RequestFilter) ([]*ServiceRequest, error)

	// ListPendingOpen returns pending requests not yet assigned to a supplier.
	ListPendingOpen(ctx context.Context) ([]*ServiceRequest, error)

	List(ctx context.Context, filter RequestFilter) ([]*ServiceRequest, error)

	// Update persists the request's mutable fields (supplier, status, payment
	// status, agreed price, bill reference, contact fields).
	Update(ctx context.Context, req *ServiceRequest) error
}

// QuoteRepository defines persistence for supplier quotes.
type QuoteRepository interface {
	Create(ctx context.Context, quote *Quote) error

	GetByID(ctx context.Context, id uuid.UUID) (*Quote, error)

	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Quote, error)

	SetStatus(ctx context.Context, id uuid.UUID, status QuoteStatus) error
}

// WalletRepository defines persistence for supplier wallets and their entry log.
type WalletRepository interface {
	// GetOrCreate returns the supplier's wallet, creating a zeroed one if absent.
	GetOrCreate(ctx context.Context, supplierID uuid.UUID) (*SupplierWallet, error)

	GetByID(ctx context.Context, id uuid.UUID) (*SupplierWallet, error)

	// Credit adds amount to balance and lifetime earned.
	Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error

	// Debit subtracts amount from balance.
	Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error

	// Hold moves amount from balance to pending balance for payout review.
	// Returns ErrInsufficientFunds (unwrapped check via errors.Is) when the
	// balance does not cover the amount; no mutation in that case.
	Hold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error

	// ConfirmHold removes amount from pending balance (funds leave the wallet).
	ConfirmHold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error

	// ReleaseHold returns amount from pending balance to the available balance.
	ReleaseHold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error

	ListAll(ctx context.Context) ([]*SupplierWallet, error)

	AddEntry(ctx context.Context, entry *WalletEntry) error

	ListEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]*WalletEntry, error)
}

// TransactionRepository defines persistence for the transaction ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error

	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)

	Stats(ctx context.Context) (*TransactionStats, error)
}

// PayoutRepository defines persistence for payout requests.
type PayoutRepository interface {
	Create(ctx context.Context, payout *Payout) error

	GetByID(ctx context.Context, id uuid.UUID) (*Payout, error)

	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*Payout, error)

	List(ctx context.Context, filter PayoutFilter) ([]*Payout, error)

	// Update persists the payout's status, admin notes, and processed timestamp.
	Update(ctx context.Context, payout *Payout) error
}

// BillRepository defines persistence for customer bills.
type BillRepository interface {
	Create(ctx context.Context, bill *Bill) error

	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*Bill, error)

	// Update persists payment status and paid timestamp.
	Update(ctx context.Context, bill *Bill) error
}

// InvoiceRepository defines persistence for settlement invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error

	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// MarkPaidByPayout marks the invoice linked to the payout as paid.
	MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID) error
}

// SettingRepository reads and writes the key-value settings store.
type SettingRepository interface {
	// Get returns the raw value for key, or ErrNotFound when unset.
	Get(ctx context.Context, key string) (string, error)
	// Set upserts the value for key.
	Set(ctx context.Context, key, value string) error
}
