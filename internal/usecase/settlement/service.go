package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binrental/binrental-backend/internal/domain"
	"github.com/binrental/binrental-backend/internal/ids"
)

// CommissionSettingKey is the settings-store key holding the platform's
// commission percentage (e.g. "15" meaning 15%).
const CommissionSettingKey = "platform_commission_percentage"

// DefaultCommissionPercent applies when the setting is unset or unreadable.
const DefaultCommissionPercent = 15

var defaultCommissionPercent = decimal.NewFromInt(DefaultCommissionPercent)

var oneHundred = decimal.NewFromInt(100)

// SettlementService computes commission splits, records transactions, mutates
// supplier wallets, and runs the payout workflow. Every multi-step mutation is
// wrapped in one storage transaction via Atomic.
type SettlementService struct {
	Atomic          domain.Atomic
	WalletRepo      domain.WalletRepository
	TransactionRepo domain.TransactionRepository
	PayoutRepo      domain.PayoutRepository
	InvoiceRepo     domain.InvoiceRepository
	SettingRepo     domain.SettingRepository
}

// NewSettlementService creates a new SettlementService instance.
func NewSettlementService(
	atomic domain.Atomic,
	walletRepo domain.WalletRepository,
	transactionRepo domain.TransactionRepository,
	payoutRepo domain.PayoutRepository,
	invoiceRepo domain.InvoiceRepository,
	settingRepo domain.SettingRepository,
) *SettlementService {
	return &SettlementService{
		Atomic:          atomic,
		WalletRepo:      walletRepo,
		TransactionRepo: transactionRepo,
		PayoutRepo:      payoutRepo,
		InvoiceRepo:     invoiceRepo,
		SettingRepo:     settingRepo,
	}
}

// CommissionRate returns the platform's commission rate as a fraction
// (0.15 for 15%). Falls back to the default when the setting is missing or
// malformed.
func (s *SettlementService) CommissionRate(ctx context.Context) decimal.Decimal {
	percent := defaultCommissionPercent

	raw, err := s.SettingRepo.Get(ctx, CommissionSettingKey)
	if err == nil {
		parsed, perr := decimal.NewFromString(raw)
		if perr == nil && !parsed.IsNegative() {
			percent = parsed
		}
	}

	return percent.Div(oneHundred)
}

// SetCommissionRate updates the platform commission percentage. Admin only.
func (s *SettlementService) SetCommissionRate(ctx context.Context, actor domain.Actor, percent decimal.Decimal) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	if percent.IsNegative() || percent.GreaterThan(oneHundred) {
		return domain.NewValidationError("commission percentage must be between 0 and 100")
	}
	return s.SettingRepo.Set(ctx, CommissionSettingKey, percent.String())
}

// Split divides a gross total into the platform's commission and the
// supplier's net share. Guarantee: commission + net == total exactly; the
// commission is rounded to two currency-minor digits and the net absorbs the
// remainder.
func Split(total, rate decimal.Decimal) (commission, net decimal.Decimal) {
	commission = total.Mul(rate).Round(2)
	net = total.Sub(commission)
	return commission, net
}

// SettleOnline settles an online-paid request at confirmation time: a
// completed transaction is recorded and the supplier's wallet is credited with
// the net amount. The ledger insert and the balance mutation commit together.
func (s *SettlementService) SettleOnline(ctx context.Context, req *domain.ServiceRequest, total decimal.Decimal) (*domain.Transaction, error) {
	if req.SupplierID == nil {
		return nil, domain.NewValidationError("cannot settle a request without an assigned supplier")
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("settlement total must be positive")
	}

	commission, net := Split(total, s.CommissionRate(ctx))

	tx := &domain.Transaction{
		ID:               uuid.New(),
		TransactionID:    ids.New(ids.PrefixTransaction),
		CustomerID:       req.CustomerID,
		SupplierID:       req.SupplierID,
		ServiceRequestID: &req.ID,
		Amount:           total,
		CommissionAmount: commission,
		NetAmount:        net,
		PaymentMethod:    domain.PaymentMethodOnline,
		Status:           domain.TransactionStatusCompleted,
		Type:             domain.TransactionTypePayment,
		Description:      fmt.Sprintf("Payment for %s", req.RequestID),
		CreatedAt:        time.Now(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	wallet, err := s.WalletRepo.GetOrCreate(ctx, *req.SupplierID)
	if err != nil {
		return nil, err
	}

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return err
		}

		entry := &domain.WalletEntry{
			ID:               uuid.New(),
			WalletID:         wallet.ID,
			TransactionID:    &tx.ID,
			ServiceRequestID: &req.ID,
			Amount:           net,
			Direction:        domain.EntryCredit,
			Description:      tx.Description,
			Status:           domain.EntryStatusCompleted,
			CreatedAt:        time.Now(),
		}
		if err := s.WalletRepo.AddEntry(ctx, entry); err != nil {
			return err
		}

		return s.WalletRepo.Credit(ctx, wallet.ID, net)
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// SettleCashOnDelivery settles a cash-paid request at delivery time. The
// supplier already holds the full cash amount, so the wallet is debited by the
// platform's commission instead of credited with the net.
func (s *SettlementService) SettleCashOnDelivery(ctx context.Context, req *domain.ServiceRequest) (*domain.Transaction, error) {
	if req.SupplierID == nil {
		return nil, domain.NewValidationError("cannot settle a request without an assigned supplier")
	}
	if req.AgreedPrice == nil || req.AgreedPrice.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("cannot settle a request without an agreed price")
	}

	total := *req.AgreedPrice
	commission, net := Split(total, s.CommissionRate(ctx))

	tx := &domain.Transaction{
		ID:               uuid.New(),
		TransactionID:    ids.New(ids.PrefixTransaction),
		CustomerID:       req.CustomerID,
		SupplierID:       req.SupplierID,
		ServiceRequestID: &req.ID,
		Amount:           total,
		CommissionAmount: commission,
		NetAmount:        net,
		PaymentMethod:    domain.PaymentMethodCash,
		Status:           domain.TransactionStatusCompleted,
		Type:             domain.TransactionTypePayment,
		Description:      fmt.Sprintf("Cash payment for %s, platform commission due", req.RequestID),
		CreatedAt:        time.Now(),
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	wallet, err := s.WalletRepo.GetOrCreate(ctx, *req.SupplierID)
	if err != nil {
		return nil, err
	}

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return err
		}

		entry := &domain.WalletEntry{
			ID:               uuid.New(),
			WalletID:         wallet.ID,
			TransactionID:    &tx.ID,
			ServiceRequestID: &req.ID,
			Amount:           commission,
			Direction:        domain.EntryDebit,
			Description:      fmt.Sprintf("Commission for cash payment on %s", req.RequestID),
			Status:           domain.EntryStatusCompleted,
			CreatedAt:        time.Now(),
		}
		if err := s.WalletRepo.AddEntry(ctx, entry); err != nil {
			return err
		}

		return s.WalletRepo.Debit(ctx, wallet.ID, commission)
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// RequestPayoutInput represents the input for a supplier's payout request.
type RequestPayoutInput struct {
	SupplierID    uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	BankDetails   string
}

// RequestPayout moves the amount from the supplier's available balance into
// pending review, creating the payout record and its unpaid invoice in the
// same transaction. An amount above the available balance fails with
// ErrInsufficientFunds and no mutation.
func (s *SettlementService) RequestPayout(ctx context.Context, input RequestPayoutInput) (*domain.Payout, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("payout amount must be positive")
	}

	wallet, err := s.WalletRepo.GetOrCreate(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(input.Amount) {
		return nil, fmt.Errorf("payout of %s exceeds balance %s: %w",
			input.Amount, wallet.Balance, domain.ErrInsufficientFunds)
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "bank_transfer"
	}

	payout := &domain.Payout{
		ID:            uuid.New(),
		PayoutID:      ids.New(ids.PrefixPayout),
		SupplierID:    input.SupplierID,
		WalletID:      wallet.ID,
		Amount:        input.Amount,
		Status:        domain.PayoutStatusPending,
		PaymentMethod: paymentMethod,
		BankDetails:   input.BankDetails,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := payout.Validate(); err != nil {
		return nil, err
	}

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		// Hold re-checks the balance with a guarded update; a concurrent
		// drain between the read above and here still fails cleanly.
		if err := s.WalletRepo.Hold(ctx, wallet.ID, input.Amount); err != nil {
			return err
		}

		if err := s.PayoutRepo.Create(ctx, payout); err != nil {
			return err
		}

		invoice := &domain.Invoice{
			ID:            uuid.New(),
			InvoiceID:     ids.New(ids.PrefixInvoice),
			PayoutID:      &payout.ID,
			SupplierID:    input.SupplierID,
			TotalAmount:   input.Amount,
			PaymentMethod: "payout",
			PaymentStatus: domain.BillStatusUnpaid,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		if err := s.InvoiceRepo.Create(ctx, invoice); err != nil {
			return err
		}

		entry := &domain.WalletEntry{
			ID:          uuid.New(),
			WalletID:    wallet.ID,
			Amount:      input.Amount,
			Direction:   domain.EntryDebit,
			Description: "Payout request",
			Status:      domain.EntryStatusPending,
			CreatedAt:   time.Now(),
		}
		return s.WalletRepo.AddEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

// ResolvePayout approves or rejects a pending payout. Admin only.
// Approval removes the amount from the pending balance (funds leave the wallet
// and are paid externally) and marks the linked invoice paid. Rejection
// returns the amount to the available balance.
func (s *SettlementService) ResolvePayout(ctx context.Context, actor domain.Actor, payoutID uuid.UUID, approve bool, adminNotes string) (*domain.Payout, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can resolve payouts: %w", domain.ErrForbidden)
	}

	payout, err := s.PayoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	if payout.Status != domain.PayoutStatusPending {
		return nil, fmt.Errorf("payout %s is already %s: %w", payout.PayoutID, payout.Status, domain.ErrInvalidState)
	}

	now := time.Now()
	payout.AdminNotes = adminNotes
	payout.UpdatedAt = now
	if approve {
		payout.Status = domain.PayoutStatusApproved
		payout.ProcessedAt = &now
	} else {
		payout.Status = domain.PayoutStatusRejected
	}

	err = s.Atomic.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.PayoutRepo.Update(ctx, payout); err != nil {
			return err
		}

		if approve {
			if err := s.WalletRepo.ConfirmHold(ctx, payout.WalletID, payout.Amount); err != nil {
				return err
			}
			return s.InvoiceRepo.MarkPaidByPayout(ctx, payout.ID)
		}
		return s.WalletRepo.ReleaseHold(ctx, payout.WalletID, payout.Amount)
	})
	if err != nil {
		return nil, err
	}

	return payout, nil
}

// GetWallet returns the supplier's wallet, creating a zeroed one on first use.
func (s *SettlementService) GetWallet(ctx context.Context, supplierID uuid.UUID) (*domain.SupplierWallet, error) {
	return s.WalletRepo.GetOrCreate(ctx, supplierID)
}

// ListWalletEntries returns the supplier's wallet transaction log.
func (s *SettlementService) ListWalletEntries(ctx context.Context, supplierID uuid.UUID, limit int) ([]*domain.WalletEntry, error) {
	wallet, err := s.WalletRepo.GetOrCreate(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.WalletRepo.ListEntries(ctx, wallet.ID, limit)
}

// ListPayouts returns the supplier's payout history.
func (s *SettlementService) ListPayouts(ctx context.Context, supplierID uuid.UUID) ([]*domain.Payout, error) {
	return s.PayoutRepo.ListBySupplier(ctx, supplierID)
}

// ListAllPayouts returns payouts across suppliers. Admin only.
func (s *SettlementService) ListAllPayouts(ctx context.Context, actor domain.Actor, filter domain.PayoutFilter) ([]*domain.Payout, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can list all payouts: %w", domain.ErrForbidden)
	}
	return s.PayoutRepo.List(ctx, filter)
}

// ListWallets returns every supplier wallet. Admin only.
func (s *SettlementService) ListWallets(ctx context.Context, actor domain.Actor) ([]*domain.SupplierWallet, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can list wallets: %w", domain.ErrForbidden)
	}
	return s.WalletRepo.ListAll(ctx)
}

// ListTransactions returns ledger records matching the filter.
func (s *SettlementService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	return s.TransactionRepo.List(ctx, filter)
}

// TransactionStats returns the aggregate ledger view. Admin only.
func (s *SettlementService) TransactionStats(ctx context.Context, actor domain.Actor) (*domain.TransactionStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can view transaction stats: %w", domain.ErrForbidden)
	}
	return s.TransactionRepo.Stats(ctx)
}
