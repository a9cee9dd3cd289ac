package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binrental/binrental-backend/internal/domain"
)

// walletRepository implements domain.WalletRepository
type walletRepository struct {
	db *DB
}

// NewWalletRepository creates a new supplier wallet repository
func NewWalletRepository(db *DB) domain.WalletRepository {
	return &walletRepository{db: db}
}

const walletColumns = `
	id, supplier_id, balance, pending_balance, total_earned, created_at, updated_at
`

// GetOrCreate returns the supplier's wallet, creating a zeroed one if absent
func (r *walletRepository) GetOrCreate(ctx context.Context, supplierID uuid.UUID) (*domain.SupplierWallet, error) {
	conn := r.db.conn(ctx)

	wallet, err := scanWallet(conn.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM supplier_wallets WHERE supplier_id = $1`, supplierID))
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	now := time.Now()
	wallet = &domain.SupplierWallet{
		ID:             uuid.New(),
		SupplierID:     supplierID,
		Balance:        decimal.Zero,
		PendingBalance: decimal.Zero,
		TotalEarned:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// ON CONFLICT covers the race where two settlements create the wallet at
	// the same time; the loser re-reads the winner's row.
	query := `
		INSERT INTO supplier_wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (supplier_id) DO NOTHING
	`
	result, err := conn.ExecContext(ctx, query,
		wallet.ID,
		wallet.SupplierID,
		wallet.Balance.String(),
		wallet.PendingBalance.String(),
		wallet.TotalEarned.String(),
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 1 {
		return wallet, nil
	}

	wallet, err = scanWallet(conn.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM supplier_wallets WHERE supplier_id = $1`, supplierID))
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet after create: %w", err)
	}
	return wallet, nil
}

// GetByID retrieves a wallet by its ID
func (r *walletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierWallet, error) {
	wallet, err := scanWallet(r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM supplier_wallets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wallet %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// Credit adds amount to balance and lifetime earned
func (r *walletRepository) Credit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE supplier_wallets
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, walletID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return requireRow(result, fmt.Sprintf("wallet %s", walletID))
}

// Debit subtracts amount from balance
func (r *walletRepository) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE supplier_wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, walletID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	return requireRow(result, fmt.Sprintf("wallet %s", walletID))
}

// Hold moves amount from balance to pending balance. The balance guard in the
// WHERE clause makes the check-and-move atomic.
func (r *walletRepository) Hold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE supplier_wallets
		SET balance = balance - $2, pending_balance = pending_balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, walletID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to hold wallet funds: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read hold result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("wallet %s cannot hold %s: %w", walletID, amount, domain.ErrInsufficientFunds)
	}
	return nil
}

// ConfirmHold removes amount from pending balance; the funds leave the wallet
func (r *walletRepository) ConfirmHold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE supplier_wallets
		SET pending_balance = pending_balance - $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, walletID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to confirm wallet hold: %w", err)
	}
	return requireRow(result, fmt.Sprintf("wallet %s", walletID))
}

// ReleaseHold returns amount from pending balance to the available balance
func (r *walletRepository) ReleaseHold(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE supplier_wallets
		SET balance = balance + $2, pending_balance = pending_balance - $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, walletID, amount.String())
	if err != nil {
		return fmt.Errorf("failed to release wallet hold: %w", err)
	}
	return requireRow(result, fmt.Sprintf("wallet %s", walletID))
}

// ListAll retrieves every wallet
func (r *walletRepository) ListAll(ctx context.Context) ([]*domain.SupplierWallet, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx,
		`SELECT `+walletColumns+` FROM supplier_wallets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.SupplierWallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, wallet)
	}
	return wallets, rows.Err()
}

// AddEntry appends a line to the wallet's transaction log
func (r *walletRepository) AddEntry(ctx context.Context, entry *domain.WalletEntry) error {
	query := `
		INSERT INTO wallet_entries (id, wallet_id, transaction_id, service_request_id,
			amount, direction, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.WalletID,
		nullableUUID(entry.TransactionID),
		nullableUUID(entry.ServiceRequestID),
		entry.Amount.String(),
		string(entry.Direction),
		entry.Description,
		string(entry.Status),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add wallet entry: %w", err)
	}
	return nil
}

// ListEntries retrieves the wallet's most recent entries
func (r *walletRepository) ListEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]*domain.WalletEntry, error) {
	query := `
		SELECT id, wallet_id, transaction_id, service_request_id, amount,
			direction, description, status, created_at
		FROM wallet_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WalletEntry
	for rows.Next() {
		var entry domain.WalletEntry
		var txID, reqID sql.NullString
		var amountStr string

		err := rows.Scan(
			&entry.ID,
			&entry.WalletID,
			&txID,
			&reqID,
			&amountStr,
			&entry.Direction,
			&entry.Description,
			&entry.Status,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet entry: %w", err)
		}

		if entry.TransactionID, err = parseNullUUID(txID); err != nil {
			return nil, fmt.Errorf("failed to parse transaction_id: %w", err)
		}
		if entry.ServiceRequestID, err = parseNullUUID(reqID); err != nil {
			return nil, fmt.Errorf("failed to parse service_request_id: %w", err)
		}
		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse entry amount: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func scanWallet(row rowScanner) (*domain.SupplierWallet, error) {
	var wallet domain.SupplierWallet
	var balanceStr, pendingStr, earnedStr string

	err := row.Scan(
		&wallet.ID,
		&wallet.SupplierID,
		&balanceStr,
		&pendingStr,
		&earnedStr,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if wallet.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	if wallet.PendingBalance, err = decimal.NewFromString(pendingStr); err != nil {
		return nil, fmt.Errorf("failed to parse pending_balance: %w", err)
	}
	if wallet.TotalEarned, err = decimal.NewFromString(earnedStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_earned: %w", err)
	}
	return &wallet, nil
}
