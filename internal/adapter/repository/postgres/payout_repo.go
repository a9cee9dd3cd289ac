package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binrental/binrental-backend/internal/domain"
)

// payoutRepository implements domain.PayoutRepository
type payoutRepository struct {
	db *DB
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *DB) domain.PayoutRepository {
	return &payoutRepository{db: db}
}

const payoutColumns = `
	id, payout_id, supplier_id, wallet_id, amount, status, payment_method,
	bank_details, admin_notes, processed_at, created_at, updated_at
`

// Create inserts a new payout request
func (r *payoutRepository) Create(ctx context.Context, payout *domain.Payout) error {
	query := `
		INSERT INTO payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		payout.ID,
		payout.PayoutID,
		payout.SupplierID,
		payout.WalletID,
		payout.Amount.String(),
		string(payout.Status),
		payout.PaymentMethod,
		payout.BankDetails,
		payout.AdminNotes,
		payout.ProcessedAt,
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

// GetByID retrieves a payout by its ID
func (r *payoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payout %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	return payout, nil
}

// ListBySupplier retrieves a supplier's payouts, newest first
func (r *payoutRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE supplier_id = $1 ORDER BY created_at DESC`
	return r.queryPayouts(ctx, query, supplierID)
}

// List retrieves payouts matching the filter, newest first
func (r *payoutRepository) List(ctx context.Context, filter domain.PayoutFilter) ([]*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	return r.queryPayouts(ctx, query, args...)
}

// Update persists the payout's status, admin notes, and processed timestamp
func (r *payoutRepository) Update(ctx context.Context, payout *domain.Payout) error {
	query := `
		UPDATE payouts
		SET status = $2, admin_notes = $3, processed_at = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		payout.ID,
		string(payout.Status),
		payout.AdminNotes,
		payout.ProcessedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	return requireRow(result, fmt.Sprintf("payout %s", payout.ID))
}

func (r *payoutRepository) queryPayouts(ctx context.Context, query string, args ...interface{}) ([]*domain.Payout, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}
	return payouts, rows.Err()
}

func scanPayout(row rowScanner) (*domain.Payout, error) {
	var payout domain.Payout
	var amountStr string
	var processedAt sql.NullTime

	err := row.Scan(
		&payout.ID,
		&payout.PayoutID,
		&payout.SupplierID,
		&payout.WalletID,
		&amountStr,
		&payout.Status,
		&payout.PaymentMethod,
		&payout.BankDetails,
		&payout.AdminNotes,
		&processedAt,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payout.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse payout amount: %w", err)
	}
	if processedAt.Valid {
		payout.ProcessedAt = &processedAt.Time
	}
	return &payout, nil
}
