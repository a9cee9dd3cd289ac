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

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction ledger repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, transaction_id, customer_id, supplier_id, service_request_id, amount,
	commission_amount, net_amount, payment_method, status, type, description, created_at
`

// Create appends a transaction to the ledger
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		tx.TransactionID,
		tx.CustomerID,
		nullableUUID(tx.SupplierID),
		nullableUUID(tx.ServiceRequestID),
		tx.Amount.String(),
		tx.CommissionAmount.String(),
		tx.NetAmount.String(),
		string(tx.PaymentMethod),
		string(tx.Status),
		string(tx.Type),
		tx.Description,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its database ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// GetByTransactionID retrieves a transaction by its business reference
func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// List retrieves transactions matching the filter, newest first
func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argNum)
		args = append(args, *filter.CustomerID)
		argNum++
	}
	if filter.SupplierID != nil {
		query += fmt.Sprintf(" AND supplier_id = $%d", argNum)
		args = append(args, *filter.SupplierID)
		argNum++
	}
	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}
	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
		argNum++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Stats aggregates the ledger: counts per status, total completed revenue,
// and total commission collected
func (r *transactionRepository) Stats(ctx context.Context) (*domain.TransactionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COALESCE(SUM(commission_amount) FILTER (WHERE status = 'completed'), 0)
		FROM transactions
	`

	var stats domain.TransactionStats
	var revenueStr, commissionStr string

	err := r.db.conn(ctx).QueryRowContext(ctx, query).Scan(
		&stats.TotalTransactions,
		&stats.CompletedTransactions,
		&stats.PendingTransactions,
		&stats.FailedTransactions,
		&revenueStr,
		&commissionStr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute transaction stats: %w", err)
	}

	if stats.TotalRevenue, err = decimal.NewFromString(revenueStr); err != nil {
		return nil, fmt.Errorf("failed to parse total revenue: %w", err)
	}
	if stats.TotalCommission, err = decimal.NewFromString(commissionStr); err != nil {
		return nil, fmt.Errorf("failed to parse total commission: %w", err)
	}
	return &stats, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var supplierID, requestID sql.NullString
	var amountStr, commissionStr, netStr string

	err := row.Scan(
		&tx.ID,
		&tx.TransactionID,
		&tx.CustomerID,
		&supplierID,
		&requestID,
		&amountStr,
		&commissionStr,
		&netStr,
		&tx.PaymentMethod,
		&tx.Status,
		&tx.Type,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if tx.SupplierID, err = parseNullUUID(supplierID); err != nil {
		return nil, fmt.Errorf("failed to parse supplier_id: %w", err)
	}
	if tx.ServiceRequestID, err = parseNullUUID(requestID); err != nil {
		return nil, fmt.Errorf("failed to parse service_request_id: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if tx.CommissionAmount, err = decimal.NewFromString(commissionStr); err != nil {
		return nil, fmt.Errorf("failed to parse commission_amount: %w", err)
	}
	if tx.NetAmount, err = decimal.NewFromString(netStr); err != nil {
		return nil, fmt.Errorf("failed to parse net_amount: %w", err)
	}
	return &tx, nil
}
