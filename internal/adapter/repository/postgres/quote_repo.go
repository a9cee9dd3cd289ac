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

// quoteRepository implements domain.QuoteRepository
type quoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *DB) domain.QuoteRepository {
	return &quoteRepository{db: db}
}

const quoteColumns = `
	id, quote_id, service_request_id, supplier_id, total_price,
	additional_charges, notes, status, created_at, updated_at
`

// Create inserts a new quote
func (r *quoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		quote.ID,
		quote.QuoteID,
		quote.ServiceRequestID,
		quote.SupplierID,
		quote.TotalPrice.String(),
		quote.AdditionalCharges.String(),
		quote.Notes,
		string(quote.Status),
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by its ID
func (r *quoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	quote, err := scanQuote(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("quote %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

// ListByRequest retrieves all quotes for a request, newest first
func (r *quoteRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE service_request_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*domain.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// SetStatus updates a quote's status
func (r *quoteRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	query := `UPDATE quotes SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	return requireRow(result, fmt.Sprintf("quote %s", id))
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var quote domain.Quote
	var totalStr, chargesStr string

	err := row.Scan(
		&quote.ID,
		&quote.QuoteID,
		&quote.ServiceRequestID,
		&quote.SupplierID,
		&totalStr,
		&chargesStr,
		&quote.Notes,
		&quote.Status,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if quote.TotalPrice, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_price: %w", err)
	}
	if quote.AdditionalCharges, err = decimal.NewFromString(chargesStr); err != nil {
		return nil, fmt.Errorf("failed to parse additional_charges: %w", err)
	}
	return &quote, nil
}
