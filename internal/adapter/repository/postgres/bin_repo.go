package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
)

// binRepository implements domain.BinRepository
type binRepository struct {
	db *DB
}

// NewBinRepository creates a new physical bin repository
func NewBinRepository(db *DB) domain.BinRepository {
	return &binRepository{db: db}
}

const binColumns = `
	b.id, b.bin_code, b.bin_type_id, b.bin_size_id, b.supplier_id, b.status,
	b.current_customer_id, b.current_request_id, b.notes, b.created_at, b.updated_at,
	bt.name, bs.size
`

const binJoins = `
	FROM physical_bins b
	JOIN bin_types bt ON bt.id = b.bin_type_id
	JOIN bin_sizes bs ON bs.id = b.bin_size_id
`

// Create inserts a new bin
func (r *binRepository) Create(ctx context.Context, bin *domain.PhysicalBin) error {
	query := `
		INSERT INTO physical_bins (id, bin_code, bin_type_id, bin_size_id, supplier_id, status,
			current_customer_id, current_request_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		bin.ID,
		bin.BinCode,
		bin.BinTypeID,
		bin.BinSizeID,
		nullableUUID(bin.SupplierID),
		string(bin.Status),
		nullableUUID(bin.CurrentCustomerID),
		nullableUUID(bin.CurrentRequestID),
		bin.Notes,
		bin.CreatedAt,
		bin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bin: %w", err)
	}

	return nil
}

// GetByID retrieves a bin by its ID
func (r *binRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PhysicalBin, error) {
	query := `SELECT ` + binColumns + binJoins + `WHERE b.id = $1`

	bin, err := scanBin(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bin %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bin by ID: %w", err)
	}
	return bin, nil
}

// GetByCode retrieves a bin by its human-readable bin code
func (r *binRepository) GetByCode(ctx context.Context, code string) (*domain.PhysicalBin, error) {
	query := `SELECT ` + binColumns + binJoins + `WHERE b.bin_code = $1`

	bin, err := scanBin(r.db.conn(ctx).QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bin code %s: %w", code, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bin by code: %w", err)
	}
	return bin, nil
}

// List retrieves bins matching the filter, newest first
func (r *binRepository) List(ctx context.Context, filter domain.BinFilter) ([]*domain.PhysicalBin, error) {
	query := `SELECT ` + binColumns + binJoins + `WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.SupplierID != nil {
		query += fmt.Sprintf(" AND b.supplier_id = $%d", argNum)
		args = append(args, *filter.SupplierID)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND b.status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if filter.BinCode != "" {
		query += fmt.Sprintf(" AND b.bin_code ILIKE $%d", argNum)
		args = append(args, "%"+filter.BinCode+"%")
		argNum++
	}
	if filter.BinTypeID != nil {
		query += fmt.Sprintf(" AND b.bin_type_id = $%d", argNum)
		args = append(args, *filter.BinTypeID)
		argNum++
	}
	if filter.BinSizeID != nil {
		query += fmt.Sprintf(" AND b.bin_size_id = $%d", argNum)
		args = append(args, *filter.BinSizeID)
		argNum++
	}

	query += " ORDER BY b.created_at DESC"

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	defer rows.Close()

	var bins []*domain.PhysicalBin
	for rows.Next() {
		bin, err := scanBin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, bin)
	}
	return bins, rows.Err()
}

// Update persists the bin's mutable fields
func (r *binRepository) Update(ctx context.Context, bin *domain.PhysicalBin) error {
	query := `
		UPDATE physical_bins
		SET supplier_id = $2, status = $3, current_customer_id = $4,
			current_request_id = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		bin.ID,
		nullableUUID(bin.SupplierID),
		string(bin.Status),
		nullableUUID(bin.CurrentCustomerID),
		nullableUUID(bin.CurrentRequestID),
		bin.Notes,
		bin.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bin: %w", err)
	}
	return requireRow(result, fmt.Sprintf("bin %s", bin.ID))
}

// Delete removes a bin
func (r *binRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.conn(ctx).ExecContext(ctx, `DELETE FROM physical_bins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bin: %w", err)
	}
	return requireRow(result, fmt.Sprintf("bin %s", id))
}

// CodeExists reports whether a bin code is already taken
func (r *binRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM physical_bins WHERE bin_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bin code: %w", err)
	}
	return exists, nil
}

// CountAvailableBySupplier counts available bins of a given type and size per supplier
func (r *binRepository) CountAvailableBySupplier(ctx context.Context, binTypeID, binSizeID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT supplier_id, COUNT(*)
		FROM physical_bins
		WHERE bin_type_id = $1 AND bin_size_id = $2
			AND status = $3 AND supplier_id IS NOT NULL
		GROUP BY supplier_id
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, binTypeID, binSizeID, string(domain.BinStatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("failed to count available bins: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var supplierID uuid.UUID
		var count int
		if err := rows.Scan(&supplierID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan bin count: %w", err)
		}
		counts[supplierID] = count
	}
	return counts, rows.Err()
}

// Claim conditionally assigns an available bin. The status guard in the WHERE
// clause makes the claim atomic: a bin taken by a concurrent writer simply
// matches zero rows.
func (r *binRepository) Claim(ctx context.Context, binID, customerID, requestID uuid.UUID, status domain.BinStatus) (bool, error) {
	query := `
		UPDATE physical_bins
		SET status = $2, current_customer_id = $3, current_request_id = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		binID,
		string(status),
		customerID,
		requestID,
		string(domain.BinStatusAvailable),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim bin: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return affected == 1, nil
}

// SetStatusForRequest moves every bin claimed by the request to status
func (r *binRepository) SetStatusForRequest(ctx context.Context, requestID uuid.UUID, status domain.BinStatus) error {
	query := `
		UPDATE physical_bins
		SET status = $2, updated_at = NOW()
		WHERE current_request_id = $1
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, requestID, string(status))
	if err != nil {
		return fmt.Errorf("failed to set bin status for request: %w", err)
	}
	return nil
}

// ReleaseForRequest frees every bin claimed by the request
func (r *binRepository) ReleaseForRequest(ctx context.Context, requestID uuid.UUID) error {
	query := `
		UPDATE physical_bins
		SET status = $2, current_customer_id = NULL, current_request_id = NULL, updated_at = NOW()
		WHERE current_request_id = $1
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, requestID, string(domain.BinStatusAvailable))
	if err != nil {
		return fmt.Errorf("failed to release bins for request: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBin(row rowScanner) (*domain.PhysicalBin, error) {
	var bin domain.PhysicalBin
	var supplierID, customerID, requestID sql.NullString

	err := row.Scan(
		&bin.ID,
		&bin.BinCode,
		&bin.BinTypeID,
		&bin.BinSizeID,
		&supplierID,
		&bin.Status,
		&customerID,
		&requestID,
		&bin.Notes,
		&bin.CreatedAt,
		&bin.UpdatedAt,
		&bin.BinTypeName,
		&bin.BinSize,
	)
	if err != nil {
		return nil, err
	}

	if bin.SupplierID, err = parseNullUUID(supplierID); err != nil {
		return nil, fmt.Errorf("failed to parse supplier_id: %w", err)
	}
	if bin.CurrentCustomerID, err = parseNullUUID(customerID); err != nil {
		return nil, fmt.Errorf("failed to parse current_customer_id: %w", err)
	}
	if bin.CurrentRequestID, err = parseNullUUID(requestID); err != nil {
		return nil, fmt.Errorf("failed to parse current_request_id: %w", err)
	}

	return &bin, nil
}

func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func parseNullUUID(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid {
		return nil, nil
	}
	parsed, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(result sql.Result, subject string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", subject, domain.ErrNotFound)
	}
	return nil
}
