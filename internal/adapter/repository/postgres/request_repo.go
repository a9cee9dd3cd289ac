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

// requestRepository implements domain.RequestRepository
type requestRepository struct {
	db *DB
}

// NewRequestRepository creates a new service request repository
func NewRequestRepository(db *DB) domain.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `
	id, request_id, customer_id, supplier_id, location, start_date, end_date,
	payment_method, payment_status, status, agreed_price, contact_number,
	contact_email, instructions, bill_id, created_at, updated_at
`

// Create inserts a new service request
func (r *requestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		req.ID,
		req.RequestID,
		req.CustomerID,
		nullableUUID(req.SupplierID),
		req.Location,
		req.StartDate,
		req.EndDate,
		string(req.PaymentMethod),
		string(req.PaymentStatus),
		string(req.Status),
		nullableDecimal(req.AgreedPrice),
		req.ContactNumber,
		req.ContactEmail,
		req.Instructions,
		nullableUUID(req.BillID),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

// GetByID retrieves a service request by its database ID
func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`

	req, err := scanRequest(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return req, nil
}

// GetByRequestID retrieves a service request by its business reference
func (r *requestRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE request_id = $1`

	req, err := scanRequest(r.db.conn(ctx).QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service request %s: %w", requestID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return req, nil
}

// ListByCustomer lists a customer's requests, newest first
func (r *requestRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	filter.CustomerID = &customerID
	return r.List(ctx, filter)
}

// ListBySupplier lists the requests assigned to a supplier, newest first
func (r *requestRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	filter.SupplierID = &supplierID
	return r.List(ctx, filter)
}

// ListPendingOpen lists pending requests with no assigned supplier
func (r *requestRepository) ListPendingOpen(ctx context.Context) ([]*domain.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status = $1 AND supplier_id IS NULL
		ORDER BY created_at DESC
	`

	return r.queryRequests(ctx, query, string(domain.RequestStatusPending))
}

// List retrieves requests matching the filter, newest first
func (r *requestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]*domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE 1=1`
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

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	return r.queryRequests(ctx, query, args...)
}

// Update persists the request's mutable fields
func (r *requestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	query := `
		UPDATE service_requests
		SET supplier_id = $2, payment_status = $3, status = $4, agreed_price = $5,
			contact_number = $6, contact_email = $7, instructions = $8,
			bill_id = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		req.ID,
		nullableUUID(req.SupplierID),
		string(req.PaymentStatus),
		string(req.Status),
		nullableDecimal(req.AgreedPrice),
		req.ContactNumber,
		req.ContactEmail,
		req.Instructions,
		nullableUUID(req.BillID),
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	return requireRow(result, fmt.Sprintf("service request %s", req.ID))
}

func (r *requestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*domain.ServiceRequest, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list service requests: %w", err)
	}
	defer rows.Close()

	var reqs []*domain.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanRequest(row rowScanner) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	var supplierID, billID sql.NullString
	var agreedPrice sql.NullString

	err := row.Scan(
		&req.ID,
		&req.RequestID,
		&req.CustomerID,
		&supplierID,
		&req.Location,
		&req.StartDate,
		&req.EndDate,
		&req.PaymentMethod,
		&req.PaymentStatus,
		&req.Status,
		&agreedPrice,
		&req.ContactNumber,
		&req.ContactEmail,
		&req.Instructions,
		&billID,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if req.SupplierID, err = parseNullUUID(supplierID); err != nil {
		return nil, fmt.Errorf("failed to parse supplier_id: %w", err)
	}
	if req.BillID, err = parseNullUUID(billID); err != nil {
		return nil, fmt.Errorf("failed to parse bill_id: %w", err)
	}
	if agreedPrice.Valid {
		price, err := decimal.NewFromString(agreedPrice.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse agreed_price: %w", err)
		}
		req.AgreedPrice = &price
	}

	return &req, nil
}

func nullableDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
