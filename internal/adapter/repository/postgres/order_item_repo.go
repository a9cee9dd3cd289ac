package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
)

// orderItemRepository implements domain.OrderItemRepository
type orderItemRepository struct {
	db *DB
}

// NewOrderItemRepository creates a new order item repository
func NewOrderItemRepository(db *DB) domain.OrderItemRepository {
	return &orderItemRepository{db: db}
}

const orderItemColumns = `
	i.id, i.service_request_id, i.bin_type_id, i.bin_size_id, i.physical_bin_id,
	i.status, i.created_at, i.updated_at,
	bt.name, bs.size, COALESCE(b.bin_code, '')
`

const orderItemJoins = `
	FROM order_items i
	JOIN bin_types bt ON bt.id = i.bin_type_id
	JOIN bin_sizes bs ON bs.id = i.bin_size_id
	LEFT JOIN physical_bins b ON b.id = i.physical_bin_id
`

// CreateBatch inserts all items of a request
func (r *orderItemRepository) CreateBatch(ctx context.Context, items []*domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, service_request_id, bin_type_id, bin_size_id,
			physical_bin_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	conn := r.db.conn(ctx)
	for _, item := range items {
		_, err := conn.ExecContext(ctx, query,
			item.ID,
			item.ServiceRequestID,
			item.BinTypeID,
			item.BinSizeID,
			nullableUUID(item.PhysicalBinID),
			string(item.Status),
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an order item by its ID
func (r *orderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + orderItemJoins + `WHERE i.id = $1`

	item, err := scanOrderItem(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return item, nil
}

// ListByRequest retrieves the request's items in creation order
func (r *orderItemRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + orderItemJoins + `WHERE i.service_request_id = $1 ORDER BY i.created_at, i.id`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AssignBin sets the item's physical bin reference
func (r *orderItemRepository) AssignBin(ctx context.Context, itemID, binID uuid.UUID) error {
	query := `
		UPDATE order_items
		SET physical_bin_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, itemID, binID)
	if err != nil {
		return fmt.Errorf("failed to assign bin to order item: %w", err)
	}
	return requireRow(result, fmt.Sprintf("order item %s", itemID))
}

// ActiveItemExistsForBin reports whether any non-completed item references the bin
func (r *orderItemRepository) ActiveItemExistsForBin(ctx context.Context, binID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM order_items
			WHERE physical_bin_id = $1 AND status != $2
		)
	`

	var exists bool
	err := r.db.conn(ctx).QueryRowContext(ctx, query, binID, string(domain.ItemStatusCompleted)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active items for bin: %w", err)
	}
	return exists, nil
}

// SetStatusByRequest updates the status of all items of the request
func (r *orderItemRepository) SetStatusByRequest(ctx context.Context, requestID uuid.UUID, status domain.ItemStatus) error {
	query := `
		UPDATE order_items
		SET status = $2, updated_at = NOW()
		WHERE service_request_id = $1
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, requestID, string(status))
	if err != nil {
		return fmt.Errorf("failed to set item status for request: %w", err)
	}
	return nil
}

// ResetByRequest returns the request's items to pending with no bin reference
func (r *orderItemRepository) ResetByRequest(ctx context.Context, requestID uuid.UUID) error {
	query := `
		UPDATE order_items
		SET status = $2, physical_bin_id = NULL, updated_at = NOW()
		WHERE service_request_id = $1
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query, requestID, string(domain.ItemStatusPending))
	if err != nil {
		return fmt.Errorf("failed to reset items for request: %w", err)
	}
	return nil
}

func scanOrderItem(row rowScanner) (*domain.OrderItem, error) {
	var item domain.OrderItem
	var binID sql.NullString

	err := row.Scan(
		&item.ID,
		&item.ServiceRequestID,
		&item.BinTypeID,
		&item.BinSizeID,
		&binID,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.BinTypeName,
		&item.BinSize,
		&item.BinCode,
	)
	if err != nil {
		return nil, err
	}

	if item.PhysicalBinID, err = parseNullUUID(binID); err != nil {
		return nil, fmt.Errorf("failed to parse physical_bin_id: %w", err)
	}
	return &item, nil
}
