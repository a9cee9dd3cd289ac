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

// billRepository implements domain.BillRepository
type billRepository struct {
	db *DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *DB) domain.BillRepository {
	return &billRepository{db: db}
}

const billColumns = `
	id, bill_id, service_request_id, customer_id, supplier_id, total_amount,
	payment_method, payment_status, paid_at, created_at, updated_at
`

// Create inserts a new bill
func (r *billRepository) Create(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (` + billColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		bill.ID,
		bill.BillID,
		bill.ServiceRequestID,
		bill.CustomerID,
		bill.SupplierID,
		bill.TotalAmount.String(),
		string(bill.PaymentMethod),
		string(bill.PaymentStatus),
		bill.PaidAt,
		bill.CreatedAt,
		bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// GetByID retrieves a bill by its ID
func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`

	bill, err := scanBill(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// GetByRequestID retrieves the bill of a service request
func (r *billRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE service_request_id = $1`

	bill, err := scanBill(r.db.conn(ctx).QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bill for request %s: %w", requestID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// Update persists payment status and paid timestamp
func (r *billRepository) Update(ctx context.Context, bill *domain.Bill) error {
	query := `
		UPDATE bills
		SET payment_status = $2, paid_at = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		bill.ID,
		string(bill.PaymentStatus),
		bill.PaidAt,
		bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return requireRow(result, fmt.Sprintf("bill %s", bill.ID))
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	var bill domain.Bill
	var totalStr string
	var paidAt sql.NullTime

	err := row.Scan(
		&bill.ID,
		&bill.BillID,
		&bill.ServiceRequestID,
		&bill.CustomerID,
		&bill.SupplierID,
		&totalStr,
		&bill.PaymentMethod,
		&bill.PaymentStatus,
		&paidAt,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bill.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse bill total: %w", err)
	}
	if paidAt.Valid {
		bill.PaidAt = &paidAt.Time
	}
	return &bill, nil
}

// invoiceRepository implements domain.InvoiceRepository
type invoiceRepository struct {
	db *DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *DB) domain.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `
	id, invoice_id, payout_id, service_request_id, supplier_id, total_amount,
	payment_method, payment_status, paid_at, created_at, updated_at
`

// Create inserts a new invoice
func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		invoice.ID,
		invoice.InvoiceID,
		nullableUUID(invoice.PayoutID),
		nullableUUID(invoice.ServiceRequestID),
		invoice.SupplierID,
		invoice.TotalAmount.String(),
		invoice.PaymentMethod,
		string(invoice.PaymentStatus),
		invoice.PaidAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by its ID
func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`

	var invoice domain.Invoice
	var payoutID, requestID sql.NullString
	var totalStr string
	var paidAt sql.NullTime

	err := r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&invoice.ID,
		&invoice.InvoiceID,
		&payoutID,
		&requestID,
		&invoice.SupplierID,
		&totalStr,
		&invoice.PaymentMethod,
		&invoice.PaymentStatus,
		&paidAt,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.PayoutID, err = parseNullUUID(payoutID); err != nil {
		return nil, fmt.Errorf("failed to parse payout_id: %w", err)
	}
	if invoice.ServiceRequestID, err = parseNullUUID(requestID); err != nil {
		return nil, fmt.Errorf("failed to parse service_request_id: %w", err)
	}
	if invoice.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return nil, fmt.Errorf("failed to parse invoice total: %w", err)
	}
	if paidAt.Valid {
		invoice.PaidAt = &paidAt.Time
	}
	return &invoice, nil
}

// MarkPaidByPayout marks the invoice linked to the payout as paid
func (r *invoiceRepository) MarkPaidByPayout(ctx context.Context, payoutID uuid.UUID) error {
	query := `
		UPDATE invoices
		SET payment_status = $2, paid_at = NOW(), updated_at = NOW()
		WHERE payout_id = $1
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, payoutID, string(domain.BillStatusPaid))
	if err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return requireRow(result, fmt.Sprintf("invoice for payout %s", payoutID))
}
