//go:build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binrental/binrental-backend/internal/adapter/repository/postgres"
	"github.com/binrental/binrental-backend/internal/domain"
)

var (
	db        *postgres.DB
	baseURL   string
	apiToken  string
	binTypeID uuid.UUID
	binSizeID uuid.UUID

	customer = domain.Actor{ID: uuid.New(), Role: domain.RoleCustomer}
	supplier = domain.Actor{ID: uuid.New(), Role: domain.RoleSupplier}
	admin    = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	ctx := context.Background()

	// 1. Connect to Database
	var err error
	db, err = postgres.NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()

	// 2. Resolve the running API server
	baseURL = getAPIBaseURL()
	apiToken = os.Getenv("API_TOKEN")
	if apiToken == "" {
		apiToken = "dev-token"
	}

	// 3. Self-Healing Setup: Create the bin type and size the tests rely on
	if err := setupCatalog(ctx); err != nil {
		panic(fmt.Sprintf("Failed to setup bin catalog: %v", err))
	}

	code := m.Run()

	os.Exit(code)
}

// setupCatalog ensures a known bin type and size exist, creating them if absent
func setupCatalog(ctx context.Context) error {
	err := db.QueryRowContext(ctx, `SELECT id FROM bin_types WHERE name = $1`, "general_waste").Scan(&binTypeID)
	if err == sql.ErrNoRows {
		binTypeID = uuid.New()
		if _, err := db.ExecContext(ctx, `INSERT INTO bin_types (id, name) VALUES ($1, $2)`, binTypeID, "general_waste"); err != nil {
			return fmt.Errorf("failed to create bin type: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check bin type: %w", err)
	}

	err = db.QueryRowContext(ctx, `SELECT id FROM bin_sizes WHERE size = $1`, "6_yard").Scan(&binSizeID)
	if err == sql.ErrNoRows {
		binSizeID = uuid.New()
		if _, err := db.ExecContext(ctx, `INSERT INTO bin_sizes (id, size) VALUES ($1, $2)`, binSizeID, "6_yard"); err != nil {
			return fmt.Errorf("failed to create bin size: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check bin size: %w", err)
	}

	return nil
}

// call sends an authenticated JSON request and decodes the response into out
// when out is non-nil. It returns the HTTP status code.
func call(t *testing.T, actor domain.Actor, method, path string, in, out interface{}) int {
	t.Helper()

	var body *bytes.Buffer
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", apiToken)
	req.Header.Set("X-Actor-ID", actor.ID.String())
	req.Header.Set("X-Actor-Role", string(actor.Role))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// registerBins creates count available bins owned by the test supplier and
// returns their codes.
func registerBins(t *testing.T, count int) []string {
	t.Helper()

	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		code := fmt.Sprintf("E2E-%s", uuid.NewString()[:8])
		var bin domain.PhysicalBin
		status := call(t, supplier, http.MethodPost, "/api/v1/bins", map[string]interface{}{
			"bin_code":    code,
			"bin_type_id": binTypeID,
			"bin_size_id": binSizeID,
		}, &bin)
		require.Equal(t, http.StatusCreated, status, "bin registration should succeed")
		require.Equal(t, domain.BinStatusAvailable, bin.Status)
		codes = append(codes, code)
	}
	return codes
}

func binStatusByCode(t *testing.T, code string) domain.BinStatus {
	t.Helper()
	var status string
	err := db.QueryRowContext(context.Background(), `SELECT status FROM physical_bins WHERE bin_code = $1`, code).Scan(&status)
	require.NoError(t, err)
	return domain.BinStatus(status)
}

// TestCashRequestLifecycle walks a cash-paid order end to end: creation,
// quoting, confirmation, delivery with bin assignment, pickup, and completion.
// Cash settlement must debit the supplier's wallet by the commission at the
// delivered transition, and completion must return the bins to the pool.
func TestCashRequestLifecycle(t *testing.T) {
	codes := registerBins(t, 2)

	walletBefore := getWallet(t)

	// Step A: customer creates a request needing two bins
	var req domain.ServiceRequest
	status := call(t, customer, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"location":       "18 Quarry Lane",
		"start_date":     time.Now().Add(24 * time.Hour),
		"payment_method": "cash",
		"contact_number": "0400000000",
		"items": []map[string]interface{}{
			{"bin_type_id": binTypeID, "bin_size_id": binSizeID, "quantity": 2},
		},
	}, &req)
	require.Equal(t, http.StatusCreated, status, "request creation should succeed")
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Len(t, req.Items, 2, "quantity 2 should create two order items")

	// Step B: supplier quotes, customer accepts; cash stays unsettled
	var quote domain.Quote
	status = call(t, supplier, http.MethodPost, "/api/v1/quotes", map[string]interface{}{
		"service_request_id": req.ID,
		"total_price":        "200.00",
	}, &quote)
	require.Equal(t, http.StatusCreated, status, "quote submission should succeed")

	var confirmed domain.ServiceRequest
	status = call(t, customer, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/accept", quote.ID), nil, &confirmed)
	require.Equal(t, http.StatusOK, status, "quote acceptance should succeed")
	assert.Equal(t, domain.RequestStatusConfirmed, confirmed.Status)
	assert.Equal(t, domain.PaymentStatusPending, confirmed.PaymentStatus, "cash requests must not settle at confirmation")
	require.NotNil(t, confirmed.AgreedPrice)
	assert.True(t, confirmed.AgreedPrice.Equal(decimal.RequireFromString("200.00")))

	// Step C: supplier loads the bins and starts delivery
	var onDelivery domain.ServiceRequest
	status = call(t, supplier, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
		"status":    "on_delivery",
		"bin_codes": codes,
	}, &onDelivery)
	require.Equal(t, http.StatusOK, status, "on_delivery transition should succeed")
	for _, code := range codes {
		assert.Equal(t, domain.BinStatusLoaded, binStatusByCode(t, code), "claimed bin should be loaded")
	}

	// Step D: delivered settles the cash commission against the wallet
	var delivered domain.ServiceRequest
	status = call(t, supplier, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
		"status": "delivered",
	}, &delivered)
	require.Equal(t, http.StatusOK, status, "delivered transition should succeed")
	assert.Equal(t, domain.PaymentStatusPaid, delivered.PaymentStatus)

	walletAfter := getWallet(t)
	commission := decimal.RequireFromString("200.00").Mul(commissionRate(t)).Round(2)
	expectedBalance := walletBefore.Balance.Sub(commission)
	assert.True(t, walletAfter.Balance.Equal(expectedBalance),
		"wallet should be debited the commission: got %s, expected %s",
		walletAfter.Balance, expectedBalance)

	// Step E: customer flags readiness, supplier picks up and completes
	status = call(t, customer, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
		"status": "ready_to_pickup",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	status = call(t, supplier, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
		"status": "pickup",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var completed domain.ServiceRequest
	status = call(t, supplier, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
		"status": "completed",
	}, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.RequestStatusCompleted, completed.Status)

	for _, code := range codes {
		assert.Equal(t, domain.BinStatusAvailable, binStatusByCode(t, code), "completion should release the bin")
	}
}

// TestOnlineRequestSettlesAtConfirmation verifies the online path credits the
// supplier's wallet with the net amount when the customer accepts the quote.
func TestOnlineRequestSettlesAtConfirmation(t *testing.T) {
	registerBins(t, 1)

	walletBefore := getWallet(t)

	var req domain.ServiceRequest
	status := call(t, customer, http.MethodPost, "/api/v1/requests", map[string]interface{}{
		"location":       "7 Foundry St",
		"start_date":     time.Now().Add(24 * time.Hour),
		"payment_method": "online",
		"items": []map[string]interface{}{
			{"bin_type_id": binTypeID, "bin_size_id": binSizeID, "quantity": 1},
		},
	}, &req)
	require.Equal(t, http.StatusCreated, status)

	var quote domain.Quote
	status = call(t, supplier, http.MethodPost, "/api/v1/quotes", map[string]interface{}{
		"service_request_id": req.ID,
		"total_price":        "100.00",
	}, &quote)
	require.Equal(t, http.StatusCreated, status)

	var confirmed domain.ServiceRequest
	status = call(t, customer, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/accept", quote.ID), nil, &confirmed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.PaymentStatus, "online requests settle at confirmation")

	walletAfter := getWallet(t)
	total := decimal.RequireFromString("100.00")
	net := total.Sub(total.Mul(commissionRate(t)).Round(2))
	expectedBalance := walletBefore.Balance.Add(net)
	assert.True(t, walletAfter.Balance.Equal(expectedBalance),
		"wallet should be credited the net amount: got %s, expected %s",
		walletAfter.Balance, expectedBalance)
}

// TestNegativeScenarios tests error handling for invalid inputs
func TestNegativeScenarios(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/bins", nil)
		require.NoError(t, err)
		req.Header.Set("X-Actor-ID", supplier.ID.String())
		req.Header.Set("X-Actor-Role", string(supplier.Role))

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("NoQualifiedSupplier", func(t *testing.T) {
		// A type/size combination nobody stocks.
		status := call(t, customer, http.MethodPost, "/api/v1/requests", map[string]interface{}{
			"location":       "1 Nowhere Rd",
			"start_date":     time.Now().Add(24 * time.Hour),
			"payment_method": "cash",
			"items": []map[string]interface{}{
				{"bin_type_id": uuid.New(), "bin_size_id": uuid.New(), "quantity": 1},
			},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("BinCodeCountMismatch", func(t *testing.T) {
		codes := registerBins(t, 2)

		var req domain.ServiceRequest
		status := call(t, customer, http.MethodPost, "/api/v1/requests", map[string]interface{}{
			"location":       "3 Depot Ave",
			"start_date":     time.Now().Add(24 * time.Hour),
			"payment_method": "cash",
			"items": []map[string]interface{}{
				{"bin_type_id": binTypeID, "bin_size_id": binSizeID, "quantity": 2},
			},
		}, &req)
		require.Equal(t, http.StatusCreated, status)

		var quote domain.Quote
		status = call(t, supplier, http.MethodPost, "/api/v1/quotes", map[string]interface{}{
			"service_request_id": req.ID,
			"total_price":        "90.00",
		}, &quote)
		require.Equal(t, http.StatusCreated, status)

		status = call(t, customer, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/accept", quote.ID), nil, nil)
		require.Equal(t, http.StatusOK, status)

		// Only one code for two items.
		status = call(t, supplier, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
			"status":    "on_delivery",
			"bin_codes": codes[:1],
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("CustomerCannotDriveDelivery", func(t *testing.T) {
		registerBins(t, 1)

		var req domain.ServiceRequest
		status := call(t, customer, http.MethodPost, "/api/v1/requests", map[string]interface{}{
			"location":       "5 Siding Ct",
			"start_date":     time.Now().Add(24 * time.Hour),
			"payment_method": "cash",
			"items": []map[string]interface{}{
				{"bin_type_id": binTypeID, "bin_size_id": binSizeID, "quantity": 1},
			},
		}, &req)
		require.Equal(t, http.StatusCreated, status)

		status = call(t, customer, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), map[string]interface{}{
			"status": "on_delivery",
		}, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

// TestPayoutFlow holds funds on request and releases or confirms them on
// admin resolution.
func TestPayoutFlow(t *testing.T) {
	wallet := getWallet(t)
	if wallet.Balance.LessThan(decimal.NewFromInt(10)) {
		t.Skip("supplier wallet has insufficient balance for payout test; run the lifecycle tests first")
	}

	var payout domain.Payout
	status := call(t, supplier, http.MethodPost, "/api/v1/payouts", map[string]interface{}{
		"amount": "10.00",
	}, &payout)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, domain.PayoutStatusPending, payout.Status)

	held := getWallet(t)
	assert.True(t, held.Balance.Equal(wallet.Balance.Sub(decimal.NewFromInt(10))), "payout amount should move out of the available balance")
	assert.True(t, held.PendingBalance.Equal(wallet.PendingBalance.Add(decimal.NewFromInt(10))), "payout amount should be pending")

	var resolved domain.Payout
	status = call(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/payouts/%s/resolve", payout.ID), map[string]interface{}{
		"approve":     true,
		"admin_notes": "verified bank details",
	}, &resolved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.PayoutStatusApproved, resolved.Status)

	final := getWallet(t)
	assert.True(t, final.PendingBalance.Equal(wallet.PendingBalance), "approval should clear the pending hold")
}

func getWallet(t *testing.T) *domain.SupplierWallet {
	t.Helper()
	var wallet domain.SupplierWallet
	status := call(t, supplier, http.MethodGet, "/api/v1/wallet", nil, &wallet)
	require.Equal(t, http.StatusOK, status)
	return &wallet
}

// commissionRate reads the configured commission percentage straight from the
// settings table so assertions track whatever the deployment uses.
func commissionRate(t *testing.T) decimal.Decimal {
	t.Helper()
	var raw string
	err := db.QueryRowContext(context.Background(), `SELECT value FROM settings WHERE key = $1`, "platform_commission_percentage").Scan(&raw)
	if err == sql.ErrNoRows {
		raw = "15"
	} else {
		require.NoError(t, err)
	}
	percent, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return percent.Div(decimal.NewFromInt(100))
}

// getDBConnectionString returns the database connection string from environment or defaults
func getDBConnectionString() string {
	connStr := os.Getenv("DB_CONN_STR")
	if connStr != "" {
		return connStr
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "binrental"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// getAPIBaseURL returns the HTTP server address from environment or defaults
func getAPIBaseURL() string {
	addr := os.Getenv("API_BASE_URL")
	if addr == "" {
		addr = "http://localhost:8080"
	}
	return addr
}
