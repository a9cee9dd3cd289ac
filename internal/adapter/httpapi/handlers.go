package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"github.com/binrental/binrental-backend/internal/domain"
	"github.com/binrental/binrental-backend/internal/usecase/booking"
	"github.com/binrental/binrental-backend/internal/usecase/registry"
	"github.com/binrental/binrental-backend/internal/usecase/settlement"
)

// Handler wires the use case services into the HTTP surface.
type Handler struct {
	Registry   *registry.RegistryService
	Booking    *booking.BookingService
	Settlement *settlement.SettlementService
	Push       domain.PushSender
}

// NewHandler creates a new Handler instance.
func NewHandler(reg *registry.RegistryService, book *booking.BookingService, settle *settlement.SettlementService, push domain.PushSender) *Handler {
	return &Handler{Registry: reg, Booking: book, Settlement: settle, Push: push}
}

// NewRouter builds the echo server with all routes registered.
func NewRouter(h *Handler, apiToken string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	api := e.Group("/api/v1", AuthMiddleware(apiToken))

	// Bin inventory
	api.POST("/bins", h.RegisterBin)
	api.GET("/bins", h.ListBins)
	api.GET("/bins/:id", h.GetBin)
	api.PATCH("/bins/:id", h.UpdateBin)
	api.DELETE("/bins/:id", h.DeleteBin)
	api.POST("/bins/:id/owner", h.AssignBinOwner)

	// Service requests
	api.POST("/requests", h.CreateRequest)
	api.GET("/requests", h.ListRequests)
	api.GET("/requests/open", h.ListOpenRequests)
	api.GET("/requests/:requestId", h.GetRequest)
	api.POST("/requests/:id/accept", h.AcceptRequest)
	api.POST("/requests/:id/status", h.UpdateRequestStatus)
	api.GET("/requests/:id/items", h.ListRequestItems)

	// Quotes
	api.POST("/quotes", h.SubmitQuote)
	api.GET("/requests/:id/quotes", h.ListRequestQuotes)
	api.POST("/quotes/:id/accept", h.AcceptQuote)

	// Wallet and payouts
	api.GET("/wallet", h.GetWallet)
	api.GET("/wallet/entries", h.ListWalletEntries)
	api.POST("/payouts", h.RequestPayout)
	api.GET("/payouts", h.ListPayouts)
	api.POST("/payouts/:id/resolve", h.ResolvePayout)

	// Admin
	api.GET("/admin/wallets", h.ListWallets)
	api.GET("/admin/payouts", h.ListAllPayouts)
	api.GET("/admin/transactions", h.ListTransactions)
	api.GET("/admin/transactions/stats", h.TransactionStats)
	api.PUT("/admin/commission", h.SetCommission)
	api.POST("/admin/push", h.SendPush)

	return e
}

// --- Bin inventory ---

type registerBinRequest struct {
	BinCode    string     `json:"bin_code"`
	BinTypeID  uuid.UUID  `json:"bin_type_id"`
	BinSizeID  uuid.UUID  `json:"bin_size_id"`
	SupplierID *uuid.UUID `json:"supplier_id"`
	Notes      string     `json:"notes"`
}

func (h *Handler) RegisterBin(c echo.Context) error {
	var req registerBinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	bin, err := h.Registry.RegisterBin(c.Request().Context(), actorFrom(c), registry.RegisterBinInput{
		BinCode:    req.BinCode,
		BinTypeID:  req.BinTypeID,
		BinSizeID:  req.BinSizeID,
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, bin)
}

func (h *Handler) ListBins(c echo.Context) error {
	filter := domain.BinFilter{
		Status:  domain.BinStatus(c.QueryParam("status")),
		BinCode: c.QueryParam("bin_code"),
	}
	if v := c.QueryParam("bin_type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin_type_id"})
		}
		filter.BinTypeID = &id
	}
	if v := c.QueryParam("bin_size_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin_size_id"})
		}
		filter.BinSizeID = &id
	}
	if v := c.QueryParam("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid supplier_id"})
		}
		filter.SupplierID = &id
	}

	bins, err := h.Registry.ListBins(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bins)
}

func (h *Handler) GetBin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin ID"})
	}

	bin, err := h.Registry.GetBin(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bin)
}

type updateBinRequest struct {
	Status *domain.BinStatus `json:"status"`
	Notes  *string           `json:"notes"`
}

func (h *Handler) UpdateBin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin ID"})
	}

	var req updateBinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	bin, err := h.Registry.UpdateBin(c.Request().Context(), actorFrom(c), id, registry.UpdateBinInput{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bin)
}

func (h *Handler) DeleteBin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin ID"})
	}

	if err := h.Registry.DeleteBin(c.Request().Context(), actorFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type assignOwnerRequest struct {
	SupplierID uuid.UUID `json:"supplier_id"`
}

func (h *Handler) AssignBinOwner(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid bin ID"})
	}

	var req assignOwnerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	bin, err := h.Registry.AssignOwner(c.Request().Context(), actorFrom(c), id, req.SupplierID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bin)
}

// --- Service requests ---

type createRequestItem struct {
	BinTypeID uuid.UUID `json:"bin_type_id"`
	BinSizeID uuid.UUID `json:"bin_size_id"`
	Quantity  int       `json:"quantity"`
}

type createRequestRequest struct {
	Location      string               `json:"location"`
	StartDate     time.Time            `json:"start_date"`
	EndDate       time.Time            `json:"end_date"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	ContactNumber string               `json:"contact_number"`
	ContactEmail  string               `json:"contact_email"`
	Instructions  string               `json:"instructions"`
	Items         []createRequestItem  `json:"items"`
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	input := booking.CreateRequestInput{
		Location:      req.Location,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		PaymentMethod: req.PaymentMethod,
		ContactNumber: req.ContactNumber,
		ContactEmail:  req.ContactEmail,
		Instructions:  req.Instructions,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, booking.ItemInput{
			BinTypeID: item.BinTypeID,
			BinSizeID: item.BinSizeID,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.Booking.CreateRequest(c.Request().Context(), actorFrom(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListRequests(c echo.Context) error {
	actor := actorFrom(c)
	filter := domain.RequestFilter{Status: domain.RequestStatus(c.QueryParam("status"))}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}

	ctx := c.Request().Context()
	var (
		reqs []*domain.ServiceRequest
		err  error
	)
	switch actor.Role {
	case domain.RoleSupplier:
		reqs, err = h.Booking.ListSupplierRequests(ctx, actor, filter)
	case domain.RoleAdmin:
		reqs, err = h.Booking.ListAllRequests(ctx, actor, filter)
	default:
		reqs, err = h.Booking.ListMyRequests(ctx, actor, filter)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *Handler) ListOpenRequests(c echo.Context) error {
	reqs, err := h.Booking.ListOpenRequests(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *Handler) GetRequest(c echo.Context) error {
	req, err := h.Booking.GetRequest(c.Request().Context(), actorFrom(c), c.Param("requestId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) AcceptRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request ID"})
	}

	req, err := h.Booking.AcceptRequest(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

type updateStatusRequest struct {
	Status   domain.RequestStatus `json:"status"`
	BinCodes []string             `json:"bin_codes"`
}

func (h *Handler) UpdateRequestStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request ID"})
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	updated, err := h.Booking.UpdateStatus(c.Request().Context(), actorFrom(c), id, req.Status, req.BinCodes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) ListRequestItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request ID"})
	}

	items, err := h.Booking.ListItems(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// --- Quotes ---

type submitQuoteRequest struct {
	ServiceRequestID  uuid.UUID       `json:"service_request_id"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	Notes             string          `json:"notes"`
}

func (h *Handler) SubmitQuote(c echo.Context) error {
	var req submitQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	quote, err := h.Booking.SubmitQuote(c.Request().Context(), actorFrom(c), booking.SubmitQuoteInput{
		ServiceRequestID:  req.ServiceRequestID,
		TotalPrice:        req.TotalPrice,
		AdditionalCharges: req.AdditionalCharges,
		Notes:             req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, quote)
}

func (h *Handler) ListRequestQuotes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request ID"})
	}

	quotes, err := h.Booking.ListQuotes(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, quotes)
}

func (h *Handler) AcceptQuote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid quote ID"})
	}

	req, err := h.Booking.AcceptQuote(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

// --- Wallet and payouts ---

func (h *Handler) GetWallet(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Role != domain.RoleSupplier {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "supplier role required"})
	}

	wallet, err := h.Settlement.GetWallet(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, wallet)
}

func (h *Handler) ListWalletEntries(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Role != domain.RoleSupplier {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "supplier role required"})
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	entries, err := h.Settlement.ListWalletEntries(c.Request().Context(), actor.ID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

type requestPayoutRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	BankDetails   string          `json:"bank_details"`
}

func (h *Handler) RequestPayout(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Role != domain.RoleSupplier {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "supplier role required"})
	}

	var req requestPayoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	payout, err := h.Settlement.RequestPayout(c.Request().Context(), settlement.RequestPayoutInput{
		SupplierID:    actor.ID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		BankDetails:   req.BankDetails,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, payout)
}

func (h *Handler) ListPayouts(c echo.Context) error {
	actor := actorFrom(c)
	if actor.Role != domain.RoleSupplier {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "supplier role required"})
	}

	payouts, err := h.Settlement.ListPayouts(c.Request().Context(), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payouts)
}

type resolvePayoutRequest struct {
	Approve    bool   `json:"approve"`
	AdminNotes string `json:"admin_notes"`
}

func (h *Handler) ResolvePayout(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payout ID"})
	}

	var req resolvePayoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	payout, err := h.Settlement.ResolvePayout(c.Request().Context(), actorFrom(c), id, req.Approve, req.AdminNotes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payout)
}

// --- Admin ---

func (h *Handler) ListWallets(c echo.Context) error {
	wallets, err := h.Settlement.ListWallets(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, wallets)
}

func (h *Handler) ListAllPayouts(c echo.Context) error {
	filter := domain.PayoutFilter{Status: domain.PayoutStatus(c.QueryParam("status"))}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}

	payouts, err := h.Settlement.ListAllPayouts(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payouts)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	actor := actorFrom(c)
	if !actor.IsAdmin() {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "admin role required"})
	}

	filter := domain.TransactionFilter{Status: domain.TransactionStatus(c.QueryParam("status"))}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	txs, err := h.Settlement.ListTransactions(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, txs)
}

func (h *Handler) TransactionStats(c echo.Context) error {
	stats, err := h.Settlement.TransactionStats(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

type setCommissionRequest struct {
	Percent decimal.Decimal `json:"percent"`
}

func (h *Handler) SetCommission(c echo.Context) error {
	var req setCommissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}

	if err := h.Settlement.SetCommissionRate(c.Request().Context(), actorFrom(c), req.Percent); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type sendPushRequest struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

func (h *Handler) SendPush(c echo.Context) error {
	actor := actorFrom(c)
	if !actor.IsAdmin() {
		return c.JSON(http.StatusForbidden, errorResponse{Error: "admin role required"})
	}

	var req sendPushRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload"})
	}
	if len(req.Tokens) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "at least one device token is required"})
	}

	if err := h.Push.Send(c.Request().Context(), req.Tokens, req.Title, req.Body, req.Data); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}
