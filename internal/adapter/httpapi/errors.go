package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/binrental/binrental-backend/internal/domain"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error    string   `json:"error"`
	BinCodes []string `json:"bin_codes,omitempty"`
}

// writeError maps a domain error to its HTTP status. Conflict responses carry
// the offending bin codes so clients can highlight them.
func writeError(c echo.Context, err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, errorResponse{Error: conflict.Error(), BinCodes: conflict.BinCodes})
	}

	switch {
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
