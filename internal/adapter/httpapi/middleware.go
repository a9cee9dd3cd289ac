package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/binrental/binrental-backend/internal/domain"
)

const actorContextKey = "actor"

// AuthMiddleware validates the service token and extracts the authenticated
// actor from the identity headers set by the API gateway. Requests without a
// valid token or identity are rejected before reaching a handler.
func AuthMiddleware(validToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != validToken {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			}

			actorID, err := uuid.Parse(c.Request().Header.Get("X-Actor-ID"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing or invalid actor identity"})
			}

			role := domain.Role(c.Request().Header.Get("X-Actor-Role"))
			switch role {
			case domain.RoleCustomer, domain.RoleSupplier, domain.RoleAdmin:
			default:
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing or invalid actor role"})
			}

			c.Set(actorContextKey, domain.Actor{ID: actorID, Role: role})
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) domain.Actor {
	actor, _ := c.Get(actorContextKey).(domain.Actor)
	return actor
}
