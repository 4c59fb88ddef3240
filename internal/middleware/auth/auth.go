// Package auth authenticates requests with the access token issued at login
// and enforces role based access.
package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// UserChecker reports whether the subject of a valid token still exists.
type UserChecker interface {
	UserExists(ctx context.Context, id uint) (bool, error)
}

// RequireAuth accepts the access token from the Authorization header
// ("Bearer <token>") or the accessToken cookie.
func RequireAuth(secret []byte, users UserChecker) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: echojwt.AlgorithmHS256,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + tokens.AccessCookie,
		NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			switch {
			case errors.As(err, &missing):
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			case errors.Is(err, jwt.ErrTokenExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token").SetInternal(err)
			}
		},
		SuccessHandler: func(c echo.Context) {
			tkn, _ := c.Get("user").(*jwt.Token)
			if tkn == nil {
				return
			}
			claims, ok := tkn.Claims.(*tokens.AccessClaims)
			if !ok {
				return
			}
			if id, err := claims.UserID(); err == nil {
				c.Set(CtxUserID, id)
				c.Set(CtxRole, claims.Role)
			}
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			id, ok := c.Get(CtxUserID).(uint)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			exists, err := users.UserExists(ctx, id)
			if err != nil {
				l.Error().Err(err).Uint("user_id", id).Msg("auth_user_lookup_failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}
			if !exists {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}
			return next(c)
		})
	}
}

func RequireRole(message string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, message)
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole("Admin access required", models.RoleAdmin)
}

func RequireCustomer() echo.MiddlewareFunc {
	return RequireRole("Customer access required", models.RoleCustomer)
}

// UserID returns the authenticated caller. Only valid behind RequireAuth.
func UserID(c echo.Context) uint {
	id, _ := c.Get(CtxUserID).(uint)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(CtxRole).(string)
	return role
}
