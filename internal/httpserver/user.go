package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "users.me").Logger()

	u, err := h.Svc.Profile(ctx, auth.UserID(c))
	if err != nil {
		return respond(&l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "users.update_me").Logger()

	var req transport.UpdateProfileRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "update_profile_error", err)
	}

	u, err := h.Svc.UpdateProfile(ctx, auth.UserID(c), req)
	if err != nil {
		return respond(&l, "update_profile_error", err)
	}

	l.Info().Uint("user_id", u.ID).Msg("update_profile_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully", "user": u})
}
