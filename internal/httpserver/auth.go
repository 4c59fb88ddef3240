package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func (h *AuthHTTP) setCookies(c echo.Context, p *tokens.Pair) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, p.AccessToken, "/", p.AccessExp, h.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, p.RefreshToken, "/", p.RefreshExp, h.CookieSecure))
}

func (h *AuthHTTP) clearCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.CookieSecure))
}

func sessionResponse(msg string, s *service.Session) transport.AuthResponse {
	return transport.AuthResponse{
		Message:      msg,
		User:         s.User,
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
	}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "auth.signup").Logger()

	var req transport.SignupRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "signup_error", err)
	}

	sess, err := h.Svc.Signup(ctx, req)
	if err != nil {
		return respond(&l, "signup_error", err)
	}

	h.setCookies(c, sess.Tokens)
	l.Info().Uint("user_id", sess.User.ID).Msg("signup_success")
	return c.JSON(http.StatusCreated, sessionResponse("User created successfully", sess))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "auth.login").Logger()

	var req transport.LoginRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "login_error", err)
	}

	sess, err := h.Svc.Login(ctx, req)
	if err != nil {
		return respond(&l, "login_error", err)
	}

	h.setCookies(c, sess.Tokens)
	l.Info().Uint("user_id", sess.User.ID).Msg("login_success")
	return c.JSON(http.StatusOK, sessionResponse("Login successful", sess))
}

// refreshToken prefers the request body and falls back to the cookie.
func refreshToken(c echo.Context) string {
	var req transport.RefreshRequest
	_ = c.Bind(&req)
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "auth.refresh").Logger()

	sess, err := h.Svc.Refresh(ctx, refreshToken(c))
	if err != nil {
		h.clearCookies(c)
		return respond(&l, "refresh_error", err)
	}

	h.setCookies(c, sess.Tokens)
	return c.JSON(http.StatusOK, sessionResponse("", sess))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "auth.logout").Logger()

	if err := h.Svc.Logout(ctx, refreshToken(c)); err != nil {
		h.clearCookies(c)
		return respond(&l, "logout_error", err)
	}

	h.clearCookies(c)
	l.Info().Msg("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
