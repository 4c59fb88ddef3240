package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Issuer *tokens.Issuer
	Events events.Publisher
	Now    func() time.Time
}

type Session struct {
	User   *models.User
	Tokens *tokens.Pair
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (*Session, error) {
	l := logging.FromContext(ctx).With().Str("svc", "auth.signup").Str("username", req.Username).Logger()

	u, err := s.createUser(ctx, req, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	sess, err := s.startSession(ctx, u)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, &l, events.TopicUsers, strconv.FormatUint(uint64(u.ID), 10),
		events.New(events.UserRegistered, map[string]any{"userId": u.ID, "username": u.Username}))
	l.Info().Uint("user_id", u.ID).Msg("user_registered")
	return sess, nil
}

// CreateAdmin registers an administrator. Only reachable from the CLI.
func (s *AuthService) CreateAdmin(ctx context.Context, req transport.SignupRequest) (*models.User, error) {
	return s.createUser(ctx, req, models.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, req transport.SignupRequest, role string) (*models.User, error) {
	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Username:        strings.TrimSpace(req.Username),
		PasswordHash:    pwHash,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		Role:            role,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fail(ErrConflict, "Username or email already exists")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*Session, error) {
	l := logging.FromContext(ctx).With().Str("svc", "auth.login").Str("username", req.Username).Logger()

	u, err := s.Repo.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn().Int("status", 401).Str("reason", "invalid username or password").Msg("login_failed")
			return nil, fail(ErrUnauthorized, "Invalid credentials")
		}
		return nil, err
	}
	return s.startSession(ctx, u)
}

func (s *AuthService) startSession(ctx context.Context, u *models.User) (*Session, error) {
	pair, err := s.Issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, &models.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    u.ID,
		TokenHash: tokens.Sha256Hex(pair.RefreshToken),
		ExpiresAt: pair.RefreshExp,
	}); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &Session{User: u, Tokens: pair}, nil
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated away revokes every session of its owner.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	l := logging.FromContext(ctx).With().Str("svc", "auth.refresh").Logger()

	if raw == "" {
		return nil, fail(ErrValidation, "Refresh token required")
	}
	claims, err := tokens.RefreshClaimsFromToken(raw, s.Issuer.RefreshSecret)
	if err != nil {
		l.Warn().Err(err).Msg("refresh_rejected")
		return nil, fail(ErrUnauthorized, "Invalid refresh token")
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, fail(ErrUnauthorized, "Invalid refresh token")
	}

	u, err := s.Repo.GetUserByID(ctx, uid)
	if err != nil {
		return nil, fail(ErrUnauthorized, "Invalid refresh token")
	}

	pair, err := s.Issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	_, err = s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(raw), s.now(), &models.RefreshToken{
		ID:        pair.RefreshID,
		TokenHash: tokens.Sha256Hex(pair.RefreshToken),
		ExpiresAt: pair.RefreshExp,
	})
	switch {
	case errors.Is(err, repo.ErrTokenReused):
		l.Warn().Uint("user_id", u.ID).Msg("refresh_token_reuse")
		if err := s.Repo.RevokeAllForUser(ctx, u.ID); err != nil {
			l.Error().Err(err).Msg("revoke_all_failed")
		}
		return nil, fail(ErrUnauthorized, "Invalid refresh token")
	case errors.Is(err, repo.ErrTokenInvalid):
		return nil, fail(ErrUnauthorized, "Invalid refresh token")
	case err != nil:
		return nil, err
	}
	return &Session{User: u, Tokens: pair}, nil
}

// Logout revokes raw when it is a token we issued. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(raw))
}

func (s *AuthService) PurgeTokens(ctx context.Context) (int64, error) {
	return s.Repo.PurgeRefreshTokens(ctx, s.now())
}
