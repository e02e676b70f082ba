package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/hash"
	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/tokens"
	"github.com/Skotchmaster/technotes/internal/transport"
)

type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthService struct {
	Users   CredentialStore
	Tokens  *tokens.Service
	Revoker Revoker
	Events  events.Publisher
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	RefreshExp   time.Time
}

// dummyHash equalises login timing between unknown usernames and wrong
// passwords.
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("technotes-dummy-password", hash.DefaultCost)
	return h
})

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	if err := validateRequest(req, MsgAllFieldsRequired); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "missing credentials")
		return nil, err
	}

	user, err := s.Users.FindUserByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		hash.CheckPassword(dummyHash(), req.Password)
		l.Warn("login_failed", "status", 401, "reason", "unknown user")
		return nil, newError(ErrUnauthorized, MsgUnauthorized)
	case err != nil:
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, newError(ErrUnauthorized, MsgUnauthorized)
	}
	if !user.Active {
		l.Warn("login_failed", "status", 401, "reason", "inactive user")
		return nil, newError(ErrUnauthorized, MsgUnauthorized)
	}

	access, err := s.Tokens.IssueAccessToken(user.Username, user.Roles)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicAuth, user.ID.String(), "user_logged_in", map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})
	l.Info("login_succeeded")

	return &LoginResult{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		RefreshExp:   refresh.ExpiresAt,
	}, nil
}

// Refresh mints a new access token from a refresh token. Roles come from the
// store so role changes take effect without a new login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "no refresh cookie")
		return "", newError(ErrUnauthorized, MsgUnauthorized)
	}

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 403, "reason", "invalid refresh token", "error", err)
		return "", newError(ErrForbidden, MsgForbidden)
	}

	if s.Revoker != nil {
		revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			l.Error("refresh_failed", "status", 500, "reason", "revocation lookup", "error", err)
			return "", err
		}
		if revoked {
			l.Warn("refresh_failed", "status", 403, "reason", "revoked refresh token", "jti", claims.ID)
			return "", newError(ErrForbidden, MsgForbidden)
		}
	}

	user, err := s.Users.FindUserByUsername(ctx, claims.Username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		l.Warn("refresh_failed", "status", 401, "reason", "user gone", "username", claims.Username)
		return "", newError(ErrUnauthorized, MsgUnauthorized)
	case err != nil:
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}
	if !user.Active {
		l.Warn("refresh_failed", "status", 401, "reason", "inactive user", "username", user.Username)
		return "", newError(ErrUnauthorized, MsgUnauthorized)
	}

	access, err := s.Tokens.IssueAccessToken(user.Username, user.Roles)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return "", err
	}
	return access.Token, nil
}

// Logout reports whether a refresh cookie was present. A verifiable token is
// denylisted until its expiry when a Revoker is configured; failures there
// are logged only.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) bool {
	if refreshToken == "" {
		return false
	}
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Info("logout_unverified_token", "error", err)
		return true
	}

	if s.Revoker != nil {
		if err := s.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			l.Warn("revoke_failed", "jti", claims.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicAuth, claims.Username, "user_logged_out", map[string]any{
		"username": claims.Username,
	})
	return true
}
