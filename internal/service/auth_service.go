package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/auth"
	"github.com/spec-kit/ticket-sla-service/internal/config"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

// AuthService exchanges the shared staff secret for a signed staff token.
type AuthService struct {
	secretHash string
	tokenMgr   *auth.TokenManager
}

// NewAuthService hashes the configured staff secret once at startup.
// With no secret configured every login is refused.
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	s := &AuthService{
		tokenMgr: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
	}
	if cfg.StaffSecret == "" {
		return s, nil
	}
	hash, err := auth.HashPassword(cfg.StaffSecret, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash staff secret: %w", err)
	}
	s.secretHash = hash
	return s, nil
}

// LoginStaff authenticates a staff member by the shared secret.
// name becomes the author of the staff member's replies.
func (s *AuthService) LoginStaff(_ context.Context, name, secret string) (string, time.Time, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", time.Time{}, apperrors.NewValidationError("name required", map[string]any{"field": "name"})
	}
	if s.secretHash == "" || secret == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(s.secretHash, secret); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(name)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
