package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

// SessionManager issues, resolves and revokes sessions. A token is only
// valid while its jti is registered in the session store.
type SessionManager struct {
	jwtSvc *auth.JWTService
	store  session.Store
	logger logger.Logger
}

func NewSessionManager(jwtSvc *auth.JWTService, store session.Store, log logger.Logger) *SessionManager {
	return &SessionManager{jwtSvc: jwtSvc, store: store, logger: log}
}

func (m *SessionManager) Issue(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	id := uuid.NewString()
	token, expiresAt, err := m.jwtSvc.GenerateToken(userID, id)
	if err != nil {
		m.logger.Error("Failed to generate token", err, zap.String("user_id", userID.String()))
		return nil, apperror.NewInternal("failed to generate token", err)
	}

	s := session.Session{ID: id, UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, apperror.NewInternal("failed to register session", err)
	}
	return &s, nil
}

// Current resolves token to its session. Any failure is Unauthorized.
func (m *SessionManager) Current(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized("no active session", nil)
	}

	claims, err := m.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired session", err)
	}

	ok, err := m.store.Exists(ctx, claims.ID)
	if err != nil {
		m.logger.Warn("Session lookup failed", zap.String("session_id", claims.ID), zap.Error(err))
		return nil, apperror.NewUnauthorized("session could not be verified", err)
	}
	if !ok {
		return nil, apperror.NewUnauthorized("session has been signed out", nil)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &session.Session{
		ID:        claims.ID,
		UserID:    claims.OwnerID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// SignOut revokes the session behind token. Signing out an unknown or
// already expired token is not an error.
func (m *SessionManager) SignOut(ctx context.Context, token string) error {
	claims, err := m.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return apperror.NewInternal("failed to revoke session", err)
	}
	return nil
}
