package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

// OAuthProvider is an external identity provider.
type OAuthProvider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.OAuthIdentity, error)
}

type OAuthUseCase struct {
	provider OAuthProvider
	userRepo user.Repository
	sessions *SessionManager
	logger   logger.Logger
}

func NewOAuthUseCase(provider OAuthProvider, repo user.Repository, sessions *SessionManager, log logger.Logger) *OAuthUseCase {
	return &OAuthUseCase{provider: provider, userRepo: repo, sessions: sessions, logger: log}
}

// Begin returns the provider redirect URL and the state value the caller
// must keep (cookie) and compare on callback.
func (uc *OAuthUseCase) Begin() (redirectURL, state string) {
	state = xid.New().String()
	return uc.provider.AuthURL(state), state
}

type OAuthCallbackInput struct {
	Code          string
	State         string
	ExpectedState string
}

func (uc *OAuthUseCase) Callback(ctx context.Context, input OAuthCallbackInput) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "OAuthCallback")
	defer span.End()

	if input.State == "" || input.State != input.ExpectedState {
		return nil, apperror.NewUnauthorized("oauth state mismatch", nil)
	}
	if input.Code == "" {
		return nil, apperror.NewInvalidInput("missing oauth code", nil)
	}

	identity, err := uc.provider.Exchange(ctx, input.Code)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewUnauthorized("oauth sign-in failed", err)
	}

	u, err := uc.userRepo.FindByProvider(ctx, identity.Provider, identity.ProviderUserID)
	if errors.Is(err, apperror.ErrNotFound) {
		u, err = uc.createOAuthUser(ctx, identity)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return uc.sessions.Issue(ctx, u.ID)
}

func (uc *OAuthUseCase) createOAuthUser(ctx context.Context, identity *auth.OAuthIdentity) (*user.User, error) {
	email := strings.ToLower(identity.Email)
	if email == "" {
		// GitHub hides private emails; keep the column unique per identity.
		email = identity.ProviderUserID + "@users.noreply." + identity.Provider + ".local"
	}
	providerUserID := identity.ProviderUserID
	u := &user.User{
		ID:             uuid.New(),
		Email:          email,
		Provider:       identity.Provider,
		ProviderUserID: &providerUserID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	uc.logger.Info("Created user from oauth identity",
		zap.String("user_id", u.ID.String()),
		zap.String("provider", identity.Provider),
	)
	return u, nil
}
