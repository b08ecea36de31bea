package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const minPasswordLength = 8

type SignupUseCase struct {
	userRepo user.Repository
	sessions *SessionManager
	logger   logger.Logger
}

func NewSignupUseCase(repo user.Repository, sessions *SessionManager, log logger.Logger) *SignupUseCase {
	return &SignupUseCase{userRepo: repo, sessions: sessions, logger: log}
}

type SignupInput struct {
	Email    string
	Password string
}

type SignupOutput struct {
	User    *user.User
	Session *session.Session
}

func (uc *SignupUseCase) Execute(ctx context.Context, input SignupInput) (*SignupOutput, error) {
	ctx, span := tracer.Start(ctx, "Signup")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.NewInvalidInput("a valid email is required", err)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperror.NewInvalidInput("password must be at least 8 characters", nil)
	}

	_, err := uc.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.NewInvalidInput("an account with this email already exists", nil)
	case !errors.Is(err, apperror.ErrNotFound):
		span.RecordError(err)
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.NewInvalidInput("password is too long", err)
		}
		return nil, apperror.NewInternal("failed to hash password", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Provider:     user.ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s, err := uc.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &SignupOutput{User: u, Session: s}, nil
}
