package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const ProviderPassword = "password"

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Provider       string    `json:"provider"`
	ProviderUserID *string   `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProvider(ctx context.Context, provider, providerUserID string) (*User, error)
	Create(ctx context.Context, u *User) error
}
