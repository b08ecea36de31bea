package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated context handed explicitly to every request
// handler and client component.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store registers live session ids with an expiry.
type Store interface {
	Save(ctx context.Context, s Session) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}
