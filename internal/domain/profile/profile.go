package profile

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	CustomTitle   *string   `json:"custom_title"`
	CustomSubtext *string   `json:"custom_subtext"`
	AvatarURL     *string   `json:"avatar_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidUsername  = errors.New("username only allows lowercase letters, numbers, and underscores")
	ErrNameRequired     = errors.New("name is required")
	ErrUsernameTaken    = errors.New("username is already taken")
	usernameRegex       = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// NormalizeUsername is the single case folding used for storage, uniqueness
// and lookup.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (p *Profile) Validate() error {
	if p.Username == "" {
		return ErrUsernameRequired
	}
	if !usernameRegex.MatchString(p.Username) {
		return ErrInvalidUsername
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	UsernameTakenByOther(ctx context.Context, username string, userID uuid.UUID) (bool, error)
	Upsert(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
