package project

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Year        *string   `json:"year"`
	URL         *string   `json:"url"`
	LogoURL     *string   `json:"logo_url"`
	Order       int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrNameRequired = errors.New("project name is required")
	ErrInvalidURL   = errors.New("project url must be an absolute http(s) url")
)

func (p Project) ItemID() uuid.UUID { return p.ID }

func (p Project) OrderIndex() int { return p.Order }

func (p Project) WithOrderIndex(i int) Project {
	p.Order = i
	return p
}

func (p Project) WithIdentity(id, userID uuid.UUID) Project {
	p.ID = id
	p.UserID = userID
	return p
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.URL != nil && *p.URL != "" {
		u, err := url.Parse(*p.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidURL
		}
	}
	return nil
}
