package profile

import (
	"context"
	"time"

	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
)

// Public is everything rendered on a user's public page. Collections are
// ascending by order_index.
type Public struct {
	Profile         Profile                     `json:"profile"`
	WorkExperiences []experience.WorkExperience `json:"workExperiences"`
	Projects        []project.Project           `json:"projects"`
	Images          []image.Image               `json:"images"`
}

// PublicCache stores assembled public profiles by username. Get returns
// (nil, nil) on a miss.
type PublicCache interface {
	Get(ctx context.Context, username string) (*Public, error)
	Set(ctx context.Context, p *Public, ttl time.Duration) error
	Invalidate(ctx context.Context, usernames ...string) error
}
