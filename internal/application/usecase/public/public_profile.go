package public

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const cacheReadTimeout = 50 * time.Millisecond

var tracer = otel.Tracer("public_usecase")

// Lister is the read side of an ordered collection repository.
type Lister[T any] interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error)
}

type GetPublicProfileUseCase struct {
	profiles    profile.Repository
	experiences Lister[experience.WorkExperience]
	projects    Lister[project.Project]
	images      Lister[image.Image]
	cache       profile.PublicCache
	cacheTTL    time.Duration
	logger      logger.Logger
}

// NewGetPublicProfileUseCase wires the assembler. cache may be nil.
func NewGetPublicProfileUseCase(
	profiles profile.Repository,
	experiences Lister[experience.WorkExperience],
	projects Lister[project.Project],
	images Lister[image.Image],
	cache profile.PublicCache,
	cacheTTL time.Duration,
	log logger.Logger,
) *GetPublicProfileUseCase {
	return &GetPublicProfileUseCase{
		profiles:    profiles,
		experiences: experiences,
		projects:    projects,
		images:      images,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      log,
	}
}

type GetPublicProfileInput struct {
	Username string
}

type GetPublicProfileOutput struct {
	Public *profile.Public
}

func (uc *GetPublicProfileUseCase) Execute(ctx context.Context, input GetPublicProfileInput) (*GetPublicProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "GetPublicProfile")
	defer span.End()

	username := profile.NormalizeUsername(input.Username)
	span.SetAttributes(attribute.String("username", username))
	if username == "" {
		return nil, apperror.NewNotFound("User", input.Username)
	}

	if cached := uc.fromCache(ctx, username); cached != nil {
		return &GetPublicProfileOutput{Public: cached}, nil
	}

	p, err := uc.profiles.GetByUsername(ctx, username)
	if err != nil {
		// a broken lookup must not reveal more than a missing user does
		if !errors.Is(err, apperror.ErrNotFound) {
			uc.logger.Error("Public profile lookup failed", err, zap.String("username", username))
		}
		return nil, apperror.NewNotFound("User", username)
	}

	out := &profile.Public{Profile: *p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := uc.experiences.ListByOwner(gctx, p.UserID)
		out.WorkExperiences = ascending(items)
		return err
	})
	g.Go(func() error {
		items, err := uc.projects.ListByOwner(gctx, p.UserID)
		out.Projects = ascending(items)
		return err
	})
	g.Go(func() error {
		items, err := uc.images.ListByOwner(gctx, p.UserID)
		out.Images = ascending(items)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		if errors.Is(err, apperror.ErrInternal) {
			return nil, err
		}
		return nil, apperror.NewInternal("failed to load public profile", err)
	}

	uc.toCache(ctx, out)
	return &GetPublicProfileOutput{Public: out}, nil
}

func (uc *GetPublicProfileUseCase) fromCache(ctx context.Context, username string) *profile.Public {
	if uc.cache == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, cacheReadTimeout)
	defer cancel()
	cached, err := uc.cache.Get(cctx, username)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		uc.logger.Warn("Public profile cache read failed", zap.String("username", username), zap.Error(err))
	}
	return cached
}

func (uc *GetPublicProfileUseCase) toCache(ctx context.Context, p *profile.Public) {
	if uc.cache == nil || uc.cacheTTL <= 0 {
		return
	}
	if err := uc.cache.Set(ctx, p, uc.cacheTTL); err != nil {
		uc.logger.Warn("Public profile cache write failed", zap.String("username", p.Profile.Username), zap.Error(err))
	}
}

func ascending[T collection.Item[T]](items []T) []T {
	if items == nil {
		return []T{}
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return a.OrderIndex() - b.OrderIndex()
	})
	return items
}
