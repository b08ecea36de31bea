package public

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// InvalidateCacheUseCase drops cached public profiles touched by an event.
// It runs in the worker.
type InvalidateCacheUseCase struct {
	profiles profile.Repository
	cache    profile.PublicCache
	logger   logger.Logger
}

func NewInvalidateCacheUseCase(profiles profile.Repository, cache profile.PublicCache, log logger.Logger) *InvalidateCacheUseCase {
	return &InvalidateCacheUseCase{profiles: profiles, cache: cache, logger: log}
}

func (uc *InvalidateCacheUseCase) Execute(ctx context.Context, evt service.ProfileEvent) error {
	usernames := make([]string, 0, 2)
	if evt.Username != "" {
		usernames = append(usernames, evt.Username)
	}
	if evt.PreviousUsername != "" {
		usernames = append(usernames, evt.PreviousUsername)
	}

	// collection events only carry the owner
	if len(usernames) == 0 {
		p, err := uc.profiles.GetByUserID(ctx, evt.OwnerID)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		usernames = append(usernames, p.Username)
	}

	if err := uc.cache.Invalidate(ctx, usernames...); err != nil {
		return err
	}
	uc.logger.Info("Invalidated public profile cache",
		zap.Strings("usernames", usernames),
		zap.String("event_type", string(evt.EventType)),
	)
	return nil
}
