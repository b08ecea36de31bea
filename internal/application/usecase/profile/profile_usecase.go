package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type ProfileUseCase struct {
	profileRepo profile.Repository
	publisher   service.EventPublisher
	invalidator service.CacheInvalidator
	logger      logger.Logger
}

// NewProfileUseCase wires the profile use cases. invalidator may be nil when
// no public profile cache is configured.
func NewProfileUseCase(repo profile.Repository, publisher service.EventPublisher, invalidator service.CacheInvalidator, log logger.Logger) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: repo,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      log,
	}
}

type GetProfileInput struct {
	OwnerID uuid.UUID
}

// GetProfileOutput carries a nil Profile when the user has not created one.
type GetProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.profileRepo.GetByUserID(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &GetProfileOutput{}, nil
		}
		return nil, err
	}
	return &GetProfileOutput{Profile: p}, nil
}

type SaveProfileInput struct {
	OwnerID       uuid.UUID
	Username      string
	Name          string
	CustomTitle   *string
	CustomSubtext *string
	AvatarURL     *string
}

type SaveProfileOutput struct {
	Profile *profile.Profile
}

// ExecuteSaveProfile creates or replaces the caller's profile. The username
// is lowercased before validation, the uniqueness check and storage.
func (uc *ProfileUseCase) ExecuteSaveProfile(ctx context.Context, input SaveProfileInput) (*SaveProfileOutput, error) {
	now := time.Now().UTC()
	p := &profile.Profile{
		UserID:        input.OwnerID,
		Username:      profile.NormalizeUsername(input.Username),
		Name:          input.Name,
		CustomTitle:   input.CustomTitle,
		CustomSubtext: input.CustomSubtext,
		AvatarURL:     input.AvatarURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := p.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	taken, err := uc.profileRepo.UsernameTakenByOther(ctx, p.Username, p.UserID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.NewInvalidInput("Username is already taken", profile.ErrUsernameTaken)
	}

	var previous string
	if existing, err := uc.profileRepo.GetByUserID(ctx, p.UserID); err == nil {
		previous = existing.Username
		p.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if err := uc.profileRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	evt := service.ProfileEvent{
		EventType: service.ProfileEventUpdated,
		OwnerID:   p.UserID,
		Username:  p.Username,
	}
	if previous != p.Username {
		evt.PreviousUsername = previous
	}
	uc.publish(ctx, evt)

	return &SaveProfileOutput{Profile: p}, nil
}

type DeleteProfileInput struct {
	OwnerID uuid.UUID
}

func (uc *ProfileUseCase) ExecuteDeleteProfile(ctx context.Context, input DeleteProfileInput) error {
	existing, err := uc.profileRepo.GetByUserID(ctx, input.OwnerID)
	if err != nil {
		return err
	}
	if err := uc.profileRepo.Delete(ctx, input.OwnerID); err != nil {
		return err
	}
	uc.publish(ctx, service.ProfileEvent{
		EventType: service.ProfileEventDeleted,
		OwnerID:   input.OwnerID,
		Username:  existing.Username,
	})
	return nil
}

// publish clears cached public pages for both the old and the new username
// before returning, then announces the event to other instances.
func (uc *ProfileUseCase) publish(ctx context.Context, evt service.ProfileEvent) {
	evt.OccurredAt = time.Now().UTC()
	if uc.invalidator != nil {
		if err := uc.invalidator.Execute(ctx, evt); err != nil {
			uc.logger.Error("Failed to invalidate public profile cache", err,
				zap.String("owner_id", evt.OwnerID.String()),
				zap.String("event_type", string(evt.EventType)),
			)
		}
	}
	go func() {
		if err := uc.publisher.PublishProfileEvent(context.Background(), evt); err != nil {
			uc.logger.Error("Failed to publish profile event", err,
				zap.String("owner_id", evt.OwnerID.String()),
				zap.String("event_type", string(evt.EventType)),
			)
		}
	}()
}
