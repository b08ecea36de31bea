// Package collection implements the owner-scoped CRUD and reorder use cases
// shared by work experiences, projects and images.
package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type Service[T collection.Item[T]] struct {
	kind        collection.Kind
	repo        collection.Repository[T]
	publisher   service.EventPublisher
	invalidator service.CacheInvalidator
	logger      logger.Logger
}

// NewService builds the use cases for one collection kind. invalidator may be
// nil when no public profile cache is configured.
func NewService[T collection.Item[T]](kind collection.Kind, repo collection.Repository[T], publisher service.EventPublisher, invalidator service.CacheInvalidator, log logger.Logger) *Service[T] {
	return &Service[T]{
		kind:        kind,
		repo:        repo,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      log.With(zap.String("collection", string(kind))),
	}
}

func (s *Service[T]) Kind() collection.Kind {
	return s.kind
}

type ListInput struct {
	OwnerID uuid.UUID
}

// List returns the owner's items ascending by order_index.
func (s *Service[T]) List(ctx context.Context, input ListInput) ([]T, error) {
	return s.repo.ListByOwner(ctx, input.OwnerID)
}

type CreateInput[T any] struct {
	OwnerID uuid.UUID
	Item    T
	// OrderIndex defaults to the current collection length.
	OrderIndex *int
}

func (s *Service[T]) Create(ctx context.Context, input CreateInput[T]) (T, error) {
	var zero T

	id := input.Item.ItemID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	item := input.Item.WithIdentity(id, input.OwnerID)

	if err := item.Validate(); err != nil {
		return zero, apperror.NewInvalidInput(err.Error(), err)
	}

	if input.OrderIndex != nil {
		if *input.OrderIndex < 0 {
			return zero, apperror.NewInvalidInput("order_index must not be negative", nil)
		}
		item = item.WithOrderIndex(*input.OrderIndex)
	} else {
		n, err := s.repo.CountByOwner(ctx, input.OwnerID)
		if err != nil {
			return zero, err
		}
		item = item.WithOrderIndex(n)
	}

	saved, err := s.repo.Save(ctx, input.OwnerID, item)
	if err != nil {
		return zero, err
	}

	s.publish(ctx, service.CollectionItemCreated, input.OwnerID, &id)
	return saved, nil
}

type UpdateInput[T any] struct {
	OwnerID uuid.UUID
	ID      uuid.UUID
	// Apply changes the supplied fields only. A nil Apply with a non-nil
	// OrderIndex is a position-only update.
	Apply      func(T) T
	OrderIndex *int
}

func (s *Service[T]) Update(ctx context.Context, input UpdateInput[T]) (T, error) {
	var zero T

	if input.ID == uuid.Nil {
		return zero, apperror.NewInvalidInput(fmt.Sprintf("%s id is required", s.kind.Label()), nil)
	}
	if input.OrderIndex != nil && *input.OrderIndex < 0 {
		return zero, apperror.NewInvalidInput("order_index must not be negative", nil)
	}

	if input.Apply == nil && input.OrderIndex != nil {
		entry := collection.OrderEntry{ID: input.ID, OrderIndex: *input.OrderIndex}
		if err := s.repo.UpdateOrder(ctx, input.OwnerID, entry); err != nil {
			return zero, err
		}
		s.publish(ctx, service.CollectionItemsOrdered, input.OwnerID, &input.ID)
		return s.repo.FindByID(ctx, input.OwnerID, input.ID)
	}

	current, err := s.repo.FindByID(ctx, input.OwnerID, input.ID)
	if err != nil {
		return zero, err
	}

	next := current
	if input.Apply != nil {
		next = input.Apply(current)
	}
	next = next.WithIdentity(input.ID, input.OwnerID)
	if input.OrderIndex != nil {
		next = next.WithOrderIndex(*input.OrderIndex)
	} else {
		next = next.WithOrderIndex(current.OrderIndex())
	}

	if err := next.Validate(); err != nil {
		return zero, apperror.NewInvalidInput(err.Error(), err)
	}

	updated, err := s.repo.Update(ctx, input.OwnerID, next)
	if err != nil {
		return zero, err
	}
	s.publish(ctx, service.CollectionItemUpdated, input.OwnerID, &input.ID)
	return updated, nil
}

type DeleteInput struct {
	OwnerID uuid.UUID
	ID      uuid.UUID
}

func (s *Service[T]) Delete(ctx context.Context, input DeleteInput) error {
	if input.ID == uuid.Nil {
		return apperror.NewInvalidInput(fmt.Sprintf("%s id is required", s.kind.Label()), nil)
	}
	if err := s.repo.Delete(ctx, input.OwnerID, input.ID); err != nil {
		return err
	}
	s.publish(ctx, service.CollectionItemDeleted, input.OwnerID, &input.ID)
	return nil
}

type FindInput struct {
	OwnerID uuid.UUID
	ID      uuid.UUID
}

func (s *Service[T]) Find(ctx context.Context, input FindInput) (T, error) {
	return s.repo.FindByID(ctx, input.OwnerID, input.ID)
}

type ReorderInput struct {
	OwnerID uuid.UUID
	Entries []collection.OrderEntry
}

// Reorder applies a full new ordering atomically. Entries must name every
// item of the owner's collection exactly once with positions 0..n-1.
func (s *Service[T]) Reorder(ctx context.Context, input ReorderInput) ([]T, error) {
	if err := validateOrder(input.Entries); err != nil {
		return nil, err
	}

	n, err := s.repo.CountByOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if n != len(input.Entries) {
		return nil, apperror.NewInvalidInput(collection.ErrNotPermutation.Error(), collection.ErrNotPermutation)
	}

	if err := s.repo.Reorder(ctx, input.OwnerID, input.Entries); err != nil {
		return nil, err
	}
	s.publish(ctx, service.CollectionItemsOrdered, input.OwnerID, nil)

	return s.repo.ListByOwner(ctx, input.OwnerID)
}

func validateOrder(entries []collection.OrderEntry) error {
	if len(entries) == 0 {
		return apperror.NewInvalidInput("order must not be empty", nil)
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(entries))
	seenIdx := make([]bool, len(entries))
	for _, e := range entries {
		if _, dup := seenIDs[e.ID]; dup || e.ID == uuid.Nil {
			return apperror.NewInvalidInput(collection.ErrNotPermutation.Error(), collection.ErrNotPermutation)
		}
		seenIDs[e.ID] = struct{}{}
		if e.OrderIndex < 0 || e.OrderIndex >= len(entries) || seenIdx[e.OrderIndex] {
			return apperror.NewInvalidInput("order indexes must be 0..n-1", collection.ErrNotPermutation)
		}
		seenIdx[e.OrderIndex] = true
	}
	return nil
}

func (s *Service[T]) publish(ctx context.Context, eventType service.ProfileEventType, ownerID uuid.UUID, itemID *uuid.UUID) {
	evt := service.ProfileEvent{
		EventType:  eventType,
		OwnerID:    ownerID,
		Kind:       string(s.kind),
		ItemID:     itemID,
		OccurredAt: time.Now().UTC(),
	}
	if s.invalidator != nil {
		if err := s.invalidator.Execute(ctx, evt); err != nil {
			s.logger.Error("Failed to invalidate public profile cache", err,
				zap.String("owner_id", ownerID.String()),
				zap.String("event_type", string(eventType)),
			)
		}
	}
	go func() {
		if err := s.publisher.PublishProfileEvent(context.Background(), evt); err != nil {
			s.logger.Error("Failed to publish collection event", err,
				zap.String("owner_id", ownerID.String()),
				zap.String("event_type", string(eventType)),
			)
		}
	}()
}
