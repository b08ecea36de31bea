package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProfileEventType string

const (
	ProfileEventUpdated    ProfileEventType = "PROFILE_UPDATED"
	ProfileEventDeleted    ProfileEventType = "PROFILE_DELETED"
	CollectionItemCreated  ProfileEventType = "ITEM_CREATED"
	CollectionItemUpdated  ProfileEventType = "ITEM_UPDATED"
	CollectionItemDeleted  ProfileEventType = "ITEM_DELETED"
	CollectionItemsOrdered ProfileEventType = "ITEMS_REORDERED"
)

// ProfileEvent announces a change to anything rendered on a public profile.
// PreviousUsername is set when a profile save changed the username.
type ProfileEvent struct {
	EventType        ProfileEventType `json:"event_type"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Kind             string           `json:"kind,omitempty"`
	ItemID           *uuid.UUID       `json:"item_id,omitempty"`
	Username         string           `json:"username,omitempty"`
	PreviousUsername string           `json:"previous_username,omitempty"`
	OccurredAt       time.Time        `json:"occurred_at"`
}

type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, evt ProfileEvent) error
}

// CacheInvalidator drops cached read models affected by an event. It runs
// inline in the request path, before the event is published.
type CacheInvalidator interface {
	Execute(ctx context.Context, evt ProfileEvent) error
}

// NopPublisher drops every event. Used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, ProfileEvent) error { return nil }
