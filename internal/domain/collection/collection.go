// Package collection holds what the three ordered profile collections (work
// experience, projects, images) have in common: their kind, the item
// contract and the in-memory ordered Store.
package collection

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Kind string

const (
	KindWorkExperience Kind = "work_experience"
	KindProject        Kind = "project"
	KindImage          Kind = "image"
)

var (
	ErrNotPermutation = errors.New("new order must contain exactly the current items")
	ErrUnknownItem    = errors.New("item not in collection")
)

func (k Kind) Table() string {
	switch k {
	case KindWorkExperience:
		return "work_experiences"
	case KindProject:
		return "projects"
	case KindImage:
		return "user_images"
	}
	return ""
}

// Path is the API resource segment for the kind.
func (k Kind) Path() string {
	switch k {
	case KindWorkExperience:
		return "work-experiences"
	case KindProject:
		return "projects"
	case KindImage:
		return "images"
	}
	return ""
}

func (k Kind) Label() string {
	switch k {
	case KindWorkExperience:
		return "work experience"
	case KindProject:
		return "project"
	case KindImage:
		return "image"
	}
	return string(k)
}

// Item is implemented by the value types of every ordered collection.
// The With methods return copies, so a Store never shares state with callers.
type Item[T any] interface {
	ItemID() uuid.UUID
	OrderIndex() int
	WithOrderIndex(i int) T
	WithIdentity(id, userID uuid.UUID) T
	Validate() error
}

// OrderEntry is one (id, position) pair of a reorder.
type OrderEntry struct {
	ID         uuid.UUID `json:"id"`
	OrderIndex int       `json:"order_index"`
}

// Repository is the owner-scoped persistence contract shared by the three
// collections. Every mutation filters on both id and ownerID; a row owned by
// someone else is reported as not found. Save and Update return the stored
// row.
type Repository[T any] interface {
	Save(ctx context.Context, ownerID uuid.UUID, item T) (T, error)
	Update(ctx context.Context, ownerID uuid.UUID, item T) (T, error)
	UpdateOrder(ctx context.Context, ownerID uuid.UUID, entry OrderEntry) error
	Reorder(ctx context.Context, ownerID uuid.UUID, entries []OrderEntry) error
	Delete(ctx context.Context, ownerID uuid.UUID, id uuid.UUID) error
	FindByID(ctx context.Context, ownerID uuid.UUID, id uuid.UUID) (T, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// OrderOf extracts the (id, order_index) pairs of items in sequence order.
func OrderOf[T Item[T]](items []T) []OrderEntry {
	entries := make([]OrderEntry, len(items))
	for i, it := range items {
		entries[i] = OrderEntry{ID: it.ItemID(), OrderIndex: it.OrderIndex()}
	}
	return entries
}

// IsContiguous reports whether the order indexes of items are exactly
// 0..n-1 in sequence order.
func IsContiguous[T Item[T]](items []T) bool {
	for i, it := range items {
		if it.OrderIndex() != i {
			return false
		}
	}
	return true
}
