package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
)

// Collection is the remote side of one ordered collection. It satisfies
// editor.Remote.
type Collection[T collection.Item[T]] struct {
	client   *Client
	kind     collection.Kind
	plural   string
	singular string
	atomic   bool
	// creatable is false for kinds added through a dedicated endpoint.
	creatable bool
}

type CollectionOption func(*collectionOptions)

type collectionOptions struct {
	atomic bool
}

// WithAtomicReorder persists a reorder through the bulk endpoint in one
// transaction instead of one request per item.
func WithAtomicReorder() CollectionOption {
	return func(o *collectionOptions) { o.atomic = true }
}

func newCollection[T collection.Item[T]](c *Client, kind collection.Kind, plural, singular string, creatable bool, opts []CollectionOption) *Collection[T] {
	var o collectionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{
		client:    c,
		kind:      kind,
		plural:    plural,
		singular:  singular,
		atomic:    o.atomic,
		creatable: creatable,
	}
}

func (c *Client) WorkExperiences(opts ...CollectionOption) *Collection[experience.WorkExperience] {
	return newCollection[experience.WorkExperience](c, collection.KindWorkExperience, "workExperiences", "workExperience", true, opts)
}

func (c *Client) Projects(opts ...CollectionOption) *Collection[project.Project] {
	return newCollection[project.Project](c, collection.KindProject, "projects", "project", true, opts)
}

func (c *Client) Images(opts ...CollectionOption) *Images {
	return &Images{Collection: newCollection[image.Image](c, collection.KindImage, "images", "image", false, opts)}
}

func (r *Collection[T]) List(ctx context.Context) ([]T, error) {
	var out map[string]json.RawMessage
	if err := r.client.send(ctx, http.MethodGet, r.path(), nil, &out, true); err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if raw, ok := out[r.plural]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, apperror.NewTransport("failed to decode "+r.plural, err)
		}
	}
	return items, nil
}

func (r *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if !r.creatable {
		return zero, apperror.NewInvalidInput(r.kind.Label()+" items are added by upload", nil)
	}
	if err := item.Validate(); err != nil {
		return zero, apperror.NewInvalidInput(err.Error(), err)
	}
	return r.one(ctx, http.MethodPost, item)
}

// Update sends every field of item, so fields cleared locally are cleared
// remotely as well.
func (r *Collection[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	if item.ItemID() == uuid.Nil {
		return zero, apperror.NewInvalidInput(r.kind.Label()+" id is required", nil)
	}
	if err := item.Validate(); err != nil {
		return zero, apperror.NewInvalidInput(err.Error(), err)
	}
	return r.one(ctx, http.MethodPut, item)
}

func (r *Collection[T]) one(ctx context.Context, method string, item T) (T, error) {
	var zero T
	var out map[string]json.RawMessage
	if err := r.client.send(ctx, method, r.path(), item, &out, true); err != nil {
		return zero, err
	}
	var saved T
	raw, ok := out[r.singular]
	if !ok {
		return zero, apperror.NewTransport("response has no "+r.singular, nil)
	}
	if err := json.Unmarshal(raw, &saved); err != nil {
		return zero, apperror.NewTransport("failed to decode "+r.singular, err)
	}
	return saved, nil
}

func (r *Collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.send(ctx, http.MethodDelete, r.path(), map[string]uuid.UUID{"id": id}, nil, true)
}

// PersistOrder writes each entry's position. Without WithAtomicReorder it
// sends one request per entry, keeps going past failures and returns a
// *apperror.PartialFailure naming the entries that did not persist.
func (r *Collection[T]) PersistOrder(ctx context.Context, entries []collection.OrderEntry) error {
	if r.atomic {
		return r.client.send(ctx, http.MethodPut, r.path()+"/order", map[string]any{"order": entries}, nil, true)
	}
	if r.client.token == "" {
		return apperror.NewUnauthorized("no active session", nil)
	}

	var failed []string
	var causes []error
	for _, e := range entries {
		err := r.client.send(ctx, http.MethodPut, r.path(), e, nil, true)
		if err != nil {
			r.client.logger.Warn("Order update failed",
				zap.String("kind", string(r.kind)),
				zap.String("item_id", e.ID.String()),
				zap.Error(err),
			)
			failed = append(failed, e.ID.String())
			causes = append(causes, err)
		}
	}
	if len(failed) > 0 {
		return apperror.NewPartialFailure("reorder "+r.kind.Label(), failed, causes)
	}
	return nil
}

func (r *Collection[T]) path() string {
	return "/api/" + r.kind.Path()
}
