// Package editor is the client-side state machine for editing one ordered
// collection: at most one item is being added or edited at a time, local
// changes are applied optimistically and then persisted through a Remote.
//
// An Editor is not safe for concurrent use.
package editor

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// Remote persists one collection on behalf of the signed-in user.
type Remote[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PersistOrder(ctx context.Context, entries []collection.OrderEntry) error
}

type Mode int

const (
	Viewing Mode = iota
	Adding
	Editing
)

func (m Mode) String() string {
	switch m {
	case Adding:
		return "adding"
	case Editing:
		return "editing"
	}
	return "viewing"
}

// State is the editor mode. EditingID is set only in Editing.
type State struct {
	Mode      Mode
	EditingID uuid.UUID
}

// Policy decides what happens to local state after a remote failure.
type Policy int

const (
	// PolicyEager keeps the optimistic change and reports the failure.
	PolicyEager Policy = iota
	// PolicyReconcile refetches the collection after any remote failure.
	PolicyReconcile
)

type config struct {
	policy          Policy
	compactOnDelete bool
	ownerID         uuid.UUID
	logger          logger.Logger
	newID           func() uuid.UUID
}

type Option func(*config)

func WithPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithCompactOnDelete renumbers the remaining items after a delete and
// persists the new order.
func WithCompactOnDelete() Option {
	return func(c *config) { c.compactOnDelete = true }
}

// WithOwner stamps new items with the signed-in user's id.
func WithOwner(id uuid.UUID) Option {
	return func(c *config) { c.ownerID = id }
}

func WithLogger(l logger.Logger) Option {
	return func(c *config) { c.logger = l }
}

type Editor[T collection.Item[T]] struct {
	store       *collection.Store[T]
	remote      Remote[T]
	cfg         config
	state       State
	banner      error
	failedOrder []uuid.UUID
}

func New[T collection.Item[T]](remote Remote[T], opts ...Option) *Editor[T] {
	cfg := config{
		policy: PolicyEager,
		logger: logger.NewNop(),
		newID:  uuid.New,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Editor[T]{
		store:  collection.NewStore[T](nil),
		remote: remote,
		cfg:    cfg,
	}
}

// Load replaces local state with the remote collection.
func (e *Editor[T]) Load(ctx context.Context) error {
	items, err := e.remote.List(ctx)
	if err != nil {
		e.banner = err
		return err
	}
	e.store.Set(items)
	e.banner = nil
	e.failedOrder = nil
	return nil
}

// Reconcile refetches the collection and overwrites local state.
func (e *Editor[T]) Reconcile(ctx context.Context) error {
	return e.Load(ctx)
}

func (e *Editor[T]) Items() []T { return e.store.Items() }

func (e *Editor[T]) State() State { return e.state }

// Banner is the last user-visible error, or nil.
func (e *Editor[T]) Banner() error { return e.banner }

func (e *Editor[T]) ClearBanner() { e.banner = nil }

// FailedOrder lists the items whose position could not be persisted by the
// last reorder.
func (e *Editor[T]) FailedOrder() []uuid.UUID {
	return append([]uuid.UUID(nil), e.failedOrder...)
}

// StartAdd enters Adding. It reports false, and does nothing, unless the
// editor is Viewing.
func (e *Editor[T]) StartAdd() bool {
	if e.state.Mode != Viewing {
		return false
	}
	e.state = State{Mode: Adding}
	return true
}

// StartEdit enters Editing for id. Unknown ids and non-Viewing states are
// no-ops reporting false.
func (e *Editor[T]) StartEdit(id uuid.UUID) bool {
	if e.state.Mode != Viewing {
		return false
	}
	if _, ok := e.store.Get(id); !ok {
		return false
	}
	e.state = State{Mode: Editing, EditingID: id}
	return true
}

func (e *Editor[T]) Cancel() {
	e.state = State{Mode: Viewing}
}

// Save submits the form of the current Adding or Editing state. A validation
// failure leaves both state and store untouched. Otherwise the change is
// applied locally first and the editor is back in Viewing once the remote
// call has resolved, successful or not.
func (e *Editor[T]) Save(ctx context.Context, item T) error {
	switch e.state.Mode {
	case Adding:
		return e.saveNew(ctx, item)
	case Editing:
		return e.saveEdit(ctx, item)
	}
	return apperror.NewInvalidInput("nothing is being added or edited", nil)
}

func (e *Editor[T]) saveNew(ctx context.Context, item T) error {
	if err := item.Validate(); err != nil {
		return apperror.NewInvalidInput(err.Error(), err)
	}

	id := item.ItemID()
	if id == uuid.Nil {
		id = e.cfg.newID()
	} else if _, exists := e.store.Get(id); exists {
		return apperror.NewInvalidInput("item already exists", nil)
	}
	item = item.WithIdentity(id, e.cfg.ownerID)

	e.store.Insert(item)
	local, _ := e.store.Get(id)

	created, err := e.remote.Create(ctx, local)
	e.state = State{Mode: Viewing}
	if err != nil {
		return e.fail(ctx, "create", err, zap.String("item_id", id.String()))
	}
	if created.ItemID() == id {
		e.store.Replace(id, created)
	}
	return nil
}

func (e *Editor[T]) saveEdit(ctx context.Context, item T) error {
	if err := item.Validate(); err != nil {
		return apperror.NewInvalidInput(err.Error(), err)
	}

	id := e.state.EditingID
	item = item.WithIdentity(id, e.cfg.ownerID)
	if _, err := e.store.Replace(id, item); err != nil {
		// deleted underneath us, e.g. by a reconcile
		e.state = State{Mode: Viewing}
		return apperror.NewNotFound("item", id.String())
	}
	local, _ := e.store.Get(id)

	updated, err := e.remote.Update(ctx, local)
	e.state = State{Mode: Viewing}
	if err != nil {
		return e.fail(ctx, "update", err, zap.String("item_id", id.String()))
	}
	e.store.Replace(id, updated)
	return nil
}

// Delete removes id locally, then remotely.
func (e *Editor[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := e.store.Get(id); !ok {
		return apperror.NewNotFound("item", id.String())
	}
	e.store.Remove(id)
	if e.state.Mode == Editing && e.state.EditingID == id {
		e.state = State{Mode: Viewing}
	}

	if err := e.remote.Delete(ctx, id); err != nil {
		return e.fail(ctx, "delete", err, zap.String("item_id", id.String()))
	}

	if e.cfg.compactOnDelete && !collection.IsContiguous(e.store.Items()) {
		return e.persistOrder(ctx, e.store.Compact())
	}
	return nil
}

// Reorder applies seq, which must be a permutation of the current items,
// then persists every item's new position.
func (e *Editor[T]) Reorder(ctx context.Context, seq []T) error {
	next, err := e.store.Reorder(seq)
	if err != nil {
		return apperror.NewInvalidInput(err.Error(), err)
	}
	return e.persistOrder(ctx, next)
}

// Move is the drag-and-drop gesture from index from to index to.
func (e *Editor[T]) Move(ctx context.Context, from, to int) error {
	if from == to {
		return nil
	}
	next, err := e.store.Move(from, to)
	if err != nil {
		return apperror.NewInvalidInput(err.Error(), err)
	}
	return e.persistOrder(ctx, next)
}

func (e *Editor[T]) persistOrder(ctx context.Context, items []T) error {
	entries := collection.OrderOf(items)
	e.failedOrder = nil

	err := e.remote.PersistOrder(ctx, entries)
	if err == nil {
		return nil
	}

	var partial *apperror.PartialFailure
	if errors.As(err, &partial) {
		for _, raw := range partial.Failed {
			if id, perr := uuid.Parse(raw); perr == nil {
				e.failedOrder = append(e.failedOrder, id)
			}
		}
	} else {
		for _, en := range entries {
			e.failedOrder = append(e.failedOrder, en.ID)
		}
	}
	for _, id := range e.failedOrder {
		e.cfg.logger.Warn("Order update failed", zap.String("item_id", id.String()))
	}
	return e.fail(ctx, "reorder", err, zap.Int("failed", len(e.failedOrder)))
}

// fail records err on the banner and applies the failure policy.
func (e *Editor[T]) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	e.banner = err
	e.cfg.logger.Error("Remote "+op+" failed", err, fields...)

	if e.cfg.policy == PolicyReconcile {
		failedOrder := e.failedOrder
		if rerr := e.Load(ctx); rerr != nil {
			e.cfg.logger.Error("Reconcile after failure failed", rerr)
		}
		// keep reporting the original failure
		e.banner = err
		e.failedOrder = failedOrder
	}
	return err
}
