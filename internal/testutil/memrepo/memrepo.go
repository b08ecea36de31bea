// Package memrepo holds in-memory repositories with the same owner scoping
// and error values as the Postgres adapters. Tests only.
package memrepo

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
)

type row[T any] struct {
	owner uuid.UUID
	item  T
	seq   int
}

type Collection[T collection.Item[T]] struct {
	mu   sync.Mutex
	kind collection.Kind
	rows map[uuid.UUID]row[T]
	seq  int
	// FailOrder makes UpdateOrder fail for the listed ids.
	FailOrder map[uuid.UUID]bool
}

func NewCollection[T collection.Item[T]](kind collection.Kind) *Collection[T] {
	return &Collection[T]{kind: kind, rows: map[uuid.UUID]row[T]{}, FailOrder: map[uuid.UUID]bool{}}
}

func (r *Collection[T]) get(ownerID, id uuid.UUID) (row[T], error) {
	cur, ok := r.rows[id]
	if !ok || cur.owner != ownerID {
		return row[T]{}, apperror.NewNotFound(r.kind.Label(), id.String())
	}
	return cur, nil
}

func (r *Collection[T]) Save(_ context.Context, ownerID uuid.UUID, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[item.ItemID()]; exists {
		var zero T
		return zero, apperror.NewInvalidInput(r.kind.Label()+" already exists", nil)
	}
	item = item.WithIdentity(item.ItemID(), ownerID)
	r.seq++
	r.rows[item.ItemID()] = row[T]{owner: ownerID, item: item, seq: r.seq}
	return item, nil
}

func (r *Collection[T]) Update(_ context.Context, ownerID uuid.UUID, item T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, err := r.get(ownerID, item.ItemID())
	if err != nil {
		var zero T
		return zero, err
	}
	cur.item = item.WithIdentity(item.ItemID(), ownerID)
	r.rows[item.ItemID()] = cur
	return cur.item, nil
}

func (r *Collection[T]) UpdateOrder(_ context.Context, ownerID uuid.UUID, e collection.OrderEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateOrder(ownerID, e)
}

func (r *Collection[T]) updateOrder(ownerID uuid.UUID, e collection.OrderEntry) error {
	if r.FailOrder[e.ID] {
		return apperror.NewInternal("order update failed", nil)
	}
	cur, err := r.get(ownerID, e.ID)
	if err != nil {
		return err
	}
	cur.item = cur.item.WithOrderIndex(e.OrderIndex)
	r.rows[e.ID] = cur
	return nil
}

// Reorder is all or nothing, like the transactional repository.
func (r *Collection[T]) Reorder(_ context.Context, ownerID uuid.UUID, entries []collection.OrderEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[uuid.UUID]row[T], len(r.rows))
	for k, v := range r.rows {
		snapshot[k] = v
	}
	for _, e := range entries {
		if err := r.updateOrder(ownerID, e); err != nil {
			r.rows = snapshot
			return err
		}
	}
	return nil
}

func (r *Collection[T]) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.get(ownerID, id); err != nil {
		return err
	}
	delete(r.rows, id)
	return nil
}

func (r *Collection[T]) FindByID(_ context.Context, ownerID, id uuid.UUID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, err := r.get(ownerID, id)
	return cur.item, err
}

func (r *Collection[T]) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]row[T], 0)
	for _, cur := range r.rows {
		if cur.owner == ownerID {
			rows = append(rows, cur)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].item.OrderIndex() != rows[j].item.OrderIndex() {
			return rows[i].item.OrderIndex() < rows[j].item.OrderIndex()
		}
		return rows[i].seq < rows[j].seq
	})
	items := make([]T, len(rows))
	for i, cur := range rows {
		items[i] = cur.item
	}
	return items, nil
}

func (r *Collection[T]) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	items, err := r.ListByOwner(ctx, ownerID)
	return len(items), err
}

type Users struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func NewUsers() *Users {
	return &Users{users: map[uuid.UUID]user.User{}}
}

func (r *Users) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *Users) FindByProvider(_ context.Context, provider, providerUserID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderUserID != nil && *u.ProviderUserID == providerUserID {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", provider+":"+providerUserID)
}

func (r *Users) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewInvalidInput("an account with this email already exists", nil)
		}
	}
	r.users[u.ID] = *u
	return nil
}

type Profiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
}

func NewProfiles() *Profiles {
	return &Profiles{profiles: map[uuid.UUID]profile.Profile{}}
}

func (r *Profiles) GetByUserID(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("profile", userID.String())
	}
	return &p, nil
}

func (r *Profiles) GetByUsername(_ context.Context, username string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("profile", username)
}

func (r *Profiles) UsernameTakenByOther(_ context.Context, username string, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username && p.UserID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Profiles) Upsert(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = *p
	return nil
}

func (r *Profiles) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		return apperror.NewNotFound("profile", userID.String())
	}
	delete(r.profiles, userID)
	return nil
}

// PublicCache keeps assembled public profiles by username and ignores TTLs.
type PublicCache struct {
	mu      sync.Mutex
	entries map[string]profile.Public
}

func NewPublicCache() *PublicCache {
	return &PublicCache{entries: map[string]profile.Public{}}
}

func (c *PublicCache) Get(_ context.Context, username string) (*profile.Public, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[username]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *PublicCache) Set(_ context.Context, p *profile.Public, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.Profile.Username] = *p
	return nil
}

func (c *PublicCache) Invalidate(_ context.Context, usernames ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range usernames {
		delete(c.entries, u)
	}
	return nil
}

// Cached reports whether username currently has an entry.
func (c *PublicCache) Cached(username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[username]
	return ok
}

type Sessions struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func NewSessions() *Sessions {
	return &Sessions{ids: map[string]time.Time{}}
}

func (s *Sessions) Save(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[sess.ID] = sess.ExpiresAt
	return nil
}

func (s *Sessions) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.ids[id]
	return ok && exp.After(time.Now()), nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	return nil
}

// Storage is an ObjectStorage with a fixed bucket list.
type Storage struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	Uploads int
}

func NewStorage(buckets ...string) *Storage {
	s := &Storage{buckets: map[string]bool{}, objects: map[string][]byte{}}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	return s
}

func (s *Storage) Upload(_ context.Context, bucket, path string, file io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.buckets[bucket] {
		return service.ErrBucketNotFound
	}
	b, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.Uploads++
	s.objects[bucket+"/"+path] = b
	return nil
}

func (s *Storage) PublicURL(bucket, path string) string {
	return "https://storage.example/" + bucket + "/" + path
}

func (s *Storage) Remove(_ context.Context, bucket string, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.buckets[bucket] {
		return service.ErrBucketNotFound
	}
	for _, p := range paths {
		delete(s.objects, bucket+"/"+p)
	}
	return nil
}

func (s *Storage) Has(bucket, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+strings.TrimPrefix(path, "/")]
	return ok
}
