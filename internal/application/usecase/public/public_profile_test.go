package public

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type stubProfiles struct {
	byName map[string]profile.Profile
	err    error
}

func (s *stubProfiles) GetByUserID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	for _, p := range s.byName {
		if p.UserID == id {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("profile", id.String())
}

func (s *stubProfiles) GetByUsername(_ context.Context, username string) (*profile.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byName[username]
	if !ok {
		return nil, apperror.NewNotFound("profile", username)
	}
	return &p, nil
}

func (s *stubProfiles) UsernameTakenByOther(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubProfiles) Upsert(context.Context, *profile.Profile) error  { return nil }
func (s *stubProfiles) Delete(context.Context, uuid.UUID) error          { return nil }

type stubLister[T any] struct {
	items map[uuid.UUID][]T
	err   error
	calls int
}

func (s *stubLister[T]) ListByOwner(_ context.Context, owner uuid.UUID) ([]T, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]T(nil), s.items[owner]...), nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*profile.Public
}

func (c *memCache) Get(_ context.Context, username string) (*profile.Public, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[username], nil
}

func (c *memCache) Set(_ context.Context, p *profile.Public, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.Profile.Username] = p
	return nil
}

func (c *memCache) Invalidate(_ context.Context, usernames ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range usernames {
		delete(c.entries, u)
	}
	return nil
}

type fixture struct {
	alice    profile.Profile
	profiles *stubProfiles
	exps     *stubLister[experience.WorkExperience]
	projects *stubLister[project.Project]
	images   *stubLister[image.Image]
}

func newFixture() *fixture {
	alice := profile.Profile{UserID: uuid.New(), Username: "alice", Name: "Alice"}
	return &fixture{
		alice:    alice,
		profiles: &stubProfiles{byName: map[string]profile.Profile{"alice": alice}},
		exps:     &stubLister[experience.WorkExperience]{items: map[uuid.UUID][]experience.WorkExperience{}},
		projects: &stubLister[project.Project]{items: map[uuid.UUID][]project.Project{
			alice.UserID: {
				{ID: uuid.New(), UserID: alice.UserID, Name: "second", Order: 1},
				{ID: uuid.New(), UserID: alice.UserID, Name: "first", Order: 0},
			},
		}},
		images: &stubLister[image.Image]{items: map[uuid.UUID][]image.Image{}},
	}
}

func (f *fixture) useCase(cache profile.PublicCache) *GetPublicProfileUseCase {
	return NewGetPublicProfileUseCase(f.profiles, f.exps, f.projects, f.images, cache, time.Minute, logger.NewNop())
}

func TestGetPublicProfile_OrdersCollections(t *testing.T) {
	f := newFixture()
	out, err := f.useCase(nil).Execute(context.Background(), GetPublicProfileInput{Username: "ALICE"})
	require.NoError(t, err)

	require.Len(t, out.Public.Projects, 2)
	assert.Equal(t, "first", out.Public.Projects[0].Name)
	assert.Equal(t, "second", out.Public.Projects[1].Name)
	assert.NotNil(t, out.Public.WorkExperiences)
	assert.NotNil(t, out.Public.Images)
	assert.Equal(t, f.alice.UserID, out.Public.Profile.UserID)
}

func TestGetPublicProfile_UnknownUser(t *testing.T) {
	f := newFixture()
	_, err := f.useCase(nil).Execute(context.Background(), GetPublicProfileInput{Username: "bob"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, f.projects.calls)
}

func TestGetPublicProfile_LookupErrorIsNotFound(t *testing.T) {
	f := newFixture()
	f.profiles.err = errors.New("connection reset")
	_, err := f.useCase(nil).Execute(context.Background(), GetPublicProfileInput{Username: "alice"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetPublicProfile_CollectionErrorIsInternal(t *testing.T) {
	f := newFixture()
	f.images.err = errors.New("timeout")
	_, err := f.useCase(nil).Execute(context.Background(), GetPublicProfileInput{Username: "alice"})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestGetPublicProfile_CacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	cache := &memCache{entries: map[string]*profile.Public{}}
	uc := f.useCase(cache)

	_, err := uc.Execute(ctx, GetPublicProfileInput{Username: "alice"})
	require.NoError(t, err)
	_, err = uc.Execute(ctx, GetPublicProfileInput{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.projects.calls)

	inv := NewInvalidateCacheUseCase(f.profiles, cache, logger.NewNop())
	require.NoError(t, inv.Execute(ctx, service.ProfileEvent{
		EventType: service.CollectionItemCreated,
		OwnerID:   f.alice.UserID,
	}))
	assert.Empty(t, cache.entries)

	_, err = uc.Execute(ctx, GetPublicProfileInput{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.projects.calls)
}

func TestFeed(t *testing.T) {
	f := newFixture()
	feed, err := NewFeedUseCase(f.useCase(nil), "https://folio.example/", logger.NewNop()).
		Execute(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "https://folio.example/alice", feed.Link.Href)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "first", feed.Items[0].Title)

	rss, err := feed.ToRss()
	require.NoError(t, err)
	assert.Contains(t, rss, "<title>second</title>")
}
