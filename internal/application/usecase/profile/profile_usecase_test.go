package profile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/testutil/memrepo"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]profile.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: map[uuid.UUID]profile.Profile{}}
}

func (r *memProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("profile", userID.String())
	}
	return &p, nil
}

func (r *memProfileRepo) GetByUsername(_ context.Context, username string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("profile", username)
}

func (r *memProfileRepo) UsernameTakenByOther(_ context.Context, username string, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username && p.UserID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memProfileRepo) Upsert(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = *p
	return nil
}

func (r *memProfileRepo) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[userID]; !ok {
		return apperror.NewNotFound("profile", userID.String())
	}
	delete(r.profiles, userID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.ProfileEvent
}

func (p *recordingPublisher) PublishProfileEvent(_ context.Context, evt service.ProfileEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) snapshot() []service.ProfileEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.ProfileEvent(nil), p.events...)
}

func TestSaveProfile_UsernameUniqueAcrossCase(t *testing.T) {
	ctx := context.Background()
	uc := NewProfileUseCase(newMemProfileRepo(), service.NopPublisher{}, nil, logger.NewNop())
	alice, bob := uuid.New(), uuid.New()

	out, err := uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: alice, Username: "Alice", Name: "Alice A."})
	require.NoError(t, err)
	assert.Equal(t, "alice", out.Profile.Username)

	_, err = uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: bob, Username: "ALICE", Name: "Bob B."})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "Username is already taken", apperror.UserMessage(err))

	// re-saving your own username is fine
	_, err = uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: alice, Username: "alice", Name: "Alice Again"})
	assert.NoError(t, err)
}

func TestSaveProfile_Validation(t *testing.T) {
	uc := NewProfileUseCase(newMemProfileRepo(), service.NopPublisher{}, nil, logger.NewNop())
	cases := map[string]SaveProfileInput{
		"empty username": {OwnerID: uuid.New(), Name: "x"},
		"bad characters": {OwnerID: uuid.New(), Username: "not ok!", Name: "x"},
		"missing name":   {OwnerID: uuid.New(), Username: "fine"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.ExecuteSaveProfile(context.Background(), in)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
}

func TestGetProfile_MissingIsNil(t *testing.T) {
	uc := NewProfileUseCase(newMemProfileRepo(), service.NopPublisher{}, nil, logger.NewNop())
	out, err := uc.ExecuteGetProfile(context.Background(), GetProfileInput{OwnerID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, out.Profile)
}

func TestSaveProfile_PublishesRename(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	uc := NewProfileUseCase(newMemProfileRepo(), pub, nil, logger.NewNop())
	owner := uuid.New()

	_, err := uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: owner, Username: "first", Name: "N"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	_, err = uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: owner, Username: "second", Name: "N"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(pub.snapshot()) == 2 }, time.Second, 10*time.Millisecond)

	var rename *service.ProfileEvent
	for _, e := range pub.snapshot() {
		if e.Username == "second" {
			e := e
			rename = &e
		}
	}
	require.NotNil(t, rename)
	assert.Equal(t, "first", rename.PreviousUsername)
}

func TestDeleteProfile(t *testing.T) {
	ctx := context.Background()
	uc := NewProfileUseCase(newMemProfileRepo(), service.NopPublisher{}, nil, logger.NewNop())
	owner := uuid.New()

	err := uc.ExecuteDeleteProfile(ctx, DeleteProfileInput{OwnerID: owner})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = uc.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: owner, Username: "gone", Name: "N"})
	require.NoError(t, err)
	require.NoError(t, uc.ExecuteDeleteProfile(ctx, DeleteProfileInput{OwnerID: owner}))

	out, err := uc.ExecuteGetProfile(ctx, GetProfileInput{OwnerID: owner})
	require.NoError(t, err)
	assert.Nil(t, out.Profile)
}

type cachedPublicFixture struct {
	profiles *ProfileUseCase
	public   *publicUC.GetPublicProfileUseCase
	cache    *memrepo.PublicCache
}

// newCachedPublicFixture wires the profile use case without a broker, the
// way the server runs when Kafka is not configured.
func newCachedPublicFixture() *cachedPublicFixture {
	log := logger.NewNop()
	repo := memrepo.NewProfiles()
	cache := memrepo.NewPublicCache()
	return &cachedPublicFixture{
		profiles: NewProfileUseCase(repo, service.NopPublisher{}, publicUC.NewInvalidateCacheUseCase(repo, cache, log), log),
		public: publicUC.NewGetPublicProfileUseCase(repo,
			memrepo.NewCollection[experience.WorkExperience](collection.KindWorkExperience),
			memrepo.NewCollection[project.Project](collection.KindProject),
			memrepo.NewCollection[image.Image](collection.KindImage),
			cache, time.Minute, log),
		cache: cache,
	}
}

func (f *cachedPublicFixture) lookup(t *testing.T, username string) (*profile.Public, error) {
	t.Helper()
	out, err := f.public.Execute(context.Background(), publicUC.GetPublicProfileInput{Username: username})
	if err != nil {
		return nil, err
	}
	return out.Public, nil
}

func TestSaveProfile_RenameClearsPublicCache(t *testing.T) {
	ctx := context.Background()
	f := newCachedPublicFixture()
	original, other := uuid.New(), uuid.New()

	_, err := f.profiles.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: original, Username: "alice", Name: "Alice"})
	require.NoError(t, err)
	_, err = f.lookup(t, "alice")
	require.NoError(t, err)
	require.True(t, f.cache.Cached("alice"))

	_, err = f.profiles.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: original, Username: "alice2", Name: "Alice"})
	require.NoError(t, err)
	assert.False(t, f.cache.Cached("alice"))
	_, err = f.lookup(t, "alice")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.profiles.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: other, Username: "alice", Name: "Second Alice"})
	require.NoError(t, err)
	pub, err := f.lookup(t, "alice")
	require.NoError(t, err)
	assert.Equal(t, other, pub.Profile.UserID)
	assert.Equal(t, "Second Alice", pub.Profile.Name)

	pub, err = f.lookup(t, "alice2")
	require.NoError(t, err)
	assert.Equal(t, original, pub.Profile.UserID)
}

func TestDeleteProfile_ClearsPublicCache(t *testing.T) {
	ctx := context.Background()
	f := newCachedPublicFixture()
	owner := uuid.New()

	_, err := f.profiles.ExecuteSaveProfile(ctx, SaveProfileInput{OwnerID: owner, Username: "bob", Name: "Bob"})
	require.NoError(t, err)
	_, err = f.lookup(t, "bob")
	require.NoError(t, err)

	require.NoError(t, f.profiles.ExecuteDeleteProfile(ctx, DeleteProfileInput{OwnerID: owner}))
	_, err = f.lookup(t, "bob")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
