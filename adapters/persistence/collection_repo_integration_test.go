package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type CollectionRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool         *pgxpool.Pool
	pgContainer    *postgres.PostgresContainer
	testLogger     logger.Logger
	projectRepo    collection.Repository[project.Project]
	experienceRepo collection.Repository[experience.WorkExperience]
	imageRepo      collection.Repository[image.Image]
	profileRepo    profile.Repository
	userRepo       user.Repository
	owner          *user.User
	stranger       *user.User
}

func (s *CollectionRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool
	s.testLogger = logger.NewNop()

	s.projectRepo = NewPostgresProjectRepo(s.dbPool, s.testLogger)
	s.experienceRepo = NewPostgresExperienceRepo(s.dbPool, s.testLogger)
	s.imageRepo = NewPostgresImageRepo(s.dbPool, s.testLogger)
	s.profileRepo = NewPostgresProfileRepo(s.dbPool, s.testLogger)
	s.userRepo = NewPostgresUserRepo(s.dbPool, s.testLogger)

	s.owner = s.seedUser("owner@example.com")
	s.stranger = s.seedUser("stranger@example.com")
}

func (s *CollectionRepoIntegrationTestSuite) seedUser(email string) *user.User {
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hashedpassword",
		Provider:     user.ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(context.Background(), u); err != nil {
		s.T().Fatalf("Failed to seed user: %s", err)
	}
	return u
}

func (s *CollectionRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func (s *CollectionRepoIntegrationTestSuite) SetupTest() {
	_, err := s.dbPool.Exec(context.Background(), `TRUNCATE projects, work_experiences, user_images, profiles`)
	s.Require().NoError(err)
}

func TestCollectionRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(CollectionRepoIntegrationTestSuite))
}

func (s *CollectionRepoIntegrationTestSuite) saveProject(name string, order int) project.Project {
	saved, err := s.projectRepo.Save(context.Background(), s.owner.ID, project.Project{
		ID:     uuid.New(),
		UserID: s.owner.ID,
		Name:   name,
		Order:  order,
	})
	s.Require().NoError(err)
	return saved
}

func (s *CollectionRepoIntegrationTestSuite) Test_Save_And_FindByID() {
	ctx := context.Background()
	url := "https://example.com"

	saved, err := s.projectRepo.Save(ctx, s.owner.ID, project.Project{
		ID:     uuid.New(),
		UserID: s.owner.ID,
		Name:   "Folio",
		URL:    &url,
		Order:  0,
	})
	s.Require().NoError(err)
	s.False(saved.CreatedAt.IsZero())

	found, err := s.projectRepo.FindByID(ctx, s.owner.ID, saved.ID)
	s.Require().NoError(err)
	s.Equal("Folio", found.Name)
	s.Equal(url, *found.URL)
	s.Nil(found.Description)
}

func (s *CollectionRepoIntegrationTestSuite) Test_ListByOwner_OrdersByIndex() {
	ctx := context.Background()
	s.saveProject("third", 2)
	s.saveProject("first", 0)
	s.saveProject("second", 1)

	items, err := s.projectRepo.ListByOwner(ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Equal("first", items[0].Name)
	s.Equal("second", items[1].Name)
	s.Equal("third", items[2].Name)

	n, err := s.projectRepo.CountByOwner(ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(3, n)

	others, err := s.projectRepo.ListByOwner(ctx, s.stranger.ID)
	s.Require().NoError(err)
	s.Empty(others)
}

func (s *CollectionRepoIntegrationTestSuite) Test_OtherOwner_CannotTouchItem() {
	ctx := context.Background()
	p := s.saveProject("mine", 0)

	p.Name = "stolen"
	_, err := s.projectRepo.Update(ctx, s.stranger.ID, p)
	s.ErrorIs(err, apperror.ErrNotFound)

	err = s.projectRepo.Delete(ctx, s.stranger.ID, p.ID)
	s.ErrorIs(err, apperror.ErrNotFound)

	err = s.projectRepo.UpdateOrder(ctx, s.stranger.ID, collection.OrderEntry{ID: p.ID, OrderIndex: 4})
	s.ErrorIs(err, apperror.ErrNotFound)

	found, err := s.projectRepo.FindByID(ctx, s.owner.ID, p.ID)
	s.Require().NoError(err)
	s.Equal("mine", found.Name)
	s.Equal(0, found.Order)
}

func (s *CollectionRepoIntegrationTestSuite) Test_Reorder_IsAtomic() {
	ctx := context.Background()
	a := s.saveProject("a", 0)
	b := s.saveProject("b", 1)

	err := s.projectRepo.Reorder(ctx, s.owner.ID, []collection.OrderEntry{
		{ID: b.ID, OrderIndex: 0},
		{ID: a.ID, OrderIndex: 1},
	})
	s.Require().NoError(err)

	items, err := s.projectRepo.ListByOwner(ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{b.ID, a.ID}, []uuid.UUID{items[0].ID, items[1].ID})

	err = s.projectRepo.Reorder(ctx, s.owner.ID, []collection.OrderEntry{
		{ID: a.ID, OrderIndex: 0},
		{ID: uuid.New(), OrderIndex: 1},
	})
	s.ErrorIs(err, apperror.ErrNotFound)

	items, err = s.projectRepo.ListByOwner(ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, items[0].ID, "failed reorder must roll back")
}

func (s *CollectionRepoIntegrationTestSuite) Test_Experience_Dates_RoundTrip() {
	ctx := context.Background()
	start, err := experience.ParseDate("2021-03-01")
	s.Require().NoError(err)

	saved, err := s.experienceRepo.Save(ctx, s.owner.ID, experience.WorkExperience{
		ID:        uuid.New(),
		UserID:    s.owner.ID,
		Company:   "Acme",
		Title:     "Engineer",
		StartDate: start,
	})
	s.Require().NoError(err)
	s.Equal("2021-03-01", saved.StartDate.String())
	s.Nil(saved.EndDate)
	s.True(saved.Current())
}

func (s *CollectionRepoIntegrationTestSuite) Test_Image_KeepsStoragePath() {
	ctx := context.Background()
	saved, err := s.imageRepo.Save(ctx, s.owner.ID, image.Image{
		ID:          uuid.New(),
		UserID:      s.owner.ID,
		URL:         "https://cdn.example.com/a.png",
		StoragePath: s.owner.ID.String() + "/1.png",
	})
	s.Require().NoError(err)
	s.Equal(s.owner.ID.String()+"/1.png", saved.StoragePath)

	s.Require().NoError(s.imageRepo.Delete(ctx, s.owner.ID, saved.ID))
	_, err = s.imageRepo.FindByID(ctx, s.owner.ID, saved.ID)
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *CollectionRepoIntegrationTestSuite) Test_Profile_UsernameUnique() {
	ctx := context.Background()

	now := time.Now().UTC()
	mine := &profile.Profile{UserID: s.owner.ID, Username: "alice", Name: "Alice", CreatedAt: now, UpdatedAt: now}
	s.Require().NoError(s.profileRepo.Upsert(ctx, mine))

	taken, err := s.profileRepo.UsernameTakenByOther(ctx, "alice", s.stranger.ID)
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.profileRepo.UsernameTakenByOther(ctx, "alice", s.owner.ID)
	s.Require().NoError(err)
	s.False(taken)

	err = s.profileRepo.Upsert(ctx, &profile.Profile{UserID: s.stranger.ID, Username: "alice", Name: "Mallory", CreatedAt: now, UpdatedAt: now})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	found, err := s.profileRepo.GetByUsername(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(s.owner.ID, found.UserID)

	s.Require().NoError(s.profileRepo.Delete(ctx, s.owner.ID))
	_, err = s.profileRepo.GetByUserID(ctx, s.owner.ID)
	s.ErrorIs(err, apperror.ErrNotFound)
}
