package collection

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// memProjectRepo mirrors the owner scoping of the Postgres repository.
type memProjectRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]project.Project
}

func newMemProjectRepo() *memProjectRepo {
	return &memProjectRepo{rows: map[uuid.UUID]project.Project{}}
}

func (r *memProjectRepo) Save(_ context.Context, ownerID uuid.UUID, p project.Project) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.UserID = ownerID
	r.rows[p.ID] = p
	return p, nil
}

func (r *memProjectRepo) Update(_ context.Context, ownerID uuid.UUID, p project.Project) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[p.ID]
	if !ok || cur.UserID != ownerID {
		return project.Project{}, apperror.NewNotFound("project", p.ID.String())
	}
	r.rows[p.ID] = p
	return p, nil
}

func (r *memProjectRepo) UpdateOrder(_ context.Context, ownerID uuid.UUID, e collection.OrderEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[e.ID]
	if !ok || cur.UserID != ownerID {
		return apperror.NewNotFound("project", e.ID.String())
	}
	cur.Order = e.OrderIndex
	r.rows[e.ID] = cur
	return nil
}

func (r *memProjectRepo) Reorder(ctx context.Context, ownerID uuid.UUID, entries []collection.OrderEntry) error {
	for _, e := range entries {
		if err := r.UpdateOrder(ctx, ownerID, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.UserID != ownerID {
		return apperror.NewNotFound("project", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *memProjectRepo) FindByID(_ context.Context, ownerID, id uuid.UUID) (project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok || cur.UserID != ownerID {
		return project.Project{}, apperror.NewNotFound("project", id.String())
	}
	return cur, nil
}

func (r *memProjectRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []project.Project{}
	for _, p := range r.rows {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *memProjectRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	items, err := r.ListByOwner(ctx, ownerID)
	return len(items), err
}

type ServiceTestSuite struct {
	suite.Suite
	repo  *memProjectRepo
	svc   *Service[project.Project]
	owner uuid.UUID
	other uuid.UUID
}

func (s *ServiceTestSuite) SetupTest() {
	s.repo = newMemProjectRepo()
	s.svc = NewService[project.Project](collection.KindProject, s.repo, service.NopPublisher{}, nil, logger.NewNop())
	s.owner = uuid.New()
	s.other = uuid.New()
}

func TestService(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) create(owner uuid.UUID, name string) project.Project {
	p, err := s.svc.Create(context.Background(), CreateInput[project.Project]{
		OwnerID: owner,
		Item:    project.Project{Name: name},
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceTestSuite) Test_Create_AppendsAtEnd() {
	a := s.create(s.owner, "a")
	b := s.create(s.owner, "b")
	c := s.create(s.other, "c")

	s.Equal(0, a.Order)
	s.Equal(1, b.Order)
	s.Equal(0, c.Order)
	s.NotEqual(uuid.Nil, a.ID)
	s.Equal(s.owner, a.UserID)
}

func (s *ServiceTestSuite) Test_Create_RequiresName() {
	_, err := s.svc.Create(context.Background(), CreateInput[project.Project]{OwnerID: s.owner})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	items, _ := s.svc.List(context.Background(), ListInput{OwnerID: s.owner})
	s.Empty(items)
}

func (s *ServiceTestSuite) Test_Update_OtherOwnerIsNotFound() {
	ctx := context.Background()
	mine := s.create(s.owner, "mine")

	_, err := s.svc.Update(ctx, UpdateInput[project.Project]{
		OwnerID: s.other,
		ID:      mine.ID,
		Apply: func(p project.Project) project.Project {
			p.Name = "stolen"
			return p
		},
	})
	s.ErrorIs(err, apperror.ErrNotFound)

	err = s.svc.Delete(ctx, DeleteInput{OwnerID: s.other, ID: mine.ID})
	s.ErrorIs(err, apperror.ErrNotFound)

	got, err := s.svc.Find(ctx, FindInput{OwnerID: s.owner, ID: mine.ID})
	s.Require().NoError(err)
	s.Equal("mine", got.Name)
}

func (s *ServiceTestSuite) Test_Update_PatchKeepsOrder() {
	ctx := context.Background()
	s.create(s.owner, "a")
	b := s.create(s.owner, "b")

	year := "2024"
	got, err := s.svc.Update(ctx, UpdateInput[project.Project]{
		OwnerID: s.owner,
		ID:      b.ID,
		Apply: func(p project.Project) project.Project {
			p.Year = &year
			return p
		},
	})
	s.Require().NoError(err)
	s.Equal("b", got.Name)
	s.Equal(1, got.Order)
	s.Equal("2024", *got.Year)
}

func (s *ServiceTestSuite) Test_Update_OrderOnly() {
	ctx := context.Background()
	a := s.create(s.owner, "a")

	pos := 3
	got, err := s.svc.Update(ctx, UpdateInput[project.Project]{OwnerID: s.owner, ID: a.ID, OrderIndex: &pos})
	s.Require().NoError(err)
	s.Equal(3, got.Order)
}

func (s *ServiceTestSuite) Test_Reorder() {
	ctx := context.Background()
	a := s.create(s.owner, "a")
	b := s.create(s.owner, "b")
	c := s.create(s.owner, "c")

	items, err := s.svc.Reorder(ctx, ReorderInput{OwnerID: s.owner, Entries: []collection.OrderEntry{
		{ID: c.ID, OrderIndex: 0}, {ID: a.ID, OrderIndex: 1}, {ID: b.ID, OrderIndex: 2},
	}})
	s.Require().NoError(err)
	s.Equal([]string{"c", "a", "b"}, names(items))
	s.True(collection.IsContiguous(items))
}

func (s *ServiceTestSuite) Test_Reorder_RejectsPartialOrDuplicate() {
	ctx := context.Background()
	a := s.create(s.owner, "a")
	b := s.create(s.owner, "b")

	cases := map[string][]collection.OrderEntry{
		"partial":         {{ID: a.ID, OrderIndex: 0}},
		"duplicate id":    {{ID: a.ID, OrderIndex: 0}, {ID: a.ID, OrderIndex: 1}},
		"duplicate index": {{ID: a.ID, OrderIndex: 0}, {ID: b.ID, OrderIndex: 0}},
		"out of range":    {{ID: a.ID, OrderIndex: 0}, {ID: b.ID, OrderIndex: 5}},
		"empty":           {},
	}
	for name, entries := range cases {
		s.Run(name, func() {
			_, err := s.svc.Reorder(ctx, ReorderInput{OwnerID: s.owner, Entries: entries})
			s.ErrorIs(err, apperror.ErrInvalidInput)
		})
	}
}

func TestValidateOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	require.NoError(t, validateOrder([]collection.OrderEntry{{ID: b, OrderIndex: 0}, {ID: a, OrderIndex: 1}}))
	assert.Error(t, validateOrder([]collection.OrderEntry{{ID: uuid.Nil, OrderIndex: 0}}))
}

func names(items []project.Project) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}
