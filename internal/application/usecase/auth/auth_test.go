package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/folio/internal/domain/session"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *memUserRepo) FindByProvider(_ context.Context, provider, providerUserID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderUserID != nil && *u.ProviderUserID == providerUserID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", providerUserID)
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

type memSessionStore struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (s *memSessionStore) Save(_ context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[sess.ID] = sess.ExpiresAt
	return nil
}

func (s *memSessionStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok, nil
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	return nil
}

type fakeProvider struct {
	identity *auth.OAuthIdentity
}

func (p *fakeProvider) Name() string { return "github" }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (p *fakeProvider) Exchange(context.Context, string) (*auth.OAuthIdentity, error) {
	return p.identity, nil
}

type AuthUseCaseTestSuite struct {
	suite.Suite
	users    *memUserRepo
	store    *memSessionStore
	sessions *SessionManager
	signup   *SignupUseCase
	login    *LoginUseCase
}

func (s *AuthUseCaseTestSuite) SetupTest() {
	log := logger.NewNop()
	s.users = newMemUserRepo()
	s.store = &memSessionStore{ids: map[string]time.Time{}}
	s.sessions = NewSessionManager(auth.NewJWTService("test-secret", time.Hour), s.store, log)
	s.signup = NewSignupUseCase(s.users, s.sessions, log)
	s.login = NewLoginUseCase(s.users, s.sessions, log)
}

func TestAuthUseCases(t *testing.T) {
	suite.Run(t, new(AuthUseCaseTestSuite))
}

func (s *AuthUseCaseTestSuite) Test_Signup_Then_Login() {
	ctx := context.Background()

	out, err := s.signup.Execute(ctx, SignupInput{Email: " Ada@Example.com ", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal("ada@example.com", out.User.Email)
	s.NotEmpty(out.Session.Token)

	loggedIn, err := s.login.Execute(ctx, LoginInput{Email: "ada@example.com", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal(out.User.ID, loggedIn.Session.UserID)
}

func (s *AuthUseCaseTestSuite) Test_Signup_DuplicateEmail() {
	ctx := context.Background()
	_, err := s.signup.Execute(ctx, SignupInput{Email: "ada@example.com", Password: "correct horse"})
	s.Require().NoError(err)

	_, err = s.signup.Execute(ctx, SignupInput{Email: "ADA@example.com", Password: "another one"})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *AuthUseCaseTestSuite) Test_Signup_ShortPassword() {
	_, err := s.signup.Execute(context.Background(), SignupInput{Email: "ada@example.com", Password: "short"})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *AuthUseCaseTestSuite) Test_Login_WrongPassword() {
	ctx := context.Background()
	_, err := s.signup.Execute(ctx, SignupInput{Email: "ada@example.com", Password: "correct horse"})
	s.Require().NoError(err)

	_, err = s.login.Execute(ctx, LoginInput{Email: "ada@example.com", Password: "battery staple"})
	s.ErrorIs(err, apperror.ErrUnauthorized)

	_, err = s.login.Execute(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	s.ErrorIs(err, apperror.ErrUnauthorized)
}

func (s *AuthUseCaseTestSuite) Test_SignOut_RevokesSession() {
	ctx := context.Background()
	issued, err := s.sessions.Issue(ctx, uuid.New())
	s.Require().NoError(err)

	current, err := s.sessions.Current(ctx, issued.Token)
	s.Require().NoError(err)
	s.Equal(issued.ID, current.ID)

	s.Require().NoError(s.sessions.SignOut(ctx, issued.Token))

	_, err = s.sessions.Current(ctx, issued.Token)
	s.ErrorIs(err, apperror.ErrUnauthorized)
}

func (s *AuthUseCaseTestSuite) Test_Current_NoToken() {
	_, err := s.sessions.Current(context.Background(), "")
	s.ErrorIs(err, apperror.ErrUnauthorized)
}

func TestOAuthUseCase_CallbackCreatesUserOnce(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	users := newMemUserRepo()
	sessions := NewSessionManager(auth.NewJWTService("test-secret", time.Hour),
		&memSessionStore{ids: map[string]time.Time{}}, log)
	uc := NewOAuthUseCase(&fakeProvider{identity: &auth.OAuthIdentity{
		Provider: "github", ProviderUserID: "42", Login: "octo",
	}}, users, sessions, log)

	url, state := uc.Begin()
	assert.Contains(t, url, state)

	first, err := uc.Callback(ctx, OAuthCallbackInput{Code: "c", State: state, ExpectedState: state})
	require.NoError(t, err)
	second, err := uc.Callback(ctx, OAuthCallbackInput{Code: "c", State: state, ExpectedState: state})
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Len(t, users.users, 1)

	_, err = uc.Callback(ctx, OAuthCallbackInput{Code: "c", State: "forged", ExpectedState: state})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
