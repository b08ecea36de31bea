// Package apptest assembles the full HTTP application on in-memory
// repositories so handler and client tests exercise the real wiring.
package apptest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/internal/application/service"
	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	imageUC "github.com/khoahotran/folio/internal/application/usecase/image"
	profileUC "github.com/khoahotran/folio/internal/application/usecase/profile"
	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/guard"
	"github.com/khoahotran/folio/internal/testutil/memrepo"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	CookieName  = "folio_session"
	ImageBucket = "user-images"
)

type App struct {
	Router      *gin.Engine
	Users       *memrepo.Users
	Profiles    *memrepo.Profiles
	Sessions    *memrepo.Sessions
	Experiences *memrepo.Collection[experience.WorkExperience]
	Projects    *memrepo.Collection[project.Project]
	Images      *memrepo.Collection[image.Image]
	Storage     *memrepo.Storage
	Cache       *memrepo.PublicCache
}

// New builds the application. buckets defaults to the image bucket; pass
// an explicit empty list to simulate missing storage configuration.
func New(t testing.TB, buckets ...string) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if buckets == nil {
		buckets = []string{ImageBucket}
	}

	log := logger.NewNop()
	a := &App{
		Users:       memrepo.NewUsers(),
		Profiles:    memrepo.NewProfiles(),
		Sessions:    memrepo.NewSessions(),
		Experiences: memrepo.NewCollection[experience.WorkExperience](collection.KindWorkExperience),
		Projects:    memrepo.NewCollection[project.Project](collection.KindProject),
		Images:      memrepo.NewCollection[image.Image](collection.KindImage),
		Storage:     memrepo.NewStorage(buckets...),
		Cache:       memrepo.NewPublicCache(),
	}

	publisher := service.NopPublisher{}
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	sessions := authUC.NewSessionManager(jwtSvc, a.Sessions, log)

	invalidate := publicUC.NewInvalidateCacheUseCase(a.Profiles, a.Cache, log)

	experiences := collectionUC.NewService[experience.WorkExperience](collection.KindWorkExperience, a.Experiences, publisher, invalidate, log)
	projects := collectionUC.NewService[project.Project](collection.KindProject, a.Projects, publisher, invalidate, log)
	images := collectionUC.NewService[image.Image](collection.KindImage, a.Images, publisher, invalidate, log)

	profiles := profileUC.NewProfileUseCase(a.Profiles, publisher, invalidate, log)
	publicProfile := publicUC.NewGetPublicProfileUseCase(a.Profiles, a.Experiences, a.Projects, a.Images, a.Cache, time.Minute, log)

	a.Router = httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Auth: httpAdapter.NewAuthHandler(
			authUC.NewLoginUseCase(a.Users, sessions, log),
			authUC.NewSignupUseCase(a.Users, sessions, log),
			nil,
			sessions,
			httpAdapter.CookieSettings{Name: CookieName},
			"/dashboard",
			log,
		),
		Profile:     httpAdapter.NewProfileHandler(profiles, log),
		Experiences: httpAdapter.NewWorkExperienceHandler(experiences, log),
		Projects:    httpAdapter.NewProjectHandler(projects, log),
		ImageItems:  httpAdapter.NewImageCollectionHandler(images, log),
		Images: httpAdapter.NewImageHandler(
			imageUC.NewUploadImageUseCase(images, a.Storage, ImageBucket, image.MaxUploadBytes, log),
			imageUC.NewDeleteImageUseCase(images, a.Storage, ImageBucket, log),
			image.MaxUploadBytes,
			log,
		),
		Public:         httpAdapter.NewPublicHandler(publicProfile, publicUC.NewFeedUseCase(publicProfile, "http://folio.test", log), log),
		Pages:          httpAdapter.NewPageHandler(profiles, publicProfile, experiences, projects, images, log),
		Sessions:       sessions,
		Guard:          guard.DefaultPolicy(),
		CookieName:     CookieName,
		MaxUploadBytes: image.MaxUploadBytes,
		Logger:         log,
	})
	return a
}

// Do sends a JSON request and returns the recorder.
func (a *App) Do(t testing.TB, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

// SignUp creates an account and returns its access token.
func (a *App) SignUp(t testing.TB, email string) string {
	t.Helper()
	rr := a.Do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var out struct {
		Session struct {
			Token string `json:"access_token"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.Session.Token)
	return out.Session.Token
}
