package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	httpAdapter "github.com/khoahotran/folio/adapters/http"
	"github.com/khoahotran/folio/adapters/media_storage"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	collectionUC "github.com/khoahotran/folio/internal/application/usecase/collection"
	imageUC "github.com/khoahotran/folio/internal/application/usecase/image"
	profileUC "github.com/khoahotran/folio/internal/application/usecase/profile"
	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/collection"
	"github.com/khoahotran/folio/internal/domain/experience"
	"github.com/khoahotran/folio/internal/domain/image"
	"github.com/khoahotran/folio/internal/domain/project"
	"github.com/khoahotran/folio/internal/guard"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
	"github.com/khoahotran/folio/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("Cannot load config", err)
	}

	appLogger := logger.NewZapLoggerWithFile(cfg.App.Env, cfg.Log.Dir, cfg.Log.MaxAge)
	appLogger.Info("Starting Folio API Server...", zap.String("env", cfg.App.Env))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "folio-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracer", err)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				appLogger.Error("Error shutting down tracer provider", err)
			}
		}()
	}

	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("Kafka brokers not configured, profile events are dropped")
	}

	storage, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", err)
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	experienceRepo := persistence.NewPostgresExperienceRepo(dbPool, appLogger)
	projectRepo := persistence.NewPostgresProjectRepo(dbPool, appLogger)
	imageRepo := persistence.NewPostgresImageRepo(dbPool, appLogger)
	sessionStore := persistence.NewRedisSessionStore(redisClient)
	profileCache := persistence.NewRedisPublicProfileCache(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	sessions := authUC.NewSessionManager(jwtSvc, sessionStore, appLogger)

	// Use Cases
	loginUseCase := authUC.NewLoginUseCase(userRepo, sessions, appLogger)
	signupUseCase := authUC.NewSignupUseCase(userRepo, sessions, appLogger)
	var oauthUseCase *authUC.OAuthUseCase
	if gh := cfg.OAuth.GitHub; gh.ClientID != "" {
		provider := auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
		oauthUseCase = authUC.NewOAuthUseCase(provider, userRepo, sessions, appLogger)
	}

	invalidateUseCase := publicUC.NewInvalidateCacheUseCase(profileRepo, profileCache, appLogger)

	profileUseCase := profileUC.NewProfileUseCase(profileRepo, publisher, invalidateUseCase, appLogger)
	experiences := collectionUC.NewService[experience.WorkExperience](collection.KindWorkExperience, experienceRepo, publisher, invalidateUseCase, appLogger)
	projects := collectionUC.NewService[project.Project](collection.KindProject, projectRepo, publisher, invalidateUseCase, appLogger)
	images := collectionUC.NewService[image.Image](collection.KindImage, imageRepo, publisher, invalidateUseCase, appLogger)

	uploadImageUseCase := imageUC.NewUploadImageUseCase(images, storage, cfg.Storage.ImageBucket, cfg.Storage.MaxUploadBytes, appLogger)
	deleteImageUseCase := imageUC.NewDeleteImageUseCase(images, storage, cfg.Storage.ImageBucket, appLogger)

	publicProfileUseCase := publicUC.NewGetPublicProfileUseCase(
		profileRepo, experienceRepo, projectRepo, imageRepo,
		profileCache, cfg.Cache.PublicProfileTTL, appLogger,
	)
	feedUseCase := publicUC.NewFeedUseCase(publicProfileUseCase, cfg.App.BaseURL, appLogger)

	// HTTP Handlers
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Auth: httpAdapter.NewAuthHandler(
			loginUseCase, signupUseCase, oauthUseCase, sessions,
			httpAdapter.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.SecureCookie},
			cfg.Guard.DashboardPath,
			appLogger,
		),
		Profile:     httpAdapter.NewProfileHandler(profileUseCase, appLogger),
		Experiences: httpAdapter.NewWorkExperienceHandler(experiences, appLogger),
		Projects:    httpAdapter.NewProjectHandler(projects, appLogger),
		ImageItems:  httpAdapter.NewImageCollectionHandler(images, appLogger),
		Images:      httpAdapter.NewImageHandler(uploadImageUseCase, deleteImageUseCase, cfg.Storage.MaxUploadBytes, appLogger),
		Public:      httpAdapter.NewPublicHandler(publicProfileUseCase, feedUseCase, appLogger),
		Pages:       httpAdapter.NewPageHandler(profileUseCase, publicProfileUseCase, experiences, projects, images, appLogger),
		Sessions:    sessions,
		Guard: guard.Policy{
			ProtectedPrefix: cfg.Guard.ProtectedPrefix,
			LoginPath:       cfg.Guard.LoginPath,
			DashboardPath:   cfg.Guard.DashboardPath,
			AuthOnly:        cfg.Guard.AuthOnlyPaths,
		},
		CookieName:     cfg.Auth.CookieName,
		OAuthEnabled:   oauthUseCase != nil,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
}
