package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/service"
	publicUC "github.com/khoahotran/folio/internal/application/usecase/public"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("Cannot load config", err)
	}

	appLogger := logger.NewZapLoggerWithFile(cfg.App.Env, cfg.Log.Dir, cfg.Log.MaxAge)
	appLogger.Info("Starting Folio Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Kafka brokers not configured", errors.New("kafka.brokers is empty"))
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

	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	profileCache := persistence.NewRedisPublicProfileCache(redisClient)
	invalidateUC := publicUC.NewInvalidateCacheUseCase(profileRepo, profileCache, appLogger)

	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicProfileEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicProfileEvents), zap.String("group_id", cfg.Kafka.GroupID))

	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Failed to read message from Kafka", err)
			if !sleep(ctx, fetchBackoff) {
				appLogger.Info("Worker stopped")
				return
			}
			continue
		}

		evt, err := event.DecodeProfileEvent(msg)
		if err != nil {
			appLogger.Warn("Skipping undecodable event", zap.Error(err), zap.String("key", string(msg.Key)))
			commitMessage(consumer, msg, appLogger)
			continue
		}

		if err := processEvent(ctx, invalidateUC, evt, retryBackoff, appLogger); err != nil {
			if ctx.Err() != nil {
				// uncommitted, so the group redelivers it after restart
				appLogger.Info("Worker stopped")
				return
			}
			appLogger.Error("Giving up on event, cached pages expire with their TTL", err,
				zap.String("event_type", string(evt.EventType)),
				zap.String("owner_id", evt.OwnerID.String()),
			)
		}

		commitMessage(consumer, msg, appLogger)
	}
}

const fetchBackoff = time.Second

var retryBackoff = []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 5 * time.Second}

// processEvent runs the handler and retries the same event after each wait in
// backoff. It returns the last error once the retries are spent, or the
// context error when ctx ends first.
func processEvent(ctx context.Context, h service.CacheInvalidator, evt service.ProfileEvent, backoff []time.Duration, log logger.Logger) error {
	err := h.Execute(ctx, evt)
	for _, wait := range backoff {
		if err == nil {
			return nil
		}
		log.Warn("Event processing failed, retrying",
			zap.Error(err),
			zap.String("event_type", string(evt.EventType)),
			zap.Duration("backoff", wait),
		)
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
		err = h.Execute(ctx, evt)
	}
	return err
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func commitMessage(consumer *kafka.Reader, msg kafka.Message, log logger.Logger) {
	if err := consumer.CommitMessages(context.Background(), msg); err != nil {
		log.Error("Failed to commit message", err)
	}
}
