package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

const TopicProfileEvents = "profile.events"

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	ProfileEventsWriter messageWriter
	logger              logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// keyed by owner so one profile's events stay ordered
	profileWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicProfileEvents,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}

	log.Info("Initialize Kafka Producers successfully.")

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
		logger:              log,
	}, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, evt service.ProfileEvent) error {
	msg, err := EncodeProfileEvent(evt)
	if err != nil {
		return err
	}
	if err := c.ProfileEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.EventType, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		if err := c.ProfileEventsWriter.Close(); err != nil {
			c.logger.Error("Failed to close Kafka writer", err)
		}
	}
	c.logger.Info("Closed Kafka Producers")
}

func EncodeProfileEvent(evt service.ProfileEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal profile event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.OwnerID.String()),
		Value: value,
		Time:  evt.OccurredAt,
	}, nil
}

func DecodeProfileEvent(msg kafka.Message) (service.ProfileEvent, error) {
	var evt service.ProfileEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, fmt.Errorf("failed to unmarshal profile event: %w", err)
	}
	if evt.EventType == "" {
		return evt, fmt.Errorf("profile event without event_type")
	}
	return evt, nil
}
