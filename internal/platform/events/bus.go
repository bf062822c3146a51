package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"religious_services_backend/internal/config"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// Bus publishes domain events as JSON messages and hands out subscriptions.
// It runs on Kafka when brokers are configured and on an in-process channel otherwise.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewBus builds the event bus from configuration.
func NewBus(cfg *config.Config, logger *zap.Logger) (*Bus, func(), error) {
	log := logger.Named("events")
	wmLogger := NewZapAdapter(log)

	var (
		pub message.Publisher
		sub message.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka publisher: %w", err)
		}
		kafkaSub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               cfg.KafkaBrokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         cfg.KafkaConsumerGroup,
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		}, wmLogger)
		if err != nil {
			_ = kafkaPub.Close()
			return nil, nil, fmt.Errorf("kafka subscriber: %w", err)
		}
		pub, sub = kafkaPub, kafkaSub
		log.Info("Event bus using Kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		pub, sub = ch, ch
		log.Info("Event bus using in-process channel")
	}

	bus := &Bus{publisher: pub, subscriber: sub, logger: log}
	return bus, bus.close, nil
}

// NewInProcessBus returns a channel-backed bus.
func NewInProcessBus(logger *zap.Logger) *Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewZapAdapter(logger))
	return &Bus{publisher: ch, subscriber: ch, logger: logger}
}

// Publish marshals payload to JSON and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("published_at", time.Now().UTC().Format(time.RFC3339))
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream for topic. Messages must be Ack'ed or Nack'ed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *Bus) close() {
	if err := b.publisher.Close(); err != nil {
		b.logger.Warn("Error closing event publisher", zap.Error(err))
	}
	// Closing a gochannel twice is a no-op, so the shared value is safe here.
	if err := b.subscriber.Close(); err != nil {
		b.logger.Warn("Error closing event subscriber", zap.Error(err))
	}
}

// Close releases publisher and subscriber resources.
func (b *Bus) Close() {
	b.close()
}
