package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/trusted-shortener/internal/analytics"
	analyticsstore "github.com/serroba/trusted-shortener/internal/analytics/store"
	"github.com/serroba/trusted-shortener/internal/messaging"
	"go.uber.org/zap"
)

const analyticsConsumerGroup = "analytics"

// PublisherGroupPackage provides the Redis stream publisher.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client:     client.Client,
			Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// AnalyticsPackage provides the typed publish functions for analytics events.
// With --analytics off the events are dropped.
func AnalyticsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		return publishFunc[analytics.LinkCreatedEvent](i, analytics.TopicLinkCreated)
	})

	do.Provide(i, func(i *do.Injector) (messaging.Publish[analytics.ClickEvent], error) {
		return publishFunc[analytics.ClickEvent](i, analytics.TopicLinkClicked)
	})
}

func publishFunc[T any](i *do.Injector, topic string) (messaging.Publish[T], error) {
	if !do.MustInvoke[*Options](i).Analytics {
		return messaging.Discard[T](), nil
	}

	group, err := do.Invoke[*messaging.PublisherGroup](i)
	if err != nil {
		return nil, err
	}

	return messaging.NewPublishFunc[T](group.Publisher(), topic), nil
}

// ConsumerGroupPackage provides the analytics consumers. Events are stored in
// PostgreSQL when a database URL is configured and logged otherwise.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			logger.Info("no database configured, analytics events are logged only")

			return analyticsstore.NewNoop(logger), nil
		}

		pool, err := do.Invoke[*PostgresPool](i)
		if err != nil {
			return nil, err
		}

		pgStore := analyticsstore.NewPostgres(pool.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err = pgStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure analytics schema: %w", err)
		}

		return pgStore, nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.Group, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		eventStore, err := do.Invoke[analytics.Store](i)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: analyticsConsumerGroup,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		recorder := analytics.NewRecorder(eventStore)

		group := messaging.NewGroup(analyticsConsumerGroup, subscriber, logger)
		group.Add(messaging.NewConsumer[analytics.LinkCreatedEvent](subscriber, analytics.TopicLinkCreated, recorder.RecordLinkCreated, logger))
		group.Add(messaging.NewConsumer[analytics.ClickEvent](subscriber, analytics.TopicLinkClicked, recorder.RecordClick, logger))

		return group, nil
	})
}
