package container

import (
	"github.com/samber/do"
	"github.com/serroba/url-shortener/internal/analytics"
	analyticsstore "github.com/serroba/url-shortener/internal/analytics/store"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/store"
	"go.uber.org/zap"
)

// PublisherGroupPackage provides the Redis stream publisher used for analytics events.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		log := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisPublisher(client.Client, messaging.NewZapLogger(log))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// publishers returns typed publish functions, or discarding ones without Redis.
func publishers(i *do.Injector) (
	messaging.Publish[analytics.URLCreatedEvent],
	messaging.Publish[analytics.URLAccessedEvent],
	error,
) {
	if !do.MustInvoke[*Options](i).RedisEnabled() {
		return messaging.Discard[analytics.URLCreatedEvent](), messaging.Discard[analytics.URLAccessedEvent](), nil
	}

	group, err := do.Invoke[*messaging.PublisherGroup](i)
	if err != nil {
		return nil, nil, err
	}

	return messaging.NewPublishFunc[analytics.URLCreatedEvent](group.Publisher(), analytics.TopicURLCreated),
		messaging.NewPublishFunc[analytics.URLAccessedEvent](group.Publisher(), analytics.TopicURLAccessed),
		nil
}

// AnalyticsStorePackage persists events to PostgreSQL when it is the store
// driver and only logs them otherwise.
func AnalyticsStorePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.StoreDriver != DriverPostgres {
			return analyticsstore.NewLog(do.MustInvoke[*zap.Logger](i)), nil
		}

		pg, err := do.Invoke[*store.PostgresStore](i)
		if err != nil {
			return nil, err
		}

		return analyticsstore.NewPostgres(pg.Pool()), nil
	})
}

// ConsumerGroupPackage subscribes analytics.Store to both event topics.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*RedisClient](i)
		log := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(client.Client, opts.ConsumerGroup, messaging.NewZapLogger(log))
		if err != nil {
			return nil, err
		}

		events, err := do.Invoke[analytics.Store](i)
		if err != nil {
			_ = subscriber.Close()

			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, log)
		group.Add(messaging.NewConsumer[analytics.URLCreatedEvent](subscriber, analytics.TopicURLCreated, events.SaveURLCreated, log))
		group.Add(messaging.NewConsumer[analytics.URLAccessedEvent](subscriber, analytics.TopicURLAccessed, events.SaveURLAccessed, log))

		return group, nil
	})
}
