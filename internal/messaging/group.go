package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a background worker with an explicit lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops consumers that share one subscriber, and
// closes the subscriber last.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{subscriber: subscriber, logger: logger}
}

func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts consumers in order. If one fails, those already running are
// shut down and the error is returned.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for n, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for _, started := range g.consumers[:n] {
				_ = started.Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", n, err)
		}
	}

	g.logger.Info("consumers started", zap.Int("count", len(g.consumers)))

	return nil
}

// Shutdown stops every consumer, then the subscriber, and joins their errors.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping consumers", zap.Int("count", len(g.consumers)))

	errs := make([]error, 0, len(g.consumers)+1)

	for _, consumer := range g.consumers {
		errs = append(errs, consumer.Shutdown())
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}
