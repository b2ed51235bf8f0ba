package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bozorapp/payment-service/internal/application"
)

const TopicOrderCreated = "order.created"

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker feeds checkout events into the service. Orders must exist
// locally before the first provider callback references them.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	topic    string
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, topic string, interval time.Duration) *ConsumerWorker {
	if topic == "" {
		topic = TopicOrderCreated
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, topic: topic, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		switch msg.Topic {
		case w.topic:
			if err := w.service.HandleOrderCreated(ctx, msg.Payload); err != nil {
				w.logger.WarnContext(ctx, "failed to handle order created event", "topic", msg.Topic, "error", err)
			}
		default:
			w.logger.DebugContext(ctx, "ignoring message on unexpected topic", "topic", msg.Topic)
		}
	}
	return nil
}
