package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/bozorapp/payment-service/internal/adapters/memory"
	"github.com/bozorapp/payment-service/internal/application"
)

type stubConsumer struct {
	msgs []Message
}

func (s *stubConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	out := s.msgs
	s.msgs = nil
	return out, nil
}

func newConsumerService(store *memory.Store) *application.Service {
	return application.NewService(application.Dependencies{
		Orders:       store.Orders(),
		Transactions: store.Transactions(),
		Commissions:  store.Commissions(),
		Outbox:       store.Outbox(),
		EventDedup:   store.EventDedup(),
	})
}

const orderCreatedPayload = `{"event_id":"evt-1","event_type":"order.created",` +
	`"data":{"order_id":"order-77","buyer_id":"buyer-1","total_amount":1500000,` +
	`"currency":"UZS","payment_method":"click"}}`

func TestConsumerWorkerDispatchesConfiguredTopic(t *testing.T) {
	store := memory.NewStore()
	consumer := &stubConsumer{msgs: []Message{
		{Topic: "checkout.orders.v2", Payload: []byte(orderCreatedPayload)},
	}}
	// The reader subscribes to the configured topic name, so dispatch must
	// match that same name rather than the compiled-in default.
	worker := NewConsumerWorker(slog.Default(), consumer, newConsumerService(store), "checkout.orders.v2", time.Second)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := store.Orders().Get(context.Background(), "order-77"); err != nil {
		t.Fatalf("order not created from configured topic: %v", err)
	}
}

func TestConsumerWorkerIgnoresOtherTopics(t *testing.T) {
	store := memory.NewStore()
	consumer := &stubConsumer{msgs: []Message{
		{Topic: "unrelated.topic", Payload: []byte(orderCreatedPayload)},
	}}
	worker := NewConsumerWorker(slog.Default(), consumer, newConsumerService(store), "", time.Second)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := store.Orders().Get(context.Background(), "order-77"); err == nil {
		t.Fatalf("order created from a topic the worker does not own")
	}
}
