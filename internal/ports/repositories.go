package ports

import (
	"context"
	"time"

	"github.com/bozorapp/payment-service/internal/domain"
	"github.com/google/uuid"
)

type CreateOrderParams struct {
	OrderID       string
	BuyerID       string
	Items         []domain.OrderItem
	TotalAmount   int64
	Currency      string
	PaymentMethod string
	AffiliateID   *string
	CreatedAt     time.Time
}

// PerformTransactionParams finalizes a payment inside one storage
// transaction: the record CAS to performed, the order CAS to paid, the
// optional commission accrual and the outbox event all commit or none do.
type PerformTransactionParams struct {
	Provider              string
	ProviderTransactionID string
	OrderID               string
	PerformedAt           time.Time
	Accrual               *domain.CommissionAccrual
	Event                 OutboxEvent
}

type CancelTransactionParams struct {
	Provider              string
	ProviderTransactionID string
	OrderID               string
	FromState             string
	OrderPaymentStatus    string
	CancelReason          *int
	CancelledAt           time.Time
	Event                 OutboxEvent
}

type OrderRepository interface {
	Get(ctx context.Context, orderID string) (domain.Order, error)
	Create(ctx context.Context, params CreateOrderParams) error
}

// TransactionRepository is the idempotency gate's persistence contract.
// Create must be backed by a uniqueness constraint on
// (provider, provider_transaction_id) and by a per-order constraint over
// non-cancelled records so the first committer wins; it returns
// domain.ErrConflict when either is violated.
type TransactionRepository interface {
	Get(ctx context.Context, provider, providerTransactionID string) (*domain.TransactionRecord, error)
	FindActiveByOrder(ctx context.Context, orderID string) (*domain.TransactionRecord, error)
	Create(ctx context.Context, record domain.TransactionRecord) error
	Perform(ctx context.Context, params PerformTransactionParams) error
	Cancel(ctx context.Context, params CancelTransactionParams) error
}

type CommissionRepository interface {
	GetByOrder(ctx context.Context, orderID string) (*domain.CommissionAccrual, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
	TraceID          string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}
