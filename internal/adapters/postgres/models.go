package postgres

import (
	"time"

	"github.com/google/uuid"
)

type orderModel struct {
	OrderID               string     `gorm:"column:order_id;primaryKey"`
	BuyerID               string     `gorm:"column:buyer_id"`
	Items                 string     `gorm:"column:items"`
	TotalAmount           int64      `gorm:"column:total_amount"`
	Currency              string     `gorm:"column:currency"`
	Status                string     `gorm:"column:status"`
	PaymentStatus         string     `gorm:"column:payment_status"`
	PaymentMethod         string     `gorm:"column:payment_method"`
	ProviderTransactionID *string    `gorm:"column:provider_transaction_id"`
	AffiliateID           *string    `gorm:"column:affiliate_id"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	PaidAt                *time.Time `gorm:"column:paid_at"`
	ShippedAt             *time.Time `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time `gorm:"column:delivered_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (orderModel) TableName() string { return "orders" }

type transactionModel struct {
	Provider              string     `gorm:"column:provider;primaryKey"`
	ProviderTransactionID string     `gorm:"column:provider_transaction_id;primaryKey"`
	OrderID               string     `gorm:"column:order_id"`
	State                 string     `gorm:"column:state"`
	Amount                int64      `gorm:"column:amount"`
	CancelReason          *int       `gorm:"column:cancel_reason"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	PerformedAt           *time.Time `gorm:"column:performed_at"`
	CancelledAt           *time.Time `gorm:"column:cancelled_at"`
}

func (transactionModel) TableName() string { return "payment_transactions" }

type commissionModel struct {
	AccrualID   uuid.UUID `gorm:"column:accrual_id;type:uuid;primaryKey"`
	OrderID     string    `gorm:"column:order_id"`
	AffiliateID string    `gorm:"column:affiliate_id"`
	Rate        float64   `gorm:"column:rate"`
	Amount      int64     `gorm:"column:amount"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (commissionModel) TableName() string { return "commission_accruals" }

type paymentOutboxModel struct {
	OutboxID         uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType        string     `gorm:"column:event_type"`
	PartitionKey     string     `gorm:"column:partition_key"`
	PartitionKeyPath string     `gorm:"column:partition_key_path"`
	Payload          string     `gorm:"column:payload"`
	SchemaVersion    string     `gorm:"column:schema_version"`
	TraceID          string     `gorm:"column:trace_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	FirstSeenAt      time.Time  `gorm:"column:first_seen_at"`
	PublishedAt      *time.Time `gorm:"column:published_at"`
	RetryCount       int        `gorm:"column:retry_count"`
	LastError        *string    `gorm:"column:last_error"`
	LastErrorAt      *time.Time `gorm:"column:last_error_at"`
}

func (paymentOutboxModel) TableName() string { return "payment_outbox" }

type paymentEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (paymentEventDedupModel) TableName() string { return "payment_event_dedup" }
