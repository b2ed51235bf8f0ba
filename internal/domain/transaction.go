package domain

import "time"

const (
	TransactionStateCreated   = "created"
	TransactionStatePerformed = "performed"
	TransactionStateCancelled = "cancelled"
)

// Payme cancel reason codes carried on cancelled records.
const (
	CancelReasonBuyerRequest   = 1
	CancelReasonProcessingFail = 2
	CancelReasonTimeout        = 4
	CancelReasonRefund         = 5
)

// TransactionRecord binds one provider-side transaction to one order. Records
// are append-and-mutate only, never deleted; they are the audit trail the
// idempotency gate reads.
type TransactionRecord struct {
	Provider              string     `json:"provider"`
	ProviderTransactionID string     `json:"provider_transaction_id"`
	OrderID               string     `json:"order_id"`
	State                 string     `json:"state"`
	Amount                int64      `json:"amount"`
	CancelReason          *int       `json:"cancel_reason,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	PerformedAt           *time.Time `json:"performed_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
}
