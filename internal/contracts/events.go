package contracts

// Canonical event envelope used on the bus. Matches the checkout side's
// producer schema.
type EventEnvelope struct {
	EventID          string `json:"event_id"`
	EventType        string `json:"event_type"`
	OccurredAt       string `json:"occurred_at"`
	SourceService    string `json:"source_service"`
	TraceID          string `json:"trace_id"`
	SchemaVersion    string `json:"schema_version"`
	PartitionKeyPath string `json:"partition_key_path"`
	PartitionKey     string `json:"partition_key"`
	Data             any    `json:"data"`
}

type OrderCreatedData struct {
	OrderID       string          `json:"order_id"`
	BuyerID       string          `json:"buyer_id"`
	Items         []OrderItemData `json:"items"`
	TotalAmount   int64           `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	AffiliateID   string          `json:"affiliate_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type OrderItemData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderPaidData struct {
	OrderID               string `json:"order_id"`
	Provider              string `json:"provider"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
	PaidAt                string `json:"paid_at"`
	AffiliateID           string `json:"affiliate_id,omitempty"`
	CommissionAmount      int64  `json:"commission_amount,omitempty"`
}

type OrderPaymentFailedData struct {
	OrderID               string `json:"order_id"`
	Provider              string `json:"provider"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	Reason                *int   `json:"reason,omitempty"`
	FailedAt              string `json:"failed_at"`
}

type OrderRefundedData struct {
	OrderID               string `json:"order_id"`
	Provider              string `json:"provider"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	Amount                int64  `json:"amount"`
	Reason                *int   `json:"reason,omitempty"`
	RefundedAt            string `json:"refunded_at"`
}
