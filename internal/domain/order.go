package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	PaymentMethodClick = "click"
	PaymentMethodPayme = "payme"
	PaymentMethodCash  = "cash"
)

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Order is a purchase intent owned by the order store. TotalAmount is in som
// (major units); provider-side comparisons happen in tiyin via TotalInTiyin.
type Order struct {
	OrderID               string      `json:"order_id"`
	BuyerID               string      `json:"buyer_id"`
	Items                 []OrderItem `json:"items,omitempty"`
	TotalAmount           int64       `json:"total_amount"`
	Currency              string      `json:"currency"`
	Status                string      `json:"status"`
	PaymentStatus         string      `json:"payment_status"`
	PaymentMethod         string      `json:"payment_method"`
	ProviderTransactionID *string     `json:"provider_transaction_id,omitempty"`
	AffiliateID           *string     `json:"affiliate_id,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
	PaidAt                *time.Time  `json:"paid_at,omitempty"`
	ShippedAt             *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt           *time.Time  `json:"delivered_at,omitempty"`
}

// TotalInTiyin converts the stored major-unit total to minor units.
// 1 som = 100 tiyin; providers transmit tiyin.
func (o Order) TotalInTiyin() int64 {
	return o.TotalAmount * 100
}
