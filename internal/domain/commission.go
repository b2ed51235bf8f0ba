package domain

import "time"

const (
	AccrualStatusAccrued  = "accrued"
	AccrualStatusReversed = "reversed"
)

// CommissionAccrual credits the referring affiliate once an order is paid.
// At most one accrual exists per order; its creation rides the same database
// transaction as the paid transition.
type CommissionAccrual struct {
	AccrualID   string    `json:"accrual_id"`
	OrderID     string    `json:"order_id"`
	AffiliateID string    `json:"affiliate_id"`
	Rate        float64   `json:"rate"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
