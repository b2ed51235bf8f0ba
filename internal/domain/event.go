package domain

import "time"

const (
	ProviderClick = "click"
	ProviderPayme = "payme"
)

const (
	// ActionCheck validates order and amount without binding a transaction
	// (Payme CheckPerformTransaction carries no transaction id).
	ActionCheck    = "check"
	ActionPrepare  = "prepare"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
)

// PaymentEvent is the normalized form of one inbound callback. It is built
// fresh per request and discarded once the response is written. Amount is
// always in tiyin; the normalizer owns every unit conversion.
type PaymentEvent struct {
	Provider              string
	ProviderTransactionID string
	OrderReference        string
	Amount                int64
	Action                string
	CancelReason          *int
	ReceivedAt            time.Time
}
