package contracts

import (
	"errors"

	"github.com/bozorapp/payment-service/internal/domain"
)

// Click SHOP-API error codes. The callback is answered with one of these in
// the error field; anything non-zero makes Click re-deliver or surface the
// failure to the payer.
const (
	ClickSuccess             = 0
	ClickErrorInternal       = -1
	ClickErrorAmount         = -2
	ClickErrorAlreadyPaid    = -4
	ClickErrorOrderNotFound  = -5
	ClickErrorTxnNotFound    = -6
	ClickErrorActionNotFound = -9
)

const (
	ClickActionPrepare  = "0"
	ClickActionComplete = "1"
)

// ClickRequest carries the raw callback fields. Click posts them
// form-encoded; numeric values are kept as strings until the normalizer
// parses them.
type ClickRequest struct {
	ClickTransID    string `json:"click_trans_id"`
	ServiceID       string `json:"service_id"`
	ClickPaydocID   string `json:"click_paydoc_id"`
	MerchantTransID string `json:"merchant_trans_id"`
	Amount          string `json:"amount"`
	Action          string `json:"action"`
	Error           string `json:"error"`
	SignTime        string `json:"sign_time"`
	SignString      string `json:"sign_string"`
}

type ClickResponse struct {
	ClickTransID    string `json:"click_trans_id"`
	MerchantTransID string `json:"merchant_trans_id"`
	Error           int    `json:"error"`
	ErrorNote       string `json:"error_note"`
}

// ClickError maps an engine outcome to the Click error pair. Transient
// storage failures map to the internal code so Click retries the callback.
func ClickError(err error) (int, string) {
	switch {
	case err == nil:
		return ClickSuccess, "success"
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return ClickErrorInternal, "sign check failed"
	case errors.Is(err, domain.ErrAmountMismatch):
		return ClickErrorAmount, "incorrect amount"
	case errors.Is(err, domain.ErrOrderAlreadyPaid), errors.Is(err, domain.ErrConflict):
		return ClickErrorAlreadyPaid, "already paid"
	case errors.Is(err, domain.ErrOrderNotFound):
		return ClickErrorOrderNotFound, "order not found"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return ClickErrorTxnNotFound, "transaction not found"
	case errors.Is(err, domain.ErrTransactionState), errors.Is(err, domain.ErrUnsupportedMethod), errors.Is(err, domain.ErrInvalidEnvelope):
		return ClickErrorActionNotFound, "action not found"
	default:
		return ClickErrorInternal, "internal error, retry later"
	}
}
