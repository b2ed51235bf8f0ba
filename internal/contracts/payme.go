package contracts

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/bozorapp/payment-service/internal/domain"
)

// Payme merchant-API error codes.
const (
	PaymeErrorOrderNotFound = -31050
	PaymeErrorAmount        = -31001
	PaymeErrorTxnNotFound   = -31003
	PaymeErrorCannotPerform = -31008
	PaymeErrorAuth          = -32504
	PaymeErrorMethod        = -32601
	PaymeErrorInternal      = -32400
)

const (
	PaymeMethodCheckPerform = "CheckPerformTransaction"
	PaymeMethodCreate       = "CreateTransaction"
	PaymeMethodPerform      = "PerformTransaction"
	PaymeMethodCancel       = "CancelTransaction"
	PaymeMethodCheck        = "CheckTransaction"
)

// Payme transaction states as exposed on the wire.
const (
	PaymeStateCreated            = 1
	PaymeStatePerformed          = 2
	PaymeStateCancelled          = -1
	PaymeStateCancelledAfterPaid = -2
)

// FlexString tolerates the order_id arriving either as a JSON string or a
// bare number, which the upstream checkout emits inconsistently.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = FlexString(raw)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

type PaymeAccount struct {
	OrderID FlexString `json:"order_id"`
}

type PaymeParams struct {
	ID      string       `json:"id"`
	Time    int64        `json:"time"`
	Amount  int64        `json:"amount"`
	Account PaymeAccount `json:"account"`
	Reason  *int         `json:"reason"`
}

type PaymeRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params PaymeParams     `json:"params"`
}

type PaymeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type PaymeResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *PaymeError     `json:"error,omitempty"`
}

type PaymeCheckPerformResult struct {
	Allow bool `json:"allow"`
}

type PaymeCreateResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type PaymePerformResult struct {
	PerformTime int64  `json:"perform_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type PaymeCancelResult struct {
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

type PaymeCheckResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
}

// PaymeErrorFor translates an engine outcome into the RPC error envelope.
func PaymeErrorFor(err error) *PaymeError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return &PaymeError{Code: PaymeErrorAuth, Message: "insufficient privilege to perform this method"}
	case errors.Is(err, domain.ErrOrderNotFound):
		return &PaymeError{Code: PaymeErrorOrderNotFound, Message: "order not found", Data: "order_id"}
	case errors.Is(err, domain.ErrAmountMismatch):
		return &PaymeError{Code: PaymeErrorAmount, Message: "incorrect amount"}
	case errors.Is(err, domain.ErrTransactionNotFound):
		return &PaymeError{Code: PaymeErrorTxnNotFound, Message: "transaction not found"}
	case errors.Is(err, domain.ErrOrderAlreadyPaid), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrTransactionState):
		return &PaymeError{Code: PaymeErrorCannotPerform, Message: "unable to perform operation"}
	case errors.Is(err, domain.ErrUnsupportedMethod):
		return &PaymeError{Code: PaymeErrorMethod, Message: "method not found"}
	case errors.Is(err, domain.ErrInvalidEnvelope):
		return &PaymeError{Code: PaymeErrorOrderNotFound, Message: "invalid parameters", Data: "order_id"}
	default:
		return &PaymeError{Code: PaymeErrorInternal, Message: "internal error"}
	}
}

// PaymeStateOf maps a stored record state to the wire state integer.
func PaymeStateOf(record domain.TransactionRecord) int {
	switch record.State {
	case domain.TransactionStatePerformed:
		return PaymeStatePerformed
	case domain.TransactionStateCancelled:
		if record.PerformedAt != nil {
			return PaymeStateCancelledAfterPaid
		}
		return PaymeStateCancelled
	default:
		return PaymeStateCreated
	}
}
