package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bozorapp/payment-service/internal/application"
	"github.com/bozorapp/payment-service/internal/contracts"
)

// paymeCallback serves the merchant JSON-RPC endpoint. Every outcome is an
// HTTP 200; failures are carried in the error member with Payme's own codes.
func (h *Handler) paymeCallback(w http.ResponseWriter, r *http.Request) {
	var req contracts.PaymeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, contracts.PaymeResponse{
			Error: &contracts.PaymeError{Code: contracts.PaymeErrorInternal, Message: "malformed request"},
		})
		return
	}

	outcome, err := h.service.ProcessPayme(r.Context(), r.Header.Get("Authorization"), req)
	if err != nil {
		writeJSON(w, http.StatusOK, contracts.PaymeResponse{ID: req.ID, Error: contracts.PaymeErrorFor(err)})
		return
	}
	writeJSON(w, http.StatusOK, contracts.PaymeResponse{ID: req.ID, Result: paymeResult(req.Method, outcome)})
}

func paymeResult(method string, outcome application.PaymeOutcome) any {
	record := outcome.Record
	switch method {
	case contracts.PaymeMethodCheckPerform:
		return contracts.PaymeCheckPerformResult{Allow: true}
	case contracts.PaymeMethodCreate:
		return contracts.PaymeCreateResult{
			CreateTime:  record.CreatedAt.UnixMilli(),
			Transaction: record.ProviderTransactionID,
			State:       contracts.PaymeStateOf(*record),
		}
	case contracts.PaymeMethodPerform:
		return contracts.PaymePerformResult{
			PerformTime: msOrZero(record.PerformedAt),
			Transaction: record.ProviderTransactionID,
			State:       contracts.PaymeStateOf(*record),
		}
	case contracts.PaymeMethodCancel:
		return contracts.PaymeCancelResult{
			CancelTime:  msOrZero(record.CancelledAt),
			Transaction: record.ProviderTransactionID,
			State:       contracts.PaymeStateOf(*record),
		}
	case contracts.PaymeMethodCheck:
		return contracts.PaymeCheckResult{
			CreateTime:  record.CreatedAt.UnixMilli(),
			PerformTime: msOrZero(record.PerformedAt),
			CancelTime:  msOrZero(record.CancelledAt),
			Transaction: record.ProviderTransactionID,
			State:       contracts.PaymeStateOf(*record),
			Reason:      record.CancelReason,
		}
	default:
		return nil
	}
}

func msOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
