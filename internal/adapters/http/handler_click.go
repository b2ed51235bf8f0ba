package http

import (
	"net/http"

	"github.com/bozorapp/payment-service/internal/contracts"
)

// clickCallback serves both SHOP-API actions. Click always expects HTTP 200;
// the outcome travels in the error field of the JSON body.
func (h *Handler) clickCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusOK, contracts.ClickResponse{
			Error:     contracts.ClickErrorActionNotFound,
			ErrorNote: "malformed request",
		})
		return
	}
	req := contracts.ClickRequest{
		ClickTransID:    r.PostFormValue("click_trans_id"),
		ServiceID:       r.PostFormValue("service_id"),
		ClickPaydocID:   r.PostFormValue("click_paydoc_id"),
		MerchantTransID: r.PostFormValue("merchant_trans_id"),
		Amount:          r.PostFormValue("amount"),
		Action:          r.PostFormValue("action"),
		Error:           r.PostFormValue("error"),
		SignTime:        r.PostFormValue("sign_time"),
		SignString:      r.PostFormValue("sign_string"),
	}

	_, event, err := h.service.ProcessClick(r.Context(), req)
	code, note := contracts.ClickError(err)
	writeJSON(w, http.StatusOK, contracts.ClickResponse{
		ClickTransID:    event.ProviderTransactionID,
		MerchantTransID: event.OrderReference,
		Error:           code,
		ErrorNote:       note,
	})
}
