package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) getPaymentStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := claimsFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	orderID := chi.URLParam(r, "order_id")
	resp, err := h.service.GetPaymentStatus(r.Context(), orderID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
