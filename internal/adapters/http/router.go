package http

import (
	"net/http"

	"github.com/bozorapp/payment-service/internal/application"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/payments", func(r chi.Router) {
		// Provider callbacks authenticate themselves (signature / basic
		// auth); they must stay outside the bearer-token middleware.
		r.Post("/click/prepare", handler.clickCallback)
		r.Post("/click/complete", handler.clickCallback)
		r.Post("/payme", handler.paymeCallback)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/status/{order_id}", handler.getPaymentStatus)
		})
	})
	return r
}
