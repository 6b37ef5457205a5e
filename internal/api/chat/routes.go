package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the chat endpoints. chatLimits apply to the
// conversation endpoint only, readLimit guards the bio endpoint.
func RegisterRoutes(r chi.Router, handler *Handler, chatLimits []func(http.Handler) http.Handler, readLimit func(http.Handler) http.Handler) {
	r.Route("/api/chat", func(r chi.Router) {
		r.With(chatLimits...).Post("/", handler.Chat)
		r.With(readLimit).Get("/bio", handler.Bio)
		r.Get("/health", handler.Health)
	})
}
