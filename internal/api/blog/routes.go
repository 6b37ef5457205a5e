package blog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, handler *Handler, readLimit func(http.Handler) http.Handler) {
	r.Route("/api/blog", func(r chi.Router) {
		r.Use(readLimit)
		r.Get("/topics", handler.ListTopics)
		r.Get("/topics/{docId}", handler.GetTopic)
	})
}
