package blog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
	"github.com/dmelnik/twin-backend/internal/pkg/logger"
	"github.com/dmelnik/twin-backend/internal/pkg/response"
)

type Handler struct {
	usecase BlogUsecase
}

func NewHandler(usecase BlogUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// ListTopics handles GET /api/blog/topics
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListTopics")

	topics, err := h.usecase.ListTopics(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to list blog topics", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch blog topics")
		return
	}

	response.Success(w, entity.BlogTopicsResponse{
		Topics: topics,
		Count:  len(topics),
	})
}

// GetTopic handles GET /api/blog/topics/{docId}
func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetTopic")

	docID := chi.URLParam(r, "docId")
	if docID == "" {
		response.Error(w, http.StatusBadRequest, "Topic id is required")
		return
	}
	ctx = logger.AddFields(ctx, zap.String("doc_id", docID))

	topic, err := h.usecase.GetTopic(ctx, docID)
	if err != nil {
		if errors.Is(err, entity.ErrTopicNotFound) {
			ctxzap.Info(ctx, "blog topic not found")
			response.Error(w, http.StatusNotFound, "Topic not found")
			return
		}
		ctxzap.Error(ctx, "failed to fetch blog topic", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to fetch blog topic")
		return
	}

	response.Success(w, topic)
}
