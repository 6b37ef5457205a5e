package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
	"github.com/dmelnik/twin-backend/internal/pkg/logger"
	"github.com/dmelnik/twin-backend/internal/pkg/response"
)

// User-facing messages for the chat endpoint. Error detail stays in the
// server logs.
const (
	msgInvalidRequest     = "Invalid request: message is required"
	msgBotTokenRequired   = "Invalid request: bot verification token is required"
	msgVerificationFailed = "Verification failed. Please refresh the page and try again."
	msgInternalError      = "Sorry, I encountered an error. Please try again later."
	msgNotReady           = "I'm still getting ready. Please try again in a moment."
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Chat handles POST /api/chat - one conversation turn
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Info(ctx, "failed to decode request body", zap.Error(err))
		response.JSON(w, http.StatusBadRequest, entity.ChatResponse{Response: msgInvalidRequest})
		return
	}

	ctxzap.Info(ctx, "handling chat turn",
		zap.Int("history_len", len(req.ConversationHistory)),
		zap.Int("message_len", len(req.Message)),
	)

	reply, err := h.usecase.Chat(ctx, &req)
	if err != nil {
		h.respondChatError(ctx, w, err)
		return
	}

	response.Success(w, entity.ChatResponse{Response: reply})
}

// Bio handles GET /api/chat/bio - public persona info
func (h *Handler) Bio(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Bio")

	bio, err := h.usecase.Bio(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to fetch bio", zap.Error(err))
		if errors.Is(err, entity.ErrKnowledgeBaseNotReady) {
			response.Error(w, http.StatusServiceUnavailable, "Bio information is not available yet")
			return
		}
		response.Error(w, http.StatusInternalServerError, "Failed to fetch bio information")
		return
	}

	response.Success(w, bio)
}

// Health handles GET /api/chat/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) respondChatError(ctx context.Context, w http.ResponseWriter, err error) {
	var blocked *entity.ModerationBlockedError

	switch {
	case errors.Is(err, entity.ErrMissingField):
		ctxzap.Info(ctx, "chat request rejected", zap.Error(err))
		response.JSON(w, http.StatusBadRequest, entity.ChatResponse{Response: msgInvalidRequest})

	case errors.Is(err, entity.ErrBotTokenMissing):
		ctxzap.Info(ctx, "chat request rejected", zap.Error(err))
		response.JSON(w, http.StatusBadRequest, entity.ChatResponse{Response: msgBotTokenRequired})

	case errors.Is(err, entity.ErrBotVerificationFailed):
		ctxzap.Info(ctx, "chat request rejected", zap.Error(err))
		response.JSON(w, http.StatusBadRequest, entity.ChatResponse{Response: msgVerificationFailed})

	case errors.As(err, &blocked):
		ctxzap.Info(ctx, "chat message blocked by moderation",
			zap.String("category", blocked.Category),
			zap.String("reason", blocked.Reason),
		)
		response.JSON(w, http.StatusBadRequest, entity.ChatResponse{Response: blocked.UserMessage})

	case errors.Is(err, entity.ErrKnowledgeBaseNotReady):
		ctxzap.Error(ctx, "knowledge base not ready", zap.Error(err))
		response.JSON(w, http.StatusServiceUnavailable, entity.ChatResponse{Response: msgNotReady})

	default:
		ctxzap.Error(ctx, "chat turn failed", zap.Error(err))
		response.JSON(w, http.StatusInternalServerError, entity.ChatResponse{Response: msgInternalError})
	}
}
