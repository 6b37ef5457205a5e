package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

// historyLimit bounds the conversation context forwarded to the completion
// provider; older turns are dropped first.
const historyLimit = 10

// Config holds the chat pipeline tunables.
type Config struct {
	// MinBotScore is the verification score below which a request is
	// rejected as a bot.
	MinBotScore float64
	// ModerationModel optionally overrides the connector's model for
	// moderation calls.
	ModerationModel string
}

// Usecase runs one chat turn: verification, moderation, completion.
type Usecase struct {
	captcha   CaptchaConnector
	llm       CompletionConnector
	knowledge KnowledgeProvider
	cfg       Config
	logger    *zap.Logger
}

func NewUsecase(
	captcha CaptchaConnector,
	llm CompletionConnector,
	knowledge KnowledgeProvider,
	cfg Config,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		captcha:   captcha,
		llm:       llm,
		knowledge: knowledge,
		cfg:       cfg,
		logger:    logger,
	}
}

// Chat handles one inbound message. Each gate is ordered and hard: any
// failure short-circuits the remaining steps, and the completion provider
// is never called after a rejection.
func (uc *Usecase) Chat(ctx context.Context, req *entity.ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	if req.BotToken == "" {
		return "", entity.ErrBotTokenMissing
	}

	result, err := uc.captcha.Verify(ctx, req.BotToken)
	if err != nil {
		// Fail closed: a verification error never defaults to "pass".
		ctxzap.Warn(ctx, "bot verification errored", zap.Error(err))
		return "", entity.ErrBotVerificationFailed
	}
	if !result.Success || result.Score < uc.cfg.MinBotScore {
		ctxzap.Info(ctx, "bot verification rejected",
			zap.Bool("success", result.Success),
			zap.Float64("score", result.Score),
		)
		return "", entity.ErrBotVerificationFailed
	}

	kb, err := uc.knowledge.Get()
	if err != nil {
		return "", err
	}

	verdict, err := uc.Moderate(ctx, req.Message, kb.Name)
	if err != nil {
		return "", fmt.Errorf("moderation unavailable: %w", err)
	}
	if !verdict.Allowed {
		return "", &entity.ModerationBlockedError{
			Category:    verdict.Category,
			Reason:      verdict.Reason,
			UserMessage: refusalMessage(verdict.Category),
		}
	}

	turns := truncateHistory(req.ConversationHistory, historyLimit)
	turns = append(turns, entity.ConversationTurn{
		Role:    entity.RoleUser,
		Content: req.Message,
	})

	reply, err := uc.llm.Complete(ctx, &entity.CompletionRequest{
		System: kb.SystemPrompt,
		Turns:  turns,
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	return reply, nil
}

// Bio returns the public persona fields from the knowledge base and
// triggers an opportunistic background refresh; the response never waits
// on it.
func (uc *Usecase) Bio(ctx context.Context) (*entity.BioResponse, error) {
	kb, err := uc.knowledge.Get()
	if err != nil {
		return nil, err
	}

	uc.knowledge.RefreshAsync()

	return &entity.BioResponse{
		Name:        kb.Name,
		Bio:         kb.Bio,
		LastUpdated: kb.LastUpdated,
	}, nil
}

// truncateHistory keeps the most recent limit turns, preserving order.
func truncateHistory(history []entity.ConversationTurn, limit int) []entity.ConversationTurn {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	turns := make([]entity.ConversationTurn, 0, len(history)+1)
	return append(turns, history...)
}
