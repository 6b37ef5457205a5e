package llm

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

const mockReply = "I've mostly worked on backend services: API gateways, data pipelines and the occasional internal tool. Happy to go into detail on any of them."

// MockConnector returns canned completions. Moderation-shaped prompts get a
// permissive JSON verdict so the chat pipeline works end to end with mocks.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion", zap.Int("turns", len(req.Turns)))

	if isModerationPrompt(req) {
		return `{"allowed": true}`, nil
	}

	return mockReply, nil
}

func (m *MockConnector) CompleteStream(ctx context.Context, req *entity.CompletionRequest, onChunk func(string) error) error {
	ctxzap.Info(ctx, "[MOCK] generating streaming completion", zap.Int("turns", len(req.Turns)))

	for _, word := range strings.SplitAfter(mockReply, " ") {
		if err := onChunk(word); err != nil {
			return err
		}
	}
	return nil
}

func isModerationPrompt(req *entity.CompletionRequest) bool {
	return len(req.Turns) == 1 && strings.Contains(req.Turns[0].Content, "content moderator")
}
