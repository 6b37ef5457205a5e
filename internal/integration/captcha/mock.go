package captcha

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

// MockConnector accepts every non-empty token with a fixed score.
type MockConnector struct {
	score  float64
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		score:  0.9,
		logger: logger,
	}
}

func (m *MockConnector) Verify(ctx context.Context, token string) (*entity.CaptchaResult, error) {
	ctxzap.Info(ctx, "[MOCK] verifying captcha token", zap.Float64("score", m.score))

	return &entity.CaptchaResult{
		Success: token != "",
		Score:   m.score,
	}, nil
}
