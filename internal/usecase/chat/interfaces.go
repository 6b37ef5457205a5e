package chat

import (
	"context"

	"github.com/dmelnik/twin-backend/internal/entity"
)

type CaptchaConnector interface {
	Verify(ctx context.Context, token string) (*entity.CaptchaResult, error)
}

type CompletionConnector interface {
	Complete(ctx context.Context, req *entity.CompletionRequest) (string, error)
	CompleteStream(ctx context.Context, req *entity.CompletionRequest, onChunk func(string) error) error
}

type KnowledgeProvider interface {
	Get() (*entity.KnowledgeBase, error)
	RefreshAsync()
}
