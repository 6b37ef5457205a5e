package blog

import (
	"context"

	"github.com/dmelnik/twin-backend/internal/entity"
)

type BlogUsecase interface {
	ListTopics(ctx context.Context) ([]entity.BlogTopic, error)
	GetTopic(ctx context.Context, docID string) (*entity.BlogTopic, error)
}
