package chat

import (
	"context"

	"github.com/dmelnik/twin-backend/internal/entity"
)

type ChatUsecase interface {
	Chat(ctx context.Context, req *entity.ChatRequest) (string, error)
	Bio(ctx context.Context) (*entity.BioResponse, error)
}
