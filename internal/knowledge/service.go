package knowledge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
)

// DocumentSource fetches the raw text of the persona document.
type DocumentSource interface {
	FetchDocument(ctx context.Context, docID string) (string, error)
}

// Service caches the parsed persona content and its derived system prompt.
// The cached instance is replaced wholesale on refresh; readers always see
// a complete snapshot from a single refresh, and a failed refresh never
// disturbs the snapshot already in place.
type Service struct {
	source  DocumentSource
	docID   string
	cfg     config.KnowledgeConfig
	current atomic.Pointer[entity.KnowledgeBase]
	logger  *zap.Logger
}

func NewService(source DocumentSource, docID string, cfg config.KnowledgeConfig, logger *zap.Logger) *Service {
	return &Service{
		source: source,
		docID:  docID,
		cfg:    cfg,
		logger: logger,
	}
}

// Get returns the current snapshot, or ErrKnowledgeBaseNotReady if no
// refresh has succeeded yet.
func (s *Service) Get() (*entity.KnowledgeBase, error) {
	kb := s.current.Load()
	if kb == nil {
		return nil, entity.ErrKnowledgeBaseNotReady
	}
	return kb, nil
}

// Refresh fetches the persona document, parses it and swaps in a new
// snapshot. The fetch is retried per the configured retry policy.
func (s *Service) Refresh(ctx context.Context) error {
	var raw string
	err := retry.Do(
		func() error {
			var fetchErr error
			raw, fetchErr = s.source.FetchDocument(ctx, s.docID)
			return fetchErr
		},
		append(s.cfg.Retry.ToRetryOptions(), retry.Context(ctx))...,
	)
	if err != nil {
		return fmt.Errorf("fetch knowledge document: %w", err)
	}

	name, bio, resume := parseSections(raw)

	kb := &entity.KnowledgeBase{
		Name:         name,
		Bio:          bio,
		Resume:       resume,
		SystemPrompt: buildSystemPrompt(bio, resume),
		LastUpdated:  time.Now(),
	}
	s.current.Store(kb)

	s.logger.Info("knowledge base refreshed",
		zap.String("name", name),
		zap.Int("bio_len", len(bio)),
		zap.Int("resume_len", len(resume)),
		zap.Time("last_updated", kb.LastUpdated),
	)

	return nil
}

// RefreshAsync triggers a refresh in the background without blocking the
// caller; used on read endpoints to keep the cache warm opportunistically.
func (s *Service) RefreshAsync() {
	runID := uuid.New().String()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RefreshTimeout)
		defer cancel()

		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("background knowledge refresh failed",
				zap.String("refresh_run_id", runID),
				zap.Error(err),
			)
			return
		}

		s.logger.Debug("background knowledge refresh completed",
			zap.String("refresh_run_id", runID),
		)
	}()
}
