package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

const (
	topicsCacheKey = "topics"
	topicsCacheTTL = 5 * time.Minute

	// fallbackParagraphID marks the single paragraph of a document
	// without headings.
	fallbackParagraphID = "default"
)

// Usecase serves blog topics backed by documents in a source folder. The
// topic list is cached briefly to keep repeated reads off the document
// source.
type Usecase struct {
	docs     DocsConnector
	folderID string
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewUsecase(docs DocsConnector, folderID string, logger *zap.Logger) *Usecase {
	return &Usecase{
		docs:     docs,
		folderID: folderID,
		cache:    cache.New(topicsCacheTTL, 2*topicsCacheTTL),
		logger:   logger,
	}
}

// ListTopics returns the blog topics, newest first.
func (uc *Usecase) ListTopics(ctx context.Context) ([]entity.BlogTopic, error) {
	if cached, found := uc.cache.Get(topicsCacheKey); found {
		ctxzap.Debug(ctx, "serving topics from cache")
		return cached.([]entity.BlogTopic), nil
	}

	refs, err := uc.docs.ListDocuments(ctx, uc.folderID)
	if err != nil {
		return nil, fmt.Errorf("list blog documents: %w", err)
	}

	topics := make([]entity.BlogTopic, 0, len(refs))
	for _, ref := range refs {
		title := ref.Name
		if title == "" {
			title = "Untitled"
		}
		topics = append(topics, entity.BlogTopic{
			ID:    ref.ID,
			Title: title,
			DocID: ref.ID,
		})
	}

	uc.cache.Set(topicsCacheKey, topics, cache.DefaultExpiration)

	ctxzap.Info(ctx, "blog topics listed", zap.Int("count", len(topics)))

	return topics, nil
}

// GetTopic returns one topic with its paragraphs. Sections with empty
// bodies are skipped; a document without headings yields a single
// paragraph titled with the document's own title.
func (uc *Usecase) GetTopic(ctx context.Context, docID string) (*entity.BlogTopic, error) {
	title, sections, err := uc.docs.FetchDocumentSections(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("fetch blog document %s: %w", docID, err)
	}

	paragraphs := make([]entity.BlogParagraph, 0, len(sections))
	for _, section := range sections {
		content := strings.TrimSpace(section.Body)
		if content == "" {
			continue
		}

		id := fmt.Sprintf("p%d", len(paragraphs)+1)
		if len(sections) == 1 && section.Implicit {
			id = fallbackParagraphID
		}

		paragraphs = append(paragraphs, entity.BlogParagraph{
			ID:      id,
			Heading: section.Heading,
			Content: content,
		})
	}

	ctxzap.Info(ctx, "blog topic fetched",
		zap.String("doc_id", docID),
		zap.String("title", title),
		zap.Int("paragraphs", len(paragraphs)),
	)

	return &entity.BlogTopic{
		ID:         docID,
		Title:      title,
		DocID:      docID,
		Paragraphs: paragraphs,
	}, nil
}
