package blog

import (
	"context"

	"github.com/dmelnik/twin-backend/internal/entity"
)

type DocsConnector interface {
	ListDocuments(ctx context.Context, folderID string) ([]entity.DocumentRef, error)
	FetchDocumentSections(ctx context.Context, docID string) (string, []entity.DocumentSection, error)
}
