package gdocs

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

const mockKnowledgeDoc = `NAME:
Alex Morgan

BIO:
I'm a backend engineer who enjoys building small, reliable services.
Outside of work I write about distributed systems and mentor juniors.

RESUME:
Senior Backend Engineer at Example Corp (2021-present).
Backend Engineer at Sample Systems (2018-2021).
B.Sc. Computer Science.`

// MockConnector serves canned documents for local development and tests.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) FetchDocument(ctx context.Context, docID string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] fetching document", zap.String("doc_id", docID))
	return mockKnowledgeDoc, nil
}

func (m *MockConnector) ListDocuments(ctx context.Context, folderID string) ([]entity.DocumentRef, error) {
	ctxzap.Info(ctx, "[MOCK] listing folder documents", zap.String("folder_id", folderID))

	return []entity.DocumentRef{
		{ID: "mock-doc-1", Name: "Why I still like boring technology"},
		{ID: "mock-doc-2", Name: "Notes on on-call rotations"},
	}, nil
}

func (m *MockConnector) FetchDocumentSections(ctx context.Context, docID string) (string, []entity.DocumentSection, error) {
	ctxzap.Info(ctx, "[MOCK] fetching document sections", zap.String("doc_id", docID))

	if docID == "mock-doc-2" {
		return "Notes on on-call rotations", []entity.DocumentSection{
			{Heading: "Notes on on-call rotations", Body: "A single-section post without headings.", Implicit: true},
		}, nil
	}

	return "Why I still like boring technology", []entity.DocumentSection{
		{Heading: "The case for boring", Body: "Proven tools fail in ways you already understand."},
		{Heading: "When to be adventurous", Body: "Spend your innovation budget where it buys you something."},
	}, nil
}
