package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
)

const docMimeType = "application/vnd.google-apps.document"

// Connector reads documents through the Google Docs and Drive APIs.
type Connector struct {
	docs   *docs.Service
	drive  *drive.Service
	logger *zap.Logger
}

func NewConnector(ctx context.Context, cfg config.GoogleConfig, logger *zap.Logger) (*Connector, error) {
	client, err := newHTTPClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("google auth: %w", err)
	}

	docsService, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Connector{
		docs:   docsService,
		drive:  driveService,
		logger: logger,
	}, nil
}

// newHTTPClient builds an authenticated client. A service account is
// preferred when configured because it never expires; otherwise an OAuth2
// client with a refresh token is used.
func newHTTPClient(ctx context.Context, cfg config.GoogleConfig) (*http.Client, error) {
	scopes := []string{docs.DocumentsReadonlyScope, drive.DriveReadonlyScope}

	if cfg.ServiceAccountJSON != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.ServiceAccountJSON), scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account credentials: %w", err)
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}

	return conf.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}), nil
}

// FetchDocument returns the plain text of a document, concatenating the
// text runs of every paragraph in document order.
func (c *Connector) FetchDocument(ctx context.Context, docID string) (string, error) {
	doc, err := c.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get document %s: %w", docID, mapGoogleError(err))
	}

	text := documentText(doc.Body)

	ctxzap.Debug(ctx, "fetched document",
		zap.String("doc_id", docID),
		zap.Int("text_len", len(text)),
	)

	return text, nil
}

// ListDocuments returns the non-trashed Google Docs in a folder, newest
// modified first.
func (c *Connector) ListDocuments(ctx context.Context, folderID string) ([]entity.DocumentRef, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", folderID, docMimeType)

	res, err := c.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folderID, mapGoogleError(err))
	}

	refs := make([]entity.DocumentRef, 0, len(res.Files))
	for _, f := range res.Files {
		refs = append(refs, entity.DocumentRef{
			ID:   f.Id,
			Name: f.Name,
		})
	}

	ctxzap.Debug(ctx, "listed folder documents",
		zap.String("folder_id", folderID),
		zap.Int("count", len(refs)),
	)

	return refs, nil
}

// FetchDocumentSections returns the document title and its body split at
// HEADING_* styled paragraphs. A document with no headings yields a single
// section carrying the document title as heading.
func (c *Connector) FetchDocumentSections(ctx context.Context, docID string) (string, []entity.DocumentSection, error) {
	doc, err := c.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("get document %s: %w", docID, mapGoogleError(err))
	}

	title := doc.Title
	if title == "" {
		title = "Untitled"
	}

	sections := splitSections(doc.Body, title)

	ctxzap.Debug(ctx, "fetched document sections",
		zap.String("doc_id", docID),
		zap.String("title", title),
		zap.Int("sections", len(sections)),
	)

	return title, sections, nil
}

func documentText(body *docs.Body) string {
	if body == nil {
		return ""
	}

	var b strings.Builder
	for _, el := range body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
	}
	return b.String()
}

func splitSections(body *docs.Body, title string) []entity.DocumentSection {
	if body == nil {
		return nil
	}

	var sections []entity.DocumentSection
	current := entity.DocumentSection{Heading: title, Implicit: true}
	var currentBody strings.Builder
	sawHeading := false

	flush := func() {
		current.Body = strings.TrimSpace(currentBody.String())
		if current.Body != "" || sawHeading {
			sections = append(sections, current)
		}
		currentBody.Reset()
	}

	for _, el := range body.Content {
		p := el.Paragraph
		if p == nil {
			continue
		}

		var text strings.Builder
		for _, pe := range p.Elements {
			if pe.TextRun != nil {
				text.WriteString(pe.TextRun.Content)
			}
		}

		if p.ParagraphStyle != nil && strings.HasPrefix(p.ParagraphStyle.NamedStyleType, "HEADING_") {
			flush()
			sawHeading = true
			current = entity.DocumentSection{Heading: strings.TrimSpace(text.String())}
			continue
		}

		currentBody.WriteString(text.String())
	}
	flush()

	return sections
}

func mapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return entity.ErrTopicNotFound
	}
	return err
}
