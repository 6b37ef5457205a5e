package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
	"github.com/dmelnik/twin-backend/internal/pkg/retry"
)

type stubSource struct {
	doc   string
	err   error
	calls int
}

func (s *stubSource) FetchDocument(ctx context.Context, docID string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.doc, nil
}

func testKnowledgeConfig() config.KnowledgeConfig {
	return config.KnowledgeConfig{
		RefreshInterval: time.Minute,
		RefreshTimeout:  time.Second,
		Retry: retry.RetryConfig{
			Attempts: 1,
			Delay:    time.Millisecond,
			MaxDelay: time.Millisecond,
		},
	}
}

func TestParseSections(t *testing.T) {
	doc := "NAME:\nAlex Morgan\n\nBIO:\nSoftware engineer from Berlin.\n\nRESUME:\n2020-2024: Backend developer."

	name, bio, resume := parseSections(doc)
	if name != "Alex Morgan" {
		t.Fatalf("name = %q", name)
	}
	if bio != "Software engineer from Berlin." {
		t.Fatalf("bio = %q", bio)
	}
	if resume != "2020-2024: Backend developer." {
		t.Fatalf("resume = %q", resume)
	}
}

func TestParseSectionsAnyOrder(t *testing.T) {
	doc := "RESUME:\nwork history\n\nNAME:\nAlex\n\nBIO:\nhello"

	name, bio, resume := parseSections(doc)
	if name != "Alex" || bio != "hello" || resume != "work history" {
		t.Fatalf("got name=%q bio=%q resume=%q", name, bio, resume)
	}
}

func TestParseSectionsCaseInsensitive(t *testing.T) {
	doc := "name: Alex\nbio: a bio\nresume: a resume"

	name, bio, resume := parseSections(doc)
	if name != "Alex" || bio != "a bio" || resume != "a resume" {
		t.Fatalf("got name=%q bio=%q resume=%q", name, bio, resume)
	}
}

func TestParseSectionsNonASCIIText(t *testing.T) {
	// Runes whose upper-case form has a different UTF-8 byte length must
	// not shift marker offsets or walk past the end of the text.
	doc := strings.Repeat("ȿ", 10) + "\nNAME: Alice\nBIO: hi"

	name, bio, _ := parseSections(doc)
	if name != "Alice" {
		t.Fatalf("name = %q, want %q", name, "Alice")
	}
	if bio != "hi" {
		t.Fatalf("bio = %q, want %q", bio, "hi")
	}

	doc = "ıııı\nNAME: Alice\nBIO: hi"
	name, bio, _ = parseSections(doc)
	if name != "Alice" {
		t.Fatalf("name after shrinking runes = %q, want %q", name, "Alice")
	}
	if bio != "hi" {
		t.Fatalf("bio after shrinking runes = %q, want %q", bio, "hi")
	}
}

func TestParseSectionsMissingMarkers(t *testing.T) {
	name, bio, resume := parseSections("BIO: only a bio here")
	if name != "" || resume != "" {
		t.Fatalf("missing sections should be empty, got name=%q resume=%q", name, resume)
	}
	if bio != "only a bio here" {
		t.Fatalf("bio = %q", bio)
	}

	name, bio, resume = parseSections("free text without any markers")
	if name != "" || bio != "" || resume != "" {
		t.Fatalf("no markers should yield empty sections")
	}
}

func TestBuildSystemPromptPlaceholders(t *testing.T) {
	prompt := buildSystemPrompt("", "")
	if !strings.Contains(prompt, "No bio information available.") {
		t.Fatalf("empty bio should use placeholder")
	}
	if !strings.Contains(prompt, "No resume information available.") {
		t.Fatalf("empty resume should use placeholder")
	}

	prompt = buildSystemPrompt("my bio", "my resume")
	if !strings.Contains(prompt, "my bio") || !strings.Contains(prompt, "my resume") {
		t.Fatalf("prompt should embed the provided sections")
	}
	if !strings.Contains(prompt, "digital twin") {
		t.Fatalf("prompt should carry the persona instructions")
	}
}

func TestGetBeforeRefresh(t *testing.T) {
	svc := NewService(&stubSource{}, "doc-1", testKnowledgeConfig(), zap.NewNop())

	_, err := svc.Get()
	if !errors.Is(err, entity.ErrKnowledgeBaseNotReady) {
		t.Fatalf("expected ErrKnowledgeBaseNotReady, got %v", err)
	}
}

func TestRefreshStoresSnapshot(t *testing.T) {
	source := &stubSource{doc: "NAME:\nAlex\n\nBIO:\na bio\n\nRESUME:\na resume"}
	svc := NewService(source, "doc-1", testKnowledgeConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	kb, err := svc.Get()
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kb.Name != "Alex" || kb.Bio != "a bio" || kb.Resume != "a resume" {
		t.Fatalf("unexpected snapshot: %+v", kb)
	}
	if !strings.Contains(kb.SystemPrompt, "a bio") {
		t.Fatalf("system prompt should embed bio")
	}
	if kb.LastUpdated.IsZero() {
		t.Fatalf("last updated should be set")
	}
}

func TestFailedRefreshKeepsSnapshot(t *testing.T) {
	source := &stubSource{doc: "NAME:\nAlex\n\nBIO:\nfirst\n\nRESUME:\nr"}
	svc := NewService(source, "doc-1", testKnowledgeConfig(), zap.NewNop())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}

	source.err = errors.New("docs api down")
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}

	kb, err := svc.Get()
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kb.Bio != "first" {
		t.Fatalf("failed refresh must not disturb the snapshot, bio = %q", kb.Bio)
	}
}

func TestRefreshRetriesFetch(t *testing.T) {
	cfg := testKnowledgeConfig()
	cfg.Retry.Attempts = 3

	source := &stubSource{err: errors.New("transient")}
	svc := NewService(source, "doc-1", cfg, zap.NewNop())

	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if source.calls != 3 {
		t.Fatalf("fetch attempted %d times, want 3", source.calls)
	}
}
