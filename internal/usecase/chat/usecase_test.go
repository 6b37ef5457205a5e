package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmelnik/twin-backend/internal/entity"
)

type fakeCaptcha struct {
	result *entity.CaptchaResult
	err    error
	calls  int
}

func (f *fakeCaptcha) Verify(ctx context.Context, token string) (*entity.CaptchaResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeLLM answers moderation calls with moderationReply and chat calls
// with chatReply. Moderation calls are recognized by the override model.
type fakeLLM struct {
	moderationReply string
	moderationErr   error
	chatReply       string
	chatErr         error

	moderationCalls int
	chatCalls       int
	lastChatReq     *entity.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	if req.Model == "moderation-model" {
		f.moderationCalls++
		if f.moderationErr != nil {
			return "", f.moderationErr
		}
		return f.moderationReply, nil
	}

	f.chatCalls++
	f.lastChatReq = req
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *entity.CompletionRequest, onChunk func(string) error) error {
	reply, err := f.Complete(ctx, req)
	if err != nil {
		return err
	}
	return onChunk(reply)
}

type fakeKnowledge struct {
	kb           *entity.KnowledgeBase
	err          error
	refreshCalls int
}

func (f *fakeKnowledge) Get() (*entity.KnowledgeBase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.kb, nil
}

func (f *fakeKnowledge) RefreshAsync() {
	f.refreshCalls++
}

func newTestUsecase(captcha *fakeCaptcha, llm *fakeLLM, knowledge *fakeKnowledge) *Usecase {
	return NewUsecase(captcha, llm, knowledge, Config{
		MinBotScore:     0.5,
		ModerationModel: "moderation-model",
	}, zap.NewNop())
}

func passingDeps() (*fakeCaptcha, *fakeLLM, *fakeKnowledge) {
	captcha := &fakeCaptcha{result: &entity.CaptchaResult{Success: true, Score: 0.9}}
	llm := &fakeLLM{
		moderationReply: `{"allowed": true}`,
		chatReply:       "Hi, I'm Alex.",
	}
	knowledge := &fakeKnowledge{kb: &entity.KnowledgeBase{
		Name:         "Alex",
		Bio:          "a bio",
		SystemPrompt: "system prompt",
		LastUpdated:  time.Now(),
	}}
	return captcha, llm, knowledge
}

func TestChatHappyPath(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	reply, err := uc.Chat(context.Background(), &entity.ChatRequest{
		Message:  "What do you do?",
		BotToken: "token",
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if reply != "Hi, I'm Alex." {
		t.Fatalf("reply = %q", reply)
	}
	if llm.moderationCalls != 1 || llm.chatCalls != 1 {
		t.Fatalf("calls: moderation=%d chat=%d", llm.moderationCalls, llm.chatCalls)
	}
	if llm.lastChatReq.System != "system prompt" {
		t.Fatalf("system prompt not forwarded: %q", llm.lastChatReq.System)
	}
	last := llm.lastChatReq.Turns[len(llm.lastChatReq.Turns)-1]
	if last.Role != entity.RoleUser || last.Content != "What do you do?" {
		t.Fatalf("last turn = %+v", last)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "   ", BotToken: "token"})
	if !errors.Is(err, entity.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if captcha.calls != 0 || llm.chatCalls != 0 {
		t.Fatalf("no downstream calls expected")
	}
}

func TestChatMissingBotToken(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi"})
	if !errors.Is(err, entity.ErrBotTokenMissing) {
		t.Fatalf("expected ErrBotTokenMissing, got %v", err)
	}
	if captcha.calls != 0 {
		t.Fatalf("verification must not run without a token")
	}
}

func TestChatVerificationErrorFailsClosed(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	captcha.err = errors.New("siteverify unreachable")
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})
	if !errors.Is(err, entity.ErrBotVerificationFailed) {
		t.Fatalf("expected ErrBotVerificationFailed, got %v", err)
	}
	if llm.moderationCalls != 0 || llm.chatCalls != 0 {
		t.Fatalf("no llm calls after failed verification")
	}
}

func TestChatLowScoreRejected(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	captcha.result = &entity.CaptchaResult{Success: true, Score: 0.3}
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})
	if !errors.Is(err, entity.ErrBotVerificationFailed) {
		t.Fatalf("expected ErrBotVerificationFailed, got %v", err)
	}
	if llm.moderationCalls != 0 {
		t.Fatalf("moderation must not run for a rejected caller")
	}
}

func TestChatKnowledgeNotReady(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	knowledge.err = entity.ErrKnowledgeBaseNotReady
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})
	if !errors.Is(err, entity.ErrKnowledgeBaseNotReady) {
		t.Fatalf("expected ErrKnowledgeBaseNotReady, got %v", err)
	}
	if llm.chatCalls != 0 {
		t.Fatalf("completion must not run without a knowledge base")
	}
}

func TestChatModerationBlocked(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	llm.moderationReply = `{"allowed": false, "reason": "profanity", "category": "inappropriate"}`
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})

	var blocked *entity.ModerationBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ModerationBlockedError, got %v", err)
	}
	if blocked.Category != entity.CategoryInappropriate {
		t.Fatalf("category = %q", blocked.Category)
	}
	if blocked.UserMessage == "" {
		t.Fatalf("blocked error should carry a user-facing message")
	}
	if llm.chatCalls != 0 {
		t.Fatalf("completion must not run for a blocked message")
	}
}

func TestChatModerationUnavailableFailsClosed(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	llm.moderationErr = errors.New("provider down")
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})
	if err == nil {
		t.Fatalf("expected error when moderation is unavailable")
	}
	if llm.chatCalls != 0 {
		t.Fatalf("completion must not run when moderation errored")
	}
}

func TestChatModerationGarbageVerdictFailsClosed(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	llm.moderationReply = "sure, that message looks fine to me"
	uc := newTestUsecase(captcha, llm, knowledge)

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{Message: "hi", BotToken: "token"})
	if err == nil {
		t.Fatalf("expected error on unparseable verdict")
	}
	if llm.chatCalls != 0 {
		t.Fatalf("completion must not run on an unparseable verdict")
	}
}

func TestChatHistoryTruncation(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	history := make([]entity.ConversationTurn, 0, 15)
	for i := 0; i < 15; i++ {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		history = append(history, entity.ConversationTurn{
			Role:    role,
			Content: fmt.Sprintf("turn %d", i),
		})
	}

	_, err := uc.Chat(context.Background(), &entity.ChatRequest{
		Message:             "latest question",
		ConversationHistory: history,
		BotToken:            "token",
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	// 10 retained history turns plus the new message.
	if len(llm.lastChatReq.Turns) != 11 {
		t.Fatalf("sent %d turns, want 11", len(llm.lastChatReq.Turns))
	}
	if llm.lastChatReq.Turns[0].Content != "turn 5" {
		t.Fatalf("oldest retained turn = %q, want %q", llm.lastChatReq.Turns[0].Content, "turn 5")
	}
}

func TestModeratePromptEmbedsNameAndQuestion(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	var captured string
	uc.llm = &captureLLM{inner: llm, capture: &captured}

	_, err := uc.Moderate(context.Background(), "is this thing on?", "Alex")
	if err != nil {
		t.Fatalf("moderate failed: %v", err)
	}
	if !strings.Contains(captured, "Alex") {
		t.Fatalf("prompt should embed the subject name")
	}
	if !strings.Contains(captured, `"is this thing on?"`) {
		t.Fatalf("prompt should embed the quoted question")
	}
}

type captureLLM struct {
	inner   *fakeLLM
	capture *string
}

func (c *captureLLM) Complete(ctx context.Context, req *entity.CompletionRequest) (string, error) {
	if len(req.Turns) > 0 {
		*c.capture = req.Turns[len(req.Turns)-1].Content
	}
	return c.inner.Complete(ctx, req)
}

func (c *captureLLM) CompleteStream(ctx context.Context, req *entity.CompletionRequest, onChunk func(string) error) error {
	return c.inner.CompleteStream(ctx, req, onChunk)
}

func TestBioReturnsSnapshotAndRefreshes(t *testing.T) {
	captcha, llm, knowledge := passingDeps()
	uc := newTestUsecase(captcha, llm, knowledge)

	bio, err := uc.Bio(context.Background())
	if err != nil {
		t.Fatalf("bio failed: %v", err)
	}
	if bio.Name != "Alex" || bio.Bio != "a bio" {
		t.Fatalf("unexpected bio: %+v", bio)
	}
	if knowledge.refreshCalls != 1 {
		t.Fatalf("bio should trigger a background refresh")
	}
}

func TestRefusalMessages(t *testing.T) {
	cases := map[string]string{
		entity.CategoryInappropriate: refusalInappropriate,
		entity.CategoryOffTopic:      refusalOffTopic,
		entity.CategorySpam:          refusalSpam,
		"something-else":             refusalGeneric,
		"":                           refusalGeneric,
	}
	for category, want := range cases {
		if got := refusalMessage(category); got != want {
			t.Fatalf("refusalMessage(%q) = %q, want %q", category, got, want)
		}
	}
}
