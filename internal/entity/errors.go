package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Knowledge base errors
	ErrKnowledgeBaseNotReady = errors.New("knowledge base not initialized")

	// Chat pipeline errors
	ErrBotTokenMissing       = errors.New("bot verification token is required")
	ErrBotVerificationFailed = errors.New("bot verification failed")

	// Blog errors
	ErrTopicNotFound = errors.New("blog topic not found")

	// Validation errors
	ErrMissingField = errors.New("required field is missing")
)

// ModerationBlockedError reports a message rejected by the moderation gate.
// UserMessage is the canned refusal text shown to the client; Category and
// Reason come from the verdict.
type ModerationBlockedError struct {
	Category    string
	Reason      string
	UserMessage string
}

func (e *ModerationBlockedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("message blocked by moderation (%s): %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("message blocked by moderation (%s)", e.Category)
}
