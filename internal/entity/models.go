package entity

import "time"

// Conversation roles accepted from clients and forwarded to the completion
// provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Moderation verdict categories returned by the moderation gate.
const (
	CategoryInappropriate = "inappropriate"
	CategoryOffTopic      = "off-topic"
	CategorySpam          = "spam"
)

// KnowledgeBase is the parsed persona content plus the system prompt derived
// from it. Instances are immutable: a refresh builds a new value and swaps it
// in wholesale, so readers always see fields from the same refresh.
type KnowledgeBase struct {
	Name         string
	Bio          string
	Resume       string
	SystemPrompt string
	LastUpdated  time.Time
}

// ConversationTurn is a single prior message in a chat conversation.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModerationVerdict is the moderation gate's classification of one user
// message. It is produced per request and never persisted.
type ModerationVerdict struct {
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
}

// CaptchaResult is the bot-verification provider's answer for one token.
type CaptchaResult struct {
	Success bool
	Score   float64
}

// DocumentRef identifies a document in the source folder.
type DocumentRef struct {
	ID   string
	Name string
}

// DocumentSection is one heading-delimited part of a source document.
// Implicit marks a section whose heading was synthesized from the document
// title because the text carried no styled heading.
type DocumentSection struct {
	Heading  string
	Body     string
	Implicit bool
}

// BlogParagraph is one rendered section of a blog topic.
type BlogParagraph struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// BlogTopic is a blog post backed by a single document.
type BlogTopic struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	DocID      string          `json:"docId"`
	Paragraphs []BlogParagraph `json:"paragraphs,omitempty"`
}
