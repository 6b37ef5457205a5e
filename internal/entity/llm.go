package entity

// CompletionRequest is the provider-agnostic input of one completion call.
type CompletionRequest struct {
	// System is the system prompt; empty means no system prompt.
	System string
	// Turns is the ordered conversation sent to the provider, ending with
	// the message to answer.
	Turns []ConversationTurn
	// Model overrides the connector's configured model when non-empty.
	Model string
	// MaxTokens bounds the reply length; 0 means the connector default.
	MaxTokens int
}
