package chat

import "github.com/dmelnik/twin-backend/internal/entity"

// Canned user-facing refusals for blocked messages, keyed by verdict
// category.
const (
	refusalInappropriate = "I'd rather keep this conversation respectful. Feel free to ask me about my work, projects, or professional background instead."
	refusalOffTopic      = "That's a bit outside what I can help with here. Try asking me about my experience, projects, or skills."
	refusalSpam          = "This chat isn't the right place for promotional content. I'm happy to answer questions about my work instead."
	refusalGeneric       = "I can't answer that one. Feel free to ask me about my professional background or projects."
)

func refusalMessage(category string) string {
	switch category {
	case entity.CategoryInappropriate:
		return refusalInappropriate
	case entity.CategoryOffTopic:
		return refusalOffTopic
	case entity.CategorySpam:
		return refusalSpam
	default:
		return refusalGeneric
	}
}
