package entity

import "time"

type ChatRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
	BotToken            string             `json:"botToken"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type BioResponse struct {
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	LastUpdated time.Time `json:"lastUpdated"`
}