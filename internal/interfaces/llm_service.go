package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the language model operations used by the analysis stages.
type LLMService interface {
	// Chat generates a completion response based on the conversation history.
	// System messages are passed to the provider as the system instruction.
	Chat(ctx context.Context, messages []Message) (string, error)

	// GenerateJSON asks for a reply matching schema (a JSON-schema map) and
	// decodes it into out. Providers without native structured output are
	// instructed with the schema and the JSON object is extracted from the reply.
	GenerateJSON(ctx context.Context, system, prompt string, schema map[string]interface{}, out interface{}) error
}
