package types

import "time"

// Role is the stored role of a conversation message.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleSystem    Role = "SYSTEM"
)

// Message is a persisted conversation message. It is never mutated after creation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	ModelUsed      *string   `json:"modelUsed,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation is owned by the storage layer; the orchestrator only reads
// ModelProfile and the message history.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ModelProfile string    `json:"modelProfile"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LlmRole is one of the three canonical roles submitted to a provider.
type LlmRole string

const (
	LlmRoleSystem    LlmRole = "system"
	LlmRoleUser      LlmRole = "user"
	LlmRoleAssistant LlmRole = "assistant"
)

// LlmMessage is the provider-agnostic unit of a generation request.
type LlmMessage struct {
	Role    LlmRole `json:"role"`
	Content string  `json:"content"`
}

// LlmResponse is the normalized result of a generation call. BackendModelID is
// the identifier the backend reported, which may differ from the one requested.
type LlmResponse struct {
	Content        string `json:"content"`
	BackendModelID string `json:"model"`
}

// RoutingRequest is the input to a reply generation.
type RoutingRequest struct {
	ConversationID       string `json:"conversationId"`
	OverrideModelProfile string `json:"modelProfile,omitempty"`
}
