package chat

import "mentorbot/internal/mentor"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role
	Content string
}

// SourceLLM marks replies produced by the model. Replies produced by a
// middleware carry that middleware's id instead.
const SourceLLM = "llm"

// Reply is what the facilitator sees for one turn.
type Reply struct {
	Text   string         `json:"text"`
	Source string         `json:"source"`
	Action *mentor.Action `json:"action,omitempty"`
}
