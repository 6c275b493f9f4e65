// Package domain contains core domain types for the Trupy application.
package domain

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a session transcript. Messages are
// append-only: once added to a transcript they are never mutated or removed.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
