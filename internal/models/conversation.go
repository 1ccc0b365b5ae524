package models

import "time"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in the conversation.
type Turn struct {
	ID         string    `json:"id" msgpack:"id"`
	ExchangeID string    `json:"exchangeId" msgpack:"exchange_id"`
	Role       Role      `json:"role" msgpack:"role"`
	Content    string    `json:"content" msgpack:"content"`
	Source     string    `json:"source,omitempty" msgpack:"source,omitempty"` // assistant turns only
	IsError    bool      `json:"isError,omitempty" msgpack:"is_error,omitempty"`
	CreatedAt  time.Time `json:"createdAt" msgpack:"created_at"`
}

// EntryKind distinguishes settled turns from in-flight placeholders.
type EntryKind string

const (
	EntryTurn    EntryKind = "turn"
	EntryPending EntryKind = "pending"
)

// Entry is a slot in the rendered conversation: either a turn or the
// pending marker of an exchange that has not resolved yet.
type Entry struct {
	Kind       EntryKind `json:"kind"`
	ExchangeID string    `json:"exchangeId"`
	Turn       Turn      `json:"turn,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsPending reports whether the entry is an in-progress marker.
func (e Entry) IsPending() bool {
	return e.Kind == EntryPending
}

// WelcomeMessage is the placeholder shown while the conversation is empty.
type WelcomeMessage struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Examples []string `json:"examples"`
}

// Welcome returns the fixed welcome placeholder.
func Welcome() WelcomeMessage {
	return WelcomeMessage{
		Title: "Welcome to Car Manual Assistant",
		Body:  "Upload your car manual and ask any questions about maintenance, features, or troubleshooting.",
		Examples: []string{
			"How do I change the oil?",
			"What does the check engine light mean?",
			"What is the recommended tire pressure?",
		},
	}
}
