package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two codes. Immutable once created.
type Message struct {
	ID   uuid.UUID
	Room ConversationKey
	Text string
	From Code
	To   Code
	// Time is the display label chosen by the sender's client.
	Time string
	At   time.Time
}

// Conversation is the durable partition of the message.
func (m Message) Conversation() ConversationKey {
	return NewConversationKey(m.From, m.To)
}
