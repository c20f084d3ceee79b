// This file defines Message records and the rules that mutate them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// Reaction is one (user, emoji) entry on a message. The list on a
// message keeps insertion order and holds at most one entry per pair.
type Reaction struct {
	UserID uuid.UUID
	Emoji  string
}

// Message is an append-only chat event. CreatedAt is assigned once at
// creation and is the sole ordering key within a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Type           MessageType
	IsDeleted      bool
	Reactions      []Reaction
	CreatedAt      time.Time
}

// ToggleReaction removes the (userID, emoji) entry when present,
// appends it otherwise. Distinct emojis from the same user coexist.
func (m *Message) ToggleReaction(userID uuid.UUID, emoji string) {
	for i, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
}

// SoftDelete clears the content and marks the message deleted.
// Reactions and CreatedAt survive: they refer to the act of sending,
// not to the content.
func (m *Message) SoftDelete() {
	m.IsDeleted = true
	m.Content = ""
}
