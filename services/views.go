package services

import (
	"chat-core/domain"

	"github.com/google/uuid"
)

// MessageView is a message with a denormalized sender snapshot,
// resolved at read time. User data is never stored inside messages.
type MessageView struct {
	Message domain.Message
	Sender  domain.User
}

// ConversationView is one entry of a user's conversation list.
type ConversationView struct {
	Conversation domain.Conversation
	Members      []domain.User
	LastMessage  *domain.Message
	UnreadCount  int
	MembershipID uuid.UUID
}
