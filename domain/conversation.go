package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups two users (direct) or more (group).
// A direct conversation holds exactly two memberships and is unique
// per unordered pair of users.
type Conversation struct {
	ID              uuid.UUID
	IsGroup         bool
	GroupName       string    // required iff IsGroup
	CreatedBy       uuid.UUID // uuid.Nil for direct conversations
	LastMessageTime time.Time // zero until the first message is sent
}

// Membership links one user to one conversation and carries that
// user's read watermark. One membership per (conversation, user) pair.
type Membership struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	UserID            uuid.UUID
	LastSeenMessageID uuid.UUID // uuid.Nil when nothing has been read yet
}
