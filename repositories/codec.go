package repositories

import (
	"time"

	"chat-core/domain"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Disk structs are the msgpack-encoded shape of the domain records.
// UUIDs travel as strings and timestamps as UnixNano, so keys and
// values stay comparable when inspecting the raw store.

type diskUser struct {
	ID          string
	ExternalKey string
	Name        string
	Email       string
	AvatarURL   string
	Online      bool
}

type diskConversation struct {
	ID            string
	IsGroup       bool
	GroupName     string
	CreatedBy     string // empty for direct conversations
	LastMessageAt int64  // 0 until the first message
}

type diskMembership struct {
	ID             string
	ConversationID string
	UserID         string
	LastSeen       string // empty when nothing has been read
}

type diskReaction struct {
	UserID string
	Emoji  string
}

type diskMessage struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	Type           string
	Deleted        bool
	Reactions      []diskReaction
	At             int64
}

type diskTyping struct {
	ConversationID string
	UserID         string
	LastTypedAt    int64
}

func fromUser(u domain.User) diskUser {
	return diskUser{
		ID:          u.ID.String(),
		ExternalKey: u.ExternalIdentityKey,
		Name:        u.Name,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		Online:      u.IsOnline,
	}
}

func toUser(d diskUser) (domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:                  id,
		ExternalIdentityKey: d.ExternalKey,
		Name:                d.Name,
		Email:               d.Email,
		AvatarURL:           d.AvatarURL,
		IsOnline:            d.Online,
	}, nil
}

func fromConversation(c domain.Conversation) diskConversation {
	d := diskConversation{
		ID:        c.ID.String(),
		IsGroup:   c.IsGroup,
		GroupName: c.GroupName,
	}
	if c.CreatedBy != uuid.Nil {
		d.CreatedBy = c.CreatedBy.String()
	}
	if !c.LastMessageTime.IsZero() {
		d.LastMessageAt = c.LastMessageTime.UnixNano()
	}
	return d
}

func toConversation(d diskConversation) (domain.Conversation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Conversation{}, err
	}
	c := domain.Conversation{
		ID:        id,
		IsGroup:   d.IsGroup,
		GroupName: d.GroupName,
	}
	if d.CreatedBy != "" {
		if c.CreatedBy, err = uuid.Parse(d.CreatedBy); err != nil {
			return domain.Conversation{}, err
		}
	}
	if d.LastMessageAt != 0 {
		c.LastMessageTime = time.Unix(0, d.LastMessageAt).UTC()
	}
	return c, nil
}

func fromMembership(m domain.Membership) diskMembership {
	d := diskMembership{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		UserID:         m.UserID.String(),
	}
	if m.LastSeenMessageID != uuid.Nil {
		d.LastSeen = m.LastSeenMessageID.String()
	}
	return d
}

func toMembership(d diskMembership) (domain.Membership, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Membership{}, err
	}
	conversationID, err := uuid.Parse(d.ConversationID)
	if err != nil {
		return domain.Membership{}, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return domain.Membership{}, err
	}
	m := domain.Membership{ID: id, ConversationID: conversationID, UserID: userID}
	if d.LastSeen != "" {
		if m.LastSeenMessageID, err = uuid.Parse(d.LastSeen); err != nil {
			return domain.Membership{}, err
		}
	}
	return m, nil
}

func fromMessage(m domain.Message) diskMessage {
	reactions := make([]diskReaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		reactions = append(reactions, diskReaction{UserID: r.UserID.String(), Emoji: r.Emoji})
	}
	return diskMessage{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Type:           string(m.Type),
		Deleted:        m.IsDeleted,
		Reactions:      reactions,
		At:             m.CreatedAt.UnixNano(),
	}
}

func toMessage(d diskMessage) (domain.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Message{}, err
	}
	conversationID, err := uuid.Parse(d.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	senderID, err := uuid.Parse(d.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	var reactions []domain.Reaction
	for _, r := range d.Reactions {
		userID, err := uuid.Parse(r.UserID)
		if err != nil {
			return domain.Message{}, err
		}
		reactions = append(reactions, domain.Reaction{UserID: userID, Emoji: r.Emoji})
	}
	return domain.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        d.Content,
		Type:           domain.MessageType(d.Type),
		IsDeleted:      d.Deleted,
		Reactions:      reactions,
		CreatedAt:      time.Unix(0, d.At).UTC(),
	}, nil
}

func fromTyping(t domain.TypingIndicator) diskTyping {
	return diskTyping{
		ConversationID: t.ConversationID.String(),
		UserID:         t.UserID.String(),
		LastTypedAt:    t.LastTypedAt.UnixNano(),
	}
}

func toTyping(d diskTyping) (domain.TypingIndicator, error) {
	conversationID, err := uuid.Parse(d.ConversationID)
	if err != nil {
		return domain.TypingIndicator{}, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return domain.TypingIndicator{}, err
	}
	return domain.TypingIndicator{
		ConversationID: conversationID,
		UserID:         userID,
		LastTypedAt:    time.Unix(0, d.LastTypedAt).UTC(),
	}, nil
}

func encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
