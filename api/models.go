package api

import (
	"time"

	"chat-core/domain"
	"chat-core/services"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// A User is the wire representation of a user record.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	IsOnline  bool   `json:"is_online"`
}

type Reaction struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	MessageType    string     `json:"message_type"`
	IsDeleted      bool       `json:"is_deleted"`
	Reactions      []Reaction `json:"reactions"`
	CreatedAt      time.Time  `json:"created_at"`
	Sender         *User      `json:"sender,omitempty"`
}

type Conversation struct {
	ID              string     `json:"id"`
	IsGroup         bool       `json:"is_group"`
	GroupName       string     `json:"group_name,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}

// A ConversationView is one row of the caller's conversation list.
type ConversationView struct {
	Conversation
	Members      []User   `json:"members"`
	LastMessage  *Message `json:"last_message"`
	UnreadCount  int      `json:"unread_count"`
	MembershipID string   `json:"membership_id"`
}

func fromDomainUser(u domain.User) User {
	return User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		IsOnline:  u.IsOnline,
	}
}

func fromDomainUsers(users []domain.User) []User {
	return lo.Map(users, func(u domain.User, _ int) User {
		return fromDomainUser(u)
	})
}

func fromDomainMessage(m domain.Message) Message {
	return Message{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		MessageType:    string(m.Type),
		IsDeleted:      m.IsDeleted,
		Reactions: lo.Map(m.Reactions, func(r domain.Reaction, _ int) Reaction {
			return Reaction{UserID: r.UserID.String(), Emoji: r.Emoji}
		}),
		CreatedAt: m.CreatedAt,
	}
}

func fromMessageView(v services.MessageView) Message {
	message := fromDomainMessage(v.Message)
	sender := fromDomainUser(v.Sender)
	message.Sender = &sender
	return message
}

func fromDomainConversation(c domain.Conversation) Conversation {
	conversation := Conversation{
		ID:        c.ID.String(),
		IsGroup:   c.IsGroup,
		GroupName: c.GroupName,
	}
	if c.CreatedBy != uuid.Nil {
		conversation.CreatedBy = c.CreatedBy.String()
	}
	if !c.LastMessageTime.IsZero() {
		conversation.LastMessageTime = &c.LastMessageTime
	}
	return conversation
}

func fromConversationView(v services.ConversationView) ConversationView {
	view := ConversationView{
		Conversation: fromDomainConversation(v.Conversation),
		Members:      fromDomainUsers(v.Members),
		UnreadCount:  v.UnreadCount,
		MembershipID: v.MembershipID.String(),
	}
	if v.LastMessage != nil {
		last := fromDomainMessage(*v.LastMessage)
		view.LastMessage = &last
	}
	return view
}
