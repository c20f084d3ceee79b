package services

import (
	"log/slog"
	"time"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/moderation"
	"chat-core/repositories"

	"github.com/google/uuid"
)

type IMessageService interface {
	Send(identity auth.Identity, conversationID uuid.UUID, content string, messageType domain.MessageType) (domain.Message, error)
	List(identity auth.Identity, conversationID uuid.UUID) ([]MessageView, error)
	SoftDelete(identity auth.Identity, messageID uuid.UUID) error
	ToggleReaction(identity auth.Identity, messageID uuid.UUID, emoji string) error
}

type MessageService struct {
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	moderator     *moderation.Moderator // nil when no word list is configured
	log           *slog.Logger
}

func NewMessageService(
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	moderator *moderation.Moderator,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		users:         users,
		conversations: conversations,
		messages:      messages,
		moderator:     moderator,
		log:           log,
	}
}

// Send appends a message for a conversation member. Content is masked
// before persistence when moderation is configured. The repository
// commits the message together with its side effects (lastMessageTime,
// sender watermark, typing clear) in one transaction.
func (s *MessageService) Send(identity auth.Identity, conversationID uuid.UUID, content string, messageType domain.MessageType) (domain.Message, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return domain.Message{}, err
	}
	if _, err := s.conversations.Get(conversationID); err != nil {
		return domain.Message{}, err
	}
	if _, err := s.conversations.GetMembership(conversationID, me.ID); err != nil {
		if isNotFound(err) {
			return domain.Message{}, errors.ErrNotAMember
		}
		return domain.Message{}, err
	}

	if s.moderator != nil && messageType == domain.MessageTypeText {
		content = s.moderator.Censor(content)
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       me.ID,
		Content:        content,
		Type:           messageType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Append(message); err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("Message sent", "conversation_id", conversationID, "message_id", message.ID)
	return message, nil
}

// List returns the conversation's full log ascending by creation time,
// each message carrying a sender snapshot resolved at read time.
// Anonymous callers get an empty result.
func (s *MessageService) List(identity auth.Identity, conversationID uuid.UUID) ([]MessageView, error) {
	if _, err := resolveCaller(s.users, identity); err != nil {
		return nil, nil
	}
	messages, err := s.messages.ListByConversation(conversationID)
	if err != nil {
		return nil, err
	}

	senders := map[uuid.UUID]domain.User{}
	views := make([]MessageView, 0, len(messages))
	for _, message := range messages {
		sender, ok := senders[message.SenderID]
		if !ok {
			if sender, err = s.users.GetByID(message.SenderID); err != nil {
				sender = domain.User{ID: message.SenderID}
			}
			senders[message.SenderID] = sender
		}
		views = append(views, MessageView{Message: message, Sender: sender})
	}
	return views, nil
}

// SoftDelete clears the content of the caller's own message. Deleting
// someone else's message is Forbidden; reactions survive deletion.
func (s *MessageService) SoftDelete(identity auth.Identity, messageID uuid.UUID) error {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return err
	}
	return s.messages.Mutate(messageID, func(message *domain.Message) error {
		if message.SenderID != me.ID {
			return errors.ErrForbidden
		}
		message.SoftDelete()
		return nil
	})
}

// ToggleReaction flips the caller's (emoji) entry on the message under
// a single read-modify-write transaction.
func (s *MessageService) ToggleReaction(identity auth.Identity, messageID uuid.UUID, emoji string) error {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return err
	}
	return s.messages.Mutate(messageID, func(message *domain.Message) error {
		message.ToggleReaction(me.ID, emoji)
		return nil
	})
}
