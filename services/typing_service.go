package services

import (
	"log/slog"
	"time"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/repositories"

	"github.com/google/uuid"
)

type ITypingService interface {
	SetTyping(identity auth.Identity, conversationID uuid.UUID, isTyping bool) error
	ActiveTypers(identity auth.Identity, conversationID uuid.UUID) ([]domain.User, error)
}

// TypingService manages the ephemeral typing signals. The collaborator
// UI owns the inactivity timer that eventually calls SetTyping(false);
// the core never runs timers, it only filters stale rows on read.
type TypingService struct {
	users  repositories.IUserRepository
	typing repositories.ITypingRepository
	log    *slog.Logger
}

func NewTypingService(users repositories.IUserRepository, typing repositories.ITypingRepository, log *slog.Logger) *TypingService {
	return &TypingService{users: users, typing: typing, log: log}
}

// SetTyping upserts or deletes the caller's indicator. Idempotent in
// either direction.
func (s *TypingService) SetTyping(identity auth.Identity, conversationID uuid.UUID, isTyping bool) error {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return err
	}
	if !isTyping {
		return s.typing.Delete(conversationID, me.ID)
	}
	return s.typing.Upsert(domain.TypingIndicator{
		ConversationID: conversationID,
		UserID:         me.ID,
		LastTypedAt:    time.Now().UTC(),
	})
}

// ActiveTypers resolves everyone currently typing in the conversation,
// excluding the caller. Expiry is evaluated here, at read time.
func (s *TypingService) ActiveTypers(identity auth.Identity, conversationID uuid.UUID) ([]domain.User, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return nil, nil
	}

	indicators, err := s.typing.ListByConversation(conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var typers []domain.User
	for _, indicator := range indicators {
		if indicator.UserID == me.ID || !indicator.Active(now) {
			continue
		}
		user, err := s.users.GetByID(indicator.UserID)
		if err != nil {
			continue
		}
		typers = append(typers, user)
	}
	return typers, nil
}
