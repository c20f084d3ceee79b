package services

import (
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/errors"
	"chat-core/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationService interface {
	GetOrCreateDirect(identity auth.Identity, otherUserID uuid.UUID) (domain.Conversation, error)
	CreateGroup(identity auth.Identity, memberIDs []uuid.UUID, groupName string) (domain.Conversation, error)
	MarkRead(identity auth.Identity, conversationID uuid.UUID) error
	MyConversations(identity auth.Identity) ([]ConversationView, error)
}

type ConversationService struct {
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	log           *slog.Logger
}

func NewConversationService(
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	log *slog.Logger,
) *ConversationService {
	return &ConversationService{users: users, conversations: conversations, messages: messages, log: log}
}

// GetOrCreateDirect returns the unique direct conversation between the
// caller and the other user, creating it on first contact. The
// unordered-pair key closes the race between two users starting the
// same conversation from both sides: the loser of the race lands on
// the winner's conversation instead of creating a duplicate.
func (s *ConversationService) GetOrCreateDirect(identity auth.Identity, otherUserID uuid.UUID) (domain.Conversation, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return domain.Conversation{}, err
	}
	if otherUserID == me.ID {
		return domain.Conversation{}, errors.ErrSelfConversation
	}
	if _, err := s.users.GetByID(otherUserID); err != nil {
		return domain.Conversation{}, err
	}

	existing, err := s.conversations.DirectBetween(me.ID, otherUserID)
	if err == nil {
		return s.conversations.Get(existing)
	}
	if !isNotFound(err) {
		return domain.Conversation{}, err
	}

	conversation := domain.Conversation{ID: uuid.New()}
	memberships := []domain.Membership{
		{ID: uuid.New(), ConversationID: conversation.ID, UserID: me.ID},
		{ID: uuid.New(), ConversationID: conversation.ID, UserID: otherUserID},
	}

	createdID, err := s.conversations.CreateDirect(conversation, memberships)
	if stderrors.Is(err, badger.ErrConflict) {
		// Lost the race; the pair key now exists.
		s.log.Debug("Direct conversation creation raced, retrying lookup")
		if createdID, err = s.conversations.DirectBetween(me.ID, otherUserID); err != nil {
			return domain.Conversation{}, err
		}
	} else if err != nil {
		return domain.Conversation{}, err
	}
	return s.conversations.Get(createdID)
}

// CreateGroup creates a group conversation with the caller plus at
// least one other member. The caller may appear in memberIDs without
// producing a duplicate membership.
func (s *ConversationService) CreateGroup(identity auth.Identity, memberIDs []uuid.UUID, groupName string) (domain.Conversation, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return domain.Conversation{}, err
	}
	if strings.TrimSpace(groupName) == "" {
		return domain.Conversation{}, errors.ErrEmptyGroupName
	}

	others := lo.Filter(lo.Uniq(memberIDs), func(id uuid.UUID, _ int) bool {
		return id != me.ID
	})
	if len(others) < 1 {
		return domain.Conversation{}, errors.ErrNotEnoughMembers
	}
	for _, id := range others {
		if _, err := s.users.GetByID(id); err != nil {
			return domain.Conversation{}, err
		}
	}

	conversation := domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   true,
		GroupName: groupName,
		CreatedBy: me.ID,
	}
	memberships := make([]domain.Membership, 0, len(others)+1)
	for _, userID := range append([]uuid.UUID{me.ID}, others...) {
		memberships = append(memberships, domain.Membership{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			UserID:         userID,
		})
	}
	if err := s.conversations.Create(conversation, memberships); err != nil {
		return domain.Conversation{}, err
	}
	s.log.Info("Group conversation created", "conversation_id", conversation.ID, "members", len(memberships))
	return conversation, nil
}

// MarkRead moves the caller's watermark to the newest message. Missing
// membership or an empty conversation are silent no-ops.
func (s *ConversationService) MarkRead(identity auth.Identity, conversationID uuid.UUID) error {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return err
	}
	if _, err := s.conversations.GetMembership(conversationID, me.ID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	last, err := s.messages.LastMessage(conversationID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	return s.conversations.SetLastSeen(conversationID, me.ID, last.ID)
}

// MyConversations assembles the caller's conversation list: members,
// last message, unread count. Ordered by most recent activity;
// conversations that never saw a message sort last.
func (s *ConversationService) MyConversations(identity auth.Identity) ([]ConversationView, error) {
	me, err := resolveCaller(s.users, identity)
	if err != nil {
		return nil, nil
	}

	memberships, err := s.conversations.MembershipsOf(me.ID)
	if err != nil {
		return nil, err
	}

	userCache := map[uuid.UUID]domain.User{}
	var views []ConversationView
	for _, membership := range memberships {
		conversation, err := s.conversations.Get(membership.ConversationID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}

		memberRows, err := s.conversations.MembersOf(conversation.ID)
		if err != nil {
			return nil, err
		}
		var members []domain.User
		for _, row := range memberRows {
			user, err := s.cachedUser(userCache, row.UserID)
			if err != nil {
				continue
			}
			members = append(members, user)
		}

		messages, err := s.messages.ListByConversation(conversation.ID)
		if err != nil {
			return nil, err
		}
		var lastMessage *domain.Message
		if len(messages) > 0 {
			lastMessage = &messages[len(messages)-1]
		}

		views = append(views, ConversationView{
			Conversation: conversation,
			Members:      members,
			LastMessage:  lastMessage,
			UnreadCount:  domain.UnreadCount(membership, messages),
			MembershipID: membership.ID,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Conversation.LastMessageTime.After(views[j].Conversation.LastMessageTime)
	})
	return views, nil
}

func (s *ConversationService) cachedUser(cache map[uuid.UUID]domain.User, id uuid.UUID) (domain.User, error) {
	if user, ok := cache[id]; ok {
		return user, nil
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		return domain.User{}, err
	}
	cache[id] = user
	return user, nil
}
