package repositories

import (
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedConversation(t *testing.T, db *badger.DB, userIDs ...uuid.UUID) domain.Conversation {
	t.Helper()
	conversations := NewConversationRepository(db, slog.Default())
	conv := domain.Conversation{ID: uuid.New(), IsGroup: len(userIDs) > 2}
	var memberships []domain.Membership
	for _, userID := range userIDs {
		memberships = append(memberships, domain.Membership{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			UserID:         userID,
		})
	}
	require.NoError(t, conversations.Create(conv, memberships))
	return conv
}

func Test_Append_And_List_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	alice, bob := uuid.New(), uuid.New()
	conv := seedConversation(t, db, alice, bob)

	repository := NewMessageRepository(db, slog.Default())
	at := time.Now().UTC()
	messages := []domain.Message{
		{ID: uuid.New(), ConversationID: conv.ID, SenderID: alice, Content: "hi", Type: domain.MessageTypeText, CreatedAt: at},
		{ID: uuid.New(), ConversationID: conv.ID, SenderID: bob, Content: "hello", Type: domain.MessageTypeText, CreatedAt: at.Add(1 * time.Minute)},
		{ID: uuid.New(), ConversationID: conv.ID, SenderID: alice, Content: "how are you?", Type: domain.MessageTypeText, CreatedAt: at.Add(2 * time.Minute)},
	}
	// Insert out of order, the key layout restores chronology
	for _, i := range []int{1, 0, 2} {
		req.NoError(repository.Append(messages[i]))
	}

	fetched, err := repository.ListByConversation(conv.ID)
	req.NoError(err)
	req.Equal(messages, fetched)

	last, err := repository.LastMessage(conv.ID)
	req.NoError(err)
	req.Equal(messages[2], last)
}

func Test_Append_Applies_Send_Side_Effects(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	alice, bob := uuid.New(), uuid.New()
	conv := seedConversation(t, db, alice, bob)

	conversations := NewConversationRepository(db, slog.Default())
	typing := NewTypingRepository(db)
	repository := NewMessageRepository(db, slog.Default())

	req.NoError(typing.Upsert(domain.TypingIndicator{
		ConversationID: conv.ID,
		UserID:         alice,
		LastTypedAt:    time.Now().UTC(),
	}))

	at := time.Now().UTC()
	message := domain.Message{
		ID: uuid.New(), ConversationID: conv.ID, SenderID: alice,
		Content: "hi", Type: domain.MessageTypeText, CreatedAt: at,
	}
	req.NoError(repository.Append(message))

	// lastMessageTime patched
	stored, err := conversations.Get(conv.ID)
	req.NoError(err)
	req.Equal(at, stored.LastMessageTime)

	// sender watermark advanced, recipient untouched
	mine, err := conversations.GetMembership(conv.ID, alice)
	req.NoError(err)
	req.Equal(message.ID, mine.LastSeenMessageID)
	theirs, err := conversations.GetMembership(conv.ID, bob)
	req.NoError(err)
	req.Equal(uuid.Nil, theirs.LastSeenMessageID)

	// sender typing indicator cleared
	indicators, err := typing.ListByConversation(conv.ID)
	req.NoError(err)
	req.Empty(indicators)
}

func Test_Mutate_Toggles_Reaction_In_Place(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	alice, bob := uuid.New(), uuid.New()
	conv := seedConversation(t, db, alice, bob)

	repository := NewMessageRepository(db, slog.Default())
	message := domain.Message{
		ID: uuid.New(), ConversationID: conv.ID, SenderID: alice,
		Content: "hi", Type: domain.MessageTypeText, CreatedAt: time.Now().UTC(),
	}
	req.NoError(repository.Append(message))

	req.NoError(repository.Mutate(message.ID, func(m *domain.Message) error {
		m.ToggleReaction(bob, "👍")
		return nil
	}))

	stored, err := repository.GetByID(message.ID)
	req.NoError(err)
	req.Equal([]domain.Reaction{{UserID: bob, Emoji: "👍"}}, stored.Reactions)
}

func Test_Mutate_Unknown_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	err := repository.Mutate(uuid.New(), func(*domain.Message) error { return nil })
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_LastMessage_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, slog.Default())

	_, err := repository.LastMessage(uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
}
