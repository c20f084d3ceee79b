package services

import (
	"log/slog"
	"testing"

	"chat-core/auth"
	"chat-core/domain"
	"chat-core/moderation"
	"chat-core/repositories"
	"chat-core/search"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// fixture wires the full service stack over a throwaway badger and
// bluge, the way cmd/ does in production.
type fixture struct {
	identity      *IdentityService
	conversations *ConversationService
	messages      *MessageService
	typing        *TypingService
	users         repositories.IUserRepository
	typingRepo    repositories.ITypingRepository
	messageRepo   repositories.IMessageRepository
}

func newFixture(t *testing.T, censoredWords ...string) *fixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := search.NewUserIndex(t.TempDir())
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	moderator, err := moderation.NewModerator(censoredWords, '*')
	req.NoError(err)

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	typing := repositories.NewTypingRepository(db)

	return &fixture{
		identity:      NewIdentityService(users, index, log),
		conversations: NewConversationService(users, conversations, messages, log),
		messages:      NewMessageService(users, conversations, messages, moderator, log),
		typing:        NewTypingService(users, typing, log),
		users:         users,
		typingRepo:    typing,
		messageRepo:   messages,
	}
}

func (f *fixture) signUp(t *testing.T, subject, name string) (auth.Identity, domain.User) {
	t.Helper()
	identity := auth.Identity{Subject: subject, Name: name, Email: name + "@example.com"}
	user, err := f.identity.ResolveOrCreate(identity)
	require.NoError(t, err)
	return identity, user
}
