package repositories

import (
	"testing"
	"time"

	"chat-core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Typing_Upsert_Delete_List(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewTypingRepository(db)

	conversationID := uuid.New()
	alice, bob := uuid.New(), uuid.New()
	at := time.Now().UTC()

	req.NoError(repository.Upsert(domain.TypingIndicator{ConversationID: conversationID, UserID: alice, LastTypedAt: at}))
	req.NoError(repository.Upsert(domain.TypingIndicator{ConversationID: conversationID, UserID: bob, LastTypedAt: at}))

	// Re-arming overwrites instead of duplicating
	rearmed := at.Add(time.Second)
	req.NoError(repository.Upsert(domain.TypingIndicator{ConversationID: conversationID, UserID: alice, LastTypedAt: rearmed}))

	indicators, err := repository.ListByConversation(conversationID)
	req.NoError(err)
	req.Len(indicators, 2)
	for _, indicator := range indicators {
		if indicator.UserID == alice {
			req.Equal(rearmed, indicator.LastTypedAt)
		}
	}

	req.NoError(repository.Delete(conversationID, alice))
	indicators, err = repository.ListByConversation(conversationID)
	req.NoError(err)
	req.Len(indicators, 1)
	req.Equal(bob, indicators[0].UserID)

	// Deleting an absent indicator is idempotent
	req.NoError(repository.Delete(conversationID, alice))
}
