//go:generate go run go.uber.org/mock/mockgen -source=typing.go -destination=../mocks/mock_typing_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"

	"chat-core/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type ITypingRepository interface {
	Upsert(indicator domain.TypingIndicator) error
	Delete(conversationID, userID uuid.UUID) error
	ListByConversation(conversationID uuid.UUID) ([]domain.TypingIndicator, error)
}

// TypingRepository stores the ephemeral typing signals. Stale rows may
// linger until overwritten or deleted; readers filter them by TTL.
type TypingRepository struct {
	db *badger.DB
}

func NewTypingRepository(db *badger.DB) ITypingRepository {
	return &TypingRepository{db: db}
}

func (t TypingRepository) Upsert(indicator domain.TypingIndicator) error {
	data, err := encode(fromTyping(indicator))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(typingKey(indicator.ConversationID, indicator.UserID), data)
	})
}

func (t TypingRepository) Delete(conversationID, userID uuid.UUID) error {
	return t.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(typingKey(conversationID, userID))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (t TypingRepository) ListByConversation(conversationID uuid.UUID) ([]domain.TypingIndicator, error) {
	var indicators []domain.TypingIndicator
	err := t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := typingPrefix(conversationID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskTyping
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			indicator, err := toTyping(disk)
			if err != nil {
				return err
			}
			indicators = append(indicators, indicator)
		}
		return nil
	})
	return indicators, err
}
