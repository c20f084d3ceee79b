//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(message domain.Message) error
	GetByID(id uuid.UUID) (domain.Message, error)
	ListByConversation(conversationID uuid.UUID) ([]domain.Message, error)
	LastMessage(conversationID uuid.UUID) (domain.Message, error)
	Mutate(id uuid.UUID, fn func(*domain.Message) error) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

// Append persists a message together with every side effect of a send:
// the conversation's lastMessageTime moves to the message's creation
// time, the sender's read watermark advances to the new message, and
// the sender's typing indicator is cleared. All of it commits in one
// transaction so a reader never observes the message without its
// side effects.
func (m MessageRepository) Append(message domain.Message) error {
	key := messageKey(message.ConversationID, message.CreatedAt, message.ID)
	data, err := encode(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if err := txn.Set(messageIndexKey(message.ID), key); err != nil {
			return err
		}

		var conv diskConversation
		if err := getDecoded(txn, conversationKey(message.ConversationID), &conv); err != nil {
			return err
		}
		conv.LastMessageAt = message.CreatedAt.UnixNano()
		convData, err := encode(conv)
		if err != nil {
			return err
		}
		if err := txn.Set(conversationKey(message.ConversationID), convData); err != nil {
			return err
		}

		// The sender is always caught up on their own send.
		if err := patchLastSeen(txn, message.ConversationID, message.SenderID, message.ID); err != nil {
			return err
		}

		err = txn.Delete(typingKey(message.ConversationID, message.SenderID))
		if err != nil && !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

func (m MessageRepository) GetByID(id uuid.UUID) (domain.Message, error) {
	var disk diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		key, err := resolveMessageKey(txn, id)
		if err != nil {
			return err
		}
		return getDecoded(txn, key, &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("message %s: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk)
}

// ListByConversation returns the full log ordered ascending by
// creation time. The padded timestamp in the key makes forward
// iteration chronological without sorting.
func (m MessageRepository) ListByConversation(conversationID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := messagePrefix(conversationID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskMessage
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			message, err := toMessage(disk)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

// LastMessage seeks backwards from the highest possible timestamp and
// returns the first hit, or ErrNotFound on an empty conversation.
func (m MessageRepository) LastMessage(conversationID uuid.UUID) (domain.Message, error) {
	var disk diskMessage
	found := false
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := messagePrefix(conversationID)
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		found = true
		return it.Item().Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	if !found {
		return domain.Message{}, fmt.Errorf("conversation %s has no messages: %w", conversationID, errors.ErrNotFound)
	}
	return toMessage(disk)
}

// Mutate applies fn to the message under a single read-modify-write
// transaction, so concurrent reaction toggles on the same message do
// not lose updates.
func (m MessageRepository) Mutate(id uuid.UUID, fn func(*domain.Message) error) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		key, err := resolveMessageKey(txn, id)
		if err != nil {
			return err
		}
		var disk diskMessage
		if err := getDecoded(txn, key, &disk); err != nil {
			return err
		}
		message, err := toMessage(disk)
		if err != nil {
			return err
		}
		if err := fn(&message); err != nil {
			return err
		}
		data, err := encode(fromMessage(message))
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("message %s: %w", id, errors.ErrNotFound)
	}
	return err
}

func resolveMessageKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(messageIndexKey(id))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}
