//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
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

type IConversationRepository interface {
	Create(conversation domain.Conversation, memberships []domain.Membership) error
	CreateDirect(conversation domain.Conversation, memberships []domain.Membership) (uuid.UUID, error)
	DirectBetween(a, b uuid.UUID) (uuid.UUID, error)
	Get(id uuid.UUID) (domain.Conversation, error)
	GetMembership(conversationID, userID uuid.UUID) (domain.Membership, error)
	MembershipsOf(userID uuid.UUID) ([]domain.Membership, error)
	MembersOf(conversationID uuid.UUID) ([]domain.Membership, error)
	SetLastSeen(conversationID, userID, messageID uuid.UUID) error
}

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) IConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

// Create persists a conversation and all its memberships atomically.
func (c ConversationRepository) Create(conversation domain.Conversation, memberships []domain.Membership) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if err := writeConversation(txn, conversation); err != nil {
			return err
		}
		return writeMemberships(txn, memberships)
	})
}

// CreateDirect persists a direct conversation guarded by the
// unordered-pair key. When the pair key already exists (two users
// raced from both sides), nothing is written and the id stored under
// the pair key is returned instead.
func (c ConversationRepository) CreateDirect(conversation domain.Conversation, memberships []domain.Membership) (uuid.UUID, error) {
	if len(memberships) != 2 {
		return uuid.Nil, fmt.Errorf("a direct conversation needs exactly two memberships, got %d", len(memberships))
	}
	pair := pairKey(memberships[0].UserID, memberships[1].UserID)

	resultID := conversation.ID
	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pair)
		if err == nil {
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			existing, err := uuid.Parse(string(raw))
			if err != nil {
				return err
			}
			c.log.Debug("Direct conversation already exists for pair", "conversation_id", existing)
			resultID = existing
			return nil
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := writeConversation(txn, conversation); err != nil {
			return err
		}
		if err := writeMemberships(txn, memberships); err != nil {
			return err
		}
		return txn.Set(pair, []byte(conversation.ID.String()))
	})
	if err != nil {
		return uuid.Nil, err
	}
	return resultID, nil
}

// DirectBetween looks up the direct conversation of an unordered pair.
func (c ConversationRepository) DirectBetween(a, b uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err = uuid.Parse(string(raw))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return uuid.Nil, errors.ErrNotFound
	}
	return id, err
}

func (c ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var disk diskConversation
	err := c.db.View(func(txn *badger.Txn) error {
		return getDecoded(txn, conversationKey(id), &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return toConversation(disk)
}

func (c ConversationRepository) GetMembership(conversationID, userID uuid.UUID) (domain.Membership, error) {
	var disk diskMembership
	err := c.db.View(func(txn *badger.Txn) error {
		return getDecoded(txn, membershipKey(conversationID, userID), &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Membership{}, fmt.Errorf("membership %s/%s: %w", conversationID, userID, errors.ErrNotFound)
	}
	if err != nil {
		return domain.Membership{}, err
	}
	return toMembership(disk)
}

// MembershipsOf walks the per-user index and resolves each membership
// record inside the same read transaction.
func (c ConversationRepository) MembershipsOf(userID uuid.UUID) ([]domain.Membership, error) {
	var disks []diskMembership
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(fmt.Sprintf("idx:membership:%s:", userID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			conversationID, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var disk diskMembership
			key := []byte(fmt.Sprintf("member:%s:%s", conversationID, userID))
			if err := getDecoded(txn, key, &disk); err != nil {
				return err
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toMemberships(disks)
}

func (c ConversationRepository) MembersOf(conversationID uuid.UUID) ([]domain.Membership, error) {
	var disks []diskMembership
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(fmt.Sprintf("member:%s:", conversationID))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskMembership
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toMemberships(disks)
}

// SetLastSeen advances the caller's read watermark. Missing
// memberships are a no-op, matching markRead semantics.
func (c ConversationRepository) SetLastSeen(conversationID, userID, messageID uuid.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return patchLastSeen(txn, conversationID, userID, messageID)
	})
}

func patchLastSeen(txn *badger.Txn, conversationID, userID, messageID uuid.UUID) error {
	var disk diskMembership
	err := getDecoded(txn, membershipKey(conversationID, userID), &disk)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	disk.LastSeen = messageID.String()
	data, err := encode(disk)
	if err != nil {
		return err
	}
	return txn.Set(membershipKey(conversationID, userID), data)
}

func writeConversation(txn *badger.Txn, conversation domain.Conversation) error {
	data, err := encode(fromConversation(conversation))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(conversationKey(conversation.ID), data)
}

func writeMemberships(txn *badger.Txn, memberships []domain.Membership) error {
	for _, m := range memberships {
		data, err := encode(fromMembership(m))
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set(membershipKey(m.ConversationID, m.UserID), data); err != nil {
			return err
		}
		if err := txn.Set(membershipIndexKey(m.UserID, m.ConversationID), []byte(m.ConversationID.String())); err != nil {
			return err
		}
	}
	return nil
}

func toMemberships(disks []diskMembership) ([]domain.Membership, error) {
	var memberships []domain.Membership
	for _, disk := range disks {
		m, err := toMembership(disk)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, nil
}
