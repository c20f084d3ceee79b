//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"

	"chat-core/domain"
	"chat-core/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Upsert(user domain.User) error
	GetByID(id uuid.UUID) (domain.User, error)
	GetByExternalKey(externalKey string) (domain.User, error)
	List() ([]domain.User, error)
	SetOnline(id uuid.UUID, online bool) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// Upsert writes the user record and its external-identity index entry
// in one transaction.
func (u UserRepository) Upsert(user domain.User) error {
	data, err := encode(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(externalIdentityKey(user.ExternalIdentityKey), []byte(user.ID.String()))
	})
}

func (u UserRepository) GetByID(id uuid.UUID) (domain.User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		return getDecoded(txn, userKey(id), &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("user %s: %w", id, errors.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk)
}

// GetByExternalKey resolves the external-auth subject through the
// identity index, then loads the record.
func (u UserRepository) GetByExternalKey(externalKey string) (domain.User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(externalIdentityKey(externalKey))
		if err != nil {
			return err
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return getDecoded(txn, []byte("user:"+string(id)), &disk)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("user %q: %w", externalKey, errors.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(disk)
}

func (u UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("user:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskUser
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			user, err := toUser(disk)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	return users, err
}

// SetOnline patches the presence flag. Absent users are a no-op.
func (u UserRepository) SetOnline(id uuid.UUID, online bool) error {
	return u.db.Update(func(txn *badger.Txn) error {
		var disk diskUser
		err := getDecoded(txn, userKey(id), &disk)
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		disk.Online = online
		data, err := encode(disk)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
}

func getDecoded(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return decode(val, v)
	})
}
