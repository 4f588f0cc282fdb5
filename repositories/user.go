//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"whisperwall/domain"
	"whisperwall/errors"
)

const userPrefix = "user:"

type IUserRepository interface {
	CreateUser(code domain.Code) (domain.User, error)
	GetUserByCode(code domain.Code) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists a new identity. Codes are unique: the check and the
// write happen in the same transaction, badger aborts one of two concurrent
// registrations with a conflict.
func (u UserRepository) CreateUser(code domain.Code) (domain.User, error) {
	user := domain.User{
		ID:        uuid.New(),
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	err := u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + code.String())
		if _, err := txn.Get(key); err == nil {
			return errors.ErrCodeTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, encodeUser(user))
	})
	if stderrors.Is(err, badger.ErrConflict) {
		return domain.User{}, errors.ErrCodeTaken
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUserByCode retrieves a user from Badger.
func (u UserRepository) GetUserByCode(code domain.Code) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + code.String()))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", errors.ErrUserNotFound, code)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = decodeUser(val)
			return err
		})
	})
	return user, err
}

const (
	userID        = 1
	userCode      = 2
	userCreatedAt = 3
)

func encodeUser(user domain.User) []byte {
	var b []byte
	b = appendString(b, userID, user.ID.String())
	b = appendString(b, userCode, user.Code.String())
	b = appendInt64(b, userCreatedAt, user.CreatedAt.UnixNano())
	return b
}

func decodeUser(b []byte) (domain.User, error) {
	r, err := parseRecord(b)
	if err != nil {
		return domain.User{}, err
	}
	id, err := uuid.Parse(r.str(userID))
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        id,
		Code:      domain.Code(r.str(userCode)),
		CreatedAt: time.Unix(0, r.integer(userCreatedAt)).UTC(),
	}, nil
}
