//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	apperrors "social-lab/errors"

	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateAccount(handle, email, hashedPassword string) (domain.Account, error)
	GetByID(id string) (domain.Account, error)
	GetByEmail(email string) (domain.Account, error)
	UpdateAccount(id string, mutate func(*domain.Account) error) (domain.Account, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Key layout:
//
//	user:id:{uuid}      -> JSON account
//	idx:email:{email}   -> account id
//	idx:handle:{handle} -> account id
//
// Both unique indexes are checked and written inside the same transaction
// as the account row, so two concurrent registrations cannot both win.
func userKey(id string) []byte     { return []byte("user:id:" + id) }
func emailKey(email string) []byte { return []byte("idx:email:" + email) }
func handleKey(h string) []byte    { return []byte("idx:handle:" + h) }

// CreateAccount persists a fresh, unverified, MFA-armed account.
// Returns ErrConflict when the handle or the email is already taken,
// without revealing which one.
func (r *UserRepository) CreateAccount(handle, email, hashedPassword string) (domain.Account, error) {
	account := domain.Account{
		ID:           uuid.New().String(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hashedPassword,
		MFAEnabled:   true,
		LastLocation: domain.ZeroLocation(),
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return apperrors.ErrConflict
		}
		if _, err := txn.Get(handleKey(handle)); err == nil {
			return apperrors.ErrConflict
		}
		if err := txn.Set(userKey(account.ID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), []byte(account.ID)); err != nil {
			return err
		}
		return txn.Set(handleKey(handle), []byte(account.ID))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *UserRepository) GetByID(id string) (domain.Account, error) {
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		return readAccount(txn, id, &account)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *UserRepository) GetByEmail(email string) (domain.Account, error) {
	var account domain.Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return readAccount(txn, id, &account)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// UpdateAccount applies mutate to the stored account inside one transaction.
// OTP issuance, verification flags and location updates all go through here,
// so concurrent resend/verify calls cannot leave code and expiry mismatched.
func (r *UserRepository) UpdateAccount(id string, mutate func(*domain.Account) error) (domain.Account, error) {
	var account domain.Account
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := readAccount(txn, id, &account); err != nil {
			return err
		}
		if err := mutate(&account); err != nil {
			return err
		}
		data, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(userKey(id), data)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func readAccount(txn *badger.Txn, id string, out *domain.Account) error {
	item, err := txn.Get(userKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
