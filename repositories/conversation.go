//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"social-lab/domain"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	AppendMessage(message domain.Message) error
	MessagesForPair(a, b string) ([]domain.Message, error)
	HasConversation(a, b string) (bool, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// conversationMeta is the lazily created marker for an unordered pair.
type conversationMeta struct {
	Participants [2]string `json:"participants"`
}

func convKey(pair string) []byte { return []byte("conv:" + pair) }

// messageKey is formatted as "msg:{pair}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision
//     disconnector if two messages land on the same nanosecond.
func messageKey(pair string, m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", pair, m.CreatedAt.UnixNano(), m.ID))
}

// AppendMessage persists one message and makes sure the conversation marker
// for the unordered pair exists. The body is expected to be ciphertext;
// plaintext never reaches this layer.
func (r *ConversationRepository) AppendMessage(message domain.Message) error {
	pair := domain.PairKey(message.SenderID, message.ReceiverID)

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(convKey(pair)); stderrors.Is(err, badger.ErrKeyNotFound) {
			meta, err := json.Marshal(conversationMeta{
				Participants: [2]string{message.SenderID, message.ReceiverID},
			})
			if err != nil {
				return err
			}
			if err := txn.Set(convKey(pair), meta); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return txn.Set(messageKey(pair, message), data)
	})
}

// MessagesForPair returns every message between the two identities in
// creation order. A pair that never talked yields an empty slice, not
// an error. Thanks to the padded timestamp in the key, a forward prefix
// scan is already chronological.
func (r *ConversationRepository) MessagesForPair(a, b string) ([]domain.Message, error) {
	prefix := []byte("msg:" + domain.PairKey(a, b) + ":")

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var m domain.Message
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// HasConversation reports whether the pair already shares a conversation.
func (r *ConversationRepository) HasConversation(a, b string) (bool, error) {
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(convKey(domain.PairKey(a, b)))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}
