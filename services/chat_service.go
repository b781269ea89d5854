//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"log/slog"
	"time"

	"social-lab/cryptobox"
	"social-lab/domain"
	"social-lab/moderation"
	"social-lab/presence"
	"social-lab/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MessageView is a message as exposed to clients: body decrypted, transient.
type MessageView struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

type IChatService interface {
	Send(senderID, receiverID, text string) (MessageView, error)
	GetHistory(viewerID, otherID string) ([]MessageView, error)
}

type ChatService struct {
	conversations repositories.IConversationRepository
	registry      *presence.Registry
	box           *cryptobox.Box
	filter        *moderation.Filter
	log           *slog.Logger

	now func() time.Time
}

func NewChatService(log *slog.Logger, conversations repositories.IConversationRepository,
	registry *presence.Registry, box *cryptobox.Box, filter *moderation.Filter) *ChatService {
	return &ChatService{
		conversations: conversations,
		registry:      registry,
		box:           box,
		filter:        filter,
		log:           log,
		now:           time.Now,
	}
}

// Send runs the full delivery chain for one message:
// censor, encrypt, persist into the pair's conversation, decrypt the stored
// ciphertext, push to the recipient's live connection if present, and return
// the decrypted view to the sender. An offline recipient is silently
// accepted; there is no queue.
func (s *ChatService) Send(senderID, receiverID, text string) (MessageView, error) {
	censored := s.filter.Apply(text)

	ciphertext, err := s.box.Encrypt(censored)
	if err != nil {
		return MessageView{}, err
	}

	message := domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       ciphertext,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.conversations.AppendMessage(message); err != nil {
		return MessageView{}, err
	}

	// Decrypt what was actually stored rather than reusing the input, so an
	// encryption bug surfaces here instead of at the first history read.
	view := s.toView(message)

	if sink, online := s.registry.Resolve(receiverID); online {
		if err := sink.Deliver(presence.Event{
			Type: presence.EventNewMessage,
			Data: view,
		}); err != nil {
			s.log.Warn("live push failed", "receiver_id", receiverID, "error", err)
		}
	}

	return view, nil
}

// GetHistory returns every message between the two identities in creation
// order, decrypted. A pair without a conversation yields an empty sequence.
// A row that fails to decrypt shows the placeholder body instead of hiding
// the rest of the conversation.
func (s *ChatService) GetHistory(viewerID, otherID string) ([]MessageView, error) {
	messages, err := s.conversations.MessagesForPair(viewerID, otherID)
	if err != nil {
		return nil, err
	}

	return lo.Map(messages, func(m domain.Message, _ int) MessageView {
		return s.toView(m)
	}), nil
}

func (s *ChatService) toView(m domain.Message) MessageView {
	plain, ok := s.box.Decrypt(m.Body)
	if !ok {
		s.log.Error("message decryption failed", "message_id", m.ID.String())
	}
	return MessageView{
		ID:         m.ID.String(),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Message:    plain,
		CreatedAt:  m.CreatedAt,
	}
}
