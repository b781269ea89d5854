// Package domain contains core concepts of the social backend.
// This file defines conversations and messages.
// Messages are immutable once appended and stored encrypted.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PairKey canonicalizes an unordered pair of account IDs into the single
// conversation key both directions resolve to.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}

// Message is one immutable chat event inside a two-party conversation.
// Body holds ciphertext at rest; decrypted text only ever lives in
// transient responses and push payloads.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
