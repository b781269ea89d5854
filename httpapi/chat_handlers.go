package httpapi

import (
	"log/slog"
	"net/http"

	"social-lab/auth"
	"social-lab/errors"
	"social-lab/services"

	"github.com/gin-gonic/gin"
)

type ChatHandlers struct {
	svc services.IChatService
	log *slog.Logger
}

func NewChatHandlers(log *slog.Logger, svc services.IChatService) *ChatHandlers {
	return &ChatHandlers{svc: svc, log: log}
}

// SendMessage persists and delivers one message from the authenticated
// sender to the recipient in the URL.
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	senderID := auth.UserID(c)
	receiverID := c.Param("id")

	var req auth.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}
	if err := auth.ValidateSendMessage(req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	view, err := h.svc.Send(senderID, receiverID, req.Text)
	if err != nil {
		h.log.Error("send message failed", "sender_id", senderID, "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"newMessage": view,
	})
}

// GetMessages returns the decrypted history between the viewer and the other
// participant. No prior conversation is an empty list, not an error.
func (h *ChatHandlers) GetMessages(c *gin.Context) {
	viewerID := auth.UserID(c)
	otherID := c.Param("id")

	messages, err := h.svc.GetHistory(viewerID, otherID)
	if err != nil {
		h.log.Error("history fetch failed", "viewer_id", viewerID, "error", err)
		respondError(c, err)
		return
	}
	if messages == nil {
		messages = []services.MessageView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": messages,
	})
}
