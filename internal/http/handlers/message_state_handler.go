package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// ShownChannelsRequest is the JSON payload of PUT .../channels.
type ShownChannelsRequest struct {
	Channels []domain.ShownChannel `json:"channels" binding:"required,min=1"`
}

// ShownChannelsResponse lists the channels a message showed, in report order.
type ShownChannelsResponse struct {
	ChatID    int64                 `json:"chat_id"`
	MessageID int64                 `json:"message_id"`
	Channels  []domain.ShownChannel `json:"channels"`
}

func messageKey(c *gin.Context) (chatID, messageID int64, valid bool) {
	if chatID, valid = int64Param(c, "chatID"); !valid {
		return
	}
	messageID, valid = int64Param(c, "messageID")
	return
}

// GetShownChannels handles GET /chats/:chatID/messages/:messageID/channels.
func (h *Handlers) GetShownChannels(c *gin.Context) {
	chatID, messageID, valid := messageKey(c)
	if !valid {
		return
	}
	entries, found, err := h.states.GetShownChannels(c.Request.Context(), chatID, messageID)
	if err != nil {
		failErr(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeStateNotFound, "no channels recorded for this message")
		return
	}
	ok(c, http.StatusOK, ShownChannelsResponse{ChatID: chatID, MessageID: messageID, Channels: entries})
}

// PutShownChannels handles PUT /chats/:chatID/messages/:messageID/channels.
// State is write-once: 201 when stored, 200 with created=false when the
// message already had state (the existing rows are kept).
func (h *Handlers) PutShownChannels(c *gin.Context) {
	chatID, messageID, valid := messageKey(c)
	if !valid {
		return
	}
	var req ShownChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	created, err := h.states.RecordShownChannels(c.Request.Context(), chatID, messageID, req.Channels)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, gin.H{"created": created})
}
