package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/http/middleware"
	"github.com/tbourn/yt-vantage/internal/services"
)

// CompareRequest is the JSON payload of POST /compare.
//
// ChatID and MessageID identify the chat message the report will be posted
// as. When both are set the shown channels are recorded for later mode
// switches; setting only one is rejected.
type CompareRequest struct {
	Names     []string `json:"names" binding:"required,min=1"`
	Mode      string   `json:"mode"`
	ChatID    *int64   `json:"chat_id"`
	MessageID *int64   `json:"message_id"`
}

// SwitchModeRequest is the JSON payload of the switch endpoint.
type SwitchModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// BatchResponse is a rendered multi-channel report.
type BatchResponse struct {
	Mode     domain.Mode           `json:"mode"`
	Text     string                `json:"text"`
	Outcomes []services.Outcome    `json:"outcomes"`
	Channels []domain.ShownChannel `json:"channels"`
	NotFound []string              `json:"not_found"`
	// Recorded is true when this request created the message state.
	Recorded bool `json:"recorded"`
}

func batchResponse(b *services.Batch) BatchResponse {
	nf := b.NotFound()
	if nf == nil {
		nf = []string{}
	}
	return BatchResponse{
		Mode:     b.Mode,
		Text:     b.Text(),
		Outcomes: b.Outcomes,
		Channels: b.Channels(),
		NotFound: nf,
	}
}

// Compare handles POST /compare.
func (h *Handlers) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if (req.ChatID == nil) != (req.MessageID == nil) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat_id and message_id must be given together")
		return
	}
	mode, okMode := parseMode(c, req.Mode)
	if !okMode {
		return
	}

	ctx := c.Request.Context()
	batch, err := h.comparer.Compare(ctx, req.Names, mode)
	if err != nil {
		failErr(c, err)
		return
	}
	resp := batchResponse(batch)

	// A report is still useful without its state; the toggle just won't work.
	if req.ChatID != nil && len(resp.Channels) > 0 {
		created, err := h.states.RecordShownChannels(ctx, *req.ChatID, *req.MessageID, resp.Channels)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).
				Int64("chat_id", *req.ChatID).
				Int64("message_id", *req.MessageID).
				Msg("record shown channels failed")
		}
		resp.Recorded = created
	}
	ok(c, http.StatusOK, resp)
}

// SwitchMode handles POST /chats/:chatID/messages/:messageID/switch and
// re-renders the recorded channels of a message in the requested mode.
func (h *Handlers) SwitchMode(c *gin.Context) {
	chatID, okID := int64Param(c, "chatID")
	if !okID {
		return
	}
	messageID, okID := int64Param(c, "messageID")
	if !okID {
		return
	}
	var req SwitchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	mode, okMode := parseMode(c, req.Mode)
	if !okMode {
		return
	}

	batch, err := h.comparer.SwitchMode(c.Request.Context(), chatID, messageID, mode)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, batchResponse(batch))
}
