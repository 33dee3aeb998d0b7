package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// ChannelResponse is a resolved channel.
type ChannelResponse struct {
	ChannelID    string `json:"channel_id"`
	Title        string `json:"title"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
}

// ResolveChannel handles GET /channels/resolve?name=.
func (h *Handlers) ResolveChannel(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
		return
	}

	res, found, err := h.resolver.Resolve(c.Request.Context(), name)
	if err != nil {
		failErr(c, err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, ErrCodeChannelNotFound, fmt.Sprintf("no channel matches %q", name))
		return
	}
	ok(c, http.StatusOK, ChannelResponse{
		ChannelID:    res.ChannelID,
		Title:        res.Title,
		OriginalName: res.OriginalName,
		URL:          domain.ChannelURL(res.ChannelID),
	})
}

// ChannelVideos handles GET /channels/:id/videos?mode=&title=.
//
// title only affects the rendered report; it defaults to the channel ID.
func (h *Handlers) ChannelVideos(c *gin.Context) {
	channelID := strings.TrimSpace(c.Param("id"))
	mode, okMode := parseMode(c, c.Query("mode"))
	if !okMode {
		return
	}
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		title = channelID
	}

	rep, err := h.fetcher.FetchForChannel(c.Request.Context(), channelID, title, mode)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rep)
}
