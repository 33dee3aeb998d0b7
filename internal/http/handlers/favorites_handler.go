package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// AddFavoriteRequest is the JSON payload of POST /users/:userID/favorites.
type AddFavoriteRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	Title     string `json:"title"`
}

// ListFavoritesResponse wraps a user's favorites, oldest first.
type ListFavoritesResponse struct {
	Favorites []domain.Favorite `json:"favorites"`
}

// ListFavorites handles GET /users/:userID/favorites.
func (h *Handlers) ListFavorites(c *gin.Context) {
	userID, valid := int64Param(c, "userID")
	if !valid {
		return
	}
	favs, err := h.favorites.List(c.Request.Context(), userID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListFavoritesResponse{Favorites: favs})
}

// AddFavorite handles POST /users/:userID/favorites. Re-adding a channel
// refreshes its title.
func (h *Handlers) AddFavorite(c *gin.Context) {
	userID, valid := int64Param(c, "userID")
	if !valid {
		return
	}
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.favorites.Add(c.Request.Context(), userID, req.ChannelID, req.Title); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"user_id": userID, "channel_id": req.ChannelID})
}

// GetFavorite handles GET /users/:userID/favorites/:channelID.
func (h *Handlers) GetFavorite(c *gin.Context) {
	userID, valid := int64Param(c, "userID")
	if !valid {
		return
	}
	fav, err := h.favorites.IsFavorite(c.Request.Context(), userID, c.Param("channelID"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"favorite": fav})
}

// RemoveFavorite handles DELETE /users/:userID/favorites/:channelID.
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	userID, valid := int64Param(c, "userID")
	if !valid {
		return
	}
	removed, err := h.favorites.Remove(c.Request.Context(), userID, c.Param("channelID"))
	if err != nil {
		failErr(c, err)
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "favorite not found")
		return
	}
	noContent(c)
}
