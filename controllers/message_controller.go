package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CUknot/arena_backend/models"
)

const (
	defaultMessageLimit = 100
	maxMessageLimit     = 500
)

// GetMessages returns the latest messages of a room, oldest first.
// Members only.
// @Router /api/rooms/{name}/messages [get]
func (r *RoomController) GetMessages(c *gin.Context) {
	limit, ok := queryLimit(c, defaultMessageLimit, maxMessageLimit)
	if !ok {
		return
	}

	room, ok := r.member(c)
	if !ok {
		return
	}

	messages, err := r.rooms.ListMessages(c.Request.Context(), room.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"room": room.Name, "messages": messages})
}

// queryLimit parses ?limit, capped at ceiling. It writes a 400 and returns
// false on a malformed value.
func queryLimit(c *gin.Context, def, ceiling int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	if n > ceiling {
		n = ceiling
	}
	return n, true
}
