package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/middleware"
	"github.com/CUknot/arena_backend/models"
)

// RoomReader is the read side of chat persistence.
type RoomReader interface {
	ListRoomsFor(ctx context.Context, userID uint) ([]models.ChatRoom, error)
	FindRoomByName(ctx context.Context, name string) (*models.ChatRoom, error)
	FindParticipant(ctx context.Context, roomID, userID uint) (*models.Participant, error)
	ListMessages(ctx context.Context, roomID uint, limit int) ([]models.Message, error)
}

// RoomController serves read-only chat history. All mutations go through
// the websocket commands.
type RoomController struct {
	rooms RoomReader
}

func NewRoomController(rooms RoomReader) *RoomController {
	return &RoomController{rooms: rooms}
}

// GetRooms returns the public rooms plus every room the caller participates in.
// @Router /api/rooms [get]
func (r *RoomController) GetRooms(c *gin.Context) {
	userID := middleware.UserID(c)

	rooms, err := r.rooms.ListRoomsFor(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}
	if rooms == nil {
		rooms = []models.ChatRoom{}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// member loads the named room and fails unless the caller is an accepted,
// unbanned participant.
func (r *RoomController) member(c *gin.Context) (*models.ChatRoom, bool) {
	ctx := c.Request.Context()
	room, err := r.rooms.FindRoomByName(ctx, c.Param("name"))
	if errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch room"})
		return nil, false
	}

	p, err := r.rooms.FindParticipant(ctx, room.ID, middleware.UserID(c))
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch membership"})
		return nil, false
	}
	if p == nil || p.Banned || p.InvitedUntil != models.InviteAccepted {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this room"})
		return nil, false
	}
	return room, true
}
