package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/CUknot/arena_backend/chat"
	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/events"
	"github.com/CUknot/arena_backend/game"
	"github.com/CUknot/arena_backend/middleware"
	"github.com/CUknot/arena_backend/models"
	"github.com/CUknot/arena_backend/utils"
)

// UserStore is what the transport needs to know about accounts.
type UserStore interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateStatus(ctx context.Context, userID uint, status models.UserStatus) error
}

type route func(ctx context.Context, c *Client, raw json.RawMessage) error

// Router authenticates connections and turns their frames into coordinator
// calls. Failed commands are answered with an error event on the same
// connection only.
type Router struct {
	hub      *Hub
	chat     *chat.Coordinator
	game     *game.Coordinator
	users    UserStore
	secret   string
	upgrader websocket.Upgrader
	logger   *slog.Logger
	routes   map[string]route
}

func NewRouter(hub *Hub, chatCoord *chat.Coordinator, gameCoord *game.Coordinator, users UserStore, secret string, checkOrigin func(origin string) bool, logger *slog.Logger) *Router {
	r := &Router{
		hub:    hub,
		chat:   chatCoord,
		game:   gameCoord,
		users:  users,
		secret: secret,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(req *http.Request) bool {
				return checkOrigin == nil || checkOrigin(req.Header.Get("Origin"))
			},
		},
	}
	r.routes = make(map[string]route)
	r.chatRoutes()
	r.gameRoutes()
	hub.SetLifecycle(r)
	return r
}

// HandleConnection upgrades an authenticated request to a websocket client.
func (r *Router) HandleConnection(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.TokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}
		userID, err := utils.ParseToken(token, r.secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		user, err := r.users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}

		conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			r.logger.Warn("upgrade websocket", "user", user.Username, "error", err)
			return
		}

		client := newClient(r.hub, conn, user.ID, user.Username, r.logger)
		if !r.hub.Register(client) {
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump(ctx, r)
	}
}

// Dispatch routes one frame. A panic in a handler is reported to the
// client as an operation error and never closes the connection.
func (r *Router) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.fail(c, "", errs.Invalid("malformed message: %v", err))
		return
	}

	handle, ok := r.routes[msg.Type]
	if !ok {
		r.fail(c, msg.Type, errs.Invalid("unknown command '%s'", msg.Type))
		return
	}

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("command panicked", "command", msg.Type, "panic", fmt.Sprint(p))
			r.fail(c, msg.Type, errs.Operation(nil, "internal error"))
		}
	}()

	if err := handle(ctx, c, msg.Payload); err != nil {
		r.fail(c, msg.Type, err)
	}
}

func (r *Router) fail(c *Client, command string, err error) {
	kind := errs.KindOf(err)
	c.logger.Warn("command failed", "command", command, "kind", kind, "error", err)
	r.reply(c, EventError, ErrorPayload{Command: command, Kind: kind, Message: errs.Reason(err)})
}

func (r *Router) reply(c *Client, name string, payload any) {
	r.hub.Deliver(events.Event{Type: name, Target: c.id, Payload: payload})
}

// Connected marks the user online, or in game when they are rejoined to a
// running match.
func (r *Router) Connected(ctx context.Context, c *Client) {
	if r.game.Connected(ctx, c.userID, c.id) {
		return
	}
	r.setStatus(ctx, c.userID, models.StatusOnline)
}

// Disconnected marks the user offline once their last connection closed,
// unless a running match keeps them for the reconnect grace period.
func (r *Router) Disconnected(ctx context.Context, c *Client, last bool) {
	r.game.Disconnected(c.userID, c.id, last)
	if last && r.game.Registry().RoomOf(c.userID) == nil {
		r.setStatus(ctx, c.userID, models.StatusOffline)
	}
}

func (r *Router) setStatus(ctx context.Context, userID uint, status models.UserStatus) {
	if err := r.users.UpdateStatus(ctx, userID, status); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("update user status", "user_id", userID, "status", status, "error", err)
	}
}

// actor returns the connection's username. A payload that names another
// user is refused.
func actor(c *Client, claimed string) (string, error) {
	if claimed != "" && claimed != c.username {
		return "", errs.Permission("user '%s' cannot act as '%s'", c.username, claimed)
	}
	return c.username, nil
}
