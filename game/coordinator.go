// Package game runs two-player matches: matchmaking, the fixed-step physics
// loop of every room, and room teardown.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/events"
	"github.com/CUknot/arena_backend/models"
)

// Event names sent to clients.
const (
	EventWaiting    = "waiting"
	EventStartGame  = "start game"
	EventTick       = "tick"
	EventEndGame    = "end game"
	EventRejoinGame = "rejoin game"
	EventLeaveGame  = "leave game"
)

const (
	DefaultTick           = 6 * time.Millisecond
	DefaultReconnectGrace = 10 * time.Second
	persistTimeout        = 5 * time.Second
)

// Groups manages the per-room broadcast groups of the transport. Every
// operation must be idempotent. JoinUser adds all open connections of a user.
type Groups interface {
	JoinGroup(connID, group string)
	JoinUser(userID uint, group string)
	DisbandGroup(group string)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, userID uint, status models.UserStatus) error
}

type ResultStore interface {
	SaveGameResult(ctx context.Context, result *models.GameResult) error
}

type EndGame struct {
	WinnerID    uint `json:"winner_id"`
	LoserID     uint `json:"loser_id"`
	WinnerScore int  `json:"winner_score"`
	LoserScore  int  `json:"loser_score"`
}

type LeftGame struct {
	UserID uint `json:"user_id"`
}

type Queued struct {
	InviteID uint `json:"invite_id,omitempty"`
}

// Coordinator drives every room from creation to teardown.
type Coordinator struct {
	registry *Registry
	engine   *Engine
	groups   Groups
	pub      events.Publisher
	users    StatusUpdater
	results  ResultStore
	logger   *slog.Logger

	tick  time.Duration
	grace time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	timers map[uint]*time.Timer
}

type Option func(*Coordinator)

func WithTick(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.tick = d
		}
	}
}

func WithReconnectGrace(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.grace = d
		}
	}
}

func WithEngine(e *Engine) Option {
	return func(c *Coordinator) { c.engine = e }
}

func WithRegistry(r *Registry) Option {
	return func(c *Coordinator) { c.registry = r }
}

func NewCoordinator(groups Groups, pub events.Publisher, users StatusUpdater, results ResultStore, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry: NewRegistry(),
		engine:   NewEngine(nil),
		groups:   groups,
		pub:      pub,
		users:    users,
		results:  results,
		logger:   logger,
		tick:     DefaultTick,
		grace:    DefaultReconnectGrace,
		timers:   make(map[uint]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Registry() *Registry { return c.registry }

// Games lists the running rooms.
func (c *Coordinator) Games() []Summary {
	return c.registry.List()
}

// Wait asks for a match on behalf of p. A player that already plays is
// rejoined to their room instead. It returns nil when p was queued.
func (c *Coordinator) Wait(ctx context.Context, p Player) (*Room, error) {
	if p.UserID == 0 || p.ConnID == "" {
		return nil, errs.Invalid("waiting needs an authenticated connection")
	}

	room, created := c.registry.Match(p)
	switch {
	case room == nil:
		c.send(ctx, p.ConnID, EventWaiting, Queued{InviteID: p.InviteID})
		return nil, nil
	case !created:
		c.rejoin(ctx, room, p.UserID, p.ConnID)
		return room, nil
	}

	c.start(ctx, room)
	return room, nil
}

// CancelWait takes the user off the wait list.
func (c *Coordinator) CancelWait(userID uint) error {
	if !c.registry.CancelWait(userID) {
		return errs.NotFound("user %d is not waiting for a game", userID)
	}
	return nil
}

// Move applies a paddle command of a player in a running room.
func (c *Coordinator) Move(userID uint, dir Direction) error {
	if dir != Up && dir != Down {
		return errs.Invalid("unknown direction '%s'", dir)
	}
	room := c.registry.RoomOf(userID)
	if room == nil || room.Ended() {
		return errs.NotFound("user %d is not in a game", userID)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	c.engine.MovePaddle(&room.state, room.side(userID), dir)
	return nil
}

// Leave ends the caller's room without recording a result.
func (c *Coordinator) Leave(ctx context.Context, userID uint) error {
	room := c.registry.RoomOf(userID)
	if room == nil {
		return errs.NotFound("user %d is not in a game", userID)
	}
	c.abandon(ctx, room, userID, models.StatusOnline)
	return nil
}

// Connected is called for every new connection of a user. A user with a
// running room is rejoined to it.
func (c *Coordinator) Connected(ctx context.Context, userID uint, connID string) bool {
	room := c.registry.RoomOf(userID)
	if room == nil || room.Ended() {
		return false
	}
	c.rejoin(ctx, room, userID, connID)
	return true
}

// Disconnected is called when a connection closes. lastConn reports whether
// the user has no connection left; in that case a player of a running room
// gets the reconnect grace period before the room is ended.
func (c *Coordinator) Disconnected(userID uint, connID string, lastConn bool) {
	if c.registry.DropConn(connID) {
		c.logger.Debug("waiting player disconnected", "user_id", userID)
	}
	if !lastConn {
		return
	}
	room := c.registry.RoomOf(userID)
	if room == nil || room.Ended() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.timers[userID]; ok {
		return
	}
	c.logger.Info("player disconnected, waiting for reconnect", "room", room.ID, "user_id", userID, "grace", c.grace)
	c.timers[userID] = time.AfterFunc(c.grace, func() {
		c.mu.Lock()
		delete(c.timers, userID)
		c.mu.Unlock()
		if c.registry.RoomOf(userID) != room {
			return
		}
		c.logger.Info("reconnect grace expired", "room", room.ID, "user_id", userID)
		c.abandon(context.Background(), room, userID, models.StatusOffline)
	})
}

// Shutdown ends every room without recording results and waits for the tick
// loops to return.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	for _, room := range c.registry.Rooms() {
		if room.end() {
			c.release(ctx, room, 0)
		}
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) start(ctx context.Context, room *Room) {
	// Every connection of a player follows the match, not only the one that
	// asked for it, so closing one tab leaves the others watching.
	for _, p := range []Player{room.Player1, room.Player2} {
		c.groups.JoinUser(p.UserID, room.ID)
		c.setStatus(ctx, p.UserID, models.StatusInGame)
	}

	room.mu.Lock()
	c.engine.Serve(&room.state)
	room.mu.Unlock()

	c.logger.Info("game started", "room", room.ID,
		"player1", room.Player1.Username, "player2", room.Player2.Username)
	c.broadcast(ctx, room, EventStartGame, room.Summary())

	c.wg.Add(1)
	go c.run(room)
}

func (c *Coordinator) run(room *Room) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-room.ctx.Done():
			return
		case <-ticker.C:
			c.step(room)
		}
	}
}

// step runs one tick. A panic ends the room so it never keeps a dead loop.
func (c *Coordinator) step(room *Room) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("game tick panicked", "room", room.ID, "panic", fmt.Sprint(r))
			if room.end() {
				c.release(context.Background(), room, 0)
			}
		}
	}()

	snap, over, ok := c.advance(room)
	if !ok {
		return
	}

	ctx := context.Background()
	c.broadcast(ctx, room, EventTick, snap)
	if over {
		c.finish(ctx, room, snap.GameState)
	}
}

func (c *Coordinator) advance(room *Room) (snap Snapshot, over, ok bool) {
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Ended() {
		return snap, false, false
	}
	over = c.engine.Tick(&room.state)
	return Snapshot{Summary: room.Summary(), GameState: room.state}, over, true
}

// finish ends a decided room: broadcast, persist, tear down.
func (c *Coordinator) finish(ctx context.Context, room *Room, st State) {
	if !room.end() {
		return
	}

	result := EndGame{
		WinnerID:    room.Player1.UserID,
		LoserID:     room.Player2.UserID,
		WinnerScore: st.Result[0],
		LoserScore:  st.Result[1],
	}
	if winner, _ := st.Outcome(); winner == 1 {
		result = EndGame{
			WinnerID:    room.Player2.UserID,
			LoserID:     room.Player1.UserID,
			WinnerScore: st.Result[1],
			LoserScore:  st.Result[0],
		}
	}

	c.logger.Info("game over", "room", room.ID, "winner_id", result.WinnerID,
		"score", fmt.Sprintf("%d-%d", result.WinnerScore, result.LoserScore))
	c.broadcast(ctx, room, EventEndGame, result)

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	err := c.results.SaveGameResult(pctx, &models.GameResult{
		WinnerID:    result.WinnerID,
		LoserID:     result.LoserID,
		WinnerScore: result.WinnerScore,
		LoserScore:  result.LoserScore,
	})
	cancel()
	if err != nil {
		c.logger.Error("save game result", "room", room.ID, "error", err)
	}

	c.release(ctx, room, 0)
}

// abandon ends room because userID left. The leaver gets status, the other
// player goes back online.
func (c *Coordinator) abandon(ctx context.Context, room *Room, userID uint, status models.UserStatus) {
	if !room.end() {
		return
	}
	c.logger.Info("game abandoned", "room", room.ID, "user_id", userID)
	c.broadcast(ctx, room, EventLeaveGame, LeftGame{UserID: userID})

	if status != models.StatusOnline {
		c.setStatus(ctx, userID, status)
		c.release(ctx, room, userID)
		return
	}
	c.release(ctx, room, 0)
}

// release removes an ended room. Both players go back online, except skip
// whose status was already set by the caller.
func (c *Coordinator) release(ctx context.Context, room *Room, skip uint) {
	c.registry.Remove(room.ID)
	c.groups.DisbandGroup(room.ID)

	for _, p := range []Player{room.Player1, room.Player2} {
		c.stopTimer(p.UserID)
		if p.UserID != skip {
			c.setStatus(ctx, p.UserID, models.StatusOnline)
		}
	}
	c.logger.Debug("game room released", "room", room.ID)
}

func (c *Coordinator) rejoin(ctx context.Context, room *Room, userID uint, connID string) {
	c.stopTimer(userID)
	c.groups.JoinGroup(connID, room.ID)
	c.setStatus(ctx, userID, models.StatusInGame)
	c.logger.Info("player rejoined game", "room", room.ID, "user_id", userID)
	c.send(ctx, connID, EventRejoinGame, room.Snapshot())
}

func (c *Coordinator) stopTimer(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[userID]; ok {
		t.Stop()
		delete(c.timers, userID)
	}
}

func (c *Coordinator) setStatus(ctx context.Context, userID uint, status models.UserStatus) {
	if err := c.users.UpdateStatus(ctx, userID, status); err != nil {
		c.logger.Warn("update player status", "user_id", userID, "status", status, "error", err)
	}
}

func (c *Coordinator) broadcast(ctx context.Context, room *Room, name string, payload any) {
	if err := c.pub.Publish(ctx, events.Event{Type: name, Group: room.ID, Payload: payload}); err != nil {
		c.logger.Warn("publish game event", "event", name, "room", room.ID, "error", err)
	}
}

func (c *Coordinator) send(ctx context.Context, connID, name string, payload any) {
	if err := c.pub.Publish(ctx, events.Event{Type: name, Target: connID, Payload: payload}); err != nil {
		c.logger.Warn("send game event", "event", name, "conn", connID, "error", err)
	}
}
