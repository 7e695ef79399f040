package game

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// Player is one side of a match. ConnID is the connection that asked for the
// match; it is the one joined to the room group.
type Player struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	InviteID uint   `json:"-"`
	ConnID   string `json:"-"`
}

// Summary is the public description of a running room.
type Summary struct {
	RoomID  string `json:"room_id"`
	Player1 Player `json:"player1"`
	Player2 Player `json:"player2"`
}

// Snapshot is broadcast on every tick.
type Snapshot struct {
	Summary
	GameState State `json:"game_state"`
}

// Room is one live match. Its state is only touched under mu; the players
// never change after creation.
type Room struct {
	ID      string
	Player1 Player
	Player2 Player

	mu    sync.Mutex
	state State

	ended  atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
}

func newRoom(id string, p1, p2 Player) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	return &Room{
		ID:      id,
		Player1: p1,
		Player2: p2,
		state:   NewState(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (r *Room) Summary() Summary {
	return Summary{RoomID: r.ID, Player1: r.Player1, Player2: r.Player2}
}

// Snapshot copies the current state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Summary: r.Summary(), GameState: r.state}
}

// Ended reports whether the room has been ended.
func (r *Room) Ended() bool {
	return r.ended.Load()
}

// side returns 0 for player1, 1 for player2 and -1 for strangers.
func (r *Room) side(userID uint) int {
	switch userID {
	case r.Player1.UserID:
		return 0
	case r.Player2.UserID:
		return 1
	}
	return -1
}

// end moves the room to its terminal state. Only the first caller gets true
// and owns the rest of the teardown.
func (r *Room) end() bool {
	if !r.ended.CompareAndSwap(false, true) {
		return false
	}
	r.cancel()
	return true
}

// Registry owns the running rooms and the matchmaking wait list.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	byUser  map[uint]*Room
	waiting []Player
	nextID  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		byUser: make(map[uint]*Room),
	}
}

// Match pairs p with a compatible waiter. It returns the new room and true
// when a pair was made, the room p already plays in and false, or nil and
// false when p was queued.
//
// A player with an invite id only pairs with the waiter holding the same id;
// a player without one pairs with the oldest waiter that has none.
func (r *Registry) Match(p Player) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.byUser[p.UserID]; ok {
		return room, false
	}

	for i, w := range r.waiting {
		if w.UserID == p.UserID {
			// Already queued: refresh the entry in place.
			r.waiting[i] = p
			return nil, false
		}
	}

	for i, w := range r.waiting {
		if w.InviteID != p.InviteID {
			continue
		}
		r.waiting = append(r.waiting[:i:i], r.waiting[i+1:]...)
		r.nextID++
		room := newRoom(strconv.FormatUint(r.nextID, 10), w, p)
		r.rooms[room.ID] = room
		r.byUser[w.UserID] = room
		r.byUser[p.UserID] = room
		return room, true
	}

	r.waiting = append(r.waiting, p)
	return nil, false
}

// CancelWait removes userID from the wait list.
func (r *Registry) CancelWait(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropWaiting(func(w Player) bool { return w.UserID == userID })
}

// DropConn removes the wait list entry created by connID.
func (r *Registry) DropConn(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropWaiting(func(w Player) bool { return w.ConnID == connID })
}

func (r *Registry) dropWaiting(match func(Player) bool) bool {
	for i, w := range r.waiting {
		if match(w) {
			r.waiting = append(r.waiting[:i:i], r.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting reports whether userID is on the wait list.
func (r *Registry) Waiting(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.waiting {
		if w.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Registry) RoomOf(userID uint) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID]
}

func (r *Registry) Room(id string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[id]
}

// Remove drops the room and its user index. It returns false when the room
// was already gone.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return false
	}
	delete(r.rooms, id)
	for _, uid := range []uint{room.Player1.UserID, room.Player2.UserID} {
		if r.byUser[uid] == room {
			delete(r.byUser, uid)
		}
	}
	return true
}

// Rooms returns the running rooms ordered by creation.
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	sort.Slice(rooms, func(i, j int) bool {
		a, _ := strconv.ParseUint(rooms[i].ID, 10, 64)
		b, _ := strconv.ParseUint(rooms[j].ID, 10, 64)
		return a < b
	})
	return rooms
}

func (r *Registry) List() []Summary {
	rooms := r.Rooms()
	out := make([]Summary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	return out
}
