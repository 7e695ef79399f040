package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/models"
)

// RoomDirectory is the catalog of chat rooms and their participants. Lookups
// of absent rows return errs.ErrNotFound.
type RoomDirectory interface {
	FindRoomByName(ctx context.Context, name string) (*models.ChatRoom, error)
	FindRoomByID(ctx context.Context, id uint) (*models.ChatRoom, error)
	ListRooms(ctx context.Context) ([]models.ChatRoom, error)
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	// DeleteRoom removes the room and all of its participants.
	DeleteRoom(ctx context.Context, id uint) error
	UpdateRoom(ctx context.Context, id uint, patch models.RoomPatch) error

	FindParticipant(ctx context.Context, roomID, userID uint) (*models.Participant, error)
	CreateParticipant(ctx context.Context, p *models.Participant) error
	UpdateParticipant(ctx context.Context, id uint, patch models.ParticipantPatch) error
	DeleteParticipant(ctx context.Context, id uint) error
	ListParticipants(ctx context.Context, roomID uint) ([]models.Participant, error)
}

// UserDirectory resolves usernames to users.
type UserDirectory interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// MessageStore appends chat messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
}

// MemoryDirectory is a RoomDirectory kept in process memory. It hands out
// copies so callers never share rows.
type MemoryDirectory struct {
	mu           sync.RWMutex
	rooms        map[uint]*models.ChatRoom
	roomsByName  map[string]uint
	participants map[uint]*models.Participant
	nextRoomID   uint
	nextPartID   uint
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		rooms:        make(map[uint]*models.ChatRoom),
		roomsByName:  make(map[string]uint),
		participants: make(map[uint]*models.Participant),
	}
}

func (d *MemoryDirectory) FindRoomByName(_ context.Context, name string) (*models.ChatRoom, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.roomsByName[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	room := *d.rooms[id]
	return &room, nil
}

func (d *MemoryDirectory) FindRoomByID(_ context.Context, id uint) (*models.ChatRoom, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := *room
	return &out, nil
}

func (d *MemoryDirectory) ListRooms(_ context.Context) ([]models.ChatRoom, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]models.ChatRoom, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, *r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (d *MemoryDirectory) CreateRoom(_ context.Context, room *models.ChatRoom) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.roomsByName[room.Name]; exists {
		return errs.Creation(nil, "chat '%s' already exists", room.Name)
	}

	d.nextRoomID++
	room.ID = d.nextRoomID
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	stored := *room
	d.rooms[room.ID] = &stored
	d.roomsByName[room.Name] = room.ID
	return nil
}

func (d *MemoryDirectory) DeleteRoom(_ context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return errs.ErrNotFound
	}
	for pid, p := range d.participants {
		if p.ChatRoomID == id {
			delete(d.participants, pid)
		}
	}
	delete(d.roomsByName, room.Name)
	delete(d.rooms, id)
	return nil
}

func (d *MemoryDirectory) UpdateRoom(_ context.Context, id uint, patch models.RoomPatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return errs.ErrNotFound
	}
	room.Apply(patch)
	return nil
}

func (d *MemoryDirectory) FindParticipant(_ context.Context, roomID, userID uint) (*models.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.participants {
		if p.ChatRoomID == roomID && p.UserID == userID {
			out := *p
			return &out, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (d *MemoryDirectory) CreateParticipant(_ context.Context, p *models.Participant) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[p.ChatRoomID]; !ok {
		return errs.ErrNotFound
	}
	for _, existing := range d.participants {
		if existing.ChatRoomID == p.ChatRoomID && existing.UserID == p.UserID {
			return errs.Creation(nil, "user '%s' already has a relationship to chat '%s'", p.Username, p.RoomName)
		}
	}

	d.nextPartID++
	p.ID = d.nextPartID
	stored := *p
	d.participants[p.ID] = &stored
	return nil
}

func (d *MemoryDirectory) UpdateParticipant(_ context.Context, id uint, patch models.ParticipantPatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.participants[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.Apply(patch)
	return nil
}

func (d *MemoryDirectory) DeleteParticipant(_ context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.participants[id]; !ok {
		return errs.ErrNotFound
	}
	delete(d.participants, id)
	return nil
}

func (d *MemoryDirectory) ListParticipants(_ context.Context, roomID uint) ([]models.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.Participant
	for _, p := range d.participants {
		if p.ChatRoomID == roomID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
