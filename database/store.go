package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/models"
)

// Store is the gorm backed persistence of rooms, participants, messages,
// users and game results.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// translate maps gorm errors onto the errs taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.Creation(err, "%s already exists", what)
	}
	return err
}

func (s *Store) first(ctx context.Context, dst any, what string, query string, args ...any) error {
	return translate(s.db.WithContext(ctx).Where(query, args...).First(dst).Error, what)
}

// Rooms

func (s *Store) FindRoomByName(ctx context.Context, name string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.first(ctx, &room, "chat", "name = ?", name); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) FindRoomByID(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.first(ctx, &room, "chat", "id = ?", id); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.db.WithContext(ctx).Order("id").Find(&rooms).Error
	return rooms, translate(err, "chat")
}

// ListRoomsFor returns the public rooms plus every room userID has a row in.
func (s *Store) ListRoomsFor(ctx context.Context, userID uint) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	member := s.db.Model(&models.Participant{}).Select("chat_room_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("private = ?", false).
		Or("id IN (?)", member).
		Order("id").
		Find(&rooms).Error
	return rooms, translate(err, "chat")
}

func (s *Store) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return translate(s.db.WithContext(ctx).Create(room).Error, "chat '"+room.Name+"'")
}

// DeleteRoom removes the room and its participants in one transaction.
// Messages are kept.
func (s *Store) DeleteRoom(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_room_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ChatRoom{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}
		return nil
	})
}

func (s *Store) UpdateRoom(ctx context.Context, id uint, patch models.RoomPatch) error {
	updates := map[string]any{}
	if patch.Private != nil {
		updates["private"] = *patch.Private
	}
	if patch.Password != nil {
		updates["password"] = *patch.Password
	}
	return s.update(ctx, &models.ChatRoom{}, id, updates)
}

// Participants

func (s *Store) FindParticipant(ctx context.Context, roomID, userID uint) (*models.Participant, error) {
	var p models.Participant
	if err := s.first(ctx, &p, "participant", "chat_room_id = ? AND user_id = ?", roomID, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if _, err := s.FindRoomByID(ctx, p.ChatRoomID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Create(p).Error, "participant '"+p.Username+"' of chat '"+p.RoomName+"'")
}

func (s *Store) UpdateParticipant(ctx context.Context, id uint, patch models.ParticipantPatch) error {
	updates := map[string]any{}
	if patch.Owner != nil {
		updates["owner"] = *patch.Owner
	}
	if patch.Operator != nil {
		updates["operator"] = *patch.Operator
	}
	if patch.Banned != nil {
		updates["banned"] = *patch.Banned
	}
	if patch.MutedUntil != nil {
		updates["muted_until"] = *patch.MutedUntil
	}
	if patch.InvitedUntil != nil {
		updates["invited_until"] = *patch.InvitedUntil
	}
	return s.update(ctx, &models.Participant{}, id, updates)
}

func (s *Store) DeleteParticipant(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Participant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *Store) ListParticipants(ctx context.Context, roomID uint) ([]models.Participant, error) {
	var out []models.Participant
	err := s.db.WithContext(ctx).Where("chat_room_id = ?", roomID).Order("id").Find(&out).Error
	return out, translate(err, "participant")
}

func (s *Store) update(ctx context.Context, model any, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Messages

func (s *Store) SaveMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// ListMessages returns the last limit messages of a room, oldest first.
func (s *Store) ListMessages(ctx context.Context, roomID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error, "user")
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "user", "username = ?", username); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "user", "email = ?", email); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.first(ctx, &u, "user", "id = ?", id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateStatus(ctx context.Context, userID uint, status models.UserStatus) error {
	return s.update(ctx, &models.User{}, userID, map[string]any{"status": status})
}

// Game results

func (s *Store) SaveGameResult(ctx context.Context, result *models.GameResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

// ListGameResults returns the newest results first.
func (s *Store) ListGameResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	var out []models.GameResult
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}
