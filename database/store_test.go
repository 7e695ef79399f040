package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CUknot/arena_backend/chat"
	"github.com/CUknot/arena_backend/config"
	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(config.DBConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, log))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DBConfig{Driver: "mysql"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

// The gorm store and the in-memory directory must behave the same.
func TestRoomDirectoryContract(t *testing.T) {
	impls := map[string]func(t *testing.T) chat.RoomDirectory{
		"gorm":   func(t *testing.T) chat.RoomDirectory { return newTestStore(t) },
		"memory": func(*testing.T) chat.RoomDirectory { return chat.NewMemoryDirectory() },
	}
	for name, newDir := range impls {
		t.Run(name, func(t *testing.T) {
			dir := newDir(t)
			ctx := context.Background()

			_, err := dir.FindRoomByName(ctx, "general")
			require.ErrorIs(t, err, errs.ErrNotFound)

			room := &models.ChatRoom{Name: "general"}
			require.NoError(t, dir.CreateRoom(ctx, room))
			require.NotZero(t, room.ID)

			err = dir.CreateRoom(ctx, &models.ChatRoom{Name: "general"})
			assert.True(t, errs.Is(err, errs.KindCreation), "duplicate name: %v", err)

			got, err := dir.FindRoomByID(ctx, room.ID)
			require.NoError(t, err)
			assert.Equal(t, "general", got.Name)

			private := true
			require.NoError(t, dir.UpdateRoom(ctx, room.ID, models.RoomPatch{Private: &private}))
			got, err = dir.FindRoomByName(ctx, "general")
			require.NoError(t, err)
			assert.True(t, got.Private)

			p := &models.Participant{ChatRoomID: room.ID, UserID: 7, Username: "alice", RoomName: "general", Owner: true, Operator: true}
			require.NoError(t, dir.CreateParticipant(ctx, p))
			require.NotZero(t, p.ID)

			dup := &models.Participant{ChatRoomID: room.ID, UserID: 7, Username: "alice", RoomName: "general"}
			assert.Error(t, dir.CreateParticipant(ctx, dup))

			orphan := &models.Participant{ChatRoomID: room.ID + 100, UserID: 8, Username: "bob", RoomName: "nowhere"}
			assert.ErrorIs(t, dir.CreateParticipant(ctx, orphan), errs.ErrNotFound)

			no := false
			until := time.Now().Add(time.Minute).UnixMilli()
			require.NoError(t, dir.UpdateParticipant(ctx, p.ID, models.ParticipantPatch{Operator: &no, MutedUntil: &until}))
			found, err := dir.FindParticipant(ctx, room.ID, 7)
			require.NoError(t, err)
			assert.True(t, found.Owner)
			assert.False(t, found.Operator)
			assert.Equal(t, until, found.MutedUntil)

			assert.ErrorIs(t, dir.UpdateParticipant(ctx, 9999, models.ParticipantPatch{Operator: &no}), errs.ErrNotFound)

			bob := &models.Participant{ChatRoomID: room.ID, UserID: 8, Username: "bob", RoomName: "general", InvitedUntil: until}
			require.NoError(t, dir.CreateParticipant(ctx, bob))
			parts, err := dir.ListParticipants(ctx, room.ID)
			require.NoError(t, err)
			require.Len(t, parts, 2)
			assert.Equal(t, "alice", parts[0].Username)
			assert.Equal(t, until, parts[1].InvitedUntil)

			require.NoError(t, dir.DeleteParticipant(ctx, bob.ID))
			assert.ErrorIs(t, dir.DeleteParticipant(ctx, bob.ID), errs.ErrNotFound)
			_, err = dir.FindParticipant(ctx, room.ID, 8)
			assert.ErrorIs(t, err, errs.ErrNotFound)

			require.NoError(t, dir.DeleteRoom(ctx, room.ID))
			_, err = dir.FindParticipant(ctx, room.ID, 7)
			assert.ErrorIs(t, err, errs.ErrNotFound, "participants go with the room")
			assert.ErrorIs(t, dir.DeleteRoom(ctx, room.ID), errs.ErrNotFound)

			rooms, err := dir.ListRooms(ctx)
			require.NoError(t, err)
			assert.Empty(t, rooms)
		})
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "secret"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEqual(t, "secret", u.Password)
	assert.Equal(t, models.StatusOffline, u.Status)

	err := s.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.True(t, errs.Is(err, errs.KindCreation))

	byEmail, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NoError(t, byEmail.ValidatePassword("secret"))
	assert.Error(t, byEmail.ValidatePassword("wrong"))

	require.NoError(t, s.UpdateStatus(ctx, u.ID, models.StatusInGame))
	byID, err := s.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInGame, byID.Status)

	_, err = s.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMessagesAndRoomsFor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	public := &models.ChatRoom{Name: "general"}
	secret := &models.ChatRoom{Name: "secret", Private: true}
	hidden := &models.ChatRoom{Name: "hidden", Private: true}
	for _, r := range []*models.ChatRoom{public, secret, hidden} {
		require.NoError(t, s.CreateRoom(ctx, r))
	}
	require.NoError(t, s.CreateParticipant(ctx, &models.Participant{ChatRoomID: secret.ID, UserID: 1, Username: "alice", RoomName: "secret"}))

	rooms, err := s.ListRoomsFor(ctx, 1)
	require.NoError(t, err)
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"general", "secret"}, names)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveMessage(ctx, &models.Message{
			ChatRoomID:     public.ID,
			RoomName:       "general",
			SenderID:       1,
			SenderUsername: "alice",
			Body:           fmt.Sprintf("msg %d", i),
			SentAt:         base.Add(time.Duration(i) * time.Minute),
		}))
	}
	msgs, err := s.ListMessages(ctx, public.ID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg 2", msgs[0].Body)
	assert.Equal(t, "msg 4", msgs[2].Body)
}

func TestGameResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGameResult(ctx, &models.GameResult{WinnerID: 1, LoserID: 2, WinnerScore: 2, LoserScore: 0}))
	require.NoError(t, s.SaveGameResult(ctx, &models.GameResult{WinnerID: 2, LoserID: 1, WinnerScore: 2, LoserScore: 1}))

	results, err := s.ListGameResults(ctx, 50)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint(2), results[0].WinnerID, "newest first")
	assert.False(t, results[0].CreatedAt.IsZero())
}
