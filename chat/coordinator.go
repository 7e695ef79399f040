// Package chat implements the chat-room membership and permission state
// machine. The Coordinator is the only place that decides whether a
// transition is legal; every accepted transition is broadcast as an event.
// Messages only reach accepted members, and nothing about a private room or
// a direct message reaches users without a row in it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/events"
	"github.com/CUknot/arena_backend/models"
	"github.com/CUknot/arena_backend/permission"
)

const defaultInviteTTL = time.Hour

// Coordinator serializes commands per room name and re-reads every row it
// mutates inside that critical section.
type Coordinator struct {
	rooms     RoomDirectory
	users     UserDirectory
	messages  MessageStore
	pub       events.Publisher
	logger    *slog.Logger
	locks     *roomLocks
	now       func() time.Time
	inviteTTL time.Duration
}

type Option func(*Coordinator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithInviteTTL sets how long an invite stays pending.
func WithInviteTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.inviteTTL = ttl
		}
	}
}

func NewCoordinator(rooms RoomDirectory, users UserDirectory, messages MessageStore, pub events.Publisher, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		rooms:     rooms,
		users:     users,
		messages:  messages,
		pub:       pub,
		logger:    logger,
		locks:     newRoomLocks(),
		now:       time.Now,
		inviteTTL: defaultInviteTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DMName returns the room name shared by two users regardless of order.
func DMName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("DM: %s / %s", a, b)
}

// CreateRoom creates a room owned by actor. A non-empty password is stored
// as a bcrypt hash.
func (c *Coordinator) CreateRoom(ctx context.Context, actor, name, password string, private bool) (*models.ChatRoom, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("chat name must not be empty")
	}
	if strings.HasPrefix(name, "DM: ") {
		return nil, errs.Invalid("chat name '%s' is reserved for direct messages", name)
	}

	unlock := c.locks.lock(name)
	defer unlock()

	user, err := c.user(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := c.rooms.FindRoomByName(ctx, name); err == nil {
		return nil, errs.Creation(nil, "chat '%s' already exists", name)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Operation(err, "look up chat '%s'", name)
	}

	room := &models.ChatRoom{Name: name, Private: private, CreatedAt: c.now()}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errs.Creation(err, "hash password for chat '%s'", name)
		}
		room.Password = string(hash)
	}

	if err := c.rooms.CreateRoom(ctx, room); err != nil {
		return nil, creationError(err, "create chat '%s'", name)
	}
	owner := &models.Participant{
		ChatRoomID:   room.ID,
		UserID:       user.ID,
		Username:     user.Username,
		RoomName:     room.Name,
		Owner:        true,
		Operator:     true,
		InvitedUntil: models.InviteAccepted,
	}
	if err := c.rooms.CreateParticipant(ctx, owner); err != nil {
		c.rollbackRoom(ctx, room)
		return nil, creationError(err, "add owner to chat '%s'", name)
	}

	var to []uint
	if private {
		to = []uint{user.ID}
	}
	c.logger.Info("chat created", "room", name, "owner", user.Username, "private", private)
	c.publish(ctx, to, EventAddChat, RoomCreated{
		Name:      room.Name,
		Private:   room.Private,
		Protected: room.HasPassword(),
		Owner:     user.Username,
		OwnerID:   user.ID,
		CreatedAt: room.CreatedAt,
	})
	return room, nil
}

// CreateDM returns the private room shared by two users, creating it and
// both memberships the first time. created is false when it already existed.
func (c *Coordinator) CreateDM(ctx context.Context, userA, userB string) (room *models.ChatRoom, created bool, err error) {
	if userA == userB {
		return nil, false, errs.Invalid("cannot open a direct message with yourself")
	}
	name := DMName(userA, userB)

	unlock := c.locks.lock(name)
	defer unlock()

	if existing, err := c.rooms.FindRoomByName(ctx, name); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, false, errs.Operation(err, "look up chat '%s'", name)
	}

	a, err := c.user(ctx, userA)
	if err != nil {
		return nil, false, err
	}
	b, err := c.user(ctx, userB)
	if err != nil {
		return nil, false, err
	}

	room = &models.ChatRoom{Name: name, Private: true, DM: true, CreatedAt: c.now()}
	if err := c.rooms.CreateRoom(ctx, room); err != nil {
		return nil, false, creationError(err, "create chat '%s'", name)
	}
	for _, u := range []*models.User{a, b} {
		p := &models.Participant{
			ChatRoomID:   room.ID,
			UserID:       u.ID,
			Username:     u.Username,
			RoomName:     room.Name,
			InvitedUntil: models.InviteAccepted,
		}
		if err := c.rooms.CreateParticipant(ctx, p); err != nil {
			c.rollbackRoom(ctx, room)
			return nil, false, creationError(err, "add '%s' to chat '%s'", u.Username, name)
		}
	}

	c.logger.Info("dm created", "room", name)
	c.publish(ctx, []uint{a.ID, b.ID}, EventDM, DMCreated{Name: name, User1: a.Username, User2: b.Username})
	return room, true, nil
}

// DeleteRoom removes a room and every participant row. Only the owner may
// delete; messages stay in persistence.
func (c *Coordinator) DeleteRoom(ctx context.Context, actor, roomName string) error {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return err
	}
	user, err := c.member(ctx, room, actor)
	if err != nil {
		return err
	}
	if err := permission.IsOwner(user, c.now()); err != nil {
		return err
	}
	to := c.audience(ctx, room, false)
	if err := c.rooms.DeleteRoom(ctx, room.ID); err != nil {
		return errs.Operation(err, "delete chat '%s'", roomName)
	}

	c.logger.Info("chat deleted", "room", roomName, "by", actor)
	c.publish(ctx, to, EventDeleteChat, RoomDeleted{ChannelName: roomName, Username: actor})
	return nil
}

// Join makes username a plain member of a public room.
func (c *Coordinator) Join(ctx context.Context, username, roomName, password string) error {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.rooms.FindRoomByName(ctx, roomName)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.Join("chat '%s' does not exist", roomName)
	} else if err != nil {
		return errs.Operation(err, "look up chat '%s'", roomName)
	}
	if room.Private {
		return errs.Join("chat '%s' is private", roomName)
	}
	user, err := c.user(ctx, username)
	if err != nil {
		return err
	}

	existing, err := c.lookup(ctx, room, user.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.InvitedUntil == models.InviteAccepted {
		return errs.Join("user '%s' is already in chat '%s'", username, roomName)
	}
	if existing != nil && existing.Banned {
		return errs.Join("user '%s' is banned from chat '%s'", username, roomName)
	}
	if room.HasPassword() {
		if err := bcrypt.CompareHashAndPassword([]byte(room.Password), []byte(password)); err != nil {
			return errs.Join("wrong password for chat '%s'", roomName)
		}
	}

	if existing != nil {
		no := false
		accepted := models.InviteAccepted
		err = c.rooms.UpdateParticipant(ctx, existing.ID, models.ParticipantPatch{
			Owner:        &no,
			Operator:     &no,
			InvitedUntil: &accepted,
		})
	} else {
		err = c.rooms.CreateParticipant(ctx, &models.Participant{
			ChatRoomID:   room.ID,
			UserID:       user.ID,
			Username:     user.Username,
			RoomName:     room.Name,
			InvitedUntil: models.InviteAccepted,
		})
	}
	if err != nil {
		return errs.Operation(err, "add '%s' to chat '%s'", username, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false), EventJoinChat, MembershipChanged{ChannelName: roomName, Username: user.Username, UserID: user.ID})
	return nil
}

// Leave deletes the caller's participant row, whatever its state.
func (c *Coordinator) Leave(ctx context.Context, username, roomName string) error {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return err
	}
	p, err := c.member(ctx, room, username)
	if err != nil {
		return err
	}
	if err := c.rooms.DeleteParticipant(ctx, p.ID); err != nil {
		return errs.Operation(err, "remove '%s' from chat '%s'", username, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false, p.UserID), EventLeaveChat, MembershipChanged{ChannelName: roomName, Username: p.Username, UserID: p.UserID})
	return nil
}

// PostMessage appends a message from a participant that is neither muted nor
// banned. A zero sentAt is replaced by the current time.
func (c *Coordinator) PostMessage(ctx context.Context, username, roomName, body string, sentAt time.Time) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errs.Invalid("message must not be empty")
	}

	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	sender, err := c.member(ctx, room, username)
	if err != nil {
		return nil, err
	}
	if err := permission.Require(sender, c.now(), permission.IsNotMuted, permission.IsNotBanned); err != nil {
		return nil, err
	}

	if sentAt.IsZero() {
		sentAt = c.now()
	}
	msg := &models.Message{
		ChatRoomID:     room.ID,
		RoomName:       room.Name,
		SenderID:       sender.UserID,
		SenderUsername: sender.Username,
		Body:           body,
		SentAt:         sentAt,
	}
	if err := c.messages.SaveMessage(ctx, msg); err != nil {
		return nil, errs.Operation(err, "save message in chat '%s'", roomName)
	}

	c.publish(ctx, c.audience(ctx, room, true), EventChatMessage, MessagePosted{
		ID:        msg.ID,
		Channel:   room.Name,
		Sender:    msg.SenderUsername,
		SenderID:  msg.SenderID,
		Msg:       msg.Body,
		Datestamp: msg.SentAt,
	})
	return msg, nil
}

// Invite gives target a pending invite until now+inviteTTL. An existing row
// is only refreshed when its previous invite expired without being accepted.
// The DM room between actor and target is created on the way, and its name
// is part of the broadcast.
func (c *Coordinator) Invite(ctx context.Context, roomName, actor, target string) (int64, error) {
	room, until, targetUser, err := c.invite(ctx, roomName, actor, target)
	if err != nil {
		return 0, err
	}

	ev := Invited{
		ChannelName: roomName,
		CurrentUser: actor,
		TargetUser:  targetUser.Username,
		TargetID:    targetUser.ID,
		InviteDate:  until,
	}
	if actor != target {
		dm, _, err := c.CreateDM(ctx, actor, target)
		if err != nil {
			c.logger.Warn("dm for invite", "room", roomName, "actor", actor, "target", target, "error", err)
		} else {
			ev.DMChannel = dm.Name
		}
	}

	c.publish(ctx, c.audience(ctx, room, false, targetUser.ID), EventInvite, ev)
	return until, nil
}

func (c *Coordinator) invite(ctx context.Context, roomName, actor, target string) (*models.ChatRoom, int64, *models.User, error) {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return nil, 0, nil, err
	}
	if _, err := c.member(ctx, room, actor); err != nil {
		return nil, 0, nil, err
	}
	targetUser, err := c.user(ctx, target)
	if err != nil {
		return nil, 0, nil, err
	}

	now := c.now()
	until := now.Add(c.inviteTTL).UnixMilli()

	existing, err := c.lookup(ctx, room, targetUser.ID)
	if err != nil {
		return nil, 0, nil, err
	}
	if existing == nil {
		err = c.rooms.CreateParticipant(ctx, &models.Participant{
			ChatRoomID:   room.ID,
			UserID:       targetUser.ID,
			Username:     targetUser.Username,
			RoomName:     room.Name,
			InvitedUntil: until,
		})
		if err != nil {
			return nil, 0, nil, creationError(err, "invite '%s' to chat '%s'", target, roomName)
		}
		return room, until, targetUser, nil
	}

	if err := permission.Require(existing, now, permission.InviteNotYetAccepted, permission.InviteNotPending); err != nil {
		return nil, 0, nil, err
	}
	if err := c.rooms.UpdateParticipant(ctx, existing.ID, models.ParticipantPatch{InvitedUntil: &until}); err != nil {
		return nil, 0, nil, errs.Operation(err, "renew invite of '%s' to chat '%s'", target, roomName)
	}
	return room, until, targetUser, nil
}

// AcceptInvite turns a pending invite into membership. When any check fails
// the row is deleted so the user can be invited again, and the failure is
// still returned.
func (c *Coordinator) AcceptInvite(ctx context.Context, username, roomName string) error {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return err
	}
	p, err := c.member(ctx, room, username)
	if err != nil {
		return err
	}

	checkErr := permission.Require(p, c.now(),
		permission.IsNotBanned,
		permission.InviteNotYetAccepted,
		permission.InviteNotExpired,
	)
	if checkErr != nil {
		if err := c.rooms.DeleteParticipant(ctx, p.ID); err != nil {
			c.logger.Error("drop failed invite", "room", roomName, "user", username, "error", err)
		}
		return checkErr
	}

	accepted := models.InviteAccepted
	if err := c.rooms.UpdateParticipant(ctx, p.ID, models.ParticipantPatch{InvitedUntil: &accepted}); err != nil {
		return errs.Operation(err, "accept invite of '%s' to chat '%s'", username, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false), EventAcceptInvite, InviteAccepted{
		ChannelName: roomName,
		TargetUser:  p.Username,
		TargetID:    p.UserID,
		InviteDate:  accepted,
	})
	return nil
}

// ToggleMute mutes target for the given minutes, or unmutes a target that is
// currently muted. It returns the new mute expiry in unix milliseconds.
func (c *Coordinator) ToggleMute(ctx context.Context, roomName, actor, target string, minutes int) (int64, error) {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, user, tgt, err := c.pair(ctx, roomName, actor, target)
	if err != nil {
		return 0, err
	}
	now := c.now()
	if err := permission.HasOperatorPrivilege(user, now); err != nil {
		return 0, err
	}
	if err := permission.Require(tgt, now, permission.IsNotOperator, permission.IsNotBanned); err != nil {
		return 0, err
	}

	muted := permission.IsMuted(tgt, now)
	until := now.UnixMilli()
	if !muted {
		if minutes <= 0 {
			return 0, errs.Invalid("mute length must be a positive number of minutes")
		}
		until = now.Add(time.Duration(minutes) * time.Minute).UnixMilli()
	}
	if err := c.rooms.UpdateParticipant(ctx, tgt.ID, models.ParticipantPatch{MutedUntil: &until}); err != nil {
		return 0, errs.Operation(err, "mute '%s' in chat '%s'", target, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false), EventMute, MuteToggled{
		ChannelName: roomName,
		CurrentUser: user.Username,
		TargetUser:  tgt.Username,
		TargetID:    tgt.UserID,
		Muted:       !muted,
		MuteDate:    until,
	})
	return until, nil
}

// ToggleOperator flips the operator flag of target. Owner only.
func (c *Coordinator) ToggleOperator(ctx context.Context, roomName, actor, target string) (bool, error) {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, user, tgt, err := c.pair(ctx, roomName, actor, target)
	if err != nil {
		return false, err
	}
	now := c.now()
	if err := permission.IsOwner(user, now); err != nil {
		return false, err
	}
	if err := permission.Require(tgt, now, permission.IsNotOwner, permission.IsNotBanned); err != nil {
		return false, err
	}

	operator := !tgt.Operator
	if err := c.rooms.UpdateParticipant(ctx, tgt.ID, models.ParticipantPatch{Operator: &operator}); err != nil {
		return false, errs.Operation(err, "toggle operator of '%s' in chat '%s'", target, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false), EventOperator, OperatorToggled{
		ChannelName: roomName,
		CurrentUser: user.Username,
		TargetUser:  tgt.Username,
		TargetID:    tgt.UserID,
		Operator:    operator,
	})
	return operator, nil
}

// Ban marks target as banned, keeping the row so the user cannot rejoin.
// Banning an already banned target deletes the row instead. removed reports
// which of the two happened.
func (c *Coordinator) Ban(ctx context.Context, roomName, actor, target string) (removed bool, err error) {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, user, tgt, err := c.pair(ctx, roomName, actor, target)
	if err != nil {
		return false, err
	}
	now := c.now()
	if err := permission.HasOperatorPrivilege(user, now); err != nil {
		return false, err
	}
	if err := permission.IsNotOwner(tgt, now); err != nil {
		return false, err
	}

	if tgt.Banned {
		err = c.rooms.DeleteParticipant(ctx, tgt.ID)
		removed = true
	} else {
		banned := true
		err = c.rooms.UpdateParticipant(ctx, tgt.ID, models.ParticipantPatch{Banned: &banned})
	}
	if err != nil {
		return false, errs.Operation(err, "ban '%s' from chat '%s'", target, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false, tgt.UserID), EventBan, Banned{
		ChannelName: roomName,
		CurrentUser: user.Username,
		TargetUser:  tgt.Username,
		TargetID:    tgt.UserID,
		Banned:      !removed,
		Removed:     removed,
	})
	return removed, nil
}

// Kick deletes the row of a target that is neither owner nor banned.
func (c *Coordinator) Kick(ctx context.Context, roomName, actor, target string) error {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, user, tgt, err := c.pair(ctx, roomName, actor, target)
	if err != nil {
		return err
	}
	now := c.now()
	if err := permission.HasOperatorPrivilege(user, now); err != nil {
		return err
	}
	if err := permission.Require(tgt, now, permission.IsNotOwner, permission.IsNotBanned); err != nil {
		return err
	}
	if err := c.rooms.DeleteParticipant(ctx, tgt.ID); err != nil {
		return errs.Operation(err, "kick '%s' from chat '%s'", target, roomName)
	}

	c.publish(ctx, c.audience(ctx, room, false, tgt.UserID), EventKick, Kicked{
		ChannelName: roomName,
		CurrentUser: user.Username,
		TargetUser:  tgt.Username,
		TargetID:    tgt.UserID,
	})
	return nil
}

// TogglePrivacy flips the private flag of the room. Owner only.
func (c *Coordinator) TogglePrivacy(ctx context.Context, roomName, actor string) (bool, error) {
	unlock := c.locks.lock(roomName)
	defer unlock()

	room, err := c.room(ctx, roomName)
	if err != nil {
		return false, err
	}
	user, err := c.member(ctx, room, actor)
	if err != nil {
		return false, err
	}
	if err := permission.IsOwner(user, c.now()); err != nil {
		return false, err
	}

	private := !room.Private
	if err := c.rooms.UpdateRoom(ctx, room.ID, models.RoomPatch{Private: &private}); err != nil {
		return false, errs.Operation(err, "toggle privacy of chat '%s'", roomName)
	}

	c.publish(ctx, nil, EventTogglePrivate, PrivacyToggled{ChannelName: roomName, Sender: user.Username, Private: private})
	return private, nil
}

// Participant returns username's row in roomName, or a permission error when
// there is none.
func (c *Coordinator) Participant(ctx context.Context, roomName, username string) (*models.Participant, error) {
	room, err := c.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return c.member(ctx, room, username)
}

func (c *Coordinator) room(ctx context.Context, name string) (*models.ChatRoom, error) {
	room, err := c.rooms.FindRoomByName(ctx, name)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("chat '%s' does not exist", name)
	}
	if err != nil {
		return nil, errs.Operation(err, "look up chat '%s'", name)
	}
	return room, nil
}

func (c *Coordinator) user(ctx context.Context, username string) (*models.User, error) {
	user, err := c.users.FindUserByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("user '%s' does not exist", username)
	}
	if err != nil {
		return nil, errs.Operation(err, "look up user '%s'", username)
	}
	return user, nil
}

// lookup returns the participant row or nil when the user has no
// relationship to the room.
func (c *Coordinator) lookup(ctx context.Context, room *models.ChatRoom, userID uint) (*models.Participant, error) {
	p, err := c.rooms.FindParticipant(ctx, room.ID, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Operation(err, "look up participant of chat '%s'", room.Name)
	}
	return p, nil
}

// member is lookup for flows where an absent row is an error.
func (c *Coordinator) member(ctx context.Context, room *models.ChatRoom, username string) (*models.Participant, error) {
	user, err := c.user(ctx, username)
	if err != nil {
		return nil, err
	}
	p, err := c.lookup(ctx, room, user.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.Permission("user '%s' is not in or invited to chat '%s'", username, room.Name)
	}
	return p, nil
}

func (c *Coordinator) pair(ctx context.Context, roomName, actor, target string) (*models.ChatRoom, *models.Participant, *models.Participant, error) {
	room, err := c.room(ctx, roomName)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := c.member(ctx, room, actor)
	if err != nil {
		return nil, nil, nil, err
	}
	tgt, err := c.member(ctx, room, target)
	if err != nil {
		return nil, nil, nil, err
	}
	return room, user, tgt, nil
}

func (c *Coordinator) rollbackRoom(ctx context.Context, room *models.ChatRoom) {
	if err := c.rooms.DeleteRoom(ctx, room.ID); err != nil {
		c.logger.Error("rollback chat creation", "room", room.Name, "error", err)
	}
}

// audience lists the users an event about room goes to. A nil result means
// every connection and is only returned for membership events of public
// rooms. Messages go to accepted members that are not banned; other events of
// a private room go to every row that is not banned plus extra.
func (c *Coordinator) audience(ctx context.Context, room *models.ChatRoom, messages bool, extra ...uint) []uint {
	if !messages && !room.Private && !room.DM {
		return nil
	}
	to := append(make([]uint, 0, len(extra)+4), extra...)
	rows, err := c.rooms.ListParticipants(ctx, room.ID)
	if err != nil {
		c.logger.Warn("list chat audience", "room", room.Name, "error", err)
		return to
	}
	for _, p := range rows {
		if p.Banned {
			continue
		}
		if messages && p.InvitedUntil != models.InviteAccepted {
			continue
		}
		to = append(to, p.UserID)
	}
	return to
}

// publish sends an event to the users in to, or to every connection when to
// is nil. An empty non-nil audience sends nothing.
func (c *Coordinator) publish(ctx context.Context, to []uint, name string, payload any) {
	if to != nil && len(to) == 0 {
		return
	}
	if err := c.pub.Publish(ctx, events.Event{Type: name, Users: to, Payload: payload}); err != nil {
		c.logger.Warn("publish chat event", "event", name, "error", err)
	}
}

func creationError(err error, format string, args ...any) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Kind == errs.KindCreation {
		return e
	}
	return errs.Creation(err, format, args...)
}
