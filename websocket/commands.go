package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/CUknot/arena_backend/errs"
)

// Command names accepted from clients.
const (
	CmdAddChat       = "add chat"
	CmdDM            = "dm"
	CmdDeleteChat    = "delete chat"
	CmdJoinChat      = "join chat"
	CmdLeaveChat     = "leave chat"
	CmdChatMessage   = "chat message"
	CmdMute          = "mute"
	CmdTogglePrivate = "toggle private"
	CmdInvite        = "invite"
	CmdAcceptInvite  = "accept invite"
	CmdOperator      = "operator"
	CmdBan           = "ban"
	CmdKick          = "kick"

	CmdWaiting       = "waiting"
	CmdCancelWaiting = "cancel waiting"
	CmdUp            = "up"
	CmdDown          = "down"
	CmdLeaveGame     = "leave game"
	CmdGetGames      = "get games"
)

// EventError is sent to the invoking connection when a command fails.
const EventError = "error"

type AddChatCommand struct {
	Name     string `json:"name" validate:"required,max=64"`
	Password string `json:"password" validate:"max=72"`
	Private  bool   `json:"private"`
}

type DMCommand struct {
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user" validate:"required"`
}

type DeleteChatCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
}

type JoinChatCommand struct {
	Username    string `json:"username"`
	ChannelName string `json:"channel_name" validate:"required"`
	Password    string `json:"password"`
}

type LeaveChatCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	Username    string `json:"username"`
}

type ChatMessageCommand struct {
	Channel   string     `json:"channel" validate:"required"`
	Sender    string     `json:"sender"`
	Msg       string     `json:"msg" validate:"required,max=2000"`
	Datestamp *time.Time `json:"datestamp"`
}

type MuteCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user" validate:"required"`
	Minutes     int    `json:"minutes" validate:"gte=0,lte=525600"`
}

type TogglePrivateCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	Sender      string `json:"sender"`
}

type InviteCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user" validate:"required"`
}

type AcceptInviteCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	TargetUser  string `json:"target_user"`
}

// TargetCommand is shared by operator, ban and kick.
type TargetCommand struct {
	ChannelName string `json:"channel_name" validate:"required"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user" validate:"required"`
}

type WaitingCommand struct {
	Token    string `json:"token"`
	InviteID uint   `json:"invite_id"`
}

// GameCommand is the payload of every other game command.
type GameCommand struct {
	Token string `json:"token"`
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Command string    `json:"command"`
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode unmarshals and validates a command payload. An absent payload
// decodes to the zero command.
func decode[T any](raw json.RawMessage) (T, error) {
	var cmd T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &cmd); err != nil {
			return cmd, errs.Invalid("malformed payload: %v", err)
		}
	}
	if err := validate.Struct(cmd); err != nil {
		return cmd, validationError(err)
	}
	return cmd, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Invalid("invalid payload: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return errs.Invalid("invalid payload: %s", strings.Join(fields, ", "))
}
