package chat

import "time"

// Broadcast names. They mirror the command that caused them.
const (
	EventAddChat       = "add chat"
	EventDM            = "dm"
	EventDeleteChat    = "delete chat"
	EventJoinChat      = "join chat"
	EventLeaveChat     = "leave chat"
	EventChatMessage   = "chat message"
	EventMute          = "mute"
	EventTogglePrivate = "toggle private"
	EventInvite        = "invite"
	EventAcceptInvite  = "accept invite"
	EventOperator      = "operator"
	EventBan           = "ban"
	EventKick          = "kick"
)

type RoomCreated struct {
	Name      string    `json:"name"`
	Private   bool      `json:"private"`
	Protected bool      `json:"protected"`
	Owner     string    `json:"owner"`
	OwnerID   uint      `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DMCreated struct {
	Name  string `json:"name"`
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

type RoomDeleted struct {
	ChannelName string `json:"channel_name"`
	Username    string `json:"username"`
}

type MembershipChanged struct {
	ChannelName string `json:"channel_name"`
	Username    string `json:"username"`
	UserID      uint   `json:"user_id"`
}

type MessagePosted struct {
	ID        uint      `json:"id"`
	Channel   string    `json:"channel"`
	Sender    string    `json:"sender"`
	SenderID  uint      `json:"sender_id"`
	Msg       string    `json:"msg"`
	Datestamp time.Time `json:"datestamp"`
}

type MuteToggled struct {
	ChannelName string `json:"channel_name"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
	Muted       bool   `json:"muted"`
	MuteDate    int64  `json:"mute_date"`
}

type PrivacyToggled struct {
	ChannelName string `json:"channel_name"`
	Sender      string `json:"sender"`
	Private     bool   `json:"private"`
}

type Invited struct {
	ChannelName string `json:"channel_name"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
	InviteDate  int64  `json:"invite_date"`
	DMChannel   string `json:"dm_channel,omitempty"`
}

type InviteAccepted struct {
	ChannelName string `json:"channel_name"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
	InviteDate  int64  `json:"invite_date"`
}

type OperatorToggled struct {
	ChannelName string `json:"channel_name"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
	Operator    bool   `json:"operator"`
}

type Banned struct {
	ChannelName string `json:"channel_name"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
	Banned      bool   `json:"banned"`
	Removed     bool   `json:"removed"`
}

type Kicked struct {
	ChannelName string `json:"channel_name"`
	CurrentUser string `json:"current_user"`
	TargetUser  string `json:"target_user"`
	TargetID    uint   `json:"target_id"`
}
