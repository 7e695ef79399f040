package websocket

import (
	"context"
	"encoding/json"
	"time"
)

func (r *Router) chatRoutes() {
	r.routes[CmdAddChat] = r.addChat
	r.routes[CmdDM] = r.dm
	r.routes[CmdDeleteChat] = r.deleteChat
	r.routes[CmdJoinChat] = r.joinChat
	r.routes[CmdLeaveChat] = r.leaveChat
	r.routes[CmdChatMessage] = r.chatMessage
	r.routes[CmdMute] = r.mute
	r.routes[CmdTogglePrivate] = r.togglePrivate
	r.routes[CmdInvite] = r.invite
	r.routes[CmdAcceptInvite] = r.acceptInvite
	r.routes[CmdOperator] = r.operator
	r.routes[CmdBan] = r.ban
	r.routes[CmdKick] = r.kick
}

func (r *Router) addChat(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[AddChatCommand](raw)
	if err != nil {
		return err
	}
	_, err = r.chat.CreateRoom(ctx, c.username, cmd.Name, cmd.Password, cmd.Private)
	return err
}

func (r *Router) dm(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[DMCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.CurrentUser)
	if err != nil {
		return err
	}
	_, _, err = r.chat.CreateDM(ctx, me, cmd.TargetUser)
	return err
}

func (r *Router) deleteChat(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[DeleteChatCommand](raw)
	if err != nil {
		return err
	}
	return r.chat.DeleteRoom(ctx, c.username, cmd.ChannelName)
}

func (r *Router) joinChat(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[JoinChatCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.Username)
	if err != nil {
		return err
	}
	return r.chat.Join(ctx, me, cmd.ChannelName, cmd.Password)
}

func (r *Router) leaveChat(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[LeaveChatCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.Username)
	if err != nil {
		return err
	}
	return r.chat.Leave(ctx, me, cmd.ChannelName)
}

func (r *Router) chatMessage(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[ChatMessageCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.Sender)
	if err != nil {
		return err
	}
	var sentAt time.Time
	if cmd.Datestamp != nil {
		sentAt = *cmd.Datestamp
	}
	_, err = r.chat.PostMessage(ctx, me, cmd.Channel, cmd.Msg, sentAt)
	return err
}

func (r *Router) mute(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[MuteCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.CurrentUser)
	if err != nil {
		return err
	}
	_, err = r.chat.ToggleMute(ctx, cmd.ChannelName, me, cmd.TargetUser, cmd.Minutes)
	return err
}

func (r *Router) togglePrivate(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[TogglePrivateCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.Sender)
	if err != nil {
		return err
	}
	_, err = r.chat.TogglePrivacy(ctx, cmd.ChannelName, me)
	return err
}

func (r *Router) invite(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[InviteCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.CurrentUser)
	if err != nil {
		return err
	}
	_, err = r.chat.Invite(ctx, cmd.ChannelName, me, cmd.TargetUser)
	return err
}

func (r *Router) acceptInvite(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[AcceptInviteCommand](raw)
	if err != nil {
		return err
	}
	me, err := actor(c, cmd.TargetUser)
	if err != nil {
		return err
	}
	return r.chat.AcceptInvite(ctx, me, cmd.ChannelName)
}

func (r *Router) operator(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, me, err := r.targetCommand(c, raw)
	if err != nil {
		return err
	}
	_, err = r.chat.ToggleOperator(ctx, cmd.ChannelName, me, cmd.TargetUser)
	return err
}

func (r *Router) ban(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, me, err := r.targetCommand(c, raw)
	if err != nil {
		return err
	}
	_, err = r.chat.Ban(ctx, cmd.ChannelName, me, cmd.TargetUser)
	return err
}

func (r *Router) kick(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, me, err := r.targetCommand(c, raw)
	if err != nil {
		return err
	}
	return r.chat.Kick(ctx, cmd.ChannelName, me, cmd.TargetUser)
}

func (r *Router) targetCommand(c *Client, raw json.RawMessage) (TargetCommand, string, error) {
	cmd, err := decode[TargetCommand](raw)
	if err != nil {
		return cmd, "", err
	}
	me, err := actor(c, cmd.CurrentUser)
	return cmd, me, err
}
