package websocket

import (
	"context"
	"encoding/json"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/game"
	"github.com/CUknot/arena_backend/utils"
)

func (r *Router) gameRoutes() {
	r.routes[CmdWaiting] = r.waiting
	r.routes[CmdCancelWaiting] = r.cancelWaiting
	r.routes[CmdUp] = r.paddle(game.Up)
	r.routes[CmdDown] = r.paddle(game.Down)
	r.routes[CmdLeaveGame] = r.leaveGame
	r.routes[CmdGetGames] = r.getGames
}

// checkToken accepts an empty token; a present one must belong to the
// connection's user.
func (r *Router) checkToken(c *Client, token string) error {
	if token == "" {
		return nil
	}
	userID, err := utils.ParseToken(token, r.secret)
	if err != nil {
		return errs.Permission("invalid token")
	}
	if userID != c.userID {
		return errs.Permission("token does not belong to user '%s'", c.username)
	}
	return nil
}

func (r *Router) gameCommand(c *Client, raw json.RawMessage) error {
	cmd, err := decode[GameCommand](raw)
	if err != nil {
		return err
	}
	return r.checkToken(c, cmd.Token)
}

func (r *Router) waiting(ctx context.Context, c *Client, raw json.RawMessage) error {
	cmd, err := decode[WaitingCommand](raw)
	if err != nil {
		return err
	}
	if err := r.checkToken(c, cmd.Token); err != nil {
		return err
	}
	_, err = r.game.Wait(ctx, game.Player{
		UserID:   c.userID,
		Username: c.username,
		InviteID: cmd.InviteID,
		ConnID:   c.id,
	})
	return err
}

func (r *Router) cancelWaiting(_ context.Context, c *Client, raw json.RawMessage) error {
	if err := r.gameCommand(c, raw); err != nil {
		return err
	}
	return r.game.CancelWait(c.userID)
}

func (r *Router) paddle(dir game.Direction) route {
	return func(_ context.Context, c *Client, raw json.RawMessage) error {
		if err := r.gameCommand(c, raw); err != nil {
			return err
		}
		return r.game.Move(c.userID, dir)
	}
}

func (r *Router) leaveGame(ctx context.Context, c *Client, raw json.RawMessage) error {
	if err := r.gameCommand(c, raw); err != nil {
		return err
	}
	return r.game.Leave(ctx, c.userID)
}

func (r *Router) getGames(_ context.Context, c *Client, raw json.RawMessage) error {
	if err := r.gameCommand(c, raw); err != nil {
		return err
	}
	r.reply(c, CmdGetGames, r.game.Games())
	return nil
}
