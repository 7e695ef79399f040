// Package permission holds the predicates that gate chat-room transitions.
//
// Every check takes the participant row (nil when the user has no
// relationship to the room) and the current time, and returns nil or a
// permission error. A nil participant always fails with a reason that says
// the participant does not exist, which callers can tell apart from a present
// row that fails the check.
package permission

import (
	"errors"
	"time"

	"github.com/CUknot/arena_backend/errs"
	"github.com/CUknot/arena_backend/models"
)

// Check is a single predicate over a participant.
type Check func(p *models.Participant, now time.Time) error

// ErrMissingParticipant is wrapped by every failure caused by a nil participant.
var ErrMissingParticipant = errors.New("participant does not exist")

func missing(check string) error {
	return &errs.Error{
		Kind:   errs.KindPermission,
		Reason: "unexpected error during " + check + " check: participant does not exist",
		Err:    ErrMissingParticipant,
	}
}

// IsMissing reports whether err was caused by an absent participant.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingParticipant)
}

func IsOwner(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("owner permission")
	}
	if !p.Owner {
		return errs.Permission("user '%s' is not owner of chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

func IsNotOwner(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("owner permission")
	}
	if p.Owner {
		return errs.Permission("user '%s' is owner of chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

// HasOperatorPrivilege passes for operators and the owner.
func HasOperatorPrivilege(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("operator permission")
	}
	if !p.Operator && !p.Owner {
		return errs.Permission("user '%s' does not have operator privileges in chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

// IsNotOperator passes only for users that are neither operator nor owner.
func IsNotOperator(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("operator permission")
	}
	if p.Operator || p.Owner {
		return errs.Permission("user '%s' is operator of chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

func IsNotBanned(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("ban")
	}
	if p.Banned {
		return errs.Permission("user '%s' is banned from chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

func IsNotMuted(p *models.Participant, now time.Time) error {
	if p == nil {
		return missing("mute")
	}
	if p.MutedUntil > now.UnixMilli() {
		return errs.Permission("user '%s' is muted in chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

// InviteNotPending fails while an invite is still inside its window.
func InviteNotPending(p *models.Participant, now time.Time) error {
	if p == nil {
		return missing("invite")
	}
	if p.InvitedUntil > now.UnixMilli() {
		return errs.Permission("user '%s' invite to chat '%s' is pending", p.Username, p.RoomName)
	}
	return nil
}

// InviteNotExpired fails once the invite window has passed. An accepted
// invite (0) also counts as expired here; callers pair it with
// InviteNotYetAccepted to report the more precise reason first.
func InviteNotExpired(p *models.Participant, now time.Time) error {
	if p == nil {
		return missing("invite")
	}
	if p.InvitedUntil < now.UnixMilli() {
		return errs.Permission("user '%s' invite to chat '%s' has expired", p.Username, p.RoomName)
	}
	return nil
}

func InviteNotYetAccepted(p *models.Participant, _ time.Time) error {
	if p == nil {
		return missing("invite")
	}
	if p.InvitedUntil == models.InviteAccepted {
		return errs.Permission("user '%s' has already accepted invite to chat '%s'", p.Username, p.RoomName)
	}
	return nil
}

// Require runs checks in order and returns the first failure.
func Require(p *models.Participant, now time.Time, checks ...Check) error {
	for _, check := range checks {
		if err := check(p, now); err != nil {
			return err
		}
	}
	return nil
}

// IsMuted reports whether p is currently muted.
func IsMuted(p *models.Participant, now time.Time) bool {
	return p != nil && p.MutedUntil > now.UnixMilli()
}
