package models

// InviteAccepted is the InvitedUntil value of a full member.
const InviteAccepted int64 = 0

// Participant is a user's relationship to a chat room: member, pending or
// expired invitee, or banned. Timestamps are unix milliseconds.
//
// Username and RoomName are denormalized so permission failures can name both
// sides without extra lookups.
type Participant struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ChatRoomID   uint   `gorm:"not null;uniqueIndex:idx_room_user" json:"chat_room_id"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_room_user" json:"user_id"`
	Username     string `gorm:"size:255;not null" json:"username"`
	RoomName     string `gorm:"size:255;not null" json:"room_name"`
	Owner        bool   `gorm:"not null;default:false" json:"owner"`
	Operator     bool   `gorm:"not null;default:false" json:"operator"`
	Banned       bool   `gorm:"not null;default:false" json:"banned"`
	MutedUntil   int64  `gorm:"not null;default:0" json:"muted_until"`
	InvitedUntil int64  `gorm:"not null;default:0" json:"invited_until"`
}

// ParticipantPatch is a partial update of a Participant. Nil fields are left
// unchanged.
type ParticipantPatch struct {
	Owner        *bool
	Operator     *bool
	Banned       *bool
	MutedUntil   *int64
	InvitedUntil *int64
}

// Apply copies the non-nil fields of patch onto p.
func (p *Participant) Apply(patch ParticipantPatch) {
	if patch.Owner != nil {
		p.Owner = *patch.Owner
	}
	if patch.Operator != nil {
		p.Operator = *patch.Operator
	}
	if patch.Banned != nil {
		p.Banned = *patch.Banned
	}
	if patch.MutedUntil != nil {
		p.MutedUntil = *patch.MutedUntil
	}
	if patch.InvitedUntil != nil {
		p.InvitedUntil = *patch.InvitedUntil
	}
}

// Apply copies the non-nil fields of patch onto r.
func (r *ChatRoom) Apply(patch RoomPatch) {
	if patch.Private != nil {
		r.Private = *patch.Private
	}
	if patch.Password != nil {
		r.Password = *patch.Password
	}
}
