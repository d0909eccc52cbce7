package domain

import (
	"github.com/google/uuid"

	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

// Channel is one of the two independent conversation namespaces.
type Channel string

const (
	ChannelSupport Channel = "support"
	ChannelVendor  Channel = "vendor"
)

// ParseChannel validates a channel name coming from outside the core.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelSupport, ChannelVendor:
		return Channel(s), nil
	default:
		return "", apperrors.ErrInvalidChannel
	}
}

// SenderRole identifies which side of a conversation authored a message.
type SenderRole string

const (
	RoleUser   SenderRole = "user"
	RoleVendor SenderRole = "vendor"
	RoleAdmin  SenderRole = "admin"
)

// AllowedOn reports whether the role can author messages on the channel.
func (r SenderRole) AllowedOn(ch Channel) bool {
	switch ch {
	case ChannelSupport:
		return r == RoleUser || r == RoleAdmin
	case ChannelVendor:
		return r == RoleVendor || r == RoleAdmin
	}
	return false
}

// ParticipantKind is the kind of resolved identity supplied by the auth collaborator.
type ParticipantKind string

const (
	ParticipantUser   ParticipantKind = "user"
	ParticipantVendor ParticipantKind = "vendor"
	ParticipantAdmin  ParticipantKind = "admin"
)

// Participant is a resolved actor identity. ID is the user id for users and
// admins, and the vendor-profile id for vendors.
type Participant struct {
	Kind ParticipantKind
	ID   uuid.UUID
}

func NewUser(id uuid.UUID) Participant   { return Participant{Kind: ParticipantUser, ID: id} }
func NewVendor(id uuid.UUID) Participant { return Participant{Kind: ParticipantVendor, ID: id} }
func NewAdmin(id uuid.UUID) Participant  { return Participant{Kind: ParticipantAdmin, ID: id} }

func (p Participant) IsAdmin() bool { return p.Kind == ParticipantAdmin }

// RoleIn returns the sender role the participant takes on a channel.
func (p Participant) RoleIn(ch Channel) (SenderRole, error) {
	var role SenderRole
	switch p.Kind {
	case ParticipantUser:
		role = RoleUser
	case ParticipantVendor:
		role = RoleVendor
	case ParticipantAdmin:
		role = RoleAdmin
	default:
		return "", apperrors.ErrForbidden
	}
	if !role.AllowedOn(ch) {
		return "", apperrors.ErrForbidden
	}
	return role, nil
}

// CanAccess reports whether the participant may read or write the conversation.
// Admins see every conversation; users and vendors only their own scope.
func (p Participant) CanAccess(ch Channel, scopeID uuid.UUID) bool {
	switch p.Kind {
	case ParticipantAdmin:
		return true
	case ParticipantUser:
		return ch == ChannelSupport && p.ID == scopeID
	case ParticipantVendor:
		return ch == ChannelVendor && p.ID == scopeID
	}
	return false
}

// CanObserve reports whether the participant may subscribe to a fan-out topic.
func (p Participant) CanObserve(t Topic) bool {
	switch t.Kind {
	case TopicSupport:
		return p.CanAccess(ChannelSupport, t.Scope)
	case TopicVendor:
		return p.CanAccess(ChannelVendor, t.Scope)
	case TopicNotifications:
		return p.Kind == ParticipantVendor && p.ID == t.Scope
	case TopicSupportList, TopicVendorList:
		return p.IsAdmin()
	}
	return false
}

// ParticipantInfo is display metadata joined in from the profile and vendor
// directories. It is never used for scoping decisions.
type ParticipantInfo struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
}
