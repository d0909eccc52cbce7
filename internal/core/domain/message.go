package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
)

// Message content constraints
const (
	MaxMessageBodyLength = 4000
	MaxSubjectLength     = 255
)

// Message is an immutable entry in a conversation. Only IsRead changes, once,
// from false to true; the store never writes it back to false.
type Message struct {
	ID         int64
	Channel    Channel
	ScopeID    uuid.UUID
	SenderRole SenderRole
	AdminID    *uuid.UUID
	Subject    *string
	Body       string
	ParentID   *int64
	CreatedAt  time.Time
	IsRead     bool
}

// MessageParams holds the input for NewMessage.
type MessageParams struct {
	Channel    Channel
	ScopeID    uuid.UUID
	SenderRole SenderRole
	AdminID    *uuid.UUID
	Subject    *string
	Body       string
	ParentID   *int64
}

// NewMessage validates the params and builds an unread message. CreatedAt and
// ID are assigned by the store.
func NewMessage(p MessageParams) (*Message, error) {
	if _, err := ParseChannel(string(p.Channel)); err != nil {
		return nil, err
	}
	if p.ScopeID == uuid.Nil {
		return nil, apperrors.ErrScopeRequired
	}
	if !p.SenderRole.AllowedOn(p.Channel) {
		return nil, apperrors.ErrInvalidSenderRole
	}

	body := strings.TrimSpace(p.Body)
	if body == "" {
		return nil, apperrors.ErrMessageBodyRequired
	}
	if utf8.RuneCountInString(body) > MaxMessageBodyLength {
		return nil, apperrors.ErrMessageBodyTooLong
	}

	var subject *string
	if p.Subject != nil {
		if p.Channel != ChannelVendor {
			return nil, apperrors.ErrSubjectNotAllowed
		}
		s := strings.TrimSpace(*p.Subject)
		if utf8.RuneCountInString(s) > MaxSubjectLength {
			return nil, apperrors.ErrSubjectTooLong
		}
		if s != "" {
			subject = &s
		}
	}

	if p.ParentID != nil && p.Channel != ChannelVendor {
		return nil, apperrors.ErrInvalidParent
	}

	adminID := p.AdminID
	if p.Channel != ChannelVendor || p.SenderRole != RoleAdmin {
		adminID = nil
	}

	return &Message{
		Channel:    p.Channel,
		ScopeID:    p.ScopeID,
		SenderRole: p.SenderRole,
		AdminID:    adminID,
		Subject:    subject,
		Body:       body,
		ParentID:   p.ParentID,
		IsRead:     false,
	}, nil
}

// ConversationSummary is one row of a channel's conversation list.
type ConversationSummary struct {
	Channel        Channel
	ScopeID        uuid.UUID
	LastMessageAt  time.Time
	LastBody       string
	LastSenderRole SenderRole
	MessageCount   int64
	Unread         int64
}
