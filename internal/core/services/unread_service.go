package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// UnreadService computes badge counts. Nothing is cached; every call counts
// from the store.
type UnreadService struct {
	messageRepo ports.MessageRepository
}

var _ ports.UnreadService = (*UnreadService)(nil)

// NewUnreadService creates a new unread aggregator.
func NewUnreadService(messageRepo ports.MessageRepository) *UnreadService {
	return &UnreadService{messageRepo: messageRepo}
}

// UnreadCount counts messages in one conversation that the viewer has not read.
func (s *UnreadService) UnreadCount(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error) {
	if err := checkViewer(channel, viewer); err != nil {
		return 0, err
	}
	if scopeID == uuid.Nil {
		return 0, apperrors.ErrScopeRequired
	}
	return s.messageRepo.CountUnread(ctx, channel, scopeID, viewer)
}

// TotalUnread counts across every conversation of the channel.
func (s *UnreadService) TotalUnread(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error) {
	if err := checkViewer(channel, viewer); err != nil {
		return 0, err
	}
	return s.messageRepo.CountUnreadTotal(ctx, channel, viewer)
}

func checkViewer(channel domain.Channel, viewer domain.SenderRole) error {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return err
	}
	if !viewer.AllowedOn(channel) {
		return apperrors.ErrInvalidSenderRole
	}
	return nil
}
