package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// ReadStateService moves messages from unread to read.
type ReadStateService struct {
	messageRepo ports.MessageRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.ReadStateService = (*ReadStateService)(nil)

// NewReadStateService creates a new read-state service.
func NewReadStateService(
	messageRepo ports.MessageRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *ReadStateService {
	return &ReadStateService{
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		logger:      logger.With("component", "read_state_service"),
	}
}

// MarkRead flips every unread message authored by the other side of the
// conversation and returns how many rows changed. A call that changes nothing
// publishes nothing.
func (s *ReadStateService) MarkRead(ctx context.Context, params ports.MarkReadParams) (int64, error) {
	if _, err := domain.ParseChannel(string(params.Channel)); err != nil {
		return 0, err
	}
	if params.ScopeID == uuid.Nil {
		return 0, apperrors.ErrScopeRequired
	}
	if !params.ViewerRole.AllowedOn(params.Channel) {
		return 0, apperrors.ErrInvalidSenderRole
	}

	updated, err := s.messageRepo.MarkRead(ctx, ports.MarkReadRepoParams{
		Channel:    params.Channel,
		ScopeID:    params.ScopeID,
		ViewerRole: params.ViewerRole,
		ThroughID:  params.ThroughID,
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		publish(s.broadcaster, s.logger,
			domain.ConversationTopic(params.Channel, params.ScopeID),
			domain.ListTopic(params.Channel),
		)
	}

	return updated, nil
}
