package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// MessageService implements the append-only message store for both channels.
type MessageService struct {
	messageRepo ports.MessageRepository
	directory   ports.ParticipantDirectory
	txManager   ports.TransactionManager
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.MessageService = (*MessageService)(nil)

// NewMessageService creates a new message service.
func NewMessageService(
	messageRepo ports.MessageRepository,
	directory ports.ParticipantDirectory,
	txManager ports.TransactionManager,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		directory:   directory,
		txManager:   txManager,
		broadcaster: broadcaster,
		logger:      logger.With("component", "message_service"),
	}
}

// Insert validates and appends a message, then signals the conversation and
// the channel list.
func (s *MessageService) Insert(ctx context.Context, params ports.InsertMessageParams) (*domain.Message, error) {
	msg, err := domain.NewMessage(domain.MessageParams{
		Channel:    params.Channel,
		ScopeID:    params.ScopeID,
		SenderRole: params.SenderRole,
		AdminID:    params.AdminID,
		Subject:    params.Subject,
		Body:       params.Body,
		ParentID:   params.ParentID,
	})
	if err != nil {
		return nil, err
	}

	var created *domain.Message
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		known, err := s.directory.Exists(ctx, msg.Channel, msg.ScopeID)
		if err != nil {
			return err
		}
		if !known {
			return apperrors.ErrScopeUnresolved
		}

		if msg.ParentID != nil {
			if err := s.checkParent(ctx, msg); err != nil {
				return err
			}
		}

		created, err = s.messageRepo.Create(ctx, msg)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(s.broadcaster, s.logger,
		domain.ConversationTopic(created.Channel, created.ScopeID),
		domain.ListTopic(created.Channel),
	)

	return created, nil
}

// checkParent requires the reply target to live in the same conversation.
func (s *MessageService) checkParent(ctx context.Context, msg *domain.Message) error {
	parent, err := s.messageRepo.GetByID(ctx, msg.Channel, *msg.ParentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrInvalidParent
	}
	if err != nil {
		return err
	}
	if parent.ScopeID != msg.ScopeID {
		return apperrors.ErrInvalidParent
	}
	return nil
}

// List returns the conversation in (created_at, id) order. Unknown scopes
// yield an empty slice.
func (s *MessageService) List(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error) {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByScope(ctx, channel, scopeID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return messages, nil
}

// ListScopes returns every conversation of a channel, most recently active first.
func (s *MessageService) ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error) {
	if _, err := domain.ParseChannel(string(channel)); err != nil {
		return nil, err
	}
	if !viewer.AllowedOn(channel) {
		return nil, apperrors.ErrInvalidSenderRole
	}

	summaries, err := s.messageRepo.ListScopes(ctx, channel, viewer)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []*domain.ConversationSummary{}
	}
	return summaries, nil
}
