package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
)

// MarkReadRepoParams is the filter of the conditional read update.
type MarkReadRepoParams struct {
	Channel    domain.Channel
	ScopeID    uuid.UUID
	ViewerRole domain.SenderRole
	ThroughID  *int64
}

// MessageRepository is the persistence port for both message streams.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	GetByID(ctx context.Context, channel domain.Channel, id int64) (*domain.Message, error)
	ListByScope(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error)
	ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error)
	MarkRead(ctx context.Context, params MarkReadRepoParams) (int64, error)
	CountUnread(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error)
	CountUnreadTotal(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error)
}

// NotificationRepository is the persistence port for vendor notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByVendor(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error)
	MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, vendorProfileID uuid.UUID) (int64, error)
}

// ParticipantDirectory resolves scope ids against the profile and vendor
// directories owned by other services.
type ParticipantDirectory interface {
	// Exists reports whether scopeID is a known user (support) or vendor profile (vendor).
	Exists(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) (bool, error)
	// Describe returns display metadata for the ids it knows; unknown ids are omitted.
	Describe(ctx context.Context, channel domain.Channel, ids []uuid.UUID) (map[uuid.UUID]domain.ParticipantInfo, error)
}
