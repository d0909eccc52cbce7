package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
)

// InsertMessageParams defines the input for appending a message to a conversation.
type InsertMessageParams struct {
	Channel    domain.Channel
	ScopeID    uuid.UUID
	SenderRole domain.SenderRole
	AdminID    *uuid.UUID
	Subject    *string
	Body       string
	ParentID   *int64
}

// MarkReadParams defines the input for the read-state transition.
// ThroughID, when set, limits the update to messages with id <= ThroughID.
type MarkReadParams struct {
	Channel    domain.Channel
	ScopeID    uuid.UUID
	ViewerRole domain.SenderRole
	ThroughID  *int64
}

// EmitNotificationParams defines the input for creating a vendor notification.
type EmitNotificationParams struct {
	VendorProfileID uuid.UUID
	Type            string
	Title           string
	Body            string
	OrderID         *uuid.UUID
	ProductID       *uuid.UUID
}

// MessageService is the Message Store contract.
type MessageService interface {
	Insert(ctx context.Context, params InsertMessageParams) (*domain.Message, error)
	List(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error)
	ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error)
}

// ReadStateService is the Read-State Engine contract.
type ReadStateService interface {
	MarkRead(ctx context.Context, params MarkReadParams) (int64, error)
}

// UnreadService is the Unread Aggregator contract.
type UnreadService interface {
	UnreadCount(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error)
	TotalUnread(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error)
}

// NotificationService is the Notification Dispatcher contract.
type NotificationService interface {
	Emit(ctx context.Context, params EmitNotificationParams) (*domain.Notification, error)
	HandleBusinessEvent(ctx context.Context, event domain.BusinessEvent) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error)
	List(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, vendorProfileID uuid.UUID) (int64, error)
}

// EventBroadcaster publishes "topic changed" signals. Implementations must not
// block the caller; a signal that cannot be delivered is dropped.
type EventBroadcaster interface {
	Broadcast(topic domain.Topic) error
}

// SignalSession is one subscriber's registration on the fan-out layer.
// Signals is closed when the session is torn down.
type SignalSession interface {
	Subscribe(topic domain.Topic) error
	Unsubscribe(topic domain.Topic)
	Signals() <-chan domain.Signal
	Close()
}

// SessionOpener opens fan-out sessions for an actor.
type SessionOpener interface {
	OpenSession(actor domain.Participant) SignalSession
}

// BusinessEventQueue accepts business events for asynchronous dispatch.
type BusinessEventQueue interface {
	Enqueue(ctx context.Context, event domain.BusinessEvent) error
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
