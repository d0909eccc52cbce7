package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

const defaultReconnectDelay = time.Second

// ConversationSnapshot is the state of one open conversation.
type ConversationSnapshot struct {
	Channel  domain.Channel
	ScopeID  uuid.UUID
	Messages []*domain.Message
	Unread   int64
}

// InboxSnapshot is an admin's conversation list for one channel.
type InboxSnapshot struct {
	Channel       domain.Channel
	Conversations []*domain.ConversationSummary
	TotalUnread   int64
}

// NotificationFeedSnapshot is a vendor's notification feed.
type NotificationFeedSnapshot struct {
	Items  []*domain.Notification
	Unread int64
}

// View keeps a snapshot in step with the store. It never patches local state:
// every signal on its topics triggers a full re-fetch, and so does every
// reconnect after the fan-out session is torn down.
type View[T any] struct {
	opener         ports.SessionOpener
	actor          domain.Participant
	topics         []domain.Topic
	fetch          func(ctx context.Context) (T, error)
	reconnectDelay time.Duration
	logger         *slog.Logger

	updates chan T
	mu      sync.RWMutex
	latest  T
	loaded  bool
}

func newView[T any](
	opener ports.SessionOpener,
	actor domain.Participant,
	topics []domain.Topic,
	fetch func(ctx context.Context) (T, error),
	logger *slog.Logger,
) *View[T] {
	return &View[T]{
		opener:         opener,
		actor:          actor,
		topics:         topics,
		fetch:          fetch,
		reconnectDelay: defaultReconnectDelay,
		logger:         logger.With("component", "view"),
		updates:        make(chan T, 1),
	}
}

// NewConversationView watches a single conversation the actor can access.
func NewConversationView(
	opener ports.SessionOpener,
	messages ports.MessageService,
	unread ports.UnreadService,
	actor domain.Participant,
	channel domain.Channel,
	scopeID uuid.UUID,
	logger *slog.Logger,
) (*View[ConversationSnapshot], error) {
	viewer, err := actor.RoleIn(channel)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(channel, scopeID) {
		return nil, apperrors.ErrForbidden
	}

	fetch := func(ctx context.Context) (ConversationSnapshot, error) {
		msgs, err := messages.List(ctx, channel, scopeID)
		if err != nil {
			return ConversationSnapshot{}, err
		}
		count, err := unread.UnreadCount(ctx, channel, scopeID, viewer)
		if err != nil {
			return ConversationSnapshot{}, err
		}
		return ConversationSnapshot{Channel: channel, ScopeID: scopeID, Messages: msgs, Unread: count}, nil
	}

	topics := []domain.Topic{domain.ConversationTopic(channel, scopeID)}
	return newView(opener, actor, topics, fetch, logger), nil
}

// NewInboxView watches an admin's conversation list for a channel.
func NewInboxView(
	opener ports.SessionOpener,
	messages ports.MessageService,
	unread ports.UnreadService,
	actor domain.Participant,
	channel domain.Channel,
	logger *slog.Logger,
) (*View[InboxSnapshot], error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	fetch := func(ctx context.Context) (InboxSnapshot, error) {
		list, err := messages.ListScopes(ctx, channel, domain.RoleAdmin)
		if err != nil {
			return InboxSnapshot{}, err
		}
		total, err := unread.TotalUnread(ctx, channel, domain.RoleAdmin)
		if err != nil {
			return InboxSnapshot{}, err
		}
		return InboxSnapshot{Channel: channel, Conversations: list, TotalUnread: total}, nil
	}

	topics := []domain.Topic{domain.ListTopic(channel)}
	return newView(opener, actor, topics, fetch, logger), nil
}

// NewNotificationFeedView watches a vendor's own notification feed.
func NewNotificationFeedView(
	opener ports.SessionOpener,
	notifications ports.NotificationService,
	actor domain.Participant,
	limit int,
	logger *slog.Logger,
) (*View[NotificationFeedSnapshot], error) {
	if actor.Kind != domain.ParticipantVendor {
		return nil, apperrors.ErrForbidden
	}

	fetch := func(ctx context.Context) (NotificationFeedSnapshot, error) {
		items, err := notifications.List(ctx, actor.ID, limit)
		if err != nil {
			return NotificationFeedSnapshot{}, err
		}
		count, err := notifications.UnreadCount(ctx, actor.ID)
		if err != nil {
			return NotificationFeedSnapshot{}, err
		}
		return NotificationFeedSnapshot{Items: items, Unread: count}, nil
	}

	topics := []domain.Topic{domain.NotificationsTopic(actor.ID)}
	return newView(opener, actor, topics, fetch, logger), nil
}

// Updates delivers snapshots. Only the newest undelivered snapshot is kept.
func (v *View[T]) Updates() <-chan T {
	return v.updates
}

// Latest returns the last fetched snapshot and whether one exists yet.
func (v *View[T]) Latest() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.latest, v.loaded
}

// SetReconnectDelay overrides the pause between a torn-down session and the next one.
func (v *View[T]) SetReconnectDelay(d time.Duration) {
	v.reconnectDelay = d
}

// Run keeps the view live until ctx is cancelled. It returns early only when
// a subscription is refused.
func (v *View[T]) Run(ctx context.Context) error {
	for {
		err := v.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}

		v.logger.Debug("session torn down, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(v.reconnectDelay):
		}
	}
}

// runSession subscribes, does a full fetch and then re-fetches on every signal.
// It returns nil when the session is torn down underneath it.
func (v *View[T]) runSession(ctx context.Context) error {
	session := v.opener.OpenSession(v.actor)
	defer session.Close()

	for _, topic := range v.topics {
		if err := session.Subscribe(topic); err != nil {
			if errors.Is(err, apperrors.ErrForbidden) {
				return err
			}
			v.logger.Debug("subscribe failed, retrying", slog.String("error", err.Error()))
			return nil
		}
	}

	// Subscribing before the first fetch means no change can slip between the two.
	v.refresh(ctx)

	signals := session.Signals()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if !drain(signals) {
				return nil
			}
			v.refresh(ctx)
		}
	}
}

// drain coalesces queued signals into the refresh already about to happen.
// It reports false when the channel was closed.
func drain(signals <-chan domain.Signal) bool {
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

func (v *View[T]) refresh(ctx context.Context) {
	snap, err := v.fetch(ctx)
	if err != nil {
		// The next signal or reconnect fetches again.
		v.logger.Warn("view refresh failed", slog.String("error", err.Error()))
		return
	}

	v.mu.Lock()
	v.latest = snap
	v.loaded = true
	v.mu.Unlock()

	select {
	case <-v.updates:
	default:
	}
	v.updates <- snap
}
