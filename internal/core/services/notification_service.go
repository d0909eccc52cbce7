package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/ports"
)

// Feed page bounds
const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

// NotificationService turns business events into persisted vendor notifications.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	directory        ports.ParticipantDirectory
	broadcaster      ports.EventBroadcaster
	logger           *slog.Logger
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification dispatcher.
func NewNotificationService(
	notificationRepo ports.NotificationRepository,
	directory ports.ParticipantDirectory,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		directory:        directory,
		broadcaster:      broadcaster,
		logger:           logger.With("component", "notification_service"),
	}
}

// Emit persists an unread notification for the vendor and signals its feed.
func (s *NotificationService) Emit(ctx context.Context, params ports.EmitNotificationParams) (*domain.Notification, error) {
	n, err := domain.NewNotification(domain.NotificationParams{
		VendorProfileID: params.VendorProfileID,
		Type:            params.Type,
		Title:           params.Title,
		Body:            params.Body,
		OrderID:         params.OrderID,
		ProductID:       params.ProductID,
	})
	if err != nil {
		return nil, err
	}

	known, err := s.directory.Exists(ctx, domain.ChannelVendor, n.VendorProfileID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperrors.ErrScopeUnresolved
	}

	created, err := s.notificationRepo.Create(ctx, n)
	if err != nil {
		return nil, err
	}

	publish(s.broadcaster, s.logger, domain.NotificationsTopic(created.VendorProfileID))

	return created, nil
}

// HandleBusinessEvent maps an upstream event onto its notification template and emits it.
func (s *NotificationService) HandleBusinessEvent(ctx context.Context, event domain.BusinessEvent) (*domain.Notification, error) {
	p, err := event.ToNotificationParams()
	if err != nil {
		return nil, err
	}

	n, err := s.Emit(ctx, ports.EmitNotificationParams{
		VendorProfileID: p.VendorProfileID,
		Type:            p.Type,
		Title:           p.Title,
		Body:            p.Body,
		OrderID:         p.OrderID,
		ProductID:       p.ProductID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("business event dispatched",
		slog.String("type", event.Type),
		slog.String("vendor_profile_id", event.VendorProfileID.String()),
		slog.Int64("notification_id", n.ID),
	)
	return n, nil
}

// MarkAllRead marks the whole feed read. Repeated calls return 0 and publish nothing.
func (s *NotificationService) MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	if vendorProfileID == uuid.Nil {
		return 0, apperrors.ErrScopeRequired
	}

	updated, err := s.notificationRepo.MarkAllRead(ctx, vendorProfileID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		publish(s.broadcaster, s.logger, domain.NotificationsTopic(vendorProfileID))
	}
	return updated, nil
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error) {
	if vendorProfileID == uuid.Nil {
		return nil, apperrors.ErrScopeRequired
	}
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}

	items, err := s.notificationRepo.ListByVendor(ctx, vendorProfileID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return items, nil
}

// UnreadCount returns the vendor's notification badge.
func (s *NotificationService) UnreadCount(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	if vendorProfileID == uuid.Nil {
		return 0, apperrors.ErrScopeRequired
	}
	return s.notificationRepo.CountUnread(ctx, vendorProfileID)
}
