package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	apperrors "github.com/lorrc/conversation-service/internal/core/errors"
	"github.com/lorrc/conversation-service/internal/core/mocks"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/lorrc/conversation-service/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Emit(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	orderID := uuid.New()

	t.Run("persists unread and signals the feed", func(t *testing.T) {
		repo := mocks.NewMockNotificationRepository()
		directory := mocks.NewMockParticipantDirectory()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewNotificationService(repo, directory, broadcaster, testLogger())

		directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(true, nil)
		repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationOrderPlaced && !n.IsRead && *n.OrderID == orderID
		})).Return(&domain.Notification{
			ID: 1, VendorProfileID: vendorID, Type: domain.NotificationOrderPlaced,
			Title: "New Order Received!", Body: "...", OrderID: &orderID,
		}, nil)
		broadcaster.On("Broadcast", domain.NotificationsTopic(vendorID)).Return(nil)

		n, err := svc.Emit(ctx, ports.EmitNotificationParams{
			VendorProfileID: vendorID,
			Type:            "order_placed",
			Title:           "New Order Received!",
			Body:            "...",
			OrderID:         &orderID,
		})

		require.NoError(t, err)
		assert.False(t, n.IsRead)
		broadcaster.AssertExpectations(t)
	})

	t.Run("unknown type", func(t *testing.T) {
		repo := mocks.NewMockNotificationRepository()
		svc := services.NewNotificationService(repo, mocks.NewMockParticipantDirectory(), mocks.NewMockEventBroadcaster(), testLogger())

		_, err := svc.Emit(ctx, ports.EmitNotificationParams{
			VendorProfileID: vendorID, Type: "order_shipped", Title: "x",
		})

		assert.ErrorIs(t, err, apperrors.ErrUnknownNotificationType)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("unknown vendor", func(t *testing.T) {
		repo := mocks.NewMockNotificationRepository()
		directory := mocks.NewMockParticipantDirectory()
		svc := services.NewNotificationService(repo, directory, mocks.NewMockEventBroadcaster(), testLogger())

		directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(false, nil)

		_, err := svc.Emit(ctx, ports.EmitNotificationParams{
			VendorProfileID: vendorID, Type: "payout_ready", Title: "Payout Ready",
		})

		assert.ErrorIs(t, err, apperrors.ErrScopeUnresolved)
		repo.AssertNotCalled(t, "Create")
	})
}

func TestNotificationService_HandleBusinessEvent(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	repo := mocks.NewMockNotificationRepository()
	directory := mocks.NewMockParticipantDirectory()
	broadcaster := mocks.NewMockEventBroadcaster()
	svc := services.NewNotificationService(repo, directory, broadcaster, testLogger())

	directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(true, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Type == domain.NotificationPayoutReady && n.Title == "Payout Ready"
	})).Return(&domain.Notification{ID: 5, VendorProfileID: vendorID, Type: domain.NotificationPayoutReady, Title: "Payout Ready"}, nil)
	broadcaster.On("Broadcast", domain.NotificationsTopic(vendorID)).Return(nil)

	n, err := svc.HandleBusinessEvent(ctx, domain.BusinessEvent{Type: "payout_ready", VendorProfileID: vendorID})

	require.NoError(t, err)
	assert.Equal(t, int64(5), n.ID)
	repo.AssertExpectations(t)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	t.Run("first call publishes", func(t *testing.T) {
		repo := mocks.NewMockNotificationRepository()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewNotificationService(repo, mocks.NewMockParticipantDirectory(), broadcaster, testLogger())

		repo.On("MarkAllRead", ctx, vendorID).Return(int64(4), nil)
		broadcaster.On("Broadcast", domain.NotificationsTopic(vendorID)).Return(nil)

		n, err := svc.MarkAllRead(ctx, vendorID)

		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		broadcaster.AssertExpectations(t)
	})

	t.Run("repeat call is silent", func(t *testing.T) {
		repo := mocks.NewMockNotificationRepository()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewNotificationService(repo, mocks.NewMockParticipantDirectory(), broadcaster, testLogger())

		repo.On("MarkAllRead", ctx, vendorID).Return(int64(0), nil)

		n, err := svc.MarkAllRead(ctx, vendorID)

		require.NoError(t, err)
		assert.Zero(t, n)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}

func TestNotificationService_List(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	repo := mocks.NewMockNotificationRepository()
	svc := services.NewNotificationService(repo, mocks.NewMockParticipantDirectory(), mocks.NewMockEventBroadcaster(), testLogger())

	repo.On("ListByVendor", ctx, vendorID, services.DefaultNotificationLimit).Return(nil, nil)
	repo.On("ListByVendor", ctx, vendorID, services.MaxNotificationLimit).Return([]*domain.Notification{{ID: 1}}, nil)

	items, err := svc.List(ctx, vendorID, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items, err = svc.List(ctx, vendorID, 10_000)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
