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

func TestReadStateService_MarkRead(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()

	params := ports.MarkReadParams{
		Channel:    domain.ChannelVendor,
		ScopeID:    vendorID,
		ViewerRole: domain.RoleAdmin,
	}
	repoParams := ports.MarkReadRepoParams{
		Channel:    domain.ChannelVendor,
		ScopeID:    vendorID,
		ViewerRole: domain.RoleAdmin,
	}

	t.Run("changed rows publish", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewReadStateService(repo, broadcaster, testLogger())

		repo.On("MarkRead", ctx, repoParams).Return(int64(3), nil)
		broadcaster.On("Broadcast", domain.ConversationTopic(domain.ChannelVendor, vendorID)).Return(nil)
		broadcaster.On("Broadcast", domain.ListTopic(domain.ChannelVendor)).Return(nil)

		n, err := svc.MarkRead(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		broadcaster.AssertExpectations(t)
	})

	t.Run("second call is a silent no-op", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewReadStateService(repo, broadcaster, testLogger())

		repo.On("MarkRead", ctx, repoParams).Return(int64(0), nil)

		n, err := svc.MarkRead(ctx, params)

		require.NoError(t, err)
		assert.Zero(t, n)
		broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("through id is passed to the store", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		broadcaster := mocks.NewMockEventBroadcaster()
		svc := services.NewReadStateService(repo, broadcaster, testLogger())

		through := int64(99)
		withBound := params
		withBound.ThroughID = &through

		repo.On("MarkRead", ctx, mock.MatchedBy(func(p ports.MarkReadRepoParams) bool {
			return p.ThroughID != nil && *p.ThroughID == through
		})).Return(int64(1), nil)
		broadcaster.On("Broadcast", mock.Anything).Return(nil)

		n, err := svc.MarkRead(ctx, withBound)

		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("viewer role not on channel", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		svc := services.NewReadStateService(repo, mocks.NewMockEventBroadcaster(), testLogger())

		_, err := svc.MarkRead(ctx, ports.MarkReadParams{
			Channel: domain.ChannelSupport, ScopeID: vendorID, ViewerRole: domain.RoleVendor,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidSenderRole)
		repo.AssertNotCalled(t, "MarkRead")
	})
}

func TestUnreadService(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("per conversation", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		svc := services.NewUnreadService(repo)
		repo.On("CountUnread", ctx, domain.ChannelSupport, userID, domain.RoleUser).Return(int64(2), nil)

		n, err := svc.UnreadCount(ctx, domain.ChannelSupport, userID, domain.RoleUser)

		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("channel total", func(t *testing.T) {
		repo := mocks.NewMockMessageRepository()
		svc := services.NewUnreadService(repo)
		repo.On("CountUnreadTotal", ctx, domain.ChannelVendor, domain.RoleAdmin).Return(int64(11), nil)

		n, err := svc.TotalUnread(ctx, domain.ChannelVendor, domain.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, int64(11), n)
	})

	t.Run("missing scope", func(t *testing.T) {
		svc := services.NewUnreadService(mocks.NewMockMessageRepository())

		_, err := svc.UnreadCount(ctx, domain.ChannelSupport, uuid.Nil, domain.RoleAdmin)

		assert.ErrorIs(t, err, apperrors.ErrScopeRequired)
	})
}
