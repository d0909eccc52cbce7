package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

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

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type messageFixture struct {
	repo        *mocks.MockMessageRepository
	directory   *mocks.MockParticipantDirectory
	tx          *mocks.MockTransactionManager
	broadcaster *mocks.MockEventBroadcaster
	svc         *services.MessageService
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		repo:        mocks.NewMockMessageRepository(),
		directory:   mocks.NewMockParticipantDirectory(),
		tx:          mocks.NewMockTransactionManager(),
		broadcaster: mocks.NewMockEventBroadcaster(),
	}
	f.svc = services.NewMessageService(f.repo, f.directory, f.tx, f.broadcaster, testLogger())
	return f
}

func TestMessageService_Insert(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success publishes conversation and list topics", func(t *testing.T) {
		f := newMessageFixture()

		f.directory.On("Exists", ctx, domain.ChannelSupport, userID).Return(true, nil)
		f.repo.On("Create", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Body == "Where is my order?" && !m.IsRead && m.SenderRole == domain.RoleUser
		})).Return(&domain.Message{
			ID:         7,
			Channel:    domain.ChannelSupport,
			ScopeID:    userID,
			SenderRole: domain.RoleUser,
			Body:       "Where is my order?",
			CreatedAt:  time.Now(),
		}, nil)
		f.broadcaster.On("Broadcast", domain.ConversationTopic(domain.ChannelSupport, userID)).Return(nil)
		f.broadcaster.On("Broadcast", domain.ListTopic(domain.ChannelSupport)).Return(nil)

		msg, err := f.svc.Insert(ctx, ports.InsertMessageParams{
			Channel:    domain.ChannelSupport,
			ScopeID:    userID,
			SenderRole: domain.RoleUser,
			Body:       "  Where is my order?  ",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), msg.ID)
		assert.False(t, msg.IsRead)
		assert.Equal(t, 1, f.tx.Calls)
		f.repo.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("blank body is rejected before the store", func(t *testing.T) {
		f := newMessageFixture()

		msg, err := f.svc.Insert(ctx, ports.InsertMessageParams{
			Channel:    domain.ChannelSupport,
			ScopeID:    userID,
			SenderRole: domain.RoleUser,
			Body:       "   ",
		})

		assert.Nil(t, msg)
		assert.ErrorIs(t, err, apperrors.ErrMessageBodyRequired)
		assert.True(t, apperrors.IsValidation(err))
		f.repo.AssertNotCalled(t, "Create")
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("unknown scope is a validation error", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelSupport, userID).Return(false, nil)

		_, err := f.svc.Insert(ctx, ports.InsertMessageParams{
			Channel:    domain.ChannelSupport,
			ScopeID:    userID,
			SenderRole: domain.RoleAdmin,
			Body:       "hello",
		})

		assert.ErrorIs(t, err, apperrors.ErrScopeUnresolved)
		assert.True(t, apperrors.IsValidation(err))
		f.repo.AssertNotCalled(t, "Create")
	})

	t.Run("store failure is transient and publishes nothing", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelSupport, userID).Return(true, nil)
		f.repo.On("Create", ctx, mock.Anything).
			Return(nil, apperrors.StoreError("create message", errors.New("connection reset")))

		_, err := f.svc.Insert(ctx, ports.InsertMessageParams{
			Channel:    domain.ChannelSupport,
			ScopeID:    userID,
			SenderRole: domain.RoleUser,
			Body:       "hello",
		})

		assert.True(t, apperrors.IsTransient(err))
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("broadcast failure does not fail the insert", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelSupport, userID).Return(true, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(&domain.Message{
			ID: 1, Channel: domain.ChannelSupport, ScopeID: userID, SenderRole: domain.RoleUser, Body: "hi",
		}, nil)
		f.broadcaster.On("Broadcast", mock.Anything).Return(errors.New("hub stopped"))

		msg, err := f.svc.Insert(ctx, ports.InsertMessageParams{
			Channel: domain.ChannelSupport, ScopeID: userID, SenderRole: domain.RoleUser, Body: "hi",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), msg.ID)
	})
}

func TestMessageService_Insert_Parent(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	parentID := int64(40)

	params := ports.InsertMessageParams{
		Channel:    domain.ChannelVendor,
		ScopeID:    vendorID,
		SenderRole: domain.RoleVendor,
		Body:       "Following up",
		ParentID:   &parentID,
	}

	t.Run("parent in the same conversation", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(true, nil)
		f.repo.On("GetByID", ctx, domain.ChannelVendor, parentID).
			Return(&domain.Message{ID: parentID, Channel: domain.ChannelVendor, ScopeID: vendorID}, nil)
		f.repo.On("Create", ctx, mock.Anything).Return(&domain.Message{
			ID: 41, Channel: domain.ChannelVendor, ScopeID: vendorID, SenderRole: domain.RoleVendor,
			Body: "Following up", ParentID: &parentID,
		}, nil)
		f.broadcaster.On("Broadcast", mock.Anything).Return(nil)

		msg, err := f.svc.Insert(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, &parentID, msg.ParentID)
		f.broadcaster.AssertNumberOfCalls(t, "Broadcast", 2)
	})

	t.Run("parent from another vendor", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(true, nil)
		f.repo.On("GetByID", ctx, domain.ChannelVendor, parentID).
			Return(&domain.Message{ID: parentID, Channel: domain.ChannelVendor, ScopeID: uuid.New()}, nil)

		_, err := f.svc.Insert(ctx, params)

		assert.ErrorIs(t, err, apperrors.ErrInvalidParent)
		f.repo.AssertNotCalled(t, "Create")
	})

	t.Run("missing parent", func(t *testing.T) {
		f := newMessageFixture()
		f.directory.On("Exists", ctx, domain.ChannelVendor, vendorID).Return(true, nil)
		f.repo.On("GetByID", ctx, domain.ChannelVendor, parentID).Return(nil, apperrors.ErrNotFound)

		_, err := f.svc.Insert(ctx, params)

		assert.ErrorIs(t, err, apperrors.ErrInvalidParent)
	})
}

func TestMessageService_List(t *testing.T) {
	ctx := context.Background()
	scope := uuid.New()

	t.Run("unknown scope yields empty slice", func(t *testing.T) {
		f := newMessageFixture()
		f.repo.On("ListByScope", ctx, domain.ChannelSupport, scope).Return(nil, nil)

		msgs, err := f.svc.List(ctx, domain.ChannelSupport, scope)

		require.NoError(t, err)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})

	t.Run("bad channel", func(t *testing.T) {
		f := newMessageFixture()

		_, err := f.svc.List(ctx, domain.Channel("orders"), scope)

		assert.ErrorIs(t, err, apperrors.ErrInvalidChannel)
	})
}

func TestMessageService_ListScopes(t *testing.T) {
	ctx := context.Background()

	t.Run("admin on vendor channel", func(t *testing.T) {
		f := newMessageFixture()
		summaries := []*domain.ConversationSummary{
			{Channel: domain.ChannelVendor, ScopeID: uuid.New(), LastBody: "b", Unread: 2},
			{Channel: domain.ChannelVendor, ScopeID: uuid.New(), LastBody: "a"},
		}
		f.repo.On("ListScopes", ctx, domain.ChannelVendor, domain.RoleAdmin).Return(summaries, nil)

		got, err := f.svc.ListScopes(ctx, domain.ChannelVendor, domain.RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, summaries, got)
	})

	t.Run("viewer role must belong to the channel", func(t *testing.T) {
		f := newMessageFixture()

		_, err := f.svc.ListScopes(ctx, domain.ChannelSupport, domain.RoleVendor)

		assert.ErrorIs(t, err, apperrors.ErrInvalidSenderRole)
	})
}
