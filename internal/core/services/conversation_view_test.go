package services_test

import (
	"context"
	"sync"
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

type fakeSession struct {
	actor   domain.Participant
	signals chan domain.Signal
	once    sync.Once

	mu     sync.Mutex
	topics []domain.Topic
}

func (s *fakeSession) Subscribe(topic domain.Topic) error {
	if !s.actor.CanObserve(topic) {
		return apperrors.ErrForbidden
	}
	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Unsubscribe(domain.Topic) {}

func (s *fakeSession) Signals() <-chan domain.Signal { return s.signals }

func (s *fakeSession) Close() { s.once.Do(func() { close(s.signals) }) }

func (s *fakeSession) signal(topic domain.Topic) { s.signals <- domain.NewChangedSignal(topic) }

type fakeOpener struct {
	opened chan *fakeSession
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{opened: make(chan *fakeSession, 8)}
}

func (o *fakeOpener) OpenSession(actor domain.Participant) ports.SignalSession {
	s := &fakeSession{actor: actor, signals: make(chan domain.Signal, 8)}
	o.opened <- s
	return s
}

func nextSession(t *testing.T, o *fakeOpener) *fakeSession {
	t.Helper()
	select {
	case s := <-o.opened:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no session opened")
		return nil
	}
}

func nextSnapshot[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		var zero T
		return zero
	}
}

func TestConversationView_RefetchesOnSignalAndReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	user := domain.NewUser(userID)
	topic := domain.ConversationTopic(domain.ChannelSupport, userID)

	first := []*domain.Message{{ID: 1, Body: "hi", SenderRole: domain.RoleUser}}
	second := append(first, &domain.Message{ID: 2, Body: "hello", SenderRole: domain.RoleAdmin})

	messages := mocks.NewMockMessageService()
	unread := mocks.NewMockUnreadService()
	messages.On("List", mock.Anything, domain.ChannelSupport, userID).Return(first, nil).Once()
	messages.On("List", mock.Anything, domain.ChannelSupport, userID).Return(second, nil)
	unread.On("UnreadCount", mock.Anything, domain.ChannelSupport, userID, domain.RoleUser).Return(int64(0), nil).Once()
	unread.On("UnreadCount", mock.Anything, domain.ChannelSupport, userID, domain.RoleUser).Return(int64(1), nil)

	opener := newFakeOpener()
	view, err := services.NewConversationView(opener, messages, unread, user, domain.ChannelSupport, userID, testLogger())
	require.NoError(t, err)
	view.SetReconnectDelay(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- view.Run(ctx) }()

	session := nextSession(t, opener)
	snap := nextSnapshot(t, view.Updates())
	assert.Len(t, snap.Messages, 1)
	assert.Zero(t, snap.Unread)
	assert.Equal(t, []domain.Topic{topic}, session.topics)

	session.signal(topic)
	snap = nextSnapshot(t, view.Updates())
	assert.Len(t, snap.Messages, 2)
	assert.Equal(t, int64(1), snap.Unread)

	// Teardown from the hub side: the view reconnects and fetches again.
	session.Close()
	nextSession(t, opener)
	snap = nextSnapshot(t, view.Updates())
	assert.Len(t, snap.Messages, 2)

	latest, ok := view.Latest()
	assert.True(t, ok)
	assert.Equal(t, snap, latest)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("view did not stop")
	}
}

func TestConversationView_Authorization(t *testing.T) {
	opener := newFakeOpener()
	messages := mocks.NewMockMessageService()
	unread := mocks.NewMockUnreadService()

	_, err := services.NewConversationView(opener, messages, unread,
		domain.NewUser(uuid.New()), domain.ChannelSupport, uuid.New(), testLogger())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = services.NewConversationView(opener, messages, unread,
		domain.NewVendor(uuid.New()), domain.ChannelSupport, uuid.New(), testLogger())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = services.NewInboxView(opener, messages, unread, domain.NewUser(uuid.New()), domain.ChannelSupport, testLogger())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = services.NewNotificationFeedView(opener, mocks.NewMockNotificationService(), domain.NewAdmin(uuid.New()), 10, testLogger())
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestNotificationFeedView_FirstFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vendorID := uuid.New()
	notifications := mocks.NewMockNotificationService()
	notifications.On("List", mock.Anything, vendorID, 20).Return([]*domain.Notification{{ID: 3}}, nil)
	notifications.On("UnreadCount", mock.Anything, vendorID).Return(int64(1), nil)

	opener := newFakeOpener()
	view, err := services.NewNotificationFeedView(opener, notifications, domain.NewVendor(vendorID), 20, testLogger())
	require.NoError(t, err)

	go func() { _ = view.Run(ctx) }()

	session := nextSession(t, opener)
	snap := nextSnapshot(t, view.Updates())
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, int64(1), snap.Unread)
	assert.Equal(t, []domain.Topic{domain.NotificationsTopic(vendorID)}, session.topics)
}
