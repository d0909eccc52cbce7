package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/lorrc/conversation-service/internal/core/domain"
	"github.com/lorrc/conversation-service/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockMessageRepository is a mock implementation of ports.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, channel domain.Channel, id int64) (*domain.Message, error) {
	args := m.Called(ctx, channel, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) ListByScope(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error) {
	args := m.Called(ctx, channel, scopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error) {
	args := m.Called(ctx, channel, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ConversationSummary), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, params ports.MarkReadRepoParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountUnread(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error) {
	args := m.Called(ctx, channel, scopeID, viewer)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountUnreadTotal(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error) {
	args := m.Called(ctx, channel, viewer)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotificationRepository is a mock implementation of ports.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{}
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) ListByVendor(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, vendorProfileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vendorProfileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vendorProfileID)
	return args.Get(0).(int64), args.Error(1)
}

// MockParticipantDirectory is a mock implementation of ports.ParticipantDirectory
type MockParticipantDirectory struct {
	mock.Mock
}

func NewMockParticipantDirectory() *MockParticipantDirectory {
	return &MockParticipantDirectory{}
}

func (m *MockParticipantDirectory) Exists(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, channel, scopeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantDirectory) Describe(ctx context.Context, channel domain.Channel, ids []uuid.UUID) (map[uuid.UUID]domain.ParticipantInfo, error) {
	args := m.Called(ctx, channel, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.ParticipantInfo), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(topic domain.Topic) error {
	args := m.Called(topic)
	return args.Error(0)
}

// MockTransactionManager runs the callback inline without a database.
type MockTransactionManager struct {
	Calls int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// MockMessageService is a mock implementation of ports.MessageService
type MockMessageService struct {
	mock.Mock
}

func NewMockMessageService() *MockMessageService {
	return &MockMessageService{}
}

func (m *MockMessageService) Insert(ctx context.Context, params ports.InsertMessageParams) (*domain.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageService) List(ctx context.Context, channel domain.Channel, scopeID uuid.UUID) ([]*domain.Message, error) {
	args := m.Called(ctx, channel, scopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageService) ListScopes(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) ([]*domain.ConversationSummary, error) {
	args := m.Called(ctx, channel, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ConversationSummary), args.Error(1)
}

// MockReadStateService is a mock implementation of ports.ReadStateService
type MockReadStateService struct {
	mock.Mock
}

func NewMockReadStateService() *MockReadStateService {
	return &MockReadStateService{}
}

func (m *MockReadStateService) MarkRead(ctx context.Context, params ports.MarkReadParams) (int64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(int64), args.Error(1)
}

// MockUnreadService is a mock implementation of ports.UnreadService
type MockUnreadService struct {
	mock.Mock
}

func NewMockUnreadService() *MockUnreadService {
	return &MockUnreadService{}
}

func (m *MockUnreadService) UnreadCount(ctx context.Context, channel domain.Channel, scopeID uuid.UUID, viewer domain.SenderRole) (int64, error) {
	args := m.Called(ctx, channel, scopeID, viewer)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUnreadService) TotalUnread(ctx context.Context, channel domain.Channel, viewer domain.SenderRole) (int64, error) {
	args := m.Called(ctx, channel, viewer)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotificationService is a mock implementation of ports.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) Emit(ctx context.Context, params ports.EmitNotificationParams) (*domain.Notification, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) HandleBusinessEvent(ctx context.Context, event domain.BusinessEvent) (*domain.Notification, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vendorProfileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, vendorProfileID uuid.UUID, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, vendorProfileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, vendorProfileID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vendorProfileID)
	return args.Get(0).(int64), args.Error(1)
}

// MockBusinessEventQueue is a mock implementation of ports.BusinessEventQueue
type MockBusinessEventQueue struct {
	mock.Mock
}

func NewMockBusinessEventQueue() *MockBusinessEventQueue {
	return &MockBusinessEventQueue{}
}

func (m *MockBusinessEventQueue) Enqueue(ctx context.Context, event domain.BusinessEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
