package testutil

import (
	"context"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(
	ctx context.Context,
	userID, limit int64,
) ([]store.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationService) GetPreference(
	ctx context.Context,
	userID int64,
) (*store.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.NotificationPreference), args.Error(1)
}

func (m *MockNotificationService) UpdatePreference(
	ctx context.Context,
	p *store.NotificationPreference,
) (*store.NotificationPreference, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.NotificationPreference), args.Error(1)
}
