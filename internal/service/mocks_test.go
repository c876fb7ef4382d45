package service

import (
	"context"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockWebhookStore struct {
	mock.Mock
}

func (m *MockWebhookStore) CreateWebhook(
	ctx context.Context,
	projectID int64,
	url, secretToken, events string,
	active bool,
) (*store.Webhook, error) {
	args := m.Called(ctx, projectID, url, secretToken, events, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Webhook), args.Error(1)
}

func (m *MockWebhookStore) IncrementWebhookDeliveryCount(
	ctx context.Context,
	webhookID int64,
	triggeredOn time.Time,
) error {
	args := m.Called(ctx, webhookID, triggeredOn)
	return args.Error(0)
}

func (m *MockWebhookStore) CreateWebhookDelivery(
	ctx context.Context,
	d *store.WebhookDelivery,
) (*store.WebhookDelivery, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.WebhookDelivery), args.Error(1)
}

func (m *MockWebhookStore) DeleteWebhookDeliveriesBefore(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWebhookStore) ReadWebhookByID(ctx context.Context, webhookID int64) (*store.Webhook, error) {
	args := m.Called(ctx, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Webhook), args.Error(1)
}

func (m *MockWebhookStore) ListActiveProjectWebhooks(
	ctx context.Context,
	projectID int64,
) ([]*store.Webhook, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Webhook), args.Error(1)
}

func (m *MockWebhookStore) ListWebhookDeliveries(
	ctx context.Context,
	webhookID, limit int64,
) ([]store.WebhookDelivery, error) {
	args := m.Called(ctx, webhookID, limit)
	return args.Get(0).([]store.WebhookDelivery), args.Error(1)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) CreateNotification(
	ctx context.Context,
	userID int64,
	category types.NotificationCategory,
	title, message, link string,
) (*store.Notification, error) {
	args := m.Called(ctx, userID, category, title, message, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

func (m *MockNotificationStore) GetOrCreateNotificationPreference(
	ctx context.Context,
	userID int64,
) (*store.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.NotificationPreference), args.Error(1)
}

func (m *MockNotificationStore) UpdateNotificationPreference(
	ctx context.Context,
	p *store.NotificationPreference,
) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockNotificationStore) ReadNotificationByID(
	ctx context.Context,
	notificationID int64,
) (*store.Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Notification), args.Error(1)
}

func (m *MockNotificationStore) ListUserNotifications(
	ctx context.Context,
	userID, limit int64,
) ([]store.Notification, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]store.Notification), args.Error(1)
}

func (m *MockNotificationStore) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) ReadUserByID(ctx context.Context, userID int64) (*store.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.User), args.Error(1)
}

func (m *MockUserStore) ListActiveUsers(ctx context.Context) ([]*store.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishToUser(userID int64, payload any) error {
	args := m.Called(userID, payload)
	return args.Error(0)
}

type MockEventDeliverer struct {
	mock.Mock
}

func (m *MockEventDeliverer) DeliverEvent(
	ctx context.Context,
	projectID int64,
	eventType types.EventType,
	payload any,
) (int, error) {
	args := m.Called(ctx, projectID, eventType, payload)
	return args.Int(0), args.Error(1)
}

type MockBroadcastNotifier struct {
	mock.Mock
}

func (m *MockBroadcastNotifier) NotifyAll(
	ctx context.Context,
	category types.NotificationCategory,
	title, message, link string,
) error {
	args := m.Called(ctx, category, title, message, link)
	return args.Error(0)
}
