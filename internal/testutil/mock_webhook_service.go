package testutil

import (
	"context"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) CreateWebhook(
	ctx context.Context,
	projectID int64,
	rawURL, secretToken string,
	events []string,
) (*store.Webhook, error) {
	args := m.Called(ctx, projectID, rawURL, secretToken, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Webhook), args.Error(1)
}

func (m *MockWebhookService) GetWebhookByID(ctx context.Context, webhookID int64) (*store.Webhook, error) {
	args := m.Called(ctx, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Webhook), args.Error(1)
}

func (m *MockWebhookService) ListDeliveries(
	ctx context.Context,
	webhookID, limit int64,
) ([]store.WebhookDelivery, error) {
	args := m.Called(ctx, webhookID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.WebhookDelivery), args.Error(1)
}

func (m *MockWebhookService) SendTestPing(ctx context.Context, webhookID int64) (bool, error) {
	args := m.Called(ctx, webhookID)
	return args.Bool(0), args.Error(1)
}
