package testutil

import (
	"context"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockTestRunService struct {
	mock.Mock
}

func (m *MockTestRunService) StartTestRun(
	ctx context.Context,
	projectID int64,
	userID *int64,
	repositoryURL *string,
	branch string,
) (*store.TestRun, error) {
	args := m.Called(ctx, projectID, userID, repositoryURL, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TestRun), args.Error(1)
}

func (m *MockTestRunService) GetTestRunByID(ctx context.Context, runID int64) (*store.TestRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.TestRun), args.Error(1)
}

func (m *MockTestRunService) ListProjectTestRuns(
	ctx context.Context,
	projectID, limit int64,
) ([]store.TestRun, error) {
	args := m.Called(ctx, projectID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.TestRun), args.Error(1)
}
