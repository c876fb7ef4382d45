package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func finishedRun(status store.TestRunStatus) *store.TestRun {
	return &store.TestRun{
		TestRunID:        42,
		TestRunProjectID: 7,
		TestRunUserID:    util.AsPtr(int64(3)),
		Status:           status,
		CurrentStep:      store.StepCompleted,
		ExecutionTime:    util.AsPtr(12.5),
		ProjectName:      "web",
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("success - every branch runs", func(t *testing.T) {
		// arrange
		webhooks := new(MockEventDeliverer)
		notifications := new(MockBroadcastNotifier)
		mailer := new(MockMailer)
		users := new(MockUserStore)
		data := TestRunEventData{RunID: 42, Status: store.StatusPassed, ProjectName: "web"}
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunCompleted, data).Return(1, nil)
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunPassed, data).Return(0, nil)
		notifications.On(
			"NotifyAll", mock.Anything, types.CategoryTestRun, "Test run #42 passed", mock.Anything, "/runs/42",
		).Return(nil)
		users.On("ReadUserByID", mock.Anything, int64(3)).Return(&store.User{UserID: 3, Email: "o@example.com"}, nil)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(e Email) bool {
			return e.To == "o@example.com" &&
				e.Subject == "Test run #42 Passed ✓" &&
				strings.Contains(e.Body, "Execution time: 12.5 seconds")
		})).Return(nil)
		d := NewDispatcher(webhooks, notifications, mailer, users)

		// act
		d.Dispatch(context.Background(), finishedRun(store.StatusPassed))

		// assert
		webhooks.AssertExpectations(t)
		notifications.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})
	t.Run("success - failing branches do not affect each other", func(t *testing.T) {
		// arrange
		webhooks := new(MockEventDeliverer)
		notifications := new(MockBroadcastNotifier)
		mailer := new(MockMailer)
		users := new(MockUserStore)
		webhooks.On("DeliverEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Panic("webhooks down")
		notifications.On("NotifyAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("no users"))
		users.On("ReadUserByID", mock.Anything, int64(3)).Return(&store.User{UserID: 3, Email: "o@example.com"}, nil)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(e Email) bool {
			return e.Subject == "Test run #42 Failed ✗"
		})).Return(nil)
		d := NewDispatcher(webhooks, notifications, mailer, users)

		// act
		assert.NotPanics(t, func() {
			d.Dispatch(context.Background(), finishedRun(store.StatusFailed))
		})

		// assert
		mailer.AssertExpectations(t)
		notifications.AssertNumberOfCalls(t, "NotifyAll", 1)
	})
	t.Run("success - run without owner sends no summary", func(t *testing.T) {
		// arrange
		webhooks := new(MockEventDeliverer)
		notifications := new(MockBroadcastNotifier)
		mailer := new(MockMailer)
		users := new(MockUserStore)
		webhooks.On("DeliverEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(0, nil)
		notifications.On("NotifyAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil)
		run := finishedRun(store.StatusFailed)
		run.TestRunUserID = nil
		d := NewDispatcher(webhooks, notifications, mailer, users)

		// act
		d.Dispatch(context.Background(), run)

		// assert
		webhooks.AssertCalled(t, "DeliverEvent", mock.Anything, int64(7), types.EventTestRunFailed, mock.Anything)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestDispatcher_deliverWebhooks(t *testing.T) {
	t.Run("failure - failed completed event still delivers outcome event", func(t *testing.T) {
		// arrange
		webhooks := new(MockEventDeliverer)
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunCompleted, mock.Anything).
			Return(0, errors.New("webhook store down"))
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunFailed, mock.Anything).
			Return(1, nil)
		d := NewDispatcher(webhooks, new(MockBroadcastNotifier), new(MockMailer), new(MockUserStore))

		// act
		err := d.deliverWebhooks(context.Background(), finishedRun(store.StatusFailed))

		// assert
		assert.ErrorContains(t, err, "webhook store down")
		assert.ErrorContains(t, err, string(types.EventTestRunCompleted))
		webhooks.AssertExpectations(t)
	})
	t.Run("failure - both event errors are joined", func(t *testing.T) {
		// arrange
		completedErr := errors.New("completed failed")
		passedErr := errors.New("passed failed")
		webhooks := new(MockEventDeliverer)
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunCompleted, mock.Anything).
			Return(0, completedErr)
		webhooks.On("DeliverEvent", mock.Anything, int64(7), types.EventTestRunPassed, mock.Anything).
			Return(0, passedErr)
		d := NewDispatcher(webhooks, new(MockBroadcastNotifier), new(MockMailer), new(MockUserStore))

		// act
		err := d.deliverWebhooks(context.Background(), finishedRun(store.StatusPassed))

		// assert
		assert.ErrorIs(t, err, completedErr)
		assert.ErrorIs(t, err, passedErr)
	})
}

func TestSummarySubject(t *testing.T) {
	assert.Equal(t, "Test run #42 Passed ✓", SummarySubject(finishedRun(store.StatusPassed)))
	assert.Equal(t, "Test run #42 Failed ✗", SummarySubject(finishedRun(store.StatusFailed)))
}
