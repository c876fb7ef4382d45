package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/util"
	"github.com/stretchr/testify/assert"
)

type stubEnqueuer struct {
	err    error
	runIDs []int64
}

func (s *stubEnqueuer) Enqueue(runID int64) error {
	if s.err != nil {
		return s.err
	}
	s.runIDs = append(s.runIDs, runID)
	return nil
}

type stubProjectReader struct {
	err error
}

func (s stubProjectReader) ReadProjectByID(_ context.Context, id int64) (*store.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &store.Project{ProjectID: id, Name: "web"}, nil
}

func TestTestRunService_StartTestRun(t *testing.T) {
	t.Run("success - run is created pending and queued", func(t *testing.T) {
		// arrange
		runStore := newFakeRunStore(store.TestRun{})
		queue := &stubEnqueuer{}
		s := NewTestRunService(runStore, stubProjectReader{}, queue)

		// act
		run, err := s.StartTestRun(context.Background(), 7, util.AsPtr(int64(3)), util.AsPtr(""), "")

		// assert
		assert.NoError(t, err)
		assert.Equal(t, store.StatusPending, run.Status)
		assert.Equal(t, "main", run.Branch)
		assert.Nil(t, run.RepositoryURL)
		assert.Equal(t, []int64{run.TestRunID}, queue.runIDs)
	})
	t.Run("failure - full queue fails the run", func(t *testing.T) {
		// arrange
		runStore := newFakeRunStore(store.TestRun{})
		s := NewTestRunService(runStore, stubProjectReader{}, &stubEnqueuer{err: NewErrRunQueueFull()})

		// act
		_, err := s.StartTestRun(context.Background(), 7, nil, nil, "develop")

		// assert
		var full *ErrRunQueueFull
		assert.True(t, errors.As(err, &full))
		run, _ := runStore.ReadTestRunByID(context.Background(), 1)
		assert.Equal(t, store.StatusFailed, run.Status)
		assert.Equal(t, store.StepCompleted, run.CurrentStep)
		assert.Equal(t, []store.TestRunStep{store.StepGitClone, store.StepCompleted}, runStore.steps)
		assert.NotNil(t, run.StartedOn)
	})
	t.Run("failure - unknown project creates no run", func(t *testing.T) {
		// arrange
		runStore := newFakeRunStore(store.TestRun{})
		queue := &stubEnqueuer{}
		s := NewTestRunService(runStore, stubProjectReader{err: sql.ErrNoRows}, queue)

		// act
		_, err := s.StartTestRun(context.Background(), 99, nil, nil, "")

		// assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Empty(t, queue.runIDs)
		run, _ := runStore.ReadTestRunByID(context.Background(), 1)
		assert.Zero(t, run.TestRunID)
	})
}

func TestTestRunService_FailInterruptedTestRuns(t *testing.T) {
	t.Run("success - unfinished run is failed", func(t *testing.T) {
		// arrange
		run := pendingRun(5, nil)
		run.Status = store.StatusRunning
		runStore := newFakeRunStore(run)
		s := NewTestRunService(runStore, stubProjectReader{}, &stubEnqueuer{})

		// act
		n, err := s.FailInterruptedTestRuns(context.Background())

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
		failed, _ := runStore.ReadTestRunByID(context.Background(), 5)
		assert.Equal(t, store.StatusFailed, failed.Status)
		assert.Equal(t, InterruptedRunResult, util.Deref(failed.Result))
	})
}
