package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/haatos/simple-qa/internal/store"
)

// InterruptedRunResult is the result of runs found unfinished at startup.
const InterruptedRunResult = "interrupted by server restart"

type Enqueuer interface {
	Enqueue(int64) error
}

type ProjectReader interface {
	ReadProjectByID(context.Context, int64) (*store.Project, error)
}

type TestRunService struct {
	runStore     TestRunStore
	projectStore ProjectReader
	queue        Enqueuer
}

type TestRunServicer interface {
	StartTestRun(
		ctx context.Context,
		projectID int64,
		userID *int64,
		repositoryURL *string,
		branch string,
	) (*store.TestRun, error)
	GetTestRunByID(context.Context, int64) (*store.TestRun, error)
	ListProjectTestRuns(ctx context.Context, projectID, limit int64) ([]store.TestRun, error)
}

func NewTestRunService(
	runStore TestRunStore,
	projectStore ProjectReader,
	queue Enqueuer,
) *TestRunService {
	return &TestRunService{runStore: runStore, projectStore: projectStore, queue: queue}
}

// StartTestRun creates a pending run and queues it. A run the queue cannot
// accept is failed immediately so it is never left pending. An unknown
// project returns sql.ErrNoRows.
func (s *TestRunService) StartTestRun(
	ctx context.Context,
	projectID int64,
	userID *int64,
	repositoryURL *string,
	branch string,
) (*store.TestRun, error) {
	if _, err := s.projectStore.ReadProjectByID(ctx, projectID); err != nil {
		return nil, fmt.Errorf("err reading project %d: %w", projectID, err)
	}
	if branch == "" {
		branch = "main"
	}
	if repositoryURL != nil && *repositoryURL == "" {
		repositoryURL = nil
	}
	run, err := s.runStore.CreateTestRun(ctx, projectID, userID, repositoryURL, branch)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(run.TestRunID); err != nil {
		if ferr := failTestRun(ctx, s.runStore, run.TestRunID, err.Error(), 0); ferr != nil {
			log.Println("err failing unqueued test run:", errors.Join(err, ferr))
		}
		return nil, err
	}
	return run, nil
}

// FailInterruptedTestRuns fails runs a previous process left pending or
// running. It must be called before the run queue starts.
func (s *TestRunService) FailInterruptedTestRuns(ctx context.Context) (int64, error) {
	return s.runStore.FailUnfinishedTestRuns(ctx, InterruptedRunResult)
}

func (s *TestRunService) GetTestRunByID(ctx context.Context, runID int64) (*store.TestRun, error) {
	return s.runStore.ReadTestRunByID(ctx, runID)
}

func (s *TestRunService) ListProjectTestRuns(
	ctx context.Context,
	projectID, limit int64,
) ([]store.TestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.runStore.ListProjectTestRuns(ctx, projectID, limit)
}

// failTestRun fails a run that never reached its strategy. The run enters
// running first so its status still moves pending, running, failed.
func failTestRun(
	ctx context.Context,
	w TestRunWriter,
	runID int64,
	reason string,
	executionTime float64,
) error {
	if err := w.UpdateTestRunStep(
		ctx, runID, store.StatusRunning, store.StepGitClone, time.Now().UTC(),
	); err != nil && !errors.Is(err, store.ErrInvalidTransition) {
		return err
	}
	return w.CompleteTestRun(ctx, runID, store.StatusFailed, &reason, executionTime)
}
