package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
)

type TestRunWriter interface {
	CreateTestRun(context.Context, int64, *int64, *string, string) (*store.TestRun, error)
	UpdateTestRunStep(context.Context, int64, store.TestRunStatus, store.TestRunStep, time.Time) error
	UpdateTestRunProjectType(context.Context, int64, string) error
	CompleteTestRun(context.Context, int64, store.TestRunStatus, *string, float64) error
	FailUnfinishedTestRuns(context.Context, string) (int64, error)
}

type TestRunReader interface {
	ReadTestRunByID(context.Context, int64) (*store.TestRun, error)
	ListProjectTestRuns(context.Context, int64, int64) ([]store.TestRun, error)
}

type TestRunStore interface {
	TestRunWriter
	TestRunReader
}

type CompletionDispatcher interface {
	Dispatch(context.Context, *store.TestRun)
}

// PipelineRunner takes one test run from pending to a terminal status.
type PipelineRunner struct {
	runStore   TestRunStore
	workspace  *Workspace
	cloner     Cloner
	strategies *StrategyRegistry
	dispatcher CompletionDispatcher
	delays     func() internal.StepDelays
}

func NewPipelineRunner(
	runStore TestRunStore,
	workspace *Workspace,
	cloner Cloner,
	strategies *StrategyRegistry,
	dispatcher CompletionDispatcher,
) *PipelineRunner {
	return &PipelineRunner{
		runStore:   runStore,
		workspace:  workspace,
		cloner:     cloner,
		strategies: strategies,
		dispatcher: dispatcher,
		delays: func() internal.StepDelays {
			return internal.CurrentConfiguration().StepDelays
		},
	}
}

// Execute runs the steps of a test run in order and always leaves it
// passed or failed at the completed step. The workspace is removed on
// every exit path. The dispatcher is invoked once the final state is
// written.
func (pr *PipelineRunner) Execute(ctx context.Context, runID int64) error {
	run, err := pr.runStore.ReadTestRunByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("err reading test run %d: %w", runID, err)
	}
	if run.Status.IsTerminal() {
		return nil
	}

	status, result := pr.execute(ctx, run)
	executionTime := max(time.Since(run.CreatedOn).Seconds(), 0)

	// the final state is written even when ctx is already cancelled
	ctx = context.WithoutCancel(ctx)
	if err := pr.runStore.CompleteTestRun(ctx, run.TestRunID, status, result, executionTime); err != nil {
		log.Printf("err completing test run %d: %+v\n", run.TestRunID, err)
	}
	pr.dispatchCompleted(ctx, run, status, result, executionTime)
	return nil
}

// Abort fails a queued run that will never be executed and dispatches its
// completion like any other terminal run.
func (pr *PipelineRunner) Abort(ctx context.Context, runID int64, reason string) error {
	run, err := pr.runStore.ReadTestRunByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("err reading test run %d: %w", runID, err)
	}
	if run.Status.IsTerminal() {
		return nil
	}

	executionTime := max(time.Since(run.CreatedOn).Seconds(), 0)
	ctx = context.WithoutCancel(ctx)
	if err := failTestRun(ctx, pr.runStore, runID, reason, executionTime); err != nil {
		return fmt.Errorf("err aborting test run %d: %w", runID, err)
	}
	pr.dispatchCompleted(ctx, run, store.StatusFailed, &reason, executionTime)
	return nil
}

func (pr *PipelineRunner) dispatchCompleted(
	ctx context.Context,
	run *store.TestRun,
	status store.TestRunStatus,
	result *string,
	executionTime float64,
) {
	completed, err := pr.runStore.ReadTestRunByID(ctx, run.TestRunID)
	if err != nil {
		log.Printf("err reading completed test run %d: %+v\n", run.TestRunID, err)
		run.Status = status
		run.CurrentStep = store.StepCompleted
		run.Result = result
		run.ExecutionTime = &executionTime
		completed = run
	}
	pr.dispatcher.Dispatch(ctx, completed)
}

func (pr *PipelineRunner) execute(
	ctx context.Context,
	run *store.TestRun,
) (status store.TestRunStatus, result *string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err executing test run %d: %v\n", run.TestRunID, r)
			status = store.StatusFailed
			result = util.AsPtr(fmt.Sprintf("%v", r))
		}
	}()

	dir, err := pr.workspace.Acquire(run.TestRunID)
	if err != nil {
		if serr := pr.enterStep(ctx, run, store.StepGitClone); serr != nil {
			log.Printf("err starting test run %d: %+v\n", run.TestRunID, serr)
		}
		return store.StatusFailed, util.AsPtr(err.Error())
	}
	defer func() {
		if err := pr.workspace.Release(dir); err != nil {
			log.Printf("err removing workspace %s: %+v\n", dir, err)
		}
	}()

	res, err := pr.runSteps(ctx, run, dir)
	if err != nil {
		log.Printf("err executing test run %d: %+v\n", run.TestRunID, err)
		return store.StatusFailed, util.AsPtr(err.Error())
	}
	if res.Success {
		return store.StatusPassed, util.AsPtr("All tests passed")
	}
	return store.StatusFailed, util.AsPtr(
		fmt.Sprintf("Tests failed with exit code %d\n%s", res.ExitCode, tail(res.Output, outputTailLength)),
	)
}

func (pr *PipelineRunner) runSteps(
	ctx context.Context,
	run *store.TestRun,
	dir string,
) (StrategyResult, error) {
	delays := pr.delays()
	demo := !run.HasRepository()

	// without a repository there is nothing to inspect and every step is
	// simulated
	source := ""
	if err := pr.enterStep(ctx, run, store.StepGitClone); err != nil {
		return StrategyResult{}, err
	}
	if demo {
		if err := pause(ctx, delays.GitClone); err != nil {
			return StrategyResult{}, StepError{store.StepGitClone, err}
		}
	} else {
		if err := pr.cloner.Clone(ctx, *run.RepositoryURL, run.Branch, dir); err != nil {
			return StrategyResult{}, StepError{store.StepGitClone, err}
		}
		source = dir
	}

	projectType := DetectProjectType(source)
	if err := pr.runStore.UpdateTestRunProjectType(ctx, run.TestRunID, string(projectType)); err != nil {
		log.Printf("err updating project type of test run %d: %+v\n", run.TestRunID, err)
	}
	strategy, err := pr.strategies.Resolve(projectType, source)
	if err != nil {
		return StrategyResult{}, StepError{store.StepInstallDeps, err}
	}

	if err := pr.enterStep(ctx, run, store.StepInstallDeps); err != nil {
		return StrategyResult{}, err
	}
	if demo {
		if err := pause(ctx, delays.InstallDeps); err != nil {
			return StrategyResult{}, StepError{store.StepInstallDeps, err}
		}
	} else if err := strategy.Install(ctx, source); err != nil {
		return StrategyResult{}, StepError{store.StepInstallDeps, err}
	}

	if err := pr.enterStep(ctx, run, store.StepTestExecution); err != nil {
		return StrategyResult{}, err
	}
	if demo {
		if err := pause(ctx, delays.TestExecution); err != nil {
			return StrategyResult{}, StepError{store.StepTestExecution, err}
		}
	}
	res, err := strategy.Run(ctx, source)
	if err != nil {
		return StrategyResult{}, StepError{store.StepTestExecution, err}
	}

	if err := pr.enterStep(ctx, run, store.StepProcessingResults); err != nil {
		return StrategyResult{}, err
	}
	if demo {
		if err := pause(ctx, delays.ProcessingResults); err != nil {
			return StrategyResult{}, StepError{store.StepProcessingResults, err}
		}
	}
	if strategy.Name() != types.ProjectDemo {
		log.Printf("test run %d finished %s tests with exit code %d\n", run.TestRunID, strategy.Name(), res.ExitCode)
	}
	return res, nil
}

func (pr *PipelineRunner) enterStep(ctx context.Context, run *store.TestRun, step store.TestRunStep) error {
	if err := pr.runStore.UpdateTestRunStep(
		ctx,
		run.TestRunID,
		store.StatusRunning,
		step,
		time.Now().UTC(),
	); err != nil {
		return StepError{step, fmt.Errorf("err updating step: %w", err)}
	}
	run.Status = store.StatusRunning
	run.CurrentStep = step
	return nil
}

func pause(ctx context.Context, r internal.DelayRange) error {
	d := r.Draw()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
