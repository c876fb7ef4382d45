package store

import (
	"errors"
	"time"
)

type TestRunStatus string

const (
	StatusPending TestRunStatus = "pending"
	StatusRunning TestRunStatus = "running"
	StatusPassed  TestRunStatus = "passed"
	StatusFailed  TestRunStatus = "failed"
)

func (s TestRunStatus) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed
}

type TestRunStep string

const (
	StepGitClone          TestRunStep = "git_clone"
	StepInstallDeps       TestRunStep = "install_deps"
	StepTestExecution     TestRunStep = "test_execution"
	StepProcessingResults TestRunStep = "processing_results"
	StepCompleted         TestRunStep = "completed"
)

// Steps lists every step in execution order.
var Steps = []TestRunStep{
	StepGitClone,
	StepInstallDeps,
	StepTestExecution,
	StepProcessingResults,
	StepCompleted,
}

// Ordinal is the position of s in Steps, or -1 for an unknown step.
func (s TestRunStep) Ordinal() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// ErrInvalidTransition is returned when an update would move a run out of
// a terminal status or move its step backwards.
var ErrInvalidTransition = errors.New("invalid test run transition")

type TestRun struct {
	TestRunID        int64         `json:"id"             param:"run_id"`
	TestRunProjectID int64         `json:"project_id"`
	TestRunUserID    *int64        `json:"user_id"`
	Status           TestRunStatus `json:"status"`
	CurrentStep      TestRunStep   `json:"current_step"`
	RepositoryURL    *string       `json:"repository_url" db:"repository_url"`
	Branch           string        `json:"branch"`
	ProjectType      *string       `json:"project_type"`
	Result           *string       `json:"result"`
	ExecutionTime    *float64      `json:"execution_time"`
	CreatedOn        time.Time     `json:"created_on"`
	StartedOn        *time.Time    `json:"started_on"`

	ProjectName string `json:"project_name"`
}

func (r *TestRun) HasRepository() bool {
	return r.RepositoryURL != nil && *r.RepositoryURL != ""
}
