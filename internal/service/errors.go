package service

import (
	"errors"
	"fmt"

	"github.com/haatos/simple-qa/internal/store"
)

type ErrRunQueueFull struct{}

func (e ErrRunQueueFull) Error() string {
	return "run queue is full"
}

func NewErrRunQueueFull() *ErrRunQueueFull {
	return &ErrRunQueueFull{}
}

// StepError reports the pipeline step in which a run failed.
type StepError struct {
	Step store.TestRunStep
	Err  error
}

func (se StepError) Error() string {
	return fmt.Sprintf("%s: %v", se.Step, se.Err)
}

func (se StepError) Unwrap() error {
	return se.Err
}

var (
	ErrInvalidWebhookURL = errors.New("webhook url must be an absolute http(s) url")
	ErrInvalidEvent      = errors.New("unknown event pattern")
)
