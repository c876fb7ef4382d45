package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/types"
	"github.com/haatos/simple-qa/internal/util"
)

type EventDeliverer interface {
	DeliverEvent(context.Context, int64, types.EventType, any) (int, error)
}

type BroadcastNotifier interface {
	NotifyAll(context.Context, types.NotificationCategory, string, string, string) error
}

type UserByIDReader interface {
	ReadUserByID(context.Context, int64) (*store.User, error)
}

// TestRunEventData is the webhook payload for test run events.
type TestRunEventData struct {
	RunID       int64               `json:"run_id"`
	Status      store.TestRunStatus `json:"status"`
	ProjectName string              `json:"project_name"`
}

// Dispatcher fans a finished test run out to webhooks, in-app and email
// notifications and a summary email to the run's owner.
type Dispatcher struct {
	webhooks      EventDeliverer
	notifications BroadcastNotifier
	mailer        Mailer
	userStore     UserByIDReader
}

func NewDispatcher(
	webhooks EventDeliverer,
	notifications BroadcastNotifier,
	mailer Mailer,
	userStore UserByIDReader,
) *Dispatcher {
	return &Dispatcher{
		webhooks:      webhooks,
		notifications: notifications,
		mailer:        mailer,
		userStore:     userStore,
	}
}

// Dispatch runs every branch concurrently and waits for all of them. No
// branch can fail or block another, and nothing is returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, run *store.TestRun) {
	var wg sync.WaitGroup
	wg.Go(func() {
		guardBranch(run.TestRunID, "webhooks", func() error {
			return d.deliverWebhooks(ctx, run)
		})
	})
	wg.Go(func() {
		guardBranch(run.TestRunID, "notifications", func() error {
			return d.notify(ctx, run)
		})
	})
	wg.Go(func() {
		guardBranch(run.TestRunID, "summary email", func() error {
			return d.sendSummary(ctx, run)
		})
	})
	wg.Wait()
}

func guardBranch(runID int64, branch string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err dispatching %s for test run %d: %v\n", branch, runID, r)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("err dispatching %s for test run %d: %+v\n", branch, runID, err)
	}
}

func (d *Dispatcher) deliverWebhooks(ctx context.Context, run *store.TestRun) error {
	data := TestRunEventData{
		RunID:       run.TestRunID,
		Status:      run.Status,
		ProjectName: run.ProjectName,
	}
	outcome := types.EventTestRunFailed
	if run.Status == store.StatusPassed {
		outcome = types.EventTestRunPassed
	}
	// one failed event never suppresses the other
	var errs []error
	for _, event := range []types.EventType{types.EventTestRunCompleted, outcome} {
		if _, err := d.webhooks.DeliverEvent(ctx, run.TestRunProjectID, event, data); err != nil {
			errs = append(errs, fmt.Errorf("err delivering %s: %w", event, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) notify(ctx context.Context, run *store.TestRun) error {
	return d.notifications.NotifyAll(
		ctx,
		types.CategoryTestRun,
		fmt.Sprintf("Test run #%d %s", run.TestRunID, run.Status),
		fmt.Sprintf(
			"Test run #%d in %s %s after %.1fs",
			run.TestRunID, run.ProjectName, run.Status, util.Deref(run.ExecutionTime),
		),
		fmt.Sprintf("/runs/%d", run.TestRunID),
	)
}

func SummarySubject(run *store.TestRun) string {
	if run.Status == store.StatusPassed {
		return fmt.Sprintf("Test run #%d Passed ✓", run.TestRunID)
	}
	return fmt.Sprintf("Test run #%d Failed ✗", run.TestRunID)
}

func summaryBody(run *store.TestRun) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project: %s\n", run.ProjectName)
	fmt.Fprintf(&sb, "Status: %s\n", run.Status)
	fmt.Fprintf(&sb, "Execution time: %.1f seconds\n", util.Deref(run.ExecutionTime))
	if run.Result != nil {
		fmt.Fprintf(&sb, "\n%s\n", *run.Result)
	}
	return sb.String()
}

func (d *Dispatcher) sendSummary(ctx context.Context, run *store.TestRun) error {
	if run.TestRunUserID == nil {
		return nil
	}
	u, err := d.userStore.ReadUserByID(ctx, *run.TestRunUserID)
	if err != nil {
		return fmt.Errorf("err reading user %d: %w", *run.TestRunUserID, err)
	}
	return d.mailer.Send(ctx, Email{
		To:      u.Email,
		Subject: SummarySubject(run),
		Body:    summaryBody(run),
	})
}
