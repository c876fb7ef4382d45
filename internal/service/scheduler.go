package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/util"
)

func NewScheduler() gocron.Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}
	return scheduler
}

type DeliveryPruner interface {
	PruneDeliveries(context.Context, time.Time) (int64, error)
}

// RetentionService removes old webhook delivery records and workspace
// directories left behind by crashed processes.
type RetentionService struct {
	pruner    DeliveryPruner
	workspace *Workspace
	now       func() time.Time
}

func NewRetentionService(pruner DeliveryPruner, workspace *Workspace) *RetentionService {
	return &RetentionService{pruner: pruner, workspace: workspace, now: time.Now}
}

func (s *RetentionService) Prune(ctx context.Context) {
	now := s.now()
	days := internal.CurrentConfiguration().DeliveryRetentionDays
	if days > 0 {
		deleted, err := s.pruner.PruneDeliveries(ctx, now.AddDate(0, 0, -int(days)))
		if err != nil {
			log.Println("err pruning webhook deliveries:", err)
		} else if deleted > 0 {
			log.Printf("pruned %d webhook deliveries\n", deleted)
		}
	}

	removed, err := util.RemoveStaleDirs(
		s.workspace.Root(),
		internal.WorkspaceDirPrefix,
		now.Add(-24*time.Hour),
	)
	if err != nil {
		log.Println("err removing stale workspaces:", err)
	} else if removed > 0 {
		log.Printf("removed %d stale workspaces\n", removed)
	}
}

// ScheduleRetention runs Prune every day at 03:00.
func ScheduleRetention(scheduler gocron.Scheduler, s *RetentionService) error {
	_, err := scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(s.Prune, context.Background()),
	)
	return err
}
