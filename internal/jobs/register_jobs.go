package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/leaderboard"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers registers all job handlers with the queue
func RegisterAllJobHandlers(q queue.QueueInterface, db *gorm.DB, lb *leaderboard.LeaderboardService) {
	RegisterNotificationJobHandlers(q, db)
	RegisterLeaderboardJobHandlers(q, lb)
	RegisterReconciliationJobHandlers(q, db)
}

// ScheduleRecurringJobs enqueues the periodic maintenance jobs on a
// gocron scheduler and starts it
func ScheduleRecurringJobs(q queue.QueueInterface) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	if _, err := scheduler.Every(10).Minutes().Do(func() {
		if _, err := q.EnqueueJob(queue.JobTypeRefreshLeaderboard, nil); err != nil {
			log.Printf("Failed to enqueue leaderboard refresh: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	if _, err := scheduler.Every(1).Day().At("03:00").Do(func() {
		if _, err := q.EnqueueJob(queue.JobTypeReconcileLevels, nil); err != nil {
			log.Printf("Failed to enqueue level reconciliation sweep: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	scheduler.StartAsync()
	return scheduler, nil
}
