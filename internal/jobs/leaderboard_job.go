package jobs

import (
	"context"

	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/leaderboard"
)

// RegisterLeaderboardJobHandlers registers the leaderboard rebuild handler.
// Incremental ZINCRBY updates drift if Redis restarts or a credit partially
// fails; the rebuild reconverges the sorted set from the users table.
func RegisterLeaderboardJobHandlers(q queue.QueueInterface, lb *leaderboard.LeaderboardService) {
	q.RegisterHandler(queue.JobTypeRefreshLeaderboard, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, lb.Rebuild(ctx)
	})
}
