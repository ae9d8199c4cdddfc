package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupQueueTest(t *testing.T) *Queue {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Job{}))

	q := NewQueue(db)
	t.Cleanup(q.Stop)
	return q
}

func TestEnqueueAndProcessJob(t *testing.T) {
	q := setupQueueTest(t)

	processed := make(chan struct{})
	q.RegisterHandler(JobTypeSendNotification, func(ctx context.Context, job Job) (interface{}, error) {
		close(processed)
		return map[string]string{"status": "delivered"}, nil
	})

	jobID, err := q.EnqueueJob(JobTypeSendNotification, map[string]string{"user": "u1"})
	require.NoError(t, err)

	q.ProcessJobs()

	select {
	case <-processed:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never processed")
	}

	require.Eventually(t, func() bool {
		job, err := q.GetJob(jobID)
		return err == nil && job.Status == JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFailedJobIsScheduledForRetry(t *testing.T) {
	q := setupQueueTest(t)

	q.RegisterHandler(JobTypeReconcileLevels, func(ctx context.Context, job Job) (interface{}, error) {
		return nil, errors.New("transient failure")
	})

	jobID, err := q.EnqueueJob(JobTypeReconcileLevels, nil)
	require.NoError(t, err)

	q.ProcessJobs()

	require.Eventually(t, func() bool {
		job, err := q.GetJob(jobID)
		return err == nil && job.Status == JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	job, err := q.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, 1, job.RetryCount)
	assert.NotNil(t, job.NextRetry)
	assert.Contains(t, job.Error, "transient failure")
}

func TestStopIsSafeWhileProcessing(t *testing.T) {
	q := setupQueueTest(t)
	q.RegisterHandler(JobTypeRefreshLeaderboard, func(ctx context.Context, job Job) (interface{}, error) {
		return nil, nil
	})

	q.ProcessJobs()
	q.ProcessJobs() // second start is a no-op

	for i := 0; i < 5; i++ {
		if _, err := q.EnqueueJob(JobTypeRefreshLeaderboard, nil); err != nil {
			t.Fatal(err)
		}
	}

	q.Stop()
	q.ProcessJobs() // restart after stop
	q.Stop()
}
