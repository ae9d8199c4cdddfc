package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendNotification   JobType = "send_notification"
	JobTypeRefreshLeaderboard JobType = "refresh_leaderboard"
	JobTypeReconcileLevels    JobType = "reconcile_levels"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)

// QueueInterface defines the interface for job queue operations
type QueueInterface interface {
	RegisterHandler(jobType JobType, handler JobHandler)
	EnqueueJob(jobType JobType, payload interface{}) (string, error)
}

// Queue is a database-backed job queue with retry support
type Queue struct {
	db           *gorm.DB
	handlers     map[JobType]JobHandler
	retryHandler *RetryHandler
	processing   atomic.Bool
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB) *Queue {
	q := &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
	}

	q.retryHandler = NewRetryHandler(db, q)
	q.retryHandler.StartRetryProcessor(1 * time.Minute)

	return q
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if result := q.db.Create(&job); result.Error != nil {
		return "", result.Error
	}

	return job.ID.String(), nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	err := q.db.Model(&Job{}).Where("id = ?", jobID).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ProcessJobs starts processing jobs from the queue. Safe to call once;
// subsequent calls are no-ops until Stop
func (q *Queue) ProcessJobs() {
	if !q.processing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		for q.processing.Load() {
			var job Job
			err := q.db.Model(&Job{}).Where("status = ?", JobStatusPending).Order("created_at ASC").First(&job).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					log.Printf("Error getting job from queue: %v", err)
				}
				time.Sleep(1 * time.Second)
				continue
			}

			q.processJob(job)
		}
	}()
}

// Stop stops the processing loop after the current job finishes
func (q *Queue) Stop() {
	q.processing.Store(false)
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type: %s", job.Type)
		q.markFailed(job, fmt.Errorf("no handler registered"))
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusProcessing,
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to update job status: %v", err)
		return
	}

	result, err := handler(context.Background(), job)
	if err != nil {
		if q.retryHandler != nil {
			q.retryHandler.HandleFailedJob(job, err)
			return
		}
		q.markFailed(job, err)
		return
	}

	updates := map[string]interface{}{
		"status":     JobStatusCompleted,
		"updated_at": time.Now(),
	}
	if result != nil {
		if resultBytes, marshalErr := json.Marshal(result); marshalErr == nil {
			updates["result"] = resultBytes
		}
	}
	if err := q.db.Model(&job).Updates(updates).Error; err != nil {
		log.Printf("Failed to mark job %s completed: %v", job.ID, err)
	}
}

func (q *Queue) markFailed(job Job, jobErr error) {
	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status":     JobStatusFailed,
		"error":      jobErr.Error(),
		"updated_at": time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to mark job %s failed: %v", job.ID, err)
	}
}
