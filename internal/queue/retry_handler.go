package queue

import (
	"log"
	"time"

	"gorm.io/gorm"
)

// RetryConfig defines the configuration for job retries
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// RetryHandler manages job retries with exponential backoff
type RetryHandler struct {
	db        *gorm.DB
	queue     *Queue
	retryConf RetryConfig
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(db *gorm.DB, queue *Queue) *RetryHandler {
	conf := RetryConfig{
		MaxRetries:      5,
		InitialInterval: 30 * time.Second,
		MaxInterval:     1 * time.Hour,
		Multiplier:      2.0,
	}

	return &RetryHandler{
		db:        db,
		queue:     queue,
		retryConf: conf,
	}
}

// HandleFailedJob schedules a retry for a failed job, or marks it failed
// permanently once retries are exhausted
func (r *RetryHandler) HandleFailedJob(job Job, jobErr error) {
	if job.RetryCount >= r.retryConf.MaxRetries {
		log.Printf("Job %s exhausted retries: %v", job.ID, jobErr)
		if err := r.db.Model(&job).Updates(map[string]interface{}{
			"status":     JobStatusFailed,
			"error":      jobErr.Error(),
			"updated_at": time.Now(),
		}).Error; err != nil {
			log.Printf("Failed to mark job %s failed: %v", job.ID, err)
		}
		return
	}

	interval := r.retryConf.InitialInterval
	for i := 0; i < job.RetryCount; i++ {
		interval = time.Duration(float64(interval) * r.retryConf.Multiplier)
		if interval > r.retryConf.MaxInterval {
			interval = r.retryConf.MaxInterval
			break
		}
	}
	nextRetry := time.Now().Add(interval)

	if err := r.db.Model(&job).Updates(map[string]interface{}{
		"status":      JobStatusFailed,
		"error":       jobErr.Error(),
		"retry_count": job.RetryCount + 1,
		"next_retry":  nextRetry,
		"updated_at":  time.Now(),
	}).Error; err != nil {
		log.Printf("Failed to schedule retry for job %s: %v", job.ID, err)
	}
}

// StartRetryProcessor periodically re-queues failed jobs whose retry time
// has arrived
func (r *RetryHandler) StartRetryProcessor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			r.processRetries()
		}
	}()
}

func (r *RetryHandler) processRetries() {
	var jobs []Job
	err := r.db.Where("status = ? AND next_retry IS NOT NULL AND next_retry <= ?", JobStatusFailed, time.Now()).
		Find(&jobs).Error
	if err != nil {
		log.Printf("Failed to load retryable jobs: %v", err)
		return
	}

	for _, job := range jobs {
		if err := r.db.Model(&job).Updates(map[string]interface{}{
			"status":     JobStatusPending,
			"next_retry": nil,
			"updated_at": time.Now(),
		}).Error; err != nil {
			log.Printf("Failed to requeue job %s: %v", job.ID, err)
		}
	}
}
